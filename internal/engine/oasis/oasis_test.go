package oasis

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/darkkaiser/price-watcher/internal/pkg/errors"
	"github.com/darkkaiser/price-watcher/internal/engine"
	"github.com/darkkaiser/price-watcher/internal/product"
	"github.com/darkkaiser/price-watcher/internal/scraper/scrapertest"
)

const fixture = `<html><body>
<div class="o_currentPath"><a>홈</a><a>채소</a><a>쌈채소</a></div>
<ul><li class="swiper-slide"><img src="https://img.oasis.co.kr/lettuce.jpg"></li></ul>
<div class="oDetail_info_group_title"><h1> 유기농 상추 200g </h1></div>
<div class="oDetail_info_gr_shopName"><strong>우리농장</strong></div>
<div class="oDetail_info_group_price">
	<div class="cost">4,500원</div>
	<div class="discountPrice">3,900원</div>
</div>
<div class="oDetail_info_group2">
	<dl>
		<dt>배송</dt><dd><em>새벽배송</em></dd>
		<dt>배송비</dt><dd class="deliverySave">3,000원 (30,000원 이상 무료)</dd>
		<dt>단위가격</dt><dd>100g당 1,950원</dd>
	</dl>
</div>
<a class="buyItNowFromDetail">바로구매</a>
</body></html>`

// TestParseID URL 끝의 상품 번호를 추출합니다.
func TestParseID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		itemURL string
		want    string
		wantErr bool
	}{
		{name: "기본 URL", itemURL: "https://m.oasis.co.kr/product/detail/12345", want: "12345"},
		{name: "쿼리 포함", itemURL: "https://m.oasis.co.kr/product/detail/12345?ref=main", want: "12345"},
		{name: "숫자 없음", itemURL: "https://m.oasis.co.kr/main/index", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			id, err := ParseID(tt.itemURL)
			if tt.wantErr {
				assert.True(t, apperrors.Is(err, apperrors.InvalidItemURL))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id.TargetID())
		})
	}
}

// TestEngine_Load 모바일 페이지에서 상품 정보를 추출합니다.
func TestEngine_Load(t *testing.T) {
	t.Parallel()

	e, err := New(engine.Options{ItemURL: "https://m.oasis.co.kr/product/detail/12345"})
	require.NoError(t, err)

	p, err := e.Load(t.Context(), scrapertest.New(http.StatusOK, fixture))
	require.NoError(t, err)

	assert.Equal(t, "유기농 상추 200g", p.Name)
	assert.Equal(t, "우리농장", p.Brand)
	assert.Equal(t, "https://img.oasis.co.kr/lettuce.jpg", p.Image)
	assert.Equal(t, product.Category("채소|쌈채소"), p.Category, "홈은 경로에서 제외")
	assert.Equal(t, product.InStock, p.Inventory)

	assert.Equal(t, 3900.0, p.Price.Price)
	assert.Equal(t, 4500.0, p.Price.OriginalPrice)

	// 100g당 1,950원 → 1g당 19.5원
	assert.Equal(t, product.UnitGram, p.Unit.Type)
	assert.InDelta(t, 19.5, p.Unit.Price, 0.0001)

	assert.Equal(t, product.DeliveryDawn, p.Delivery.Type)
	assert.Equal(t, product.DeliveryPayFreeOrPaid, p.Delivery.PayType)
	assert.Equal(t, 3000.0, p.Delivery.Price)
	assert.Equal(t, 30000.0, p.Delivery.Threshold)
}

// TestEngine_Load_SoldOut 품절 버튼 문구로 재고 상태를 판정합니다.
func TestEngine_Load_SoldOut(t *testing.T) {
	t.Parallel()

	page := `<html><body>
<div class="oDetail_info_group_title"><h1>상추</h1></div>
<div class="oDetail_info_group_price"><div class="discountPrice">3,900원</div></div>
<a class="buyItNowFromDetail">품절</a>
</body></html>`

	e, err := New(engine.Options{ItemURL: "https://m.oasis.co.kr/product/detail/12345"})
	require.NoError(t, err)

	p, err := e.Load(t.Context(), scrapertest.New(http.StatusOK, page))
	require.NoError(t, err)
	assert.Equal(t, product.OutOfStock, p.Inventory)
}

// TestEngine_Load_NotFound 404는 삭제된 상품으로 종결됩니다.
func TestEngine_Load_NotFound(t *testing.T) {
	t.Parallel()

	e, err := New(engine.Options{ItemURL: "https://m.oasis.co.kr/product/detail/12345"})
	require.NoError(t, err)

	p, err := e.Load(t.Context(), scrapertest.NotFound())
	require.NoError(t, err)
	assert.Equal(t, product.StatusDeleted, p.Status)
}

// TestEngine_Load_NameMissing 상품명이 없으면 파싱 실패입니다.
func TestEngine_Load_NameMissing(t *testing.T) {
	t.Parallel()

	e, err := New(engine.Options{ItemURL: "https://m.oasis.co.kr/product/detail/12345"})
	require.NoError(t, err)

	_, err = e.Load(t.Context(), scrapertest.New(http.StatusOK, `<html><body>점검 중</body></html>`))
	assert.True(t, apperrors.Is(err, apperrors.ParsingFailed))
}
