package rankingdak

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/darkkaiser/price-watcher/internal/pkg/errors"
	"github.com/darkkaiser/price-watcher/internal/engine"
	"github.com/darkkaiser/price-watcher/internal/product"
	"github.com/darkkaiser/price-watcher/internal/scraper"
	"github.com/darkkaiser/price-watcher/internal/scraper/scrapertest"
)

const fixture = `<html><body>
<div class="goods-img-area"><img src="https://img.rankingdak.com/breast.jpg"></div>
<div class="price-info">
	<div class="goods-price">
		<p class="origin">12,900원</p>
		<p class="price">9,900원</p>
		<p class="price-detail">100g당 가격 : 990원</p>
	</div>
	<span class="orderTotalPoint">99</span>
</div>
<div class="table-item"><em>브랜드관</em><a>아임닭</a></div>
<div class="table-item"><em>배송방법</em><span class="title-list">일반배송, 특급배송</span></div>
<div class="ingredient_wrap">닭가슴살 100%</div>
<form name="productCounselForm"><input name="productnm" value="소프트 닭가슴살 10팩"></form>
<ul class="selected-options-ul1">
	<li data-id="opt1" data-name="오리지널" data-amt="9900"></li>
	<li data-id="opt2" data-name="갈릭맛" data-amt="10900"></li>
</ul>
</body></html>`

const itemURL = "https://www.rankingdak.com/product/view?productCd=f000000991"

// TestParseID productCd 쿼리 파라미터를 추출합니다.
func TestParseID(t *testing.T) {
	t.Parallel()

	id, err := ParseID(itemURL)
	require.NoError(t, err)
	assert.Equal(t, "f000000991", id.TargetID())

	_, err = ParseID("https://www.rankingdak.com/event/main")
	assert.True(t, apperrors.Is(err, apperrors.InvalidItemURL))
}

// TestParseProduct 상품 페이지에서 상품 정보를 추출합니다.
func TestParseProduct(t *testing.T) {
	t.Parallel()

	id, err := ParseID(itemURL)
	require.NoError(t, err)

	res := &scraper.Response{URL: itemURL, StatusCode: http.StatusOK, Text: fixture}

	morning := time.Date(2026, 8, 28, 10, 0, 0, 0, time.Local)
	p, soldOut, err := parseProduct(id, res, morning)
	require.NoError(t, err)
	require.False(t, soldOut)

	assert.Equal(t, "소프트 닭가슴살 10팩", p.Name)
	assert.Equal(t, "아임닭", p.Brand)
	assert.Equal(t, "닭가슴살 100%", p.Description)
	assert.Equal(t, "https://img.rankingdak.com/breast.jpg", p.Image)

	assert.Equal(t, 9900.0, p.Price.Price)
	assert.Equal(t, 12900.0, p.Price.OriginalPrice)
	assert.Equal(t, 99.0, p.Price.Payback)

	// 100g당 990원
	assert.Equal(t, product.UnitGram, p.Unit.Type)
	assert.Equal(t, 990.0, p.Unit.Price)

	require.Len(t, p.Options, 2)
	assert.Equal(t, "갈릭맛", p.Options[1].Name)
	assert.Equal(t, 10900.0, p.Options[1].Price)

	// 오전 11시 이전 특급배송은 당일 도착
	assert.Equal(t, product.DeliveryExpress, p.Delivery.Type)
	assert.Equal(t, 80000.0, p.Delivery.Threshold)

	evening := time.Date(2026, 8, 28, 15, 0, 0, 0, time.Local)
	p, _, err = parseProduct(id, res, evening)
	require.NoError(t, err)
	assert.Equal(t, product.DeliveryDawn, p.Delivery.Type)
}

// TestEngine_Load_SoldOutScript 스크립트에 품절 처리가 있으면 종결합니다.
func TestEngine_Load_SoldOutScript(t *testing.T) {
	t.Parallel()

	e, err := New(engine.Options{ItemURL: itemURL})
	require.NoError(t, err)

	p, err := e.Load(t.Context(), scrapertest.New(http.StatusOK,
		`<html><head><script>alert("품절된 상품입니다.");</script></head><body></body></html>`))
	require.NoError(t, err)
	assert.Equal(t, product.StatusDeleted, p.Status)
}

// TestEngine_Load_NotFound 404는 삭제된 상품으로 종결됩니다.
func TestEngine_Load_NotFound(t *testing.T) {
	t.Parallel()

	e, err := New(engine.Options{ItemURL: itemURL})
	require.NoError(t, err)

	p, err := e.Load(t.Context(), scrapertest.NotFound())
	require.NoError(t, err)
	assert.Equal(t, product.StatusDeleted, p.Status)
	assert.Equal(t, "Deleted f000000991", p.Name)
}
