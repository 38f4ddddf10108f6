package kurly

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	apperrors "github.com/darkkaiser/price-watcher/internal/pkg/errors"
	"github.com/darkkaiser/price-watcher/internal/engine"
	"github.com/darkkaiser/price-watcher/internal/product"
	"github.com/darkkaiser/price-watcher/internal/scraper"
)

const fixture = `{
	"data": {
		"no": 5159822,
		"name": "유기농 흙당근 1kg",
		"short_description": "흙 묻은 그대로 더 신선하게",
		"main_image_url": "https://img-cf.kurly.com/carrot.jpg",
		"volume": "1kg",
		"base_price": 6500,
		"discounted_price": 5200,
		"retail_price": 7000,
		"is_sold_out": false,
		"category_ids": ["채소", "뿌리채소"],
		"seller_profile": [{"title": "판매자", "description": "컬리"}],
		"delivery_type_infos": [{"type": "DAWN"}],
		"deal_products": [
			{"no": 1, "name": "흙당근 1kg", "base_price": 5200, "is_sold_out": false},
			{"no": 2, "name": "흙당근 2kg", "base_price": 9900, "is_sold_out": true}
		]
	}
}`

// authScraper 게스트 토큰 발급과 상품 조회를 구분하여 응답하는 스텁입니다.
type authScraper struct {
	productText   string
	productStatus int
	lastAuth      string
}

func (s *authScraper) Get(ctx context.Context, url string, header http.Header) (*scraper.Response, error) {
	return s.Request(ctx, http.MethodGet, url, nil, header)
}

func (s *authScraper) Request(_ context.Context, _, url string, _ io.Reader, header http.Header) (*scraper.Response, error) {
	if strings.Contains(url, "auth/guest") {
		return &scraper.Response{
			URL:        url,
			StatusCode: http.StatusOK,
			Text:       `{"data":{"access_token":"guest-token"}}`,
		}, nil
	}

	s.lastAuth = header.Get("Authorization")
	return &scraper.Response{URL: url, StatusCode: s.productStatus, Text: s.productText}, nil
}

// TestParseID 상품 URL 형식(goods/products) 모두를 허용합니다.
func TestParseID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		itemURL string
		want    string
		wantErr bool
	}{
		{name: "goods 경로", itemURL: "https://www.kurly.com/goods/5159822", want: "5159822"},
		{name: "products 경로", itemURL: "https://www.kurly.com/products/5159822", want: "5159822"},
		{name: "상품 URL 아님", itemURL: "https://www.kurly.com/main", wantErr: true},
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

// TestEngine_Load 게스트 토큰 인증과 상품 추출을 검증합니다.
func TestEngine_Load(t *testing.T) {
	t.Parallel()

	e, err := New(engine.Options{ItemURL: "https://www.kurly.com/goods/5159822"})
	require.NoError(t, err)

	stub := &authScraper{productText: fixture, productStatus: http.StatusOK}

	p, err := e.Load(t.Context(), stub)
	require.NoError(t, err)

	assert.Equal(t, "Bearer guest-token", stub.lastAuth)

	assert.Equal(t, "유기농 흙당근 1kg", p.Name)
	assert.Equal(t, "컬리", p.Brand)
	assert.Equal(t, "흙 묻은 그대로 더 신선하게", p.Description)
	assert.Equal(t, "https://www.kurly.com/goods/5159822", p.URL)
	assert.Equal(t, product.Category("채소|뿌리채소"), p.Category)
	assert.Equal(t, product.InStock, p.Inventory)

	// 할인가 우선, 정상가는 retail_price
	assert.Equal(t, 5200.0, p.Price.Price)
	assert.Equal(t, 7000.0, p.Price.OriginalPrice)

	// 1kg → 1g당 5.2원으로 축약
	assert.Equal(t, product.UnitGram, p.Unit.Type)
	assert.InDelta(t, 5.2, p.Unit.Price, 0.0001)

	require.Len(t, p.Options, 2)
	assert.Equal(t, product.OutOfStock, p.Options[1].Inventory)
}

// TestEngine_Load_NotFound 404는 삭제된 상품으로 종결됩니다.
func TestEngine_Load_NotFound(t *testing.T) {
	t.Parallel()

	e, err := New(engine.Options{ItemURL: "https://www.kurly.com/goods/5159822"})
	require.NoError(t, err)

	stub := &authScraper{productStatus: http.StatusNotFound}

	p, err := e.Load(t.Context(), stub)
	require.NoError(t, err)
	assert.Equal(t, product.StatusDeleted, p.Status)
	assert.Equal(t, "Deleted 5159822", p.Name)
}

// TestParseDelivery 샛별배송 컷오프(23시) 분기를 검증합니다.
func TestParseDelivery(t *testing.T) {
	t.Parallel()

	data := gjson.Parse(`{"delivery_type_infos":[{"type":"DAWN"}]}`)

	t.Run("23시 이전 주문 → 다음 날 새벽 도착", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
		d := parseDelivery(data, now)

		assert.Equal(t, product.DeliveryDawn, d.Type)
		assert.Equal(t, 40000.0, d.Threshold)
		require.NotNil(t, d.ArriveDate)
		assert.Equal(t, "2026-08-29", d.ArriveDate.Format("2006-01-02"))
	})

	t.Run("23시 이후 주문 → 이틀 뒤 도착", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2026, 8, 28, 23, 30, 0, 0, time.UTC)
		d := parseDelivery(data, now)

		assert.Equal(t, product.DeliveryExpress, d.Type)
		require.NotNil(t, d.ArriveDate)
		assert.Equal(t, "2026-08-30", d.ArriveDate.Format("2006-01-02"))
	})

	t.Run("샛별배송 아님 → 일반배송", func(t *testing.T) {
		t.Parallel()

		d := parseDelivery(gjson.Parse(`{"delivery_type_infos":[{"type":"NORMAL_PARCEL"}]}`), time.Now())
		assert.Equal(t, product.DeliveryStandard, d.Type)
		assert.Nil(t, d.ArriveDate)
	})
}
