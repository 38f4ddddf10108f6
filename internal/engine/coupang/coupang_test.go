package coupang

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

const fixture = `{
	"rCode": "RET0000",
	"rData": {
		"pageList": [
			{
				"page": "PAGE_ATF",
				"widgetList": [
					{"entity": {"viewType": "PRODUCT_DETAIL_PRODUCT_INFO", "title": [{"text": "코카콜라 제로 355ml x 24개"}]}},
					{"entity": {"viewType": "PRODUCT_DETAIL_ITEM_THUMBNAILS", "medias": [{"detail": "https://image.coupang.com/products/1.jpg"}]}}
				]
			},
			{
				"page": "PAGE_HANDLEBAR",
				"widgetList": [
					{
						"entity": {"viewType": "PRODUCT_DETAIL_BASE_INFO", "deliveryInfo": {"shippingFee": [{"text": "무료배송"}]}},
						"priceInfo": {"finalPrice": [12900], "originalPrice": [15900]}
					},
					{"entity": {"viewType": "PRODUCT_DETAIL_HANDLEBAR_QUANTITY", "deliveryDate": [{"text": "내일(금) 새벽 도착 보장"}]}}
				]
			}
		],
		"properties": {
			"pageSession": {"logging": {"exposureSchema": {"mandatory": {"brandName": "코카콜라", "rocketType": "ROCKET_FRESH"}}}},
			"itemDetail": {"logging": {"exposureSchema": {"mandatory": {"unitPrice": "(100ml당 152원)", "isAlmostOSS": false, "isOutOfStock": false}}}}
		}
	}
}`

// TestParseID URL 형식별 식별자 추출을 검증합니다.
func TestParseID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		itemURL string
		want    map[string]string
		wantErr bool
	}{
		{
			name:    "productId + itemId + vendorItemId",
			itemURL: "https://www.coupang.com/vp/products/123456?itemId=111&vendorItemId=222",
			want:    map[string]string{"product_id": "123456", "item_id": "111", "vendor_item_id": "222"},
		},
		{
			name:    "itemId만 존재",
			itemURL: "https://www.coupang.com/vp/products/123456?itemId=111",
			want:    map[string]string{"product_id": "123456", "item_id": "111", "vendor_item_id": ""},
		},
		{
			name:    "vendorItemId만 존재",
			itemURL: "https://www.coupang.com/vp/products/123456?vendorItemId=222",
			want:    map[string]string{"product_id": "123456", "item_id": "", "vendor_item_id": "222"},
		},
		{
			name:    "상품 URL 형식이 아님",
			itemURL: "https://www.coupang.com/np/categories/194176",
			wantErr: true,
		},
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
			for key, want := range tt.want {
				assert.Equal(t, want, id.Part(key), key)
			}
		})
	}
}

// TestEngine_EntityTarget 식별자 구성요소가 모두 이어 붙어야 합니다.
func TestEngine_EntityTarget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		itemURL string
		want    string
	}{
		{
			name:    "전체 구성요소",
			itemURL: "https://www.coupang.com/vp/products/123456?itemId=111&vendorItemId=222",
			want:    "123456_111_222",
		},
		{
			name:    "vendorItemId 없음",
			itemURL: "https://www.coupang.com/vp/products/123456?itemId=111",
			want:    "123456_111",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e, err := New(engine.Options{ItemURL: tt.itemURL})
			require.NoError(t, err)
			assert.Equal(t, tt.want, e.EntityTarget())
		})
	}
}

// TestEngine_Load 모듈러 API 응답에서 상품 정보를 추출합니다.
func TestEngine_Load(t *testing.T) {
	t.Parallel()

	e, err := New(engine.Options{ItemURL: "https://www.coupang.com/vp/products/123456?itemId=111&vendorItemId=222"})
	require.NoError(t, err)

	stub := scrapertest.New(http.StatusOK, fixture)

	p, err := e.Load(t.Context(), stub)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, stub.LastMethod)
	assert.Equal(t, xCoupangApp, stub.LastHeader.Get("Coupang-App"))

	assert.Equal(t, "코카콜라 제로 355ml x 24개", p.Name)
	assert.Equal(t, "코카콜라", p.Brand)
	assert.Equal(t, "https://image.coupang.com/products/1.jpg", p.Image)
	assert.Equal(t, "https://www.coupang.com/vp/products/123456?itemId=111&vendorItemId=222", p.URL)
	assert.Equal(t, product.StatusActive, p.Status)
	assert.Equal(t, product.InStock, p.Inventory)

	assert.Equal(t, 12900.0, p.Price.Price)
	assert.Equal(t, 15900.0, p.Price.OriginalPrice)
	assert.Equal(t, 3000.0, p.Price.DiscountAmount)

	// (100ml당 152원) → 1ml당 1.52원으로 축약
	assert.Equal(t, product.UnitMilliliter, p.Unit.Type)
	assert.Equal(t, 1.0, p.Unit.Quantity)
	assert.InDelta(t, 1.52, p.Unit.Price, 0.0001)

	// ROCKET_FRESH + "내일 ... 새벽" → 새벽배송, 15,000원 이상 무료
	assert.Equal(t, product.DeliveryDawn, p.Delivery.Type)
	assert.Equal(t, product.DeliveryPayFree, p.Delivery.PayType)
	assert.Equal(t, 15000.0, p.Delivery.Threshold)
}

// TestEngine_Load_NotFound 404는 삭제된 상품으로 종결됩니다.
func TestEngine_Load_NotFound(t *testing.T) {
	t.Parallel()

	e, err := New(engine.Options{ItemURL: "https://www.coupang.com/vp/products/123456?itemId=111&vendorItemId=222"})
	require.NoError(t, err)

	p, err := e.Load(t.Context(), scrapertest.NotFound())
	require.NoError(t, err, "404는 에러가 아닌 종결 상태")

	assert.Equal(t, product.StatusDeleted, p.Status)
	assert.Equal(t, "Deleted 123456_111_222", p.Name)
	assert.Equal(t, product.OutOfStock, p.Inventory)
	assert.Equal(t, http.StatusNotFound, p.HTTPStatus)
}

// TestEngine_Load_BadResponseCode 응답 코드가 다르면 파싱 실패입니다.
func TestEngine_Load_BadResponseCode(t *testing.T) {
	t.Parallel()

	e, err := New(engine.Options{ItemURL: "https://www.coupang.com/vp/products/123456?itemId=111"})
	require.NoError(t, err)

	_, err = e.Load(t.Context(), scrapertest.New(http.StatusOK, `{"rCode":"RET9999"}`))
	assert.True(t, apperrors.Is(err, apperrors.ParsingFailed))
}
