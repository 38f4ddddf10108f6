package ssg

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	apperrors "github.com/darkkaiser/price-watcher/internal/pkg/errors"
	"github.com/darkkaiser/price-watcher/internal/engine"
	"github.com/darkkaiser/price-watcher/internal/product"
	"github.com/darkkaiser/price-watcher/internal/scraper/scrapertest"
)

const fixture = `{
	"data": {
		"item": {
			"itemId": "1000031985904",
			"siteNo": "6001",
			"itemNm": "피코크 순살 고등어구이 280g",
			"brand": {"brandNm": "피코크"},
			"uitemImgList": [{"imgUrl": "https://sitem.ssgcdn.com/fish.jpg"}],
			"price": {"sellprc": 8980, "bestAmt": 7980, "sellUnitPrc": "100g 당 : 2,850원"},
			"itemBuyInfo": {"soldOut": "N"},
			"usablInvQty": 5,
			"rightBadgeList": [{"txt": "쓱-배송"}]
		},
		"itemDispCtgList": [{"dispCtgNm": "수산"}, {"dispCtgNm": "고등어"}]
	}
}`

// TestParseID itemId와 siteNo가 모두 있어야 유효한 URL입니다.
func TestParseID(t *testing.T) {
	t.Parallel()

	id, err := ParseID("https://emart.ssg.com/item/itemView.ssg?itemId=1000031985904&siteNo=6001")
	require.NoError(t, err)
	assert.Equal(t, "1000031985904", id.Part("product_id"))
	assert.Equal(t, "6001", id.Part("site_no"))
	assert.Equal(t, "1000031985904", id.TargetID())

	_, err = ParseID("https://emart.ssg.com/main")
	assert.True(t, apperrors.Is(err, apperrors.InvalidItemURL))
}

// TestEngine_Load 앱 API 응답에서 상품 정보를 추출합니다.
func TestEngine_Load(t *testing.T) {
	t.Parallel()

	e, err := New(engine.Options{ItemURL: "https://emart.ssg.com/item/itemView.ssg?itemId=1000031985904&siteNo=6001"})
	require.NoError(t, err)

	stub := scrapertest.New(http.StatusOK, fixture)

	p, err := e.Load(t.Context(), stub)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, stub.LastMethod)

	assert.Equal(t, "피코크 순살 고등어구이 280g", p.Name)
	assert.Equal(t, "피코크", p.Brand)
	assert.Equal(t, product.Category("수산|고등어"), p.Category)
	assert.Equal(t, "https://emart.ssg.com/item/itemView.ssg?itemId=1000031985904&siteNo=6001", p.URL)

	// 혜택가가 판매가, sellprc가 정상가
	assert.Equal(t, 7980.0, p.Price.Price)
	assert.Equal(t, 8980.0, p.Price.OriginalPrice)

	// 재고 5개 → 품절 임박
	assert.Equal(t, product.AlmostSoldOut, p.Inventory)

	// 100g 당 2,850원 → 1g당 28.5원
	assert.Equal(t, product.UnitGram, p.Unit.Type)
	assert.InDelta(t, 28.5, p.Unit.Price, 0.0001)

	// 쓱-배송 뱃지 → 4만원 이상 무료
	assert.Equal(t, product.DeliveryExpress, p.Delivery.Type)
	assert.Equal(t, 40000.0, p.Delivery.Threshold)
}

// TestEngine_Load_Deleted 삭제 신호(404, action.type 0001)는 모두 종결 상태입니다.
func TestEngine_Load_Deleted(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		stub *scrapertest.Stub
	}{
		{name: "404 응답", stub: scrapertest.NotFound()},
		{name: "action.type 0001", stub: scrapertest.New(http.StatusOK, `{"data":{"action":{"type":"0001"}}}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e, err := New(engine.Options{ItemURL: "https://emart.ssg.com/item/itemView.ssg?itemId=100&siteNo=6001"})
			require.NoError(t, err)

			p, err := e.Load(t.Context(), tt.stub)
			require.NoError(t, err)
			assert.Equal(t, product.StatusDeleted, p.Status)
			assert.Equal(t, "Deleted 100", p.Name)
		})
	}
}

// TestParseDelivery 배송 안내 문구 해석 규칙을 검증합니다.
func TestParseDelivery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		json      string
		wantPay   product.DeliveryPayType
		wantPrice float64
		wantLimit float64
	}{
		{
			name:      "조건부 무료 (만원 단위)",
			json:      `{"itemInfo":{"deliTypeInfo":{"msgMapList":[{"msg":"무료 (4만원 이상 무료)"}]}}}`,
			wantPay:   product.DeliveryPayFreeOrPaid,
			wantLimit: 40000,
		},
		{
			name:      "유료배송",
			json:      `{"itemInfo":{"deliTypeInfo":{"msgMapList":[{"msg":"배송비 3,000원"}]}}}`,
			wantPay:   product.DeliveryPayPaid,
			wantPrice: 3000,
		},
		{
			name:    "무료배송",
			json:    `{"itemInfo":{"deliTypeInfo":{"msgMapList":[{"msg":"배송비 무료"}]}}}`,
			wantPay: product.DeliveryPayFree,
		},
		{
			name:    "안내 문구 없음",
			json:    `{"itemInfo":{"deliTypeInfo":{}}}`,
			wantPay: product.DeliveryPayFree,
		},
		{
			name:    "배송 정보 자체가 없음",
			json:    `{}`,
			wantPay: product.DeliveryPayFreeOrPaid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := parseDelivery(gjson.Parse(tt.json), gjson.Parse(`{}`))
			assert.Equal(t, tt.wantPay, d.PayType)
			assert.Equal(t, tt.wantPrice, d.Price)
			assert.Equal(t, tt.wantLimit, d.Threshold)
		})
	}
}
