package ncnc

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
	"item": {
		"id": 12345,
		"name": "스타벅스 아이스 카페 아메리카노 T",
		"imageUrl": "https://img.ncnc.app/americano.png",
		"originalPrice": 4700,
		"conCategory2": {"name": "스타벅스", "conCategory1": {"name": "카페"}},
		"conItems": [
			{"isSoldOut": true, "minSellingPrice": 3900, "info": "품절 건"},
			{"isSoldOut": false, "minSellingPrice": 4100, "info": "유효기간 30일 이상"},
			{"isSoldOut": false, "minSellingPrice": 4200, "info": "유효기간 7일"}
		]
	}
}`

// TestParseID 감시 대상 값 자체가 상품 번호입니다.
func TestParseID(t *testing.T) {
	t.Parallel()

	id, err := ParseID("12345")
	require.NoError(t, err)
	assert.Equal(t, "12345", id.TargetID())

	_, err = ParseID("")
	assert.True(t, apperrors.Is(err, apperrors.InvalidItemURL))
}

// TestEngine_Load 판매 중인 첫 건의 최저가를 사용합니다.
func TestEngine_Load(t *testing.T) {
	t.Parallel()

	e, err := New(engine.Options{ItemURL: "12345"})
	require.NoError(t, err)

	stub := scrapertest.New(http.StatusOK, fixture)

	p, err := e.Load(t.Context(), stub)
	require.NoError(t, err)

	assert.Equal(t, apiKey, stub.LastHeader.Get("x-api-key"))

	assert.Equal(t, "스타벅스 아이스 카페 아메리카노 T", p.Name)
	assert.Equal(t, "스타벅스", p.Brand)
	assert.Equal(t, "유효기간 30일 이상", p.Description)
	assert.Equal(t, product.Category("카페|스타벅스"), p.Category)

	assert.Equal(t, 4100.0, p.Price.Price)
	assert.Equal(t, 4700.0, p.Price.OriginalPrice)

	// 첫 판매건이 품절이면 임박, 나머지가 판매 중이므로 재고는 임박으로 판정
	assert.Equal(t, product.AlmostSoldOut, p.Inventory)
	assert.Equal(t, product.DeliveryNoInfo, p.Delivery.Type)
}

// TestEngine_Load_AllSoldOut 전부 품절이면 정가와 품절 상태만 남습니다.
func TestEngine_Load_AllSoldOut(t *testing.T) {
	t.Parallel()

	e, err := New(engine.Options{ItemURL: "12345"})
	require.NoError(t, err)

	p, err := e.Load(t.Context(), scrapertest.New(http.StatusOK,
		`{"item":{"name":"품절 기프티콘","originalPrice":10000,
			"conCategory2":{"name":"외식","conCategory1":{"name":"음식"}},
			"conItems":[{"isSoldOut":true,"minSellingPrice":9000}]}}`))
	require.NoError(t, err)

	assert.Equal(t, 10000.0, p.Price.Price)
	assert.Equal(t, 10000.0, p.Price.OriginalPrice)
	assert.Equal(t, product.OutOfStock, p.Inventory)
}

// TestEngine_Load_ErrorBody 오류 응답은 수집 실패로 처리합니다.
func TestEngine_Load_ErrorBody(t *testing.T) {
	t.Parallel()

	e, err := New(engine.Options{ItemURL: "12345"})
	require.NoError(t, err)

	_, err = e.Load(t.Context(), scrapertest.New(http.StatusOK, `{"error":"forbidden"}`))
	assert.True(t, apperrors.Is(err, apperrors.ExecutionFailed))
}

// TestEngine_Load_NotFound 404는 삭제된 상품으로 종결됩니다.
func TestEngine_Load_NotFound(t *testing.T) {
	t.Parallel()

	e, err := New(engine.Options{ItemURL: "12345"})
	require.NoError(t, err)

	p, err := e.Load(t.Context(), scrapertest.NotFound())
	require.NoError(t, err)
	assert.Equal(t, product.StatusDeleted, p.Status)
}
