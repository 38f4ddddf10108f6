package buywisely

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/darkkaiser/price-watcher/internal/engine"
	"github.com/darkkaiser/price-watcher/internal/product"
	"github.com/darkkaiser/price-watcher/internal/scraper/scrapertest"
)

const itemURL = "https://buywisely.com.au/product/apple-airpods-pro-2nd-gen"

func legacyPage(productJSON string) string {
	return fmt.Sprintf(`<html><head>
<script type="application/json" id="__NEXT_DATA__">{"props":{"pageProps":{"product":%s}}}</script>
</head><body></body></html>`, productJSON)
}

// TestParseID 상품 URL의 MD5 해시가 상품 번호가 됩니다.
func TestParseID(t *testing.T) {
	t.Parallel()

	id, err := ParseID(itemURL)
	require.NoError(t, err)
	assert.Len(t, id.TargetID(), 32)

	other, err := ParseID(itemURL + "?x=1")
	require.NoError(t, err)
	assert.NotEqual(t, id.TargetID(), other.TargetID())
}

// TestExtractHydration 두 하이드레이션 형식을 모두 해석하고,
// 깨진 JSON 조각은 건너뜁니다.
func TestExtractHydration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		want int
	}{
		{
			name: "구형 __NEXT_DATA__ (type 속성이 id보다 앞)",
			html: `<script type="application/json" id="__NEXT_DATA__">{"a":1}</script>`,
			want: 1,
		},
		{
			name: "구형 __NEXT_DATA__ (id 속성이 type보다 앞)",
			html: `<script id="__NEXT_DATA__" type="application/json">{"a":1}</script>`,
			want: 1,
		},
		{
			name: "HTML 엔티티가 섞인 구형 형식",
			html: `<script id="__NEXT_DATA__">{&quot;a&quot;:1}</script>`,
			want: 1,
		},
		{
			name: "스트리밍 push 형식",
			html: `<script>self.__next_f.push([1,"33:{\"title\":\"x\"}"])</script>`,
			want: 1,
		},
		{
			name: "깨진 JSON은 건너뜀",
			html: `<script id="__NEXT_DATA__">{broken</script>` +
				`<script>self.__next_f.push([1,"33:{\"ok\":true}"])</script>`,
			want: 1,
		},
		{
			name: "하이드레이션 스크립트 없음",
			html: `<script>console.log("hi")</script>`,
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Len(t, extractHydration(tt.html), tt.want)
		})
	}
}

// TestSearchTitleSlug 문서 순서 우선으로 title/slug 객체를 찾고,
// 깊이 한계를 넘는 구조는 탐색하지 않습니다.
func TestSearchTitleSlug(t *testing.T) {
	t.Parallel()

	root := gjson.Parse(`{
		"first": {"title": "only title"},
		"second": {"nested": [{"title": "찾는 대상", "slug": "target"}]},
		"third": {"title": "뒤에 오는 대상", "slug": "later"}
	}`)

	record, ok := searchTitleSlug(root)
	require.True(t, ok)
	assert.Equal(t, "target", record.Get("slug").String())

	// 깊이 한계(64)보다 깊이 묻힌 객체는 찾지 못한다.
	deep := strings.Repeat(`{"d":`, 70) + `{"title":"x","slug":"y"}` + strings.Repeat("}", 70)
	_, ok = searchTitleSlug(gjson.Parse(deep))
	assert.False(t, ok)
}

// TestEngine_Load_Hydrated 하이드레이션 레코드에서 상품을 구성합니다.
func TestEngine_Load_Hydrated(t *testing.T) {
	t.Parallel()

	e, err := New(engine.Options{ItemURL: itemURL})
	require.NoError(t, err)

	page := legacyPage(`{
		"title": "Apple AirPods Pro 2nd Gen",
		"slug": "apple-airpods-pro-2nd-gen",
		"image": "https://cdn.buywisely.com.au/airpods.jpg",
		"offers": [
			{"base_price": 399.0, "currency": "AUD"},
			{"base_price": 349.5, "currency": "AUD"},
			{"base_price": 379.0, "currency": "AUD"}
		]
	}`)

	p, err := e.Load(t.Context(), scrapertest.New(http.StatusOK, page))
	require.NoError(t, err)

	assert.Equal(t, "Apple AirPods Pro 2nd Gen", p.Name)
	assert.Equal(t, "Apple", p.Brand)
	assert.Equal(t, 349.5, p.Price.Price)
	assert.Equal(t, "AUD", p.Price.Currency)
	assert.Equal(t, "https://www.buywisely.com.au/product/apple-airpods-pro-2nd-gen", p.URL)
	assert.Equal(t, product.InStock, p.Inventory)
	assert.Equal(t, product.StatusActive, p.Status)
}

// TestParseHydrated_OfferCap 가격 선정은 앞 10개 제안으로 제한되며,
// 그 뒤의 더 싼 제안은 무시됩니다.
func TestParseHydrated_OfferCap(t *testing.T) {
	t.Parallel()

	first10 := []float64{100, 99.5, 10, 150, 75, 200, 5, 120, 80, 110}
	rest := []float64{1, 2, 3, 4, 5}

	var offers []string
	for _, v := range append(first10, rest...) {
		offers = append(offers, fmt.Sprintf(`{"base_price": %v, "currency": "AUD"}`, v))
	}
	record := gjson.Parse(fmt.Sprintf(`{"title":"Capped","slug":"capped","offers":[%s]}`,
		strings.Join(offers, ",")))

	ex := parseHydrated(record)
	require.NotNil(t, ex.price)
	assert.Equal(t, 5.0, *ex.price)
}

// TestParseHydrated_NoOffers 제안이 없으면 가격 없음이자 품절입니다.
func TestParseHydrated_NoOffers(t *testing.T) {
	t.Parallel()

	e, err := New(engine.Options{ItemURL: itemURL})
	require.NoError(t, err)

	page := legacyPage(`{"title": "Sold Out Item", "slug": "sold-out-item", "offers": []}`)

	p, err := e.Load(t.Context(), scrapertest.New(http.StatusOK, page))
	require.NoError(t, err)
	assert.Equal(t, product.OutOfStock, p.Inventory)
	assert.Equal(t, product.StatusInactive, p.Status)
	assert.Equal(t, 0.0, p.Price.Price)
}

// TestEngine_Load_WhitespaceTitle 공백뿐인 title을 가진 하이드레이션 레코드도
// 패닉 없이 처리되며, 브랜드는 비워 둡니다.
func TestEngine_Load_WhitespaceTitle(t *testing.T) {
	t.Parallel()

	e, err := New(engine.Options{ItemURL: itemURL})
	require.NoError(t, err)

	page := legacyPage(`{
		"title": "   ",
		"slug": "blank-title",
		"offers": [{"base_price": 49.0, "currency": "AUD"}]
	}`)

	p, err := e.Load(t.Context(), scrapertest.New(http.StatusOK, page))
	require.NoError(t, err)

	assert.Empty(t, p.Brand)
	assert.Equal(t, 49.0, p.Price.Price)
}

// TestResolveLink_SelfLinkRejection BuyWisely 자신을 가리키는 판매처 링크는
// 추출 실패로 보고 빈 링크를 반환합니다.
func TestResolveLink_SelfLinkRejection(t *testing.T) {
	t.Parallel()

	self := gjson.Parse(`{"url": "https://buywisely.com.au/product/loop", "slug": "loop"}`)
	assert.Equal(t, "", resolveLink(self))

	vendor := gjson.Parse(`{"url": "https://www.jbhifi.com.au/products/airpods", "slug": "x"}`)
	assert.Equal(t, "https://www.jbhifi.com.au/products/airpods", resolveLink(vendor))

	slugOnly := gjson.Parse(`{"slug": "airpods-pro"}`)
	assert.Equal(t, "https://www.buywisely.com.au/product/airpods-pro", resolveLink(slugOnly))
}

// TestEngine_Load_PushChunk 스트리밍 push 형식에서도 상품을 찾습니다.
func TestEngine_Load_PushChunk(t *testing.T) {
	t.Parallel()

	e, err := New(engine.Options{ItemURL: itemURL})
	require.NoError(t, err)

	page := `<html><body>
<script>self.__next_f.push([1,"33:{\"title\":\"Dyson V15 Detect\",\"slug\":\"dyson-v15\",\"offers\":[{\"base_price\":999,\"currency\":\"AUD\"}]}"])</script>
</body></html>`

	p, err := e.Load(t.Context(), scrapertest.New(http.StatusOK, page))
	require.NoError(t, err)
	assert.Equal(t, "Dyson V15 Detect", p.Name)
	assert.Equal(t, 999.0, p.Price.Price)
}

// TestEngine_Load_DOMFallback 하이드레이션이 없으면 DOM 휴리스틱으로 내려가며,
// 과거 가격 카드는 제외됩니다.
func TestEngine_Load_DOMFallback(t *testing.T) {
	t.Parallel()

	e, err := New(engine.Options{ItemURL: itemURL})
	require.NoError(t, err)

	page := `<html><body>
<h2>Sony WH-1000XM5</h2>
<div class="MuiBox-root"><img src="/images/sony.jpg"></div>
<div class="MuiPaper-root MuiCard-root">
	<p class="mui-1ik0owp">Historical low</p>
	<h3>$249.00</h3>
</div>
<div class="MuiPaper-root MuiCard-root"><h3>$399.00</h3></div>
<div class="MuiPaper-root MuiCard-root"><h3>$429.00</h3></div>
<a href="https://www.jbhifi.com.au/products/sony-wh1000xm5">Go to store</a>
</body></html>`

	p, err := e.Load(t.Context(), scrapertest.New(http.StatusOK, page))
	require.NoError(t, err)

	assert.Equal(t, "Sony WH-1000XM5", p.Name)
	assert.Equal(t, "Sony", p.Brand)
	assert.Equal(t, 399.0, p.Price.Price)
	assert.Equal(t, "https://buywisely.com.au/images/sony.jpg", p.Image)
	assert.Equal(t, "https://www.jbhifi.com.au/products/sony-wh1000xm5", p.URL)
}

// TestEngine_Load_TextFallback 마지막 수단으로 본문 텍스트에서 통화 기호가
// 붙은 금액을 찾아 최솟값을 선택합니다.
func TestEngine_Load_TextFallback(t *testing.T) {
	t.Parallel()

	e, err := New(engine.Options{ItemURL: itemURL})
	require.NoError(t, err)

	page := `<html><body><p>Prices from € 89.90 down from € 119.00</p></body></html>`

	p, err := e.Load(t.Context(), scrapertest.New(http.StatusOK, page))
	require.NoError(t, err)
	assert.Equal(t, 89.9, p.Price.Price)
	assert.Equal(t, "EUR", p.Price.Currency)
}

// TestEngine_Load_NotFound 404는 삭제된 상품으로 종결됩니다.
func TestEngine_Load_NotFound(t *testing.T) {
	t.Parallel()

	e, err := New(engine.Options{ItemURL: itemURL})
	require.NoError(t, err)

	p, err := e.Load(t.Context(), scrapertest.NotFound())
	require.NoError(t, err)
	assert.Equal(t, product.StatusDeleted, p.Status)
}
