package buywisely

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"

	"github.com/darkkaiser/price-watcher/pkg/strutil"
)

// maxOffers 가격 선정에 반영하는 판매처 제안의 상한.
// 그 뒤의 제안이 더 싸더라도 반영하지 않습니다.
const maxOffers = 10

// pricePattern 통화 기호가 붙은 금액 표기 ("$1,234.56")
var pricePattern = regexp.MustCompile(`([$€£¥])\s*([\d,]+\.?\d*)`)

// extracted 추출 체인의 단계별 공통 결과입니다. 가격을 찾지 못하면 price가 nil입니다.
type extracted struct {
	title    string
	brand    string
	image    string
	link     string
	currency string
	price    *float64
}

// parseHydrated 하이드레이션 상품 레코드에서 상품 정보를 추출합니다.
// 가격은 앞에서 10개까지의 제안 중 최저 base_price입니다.
func parseHydrated(record gjson.Result) extracted {
	ex := extracted{
		title:    record.Get("title").String(),
		image:    record.Get("image").String(),
		currency: "AUD",
	}

	ex.brand = record.Get("brand").String()
	if ex.brand == "" {
		// 공백뿐인 title이면 첫 토큰이 없다.
		if fields := strings.Fields(ex.title); len(fields) > 0 {
			ex.brand = fields[0]
		}
	}

	ex.link = resolveLink(record)

	offers := record.Get("offers").Array()
	if len(offers) > maxOffers {
		offers = offers[:maxOffers]
	}
	for _, offer := range offers {
		base := offer.Get("base_price")
		if !base.Exists() {
			continue
		}
		value := base.Float()
		if ex.price == nil || value < *ex.price {
			v := value
			ex.price = &v
			if currency := offer.Get("currency").String(); currency != "" {
				ex.currency = currency
			}
		}
	}

	return ex
}

// resolveLink 판매처 상품 링크를 결정합니다. 추출된 링크가 BuyWisely 자신을
// 가리키면 추출 실패 신호로 보고 빈 링크를 반환합니다. 링크 필드가 없으면
// slug로 표준 상품 페이지 주소를 만듭니다.
func resolveLink(record gjson.Result) string {
	if link := record.Get("url").String(); link != "" {
		if strings.Contains(link, siteHost) {
			return ""
		}
		return link
	}

	if slug := record.Get("slug").String(); slug != "" {
		return fmt.Sprintf(productLinkURL, slug)
	}
	return ""
}

// parseDOM 하이드레이션 추출이 실패한 페이지를 DOM 휴리스틱으로 해석합니다.
// 제안 카드 → 제목(h3) 요소 → 본문 전체 텍스트 순으로 가격을 탐색하며,
// 각 단계는 앞 단계가 아무것도 찾지 못했을 때만 시도됩니다.
func parseDOM(doc *goquery.Document) extracted {
	ex := extracted{
		title:    strings.TrimSpace(doc.Find("h2").First().Text()),
		currency: "AUD",
	}

	if ex.title != "" {
		if first := strings.Fields(ex.title)[0]; first != "" {
			ex.brand = first
		}
	}

	prices, currency := offerCardPrices(doc)
	if len(prices) == 0 {
		prices, currency = headingPrices(doc)
	}
	if len(prices) == 0 {
		prices, currency = textPrices(doc.Text())
	}
	if len(prices) > 0 {
		min := prices[0]
		for _, v := range prices[1:] {
			if v < min {
				min = v
			}
		}
		ex.price = &min
		ex.currency = currency
	}

	ex.image = domImage(doc)
	ex.link = vendorLink(doc)
	return ex
}

// offerCardPrices 제안 카드에서 가격을 수집합니다. 과거 가격 표시나
// 재고 부족 표시가 붙은 카드는 현재 판매가가 아니므로 제외합니다.
func offerCardPrices(doc *goquery.Document) ([]float64, string) {
	var prices []float64
	currency := "AUD"

	doc.Find("div.MuiPaper-root.MuiCard-root").Each(func(_ int, card *goquery.Selection) {
		if card.Find("p.mui-1ik0owp").Length() > 0 || card.Find("p.mui-4u7vn6").Length() > 0 {
			return
		}
		if value, symbol, ok := matchPrice(card.Find("h3").First().Text()); ok {
			prices = append(prices, value)
			currency = currencyOf(symbol)
		}
	})
	return prices, currency
}

func headingPrices(doc *goquery.Document) ([]float64, string) {
	var prices []float64
	currency := "AUD"

	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, heading *goquery.Selection) {
		if value, symbol, ok := matchPrice(heading.Text()); ok {
			prices = append(prices, value)
			currency = currencyOf(symbol)
		}
	})
	return prices, currency
}

func textPrices(text string) ([]float64, string) {
	var prices []float64
	currency := "AUD"

	for _, m := range pricePattern.FindAllStringSubmatch(text, -1) {
		value, ok := strutil.ExtractNumber(m[2])
		if !ok {
			continue
		}
		prices = append(prices, value)
		currency = currencyOf(m[1])
	}
	return prices, currency
}

func matchPrice(text string) (value float64, symbol string, ok bool) {
	m := pricePattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return 0, "", false
	}
	value, ok = strutil.ExtractNumber(m[2])
	if !ok {
		return 0, "", false
	}
	return value, m[1], true
}

func currencyOf(symbol string) string {
	switch symbol {
	case "€":
		return "EUR"
	case "£":
		return "GBP"
	case "¥":
		return "JPY"
	default:
		return "AUD"
	}
}

func domImage(doc *goquery.Document) string {
	src, ok := doc.Find("div.MuiBox-root img").First().Attr("src")
	if !ok {
		src, _ = doc.Find("img").First().Attr("src")
	}
	if strings.HasPrefix(src, "/") {
		return "https://" + siteHost + src
	}
	return src
}

// vendorLink 외부 판매처로 나가는 첫 링크를 찾습니다. BuyWisely 자신을
// 가리키는 링크는 판매처 링크가 아니므로 제외합니다.
func vendorLink(doc *goquery.Document) string {
	var link string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if !strings.HasPrefix(href, "https://") || strings.Contains(href, siteHost) {
			return true
		}
		link = href
		return false
	})
	return link
}
