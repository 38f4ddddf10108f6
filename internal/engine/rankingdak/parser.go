package rankingdak

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	apperrors "github.com/darkkaiser/price-watcher/internal/pkg/errors"
	"github.com/darkkaiser/price-watcher/internal/product"
	"github.com/darkkaiser/price-watcher/internal/scraper"
	"github.com/darkkaiser/price-watcher/pkg/strutil"
)

// unitPattern 가격 영역의 단위가격 문구 ("100g당 가격 : 1,290원")
var unitPattern = regexp.MustCompile(`(?P<unit>[\d,]+)(?P<type>팩|g|kg)당.*?:.*?(?P<price>[\d,]+)원`)

func parseProduct(id product.Identifier, res *scraper.Response, now time.Time) (p *product.Product, soldOut bool, err error) {
	doc, err := res.Document()
	if err != nil {
		return nil, false, err
	}

	// 품절 상품은 페이지 스크립트에서 품절 안내로 분기된다.
	doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if strings.Contains(sel.Text(), "품절") {
			soldOut = true
			return false
		}
		return true
	})
	if soldOut {
		return nil, true, nil
	}

	counsel := doc.Find(`form[name="productCounselForm"]`)
	priceInfo := doc.Find("div.price-info")
	if counsel.Length() == 0 || priceInfo.Length() == 0 {
		return nil, false, apperrors.Newf(apperrors.ParsingFailed,
			"랭킹닭컴 페이지에서 상품 영역을 찾지 못했습니다 (%s)", res.URL)
	}

	itemName, _ := counsel.Find(`input[name="productnm"]`).Attr("value")
	price := parsePrice(doc, priceInfo)

	p = product.New(id, itemName, price)
	p.Brand = tableItemOf(doc, "브랜드관", "a")
	p.Description = strings.TrimSpace(doc.Find("div.ingredient_wrap").Text())
	p.Image, _ = doc.Find("div.goods-img-area img").First().Attr("src")
	p.URL = fmt.Sprintf(itemLinkURL, id.TargetID())
	p.Unit = parseUnit(doc, price)
	p.Options = parseOptions(doc)
	p.Delivery = parseDelivery(doc, now)
	return p, false, nil
}

// tableItemOf 상품 정보 테이블(div.table-item)에서 항목명(em)이 일치하는
// 행의 지정 요소 텍스트를 반환합니다.
func tableItemOf(doc *goquery.Document, label, selector string) string {
	var value string
	doc.Find("div.table-item").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if strings.TrimSpace(sel.Find("em").First().Text()) != label {
			return true
		}
		value = strings.TrimSpace(sel.Find(selector).First().Text())
		return false
	})
	return value
}

func parsePrice(doc *goquery.Document, priceInfo *goquery.Selection) product.Price {
	goodsPrice := doc.Find("div.goods-price")

	sale, _ := strutil.ExtractNumber(goodsPrice.Find("p.price").First().Text())

	original := 0.0
	if origin := goodsPrice.Find("p.origin"); origin.Length() > 0 {
		original, _ = strutil.ExtractNumber(origin.Text())
	}

	price := product.NewPriceWithOriginal(sale, "KRW", original)
	if point := priceInfo.Find("span.orderTotalPoint"); point.Length() > 0 {
		price.Payback, _ = strutil.ExtractNumber(point.Text())
	}
	return price
}

func parseUnit(doc *goquery.Document, price product.Price) product.Unit {
	detail := doc.Find("div.goods-price p.price-detail")
	if detail.Length() == 0 {
		detail = doc.Find("div.goods-price div.option")
	}
	if detail.Length() == 0 {
		return product.NewUnit(price.Price, product.UnitPiece, 1)
	}

	text := strings.NewReplacer("\t", "", "\n", "").Replace(strings.TrimSpace(detail.Text()))
	m := unitPattern.FindStringSubmatch(text)
	if m == nil {
		return product.NewUnit(price.Price, product.UnitPiece, 1)
	}

	quantity, _ := strutil.ExtractNumber(m[unitPattern.SubexpIndex("unit")])
	unitPrice, _ := strutil.ExtractNumber(m[unitPattern.SubexpIndex("price")])
	return product.NewUnitWithTotal(unitPrice, product.UnitTypeOf(m[unitPattern.SubexpIndex("type")]),
		quantity, price.Price)
}

func parseOptions(doc *goquery.Document) []product.Option {
	var options []product.Option
	doc.Find("ul.selected-options-ul1 li").Each(func(_ int, sel *goquery.Selection) {
		optionID, _ := sel.Attr("data-id")
		optionName, _ := sel.Attr("data-name")
		amount, _ := sel.Attr("data-amt")
		optionPrice, _ := strutil.ExtractNumber(amount)

		options = append(options, product.Option{
			ID:        optionID,
			Name:      optionName,
			Price:     optionPrice,
			Inventory: product.InStock,
		})
	})
	return options
}

// parseDelivery 배송방법 행을 해석합니다. 특급배송 상품은 오전 11시 이전
// 주문 시 당일, 이후에는 다음날 새벽에 도착합니다.
func parseDelivery(doc *goquery.Document, now time.Time) product.Delivery {
	var delivery *product.Delivery
	doc.Find("div.table-item").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if strings.TrimSpace(sel.Find("em").First().Text()) != "배송방법" {
			return true
		}

		if strings.TrimSpace(sel.Find("span.blind").Text()) == "무료배송" {
			d := product.NewDelivery(0, product.DeliveryStandard, product.DeliveryPayFree)
			delivery = &d
			return false
		}

		for _, method := range strings.Split(sel.Find("span.title-list").Text(), ",") {
			if strings.TrimSpace(method) != "특급배송" {
				continue
			}

			deliveryType := product.DeliveryDawn
			if now.Hour() < 11 {
				deliveryType = product.DeliveryExpress
			}
			d := product.NewDelivery(4000, deliveryType, product.DeliveryPayFreeOrPaid)
			d.Threshold = 80000
			delivery = &d
			return false
		}
		return true
	})

	if delivery != nil {
		return *delivery
	}

	d := product.NewDelivery(3000, product.DeliveryStandard, product.DeliveryPayFreeOrPaid)
	d.Threshold = 40000
	return d
}
