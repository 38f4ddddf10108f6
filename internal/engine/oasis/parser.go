package oasis

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	apperrors "github.com/darkkaiser/price-watcher/internal/pkg/errors"
	"github.com/darkkaiser/price-watcher/internal/product"
	"github.com/darkkaiser/price-watcher/internal/scraper"
	"github.com/darkkaiser/price-watcher/pkg/strutil"
)

// unitPattern 상세 정보 영역의 단위가격 문구 ("100g당 1,250원")
var unitPattern = regexp.MustCompile(`(?P<unit>[\d,]+)(?P<type>g|ml|mL|l|L|kg|Kg)당(?: |)(?P<price>[\d,]+)원`)

func parseProduct(id product.Identifier, itemURL string, res *scraper.Response) (*product.Product, error) {
	doc, err := res.Document()
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(doc.Find("div.oDetail_info_group_title h1").Text())
	if name == "" {
		return nil, apperrors.Newf(apperrors.ParsingFailed,
			"오아시스마켓 페이지에서 상품명을 찾지 못했습니다 (%s)", res.URL)
	}

	price := parsePrice(doc)

	p := product.New(id, name, price)
	p.Brand = strings.TrimSpace(doc.Find("div.oDetail_info_gr_shopName strong").Text())
	p.Description = strings.TrimSpace(doc.Find("div.detailView_body").Text())
	p.Image, _ = doc.Find("li.swiper-slide img").First().Attr("src")
	p.URL = itemURL
	p.Category = parseCategory(doc)
	p.Unit = parseUnit(doc, price)
	p.Inventory = parseInventory(doc)
	p.Delivery = parseDelivery(doc)
	return p, nil
}

func parsePrice(doc *goquery.Document) product.Price {
	sale, _ := strutil.ExtractNumber(doc.Find("div.discountPrice").Text())

	original := 0.0
	if cost := doc.Find("div.oDetail_info_group_price div.cost"); cost.Length() > 0 {
		original, _ = strutil.ExtractNumber(cost.Text())
	}
	return product.NewPriceWithOriginal(sale, "KRW", original)
}

// parseCategory 현재 위치 경로에서 "홈", "추천"을 제외한 분류명을 수집합니다.
func parseCategory(doc *goquery.Document) product.Category {
	var labels []string
	doc.Find("div.o_currentPath a").Each(func(_ int, sel *goquery.Selection) {
		label := strings.TrimSpace(sel.Text())
		if label == "" || label == "홈" || label == "추천" {
			return
		}
		labels = append(labels, label)
	})
	return product.NewCategoryFromPath(labels)
}

// parseUnit 상세 정보 영역의 dd 요소들에서 단위가격 문구를 탐색합니다.
func parseUnit(doc *goquery.Document, price product.Price) product.Unit {
	unit := product.NewUnit(price.Price, product.UnitPiece, 1)

	doc.Find("div.oDetail_info_group2 dd").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.NewReplacer("\n", "", "\t", "").Replace(sel.Text())
		m := unitPattern.FindStringSubmatch(text)
		if m == nil {
			return true
		}

		quantity, _ := strutil.ExtractNumber(m[unitPattern.SubexpIndex("unit")])
		unitPrice, _ := strutil.ExtractNumber(m[unitPattern.SubexpIndex("price")])
		unit = product.NewUnit(unitPrice, product.UnitTypeOf(m[unitPattern.SubexpIndex("type")]), quantity)
		return false
	})

	return unit
}

func parseInventory(doc *goquery.Document) product.InventoryStatus {
	status := product.InStock
	doc.Find("a.buyItNowFromDetail").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if strings.TrimSpace(sel.Text()) == "품절" {
			status = product.OutOfStock
			return false
		}
		return true
	})
	return status
}

// parseDelivery 배송 뱃지(em)와 배송비 문구(dd.deliverySave)를 해석합니다.
// 산지출고 상품은 출고일 안내 문구로 식별하여 빠른배송으로 분류합니다.
func parseDelivery(doc *goquery.Document) product.Delivery {
	info := doc.Find("div.oDetail_info_group2")
	if info.Length() == 0 {
		return product.UnknownDelivery()
	}

	deliveryType := product.DeliveryStandard
	info.Find("em").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		switch strings.TrimSpace(sel.Text()) {
		case "새벽배송":
			deliveryType = product.DeliveryDawn
			return false
		case "당일배송":
			deliveryType = product.DeliveryExpress
			return false
		}
		return true
	})

	doc.Find("dd.notice").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if strings.HasPrefix(strings.TrimSpace(sel.Text()), "산지출고일: ") {
			deliveryType = product.DeliveryExpress
			return false
		}
		return true
	})

	d := product.NewDelivery(0, deliveryType, product.DeliveryPayUnknown)

	save := info.Find("dd.deliverySave")
	if save.Length() == 0 {
		return d
	}

	text := strings.ReplaceAll(strings.TrimSpace(save.Text()), "\t", "")
	if text == "0원" {
		d.PayType = product.DeliveryPayFree
		return d
	}

	// "3,000원 (30,000원 이상 무료)" → 조건부 무료배송
	feePart, thresholdPart, ok := strings.Cut(text, "원 (")
	if !ok {
		return d
	}

	d.PayType = product.DeliveryPayFreeOrPaid
	d.Price, _ = strutil.ExtractNumber(feePart)
	d.Threshold, _ = strutil.ExtractNumber(strings.TrimSuffix(thresholdPart, "원 이상 무료)"))
	return d
}
