package ssg

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	apperrors "github.com/darkkaiser/price-watcher/internal/pkg/errors"
	"github.com/darkkaiser/price-watcher/internal/product"
	"github.com/darkkaiser/price-watcher/pkg/strutil"
)

// unitPattern 단위가격 문구 ("100g 당 : 1,250원")
var unitPattern = regexp.MustCompile(`^(?P<unit>[\d,]+)(?P<type>\S+) 당 : (?P<price>[\d,]+)원$`)

func parseProduct(id product.Identifier, text string) (*product.Product, error) {
	root := gjson.Parse(text)

	data := root.Get("data")
	item := data.Get("item")
	if !item.Exists() {
		return nil, apperrors.Newf(apperrors.ParsingFailed, "SSG닷컴 응답에 상품 데이터가 없습니다")
	}

	price := parsePrice(item)

	p := product.New(id, item.Get("itemNm").String(), price)
	p.Brand = item.Get("brand.brandNm").String()
	p.Image = item.Get("uitemImgList.0.imgUrl").String()
	p.URL = fmt.Sprintf(itemLinkURL, item.Get("itemId").String(), item.Get("siteNo").String())
	p.Category = parseCategory(data, item)
	p.Unit = parseUnit(item, price)
	p.Inventory = parseInventory(item)
	p.Delivery = parseDelivery(data, item)
	return p, nil
}

// parsePrice sellprc가 정상가, bestAmt(혜택가)가 판매가입니다. 혜택가가 없으면 정상가를 사용합니다.
func parsePrice(item gjson.Result) product.Price {
	original := item.Get("price.sellprc").Float()
	best := item.Get("price.bestAmt").Float()
	if best == 0 {
		best = original
	}
	return product.NewPriceWithOriginal(best, "KRW", original)
}

func parseCategory(data, item gjson.Result) product.Category {
	ctgList := data.Get("itemDispCtgList")
	if !ctgList.Exists() {
		return product.NewCategory(item.Get("ctgNm").String())
	}

	var labels []string
	ctgList.ForEach(func(_, value gjson.Result) bool {
		labels = append(labels, value.Get("dispCtgNm").String())
		return true
	})
	return product.NewCategoryFromPath(labels)
}

func parseUnit(item gjson.Result, price product.Price) product.Unit {
	m := unitPattern.FindStringSubmatch(item.Get("price.sellUnitPrc").String())
	if m == nil {
		return product.NewUnit(price.Price, product.UnitPiece, 1)
	}

	quantity, _ := strutil.ExtractNumber(m[unitPattern.SubexpIndex("unit")])
	unitPrice, _ := strutil.ExtractNumber(m[unitPattern.SubexpIndex("price")])

	return product.NewUnitWithTotal(
		unitPrice,
		product.UnitTypeOf(m[unitPattern.SubexpIndex("type")]),
		quantity,
		price.Price,
	)
}

func parseInventory(item gjson.Result) product.InventoryStatus {
	var stock *int
	if qty := item.Get("usablInvQty"); qty.Exists() {
		n := int(qty.Int())
		stock = &n
	}
	return product.InventoryOf(item.Get("itemBuyInfo.soldOut").Bool(), stock)
}

// parseDelivery 쓱-배송/새벽배송 뱃지를 우선 확인하고,
// 없으면 배송 안내 문구(msgMapList)에서 배송비 정책을 해석합니다.
func parseDelivery(data, item gjson.Result) product.Delivery {
	badges := item.Get("rightBadgeList")
	if badges.Exists() {
		if badges.Get(`#(txt=="쓱-배송")`).Exists() {
			d := product.NewDelivery(3000, product.DeliveryExpress, product.DeliveryPayFreeOrPaid)
			d.Threshold = 40000
			return d
		}
		if badges.Get(`#(txt=="새벽배송")`).Exists() {
			d := product.NewDelivery(3000, product.DeliveryDawn, product.DeliveryPayFreeOrPaid)
			d.Threshold = 40000
			return d
		}
	}

	deliInfo := data.Get("itemInfo.deliTypeInfo")
	if !deliInfo.Exists() {
		return product.NewDelivery(0, product.DeliveryStandard, product.DeliveryPayFreeOrPaid)
	}

	messages := deliInfo.Get("msgMapList")
	if !messages.Exists() {
		return product.NewDelivery(0, product.DeliveryStandard, product.DeliveryPayFree)
	}

	var msgs []string
	messages.ForEach(func(_, value gjson.Result) bool {
		msgs = append(msgs, value.Get("msg").String())
		return true
	})

	// "무료 (4만원 이상 무료)" → 조건부 무료배송
	for _, msg := range msgs {
		if strings.HasSuffix(msg, "원 이상 무료)") {
			cleaned := strings.NewReplacer(
				"무료 (", "", " 이상 무료)", "", "만원", "0000", "천원", "000",
			).Replace(msg)

			d := product.NewDelivery(0, product.DeliveryStandard, product.DeliveryPayFreeOrPaid)
			if threshold, ok := strutil.ExtractNumber(cleaned); ok {
				d.Threshold = threshold
			}
			return d
		}
	}

	// "배송비 3,000원" → 유료배송
	for _, msg := range msgs {
		if strings.HasPrefix(msg, "배송비 ") && msg != "배송비 무료" {
			fee, _ := strutil.ExtractNumber(strings.TrimPrefix(msg, "배송비 "))
			return product.NewDelivery(fee, product.DeliveryStandard, product.DeliveryPayPaid)
		}
	}

	for _, msg := range msgs {
		if msg == "배송비 무료" {
			return product.NewDelivery(0, product.DeliveryStandard, product.DeliveryPayFree)
		}
	}

	return product.NewDelivery(0, product.DeliveryStandard, product.DeliveryPayPaid)
}
