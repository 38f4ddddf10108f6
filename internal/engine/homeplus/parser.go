package homeplus

import (
	"fmt"

	"github.com/tidwall/gjson"

	apperrors "github.com/darkkaiser/price-watcher/internal/pkg/errors"
	"github.com/darkkaiser/price-watcher/internal/product"
	"github.com/darkkaiser/price-watcher/internal/scraper"
)

func parseProduct(id product.Identifier, res *scraper.Response) (*product.Product, error) {
	doc, err := res.Document()
	if err != nil {
		return nil, err
	}

	raw := doc.Find(`script[id="/item/getItemDetail.json"]`).Text()
	if raw == "" || !gjson.Valid(raw) {
		return nil, apperrors.Newf(apperrors.ParsingFailed,
			"홈플러스 페이지에서 상품 상세 JSON을 찾지 못했습니다 (%s)", res.URL)
	}

	item := gjson.Parse(raw).Get("data.item")
	basic := item.Get("basic")
	sale := item.Get("sale")
	etc := item.Get("etc")

	price := parsePrice(sale)

	p := product.New(id, basic.Get("itemNm").String(), price)
	p.Brand = basic.Get("storeKind").String()
	p.URL = fmt.Sprintf(itemLinkURL, id.TargetID())
	if img := item.Get("img.mainList.0.url").String(); img != "" {
		p.Image = "https://image.homeplus.kr" + img
	}
	p.Category = product.NewCategoryFromPath([]string{
		basic.Get("lcateNm").String(),
		basic.Get("mcateNm").String(),
		basic.Get("scateNm").String(),
		basic.Get("dcateNm").String(),
	})
	p.Unit = parseUnit(etc, price)
	p.Inventory = parseInventory(sale)
	p.Options = parseOptions(item.Get("opt"))
	p.Delivery = parseDelivery(item.Get("ship"))
	return p, nil
}

// parsePrice 최소 구매 수량 단위로 판매되므로 단가에 최소 수량을 곱해 계산합니다.
func parsePrice(sale gjson.Result) product.Price {
	minQty := sale.Get("purchaseMinQty").Float()
	if minQty == 0 {
		minQty = 1
	}

	original := sale.Get("salePrice").Float() * minQty
	dcPrice := sale.Get("dcPrice").Float()
	if dcPrice == 0 {
		return product.NewPriceWithOriginal(original, "KRW", original)
	}
	return product.NewPriceWithOriginal(dcPrice*minQty, "KRW", original)
}

func parseUnit(etc gjson.Result, price product.Price) product.Unit {
	unitPrice := etc.Get("unitPrice").Float()
	if unitPrice == 0 {
		return product.NewUnit(price.Price, product.UnitPiece, 1)
	}

	return product.NewUnitWithTotal(
		unitPrice,
		product.UnitTypeOf(etc.Get("unitMeasure").String()),
		etc.Get("unitQty").Float(),
		price.Price,
	)
}

func parseInventory(sale gjson.Result) product.InventoryStatus {
	stock := int(sale.Get("stockQty").Int())
	return product.InventoryOf(sale.Get("itemSoldOutYn").String() == "Y", &stock)
}

func parseOptions(opt gjson.Result) []product.Option {
	var options []product.Option
	opt.Get("optSelList").ForEach(func(_, value gjson.Result) bool {
		stock := int(value.Get("stockQty").Int())
		options = append(options, product.Option{
			ID:        value.Get("optNo").String(),
			Name:      value.Get("opt1Val").String(),
			Price:     value.Get("salePrice").Float(),
			Inventory: product.InventoryOf(false, &stock),
		})
		return true
	})
	return options
}

// parseDelivery 조건부 무료배송(COND)만 배송비 정보를 제공하며, 이 경우 당일배송 상품입니다.
func parseDelivery(ship gjson.Result) product.Delivery {
	if ship.Get("shipKind").String() != "COND" {
		return product.NewDelivery(0, product.DeliveryStandard, product.DeliveryPayUnknown)
	}

	d := product.NewDelivery(ship.Get("shipFee").Float(), product.DeliveryExpress, product.DeliveryPayFreeOrPaid)
	d.Threshold = ship.Get("freeCondition").Float()
	return d
}
