package lotteon

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/darkkaiser/price-watcher/internal/product"
)

func parseProduct(id product.Identifier, detail gjson.Result, discountAmount float64) *product.Product {
	basic := detail.Get("basicInfo")
	priceInfo := detail.Get("priceInfo")

	price := parsePrice(priceInfo, discountAmount)

	p := product.New(id, basic.Get("pdNm").String(), price)
	p.Brand = basic.Get("brdNm").String()
	p.Image = detail.Get("imgInfo.imageList.0.origImgFileNm").String()
	p.URL = fmt.Sprintf(itemLinkURL, id.TargetID())
	p.Category = parseCategory(detail.Get("dispCategoryInfo"))
	p.Unit = parseUnit(priceInfo, price)
	p.Inventory = parseInventory(detail.Get("stckInfo"))
	p.Options = parseOptions(detail.Get("bundleSellerProductList"))
	p.Delivery = parseDelivery(detail.Get("dlvInfo"))
	return p
}

// parsePrice 프로모션 즉시할인 금액이 있으면 판매가에서 차감합니다.
func parsePrice(priceInfo gjson.Result, discountAmount float64) product.Price {
	slPrc := priceInfo.Get("slPrc").Float()
	if discountAmount > 0 {
		return product.NewPriceWithOriginal(slPrc-discountAmount, "KRW", slPrc)
	}
	return product.NewPrice(slPrc, "KRW")
}

func parseCategory(category gjson.Result) product.Category {
	return product.NewCategoryFromPath([]string{
		category.Get("dispCatNm0").String(),
		category.Get("dispCatNm1").String(),
		category.Get("dispCatNm2").String(),
	})
}

// parseUnit 용량(pdCapa)과 기준 단위 코드(stdUtCd)로 단위가격을 계산합니다.
func parseUnit(priceInfo gjson.Result, price product.Price) product.Unit {
	capa := priceInfo.Get("pdCapa").Float()
	unitCode := priceInfo.Get("stdUtCd").String()
	if capa == 0 || unitCode == "" {
		return product.NewUnit(price.Price, product.UnitPiece, 1)
	}
	return product.NewUnit(price.Price/capa, product.UnitTypeOf(unitCode), 1)
}

// parseInventory 재고 정보가 없는 상품은 재고 충분으로 판정합니다.
func parseInventory(stock gjson.Result) product.InventoryStatus {
	if !stock.Exists() {
		return product.InStock
	}
	qty := int(stock.Get("stkQty").Int())
	return product.InventoryOf(false, &qty)
}

func parseOptions(bundles gjson.Result) []product.Option {
	var options []product.Option
	bundles.ForEach(func(_, value gjson.Result) bool {
		qty := 9999
		if v := value.Get("stkQty"); v.Exists() {
			qty = int(v.Int())
		}
		options = append(options, product.Option{
			ID:        value.Get("spdNo").String(),
			Name:      value.Get("spdNm").String(),
			Price:     value.Get("slPrc").Float(),
			Inventory: product.InventoryOf(false, &qty),
		})
		return true
	})
	return options
}

// parseDelivery 배송 유형 코드를 해석합니다.
// TMRW_ON(내일 도착)과 SHDST(당일 배송)는 빠른배송으로 분류합니다.
func parseDelivery(dlvInfo gjson.Result) product.Delivery {
	first := dlvInfo.Get("dvList.0")
	if !first.Exists() {
		return product.UnknownDelivery()
	}

	deliveryType := product.DeliveryStandard
	switch first.Get("type").String() {
	case "TMRW_ON", "SHDST":
		deliveryType = product.DeliveryExpress
	}

	cost := first.Get("dvCstInfo.0")
	if !cost.Exists() {
		return product.NewDelivery(0, deliveryType, product.DeliveryPayFree)
	}

	d := product.NewDelivery(cost.Get("dvCst").Float(), deliveryType, product.DeliveryPayFreeOrPaid)
	d.Threshold = cost.Get("freeDvStdAmt").Float()
	return d
}
