package smartstore

import (
	"time"

	"github.com/tidwall/gjson"

	"github.com/darkkaiser/price-watcher/internal/product"
)

// parseProduct 하이드레이션 JSON에서 상품 정보를 추출합니다.
//
// 상품 ID가 없거나 errorView 플래그가 서 있으면 notFound를 반환하며,
// 호출자는 이를 삭제된 상품으로 종결합니다.
func parseProduct(id product.Identifier, state string) (p *product.Product, notFound bool, err error) {
	root := gjson.Parse(state)

	item := root.Get("product.A")
	if !item.Get("id").Exists() || item.Get("errorView").Bool() {
		return nil, true, nil
	}

	price := parsePrice(item)

	p = product.New(id, item.Get("name").String(), price)
	p.Brand = item.Get("naverShoppingSearchInfo.brandName").String()
	p.Description = item.Get("description.detailContentText").String()
	p.Image = item.Get("representImage.url").String()
	p.URL = item.Get("productUrl").String()
	p.Category = product.NewCategory(item.Get("category.wholeCategoryName").String())
	p.Inventory = stockOf(item)
	p.Options = parseOptions(item)
	p.Delivery = parseDelivery(item)
	return p, false, nil
}

// parsePrice 리뷰 적립 포인트와 멤버십 포인트(구매 적립 2배)를 합산하여 적립 금액으로 계산합니다.
func parsePrice(item gjson.Result) product.Price {
	price := product.NewPriceWithOriginal(
		item.Get("discountedSalePrice").Float(),
		"KRW",
		item.Get("salePrice").Float(),
	)

	benefits := item.Get("benefitsView")
	payback := 0.0
	for _, key := range []string{
		"managerPhotoVideoReviewPoint", "photoVideoReviewPoint",
		"managerTextReviewPoint", "textReviewPoint",
		"managerAfterUsePhotoVideoReviewPoint", "afterUsePhotoVideoReviewPoint",
		"managerAfterUseTextReviewPoint", "afterUseTextReviewPoint",
	} {
		payback += benefits.Get(key).Float()
	}
	payback += benefits.Get("managerPurchasePoint").Float() * 2

	price.Payback = payback
	return price
}

func stockOf(item gjson.Result) product.InventoryStatus {
	raw := item.Get("stockQuantity")
	if !raw.Exists() {
		return product.InStock
	}
	qty := int(raw.Int())
	return product.InventoryOf(qty == 0, &qty)
}

func parseOptions(item gjson.Result) []product.Option {
	var options []product.Option
	item.Get("optionCombinations").ForEach(func(_, value gjson.Result) bool {
		qty := int(value.Get("stockQuantity").Int())
		options = append(options, product.Option{
			ID:        value.Get("id").String(),
			Name:      value.Get("optionName1").String(),
			Price:     value.Get("price").Float(),
			Inventory: product.InventoryOf(qty == 0, &qty),
		})
		return true
	})
	return options
}

// parseDelivery 판매자 평균 출고일로 배송 속도를 분류합니다.
// 평균 2일 미만이면 빠른배송, 3일 초과(해외/주문제작 포함)는 지연배송입니다.
func parseDelivery(item gjson.Result) product.Delivery {
	info := item.Get("productDeliveryInfo")

	payType := product.DeliveryPayPaid
	switch {
	case info.Get("deliveryFeeType").String() == "FREE":
		payType = product.DeliveryPayFree
	case info.Get("freeConditionalAmount").Exists():
		payType = product.DeliveryPayFreeOrPaid
	}

	d := product.NewDelivery(info.Get("baseFee").Float(), product.DeliveryStandard, payType)
	d.Threshold = info.Get("freeConditionalAmount").Float()

	avgLeadTime := item.Get("averageDeliveryLeadTime.sellerAverageDeliveryLeadTime").Float()
	switch {
	case avgLeadTime < 2:
		d.Type = product.DeliveryExpress
	case avgLeadTime > 3:
		d.Type = product.DeliverySlow
	}

	if dispatch := item.Get("todayDispatch"); dispatch.Exists() {
		d.Type = product.DeliveryStandard
		if first := dispatch.Get("possibleDispatch.0"); first.Exists() {
			if t, err := time.Parse("20060102", first.String()); err == nil {
				d.ArriveDate = &t
			}
		}
	}

	if item.Get("productDailyDeliveryLeadTimes.leadTimeViewType").String() == "OVERSEAS_OR_CUSTOMMADE" {
		d.Type = product.DeliverySlow
	}

	return d
}
