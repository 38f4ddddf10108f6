package gsthefresh

import (
	"fmt"

	"github.com/tidwall/gjson"

	apperrors "github.com/darkkaiser/price-watcher/internal/pkg/errors"
	"github.com/darkkaiser/price-watcher/internal/product"
	"github.com/darkkaiser/price-watcher/internal/scraper"
)

func parseProduct(id product.Identifier, res *scraper.Response) (*product.Product, error) {
	data := res.JSON("data")
	item := data.Get("weDeliveryItemDetailResultList.0")
	if !item.Exists() {
		return nil, apperrors.Newf(apperrors.ParsingFailed, "GS더프레시 응답에 상품 데이터가 없습니다")
	}

	price := parsePrice(item)

	p := product.New(id, item.Get("indicateItemName").String(), price)
	p.Description = item.Get("itemNotification").String()
	p.Image = item.Get("weDeliveryItemImageUrl").String()
	p.URL = fmt.Sprintf(itemLinkURL, id.TargetID())
	p.Unit = product.NewUnit(price.Price, product.UnitPiece, 1)
	p.Inventory = parseInventory(item)
	p.Delivery = parseDelivery(data)
	return p, nil
}

// parsePrice 정상판매가에서 총 할인액을 차감한 금액이 판매가입니다.
func parsePrice(item gjson.Result) product.Price {
	normal := item.Get("normalSalePrice").Float()
	discount := item.Get("totalDiscountRateAmount").Float()
	return product.NewPriceWithOriginal(normal-discount, "KRW", normal)
}

func parseInventory(item gjson.Result) product.InventoryStatus {
	var stock *int
	if qty := item.Get("stockQuantity"); qty.Exists() {
		n := int(qty.Int())
		stock = &n
	}
	return product.InventoryOf(item.Get("soldOutYn").String() == "Y", stock)
}

// parseDelivery 기본 배송 방식은 매장 수령이며, 우딜(우리동네딜리버리) 배송
// 정책 항목에서 배송비와 무료배송 기준 금액을 읽습니다.
func parseDelivery(data gjson.Result) product.Delivery {
	policies := data.Get("processingDeliveryAmountResultList")
	if !policies.Exists() || len(policies.Array()) == 0 {
		return product.NewDelivery(0, product.DeliveryPickup, product.DeliveryPayUnknown)
	}

	fee := policies.Get(`#(commonCodeName=="우딜 배송비금액").amount`).Float()

	payType := product.DeliveryPayFree
	if fee > 0 {
		payType = product.DeliveryPayPaid
	}

	d := product.NewDelivery(fee, product.DeliveryPickup, payType)
	if threshold := policies.Get(`#(commonCodeName=="우딜 무료배송기준금액").amount`); threshold.Exists() {
		d.Threshold = threshold.Float()
	}
	return d
}
