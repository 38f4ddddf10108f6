package oliveyoung

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

	raw := doc.Find("textarea#goodsData").Text()
	if raw == "" || !gjson.Valid(raw) {
		return nil, apperrors.Newf(apperrors.ParsingFailed,
			"올리브영 페이지에서 상품 데이터(goodsData)를 찾지 못했습니다 (%s)", res.URL)
	}

	data := gjson.Parse(raw)
	price := product.NewPriceWithOriginal(
		data.Get("finalPrice").Float(), "KRW", data.Get("supplyPrice").Float())

	p := product.New(id, data.Get("goodsBaseInfo.goodsName").String(), price)
	p.Brand = data.Get("brandName").String()
	p.Category = product.NewCategory(data.Get("displayCategoryInfo.displayCategoryFullPath").String())
	p.URL = fmt.Sprintf(itemLinkURL, id.TargetID())
	if img := data.Get("images.0").String(); img != "" {
		p.Image = fmt.Sprintf(thumbURL, img)
	}
	p.Options = parseOptions(data)
	p.Inventory = parseInventory(data)
	p.Delivery = parseDelivery(data)
	return p, nil
}

func parseOptions(data gjson.Result) []product.Option {
	var options []product.Option
	data.Get("optionInfo.optionList").ForEach(func(_, value gjson.Result) bool {
		qty := int(value.Get("quantity").Int())
		options = append(options, product.Option{
			ID:        value.Get("goodsNumber").String() + "_" + value.Get("itemNumber").String(),
			Name:      value.Get("itemName").String(),
			Price:     value.Get("salePrice").Float(),
			Inventory: product.InventoryOf(qty == 0, &qty),
		})
		return true
	})
	return options
}

// parseInventory 전체 품절 플래그와 옵션 재고 합계로 재고 상태를 판정합니다.
func parseInventory(data gjson.Result) product.InventoryStatus {
	sum := 0
	data.Get("optionInfo.optionList").ForEach(func(_, value gjson.Result) bool {
		sum += int(value.Get("quantity").Int())
		return true
	})
	return product.InventoryOf(data.Get("optionInfo.allSoldoutFlag").Bool(), &sum)
}

// parseDelivery 오늘드림 플래그로 배송 속도를 분류합니다.
func parseDelivery(data gjson.Result) product.Delivery {
	deliveryType := product.DeliveryStandard
	if data.Get("todayDeliveryFlag").Bool() {
		deliveryType = product.DeliveryExpress
	}

	payType := product.DeliveryPayPaid
	if data.Get("goodsBaseInfo.deliveryFreeFlag").Bool() {
		payType = product.DeliveryPayFree
	}

	return product.NewDelivery(0, deliveryType, payType)
}
