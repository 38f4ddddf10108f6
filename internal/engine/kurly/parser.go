package kurly

import (
	"fmt"
	"regexp"
	"time"

	"github.com/tidwall/gjson"

	apperrors "github.com/darkkaiser/price-watcher/internal/pkg/errors"
	"github.com/darkkaiser/price-watcher/internal/product"
	"github.com/darkkaiser/price-watcher/pkg/strutil"
)

// unitPattern 용량 문구에서 수량과 단위를 추출합니다. ("500g", "1.5L x 2개입" 등)
var unitPattern = regexp.MustCompile(`(?P<unit>[\d,.]+).*?(?P<type>개입|kg|g|KG|Kg|ml|ML|mL|L|l)`)

func parseProduct(id product.Identifier, text string) (*product.Product, error) {
	root := gjson.Parse(text)

	data := root.Get("data")
	if !data.Exists() {
		return nil, apperrors.Newf(apperrors.ParsingFailed, "마켓컬리 응답에 상품 데이터가 없습니다")
	}

	price := parsePrice(data)

	p := product.New(id, data.Get("name").String(), price)
	p.Brand = data.Get(`seller_profile.#(title=="판매자").description`).String()
	p.Description = data.Get("short_description").String()
	p.Image = data.Get("main_image_url").String()
	p.URL = fmt.Sprintf(itemLinkURL, id.TargetID())
	p.Category = parseCategory(data)
	p.Unit = parseUnit(data, price)
	p.Inventory = product.InventoryOf(data.Get("is_sold_out").Bool(), nil)
	p.Options = parseOptions(data)
	p.Delivery = parseDelivery(data, time.Now())
	return p, nil
}

// parsePrice 할인가가 없거나 0이면 기본가를 판매가로 사용합니다.
func parsePrice(data gjson.Result) product.Price {
	sale := data.Get("discounted_price").Float()
	if sale == 0 {
		sale = data.Get("base_price").Float()
	}
	return product.NewPriceWithOriginal(sale, "KRW", data.Get("retail_price").Float())
}

func parseCategory(data gjson.Result) product.Category {
	var labels []string
	data.Get("category_ids").ForEach(func(_, value gjson.Result) bool {
		labels = append(labels, value.String())
		return true
	})
	return product.NewCategoryFromPath(labels)
}

func parseUnit(data gjson.Result, price product.Price) product.Unit {
	m := unitPattern.FindStringSubmatch(data.Get("volume").String())
	if m == nil {
		return product.NewUnit(price.Price, product.UnitPiece, 1)
	}

	quantity, ok := strutil.ExtractNumber(m[unitPattern.SubexpIndex("unit")])
	if !ok {
		return product.NewUnit(price.Price, product.UnitPiece, 1)
	}

	return product.NewUnitWithTotal(
		price.Price,
		product.UnitTypeOf(m[unitPattern.SubexpIndex("type")]),
		quantity,
		price.Price,
	)
}

func parseOptions(data gjson.Result) []product.Option {
	var options []product.Option
	data.Get("deal_products").ForEach(func(_, value gjson.Result) bool {
		options = append(options, product.Option{
			ID:        value.Get("no").String(),
			Name:      value.Get("name").String(),
			Price:     value.Get("base_price").Float(),
			Inventory: product.InventoryOf(value.Get("is_sold_out").Bool(), nil),
		})
		return true
	})
	return options
}

// parseDelivery 샛별배송(DAWN) 상품은 23시 이전 주문 시 다음 날 새벽 도착,
// 이후 주문은 이틀 뒤 도착으로 분류합니다. 그 외에는 일반배송입니다.
func parseDelivery(data gjson.Result, now time.Time) product.Delivery {
	isDawn := false
	data.Get("delivery_type_infos.#.type").ForEach(func(_, value gjson.Result) bool {
		if value.String() == "DAWN" {
			isDawn = true
			return false
		}
		return true
	})

	if !isDawn {
		return product.NewDelivery(0, product.DeliveryStandard, product.DeliveryPayUnknown)
	}

	d := product.NewDelivery(3000, product.DeliveryDawn, product.DeliveryPayFreeOrPaid)
	d.Threshold = 40000

	arrive := now.AddDate(0, 0, 1)
	if now.Hour() >= 23 {
		d.Type = product.DeliveryExpress
		arrive = now.AddDate(0, 0, 2)
	}
	arriveDate := time.Date(arrive.Year(), arrive.Month(), arrive.Day(), 0, 0, 0, 0, arrive.Location())
	d.ArriveDate = &arriveDate
	return d
}
