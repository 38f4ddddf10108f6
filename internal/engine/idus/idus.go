// Package idus 아이디어스(idus) 상품 수집 엔진입니다.
//
// 공개 상품 정보 API(v3/product/info)를 호출합니다. 작가 직배송 플랫폼
// 특성상 배송비 정책이 고정되어 있습니다. (1만원 이상 무료)
package idus

import (
	"context"
	"fmt"
	"regexp"

	"github.com/tidwall/gjson"

	apperrors "github.com/darkkaiser/price-watcher/internal/pkg/errors"
	"github.com/darkkaiser/price-watcher/internal/engine"
	"github.com/darkkaiser/price-watcher/internal/product"
	"github.com/darkkaiser/price-watcher/internal/scraper"
)

const (
	code = "idus"
	name = "아이디어스"
)

const (
	apiURL      = "https://api.idus.com/v3/product/info?uuid=%s"
	itemLinkURL = "https://www.idus.com/v2/product/%s"
)

var idPattern = regexp.MustCompile(`product/(?P<product_id>[\w\d\-]+)`)

// Factory 아이디어스 엔진의 등록 단위를 반환합니다.
func Factory() engine.Factory {
	return engine.Factory{Code: code, Name: name, ParseID: ParseID, New: New}
}

// ParseID 상품 URL에서 상품 UUID를 추출합니다.
func ParseID(itemURL string) (product.Identifier, error) {
	m := idPattern.FindStringSubmatch(itemURL)
	if m == nil {
		return product.Identifier{}, apperrors.Newf(apperrors.InvalidItemURL,
			"아이디어스 상품 URL 형식이 아닙니다: %s", itemURL)
	}
	return product.NewIdentifierParts(
		product.IdentifierPart{Key: "product_id", Value: m[idPattern.SubexpIndex("product_id")]},
	), nil
}

// New 아이디어스 엔진 인스턴스를 생성합니다.
func New(opts engine.Options) (engine.Engine, error) {
	id, err := ParseID(opts.ItemURL)
	if err != nil {
		return nil, err
	}

	e := &Engine{}
	e.Base = engine.NewBase(code, name, id, opts.ItemURL)
	return e, nil
}

// Engine 단일 아이디어스 상품에 바인딩된 수집 엔진입니다.
type Engine struct {
	engine.Base
}

var _ engine.Engine = (*Engine)(nil)

// Load 상품 정보 API를 호출하여 상품 정보를 수집합니다.
func (e *Engine) Load(ctx context.Context, s scraper.Scraper) (*product.Product, error) {
	uuid := e.ID().TargetID()

	res, err := s.Get(ctx, fmt.Sprintf(apiURL, uuid), nil)
	if err != nil {
		return nil, err
	}

	if res.IsNotFound() {
		return product.NewDeleted(e.ID(), res.StatusCode), nil
	}
	if !res.Has() {
		return nil, apperrors.Newf(apperrors.ExecutionFailed,
			"아이디어스 상품 응답이 유효하지 않습니다 (uuid: %s, 상태 코드: %d)", uuid, res.StatusCode)
	}

	item := res.JSON("items")
	if !item.Exists() {
		return nil, apperrors.Newf(apperrors.ParsingFailed, "아이디어스 응답에 상품 데이터가 없습니다")
	}

	return parseProduct(e.ID(), item), nil
}

func parseProduct(id product.Identifier, item gjson.Result) *product.Product {
	price := product.NewPriceWithOriginal(
		item.Get("p_info.pi_saleprice").Float(), "KRW", item.Get("p_info.pi_price").Float())

	p := product.New(id, item.Get("p_info.pi_name").String(), price)
	p.Brand = item.Get("artistname").String()
	p.Image = item.Get("p_images.pp_mainimage.ppi_origin.picPath").String()
	p.URL = fmt.Sprintf(itemLinkURL, item.Get("uuid").String())
	p.Category = product.NewCategory(item.Get("category_name").String())
	p.Inventory = inventoryOf(item)

	d := product.NewDelivery(0, product.DeliveryStandard, product.DeliveryPayFree)
	d.Threshold = 10000
	p.Delivery = d
	return p
}

// inventoryOf 수량 -1은 무제한 판매(재고 충분), 0은 품절, 그 외에는 품절 임박입니다.
func inventoryOf(item gjson.Result) product.InventoryStatus {
	switch item.Get("p_info.pi_itemcount").Int() {
	case -1:
		return product.InStock
	case 0:
		return product.OutOfStock
	default:
		return product.AlmostSoldOut
	}
}
