// Package ncnc 니콘내콘(기프티콘 거래) 상품 수집 엔진입니다.
//
// 상품 식별자가 별도 URL 형식 없이 그대로 쓰이는 앱 전용 서비스로,
// 감시 대상 URL 값 자체를 상품 번호로 사용합니다.
package ncnc

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"

	apperrors "github.com/darkkaiser/price-watcher/internal/pkg/errors"
	"github.com/darkkaiser/price-watcher/internal/engine"
	"github.com/darkkaiser/price-watcher/internal/product"
	"github.com/darkkaiser/price-watcher/internal/scraper"
)

const (
	code = "ncnc"
	name = "니콘내콘"

	userAgent = "NcncNative/605006 CFNetwork/1568.100.1 Darwin/24.0.0"
	apiKey    = "D3aDpWlEkz7dAp5o2Ew8zZbc4N9mnyK9JFCHgy30"
)

const apiURL = "https://qn9ovn2pnk.execute-api.ap-northeast-2.amazonaws.com/pro/items/v2/%s"

// Factory 니콘내콘 엔진의 등록 단위를 반환합니다.
func Factory() engine.Factory {
	return engine.Factory{Code: code, Name: name, ParseID: ParseID, New: New}
}

// ParseID 감시 대상 값 자체가 상품 번호입니다.
func ParseID(itemURL string) (product.Identifier, error) {
	if itemURL == "" {
		return product.Identifier{}, apperrors.New(apperrors.InvalidItemURL,
			"니콘내콘 상품 번호가 비어 있습니다")
	}
	return product.NewIdentifierParts(
		product.IdentifierPart{Key: "product_id", Value: itemURL},
	), nil
}

// New 니콘내콘 엔진 인스턴스를 생성합니다.
func New(opts engine.Options) (engine.Engine, error) {
	id, err := ParseID(opts.ItemURL)
	if err != nil {
		return nil, err
	}

	e := &Engine{}
	e.Base = engine.NewBase(code, name, id, opts.ItemURL)
	return e, nil
}

// Engine 단일 니콘내콘 상품에 바인딩된 수집 엔진입니다.
type Engine struct {
	engine.Base
}

var _ engine.Engine = (*Engine)(nil)

// Load 상품 API를 호출하여 판매 중인 기프티콘의 최저가를 수집합니다.
func (e *Engine) Load(ctx context.Context, s scraper.Scraper) (*product.Product, error) {
	itemID := e.ID().TargetID()

	header := http.Header{}
	header.Set("User-Agent", userAgent)
	header.Set("x-api-key", apiKey)

	res, err := s.Get(ctx, fmt.Sprintf(apiURL, itemID), header)
	if err != nil {
		return nil, err
	}

	if res.IsNotFound() {
		return product.NewDeleted(e.ID(), res.StatusCode), nil
	}
	if !res.Has() || res.JSON("error").Exists() {
		return nil, apperrors.Newf(apperrors.ExecutionFailed,
			"니콘내콘 상품 응답이 유효하지 않습니다 (id: %s, 상태 코드: %d)", itemID, res.StatusCode)
	}

	item := res.JSON("item")
	if !item.Exists() {
		return nil, apperrors.Newf(apperrors.ParsingFailed, "니콘내콘 응답에 상품 데이터가 없습니다")
	}

	return parseProduct(e.ID(), item), nil
}

func parseProduct(id product.Identifier, item gjson.Result) *product.Product {
	price := parsePrice(item)

	p := product.New(id, item.Get("name").String(), price)
	p.Brand = item.Get("conCategory2.name").String()
	p.Description = parseDescription(item)
	p.Image = item.Get("imageUrl").String()
	p.Category = product.NewCategoryFromPath([]string{
		item.Get("conCategory2.conCategory1.name").String(),
		item.Get("conCategory2.name").String(),
	})
	p.Unit = product.NewUnit(price.Price, product.UnitPiece, 1)
	p.Inventory = parseInventory(item)
	p.Delivery = product.NewDelivery(0, product.DeliveryNoInfo, product.DeliveryPayUnknown)
	return p
}

// parsePrice 품절되지 않은 첫 판매건의 최저가를 사용합니다.
// 전부 품절이면 정가만 남습니다.
func parsePrice(item gjson.Result) product.Price {
	original := item.Get("originalPrice").Float()

	if sale := firstOnSale(item); sale.Exists() {
		return product.NewPriceWithOriginal(sale.Get("minSellingPrice").Float(), "KRW", original)
	}
	return product.NewPrice(original, "KRW")
}

func parseDescription(item gjson.Result) string {
	if sale := firstOnSale(item); sale.Exists() {
		return sale.Get("info").String()
	}
	return ""
}

func parseInventory(item gjson.Result) product.InventoryStatus {
	conItems := item.Get("conItems").Array()
	if len(conItems) > 0 && conItems[0].Get("isSoldOut").Bool() {
		if len(conItems) == 1 {
			return product.OutOfStock
		}
		return product.AlmostSoldOut
	}

	if firstOnSale(item).Exists() {
		return product.InStock
	}
	return product.OutOfStock
}

func firstOnSale(item gjson.Result) gjson.Result {
	return item.Get(`conItems.#(isSoldOut==false)`)
}
