// Package coupang 쿠팡(Coupang) 상품 수집 엔진입니다.
//
// 상품 상세는 모바일 앱용 모듈러 API(cmapi)로 수집하며, 응답은 위젯 목록과
// 노출 스키마(exposureSchema)에 상품 속성이 흩어져 있는 구조입니다.
package coupang

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	apperrors "github.com/darkkaiser/price-watcher/internal/pkg/errors"
	"github.com/darkkaiser/price-watcher/internal/engine"
	"github.com/darkkaiser/price-watcher/internal/product"
	"github.com/darkkaiser/price-watcher/internal/scraper"
)

const (
	code = "coupang"
	name = "쿠팡"

	// 모바일 앱 클라이언트로 식별되어야 모듈러 API가 정상 응답합니다.
	xCoupangApp = "ANDROID_7.2.34"
	userAgent   = "Coupang/7.2.34 (Android 13; SM-G991N)"
)

const (
	apiURL = "https://cmapi.coupang.com/modular/v1/endpoints/2333/sdp/v2/platform/products/%s" +
		"?deliveryFeeToggleStatusFromPrevPage=false&pvId=&egiftPromotion=false&clickEventId=&trAid=&rank=0" +
		"&sourceType=SDP_TOP_BANNER&unitPriceWithDeliveryFee=false&sid=&implicitLogging=" +
		"&productId=%s&itemId=%s&vendorItemId=%s"

	itemLinkURL = "https://www.coupang.com/vp/products/%s?itemId=%s&vendorItemId=%s"
)

// idPattern 상품 URL에서 productId와 선택적인 itemId/vendorItemId를 추출합니다.
var idPattern = regexp.MustCompile(
	`products/(?P<product_id>\d+)\?.*?(?:itemId=(?P<item_id>[\d]+)|).*?(?:|vendorItemId=(?P<vendor_item_id>[\d]+).*)$`)

// Factory 쿠팡 엔진의 등록 단위를 반환합니다.
func Factory() engine.Factory {
	return engine.Factory{Code: code, Name: name, ParseID: ParseID, New: New}
}

// ParseID 상품 URL에서 식별자를 추출합니다.
// itemId/vendorItemId는 URL에 없을 수 있으며, 이 경우 빈 값으로 유지됩니다.
func ParseID(itemURL string) (product.Identifier, error) {
	m := idPattern.FindStringSubmatch(itemURL)
	if m == nil {
		return product.Identifier{}, apperrors.Newf(apperrors.InvalidItemURL,
			"쿠팡 상품 URL 형식이 아닙니다: %s", itemURL)
	}

	return product.NewIdentifierParts(
		product.IdentifierPart{Key: "product_id", Value: m[idPattern.SubexpIndex("product_id")]},
		product.IdentifierPart{Key: "item_id", Value: m[idPattern.SubexpIndex("item_id")]},
		product.IdentifierPart{Key: "vendor_item_id", Value: m[idPattern.SubexpIndex("vendor_item_id")]},
	), nil
}

// New 쿠팡 엔진 인스턴스를 생성합니다.
func New(opts engine.Options) (engine.Engine, error) {
	id, err := ParseID(opts.ItemURL)
	if err != nil {
		return nil, err
	}

	e := &Engine{}
	e.Base = engine.NewBase(code, name, id, opts.ItemURL)
	return e, nil
}

// Engine 단일 쿠팡 상품에 바인딩된 수집 엔진입니다.
type Engine struct {
	engine.Base
}

var _ engine.Engine = (*Engine)(nil)

// EntityTarget 쿠팡은 같은 productId 아래 여러 옵션 상품이 있으므로
// productId/itemId/vendorItemId를 모두 이어 붙인 값을 식별자로 사용합니다.
func (e *Engine) EntityTarget() string {
	values := make([]string, 0, 3)
	for _, key := range []string{"product_id", "item_id", "vendor_item_id"} {
		if v := e.ID().Part(key); v != "" {
			values = append(values, v)
		}
	}
	return strings.Join(values, "_")
}

// Load 모듈러 API를 호출하여 상품 정보를 수집합니다.
func (e *Engine) Load(ctx context.Context, s scraper.Scraper) (*product.Product, error) {
	productID := e.ID().Part("product_id")
	itemID := e.ID().Part("item_id")
	vendorItemID := e.ID().Part("vendor_item_id")

	header := http.Header{}
	header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	header.Set("Accept-Language", "ko-KR,ko;q=0.9")
	header.Set("Connection", "keep-alive")
	header.Set("Coupang-App", xCoupangApp)
	header.Set("User-Agent", userAgent)

	url := fmt.Sprintf(apiURL, productID, productID, itemID, vendorItemID)
	res, err := s.Request(ctx, http.MethodPost, url, nil, header)
	if err != nil {
		return nil, err
	}

	if res.IsNotFound() {
		p := product.NewDeleted(e.ID(), res.StatusCode)
		p.Name = "Deleted " + e.EntityTarget()
		return p, nil
	}
	if !res.Has() {
		return nil, apperrors.Newf(apperrors.ExecutionFailed,
			"쿠팡 상품 응답이 유효하지 않습니다 (productId: %s, 상태 코드: %d)", productID, res.StatusCode)
	}

	pl, err := parsePayload(res.Text)
	if err != nil {
		return nil, err
	}

	price := pl.price()

	p := product.New(e.ID(), pl.name(), price)
	p.Brand = pl.brand()
	p.Image = pl.image()
	p.Unit = pl.unit(price)
	p.Inventory = pl.inventory()
	p.Delivery = pl.delivery(time.Now())
	p.URL = fmt.Sprintf(itemLinkURL, productID, itemID, vendorItemID)
	return p, nil
}
