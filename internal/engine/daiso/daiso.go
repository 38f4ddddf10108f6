// Package daiso 다이소몰 상품 수집 엔진입니다.
//
// 상품 상세 API(selPdDtlInfo)를 POST로 호출합니다. 매장 픽업 전용 상품은
// 배송 방식이 매장 수령으로 분류됩니다.
package daiso

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	apperrors "github.com/darkkaiser/price-watcher/internal/pkg/errors"
	"github.com/darkkaiser/price-watcher/internal/engine"
	"github.com/darkkaiser/price-watcher/internal/product"
	"github.com/darkkaiser/price-watcher/internal/scraper"
)

const (
	code = "daiso"
	name = "다이소몰"
)

const (
	apiURL      = "https://prdm.daisomall.co.kr/api/pd/pdl/pdDtl/selPdDtlInfo"
	itemLinkURL = "https://www.daisomall.co.kr/pd/pdr/SCR_PDR_0001?pdNo=%s&recmYn=Y"
	imageHost   = "https://cdn.daisomall.co.kr"
)

var idPattern = regexp.MustCompile(`pdNo=(?P<id>\d+)`)

// Factory 다이소몰 엔진의 등록 단위를 반환합니다.
func Factory() engine.Factory {
	return engine.Factory{Code: code, Name: name, ParseID: ParseID, New: New}
}

// ParseID 상품 URL에서 상품 번호(pdNo)를 추출합니다.
func ParseID(itemURL string) (product.Identifier, error) {
	unquoted, err := url.QueryUnescape(itemURL)
	if err != nil {
		unquoted = itemURL
	}

	m := idPattern.FindStringSubmatch(unquoted)
	if m == nil {
		return product.Identifier{}, apperrors.Newf(apperrors.InvalidItemURL,
			"다이소몰 상품 URL 형식이 아닙니다: %s", itemURL)
	}
	return product.NewIdentifierParts(
		product.IdentifierPart{Key: "product_id", Value: m[idPattern.SubexpIndex("id")]},
	), nil
}

// New 다이소몰 엔진 인스턴스를 생성합니다.
func New(opts engine.Options) (engine.Engine, error) {
	id, err := ParseID(opts.ItemURL)
	if err != nil {
		return nil, err
	}

	e := &Engine{}
	e.Base = engine.NewBase(code, name, id, opts.ItemURL)
	return e, nil
}

// Engine 단일 다이소몰 상품에 바인딩된 수집 엔진입니다.
type Engine struct {
	engine.Base
}

var _ engine.Engine = (*Engine)(nil)

// Load 상품 상세 API를 호출하여 상품 정보를 수집합니다.
func (e *Engine) Load(ctx context.Context, s scraper.Scraper) (*product.Product, error) {
	pdNo := e.ID().TargetID()

	header := http.Header{}
	header.Set("Content-Type", "application/json")

	body := fmt.Sprintf(`{"pdNo":%q}`, pdNo)

	res, err := s.Request(ctx, http.MethodPost, apiURL, strings.NewReader(body), header)
	if err != nil {
		return nil, err
	}

	if res.IsNotFound() {
		return product.NewDeleted(e.ID(), res.StatusCode), nil
	}
	if !res.Has() {
		return nil, apperrors.Newf(apperrors.ExecutionFailed,
			"다이소몰 상품 응답이 유효하지 않습니다 (pdNo: %s, 상태 코드: %d)", pdNo, res.StatusCode)
	}

	data := res.JSON("data")
	if !data.Exists() {
		return nil, apperrors.Newf(apperrors.ParsingFailed, "다이소몰 응답에 상품 데이터가 없습니다")
	}

	return parseProduct(e.ID(), data), nil
}

func parseProduct(id product.Identifier, data gjson.Result) *product.Product {
	price := product.NewPrice(data.Get("pdPrc").Float(), "KRW")

	p := product.New(id, data.Get("pdNm").String(), price)
	p.Brand = "다이소"
	p.URL = fmt.Sprintf(itemLinkURL, id.TargetID())
	if img := data.Get("imgUrl").String(); img != "" {
		p.Image = imageHost + img
	}
	p.Category = parseCategory(data)
	p.Inventory = parseInventory(data)
	p.Delivery = parseDelivery(data)
	return p
}

func parseCategory(data gjson.Result) product.Category {
	ctgr := data.Get("exhCtgr.0")
	if !ctgr.Exists() {
		return ""
	}
	return product.NewCategoryFromPath([]string{
		ctgr.Get("lctgrNm").String(),
		ctgr.Get("mctgrNm").String(),
		ctgr.Get("sctgrNm").String(),
	})
}

func parseInventory(data gjson.Result) product.InventoryStatus {
	var stock *int
	if qty := data.Get("stckQy"); qty.Exists() {
		n := int(qty.Int())
		stock = &n
	}
	return product.InventoryOf(false, stock)
}

// parseDelivery 매장 픽업 전용 상품이 아니면 3만원 이상 무료배송 정책이 적용됩니다.
func parseDelivery(data gjson.Result) product.Delivery {
	if data.Get("dlvcExpectExhYn").String() == "Y" {
		return product.NewDelivery(0, product.DeliveryPickup, product.DeliveryPayUnknown)
	}

	d := product.NewDelivery(3000, product.DeliveryStandard, product.DeliveryPayFreeOrPaid)
	d.Threshold = 30000
	return d
}
