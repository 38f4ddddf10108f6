// Package lotteon 롯데온(LOTTE ON) 상품 수집 엔진입니다.
//
// 상품 상세 API를 조회한 뒤, 상세 정보로 만든 파라미터로 프로모션 할인 API를
// 한 번 더 호출하여 즉시할인 금액을 판매가에 반영합니다.
package lotteon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/tidwall/gjson"

	apperrors "github.com/darkkaiser/price-watcher/internal/pkg/errors"
	"github.com/darkkaiser/price-watcher/internal/engine"
	"github.com/darkkaiser/price-watcher/internal/product"
	"github.com/darkkaiser/price-watcher/internal/scraper"
)

const (
	code = "lotteon"
	name = "롯데온"
)

const (
	apiURL      = "https://pbf.lotteon.com/product/v2/detail/search/base/pd/%s?detailType=BNDL_SPDP"
	discountURL = "https://pbf.lotteon.com/product/v1/detail/promotion/promotionQtyChangeFavorInfoList"
	itemLinkURL = "https://www.lotteon.com/p/product/%s"
)

var idPattern = regexp.MustCompile(`product/(?P<id>\w+)`)

// Factory 롯데온 엔진의 등록 단위를 반환합니다.
func Factory() engine.Factory {
	return engine.Factory{Code: code, Name: name, ParseID: ParseID, New: New}
}

// ParseID 상품 URL에서 상품 번호를 추출합니다.
func ParseID(itemURL string) (product.Identifier, error) {
	unquoted, err := url.QueryUnescape(itemURL)
	if err != nil {
		unquoted = itemURL
	}

	m := idPattern.FindStringSubmatch(unquoted)
	if m == nil {
		return product.Identifier{}, apperrors.Newf(apperrors.InvalidItemURL,
			"롯데온 상품 URL 형식이 아닙니다: %s", itemURL)
	}
	return product.NewIdentifierParts(
		product.IdentifierPart{Key: "product_id", Value: m[idPattern.SubexpIndex("id")]},
	), nil
}

// New 롯데온 엔진 인스턴스를 생성합니다.
func New(opts engine.Options) (engine.Engine, error) {
	id, err := ParseID(opts.ItemURL)
	if err != nil {
		return nil, err
	}

	e := &Engine{}
	e.Base = engine.NewBase(code, name, id, opts.ItemURL)
	return e, nil
}

// Engine 단일 롯데온 상품에 바인딩된 수집 엔진입니다.
type Engine struct {
	engine.Base
}

var _ engine.Engine = (*Engine)(nil)

// Load 상품 상세와 프로모션 할인 정보를 차례로 수집합니다.
// 할인 API 호출이 실패하더라도 상세 정보만으로 상품을 구성합니다.
func (e *Engine) Load(ctx context.Context, s scraper.Scraper) (*product.Product, error) {
	pdNo := e.ID().TargetID()

	res, err := s.Get(ctx, fmt.Sprintf(apiURL, pdNo), nil)
	if err != nil {
		return nil, err
	}

	if res.IsNotFound() {
		return product.NewDeleted(e.ID(), res.StatusCode), nil
	}
	if !res.Has() {
		return nil, apperrors.Newf(apperrors.ExecutionFailed,
			"롯데온 상품 응답이 유효하지 않습니다 (pdNo: %s, 상태 코드: %d)", pdNo, res.StatusCode)
	}

	detail := res.JSON("data")
	if !detail.Exists() {
		return nil, apperrors.Newf(apperrors.ParsingFailed, "롯데온 응답에 상품 데이터가 없습니다")
	}

	discountAmount := e.loadDiscount(ctx, s, res)

	return parseProduct(e.ID(), detail, discountAmount), nil
}

// loadDiscount 프로모션 할인 API를 호출하여 즉시할인 금액을 조회합니다.
// 실패는 할인 없음으로 처리합니다.
func (e *Engine) loadDiscount(ctx context.Context, s scraper.Scraper, detail *scraper.Response) float64 {
	body, err := json.Marshal(discountParams(gjson.Parse(detail.Text)))
	if err != nil {
		return 0
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")

	res, err := s.Request(ctx, http.MethodPost, discountURL, bytes.NewReader(body), header)
	if err != nil || !res.Has() {
		return 0
	}

	return res.JSON("discountApplyProductList.0.dcAmt").Float()
}

// discountParams 상세 응답에서 프로모션 할인 API의 요청 파라미터를 구성합니다.
func discountParams(root gjson.Result) map[string]any {
	basic := root.Get("data.basicInfo")
	price := root.Get("data.priceInfo")
	delivery := root.Get("data.dlvInfo")
	stock := root.Get("data.stckInfo")
	trBase := root.Get("data.slrInfo.trBase")

	stkMgtYn := stock.Get("stkMgtYn").String()
	if stkMgtYn == "" {
		stkMgtYn = "N"
	}
	cartDvsCd := delivery.Get("cartDvsCd").String()
	if cartDvsCd == "" {
		cartDvsCd = "02"
	}

	return map[string]any{
		"spdNo":                    basic.Get("spdNo").Value(),
		"sitmNo":                   basic.Get("sitmNo").Value(),
		"trGrpCd":                  basic.Get("trGrpCd").Value(),
		"trNo":                     basic.Get("trNo").Value(),
		"lrtrNo":                   trBase.Get("lrtrNo").Value(),
		"strCd":                    trBase.Get("strCd").Value(),
		"ctrtTypCd":                basic.Get("ctrtTypCd").Value(),
		"slPrc":                    price.Get("slPrc").Value(),
		"slQty":                    1,
		"scatNo":                   basic.Get("scatNo").Value(),
		"brdNo":                    basic.Get("brdNo").String(),
		"sfcoPdMrgnRt":             price.Get("sfcoPdMrgnRt").Value(),
		"sfcoPdLwstMrgnRt":         price.Get("sfcoPdLwstMrgnRt").Value(),
		"afflPdMrgnRt":             price.Get("afflMrgnRt").Float(),
		"afflPdLwstMrgnRt":         price.Get("afflPdLwstMrgnRt").Float(),
		"pcsLwstMrgnRt":            price.Get("pcsLwstMrgnRt").Float(),
		"infwMdiaCd":               "MBL_WEB",
		"chCsfCd":                  "PA",
		"chTypCd":                  "PA09",
		"chNo":                     "0",
		"chDtlNo":                  "0",
		"aplyStdDttm":              time.Now().Format("20060102150405"),
		"cartDvsCd":                cartDvsCd,
		"thdyPdYn":                 "N",
		"dvCst":                    basic.Get("dvCst").Value(),
		"fprdDvPdYn":               "N",
		"maxPurQty":                basic.Get("maxPurQty").Value(),
		"stkMgtYn":                 stkMgtYn,
		"discountApplyProductList": []any{},
		"screenType":               "PRODUCT",
		"dmstOvsDvDvsCd":           delivery.Get("dmstOvsDvDvsCd").Value(),
		"dvPdTypCd":                delivery.Get("dvPdTypCd").Value(),
		"dvCstStdQty":              delivery.Get("dvCstStdQty").Float(),
		"aplyBestPrcChk":           "Y",
		"cpnBoxVersion":            "V2",
	}
}
