// Package homeplus 홈플러스 상품 수집 엔진입니다.
//
// 모바일 상품 페이지에 포함된 상품 상세 JSON 스크립트
// (id="/item/getItemDetail.json")에서 상품 정보를 추출합니다.
package homeplus

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"

	apperrors "github.com/darkkaiser/price-watcher/internal/pkg/errors"
	"github.com/darkkaiser/price-watcher/internal/engine"
	"github.com/darkkaiser/price-watcher/internal/product"
	"github.com/darkkaiser/price-watcher/internal/scraper"
)

const (
	code = "homeplus"
	name = "홈플러스"

	userAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 18_0 like Mac OS X) AppleWebKit/605.1.15 " +
		"(KHTML, like Gecko) Mobile/15E148 AU/0510ed03-e07e-41f4-9f63-90022dae21f2 HOMEPLUS/IOS/MOBILE/6.2.9"
)

const (
	pageURL     = "https://mfront.homeplus.co.kr/item?itemNo=%s&storeType=HYPER&abtp=A_H_37_PD_068804218_1_1_068804656_CS001_"
	itemLinkURL = "https://mfront.homeplus.co.kr/item?itemNo=%s&storeType=HYPER"
)

var idPattern = regexp.MustCompile(`itemNo=(?P<item_no>\d+)`)

// Factory 홈플러스 엔진의 등록 단위를 반환합니다.
func Factory() engine.Factory {
	return engine.Factory{Code: code, Name: name, ParseID: ParseID, New: New}
}

// ParseID 상품 URL에서 상품 번호(itemNo)를 추출합니다. URL 인코딩된 주소도 허용합니다.
func ParseID(itemURL string) (product.Identifier, error) {
	unquoted, err := url.QueryUnescape(itemURL)
	if err != nil {
		unquoted = itemURL
	}

	m := idPattern.FindStringSubmatch(unquoted)
	if m == nil {
		return product.Identifier{}, apperrors.Newf(apperrors.InvalidItemURL,
			"홈플러스 상품 URL 형식이 아닙니다: %s", itemURL)
	}
	return product.NewIdentifierParts(
		product.IdentifierPart{Key: "product_id", Value: m[idPattern.SubexpIndex("item_no")]},
	), nil
}

// New 홈플러스 엔진 인스턴스를 생성합니다.
func New(opts engine.Options) (engine.Engine, error) {
	id, err := ParseID(opts.ItemURL)
	if err != nil {
		return nil, err
	}

	e := &Engine{}
	e.Base = engine.NewBase(code, name, id, opts.ItemURL)
	return e, nil
}

// Engine 단일 홈플러스 상품에 바인딩된 수집 엔진입니다.
type Engine struct {
	engine.Base
}

var _ engine.Engine = (*Engine)(nil)

// Load 모바일 상품 페이지를 수집하여 상품 정보를 추출합니다.
func (e *Engine) Load(ctx context.Context, s scraper.Scraper) (*product.Product, error) {
	itemNo := e.ID().TargetID()

	header := http.Header{}
	header.Set("User-Agent", userAgent)
	header.Set("Cookie", "domainType=mobile")
	header.Set("Accept-Encoding", "gzip, deflate, br")

	res, err := s.Get(ctx, fmt.Sprintf(pageURL, itemNo), header)
	if err != nil {
		return nil, err
	}

	if res.IsNotFound() {
		return product.NewDeleted(e.ID(), res.StatusCode), nil
	}
	if !res.Has() {
		return nil, apperrors.Newf(apperrors.ExecutionFailed,
			"홈플러스 상품 응답이 유효하지 않습니다 (itemNo: %s, 상태 코드: %d)", itemNo, res.StatusCode)
	}

	return parseProduct(e.ID(), res)
}
