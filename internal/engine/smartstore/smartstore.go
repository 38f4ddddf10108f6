// Package smartstore 네이버 스마트스토어(브랜드스토어 포함) 상품 수집 엔진입니다.
//
// 상품 페이지 HTML의 window.__PRELOADED_STATE__ 스크립트에 포함된
// 하이드레이션 JSON에서 상품 정보를 추출합니다.
package smartstore

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	apperrors "github.com/darkkaiser/price-watcher/internal/pkg/errors"
	"github.com/darkkaiser/price-watcher/internal/engine"
	"github.com/darkkaiser/price-watcher/internal/product"
	"github.com/darkkaiser/price-watcher/internal/scraper"
)

const (
	code = "smartstore"
	name = "네이버 스마트스토어"
)

const pageURL = "https://%s.naver.com/%s/%s/%s"

var idPattern = regexp.MustCompile(
	`(?P<store_type>smartstore|shopping|brand)\.naver\.com/(?P<store>[a-zA-Z\d\-_]+)/(?P<detail_type>products|\w+)/(?P<product_id>\d+)`)

// Factory 스마트스토어 엔진의 등록 단위를 반환합니다.
func Factory() engine.Factory {
	return engine.Factory{Code: code, Name: name, ParseID: ParseID, New: New}
}

// ParseID 상품 URL에서 스토어 종류/스토어명/상품 번호를 추출합니다.
func ParseID(itemURL string) (product.Identifier, error) {
	m := idPattern.FindStringSubmatch(itemURL)
	if m == nil {
		return product.Identifier{}, apperrors.Newf(apperrors.InvalidItemURL,
			"스마트스토어 상품 URL 형식이 아닙니다: %s", itemURL)
	}

	part := func(key string) product.IdentifierPart {
		return product.IdentifierPart{Key: key, Value: m[idPattern.SubexpIndex(key)]}
	}
	return product.NewIdentifierParts(
		part("store_type"), part("store"), part("detail_type"), part("product_id"),
	), nil
}

// New 스마트스토어 엔진 인스턴스를 생성합니다.
func New(opts engine.Options) (engine.Engine, error) {
	id, err := ParseID(opts.ItemURL)
	if err != nil {
		return nil, err
	}

	e := &Engine{}
	e.Base = engine.NewBase(code, name, id, opts.ItemURL)
	return e, nil
}

// Engine 단일 스마트스토어 상품에 바인딩된 수집 엔진입니다.
type Engine struct {
	engine.Base
}

var _ engine.Engine = (*Engine)(nil)

// EntityTarget 같은 상품 번호가 스토어마다 존재할 수 있으므로
// 스토어명과 상품 번호를 이어 붙인 값을 식별자로 사용합니다.
func (e *Engine) EntityTarget() string {
	return e.ID().Part("store") + "_" + e.ID().Part("product_id")
}

// Load 상품 페이지를 수집하여 하이드레이션 데이터에서 상품 정보를 추출합니다.
//
// 404 응답과 페이지 내 errorView 플래그 모두 삭제된 상품으로 종결됩니다.
func (e *Engine) Load(ctx context.Context, s scraper.Scraper) (*product.Product, error) {
	url := fmt.Sprintf(pageURL,
		e.ID().Part("store_type"), e.ID().Part("store"),
		e.ID().Part("detail_type"), e.ID().Part("product_id"))

	res, err := s.Get(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	if res.IsNotFound() {
		return e.deleted(res.StatusCode), nil
	}
	if !res.Has() {
		return nil, apperrors.Newf(apperrors.ExecutionFailed,
			"스마트스토어 상품 응답이 유효하지 않습니다 (%s, 상태 코드: %d)", e.EntityTarget(), res.StatusCode)
	}

	state, err := preloadedState(res)
	if err != nil {
		return nil, err
	}

	p, notFound, err := parseProduct(e.ID(), state)
	if notFound {
		return e.deleted(res.StatusCode), nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (e *Engine) deleted(httpStatus int) *product.Product {
	p := product.NewDeleted(e.ID(), httpStatus)
	p.Name = "Deleted " + e.EntityTarget()
	return p
}

// preloadedState HTML의 스크립트 태그에서 하이드레이션 JSON 문자열을 찾아 반환합니다.
func preloadedState(res *scraper.Response) (string, error) {
	const marker = "window.__PRELOADED_STATE__="

	doc, err := res.Document()
	if err != nil {
		return "", err
	}

	var state string
	doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := sel.Text()
		if idx := strings.Index(text, marker); idx >= 0 {
			state = strings.TrimSpace(text[idx+len(marker):])
			return false
		}
		return true
	})

	if state == "" {
		return "", apperrors.Newf(apperrors.ParsingFailed,
			"스마트스토어 페이지에서 하이드레이션 데이터를 찾지 못했습니다 (%s)", res.URL)
	}
	return state, nil
}
