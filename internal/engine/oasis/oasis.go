// Package oasis 오아시스마켓 상품 수집 엔진입니다.
//
// 모바일 웹 상품 페이지를 goquery로 직접 파싱합니다. 구조화된 API가
// 없으므로 CSS 선택자 기반으로 각 필드를 추출합니다.
package oasis

import (
	"context"
	"fmt"
	"regexp"

	apperrors "github.com/darkkaiser/price-watcher/internal/pkg/errors"
	"github.com/darkkaiser/price-watcher/internal/engine"
	"github.com/darkkaiser/price-watcher/internal/product"
	"github.com/darkkaiser/price-watcher/internal/scraper"
)

const (
	code = "oasis"
	name = "오아시스마켓"
)

const pageURL = "https://m.oasis.co.kr/product/detail/%s"

// idPattern URL 끝의 상품 번호 (쿼리 문자열 허용)
var idPattern = regexp.MustCompile(`(?P<product_id>[\d\-]+)(?:$|\?.*?$)`)

// Factory 오아시스마켓 엔진의 등록 단위를 반환합니다.
func Factory() engine.Factory {
	return engine.Factory{Code: code, Name: name, ParseID: ParseID, New: New}
}

// ParseID 상품 URL 끝에서 상품 번호를 추출합니다.
func ParseID(itemURL string) (product.Identifier, error) {
	m := idPattern.FindStringSubmatch(itemURL)
	if m == nil {
		return product.Identifier{}, apperrors.Newf(apperrors.InvalidItemURL,
			"오아시스마켓 상품 URL 형식이 아닙니다: %s", itemURL)
	}
	return product.NewIdentifierParts(
		product.IdentifierPart{Key: "product_id", Value: m[idPattern.SubexpIndex("product_id")]},
	), nil
}

// New 오아시스마켓 엔진 인스턴스를 생성합니다.
func New(opts engine.Options) (engine.Engine, error) {
	id, err := ParseID(opts.ItemURL)
	if err != nil {
		return nil, err
	}

	e := &Engine{}
	e.Base = engine.NewBase(code, name, id, opts.ItemURL)
	return e, nil
}

// Engine 단일 오아시스마켓 상품에 바인딩된 수집 엔진입니다.
type Engine struct {
	engine.Base
}

var _ engine.Engine = (*Engine)(nil)

// Load 모바일 상품 페이지를 수집하여 상품 정보를 추출합니다.
func (e *Engine) Load(ctx context.Context, s scraper.Scraper) (*product.Product, error) {
	res, err := s.Get(ctx, fmt.Sprintf(pageURL, e.ID().TargetID()), nil)
	if err != nil {
		return nil, err
	}

	if res.IsNotFound() {
		return product.NewDeleted(e.ID(), res.StatusCode), nil
	}
	if !res.Has() {
		return nil, apperrors.Newf(apperrors.ExecutionFailed,
			"오아시스마켓 상품 응답이 유효하지 않습니다 (productId: %s, 상태 코드: %d)", e.ID().TargetID(), res.StatusCode)
	}

	return parseProduct(e.ID(), e.ItemURL(), res)
}
