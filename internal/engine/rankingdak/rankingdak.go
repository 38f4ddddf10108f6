// Package rankingdak 랭킹닭컴 상품 수집 엔진입니다.
//
// 모바일 상품 페이지(HTML)를 파싱합니다. 품절 상품은 페이지 스크립트에
// 품절 처리 코드가 포함되므로 이를 삭제된 상품과 동일하게 종결 처리합니다.
package rankingdak

import (
	"context"
	"fmt"
	"regexp"
	"time"

	apperrors "github.com/darkkaiser/price-watcher/internal/pkg/errors"
	"github.com/darkkaiser/price-watcher/internal/engine"
	"github.com/darkkaiser/price-watcher/internal/product"
	"github.com/darkkaiser/price-watcher/internal/scraper"
)

const (
	code = "rankingdak"
	name = "랭킹닭컴"
)

const (
	pageURL     = "https://m.rankingdak.com/product/view?productCd=%s"
	itemLinkURL = "https://www.rankingdak.com/product/view?productCd=%s"
)

var idPattern = regexp.MustCompile(`productCd=(?P<id>\w+)`)

// Factory 랭킹닭컴 엔진의 등록 단위를 반환합니다.
func Factory() engine.Factory {
	return engine.Factory{Code: code, Name: name, ParseID: ParseID, New: New}
}

// ParseID 상품 URL에서 상품 코드(productCd)를 추출합니다.
func ParseID(itemURL string) (product.Identifier, error) {
	m := idPattern.FindStringSubmatch(itemURL)
	if m == nil {
		return product.Identifier{}, apperrors.Newf(apperrors.InvalidItemURL,
			"랭킹닭컴 상품 URL 형식이 아닙니다: %s", itemURL)
	}
	return product.NewIdentifierParts(
		product.IdentifierPart{Key: "product_id", Value: m[idPattern.SubexpIndex("id")]},
	), nil
}

// New 랭킹닭컴 엔진 인스턴스를 생성합니다.
func New(opts engine.Options) (engine.Engine, error) {
	id, err := ParseID(opts.ItemURL)
	if err != nil {
		return nil, err
	}

	e := &Engine{}
	e.Base = engine.NewBase(code, name, id, opts.ItemURL)
	return e, nil
}

// Engine 단일 랭킹닭컴 상품에 바인딩된 수집 엔진입니다.
type Engine struct {
	engine.Base
}

var _ engine.Engine = (*Engine)(nil)

// Load 모바일 상품 페이지를 수집하여 상품 정보를 추출합니다.
func (e *Engine) Load(ctx context.Context, s scraper.Scraper) (*product.Product, error) {
	productCd := e.ID().TargetID()

	res, err := s.Get(ctx, fmt.Sprintf(pageURL, productCd), nil)
	if err != nil {
		return nil, err
	}

	if res.IsNotFound() || !res.Has() {
		return product.NewDeleted(e.ID(), res.StatusCode), nil
	}

	p, soldOut, err := parseProduct(e.ID(), res, time.Now())
	if err != nil {
		return nil, err
	}
	if soldOut {
		return product.NewDeleted(e.ID(), res.StatusCode), nil
	}
	return p, nil
}
