// Package ssg SSG닷컴(이마트몰 포함) 상품 수집 엔진입니다.
//
// 모바일 앱 API(itemView.ssg)를 호출하며, 응답의 action.type이 "0001"이면
// 판매처가 상품 삭제를 확인한 것으로 해석합니다.
package ssg

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	apperrors "github.com/darkkaiser/price-watcher/internal/pkg/errors"
	"github.com/darkkaiser/price-watcher/internal/engine"
	"github.com/darkkaiser/price-watcher/internal/product"
	"github.com/darkkaiser/price-watcher/internal/scraper"
)

const (
	code = "ssg"
	name = "SSG닷컴"
)

const (
	apiURL      = "https://m.apps.ssg.com/appApi/itemView.ssg"
	itemLinkURL = "https://emart.ssg.com/item/itemView.ssg?itemId=%s&siteNo=%s"
)

var idPattern = regexp.MustCompile(`itemId=(?P<product_id>[\d]+)&siteNo=(?P<site_no>[\d]+)`)

// Factory SSG닷컴 엔진의 등록 단위를 반환합니다.
func Factory() engine.Factory {
	return engine.Factory{Code: code, Name: name, ParseID: ParseID, New: New}
}

// ParseID 상품 URL에서 itemId와 siteNo를 추출합니다.
func ParseID(itemURL string) (product.Identifier, error) {
	m := idPattern.FindStringSubmatch(itemURL)
	if m == nil {
		return product.Identifier{}, apperrors.Newf(apperrors.InvalidItemURL,
			"SSG닷컴 상품 URL 형식이 아닙니다: %s", itemURL)
	}
	return product.NewIdentifierParts(
		product.IdentifierPart{Key: "product_id", Value: m[idPattern.SubexpIndex("product_id")]},
		product.IdentifierPart{Key: "site_no", Value: m[idPattern.SubexpIndex("site_no")]},
	), nil
}

// New SSG닷컴 엔진 인스턴스를 생성합니다.
func New(opts engine.Options) (engine.Engine, error) {
	id, err := ParseID(opts.ItemURL)
	if err != nil {
		return nil, err
	}

	e := &Engine{}
	e.Base = engine.NewBase(code, name, id, opts.ItemURL)
	return e, nil
}

// Engine 단일 SSG닷컴 상품에 바인딩된 수집 엔진입니다.
type Engine struct {
	engine.Base
}

var _ engine.Engine = (*Engine)(nil)

// Load 앱 API를 호출하여 상품 정보를 수집합니다.
//
// 404 응답, 빈 본문, action.type "0001" 모두 삭제된 상품으로 종결됩니다.
func (e *Engine) Load(ctx context.Context, s scraper.Scraper) (*product.Product, error) {
	productID := e.ID().Part("product_id")
	siteNo := e.ID().Part("site_no")

	body := fmt.Sprintf(`{"params":{"dispSiteNo":%q,"itemId":%q}}`, siteNo, productID)

	header := http.Header{}
	header.Set("Content-Type", "application/json")

	res, err := s.Request(ctx, http.MethodPost, apiURL, strings.NewReader(body), header)
	if err != nil {
		return nil, err
	}

	if res.IsNotFound() || !res.Has() {
		return product.NewDeleted(e.ID(), res.StatusCode), nil
	}
	if res.JSON("data.action.type").String() == "0001" {
		return product.NewDeleted(e.ID(), res.StatusCode), nil
	}

	return parseProduct(e.ID(), res.Text)
}
