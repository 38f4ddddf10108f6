// Package kurly 마켓컬리(Kurly) 상품 수집 엔진입니다.
//
// 쇼룸 API는 게스트 토큰 인증이 필요하므로, 수집 시마다 게스트 토큰을
// 발급받은 뒤 상품 상세를 조회합니다.
package kurly

import (
	"context"
	"fmt"
	"net/http"
	"regexp"

	apperrors "github.com/darkkaiser/price-watcher/internal/pkg/errors"
	"github.com/darkkaiser/price-watcher/internal/engine"
	"github.com/darkkaiser/price-watcher/internal/product"
	"github.com/darkkaiser/price-watcher/internal/scraper"
)

const (
	code = "kurly"
	name = "마켓컬리"
)

const (
	authURL     = "https://api.kurly.com/v3/auth/guest"
	apiURL      = "https://api.kurly.com/showroom/v2/products/%s"
	itemLinkURL = "https://www.kurly.com/goods/%s"
)

var idPattern = regexp.MustCompile(`(?:goods|products)/(?P<product_id>[\d]+)`)

// Factory 마켓컬리 엔진의 등록 단위를 반환합니다.
func Factory() engine.Factory {
	return engine.Factory{Code: code, Name: name, ParseID: ParseID, New: New}
}

// ParseID 상품 URL에서 상품 번호를 추출합니다.
func ParseID(itemURL string) (product.Identifier, error) {
	m := idPattern.FindStringSubmatch(itemURL)
	if m == nil {
		return product.Identifier{}, apperrors.Newf(apperrors.InvalidItemURL,
			"마켓컬리 상품 URL 형식이 아닙니다: %s", itemURL)
	}
	return product.NewIdentifierParts(
		product.IdentifierPart{Key: "product_id", Value: m[idPattern.SubexpIndex("product_id")]},
	), nil
}

// New 마켓컬리 엔진 인스턴스를 생성합니다.
func New(opts engine.Options) (engine.Engine, error) {
	id, err := ParseID(opts.ItemURL)
	if err != nil {
		return nil, err
	}

	e := &Engine{}
	e.Base = engine.NewBase(code, name, id, opts.ItemURL)
	return e, nil
}

// Engine 단일 마켓컬리 상품에 바인딩된 수집 엔진입니다.
type Engine struct {
	engine.Base
}

var _ engine.Engine = (*Engine)(nil)

// Load 게스트 토큰을 발급받아 쇼룸 API에서 상품 정보를 수집합니다.
func (e *Engine) Load(ctx context.Context, s scraper.Scraper) (*product.Product, error) {
	token, err := e.guestToken(ctx, s)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	productID := e.ID().TargetID()

	res, err := s.Get(ctx, fmt.Sprintf(apiURL, productID), header)
	if err != nil {
		return nil, err
	}

	if res.IsNotFound() {
		return product.NewDeleted(e.ID(), res.StatusCode), nil
	}
	if !res.Has() {
		return nil, apperrors.Newf(apperrors.ExecutionFailed,
			"마켓컬리 상품 응답이 유효하지 않습니다 (productId: %s, 상태 코드: %d)", productID, res.StatusCode)
	}

	return parseProduct(e.ID(), res.Text)
}

// guestToken 게스트 액세스 토큰을 발급받습니다.
func (e *Engine) guestToken(ctx context.Context, s scraper.Scraper) (string, error) {
	res, err := s.Request(ctx, http.MethodPost, authURL, nil, nil)
	if err != nil {
		return "", err
	}
	if !res.Has() {
		return "", apperrors.Newf(apperrors.Unauthorized,
			"마켓컬리 게스트 토큰 발급에 실패했습니다 (상태 코드: %d)", res.StatusCode)
	}

	token := res.JSON("data.access_token").String()
	if token == "" {
		return "", apperrors.Newf(apperrors.Unauthorized, "마켓컬리 게스트 토큰이 응답에 없습니다")
	}
	return token, nil
}
