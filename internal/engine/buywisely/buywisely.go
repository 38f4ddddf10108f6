// Package buywisely BuyWisely(호주 가격 비교) 상품 수집 엔진입니다.
//
// 상품 데이터가 페이지 내 하이드레이션 스크립트(JSON)에 묻혀 있어,
// 하이드레이션 추출 → DOM 휴리스틱 → 본문 텍스트 스캔 순의 다단계
// 추출 체인으로 동작합니다. 앞 단계가 성공하면 뒤 단계는 실행되지 않습니다.
package buywisely

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"net/http"

	apperrors "github.com/darkkaiser/price-watcher/internal/pkg/errors"
	"github.com/darkkaiser/price-watcher/internal/engine"
	"github.com/darkkaiser/price-watcher/internal/product"
	"github.com/darkkaiser/price-watcher/internal/scraper"
)

const (
	code = "buywisely"
	name = "BuyWisely"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.3"

	siteHost       = "buywisely.com.au"
	productLinkURL = "https://www.buywisely.com.au/product/%s"
)

// Factory BuyWisely 엔진의 등록 단위를 반환합니다.
func Factory() engine.Factory {
	return engine.Factory{Code: code, Name: name, ParseID: ParseID, New: New}
}

// ParseID 상품 URL 자체가 유일한 식별 수단이므로 URL의 MD5 해시를 상품 번호로 씁니다.
func ParseID(itemURL string) (product.Identifier, error) {
	if itemURL == "" {
		return product.Identifier{}, apperrors.New(apperrors.InvalidItemURL,
			"BuyWisely 상품 URL이 비어 있습니다")
	}

	sum := md5.Sum([]byte(itemURL))
	return product.NewIdentifierParts(
		product.IdentifierPart{Key: "product_id", Value: hex.EncodeToString(sum[:])},
	), nil
}

// New BuyWisely 엔진 인스턴스를 생성합니다.
func New(opts engine.Options) (engine.Engine, error) {
	id, err := ParseID(opts.ItemURL)
	if err != nil {
		return nil, err
	}

	e := &Engine{}
	e.Base = engine.NewBase(code, name, id, opts.ItemURL)
	return e, nil
}

// Engine 단일 BuyWisely 상품에 바인딩된 수집 엔진입니다.
type Engine struct {
	engine.Base
}

var _ engine.Engine = (*Engine)(nil)

// Load 상품 페이지를 수집하고 다단계 추출 체인으로 상품 정보를 구성합니다.
func (e *Engine) Load(ctx context.Context, s scraper.Scraper) (*product.Product, error) {
	header := http.Header{}
	header.Set("User-Agent", userAgent)

	res, err := s.Get(ctx, e.ItemURL(), header)
	if err != nil {
		return nil, err
	}

	if res.IsNotFound() {
		return product.NewDeleted(e.ID(), res.StatusCode), nil
	}
	if !res.Has() {
		return nil, apperrors.Newf(apperrors.ExecutionFailed,
			"BuyWisely 상품 응답이 유효하지 않습니다 (URL: %s, 상태 코드: %d)", e.ItemURL(), res.StatusCode)
	}

	ex, err := extract(res)
	if err != nil {
		return nil, err
	}
	return buildProduct(e.ID(), ex), nil
}

// extract 하이드레이션 스크립트를 우선 시도하고, 상품 레코드를 찾지 못하면
// DOM 휴리스틱(내부에서 본문 텍스트 스캔까지 단계적으로)으로 내려갑니다.
func extract(res *scraper.Response) (extracted, error) {
	if record, ok := findProductRecord(extractHydration(res.Text)); ok {
		return parseHydrated(record), nil
	}

	doc, err := res.Document()
	if err != nil {
		return extracted{}, err
	}
	return parseDOM(doc), nil
}

// buildProduct 추출 결과를 표준 상품 레코드로 변환합니다.
// 가격을 찾지 못한 상품은 품절이자 판매 중지 상태로 간주합니다.
func buildProduct(id product.Identifier, ex extracted) *product.Product {
	if ex.price == nil {
		p := product.New(id, ex.title, product.NewPrice(0, ""))
		p.Brand = ex.brand
		p.Image = ex.image
		p.URL = ex.link
		p.Inventory = product.OutOfStock
		p.Status = product.StatusInactive
		return p
	}

	p := product.New(id, ex.title, product.NewPrice(*ex.price, ex.currency))
	p.Brand = ex.brand
	p.Image = ex.image
	p.URL = ex.link
	return p
}
