// Package oliveyoung 올리브영 상품 수집 엔진입니다.
//
// 모바일 상품 페이지의 textarea#goodsData에 포함된 JSON에서 상품 정보를 추출합니다.
package oliveyoung

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
	code = "oliveyoung"
	name = "올리브영"

	// 모바일 앱 UA가 아니면 상품 데이터가 비어 있는 페이지가 내려옵니다.
	userAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 18_0 like Mac OS X) AppleWebKit/605.1.15 " +
		"(KHTML, like Gecko) Mobile/15E148 appVer/3.18.1 osType/10 osVer/18.0"
)

const (
	pageURL     = "https://m.oliveyoung.co.kr/m/goods/getGoodsDetail.do?goodsNo=%s"
	itemLinkURL = "https://www.oliveyoung.co.kr/store/goods/getGoodsDetail.do?goodsNo=%s"
	thumbURL    = "https://image.oliveyoung.co.kr/cfimages/cf-goods/uploads/images/thumbnails/%s"
)

var idPattern = regexp.MustCompile(`goodsNo=(?P<goods_number>[\w\d]+)`)

// Factory 올리브영 엔진의 등록 단위를 반환합니다.
func Factory() engine.Factory {
	return engine.Factory{Code: code, Name: name, ParseID: ParseID, New: New}
}

// ParseID 상품 URL에서 상품 번호(goodsNo)를 추출합니다.
func ParseID(itemURL string) (product.Identifier, error) {
	m := idPattern.FindStringSubmatch(itemURL)
	if m == nil {
		return product.Identifier{}, apperrors.Newf(apperrors.InvalidItemURL,
			"올리브영 상품 URL 형식이 아닙니다: %s", itemURL)
	}
	return product.NewIdentifierParts(
		product.IdentifierPart{Key: "product_id", Value: m[idPattern.SubexpIndex("goods_number")]},
	), nil
}

// New 올리브영 엔진 인스턴스를 생성합니다.
func New(opts engine.Options) (engine.Engine, error) {
	id, err := ParseID(opts.ItemURL)
	if err != nil {
		return nil, err
	}

	e := &Engine{}
	e.Base = engine.NewBase(code, name, id, opts.ItemURL)
	return e, nil
}

// Engine 단일 올리브영 상품에 바인딩된 수집 엔진입니다.
type Engine struct {
	engine.Base
}

var _ engine.Engine = (*Engine)(nil)

// Load 모바일 상품 페이지를 수집하여 상품 정보를 추출합니다.
func (e *Engine) Load(ctx context.Context, s scraper.Scraper) (*product.Product, error) {
	goodsNo := e.ID().TargetID()

	header := http.Header{}
	header.Set("User-Agent", userAgent)

	res, err := s.Get(ctx, fmt.Sprintf(pageURL, goodsNo), header)
	if err != nil {
		return nil, err
	}

	if res.IsNotFound() {
		return product.NewDeleted(e.ID(), res.StatusCode), nil
	}
	if !res.Has() {
		return nil, apperrors.Newf(apperrors.ExecutionFailed,
			"올리브영 상품 응답이 유효하지 않습니다 (goodsNo: %s, 상태 코드: %d)", goodsNo, res.StatusCode)
	}

	return parseProduct(e.ID(), res)
}
