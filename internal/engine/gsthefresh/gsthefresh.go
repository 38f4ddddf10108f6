// Package gsthefresh GS더프레시(우리동네GS) 상품 수집 엔진입니다.
//
// 점포 코드 단위로 상품이 조회되며, 기기 식별자와 액세스 토큰을 요청 헤더에
// 실어 보냅니다. 계정 로그인/토큰 갱신 절차는 다루지 않고 설정으로 주입받습니다.
package gsthefresh

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
	code = "gs_the_fresh"
	name = "GS더프레시"

	userAgent       = "Dart/3.5 (dart:io)"
	defaultDeviceID = "a00000a0fa004cf127333873c60e5b12"
	defaultStore    = "GA24"
)

const (
	apiURL      = "https://b2c-apigw.woodongs.com/supermarket/v1/wdelivery/item/%s?pickupItemYn=Y&storeCode=%s"
	itemLinkURL = "https://woodongs.com/link?view=gsTheFreshDeliveryDetail&orderType=pickup&itemCode=%s"
)

var idPattern = regexp.MustCompile(`itemCode=(?P<id>\d+)`)

// Factory GS더프레시 엔진의 등록 단위를 반환합니다.
func Factory() engine.Factory {
	return engine.Factory{Code: code, Name: name, ParseID: ParseID, New: New}
}

// ParseID 상품 URL에서 상품 코드(itemCode)를 추출합니다.
func ParseID(itemURL string) (product.Identifier, error) {
	unquoted, err := url.QueryUnescape(itemURL)
	if err != nil {
		unquoted = itemURL
	}

	m := idPattern.FindStringSubmatch(unquoted)
	if m == nil {
		return product.Identifier{}, apperrors.Newf(apperrors.InvalidItemURL,
			"GS더프레시 상품 URL 형식이 아닙니다: %s", itemURL)
	}
	return product.NewIdentifierParts(
		product.IdentifierPart{Key: "product_id", Value: m[idPattern.SubexpIndex("id")]},
	), nil
}

// New GS더프레시 엔진 인스턴스를 생성합니다.
//
// Device 설정의 store, device_id, access_token 값을 사용합니다.
// store와 device_id가 비어 있으면 기본값이 적용됩니다.
func New(opts engine.Options) (engine.Engine, error) {
	id, err := ParseID(opts.ItemURL)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		store:       opts.Device["store"],
		deviceID:    opts.Device["device_id"],
		accessToken: opts.Device["access_token"],
	}
	if e.store == "" {
		e.store = defaultStore
	}
	if e.deviceID == "" {
		e.deviceID = defaultDeviceID
	}
	e.Base = engine.NewBase(code, name, id, opts.ItemURL)
	return e, nil
}

// Engine 단일 GS더프레시 상품에 바인딩된 수집 엔진입니다.
type Engine struct {
	engine.Base

	store       string
	deviceID    string
	accessToken string
}

var _ engine.Engine = (*Engine)(nil)

// EntityTarget 동일 상품이라도 점포가 다르면 별개 대상으로 식별합니다.
func (e *Engine) EntityTarget() string {
	return e.store + "_" + e.ID().TargetID()
}

// Load 점포 기준 상품 상세 API를 호출하여 상품 정보를 수집합니다.
func (e *Engine) Load(ctx context.Context, s scraper.Scraper) (*product.Product, error) {
	itemCode := e.ID().TargetID()

	header := http.Header{}
	header.Set("User-Agent", userAgent)
	header.Set("Accept", "application/json")
	header.Set("Content-Type", "application/json; charset=utf-8")
	header.Set("device_id", e.deviceID)
	header.Set("appinfo_device_id", e.deviceID)
	if e.accessToken != "" {
		header.Set("Authorization", "Bearer "+e.accessToken)
	}

	res, err := s.Get(ctx, fmt.Sprintf(apiURL, itemCode, e.store), header)
	if err != nil {
		return nil, err
	}

	if res.IsNotFound() {
		p := product.NewDeleted(e.ID(), res.StatusCode)
		p.Name = "Deleted " + e.EntityTarget()
		return p, nil
	}
	if !res.Has() {
		return nil, apperrors.Newf(apperrors.ExecutionFailed,
			"GS더프레시 상품 응답이 유효하지 않습니다 (itemCode: %s, 상태 코드: %d)", itemCode, res.StatusCode)
	}

	return parseProduct(e.ID(), res)
}
