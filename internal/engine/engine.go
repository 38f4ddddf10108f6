// Package engine 판매처별 상품 수집 엔진의 공통 계약을 정의합니다.
//
// 엔진은 상품 URL에서 식별자를 추출하고(ParseID), 식별자로 판매처 페이지를
// 수집하여 표준 Product로 정규화합니다(Load). 엔진은 상태를 갖지 않으며
// 재진입 가능해야 합니다. 전송 정책(재시도, 속도 제한 등)은 scraper에
// 위임되고, 엔진은 응답 본문의 해석만 담당합니다.
package engine

import (
	"context"

	"github.com/darkkaiser/price-watcher/internal/product"
	"github.com/darkkaiser/price-watcher/internal/scraper"
)

// Options 엔진 인스턴스 생성에 필요한 매개변수입니다.
type Options struct {
	// ItemURL 사용자가 등록한 상품 URL입니다.
	ItemURL string

	// Device 판매처별 디바이스/점포 설정입니다. (예: GS THE FRESH 점포 코드)
	// 디바이스가 필요 없는 판매처는 무시합니다.
	Device map[string]string
}

// Engine 단일 상품에 바인딩된 수집 엔진입니다.
//
// Load는 수집 실패 시 internal/pkg/errors의 타입으로 분류된 에러를 반환합니다.
//   - NotFound: 판매처가 삭제를 확인 → 호출자는 Deleted 상품으로 종결
//   - ParsingFailed: 페이지 구조 변경 → 최근성 정책에 따라 마지막 값 유지
//   - Unauthorized / ExecutionFailed: 판매처 API 실패
//
// 전송 계층의 404는 에러가 아니라 product.StatusDeleted 상품으로 반환됩니다.
type Engine interface {
	// Code 판매처의 안정적인 소문자 코드를 반환합니다. (예: "coupang")
	Code() string

	// Name 판매처의 표시 이름을 반환합니다.
	Name() string

	// ID 이 엔진이 바인딩된 상품 식별자를 반환합니다.
	ID() product.Identifier

	// EntityTarget 엔티티 이름 생성에 사용되는 식별자 축약 문자열을 반환합니다.
	EntityTarget() string

	// Load 판매처 페이지를 수집하여 표준 상품 레코드로 정규화합니다.
	Load(ctx context.Context, s scraper.Scraper) (*product.Product, error)
}

// ParseIDFunc 상품 URL에서 식별자를 추출하는 함수입니다.
// URL이 판매처의 상품 URL 형식이 아니면 InvalidItemURL 에러를 반환합니다.
type ParseIDFunc func(itemURL string) (product.Identifier, error)

// NewEngineFunc 옵션으로 엔진 인스턴스를 생성하는 팩토리 함수입니다.
type NewEngineFunc func(opts Options) (Engine, error)

// Factory 판매처 하나의 등록 단위입니다.
// 디스패치 테이블은 판매처 코드를 이 구조체로 매핑합니다.
type Factory struct {
	Code    string
	Name    string
	ParseID ParseIDFunc
	New     NewEngineFunc
}

// Base 모든 판매처 엔진이 공유하는 공통 필드입니다.
// 각 엔진 구현체에 임베딩하여 사용합니다.
type Base struct {
	code    string
	name    string
	id      product.Identifier
	itemURL string
}

// NewBase 공통 필드를 초기화합니다.
func NewBase(code, name string, id product.Identifier, itemURL string) Base {
	return Base{code: code, name: name, id: id, itemURL: itemURL}
}

func (b *Base) Code() string { return b.code }

func (b *Base) Name() string { return b.name }

func (b *Base) ID() product.Identifier { return b.id }

// ItemURL 사용자가 등록한 원본 상품 URL을 반환합니다.
func (b *Base) ItemURL() string { return b.itemURL }

// EntityTarget 식별자 축약 문자열을 반환합니다.
func (b *Base) EntityTarget() string { return b.id.TargetID() }
