// Package watcher 감시 대상 상품의 주기적 수집과 변동 감지를 담당합니다.
//
// 상품마다 하나의 Tracker가 배정되어 직전 스냅샷과 새 수집 결과를 비교하고,
// 변동 이벤트(가격 변동, 재입고, 판매 종료 등)를 만들어 Reporter로 전달합니다.
// 한 판매처의 파싱 실패가 다른 상품의 수집에 영향을 주지 않도록
// 상품 단위로 격리되어 실행됩니다.
package watcher

import (
	"time"

	"github.com/darkkaiser/price-watcher/internal/product"
)

// EngineStatus 마지막 수집 시도의 엔진 상태입니다.
type EngineStatus string

const (
	// EngineFetched 수집 성공 (판매처가 삭제를 확인한 경우 포함)
	EngineFetched EngineStatus = "FETCHED"

	// EngineError 일시적 수집 실패 (네트워크 에러, 페이지 구조 변경 등)
	EngineError EngineStatus = "ERROR"
)

// Snapshot 가격 변동 감지를 위한 상품 하나의 영속 스냅샷입니다.
//
// Price와 LowestPrice는 한 번도 가격을 수집하지 못한 상품과 가격 0원을
// 구분하기 위해 포인터로 보관합니다.
type Snapshot struct {
	EntityID string `json:"entity_id"`
	Vendor   string `json:"vendor"`
	Name     string `json:"name"`
	URL      string `json:"url"`

	Price       *float64 `json:"price,omitempty"`
	Currency    string   `json:"currency,omitempty"`
	LowestPrice *float64 `json:"lowest_price,omitempty"`

	Status    product.Status          `json:"status"`
	Inventory product.InventoryStatus `json:"inventory"`

	EngineStatus EngineStatus `json:"engine_status"`

	// Available 마지막 수집값을 신뢰할 수 있는지 여부.
	// 일시적 실패 직후에도 최근 성공 이력이 있으면 true가 유지됩니다.
	Available bool `json:"available"`

	// LastSuccessAt 마지막으로 수집에 성공한 시각 (zero: 성공 이력 없음)
	LastSuccessAt time.Time `json:"last_success_at"`

	// UpdatedAt 마지막 수집 시도 시각. 성공/실패와 무관하게 매 주기 갱신됩니다.
	UpdatedAt time.Time `json:"updated_at"`
}

// EventType 직전 스냅샷 대비 상품의 상태 변화 유형입니다.
type EventType int

const (
	EventNone               EventType = iota
	EventFirstSeen                    // 신규 감시 상품의 첫 수집
	EventPriceChanged                 // 가격 변동
	EventLowestPriceRenewed           // 관측 최저가 갱신
	EventRestocked                    // 재입고
	EventSoldOut                      // 품절
	EventDeleted                      // 판매처가 상품 삭제를 확인 (종결 상태)
)

// Event 상품 하나의 변동 사항을 캡슐화한 알림 단위입니다.
type Event struct {
	Type EventType

	EntityID   string
	VendorName string

	// Product 이번 수집으로 얻은 상품 레코드
	Product *product.Product

	// Prev 직전 스냅샷 (첫 수집이면 nil)
	Prev *Snapshot

	// Change 가격 변동 판정 결과 (가격 변동 이벤트에서만 의미 있음)
	Change product.PriceChange
}
