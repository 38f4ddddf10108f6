package watcher

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/darkkaiser/price-watcher/internal/engine"
	apperrors "github.com/darkkaiser/price-watcher/internal/pkg/errors"
	"github.com/darkkaiser/price-watcher/internal/product"
	"github.com/darkkaiser/price-watcher/internal/scraper"
	applog "github.com/darkkaiser/price-watcher/pkg/log"
)

// staleAfter 마지막 수집 성공이 이 시간보다 오래되면, 이후의 수집 실패 시
// 스냅샷을 더 이상 신뢰할 수 없는 것(Available=false)으로 판정합니다.
const staleAfter = 6 * time.Hour

// stackBufferSize 패닉 복구 시 스택 트레이스를 담을 버퍼 크기 (4KB)
const stackBufferSize = 4 << 10

// Tracker 상품 하나의 수집과 변동 감지를 담당합니다.
//
// Poll은 내부 뮤텍스로 직렬화되어, 스케줄러의 주기 수집과 API의 전체 갱신이
// 겹치더라도 같은 상품이 동시에 수집되지 않습니다.
type Tracker struct {
	id       string // 설정 파일의 상품 ID
	entityID string
	engine   engine.Engine
	store    Store

	periodHours int
	debug       bool

	// 테스트에서 시각을 주입하기 위한 훅
	now func() time.Time

	pollMu sync.Mutex

	mu       sync.Mutex
	lastProd *product.Product
	lastSnap *Snapshot
}

// NewTracker 감시 대상 상품 하나에 대한 Tracker를 생성합니다.
func NewTracker(id string, eng engine.Engine, store Store, periodHours int, debug bool) *Tracker {
	return &Tracker{
		id:          id,
		entityID:    product.EntityID(eng.Code(), eng.EntityTarget(), ""),
		engine:      eng,
		store:       store,
		periodHours: periodHours,
		debug:       debug,
		now:         time.Now,
	}
}

// ID 설정 파일의 상품 ID를 반환합니다.
func (t *Tracker) ID() string { return t.id }

// EntityID 스냅샷 저장에 사용되는 엔티티 이름을 반환합니다.
func (t *Tracker) EntityID() string { return t.entityID }

// Result Poll 한 번의 수행 결과입니다.
type Result struct {
	EntityID string

	// Product 이번 수집으로 얻은 상품 (수집 실패 또는 종결 상태로 수집을 건너뛴 경우 nil)
	Product *product.Product

	// Snapshot 이번 주기에 저장된 스냅샷
	Snapshot *Snapshot

	// Change 가격 변동 판정 결과
	Change product.PriceChange

	// Events 직전 스냅샷 대비 변동 이벤트 목록
	Events []Event
}

// Poll 상품을 한 번 수집하고 스냅샷을 갱신합니다.
//
// 상태 전이 규칙:
//   - 직전 스냅샷이 삭제 종결 상태면 수집하지 않고 갱신 시각만 기록합니다.
//     (가용성은 true로 유지)
//   - 수집 성공 시 스냅샷을 갱신하고 가용성을 true로 설정합니다.
//     판매처의 404는 엔진이 삭제 상품으로 변환하므로 여기서는 성공으로 취급됩니다.
//   - 일시적 실패 시: 성공 이력이 없거나, 마지막 성공이 staleAfter보다 오래됐거나,
//     디버그 모드면 가용성을 false로 내립니다. 그 외에는 직전 값을 유지한 채
//     엔진 상태만 ERROR로 표시합니다.
//   - 갱신 시각(UpdatedAt)은 성공/실패와 무관하게 매 주기 기록됩니다.
func (t *Tracker) Poll(ctx context.Context, s scraper.Scraper) (*Result, error) {
	t.pollMu.Lock()
	defer t.pollMu.Unlock()

	now := t.now()

	prev, err := t.store.Load(t.entityID)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.System, "스냅샷 로드 실패 (%s)", t.entityID)
	}

	// 종결 상태: 판매처가 삭제를 확인한 상품은 다시 수집하지 않는다.
	if prev != nil && prev.Status == product.StatusDeleted {
		snap := *prev
		snap.UpdatedAt = now
		if err := t.store.Save(&snap); err != nil {
			return nil, err
		}
		t.remember(nil, &snap)
		return &Result{EntityID: t.entityID, Snapshot: &snap}, nil
	}

	p, loadErr := t.load(ctx, s)
	if loadErr != nil {
		snap := t.failedSnapshot(prev, now)
		if err := t.store.Save(snap); err != nil {
			return nil, err
		}
		t.remember(nil, snap)
		return &Result{EntityID: t.entityID, Snapshot: snap},
			apperrors.Wrapf(loadErr, apperrors.ExecutionFailed, "상품 수집 실패 (%s)", t.entityID)
	}

	change := t.classify(prev, p, now)
	snap := t.successSnapshot(prev, p, now)
	events := t.diff(prev, p, change)

	if err := t.store.Save(snap); err != nil {
		return nil, err
	}
	t.remember(p, snap)

	return &Result{
		EntityID: t.entityID,
		Product:  p,
		Snapshot: snap,
		Change:   change,
		Events:   events,
	}, nil
}

// load 엔진 수집을 수행합니다. 엔진(파서) 내부의 패닉은 복구하여 일시적
// 수집 실패로 변환합니다. 한 상품의 파서 결함이 스케줄러나 전체 갱신을
// 중단시키지 않습니다.
func (t *Tracker) load(ctx context.Context, s scraper.Scraper) (p *product.Product, err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := make([]byte, stackBufferSize)
			length := runtime.Stack(stack, false)

			applog.WithComponentAndFields(component, applog.Fields{
				"entity_id": t.entityID,
				"panic":     r,
				"stack":     string(stack[:length]),
			}).Error("엔진 수집 중 패닉 복구")

			p = nil
			err = apperrors.Newf(apperrors.ExecutionFailed, "엔진 수집 중 패닉 발생: %v", r)
		}
	}()

	return t.engine.Load(ctx, s)
}

// classify 직전 스냅샷과 새 수집 결과로 가격 변동을 판정합니다.
// 최근성 창은 마지막 성공 수집 시각을 기준으로 합니다.
func (t *Tracker) classify(prev *Snapshot, p *product.Product, now time.Time) product.PriceChange {
	var before *float64
	var prevAt time.Time
	if prev != nil {
		before = prev.Price
		prevAt = prev.LastSuccessAt
	}

	var after *float64
	if p.Status != product.StatusDeleted {
		v := p.Price.Price
		after = &v
	}

	return product.ClassifyPriceChange(prevAt, t.periodHours, before, after, now)
}

// successSnapshot 수집 성공 결과를 스냅샷으로 변환합니다.
// 관측 최저가는 직전 스냅샷에서 이월되며, 더 싼 가격이 관측되면 갱신됩니다.
func (t *Tracker) successSnapshot(prev *Snapshot, p *product.Product, now time.Time) *Snapshot {
	snap := &Snapshot{
		EntityID:      t.entityID,
		Vendor:        t.engine.Code(),
		Name:          p.Name,
		URL:           p.URL,
		Currency:      p.Price.Currency,
		Status:        p.Status,
		Inventory:     p.Inventory,
		EngineStatus:  EngineFetched,
		Available:     true,
		LastSuccessAt: now,
		UpdatedAt:     now,
	}

	if p.Status != product.StatusDeleted {
		v := p.Price.Price
		snap.Price = &v
	}

	if prev != nil {
		snap.LowestPrice = prev.LowestPrice
	}
	if snap.Price != nil && (snap.LowestPrice == nil || *snap.Price < *snap.LowestPrice) {
		v := *snap.Price
		snap.LowestPrice = &v
	}

	return snap
}

// failedSnapshot 일시적 수집 실패를 스냅샷에 반영합니다. 직전 값은 유지됩니다.
func (t *Tracker) failedSnapshot(prev *Snapshot, now time.Time) *Snapshot {
	var snap Snapshot
	if prev != nil {
		snap = *prev
	} else {
		snap.EntityID = t.entityID
		snap.Vendor = t.engine.Code()
	}

	snap.EngineStatus = EngineError
	snap.Available = t.stillAvailable(prev, now)
	snap.UpdatedAt = now

	return &snap
}

// stillAvailable 일시적 실패 후에도 직전 값을 신뢰할 수 있는지 판정합니다.
func (t *Tracker) stillAvailable(prev *Snapshot, now time.Time) bool {
	if t.debug {
		return false
	}
	if prev == nil || prev.LastSuccessAt.IsZero() {
		return false
	}
	return now.Sub(prev.LastSuccessAt) <= staleAfter
}

// diff 직전 스냅샷 대비 변동 이벤트를 생성합니다.
func (t *Tracker) diff(prev *Snapshot, p *product.Product, change product.PriceChange) []Event {
	base := Event{
		EntityID:   t.entityID,
		VendorName: t.engine.Name(),
		Product:    p,
		Prev:       prev,
		Change:     change,
	}

	var events []Event
	add := func(typ EventType) {
		e := base
		e.Type = typ
		events = append(events, e)
	}

	if prev == nil {
		add(EventFirstSeen)
		return events
	}

	if p.Status == product.StatusDeleted {
		add(EventDeleted)
		return events
	}

	if prev.Inventory == product.OutOfStock && p.Inventory != product.OutOfStock {
		add(EventRestocked)
	}
	if prev.Inventory != product.OutOfStock && p.Inventory == product.OutOfStock {
		add(EventSoldOut)
	}

	if change.Status != product.NoChange {
		add(EventPriceChanged)
	}

	if change.After != nil && prev.LowestPrice != nil && *change.After < *prev.LowestPrice {
		add(EventLowestPriceRenewed)
	}

	return events
}

func (t *Tracker) remember(p *product.Product, snap *Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p != nil {
		t.lastProd = p
	}
	t.lastSnap = snap
}

// Last 마지막으로 수집된 상품과 스냅샷을 반환합니다. 아직 수집 전이면 nil입니다.
func (t *Tracker) Last() (*product.Product, *Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastProd, t.lastSnap
}
