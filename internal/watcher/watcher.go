package watcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/darkkaiser/price-watcher/internal/config"
	"github.com/darkkaiser/price-watcher/internal/engine"
	apperrors "github.com/darkkaiser/price-watcher/internal/pkg/errors"
	"github.com/darkkaiser/price-watcher/internal/scraper"
	applog "github.com/darkkaiser/price-watcher/pkg/log"
)

// component 로깅용 컴포넌트 이름
const component = "watcher"

// fetchTimeout 상품 하나의 수집에 허용하는 최대 시간
const fetchTimeout = 2 * time.Minute

// Reporter 변동 이벤트를 외부 채널로 전달하는 인터페이스입니다.
type Reporter interface {
	Report(ctx context.Context, events []Event)
}

// 스케줄 등록 단위: Tracker와 수집 주기
type scheduleEntry struct {
	tracker  *Tracker
	interval int // 분
}

// Service 감시 대상 상품 전체의 주기 수집을 관장하는 서비스입니다.
//
// 상품마다 독립적인 cron 작업이 등록되며, 직전 수집이 끝나지 않은 상품은
// 해당 주기를 건너뜁니다(SkipIfStillRunning). 작업 내 패닉은 복구되어
// 다른 상품의 수집에 영향을 주지 않습니다.
type Service struct {
	scraper  scraper.Scraper
	reporter Reporter // nil이면 이벤트를 로그로만 남긴다

	entries []scheduleEntry

	cron *cron.Cron

	running   bool
	runningMu sync.Mutex
}

// NewService 설정의 감시 상품 목록으로 Service를 구성합니다.
//
// 지원하지 않는 판매처 코드나 식별자를 추출할 수 없는 상품 URL은
// 설정 오류이므로 서비스 생성 자체가 실패합니다.
func NewService(cfg *config.AppConfig, registry *engine.Registry, sc scraper.Scraper, store Store, reporter Reporter) (*Service, error) {
	if cfg == nil {
		panic("AppConfig는 필수입니다")
	}
	if registry == nil || sc == nil || store == nil {
		panic("Registry, Scraper, Store는 필수입니다")
	}

	s := &Service{
		scraper:  sc,
		reporter: reporter,
	}

	for _, pc := range cfg.Watch.Products {
		eng, err := registry.NewEngine(pc.Vendor, engine.Options{
			ItemURL: pc.ItemURL,
			Device:  pc.Device,
		})
		if err != nil {
			return nil, apperrors.Wrapf(err, apperrors.InvalidInput, "감시 상품['%s']의 엔진 생성에 실패했습니다", pc.ID)
		}

		settings, err := decodeProductSettings(pc.Data)
		if err != nil {
			return nil, apperrors.Wrapf(err, apperrors.InvalidInput, "감시 상품['%s']의 추가 설정(data) 해석에 실패했습니다", pc.ID)
		}

		period := cfg.Watch.PriceChangePeriodHours
		if settings.PriceChangePeriodHours > 0 {
			period = settings.PriceChangePeriodHours
		}

		s.entries = append(s.entries, scheduleEntry{
			tracker:  NewTracker(pc.ID, eng, store, period, cfg.Debug),
			interval: pc.Interval(cfg.Watch.IntervalMinutes),
		})
	}

	return s, nil
}

// Start 감시 서비스를 시작합니다.
//
// 기동 직후 전체 상품을 한 차례 수집한 뒤, 상품별 주기에 따라 cron 작업이
// 반복 실행됩니다. serviceStopCtx가 취소되면 진행 중인 작업이 끝나기를
// 기다린 후 종료합니다.
func (s *Service) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	applog.WithComponent(component).Info("감시 서비스 시작 중...")

	if s.running {
		defer serviceStopWG.Done()
		applog.WithComponent(component).Warn("감시 서비스가 이미 시작되었습니다")
		return nil
	}

	cronLogger := cron.VerbosePrintfLogger(applog.StandardLogger())
	s.cron = cron.New(cron.WithChain(
		cron.Recover(cronLogger),
		cron.SkipIfStillRunning(cronLogger),
	))

	for _, e := range s.entries {
		// 클로저 캡처용 로컬 변수
		tracker := e.tracker
		spec := fmt.Sprintf("@every %dm", e.interval)

		if _, err := s.cron.AddFunc(spec, func() {
			s.pollOne(serviceStopCtx, tracker)
		}); err != nil {
			return apperrors.Wrapf(err, apperrors.Internal, "상품['%s']의 수집 작업 등록에 실패했습니다", tracker.ID())
		}

		applog.WithComponentAndFields(component, applog.Fields{
			"id":        tracker.ID(),
			"entity_id": tracker.EntityID(),
			"interval":  spec,
		}).Info("상품 수집 작업 등록 완료")
	}

	s.cron.Start()
	s.running = true

	go s.runServiceLoop(serviceStopCtx, serviceStopWG)

	applog.WithComponentAndFields(component, applog.Fields{
		"products": len(s.entries),
	}).Info("감시 서비스 시작 완료")

	return nil
}

// runServiceLoop 기동 직후의 전체 수집과 종료 신호 대기를 수행합니다.
func (s *Service) runServiceLoop(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) {
	defer serviceStopWG.Done()

	// 첫 주기를 기다리지 않고 기동 직후 한 차례 수집한다.
	s.RefreshAll(serviceStopCtx)

	<-serviceStopCtx.Done()

	applog.WithComponent(component).Info("감시 서비스 중지 중...")

	// 진행 중인 작업이 끝날 때까지 대기
	<-s.cron.Stop().Done()

	s.runningMu.Lock()
	s.running = false
	s.runningMu.Unlock()

	applog.WithComponent(component).Info("감시 서비스 중지 완료")
}

// RefreshAll 모든 상품을 즉시 한 차례 수집합니다.
// 개별 상품의 실패는 로그로만 남기고 다음 상품으로 진행합니다.
func (s *Service) RefreshAll(ctx context.Context) {
	for _, e := range s.entries {
		if ctx.Err() != nil {
			return
		}
		s.pollOne(ctx, e.tracker)
	}
}

// pollOne 상품 하나를 수집하고 변동 이벤트를 전달합니다.
func (s *Service) pollOne(ctx context.Context, t *Tracker) {
	if ctx.Err() != nil {
		return
	}

	pollCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	result, err := t.Poll(pollCtx, s.scraper)
	if err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"id":        t.ID(),
			"entity_id": t.EntityID(),
			"error":     err,
		}).Error("상품 수집 실패")
		return
	}

	if result.Product != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"id":           t.ID(),
			"entity_id":    t.EntityID(),
			"price":        result.Product.Price.Price,
			"status":       result.Product.Status,
			"inventory":    result.Product.Inventory,
			"price_change": result.Change.Status,
			"events":       len(result.Events),
		}).Debug("상품 수집 성공")
	}

	if len(result.Events) == 0 {
		return
	}

	if s.reporter != nil {
		s.reporter.Report(ctx, result.Events)
	}
}

// Products 전체 감시 상품의 평탄화된 속성 맵 목록을 반환합니다.
// 아직 수집되지 않은 상품은 식별 정보만 포함됩니다.
func (s *Service) Products() []map[string]any {
	items := make([]map[string]any, 0, len(s.entries))

	for _, e := range s.entries {
		p, snap := e.tracker.Last()

		var attrs map[string]any
		if p != nil {
			attrs = p.Dict()
		} else {
			attrs = map[string]any{}
		}

		attrs["id"] = e.tracker.ID()
		attrs["entity_id"] = e.tracker.EntityID()
		attrs["interval_minutes"] = e.interval

		if snap != nil {
			attrs["available"] = snap.Available
			attrs["engine_status"] = string(snap.EngineStatus)
			attrs["updated_at"] = snap.UpdatedAt.Format(time.RFC3339)
			if !snap.LastSuccessAt.IsZero() {
				attrs["last_success_at"] = snap.LastSuccessAt.Format(time.RFC3339)
			}
			if snap.LowestPrice != nil {
				attrs["lowest_price"] = *snap.LowestPrice
			}
		}

		items = append(items, attrs)
	}

	return items
}
