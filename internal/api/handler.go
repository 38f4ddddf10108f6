package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	applog "github.com/darkkaiser/price-watcher/pkg/log"
)

// refreshTimeout 전체 즉시 갱신에 허용하는 최대 시간
const refreshTimeout = 30 * time.Minute

// ProductService 감시 상품의 조회와 즉시 갱신을 제공하는 인터페이스입니다.
type ProductService interface {
	// Products 전체 감시 상품의 평탄화된 속성 맵 목록을 반환합니다.
	Products() []map[string]any

	// RefreshAll 모든 상품을 즉시 한 차례 수집합니다.
	RefreshAll(ctx context.Context)
}

// Handler API 엔드포인트 핸들러입니다.
type Handler struct {
	products ProductService

	serverStartTime time.Time

	// refreshMu 전체 갱신의 중복 실행 방지용
	refreshMu sync.Mutex
}

// NewHandler Handler 인스턴스를 생성합니다.
func NewHandler(products ProductService) *Handler {
	if products == nil {
		panic("ProductService는 필수입니다")
	}

	return &Handler{
		products:        products,
		serverStartTime: time.Now(),
	}
}

// healthResponse 헬스체크 응답입니다.
type healthResponse struct {
	Status string `json:"status"`
	Uptime int64  `json:"uptime"`
}

// productsResponse 감시 상품 목록 응답입니다.
type productsResponse struct {
	Count    int              `json:"count"`
	Products []map[string]any `json:"products"`
}

// acceptedResponse 비동기 작업 수락 응답입니다.
type acceptedResponse struct {
	Message string `json:"message"`
}

// HealthCheckHandler 서버 상태를 반환합니다. 인증 없이 호출 가능하며
// 모니터링 시스템에서 사용됩니다.
func (h *Handler) HealthCheckHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{
		Status: "healthy",
		Uptime: int64(time.Since(h.serverStartTime).Seconds()),
	})
}

// ProductsHandler 전체 감시 상품의 최신 수집 결과를 반환합니다.
func (h *Handler) ProductsHandler(c echo.Context) error {
	products := h.products.Products()

	return c.JSON(http.StatusOK, productsResponse{
		Count:    len(products),
		Products: products,
	})
}

// RefreshProductsHandler 전체 상품의 즉시 갱신을 백그라운드로 시작하고
// 202 Accepted를 반환합니다. 이미 갱신이 진행 중이면 409를 반환합니다.
func (h *Handler) RefreshProductsHandler(c echo.Context) error {
	if !h.refreshMu.TryLock() {
		return echo.NewHTTPError(http.StatusConflict, "이미 전체 갱신이 진행 중입니다")
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"remote_ip": c.RealIP(),
	}).Info("전체 상품 즉시 갱신 시작")

	// 갱신은 요청의 생명주기와 무관하게 백그라운드에서 진행된다.
	go func() {
		defer h.refreshMu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()

		h.products.RefreshAll(ctx)

		applog.WithComponent(component).Info("전체 상품 즉시 갱신 완료")
	}()

	return c.JSON(http.StatusAccepted, acceptedResponse{
		Message: "전체 상품 갱신이 시작되었습니다",
	})
}
