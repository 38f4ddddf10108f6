package api

import (
	"github.com/labstack/echo/v4"
)

// SetupRoutes API 라우트를 등록합니다.
//
//   - GET /health: 헬스체크 (인증 불필요)
//   - GET /api/v1/products: 감시 상품 목록 (App Key 인증)
//   - POST /api/v1/products/refresh: 전체 즉시 갱신 (App Key 인증)
func SetupRoutes(e *echo.Echo, h *Handler, appKey string) {
	e.GET("/health", h.HealthCheckHandler)

	v1 := e.Group("/api/v1", requireAppKey(appKey))
	v1.GET("/products", h.ProductsHandler)
	v1.POST("/products/refresh", h.RefreshProductsHandler)
}
