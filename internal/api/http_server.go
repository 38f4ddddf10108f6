// Package api 감시 상품 조회와 즉시 갱신을 제공하는 HTTP 상태 API입니다.
package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	applog "github.com/darkkaiser/price-watcher/pkg/log"
)

// component 로깅용 컴포넌트 이름
const component = "api"

const (
	defaultReadTimeout       = 30 * time.Second
	defaultReadHeaderTimeout = 10 * time.Second
	defaultWriteTimeout      = 60 * time.Second
	defaultIdleTimeout       = 120 * time.Second

	// defaultRequestTimeout 각 HTTP 요청의 최대 처리 시간
	defaultRequestTimeout = 60 * time.Second

	// defaultMaxBodySize 요청 본문 크기 제한
	defaultMaxBodySize = "2M"
)

// HTTPServerConfig HTTP 서버 생성에 필요한 설정입니다.
type HTTPServerConfig struct {
	// Debug Echo 프레임워크의 디버그 모드 활성화 여부
	Debug bool

	// AllowOrigins CORS에서 허용할 Origin 목록
	AllowOrigins []string

	// RateLimitPerSecond IP별 초당 허용 요청 수
	RateLimitPerSecond float64

	// RateLimitBurst IP별 순간 최대 허용 요청 수
	RateLimitBurst int
}

// NewHTTPServer 미들웨어 체인이 설정된 Echo 인스턴스를 생성합니다.
//
// 미들웨어 적용 순서 (순서가 중요합니다):
//  1. 패닉 복구 - 가장 먼저 적용해야 다른 미들웨어의 패닉도 복구됩니다
//  2. Request ID - 로깅보다 먼저 적용해야 로그에 request_id가 포함됩니다
//  3. Server 헤더 제거 - 기술 스택 노출 방지
//  4. HTTP 로깅 - Rate Limit/Timeout 앞에 위치하여 429/503도 기록됩니다
//  5. Rate Limiting - IP별 요청 수 제한
//  6. Body Limit - 대용량 요청으로 인한 메모리 고갈 방지
//  7. Timeout - 장시간 지연 요청의 리소스 점유 방지
//  8. CORS
//  9. 보안 헤더 - 마지막에 적용되어 모든 응답에 포함됩니다
//
// 라우트는 포함되지 않으며 반환된 인스턴스에 별도로 등록해야 합니다.
func NewHTTPServer(cfg HTTPServerConfig) *echo.Echo {
	e := echo.New()

	e.Debug = cfg.Debug
	e.HideBanner = true

	e.Server.ReadTimeout = defaultReadTimeout
	e.Server.ReadHeaderTimeout = defaultReadHeaderTimeout
	e.Server.WriteTimeout = defaultWriteTimeout
	e.Server.IdleTimeout = defaultIdleTimeout

	// Echo 내부 로그를 애플리케이션 로거로 통합한다.
	e.Logger = gommonLogger{logger: applog.StandardLogger()}

	e.HTTPErrorHandler = errorHandler

	e.Use(panicRecovery())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set(echo.HeaderServer, "")
			return next(c)
		}
	})
	e.Use(httpLogger())
	e.Use(rateLimiting(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
	e.Use(middleware.BodyLimit(defaultMaxBodySize))
	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: defaultRequestTimeout,
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
	}))
	e.Use(middleware.Secure())

	return e
}

// errorResponse 표준 에러 응답 형식입니다.
type errorResponse struct {
	ResultCode int    `json:"result_code"`
	Message    string `json:"message"`
}

// errorHandler 모든 HTTP 에러를 표준 JSON 형식으로 변환하는 전역 에러 핸들러입니다.
func errorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	message := "서버 내부 오류가 발생했습니다"

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if msg, ok := he.Message.(string); ok {
			message = msg
		}
	}

	if code == http.StatusNotFound {
		message = "요청한 리소스를 찾을 수 없습니다"
	}

	fields := applog.Fields{
		"path":        c.Request().URL.Path,
		"method":      c.Request().Method,
		"status_code": code,
		"error":       err,
		"remote_ip":   c.RealIP(),
		"request_id":  c.Response().Header().Get(echo.HeaderXRequestID),
	}

	if code >= http.StatusInternalServerError {
		applog.WithComponentAndFields(component, fields).Error("HTTP 5xx 서버 오류")
	} else if code >= http.StatusBadRequest {
		applog.WithComponentAndFields(component, fields).Warn("HTTP 4xx 클라이언트 오류")
	}

	// 이미 응답이 전송된 경우 추가 응답을 시도하지 않는다.
	if c.Response().Committed {
		return
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}

	_ = c.JSON(code, errorResponse{
		ResultCode: code,
		Message:    message,
	})
}
