package api

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"net/url"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	apperrors "github.com/darkkaiser/price-watcher/internal/pkg/errors"
	applog "github.com/darkkaiser/price-watcher/pkg/log"
)

const (
	// headerXAppKey API 인증용 HTTP 헤더 키 (권장 방식)
	headerXAppKey = "X-App-Key"

	// queryParamAppKey 쿼리 파라미터 인증 키 (레거시, 로깅 시 마스킹 대상)
	queryParamAppKey = "app_key"

	// stackBufferSize 패닉 복구 시 스택 트레이스를 담을 버퍼 크기 (4KB)
	stackBufferSize = 4 << 10
)

// sensitiveQueryParams 로깅 시 값을 마스킹해야 하는 쿼리 파라미터 키 목록
var sensitiveQueryParams = []string{
	queryParamAppKey,
	"api_key",
	"password",
	"token",
	"secret",
}

// panicRecovery 핸들러의 패닉을 복구하여 서버 다운을 방지하고,
// 스택 트레이스와 함께 에러를 로깅하는 미들웨어를 반환합니다.
func panicRecovery() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func() {
				if r := recover(); r != nil {
					err, ok := r.(error)
					if !ok {
						err = apperrors.New(apperrors.Internal, fmt.Sprintf("%v", r))
					}

					stack := make([]byte, stackBufferSize)
					length := runtime.Stack(stack, false)

					fields := applog.Fields{
						"error": err,
						"stack": string(stack[:length]),
					}
					if requestID := c.Response().Header().Get(echo.HeaderXRequestID); requestID != "" {
						fields["request_id"] = requestID
					}

					applog.WithComponentAndFields(component, fields).Error("PANIC RECOVERED")

					c.Error(err)
				}
			}()
			return next(c)
		}
	}
}

// httpLogger HTTP 요청/응답을 구조화된 로그로 기록하는 미들웨어를 반환합니다.
// app_key 등 민감한 쿼리 파라미터 값은 마스킹하여 기록합니다.
func httpLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			start := time.Now()

			// 패닉이 발생하더라도 로그는 기록되도록 defer로 보장한다.
			defer func() {
				latency := time.Since(start)

				path := req.URL.Path
				if path == "" {
					path = "/"
				}

				applog.WithComponentAndFields(component, applog.Fields{
					"method":        req.Method,
					"path":          path,
					"uri":           maskSensitiveQueryParams(req.RequestURI),
					"remote_ip":     c.RealIP(),
					"user_agent":    req.UserAgent(),
					"status":        res.Status,
					"bytes_out":     strconv.FormatInt(res.Size, 10),
					"latency_human": latency.String(),
					"request_id":    res.Header().Get(echo.HeaderXRequestID),
				}).Info("HTTP 요청")
			}()

			if err := next(c); err != nil {
				c.Error(err)
			}

			return nil
		}
	}
}

// maskSensitiveQueryParams URI의 민감한 쿼리 파라미터 값을 마스킹합니다.
// 파싱에 실패하면 로깅이 중단되지 않도록 원본을 그대로 반환합니다.
func maskSensitiveQueryParams(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return uri
	}

	q := u.Query()
	masked := false

	for _, param := range sensitiveQueryParams {
		if q.Has(param) {
			q.Set(param, applog.MaskSensitiveData(q.Get(param)))
			masked = true
		}
	}

	if masked {
		u.RawQuery = q.Encode()
		return u.String()
	}

	return uri
}

// ipRateLimiter IP 주소별로 독립적인 rate.Limiter를 관리합니다.
type ipRateLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func newIPRateLimiter(requestsPerSecond float64, burst int) *ipRateLimiter {
	return &ipRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

func (i *ipRateLimiter) getLimiter(ip string) *rate.Limiter {
	i.mu.RLock()
	limiter, exists := i.limiters[ip]
	i.mu.RUnlock()
	if exists {
		return limiter
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	// 다른 고루틴이 먼저 생성했을 수 있다.
	if limiter, exists = i.limiters[ip]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(i.rate, i.burst)
	i.limiters[ip] = limiter

	return limiter
}

// rateLimiting IP 기반 Rate Limiting 미들웨어를 반환합니다.
// 토큰 버킷 알고리즘으로 IP별 요청 수를 제한하고, 초과 시 429를 반환합니다.
func rateLimiting(requestsPerSecond float64, burst int) echo.MiddlewareFunc {
	if requestsPerSecond <= 0 {
		panic("requestsPerSecond는 양수여야 합니다")
	}
	if burst <= 0 {
		panic("burst는 양수여야 합니다")
	}

	limiter := newIPRateLimiter(requestsPerSecond, burst)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()

			if !limiter.getLimiter(ip).Allow() {
				applog.WithComponentAndFields(component, applog.Fields{
					"remote_ip": ip,
					"path":      c.Request().URL.Path,
					"method":    c.Request().Method,
				}).Warn("Rate limit 초과")

				c.Response().Header().Set("Retry-After", "1")

				return echo.NewHTTPError(http.StatusTooManyRequests,
					"요청이 너무 많습니다. 잠시 후 다시 시도해주세요")
			}

			return next(c)
		}
	}
}

// requireAppKey App Key 인증을 수행하는 미들웨어를 반환합니다.
//
// App Key 추출 우선순위:
//  1. X-App-Key 헤더 (권장)
//  2. app_key 쿼리 파라미터 (레거시, 사용 시 경고 로그)
//
// 비교는 타이밍 공격을 피하기 위해 상수 시간으로 수행합니다.
func requireAppKey(appKey string) echo.MiddlewareFunc {
	if appKey == "" {
		panic("App Key는 필수입니다")
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			provided := extractAppKey(c)
			if provided == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "App Key가 필요합니다")
			}

			if subtle.ConstantTimeCompare([]byte(provided), []byte(appKey)) != 1 {
				applog.WithComponentAndFields(component, applog.Fields{
					"remote_ip": c.RealIP(),
					"path":      c.Path(),
				}).Warn("잘못된 App Key로 인증 시도")

				return echo.NewHTTPError(http.StatusUnauthorized, "App Key가 올바르지 않습니다")
			}

			return next(c)
		}
	}
}

// extractAppKey 요청에서 App Key를 추출합니다.
func extractAppKey(c echo.Context) string {
	appKey := c.Request().Header.Get(headerXAppKey)
	if appKey == "" {
		appKey = c.QueryParam(queryParamAppKey)

		if appKey != "" {
			applog.WithComponentAndFields(component, applog.Fields{
				"method":    c.Request().Method,
				"path":      c.Path(),
				"remote_ip": c.RealIP(),
			}).Warn("보안 경고: 쿼리 파라미터로 App Key 전달됨 (헤더 사용 권장)")
		}
	}
	return appKey
}
