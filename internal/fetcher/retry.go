package fetcher

import (
	"context"
	"errors"
	"math/rand/v2"
	"net"
	"net/http"
	"strconv"
	"time"

	apperrors "github.com/darkkaiser/price-watcher/internal/pkg/errors"
	applog "github.com/darkkaiser/price-watcher/pkg/log"
)

const (
	// maxAllowedRetries 허용 가능한 최대 재시도 횟수입니다.
	maxAllowedRetries = 10

	// defaultMinRetryDelay 지수 백오프의 시작 대기 시간입니다.
	defaultMinRetryDelay = time.Second

	// defaultMaxRetryDelay 재시도 대기 시간의 상한입니다.
	defaultMaxRetryDelay = 30 * time.Second
)

// RetryFetcher HTTP 요청 실패 시 자동으로 재시도를 수행하는 미들웨어입니다.
//
//   - 지수 백오프: 재시도 간격을 2배씩 증가시켜 서버 부하를 분산
//   - Full Jitter: 무작위 지연으로 동시 다발적인 재시도를 분산
//   - Retry-After 헤더 지원: 서버가 명시한 재시도 시점을 우선 준수
//   - 비멱등 메서드(POST, PATCH)는 재시도하지 않음
type RetryFetcher struct {
	delegate Fetcher

	maxRetries    int
	minRetryDelay time.Duration
	maxRetryDelay time.Duration
}

// 컴파일 타임에 인터페이스 구현 여부를 검증합니다.
var _ Fetcher = (*RetryFetcher)(nil)

// NewRetryFetcher 새로운 RetryFetcher 인스턴스를 생성합니다.
// 범위를 벗어난 설정값은 기본 정책으로 보정됩니다.
func NewRetryFetcher(delegate Fetcher, maxRetries int, minRetryDelay, maxRetryDelay time.Duration) *RetryFetcher {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if maxRetries > maxAllowedRetries {
		maxRetries = maxAllowedRetries
	}
	if minRetryDelay <= 0 {
		minRetryDelay = defaultMinRetryDelay
	}
	if maxRetryDelay < minRetryDelay {
		maxRetryDelay = defaultMaxRetryDelay
		if maxRetryDelay < minRetryDelay {
			maxRetryDelay = minRetryDelay
		}
	}

	return &RetryFetcher{
		delegate:      delegate,
		maxRetries:    maxRetries,
		minRetryDelay: minRetryDelay,
		maxRetryDelay: maxRetryDelay,
	}
}

// Do HTTP 요청을 수행하며, 일시적 오류에 한해 설정된 정책에 따라 재시도합니다.
//
// 재시도 대상:
//   - 네트워크 오류 (연결 실패, 일시적 타임아웃 등)
//   - 5xx 서버 에러 (501/505/511 제외)
//   - 429 Too Many Requests, 408 Request Timeout
//
// 재시도 제외:
//   - 컨텍스트 취소/만료
//   - 그 외 4xx 클라이언트 에러 (404 등은 그대로 반환하여 상위에서 해석)
func (f *RetryFetcher) Do(req *http.Request) (*http.Response, error) {
	effectiveMaxRetries := f.maxRetries

	// 비멱등 메서드는 데이터 중복 생성/수정 위험이 있으므로 재시도 비활성화
	if !isIdempotentMethod(req.Method) {
		effectiveMaxRetries = 0
	}

	// Body 재생성이 불가능하면 재시도할 수 없다
	if req.Body != nil && req.GetBody == nil {
		effectiveMaxRetries = 0
	}

	var lastErr error
	var lastResp *http.Response

	for i := 0; i <= effectiveMaxRetries; i++ {
		if i > 0 {
			delay := f.nextDelay(i, lastResp)

			applog.WithComponentAndFields(component, applog.Fields{
				"url":         req.URL.Redacted(),
				"retry":       i,
				"max_retries": effectiveMaxRetries,
				"delay":       delay.String(),
			}).Warn("재시도 대기 중: 일시적 오류로 인해 요청을 다시 시도합니다")

			timer := time.NewTimer(delay)
			select {
			case <-req.Context().Done():
				timer.Stop()
				if lastResp != nil && lastResp.Body != nil {
					_ = lastResp.Body.Close()
				}
				return nil, req.Context().Err()
			case <-timer.C:
			}

			// 이전 시도에서 소진된 Body를 복구한다
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, apperrors.Wrap(err, apperrors.Internal, "재시도용 요청 본문 재생성 실패")
				}
				req = req.Clone(req.Context())
				req.Body = body
			}
		}

		resp, err := f.delegate.Do(req)
		lastResp = resp

		if err != nil {
			// 컨텍스트 취소/만료는 재시도해도 성공할 수 없다
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if resp != nil && resp.Body != nil {
					_ = resp.Body.Close()
				}
				return nil, err
			}

			if !isRetriableError(err) {
				if resp != nil {
					drainAndCloseBody(resp.Body)
				}
				return nil, err
			}

			lastErr = err
			if resp != nil {
				drainAndCloseBody(resp.Body)
			}
			continue
		}

		if !isRetriableStatus(resp.StatusCode) {
			// 성공이거나 재시도해도 해결되지 않는 응답 → 그대로 반환
			return resp, nil
		}

		lastErr = nil
		if i < effectiveMaxRetries {
			drainAndCloseBody(resp.Body)
		}
	}

	// 모든 재시도 횟수 소진
	if lastErr != nil {
		return nil, apperrors.Wrapf(lastErr, apperrors.Unavailable,
			"최대 재시도 횟수(%d회)를 초과했습니다", effectiveMaxRetries)
	}

	// 네트워크 오류는 없었으나 서버가 재시도 대상 상태 코드를 지속적으로 반환한 경우,
	// 마지막 응답을 그대로 반환하여 상위 계층이 상태 코드를 해석하도록 한다
	return lastResp, nil
}

// nextDelay 다음 재시도까지의 대기 시간을 계산합니다.
func (f *RetryFetcher) nextDelay(retry int, lastResp *http.Response) time.Duration {
	// 지수 백오프
	delay := f.minRetryDelay * time.Duration(1<<(retry-1))
	if delay > f.maxRetryDelay {
		delay = f.maxRetryDelay
	}

	// Full Jitter
	if delay > 0 {
		delay = time.Duration(rand.Int64N(int64(delay) + 1))
	}

	// Retry-After 헤더 우선 적용 (상한 초과 시에는 상한으로 제한)
	if lastResp != nil {
		if retryAfter, ok := parseRetryAfter(lastResp.Header.Get("Retry-After")); ok {
			if retryAfter > f.maxRetryDelay {
				retryAfter = f.maxRetryDelay
			}
			return retryAfter
		}
	}

	// 너무 빠른 재시도 방지
	if delay < time.Millisecond {
		delay = f.minRetryDelay
	}

	return delay
}

// parseRetryAfter Retry-After 헤더 값을 해석합니다. (초 단위 정수 또는 HTTP 날짜)
func parseRetryAfter(value string) (time.Duration, bool) {
	if value == "" {
		return 0, false
	}

	if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second, true
	}

	if t, err := http.ParseTime(value); err == nil {
		if d := time.Until(t); d > 0 {
			return d, true
		}
		return 0, true
	}

	return 0, false
}

// isIdempotentMethod 재시도해도 부작용이 없는 HTTP 메서드인지 판정합니다.
func isIdempotentMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut,
		http.MethodDelete, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

// isRetriableStatus 재시도 대상 상태 코드인지 판정합니다.
func isRetriableStatus(statusCode int) bool {
	if statusCode == http.StatusTooManyRequests || statusCode == http.StatusRequestTimeout {
		return true
	}
	if statusCode >= 500 {
		// 영구적인 문제는 재시도해도 성공할 가능성이 낮다
		switch statusCode {
		case http.StatusNotImplemented, http.StatusHTTPVersionNotSupported, http.StatusNetworkAuthenticationRequired:
			return false
		}
		return true
	}
	return false
}

// isRetriableError 일시적인 네트워크 오류인지 판정합니다.
func isRetriableError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout() || !errors.Is(err, context.DeadlineExceeded)
	}

	// net 패키지 에러가 아닌 전송 계층 에러(connection reset 등)도 재시도 대상으로 본다
	return true
}
