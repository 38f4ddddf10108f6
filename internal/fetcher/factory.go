package fetcher

import (
	"time"
)

// ChainOptions 기본 데코레이터 체인 구성 옵션입니다.
type ChainOptions struct {
	MaxRetries    int           // 최대 재시도 횟수 (0: 재시도 안 함)
	MinRetryDelay time.Duration // 지수 백오프 시작 대기 시간
	MaxRetryDelay time.Duration // 재시도 대기 시간 상한
	MaxBodyBytes  int64         // 응답 본문 최대 크기 (0: 기본값 10MB, NoLimit: 제한 없음)
	RequestsPerS  float64       // 초당 요청 수 제한 (0: 제한 없음)
	Burst         int           // 속도 제한 버스트 크기
	UserAgents    []string      // User-Agent 후보 목록 (빈 목록: 내장 목록 사용)
}

// DefaultChainOptions 수집 파이프라인의 기본 체인 옵션입니다.
func DefaultChainOptions() ChainOptions {
	return ChainOptions{
		MaxRetries:    3,
		MinRetryDelay: time.Second,
		MaxRetryDelay: 30 * time.Second,
		MaxBodyBytes:  defaultMaxBytes,
		RequestsPerS:  2,
		Burst:         4,
	}
}

// NewChain 표준 데코레이터 체인을 조립합니다.
//
// 바깥에서 안쪽 순서: User-Agent 주입 → 속도 제한 → 재시도 → 크기 제한 → HTTP 클라이언트
// User-Agent가 재시도보다 바깥에 있어 재시도 중에도 동일한 User-Agent가 유지됩니다.
func NewChain(opts ChainOptions) Fetcher {
	var f Fetcher = NewHTTPFetcher()

	f = NewMaxBytesFetcher(f, opts.MaxBodyBytes)
	f = NewRetryFetcher(f, opts.MaxRetries, opts.MinRetryDelay, opts.MaxRetryDelay)
	f = NewRateLimitFetcher(f, opts.RequestsPerS, opts.Burst)
	f = NewUserAgentFetcher(f, opts.UserAgents)

	return f
}
