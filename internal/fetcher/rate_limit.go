package fetcher

import (
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimitFetcher 판매처별 요청 속도를 제한하는 미들웨어입니다.
//
// 과도한 수집 요청으로 인한 IP 차단을 방지하기 위해, 토큰 버킷 방식으로
// 초당 요청 수를 제한합니다. 토큰이 없으면 요청 컨텍스트가 취소될 때까지 대기합니다.
type RateLimitFetcher struct {
	delegate Fetcher

	limiter *rate.Limiter
}

// 컴파일 타임에 인터페이스 구현 여부를 검증합니다.
var _ Fetcher = (*RateLimitFetcher)(nil)

// NewRateLimitFetcher 초당 rps개 요청, 최대 burst개 버스트를 허용하는 인스턴스를 생성합니다.
// rps가 0 이하이면 제한 없이 동작합니다.
func NewRateLimitFetcher(delegate Fetcher, rps float64, burst int) Fetcher {
	if rps <= 0 {
		return delegate
	}
	if burst < 1 {
		burst = 1
	}

	return &RateLimitFetcher{
		delegate: delegate,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Do 토큰을 확보할 때까지 대기한 후 HTTP 요청을 수행합니다.
// 대기 중 컨텍스트가 취소되면 즉시 에러를 반환합니다.
func (f *RateLimitFetcher) Do(req *http.Request) (*http.Response, error) {
	if err := f.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}

	return f.delegate.Do(req)
}
