package fetcher

import (
	"net/http"
	"time"
)

// defaultTimeout 단일 HTTP 요청의 기본 제한 시간입니다.
const defaultTimeout = 30 * time.Second

// HTTPFetcher 표준 http.Client를 감싼 기본 구현체입니다.
// 데코레이터 체인의 가장 안쪽에 위치합니다.
type HTTPFetcher struct {
	client *http.Client
}

// 컴파일 타임에 인터페이스 구현 여부를 검증합니다.
var _ Fetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher 기본 타임아웃(30초) 설정이 포함된 새로운 HTTPFetcher 인스턴스를 생성합니다.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// NewHTTPFetcherWithClient 외부에서 구성한 http.Client를 사용하는 인스턴스를 생성합니다.
// 테스트에서 httptest 서버와 연결할 때 사용합니다.
func NewHTTPFetcherWithClient(client *http.Client) *HTTPFetcher {
	return &HTTPFetcher{client: client}
}

// Do HTTP 요청을 실행합니다.
func (f *HTTPFetcher) Do(req *http.Request) (*http.Response, error) {
	return f.client.Do(req)
}
