// Package fetcher HTTP 요청 수행을 담당하는 데코레이터 체인을 제공합니다.
//
// 재시도, User-Agent 주입, 요청 속도 제한, 응답 크기 제한 등의 기능을
// Fetcher 인터페이스의 미들웨어로 조합할 수 있습니다. 판매처별 엔진은
// 이 패키지를 직접 사용하지 않고 scraper를 통해서만 네트워크에 접근합니다.
package fetcher

import (
	"context"
	"io"
	"net/http"
)

// component Fetcher 로깅용 컴포넌트 이름
const component = "fetcher"

// Fetcher HTTP 요청을 수행하는 핵심 인터페이스입니다.
//
// 구현 시 주의사항:
//   - 반환된 응답 객체의 Body는 반드시 호출자가 닫아야 합니다.
//   - 에러가 발생해도 응답 객체가 nil이 아닐 수 있습니다.
//   - Context 취소 시 즉시 요청을 중단하고 적절한 에러를 반환해야 합니다.
type Fetcher interface {
	Do(req *http.Request) (*http.Response, error)
}

// Get 지정된 URL로 HTTP GET 요청을 전송하는 헬퍼 함수입니다.
func Get(ctx context.Context, f Fetcher, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.Do(req)
	if err != nil {
		if resp != nil {
			// 커넥션 재사용을 위해 응답 객체의 Body를 안전하게 비우고 닫음
			drainAndCloseBody(resp.Body)
		}

		return nil, err
	}

	return resp, nil
}

// drainAndCloseBody 응답 본문을 비우고 닫습니다.
// 본문을 끝까지 읽어야 keep-alive 커넥션이 재사용될 수 있습니다.
func drainAndCloseBody(body io.ReadCloser) {
	if body == nil {
		return
	}

	// 과도한 drain을 막기 위해 상한을 둔다
	const drainLimit = 256 * 1024
	_, _ = io.Copy(io.Discard, io.LimitReader(body, drainLimit))
	_ = body.Close()
}
