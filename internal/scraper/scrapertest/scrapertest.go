// Package scrapertest 판매처 엔진 테스트에서 사용하는 Scraper 스텁을 제공합니다.
package scrapertest

import (
	"context"
	"io"
	"net/http"

	"github.com/darkkaiser/price-watcher/internal/scraper"
)

// Stub 미리 정의된 응답을 반환하는 Scraper 구현체입니다.
type Stub struct {
	// Response 모든 요청에 대해 반환할 응답입니다. Err이 설정되면 무시됩니다.
	Response *scraper.Response

	// Err 설정 시 모든 요청이 이 에러로 실패합니다.
	Err error

	// LastURL 마지막으로 요청된 URL이 기록됩니다.
	LastURL string

	// LastMethod 마지막으로 요청된 HTTP 메서드가 기록됩니다.
	LastMethod string

	// LastHeader 마지막 요청의 헤더가 기록됩니다.
	LastHeader http.Header
}

var _ scraper.Scraper = (*Stub)(nil)

// New 주어진 상태 코드와 본문으로 응답하는 Stub을 생성합니다.
func New(statusCode int, text string) *Stub {
	return &Stub{
		Response: &scraper.Response{StatusCode: statusCode, Text: text},
	}
}

// NotFound 404로 응답하는 Stub을 생성합니다.
func NotFound() *Stub {
	return New(http.StatusNotFound, "")
}

func (s *Stub) Get(ctx context.Context, url string, header http.Header) (*scraper.Response, error) {
	return s.Request(ctx, http.MethodGet, url, nil, header)
}

func (s *Stub) Request(_ context.Context, method, url string, _ io.Reader, header http.Header) (*scraper.Response, error) {
	s.LastURL = url
	s.LastMethod = method
	s.LastHeader = header

	if s.Err != nil {
		return nil, s.Err
	}

	res := *s.Response
	res.URL = url
	return &res, nil
}
