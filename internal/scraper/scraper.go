// Package scraper 판매처 페이지 수집의 전송 경계를 제공합니다.
//
// 판매처 엔진은 이 패키지의 Response만 바라보고 동작하며, 재시도·User-Agent·
// 속도 제한 등의 전송 정책은 전부 fetcher 체인에 위임됩니다. 404는 에러가
// 아니라 Response의 상태 코드로 그대로 전달되어, 엔진이 상품 삭제 신호로
// 해석할 수 있습니다.
package scraper

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
	"golang.org/x/net/html/charset"

	"github.com/darkkaiser/price-watcher/internal/fetcher"
	apperrors "github.com/darkkaiser/price-watcher/internal/pkg/errors"
)

// Scraper 판매처 페이지를 수집하는 인터페이스입니다.
type Scraper interface {
	// Get 지정된 URL로 GET 요청을 보내고 응답을 반환합니다. header는 nil일 수 있습니다.
	Get(ctx context.Context, url string, header http.Header) (*Response, error)

	// Request 임의 메서드로 요청을 보내고 응답을 반환합니다.
	Request(ctx context.Context, method, url string, body io.Reader, header http.Header) (*Response, error)
}

// Response 수집된 단일 응답입니다.
//
// 본문은 UTF-8로 변환된 문자열로 보관됩니다. (EUC-KR 등 비 UTF-8 페이지 포함)
type Response struct {
	URL        string
	StatusCode int
	Text       string
}

// Has 성공 응답이면서 본문이 비어있지 않은지 여부를 반환합니다.
func (r *Response) Has() bool {
	if r == nil {
		return false
	}
	return r.StatusCode >= 200 && r.StatusCode < 300 && strings.TrimSpace(r.Text) != ""
}

// IsNotFound 판매처가 상품 없음(404)을 응답했는지 여부를 반환합니다.
func (r *Response) IsNotFound() bool {
	return r != nil && r.StatusCode == http.StatusNotFound
}

// Document 본문을 goquery 문서로 파싱합니다.
func (r *Response) Document() (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(r.Text))
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ParsingFailed, "HTML 문서 파싱 실패 (%s)", r.URL)
	}
	return doc, nil
}

// JSON 본문에서 gjson 경로에 해당하는 값을 조회합니다.
func (r *Response) JSON(path string) gjson.Result {
	return gjson.Get(r.Text, path)
}

// IsValidJSON 본문 전체가 유효한 JSON인지 여부를 반환합니다.
func (r *Response) IsValidJSON() bool {
	return gjson.Valid(r.Text)
}

// HTTPScraper fetcher 체인 위에서 동작하는 기본 Scraper 구현체입니다.
type HTTPScraper struct {
	fetcher fetcher.Fetcher
}

// 컴파일 타임에 인터페이스 구현 여부를 검증합니다.
var _ Scraper = (*HTTPScraper)(nil)

// New 새로운 HTTPScraper 인스턴스를 생성합니다.
func New(f fetcher.Fetcher) *HTTPScraper {
	return &HTTPScraper{fetcher: f}
}

// Get 지정된 URL로 GET 요청을 보냅니다.
func (s *HTTPScraper) Get(ctx context.Context, url string, header http.Header) (*Response, error) {
	return s.Request(ctx, http.MethodGet, url, nil, header)
}

// Request 임의 메서드로 요청을 보내고 본문을 UTF-8 문자열로 변환하여 반환합니다.
//
// 네트워크/클라이언트 에러만 에러로 반환되며, 404를 포함한 모든 상태 코드는
// Response에 담겨 그대로 전달됩니다.
func (s *HTTPScraper) Request(ctx context.Context, method, url string, body io.Reader, header http.Header) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.Internal, "요청 생성 실패 (%s)", url)
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := s.fetcher.Do(req)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.Unavailable, "페이지 요청 중 네트워크 에러 발생 (%s)", url)
	}
	defer resp.Body.Close()

	// Content-Type 헤더를 기반으로 인코딩을 UTF-8로 변환
	utf8Reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ExecutionFailed, "페이지 인코딩 변환 실패 (%s)", url)
	}

	text, err := io.ReadAll(utf8Reader)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ExecutionFailed, "페이지 본문 읽기 실패 (%s)", url)
	}

	return &Response{
		URL:        url,
		StatusCode: resp.StatusCode,
		Text:       string(text),
	}, nil
}
