package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const testAppKey = "test-app-key-1234"

// fakeProductService 테스트용 ProductService 구현체
type fakeProductService struct {
	products []map[string]any

	// RefreshAll 호출 시작/종료를 제어하는 채널 (nil이면 즉시 반환)
	started chan struct{}
	release chan struct{}
}

func (f *fakeProductService) Products() []map[string]any {
	return f.products
}

func (f *fakeProductService) RefreshAll(_ context.Context) {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
}

func newTestServer(svc *fakeProductService) *echo.Echo {
	e := NewHTTPServer(HTTPServerConfig{
		AllowOrigins:       []string{"*"},
		RateLimitPerSecond: 1000,
		RateLimitBurst:     1000,
	})
	SetupRoutes(e, NewHandler(svc), testAppKey)
	return e
}

func doRequest(e *echo.Echo, method, target string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// TestHealthCheck 헬스체크는 인증 없이 호출 가능합니다.
func TestHealthCheck(t *testing.T) {
	t.Parallel()

	e := newTestServer(&fakeProductService{})

	rec := doRequest(e, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Equal(t, "healthy", gjson.Get(body, "status").String())
	assert.True(t, gjson.Get(body, "uptime").Exists())
}

// TestProducts_Authentication App Key가 없거나 잘못되면 401을 반환합니다.
func TestProducts_Authentication(t *testing.T) {
	t.Parallel()

	e := newTestServer(&fakeProductService{})

	tests := []struct {
		name     string
		target   string
		header   map[string]string
		wantCode int
	}{
		{name: "App Key 누락", target: "/api/v1/products", wantCode: http.StatusUnauthorized},
		{
			name:     "잘못된 App Key",
			target:   "/api/v1/products",
			header:   map[string]string{headerXAppKey: "wrong-key"},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "헤더 인증 성공",
			target:   "/api/v1/products",
			header:   map[string]string{headerXAppKey: testAppKey},
			wantCode: http.StatusOK,
		},
		{
			name:     "쿼리 파라미터 인증 성공 (레거시)",
			target:   "/api/v1/products?app_key=" + testAppKey,
			wantCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := doRequest(e, http.MethodGet, tt.target, tt.header)
			assert.Equal(t, tt.wantCode, rec.Code)

			if tt.wantCode == http.StatusUnauthorized {
				assert.Equal(t, int64(401), gjson.Get(rec.Body.String(), "result_code").Int())
			}
		})
	}
}

// TestProducts 감시 상품 목록과 개수를 반환합니다.
func TestProducts(t *testing.T) {
	t.Parallel()

	svc := &fakeProductService{
		products: []map[string]any{
			{"id": "milk", "entity_id": "price_kurly_type_1001", "price": 4500.0},
			{"id": "eggs", "entity_id": "price_coupang_type_123_1_2", "price": 7900.0},
		},
	}
	e := newTestServer(svc)

	rec := doRequest(e, http.MethodGet, "/api/v1/products", map[string]string{headerXAppKey: testAppKey})
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Equal(t, int64(2), gjson.Get(body, "count").Int())
	assert.Equal(t, "milk", gjson.Get(body, "products.0.id").String())
	assert.Equal(t, 4500.0, gjson.Get(body, "products.0.price").Float())
}

// TestRefreshProducts 전체 갱신은 202를 반환하고 백그라운드에서 실행되며,
// 진행 중에는 중복 요청이 409로 거부됩니다.
func TestRefreshProducts(t *testing.T) {
	t.Parallel()

	svc := &fakeProductService{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	e := newTestServer(svc)
	authHeader := map[string]string{headerXAppKey: testAppKey}

	rec := doRequest(e, http.MethodPost, "/api/v1/products/refresh", authHeader)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	// 백그라운드 갱신이 시작될 때까지 대기
	select {
	case <-svc.started:
	case <-time.After(5 * time.Second):
		t.Fatal("갱신이 시작되지 않았습니다")
	}

	// 갱신 진행 중의 중복 요청은 거부된다.
	rec = doRequest(e, http.MethodPost, "/api/v1/products/refresh", authHeader)
	assert.Equal(t, http.StatusConflict, rec.Code)

	close(svc.release)
}

// TestNotFound 없는 경로는 표준 에러 응답으로 404를 반환합니다.
func TestNotFound(t *testing.T) {
	t.Parallel()

	e := newTestServer(&fakeProductService{})

	rec := doRequest(e, http.MethodGet, "/no-such-path", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	body := rec.Body.String()
	assert.Equal(t, int64(404), gjson.Get(body, "result_code").Int())
	assert.Contains(t, gjson.Get(body, "message").String(), "찾을 수 없습니다")
}

// TestRateLimiting 제한을 초과한 요청은 429와 Retry-After 헤더를 반환합니다.
func TestRateLimiting(t *testing.T) {
	t.Parallel()

	e := NewHTTPServer(HTTPServerConfig{
		AllowOrigins:       []string{"*"},
		RateLimitPerSecond: 1,
		RateLimitBurst:     1,
	})
	SetupRoutes(e, NewHandler(&fakeProductService{}), testAppKey)

	rec := doRequest(e, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(e, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

// TestPanicRecovery 핸들러의 패닉은 복구되어 500 응답으로 변환됩니다.
func TestPanicRecovery(t *testing.T) {
	t.Parallel()

	e := newTestServer(&fakeProductService{})
	e.GET("/panic", func(c echo.Context) error {
		panic("의도된 테스트 패닉")
	})

	rec := doRequest(e, http.MethodGet, "/panic", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, int64(500), gjson.Get(rec.Body.String(), "result_code").Int())
}

// TestServerHeaderRemoved 응답에서 Server 헤더가 제거됩니다.
func TestServerHeaderRemoved(t *testing.T) {
	t.Parallel()

	e := newTestServer(&fakeProductService{})

	rec := doRequest(e, http.MethodGet, "/health", nil)
	assert.Empty(t, rec.Header().Get(echo.HeaderServer))
}

// TestMaskSensitiveQueryParams 민감한 쿼리 파라미터 값이 마스킹됩니다.
func TestMaskSensitiveQueryParams(t *testing.T) {
	t.Parallel()

	masked := maskSensitiveQueryParams("/api/v1/products?app_key=verysecretkey123&id=100")
	assert.NotContains(t, masked, "verysecretkey123")
	assert.Contains(t, masked, "id=100")

	// 민감 파라미터가 없으면 원본 그대로
	uri := "/api/v1/products?id=100"
	assert.Equal(t, uri, maskSensitiveQueryParams(uri))
}
