package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/darkkaiser/price-watcher/internal/pkg/errors"
	"github.com/darkkaiser/price-watcher/internal/product"
	"github.com/darkkaiser/price-watcher/internal/scraper"
)

type stubEngine struct{ Base }

func (e *stubEngine) Load(_ context.Context, _ scraper.Scraper) (*product.Product, error) {
	return nil, nil
}

func stubFactory(code string) Factory {
	return Factory{
		Code: code,
		Name: code,
		ParseID: func(itemURL string) (product.Identifier, error) {
			return product.NewIdentifier("1"), nil
		},
		New: func(opts Options) (Engine, error) {
			e := &stubEngine{}
			e.Base = NewBase(code, code, product.NewIdentifier("1"), opts.ItemURL)
			return e, nil
		},
	}
}

// TestRegistry_Lookup 코드 정규화를 포함한 조회 규칙을 검증합니다.
func TestRegistry_Lookup(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.MustRegister(stubFactory("gsthefresh"))

	t.Run("등록된 코드", func(t *testing.T) {
		t.Parallel()
		f, err := r.Lookup("gsthefresh")
		require.NoError(t, err)
		assert.Equal(t, "gsthefresh", f.Code)
	})

	t.Run("미등록 코드 → InvalidInput", func(t *testing.T) {
		t.Parallel()
		_, err := r.Lookup("unknown_mall")
		assert.True(t, apperrors.Is(err, apperrors.InvalidInput))
	})
}

// TestRegistry_MustRegister_Duplicate 코드 중복 등록은 panic입니다.
func TestRegistry_MustRegister_Duplicate(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.MustRegister(stubFactory("coupang"))

	assert.Panics(t, func() {
		r.MustRegister(stubFactory("coupang"))
	})
}

// TestRegistry_MustRegister_Invalid 필수 함수 누락은 panic입니다.
func TestRegistry_MustRegister_Invalid(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	assert.Panics(t, func() {
		r.MustRegister(Factory{Code: "broken"})
	})
	assert.Panics(t, func() {
		r.MustRegister(Factory{})
	})
}

// TestRegistry_Codes 등록된 코드가 정렬되어 반환됩니다.
func TestRegistry_Codes(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.MustRegister(stubFactory("ssg"))
	r.MustRegister(stubFactory("coupang"))
	r.MustRegister(stubFactory("kurly"))

	assert.Equal(t, []string{"coupang", "kurly", "ssg"}, r.Codes())
}

// TestRegistry_NewEngine 엔진 생성 경로를 검증합니다.
func TestRegistry_NewEngine(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.MustRegister(stubFactory("coupang"))

	e, err := r.NewEngine("coupang", Options{ItemURL: "https://example.com/1"})
	require.NoError(t, err)
	assert.Equal(t, "coupang", e.Code())
	assert.Equal(t, "1", e.EntityTarget())
}
