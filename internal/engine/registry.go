package engine

import (
	"fmt"
	"sort"

	"github.com/iancoleman/strcase"

	apperrors "github.com/darkkaiser/price-watcher/internal/pkg/errors"
)

// Registry 판매처 코드를 Factory로 매핑하는 디스패치 테이블입니다.
//
// 애플리케이션 초기화 시점에 모든 판매처가 명시적으로 등록되며,
// 이후에는 읽기 전용으로만 사용됩니다. (런타임 등록 없음)
type Registry struct {
	factories map[string]Factory
}

// NewRegistry 빈 Registry를 생성합니다.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// MustRegister Factory를 등록합니다.
// 잘못된 Factory나 코드 중복은 설정 버그이므로 즉시 panic합니다.
func (r *Registry) MustRegister(f Factory) {
	if f.Code == "" {
		panic("engine: 판매처 코드가 비어 있습니다")
	}
	if f.ParseID == nil || f.New == nil {
		panic(fmt.Sprintf("engine: Factory(%s)의 필수 함수가 누락되었습니다", f.Code))
	}

	code := normalizeCode(f.Code)
	if _, exists := r.factories[code]; exists {
		panic(fmt.Sprintf("engine: 판매처 코드가 중복 등록되었습니다: %s", code))
	}

	r.factories[code] = f
}

// Lookup 판매처 코드로 Factory를 조회합니다.
func (r *Registry) Lookup(code string) (Factory, error) {
	f, ok := r.factories[normalizeCode(code)]
	if !ok {
		return Factory{}, apperrors.Newf(apperrors.InvalidInput,
			"지원하지 않는 판매처 코드입니다: %s", code)
	}
	return f, nil
}

// NewEngine 판매처 코드와 옵션으로 엔진 인스턴스를 생성합니다.
// URL에서 식별자를 추출할 수 없으면 InvalidItemURL 에러를 반환합니다.
func (r *Registry) NewEngine(code string, opts Options) (Engine, error) {
	f, err := r.Lookup(code)
	if err != nil {
		return nil, err
	}
	return f.New(opts)
}

// Codes 등록된 모든 판매처 코드를 정렬하여 반환합니다.
func (r *Registry) Codes() []string {
	codes := make([]string, 0, len(r.factories))
	for code := range r.factories {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// normalizeCode 판매처 코드를 snake_case 소문자로 정규화합니다.
// 설정 파일에 "GSTheFresh"처럼 적어도 동일한 판매처로 해석됩니다.
func normalizeCode(code string) string {
	return strcase.ToSnake(code)
}
