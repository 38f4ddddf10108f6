package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestNew 생성된 에러의 타입, 메시지, 스택 수집 여부를 검증합니다.
func TestNew(t *testing.T) {
	t.Parallel()

	err := New(NotFound, "상품을 찾을 수 없습니다")

	var appErr *AppError
	assert.True(t, stderrors.As(err, &appErr))
	assert.Equal(t, NotFound, appErr.Type())
	assert.Equal(t, "상품을 찾을 수 없습니다", appErr.Message())
	assert.NotEmpty(t, appErr.Stack())
	assert.Equal(t, "[NotFound] 상품을 찾을 수 없습니다", err.Error())
}

// TestWrap 에러 체이닝과 nil 처리 규칙을 검증합니다.
func TestWrap(t *testing.T) {
	t.Parallel()

	t.Run("nil 래핑 → nil", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, Wrap(nil, Internal, "무시됨"))
		assert.Nil(t, Wrapf(nil, Internal, "무시됨 %d", 1))
	})

	t.Run("외부 에러 래핑", func(t *testing.T) {
		t.Parallel()
		cause := stderrors.New("connection refused")
		err := Wrap(cause, System, "판매처 접속 실패")

		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "connection refused")
		assert.Equal(t, cause, RootCause(err))
	})
}

// TestIs 에러 체인 내 특정 ErrorType 포함 여부 판정을 검증합니다.
func TestIs(t *testing.T) {
	t.Parallel()

	inner := New(NotFound, "삭제된 상품")
	outer := Wrap(inner, ExecutionFailed, "상품 조회 실패")

	assert.True(t, Is(outer, NotFound), "내부 타입도 탐지되어야 함")
	assert.True(t, Is(outer, ExecutionFailed))
	assert.False(t, Is(outer, ParsingFailed))
	assert.False(t, Is(nil, NotFound))
}

// TestUnderlyingType 가장 안쪽 AppError의 타입 판별을 검증합니다.
func TestUnderlyingType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{
			name: "AppError 체인 → 가장 안쪽 타입",
			err:  Wrap(New(NotFound, "삭제된 상품"), Internal, "조회 실패"),
			want: NotFound,
		},
		{
			name: "외부 에러 래핑 → 래핑 타입",
			err:  Wrap(stderrors.New("boom"), InvalidItemURL, "식별자 추출 실패"),
			want: InvalidItemURL,
		},
		{
			name: "AppError 없음 → Unknown",
			err:  stderrors.New("plain"),
			want: Unknown,
		},
		{
			name: "nil → Unknown",
			err:  nil,
			want: Unknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, UnderlyingType(tt.err))
		})
	}
}

// TestErrorType_String 에러 타입의 문자열 표현을 검증합니다.
func TestErrorType_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "InvalidItemURL", InvalidItemURL.String())
	assert.Equal(t, "ParsingFailed", ParsingFailed.String())
	assert.Equal(t, "Unknown", ErrorType(999).String())
}

// TestFormat %+v 출력에 스택 트레이스와 원인 체인이 포함되는지 검증합니다.
func TestFormat(t *testing.T) {
	t.Parallel()

	err := Wrap(New(ParsingFailed, "JSON 디코딩 오류"), ExecutionFailed, "상품 수집 실패")
	out := fmt.Sprintf("%+v", err)

	assert.Contains(t, out, "[ExecutionFailed] 상품 수집 실패")
	assert.Contains(t, out, "Caused by:")
	assert.Contains(t, out, "[ParsingFailed] JSON 디코딩 오류")
	assert.Contains(t, out, "Stack trace:")
}
