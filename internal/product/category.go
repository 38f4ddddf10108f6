package product

import (
	"strings"

	"github.com/darkkaiser/price-watcher/pkg/strutil"
)

// categorySeparator 카테고리 경로 구분자
const categorySeparator = "|"

// Category 상품 카테고리의 전체 경로입니다. 상위 분류부터 "|"로 이어 붙입니다.
// 예: "식품|과일|사과"
type Category string

// NewCategory 분류 경로 문자열로 카테고리를 생성합니다.
// 판매처가 ">" 구분자를 사용하는 경우 표준 구분자로 변환합니다.
func NewCategory(path string) Category {
	if strings.Contains(path, ">") {
		return NewCategoryFromPath(strutil.SplitAndTrim(path, ">"))
	}
	return Category(strings.TrimSpace(path))
}

// NewCategoryFromPath 상위 분류부터 나열된 라벨 목록으로 카테고리를 생성합니다.
// 빈 라벨은 제외됩니다.
func NewCategoryFromPath(labels []string) Category {
	filtered := make([]string, 0, len(labels))
	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label != "" {
			filtered = append(filtered, label)
		}
	}
	return Category(strings.Join(filtered, categorySeparator))
}

// Split 카테고리 경로를 라벨 목록으로 분리합니다.
func (c Category) Split() []string {
	if c == "" {
		return nil
	}
	return strings.Split(string(c), categorySeparator)
}

// Last 가장 하위 분류 라벨을 반환합니다. 비어있으면 빈 문자열을 반환합니다.
func (c Category) Last() string {
	labels := c.Split()
	if len(labels) == 0 {
		return ""
	}
	return labels[len(labels)-1]
}

func (c Category) String() string {
	return string(c)
}
