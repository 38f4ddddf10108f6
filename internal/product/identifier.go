package product

import "strings"

// invalidTargetID 식별자에서 유효한 값을 하나도 얻지 못했을 때의 대체값
const invalidTargetID = "invalid_product_id"

// IdentifierPart 식별자의 단일 구성요소입니다.
// URL 패턴에서 추출된 이름 있는 캡처 그룹 하나에 대응합니다.
type IdentifierPart struct {
	Key   string // 구성요소 이름 (예: "product_id", "item_id") — 이름이 없으면 빈 문자열
	Value string
}

// Identifier 판매처 범위 내에서 상품을 유일하게 식별하는 불투명한 식별자입니다.
//
// 단일 문자열이거나 여러 구성요소(상품 ID + 옵션 ID 등)의 순서 있는 목록입니다.
// 구성요소의 순서는 생성 시점에 고정되며 TargetID()의 결정성을 보장합니다.
type Identifier struct {
	parts []IdentifierPart
}

// NewIdentifier 단일 문자열 식별자를 생성합니다.
func NewIdentifier(value string) Identifier {
	return Identifier{parts: []IdentifierPart{{Value: value}}}
}

// NewIdentifierParts 이름 있는 구성요소들로 식별자를 생성합니다.
func NewIdentifierParts(parts ...IdentifierPart) Identifier {
	return Identifier{parts: parts}
}

// Part 주어진 이름의 구성요소 값을 반환합니다. 없으면 빈 문자열을 반환합니다.
func (id Identifier) Part(key string) string {
	for _, p := range id.parts {
		if p.Key == key {
			return p.Value
		}
	}
	return ""
}

// IsZero 구성요소가 하나도 없는지 여부를 반환합니다.
func (id Identifier) IsZero() bool {
	return len(id.parts) == 0
}

// TargetID 엔티티 이름 생성에 사용되는 안정적인 축약 문자열을 반환합니다.
//
// 정책:
//   - "product_id" 구성요소가 존재하면 그 값만 사용합니다.
//   - 그 외에는 비어있지 않은 구성요소 값들을 순서대로 "_"로 이어 붙입니다.
//   - 유효한 값이 하나도 없으면 "invalid_product_id"를 반환합니다.
func (id Identifier) TargetID() string {
	if v := id.Part("product_id"); v != "" {
		return v
	}

	values := make([]string, 0, len(id.parts))
	for _, p := range id.parts {
		if p.Value != "" {
			values = append(values, p.Value)
		}
	}

	if len(values) == 0 {
		return invalidTargetID
	}

	return strings.Join(values, "_")
}

func (id Identifier) String() string {
	return id.TargetID()
}
