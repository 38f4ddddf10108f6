package product

import "strings"

// UnitType 상품 단위가격의 기준 단위를 나타냅니다.
type UnitType string

const (
	UnitPiece      UnitType = "piece" // 개당
	UnitGram       UnitType = "g"     // 그램당
	UnitKilogram   UnitType = "kg"    // 킬로그램당
	UnitMilliliter UnitType = "ml"    // 밀리리터당
	UnitLiter      UnitType = "l"     // 리터당
	UnitPack       UnitType = "pack"  // 팩당
	UnitPill       UnitType = "pill"  // 정당
)

// UnitTypeOf 판매처가 표기한 단위 라벨을 표준 단위로 해석합니다.
// 해석할 수 없는 라벨(개, 개입 등)은 기본 단위(개당)로 처리합니다.
func UnitTypeOf(label string) UnitType {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "g", "gram", "그램":
		return UnitGram
	case "kg", "kilogram", "킬로그램":
		return UnitKilogram
	case "ml", "millilitre", "milliliter", "밀리리터":
		return UnitMilliliter
	case "l", "litre", "liter", "리터":
		return UnitLiter
	case "pack", "팩", "パック":
		return UnitPack
	case "pill", "알", "錠":
		return UnitPill
	default:
		return UnitPiece
	}
}

// Unit 상품의 단위가격 정보입니다.
//
// 판매처가 "100g당 1,250원"처럼 제공하는 단위가격을 비교 가능한 기준으로 축약합니다.
// KG/L 단위는 G/ML로 환산한 후, 수량이 1이 될 때까지 가격을 함께 줄여 나갑니다.
type Unit struct {
	Price    float64  // 축약된 단위가격
	Type     UnitType // 환산된 기준 단위 (KG→G, L→ML)
	Quantity float64  // 축약된 기준 수량
	Total    float64  // 전체 가격을 단위가격으로 나눈 총 단위 수 (전체 가격이 없으면 0)
	IsBasic  bool     // 기본 단위(1개당) 여부
}

// NewUnit 단위가격 정보를 생성합니다.
// price는 quantity(unitType 기준) 당 가격입니다.
func NewUnit(price float64, unitType UnitType, quantity float64) Unit {
	return newUnit(price, unitType, quantity, 0)
}

// NewUnitWithTotal 상품 전체 가격을 함께 받아 총 단위 수까지 계산합니다.
func NewUnitWithTotal(price float64, unitType UnitType, quantity float64, totalPrice float64) Unit {
	return newUnit(price, unitType, quantity, totalPrice)
}

func newUnit(price float64, unitType UnitType, quantity float64, totalPrice float64) Unit {
	// KG/L 단위는 G/ML 기준으로 환산한다 (가격을 1000으로 나눔, 수량은 유지)
	switch unitType {
	case UnitKilogram:
		unitType = UnitGram
		price /= 1000
	case UnitLiter:
		unitType = UnitMilliliter
		price /= 1000
	}

	quantity, price = collapse(quantity, price)

	total := 0.0
	if totalPrice != 0 && price != 0 {
		total = totalPrice / price
	}

	return Unit{
		Price:    price,
		Type:     unitType,
		Quantity: quantity,
		Total:    total,
		IsBasic:  quantity == 1 && unitType == UnitPiece,
	}
}

// collapse 기준 수량을 1을 향해 줄이면서 가격을 함께 축약합니다.
//
//   - 수량이 1 이하면 그대로 종료합니다.
//   - 1 < 수량 < 10: 가격을 수량 비례로 한 단계 줄입니다. price=(price/q)*(q-1), q=q-1
//   - 수량 >= 10: 수량과 가격을 함께 10으로 나눕니다.
//
// 가격이 0이면 수량과 관계없이 즉시 0을 반환합니다. (0 나누기 방지)
func collapse(quantity, price float64) (float64, float64) {
	for {
		if price == 0 {
			return quantity, 0
		}
		if quantity <= 1 {
			return quantity, price
		}
		if quantity < 10 {
			price = (price / quantity) * (quantity - 1)
			quantity = quantity - 1
			continue
		}
		quantity /= 10
		price /= 10
	}
}
