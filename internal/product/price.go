package product

import (
	"time"
)

// Price 상품의 가격 정보입니다.
//
// 할인 금액과 할인율은 생성 시점에 정상가로부터 유도되며, 이후 독립적으로 변경되지 않습니다.
type Price struct {
	Price          float64 // 판매가
	Currency       string  // 통화 코드 (KRW, AUD 등)
	OriginalPrice  float64 // 정상가 (제공되지 않으면 판매가와 동일)
	DiscountAmount float64 // 할인 금액 (정상가 - 판매가)
	DiscountRate   float64 // 할인율 (%)
	Payback        float64 // 적립 금액
}

// NewPrice 정상가 정보 없이 가격을 생성합니다. 정상가는 판매가와 같은 값으로 설정됩니다.
func NewPrice(price float64, currency string) Price {
	return NewPriceWithOriginal(price, currency, price)
}

// NewPriceWithOriginal 정상가를 포함하여 가격을 생성하고 할인 금액/할인율을 유도합니다.
func NewPriceWithOriginal(price float64, currency string, originalPrice float64) Price {
	if originalPrice == 0 {
		originalPrice = price
	}

	discountAmount := originalPrice - price

	discountRate := 0.0
	if originalPrice != 0 {
		discountRate = discountAmount / originalPrice * 100
	}

	return Price{
		Price:          price,
		Currency:       currency,
		OriginalPrice:  originalPrice,
		DiscountAmount: discountAmount,
		DiscountRate:   discountRate,
	}
}

// ChangeStatus 직전 성공 수집 대비 가격 변동 방향입니다.
type ChangeStatus string

const (
	NoChange       ChangeStatus = "no_change"       // 변동 없음 (정보 부족 포함)
	IncrementPrice ChangeStatus = "increment_price" // 가격 상승
	DecrementPrice ChangeStatus = "decrement_price" // 가격 하락
)

// PriceChange 가격 변동 판정 결과입니다.
type PriceChange struct {
	Status ChangeStatus
	Before *float64 // 직전 가격 (없으면 nil)
	After  *float64 // 현재 가격 (없으면 nil)
}

// ClassifyPriceChange 직전 수집 가격과 현재 가격을 비교하여 변동 방향을 판정합니다.
//
// 판정 순서 (위에서부터 먼저 적용):
//  1. 현재 가격이 없으면 변동 없음
//  2. 직전 갱신 시각이 periodHours보다 오래됐으면 변동 없음 (최근성 창 밖)
//  3. 직전 가격이 없으면 변동 없음
//  4. 직전 < 현재 → 상승, 직전 > 현재 → 하락, 같으면 변동 없음
//
// 최근성 창 밖의 비교는 "변동 정보 없음"으로 취급되어 변동 없음과 구분되지 않습니다.
func ClassifyPriceChange(prevUpdatedAt time.Time, periodHours int, before, after *float64, now time.Time) PriceChange {
	change := PriceChange{Status: NoChange, Before: before, After: after}

	if after == nil {
		return change
	}
	if now.Sub(prevUpdatedAt) > time.Duration(periodHours)*time.Hour {
		return change
	}
	if before == nil {
		return change
	}

	switch {
	case *before < *after:
		change.Status = IncrementPrice
	case *before > *after:
		change.Status = DecrementPrice
	}

	return change
}
