package product

import "time"

// DeliveryPayType 배송비 부과 방식입니다.
type DeliveryPayType string

const (
	DeliveryPayFree       DeliveryPayType = "free"         // 무료배송
	DeliveryPayPaid       DeliveryPayType = "paid"         // 유료배송
	DeliveryPayFreeOrPaid DeliveryPayType = "free_or_paid" // 조건부 무료배송
	DeliveryPayUnknown    DeliveryPayType = "unknown"      // 정보 없음
)

// DeliveryType 배송 방식입니다.
type DeliveryType string

const (
	DeliveryExpress  DeliveryType = "express"  // 당일/로켓 배송
	DeliveryDawn     DeliveryType = "dawn"     // 새벽배송
	DeliveryStandard DeliveryType = "standard" // 일반배송
	DeliveryPickup   DeliveryType = "pickup"   // 매장 수령
	DeliverySlow     DeliveryType = "slow"     // 지연배송 (도서산간 등)
	DeliveryNoInfo   DeliveryType = "no_delivery_info"
)

// Delivery 상품의 배송 정보입니다.
type Delivery struct {
	Price      float64         // 배송비
	Threshold  float64         // 무료배송 기준 금액 (조건부 무료인 경우)
	Type       DeliveryType    // 배송 방식
	PayType    DeliveryPayType // 배송비 부과 방식
	ArriveDate *time.Time      // 도착 예정일 (정보가 없으면 nil)
}

// NewDelivery 배송 정보를 생성합니다.
func NewDelivery(price float64, deliveryType DeliveryType, payType DeliveryPayType) Delivery {
	return Delivery{
		Price:   price,
		Type:    deliveryType,
		PayType: payType,
	}
}

// UnknownDelivery 배송 정보가 없는 상품의 기본값입니다.
func UnknownDelivery() Delivery {
	return Delivery{
		Type:    DeliveryNoInfo,
		PayType: DeliveryPayUnknown,
	}
}
