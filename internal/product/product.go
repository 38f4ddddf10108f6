// Package product 판매처와 무관한 표준 상품 모델을 제공합니다.
//
// 모든 판매처 엔진은 추출 결과를 이 패키지의 Product로 정규화하며,
// 가격 변동 판정, 단위가격 축약, 재고 상태 등의 순수 로직이 여기에 모여 있습니다.
package product

import (
	"fmt"
	"strconv"
)

// unknownName 상품명을 추출하지 못했을 때의 기본값
const unknownName = "UNKNOWN"

// Status 상품의 판매 상태입니다.
type Status string

const (
	StatusActive   Status = "active"   // 판매 중
	StatusInactive Status = "inactive" // 판매 중지 (재개 가능)
	StatusDeleted  Status = "deleted"  // 삭제/판매 종료 (종결 상태)
)

// Option 상품의 구매 옵션입니다.
type Option struct {
	ID        string
	Name      string
	Price     float64
	Inventory InventoryStatus
}

// Product 판매처와 무관한 표준 상품 레코드입니다.
type Product struct {
	ID          Identifier
	Name        string
	Brand       string
	Description string
	Price       Price
	Category    Category
	Delivery    Delivery
	Unit        Unit
	Image       string
	URL         string
	Inventory   InventoryStatus
	Options     []Option
	Status      Status
	HTTPStatus  int
}

// New 필수 필드만으로 상품을 생성하고 나머지는 기본값으로 채웁니다.
//
// 기본값:
//   - 상품명: "UNKNOWN"
//   - 단위가격: 판매가 기준 1개당 (기본 단위)
//   - 재고: 재고 충분, 상태: 판매 중, 배송: 정보 없음
func New(id Identifier, name string, price Price) *Product {
	if name == "" {
		name = unknownName
	}

	return &Product{
		ID:        id,
		Name:      name,
		Price:     price,
		Delivery:  UnknownDelivery(),
		Unit:      NewUnit(price.Price, UnitPiece, 1),
		Inventory: InStock,
		Status:    StatusActive,
	}
}

// NewDeleted 판매처가 삭제를 확인한 상품의 종결 레코드를 생성합니다.
// 에러가 아닌 유효한 상품 상태이며, 이후 수집은 중단됩니다.
func NewDeleted(id Identifier, httpStatus int) *Product {
	p := New(id, fmt.Sprintf("Deleted %s", id.TargetID()), NewPrice(0, ""))
	p.Status = StatusDeleted
	p.Inventory = OutOfStock
	p.HTTPStatus = httpStatus
	return p
}

// SortPrice 가격과 재고 순위를 결합한 사전식 정렬 키를 반환합니다.
// 가격 문자열을 12자리까지 '0'으로 우측 패딩한 뒤 재고 정렬 순위를 붙입니다.
func (p *Product) SortPrice() string {
	price := strconv.FormatFloat(p.Price.Price, 'f', -1, 64)
	for len(price) < 12 {
		price += "0"
	}
	return price + ":" + strconv.Itoa(p.Inventory.SortRank())
}

// Dict 상품의 평탄화된 속성 맵을 반환합니다.
//
// 옵션 목록과 별개로 옵션별 빠른 접근 키(product_option_{i}_*)를 함께 포함합니다.
func (p *Product) Dict() map[string]any {
	attrs := map[string]any{
		"product_id":       p.ID.TargetID(),
		"name":             p.Name,
		"brand":            p.Brand,
		"description":      p.Description,
		"display_category": p.Category.String(),
		"category":         p.Category.Last(),
		"price":            p.Price.Price,
		"original_price":   p.Price.OriginalPrice,
		"discount_amount":  p.Price.DiscountAmount,
		"discount_rate":    p.Price.DiscountRate,
		"currency":         p.Price.Currency,
		"payback_price":    p.Price.Payback,
		"url":              p.URL,
		"image":            p.Image,
		"unit_type":        string(p.Unit.Type),
		"unit_quantity":    p.Unit.Quantity,
		"unit_price":       p.Unit.Price,
		"unit_total":       p.Unit.Total,
		"is_basic_unit":    p.Unit.IsBasic,
		"inventory":        string(p.Inventory),
		"inventory_rank":   p.Inventory.Rank(),
		"delivery_type":    string(p.Delivery.Type),
		"delivery_pay":     string(p.Delivery.PayType),
		"delivery_price":   p.Delivery.Price,
		"status":           string(p.Status),
		"http_status":      p.HTTPStatus,
		"sort_price":       p.SortPrice(),
		"option_count":     len(p.Options),
	}

	if p.Delivery.ArriveDate != nil {
		attrs["delivery_arrive_date"] = p.Delivery.ArriveDate.Format("2006-01-02")
	}

	for i, opt := range p.Options {
		prefix := fmt.Sprintf("product_option_%d_", i)
		attrs[prefix+"id"] = opt.ID
		attrs[prefix+"name"] = opt.Name
		attrs[prefix+"price"] = opt.Price
		attrs[prefix+"inventory"] = string(opt.Inventory)
	}

	return attrs
}
