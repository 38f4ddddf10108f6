package product

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestNew 상품 생성 시 기본값 채움 규칙을 검증합니다.
func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("상품명 없음 → UNKNOWN", func(t *testing.T) {
		t.Parallel()
		p := New(NewIdentifier("123"), "", NewPrice(1000, "KRW"))
		assert.Equal(t, "UNKNOWN", p.Name)
	})

	t.Run("단위가격 기본값 → 판매가 기준 1개당", func(t *testing.T) {
		t.Parallel()
		p := New(NewIdentifier("123"), "사과", NewPrice(1000, "KRW"))
		assert.Equal(t, UnitPiece, p.Unit.Type)
		assert.InDelta(t, 1.0, p.Unit.Quantity, 1e-9)
		assert.InDelta(t, 1000.0, p.Unit.Price, 1e-9)
		assert.True(t, p.Unit.IsBasic)
	})

	t.Run("재고/상태/배송 기본값", func(t *testing.T) {
		t.Parallel()
		p := New(NewIdentifier("123"), "사과", NewPrice(1000, "KRW"))
		assert.Equal(t, InStock, p.Inventory)
		assert.Equal(t, StatusActive, p.Status)
		assert.Equal(t, DeliveryNoInfo, p.Delivery.Type)
	})
}

// TestNewDeleted 삭제 상품의 종결 레코드 생성 규칙을 검증합니다.
func TestNewDeleted(t *testing.T) {
	t.Parallel()

	p := NewDeleted(NewIdentifier("987654"), 404)
	assert.Equal(t, StatusDeleted, p.Status)
	assert.Equal(t, "Deleted 987654", p.Name)
	assert.Equal(t, OutOfStock, p.Inventory)
	assert.Equal(t, 404, p.HTTPStatus)
}

// TestSortPrice 정렬 키 형식(12자리 우측 0 패딩 + 재고 순위)을 검증합니다.
func TestSortPrice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		price     float64
		inventory InventoryStatus
		want      string
	}{
		{name: "재고 충분", price: 1000, inventory: InStock, want: "100000000000:0"},
		{name: "품절 임박", price: 1000, inventory: AlmostSoldOut, want: "100000000000:1"},
		{name: "품절", price: 1000, inventory: OutOfStock, want: "100000000000:2"},
		{name: "소수점 가격", price: 12.5, inventory: InStock, want: "12.500000000:0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := New(NewIdentifier("x"), "상품", NewPrice(tt.price, "KRW"))
			p.Inventory = tt.inventory
			assert.Equal(t, tt.want, p.SortPrice())
		})
	}
}

// TestDict 평탄화된 속성 맵과 옵션별 빠른 접근 키를 검증합니다.
func TestDict(t *testing.T) {
	t.Parallel()

	p := New(NewIdentifier("123"), "사과 1kg", NewPriceWithOriginal(8000, "KRW", 10000))
	p.Brand = "청송농원"
	p.Category = NewCategoryFromPath([]string{"식품", "과일", "사과"})
	p.Options = []Option{
		{ID: "opt-1", Name: "5kg 박스", Price: 35000, Inventory: InStock},
		{ID: "opt-2", Name: "10kg 박스", Price: 65000, Inventory: OutOfStock},
	}

	d := p.Dict()

	assert.Equal(t, "123", d["product_id"])
	assert.Equal(t, "사과 1kg", d["name"])
	assert.Equal(t, "식품|과일|사과", d["display_category"])
	assert.Equal(t, "사과", d["category"])
	assert.Equal(t, 8000.0, d["price"])
	assert.Equal(t, 2000.0, d["discount_amount"])
	assert.Equal(t, 2, d["option_count"])

	// 옵션별 빠른 접근 키
	assert.Equal(t, "opt-1", d["product_option_0_id"])
	assert.Equal(t, "5kg 박스", d["product_option_0_name"])
	assert.Equal(t, 65000.0, d["product_option_1_price"])
	assert.Equal(t, string(OutOfStock), d["product_option_1_inventory"])
}
