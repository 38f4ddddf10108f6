package product

// InventoryStatus 상품의 재고 상태입니다.
type InventoryStatus string

const (
	InStock       InventoryStatus = "in_stock"        // 재고 충분
	AlmostSoldOut InventoryStatus = "almost_sold_out" // 품절 임박 (재고 10개 미만)
	OutOfStock    InventoryStatus = "out_of_stock"    // 품절
)

// inventoryRanks 재고 상태별 (우선순위, 정렬용 순위)
// Rank는 재고가 많을수록 크고, SortRank는 구매 가능성이 높을수록 작습니다.
var inventoryRanks = map[InventoryStatus]struct {
	rank     int
	sortRank int
}{
	InStock:       {rank: 10, sortRank: 0},
	AlmostSoldOut: {rank: 1, sortRank: 1},
	OutOfStock:    {rank: 0, sortRank: 2},
}

// Rank 재고 상태의 우선순위를 반환합니다. 재고가 많을수록 큰 값입니다.
func (s InventoryStatus) Rank() int {
	return inventoryRanks[s].rank
}

// SortRank 정렬용 순위를 반환합니다. 구매 가능성이 높을수록 작은 값입니다.
func (s InventoryStatus) SortRank() int {
	return inventoryRanks[s].sortRank
}

// InventoryOf 품절 여부와 잔여 재고 수량으로 재고 상태를 판정합니다.
// stock이 nil이면 수량 정보가 없는 것으로 보고 재고 충분으로 판정합니다.
func InventoryOf(isSoldOut bool, stock *int) InventoryStatus {
	if isSoldOut {
		return OutOfStock
	}
	if stock != nil && *stock < 10 {
		return AlmostSoldOut
	}
	return InStock
}
