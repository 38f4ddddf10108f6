package notification

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darkkaiser/price-watcher/internal/product"
	"github.com/darkkaiser/price-watcher/internal/watcher"
)

func floatp(v float64) *float64 { return &v }

func kurlyEvent(typ watcher.EventType) watcher.Event {
	p := product.New(product.NewIdentifier("1001"), "유기농 우유", product.NewPrice(4500, "KRW"))
	p.URL = "https://www.kurly.com/goods/1001"

	return watcher.Event{
		Type:       typ,
		EntityID:   "price_kurly_type_1001",
		VendorName: "마켓컬리",
		Product:    p,
	}
}

// TestBuildMessage_FirstSeen 첫 수집 메시지에 판매처 제목, 현재 가격,
// 상품 링크가 포함됩니다.
func TestBuildMessage_FirstSeen(t *testing.T) {
	t.Parallel()

	message := buildMessage([]watcher.Event{kurlyEvent(watcher.EventFirstSeen)})

	assert.Contains(t, message, "<b>【 마켓컬리 】</b>")
	assert.Contains(t, message, "상품 감시를 시작합니다")
	assert.Contains(t, message, "4,500원")
	assert.Contains(t, message, `<a href="https://www.kurly.com/goods/1001">유기농 우유</a>`)
}

// TestBuildMessage_PriceChanged 가격 변동 메시지에 변동 방향과
// 이전/이후 가격이 포함됩니다.
func TestBuildMessage_PriceChanged(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status product.ChangeStatus
		before float64
		after  float64
		want   string
	}{
		{name: "가격 인하", status: product.DecrementPrice, before: 5000, after: 4500, want: "📉 가격이 내렸습니다"},
		{name: "가격 인상", status: product.IncrementPrice, before: 4500, after: 5000, want: "📈 가격이 올랐습니다"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := kurlyEvent(watcher.EventPriceChanged)
			e.Change = product.PriceChange{
				Status: tt.status,
				Before: floatp(tt.before),
				After:  floatp(tt.after),
			}

			message := buildMessage([]watcher.Event{e})
			assert.Contains(t, message, tt.want)
			assert.Contains(t, message, "5,000원")
			assert.Contains(t, message, "4,500원")
			assert.Contains(t, message, "→")
		})
	}
}

// TestBuildMessage_LowestPriceRenewed 최저가 갱신 메시지에 새 최저가와
// 종전 최저가가 포함됩니다.
func TestBuildMessage_LowestPriceRenewed(t *testing.T) {
	t.Parallel()

	e := kurlyEvent(watcher.EventLowestPriceRenewed)
	e.Change = product.PriceChange{Status: product.DecrementPrice, After: floatp(4200)}
	e.Prev = &watcher.Snapshot{LowestPrice: floatp(4400)}

	message := buildMessage([]watcher.Event{e})
	assert.Contains(t, message, "역대 최저가 갱신: 4,200원")
	assert.Contains(t, message, "(종전 4,400원)")
}

// TestBuildMessage_Deleted 삭제 이벤트는 수집 결과에 원래 상품명이 없으므로
// 직전 스냅샷의 상품명과 URL을 사용합니다.
func TestBuildMessage_Deleted(t *testing.T) {
	t.Parallel()

	e := watcher.Event{
		Type:       watcher.EventDeleted,
		EntityID:   "price_kurly_type_1001",
		VendorName: "마켓컬리",
		Product:    product.NewDeleted(product.NewIdentifier("1001"), 404),
		Prev: &watcher.Snapshot{
			Name: "유기농 우유",
			URL:  "https://www.kurly.com/goods/1001",
		},
	}

	message := buildMessage([]watcher.Event{e})
	assert.Contains(t, message, "판매처에서 상품이 삭제되었습니다")
	assert.Contains(t, message, `<a href="https://www.kurly.com/goods/1001">유기농 우유</a>`)
	assert.NotContains(t, message, "Deleted")
}

// TestBuildMessage_MultipleEvents 한 주기에 발생한 여러 이벤트는
// 메시지 하나로 묶이고 상품 링크는 한 번만 포함됩니다.
func TestBuildMessage_MultipleEvents(t *testing.T) {
	t.Parallel()

	priceChanged := kurlyEvent(watcher.EventPriceChanged)
	priceChanged.Change = product.PriceChange{
		Status: product.DecrementPrice,
		Before: floatp(5000),
		After:  floatp(4200),
	}

	lowest := kurlyEvent(watcher.EventLowestPriceRenewed)
	lowest.Change = priceChanged.Change
	lowest.Prev = &watcher.Snapshot{LowestPrice: floatp(4400)}

	message := buildMessage([]watcher.Event{priceChanged, lowest})

	assert.Contains(t, message, "가격이 내렸습니다")
	assert.Contains(t, message, "역대 최저가 갱신")
	assert.Equal(t, 1, strings.Count(message, `<a href=`))
}

// TestBuildMessage_EscapesHTML 상품명의 HTML 특수문자는 이스케이프됩니다.
func TestBuildMessage_EscapesHTML(t *testing.T) {
	t.Parallel()

	e := kurlyEvent(watcher.EventRestocked)
	e.Product.Name = "우유 <1L & 2L>"

	message := buildMessage([]watcher.Event{e})
	assert.Contains(t, message, "우유 &lt;1L &amp; 2L&gt;")
	assert.NotContains(t, message, "<1L")
}

// TestBuildMessage_Empty 이벤트가 없으면 빈 문자열을 반환합니다.
func TestBuildMessage_Empty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, buildMessage(nil))
}

// TestFormatPrice 통화별 가격 표기 형식을 검증합니다.
func TestFormatPrice(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1,234원", formatPrice(1234, "KRW"))
	assert.Equal(t, "1,234원", formatPrice(1234, ""))
	assert.Equal(t, "12.5 AUD", formatPrice(12.5, "AUD"))
	assert.Equal(t, "1,234,567원", formatPrice(1234567, "KRW"))
}

// TestTelegram_Report 이벤트 묶음이 텔레그램 메시지 하나로 발송됩니다.
func TestTelegram_Report(t *testing.T) {
	t.Parallel()

	mock := &mockClient{}
	tg := newTestTelegram(mock)

	tg.Report(t.Context(), []watcher.Event{kurlyEvent(watcher.EventRestocked)})

	sent := mock.sentMessages()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Text, "재입고되었습니다")

	tg.Report(t.Context(), nil)
	assert.Len(t, mock.sentMessages(), 1, "이벤트가 없으면 발송하지 않는다")
}
