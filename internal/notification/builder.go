package notification

import (
	"fmt"
	"html"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/darkkaiser/price-watcher/internal/product"
	"github.com/darkkaiser/price-watcher/internal/watcher"
)

// titleFormat 메시지 상단의 판매처 제목 포맷
const titleFormat = "<b>【 %s 】</b>"

// pricePrinter 천 단위 구분 기호가 포함된 가격 문자열을 만드는 Printer
var pricePrinter = message.NewPrinter(language.Korean)

// buildMessage 한 상품의 변동 이벤트 묶음을 텔레그램 HTML 메시지로 구성합니다.
//
// 형식:
//
//	<b>【 판매처 】</b>
//
//	이벤트 본문 (여러 개일 수 있음)
//
//	<a href="상품 URL">상품명</a>
func buildMessage(events []watcher.Event) string {
	if len(events) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(titleFormat, html.EscapeString(events[0].VendorName)))

	for _, e := range events {
		body := renderEvent(e)
		if body == "" {
			continue
		}
		sb.WriteString("\n\n")
		sb.WriteString(body)
	}

	sb.WriteString("\n\n")
	sb.WriteString(renderProductLink(events[0]))

	return sb.String()
}

// renderEvent 이벤트 하나의 본문을 렌더링합니다.
func renderEvent(e watcher.Event) string {
	switch e.Type {
	case watcher.EventFirstSeen:
		if e.Product != nil && e.Product.Status == product.StatusDeleted {
			return "🆕 상품 감시를 시작합니다\n현재 판매처에서 찾을 수 없는 상품입니다"
		}
		return fmt.Sprintf("🆕 상품 감시를 시작합니다\n현재 가격: %s", formatPrice(currentPrice(e), currency(e)))

	case watcher.EventPriceChanged:
		emoji := "📈 가격이 올랐습니다"
		if e.Change.Status == product.DecrementPrice {
			emoji = "📉 가격이 내렸습니다"
		}
		return fmt.Sprintf("%s\n%s → %s",
			emoji,
			formatPrice(deref(e.Change.Before), currency(e)),
			formatPrice(deref(e.Change.After), currency(e)))

	case watcher.EventLowestPriceRenewed:
		body := fmt.Sprintf("🏷 역대 최저가 갱신: %s", formatPrice(deref(e.Change.After), currency(e)))
		if e.Prev != nil && e.Prev.LowestPrice != nil {
			body += fmt.Sprintf(" (종전 %s)", formatPrice(*e.Prev.LowestPrice, currency(e)))
		}
		return body

	case watcher.EventRestocked:
		return "✅ 재입고되었습니다"

	case watcher.EventSoldOut:
		return "⛔ 품절되었습니다"

	case watcher.EventDeleted:
		return "🚫 판매처에서 상품이 삭제되었습니다"
	}

	return ""
}

// renderProductLink 상품명과 URL을 HTML 링크로 렌더링합니다.
// URL이 없으면 상품명만 표시합니다.
func renderProductLink(e watcher.Event) string {
	name, url := productNameURL(e)
	if url == "" {
		return html.EscapeString(name)
	}
	return fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(url), html.EscapeString(name))
}

// productNameURL 이벤트에서 상품명과 URL을 얻습니다.
// 삭제된 상품은 수집 결과에 원래 이름이 없으므로 직전 스냅샷의 값을 우선합니다.
func productNameURL(e watcher.Event) (name, url string) {
	if e.Prev != nil {
		name, url = e.Prev.Name, e.Prev.URL
	}
	if e.Product != nil {
		if e.Product.Status != product.StatusDeleted && e.Product.Name != "" {
			name = e.Product.Name
		}
		if e.Product.URL != "" {
			url = e.Product.URL
		}
	}
	if name == "" {
		name = e.EntityID
	}
	return name, url
}

func currency(e watcher.Event) string {
	if e.Product != nil && e.Product.Price.Currency != "" {
		return e.Product.Price.Currency
	}
	if e.Prev != nil {
		return e.Prev.Currency
	}
	return ""
}

func currentPrice(e watcher.Event) float64 {
	if e.Product != nil {
		return e.Product.Price.Price
	}
	return 0
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// formatPrice 가격을 천 단위 구분 기호가 포함된 문자열로 변환합니다.
// 원화는 "1,234원", 그 외 통화는 "1,234.56 AUD" 형식입니다.
func formatPrice(v float64, cur string) string {
	formatted := pricePrinter.Sprintf("%v", number.Decimal(v))
	switch cur {
	case "", "KRW":
		return formatted + "원"
	default:
		return formatted + " " + cur
	}
}
