package coupang

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	apperrors "github.com/darkkaiser/price-watcher/internal/pkg/errors"
	"github.com/darkkaiser/price-watcher/internal/product"
	"github.com/darkkaiser/price-watcher/pkg/strutil"
)

// successCode 모듈러 API의 정상 응답 코드
const successCode = "RET0000"

// unknownProductName 상품명 위젯을 찾지 못했을 때의 대체값
const unknownProductName = "Unknown (Coupang)"

var (
	// unitPattern "(100g당 1,250원)" 형식의 단위가격 문구
	unitPattern = regexp.MustCompile(`^\((?P<per>[\d,]+)(?P<unit_type>g|개|ml|kg|l)당 (?P<price>[\d,]+)원\)$`)

	// arrivePattern 일반배송의 도착 예정일 문구 ("수요일 1/15 도착 예정")
	arrivePattern = regexp.MustCompile(`^([월화수목금토일])요일 (\d{1,2}/\d{1,2})`)
)

// metaPaths 상품 속성이 흩어져 있는 노출 스키마 경로들입니다.
// 같은 키가 여러 경로에 존재하면 뒤의 경로가 앞의 값을 덮어씁니다.
var metaPaths = []string{
	"rData.properties.pageSession.logging.exposureSchema.mandatory",
	"rData.properties.pageSession.logging.bypass.exposureSchema.mandatory",
	"rData.properties.itemDetail.logging.exposureSchema.mandatory",
	"rData.properties.itemDetail.logging.bypass.exposureSchema.mandatory",
	"rData.properties.itemDetail.handleBarLogging.bypass.exposureSchema.mandatory",
}

// payload 모듈러 API 응답에서 추출에 필요한 위젯 목록과 노출 스키마를 모은 중간 구조입니다.
type payload struct {
	atf  gjson.Result            // PAGE_ATF 페이지의 위젯 목록 (상품명, 대표 이미지)
	base gjson.Result            // PAGE_HANDLEBAR(또는 PAGE_FASHION_HANDLEBAR)의 위젯 목록 (가격, 배송)
	meta map[string]gjson.Result // 병합된 노출 스키마 (brandName, rocketType, unitPrice, 재고 플래그)
}

func parsePayload(text string) (*payload, error) {
	root := gjson.Parse(text)

	if rCode := root.Get("rCode").String(); rCode != successCode {
		return nil, apperrors.Newf(apperrors.ParsingFailed,
			"쿠팡 응답 코드가 유효하지 않습니다 (rCode: %s)", rCode)
	}

	pages := root.Get("rData.pageList")

	base := pages.Get(`#(page=="PAGE_HANDLEBAR").widgetList`)
	if !base.Exists() {
		base = pages.Get(`#(page=="PAGE_FASHION_HANDLEBAR").widgetList`)
	}

	meta := make(map[string]gjson.Result)
	for _, path := range metaPaths {
		root.Get(path).ForEach(func(key, value gjson.Result) bool {
			meta[key.String()] = value
			return true
		})
	}

	return &payload{
		atf:  pages.Get(`#(page=="PAGE_ATF").widgetList`),
		base: base,
		meta: meta,
	}, nil
}

func (p *payload) metaString(key string) string {
	return p.meta[key].String()
}

func (p *payload) metaBool(key string) bool {
	return p.meta[key].Bool()
}

func (p *payload) name() string {
	if v := p.atf.Get(`#(entity.viewType=="PRODUCT_DETAIL_PRODUCT_INFO").entity.title.0.text`); v.Exists() {
		return v.String()
	}
	return unknownProductName
}

func (p *payload) brand() string {
	return p.metaString("brandName")
}

func (p *payload) image() string {
	return p.atf.Get(`#(entity.viewType=="PRODUCT_DETAIL_ITEM_THUMBNAILS").entity.medias.0.detail`).String()
}

func (p *payload) price() product.Price {
	baseInfo := p.base.Get(`#(entity.viewType=="PRODUCT_DETAIL_BASE_INFO")`)
	return product.NewPriceWithOriginal(
		baseInfo.Get("priceInfo.finalPrice.0").Float(),
		"KRW",
		baseInfo.Get("priceInfo.originalPrice.0").Float(),
	)
}

// unit 노출 스키마의 unitPrice 문구에서 단위가격을 추출합니다.
// 문구가 없거나 형식이 다르면 판매가 기준 기본 단위로 처리합니다.
func (p *payload) unit(price product.Price) product.Unit {
	m := unitPattern.FindStringSubmatch(p.metaString("unitPrice"))
	if m == nil {
		return product.NewUnit(price.Price, product.UnitPiece, 1)
	}

	per, _ := strutil.ExtractNumber(m[unitPattern.SubexpIndex("per")])
	unitPrice, _ := strutil.ExtractNumber(m[unitPattern.SubexpIndex("price")])

	return product.NewUnitWithTotal(
		unitPrice,
		product.UnitTypeOf(m[unitPattern.SubexpIndex("unit_type")]),
		per,
		price.Price,
	)
}

func (p *payload) inventory() product.InventoryStatus {
	switch {
	case p.metaBool("isOutOfStock"):
		return product.OutOfStock
	case p.metaBool("isAlmostOSS"):
		return product.AlmostSoldOut
	default:
		return product.InStock
	}
}

// deliveryMessage 도착 예정일 위젯의 문구들을 이어 붙여 반환합니다.
func (p *payload) deliveryMessage() string {
	var sb strings.Builder
	p.base.Get(`#(entity.viewType=="PRODUCT_DETAIL_HANDLEBAR_QUANTITY").entity.deliveryDate.#.text`).
		ForEach(func(_, value gjson.Result) bool {
			sb.WriteString(value.String())
			return true
		})
	return sb.String()
}

// deliveryFee 배송비 문구들을 이어 붙여 반환합니다. ("배송비 3,000원" 등)
func (p *payload) deliveryFee() string {
	var sb strings.Builder
	p.base.Get(`#(entity.viewType=="PRODUCT_DETAIL_BASE_INFO").entity.deliveryInfo.shippingFee.#.text`).
		ForEach(func(_, value gjson.Result) bool {
			sb.WriteString(value.String())
			return true
		})
	return sb.String()
}

// delivery rocketType과 도착 예정 문구로 배송 방식을 분류합니다.
//
//   - ROCKET / ROCKET_MERCHANT(_V3): 로켓배송 → 문구의 "새벽" 여부로 새벽배송 세분화
//   - ROCKET_FRESH: 로켓프레시 → 15,000원 이상 무료배송 기준 포함
//   - COUPANG_GLOBAL: 직구 → 지연배송
//   - 그 외: 일반배송 → 문구의 "n요일 m/d" 날짜를 도착 예정일로 해석
func (p *payload) delivery(now time.Time) product.Delivery {
	rocketType := p.metaString("rocketType")
	message, _, _ := strings.Cut(p.deliveryMessage(), "\n")

	fee := 0.0
	if raw := p.deliveryFee(); raw != "" {
		cleaned := strings.NewReplacer("배송비", "", "원", "", ",", "", " ", "").Replace(raw)
		if v, ok := strutil.ExtractNumber(cleaned); ok {
			fee = v
		}
	}

	payType := product.DeliveryPayPaid
	if fee == 0 {
		payType = product.DeliveryPayFree
	}

	d := product.NewDelivery(fee, product.DeliveryStandard, payType)

	switch rocketType {
	case "ROCKET", "ROCKET_MERCHANT", "ROCKET_MERCHANT_V3", "ROCKET_FRESH":
		if rocketType == "ROCKET_FRESH" {
			d.Threshold = 15000
		}
		d.Type = product.DeliveryExpress
		if (strings.Contains(message, "오늘") || strings.Contains(message, "내일")) &&
			strings.Contains(message, "새벽") {
			d.Type = product.DeliveryDawn
		}
	case "COUPANG_GLOBAL":
		d.Type = product.DeliverySlow
	default:
		if m := arrivePattern.FindStringSubmatch(message); m != nil {
			if t, err := time.Parse("2006/1/2", fmt.Sprintf("%d/%s", now.Year(), m[2])); err == nil {
				d.ArriveDate = &t
			}
		}
	}

	return d
}
