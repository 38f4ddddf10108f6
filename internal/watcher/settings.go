package watcher

import (
	"github.com/go-viper/mapstructure/v2"

	apperrors "github.com/darkkaiser/price-watcher/internal/pkg/errors"
)

// productSettings 감시 상품의 선택적 추가 설정(data)입니다.
type productSettings struct {
	// PriceChangePeriodHours 이 상품에만 적용할 가격 변동 판정 창(시간).
	// 0이면 공통값을 사용합니다.
	PriceChangePeriodHours int `json:"price_change_period_hours"`
}

// decodeProductSettings 설정 파일의 자유 형식 data 맵을 productSettings로 변환합니다.
// 오타로 인한 설정 누락을 막기 위해 알 수 없는 키는 에러로 처리합니다.
func decodeProductSettings(data map[string]any) (*productSettings, error) {
	settings := &productSettings{}
	if len(data) == 0 {
		return settings, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           settings,
		TagName:          "json",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.Internal, "상품 추가 설정 디코더 생성에 실패했습니다")
	}

	if err := decoder.Decode(data); err != nil {
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, "상품 추가 설정(data)의 형식이 올바르지 않습니다")
	}

	return settings, nil
}
