// Package config 애플리케이션 설정의 로드와 유효성 검증을 담당합니다.
//
// 설정은 JSON 설정 파일을 기반으로 하며, PRICEWATCHER_ 접두사의 환경 변수로
// 개별 항목을 덮어쓸 수 있습니다. 로드 직후 validator를 통한 정합성 검증이
// 수행되어, 잘못된 설정은 서비스 기동 전에 거부됩니다.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	apperrors "github.com/darkkaiser/price-watcher/internal/pkg/errors"
)

const (
	// AppName 애플리케이션의 전역 고유 식별자입니다.
	AppName string = "price-watcher"

	// DefaultFilename 실행 인자로 경로가 주어지지 않았을 때 탐색하는 기본 설정 파일명입니다.
	DefaultFilename = AppName + ".json"
)

// 수집/감시 주기의 기본값
const (
	// DefaultIntervalMinutes 상품별 수집 주기(분) 기본값
	DefaultIntervalMinutes = 10

	// DefaultPriceChangePeriodHours 가격 변동 판정에 사용하는 최근성 창(시간) 기본값
	DefaultPriceChangePeriodHours = 30
)

// AppConfig 애플리케이션의 모든 설정을 관장하는 최상위 루트 구조체
type AppConfig struct {
	Debug    bool           `json:"debug"`
	Fetch    FetchConfig    `json:"fetch"`
	Storage  StorageConfig  `json:"storage"`
	Notifier NotifierConfig `json:"notifier"`
	Watch    WatchConfig    `json:"watch"`
	API      APIConfig      `json:"api"`
}

// validate 설정 파일 로드 직후, 각 설정 항목의 정합성과 필수 값의 유효성을 검증합니다.
func (c *AppConfig) validate(v *validator.Validate) error {
	if err := c.Fetch.validate(); err != nil {
		return err
	}

	if err := c.Storage.validate(); err != nil {
		return err
	}

	if err := c.Notifier.validate(v); err != nil {
		return err
	}

	if err := c.Watch.validate(v); err != nil {
		return err
	}

	if err := c.API.validate(v); err != nil {
		return err
	}

	return nil
}

// VerifyRecommendations 서비스 운영의 안정성과 보안을 위해 권장되는 설정 준수 여부를 진단합니다.
// 강제적인 에러를 발생시키지는 않으나, 잠재적 위험 요소에 대한 경고 메시지를 반환합니다.
func (c *AppConfig) VerifyRecommendations() []string {
	var warnings []string

	// 시스템 예약 포트(1024 미만) 사용 경고
	if c.API.ListenPort < 1024 {
		warnings = append(warnings, fmt.Sprintf("시스템 예약 포트(1-1023)를 사용하도록 설정되었습니다(port: %d). 이 경우 서버 구동 시 관리자 권한이 필요할 수 있습니다", c.API.ListenPort))
	}

	// 수집 주기가 지나치게 짧으면 판매처 차단 위험이 있다
	for _, p := range c.Watch.Products {
		if interval := p.Interval(c.Watch.IntervalMinutes); interval < 2 {
			warnings = append(warnings, fmt.Sprintf("상품['%s']의 수집 주기(%d분)가 매우 짧습니다. 판매처의 요청 차단 대상이 될 수 있습니다", p.ID, interval))
		}
	}

	return warnings
}

// FetchConfig 판매처 페이지 수집 시의 재시도/속도 제한 정책을 정의하는 설정 구조체
type FetchConfig struct {
	MaxRetries        int     `json:"max_retries"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	Burst             int     `json:"burst"`
}

func (c *FetchConfig) validate() error {
	if c.MaxRetries < 0 {
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("수집 재시도 횟수(max_retries)는 0 이상이어야 합니다: %d", c.MaxRetries))
	}
	if c.RequestsPerSecond < 0 {
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("초당 요청 수 제한(requests_per_second)은 0 이상이어야 합니다: %v", c.RequestsPerSecond))
	}
	return nil
}

// StorageConfig 상품 스냅샷 파일이 저장되는 디렉토리 설정 구조체
type StorageConfig struct {
	Dir string `json:"dir"`
}

func (c *StorageConfig) validate() error {
	if strings.TrimSpace(c.Dir) == "" {
		return apperrors.New(apperrors.InvalidInput, "스냅샷 저장 디렉토리(storage.dir)가 설정되지 않았습니다")
	}
	return nil
}

// NotifierConfig 가격 변동 알림 채널을 정의하는 설정 구조체
type NotifierConfig struct {
	Telegram TelegramConfig `json:"telegram"`
}

func (c *NotifierConfig) validate(v *validator.Validate) error {
	return checkStruct(v, c.Telegram, "Telegram Notifier")
}

// TelegramConfig 텔레그램 봇 토큰 및 채팅 ID 정보를 담는 설정 구조체
type TelegramConfig struct {
	BotToken string `json:"bot_token" validate:"required,telegram_bot_token"`
	ChatID   int64  `json:"chat_id" validate:"required"`
}

// WatchConfig 감시 대상 상품 목록과 공통 주기를 정의하는 설정 구조체
type WatchConfig struct {
	// IntervalMinutes 상품별 주기가 지정되지 않았을 때 적용되는 공통 수집 주기(분)
	IntervalMinutes int `json:"interval_minutes"`

	// PriceChangePeriodHours 가격 변동 판정의 최근성 창(시간).
	// 직전 성공 수집이 이 창보다 오래됐으면 가격 비교를 수행하지 않습니다.
	PriceChangePeriodHours int `json:"price_change_period_hours"`

	Products []ProductConfig `json:"products" validate:"unique=ID"`
}

func (c *WatchConfig) validate(v *validator.Validate) error {
	if c.IntervalMinutes <= 0 {
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("공통 수집 주기(interval_minutes)는 1 이상이어야 합니다: %d", c.IntervalMinutes))
	}
	if c.PriceChangePeriodHours <= 0 {
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("가격 변동 판정 창(price_change_period_hours)은 1 이상이어야 합니다: %d", c.PriceChangePeriodHours))
	}

	// 상품 중복 ID 검사
	if err := checkUniqueField(v, c.Products, "ID", "감시 상품"); err != nil {
		return err
	}

	for _, p := range c.Products {
		if err := checkStruct(v, p, fmt.Sprintf("감시 상품['%s']", p.ID)); err != nil {
			return err
		}
		if p.IntervalMinutes < 0 {
			return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("감시 상품['%s']의 수집 주기(interval_minutes)는 0(공통값 사용) 이상이어야 합니다: %d", p.ID, p.IntervalMinutes))
		}
	}

	return nil
}

// ProductConfig 감시 대상 상품 하나를 정의하는 구조체
//
// Vendor는 판매처 코드("coupang", "kurly" 등)이며, 실제 지원 여부는
// 엔진 레지스트리를 보유한 watcher 서비스가 기동 시점에 검증합니다.
type ProductConfig struct {
	ID              string            `json:"id" validate:"required"`
	Vendor          string            `json:"vendor" validate:"required"`
	ItemURL         string            `json:"item_url" validate:"required,url"`
	IntervalMinutes int               `json:"interval_minutes"`
	Device          map[string]string `json:"device"`
	Data            map[string]any    `json:"data"`
}

// Interval 상품의 수집 주기(분)를 반환합니다. 지정되지 않은 경우 공통값을 사용합니다.
func (p *ProductConfig) Interval(defaultMinutes int) int {
	if p.IntervalMinutes > 0 {
		return p.IntervalMinutes
	}
	return defaultMinutes
}

// APIConfig 상태 조회 REST API 서버 설정 구조체
type APIConfig struct {
	ListenPort   int      `json:"listen_port" validate:"min=1,max=65535"`
	AppKey       string   `json:"app_key"`
	AllowOrigins []string `json:"allow_origins"`

	RateLimitPerSecond float64 `json:"rate_limit_per_second"`
	RateLimitBurst     int     `json:"rate_limit_burst"`
}

func (c *APIConfig) validate(v *validator.Validate) error {
	if err := v.Struct(c); err != nil {
		return apperrors.Wrap(err, apperrors.InvalidInput, "API 서버 포트(listen_port)는 1에서 65535 사이의 값이어야 합니다")
	}

	if strings.TrimSpace(c.AppKey) == "" {
		return apperrors.New(apperrors.InvalidInput, "API 인증 키(api.app_key)가 설정되지 않았습니다")
	}

	if len(c.AllowOrigins) == 0 {
		return apperrors.New(apperrors.InvalidInput, "CORS 허용 도메인(allow_origins) 목록이 비어있습니다")
	}
	for _, origin := range c.AllowOrigins {
		if origin == "*" && len(c.AllowOrigins) > 1 {
			return apperrors.New(apperrors.InvalidInput, "와일드카드(*)는 다른 도메인과 함께 사용할 수 없습니다. 모든 도메인을 허용하려면 와일드카드만 설정하세요")
		}
	}

	return nil
}

// defaultConfig 설정 파일보다 낮은 우선순위로 적용되는 기본값입니다.
func defaultConfig() AppConfig {
	return AppConfig{
		Fetch: FetchConfig{
			MaxRetries:        3,
			RequestsPerSecond: 2,
			Burst:             4,
		},
		Storage: StorageConfig{
			Dir: "snapshots",
		},
		Watch: WatchConfig{
			IntervalMinutes:        DefaultIntervalMinutes,
			PriceChangePeriodHours: DefaultPriceChangePeriodHours,
		},
		API: APIConfig{
			ListenPort:         8888,
			AllowOrigins:       []string{"*"},
			RateLimitPerSecond: 20,
			RateLimitBurst:     40,
		},
	}
}

// Load 기본 설정 파일을 읽어 애플리케이션 설정을 로드합니다.
func Load() (*AppConfig, error) {
	return LoadWithFile(DefaultFilename)
}

// LoadWithFile 지정된 경로의 설정 파일을 읽어 AppConfig 객체를 생성합니다.
//
// 우선순위(낮음 → 높음): 기본값 → JSON 설정 파일 → 환경 변수(PRICEWATCHER_)
func LoadWithFile(filename string) (*AppConfig, error) {
	k := koanf.New(".")

	// 1. 기본값 로드 (가장 낮은 우선순위)
	if err := k.Load(structs.Provider(defaultConfig(), "json"), nil); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "애플리케이션 기본 설정 로드에 실패했습니다")
	}

	// 2. JSON 설정 파일 로드 (기본값 덮어쓰기)
	if err := k.Load(file.Provider(filename), json.Parser()); err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Wrap(err, apperrors.System, fmt.Sprintf("설정 파일을 찾을 수 없습니다: '%s'", filename))
		}
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("설정 파일 로드 중 오류가 발생했습니다: '%s'", filename))
	}

	// 3. 환경 변수 로드 (최우선 순위, JSON 설정 덮어쓰기)
	// 접두사: PRICEWATCHER_
	// 구분자: 이중 언더스코어(__)를 점(.)으로 변환 (계층 구조 표현)
	// 예: PRICEWATCHER_API__LISTEN_PORT -> api.listen_port
	if err := k.Load(env.Provider("PRICEWATCHER_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "PRICEWATCHER_")
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "환경 변수 로드에 실패했습니다")
	}

	// 4. 구조체 언마샬링 (Strict Validation 적용)
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "json",
		DecoderConfig: &mapstructure.DecoderConfig{
			ErrorUnused:      true, // 파일에 존재하지만 구조체에 없는 필드가 있을 경우 에러를 발생시킴
			WeaklyTypedInput: true,
		},
	}
	var appConfig AppConfig
	if err := k.UnmarshalWithConf("", &appConfig, unmarshalConf); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "설정 데이터를 애플리케이션 구조체로 변환하는데 실패했습니다")
	}

	// 5. 유효성 검사 수행 (정합성 체크)
	if err := appConfig.validate(newValidator()); err != nil {
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("설정 파일('%s')의 유효성 검증에 실패했습니다", filename))
	}

	return &appConfig, nil
}
