package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/darkkaiser/price-watcher/internal/pkg/errors"
)

const validConfigJSON = `{
	"debug": true,
	"notifier": {
		"telegram": {
			"bot_token": "123456789:ABCdefGHIjklMNOpqrSTUvwxYZ1234567890",
			"chat_id": 123456789
		}
	},
	"watch": {
		"products": [
			{
				"id": "airpods",
				"vendor": "coupang",
				"item_url": "https://www.coupang.com/vp/products/7958207967"
			},
			{
				"id": "milk",
				"vendor": "gs_the_fresh",
				"item_url": "https://woodongs.com/link?itemCode=8801234567890",
				"interval_minutes": 30,
				"device": {"store": "GA24"}
			}
		]
	},
	"api": {
		"listen_port": 8888,
		"app_key": "test-app-key"
	}
}`

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), DefaultFilename)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

// TestLoadWithFile 설정 파일을 로드하면 기본값 위에 파일 값이 덮어써집니다.
func TestLoadWithFile(t *testing.T) {
	cfg, err := LoadWithFile(writeConfigFile(t, validConfigJSON))
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.Equal(t, int64(123456789), cfg.Notifier.Telegram.ChatID)
	require.Len(t, cfg.Watch.Products, 2)

	// 파일에 없는 항목은 기본값이 유지된다.
	assert.Equal(t, DefaultIntervalMinutes, cfg.Watch.IntervalMinutes)
	assert.Equal(t, DefaultPriceChangePeriodHours, cfg.Watch.PriceChangePeriodHours)
	assert.Equal(t, 3, cfg.Fetch.MaxRetries)
	assert.Equal(t, "snapshots", cfg.Storage.Dir)

	// 상품별 주기: 지정 시 상품값, 미지정 시 공통값
	assert.Equal(t, DefaultIntervalMinutes, cfg.Watch.Products[0].Interval(cfg.Watch.IntervalMinutes))
	assert.Equal(t, 30, cfg.Watch.Products[1].Interval(cfg.Watch.IntervalMinutes))
}

// TestLoadWithFile_FileNotFound 설정 파일이 없으면 System 에러를 반환합니다.
func TestLoadWithFile_FileNotFound(t *testing.T) {
	t.Parallel()

	_, err := LoadWithFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.System))
}

// TestLoadWithFile_EnvOverride 환경 변수가 설정 파일 값을 덮어씁니다.
func TestLoadWithFile_EnvOverride(t *testing.T) {
	t.Setenv("PRICEWATCHER_API__LISTEN_PORT", "9999")
	t.Setenv("PRICEWATCHER_DEBUG", "false")

	cfg, err := LoadWithFile(writeConfigFile(t, validConfigJSON))
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.API.ListenPort)
	assert.False(t, cfg.Debug)
}

// TestLoadWithFile_Invalid 정합성이 깨진 설정은 로드 단계에서 거부됩니다.
func TestLoadWithFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  string
		wantErr string
	}{
		{
			name: "잘못된 텔레그램 봇 토큰 형식",
			mutate: `{
				"notifier": {"telegram": {"bot_token": "invalid", "chat_id": 1}},
				"watch": {"products": []},
				"api": {"listen_port": 8888, "app_key": "k"}
			}`,
			wantErr: "bot_token",
		},
		{
			name: "중복된 상품 ID",
			mutate: `{
				"notifier": {"telegram": {"bot_token": "123456789:ABCdefGHIjklMNOpqrSTUvwxYZ1234567890", "chat_id": 1}},
				"watch": {"products": [
					{"id": "a", "vendor": "coupang", "item_url": "https://example.com/1"},
					{"id": "a", "vendor": "kurly", "item_url": "https://example.com/2"}
				]},
				"api": {"listen_port": 8888, "app_key": "k"}
			}`,
			wantErr: "중복된 감시 상품 ID",
		},
		{
			name: "상품 URL 누락",
			mutate: `{
				"notifier": {"telegram": {"bot_token": "123456789:ABCdefGHIjklMNOpqrSTUvwxYZ1234567890", "chat_id": 1}},
				"watch": {"products": [{"id": "a", "vendor": "coupang"}]},
				"api": {"listen_port": 8888, "app_key": "k"}
			}`,
			wantErr: "item_url",
		},
		{
			name: "API 인증 키 누락",
			mutate: `{
				"notifier": {"telegram": {"bot_token": "123456789:ABCdefGHIjklMNOpqrSTUvwxYZ1234567890", "chat_id": 1}},
				"watch": {"products": []},
				"api": {"listen_port": 8888, "app_key": " "}
			}`,
			wantErr: "app_key",
		},
		{
			name: "구조체에 없는 설정 키",
			mutate: `{
				"unknown_section": true,
				"notifier": {"telegram": {"bot_token": "123456789:ABCdefGHIjklMNOpqrSTUvwxYZ1234567890", "chat_id": 1}},
				"watch": {"products": []},
				"api": {"listen_port": 8888, "app_key": "k"}
			}`,
			wantErr: "변환",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadWithFile(writeConfigFile(t, tt.mutate))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// TestVerifyRecommendations 경고 대상 설정에 대한 진단 메시지를 반환합니다.
func TestVerifyRecommendations(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.API.ListenPort = 80
	cfg.Watch.Products = []ProductConfig{
		{ID: "fast", Vendor: "coupang", ItemURL: "https://example.com", IntervalMinutes: 1},
	}

	warnings := cfg.VerifyRecommendations()
	assert.Len(t, warnings, 2)
}
