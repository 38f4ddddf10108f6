// Package notification 감시 이벤트를 텔레그램 메시지로 발송합니다.
package notification

import (
	"context"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/darkkaiser/price-watcher/internal/config"
	apperrors "github.com/darkkaiser/price-watcher/internal/pkg/errors"
	"github.com/darkkaiser/price-watcher/internal/watcher"
	applog "github.com/darkkaiser/price-watcher/pkg/log"
)

// component 로깅용 컴포넌트 이름
const component = "notification.telegram"

const (
	// messageMaxLength 텔레그램 메시지 하나에 허용하는 최대 바이트 길이.
	// Bot API의 공식 제한은 4096이지만 HTML 태그 오버헤드를 고려하여
	// 안전 마진을 두고 3900으로 설정합니다. 초과분은 분할 전송됩니다.
	messageMaxLength = 3900

	// httpClientTimeout 텔레그램 API HTTP 요청 타임아웃
	httpClientTimeout = 30 * time.Second

	// sendTimeout 이벤트 묶음 하나의 발송에 허용하는 최대 시간.
	// Rate Limit 대기와 재시도를 포함합니다.
	sendTimeout = 30 * time.Second

	// defaultRetryDelay 발송 실패 시 재시도 전 대기 시간
	defaultRetryDelay = 1 * time.Second

	// 텔레그램 API 정책(채팅방당 초당 1회)을 준수하기 위한 발송 속도 제한
	defaultRateLimit = 1
	defaultRateBurst = 5
)

// client 텔레그램 봇 API와의 통신을 추상화한 인터페이스입니다.
type client interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram 변동 이벤트를 텔레그램 채팅방으로 발송하는 Reporter 구현체입니다.
type Telegram struct {
	// chatID 메시지를 전송할 텔레그램 채팅방의 고유 식별자
	chatID int64

	client client

	// retryDelay API 호출 실패 시 재시도 전에 대기하는 시간.
	// 429 에러로 서버가 Retry-After를 지정하면 그 값이 우선합니다.
	retryDelay time.Duration

	// rateLimiter 텔레그램 API 호출 속도를 제어하는 Rate Limiter
	rateLimiter *rate.Limiter
}

var _ watcher.Reporter = (*Telegram)(nil)

// NewTelegram 봇 토큰을 검증하고 텔레그램 Reporter를 생성합니다.
// 생성 과정에서 getMe API가 호출되므로 네트워크 연결이 필요합니다.
func NewTelegram(cfg config.TelegramConfig) (*Telegram, error) {
	httpClient := &http.Client{
		Timeout: httpClientTimeout,
	}

	botAPI, err := tgbotapi.NewBotAPIWithClient(cfg.BotToken, tgbotapi.APIEndpoint, httpClient)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.InvalidInput,
			"텔레그램 봇 API 클라이언트 초기화에 실패했습니다. bot_token이 올바른지 확인해주세요")
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"bot_username": botAPI.Self.UserName,
		"chat_id":      cfg.ChatID,
	}).Info("텔레그램 봇 API 클라이언트 초기화 완료")

	return &Telegram{
		chatID:      cfg.ChatID,
		client:      botAPI,
		retryDelay:  defaultRetryDelay,
		rateLimiter: rate.NewLimiter(rate.Limit(defaultRateLimit), defaultRateBurst),
	}, nil
}

// Report 한 상품의 변동 이벤트 묶음을 메시지 하나로 구성하여 발송합니다.
// 발송 실패는 로그로만 남기며, 감시 주기에 영향을 주지 않습니다.
func (t *Telegram) Report(ctx context.Context, events []watcher.Event) {
	message := buildMessage(events)
	if message == "" {
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	t.sendMessage(sendCtx, message)
}
