package notification

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	applog "github.com/darkkaiser/price-watcher/pkg/log"
)

// sendMessage 긴 메시지를 텔레그램 API 제한에 맞춰 분할하여 전송합니다.
//
// 단순히 바이트 단위로 자르면 문장이 중간에 끊기거나 멀티바이트 문자가
// 깨질 수 있으므로, 가능한 한 줄바꿈 단위로 나누고 한 줄 자체가 제한을
// 초과하는 경우에만 UTF-8 문자 경계에서 강제 분할합니다.
// 중간 청크의 전송이 실패하면 나머지 청크는 전송하지 않습니다.
func (t *Telegram) sendMessage(ctx context.Context, message string) {
	if len(message) <= messageMaxLength {
		_ = t.sendChunk(ctx, message)
		return
	}

	var sb strings.Builder
	sb.Grow(messageMaxLength)

	for line := range strings.SplitSeq(message, "\n") {
		if ctx.Err() != nil {
			return
		}

		neededSpace := len(line)
		if sb.Len() > 0 {
			neededSpace++ // 줄바꿈 문자
		}

		if sb.Len()+neededSpace > messageMaxLength {
			if sb.Len() > 0 {
				if err := t.sendChunk(ctx, sb.String()); err != nil {
					return
				}
				sb.Reset()
			}

			// 한 줄 자체가 제한을 초과하면 문자 경계에서 강제로 자른다.
			if len(line) > messageMaxLength {
				currentLine := line
				for len(currentLine) > messageMaxLength {
					if ctx.Err() != nil {
						return
					}

					chunk, remainder := safeSplit(currentLine, messageMaxLength)
					if err := t.sendChunk(ctx, chunk); err != nil {
						return
					}
					currentLine = remainder
				}
				sb.WriteString(currentLine)
			} else {
				sb.WriteString(line)
			}
		} else {
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(line)
		}
	}

	if sb.Len() > 0 {
		_ = t.sendChunk(ctx, sb.String())
	}
}

func (t *Telegram) sendChunk(ctx context.Context, message string) error {
	return t.attemptSendWithRetry(ctx, message, true)
}

// attemptSendWithRetry 텔레그램 메시지 전송을 시도하며 실패 시 재시도합니다.
//
//   - Rate Limiter를 통과한 후 최대 3회까지 전송을 시도합니다.
//   - HTML 파싱 실패(400)는 PlainText 모드로 전환하여 재귀 재시도합니다.
//     메시지 내용은 그대로 유지하고 파싱 모드만 바뀝니다.
//   - 그 외 4xx 에러는 재시도하지 않습니다. 단 429는 서버가 지정한
//     Retry-After만큼 대기한 후 재시도합니다.
//   - 재시도 대기 중에도 컨텍스트 취소에 즉시 반응합니다.
func (t *Telegram) attemptSendWithRetry(ctx context.Context, message string, useHTML bool) error {
	messageConfig := tgbotapi.NewMessage(t.chatID, message)
	if useHTML {
		messageConfig.ParseMode = tgbotapi.ModeHTML
	}

	if err := t.rateLimiter.Wait(ctx); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"error": err,
		}).Debug("발송 중단: Rate Limiter 대기 중 컨텍스트가 취소되었습니다")
		return err
	}

	const maxRetries = 3
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				applog.WithComponentAndFields(component, applog.Fields{
					"error":   ctx.Err(),
					"attempt": attempt,
				}).Error("발송 중단: 발송 제한 시간을 초과하였습니다")
			}
			return ctx.Err()
		default:
		}

		_, err := t.client.Send(messageConfig)
		if err == nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"chat_id":        t.chatID,
				"attempt":        attempt,
				"mode":           formatParseMode(messageConfig.ParseMode),
				"message_length": len(message),
			}).Info("텔레그램 메시지 발송 성공")
			return nil
		}

		lastErr = err
		errCode, retryAfter := parseTelegramError(err)

		// 400 에러는 대부분 HTML 파싱 실패(닫히지 않은 태그 등)이므로
		// PlainText 모드로 전환하여 전송을 보장한다.
		if useHTML && errCode == 400 {
			applog.WithComponentAndFields(component, applog.Fields{
				"error":   err,
				"attempt": attempt,
			}).Warn("HTML 파싱 오류(400): PlainText 모드로 전환하여 재시도합니다")

			return t.attemptSendWithRetry(ctx, message, false)
		}

		if !shouldRetry(errCode) {
			applog.WithComponentAndFields(component, applog.Fields{
				"chat_id": t.chatID,
				"error":   err,
				"code":    errCode,
			}).Error("발송 중단: 재시도가 불가능한 API 오류가 발생했습니다")
			return err
		}

		if attempt >= maxRetries {
			break
		}

		applog.WithComponentAndFields(component, applog.Fields{
			"error":       err,
			"code":        errCode,
			"retry_after": retryAfter,
			"attempt":     attempt,
		}).Warn("텔레그램 메시지 발송 실패 (재시도 예정)")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(t.delayForRetry(retryAfter)):
		}
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"chat_id":        t.chatID,
		"error":          lastErr,
		"max_retries":    maxRetries,
		"message_length": len(message),
	}).Error("발송 최종 실패: 최대 재시도 횟수를 초과하였습니다")

	return lastErr
}

// shouldRetry HTTP 상태 코드로 재시도 가능 여부를 판단합니다.
// 4xx는 클라이언트 오류이므로 재시도하지 않되, 429(Rate Limit)는 예외입니다.
// 5xx와 네트워크 에러(코드 0)는 일시적 문제로 보고 재시도합니다.
func shouldRetry(statusCode int) bool {
	if statusCode >= 400 && statusCode < 500 {
		return statusCode == 429
	}
	return true
}

// delayForRetry 다음 재시도까지의 대기 시간을 계산합니다.
// 서버가 Retry-After(초)를 지정한 경우 그 값을 우선 사용합니다.
func (t *Telegram) delayForRetry(retryAfter int) time.Duration {
	if retryAfter > 0 {
		return time.Duration(retryAfter) * time.Second
	}
	return t.retryDelay
}

func formatParseMode(mode string) string {
	if mode == tgbotapi.ModeHTML {
		return "HTML"
	}
	return "PlainText"
}

// parseTelegramError 텔레그램 API 에러에서 HTTP 상태 코드와
// Retry-After 값을 추출합니다. 텔레그램 에러가 아니면 (0, 0)입니다.
func parseTelegramError(err error) (code int, retryAfter int) {
	if apiErr, ok := err.(tgbotapi.Error); ok {
		return apiErr.Code, apiErr.ResponseParameters.RetryAfter
	}
	if apiErrPtr, ok := err.(*tgbotapi.Error); ok {
		return apiErrPtr.Code, apiErrPtr.ResponseParameters.RetryAfter
	}
	return 0, 0
}

// safeSplit 문자열을 limit 바이트 이내에서 분할하되,
// UTF-8 멀티바이트 문자가 경계에서 깨지지 않도록 보장합니다.
func safeSplit(s string, limit int) (chunk, remainder string) {
	if len(s) <= limit {
		return s, ""
	}

	// limit 위치가 멀티바이트 문자의 중간일 수 있으므로
	// 뒤로 이동하며 가장 가까운 룬 시작 위치를 찾는다.
	splitIndex := limit
	for splitIndex > 0 && !utf8.RuneStart(s[splitIndex]) {
		splitIndex--
	}

	// limit 이전에 유효한 룬 시작점이 없으면 강제로 자른다.
	if splitIndex == 0 {
		return s[:limit], s[limit:]
	}

	return s[:splitIndex], s[splitIndex:]
}
