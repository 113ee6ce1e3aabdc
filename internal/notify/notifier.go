// Package notify はセッションイベントの外部Webhook通知を提供する。
package notify

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/oyaguma3/subscriber-radius/internal/config"
	"github.com/oyaguma3/subscriber-radius/pkg/model"
	"github.com/sony/gobreaker"
)

// イベント種別
const (
	EventSessionStarted      = "session_started"
	EventSessionStopped      = "session_stopped"
	EventSessionDisconnected = "session_disconnected"
)

// Notifier はセッションイベント通知のインターフェース。
// 通知は常にベストエフォートで、失敗してもRADIUS処理には影響しない。
type Notifier interface {
	// SessionEvent はセッションイベントを通知する
	SessionEvent(ctx context.Context, event string, sess *model.Session)
}

// eventPayload はWebhookへ送るJSONボディ
type eventPayload struct {
	Event     string         `json:"event"`
	Timestamp int64          `json:"timestamp"`
	Session   *model.Session `json:"session"`
}

// WebhookNotifier はHTTP WebhookへのNotifier実装
type WebhookNotifier struct {
	httpClient *resty.Client
	cb         *gobreaker.CircuitBreaker
	url        string
}

// NewWebhookNotifier は新しいWebhookNotifierを生成する。
// 通知先URLが空の場合はNopNotifierを返す。
func NewWebhookNotifier(cfg *config.Config) Notifier {
	if cfg.NotifyWebhookURL == "" {
		return NopNotifier{}
	}

	httpClient := resty.New().
		SetTimeout(config.NotifyRequestTimeout)

	cbSettings := gobreaker.Settings{
		Name:        config.CBName,
		MaxRequests: config.CBMaxRequests,
		Interval:    config.CBInterval,
		Timeout:     config.CBTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(config.CBFailureThreshold)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			switch to {
			case gobreaker.StateOpen:
				slog.Warn("circuit breaker opened",
					"event_id", "CB_OPEN",
					"cb_name", name,
				)
			case gobreaker.StateHalfOpen:
				slog.Info("circuit breaker half-open",
					"event_id", "CB_HALF_OPEN",
					"cb_name", name,
				)
			case gobreaker.StateClosed:
				slog.Info("circuit breaker closed",
					"event_id", "CB_CLOSE",
					"cb_name", name,
				)
			}
		},
	}

	return &WebhookNotifier{
		httpClient: httpClient,
		cb:         gobreaker.NewCircuitBreaker(cbSettings),
		url:        strings.TrimRight(cfg.NotifyWebhookURL, "/"),
	}
}

// SessionEvent はセッションイベントをWebhookへPOSTする
func (n *WebhookNotifier) SessionEvent(ctx context.Context, event string, sess *model.Session) {
	payload := &eventPayload{
		Event:     event,
		Timestamp: time.Now().Unix(),
		Session:   sess,
	}

	start := time.Now()
	_, err := n.cb.Execute(func() (any, error) {
		resp, err := n.httpClient.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(payload).
			Post(n.url)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() >= 500 {
			return nil, &statusError{code: resp.StatusCode()}
		}
		return nil, nil
	})

	latencyMs := time.Since(start).Milliseconds()
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			slog.Warn("notify skipped: circuit open",
				"event_id", "NOTIFY_CB_OPEN",
				"session_id", sess.UUID,
				"event", event,
			)
			return
		}
		slog.Warn("notify failed",
			"event_id", "NOTIFY_ERR",
			"session_id", sess.UUID,
			"event", event,
			"latency_ms", latencyMs,
			"error", err,
		)
		return
	}

	slog.Debug("notify sent",
		"event_id", "NOTIFY_SENT",
		"session_id", sess.UUID,
		"event", event,
		"latency_ms", latencyMs,
	)
}

// statusError はWebhookの5xx応答を表す
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return "webhook returned status " + strconv.Itoa(e.code)
}

// NopNotifier は通知を行わないNotifier実装
type NopNotifier struct{}

// SessionEvent は何もしない
func (NopNotifier) SessionEvent(_ context.Context, _ string, _ *model.Session) {}
