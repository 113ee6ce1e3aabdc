// Package acct はAccounting要求の処理ロジックを提供する。
package acct

import (
	"context"
	"log/slog"

	"github.com/oyaguma3/subscriber-radius/internal/notify"
	"github.com/oyaguma3/subscriber-radius/internal/radius"
	"github.com/oyaguma3/subscriber-radius/internal/session"
	"github.com/oyaguma3/subscriber-radius/internal/store"
	"github.com/oyaguma3/subscriber-radius/pkg/apperr"
	"github.com/oyaguma3/subscriber-radius/pkg/model"
)

// Processor はAccounting処理のメインロジック。
type Processor struct {
	sessions *session.Manager
	damper   *Damper
	notifier notify.Notifier
}

// NewProcessor は新しいProcessorを生成する。
func NewProcessor(sessions *session.Manager, rs store.RetransmitStore, notifier notify.Notifier) *Processor {
	return &Processor{
		sessions: sessions,
		damper:   NewDamper(rs),
		notifier: notifier,
	}
}

// Process はAcct-Status-Typeに応じた処理を行う。
func (p *Processor) Process(ctx context.Context, attrs *radius.AccountingAttributes, srcIP, traceID string) error {
	switch attrs.StatusType {
	case radius.AcctStatusTypeStart:
		return p.processStart(ctx, attrs, srcIP, traceID)
	case radius.AcctStatusTypeStop:
		return p.processStop(ctx, attrs, srcIP, traceID)
	case radius.AcctStatusTypeInterim:
		return p.processInterim(ctx, attrs, srcIP, traceID)
	case radius.AcctStatusTypeAcctOn, radius.AcctStatusTypeAcctOff:
		return p.processOnOff(ctx, attrs, srcIP, traceID)
	default:
		slog.Warn("unknown accounting status type",
			"event_id", "ACCT_UNKNOWN_STATUS",
			"trace_id", traceID,
			"src_ip", srcIP,
			"status_type", attrs.StatusType,
		)
		return ErrUnknownStatusType
	}
}

// resolve は要求属性からセッションを特定する。Class属性のUUIDを優先し、
// なければAcct-Session-Idインデックスを引く。
func (p *Processor) resolve(attrs *radius.AccountingAttributes) (*model.Session, error) {
	if attrs.ClassUUID != "" {
		if sess, err := p.sessions.Get(attrs.ClassUUID); err == nil {
			return sess, nil
		}
	}
	if attrs.AcctSessionID != "" {
		if sess, err := p.sessions.LookupByAcctSessionID(attrs.AcctSessionID); err == nil {
			return sess, nil
		}
	}
	return nil, apperr.ErrSessionNotFound
}

// counters は属性の累積カウンタをsession.Countersに詰め替える
func counters(attrs *radius.AccountingAttributes) session.Counters {
	return session.Counters{
		InputOctets:   attrs.InputOctets,
		OutputOctets:  attrs.OutputOctets,
		InputPackets:  attrs.InputPackets,
		OutputPackets: attrs.OutputPackets,
		SessionTime:   attrs.SessionTime,
	}
}
