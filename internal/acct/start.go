package acct

import (
	"context"
	"log/slog"

	"github.com/oyaguma3/subscriber-radius/internal/notify"
	"github.com/oyaguma3/subscriber-radius/internal/radius"
)

// processStart はAcct-Start処理を行う。
// 認証時に作成されたPENDINGセッションをACTIVEへ遷移させる。対応する
// セッションが見つからない場合（プロセス再起動後など）は、NASが申告する
// 属性から新しいセッションを起こして引き継ぐ。
func (p *Processor) processStart(ctx context.Context, attrs *radius.AccountingAttributes, srcIP, traceID string) error {
	if p.damper.IsDuplicate(ctx, attrs, traceID) {
		slog.Warn("duplicate accounting start",
			"event_id", "ACCT_DUPLICATE_START",
			"trace_id", traceID,
			"src_ip", srcIP,
			"acct_session_id", attrs.AcctSessionID,
		)
		return nil
	}

	sess, err := p.resolve(attrs)
	if err != nil {
		slog.Warn("session not found, adopting",
			"event_id", "ACCT_SESSION_ADOPTED",
			"trace_id", traceID,
			"src_ip", srcIP,
			"acct_session_id", attrs.AcctSessionID,
		)
		nasIP := attrs.NasIPAddress
		if nasIP == "" {
			nasIP = srcIP
		}
		sess, err = p.sessions.Create(ctx, attrs.Username, nasIP, attrs.NasPort, attrs.FramedIPAddress)
		if err != nil {
			return err
		}
	}

	if err := p.sessions.Activate(ctx, sess.UUID, attrs.AcctSessionID); err != nil {
		slog.Error("session activate failed",
			"event_id", "SESSION_ACTIVATE_ERR",
			"trace_id", traceID,
			"session_id", sess.UUID,
			"error", err,
		)
		return err
	}

	p.damper.Mark(ctx, attrs, traceID)

	if snap, err := p.sessions.Get(sess.UUID); err == nil {
		p.notifier.SessionEvent(ctx, notify.EventSessionStarted, snap)
	}

	slog.Info("accounting start",
		"event_id", "ACCT_START",
		"trace_id", traceID,
		"src_ip", srcIP,
		"session_id", sess.UUID,
		"acct_session_id", attrs.AcctSessionID,
	)
	return nil
}
