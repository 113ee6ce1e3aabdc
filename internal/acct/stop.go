package acct

import (
	"context"
	"log/slog"

	"github.com/oyaguma3/subscriber-radius/internal/notify"
	"github.com/oyaguma3/subscriber-radius/internal/radius"
)

// maxSessionTime はAcct-Session-Timeの妥当性上限（秒）。
// これを超える申告値はカウンタ破損とみなして棄却する。
const maxSessionTime = 10 * 365 * 24 * 3600

// processStop はAcct-Stop処理を行う。
// 最終カウンタを反映してからセッションをTERMINATEDへ遷移させる。
func (p *Processor) processStop(ctx context.Context, attrs *radius.AccountingAttributes, srcIP, traceID string) error {
	if p.damper.IsDuplicate(ctx, attrs, traceID) {
		// Stop再送は応答だけ返して処理しない
		return nil
	}

	sess, err := p.resolve(attrs)
	if err != nil {
		slog.Warn("session not found for stop",
			"event_id", "ACCT_SESSION_NOT_FOUND",
			"trace_id", traceID,
			"src_ip", srcIP,
			"acct_session_id", attrs.AcctSessionID,
		)
		p.damper.Mark(ctx, attrs, traceID)
		return nil
	}

	// 最終カウンタの反映
	if err := p.sessions.UpdateCounters(ctx, sess.UUID, counters(attrs)); err != nil {
		slog.Error("final counter update failed",
			"event_id", "SESSION_UPDATE_ERR",
			"trace_id", traceID,
			"session_id", sess.UUID,
			"error", err,
		)
	}

	sessionTime := p.plausibleSessionTime(attrs)
	if err := p.sessions.Terminate(ctx, sess.UUID, attrs.TerminateCause, sessionTime); err != nil {
		slog.Error("session terminate failed",
			"event_id", "SESSION_TERMINATE_ERR",
			"trace_id", traceID,
			"session_id", sess.UUID,
			"error", err,
		)
		return err
	}

	p.damper.Mark(ctx, attrs, traceID)

	if snap, err := p.sessions.Get(sess.UUID); err == nil {
		p.notifier.SessionEvent(ctx, notify.EventSessionStopped, snap)
	}

	slog.Info("accounting stop",
		"event_id", "ACCT_STOP",
		"trace_id", traceID,
		"src_ip", srcIP,
		"session_id", sess.UUID,
		"acct_session_id", attrs.AcctSessionID,
		"input_octets", attrs.InputOctets,
		"output_octets", attrs.OutputOctets,
		"session_time", attrs.SessionTime,
		"terminate_cause", attrs.TerminateCause,
	)
	return nil
}

// plausibleSessionTime はNAS申告のAcct-Session-Timeを検証する。
// 申告がない場合や明らかに破損した値の場合は0を返し、サーバー側の
// 経過時間による算出に切り替える。サーバー再起動後に引き継いだ
// セッションではNAS申告値のほうが実際の継続時間を正しく表すため、
// サーバー側の経過時間との比較では棄却しない。
func (p *Processor) plausibleSessionTime(attrs *radius.AccountingAttributes) uint32 {
	if attrs.SessionTime > maxSessionTime {
		return 0
	}
	return attrs.SessionTime
}
