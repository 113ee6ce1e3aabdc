package acct

import (
	"context"
	"log/slog"

	"github.com/oyaguma3/subscriber-radius/internal/radius"
)

// processInterim はInterim-Update処理を行う。
// NASが運ぶカウンタは累積値なので、セッションの値をそのまま置き換える。
func (p *Processor) processInterim(ctx context.Context, attrs *radius.AccountingAttributes, srcIP, traceID string) error {
	if p.damper.IsDuplicate(ctx, attrs, traceID) {
		slog.Debug("duplicate interim update",
			"event_id", "ACCT_DUPLICATE_INTERIM",
			"trace_id", traceID,
			"acct_session_id", attrs.AcctSessionID,
		)
		return nil
	}

	sess, err := p.resolve(attrs)
	if err != nil {
		slog.Warn("session not found for interim update",
			"event_id", "ACCT_SESSION_NOT_FOUND",
			"trace_id", traceID,
			"src_ip", srcIP,
			"acct_session_id", attrs.AcctSessionID,
		)
		return nil
	}

	if err := p.sessions.UpdateCounters(ctx, sess.UUID, counters(attrs)); err != nil {
		slog.Error("counter update failed",
			"event_id", "SESSION_UPDATE_ERR",
			"trace_id", traceID,
			"session_id", sess.UUID,
			"error", err,
		)
		return err
	}

	p.damper.Mark(ctx, attrs, traceID)

	slog.Info("interim update",
		"event_id", "ACCT_INTERIM",
		"trace_id", traceID,
		"src_ip", srcIP,
		"session_id", sess.UUID,
		"acct_session_id", attrs.AcctSessionID,
		"input_octets", attrs.InputOctets,
		"output_octets", attrs.OutputOctets,
	)
	return nil
}
