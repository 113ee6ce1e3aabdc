package acct

import (
	"context"
	"log/slog"

	"github.com/oyaguma3/subscriber-radius/internal/notify"
	"github.com/oyaguma3/subscriber-radius/internal/radius"
)

// processOnOff はAccounting-On/Off処理を行う。
// いずれもNASの再起動・停止の通知であり、そのNASに紐づく既存セッションを
// NAS-Reboot要因でまとめて終了させる。
func (p *Processor) processOnOff(ctx context.Context, attrs *radius.AccountingAttributes, srcIP, traceID string) error {
	nasIP := attrs.NasIPAddress
	if nasIP == "" {
		nasIP = srcIP
	}

	terminated := p.sessions.TerminateByNAS(ctx, nasIP, radius.TermCauseNASReboot)
	for _, id := range terminated {
		if snap, err := p.sessions.Get(id); err == nil {
			p.notifier.SessionEvent(ctx, notify.EventSessionStopped, snap)
		}
	}

	eventID := "ACCT_ON"
	if attrs.StatusType == radius.AcctStatusTypeAcctOff {
		eventID = "ACCT_OFF"
	}
	slog.Info("accounting on/off",
		"event_id", eventID,
		"trace_id", traceID,
		"src_ip", srcIP,
		"nas_ip", nasIP,
		"terminated_sessions", len(terminated),
	)
	return nil
}
