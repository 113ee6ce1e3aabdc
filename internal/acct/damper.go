package acct

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/oyaguma3/subscriber-radius/internal/radius"
	"github.com/oyaguma3/subscriber-radius/internal/store"
)

// Damper はNASの再送を検出する。Acct-Session-IdとAcct-Status-Typeの
// 組をキーに、最後に処理した要求のダイジェストを短期保持し、
// 同一ダイジェストの再着を重複として扱う。再送は同一Identifier・
// 同一Request Authenticatorのパケットを再送出するため、両方を
// ダイジェストに含めて新規要求と区別する。
// Valkey障害時は検出をあきらめて重複なしとして処理を継続する。
type Damper struct {
	store store.RetransmitStore
}

// NewDamper は新しいDamperを生成する。
func NewDamper(rs store.RetransmitStore) *Damper {
	return &Damper{store: rs}
}

// IsDuplicate は要求が直近に処理済みの再送かどうかを返す。
func (d *Damper) IsDuplicate(ctx context.Context, attrs *radius.AccountingAttributes, traceID string) bool {
	if d.store == nil || attrs.AcctSessionID == "" {
		return false
	}
	v, err := d.store.Get(ctx, dampKey(attrs))
	if err != nil {
		slog.Error("duplicate check failed",
			"event_id", "VALKEY_CONN_ERR",
			"trace_id", traceID,
			"error", err,
		)
		return false
	}
	return v != "" && v == digest(attrs)
}

// Mark は要求を処理済みとして記録する。
func (d *Damper) Mark(ctx context.Context, attrs *radius.AccountingAttributes, traceID string) {
	if d.store == nil || attrs.AcctSessionID == "" {
		return
	}
	if err := d.store.Set(ctx, dampKey(attrs), digest(attrs)); err != nil {
		slog.Error("duplicate mark failed",
			"event_id", "DB_WRITE_ERR",
			"trace_id", traceID,
			"error", err,
		)
	}
}

// dampKey は再送検出のキーを生成する
func dampKey(attrs *radius.AccountingAttributes) string {
	return fmt.Sprintf("%s:%d", attrs.AcctSessionID, attrs.StatusType)
}

// digest は要求のダイジェストを生成する。IdentifierとRequest
// Authenticatorが一致するのは同一パケットの再送だけで、カウンタが
// 偶然一致する別要求（ゼロトラフィックのInterim等）は区別される。
func digest(attrs *radius.AccountingAttributes) string {
	return fmt.Sprintf("%d:%x:%d:%d:%d:%d:%d",
		attrs.Identifier, attrs.RequestAuth,
		attrs.InputOctets, attrs.OutputOctets,
		attrs.InputPackets, attrs.OutputPackets,
		attrs.SessionTime,
	)
}
