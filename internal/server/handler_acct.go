package server

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/oyaguma3/subscriber-radius/internal/acct"
	radiuspkg "github.com/oyaguma3/subscriber-radius/internal/radius"
	"github.com/oyaguma3/subscriber-radius/pkg/apperr"
	"github.com/oyaguma3/subscriber-radius/pkg/logging"
	"layeh.com/radius"
)

// AcctHandler はAccounting-Requestを処理するハンドラ。
type AcctHandler struct {
	processor acct.AccountingProcessor
}

// NewAcctHandler は新しいAcctHandlerを生成する
func NewAcctHandler(processor acct.AccountingProcessor) *AcctHandler {
	return &AcctHandler{processor: processor}
}

// ServeRADIUS はRADIUSリクエストを処理する
func (h *AcctHandler) ServeRADIUS(w radius.ResponseWriter, r *radius.Request) {
	traceID := uuid.New().String()
	srcIP := extractIP(r.RemoteAddr)

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("Accountingハンドラでpanic発生",
				logging.WithEventID("SYS_ERR"),
				logging.WithTraceID(traceID),
				logging.WithSrcIP(srcIP),
				slog.Any("panic", rec),
			)
		}
	}()

	if r.Code != radius.CodeAccountingRequest {
		slog.Warn("Accountingポートに未対応のRADIUS Code",
			logging.WithEventID("RADIUS_UNKNOWN_CODE"),
			logging.WithTraceID(traceID),
			logging.WithSrcIP(srcIP),
			slog.Int("code", int(r.Code)),
		)
		return // 応答なし
	}

	h.handleAccountingRequest(w, r, traceID, srcIP)
}

// handleAccountingRequest はAccounting-Requestを処理する
func (h *AcctHandler) handleAccountingRequest(w radius.ResponseWriter, r *radius.Request, traceID, srcIP string) {
	secret := r.Packet.Secret

	// Request Authenticator検証。不一致は偽装の疑いがあるため無応答で破棄
	if !radiuspkg.VerifyRequestAuthenticator(r.Packet, secret) {
		slog.Warn("Request Authenticator検証失敗",
			logging.WithEventID("RADIUS_AUTH_ERR"),
			logging.WithTraceID(traceID),
			logging.WithSrcIP(srcIP),
			logging.WithError(apperr.ErrInvalidAuthenticator),
		)
		return
	}

	attrs, err := radiuspkg.ExtractAccountingAttributes(r.Packet)
	if err != nil {
		slog.Warn("属性抽出失敗",
			logging.WithEventID("RADIUS_ATTR_ERR"),
			logging.WithTraceID(traceID),
			logging.WithSrcIP(srcIP),
			logging.WithError(err),
		)
		return // 必須属性を欠く要求には応答しない
	}

	// 処理エラーがあってもAccounting-Responseは返す。NASの再送を止める
	// ことが最優先で、サーバー側の失敗はログとして残す。
	ctx := context.Background()
	if procErr := h.processor.Process(ctx, attrs, srcIP, traceID); procErr != nil {
		slog.Error("Accounting処理エラー",
			logging.WithEventID("SYS_ERR"),
			logging.WithTraceID(traceID),
			logging.WithError(procErr),
		)
	}

	resp := radiuspkg.BuildAccountingResponse(r.Packet)
	if err := w.Write(resp); err != nil {
		slog.Error("RADIUS応答送信失敗",
			logging.WithEventID("PKT_SEND_ERR"),
			logging.WithTraceID(traceID),
			logging.WithError(err),
		)
	}
}
