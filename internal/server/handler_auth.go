package server

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"github.com/google/uuid"
	"github.com/oyaguma3/subscriber-radius/internal/auth"
	radiuspkg "github.com/oyaguma3/subscriber-radius/internal/radius"
	"github.com/oyaguma3/subscriber-radius/internal/session"
	"github.com/oyaguma3/subscriber-radius/pkg/apperr"
	"github.com/oyaguma3/subscriber-radius/pkg/logging"
	"layeh.com/radius"
)

// rejectMessage はAccess-Rejectの固定Reply-Message。
// 失敗理由で文言を変えるとユーザー列挙の手がかりになるため固定とする。
const rejectMessage = "Authentication failed"

// AuthHandler はAccess-Requestを処理するハンドラ。
// layeh.com/radius.Handlerインターフェースの実装。
type AuthHandler struct {
	authenticator auth.Authenticator
	sessions      *session.Manager
	fields        *logging.CommonFields
}

// NewAuthHandler は新しいAuthHandlerを生成する
func NewAuthHandler(a auth.Authenticator, sm *session.Manager, cf *logging.CommonFields) *AuthHandler {
	return &AuthHandler{authenticator: a, sessions: sm, fields: cf}
}

// ServeRADIUS はRADIUSリクエストを処理する
func (h *AuthHandler) ServeRADIUS(w radius.ResponseWriter, r *radius.Request) {
	traceID := uuid.New().String()
	srcIP := extractIP(r.RemoteAddr)

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("認証ハンドラでpanic発生",
				logging.WithEventID("SYS_ERR"),
				logging.WithTraceID(traceID),
				logging.WithSrcIP(srcIP),
				slog.Any("panic", rec),
			)
		}
	}()

	if r.Code != radius.CodeAccessRequest {
		slog.Warn("認証ポートに未対応のRADIUS Code",
			logging.WithEventID("RADIUS_UNKNOWN_CODE"),
			logging.WithTraceID(traceID),
			logging.WithSrcIP(srcIP),
			slog.Int("code", int(r.Code)),
		)
		return // 応答なし
	}

	h.handleAccessRequest(w, r, traceID, srcIP)
}

// handleAccessRequest はAccess-Requestを処理する
func (h *AuthHandler) handleAccessRequest(w radius.ResponseWriter, r *radius.Request, traceID, srcIP string) {
	ctx := context.Background()

	attrs, err := radiuspkg.ExtractAccessAttributes(r.Packet)
	if err != nil {
		// User-Name欠落は認証しようがないのでReject
		slog.Warn("属性抽出失敗",
			logging.WithEventID("RADIUS_ATTR_ERR"),
			logging.WithTraceID(traceID),
			logging.WithSrcIP(srcIP),
			logging.WithError(err),
		)
		h.writeReject(w, r, traceID)
		return
	}

	user, err := h.authenticator.Authenticate(ctx, traceID, attrs, r.Packet.Authenticator, r.Packet.Secret)
	if err != nil {
		if !errors.Is(err, apperr.ErrAuthFailed) {
			slog.Error("認証処理エラー",
				logging.WithEventID("SYS_ERR"),
				logging.WithTraceID(traceID),
				logging.WithSrcIP(srcIP),
				logging.WithError(err),
			)
		}
		h.writeReject(w, r, traceID)
		return
	}

	// 払い出すIPは加入者レコードの固定IPを優先し、なければNAS申告値
	framedIP := user.FramedIP
	if framedIP == "" {
		framedIP = attrs.FramedIPAddress
	}
	nasIP := attrs.NasIPAddress
	if nasIP == "" {
		nasIP = srcIP
	}

	sess, err := h.sessions.Create(ctx, user.Username, nasIP, attrs.NasPort, framedIP)
	if err != nil {
		slog.Error("セッション作成失敗",
			logging.WithEventID("SESSION_CREATE_ERR"),
			logging.WithTraceID(traceID),
			logging.WithError(err),
		)
		h.writeReject(w, r, traceID)
		return
	}

	resp := radiuspkg.BuildAccessAccept(r.Packet, &radiuspkg.AcceptParams{
		FramedIP:    net.ParseIP(framedIP),
		SessionUUID: sess.UUID,
	})
	if err := w.Write(resp); err != nil {
		slog.Error("RADIUS応答送信失敗",
			logging.WithEventID("PKT_SEND_ERR"),
			logging.WithTraceID(traceID),
			logging.WithError(err),
		)
		return
	}

	args := h.fields.AuthLogFields(traceID, "ACCESS_ACCEPT", user.Username)
	args = append(args,
		logging.WithSrcIP(srcIP),
		logging.WithSessionID(sess.UUID),
	)
	slog.Info("Access-Accept送信", args...)
}

// writeReject はAccess-Rejectを送信する
func (h *AuthHandler) writeReject(w radius.ResponseWriter, r *radius.Request, traceID string) {
	resp := radiuspkg.BuildAccessReject(r.Packet, rejectMessage)
	if err := w.Write(resp); err != nil {
		slog.Error("RADIUS応答送信失敗",
			logging.WithEventID("PKT_SEND_ERR"),
			logging.WithTraceID(traceID),
			logging.WithError(err),
		)
		return
	}
	slog.Info("Access-Reject送信",
		logging.WithEventID("ACCESS_REJECT"),
		logging.WithTraceID(traceID),
	)
}
