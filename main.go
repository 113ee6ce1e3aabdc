// Package main はsubscriber-radius（加入者RADIUSサーバー）のエントリーポイント。
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/oyaguma3/subscriber-radius/internal/acct"
	"github.com/oyaguma3/subscriber-radius/internal/auth"
	"github.com/oyaguma3/subscriber-radius/internal/coa"
	"github.com/oyaguma3/subscriber-radius/internal/config"
	"github.com/oyaguma3/subscriber-radius/internal/notify"
	"github.com/oyaguma3/subscriber-radius/internal/server"
	"github.com/oyaguma3/subscriber-radius/internal/session"
	"github.com/oyaguma3/subscriber-radius/internal/store"
	"github.com/oyaguma3/subscriber-radius/pkg/logging"
)

func main() {
	// 1. 環境変数読み込み
	cfg, err := config.Load()
	if err != nil {
		slog.Error("設定読み込み失敗", "error", err)
		os.Exit(1)
	}

	// 2. ロガー初期化（JSON形式、INFO以上）
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})).With("app", "subscriber-radius")
	slog.SetDefault(logger)

	slog.Info("subscriber-radius起動開始",
		"auth_listen_addr", cfg.AuthListenAddr,
		"acct_listen_addr", cfg.AcctListenAddr,
		"coa_listen_addr", cfg.CoAListenAddr,
	)

	// 3. Valkeyクライアント初期化
	valkeyClient, err := store.NewValkeyClient(cfg)
	if err != nil {
		slog.Error("Valkey接続失敗",
			"event_id", "VALKEY_CONN_ERR",
			"error", err,
		)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	slog.Info("Valkey接続完了", "addr", cfg.ValkeyAddr())

	// 4. Store層生成
	clientStore := store.NewClientStore(valkeyClient)
	userStore := store.NewUserStore(valkeyClient)
	sessionStore := store.NewSessionStore(valkeyClient)
	retransmitStore := store.NewRetransmitStore(valkeyClient)

	// 5. Session層生成
	sessionManager := session.NewManager(sessionStore)

	// 6. セッションイベント通知
	notifier := notify.NewWebhookNotifier(cfg)

	// 7. Acct層生成
	processor := acct.NewProcessor(sessionManager, retransmitStore, notifier)

	// 8. 認証層生成
	authenticator := auth.NewAuthenticator(userStore, cfg)

	// 9. RADIUS Secret解決
	secretSource := server.NewSecretSource(clientStore)

	// 10. CoA/Disconnectマネージャ（送信用ソケットを確保する）
	coaManager, err := coa.NewManager(cfg, sessionManager, notifier)
	if err != nil {
		slog.Error("CoAソケット確保失敗",
			"event_id", "COA_SOCKET_ERR",
			"error", err,
		)
		os.Exit(1)
	}
	defer coaManager.Close()

	// 11. RADIUSハンドラ
	commonFields := logging.NewCommonFields(logging.NewMasker(cfg.LogMaskUsername))
	authHandler := server.NewAuthHandler(authenticator, sessionManager, commonFields)
	acctHandler := server.NewAcctHandler(processor)

	// 12. UDPリスナー起動（異常終了時は再起動）
	authSup := server.NewSupervisor("auth", func() *server.Server {
		return server.NewServer(cfg.AuthListenAddr, authHandler, secretSource)
	})
	acctSup := server.NewSupervisor("acct", func() *server.Server {
		return server.NewServer(cfg.AcctListenAddr, acctHandler, secretSource)
	})

	var wg sync.WaitGroup
	for name, sup := range map[string]*server.Supervisor{
		"auth": authSup,
		"acct": acctSup,
	} {
		wg.Add(1)
		go func(name string, sup *server.Supervisor) {
			defer wg.Done()
			slog.Info("RADIUSリスナー起動", "listener", name)
			sup.Run()
		}(name, sup)
	}

	// 13. シグナル待機 → Graceful Shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigCh
	slog.Info("シグナル受信、シャットダウン開始", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()

	if err := authSup.Shutdown(ctx); err != nil {
		slog.Warn("authリスナーシャットダウンエラー", "error", err)
	}
	if err := acctSup.Shutdown(ctx); err != nil {
		slog.Warn("acctリスナーシャットダウンエラー", "error", err)
	}
	wg.Wait()

	slog.Info("subscriber-radius停止完了")
}
