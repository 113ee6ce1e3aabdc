package store

// Valkeyキープレフィックス
const (
	KeyPrefixClient    = "client:"    // RADIUSクライアント（NAS）設定
	KeyPrefixUser      = "user:"      // 加入者認証情報
	KeyPrefixSession   = "sess:"      // セッションミラー
	KeyPrefixAcctIndex = "idx:acct:"  // Acct-Session-Id → セッションUUID
	KeyPrefixAcctSeen  = "acct:seen:" // Accounting再送検出用
)
