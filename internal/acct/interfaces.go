package acct

import (
	"context"

	"github.com/oyaguma3/subscriber-radius/internal/radius"
)

// AccountingProcessor はAccounting処理のインターフェース。
// 処理エラーはログに記録して呼び出し元へ返すが、Accounting-Responseの
// 送信可否には影響しない（整形式の要求には常にACKを返す）。
type AccountingProcessor interface {
	// Process はAcct-Status-Typeに応じた処理を行う
	Process(ctx context.Context, attrs *radius.AccountingAttributes, srcIP, traceID string) error
}
