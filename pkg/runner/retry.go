package runner

import (
	"context"
	"time"
)

// RetryPolicy は有界リトライの方針です。
// 呼び出し箇所に埋め込まず、値として持ち回って一様に適用するのだ。
type RetryPolicy struct {
	// MaxAttempts は初回を含めた総試行回数です。
	MaxAttempts int
	// Backoff は失敗から次の試行までの固定待ち時間です。
	Backoff time.Duration
}

// DefaultRetryPolicy は挿絵生成の既定方針（合計2回・固定1秒待ち）を返します。
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 2, Backoff: time.Second}
}

// Do は op を最大 MaxAttempts 回実行し、最後の試行のエラーを返します。
// 試行間は固定の Backoff を待ちます。待機中に ctx が取り消された場合は
// それ以上試行せず、直前のエラーをそのまま返すのだ。
func (p RetryPolicy) Do(ctx context.Context, op func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(p.Backoff):
		}
	}
	return lastErr
}
