package runner

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryPolicy_Do(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 2, Backoff: time.Millisecond}

	t.Run("初回成功なら1回で終わるのだ", func(t *testing.T) {
		calls := 0
		err := policy.Do(context.Background(), func() error {
			calls++
			return nil
		})
		if err != nil || calls != 1 {
			t.Errorf("1回で成功するはずなのだ。err: %v, calls: %d", err, calls)
		}
	})

	t.Run("失敗したら1回だけ再試行するのだ", func(t *testing.T) {
		calls := 0
		err := policy.Do(context.Background(), func() error {
			calls++
			if calls == 1 {
				return errors.New("初回の模擬失敗")
			}
			return nil
		})
		if err != nil || calls != 2 {
			t.Errorf("2回目で成功するはずなのだ。err: %v, calls: %d", err, calls)
		}
	})

	t.Run("上限到達後は最後のエラーを返すのだ", func(t *testing.T) {
		lastErr := errors.New("2回目の模擬失敗")
		calls := 0
		err := policy.Do(context.Background(), func() error {
			calls++
			if calls == 1 {
				return errors.New("初回の模擬失敗")
			}
			return lastErr
		})
		if calls != 2 {
			t.Errorf("総試行回数が上限を守っていないのだ: %d", calls)
		}
		if !errors.Is(err, lastErr) {
			t.Errorf("最後の試行のエラーが返るはずなのだ: %v", err)
		}
	})

	t.Run("待機中の取り消しでは再試行しないのだ", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		firstErr := errors.New("初回の模擬失敗")

		calls := 0
		err := RetryPolicy{MaxAttempts: 2, Backoff: time.Minute}.Do(ctx, func() error {
			calls++
			cancel()
			return firstErr
		})
		if calls != 1 {
			t.Errorf("取り消し後に再試行してしまったのだ: %d", calls)
		}
		if !errors.Is(err, firstErr) {
			t.Errorf("直前のエラーが返るはずなのだ: %v", err)
		}
	})

	t.Run("MaxAttempts が0以下でも1回は実行するのだ", func(t *testing.T) {
		calls := 0
		err := RetryPolicy{}.Do(context.Background(), func() error {
			calls++
			return errors.New("模擬失敗")
		})
		if calls != 1 || err == nil {
			t.Errorf("最低1回の実行が保証されていないのだ。calls: %d, err: %v", calls, err)
		}
	})
}

func TestDefaultRetryPolicy(t *testing.T) {
	policy := DefaultRetryPolicy()
	if policy.MaxAttempts != 2 {
		t.Errorf("既定の総試行回数が違うのだ: %d", policy.MaxAttempts)
	}
	if policy.Backoff != time.Second {
		t.Errorf("既定の待ち時間が違うのだ: %v", policy.Backoff)
	}
}
