package asset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
)

// fakeReader は remoteio.InputReader の差し替え用実装なのだ。
type fakeReader struct {
	mu    sync.Mutex
	opens map[string]int
	files map[string][]byte
	err   error
}

func newFakeReader() *fakeReader {
	return &fakeReader{
		opens: make(map[string]int),
		files: map[string][]byte{
			"characters/fox.png":    {0x89, 0x50, 0x4E, 0x47},
			"characters/rabbit.jpg": {0xFF, 0xD8, 0xFF},
			"characters/empty.png":  {},
		},
	}
}

func (f *fakeReader) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	f.mu.Lock()
	f.opens[path]++
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.files[path]
	if !ok {
		return nil, fmt.Errorf("no such file: %s", path)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeReader) openCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens[path]
}

func TestManager_Fetch(t *testing.T) {
	t.Run("画像を読み込んでMIMEタイプ付きで返すのだ", func(t *testing.T) {
		reader := newFakeReader()
		m := NewManager(reader)

		asset, err := m.Fetch(context.Background(), "characters/rabbit.jpg")
		if err != nil {
			t.Fatalf("Fetch失敗なのだ: %v", err)
		}
		if asset.MimeType != "image/jpeg" {
			t.Errorf("MIMEタイプが違うのだ: %s", asset.MimeType)
		}
		if len(asset.Data) != 3 {
			t.Errorf("データ長が違うのだ: %d", len(asset.Data))
		}
	})

	t.Run("同じ参照は一度しか読み込まないのだ", func(t *testing.T) {
		reader := newFakeReader()
		m := NewManager(reader)
		ctx := context.Background()

		for i := 0; i < 3; i++ {
			if _, err := m.Fetch(ctx, "characters/fox.png"); err != nil {
				t.Fatalf("Fetch失敗なのだ: %v", err)
			}
		}

		if got := reader.openCount("characters/fox.png"); got != 1 {
			t.Errorf("読み込みが %d 回走ったのだ（期待は1回）", got)
		}
	})

	t.Run("並行する同一参照の要求も1回のI/Oにまとまるのだ", func(t *testing.T) {
		reader := newFakeReader()
		m := NewManager(reader)
		ctx := context.Background()

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := m.Fetch(ctx, "characters/fox.png"); err != nil {
					t.Errorf("Fetch失敗なのだ: %v", err)
				}
			}()
		}
		wg.Wait()

		if got := reader.openCount("characters/fox.png"); got != 1 {
			t.Errorf("並行時に読み込みが %d 回走ったのだ（期待は1回）", got)
		}
	})

	t.Run("読み込み失敗は ErrEncodingFailed なのだ", func(t *testing.T) {
		reader := newFakeReader()
		reader.err = errors.New("disk on fire")
		m := NewManager(reader)

		_, err := m.Fetch(context.Background(), "characters/fox.png")
		if !errors.Is(err, ErrEncodingFailed) {
			t.Errorf("期待したエラー種別ではないのだ: %v", err)
		}
	})

	t.Run("空ファイルも ErrEncodingFailed なのだ", func(t *testing.T) {
		m := NewManager(newFakeReader())

		_, err := m.Fetch(context.Background(), "characters/empty.png")
		if !errors.Is(err, ErrEncodingFailed) {
			t.Errorf("期待したエラー種別ではないのだ: %v", err)
		}
	})
}

func TestManager_FetchAll(t *testing.T) {
	t.Run("入力順のままアセット列が返るのだ", func(t *testing.T) {
		m := NewManager(newFakeReader())

		assets, err := m.FetchAll(context.Background(), []string{"characters/fox.png", "characters/rabbit.jpg"})
		if err != nil {
			t.Fatalf("FetchAll失敗なのだ: %v", err)
		}
		if len(assets) != 2 {
			t.Fatalf("件数が違うのだ: %d", len(assets))
		}
		if assets[0].MimeType != "image/png" || assets[1].MimeType != "image/jpeg" {
			t.Errorf("順序が保たれていないのだ: %s, %s", assets[0].MimeType, assets[1].MimeType)
		}
	})

	t.Run("1件でも失敗したら全体が失敗なのだ", func(t *testing.T) {
		m := NewManager(newFakeReader())

		_, err := m.FetchAll(context.Background(), []string{"characters/fox.png", "characters/missing.png"})
		if err == nil {
			t.Error("存在しない参照が通ってしまったのだ")
		}
	})
}

func TestDetectMimeType(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"a.png", "image/png"},
		{"a.jpg", "image/jpeg"},
		{"a.JPEG", "image/jpeg"},
		{"a.webp", "image/webp"},
		{"a.gif", "image/gif"},
		{"a.bmp", "image/png"},
		{"noext", "image/png"},
		{"gs://bucket/chars/fox.webp", "image/webp"},
	}

	for _, tc := range cases {
		if got := DetectMimeType(tc.path); got != tc.want {
			t.Errorf("DetectMimeType(%q) = %q, 期待 %q", tc.path, got, tc.want)
		}
	}
}
