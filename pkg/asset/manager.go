package asset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shouni/go-remote-io/pkg/remoteio"
	"golang.org/x/sync/singleflight"

	"github.com/shouni/go-ehon-kit/pkg/domain"
)

// ErrEncodingFailed は参照画像を転送用データに変換できなかったことを表します。
var ErrEncodingFailed = errors.New("キャラクター画像の読み込みに失敗しました")

const (
	defaultCacheExpiration = 30 * time.Minute
	cacheCleanupInterval   = 1 * time.Hour
)

// Manager は参照キャラクター画像の読み込みと転送用エンコードを担います。
// 同じ参照は一度だけ読み込み、以降は全パイプラインでキャッシュを共有するのだ。
type Manager struct {
	reader remoteio.InputReader
	assets *cache.Cache
	group  singleflight.Group
}

// NewManager は InputReader を注入して Manager を初期化します。
func NewManager(reader remoteio.InputReader) *Manager {
	return &Manager{
		reader: reader,
		assets: cache.New(defaultCacheExpiration, cacheCleanupInterval),
	}
}

// Fetch は参照パス（ローカルまたは GCS）の画像を読み込み CharacterAsset に変換します。
// 結果はキャッシュされ、同時要求は singleflight で1回の I/O にまとめられます。
func (m *Manager) Fetch(ctx context.Context, ref string) (domain.CharacterAsset, error) {
	if cached, ok := m.assets.Get(ref); ok {
		if asset, ok := cached.(domain.CharacterAsset); ok {
			return asset, nil
		}
	}

	val, err, _ := m.group.Do(ref, func() (interface{}, error) {
		// singleflight 待機中に別ゴルーチンが読み込みを終えている可能性があるため再確認
		if cached, ok := m.assets.Get(ref); ok {
			return cached, nil
		}

		asset, loadErr := m.load(ctx, ref)
		if loadErr != nil {
			return nil, loadErr
		}

		m.assets.Set(ref, asset, cache.DefaultExpiration)
		return asset, nil
	})
	if err != nil {
		return domain.CharacterAsset{}, err
	}

	asset, ok := val.(domain.CharacterAsset)
	if !ok {
		return domain.CharacterAsset{}, fmt.Errorf("unexpected return type from singleflight: %T", val)
	}
	return asset, nil
}

// FetchAll は複数の参照を順に解決して返します。順序は入力どおりなのだ。
func (m *Manager) FetchAll(ctx context.Context, refs []string) ([]domain.CharacterAsset, error) {
	assets := make([]domain.CharacterAsset, 0, len(refs))
	for _, ref := range refs {
		asset, err := m.Fetch(ctx, ref)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, nil
}

func (m *Manager) load(ctx context.Context, ref string) (domain.CharacterAsset, error) {
	slog.InfoContext(ctx, "キャラクター参照画像を読み込みます", "ref", ref)

	rc, err := m.reader.Open(ctx, ref)
	if err != nil {
		return domain.CharacterAsset{}, fmt.Errorf("%w (ref: %s): %v", ErrEncodingFailed, ref, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return domain.CharacterAsset{}, fmt.Errorf("%w (ref: %s): %v", ErrEncodingFailed, ref, err)
	}
	if len(data) == 0 {
		return domain.CharacterAsset{}, fmt.Errorf("%w (ref: %s): 内容が空です", ErrEncodingFailed, ref)
	}

	return domain.CharacterAsset{Data: data, MimeType: DetectMimeType(ref)}, nil
}

// DetectMimeType は拡張子から画像の MIME タイプを推定します。不明な場合は PNG 扱いです。
func DetectMimeType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	}
	return "image/png"
}
