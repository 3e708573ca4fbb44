package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/shouni/go-ehon-kit/pkg/domain"
	"github.com/shouni/go-ehon-kit/pkg/gemini"
	"github.com/shouni/go-ehon-kit/pkg/runner"
)

// シーン数の受け付け範囲です。絵本として成立する最小と、
// 1冊の生成として現実的な上限を定めています。
const (
	MinSceneCount = 2
	MaxSceneCount = 100
)

// Generator はセッションが必要とするリモート生成操作の一式です。
// *gemini.Client がこれを満たしますが、テストではスタブに差し替えられます。
type Generator interface {
	runner.Generator
	EditImage(ctx context.Context, req gemini.EditRequest) (*gemini.GeneratedImage, error)
	GenerateVideoPrompt(ctx context.Context, req gemini.VideoPromptRequest) (string, error)
}

// Settings はセッション全体で共有される生成条件です。
// バージョンを何個作っても、キャラクター・言語・画風は同じなのだ。
type Settings struct {
	CharacterRefs []string // 参照キャラクター画像の URL / パス（1〜2件）
	Language      string
	ArtStyle      string // 画風カタログのキー（空なら既定画風）
	AspectRatio   string
	SceneCount    int
	Mode          domain.StoryMode
}

// Deps はセッションに注入する依存関係です。
type Deps struct {
	Generator Generator
	Assets    runner.AssetFetcher

	// Runner を省略すると既定の流量制限・リトライ方針で組み立てます。
	Runner *runner.StoryRunner

	// Progress は生成パイプラインの段階通知です。nil なら通知しません。
	Progress func(versionID string, stage runner.Stage, detail string)
}

// Session は1回の絵本作成作業を表すステートマシンです。
// 複数の StoryVersion（テイク）を保持し、すべての状態変更を
// イベント経由で直列化します。読み取りは常に複製を返すため、
// 進行中のパイプラインと表示側が中途半端な状態を共有することはないのだ。
type Session struct {
	deps     Deps
	settings Settings
	runner   *runner.StoryRunner

	mu       sync.RWMutex
	versions []*domain.StoryVersion
	active   string
}

// New は設定を検証してセッションを作ります。
func New(deps Deps, settings Settings) (*Session, error) {
	if deps.Generator == nil {
		return nil, fmt.Errorf("Generator は必須です")
	}
	if deps.Assets == nil {
		return nil, fmt.Errorf("Assets は必須です")
	}

	if len(settings.CharacterRefs) == 0 {
		return nil, fmt.Errorf("参照キャラクター画像は最低1枚必要です")
	}
	if len(settings.CharacterRefs) > gemini.MaxCharacterRefs {
		return nil, fmt.Errorf("参照キャラクター画像は最大%d枚です", gemini.MaxCharacterRefs)
	}
	if strings.TrimSpace(settings.Language) == "" {
		return nil, fmt.Errorf("出力言語は必須です")
	}
	if settings.SceneCount < MinSceneCount || settings.SceneCount > MaxSceneCount {
		return nil, fmt.Errorf("シーン数は %d〜%d の範囲で指定してください: %d",
			MinSceneCount, MaxSceneCount, settings.SceneCount)
	}
	settings.Mode = settings.Mode.Normalize()

	r := deps.Runner
	if r == nil {
		r = runner.NewStoryRunner(deps.Generator, deps.Assets, nil, runner.DefaultRetryPolicy())
	}

	return &Session{
		deps:     deps,
		settings: settings,
		runner:   r,
	}, nil
}

// Settings は生成条件のコピーを返します。
func (s *Session) Settings() Settings {
	copied := s.settings
	copied.CharacterRefs = append([]string(nil), s.settings.CharacterRefs...)
	return copied
}

// Snapshot は全バージョンの複製を登録順で返します。
func (s *Session) Snapshot() []*domain.StoryVersion {
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions := make([]*domain.StoryVersion, 0, len(s.versions))
	for _, v := range s.versions {
		versions = append(versions, v.Clone())
	}
	return versions
}

// Version は指定 ID のバージョンの複製を返します。
func (s *Session) Version(id string) (*domain.StoryVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, err := s.findLocked(id)
	if err != nil {
		return nil, err
	}
	return v.Clone(), nil
}

// Active は現在アクティブなバージョンの複製を返します。
func (s *Session) Active() (*domain.StoryVersion, error) {
	s.mu.RLock()
	active := s.active
	s.mu.RUnlock()

	if active == "" {
		return nil, ErrVersionNotFound
	}
	return s.Version(active)
}

// ActiveID は現在アクティブなバージョンの ID を返します。未選択なら空です。
func (s *Session) ActiveID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// SetActive は表示対象のバージョンを切り替えます。
func (s *Session) SetActive(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.findLocked(id); err != nil {
		return err
	}
	s.active = id
	return nil
}

// apply はロックを取ってイベントを1つ適用します。
func (s *Session) apply(ev event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(ev)
}

// findLocked は ID でバージョンを引きます。s.mu を保持して呼ぶこと。
func (s *Session) findLocked(id string) (*domain.StoryVersion, error) {
	for _, v := range s.versions {
		if v.ID == id {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrVersionNotFound, id)
}

// sceneLocked はバージョン内のシーンを範囲チェック付きで引きます。
func (s *Session) sceneLocked(versionID string, index int) (*domain.Scene, error) {
	v, err := s.findLocked(versionID)
	if err != nil {
		return nil, err
	}
	scene, ok := v.SceneAt(index)
	if !ok {
		return nil, fmt.Errorf("%w: scene %d", ErrSceneNotFound, index)
	}
	return scene, nil
}
