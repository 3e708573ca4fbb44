package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/go-ehon-kit/pkg/domain"
	"github.com/shouni/go-ehon-kit/pkg/gemini"

	"golang.org/x/time/rate"
)

const (
	// DefaultImageInterval は挿絵生成リクエストの最小発行間隔です。
	DefaultImageInterval = 5 * time.Second
	// DefaultRateBurst は開始直後に連続で発行できるリクエスト数です。
	DefaultRateBurst = 2
)

// ErrAllImagesFailed は、対象シーンの挿絵生成がひとつも成功しなかったことを示します。
// 1枚でも成功していればパイプラインは完了扱いになるのだ。
var ErrAllImagesFailed = errors.New("すべてのシーンで挿絵生成に失敗しました")

// RunRequest は新規物語パイプラインの入力一式です。
type RunRequest struct {
	CharacterRefs []string // 参照キャラクター画像の URL / パス（1〜2件）
	Language      string
	ArtStyle      string // 画風カタログのキー
	AspectRatio   string
	SceneCount    int
	Mode          domain.StoryMode
	Hooks         Hooks
}

// RunResult は新規物語パイプラインの成果物一式です。
type RunResult struct {
	Title  string
	Scenes []domain.Scene
}

// ContinueRequest は既存物語の続きを生成するパイプラインの入力一式です。
type ContinueRequest struct {
	ExistingParagraphs []string // これまでの本文（場面順）
	CharacterRefs      []string
	Language           string
	ArtStyle           string
	AspectRatio        string
	SceneCount         int
	Mode               domain.StoryMode
	Hooks              Hooks
}

// StoryRunner は「物語本文の生成 → シーンごとの挿絵生成」という
// 一連のパイプラインを実行します。挿絵はシーン順に1枚ずつ発行し、
// 失敗したシーンはリトライ方針の範囲で再試行してから次へ進むのだ。
type StoryRunner struct {
	generator Generator
	assets    AssetFetcher
	limiter   *rate.Limiter
	retry     RetryPolicy
}

// NewStoryRunner は依存関係を注入して初期化します。
// limiter が nil の場合は既定の流量制限を適用します。
func NewStoryRunner(generator Generator, assets AssetFetcher, limiter *rate.Limiter, policy RetryPolicy) *StoryRunner {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Every(DefaultImageInterval), DefaultRateBurst)
	}
	if policy.MaxAttempts < 1 {
		policy = DefaultRetryPolicy()
	}
	return &StoryRunner{
		generator: generator,
		assets:    assets,
		limiter:   limiter,
		retry:     policy,
	}
}

// Run は新規物語のパイプラインを最後まで実行するのだ。
// 進行は Hooks に通知され、シーン単位の挿絵失敗ではパイプラインを止めません。
// ただし全シーンが失敗した場合だけは ErrAllImagesFailed で失敗扱いにします。
func (r *StoryRunner) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	characters, err := r.assets.FetchAll(ctx, req.CharacterRefs)
	if err != nil {
		return nil, fmt.Errorf("参照キャラクター画像の取得に失敗しました: %w", err)
	}

	req.Hooks.report(StageStory, "")
	draft, err := r.generator.GenerateStory(ctx, gemini.StoryRequest{
		Characters: characters,
		Language:   req.Language,
		ArtStyle:   req.ArtStyle,
		SceneCount: req.SceneCount,
		Mode:       req.Mode,
	})
	if err != nil {
		return nil, err
	}

	scenes := draftScenes(draft.Paragraphs, draft.ImagePrompts)
	if req.Hooks.StoryProduced != nil {
		req.Hooks.StoryProduced(draft.Title, scenes)
	}
	slog.InfoContext(ctx, "物語本文を受領しました", "title", draft.Title, "scenes", len(scenes))

	req.Hooks.report(StagePrepareIllustrations, "")
	failed, err := r.generateSceneImages(ctx, scenes, characters, req.AspectRatio, 0, req.Hooks)
	if err != nil {
		return nil, err
	}
	if failed == len(scenes) {
		return nil, fmt.Errorf("%w (シーン数: %d)", ErrAllImagesFailed, len(scenes))
	}

	req.Hooks.report(StageComplete, "")
	return &RunResult{Title: draft.Title, Scenes: scenes}, nil
}

// RunContinuation は既存物語の続きぶんだけパイプラインを実行し、
// 追加された新しいシーン群を返します。挿絵の全滅判定も新しいシーンに
// 限って行うのだ（既存シーンの状態はここでは関知しません）。
func (r *StoryRunner) RunContinuation(ctx context.Context, req ContinueRequest) ([]domain.Scene, error) {
	characters, err := r.assets.FetchAll(ctx, req.CharacterRefs)
	if err != nil {
		return nil, fmt.Errorf("参照キャラクター画像の取得に失敗しました: %w", err)
	}

	req.Hooks.report(StageStory, "")
	cont, err := r.generator.ContinueStory(ctx, gemini.ContinuationRequest{
		ExistingParagraphs: req.ExistingParagraphs,
		Characters:         characters,
		Language:           req.Language,
		ArtStyle:           req.ArtStyle,
		SceneCount:         req.SceneCount,
		Mode:               req.Mode,
	})
	if err != nil {
		return nil, err
	}

	scenes := draftScenes(cont.Paragraphs, cont.ImagePrompts)
	if req.Hooks.StoryProduced != nil {
		req.Hooks.StoryProduced("", scenes)
	}
	slog.InfoContext(ctx, "続きの本文を受領しました",
		"existing", len(req.ExistingParagraphs), "added", len(scenes))

	req.Hooks.report(StagePrepareIllustrations, "")
	base := len(req.ExistingParagraphs)
	failed, err := r.generateSceneImages(ctx, scenes, characters, req.AspectRatio, base, req.Hooks)
	if err != nil {
		return nil, err
	}
	if failed == len(scenes) {
		return nil, fmt.Errorf("%w (シーン数: %d)", ErrAllImagesFailed, len(scenes))
	}

	req.Hooks.report(StageComplete, "")
	return scenes, nil
}

// generateSceneImages はシーン順に挿絵を1枚ずつ生成し、失敗数を返します。
// 各シーンはリトライ方針の回数まで試行し、それでも失敗したら failed として
// 記録して次のシーンへ進みます。ctx の取り消しだけは即座に中断するのだ。
func (r *StoryRunner) generateSceneImages(
	ctx context.Context,
	scenes []domain.Scene,
	characters []domain.CharacterAsset,
	aspectRatio string,
	base int,
	hooks Hooks,
) (int, error) {
	total := len(scenes)
	failed := 0

	for i := range scenes {
		index := base + i

		var image *gemini.GeneratedImage
		err := r.retry.Do(ctx, func() error {
			if err := r.limiter.Wait(ctx); err != nil {
				return err
			}
			generated, err := r.generator.GenerateImage(ctx, gemini.ImageRequest{
				Prompt:      scenes[i].ImagePrompt,
				Characters:  characters,
				AspectRatio: aspectRatio,
			})
			if err != nil {
				return err
			}
			image = generated
			return nil
		})

		switch {
		case err != nil && ctx.Err() != nil:
			return failed, err
		case err != nil:
			failed++
			scenes[i].ImageState = domain.ImageFailed
			slog.Warn("挿絵生成に失敗したため次のシーンへ進みます", "scene", index+1, "error", err)
			if hooks.ImageProduced != nil {
				hooks.ImageProduced(index, nil, err)
			}
		default:
			scenes[i].ImageState = domain.ImageReady
			scenes[i].ImageData = image.Data
			scenes[i].ImageMime = image.MimeType
			if hooks.ImageProduced != nil {
				hooks.ImageProduced(index, image, nil)
			}
		}

		hooks.report(StageIllustrations, fmt.Sprintf("%d/%d", i+1, total))
	}

	return failed, nil
}

// draftScenes は本文と画像プロンプトの組から未生成状態のシーン列を作ります。
// 両者の長さはクライアント層で揃えられている前提ですが、万一ずれていても
// 短い方に合わせて安全に進めるのだ。
func draftScenes(paragraphs, imagePrompts []string) []domain.Scene {
	count := len(paragraphs)
	if len(imagePrompts) < count {
		count = len(imagePrompts)
	}

	scenes := make([]domain.Scene, 0, count)
	for i := 0; i < count; i++ {
		scenes = append(scenes, domain.NewScene(paragraphs[i], imagePrompts[i]))
	}
	return scenes
}
