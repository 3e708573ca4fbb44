package builder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-ehon-kit/internal/config"
	"github.com/shouni/go-ehon-kit/pkg/asset"
	"github.com/shouni/go-ehon-kit/pkg/domain"
	"github.com/shouni/go-ehon-kit/pkg/gemini"
	"github.com/shouni/go-ehon-kit/pkg/runner"
	"github.com/shouni/go-ehon-kit/pkg/session"

	"github.com/shouni/go-remote-io/pkg/gcsfactory"
	"golang.org/x/time/rate"
)

// NewAppContext は設定から依存関係一式を組み立てて返すのだ。
// I/O（ローカル/GCS）、Gemini クライアント、アセット管理、セッションまでを
// ここで一度だけ配線して、各コマンドはこれを使い回すのだよ。
func NewAppContext(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	gcsFactory, err := gcsfactory.NewGCSClientFactory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client factory: %w", err)
	}

	reader, err := gcsFactory.NewInputReader()
	if err != nil {
		return nil, err
	}
	writer, err := gcsFactory.NewOutputWriter()
	if err != nil {
		return nil, err
	}

	client, err := gemini.NewClient(ctx, gemini.Config{
		APIKey:     cfg.GeminiAPIKey,
		TextModel:  cfg.GeminiModel,
		ImageModel: cfg.GeminiImageModel,
	})
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}

	assets := asset.NewManager(reader)
	limiter := rate.NewLimiter(rate.Every(cfg.RateInterval), runner.DefaultRateBurst)
	storyRunner := runner.NewStoryRunner(client, assets, limiter, runner.DefaultRetryPolicy())

	sess, err := session.New(
		session.Deps{
			Generator: client,
			Assets:    assets,
			Runner:    storyRunner,
			Progress:  logProgress,
		},
		sessionSettings(cfg.Options),
	)
	if err != nil {
		return nil, err
	}

	return &AppContext{
		Config:  cfg,
		Options: cfg.Options,
		Reader:  reader,
		Writer:  writer,
		Session: sess,
	}, nil
}

// sessionSettings は CLI オプションをセッションの生成条件へ写します。
func sessionSettings(opts config.GenerateOptions) session.Settings {
	return session.Settings{
		CharacterRefs: opts.CharacterRefs,
		Language:      opts.Language,
		ArtStyle:      opts.ArtStyle,
		AspectRatio:   opts.AspectRatio,
		SceneCount:    opts.SceneCount,
		Mode:          domain.StoryMode(opts.Mode),
	}
}

// logProgress はパイプラインの段階通知を進行ログとして流すのだ。
func logProgress(versionID string, stage runner.Stage, detail string) {
	if detail == "" {
		slog.Info("進行状況", "version", shortID(versionID), "stage", stage.String())
		return
	}
	slog.Info("進行状況", "version", shortID(versionID), "stage", stage.String(), "progress", detail)
}

// shortID は UUID の先頭8文字だけをログ用に切り出します。
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
