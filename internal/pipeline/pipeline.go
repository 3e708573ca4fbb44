package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/go-ehon-kit/internal/builder"
	"github.com/shouni/go-ehon-kit/internal/config"
	"github.com/shouni/go-ehon-kit/pkg/asset"
	"github.com/shouni/go-ehon-kit/pkg/domain"
)

// Execute は generate コマンドの全工程を実行するのだ。
// テイクの並行生成 → （任意）失敗シーンの再生成 → （任意）動画プロンプト生成 →
// 成功テイクの保存、の順で進みます。
func Execute(ctx context.Context, cfg *config.Config) error {
	appCtx, err := builder.NewAppContext(ctx, cfg)
	if err != nil {
		return err
	}

	outcomes, err := appCtx.Session.StartGeneration(ctx, cfg.Options.VersionCount)
	if err != nil {
		return fmt.Errorf("生成を開始できませんでした: %w", err)
	}

	succeeded := make([]string, 0, len(outcomes))
	for _, outcome := range outcomes {
		if outcome.Failed() {
			slog.Error("テイクの生成に失敗しました", "version", outcome.VersionID, "error", outcome.Err)
			continue
		}
		succeeded = append(succeeded, outcome.VersionID)
	}
	if len(succeeded) == 0 {
		return fmt.Errorf("すべてのテイクの生成に失敗しました (テイク数: %d)", len(outcomes))
	}
	slog.Info("生成が完了したのだ", "succeeded", len(succeeded), "total", len(outcomes))

	if cfg.Options.RetryFailed {
		retryFailedScenes(ctx, appCtx, succeeded)
	}
	if cfg.Options.VideoPrompts {
		generateVideoPrompts(ctx, appCtx, succeeded)
	}

	return saveAll(ctx, appCtx, succeeded)
}

// ExecuteContinuation は continue コマンドの全工程を実行するのだ。
// 保存済みの story.json を復元し、続きのシーンを生成して保存し直します。
func ExecuteContinuation(ctx context.Context, cfg *config.Config) error {
	appCtx, err := builder.NewAppContext(ctx, cfg)
	if err != nil {
		return err
	}

	saved, err := loadStoryVersion(ctx, appCtx, cfg.Options.StoryFile)
	if err != nil {
		return err
	}

	versionID, err := appCtx.Session.Restore(saved)
	if err != nil {
		return err
	}

	mode := domain.StoryMode(cfg.Options.Mode)
	if err := appCtx.Session.ContinueStory(ctx, versionID, mode); err != nil {
		return fmt.Errorf("続き生成に失敗しました: %w", err)
	}

	ids := []string{versionID}
	if cfg.Options.RetryFailed {
		retryFailedScenes(ctx, appCtx, ids)
	}
	if cfg.Options.VideoPrompts {
		generateVideoPrompts(ctx, appCtx, ids)
	}

	v, err := appCtx.Session.Version(versionID)
	if err != nil {
		return err
	}

	// 続きを継いだ物語は、元の story.json と同じテイクディレクトリへ保存し直すのだ。
	targetDir := strings.TrimSuffix(asset.ResolveBaseURL(cfg.Options.StoryFile), "/")
	if err := saveVersion(ctx, appCtx, v, targetDir); err != nil {
		return err
	}

	slog.Info("続きを保存したのだ！", "output", targetDir, "scenes", len(v.Scenes))
	return nil
}

// loadStoryVersion は保存済みの story.json をドメインモデルへ読み戻します。
func loadStoryVersion(ctx context.Context, appCtx *builder.AppContext, path string) (*domain.StoryVersion, error) {
	rc, err := appCtx.Reader.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("story.json '%s' の読み込みに失敗しました: %w", path, err)
	}
	defer rc.Close()

	var version domain.StoryVersion
	if err := json.NewDecoder(rc).Decode(&version); err != nil {
		return nil, fmt.Errorf("story.json '%s' のデコードに失敗しました: %w", path, err)
	}
	return &version, nil
}

// retryFailedScenes は失敗シーンへ再生成を1周だけかけます。
// 救済できなかったシーンは警告を残して先へ進むのだ。
func retryFailedScenes(ctx context.Context, appCtx *builder.AppContext, versionIDs []string) {
	for _, id := range versionIDs {
		v, err := appCtx.Session.Version(id)
		if err != nil {
			continue
		}

		for _, index := range v.FailedSceneIndices() {
			if err := appCtx.Session.RegenerateImage(ctx, id, index); err != nil {
				slog.Warn("失敗シーンを救済できませんでした", "version", id, "scene", index+1, "error", err)
				continue
			}
			slog.Info("失敗シーンを再生成しました", "version", id, "scene", index+1)
		}
	}
}

// generateVideoPrompts は挿絵のそろったシーン全部に動画プロンプトを生成します。
func generateVideoPrompts(ctx context.Context, appCtx *builder.AppContext, versionIDs []string) {
	for _, id := range versionIDs {
		v, err := appCtx.Session.Version(id)
		if err != nil {
			continue
		}

		for i, scene := range v.Scenes {
			if !scene.HasReadyImage() {
				continue
			}
			if _, err := appCtx.Session.GenerateVideoPrompt(ctx, id, i); err != nil {
				slog.Warn("動画プロンプトの生成に失敗しました", "version", id, "scene", i+1, "error", err)
			}
		}
	}
}

// saveAll は成功したテイクを take_1, take_2, ... のディレクトリへ保存します。
func saveAll(ctx context.Context, appCtx *builder.AppContext, versionIDs []string) error {
	outputDir := strings.TrimSuffix(appCtx.Options.OutputDir, "/")

	for i, id := range versionIDs {
		v, err := appCtx.Session.Version(id)
		if err != nil {
			return err
		}

		takeDir := fmt.Sprintf("%s/take_%d", outputDir, i+1)
		if err := saveVersion(ctx, appCtx, v, takeDir); err != nil {
			return err
		}
	}

	slog.Info("すべての成果物を保存したのだ！", "takes", len(versionIDs), "output", outputDir)
	return nil
}

// saveVersion は1テイクぶんの成果物を保存します。
// 内訳は story.json、scene_N.png の連番挿絵、（あれば）video_prompts.txt です。
func saveVersion(ctx context.Context, appCtx *builder.AppContext, v *domain.StoryVersion, baseDir string) error {
	storyPath, err := asset.ResolveOutputPath(baseDir, asset.DefaultStoryJSON)
	if err != nil {
		return fmt.Errorf("出力パスの解決に失敗しました: %w", err)
	}

	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("物語の JSON 変換に失敗しました: %w", err)
	}

	slog.InfoContext(ctx, "物語を保存しています", "path", storyPath, "scenes", len(v.Scenes))
	if err := appCtx.Writer.Write(ctx, storyPath, bytes.NewReader(payload), "application/json"); err != nil {
		return fmt.Errorf("物語の保存に失敗しました (path: %s): %w", storyPath, err)
	}

	sceneBase, err := asset.ResolveOutputPath(baseDir, asset.DefaultSceneFileName)
	if err != nil {
		return fmt.Errorf("出力パスの解決に失敗しました: %w", err)
	}
	for i, scene := range v.Scenes {
		if !scene.HasReadyImage() {
			slog.Warn("挿絵のないシーンの保存をスキップします", "scene", i+1, "state", scene.ImageState)
			continue
		}

		scenePath, err := asset.GenerateIndexedPath(sceneBase, i+1)
		if err != nil {
			return fmt.Errorf("シーン %d の出力パス生成に失敗しました: %w", i+1, err)
		}

		slog.InfoContext(ctx, "挿絵を保存しています", "scene", i+1, "path", scenePath)
		if err := appCtx.Writer.Write(ctx, scenePath, bytes.NewReader(scene.ImageData), scene.ImageMime); err != nil {
			return fmt.Errorf("シーン %d の挿絵の保存に失敗しました (path: %s): %w", i+1, scenePath, err)
		}
	}

	if text := v.VideoPromptText(); text != "" {
		promptPath, err := asset.ResolveOutputPath(baseDir, asset.DefaultVideoPromptName)
		if err != nil {
			return fmt.Errorf("出力パスの解決に失敗しました: %w", err)
		}

		slog.InfoContext(ctx, "動画プロンプトを保存しています", "path", promptPath)
		if err := appCtx.Writer.Write(ctx, promptPath, strings.NewReader(text), "text/plain; charset=utf-8"); err != nil {
			return fmt.Errorf("動画プロンプトの保存に失敗しました (path: %s): %w", promptPath, err)
		}
	}

	return nil
}
