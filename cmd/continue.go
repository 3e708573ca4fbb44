package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-ehon-kit/internal/config"
	"github.com/shouni/go-ehon-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// continueCmd は、保存済みの物語に続きのシーンを生やすのだ。
var continueCmd = &cobra.Command{
	Use:   "continue",
	Short: "保存済みの story.json から物語の続きを生成するのだ。",
	Long: `generate が保存した story.json を読み込み、これまでの本文に続く新しいシーンと
挿絵を生成して、元の story.json と同じディレクトリへ保存し直すのだ。
新しい挿絵にも参照キャラクター画像が必要なのだよ。`,
	Example: `  ap-ehon-go continue -f output/ehon/take_1/story.json -c ./zunda.png --mode extend`,
	RunE:    continueCommand,
}

func continueCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// 1. 必須チェック
	if opts.StoryFile == "" {
		return fmt.Errorf("続きの元になる story.json（--story-file）を指定してほしいのだ")
	}
	if len(opts.CharacterRefs) == 0 {
		return fmt.Errorf("参照キャラクター画像（--character）を最低1枚指定してほしいのだ")
	}

	// 2. 環境変数等から基本設定をロードするのだ
	cfg := config.LoadConfig()
	cfg.GeminiModel = opts.AIModel
	cfg.GeminiImageModel = opts.ImageModel
	cfg.Options = opts

	slog.Info("続き生成パイプラインを起動するのだ！",
		"story_file", opts.StoryFile,
		"scenes", opts.SceneCount,
		"mode", opts.Mode)

	err := pipeline.ExecuteContinuation(ctx, cfg)
	if err != nil {
		return fmt.Errorf("パイプライン実行中にエラーが発生したのだ: %w", err)
	}

	slog.Info("続きの生成が完了したのだ！")
	return nil
}
