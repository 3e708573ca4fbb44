package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-ehon-kit/internal/config"
	"github.com/shouni/go-ehon-kit/internal/pipeline"

	"github.com/spf13/cobra"
)

// generateCmd は、AIによる絵本（物語と挿絵）の生成を実行するのだ。
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "キャラクター画像から絵本（物語と挿絵）を生成するのだ。",
	Long: `参照キャラクター画像（1〜2枚）をもとに、タイトル・シーンごとの本文・挿絵を
ひとそろい生成するのだ。--versions を増やすと同じ設定で複数のテイクを並行生成するのだよ。`,
	Example: `  ap-ehon-go generate -c ./zunda.png --scenes 6 --versions 2 -o output/ehon`,
	RunE:    generateCommand,
}

func generateCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// 1. 必須チェック
	if len(opts.CharacterRefs) == 0 {
		return fmt.Errorf("参照キャラクター画像（--character）を最低1枚指定してほしいのだ")
	}

	// 2. 環境変数等から基本設定をロードするのだ
	cfg := config.LoadConfig()
	cfg.GeminiModel = opts.AIModel
	cfg.GeminiImageModel = opts.ImageModel
	cfg.Options = opts

	slog.Info("絵本生成パイプラインを起動するのだ！",
		"characters", len(opts.CharacterRefs),
		"scenes", opts.SceneCount,
		"versions", opts.VersionCount,
		"text_model", cfg.GeminiModel,
		"image_model", cfg.GeminiImageModel,
		"output", opts.OutputDir)

	// 3. 更新した config を考慮しつつパイプラインを実行するのだ
	err := pipeline.Execute(ctx, cfg)
	if err != nil {
		return fmt.Errorf("パイプライン実行中にエラーが発生したのだ: %w", err)
	}

	slog.Info("すべての生成工程が完了したのだ！")
	return nil
}
