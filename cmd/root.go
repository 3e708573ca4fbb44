package cmd

import (
	"fmt"
	"os"

	"github.com/shouni/go-ehon-kit/internal/config"

	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"
)

// opts は全コマンドで共有する実行時オプションなのだ。
// フラグの束ね先であり、パイプラインへは config.Config 経由で渡すのだよ。
var opts config.GenerateOptions

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	// --- キャラクター・物語設定 ---
	rootCmd.PersistentFlags().StringArrayVarP(&opts.CharacterRefs, "character", "c", nil, "参照キャラクター画像のパス（最大2回指定、ローカル or gs://...）なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.Language, "language", config.DefaultLanguage, "物語本文の言語なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.ArtStyle, "art-style", config.DefaultArtStyle, "挿絵の画風キー（styles コマンドで一覧できるのだ）。")
	rootCmd.PersistentFlags().StringVar(&opts.AspectRatio, "aspect-ratio", config.DefaultAspectRatio, "挿絵のアスペクト比（16:9 / 9:16 など）なのだ。")
	rootCmd.PersistentFlags().IntVar(&opts.SceneCount, "scenes", config.DefaultSceneCount, "生成するシーン数なのだ。")
	rootCmd.PersistentFlags().StringVarP(&opts.Mode, "mode", "m", "conclude", "物語の締め方（conclude / extend）なのだ。")

	// --- 生成結果の出力設定 ---
	rootCmd.PersistentFlags().StringVarP(&opts.OutputDir, "output-dir", "o", config.DefaultOutputDir, "成果物の保存先ディレクトリ（ローカル or gs://...）なのだ。")

	// --- AIモデル・挙動設定 ---
	rootCmd.PersistentFlags().StringVar(&opts.AIModel, "model", config.DefaultModel, "物語生成に使う Gemini モデル名なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.ImageModel, "image-model", config.DefaultImageModel, "挿絵生成に使う Gemini モデル名なのだ。")

	// --- 生成後の追加パス ---
	rootCmd.PersistentFlags().BoolVar(&opts.RetryFailed, "retry-failed", false, "挿絵に失敗したシーンへ再生成を1周かけるのだ。")
	rootCmd.PersistentFlags().BoolVar(&opts.VideoPrompts, "video-prompts", false, "挿絵がそろったシーンの動画プロンプトも生成するのだ。")

	// --- generate 固有設定 ---
	generateCmd.Flags().IntVar(&opts.VersionCount, "versions", config.DefaultVersionCount, "同じ設定で並行生成するテイク数なのだ。")

	// --- continue 固有設定 ---
	continueCmd.Flags().StringVarP(&opts.StoryFile, "story-file", "f", "", "続きを生成する保存済み story.json のパスなのだ。")
}

// preRunAppE は、コマンド実行前に環境変数などの必須チェックを行うのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	// Gemini APIを利用するため、APIキーの存在チェックは欠かせないのだ！
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("エラー: 環境変数 GEMINI_API_KEY が設定されていません。Gemini APIの利用には必須なのだ")
	}

	return nil
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	clibase.Execute(
		"ap-ehon-go",
		addAppFlags,
		preRunAppE,
		generateCmd,
		continueCmd,
		stylesCmd,
	)
}
