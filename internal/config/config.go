package config

import (
	"log/slog"
	"time"

	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義なのだ
const (
	DefaultModel        = "gemini-3-flash-preview"
	DefaultImageModel   = "gemini-3-pro-image-preview"
	DefaultLanguage     = "Japanese"
	DefaultArtStyle     = "watercolor"
	DefaultAspectRatio  = "16:9"
	DefaultSceneCount   = 6
	DefaultVersionCount = 1
	DefaultRateInterval = 5 * time.Second // 挿絵生成リクエストの最小発行間隔なのだ
	DefaultOutputDir    = "output/ehon"   // 成果物（story.json・挿絵・動画プロンプト）の保存先なのだ
)

// Config はアプリケーション全体の環境設定（APIキーやモデル名）を保持する構造体なのだ。
type Config struct {
	GeminiAPIKey     string
	GeminiModel      string
	GeminiImageModel string
	RateInterval     time.Duration

	Options GenerateOptions
}

// LoadConfig は環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() *Config {
	return &Config{
		GeminiAPIKey:     envutil.GetEnv("GEMINI_API_KEY", ""),
		GeminiModel:      envutil.GetEnv("GEMINI_MODEL", DefaultModel),
		GeminiImageModel: envutil.GetEnv("IMAGE_GEMINI_MODEL", DefaultImageModel),
		RateInterval:     loadRateInterval(),
	}
}

// loadRateInterval は挿絵リクエスト間隔の上書きを環境変数から読みます。
// 解釈できない値はデフォルトに倒すのだ。
func loadRateInterval() time.Duration {
	raw := envutil.GetEnv("IMAGE_RATE_INTERVAL", "")
	if raw == "" {
		return DefaultRateInterval
	}

	interval, err := time.ParseDuration(raw)
	if err != nil || interval <= 0 {
		slog.Warn("IMAGE_RATE_INTERVAL を解釈できないためデフォルトを使います",
			"value", raw, "default", DefaultRateInterval)
		return DefaultRateInterval
	}
	return interval
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータなのだ。
type GenerateOptions struct {
	// キャラクター・物語設定
	CharacterRefs []string // --character: 参照キャラクター画像（1〜2枚、ローカル or gs://...）
	Language      string   // --language
	ArtStyle      string   // --art-style
	AspectRatio   string   // --aspect-ratio
	SceneCount    int      // --scenes
	Mode          string   // --mode: conclude / extend
	VersionCount  int      // --versions: 並行生成するテイク数

	// 入出力
	StoryFile string // --story-file: 続き生成の入力となる保存済み story.json
	OutputDir string // --output-dir

	// AI挙動設定
	AIModel    string // --model: テキスト生成用のGeminiモデル
	ImageModel string // --image-model: 画像生成用のGeminiモデル

	// 生成後の追加パス
	RetryFailed  bool // --retry-failed: 失敗シーンに再生成を1周かけるのだ
	VideoPrompts bool // --video-prompts: 完成したシーン全部の動画プロンプトを作るのだ
}
