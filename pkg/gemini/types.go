package gemini

import "github.com/shouni/go-ehon-kit/pkg/domain"

const (
	// DefaultTextModel は物語・動画プロンプト生成に使う既定モデルです。
	DefaultTextModel = "gemini-3-flash-preview"
	// DefaultImageModel は挿絵生成・編集に使う既定モデルです。
	DefaultImageModel = "gemini-3-pro-image-preview"
	// DefaultTemperature は物語生成の既定温度です。
	DefaultTemperature float32 = 0.8

	// MaxCharacterRefs は1回の呼び出しに添付できる参照キャラクター画像の上限です。
	MaxCharacterRefs = 2

	defaultImageMime = "image/png"
)

// Config はクライアントに注入する設定一式です。
// 資格情報をプロセス全域の状態に置かず、値として持ち回るのだ。
type Config struct {
	APIKey      string
	TextModel   string
	ImageModel  string
	Temperature *float32
}

// StoryRequest は新規物語の生成要求です。
type StoryRequest struct {
	Characters []domain.CharacterAsset // 参照キャラクター画像（1〜2枚）
	Language   string
	ArtStyle   string // 画風カタログのキー
	SceneCount int
	Mode       domain.StoryMode
}

// ContinuationRequest は既存物語への続き生成要求です。
type ContinuationRequest struct {
	ExistingParagraphs []string // これまでの本文（場面順）
	Characters         []domain.CharacterAsset
	Language           string
	ArtStyle           string
	SceneCount         int
	Mode               domain.StoryMode
}

// ImageRequest は挿絵1枚の生成要求です。
// 画風は物語生成側が Prompt 先頭に埋め込んでいる前提です。
type ImageRequest struct {
	Prompt      string
	Characters  []domain.CharacterAsset
	AspectRatio string
}

// EditRequest は既存挿絵への編集要求です。
type EditRequest struct {
	Base        GeneratedImage // 編集対象の挿絵
	Instruction string
	Characters  []domain.CharacterAsset
}

// VideoPromptRequest は挿絵1枚ぶんの動画モーション指示文の生成要求です。
type VideoPromptRequest struct {
	Paragraph  string
	Image      GeneratedImage // 対象の挿絵
	Characters []domain.CharacterAsset
	ArtStyle   string
	Language   string
}

// GeneratedImage はモデルが返した画像ペイロードです。
type GeneratedImage struct {
	Data     []byte
	MimeType string
}

// Empty はペイロードを持たない画像かどうかを返します。
func (g GeneratedImage) Empty() bool {
	return len(g.Data) == 0
}
