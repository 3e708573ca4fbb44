package domain

// ImageState はシーン挿絵のライフサイクル状態です。
type ImageState string

const (
	ImagePending ImageState = "pending"
	ImageReady   ImageState = "ready"
	ImageFailed  ImageState = "failed"
)

// ActionState はシーン単位の追加操作（動画プロンプト生成・編集）の進行状態です。
// ゼロ値は idle と同義に扱うのだ。
type ActionState string

const (
	ActionIdle    ActionState = "idle"
	ActionLoading ActionState = "loading"
)

// Loading は操作が実行中かどうかを返します。
func (s ActionState) Loading() bool {
	return s == ActionLoading
}

// Scene は物語の1場面（段落1つと挿絵1枚、任意の動画プロンプト）を保持します。
// ImageState は pending で始まり、生成の成否で ready / failed に遷移します。
// 再生成アクションだけが ready / failed から再び遷移を起こせるのだ。
type Scene struct {
	Paragraph   string     `json:"paragraph"`
	ImagePrompt string     `json:"image_prompt"`
	ImageState  ImageState `json:"image_state"`
	ImageData   []byte     `json:"image_data,omitempty"`
	ImageMime   string     `json:"image_mime,omitempty"`
	VideoPrompt string     `json:"video_prompt,omitempty"`

	// 進行中フラグ群。表示セッション内でのみ意味を持つため永続化しません。
	VideoPromptState ActionState `json:"-"`
	EditState        ActionState `json:"-"`
	Regenerating     bool        `json:"-"`
}

// NewScene は段落と画像プロンプトから未生成状態のシーンを作ります。
func NewScene(paragraph, imagePrompt string) Scene {
	return Scene{
		Paragraph:        paragraph,
		ImagePrompt:      imagePrompt,
		ImageState:       ImagePending,
		VideoPromptState: ActionIdle,
		EditState:        ActionIdle,
	}
}

// Busy はこのシーンに対して何らかの操作が進行中かどうかを返します。
// シーン単位の追加操作は直列化するため、Busy の間は新しい操作を受け付けないのだ。
func (s Scene) Busy() bool {
	return s.Regenerating || s.EditState.Loading() || s.VideoPromptState.Loading()
}

// HasReadyImage は表示可能な挿絵を持っているかどうかを返します。
func (s Scene) HasReadyImage() bool {
	return s.ImageState == ImageReady && len(s.ImageData) > 0
}

// Clone はシーンの防御的コピーを返します。画像バイト列も複製するのだ。
func (s Scene) Clone() Scene {
	copied := s
	if s.ImageData != nil {
		copied.ImageData = make([]byte, len(s.ImageData))
		copy(copied.ImageData, s.ImageData)
	}
	return copied
}
