package domain

// StoryMode は物語の締め方を表します。
// conclude はきれいに完結させ、extend は続きを作れる引きで終わらせるのだ。
type StoryMode string

const (
	ModeConclude StoryMode = "conclude"
	ModeExtend   StoryMode = "extend"
)

// Normalize は未知の値を conclude に寄せて返します。
// 締め方は二択であり、不明値でパイプラインを止める必要はないのだ。
func (m StoryMode) Normalize() StoryMode {
	if m == ModeExtend {
		return ModeExtend
	}
	return ModeConclude
}

// StoryDraft は AI モデルから返される物語本文一式の構造です。
// Paragraphs と ImagePrompts は同じ長さ・同じ順序であることが保証されます
// （検証と切り詰めはクライアント層の責務なのだ）。
type StoryDraft struct {
	Title        string   `json:"title"`
	Paragraphs   []string `json:"paragraphs"`
	ImagePrompts []string `json:"image_prompts"`
}

// Continuation は続き生成で追加される本文一式です。タイトルは返されません。
type Continuation struct {
	Paragraphs   []string `json:"paragraphs"`
	ImagePrompts []string `json:"image_prompts"`
}

// SceneCount は本文の段落数を返します。
func (d StoryDraft) SceneCount() int {
	return len(d.Paragraphs)
}
