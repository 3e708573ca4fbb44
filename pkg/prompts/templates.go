package prompts

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/shouni/go-ehon-kit/pkg/domain"
)

const (
	ModeNewStory     = "story"
	ModeContinuation = "continuation"
)

// StoryTemplateData は物語生成プロンプトのテンプレートに渡すデータ構造です。
type StoryTemplateData struct {
	Language        string
	SceneCount      int
	StyleDescriptor string
	ModeInstruction string
	// ExistingStory は続き生成時のみ使う番号付き本文です。
	ExistingStory string
}

var (
	//go:embed story.md
	StoryPrompt string
	//go:embed continuation.md
	ContinuationPrompt string
)

// allTemplates はモードとテンプレート文字列を紐づけるマップなのだ。
var allTemplates = map[string]string{
	ModeNewStory:     StoryPrompt,
	ModeContinuation: ContinuationPrompt,
}

// ModeInstruction は締め方モードを本文生成への指示文に変換します。
func ModeInstruction(mode domain.StoryMode) string {
	if mode.Normalize() == domain.ModeExtend {
		return "End the story on a gentle, hopeful cliffhanger that invites further adventures."
	}
	return "End the story with a warm, complete, and satisfying conclusion."
}

// NumberStory は既存の本文を 1 始まりの番号付きテキストにまとめます。
// 続き生成プロンプトの STORY SO FAR セクションに埋め込む形式なのだ。
func NumberStory(paragraphs []string) string {
	var sb strings.Builder
	for i, p := range paragraphs {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, p)
	}
	return strings.TrimRight(sb.String(), "\n")
}
