package domain

import (
	"fmt"
	"strings"
)

// FailedSceneIndices は挿絵生成に失敗したシーンの添字を昇順で返します。
func (v *StoryVersion) FailedSceneIndices() []int {
	if v == nil {
		return nil
	}
	var indices []int
	for i, s := range v.Scenes {
		if s.ImageState == ImageFailed {
			indices = append(indices, i)
		}
	}
	return indices
}

// ReadyImageCount は表示可能な挿絵を持つシーン数を返します。
func (v *StoryVersion) ReadyImageCount() int {
	count := 0
	for _, s := range v.Scenes {
		if s.HasReadyImage() {
			count++
		}
	}
	return count
}

// Paragraphs は全シーンの本文を場面順に返します。続き生成の文脈構築に使うのだ。
func (v *StoryVersion) Paragraphs() []string {
	if v == nil {
		return nil
	}
	paragraphs := make([]string, 0, len(v.Scenes))
	for _, s := range v.Scenes {
		paragraphs = append(paragraphs, s.Paragraph)
	}
	return paragraphs
}

// VideoPromptText は設定済みの動画プロンプトを番号付きテキストにまとめます。
// エクスポート用の1ファイルぶんの内容になります。
func (v *StoryVersion) VideoPromptText() string {
	var b strings.Builder
	for i, s := range v.Scenes {
		if s.VideoPrompt == "" {
			continue
		}
		fmt.Fprintf(&b, "Scene %d:\n%s\n\n", i+1, s.VideoPrompt)
	}
	return strings.TrimRight(b.String(), "\n")
}
