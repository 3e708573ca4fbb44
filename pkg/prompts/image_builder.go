package prompts

import (
	"fmt"
	"strings"
)

const (
	// QualityTags はクオリティ向上のための共通タグです。
	QualityTags = "high quality, rich detail, soft lighting, consistent character design"

	// EhonNegativePrompt は絵本挿絵に混入しやすいノイズの抑止定義です。
	EhonNegativePrompt = "text, letters, captions, speech bubbles, watermark, signature, frame borders, low quality, distorted anatomy, extra fingers, scary or violent imagery"

	illustratorInstruction = "You are a professional picture-book illustrator. Create a single high-quality illustration of the described scene."
	retoucherInstruction   = "You are a professional picture-book illustrator performing a precise retouch on an existing illustration."
	motionInstruction      = "You are a motion designer creating gentle animation directions for children's picture-book illustrations."
)

// BuildScenePrompt は挿絵1枚ぶんの UserPrompt と SystemPrompt を生成します。
// 画風は物語生成側が各プロンプト先頭に埋め込む契約なので、ここでは受け取りません。
// 参照画像はキャラクターの同一性維持のために添付される前提なのだ。
func BuildScenePrompt(imagePrompt, aspectRatio string, refCount int) (string, string) {
	// --- System Prompt: 役割・品質・出力形式 ---
	var ss strings.Builder
	ss.WriteString(illustratorInstruction)
	ss.WriteString("\n\n### GLOBAL VISUAL STYLE ###\n")
	ss.WriteString("- Follow the art style named at the start of the scene description exactly.\n")
	ss.WriteString(fmt.Sprintf("- QUALITY: %s\n", QualityTags))
	ss.WriteString("\n### OUTPUT FORMAT ###\n")
	ss.WriteString(fmt.Sprintf("- ASPECT RATIO: %s\n", AspectRatioDescriptor(aspectRatio)))
	ss.WriteString("- Output exactly one image. No text anywhere in the image.\n")
	ss.WriteString("\n### AVOID ###\n")
	ss.WriteString(fmt.Sprintf("- %s\n", EhonNegativePrompt))
	systemPrompt := ss.String()

	// --- User Prompt: 場面内容とキャラクター参照 ---
	var us strings.Builder
	us.WriteString("### SCENE ###\n")
	us.WriteString(strings.TrimSpace(imagePrompt))
	us.WriteString("\n\n### CHARACTER REFERENCES (STRICT IDENTITY) ###\n")
	us.WriteString(fmt.Sprintf("- The %s show the protagonist(s) of this story.\n", attachmentPhrase(refCount)))
	us.WriteString("- STRICTLY preserve their design, colors, proportions, and distinctive features.\n")

	return us.String(), systemPrompt
}

// BuildEditPrompt は既存挿絵への編集指示の UserPrompt と SystemPrompt を生成します。
// 添付順は「編集対象の挿絵、続いてキャラクター参照画像」という契約です。
func BuildEditPrompt(instruction string, refCount int) (string, string) {
	var ss strings.Builder
	ss.WriteString(retoucherInstruction)
	ss.WriteString("\n\n### EDIT RULES ###\n")
	ss.WriteString("- Apply ONLY the requested change. Everything else stays untouched.\n")
	ss.WriteString("- Preserve the art style, character design, composition, palette, and lighting.\n")
	ss.WriteString("- Output exactly one image.\n")
	ss.WriteString("\n### AVOID ###\n")
	ss.WriteString(fmt.Sprintf("- %s\n", EhonNegativePrompt))
	systemPrompt := ss.String()

	var us strings.Builder
	us.WriteString("### ATTACHMENTS ###\n")
	us.WriteString("- The FIRST attached image is the illustration to edit.\n")
	if refCount > 0 {
		us.WriteString(fmt.Sprintf("- The %s define the characters' correct appearance.\n", remainingPhrase(refCount)))
	}
	us.WriteString("\n### EDIT INSTRUCTION ###\n")
	us.WriteString(strings.TrimSpace(instruction))
	us.WriteString("\n")

	return us.String(), systemPrompt
}

// BuildVideoPrompt は静止した挿絵を短い動画にするための
// モーション指示文を書かせる UserPrompt と SystemPrompt を生成します。
func BuildVideoPrompt(paragraph, styleDescriptor, language string, refCount int) (string, string) {
	var ss strings.Builder
	ss.WriteString(motionInstruction)
	ss.WriteString("\n\n### TASK ###\n")
	ss.WriteString("- Write ONE short video-motion prompt (2-4 sentences, in English) describing subtle, gentle motion for the attached illustration.\n")
	ss.WriteString("- Describe camera movement, character motion, and ambient effects. Keep it calm and child-friendly.\n")
	ss.WriteString(fmt.Sprintf("- Match the established art style: %s\n", styleDescriptor))
	ss.WriteString("- Return plain text only. No lists, no JSON, no markdown.\n")
	systemPrompt := ss.String()

	var us strings.Builder
	us.WriteString("### ATTACHMENTS ###\n")
	us.WriteString("- The FIRST attached image is the illustration to animate.\n")
	if refCount > 0 {
		us.WriteString(fmt.Sprintf("- The %s show the characters for identity reference.\n", remainingPhrase(refCount)))
	}
	us.WriteString(fmt.Sprintf("\n### SCENE TEXT (%s) ###\n", language))
	us.WriteString(strings.TrimSpace(paragraph))
	us.WriteString("\n")

	return us.String(), systemPrompt
}

// attachmentPhrase は添付画像の数に応じた英語の参照句を返すのだ。
func attachmentPhrase(refCount int) string {
	if refCount <= 1 {
		return "attached image"
	}
	return fmt.Sprintf("%d attached images", refCount)
}

func remainingPhrase(refCount int) string {
	if refCount == 1 {
		return "second attached image"
	}
	return "remaining attached images"
}
