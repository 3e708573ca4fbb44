package gemini

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

var jsonBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(.*\\S)\\s*```")

const maxErrorExcerpt = 200

// storyPayload は物語系応答の生のJSON形状です。
type storyPayload struct {
	Title        string   `json:"title"`
	Paragraphs   []string `json:"paragraphs"`
	ImagePrompts []string `json:"image_prompts"`
}

// extractJSON は AI 応答からJSON本体を取り出します。
// コードフェンス → 最外ブレース → 全文、の順で試すのだ。
func extractJSON(raw string) string {
	matches := jsonBlockRegex.FindStringSubmatch(raw)
	if len(matches) > 1 {
		return matches[1]
	}

	firstBracket := strings.Index(raw, "{")
	lastBracket := strings.LastIndex(raw, "}")
	if firstBracket != -1 && lastBracket != -1 && lastBracket > firstBracket {
		return raw[firstBracket : lastBracket+1]
	}

	return raw
}

// parseStoryPayload は応答テキストを検証済みの本文ペアに整形します。
//
// 検証規約:
//   - JSONとして解釈できない場合は ErrUnparsableResponse。
//     ただしリストが配列以外の型で返ってきた場合は ErrMalformedResponse。
//   - どちらかのリストが欠落していれば ErrMalformedResponse。
//   - 両方とも空なら ErrEmptyGeneration、片方だけ空なら ErrMalformedResponse。
//   - 長さが食い違う場合はエラーにせず、短い方に切り詰めて警告を出すのだ。
func parseStoryPayload(raw string) (storyPayload, error) {
	raw = strings.TrimSpace(raw)
	rawJSON := extractJSON(raw)

	var payload storyPayload
	if err := json.Unmarshal([]byte(rawJSON), &payload); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return storyPayload{}, fmt.Errorf("%w (応答抜粋: %q): %v", ErrMalformedResponse, truncateString(raw, maxErrorExcerpt), err)
		}
		return storyPayload{}, fmt.Errorf("%w (応答抜粋: %q): %v", ErrUnparsableResponse, truncateString(raw, maxErrorExcerpt), err)
	}

	if payload.Paragraphs == nil || payload.ImagePrompts == nil {
		return storyPayload{}, fmt.Errorf("%w: paragraphs / image_prompts の欠落 (応答抜粋: %q)", ErrMalformedResponse, truncateString(raw, maxErrorExcerpt))
	}
	if len(payload.Paragraphs) == 0 && len(payload.ImagePrompts) == 0 {
		return storyPayload{}, ErrEmptyGeneration
	}
	if len(payload.Paragraphs) == 0 || len(payload.ImagePrompts) == 0 {
		return storyPayload{}, fmt.Errorf("%w: 本文と画像プロンプトの一方だけが空です", ErrMalformedResponse)
	}

	if len(payload.Paragraphs) != len(payload.ImagePrompts) {
		n := min(len(payload.Paragraphs), len(payload.ImagePrompts))
		slog.Warn("応答のリスト長が一致しないため短い方に合わせます",
			"paragraphs", len(payload.Paragraphs),
			"image_prompts", len(payload.ImagePrompts),
			"truncated_to", n,
		)
		payload.Paragraphs = payload.Paragraphs[:n]
		payload.ImagePrompts = payload.ImagePrompts[:n]
	}

	return payload, nil
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
