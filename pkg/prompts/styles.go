package prompts

import "sort"

// DefaultArtStyleKey は未知の画風キーに適用されるフォールバックです。
const DefaultArtStyleKey = "watercolor"

// artStyles は画風キーとプロンプト用スタイル記述の固定カタログなのだ。
// キーはUI・CLIの選択肢、値は画像モデルに渡す英語の記述です。
var artStyles = map[string]string{
	"watercolor": "soft watercolor children's picture-book illustration, gentle pastel palette, visible paper texture, storybook charm",
	"anime":      "vibrant anime-style illustration for children, clean lineart, bright cheerful colors, expressive faces",
	"clay":       "claymation-style 3D render, soft plasticine textures, rounded friendly shapes, warm studio lighting",
	"pixel":      "retro pixel-art scene, 16-bit palette, charming dithering, playful game-like composition",
	"papercraft": "layered paper-cutout collage illustration, handcrafted texture, soft shadows between paper layers",
	"crayon":     "hand-drawn crayon and colored-pencil illustration, childlike strokes, warm and playful",
}

// ResolveArtStyle は画風キーをスタイル記述に解決します。
// 未知のキーはデフォルト画風に倒し、第2戻り値で既知キーだったかを返すのだ。
func ResolveArtStyle(key string) (string, bool) {
	if descriptor, ok := artStyles[key]; ok {
		return descriptor, true
	}
	return artStyles[DefaultArtStyleKey], false
}

// StyleKeys は選択可能な画風キーを昇順で返します。
func StyleKeys() []string {
	keys := make([]string, 0, len(artStyles))
	for k := range artStyles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
