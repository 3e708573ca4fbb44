package prompts

const (
	// AspectLandscape は横長（絵本の見開き向け）のアスペクト比です。
	AspectLandscape = "16:9"
	// AspectPortrait は縦長（単ページ向け）のアスペクト比です。
	AspectPortrait = "9:16"
)

// NormalizeAspectRatio は対応する2比率のどちらかに正規化します。
// 未知の値は横長に倒し、第2戻り値で既知値だったかを返すのだ。
func NormalizeAspectRatio(ratio string) (string, bool) {
	switch ratio {
	case AspectLandscape, AspectPortrait:
		return ratio, true
	}
	return AspectLandscape, false
}

// AspectRatioDescriptor は画像モデルに渡す構図指示の文言を返します。
func AspectRatioDescriptor(ratio string) string {
	normalized, _ := NormalizeAspectRatio(ratio)
	if normalized == AspectPortrait {
		return "9:16 portrait orientation, a tall single picture-book page"
	}
	return "16:9 landscape orientation, a wide picture-book spread"
}
