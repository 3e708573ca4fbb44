package domain

// CharacterAsset は参照キャラクター画像1枚ぶんの転送用データです。
// セッション開始時に一度だけ作られ、以降のすべてのリモート呼び出しで
// 値として共有される不変データなのだ。
type CharacterAsset struct {
	Data     []byte
	MimeType string
}

// Empty はデータを持たないアセットかどうかを返します。
func (a CharacterAsset) Empty() bool {
	return len(a.Data) == 0
}
