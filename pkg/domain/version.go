package domain

// StoryVersion はユーザーに見える1つの物語インスタンスです。
// 同じキャラクター・同じ設定から複数の「テイク」が並行生成されることがあり、
// それぞれが ID で独立に参照されます。
type StoryVersion struct {
	ID     string    `json:"id"`
	Title  string    `json:"title"`
	Scenes []Scene   `json:"scenes"`
	Mode   StoryMode `json:"mode"`

	// Loading は生成パイプライン（新規・続き）が進行中であることを示します。
	// Err は終端失敗の表示用メッセージです。どちらも永続化対象ではないのだ。
	Loading bool   `json:"-"`
	Err     string `json:"-"`
}

// Failed はバージョンが終端失敗状態かどうかを返します。
func (v *StoryVersion) Failed() bool {
	return !v.Loading && v.Err != ""
}

// Clone はバージョン全体の防御的コピーを返します。
// 並行パイプラインからの書き込みと読み手が部分的な状態を共有しないためなのだ。
func (v *StoryVersion) Clone() *StoryVersion {
	if v == nil {
		return nil
	}
	copied := *v
	if v.Scenes != nil {
		copied.Scenes = make([]Scene, len(v.Scenes))
		for i, s := range v.Scenes {
			copied.Scenes[i] = s.Clone()
		}
	}
	return &copied
}

// SceneAt は範囲チェック付きでシーンを参照します。
func (v *StoryVersion) SceneAt(index int) (*Scene, bool) {
	if v == nil || index < 0 || index >= len(v.Scenes) {
		return nil, false
	}
	return &v.Scenes[index], true
}
