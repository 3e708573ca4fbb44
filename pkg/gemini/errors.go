package gemini

import "errors"

// 応答検証まわりの番兵エラー群です。呼び出し側は errors.Is で分岐できるのだ。
var (
	// ErrMalformedResponse は必須リストの欠落・型不正・片側空を表します。
	ErrMalformedResponse = errors.New("応答の必須フィールドが欠落しているか形式が不正です")

	// ErrUnparsableResponse は構造化データとして解釈できない応答を表します。
	ErrUnparsableResponse = errors.New("応答を構造化データとして解釈できません")

	// ErrEmptyGeneration は解釈はできたが本文もプロンプトも空だった応答を表します。
	ErrEmptyGeneration = errors.New("応答は解釈できましたが生成内容が空です")

	// ErrNoImageReturned は画像を期待した応答に画像ペイロードが無かったことを表します。
	ErrNoImageReturned = errors.New("応答に画像データが含まれていません")

	// ErrEmptyResponse は動画プロンプト生成の呼び出し失敗・空応答を表します。
	ErrEmptyResponse = errors.New("応答にテキストが含まれていません")
)
