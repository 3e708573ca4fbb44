package session

import "errors"

// セッション操作が返す終端エラー群です。呼び出し側（UI や CLI）は
// errors.Is で分類して、ボタンの無効化やメッセージ表示に振り分けるのだ。
var (
	// ErrVersionNotFound は指定 ID のバージョンが登録されていないことを示します。
	ErrVersionNotFound = errors.New("指定されたバージョンが見つかりません")

	// ErrSceneNotFound はシーン添字がバージョンの範囲外であることを示します。
	ErrSceneNotFound = errors.New("指定されたシーンが見つかりません")

	// ErrVersionBusy は対象バージョンの生成パイプラインが進行中で、
	// 追加の操作を受け付けられないことを示します。
	ErrVersionBusy = errors.New("このバージョンでは生成パイプラインが進行中です")

	// ErrSceneBusy は対象シーンで別の操作（再生成・編集・動画プロンプト生成）が
	// 進行中であることを示します。シーン単位の操作は直列化されるのだ。
	ErrSceneBusy = errors.New("このシーンでは別の操作が進行中です")

	// ErrImageNotReady は表示可能な挿絵を前提とする操作（編集・動画プロンプト）が
	// 挿絵のないシーンに要求されたことを示します。
	ErrImageNotReady = errors.New("表示可能な挿絵がまだありません")

	// ErrNothingToContinue は続き生成の対象に本文が1つもないことを示します。
	ErrNothingToContinue = errors.New("続きを生成できる本文がありません")
)
