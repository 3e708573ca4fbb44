package builder

import (
	"github.com/shouni/go-ehon-kit/internal/config"
	"github.com/shouni/go-ehon-kit/pkg/session"

	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する
// これを各実行関数に渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config  *config.Config         // Configは、環境変数から読み込まれたグローバルな設定です（APIキー、モデル名など）。
	Options config.GenerateOptions // Optionsは、コマンドラインから渡された実行時の設定です。
	Reader  remoteio.InputReader   // Readerは、参照画像や保存済み story.json の読み込みに使用する入力元です。
	Writer  remoteio.OutputWriter  // Writerは、生成された成果物を保存するための出力先です。
	Session *session.Session       // Sessionは、物語テイク一式を管理するステートマシンです。
}
