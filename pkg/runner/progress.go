package runner

import (
	"fmt"

	"github.com/shouni/go-ehon-kit/pkg/domain"
	"github.com/shouni/go-ehon-kit/pkg/gemini"
)

// Stage はパイプラインの観測可能な4段階です。値は 1 から始まります。
type Stage int

const (
	// StageStory は物語本文と画像プロンプトの生成段階です。
	StageStory Stage = iota + 1
	// StagePrepareIllustrations は挿絵生成フェーズへの移行マーカーです。リモート呼び出しはありません。
	StagePrepareIllustrations
	// StageIllustrations は場面ごとの挿絵生成段階です。detail に "現在/合計" が入ります。
	StageIllustrations
	// StageComplete はパイプライン全体の完了マーカーです。
	StageComplete
)

// String はログ用の段階名を返します。
func (s Stage) String() string {
	switch s {
	case StageStory:
		return "story"
	case StagePrepareIllustrations:
		return "prepare_illustrations"
	case StageIllustrations:
		return "illustrations"
	case StageComplete:
		return "complete"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Hooks はパイプライン1回ぶんの観測コールバック一式です。
// 未設定のフィールドは無視されます。呼び出しはすべてパイプラインと同じ
// ゴルーチン上で、場面順どおりに行われるのだ。
type Hooks struct {
	// Progress は4段階の進行を報告します。挿絵段階では detail に "現在/合計" が入ります。
	Progress func(stage Stage, detail string)

	// StoryProduced は物語段階の成功直後に、タイトルと未生成状態のシーン列を渡します。
	// 続き生成ではタイトルは常に空文字列です。
	StoryProduced func(title string, scenes []domain.Scene)

	// ImageProduced は各シーンの挿絵試行（再試行込み）の結末を渡します。
	// 失敗時は image が nil になり genErr に最後の試行のエラーが入ります。
	ImageProduced func(index int, image *gemini.GeneratedImage, genErr error)
}

// report は Progress フックの nil 安全な呼び出しです。
func (h Hooks) report(stage Stage, detail string) {
	if h.Progress != nil {
		h.Progress(stage, detail)
	}
}
