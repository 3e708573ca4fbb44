package runner

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/shouni/go-ehon-kit/pkg/domain"
	"github.com/shouni/go-ehon-kit/pkg/gemini"

	"golang.org/x/time/rate"
)

// fakeGenerator はリモート生成を差し替える試験用スタブです。
// imageFailures でプロンプトごとの失敗回数を注入できるのだ。
type fakeGenerator struct {
	mu            sync.Mutex
	imageCalls    []string
	imageFailures map[string]int
	storyErr      error
	draft         *domain.StoryDraft
	continuation  *domain.Continuation
}

func (g *fakeGenerator) GenerateStory(_ context.Context, _ gemini.StoryRequest) (*domain.StoryDraft, error) {
	if g.storyErr != nil {
		return nil, g.storyErr
	}
	return g.draft, nil
}

func (g *fakeGenerator) ContinueStory(_ context.Context, _ gemini.ContinuationRequest) (*domain.Continuation, error) {
	if g.storyErr != nil {
		return nil, g.storyErr
	}
	return g.continuation, nil
}

func (g *fakeGenerator) GenerateImage(_ context.Context, req gemini.ImageRequest) (*gemini.GeneratedImage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.imageCalls = append(g.imageCalls, req.Prompt)
	if g.imageFailures[req.Prompt] > 0 {
		g.imageFailures[req.Prompt]--
		return nil, errors.New("挿絵生成の模擬失敗")
	}
	return &gemini.GeneratedImage{Data: []byte(req.Prompt), MimeType: "image/png"}, nil
}

type fakeFetcher struct{}

func (fakeFetcher) FetchAll(_ context.Context, refs []string) ([]domain.CharacterAsset, error) {
	assets := make([]domain.CharacterAsset, 0, len(refs))
	for range refs {
		assets = append(assets, domain.CharacterAsset{Data: []byte{0xFF}, MimeType: "image/png"})
	}
	return assets, nil
}

// progressLog は Progress フックの呼び出しを「stage:detail」形式で記録します。
type progressLog struct {
	mu      sync.Mutex
	entries []string
}

func (p *progressLog) hook(stage Stage, detail string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, fmt.Sprintf("%d:%s", stage, detail))
}

func (p *progressLog) snapshot() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.entries...)
}

func testRunner(gen *fakeGenerator) *StoryRunner {
	// テストでは流量制限なし・待ち時間1msで素早く回すのだ。
	return NewStoryRunner(gen, fakeFetcher{}, rate.NewLimiter(rate.Inf, 0),
		RetryPolicy{MaxAttempts: 2, Backoff: time.Millisecond})
}

func newDraft() *domain.StoryDraft {
	return &domain.StoryDraft{
		Title:        "こぎつねコンのぼうけん",
		Paragraphs:   []string{"段落1", "段落2", "段落3"},
		ImagePrompts: []string{"prompt-1", "prompt-2", "prompt-3"},
	}
}

func TestStoryRunner_Run(t *testing.T) {
	t.Run("4段階が順番どおりに通知されるのだ", func(t *testing.T) {
		gen := &fakeGenerator{draft: newDraft()}
		log := &progressLog{}

		result, err := testRunner(gen).Run(context.Background(), RunRequest{
			CharacterRefs: []string{"char.png"},
			Language:      "Japanese",
			SceneCount:    3,
			Hooks:         Hooks{Progress: log.hook},
		})
		if err != nil {
			t.Fatalf("成功するはずの実行が失敗したのだ: %v", err)
		}

		want := []string{"1:", "2:", "3:1/3", "3:2/3", "3:3/3", "4:"}
		if got := log.snapshot(); !reflect.DeepEqual(got, want) {
			t.Errorf("段階通知の順序が違うのだ。期待: %v, 実際: %v", want, got)
		}

		if result.Title != "こぎつねコンのぼうけん" {
			t.Errorf("タイトルが引き継がれていないのだ: %q", result.Title)
		}
		for i, scene := range result.Scenes {
			if !scene.HasReadyImage() {
				t.Errorf("シーン %d の挿絵が ready ではないのだ: %s", i, scene.ImageState)
			}
		}
	})

	t.Run("一度失敗したシーンはリトライで救済されるのだ", func(t *testing.T) {
		gen := &fakeGenerator{
			draft:         newDraft(),
			imageFailures: map[string]int{"prompt-1": 1},
		}

		result, err := testRunner(gen).Run(context.Background(), RunRequest{
			CharacterRefs: []string{"char.png"},
			Language:      "Japanese",
			SceneCount:    3,
		})
		if err != nil {
			t.Fatalf("リトライで救済されるはずが失敗したのだ: %v", err)
		}

		// 初回失敗 → 同じシーンを再試行 → 次のシーンへ、の順序になるのだ。
		wantCalls := []string{"prompt-1", "prompt-1", "prompt-2", "prompt-3"}
		if !reflect.DeepEqual(gen.imageCalls, wantCalls) {
			t.Errorf("呼び出し順が違うのだ。期待: %v, 実際: %v", wantCalls, gen.imageCalls)
		}
		if !result.Scenes[0].HasReadyImage() {
			t.Error("リトライ成功後のシーンが ready になっていないのだ")
		}
	})

	t.Run("リトライ上限を超えたシーンは failed のまま先へ進むのだ", func(t *testing.T) {
		gen := &fakeGenerator{
			draft:         newDraft(),
			imageFailures: map[string]int{"prompt-2": 10},
		}
		log := &progressLog{}

		var failedIndices []int
		result, err := testRunner(gen).Run(context.Background(), RunRequest{
			CharacterRefs: []string{"char.png"},
			Language:      "Japanese",
			SceneCount:    3,
			Hooks: Hooks{
				Progress: log.hook,
				ImageProduced: func(index int, image *gemini.GeneratedImage, genErr error) {
					if genErr != nil {
						failedIndices = append(failedIndices, index)
					}
				},
			},
		})
		if err != nil {
			t.Fatalf("部分失敗はエラーにならないはずなのだ: %v", err)
		}

		// 2回（初回 + リトライ1回）で打ち切られ、3回目は発行されないのだ。
		wantCalls := []string{"prompt-1", "prompt-2", "prompt-2", "prompt-3"}
		if !reflect.DeepEqual(gen.imageCalls, wantCalls) {
			t.Errorf("呼び出し順が違うのだ。期待: %v, 実際: %v", wantCalls, gen.imageCalls)
		}
		if !reflect.DeepEqual(failedIndices, []int{1}) {
			t.Errorf("失敗通知の添字が違うのだ: %v", failedIndices)
		}
		if result.Scenes[1].ImageState != domain.ImageFailed {
			t.Errorf("失敗シーンの状態が failed ではないのだ: %s", result.Scenes[1].ImageState)
		}

		got := log.snapshot()
		if got[len(got)-1] != "4:" {
			t.Errorf("部分失敗でも完了段階まで到達するはずなのだ: %v", got)
		}
	})

	t.Run("全シーン失敗なら ErrAllImagesFailed で終わるのだ", func(t *testing.T) {
		gen := &fakeGenerator{
			draft: newDraft(),
			imageFailures: map[string]int{
				"prompt-1": 10, "prompt-2": 10, "prompt-3": 10,
			},
		}
		log := &progressLog{}

		_, err := testRunner(gen).Run(context.Background(), RunRequest{
			CharacterRefs: []string{"char.png"},
			Language:      "Japanese",
			SceneCount:    3,
			Hooks:         Hooks{Progress: log.hook},
		})
		if !errors.Is(err, ErrAllImagesFailed) {
			t.Fatalf("ErrAllImagesFailed が返るはずなのだ: %v", err)
		}

		for _, entry := range log.snapshot() {
			if entry == "4:" {
				t.Error("全滅時に完了段階が通知されてはいけないのだ")
			}
		}
	})

	t.Run("物語生成の失敗では挿絵を1枚も要求しないのだ", func(t *testing.T) {
		gen := &fakeGenerator{storyErr: errors.New("物語生成の模擬失敗")}

		_, err := testRunner(gen).Run(context.Background(), RunRequest{
			CharacterRefs: []string{"char.png"},
			Language:      "Japanese",
			SceneCount:    3,
		})
		if err == nil {
			t.Fatal("物語生成の失敗がエラーになっていないのだ")
		}
		if len(gen.imageCalls) != 0 {
			t.Errorf("挿絵生成が呼ばれてしまったのだ: %v", gen.imageCalls)
		}
	})
}

func TestStoryRunner_RunContinuation(t *testing.T) {
	t.Run("追加シーンの添字は既存本文の直後から始まるのだ", func(t *testing.T) {
		gen := &fakeGenerator{
			continuation: &domain.Continuation{
				Paragraphs:   []string{"続き1", "続き2"},
				ImagePrompts: []string{"prompt-4", "prompt-5"},
			},
		}
		log := &progressLog{}

		var gotIndices []int
		scenes, err := testRunner(gen).RunContinuation(context.Background(), ContinueRequest{
			ExistingParagraphs: []string{"段落1", "段落2", "段落3"},
			CharacterRefs:      []string{"char.png"},
			Language:           "Japanese",
			SceneCount:         2,
			Hooks: Hooks{
				Progress: log.hook,
				ImageProduced: func(index int, _ *gemini.GeneratedImage, _ error) {
					gotIndices = append(gotIndices, index)
				},
			},
		})
		if err != nil {
			t.Fatalf("続き生成が失敗したのだ: %v", err)
		}

		if !reflect.DeepEqual(gotIndices, []int{3, 4}) {
			t.Errorf("挿絵通知の添字が違うのだ。期待: [3 4], 実際: %v", gotIndices)
		}
		if len(scenes) != 2 {
			t.Fatalf("追加シーン数が違うのだ: %d", len(scenes))
		}

		// 進捗の分母は追加ぶんだけを数えるのだ。
		want := []string{"1:", "2:", "3:1/2", "3:2/2", "4:"}
		if got := log.snapshot(); !reflect.DeepEqual(got, want) {
			t.Errorf("段階通知の順序が違うのだ。期待: %v, 実際: %v", want, got)
		}
	})

	t.Run("追加シーンが全滅なら既存の成功に関係なく失敗するのだ", func(t *testing.T) {
		gen := &fakeGenerator{
			continuation: &domain.Continuation{
				Paragraphs:   []string{"続き1"},
				ImagePrompts: []string{"prompt-4"},
			},
			imageFailures: map[string]int{"prompt-4": 10},
		}

		_, err := testRunner(gen).RunContinuation(context.Background(), ContinueRequest{
			ExistingParagraphs: []string{"段落1", "段落2"},
			CharacterRefs:      []string{"char.png"},
			Language:           "Japanese",
			SceneCount:         1,
		})
		if !errors.Is(err, ErrAllImagesFailed) {
			t.Fatalf("ErrAllImagesFailed が返るはずなのだ: %v", err)
		}
	})
}

func TestDraftScenes(t *testing.T) {
	t.Run("段落とプロンプトの長さがずれても短い方に合わせるのだ", func(t *testing.T) {
		scenes := draftScenes([]string{"a", "b", "c"}, []string{"p1", "p2"})
		if len(scenes) != 2 {
			t.Fatalf("シーン数が違うのだ: %d", len(scenes))
		}
		if scenes[1].Paragraph != "b" || scenes[1].ImagePrompt != "p2" {
			t.Errorf("シーンの対応が崩れているのだ: %+v", scenes[1])
		}
	})

	t.Run("生成直後のシーンは全て pending なのだ", func(t *testing.T) {
		for _, scene := range draftScenes([]string{"a"}, []string{"p"}) {
			if scene.ImageState != domain.ImagePending {
				t.Errorf("初期状態が pending ではないのだ: %s", scene.ImageState)
			}
		}
	})
}
