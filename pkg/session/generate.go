package session

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/shouni/go-ehon-kit/pkg/domain"
	"github.com/shouni/go-ehon-kit/pkg/gemini"
	"github.com/shouni/go-ehon-kit/pkg/runner"
)

// Outcome は1バージョンぶんの生成パイプラインの結末です。
type Outcome struct {
	VersionID string
	Err       error
}

// Failed は終端失敗かどうかを返します。
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// StartGeneration は versionCount 個のテイクを並行生成し、全員の完了を
// 待ってから各テイクの結末を返します。1つのテイクの失敗は他のテイクを
// 中断させません。途中経過は Snapshot / Version でいつでも読めるのだ。
func (s *Session) StartGeneration(ctx context.Context, versionCount int) ([]Outcome, error) {
	if versionCount < 1 {
		versionCount = 1
	}

	// 先にプレースホルダを全員ぶん登録して、読み手が生成中の状態を
	// 最初から観測できるようにします。
	ids := make([]string, versionCount)
	for i := range ids {
		id := uuid.NewString()
		if err := s.apply(versionCreated{id: id, mode: s.settings.Mode}); err != nil {
			return nil, err
		}
		ids[i] = id
	}
	if err := s.SetActive(ids[0]); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "並行生成を開始します",
		"versions", versionCount, "scenes", s.settings.SceneCount, "language", s.settings.Language)

	outcomes := make([]Outcome, versionCount)
	eg := new(errgroup.Group)
	for i, id := range ids {
		i, id := i, id // ゴルーチンのクロージャ対策なのだ

		eg.Go(func() error {
			// 失敗は outcomes に集約し、兄弟テイクを巻き込まないように
			// グループへは常に nil を返します。
			outcomes[i] = Outcome{VersionID: id, Err: s.runNewStory(ctx, id)}
			return nil
		})
	}
	_ = eg.Wait()

	return outcomes, nil
}

// ContinueStory は指定テイクの続きを生成してシーンを追加します。
// 対象が生成中なら ErrVersionBusy、本文が空なら ErrNothingToContinue です。
func (s *Session) ContinueStory(ctx context.Context, versionID string, mode domain.StoryMode) error {
	existing, err := s.beginContinuation(versionID, mode)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "続き生成を開始します",
		"version", versionID, "existing", len(existing), "mode", mode.Normalize())

	_, err = s.runner.RunContinuation(ctx, runner.ContinueRequest{
		ExistingParagraphs: existing,
		CharacterRefs:      s.settings.CharacterRefs,
		Language:           s.settings.Language,
		ArtStyle:           s.settings.ArtStyle,
		AspectRatio:        s.settings.AspectRatio,
		SceneCount:         s.settings.SceneCount,
		Mode:               mode.Normalize(),
		Hooks:              s.pipelineHooks(versionID, len(existing)),
	})
	s.settle(versionID, err)
	return err
}

// runNewStory は1テイクぶんの新規生成パイプラインを実行します。
func (s *Session) runNewStory(ctx context.Context, versionID string) error {
	_, err := s.runner.Run(ctx, runner.RunRequest{
		CharacterRefs: s.settings.CharacterRefs,
		Language:      s.settings.Language,
		ArtStyle:      s.settings.ArtStyle,
		AspectRatio:   s.settings.AspectRatio,
		SceneCount:    s.settings.SceneCount,
		Mode:          s.settings.Mode,
		Hooks:         s.pipelineHooks(versionID, 0),
	})
	s.settle(versionID, err)
	return err
}

// beginContinuation は続き生成のガードと既存本文の取り出しを
// 1回のロックで同時に行います。ガード通過と同時に Loading が立つため、
// 同じテイクへの二重の続き生成は必ずどちらかが拒否されるのだ。
func (s *Session) beginContinuation(versionID string, mode domain.StoryMode) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.applyLocked(continuationStarted{versionID: versionID, mode: mode}); err != nil {
		return nil, err
	}
	v, err := s.findLocked(versionID)
	if err != nil {
		return nil, err
	}
	return v.Paragraphs(), nil
}

// settle はパイプラインの終了をバージョンへ記録します。
func (s *Session) settle(versionID string, err error) {
	if err != nil {
		slog.Error("生成パイプラインが失敗しました", "version", versionID, "error", err)
	}
	_ = s.apply(pipelineSettled{versionID: versionID, err: err})
}

// pipelineHooks はランナーの進行通知をセッションのイベントへ橋渡しします。
// base は追加シーンの開始添字です（新規生成では 0）。
func (s *Session) pipelineHooks(versionID string, base int) runner.Hooks {
	return runner.Hooks{
		Progress: func(stage runner.Stage, detail string) {
			if s.deps.Progress != nil {
				s.deps.Progress(versionID, stage, detail)
			}
		},
		StoryProduced: func(title string, scenes []domain.Scene) {
			if base == 0 {
				_ = s.apply(storyApplied{versionID: versionID, title: title, scenes: scenes})
				return
			}
			_ = s.apply(scenesAppended{versionID: versionID, scenes: scenes})
		},
		ImageProduced: func(index int, image *gemini.GeneratedImage, genErr error) {
			if genErr != nil {
				_ = s.apply(sceneImageFailed{versionID: versionID, index: index})
				return
			}
			_ = s.apply(sceneImageReady{
				versionID: versionID,
				index:     index,
				data:      image.Data,
				mime:      image.MimeType,
			})
		},
	}
}
