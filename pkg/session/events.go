package session

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-ehon-kit/pkg/domain"
)

// event はセッション状態への変更要求です。状態に触れるのは reduceLocked
// だけで、各 Session メソッドはイベントを組み立てて適用するだけなのだ。
// ガード条件を満たさないイベントは状態を一切変えずにエラーで拒否されます。
type event interface {
	name() string
}

// versionCreated は生成開始時のプレースホルダ登録です。
type versionCreated struct {
	id   string
	mode domain.StoryMode
}

// versionRestored は保存済みバージョンの取り込みです。version は呼び出し側で
// 複製済みであることが前提です。
type versionRestored struct {
	version *domain.StoryVersion
}

// storyApplied は新規生成された本文一式でバージョンを置き換えます。
type storyApplied struct {
	versionID string
	title     string
	scenes    []domain.Scene
}

// scenesAppended は続き生成の追加シーンを末尾に継ぎ足します。
type scenesAppended struct {
	versionID string
	scenes    []domain.Scene
}

// sceneImageReady は挿絵生成の成功をシーンへ反映します。
type sceneImageReady struct {
	versionID string
	index     int
	data      []byte
	mime      string
}

// sceneImageFailed は挿絵生成の失敗（リトライ込み）をシーンへ反映します。
type sceneImageFailed struct {
	versionID string
	index     int
}

// pipelineSettled は生成パイプラインの終了（成否問わず）を記録します。
type pipelineSettled struct {
	versionID string
	err       error
}

// continuationStarted は続き生成の開始ガードです。
type continuationStarted struct {
	versionID string
	mode      domain.StoryMode
}

type regenerateStarted struct {
	versionID string
	index     int
}

type regenerateResolved struct {
	versionID string
	index     int
	data      []byte
	mime      string
	err       error
}

type editStarted struct {
	versionID string
	index     int
}

type editResolved struct {
	versionID string
	index     int
	data      []byte
	mime      string
	err       error
}

type videoPromptStarted struct {
	versionID string
	index     int
}

type videoPromptResolved struct {
	versionID string
	index     int
	prompt    string
	err       error
}

func (versionCreated) name() string      { return "version_created" }
func (versionRestored) name() string     { return "version_restored" }
func (storyApplied) name() string        { return "story_applied" }
func (scenesAppended) name() string      { return "scenes_appended" }
func (sceneImageReady) name() string     { return "scene_image_ready" }
func (sceneImageFailed) name() string    { return "scene_image_failed" }
func (pipelineSettled) name() string     { return "pipeline_settled" }
func (continuationStarted) name() string { return "continuation_started" }
func (regenerateStarted) name() string   { return "regenerate_started" }
func (regenerateResolved) name() string  { return "regenerate_resolved" }
func (editStarted) name() string         { return "edit_started" }
func (editResolved) name() string        { return "edit_resolved" }
func (videoPromptStarted) name() string  { return "video_prompt_started" }
func (videoPromptResolved) name() string { return "video_prompt_resolved" }

// applyLocked はイベントを適用し、拒否されたものを記録します。
// 呼び出し側が s.mu の書き込みロックを保持している必要があります。
func (s *Session) applyLocked(ev event) error {
	if err := s.reduceLocked(ev); err != nil {
		slog.Warn("イベントを適用できませんでした", "event", ev.name(), "error", err)
		return err
	}
	return nil
}

// reduceLocked がセッション状態を変更する唯一の場所です。
func (s *Session) reduceLocked(ev event) error {
	switch e := ev.(type) {
	case versionCreated:
		if _, err := s.findLocked(e.id); err == nil {
			return fmt.Errorf("バージョン ID が重複しています: %s", e.id)
		}
		s.versions = append(s.versions, &domain.StoryVersion{
			ID:      e.id,
			Mode:    e.mode.Normalize(),
			Loading: true,
		})
		return nil

	case versionRestored:
		if _, err := s.findLocked(e.version.ID); err == nil {
			return fmt.Errorf("バージョン ID が重複しています: %s", e.version.ID)
		}
		s.versions = append(s.versions, e.version)
		return nil

	case storyApplied:
		v, err := s.findLocked(e.versionID)
		if err != nil {
			return err
		}
		if !v.Loading {
			return fmt.Errorf("生成中ではないバージョンに本文を適用できません: %s", e.versionID)
		}
		v.Title = e.title
		v.Scenes = cloneScenes(e.scenes)
		return nil

	case scenesAppended:
		v, err := s.findLocked(e.versionID)
		if err != nil {
			return err
		}
		if !v.Loading {
			return fmt.Errorf("生成中ではないバージョンにシーンを追加できません: %s", e.versionID)
		}
		v.Scenes = append(v.Scenes, cloneScenes(e.scenes)...)
		return nil

	case sceneImageReady:
		scene, err := s.sceneLocked(e.versionID, e.index)
		if err != nil {
			return err
		}
		if scene.ImageState != domain.ImagePending {
			return fmt.Errorf("生成待ちではないシーンに挿絵を適用できません: scene %d (%s)", e.index, scene.ImageState)
		}
		scene.ImageState = domain.ImageReady
		scene.ImageData = e.data
		scene.ImageMime = e.mime
		return nil

	case sceneImageFailed:
		scene, err := s.sceneLocked(e.versionID, e.index)
		if err != nil {
			return err
		}
		if scene.ImageState != domain.ImagePending {
			return fmt.Errorf("生成待ちではないシーンを failed にできません: scene %d (%s)", e.index, scene.ImageState)
		}
		scene.ImageState = domain.ImageFailed
		return nil

	case pipelineSettled:
		v, err := s.findLocked(e.versionID)
		if err != nil {
			return err
		}
		v.Loading = false
		if e.err != nil {
			v.Err = e.err.Error()
		} else {
			v.Err = ""
		}
		return nil

	case continuationStarted:
		v, err := s.findLocked(e.versionID)
		if err != nil {
			return err
		}
		if v.Loading {
			return fmt.Errorf("%w: %s", ErrVersionBusy, e.versionID)
		}
		if len(v.Scenes) == 0 {
			return fmt.Errorf("%w: %s", ErrNothingToContinue, e.versionID)
		}
		v.Loading = true
		v.Err = ""
		v.Mode = e.mode.Normalize()
		return nil

	case regenerateStarted:
		scene, err := s.actionableSceneLocked(e.versionID, e.index)
		if err != nil {
			return err
		}
		if scene.ImageState == domain.ImagePending {
			return fmt.Errorf("生成待ちのシーンは再生成できません: scene %d", e.index)
		}
		scene.Regenerating = true
		return nil

	case regenerateResolved:
		scene, err := s.sceneLocked(e.versionID, e.index)
		if err != nil {
			return err
		}
		if !scene.Regenerating {
			return fmt.Errorf("再生成中ではないシーンに結果を適用できません: scene %d", e.index)
		}
		scene.Regenerating = false
		if e.err != nil {
			// 再生成の失敗は以前の挿絵ごと破棄して failed に落とすのだ。
			scene.ImageState = domain.ImageFailed
			scene.ImageData = nil
			scene.ImageMime = ""
			return nil
		}
		scene.ImageState = domain.ImageReady
		scene.ImageData = e.data
		scene.ImageMime = e.mime
		return nil

	case editStarted:
		scene, err := s.actionableSceneLocked(e.versionID, e.index)
		if err != nil {
			return err
		}
		if !scene.HasReadyImage() {
			return fmt.Errorf("%w: scene %d", ErrImageNotReady, e.index)
		}
		scene.EditState = domain.ActionLoading
		return nil

	case editResolved:
		scene, err := s.sceneLocked(e.versionID, e.index)
		if err != nil {
			return err
		}
		if !scene.EditState.Loading() {
			return fmt.Errorf("編集中ではないシーンに結果を適用できません: scene %d", e.index)
		}
		scene.EditState = domain.ActionIdle
		// 編集の失敗では元の挿絵をそのまま残します。
		if e.err == nil {
			scene.ImageData = e.data
			scene.ImageMime = e.mime
		}
		return nil

	case videoPromptStarted:
		scene, err := s.actionableSceneLocked(e.versionID, e.index)
		if err != nil {
			return err
		}
		if !scene.HasReadyImage() {
			return fmt.Errorf("%w: scene %d", ErrImageNotReady, e.index)
		}
		scene.VideoPromptState = domain.ActionLoading
		return nil

	case videoPromptResolved:
		scene, err := s.sceneLocked(e.versionID, e.index)
		if err != nil {
			return err
		}
		if !scene.VideoPromptState.Loading() {
			return fmt.Errorf("動画プロンプト生成中ではないシーンに結果を適用できません: scene %d", e.index)
		}
		scene.VideoPromptState = domain.ActionIdle
		if e.err == nil {
			scene.VideoPrompt = e.prompt
		}
		return nil

	default:
		return fmt.Errorf("未知のイベントです: %s", ev.name())
	}
}

// actionableSceneLocked はシーン単位の追加操作を開始できるか検査して返します。
// バージョンが生成中なら ErrVersionBusy、別操作が進行中なら ErrSceneBusy です。
func (s *Session) actionableSceneLocked(versionID string, index int) (*domain.Scene, error) {
	v, err := s.findLocked(versionID)
	if err != nil {
		return nil, err
	}
	if v.Loading {
		return nil, fmt.Errorf("%w: %s", ErrVersionBusy, versionID)
	}
	scene, ok := v.SceneAt(index)
	if !ok {
		return nil, fmt.Errorf("%w: scene %d", ErrSceneNotFound, index)
	}
	if scene.Busy() {
		return nil, fmt.Errorf("%w: scene %d", ErrSceneBusy, index)
	}
	return scene, nil
}

// cloneScenes はシーン列の防御的コピーを作ります。パイプライン側が
// 手元のスライスを書き換えてもセッション状態に波及しないためなのだ。
func cloneScenes(scenes []domain.Scene) []domain.Scene {
	copied := make([]domain.Scene, len(scenes))
	for i, s := range scenes {
		copied[i] = s.Clone()
	}
	return copied
}
