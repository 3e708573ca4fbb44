package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/shouni/go-ehon-kit/pkg/domain"
	"github.com/shouni/go-ehon-kit/pkg/gemini"
)

// RegenerateImage は指定シーンの挿絵を作り直します。試行は1回だけで、
// 失敗したら以前の挿絵ごと破棄して failed に落とします。
// 対象シーンが busy なら ErrSceneBusy で即座に拒否するのだ。
func (s *Session) RegenerateImage(ctx context.Context, versionID string, sceneIndex int) error {
	prompt, err := s.beginRegenerate(versionID, sceneIndex)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "挿絵を再生成します", "version", versionID, "scene", sceneIndex+1)

	image, genErr := s.generateSceneImage(ctx, prompt)
	resolved := regenerateResolved{versionID: versionID, index: sceneIndex, err: genErr}
	if genErr == nil {
		resolved.data = image.Data
		resolved.mime = image.MimeType
	}
	if applyErr := s.apply(resolved); applyErr != nil {
		return applyErr
	}
	return genErr
}

// EditImage は指定シーンの挿絵へ指示された変更だけを適用します。
// 表示可能な挿絵がなければ ErrImageNotReady です。失敗時は元の挿絵が残ります。
func (s *Session) EditImage(ctx context.Context, versionID string, sceneIndex int, instruction string) error {
	if strings.TrimSpace(instruction) == "" {
		return fmt.Errorf("編集指示が空です")
	}

	base, err := s.beginEdit(versionID, sceneIndex)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "挿絵を編集します", "version", versionID, "scene", sceneIndex+1)

	image, genErr := s.editSceneImage(ctx, base, instruction)
	resolved := editResolved{versionID: versionID, index: sceneIndex, err: genErr}
	if genErr == nil {
		resolved.data = image.Data
		resolved.mime = image.MimeType
	}
	if applyErr := s.apply(resolved); applyErr != nil {
		return applyErr
	}
	return genErr
}

// GenerateVideoPrompt は指定シーンの挿絵を短く動かすための
// モーション指示文を生成し、シーンへ記録して返します。
func (s *Session) GenerateVideoPrompt(ctx context.Context, versionID string, sceneIndex int) (string, error) {
	paragraph, image, err := s.beginVideoPrompt(versionID, sceneIndex)
	if err != nil {
		return "", err
	}

	slog.InfoContext(ctx, "動画プロンプトを生成します", "version", versionID, "scene", sceneIndex+1)

	prompt, genErr := s.videoPromptFor(ctx, paragraph, image)
	resolved := videoPromptResolved{versionID: versionID, index: sceneIndex, prompt: prompt, err: genErr}
	if applyErr := s.apply(resolved); applyErr != nil {
		return "", applyErr
	}
	return prompt, genErr
}

// Restore は保存済みのバージョンをセッションへ取り込み、アクティブにします。
// 続き生成やシーン操作を保存済みの物語から再開するための入り口なのだ。
func (s *Session) Restore(v *domain.StoryVersion) (string, error) {
	if v == nil || len(v.Scenes) == 0 {
		return "", fmt.Errorf("復元できる物語がありません")
	}

	restored := v.Clone()
	if restored.ID == "" {
		restored.ID = uuid.NewString()
	}
	restored.Mode = restored.Mode.Normalize()
	restored.Loading = false
	restored.Err = ""

	if err := s.apply(versionRestored{version: restored}); err != nil {
		return "", err
	}
	if err := s.SetActive(restored.ID); err != nil {
		return "", err
	}

	slog.Info("保存済みのバージョンを復元しました", "version", restored.ID, "scenes", len(restored.Scenes))
	return restored.ID, nil
}

// beginRegenerate はガードと再生成フラグの設定、プロンプトの取り出しを
// 1回のロックで行います。
func (s *Session) beginRegenerate(versionID string, index int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.applyLocked(regenerateStarted{versionID: versionID, index: index}); err != nil {
		return "", err
	}
	scene, err := s.sceneLocked(versionID, index)
	if err != nil {
		return "", err
	}
	return scene.ImagePrompt, nil
}

// beginEdit はガードと編集フラグの設定、編集対象画像の複製を
// 1回のロックで行います。
func (s *Session) beginEdit(versionID string, index int) (gemini.GeneratedImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.applyLocked(editStarted{versionID: versionID, index: index}); err != nil {
		return gemini.GeneratedImage{}, err
	}
	scene, err := s.sceneLocked(versionID, index)
	if err != nil {
		return gemini.GeneratedImage{}, err
	}
	copied := scene.Clone()
	return gemini.GeneratedImage{Data: copied.ImageData, MimeType: copied.ImageMime}, nil
}

// beginVideoPrompt はガードとフラグ設定、本文と対象挿絵の取り出しを
// 1回のロックで行います。
func (s *Session) beginVideoPrompt(versionID string, index int) (string, gemini.GeneratedImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.applyLocked(videoPromptStarted{versionID: versionID, index: index}); err != nil {
		return "", gemini.GeneratedImage{}, err
	}
	scene, err := s.sceneLocked(versionID, index)
	if err != nil {
		return "", gemini.GeneratedImage{}, err
	}
	copied := scene.Clone()
	return copied.Paragraph, gemini.GeneratedImage{Data: copied.ImageData, MimeType: copied.ImageMime}, nil
}

// generateSceneImage は参照キャラクター画像をそろえて挿絵を1回だけ生成します。
func (s *Session) generateSceneImage(ctx context.Context, prompt string) (*gemini.GeneratedImage, error) {
	characters, err := s.fetchCharacters(ctx)
	if err != nil {
		return nil, err
	}
	return s.deps.Generator.GenerateImage(ctx, gemini.ImageRequest{
		Prompt:      prompt,
		Characters:  characters,
		AspectRatio: s.settings.AspectRatio,
	})
}

func (s *Session) editSceneImage(ctx context.Context, base gemini.GeneratedImage, instruction string) (*gemini.GeneratedImage, error) {
	characters, err := s.fetchCharacters(ctx)
	if err != nil {
		return nil, err
	}
	return s.deps.Generator.EditImage(ctx, gemini.EditRequest{
		Base:        base,
		Instruction: instruction,
		Characters:  characters,
	})
}

func (s *Session) videoPromptFor(ctx context.Context, paragraph string, image gemini.GeneratedImage) (string, error) {
	characters, err := s.fetchCharacters(ctx)
	if err != nil {
		return "", err
	}
	return s.deps.Generator.GenerateVideoPrompt(ctx, gemini.VideoPromptRequest{
		Paragraph:  paragraph,
		Image:      image,
		Characters: characters,
		ArtStyle:   s.settings.ArtStyle,
		Language:   s.settings.Language,
	})
}

func (s *Session) fetchCharacters(ctx context.Context) ([]domain.CharacterAsset, error) {
	characters, err := s.deps.Assets.FetchAll(ctx, s.settings.CharacterRefs)
	if err != nil {
		return nil, fmt.Errorf("参照キャラクター画像の取得に失敗しました: %w", err)
	}
	return characters, nil
}
