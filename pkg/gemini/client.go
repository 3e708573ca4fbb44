package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/shouni/go-ehon-kit/pkg/domain"
	"github.com/shouni/go-ehon-kit/pkg/prompts"
)

// Client は Gemini API への5種類のリモート操作を束ねるクライアントです。
// 呼び出し間で状態を持たず、必要な値はすべて要求構造体で受け取ります。
type Client struct {
	genaiClient *genai.Client
	config      Config
	textBuilder *prompts.TextPromptBuilder
}

// NewClient は注入された設定からクライアントを初期化します。
// 資格情報は環境からではなく Config 経由で受け取るのが契約なのだ。
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("APIKey は必須です")
	}
	if cfg.TextModel == "" {
		cfg.TextModel = DefaultTextModel
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = DefaultImageModel
	}
	if cfg.Temperature == nil {
		cfg.Temperature = genai.Ptr(DefaultTemperature)
	}

	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("Gemini クライアントの初期化に失敗しました: %w", err)
	}

	textBuilder, err := prompts.NewTextPromptBuilder()
	if err != nil {
		return nil, err
	}

	return &Client{
		genaiClient: genaiClient,
		config:      cfg,
		textBuilder: textBuilder,
	}, nil
}

// GenerateStory は参照キャラクター画像から新規の物語一式を生成します。
// 本文と画像プロンプトの検証・切り詰めは parseStoryPayload の規約に従います。
func (c *Client) GenerateStory(ctx context.Context, req StoryRequest) (*domain.StoryDraft, error) {
	if err := validateCharacters(req.Characters); err != nil {
		return nil, err
	}

	prompt, err := c.buildStoryPrompt(prompts.ModeNewStory, req.Language, req.ArtStyle, req.SceneCount, req.Mode, nil)
	if err != nil {
		return nil, err
	}

	parts := append([]*genai.Part{genai.NewPartFromText(prompt)}, characterParts(req.Characters)...)

	slog.Info("Gemini へ物語生成を要求します",
		"model", c.config.TextModel, "scenes", req.SceneCount, "language", req.Language)
	raw, err := c.generateText(ctx, c.config.TextModel, parts, c.textConfig())
	if err != nil {
		return nil, fmt.Errorf("物語生成の呼び出しに失敗しました: %w", err)
	}

	payload, err := parseStoryPayload(raw)
	if err != nil {
		return nil, err
	}

	return &domain.StoryDraft{
		Title:        strings.TrimSpace(payload.Title),
		Paragraphs:   payload.Paragraphs,
		ImagePrompts: payload.ImagePrompts,
	}, nil
}

// ContinueStory は既存本文の続きを生成します。タイトルは要求しません。
func (c *Client) ContinueStory(ctx context.Context, req ContinuationRequest) (*domain.Continuation, error) {
	if err := validateCharacters(req.Characters); err != nil {
		return nil, err
	}
	if len(req.ExistingParagraphs) == 0 {
		return nil, fmt.Errorf("続きを生成するための既存本文がありません")
	}

	prompt, err := c.buildStoryPrompt(prompts.ModeContinuation, req.Language, req.ArtStyle, req.SceneCount, req.Mode, req.ExistingParagraphs)
	if err != nil {
		return nil, err
	}

	parts := append([]*genai.Part{genai.NewPartFromText(prompt)}, characterParts(req.Characters)...)

	slog.Info("Gemini へ続き生成を要求します",
		"model", c.config.TextModel, "scenes", req.SceneCount, "existing", len(req.ExistingParagraphs))
	raw, err := c.generateText(ctx, c.config.TextModel, parts, c.textConfig())
	if err != nil {
		return nil, fmt.Errorf("続き生成の呼び出しに失敗しました: %w", err)
	}

	payload, err := parseStoryPayload(raw)
	if err != nil {
		return nil, err
	}

	return &domain.Continuation{
		Paragraphs:   payload.Paragraphs,
		ImagePrompts: payload.ImagePrompts,
	}, nil
}

// GenerateImage は場面プロンプトと参照キャラクター画像から挿絵を1枚生成します。
// 画像ペイロードを含まない応答は ErrNoImageReturned になります。
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) (*GeneratedImage, error) {
	if err := validateCharacters(req.Characters); err != nil {
		return nil, err
	}

	ratio, known := prompts.NormalizeAspectRatio(req.AspectRatio)
	if !known && req.AspectRatio != "" {
		slog.Warn("未対応のアスペクト比のため横長に倒します", "aspect_ratio", req.AspectRatio, "fallback", ratio)
	}

	userPrompt, systemPrompt := prompts.BuildScenePrompt(req.Prompt, ratio, len(req.Characters))
	parts := []*genai.Part{
		genai.NewPartFromText(systemPrompt),
		genai.NewPartFromText(userPrompt),
	}
	parts = append(parts, characterParts(req.Characters)...)

	return c.generateImagePayload(ctx, parts)
}

// EditImage は既存挿絵に指示された変更だけを適用した画像を生成します。
// 添付順は「編集対象、参照キャラクター画像」の順で固定なのだ。
func (c *Client) EditImage(ctx context.Context, req EditRequest) (*GeneratedImage, error) {
	if err := validateCharacters(req.Characters); err != nil {
		return nil, err
	}
	if req.Base.Empty() {
		return nil, fmt.Errorf("編集対象の画像データがありません")
	}
	if strings.TrimSpace(req.Instruction) == "" {
		return nil, fmt.Errorf("編集指示が空です")
	}

	userPrompt, systemPrompt := prompts.BuildEditPrompt(req.Instruction, len(req.Characters))
	parts := []*genai.Part{
		genai.NewPartFromText(systemPrompt),
		genai.NewPartFromText(userPrompt),
		imagePart(req.Base),
	}
	parts = append(parts, characterParts(req.Characters)...)

	return c.generateImagePayload(ctx, parts)
}

// GenerateVideoPrompt は挿絵1枚を短く動かすためのモーション指示文を生成します。
// リモート呼び出しの失敗と空応答はどちらも ErrEmptyResponse として報告します。
// それ以外の応答テキストは整形せず、前後の空白だけ落として返すのだ。
func (c *Client) GenerateVideoPrompt(ctx context.Context, req VideoPromptRequest) (string, error) {
	if err := validateCharacters(req.Characters); err != nil {
		return "", err
	}
	if req.Image.Empty() {
		return "", fmt.Errorf("対象の挿絵データがありません")
	}

	styleDescriptor, known := prompts.ResolveArtStyle(req.ArtStyle)
	if !known && req.ArtStyle != "" {
		slog.Warn("未知の画風キーのためデフォルト画風を適用します",
			"art_style", req.ArtStyle, "fallback", prompts.DefaultArtStyleKey)
	}

	userPrompt, systemPrompt := prompts.BuildVideoPrompt(req.Paragraph, styleDescriptor, req.Language, len(req.Characters))
	parts := []*genai.Part{
		genai.NewPartFromText(systemPrompt),
		genai.NewPartFromText(userPrompt),
		imagePart(req.Image),
	}
	parts = append(parts, characterParts(req.Characters)...)

	raw, err := c.generateText(ctx, c.config.TextModel, parts, c.textConfig())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEmptyResponse, err)
	}
	if raw == "" {
		return "", ErrEmptyResponse
	}
	return raw, nil
}

// buildStoryPrompt は物語系テンプレートに画風・締め方・既存本文を流し込みます。
func (c *Client) buildStoryPrompt(mode, language, artStyle string, sceneCount int, storyMode domain.StoryMode, existing []string) (string, error) {
	styleDescriptor, known := prompts.ResolveArtStyle(artStyle)
	if !known && artStyle != "" {
		slog.Warn("未知の画風キーのためデフォルト画風を適用します",
			"art_style", artStyle, "fallback", prompts.DefaultArtStyleKey)
	}

	data := prompts.StoryTemplateData{
		Language:        language,
		SceneCount:      sceneCount,
		StyleDescriptor: styleDescriptor,
		ModeInstruction: prompts.ModeInstruction(storyMode),
	}
	if len(existing) > 0 {
		data.ExistingStory = prompts.NumberStory(existing)
	}

	prompt, err := c.textBuilder.Build(mode, data)
	if err != nil {
		return "", fmt.Errorf("プロンプト生成に失敗: %w", err)
	}
	return prompt, nil
}

// generateText はテキスト応答を期待する1往復の呼び出しです。
func (c *Client) generateText(ctx context.Context, model string, parts []*genai.Part, cfg *genai.GenerateContentConfig) (string, error) {
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	res, err := c.genaiClient.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	if len(res.Candidates) > 0 && res.Candidates[0].Content != nil {
		for _, part := range res.Candidates[0].Content.Parts {
			if part.Text != "" {
				out.WriteString(part.Text)
			}
		}
	}
	return strings.TrimSpace(out.String()), nil
}

// generateImagePayload は画像応答を期待する1往復の呼び出しです。
func (c *Client) generateImagePayload(ctx context.Context, parts []*genai.Part) (*GeneratedImage, error) {
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	res, err := c.genaiClient.Models.GenerateContent(ctx, c.config.ImageModel, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("画像生成の呼び出しに失敗しました: %w", err)
	}

	if len(res.Candidates) > 0 && res.Candidates[0].Content != nil {
		for _, part := range res.Candidates[0].Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				mime := part.InlineData.MIMEType
				if mime == "" {
					mime = defaultImageMime
				}
				return &GeneratedImage{Data: part.InlineData.Data, MimeType: mime}, nil
			}
		}
	}

	return nil, ErrNoImageReturned
}

// textConfig は物語系呼び出しの生成設定を返します。
func (c *Client) textConfig() *genai.GenerateContentConfig {
	if c.config.Temperature == nil {
		return nil
	}
	return &genai.GenerateContentConfig{Temperature: c.config.Temperature}
}

// characterParts は参照キャラクター画像をインラインデータのパーツ列に変換します。
func characterParts(chars []domain.CharacterAsset) []*genai.Part {
	parts := make([]*genai.Part, 0, len(chars))
	for _, char := range chars {
		parts = append(parts, imagePart(GeneratedImage{Data: char.Data, MimeType: char.MimeType}))
	}
	return parts
}

func imagePart(img GeneratedImage) *genai.Part {
	mime := img.MimeType
	if mime == "" {
		mime = defaultImageMime
	}
	return &genai.Part{InlineData: &genai.Blob{MIMEType: mime, Data: img.Data}}
}

// validateCharacters は参照キャラクター画像が1〜2枚そろっているか確認します。
func validateCharacters(chars []domain.CharacterAsset) error {
	if len(chars) == 0 {
		return fmt.Errorf("参照キャラクター画像は最低1枚必要です")
	}
	if len(chars) > MaxCharacterRefs {
		return fmt.Errorf("参照キャラクター画像は最大%d枚です", MaxCharacterRefs)
	}
	for i, char := range chars {
		if char.Empty() {
			return fmt.Errorf("参照キャラクター画像 %d 枚目が空です", i+1)
		}
	}
	return nil
}
