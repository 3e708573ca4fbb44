package runner

import (
	"context"

	"github.com/shouni/go-ehon-kit/pkg/domain"
	"github.com/shouni/go-ehon-kit/pkg/gemini"
)

// Generator は、パイプラインが必要とするリモート生成操作の契約です。
// *gemini.Client がこれを満たしますが、テストではスタブに差し替えられます。
type Generator interface {
	GenerateStory(ctx context.Context, req gemini.StoryRequest) (*domain.StoryDraft, error)
	ContinueStory(ctx context.Context, req gemini.ContinuationRequest) (*domain.Continuation, error)
	GenerateImage(ctx context.Context, req gemini.ImageRequest) (*gemini.GeneratedImage, error)
}

// AssetFetcher は、参照キャラクター画像を転送用データへ解決する契約です。
// 同じ参照の2回目以降の解決はキャッシュから返ることが期待されるのだ。
type AssetFetcher interface {
	FetchAll(ctx context.Context, refs []string) ([]domain.CharacterAsset, error)
}
