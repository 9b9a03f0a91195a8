package ports

import (
	"context"

	"github.com/sahafa/appcore/internal/core/domain"
)

// ContentAPI is the remote content surface consumed by the bootstrap preload
// batch. Each method maps to one preload slot.
type ContentAPI interface {
	HomeArticles(ctx context.Context) ([]domain.Article, error)
	RandomJournalists(ctx context.Context) ([]domain.Journalist, error)
	SearchArticles(ctx context.Context) ([]domain.Article, error)
	HomeHeadlines(ctx context.Context) ([]domain.Headline, error)
	RecentVideos(ctx context.Context) ([]domain.Video, error)
	UserProfile(ctx context.Context, token string) (*domain.UserProfile, error)
}
