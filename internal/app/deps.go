package app

import (
	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/config"
	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/handlers"
	"github.com/videotube/backend/internal/media"
	"github.com/videotube/backend/internal/middleware"
	"github.com/videotube/backend/internal/repositories"
)

// buildDependencies assembles the repository and service graph behind the
// HTTP handlers. The media store and ingestor are constructed by the caller
// because their lifecycles outlive a single request.
func buildDependencies(pool db.Pool, cfg config.Config, store handlers.MediaStore, ingestor *media.Ingestor, tokens *auth.TokenService) handlers.Dependencies {
	users := repositories.NewPostgresUserRepository(pool)
	videos := repositories.NewPostgresVideoRepository(pool)
	tweets := repositories.NewPostgresTweetRepository(pool)
	comments := repositories.NewPostgresCommentRepository(pool)
	playlists := repositories.NewPostgresPlaylistRepository(pool)
	likes := repositories.NewPostgresLikeRepository(pool)
	subscriptions := repositories.NewPostgresSubscriptionRepository(pool)
	stats := repositories.NewPostgresStatsRepository(pool)

	sessions := auth.NewManager(users, tokens)

	limiter := middleware.NewIPRateLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow, cfg.LoginRateLimit, 10*cfg.LoginRateWindow)

	return handlers.Dependencies{
		Users:         users,
		Sessions:      sessions,
		Media:         store,
		Ingestor:      ingestor,
		Videos:        videos,
		Tweets:        tweets,
		Comments:      comments,
		Playlists:     playlists,
		Likes:         likes,
		Subscriptions: subscriptions,
		Stats:         stats,
		UserLoader:    users,
		Tokens:        tokens,
		LoginLimiter:  limiter,
	}
}
