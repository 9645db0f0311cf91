package handlers

import (
	"net/http"
	"time"

	"github.com/videotube/backend/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users         UserStore
	Sessions      SessionManager
	Media         MediaStore
	Ingestor      VideoIngestor
	Videos        VideoStore
	Tweets        TweetStore
	Comments      CommentStore
	Playlists     PlaylistStore
	Likes         LikeStore
	Subscriptions SubscriptionStore
	Stats         StatsStore
	UserLoader    middleware.UserLoader
	Tokens        middleware.TokenVerifier
	LoginLimiter  RateLimiter
	NowFunc       func() time.Time
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux. Everything
// except registration, login, refresh, and the healthcheck sits behind the
// access token gate.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	users := UserHandler{Users: deps.Users, Sessions: deps.Sessions, Media: deps.Media, Limiter: deps.LoginLimiter, NowFunc: deps.NowFunc}
	videos := VideoHandler{Videos: deps.Videos, Users: deps.Users, Media: deps.Media, Ingestor: deps.Ingestor, NowFunc: deps.NowFunc}
	tweets := TweetHandler{Tweets: deps.Tweets, NowFunc: deps.NowFunc}
	comments := CommentHandler{Comments: deps.Comments, Videos: deps.Videos, NowFunc: deps.NowFunc}
	likes := LikeHandler{Likes: deps.Likes, NowFunc: deps.NowFunc}
	playlists := PlaylistHandler{Playlists: deps.Playlists, Videos: deps.Videos, NowFunc: deps.NowFunc}
	subscriptions := SubscriptionHandler{Subscriptions: deps.Subscriptions, NowFunc: deps.NowFunc}
	dashboard := DashboardHandler{Stats: deps.Stats, Videos: deps.Videos}

	authed := middleware.RequireAuth(deps.UserLoader, deps.Tokens)
	protect := func(h http.HandlerFunc) http.Handler { return authed(h) }

	mux.HandleFunc("GET /api/v1/healthcheck", health.Handle)

	mux.HandleFunc("POST /api/v1/users/register", users.Register)
	mux.HandleFunc("POST /api/v1/users/login", users.Login)
	mux.HandleFunc("POST /api/v1/users/refresh-token", users.Refresh)
	mux.Handle("POST /api/v1/users/logout", protect(users.Logout))
	mux.Handle("POST /api/v1/users/change-password", protect(users.ChangePassword))
	mux.Handle("GET /api/v1/users/current", protect(users.Current))
	mux.Handle("PATCH /api/v1/users/account", protect(users.UpdateAccount))
	mux.Handle("PATCH /api/v1/users/avatar", protect(users.UpdateAvatar))
	mux.Handle("PATCH /api/v1/users/cover-image", protect(users.UpdateCoverImage))
	mux.Handle("GET /api/v1/users/channel/{username}", protect(users.Channel))
	mux.Handle("GET /api/v1/users/history", protect(users.WatchHistory))

	mux.Handle("GET /api/v1/videos", protect(videos.List))
	mux.Handle("POST /api/v1/videos", protect(videos.Publish))
	mux.Handle("GET /api/v1/videos/{videoId}", protect(videos.Get))
	mux.Handle("PATCH /api/v1/videos/{videoId}", protect(videos.Update))
	mux.Handle("DELETE /api/v1/videos/{videoId}", protect(videos.Delete))
	mux.Handle("PATCH /api/v1/videos/toggle/publish/{videoId}", protect(videos.TogglePublish))

	mux.Handle("POST /api/v1/tweets", protect(tweets.Create))
	mux.Handle("GET /api/v1/tweets/user/{userId}", protect(tweets.ListByUser))
	mux.Handle("PATCH /api/v1/tweets/{tweetId}", protect(tweets.Update))
	mux.Handle("DELETE /api/v1/tweets/{tweetId}", protect(tweets.Delete))

	mux.Handle("GET /api/v1/comments/{videoId}", protect(comments.ListByVideo))
	mux.Handle("POST /api/v1/comments/{videoId}", protect(comments.Create))
	mux.Handle("PATCH /api/v1/comments/c/{commentId}", protect(comments.Update))
	mux.Handle("DELETE /api/v1/comments/c/{commentId}", protect(comments.Delete))

	mux.Handle("POST /api/v1/likes/toggle/v/{videoId}", protect(likes.ToggleVideo))
	mux.Handle("POST /api/v1/likes/toggle/c/{commentId}", protect(likes.ToggleComment))
	mux.Handle("POST /api/v1/likes/toggle/t/{tweetId}", protect(likes.ToggleTweet))
	mux.Handle("GET /api/v1/likes/videos", protect(likes.LikedVideos))

	mux.Handle("POST /api/v1/playlists", protect(playlists.Create))
	mux.Handle("GET /api/v1/playlists/user/{userId}", protect(playlists.ListByUser))
	mux.Handle("GET /api/v1/playlists/{playlistId}", protect(playlists.Get))
	mux.Handle("PATCH /api/v1/playlists/{playlistId}", protect(playlists.Update))
	mux.Handle("DELETE /api/v1/playlists/{playlistId}", protect(playlists.Delete))
	mux.Handle("PATCH /api/v1/playlists/add/{videoId}/{playlistId}", protect(playlists.AddVideo))
	mux.Handle("PATCH /api/v1/playlists/remove/{videoId}/{playlistId}", protect(playlists.RemoveVideo))

	mux.Handle("POST /api/v1/subscriptions/c/{channelId}", protect(subscriptions.Toggle))
	mux.Handle("GET /api/v1/subscriptions/c/{channelId}", protect(subscriptions.Subscribers))
	mux.Handle("GET /api/v1/subscriptions/u/{subscriberId}", protect(subscriptions.Subscribed))

	mux.Handle("GET /api/v1/dashboard/stats", protect(dashboard.ChannelStats))
	mux.Handle("GET /api/v1/dashboard/videos", protect(dashboard.ChannelVideos))
}
