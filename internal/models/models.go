package models

import "time"

// User represents an account within the VideoTube platform. Password holds
// the bcrypt hash and RefreshToken the single currently valid refresh token;
// neither field is ever serialized into a response.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	AvatarURL    string    `json:"avatar"`
	CoverURL     string    `json:"coverImage"`
	Password     string    `json:"-"`
	RefreshToken *string   `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Public returns the sanitized view of the user that is safe to serialize.
func (u User) Public() User {
	u.Password = ""
	u.RefreshToken = nil
	return u
}

// OwnedBy reports the account itself as its owner.
func (u User) OwnedBy() string { return u.ID }

// Video is an uploaded video along with cached playback metadata.
type Video struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	VideoURL    string    `json:"videoFile"`
	Thumbnail   string    `json:"thumbnail"`
	Duration    float64   `json:"duration"`
	Views       int64     `json:"views"`
	IsPublished bool      `json:"isPublished"`
	AssetStatus string    `json:"assetStatus"`
	CreatedAt   time.Time `json:"createdAt"`
}

// OwnedBy returns the id of the uploading channel.
func (v Video) OwnedBy() string { return v.OwnerID }

const (
	AssetStatusPending = "pending"
	AssetStatusReady   = "ready"
	AssetStatusFailed  = "failed"
)

// Tweet is a short text post attached to a channel.
type Tweet struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OwnedBy returns the id of the posting user.
func (t Tweet) OwnedBy() string { return t.OwnerID }

// Comment is a user comment on a video.
type Comment struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"video"`
	OwnerID   string    `json:"owner"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OwnedBy returns the id of the commenting user.
func (c Comment) OwnedBy() string { return c.OwnerID }

// CommentWithAuthor decorates a comment with the public profile of its author.
type CommentWithAuthor struct {
	Comment
	Author User `json:"author"`
}

// Playlist is an ordered collection of videos curated by a user.
type Playlist struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// OwnedBy returns the id of the curating user.
func (p Playlist) OwnedBy() string { return p.OwnerID }

// PlaylistWithVideos bundles a playlist with its resolved videos.
type PlaylistWithVideos struct {
	Playlist
	Videos []Video `json:"videos"`
}

// Like records that a user liked exactly one of a video, comment, or tweet.
type Like struct {
	ID        string    `json:"id"`
	UserID    string    `json:"likedBy"`
	VideoID   string    `json:"video,omitempty"`
	CommentID string    `json:"comment,omitempty"`
	TweetID   string    `json:"tweet,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Subscription records that a user follows a channel.
type Subscription struct {
	ID           string    `json:"id"`
	SubscriberID string    `json:"subscriber"`
	ChannelID    string    `json:"channel"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ChannelProfile is the aggregated public view of a user's channel.
type ChannelProfile struct {
	User
	SubscriberCount int64 `json:"subscribersCount"`
	SubscribedTo    int64 `json:"channelsSubscribedToCount"`
	IsSubscribed    bool  `json:"isSubscribed"`
}

// ChannelStats aggregates dashboard figures for a channel.
type ChannelStats struct {
	TotalVideos      int64 `json:"totalVideos"`
	TotalViews       int64 `json:"totalViews"`
	TotalSubscribers int64 `json:"totalSubscribers"`
	TotalLikes       int64 `json:"totalLikes"`
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
