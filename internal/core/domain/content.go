package domain

import "time"

// Article is a published news article as the backend returns it.
type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary,omitempty"`
	Body        string    `json:"body,omitempty"`
	AuthorID    string    `json:"author_id,omitempty"`
	AuthorName  string    `json:"author_name,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Category    string    `json:"category,omitempty"`
	TrustScore  float64   `json:"trust_score,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// Headline is the condensed article form shown in the home ticker.
type Headline struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	PublishedAt time.Time `json:"published_at"`
}

// Journalist is a content author surfaced on the home screen.
type Journalist struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	AvatarURL  string  `json:"avatar_url,omitempty"`
	Bio        string  `json:"bio,omitempty"`
	TrustScore float64 `json:"trust_score,omitempty"`
}

// Video is a published video item from the live feed.
type Video struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	StreamURL    string    `json:"stream_url"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	DurationSec  int       `json:"duration_sec,omitempty"`
	PublishedAt  time.Time `json:"published_at"`
}

// UserProfile is the signed-in user's own profile record.
type UserProfile struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Bio       string `json:"bio,omitempty"`
}
