package models

import "time"

type Post struct {
	ID              string    `db:"id" json:"id"`
	Platform        string    `db:"platform" json:"platform"`
	Caption         string    `db:"caption" json:"caption"`
	Status          string    `db:"status" json:"status"` // advisory; instagram_post_id presence is authoritative
	Position        *int      `db:"position" json:"position,omitempty"`
	ContainerID     string    `db:"container_id" json:"container_id,omitempty"`
	InstagramPostID string    `db:"instagram_post_id" json:"instagram_post_id,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`

	Images       []*PostImage   `json:"images,omitempty"`
	RemoteAssets []*RemoteAsset `json:"remote_assets,omitempty"`
}

type PostImage struct {
	PostID       string    `db:"post_id" json:"post_id"`
	FileKey      string    `db:"file_key" json:"file_key"`
	FileName     string    `db:"file_name" json:"file_name"`
	MimeType     string    `db:"mime_type" json:"mime_type"`
	FileSize     int64     `db:"file_size" json:"file_size"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type RemoteAsset struct {
	PostID       string `db:"post_id" json:"post_id"`
	PublicID     string `db:"public_id" json:"public_id"`
	SecureURL    string `db:"secure_url" json:"secure_url"`
	Width        int    `db:"width" json:"width"`
	Height       int    `db:"height" json:"height"`
	Format       string `db:"format" json:"format"`
	FileSize     int64  `db:"file_size" json:"file_size"`
	DisplayOrder int    `db:"display_order" json:"display_order"`
}

const (
	PostStatusNew       = "new"
	PostStatusScheduled = "scheduled"
	PostStatusPublished = "published"
)

const (
	PlatformInstagram = "instagram"
	PlatformPinterest = "pinterest"
)

// IsPublished reports whether the post is actually live. The stored
// status field is a display hint; the remote publish identifier is the
// source of truth.
func (p *Post) IsPublished() bool {
	return p.InstagramPostID != ""
}

// DerivedStatus recomputes the display status from the authoritative
// publish identifier, falling back to the stored advisory value.
func (p *Post) DerivedStatus() string {
	if p.IsPublished() {
		return PostStatusPublished
	}
	if p.Status == PostStatusPublished {
		return PostStatusNew
	}
	return p.Status
}

// SchedulingPosition treats unpositioned posts as lowest priority.
func (p *Post) SchedulingPosition() int {
	if p.Position == nil {
		return -1
	}
	return *p.Position
}
