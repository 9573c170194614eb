package models

import (
	"time"
)

// SharedLink represents a share token handed out for a single file.
type SharedLink struct {
	ID     int64  `db:"id" json:"id"`           // Assigned by the registry on create
	FileID int64  `db:"file_id" json:"file_id"` // Reference into the external file store
	UserID *int64 `db:"user_id" json:"user_id,omitempty"`

	Token        string  `db:"token" json:"token"` // URL-safe, unguessable capability
	PasswordHash *string `db:"password_hash" json:"-"`

	ExpiresAt      *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	MaxAccessCount *int       `db:"max_access_count" json:"max_access_count,omitempty"`
	AccessCount    int        `db:"access_count" json:"access_count"`
	Revoked        bool       `db:"revoked" json:"revoked"`

	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	LastAccessed *time.Time `db:"last_accessed" json:"last_accessed,omitempty"`
}

// HasPassword reports whether the link requires a password.
func (l *SharedLink) HasPassword() bool {
	return l.PasswordHash != nil && *l.PasswordHash != ""
}

// IsExpired reports whether the link's expiry has passed at the given time.
// Links without an expiry never expire on their own.
func (l *SharedLink) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && !now.Before(*l.ExpiresAt)
}

// IsExhausted reports whether the access budget has been used up.
func (l *SharedLink) IsExhausted() bool {
	return l.MaxAccessCount != nil && l.AccessCount >= *l.MaxAccessCount
}

// File is the metadata record of the external file store. The storage name
// locates the bytes inside the configured storage provider and is never
// serialized to clients.
type File struct {
	ID           int64     `db:"id" json:"id"`
	StorageName  string    `db:"storage_name" json:"-"`
	OriginalName string    `db:"original_name" json:"original_name"`
	MimeType     string    `db:"mime_type" json:"mime_type"`
	FileSize     int64     `db:"file_size" json:"file_size"`
	OwnerID      *int64    `db:"owner_id" json:"owner_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// CreateLinkRequest is the body of POST /share.
type CreateLinkRequest struct {
	FileID         int64      `json:"file_id" validate:"required,gt=0"`
	Password       string     `json:"password,omitempty" validate:"omitempty,sharepassword"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	MaxAccessCount *int       `json:"max_access_count,omitempty" validate:"omitempty,gte=1"`
}

// CreateLinkResponse is returned after a link has been created.
type CreateLinkResponse struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

// FilePublic is the subset of file metadata safe to expose to link holders.
type FilePublic struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

// LinkUsage exposes the link's own counters and limits.
type LinkUsage struct {
	Token          string     `json:"token"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	MaxAccessCount *int       `json:"max_access_count,omitempty"`
	AccessCount    int        `json:"access_count"`
	Revoked        bool       `json:"revoked"`
}

// LinkMetadataResponse is the body of GET /shared/{token}.
type LinkMetadataResponse struct {
	File FilePublic `json:"file"`
	Link LinkUsage  `json:"link"`
}

// AccessResponse is returned by POST /shared/{token}/access after a use has
// been consumed.
type AccessResponse struct {
	AccessCount int  `json:"access_count"`
	Remaining   *int `json:"remaining,omitempty"`
}
