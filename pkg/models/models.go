package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Status is the moderation state of a video. Only published videos appear in
// the feed and in search results.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPublished Status = "published"
	StatusRejected  Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPublished, StatusRejected:
		return true
	}
	return false
}

type User struct {
	ID        string    `gorm:"primary_key" json:"id"`
	Email     string    `gorm:"unique_index" json:"email"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Profile struct {
	ID             string    `gorm:"primary_key" json:"id"`
	FullName       string    `json:"full_name"`
	MatriculeID    string    `json:"matricule_id"`
	AvatarURL      string    `json:"avatar_url"`
	Bio            string    `json:"bio"`
	FollowersCount int       `json:"followers_count"`
	CreatedAt      time.Time `json:"created_at"`
}

type Video struct {
	ID            string    `gorm:"primary_key" json:"id"`
	UserID        string    `gorm:"index" json:"user_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	VideoURL      string    `json:"video_url"`
	ThumbnailURL  string    `json:"thumbnail_url"`
	LikesCount    int       `json:"likes_count"`
	CommentsCount int       `json:"comments_count"`
	ViewsCount    int       `json:"views_count"`
	Status        Status    `gorm:"index" json:"status"`
	Tags          Tags      `gorm:"type:text" json:"tags"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Profile *Profile `gorm:"foreignkey:UserID;association_foreignkey:ID;association_autoupdate:false;association_autocreate:false" json:"profiles,omitempty"`
}

// Like is keyed by (user, video); the row existing means the user liked it.
type Like struct {
	UserID    string    `gorm:"primary_key" json:"user_id"`
	VideoID   string    `gorm:"primary_key" json:"video_id"`
	CreatedAt time.Time `json:"created_at"`
}

// RevokedToken records a signed-out bearer token until it would have expired.
type RevokedToken struct {
	ID        string `gorm:"primary_key"`
	ExpiresAt time.Time
}

// Tags is stored as a JSON array in a text column.
type Tags []string

func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(t))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (t *Tags) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*t = Tags{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported tags column type %T", src)
	}
	if len(raw) == 0 {
		*t = Tags{}
		return nil
	}
	return json.Unmarshal(raw, (*[]string)(t))
}
