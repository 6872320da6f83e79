package database

import (
	"fmt"

	"campustube/pkg/models"
)

// VideoFilter narrows ListVideos. Empty fields are ignored. Pattern is a LIKE
// pattern using backslash as the escape character.
type VideoFilter struct {
	Status  models.Status
	UserID  string
	Pattern string
}

// ListVideos returns matching videos newest first, with the owner's profile.
func (s *Store) ListVideos(f VideoFilter) ([]models.Video, error) {
	q := s.db.Preload("Profile").Order("created_at desc")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Pattern != "" {
		q = q.Where(
			`LOWER(title) LIKE LOWER(?) ESCAPE '\' OR LOWER(description) LIKE LOWER(?) ESCAPE '\'`,
			f.Pattern, f.Pattern,
		)
	}

	videos := []models.Video{}
	if err := q.Find(&videos).Error; err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return videos, nil
}

func (s *Store) Video(id string) (*models.Video, error) {
	var video models.Video
	if err := s.db.Preload("Profile").Where("id = ?", id).First(&video).Error; err != nil {
		return nil, notFound(err)
	}
	return &video, nil
}

func (s *Store) CreateVideo(video *models.Video) error {
	if video.Status == "" {
		video.Status = models.StatusPending
	}
	if video.Tags == nil {
		video.Tags = models.Tags{}
	}
	if err := s.db.Create(video).Error; err != nil {
		return fmt.Errorf("create video: %w", err)
	}
	return nil
}

func (s *Store) SetVideoStatus(id string, status models.Status) error {
	res := s.db.Model(&models.Video{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("update video status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
