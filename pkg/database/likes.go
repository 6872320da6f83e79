package database

import (
	"fmt"

	"github.com/jinzhu/gorm"

	"campustube/pkg/models"
)

// InsertLike records the like and bumps the video's counter in one transaction.
// Unpublished videos can only be liked by their owner; for anyone else they
// do not exist.
func (s *Store) InsertLike(userID, videoID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var video models.Video
		if err := tx.Select("id, user_id, status").Where("id = ?", videoID).First(&video).Error; err != nil {
			return notFound(err)
		}
		if video.Status != models.StatusPublished && video.UserID != userID {
			return ErrNotFound
		}

		var n int
		if err := tx.Model(&models.Like{}).
			Where("user_id = ? AND video_id = ?", userID, videoID).
			Count(&n).Error; err != nil {
			return fmt.Errorf("count likes: %w", err)
		}
		if n > 0 {
			return ErrConflict
		}

		if err := tx.Create(&models.Like{UserID: userID, VideoID: videoID}).Error; err != nil {
			return fmt.Errorf("create like: %w", err)
		}
		return tx.Model(&models.Video{}).
			Where("id = ?", videoID).
			UpdateColumn("likes_count", gorm.Expr("likes_count + ?", 1)).Error
	})
}

// DeleteLike removes the like and decrements the video's counter.
func (s *Store) DeleteLike(userID, videoID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND video_id = ?", userID, videoID).Delete(&models.Like{})
		if res.Error != nil {
			return fmt.Errorf("delete like: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Model(&models.Video{}).
			Where("id = ? AND likes_count > 0", videoID).
			UpdateColumn("likes_count", gorm.Expr("likes_count - ?", 1)).Error
	})
}

// LikedVideoIDs lists every video the user has liked.
func (s *Store) LikedVideoIDs(userID string) ([]string, error) {
	ids := []string{}
	err := s.db.Model(&models.Like{}).Where("user_id = ?", userID).Pluck("video_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list likes: %w", err)
	}
	return ids, nil
}
