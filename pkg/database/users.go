package database

import (
	"fmt"
	"strings"

	"github.com/jinzhu/gorm"

	"campustube/pkg/models"
)

// CreateAccount inserts the user and its profile together.
func (s *Store) CreateAccount(user *models.User, profile *models.Profile) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	return s.db.Transaction(func(tx *gorm.DB) error {
		var n int
		if err := tx.Model(&models.User{}).Where("email = ?", user.Email).Count(&n).Error; err != nil {
			return fmt.Errorf("count users: %w", err)
		}
		if n > 0 {
			return ErrConflict
		}
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		profile.ID = user.ID
		if err := tx.Create(profile).Error; err != nil {
			return fmt.Errorf("create profile: %w", err)
		}
		return nil
	})
}

func (s *Store) UserByEmail(email string) (*models.User, error) {
	var user models.User
	err := s.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *Store) Profile(id string) (*models.Profile, error) {
	var profile models.Profile
	if err := s.db.Where("id = ?", id).First(&profile).Error; err != nil {
		return nil, notFound(err)
	}
	return &profile, nil
}
