package database

import (
	"context"
	"time"

	"gorm.io/gorm"

	"trailmate/backend/internal/models"
)

// CreateAccount inserts the user and its profile in one transaction.
func (s *Store) CreateAccount(ctx context.Context, user *models.User, profile *models.Profile) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return tx.Create(profile).Error
	})
	return translate(err)
}

func (s *Store) FindAccountByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Store) FindAccountByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Store) SetConfirmationToken(ctx context.Context, userID, token string, sentAt time.Time) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(map[string]any{
		"confirmation_token":   token,
		"confirmation_sent_at": sentAt,
	})
	return affected(res)
}

// ConfirmEmail stamps the account holding token and consumes the token.
func (s *Store) ConfirmEmail(ctx context.Context, token string, at time.Time) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("confirmation_token = ?", token).First(&user).Error; err != nil {
			return err
		}
		return tx.Model(&user).Updates(map[string]any{
			"email_confirmed_at": at,
			"confirmation_token": "",
		}).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	user.EmailConfirmedAt = &at
	user.ConfirmationToken = ""
	return &user, nil
}
