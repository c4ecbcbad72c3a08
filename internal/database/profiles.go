package database

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"trailmate/backend/internal/models"
)

func (s *Store) FindProfile(ctx context.Context, id string) (*models.Profile, error) {
	var profile models.Profile
	if err := s.db.WithContext(ctx).First(&profile, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

// UpsertProfile creates the profile row if needed and writes columns to it.
func (s *Store) UpsertProfile(ctx context.Context, id string, columns map[string]any) (*models.Profile, error) {
	var profile models.Profile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(models.Profile{ID: id}).FirstOrCreate(&profile).Error; err != nil {
			return err
		}
		if err := tx.Model(&profile).Updates(columns).Error; err != nil {
			return err
		}
		return tx.First(&profile, "id = ?", id).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

func (s *Store) UpsertSettings(ctx context.Context, settings models.UserSettings) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"push_opt_in", "updated_at"}),
	}).Create(&settings).Error
	return translate(err)
}
