package database

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"trailmate/backend/internal/models"
)

var timeColumn = clause.Column{Name: "time"}

// withParticipants loads participants in join order with their profile projection.
func (s *Store) withParticipants(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Order("joined_at ASC")
		}).
		Preload("Participants.Profile", func(db *gorm.DB) *gorm.DB {
			return db.Select(models.ParticipantProfileColumns)
		})
}

func (s *Store) CreateActivity(ctx context.Context, a *models.Activity) error {
	return translate(s.db.WithContext(ctx).Omit(clause.Associations).Create(a).Error)
}

func (s *Store) UpdateActivity(ctx context.Context, id string, columns map[string]any) error {
	res := s.db.WithContext(ctx).Model(&models.Activity{}).Where("id = ?", id).Updates(columns)
	return affected(res)
}

func (s *Store) FindActivity(ctx context.Context, id string) (*models.Activity, error) {
	var a models.Activity
	if err := s.withParticipants(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// ListActivitiesFrom returns activities at or after from, soonest first.
func (s *Store) ListActivitiesFrom(ctx context.Context, from time.Time) ([]models.Activity, error) {
	var list []models.Activity
	err := s.withParticipants(ctx).
		Where(clause.Gte{Column: timeColumn, Value: from}).
		Order(clause.OrderByColumn{Column: timeColumn}).
		Find(&list).Error
	if err != nil {
		return nil, translate(err)
	}
	return list, nil
}

// ListPastActivities pages through activities before the cutoff that userID
// hosted or joined, newest first.
func (s *Store) ListPastActivities(ctx context.Context, userID string, before time.Time, page, limit int) ([]models.Activity, int64, error) {
	mine := func(db *gorm.DB) *gorm.DB {
		joined := s.db.Model(&models.ActivityParticipant{}).Select("activity_id").Where("user_id = ?", userID)
		return db.
			Where(clause.Lt{Column: timeColumn, Value: before}).
			Where(s.db.Where("host_id = ?", userID).Or("id IN (?)", joined))
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Activity{}).Scopes(mine).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	var list []models.Activity
	err := s.withParticipants(ctx).
		Scopes(mine).
		Order(clause.OrderByColumn{Column: timeColumn, Desc: true}).
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	return list, total, nil
}

// UpsertParticipant inserts the membership row, leaving an existing row for
// the same (activity, user) untouched.
func (s *Store) UpsertParticipant(ctx context.Context, p models.ActivityParticipant) error {
	err := s.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "activity_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&p).Error
	return translate(err)
}

func (s *Store) DeleteParticipant(ctx context.Context, activityID, userID string) error {
	err := s.db.WithContext(ctx).
		Where("activity_id = ? AND user_id = ?", activityID, userID).
		Delete(&models.ActivityParticipant{}).Error
	return translate(err)
}

func (s *Store) DeleteParticipants(ctx context.Context, activityID string) error {
	err := s.db.WithContext(ctx).
		Where("activity_id = ?", activityID).
		Delete(&models.ActivityParticipant{}).Error
	return translate(err)
}

func (s *Store) DeleteActivity(ctx context.Context, id string) error {
	return affected(s.db.WithContext(ctx).Delete(&models.Activity{}, "id = ?", id))
}
