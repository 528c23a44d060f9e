package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/duynhne/peek-service/internal/core/domain"
)

// GormPeekRecordRepository implements domain.PeekRecordRepository with GORM.
type GormPeekRecordRepository struct {
	db *gorm.DB
}

// NewGormPeekRecordRepository creates a new GormPeekRecordRepository.
func NewGormPeekRecordRepository(db *gorm.DB) *GormPeekRecordRepository {
	return &GormPeekRecordRepository{db: db}
}

// Append inserts the record; a duplicate id is ignored.
func (r *GormPeekRecordRepository) Append(ctx context.Context, rec *domain.PeekRecord) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&peekRecordModel{
			ID:           rec.ID,
			SessionID:    rec.SessionID,
			SessionTitle: rec.SessionTitle,
			UserID:       rec.UserID,
			UserEmail:    rec.UserEmail,
			SelectedIdea: rec.SelectedIdea,
			CreatedAt:    rec.CreatedAt.UTC(),
		}).Error
}

// Count returns the total number of records.
func (r *GormPeekRecordRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&peekRecordModel{}).Count(&n).Error
	return n, err
}

// CountBetween returns the number of records with from <= created_at < to.
func (r *GormPeekRecordRepository) CountBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&peekRecordModel{}).
		Where("created_at >= ? AND created_at < ?", from.UTC(), to.UTC()).
		Count(&n).Error
	return n, err
}

// Recent returns up to limit records, newest first.
func (r *GormPeekRecordRepository) Recent(ctx context.Context, limit int) ([]domain.PeekRecord, error) {
	var models []peekRecordModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.PeekRecord, 0, len(models))
	for _, m := range models {
		out = append(out, m.record())
	}
	return out, nil
}
