package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/duynhne/peek-service/internal/core/domain"
)

// GormUserRepository implements domain.UserRepository with GORM.
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository.
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) take(ctx context.Context, query string, arg any) (*domain.UserRow, error) {
	var m userModel
	err := r.db.WithContext(ctx).Where(query, arg).Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	row := m.row()
	return &row, nil
}

// GetByEmail returns the user matching the given email.
func (r *GormUserRepository) GetByEmail(ctx context.Context, email string) (*domain.UserRow, error) {
	return r.take(ctx, "email = ?", email)
}

// GetByID returns the user with the given id.
func (r *GormUserRepository) GetByID(ctx context.Context, id string) (*domain.UserRow, error) {
	return r.take(ctx, "id = ?", id)
}

// ExistsByEmail returns true when a user with the given email already exists.
func (r *GormUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&userModel{}).Where("email = ?", email).Count(&n).Error
	return n > 0, err
}

// Create inserts a new user.
func (r *GormUserRepository) Create(ctx context.Context, row *domain.UserRow) error {
	return r.db.WithContext(ctx).Create(&userModel{
		ID:           row.ID,
		Email:        row.Email,
		Name:         row.Name,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt.UTC(),
	}).Error
}

// Count returns the number of registered users.
func (r *GormUserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&userModel{}).Count(&n).Error
	return n, err
}

// CountCreatedSince returns the number of users created at or after since.
func (r *GormUserRepository) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&userModel{}).Where("created_at >= ?", since.UTC()).Count(&n).Error
	return n, err
}

// Recent returns up to limit users, newest first.
func (r *GormUserRepository) Recent(ctx context.Context, limit int) ([]domain.UserRow, error) {
	var models []userModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.UserRow, 0, len(models))
	for _, m := range models {
		out = append(out, m.row())
	}
	return out, nil
}
