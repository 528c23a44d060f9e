package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/duynhne/peek-service/internal/core/domain"
)

// GormTokenRepository implements domain.TokenRepository with GORM.
type GormTokenRepository struct {
	db *gorm.DB
}

// NewGormTokenRepository creates a new GormTokenRepository.
func NewGormTokenRepository(db *gorm.DB) *GormTokenRepository {
	return &GormTokenRepository{db: db}
}

// Create inserts a new token for the given user.
func (r *GormTokenRepository) Create(ctx context.Context, userID, token string, expiresAt time.Time) error {
	return r.db.WithContext(ctx).Create(&tokenModel{Token: token, UserID: userID, ExpiresAt: expiresAt.UTC()}).Error
}

// GetUserByToken looks up the token joined with its user.
// Returns (nil, nil) when the token does not match any row.
func (r *GormTokenRepository) GetUserByToken(ctx context.Context, token string) (*domain.TokenRow, error) {
	var row domain.TokenRow
	err := r.db.WithContext(ctx).
		Table("auth_tokens AS t").
		Select("u.id AS user_id, u.email, u.name, u.created_at, t.expires_at").
		Joins("JOIN users u ON t.user_id = u.id").
		Where("t.token = ?", token).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}
