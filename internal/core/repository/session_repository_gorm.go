package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/duynhne/peek-service/internal/core/domain"
)

// GormSessionRepository implements domain.SessionRepository with GORM.
type GormSessionRepository struct {
	db *gorm.DB
}

// NewGormSessionRepository creates a new GormSessionRepository.
func NewGormSessionRepository(db *gorm.DB) *GormSessionRepository {
	return &GormSessionRepository{db: db}
}

var errNoRow = errors.New("no row")

// GetOwned returns the session with the given id owned by ownerID.
func (r *GormSessionRepository) GetOwned(ctx context.Context, id, ownerID string) (*domain.Session, error) {
	var m sessionModel
	err := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return m.session(), nil
}

// IncrementPeek runs the increment and the read-back inside one write
// transaction; SQLite admits a single writer, so the returned count is the
// one this call committed.
func (r *GormSessionRepository) IncrementPeek(ctx context.Context, id, ownerID string, at time.Time) (*domain.PeekCounter, error) {
	var out *domain.PeekCounter
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&sessionModel{}).
			Where("id = ? AND owner_id = ?", id, ownerID).
			UpdateColumn("peek_count", gorm.Expr("peek_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNoRow
		}

		var m sessionModel
		if err := tx.Select("peek_count", "last_peeked_at").Where("id = ?", id).Take(&m).Error; err != nil {
			return err
		}

		last := at.UTC()
		if m.LastPeekedAt != nil && m.LastPeekedAt.After(last) {
			last = m.LastPeekedAt.UTC()
		}
		if err := tx.Model(&sessionModel{}).Where("id = ?", id).UpdateColumn("last_peeked_at", last).Error; err != nil {
			return err
		}

		out = &domain.PeekCounter{PeekCount: m.PeekCount, LastPeekedAt: last}
		return nil
	})
	if errors.Is(err, errNoRow) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListOwned returns the owner's sessions ordered by updated_at descending.
func (r *GormSessionRepository) ListOwned(ctx context.Context, ownerID, search string) ([]domain.Session, error) {
	q := r.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if search != "" {
		pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
		q = q.Where(
			`LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\'
			OR EXISTS (SELECT 1 FROM json_each(idea_sessions.ideas) WHERE LOWER(json_each.value) LIKE ? ESCAPE '\')`,
			pattern, pattern, pattern,
		)
	}

	var models []sessionModel
	if err := q.Order("updated_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Session, 0, len(models))
	for _, m := range models {
		out = append(out, *m.session())
	}
	return out, nil
}

// Create inserts a new session.
func (r *GormSessionRepository) Create(ctx context.Context, s *domain.Session) error {
	return r.db.WithContext(ctx).Create(&sessionModel{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Ideas:       s.Ideas,
		OwnerID:     s.OwnerID,
		PeekCount:   s.PeekCount,
		CreatedAt:   s.CreatedAt.UTC(),
		UpdatedAt:   s.UpdatedAt.UTC(),
	}).Error
}

// Update replaces title, description and ideas of an owned session.
func (r *GormSessionRepository) Update(ctx context.Context, s *domain.Session) (*domain.Session, error) {
	var out *domain.Session
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&sessionModel{}).
			Where("id = ? AND owner_id = ?", s.ID, s.OwnerID).
			UpdateColumns(map[string]any{
				"title":       s.Title,
				"description": s.Description,
				"ideas":       gorm.Expr("?", mustJSON(s.Ideas)),
				"updated_at":  s.UpdatedAt.UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNoRow
		}
		var m sessionModel
		if err := tx.Where("id = ?", s.ID).Take(&m).Error; err != nil {
			return err
		}
		out = m.session()
		return nil
	})
	if errors.Is(err, errNoRow) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes an owned session.
func (r *GormSessionRepository) Delete(ctx context.Context, id, ownerID string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).Delete(&sessionModel{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
