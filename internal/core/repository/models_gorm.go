package repository

import (
	"time"

	json "github.com/goccy/go-json"

	"github.com/duynhne/peek-service/internal/core/domain"
)

// GORM models for the embedded SQLite backend. Times are stored in UTC so
// that SQLite's text comparison orders them chronologically.

type userModel struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Email        string    `gorm:"uniqueIndex;not null"`
	Name         string    `gorm:"not null;default:''"`
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"index;not null"`
}

func (userModel) TableName() string { return "users" }

func (m userModel) row() domain.UserRow {
	return domain.UserRow{
		ID:           m.ID,
		Email:        m.Email,
		Name:         m.Name,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
	}
}

type tokenModel struct {
	Token     string    `gorm:"primaryKey"`
	UserID    string    `gorm:"index;not null"`
	ExpiresAt time.Time `gorm:"not null"`
}

func (tokenModel) TableName() string { return "auth_tokens" }

type sessionModel struct {
	ID           string   `gorm:"primaryKey;size:36"`
	Title        string   `gorm:"not null"`
	Description  string   `gorm:"not null;default:''"`
	Ideas        []string `gorm:"serializer:json;not null"`
	OwnerID      string   `gorm:"index;not null"`
	PeekCount    int64    `gorm:"not null;default:0"`
	LastPeekedAt *time.Time
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"index;not null"`
}

func (sessionModel) TableName() string { return "idea_sessions" }

func (m sessionModel) session() *domain.Session {
	ideas := m.Ideas
	if ideas == nil {
		ideas = []string{}
	}
	return &domain.Session{
		ID:           m.ID,
		Title:        m.Title,
		Description:  m.Description,
		Ideas:        ideas,
		OwnerID:      m.OwnerID,
		PeekCount:    m.PeekCount,
		LastPeekedAt: m.LastPeekedAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

type peekRecordModel struct {
	ID           string    `gorm:"primaryKey;size:36"`
	SessionID    string    `gorm:"index;not null"`
	SessionTitle string    `gorm:"not null"`
	UserID       string    `gorm:"index;not null"`
	UserEmail    string    `gorm:"not null"`
	SelectedIdea string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"index;not null"`
}

func (peekRecordModel) TableName() string { return "peek_records" }

func (m peekRecordModel) record() domain.PeekRecord {
	return domain.PeekRecord{
		ID:           m.ID,
		SessionID:    m.SessionID,
		SessionTitle: m.SessionTitle,
		UserID:       m.UserID,
		UserEmail:    m.UserEmail,
		SelectedIdea: m.SelectedIdea,
		CreatedAt:    m.CreatedAt,
	}
}

// GormModels lists the models AutoMigrate must create.
func GormModels() []any {
	return []any{&userModel{}, &tokenModel{}, &sessionModel{}, &peekRecordModel{}}
}

// mustJSON encodes ideas the way the json serializer stores them; used where
// a column is written through a raw map update.
func mustJSON(ideas []string) string {
	if ideas == nil {
		ideas = []string{}
	}
	b, _ := json.Marshal(ideas)
	return string(b)
}
