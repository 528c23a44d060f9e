package repository

import (
	"time"

	"github.com/duynhne/peek-service/internal/core/domain"
)

// Collection names follow the documents the service has always stored.
const (
	usersCollection       = "users"
	tokensCollection      = "authtokens"
	sessionsCollection    = "sessions"
	peekRecordsCollection = "peeklogs"
)

type userDoc struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	Name         string    `bson:"name"`
	PasswordHash string    `bson:"passwordHash"`
	CreatedAt    time.Time `bson:"createdAt"`
}

func (d userDoc) row() *domain.UserRow {
	return &domain.UserRow{
		ID:           d.ID,
		Email:        d.Email,
		Name:         d.Name,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt,
	}
}

type tokenDoc struct {
	Token     string    `bson:"_id"`
	UserID    string    `bson:"userId"`
	ExpiresAt time.Time `bson:"expiresAt"`
}

type sessionDoc struct {
	ID           string     `bson:"_id"`
	Title        string     `bson:"title"`
	Description  string     `bson:"description"`
	Ideas        []string   `bson:"ideas"`
	OwnerID      string     `bson:"userId"`
	PeekCount    int64      `bson:"peekCount"`
	LastPeekedAt *time.Time `bson:"lastPeekedAt,omitempty"`
	CreatedAt    time.Time  `bson:"createdAt"`
	UpdatedAt    time.Time  `bson:"updatedAt"`
}

func newSessionDoc(s *domain.Session) sessionDoc {
	return sessionDoc{
		ID:           s.ID,
		Title:        s.Title,
		Description:  s.Description,
		Ideas:        s.Ideas,
		OwnerID:      s.OwnerID,
		PeekCount:    s.PeekCount,
		LastPeekedAt: s.LastPeekedAt,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

func (d sessionDoc) session() *domain.Session {
	ideas := d.Ideas
	if ideas == nil {
		ideas = []string{}
	}
	return &domain.Session{
		ID:           d.ID,
		Title:        d.Title,
		Description:  d.Description,
		Ideas:        ideas,
		OwnerID:      d.OwnerID,
		PeekCount:    d.PeekCount,
		LastPeekedAt: d.LastPeekedAt,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type peekRecordDoc struct {
	ID           string    `bson:"_id"`
	SessionID    string    `bson:"sessionId"`
	SessionTitle string    `bson:"sessionTitle"`
	UserID       string    `bson:"userId"`
	UserEmail    string    `bson:"userEmail"`
	SelectedIdea string    `bson:"selectedIdea"`
	CreatedAt    time.Time `bson:"createdAt"`
}

func (d peekRecordDoc) record() domain.PeekRecord {
	return domain.PeekRecord{
		ID:           d.ID,
		SessionID:    d.SessionID,
		SessionTitle: d.SessionTitle,
		UserID:       d.UserID,
		UserEmail:    d.UserEmail,
		SelectedIdea: d.SelectedIdea,
		CreatedAt:    d.CreatedAt,
	}
}
