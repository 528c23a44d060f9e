package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/duynhne/peek-service/internal/core/domain"
)

// MongoTokenRepository implements domain.TokenRepository on MongoDB.
type MongoTokenRepository struct {
	tokens *mongo.Collection
	users  *mongo.Collection
}

// NewMongoTokenRepository creates a new MongoTokenRepository.
func NewMongoTokenRepository(db *mongo.Database) *MongoTokenRepository {
	return &MongoTokenRepository{
		tokens: db.Collection(tokensCollection),
		users:  db.Collection(usersCollection),
	}
}

// Create inserts a new token for the given user.
func (r *MongoTokenRepository) Create(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := r.tokens.InsertOne(ctx, tokenDoc{Token: token, UserID: userID, ExpiresAt: expiresAt})
	return err
}

// GetUserByToken resolves the token and its user with two point lookups.
// Returns (nil, nil) when either document is missing.
func (r *MongoTokenRepository) GetUserByToken(ctx context.Context, token string) (*domain.TokenRow, error) {
	var t tokenDoc
	if err := r.tokens.FindOne(ctx, bson.D{{Key: "_id", Value: token}}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}

	var u userDoc
	if err := r.users.FindOne(ctx, bson.D{{Key: "_id", Value: t.UserID}}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}

	return &domain.TokenRow{
		UserID:    u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
		ExpiresAt: t.ExpiresAt,
	}, nil
}
