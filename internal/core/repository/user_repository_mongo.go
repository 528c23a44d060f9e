package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/duynhne/peek-service/internal/core/domain"
)

// MongoUserRepository implements domain.UserRepository on a MongoDB collection.
type MongoUserRepository struct {
	coll *mongo.Collection
}

// NewMongoUserRepository creates a new MongoUserRepository.
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{coll: db.Collection(usersCollection)}
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.D) (*domain.UserRow, error) {
	var doc userDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return doc.row(), nil
}

// GetByEmail returns the user matching the given email.
func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (*domain.UserRow, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

// GetByID returns the user with the given id.
func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (*domain.UserRow, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

// ExistsByEmail returns true when a user with the given email already exists.
func (r *MongoUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.D{{Key: "email", Value: email}}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Create inserts a new user.
func (r *MongoUserRepository) Create(ctx context.Context, row *domain.UserRow) error {
	_, err := r.coll.InsertOne(ctx, userDoc{
		ID:           row.ID,
		Email:        row.Email,
		Name:         row.Name,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt,
	})
	return err
}

// Count returns the number of registered users.
func (r *MongoUserRepository) Count(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.D{})
}

// CountCreatedSince returns the number of users created at or after since.
func (r *MongoUserRepository) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.D{{Key: "createdAt", Value: bson.D{{Key: "$gte", Value: since}}}})
}

// Recent returns up to limit users, newest first.
func (r *MongoUserRepository) Recent(ctx context.Context, limit int) ([]domain.UserRow, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.UserRow, 0, len(docs))
	for _, d := range docs {
		out = append(out, *d.row())
	}
	return out, nil
}
