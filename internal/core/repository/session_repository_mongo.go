package repository

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/duynhne/peek-service/internal/core/domain"
)

// MongoSessionRepository implements domain.SessionRepository on MongoDB.
type MongoSessionRepository struct {
	coll *mongo.Collection
}

// NewMongoSessionRepository creates a new MongoSessionRepository.
func NewMongoSessionRepository(db *mongo.Database) *MongoSessionRepository {
	return &MongoSessionRepository{coll: db.Collection(sessionsCollection)}
}

func ownedFilter(id, ownerID string) bson.D {
	return bson.D{{Key: "_id", Value: id}, {Key: "userId", Value: ownerID}}
}

// GetOwned returns the session with the given id owned by ownerID.
func (r *MongoSessionRepository) GetOwned(ctx context.Context, id, ownerID string) (*domain.Session, error) {
	var doc sessionDoc
	if err := r.coll.FindOne(ctx, ownedFilter(id, ownerID)).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return doc.session(), nil
}

// IncrementPeek applies $inc and $max in one findAndModify and returns the
// post-update document, so the counter is never read-modify-written here.
func (r *MongoSessionRepository) IncrementPeek(ctx context.Context, id, ownerID string, at time.Time) (*domain.PeekCounter, error) {
	update := bson.D{
		{Key: "$inc", Value: bson.D{{Key: "peekCount", Value: 1}}},
		{Key: "$max", Value: bson.D{{Key: "lastPeekedAt", Value: at}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc sessionDoc
	if err := r.coll.FindOneAndUpdate(ctx, ownedFilter(id, ownerID), update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}

	c := &domain.PeekCounter{PeekCount: doc.PeekCount, LastPeekedAt: at}
	if doc.LastPeekedAt != nil {
		c.LastPeekedAt = *doc.LastPeekedAt
	}
	return c, nil
}

// ListOwned returns the owner's sessions ordered by updatedAt descending.
func (r *MongoSessionRepository) ListOwned(ctx context.Context, ownerID, search string) ([]domain.Session, error) {
	filter := bson.D{{Key: "userId", Value: ownerID}}
	if search != "" {
		re := bson.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
		filter = append(filter, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "title", Value: re}},
			bson.D{{Key: "description", Value: re}},
			bson.D{{Key: "ideas", Value: re}},
		}})
	}

	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	var docs []sessionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.Session, 0, len(docs))
	for _, d := range docs {
		out = append(out, *d.session())
	}
	return out, nil
}

// Create inserts a new session.
func (r *MongoSessionRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.coll.InsertOne(ctx, newSessionDoc(s))
	return err
}

// Update replaces title, description and ideas of an owned session.
func (r *MongoSessionRepository) Update(ctx context.Context, s *domain.Session) (*domain.Session, error) {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "title", Value: s.Title},
		{Key: "description", Value: s.Description},
		{Key: "ideas", Value: s.Ideas},
		{Key: "updatedAt", Value: s.UpdatedAt},
	}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc sessionDoc
	if err := r.coll.FindOneAndUpdate(ctx, ownedFilter(s.ID, s.OwnerID), update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return doc.session(), nil
}

// Delete removes an owned session.
func (r *MongoSessionRepository) Delete(ctx context.Context, id, ownerID string) (bool, error) {
	res, err := r.coll.DeleteOne(ctx, ownedFilter(id, ownerID))
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}
