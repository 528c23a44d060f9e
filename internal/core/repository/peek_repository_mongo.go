package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/duynhne/peek-service/internal/core/domain"
)

// MongoPeekRecordRepository implements domain.PeekRecordRepository on MongoDB.
type MongoPeekRecordRepository struct {
	coll *mongo.Collection
}

// NewMongoPeekRecordRepository creates a new MongoPeekRecordRepository.
func NewMongoPeekRecordRepository(db *mongo.Database) *MongoPeekRecordRepository {
	return &MongoPeekRecordRepository{coll: db.Collection(peekRecordsCollection)}
}

// Append inserts the record; a duplicate _id means an earlier attempt already
// landed and is treated as success.
func (r *MongoPeekRecordRepository) Append(ctx context.Context, rec *domain.PeekRecord) error {
	_, err := r.coll.InsertOne(ctx, peekRecordDoc{
		ID:           rec.ID,
		SessionID:    rec.SessionID,
		SessionTitle: rec.SessionTitle,
		UserID:       rec.UserID,
		UserEmail:    rec.UserEmail,
		SelectedIdea: rec.SelectedIdea,
		CreatedAt:    rec.CreatedAt,
	})
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}

// Count returns the total number of records.
func (r *MongoPeekRecordRepository) Count(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.D{})
}

// CountBetween returns the number of records with from <= createdAt < to.
func (r *MongoPeekRecordRepository) CountBetween(ctx context.Context, from, to time.Time) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.D{{Key: "createdAt", Value: bson.D{
		{Key: "$gte", Value: from},
		{Key: "$lt", Value: to},
	}}})
}

// Recent returns up to limit records, newest first.
func (r *MongoPeekRecordRepository) Recent(ctx context.Context, limit int) ([]domain.PeekRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	var docs []peekRecordDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.PeekRecord, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.record())
	}
	return out, nil
}
