package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"timedquiz/internal/model"
)

// ResultRepo handles MongoDB operations for finalized sessions
type ResultRepo interface {
	SaveResult(ctx context.Context, rec *model.SessionRecord) error
	GetResult(ctx context.Context, token string) (*model.SessionRecord, error)
	GetByTestID(ctx context.Context, testID string) ([]*model.SessionRecord, error)
}

type resultRepo struct {
	collection *mongo.Collection
}

// NewResultRepo creates a new result repository
func NewResultRepo(db *mongo.Database) ResultRepo {
	return &resultRepo{
		collection: db.Collection("results"),
	}
}

// SaveResult upserts by token so a retried hand-off does not duplicate
func (r *resultRepo) SaveResult(ctx context.Context, rec *model.SessionRecord) error {
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": rec.Token}, rec, options.Replace().SetUpsert(true))
	return err
}

func (r *resultRepo) GetResult(ctx context.Context, token string) (*model.SessionRecord, error) {
	var rec model.SessionRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": token}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *resultRepo) GetByTestID(ctx context.Context, testID string) ([]*model.SessionRecord, error) {
	opts := options.Find().SetSort(bson.M{"completedAt": -1})
	cursor, err := r.collection.Find(ctx, bson.M{"testId": testID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*model.SessionRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
