package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"timedquiz/internal/model"
)

// TestRepo handles MongoDB operations for the test catalog
type TestRepo interface {
	List(ctx context.Context) ([]model.Test, error)
	GetByID(ctx context.Context, id string) (*model.Test, error)
	Upsert(ctx context.Context, test *model.Test) error
}

type testRepo struct {
	collection *mongo.Collection
}

// NewTestRepo creates a new test repository
func NewTestRepo(db *mongo.Database) TestRepo {
	return &testRepo{
		collection: db.Collection("tests"),
	}
}

func (r *testRepo) List(ctx context.Context) ([]model.Test, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	tests := []model.Test{}
	if err := cursor.All(ctx, &tests); err != nil {
		return nil, err
	}
	return tests, nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (*model.Test, error) {
	var test model.Test
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&test)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &test, nil
}

func (r *testRepo) Upsert(ctx context.Context, test *model.Test) error {
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": test.ID}, test, options.Replace().SetUpsert(true))
	return err
}
