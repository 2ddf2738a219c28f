package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type FeedbackRepo interface {
	CreateFeedback(ctx context.Context, feedback *FeedbackModel) error
	GetFeedbackList(ctx context.Context, limit, offset int64) ([]*FeedbackModel, error)
}

type feedbackRepoImpl struct {
	col *mongo.Collection
}

func NewFeedbackRepo(db *mongo.Database) FeedbackRepo {
	return &feedbackRepoImpl{
		col: db.Collection(FeedbackCollection),
	}
}

func (s *feedbackRepoImpl) CreateFeedback(ctx context.Context, feedback *FeedbackModel) error {
	_, err := s.col.InsertOne(ctx, feedback)
	return err
}

// GetFeedbackList 按时间倒序分页
func (s *feedbackRepoImpl) GetFeedbackList(ctx context.Context, limit, offset int64) ([]*FeedbackModel, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)

	cursor, err := s.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	list := make([]*FeedbackModel, 0)
	if err = cursor.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}
