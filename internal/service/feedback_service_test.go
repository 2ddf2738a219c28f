package service

import (
	"Purng/internal/api/dto"
	"Purng/internal/model"
	"Purng/internal/pkg/mongo"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeFeedbackRepo struct {
	list []*mongo.FeedbackModel
}

func (r *fakeFeedbackRepo) CreateFeedback(_ context.Context, feedback *mongo.FeedbackModel) error {
	feedback.ID = primitive.NewObjectID()
	r.list = append([]*mongo.FeedbackModel{feedback}, r.list...)
	return nil
}

func (r *fakeFeedbackRepo) GetFeedbackList(_ context.Context, limit, offset int64) ([]*mongo.FeedbackModel, error) {
	if offset >= int64(len(r.list)) {
		return []*mongo.FeedbackModel{}, nil
	}
	end := min(offset+limit, int64(len(r.list)))
	return r.list[offset:end], nil
}

func TestSubmitFeedback(t *testing.T) {
	repo := &fakeFeedbackRepo{}
	users := newFakeUserRepo(&model.User{ID: 7, Email: "ada@example.com", Name: strPtr("Ada Lovelace")})
	svc := NewFeedbackService(repo, users)
	ctx := context.Background()

	require.NoError(t, svc.SubmitFeedback(ctx, 7, &dto.FeedbackBaseDTO{Type: "bug", Message: "  counter stuck  "}))
	require.NoError(t, svc.SubmitFeedback(ctx, 0, &dto.FeedbackBaseDTO{Type: "feedback", Message: "love it"}))
	assert.ErrorIs(t, svc.SubmitFeedback(ctx, 0, &dto.FeedbackBaseDTO{Type: "feedback", Message: "   "}), ErrParamInvalid)

	list, err := svc.GetFeedbackList(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)

	anon, bug := list[0], list[1]
	assert.Equal(t, "love it", anon.Message)
	assert.Nil(t, anon.UserID)
	assert.Empty(t, anon.Email)

	assert.Equal(t, "bug", bug.Type)
	assert.Equal(t, "counter stuck", bug.Message)
	require.NotNil(t, bug.UserID)
	assert.Equal(t, uint64(7), *bug.UserID)
	assert.Equal(t, "ada@example.com", bug.Email)
	assert.Equal(t, "Ada Lovelace", bug.Name)
	assert.Len(t, bug.ID, 24)
	_, err = time.Parse(time.RFC3339, bug.CreatedAt)
	assert.NoError(t, err)

	list, err = svc.GetFeedbackList(ctx, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}
