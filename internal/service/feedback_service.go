package service

import (
	"Purng/internal/api/dto"
	"Purng/internal/pkg/mongo"
	"Purng/internal/repository"
	"context"
	"strings"
	"time"
)

const feedbackMaxPageSize = 100

type FeedbackService interface {
	SubmitFeedback(ctx context.Context, userID uint64, req *dto.FeedbackBaseDTO) error
	GetFeedbackList(ctx context.Context, page, pageSize int) ([]*dto.FeedbackDTO, error)
}

type feedbackServiceImpl struct {
	feedbackRepo mongo.FeedbackRepo
	userRepo     repository.UserRepo
}

func NewFeedbackService(feedbackRepo mongo.FeedbackRepo, userRepo repository.UserRepo) FeedbackService {
	return &feedbackServiceImpl{
		feedbackRepo: feedbackRepo,
		userRepo:     userRepo,
	}
}

// SubmitFeedback 登录用户附带邮箱与名字，匿名也可提交
func (s *feedbackServiceImpl) SubmitFeedback(ctx context.Context, userID uint64, req *dto.FeedbackBaseDTO) error {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return ErrParamInvalid
	}

	feedback := &mongo.FeedbackModel{
		Type:      req.Type,
		Message:   message,
		CreatedAt: time.Now(),
	}
	if userID != 0 {
		user, err := s.userRepo.GetUserById(ctx, userID)
		if err != nil {
			return err
		}
		if user != nil {
			feedback.UserID = &user.ID
			feedback.Email = user.Email
			if user.Name != nil {
				feedback.Name = *user.Name
			}
		}
	}
	return s.feedbackRepo.CreateFeedback(ctx, feedback)
}

func (s *feedbackServiceImpl) GetFeedbackList(ctx context.Context, page, pageSize int) ([]*dto.FeedbackDTO, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > feedbackMaxPageSize {
		pageSize = 20
	}
	list, err := s.feedbackRepo.GetFeedbackList(ctx, int64(pageSize), int64((page-1)*pageSize))
	if err != nil {
		return nil, err
	}

	res := make([]*dto.FeedbackDTO, 0, len(list))
	for _, f := range list {
		res = append(res, &dto.FeedbackDTO{
			ID:        f.ID.Hex(),
			Type:      f.Type,
			Message:   f.Message,
			UserID:    f.UserID,
			Email:     f.Email,
			Name:      f.Name,
			CreatedAt: f.CreatedAt.Format(time.RFC3339),
		})
	}
	return res, nil
}
