package handler

import (
	"Purng/internal/api/dto"
	"Purng/internal/pkg/response"
	"Purng/internal/pkg/util"
	"Purng/internal/service"

	"github.com/gin-gonic/gin"
)

type FeedbackHandler struct {
	feedbackSvc service.FeedbackService
}

func NewFeedbackHandler(feedbackSvc service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{
		feedbackSvc: feedbackSvc,
	}
}

func (s *FeedbackHandler) SubmitFeedback(c *gin.Context) {
	userID := c.GetUint64("user_id")

	var req dto.FeedbackBaseDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Error(c, err)
		return
	}

	if err := s.feedbackSvc.SubmitFeedback(c.Request.Context(), userID, &req); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *FeedbackHandler) GetFeedbackList(c *gin.Context) {
	page, err := util.ParseOptionalInt(c.Query("page"))
	if err != nil {
		response.Error(c, err)
		return
	}
	pageSize, err := util.ParseOptionalInt(c.Query("page_size"))
	if err != nil {
		response.Error(c, err)
		return
	}

	list, err := s.feedbackSvc.GetFeedbackList(c.Request.Context(), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}
