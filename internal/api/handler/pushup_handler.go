package handler

import (
	"Purng/internal/api/dto"
	"Purng/internal/pkg/response"
	"Purng/internal/pkg/util"
	"Purng/internal/service"

	"github.com/gin-gonic/gin"
)

type PushupHandler struct {
	pushupSvc service.PushupService
}

func NewPushupHandler(pushupSvc service.PushupService) *PushupHandler {
	return &PushupHandler{
		pushupSvc: pushupSvc,
	}
}

func (s *PushupHandler) GetDailyTarget(c *gin.Context) {
	res, err := s.pushupSvc.GetDailyTarget(c.Request.Context(), c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *PushupHandler) GetTargetData(c *gin.Context) {
	userID := c.GetUint64("user_id")

	res, err := s.pushupSvc.GetTargetData(c.Request.Context(), userID, c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *PushupHandler) AddPushups(c *gin.Context) {
	userID := c.GetUint64("user_id")

	var req dto.AddPushupsDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Error(c, err)
		return
	}

	res, err := s.pushupSvc.AddPushups(c.Request.Context(), userID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *PushupHandler) GetMissedDays(c *gin.Context) {
	userID := c.GetUint64("user_id")

	res, err := s.pushupSvc.GetMissedDays(c.Request.Context(), userID, c.Query("today"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *PushupHandler) RecoverPushups(c *gin.Context) {
	userID := c.GetUint64("user_id")

	var req dto.RecoverPushupsDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Error(c, err)
		return
	}

	res, err := s.pushupSvc.RecoverPushups(c.Request.Context(), userID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *PushupHandler) GetYearData(c *gin.Context) {
	userID := c.GetUint64("user_id")

	res, err := s.pushupSvc.GetYearData(c.Request.Context(), userID, c.Query("today"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}
