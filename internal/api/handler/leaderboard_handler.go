package handler

import (
	"Purng/internal/pkg/response"
	"Purng/internal/pkg/util"
	"Purng/internal/service"

	"github.com/gin-gonic/gin"
)

type LeaderboardHandler struct {
	leaderboardSvc service.LeaderboardService
	pushupSvc      service.PushupService
}

func NewLeaderboardHandler(leaderboardSvc service.LeaderboardService, pushupSvc service.PushupService) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboardSvc: leaderboardSvc,
		pushupSvc:      pushupSvc,
	}
}

func (s *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	year, err := util.ParseYear(c.Query("year"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if year == 0 {
		year = s.pushupSvc.Today().Year()
	}

	rows, err := s.leaderboardSvc.GetLeaderboard(c.Request.Context(), year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, rows)
}
