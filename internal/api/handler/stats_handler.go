package handler

import (
	"Purng/internal/pkg/response"
	"Purng/internal/pkg/util"
	"Purng/internal/service"

	"github.com/gin-gonic/gin"
)

type StatsHandler struct {
	statsSvc  service.StatsService
	pushupSvc service.PushupService
}

func NewStatsHandler(statsSvc service.StatsService, pushupSvc service.PushupService) *StatsHandler {
	return &StatsHandler{
		statsSvc:  statsSvc,
		pushupSvc: pushupSvc,
	}
}

func (s *StatsHandler) GetStats(c *gin.Context) {
	userID := c.GetUint64("user_id")

	year, err := util.ParseYear(c.Query("year"))
	if err != nil {
		response.Error(c, err)
		return
	}

	res, err := s.statsSvc.GetStatsData(c.Request.Context(), userID, c.Query("date"), year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// Backfill 全量重算汇总，幂等
func (s *StatsHandler) Backfill(c *gin.Context) {
	res, err := s.statsSvc.Backfill(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *StatsHandler) Audit(c *gin.Context) {
	year, err := util.ParseYear(c.Query("year"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if year == 0 {
		year = s.pushupSvc.Today().Year()
	}

	res, err := s.statsSvc.AuditYear(c.Request.Context(), year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}
