package api

import (
	"Purng/internal/api/config"
	"Purng/internal/api/middleware"
	"Purng/internal/pkg/consts"
	"Purng/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup, logCfg config.LogstashConfig) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.AuditMiddleware())
	r.Use(middleware.CORSMiddleware())
	logger.SetupGin(r, logCfg)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"code":    200,
				"message": "pong",
				"data":    nil,
			})
		})

		// 公开接口，登录与否均可
		apiGroup.GET("/target", group.PushupHandler.GetDailyTarget)
		apiGroup.GET("/activity", group.ActivityHandler.GetActivityFeed)
		apiGroup.GET("/activity/ws", group.ActivityHandler.Stream)
		apiGroup.GET("/leaderboard", group.LeaderboardHandler.GetLeaderboard)

		authOptGroup := apiGroup.Group("")
		authOptGroup.Use(middleware.AuthOptionalMiddleware())
		{
			authOptGroup.GET("/target/data", group.PushupHandler.GetTargetData)
			authOptGroup.GET("/pushups/missed", group.PushupHandler.GetMissedDays)
			authOptGroup.GET("/year", group.PushupHandler.GetYearData)
			authOptGroup.GET("/stats", group.StatsHandler.GetStats)
			authOptGroup.POST("/feedback", group.FeedbackHandler.SubmitFeedback)
		}

		authGroup := apiGroup.Group("")
		authGroup.Use(middleware.AuthMiddleware())
		{
			authGroup.POST("/pushups", group.PushupHandler.AddPushups)
			authGroup.POST("/pushups/recover", group.PushupHandler.RecoverPushups)
		}

		// 需要登录 & 拥有 admin 角色
		adminGroup := apiGroup.Group("/admin")
		adminGroup.Use(middleware.AuthMiddleware(), middleware.CheckRoles(consts.RoleAdmin))
		{
			adminGroup.GET("/feedback", group.FeedbackHandler.GetFeedbackList)
			adminGroup.POST("/stats/backfill", group.StatsHandler.Backfill)
			adminGroup.GET("/stats/audit", group.StatsHandler.Audit)
		}
	}

	return r
}
