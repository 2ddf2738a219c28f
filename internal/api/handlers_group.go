package api

import "Purng/internal/api/handler"

// HandlersGroup 封装了所有已初始化的 Handler 实例
type HandlersGroup struct {
	PushupHandler      *handler.PushupHandler
	StatsHandler       *handler.StatsHandler
	ActivityHandler    *handler.ActivityHandler
	LeaderboardHandler *handler.LeaderboardHandler
	FeedbackHandler    *handler.FeedbackHandler
}
