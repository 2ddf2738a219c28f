package logger

import (
	"Purng/internal/api/config"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

type accessLine struct {
	Time        string `json:"time"`
	Level       string `json:"level"`
	Msg         string `json:"msg"`
	TraceID     string `json:"trace_id"`
	LogToken    string `json:"log_token"`
	TargetIndex string `json:"target_index"`
	Method      string `json:"method"`
	Path        string `json:"path"`
	Status      int    `json:"status"`
	Latency     string `json:"latency"`
	ClientIP    string `json:"client_ip"`
}

// formatAccess 访问日志与 slog 输出同样的 JSON 结构，便于 Logstash 统一入库
func formatAccess(cfg config.LogstashConfig) gin.LogFormatter {
	return func(p gin.LogFormatterParams) string {
		var traceID string
		if p.Keys != nil {
			if id, ok := p.Keys[TraceIDKey].(string); ok {
				traceID = id
			}
		}
		if traceID == "" && p.Request != nil {
			if id, ok := p.Request.Context().Value(TraceIDKey).(string); ok {
				traceID = id
			}
		}

		b, err := json.Marshal(accessLine{
			Time:        p.TimeStamp.Format(time.RFC3339),
			Level:       "INFO",
			Msg:         "GIN_ACCESS",
			TraceID:     traceID,
			LogToken:    cfg.Token,
			TargetIndex: cfg.Index,
			Method:      p.Method,
			Path:        p.Path,
			Status:      p.StatusCode,
			Latency:     p.Latency.String(),
			ClientIP:    p.ClientIP,
		})
		if err != nil {
			return ""
		}
		return string(b) + "\n"
	}
}

func SetupGin(r *gin.Engine, cfg config.LogstashConfig) {
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Output:    LogWriter,
		Formatter: formatAccess(cfg),
		SkipPaths: []string{"/api/ping"},
	}))

	r.Use(gin.Recovery())
}
