package handler

import (
	"Purng/internal/pkg/consts"
	"Purng/internal/pkg/response"
	"Purng/internal/pkg/util"
	"Purng/internal/service"
	"context"
	log "log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Subscriber 订阅频道，返回消息体通道与取消订阅函数
type Subscriber func(ctx context.Context, channel string) (<-chan string, func() error)

type ActivityHandler struct {
	activitySvc service.ActivityService
	subscribe   Subscriber
}

func NewActivityHandler(activitySvc service.ActivityService, subscribe Subscriber) *ActivityHandler {
	return &ActivityHandler{
		activitySvc: activitySvc,
		subscribe:   subscribe,
	}
}

func (s *ActivityHandler) GetActivityFeed(c *gin.Context) {
	cursor, err := util.ParseCursor(c.Query("cursor"))
	if err != nil {
		response.Error(c, err)
		return
	}
	limit, err := util.ParseOptionalInt(c.Query("limit"))
	if err != nil {
		response.Error(c, err)
		return
	}

	res, err := s.activitySvc.GetActivityFeed(c.Request.Context(), cursor, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// Stream 把 activity:feed 频道的新动态推给 websocket 客户端
func (s *ActivityHandler) Stream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WarnContext(c.Request.Context(), "WS 协议升级失败", "err", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, unsubscribe := s.subscribe(ctx, consts.ActivityChannel)
	defer func() {
		_ = unsubscribe()
	}()

	log.InfoContext(c.Request.Context(), "activity stream connected", "remote", c.ClientIP())

	stopChan := make(chan struct{})

	// 读循环：监听客户端主动断开
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				close(stopChan)
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	// 写循环：监听 Redis 并推送至客户端
	for {
		select {
		case payload, ok := <-messages:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
				log.WarnContext(c.Request.Context(), "WS 推送失败", "err", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		case <-stopChan:
			log.InfoContext(c.Request.Context(), "activity stream disconnected", "remote", c.ClientIP())
			return
		}
	}
}
