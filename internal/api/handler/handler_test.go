package handler

import (
	"Purng/internal/api/dto"
	"Purng/internal/pkg/response"
	"Purng/internal/repository"
	"Purng/internal/service"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPushupSvc struct {
	service.PushupService
	addReq  *dto.AddPushupsDTO
	addUser uint64
	addErr  error
	today   time.Time
}

func (s *stubPushupSvc) AddPushups(_ context.Context, userID uint64, req *dto.AddPushupsDTO) (*dto.AddPushupsResultDTO, error) {
	s.addUser = userID
	s.addReq = req
	if s.addErr != nil {
		return nil, s.addErr
	}
	return &dto.AddPushupsResultDTO{Success: true, Message: "Pushups logged successfully!", Total: req.Count}, nil
}

func (s *stubPushupSvc) Today() time.Time {
	return s.today
}

type stubLeaderboardSvc struct {
	year int
}

func (s *stubLeaderboardSvc) GetLeaderboard(_ context.Context, year int) ([]*dto.LeaderboardRowDTO, error) {
	s.year = year
	return []*dto.LeaderboardRowDTO{}, nil
}

type stubActivitySvc struct {
	cursor int64
	limit  int
}

func (s *stubActivitySvc) GetActivityFeed(_ context.Context, cursor int64, limit int) (*dto.ActivityFeedDTO, error) {
	s.cursor, s.limit = cursor, limit
	return &dto.ActivityFeedDTO{Entries: []*dto.ActivityEntryDTO{}}, nil
}

type stubStatsSvc struct {
	service.StatsService
	auditYear int
}

func (s *stubStatsSvc) AuditYear(_ context.Context, year int) (*dto.StatsAuditDTO, error) {
	s.auditYear = year
	return &dto.StatsAuditDTO{Year: year, Consistent: true}, nil
}

func (s *stubStatsSvc) Backfill(context.Context) (*repository.RebuildResult, error) {
	return &repository.RebuildResult{EntriesProcessed: 3}, nil
}

func newTestEngine(userID uint64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	})
	return r
}

func serve(t *testing.T, r *gin.Engine, method, url string, body string) dto.Response {
	t.Helper()
	req := httptest.NewRequest(method, url, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestAddPushups(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		svcErr  error
		code    int
		message string
	}{
		{name: "ok", body: `{"date":"2025-03-01","count":5}`, code: response.Ok, message: "success"},
		{name: "missing date", body: `{"count":5}`, code: response.BadRequest, message: service.ErrParamInvalid.Error()},
		{name: "malformed date", body: `{"date":"03/01/2025","count":5}`, code: response.BadRequest, message: "Field [Date] failed validation rule [datetime]"},
		{name: "count type", body: `{"date":"2025-03-01","count":"five"}`, code: response.BadRequest, message: "Malformed JSON"},
		{
			name:    "validation from service",
			body:    `{"date":"2025-03-01","count":0}`,
			svcErr:  &service.ValidationError{Message: "You can't log less than 1 pushup"},
			code:    response.BadRequest,
			message: "You can't log less than 1 pushup",
		},
		{name: "busy", body: `{"date":"2025-03-01","count":1}`, svcErr: service.ErrBusy, code: service.ErrorMap[service.ErrBusy], message: service.ErrBusy.Error()},
		{name: "unexpected", body: `{"date":"2025-03-01","count":1}`, svcErr: errors.New("db down"), code: response.InternalServerError, message: service.UnExpectedError.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubPushupSvc{addErr: tt.svcErr}
			r := newTestEngine(42)
			r.POST("/pushups", NewPushupHandler(svc).AddPushups)

			resp := serve(t, r, http.MethodPost, "/pushups", tt.body)
			assert.Equal(t, tt.code, resp.Code)
			assert.Equal(t, tt.message, resp.Message)
			if tt.code == response.Ok {
				assert.Equal(t, uint64(42), svc.addUser)
				assert.Equal(t, 5, svc.addReq.Count)
			}
		})
	}
}

func TestGetActivityFeedQuery(t *testing.T) {
	svc := &stubActivitySvc{}
	r := newTestEngine(0)
	r.GET("/activity", NewActivityHandler(svc, nil).GetActivityFeed)

	resp := serve(t, r, http.MethodGet, "/activity?cursor=1735689600000&limit=5", "")
	assert.Equal(t, response.Ok, resp.Code)
	assert.Equal(t, int64(1735689600000), svc.cursor)
	assert.Equal(t, 5, svc.limit)

	resp = serve(t, r, http.MethodGet, "/activity?cursor=abc", "")
	assert.Equal(t, response.BadRequest, resp.Code)
}

func TestYearDefaultsToServerToday(t *testing.T) {
	pushupSvc := &stubPushupSvc{today: time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC)}
	leaderboardSvc := &stubLeaderboardSvc{}
	statsSvc := &stubStatsSvc{}

	r := newTestEngine(0)
	r.GET("/leaderboard", NewLeaderboardHandler(leaderboardSvc, pushupSvc).GetLeaderboard)
	r.GET("/audit", NewStatsHandler(statsSvc, pushupSvc).Audit)

	serve(t, r, http.MethodGet, "/leaderboard", "")
	assert.Equal(t, 2026, leaderboardSvc.year)
	serve(t, r, http.MethodGet, "/leaderboard?year=2025", "")
	assert.Equal(t, 2025, leaderboardSvc.year)

	resp := serve(t, r, http.MethodGet, "/audit", "")
	assert.Equal(t, response.Ok, resp.Code)
	assert.Equal(t, 2026, statsSvc.auditYear)

	resp = serve(t, r, http.MethodGet, "/audit?year=nope", "")
	assert.Equal(t, response.BadRequest, resp.Code)
}

func TestActivityStream(t *testing.T) {
	feed := make(chan string, 1)
	closed := make(chan struct{})
	subscribe := func(ctx context.Context, channel string) (<-chan string, func() error) {
		assert.Equal(t, "activity:feed", channel)
		return feed, func() error {
			close(closed)
			return nil
		}
	}

	r := newTestEngine(0)
	r.GET("/ws", NewActivityHandler(&stubActivitySvc{}, subscribe).Stream)
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)

	feed <- `{"id":1,"type":"completed"}`
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"type":"completed"}`, string(msg))

	require.NoError(t, conn.Close())
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("subscription not released after client disconnect")
	}
}
