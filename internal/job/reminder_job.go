package job

import (
	"Purng/internal/pkg/consts"
	"Purng/internal/pkg/logger"
	"Purng/internal/pkg/redis"
	"Purng/internal/pkg/target"
	"Purng/internal/service"
	"context"
	log "log/slog"
	"time"

	"github.com/google/uuid"
)

// 一天只发一次，多实例部署时靠锁互斥
const reminderLockTTL = 23 * time.Hour

type ReminderJob struct {
	reminderSvc service.ReminderService
	store       redis.Store
	now         func() time.Time
}

func NewReminderJob(reminderSvc service.ReminderService, store redis.Store) *ReminderJob {
	return &ReminderJob{
		reminderSvc: reminderSvc,
		store:       store,
		now:         time.Now,
	}
}

func (s *ReminderJob) Run() {
	ctx := logger.JobContext(context.Background(), "job-reminder")

	date := target.FormatDate(target.Today(s.now(), time.UTC))
	lockKey := consts.ReminderLock + date
	lockValue := uuid.NewString()
	ok, err := s.store.TryLock(ctx, lockKey, lockValue, reminderLockTTL, 1)
	if err != nil {
		log.ErrorContext(ctx, "acquire reminder lock error", "err", err)
		return
	}
	if !ok {
		log.InfoContext(ctx, "reminders already sent by another instance", "date", date)
		return
	}

	sent, err := s.reminderSvc.SendDailyReminders(ctx)
	if err != nil {
		// 失败时释放锁，允许手动重跑
		s.store.UnLock(ctx, lockKey, lockValue)
		log.ErrorContext(ctx, "send daily reminders error", "date", date, "err", err)
		return
	}

	log.InfoContext(ctx, "send daily reminders success", "date", date, "sent", sent)
}
