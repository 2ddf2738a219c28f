package service

import (
	"Purng/internal/api/dto"
	"Purng/internal/pkg/consts"
	"Purng/internal/pkg/target"
	"Purng/internal/repository"
	"context"
	"fmt"
	log "log/slog"
	"time"
)

type ReminderService interface {
	SendDailyReminders(ctx context.Context) (int, error)
}

type reminderServiceImpl struct {
	targets    target.Source
	pushupRepo repository.PushupRepo
	userRepo   repository.UserRepo
	publisher  ReminderPublisher
	now        func() time.Time
}

func NewReminderService(
	targets target.Source,
	pushupRepo repository.PushupRepo,
	userRepo repository.UserRepo,
	publisher ReminderPublisher,
) ReminderService {
	return &reminderServiceImpl{
		targets:    targets,
		pushupRepo: pushupRepo,
		userRepo:   userRepo,
		publisher:  publisher,
		now:        time.Now,
	}
}

// reminderBody 休息日与训练日文案不同
func reminderBody(dayTarget int) string {
	if dayTarget == 0 {
		return consts.ReminderRestDayBody
	}
	return fmt.Sprintf(consts.ReminderBodyFormat, dayTarget)
}

// SendDailyReminders 给开启提醒且今天（UTC）还没记录的用户发提醒，返回成功投递数
func (s *reminderServiceImpl) SendDailyReminders(ctx context.Context) (int, error) {
	today := target.Today(s.now(), time.UTC)
	date := target.FormatDate(today)
	body := reminderBody(s.targets.DailyTarget(today))

	users, err := s.userRepo.GetReminderUsers(ctx)
	if err != nil {
		return 0, err
	}
	if len(users) == 0 {
		return 0, nil
	}

	logged, err := s.pushupRepo.GetDateUserTotals(ctx, date)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, u := range users {
		if logged[u.ID] > 0 {
			continue
		}
		msg := &dto.ReminderMessage{
			UserID: u.ID,
			Email:  u.Email,
			Title:  consts.ReminderTitle,
			Body:   body,
			URL:    consts.ReminderURL,
		}
		if err := s.publisher.PublishReminder(ctx, msg); err != nil {
			log.ErrorContext(ctx, "publish reminder error", "user_id", u.ID, "err", err)
			continue
		}
		sent++
	}

	log.InfoContext(ctx, "daily reminders sent", "date", date, "candidates", len(users), "sent", sent)
	return sent, nil
}
