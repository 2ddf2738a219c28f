package service

import (
	"Purng/internal/api/dto"
	"Purng/internal/pkg/consts"
	"Purng/internal/pkg/redis"
	"context"
	"fmt"
	log "log/slog"
)

// Alerter 运维告警通道
type Alerter interface {
	Alert(ctx context.Context, title string, content string) error
}

// ReminderPublisher 把提醒交给外部推送服务
type ReminderPublisher interface {
	PublishReminder(ctx context.Context, msg *dto.ReminderMessage) error
}

// reportInconsistency 汇总与流水不一致：记录、告警、放入脏集合等待审计修复
func reportInconsistency(ctx context.Context, store redis.Store, alerter Alerter, userID uint64, year int, cause error) {
	log.ErrorContext(ctx, "AggregationInconsistency",
		"user_id", userID,
		"year", year,
		"err", cause,
	)

	if err := store.SAdd(ctx, consts.StatsDirtyKey, consts.StatsDirtyMember(userID, year)); err != nil {
		log.ErrorContext(ctx, "mark stats dirty error", "user_id", userID, "year", year, "err", err)
	}

	if alerter == nil {
		return
	}
	content := fmt.Sprintf("user %d, year %d: %v", userID, year, cause)
	if err := alerter.Alert(ctx, ErrAggregationInconsistency.Error(), content); err != nil {
		log.WarnContext(ctx, "send alert error", "err", err)
	}
}
