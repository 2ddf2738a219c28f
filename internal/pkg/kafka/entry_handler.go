package kafka

import (
	"Purng/internal/pkg/consts"
	"Purng/internal/pkg/redis"
	"Purng/internal/pkg/target"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
)

const pushupEntriesTable = "pushup_entries"

// PushupEntriesHandler 消费 pushup_entries 的 binlog，把受影响的 (用户, 年) 放入脏集合等待审计
type PushupEntriesHandler struct {
	store redis.Store
}

func NewPushupEntriesHandler(store redis.Store) *PushupEntriesHandler {
	return &PushupEntriesHandler{store: store}
}

func (s *PushupEntriesHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("pushup entries consumer setup")
	return nil
}

func (s *PushupEntriesHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("pushup entries consumer cleanup")
	return nil
}

func (s *PushupEntriesHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	log.Info("topic-pushup-entries consume claim")
	err := pullMessageBatch(session, claim, s.logic)
	if err != nil {
		log.Error("topic-pushup-entries process batch error", "err", err)
		return err
	}
	return nil
}

func (s *PushupEntriesHandler) logic(ctx context.Context, msg *sarama.ConsumerMessage) error {
	canalMsg, err := ToCanalMessage(msg, pushupEntriesTable)
	if err != nil {
		return err
	}

	switch canalMsg.Type {
	case INSERT, DELETE:
		return s.markDirty(ctx, canalMsg.Data)
	case UPDATE:
		// old 只带变更过的列，叠加到新行上得到变更前的 (用户, 日期)
		rows := make([]map[string]any, 0, len(canalMsg.Data)*2)
		for i, row := range canalMsg.Data {
			rows = append(rows, row)
			if i < len(canalMsg.Old) {
				before := make(map[string]any, len(row))
				for k, v := range row {
					before[k] = v
				}
				for k, v := range canalMsg.Old[i] {
					before[k] = v
				}
				rows = append(rows, before)
			}
		}
		return s.markDirty(ctx, rows)
	default:
		return nil
	}
}

func (s *PushupEntriesHandler) markDirty(ctx context.Context, rows []map[string]any) error {
	seen := make(map[string]struct{}, len(rows))
	members := make([]string, 0, len(rows))
	for _, row := range rows {
		userID, err := rowUint64(row, "user_id")
		if err != nil {
			log.WarnContext(ctx, "malformed pushup entry row", "err", err)
			continue
		}
		date, err := rowString(row, "date")
		if err != nil {
			log.WarnContext(ctx, "malformed pushup entry row", "err", err)
			continue
		}
		year, err := target.YearOf(date)
		if err != nil {
			log.WarnContext(ctx, "malformed pushup entry date", "date", date, "err", err)
			continue
		}

		member := consts.StatsDirtyMember(userID, year)
		if _, ok := seen[member]; ok {
			continue
		}
		seen[member] = struct{}{}
		members = append(members, member)
	}
	if len(members) == 0 {
		return nil
	}

	if err := s.store.SAdd(ctx, consts.StatsDirtyKey, members...); err != nil {
		return err
	}
	log.InfoContext(ctx, "stats marked dirty", "members", members)
	return nil
}
