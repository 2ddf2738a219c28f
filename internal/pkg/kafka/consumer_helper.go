package kafka

import (
	"Purng/internal/pkg/logger"
	"context"
	"errors"
	log "log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
)

const (
	batchSize        = 32
	batchTimeout     = time.Second
	batchConcurrency = 8
	maxRetries       = 8
	minBackoff       = 100 * time.Millisecond
	maxBackoff       = 5 * time.Second
)

// ErrSkipMessage 与当前消费者无关的消息，直接确认
var ErrSkipMessage = errors.New("skip message")

type LogicFunc func(ctx context.Context, msg *sarama.ConsumerMessage) error

// batcher 攒够 batchSize 条或等满 batchTimeout 后整批处理，处理完才提交 offset
type batcher struct {
	session sarama.ConsumerGroupSession
	logic   LogicFunc
	pending []*sarama.ConsumerMessage
}

func (b *batcher) add(msg *sarama.ConsumerMessage) bool {
	b.pending = append(b.pending, msg)
	return len(b.pending) >= batchSize
}

func (b *batcher) flush() {
	if len(b.pending) == 0 {
		return
	}
	ctx := logger.JobContext(b.session.Context(), "kafka")

	var g errgroup.Group
	g.SetLimit(batchConcurrency)
	for _, m := range b.pending {
		g.Go(func() error {
			handleWithRetry(ctx, m, b.logic)
			return nil
		})
	}
	_ = g.Wait()

	b.session.MarkMessage(b.pending[len(b.pending)-1], "")
	b.pending = b.pending[:0]
}

// pullMessageBatch 阻塞消费一个分区，直到分区被回收或会话结束
func pullMessageBatch(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim, logic LogicFunc) error {
	b := &batcher{session: session, logic: logic, pending: make([]*sarama.ConsumerMessage, 0, batchSize)}
	timer := time.NewTimer(batchTimeout)
	defer timer.Stop()

	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				b.flush()
				return nil
			}
			if b.add(msg) {
				b.flush()
				timer.Reset(batchTimeout)
			}
		case <-timer.C:
			b.flush()
			timer.Reset(batchTimeout)
		case <-session.Context().Done():
			return nil
		}
	}
}

// handleWithRetry 指数退避，超过次数后放弃，漏掉的变更由定时审计兜底
func handleWithRetry(ctx context.Context, m *sarama.ConsumerMessage, logic LogicFunc) {
	wait := minBackoff
	for attempt := 1; ; attempt++ {
		err := logic(ctx, m)
		if err == nil || errors.Is(err, ErrSkipMessage) {
			return
		}
		if attempt >= maxRetries {
			log.ErrorContext(ctx, "give up message",
				"topic", m.Topic,
				"partition", m.Partition,
				"offset", m.Offset,
				"err", err,
			)
			return
		}

		log.WarnContext(ctx, "process message error", "attempt", attempt, "offset", m.Offset, "err", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
		wait = min(wait*2, maxBackoff)
	}
}

// ToCanalMessage 其他表、DDL 以及解析失败的消息都返回 ErrSkipMessage
func ToCanalMessage(msg *sarama.ConsumerMessage, tableName string) (*CanalMessage, error) {
	var canalMsg CanalMessage
	if err := json.Unmarshal(msg.Value, &canalMsg); err != nil {
		log.Warn("unmarshal canal message error", "offset", msg.Offset, "err", err)
		return nil, ErrSkipMessage
	}
	if canalMsg.IsDDL || canalMsg.Table != tableName || len(canalMsg.Data) == 0 {
		return nil, ErrSkipMessage
	}
	return &canalMsg, nil
}
