package kafka

import (
	"Purng/internal/api/config"
	"Purng/internal/api/dto"
	"context"
	log "log/slog"
	"strconv"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// ReminderProducer 把每日提醒写入 Kafka，由推送服务消费
type ReminderProducer struct {
	producer sarama.SyncProducer
	topic    string
}

func NewReminderProducer(cfg *config.Config) (*ReminderProducer, error) {
	producer, err := sarama.NewSyncProducer(cfg.Kafka.Brokers, newSaramaConfig(cfg.Kafka))
	if err != nil {
		return nil, err
	}
	return newReminderProducer(producer, cfg.KafkaReminderProducer.Topic), nil
}

func newReminderProducer(producer sarama.SyncProducer, topic string) *ReminderProducer {
	return &ReminderProducer{producer: producer, topic: topic}
}

// PublishReminder 以 user_id 为 key，同一用户的提醒落在同一分区
func (s *ReminderProducer) PublishReminder(ctx context.Context, msg *dto.ReminderMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "marshal reminder")
	}

	partition, offset, err := s.producer.SendMessage(&sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(strconv.FormatUint(msg.UserID, 10)),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		return errors.Wrapf(err, "send reminder to %s", s.topic)
	}

	log.DebugContext(ctx, "reminder published", "user_id", msg.UserID, "partition", partition, "offset", offset)
	return nil
}

func (s *ReminderProducer) Close() error {
	return s.producer.Close()
}
