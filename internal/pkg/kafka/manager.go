package kafka

import (
	"Purng/internal/api/config"
	"Purng/internal/pkg/redis"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
)

// ConsumerManager 管理所有 Kafka 消费者
type ConsumerManager struct {
	entriesConsumer sarama.ConsumerGroup
	entriesHandler  sarama.ConsumerGroupHandler
}

// NewConsumerManager 构造函数
func NewConsumerManager(cfg *config.Config, store redis.Store) (*ConsumerManager, error) {
	saramaCfg := newSaramaConfig(cfg.Kafka)

	entriesConsumer, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.KafkaEntryConsumer.GroupID, saramaCfg)
	if err != nil {
		return nil, err
	}

	return &ConsumerManager{
		entriesConsumer: entriesConsumer,
		entriesHandler:  NewPushupEntriesHandler(store),
	}, nil
}

// Start 启动所有消费者，阻塞到 ctx 结束
func (m *ConsumerManager) Start(ctx context.Context, cfg *config.Config) error {
	go func() {
		for err := range m.entriesConsumer.Errors() {
			log.Error("pushup entries consumer error", "err", err)
		}
	}()

	go func() {
		topic := cfg.KafkaEntryConsumer.Topic
		log.Info("Pushup entries consumer started", "topic", topic)
		for {
			if err := m.entriesConsumer.Consume(ctx, []string{topic}, m.entriesHandler); err != nil {
				log.Error("Error from consumer", "err", err)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	<-ctx.Done()
	log.Info("Kafka Manager shutting down...")

	if err := m.entriesConsumer.Close(); err != nil {
		log.Error("Failed to close pushup entries consumer", "err", err)
	}

	return nil
}
