package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

// Cfg 全局可访问的配置实例
var Cfg *Config

// LoadConfig 从文件加载配置并填充到 Cfg，环境变量 PURNG_* 可覆盖
func LoadConfig() error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")

	v.SetEnvPrefix("PURNG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 兼容旧部署直接使用 RANDOM_SEED
	if cfg.Challenge.RandomSeed == "" {
		cfg.Challenge.RandomSeed = os.Getenv("RANDOM_SEED")
	}

	if _, err := cfg.Challenge.Location(); err != nil {
		return fmt.Errorf("invalid challenge.timezone: %w", err)
	}

	Cfg = &cfg

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.max_idle", 10)
	v.SetDefault("database.max_open", 100)
	v.SetDefault("database.max_lifetime", 60)
	v.SetDefault("database.slow_query_ms", 200)
	v.SetDefault("redis.pool_size", 20)
	v.SetDefault("mongo.database", "purng")
	v.SetDefault("kafka.consumer.session_timeout", 30)
	v.SetDefault("kafka.consumer.heartbeat_interval", 3)
	v.SetDefault("kafka.consumer.rebalance_timeout", 60)
	v.SetDefault("kafka.consumer.max_processing_time", 5)
	v.SetDefault("kafka_entry_consumer.topic", "canal_purng_pushup_entries")
	v.SetDefault("kafka_entry_consumer.group_id", "purng_stats_audit")
	v.SetDefault("kafka_reminder_producer.topic", "purng_reminders")
	v.SetDefault("logstash.index", "logstash-purng")
	v.SetDefault("challenge.random_seed", "")
	v.SetDefault("challenge.timezone", "UTC")
	v.SetDefault("reminder.enable", true)
	v.SetDefault("reminder.cron", "0 0 14 * * *")
	v.SetDefault("stats_audit.cron", "0 */10 * * * *")
	v.SetDefault("alert.timeout", 5)
}

// Location 挑战使用的时区，“今天”按它计算
func (c ChallengeConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}
