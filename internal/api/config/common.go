package config

// Config 配置主体
type Config struct {
	Server                Server                `mapstructure:"server"`
	DB                    DBConfig              `mapstructure:"database"`
	Redis                 RedisConfig           `mapstructure:"redis"`
	Mongo                 MongoConfig           `mapstructure:"mongo"`
	Kafka                 KafkaConfig           `mapstructure:"kafka"`
	KafkaEntryConsumer    KafkaEntryConsumer    `mapstructure:"kafka_entry_consumer"`
	KafkaReminderProducer KafkaReminderProducer `mapstructure:"kafka_reminder_producer"`
	Logstash              LogstashConfig        `mapstructure:"logstash"`
	JWT                   JWTConfig             `mapstructure:"jwt"`
	Challenge             ChallengeConfig       `mapstructure:"challenge"`
	Reminder              ReminderConfig        `mapstructure:"reminder"`
	StatsAudit            StatsAuditConfig      `mapstructure:"stats_audit"`
	Alert                 AlertConfig           `mapstructure:"alert"`
}

// Server Server配置
type Server struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DBConfig 数据库配置
type DBConfig struct {
	DSN         string `mapstructure:"dsn"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
	SlowQueryMs int    `mapstructure:"slow_query_ms"`
	LogQueries  bool   `mapstructure:"log_queries"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type MongoConfig struct {
	URL      string `mapstructure:"url"`
	Database string `mapstructure:"database"`
}

type KafkaConfig struct {
	Brokers  []string       `mapstructure:"brokers"`
	Sasl     SaslConfig     `mapstructure:"sasl"`
	Consumer ConsumerConfig `mapstructure:"consumer"`
}

type SaslConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type ConsumerConfig struct {
	SessionTimeout    int `mapstructure:"session_timeout"`
	HeartbeatInterval int `mapstructure:"heartbeat_interval"`
	RebalanceTimeout  int `mapstructure:"rebalance_timeout"`
	MaxProcessingTime int `mapstructure:"max_processing_time"`
}

// KafkaEntryConsumer canal 推送的 pushup_entries binlog
type KafkaEntryConsumer struct {
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

// KafkaReminderProducer 每日提醒投递的 topic
type KafkaReminderProducer struct {
	Topic string `mapstructure:"topic"`
}

type LogstashConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
	Token   string `mapstructure:"token"`
}

// JWTConfig 外部身份服务签发的 HS256 token
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// ChallengeConfig RandomSeed 决定全部历史与未来的目标，部署后不可修改
type ChallengeConfig struct {
	RandomSeed string `mapstructure:"random_seed"`
	Timezone   string `mapstructure:"timezone"`
}

type ReminderConfig struct {
	Enable bool   `mapstructure:"enable"`
	Cron   string `mapstructure:"cron"`
}

type StatsAuditConfig struct {
	Cron string `mapstructure:"cron"`
}

type AlertConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
	Timeout    int    `mapstructure:"timeout"`
}
