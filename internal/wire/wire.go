package wire

import (
	"Purng/internal/api"
	"Purng/internal/api/config"
	"Purng/internal/api/handler"
	"Purng/internal/job"
	"Purng/internal/pkg/alert"
	"Purng/internal/pkg/cron"
	"Purng/internal/pkg/kafka"
	mongoPkg "Purng/internal/pkg/mongo"
	"Purng/internal/pkg/redis"
	"Purng/internal/pkg/target"
	"Purng/internal/repository"
	"Purng/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router           *gin.Engine
	DB               *gorm.DB
	KafkaManager     *kafka.ConsumerManager
	ReminderProducer *kafka.ReminderProducer
	CronMgr          *cron.Manager
}

// Services 业务层实例，cmd/backfill 等离线工具复用
type Services struct {
	Pushup      service.PushupService
	Stats       service.StatsService
	Activity    service.ActivityService
	Leaderboard service.LeaderboardService
}

// BuildServices 组装不依赖 Kafka / Mongo 的业务层
func BuildServices(db *gorm.DB, cfg *config.Config) (*Services, error) {
	loc, err := cfg.Challenge.Location()
	if err != nil {
		return nil, err
	}

	targets := target.NewGenerator(cfg.Challenge.RandomSeed)
	store := redis.NewStore()
	alerter := alert.NewWebhookAlerter(cfg.Alert)

	pushupRepo := repository.NewPushupRepo(db)
	statsRepo := repository.NewStatsRepo(db)
	userRepo := repository.NewUserRepo(db)

	pushupService := service.NewPushupService(targets, pushupRepo, userRepo, store, alerter, loc)
	statsService := service.NewStatsService(pushupService, targets, pushupRepo, statsRepo, store, alerter)

	return &Services{
		Pushup:      pushupService,
		Stats:       statsService,
		Activity:    service.NewActivityService(targets, pushupRepo, userRepo),
		Leaderboard: service.NewLeaderboardService(statsRepo, userRepo, store),
	}, nil
}

func BuildApplication(db *gorm.DB, mongoDB *mongo.Database, cfg *config.Config) (*ApplicationContainer, error) {
	services, err := BuildServices(db, cfg)
	if err != nil {
		return nil, err
	}

	targets := target.NewGenerator(cfg.Challenge.RandomSeed)
	store := redis.NewStore()
	userRepo := repository.NewUserRepo(db)
	pushupRepo := repository.NewPushupRepo(db)
	feedbackRepo := mongoPkg.NewFeedbackRepo(mongoDB)

	feedbackService := service.NewFeedbackService(feedbackRepo, userRepo)

	reminderProducer, err := kafka.NewReminderProducer(cfg)
	if err != nil {
		return nil, err
	}
	reminderService := service.NewReminderService(targets, pushupRepo, userRepo, reminderProducer)

	handlers := &api.HandlersGroup{
		PushupHandler:      handler.NewPushupHandler(services.Pushup),
		StatsHandler:       handler.NewStatsHandler(services.Stats, services.Pushup),
		ActivityHandler:    handler.NewActivityHandler(services.Activity, redis.SubscribePayloads),
		LeaderboardHandler: handler.NewLeaderboardHandler(services.Leaderboard, services.Pushup),
		FeedbackHandler:    handler.NewFeedbackHandler(feedbackService),
	}

	router := api.SetupRouter(handlers, cfg.Logstash)

	kafkaMgr, err := kafka.NewConsumerManager(cfg, store)
	if err != nil {
		_ = reminderProducer.Close()
		return nil, err
	}

	cronMgr := cron.NewCronManager(
		cfg,
		job.NewReminderJob(reminderService, store),
		job.NewStatsAuditJob(services.Stats, store),
	)

	return &ApplicationContainer{
		Router:           router,
		DB:               db,
		KafkaManager:     kafkaMgr,
		ReminderProducer: reminderProducer,
		CronMgr:          cronMgr,
	}, nil
}
