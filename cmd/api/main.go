package main

import (
	"Purng/internal/api/config"
	"Purng/internal/pkg/database"
	"Purng/internal/pkg/logger"
	"Purng/internal/pkg/mongo"
	"Purng/internal/pkg/redis"
	"Purng/internal/pkg/security"
	"Purng/internal/wire"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// fatal 启动阶段的错误一律终止进程
func fatal(stage string, err error) {
	if err != nil {
		log.Error("Startup failed", "stage", stage, "err", err)
		os.Exit(1)
	}
}

type infra struct {
	db    *gorm.DB
	mongo *mongodriver.Database
}

// connect 依次建立 MySQL、Redis、Mongo 连接
func connect(cfg *config.Config) infra {
	dbCfg := cfg.DB
	db, err := database.NewGormDB(&dbCfg)
	fatal("mysql", err)
	fatal("redis", redis.InitRedis(cfg.Redis))
	mongoDB, err := mongo.InitMongo(cfg.Mongo)
	fatal("mongo", err)
	return infra{db: db, mongo: mongoDB}
}

func main() {
	fatal("config", config.LoadConfig())
	cfg := config.Cfg

	logger.InitLogger(cfg.Logstash)
	gin.SetMode(cfg.Server.Mode)
	if cfg.Challenge.RandomSeed == "" {
		log.Warn("challenge.random_seed not set, falling back to the default secret")
	}

	conns := connect(cfg)
	security.InitJWT(cfg.JWT)

	app, err := wire.BuildApplication(conns.db, conns.mongo, cfg)
	fatal("wire", err)
	defer func() {
		if err := app.ReminderProducer.Close(); err != nil {
			log.Error("Failed to close reminder producer", "err", err)
		}
	}()

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(sigCtx)

	fatal("cron", app.CronMgr.Run())
	g.Go(func() error {
		<-ctx.Done()
		app.CronMgr.Stop()
		return nil
	})

	// binlog 审计消费者
	g.Go(func() error {
		return app.KafkaManager.Start(ctx, cfg)
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		log.Info("Purng API listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down", "cause", context.Cause(ctx))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err = g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Purng API exited with error", "err", err)
		return
	}
	log.Info("Purng API stopped")
}
