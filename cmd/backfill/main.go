package main

import (
	"Purng/internal/api/config"
	"Purng/internal/pkg/database"
	"Purng/internal/pkg/logger"
	"Purng/internal/pkg/redis"
	"Purng/internal/wire"
	"context"
	"flag"
	log "log/slog"
	"os"
	"time"
)

// 一次性重算年度汇总，可重复执行
func main() {
	timeout := flag.Duration("timeout", 30*time.Minute, "overall timeout for the recompute")
	audit := flag.Int("audit-year", 0, "after backfill, audit the given year and exit non-zero on mismatch")
	flag.Parse()

	if err := config.LoadConfig(); err != nil {
		log.Error("Fatal error: failed to load configuration", "err", err)
		os.Exit(1)
	}
	cfg := config.Cfg
	logger.InitLogger(cfg.Logstash)

	dbCfg := cfg.DB
	db, err := database.NewGormDB(&dbCfg)
	if err != nil {
		log.Error("Fatal error: failed to create database connection", "err", err)
		os.Exit(1)
	}
	if err = redis.InitRedis(cfg.Redis); err != nil {
		log.Error("Fatal error: failed to create redis connection", "err", err)
		os.Exit(1)
	}

	services, err := wire.BuildServices(db, cfg)
	if err != nil {
		log.Error("Fatal error: failed to create services", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(logger.JobContext(context.Background(), "backfill"), *timeout)
	defer cancel()

	res, err := services.Stats.Backfill(ctx)
	if err != nil {
		log.ErrorContext(ctx, "backfill failed", "err", err)
		os.Exit(1)
	}
	log.InfoContext(ctx, "backfill finished",
		"entries_processed", res.EntriesProcessed,
		"years_updated", res.YearsUpdated,
		"user_years_updated", res.UserYearsUpdated,
	)

	if *audit == 0 {
		return
	}
	report, err := services.Stats.AuditYear(ctx, *audit)
	if err != nil {
		log.ErrorContext(ctx, "audit failed", "err", err)
		os.Exit(1)
	}
	if !report.Consistent {
		log.ErrorContext(ctx, "rollups still inconsistent", "year", *audit, "users", len(report.Users))
		os.Exit(2)
	}
	log.InfoContext(ctx, "rollups consistent", "year", *audit)
}
