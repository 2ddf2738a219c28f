package logger

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"
	"time"

	"gorm.io/gorm/logger"
)

const (
	defaultSlowQuery = 200 * time.Millisecond
	maxSQLLogLen     = 2000
)

// SlogGormLogger 默认只记慢查询和错误，回填时的批量 SQL 截断后再落日志
type SlogGormLogger struct {
	LogLevel  logger.LogLevel
	SlowQuery time.Duration
}

func NewGormLogger(slow time.Duration, logQueries bool) *SlogGormLogger {
	if slow <= 0 {
		slow = defaultSlowQuery
	}
	level := logger.Warn
	if logQueries {
		level = logger.Info
	}
	return &SlogGormLogger{LogLevel: level, SlowQuery: slow}
}

func (l *SlogGormLogger) LogMode(level logger.LogLevel) logger.Interface {
	cp := *l
	cp.LogLevel = level
	return &cp
}

func (l *SlogGormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.LogLevel >= logger.Info {
		log.InfoContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *SlogGormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.LogLevel >= logger.Warn {
		log.WarnContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *SlogGormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.LogLevel >= logger.Error {
		log.ErrorContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *SlogGormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	failed := err != nil && !errors.Is(err, logger.ErrRecordNotFound)
	slow := elapsed > l.SlowQuery
	if !failed && !slow && l.LogLevel < logger.Info {
		return
	}

	sql, rows := fc()
	msg := "MySQL " + sqlVerb(sql)
	fields := []any{
		log.String("sql", clipSQL(sql)),
		log.Duration("latency", elapsed),
		log.Int64("rows", rows),
	}

	switch {
	case failed && l.LogLevel >= logger.Error:
		log.ErrorContext(ctx, msg+" Error", append(fields, log.Any("err", err))...)
	case slow && l.LogLevel >= logger.Warn:
		log.WarnContext(ctx, msg+" Slow", fields...)
	case l.LogLevel >= logger.Info:
		log.InfoContext(ctx, msg, fields...)
	}
}

func sqlVerb(sql string) string {
	if fields := strings.Fields(sql); len(fields) > 0 {
		return strings.ToUpper(fields[0])
	}
	return "QUERY"
}

func clipSQL(sql string) string {
	if len(sql) > maxSQLLogLen {
		return sql[:maxSQLLogLen] + "...[truncated]"
	}
	return sql
}
