package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/zedmarket-backend/pkg/logger"
)

const defaultSlowQuery = 250 * time.Millisecond

// gormLogger forwards slow statements and driver errors to the service
// logger, carrying the request fields bound to ctx. Routine statements and
// record-not-found results are dropped.
type gormLogger struct {
	logg *logger.Logger
	slow time.Duration
}

func newGormLogger(logg *logger.Logger, slow time.Duration) gormlogger.Interface {
	if logg == nil {
		return gormlogger.Discard
	}
	if slow <= 0 {
		slow = defaultSlowQuery
	}
	return &gormLogger{logg: logg, slow: slow}
}

func (g *gormLogger) LogMode(gormlogger.LogLevel) gormlogger.Interface { return g }

func (g *gormLogger) Info(ctx context.Context, msg string, _ ...any) { g.logg.Debug(ctx, msg) }

func (g *gormLogger) Warn(ctx context.Context, msg string, _ ...any) { g.logg.Warn(ctx, msg) }

func (g *gormLogger) Error(ctx context.Context, msg string, _ ...any) {
	g.logg.Error(ctx, msg, nil)
}

func (g *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	notFound := errors.Is(err, gorm.ErrRecordNotFound)
	if (err == nil || notFound) && elapsed < g.slow {
		return
	}
	sql, rows := fc()
	logCtx := g.logg.WithFields(ctx, map[string]any{
		"sql":        sql,
		"rows":       rows,
		"elapsed_ms": elapsed.Milliseconds(),
	})
	if err != nil && !notFound {
		g.logg.Warn(logCtx, "sql statement failed")
		return
	}
	g.logg.Warn(logCtx, "slow sql statement")
}
