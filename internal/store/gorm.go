package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/ngrok/sqlmw"
	"github.com/reelforge/reelforge/internal/config"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const instrumentedDriver = "pgx-instrumented"

var registerDriver sync.Once

// gormLogWriter routes gorm's own log lines into zap.
type gormLogWriter struct {
	l *zap.SugaredLogger
}

func (w gormLogWriter) Printf(format string, args ...interface{}) {
	w.l.Warnf(format, args...)
}

func InitDB(cfg *config.Config) (*gorm.DB, error) {
	var dia gorm.Dialector

	if cfg.Database.Type == "pgsql" {
		sqlDB, err := openPostgres(cfg)
		if err != nil {
			return nil, err
		}
		dia = postgres.New(postgres.Config{Conn: sqlDB})
	} else {
		dsn := cfg.Database.DSN
		if dsn == "" {
			dsn = cfg.Database.Name
		}
		dia = sqlite.Open(dsn)
	}

	newLogger := logger.New(
		gormLogWriter{l: zap.S().Named("gorm")},
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
			Colorful:                  false,
		},
	)

	newDB, err := gorm.Open(dia, &gorm.Config{Logger: newLogger, TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if cfg.Database.Type == "pgsql" {
		var version string
		if result := newDB.Raw("SELECT version()").Scan(&version); result.Error != nil {
			return nil, result.Error
		}
		zap.S().Named("gorm").Infof("PostgreSQL information: '%s'", version)
		return newDB, nil
	}

	sqlDB, err := newDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to configure connections: %w", err)
	}
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetMaxOpenConns(int(cfg.Database.MaxConns))

	return newDB, nil
}

// openPostgres opens postgres through the pgx driver wrapped with the
// metric interceptor. gorm and goose share the returned handle.
func openPostgres(cfg *config.Config) (*sql.DB, error) {
	dsn := cfg.Database.DSN
	if dsn == "" {
		dsn = fmt.Sprintf("host=%s user=%s password=%s port=%s",
			cfg.Database.Hostname,
			cfg.Database.User,
			cfg.Database.Password,
			cfg.Database.Port,
		)
		if cfg.Database.Name != "" {
			dsn = fmt.Sprintf("%s dbname=%s", dsn, cfg.Database.Name)
		}
	}

	if _, err := pgx.ParseConfig(dsn); err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	registerDriver.Do(func() {
		sql.Register(instrumentedDriver, sqlmw.Driver(stdlib.GetDefaultDriver(), &metricInterceptor{}))
	})

	sqlDB, err := sql.Open(instrumentedDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.Database.MaxConns > 0 {
		sqlDB.SetMaxOpenConns(int(cfg.Database.MaxConns))
	}
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	return sqlDB, nil
}
