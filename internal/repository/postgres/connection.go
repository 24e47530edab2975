package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/dom/blog-backend/internal/config"
	"github.com/dom/blog-backend/internal/repository"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const pingTimeout = 10 * time.Second

// NewConnection opens the database and pings it. Callers treat an error as
// fatal: the server must not start against an unreachable store.
func NewConnection(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*gorm.DB, error) {
	level := logger.Warn
	if cfg.IsDevelopment() {
		level = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.New(log, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

func NewRepositories(db *gorm.DB) *repository.Repositories {
	return &repository.Repositories{
		User: NewUserRepository(db),
		Post: NewPostRepository(db),
	}
}
