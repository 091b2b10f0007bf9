package app

import (
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/model-agency/internal/cache"
	"github.com/oggyb/model-agency/internal/config"
	"github.com/oggyb/model-agency/internal/db"
	"github.com/oggyb/model-agency/internal/filestore"
)

// AppContext holds shared dependencies (DB, Redis, file store, Logger, etc.)
type AppContext struct {
	Config     *config.Config
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Files      *filestore.Local
	Logger     *slog.Logger
	// Now is the clock for moderation timestamps; tests may pin it.
	Now func() time.Time
}

// New creates a new AppContext
func New(cfg *config.Config, database *gorm.DB, rdb *cache.RedisCache, files *filestore.Local, logger *slog.Logger) *AppContext {
	return &AppContext{
		Config:     cfg,
		DB:         database,
		RedisCache: rdb,
		Files:      files,
		Logger:     logger,
		Now:        db.Now,
	}
}
