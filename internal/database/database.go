package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZJUSCT/CSArena/internal/config"
	"github.com/ZJUSCT/CSArena/internal/database/models"
	"go.uber.org/zap"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the configured store without migrating it.
func Open(cfg config.Storage) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", "sqlite":
		dsn := cfg.Database
		if !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
			if _, err := os.Stat(dsn); os.IsNotExist(err) {
				zap.S().Infof("database file not found at '%s', creating directory for it.", dsn)
				if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
					return nil, err
				}
			}
		}
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(cfg.Database)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}

	// SQLite allows one writer at a time; a single connection serialises
	// transactions instead of failing them with SQLITE_BUSY, and keeps an
	// in-memory database alive for the life of the pool.
	if dialector.Name() == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.Tag{},
		&models.Question{},
		&models.Contest{},
		&models.ContestQuestion{},
		&models.ContestPermission{},
		&models.ContestPermittedGroup{},
		&models.ContestPermittedUser{},
		&models.Submission{},
		&models.TempContestTime{},
		&models.ContestAttempt{},
		&models.GroupOnContest{},
	)
}

func Init(cfg config.Storage) (*gorm.DB, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
