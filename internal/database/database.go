package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/tzheng846/studyWme/internal/config"
	"github.com/tzheng846/studyWme/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newLogger reports slow queries and real failures. Lookups that find
// nothing are an expected answer, not an error.
func newLogger(w logger.Writer) logger.Interface {
	return logger.New(w, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

func Connect(cfg *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger:         newLogger(log.New(os.Stdout, "\r\n", log.LstdFlags)),
	}

	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		dialector = postgres.Open(cfg.PostgresDSN())
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.DBDriver, err)
	}

	if cfg.DBDriver == config.DriverSQLite {
		// SQLite has a single writer; one connection also keeps :memory:
		// databases shared across goroutines.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("sqlite handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	log.Printf("database connected (%s)", cfg.DBDriver)
	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.Participant{},
		&models.Violation{},
		&models.OutcomeCredit{},
	)
	if err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	// A room code identifies at most one joinable session.
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_pending_room_code
		ON sessions (room_code) WHERE status = 'pending'`).Error; err != nil {
		return fmt.Errorf("create pending room code index: %w", err)
	}

	log.Println("database migrated")
	return nil
}
