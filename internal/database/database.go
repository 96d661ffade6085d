package database

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/Conceptual-Machines/soundcard-api/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const (
	defaultSQLitePath  = "soundcards.db"
	slowQueryThreshold = time.Second
)

// Connect opens the saved-card database. postgres:// URLs use Postgres;
// anything else is treated as a SQLite path, with a local file when empty.
func Connect(databaseURL string) (*gorm.DB, error) {
	dialector, name := dialectorFor(databaseURL)

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             slowQueryThreshold,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", name, err)
	}

	log.Printf("🗄️  Database connected (%s)", name)
	return db, nil
}

func dialectorFor(databaseURL string) (gorm.Dialector, string) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return postgres.Open(databaseURL), "postgres"
	case databaseURL == "":
		return sqlite.Open(defaultSQLitePath), "sqlite"
	default:
		return sqlite.Open(strings.TrimPrefix(databaseURL, "sqlite://")), "sqlite"
	}
}

// Migrate creates or updates the tables this service owns
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.SavedCard{}); err != nil {
		return fmt.Errorf("failed to migrate saved cards: %w", err)
	}
	return nil
}
