package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"blog/internal/config"
	"blog/internal/models"
)

// Open connects to the configured database and migrates the schema.
func Open(cfg *config.Config) (*gorm.DB, error) {
	var (
		sqlDB     *sql.DB
		dialector gorm.Dialector
		err       error
	)
	switch cfg.DBDriver {
	case config.DriverSQLite:
		sqlDB, err = openSQLite(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		dialector = sqlite.New(sqlite.Config{Conn: sqlDB})
	case config.DriverPostgres:
		sqlDB, err = sql.Open("postgres", cfg.DSN())
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(40)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
		dialector = postgres.New(postgres.Config{Conn: sqlDB})
	default:
		return nil, fmt.Errorf("db: unknown driver %q", cfg.DBDriver)
	}

	g, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("db: open %s: %w", cfg.DBDriver, err)
	}
	if err := Migrate(g); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return g, nil
}

func openSQLite(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", "file:"+path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	// sqlite serialises writers; one connection avoids "database is locked".
	db.SetMaxOpenConns(1)
	return db, nil
}

func Migrate(g *gorm.DB) error {
	if err := g.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("db: migrate: %w", err)
	}
	return nil
}

// Close releases the pool behind g.
func Close(g *gorm.DB) error {
	sqlDB, err := g.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
