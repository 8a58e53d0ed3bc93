package store

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the database named by databaseURL, selecting the driver
// from the URL scheme: sqlite:// (file path or :memory:), postgres:// /
// postgresql://, or mysql:// (DSN form after the scheme). TranslateError is
// enabled so unique-constraint violations surface as gorm.ErrDuplicatedKey
// for the store's conflict mapping.
func Open(databaseURL string) (*gorm.DB, error) {
	cfg := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	}

	switch {
	case strings.HasPrefix(databaseURL, "sqlite://"):
		path := strings.TrimPrefix(databaseURL, "sqlite://")
		if path == "" {
			path = ":memory:"
		}
		db, err := gorm.Open(sqlite.Open(path), cfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite database %s: %w", path, err)
		}
		return db, nil
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		db, err := gorm.Open(postgres.Open(databaseURL), cfg)
		if err != nil {
			return nil, fmt.Errorf("open postgres database: %w", err)
		}
		return db, nil
	case strings.HasPrefix(databaseURL, "mysql://"):
		dsn := strings.TrimPrefix(databaseURL, "mysql://")
		db, err := gorm.Open(mysql.Open(dsn), cfg)
		if err != nil {
			return nil, fmt.Errorf("open mysql database: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database URL %q (expected sqlite://, postgres://, or mysql://)", databaseURL)
	}
}
