package database

import (
	"fmt"
	"os"
	"path/filepath"

	"controllerblocker/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	historyFile = "history.db"
	historyDir  = ".config/controllerblocker"
)

// DB is the block history database
type DB struct {
	*gorm.DB
}

// DefaultPath returns ~/.config/controllerblocker/history.db
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, historyDir, historyFile), nil
}

// Connect opens the history database at dbPath, or at DefaultPath when dbPath
// is empty. Missing parent directories are created.
func Connect(dbPath string) (*DB, error) {
	if dbPath == "" {
		var err error
		if dbPath, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", dbPath, err)
	}

	return &DB{db}, nil
}

// Initialize migrates the block event and error log tables
func (db *DB) Initialize() error {
	if err := db.AutoMigrate(&models.BlockEvent{}, &models.ErrorLog{}); err != nil {
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}
	return nil
}

func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}
