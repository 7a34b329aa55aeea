package db

import (
	"database/sql"
	"fmt"

	"beatforge/config"
	"beatforge/logger"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

var DB *sql.DB

// ConnectDB establishes a connection to the database.
func ConnectDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = DB.Ping(); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("connected to database", logger.String("host", cfg.DBHost), logger.String("db", cfg.DBName))
	return nil
}

// InitDB initializes the database schema, creating tables if they don't exist.
func InitDB() error {
	if err := createBeatsTable(); err != nil {
		return err
	}
	logger.Info("database schema initialized")
	return nil
}

func createBeatsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS beats (
		id CHAR(36) PRIMARY KEY,
		owner_id VARCHAR(64),
		title VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		genre VARCHAR(100) NOT NULL DEFAULT '',
		musical_key VARCHAR(10) NOT NULL DEFAULT '',
		mode VARCHAR(10) NOT NULL DEFAULT '',
		tags TEXT NOT NULL,
		bpm INT NOT NULL,
		duration_label VARCHAR(20) NOT NULL DEFAULT '',
		wav_price DECIMAL(10,2) NOT NULL,
		trackout_price DECIMAL(10,2) NOT NULL,
		unlimited_price DECIMAL(10,2) NOT NULL,
		is_exclusive BOOLEAN NOT NULL DEFAULT FALSE,
		featured BOOLEAN NOT NULL DEFAULT FALSE,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		scheduled_release_at DATETIME NULL DEFAULT NULL,
		preview_asset_ref VARCHAR(512) NOT NULL,
		master_asset_ref VARCHAR(512) NOT NULL,
		stems_asset_ref VARCHAR(512),
		legacy_stems_asset_ref VARCHAR(512),
		artwork_asset_ref VARCHAR(512),
		external_product_id VARCHAR(255),
		wav_price_id VARCHAR(255),
		trackout_price_id VARCHAR(255),
		unlimited_price_id VARCHAR(255),
		sync_status VARCHAR(16) NOT NULL DEFAULT 'pending',
		sync_error TEXT,
		rating DOUBLE NOT NULL DEFAULT 0,
		review_count INT NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		INDEX idx_beats_active_schedule (is_active, scheduled_release_at),
		INDEX idx_beats_genre (genre),
		INDEX idx_beats_owner (owner_id)
	);
	`
	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create beats table: %w", err)
	}
	return nil
}
