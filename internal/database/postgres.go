package database

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/viper"
)

var db *sql.DB

// DBConfig holds database configuration
type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// GetConfig returns database configuration with defaults
func GetConfig() *DBConfig {
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", "5432")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "password")
	viper.SetDefault("database.name", "banking_ledger")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", time.Minute*5)

	return &DBConfig{
		Host:            viper.GetString("database.host"),
		Port:            viper.GetString("database.port"),
		User:            viper.GetString("database.user"),
		Password:        viper.GetString("database.password"),
		Name:            viper.GetString("database.name"),
		SSLMode:         viper.GetString("database.ssl_mode"),
		MaxOpenConns:    viper.GetInt("database.max_open_conns"),
		MaxIdleConns:    viper.GetInt("database.max_idle_conns"),
		ConnMaxLifetime: viper.GetDuration("database.conn_max_lifetime"),
	}
}

// InitDB initializes the database connection
func InitDB() (*sql.DB, error) {
	config := GetConfig()

	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.Name, config.SSLMode,
	)

	var err error
	db, err = sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Test connection
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	log.Println("[DB] Database connection established")
	return db, nil
}

// Migrate creates the ledger schema when it does not exist and seeds the
// merchant category table.
func Migrate(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id BIGSERIAL PRIMARY KEY,
			account_number VARCHAR(32) UNIQUE NOT NULL,
			account_name VARCHAR(128) NOT NULL,
			balance NUMERIC(19,4) NOT NULL DEFAULT 0,
			currency_code VARCHAR(3) NOT NULL,
			user_id BIGINT NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'Pending',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS credit_cards (
			id BIGSERIAL PRIMARY KEY,
			card_number VARCHAR(32) UNIQUE NOT NULL,
			pin_hash TEXT NOT NULL,
			card_limit NUMERIC(19,4) NOT NULL,
			card_type VARCHAR(64) NOT NULL,
			currency_code VARCHAR(3) NOT NULL,
			amount_used NUMERIC(19,4) NOT NULL DEFAULT 0,
			monthly_balance NUMERIC(19,4) NOT NULL DEFAULT 0,
			min_balance_paid NUMERIC(19,4) NOT NULL DEFAULT 0,
			interest NUMERIC(19,4) NOT NULL DEFAULT 0,
			status VARCHAR(16) NOT NULL DEFAULT 'Pending',
			user_id BIGINT NOT NULL,
			last_billed_period VARCHAR(7) NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS merchant_categories (
			code_number INT PRIMARY KEY,
			category VARCHAR(64) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id UUID PRIMARY KEY,
			type VARCHAR(32) NOT NULL,
			amount NUMERIC(19,4) NOT NULL,
			cashback NUMERIC(19,4) NOT NULL DEFAULT 0,
			account_id BIGINT REFERENCES accounts(id),
			credit_card_id BIGINT REFERENCES credit_cards(id),
			recipient_account_id BIGINT REFERENCES accounts(id),
			recipient_account_number VARCHAR(32),
			merchant_category_code INT REFERENCES merchant_categories(code_number),
			currency_code VARCHAR(3) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_card ON transactions(credit_card_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_recipient ON transactions(recipient_account_id)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("running migration: %w", err)
		}
	}

	seed := `INSERT INTO merchant_categories (code_number, category) VALUES
		(1000, 'Dining'), (1001, 'Shopping'), (1002, 'Transport'),
		(1003, 'Travel'), (1004, 'Bill'), (1005, 'Interest')
		ON CONFLICT (code_number) DO NOTHING`
	if _, err := db.Exec(seed); err != nil {
		return fmt.Errorf("seeding merchant categories: %w", err)
	}

	log.Println("[DB] Schema migration complete")
	return nil
}

// GetDB returns the database connection
func GetDB() *sql.DB {
	return db
}

// CloseDB closes the database connection
func CloseDB() error {
	if db != nil {
		return db.Close()
	}
	return nil
}

// InitDatabase initializes database with error handling
func InitDatabase() *sql.DB {
	db, err := InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if err := Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	return db
}
