package config

import (
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// BillingConfig carries the monthly billing-cycle constants.
type BillingConfig struct {
	InterestRate  decimal.Decimal
	MinimumDue    decimal.Decimal
	UnpaidMinFee  decimal.Decimal
	Workers       int
	RunOnStartup  bool
}

// FXConfig carries the currency snapshot bootstrap settings.
type FXConfig struct {
	SnapshotPath string
	FeedURL      string
	FetchTimeout time.Duration
	BankBIC      string
}

func LoadBillingConfig() *BillingConfig {
	return &BillingConfig{
		InterestRate: getEnvAsDecimal("BILLING_INTEREST_RATE", "0.10"),
		MinimumDue:   getEnvAsDecimal("BILLING_MINIMUM_DUE", "50"),
		UnpaidMinFee: getEnvAsDecimal("BILLING_UNPAID_MIN_FEE", "100"),
		Workers:      getEnvAsInt("BILLING_WORKERS", 4),
		RunOnStartup: getEnvAsBool("BILLING_RUN_ON_STARTUP", false),
	}
}

func LoadFXConfig() *FXConfig {
	return &FXConfig{
		SnapshotPath: getEnv("FX_SNAPSHOT_PATH", "fx_rates.json"),
		FeedURL:      getEnv("FX_FEED_URL", "http://www.floatrates.com/daily/usd.json"),
		FetchTimeout: getEnvAsDuration("FX_FETCH_TIMEOUT", 10*time.Second),
		BankBIC:      getEnv("BANK_BIC", "APMBANKX"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if boolVal, err := strconv.ParseBool(val); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}

func getEnvAsDecimal(key, defaultVal string) decimal.Decimal {
	if val := os.Getenv(key); val != "" {
		if d, err := decimal.NewFromString(val); err == nil {
			return d
		}
	}
	d, _ := decimal.NewFromString(defaultVal)
	return d
}
