package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bryantttp/bankingwebapp/internal/models"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
)

const rateSnapshotKey = "fx_rates_snapshot"

type rateTable struct {
	currencies map[string]models.Currency
}

// RateService resolves exchange rates through a USD pivot. Lookups are
// lock-free reads against an immutable table; a refresh builds a complete
// replacement table and publishes it in one atomic swap, so an in-flight
// lookup never observes half-updated rows.
type RateService struct {
	table        atomic.Pointer[rateTable]
	redis        *redis.Client
	client       *http.Client
	snapshotPath string
	feedURL      string
}

func NewRateService(snapshotPath, feedURL string, fetchTimeout time.Duration, rdb *redis.Client) *RateService {
	s := &RateService{
		redis:        rdb,
		client:       &http.Client{Timeout: fetchTimeout},
		snapshotPath: snapshotPath,
		feedURL:      feedURL,
	}
	s.table.Store(&rateTable{currencies: map[string]models.Currency{
		models.USD: {Code: models.USD, Name: "U.S. Dollar", Rate: decimal.NewFromInt(1), InverseRate: decimal.NewFromInt(1)},
	}})
	return s
}

// Rate returns the conversion factor from base to target.
//
// Orientation follows the USD-pivot table: target=USD uses base.rate,
// base=USD uses target.rate, and a cross pair triangulates as
// target.rate * base.inverseRate. Rates are never rounded here.
func (s *RateService) Rate(baseCode, targetCode string) (decimal.Decimal, error) {
	table := s.table.Load()

	base, ok := table.currencies[strings.ToUpper(baseCode)]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrCurrencyNotFound, baseCode)
	}
	target, ok := table.currencies[strings.ToUpper(targetCode)]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrCurrencyNotFound, targetCode)
	}

	if base.Code == target.Code {
		return decimal.NewFromInt(1), nil
	}
	if target.Code == models.USD {
		return base.Rate, nil
	}
	if base.Code == models.USD {
		return target.Rate, nil
	}
	return target.Rate.Mul(base.InverseRate), nil
}

// Convert applies the base->target rate to amount and rounds half-up to
// 2 decimals, the precision at which the result mutates a balance.
func (s *RateService) Convert(amount decimal.Decimal, baseCode, targetCode string) (decimal.Decimal, error) {
	rate, err := s.Rate(baseCode, targetCode)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(rate).Round(2), nil
}

// Currency returns the table row for code.
func (s *RateService) Currency(code string) (models.Currency, error) {
	c, ok := s.table.Load().currencies[strings.ToUpper(code)]
	if !ok {
		return models.Currency{}, fmt.Errorf("%w: %s", ErrCurrencyNotFound, code)
	}
	return c, nil
}

// Currencies returns every currency currently in the table.
func (s *RateService) Currencies() []models.Currency {
	table := s.table.Load()
	out := make([]models.Currency, 0, len(table.currencies))
	for _, c := range table.currencies {
		out = append(out, c)
	}
	return out
}

// Bootstrap loads the currency table: local snapshot file first, then the
// Redis cache, then a one-time fetch from the external feed. Fetched data is
// written back to disk and Redis so later restarts skip the feed. Every
// failure is soft; the service keeps whatever table it already has.
func (s *RateService) Bootstrap(ctx context.Context) {
	if data, err := os.ReadFile(s.snapshotPath); err == nil {
		if err := s.Refresh(data); err != nil {
			log.Printf("[RATES] local snapshot invalid, ignoring: %v", err)
		} else {
			log.Printf("[RATES] currency table loaded from %s", s.snapshotPath)
			return
		}
	}

	if s.redis != nil {
		if data, err := s.redis.Get(ctx, rateSnapshotKey).Bytes(); err == nil {
			if err := s.Refresh(data); err == nil {
				log.Println("[RATES] currency table loaded from cache")
				return
			}
		}
	}

	data, err := s.fetchFeed(ctx)
	if err != nil {
		log.Printf("[RATES] feed fetch failed, continuing with current table: %v", err)
		return
	}
	if err := s.Refresh(data); err != nil {
		log.Printf("[RATES] feed snapshot invalid, continuing with current table: %v", err)
		return
	}

	if err := os.WriteFile(s.snapshotPath, data, 0o644); err != nil {
		log.Printf("[RATES] failed to write snapshot file: %v", err)
	}
	if s.redis != nil {
		if err := s.redis.Set(ctx, rateSnapshotKey, data, 0).Err(); err != nil {
			log.Printf("[RATES] failed to cache snapshot: %v", err)
		}
	}
	log.Println("[RATES] currency table loaded from external feed")
}

// Refresh parses a snapshot (JSON object keyed by currency code, floatrates
// USD-pivot layout) and atomically publishes the replacement table. USD is
// always present with rate = inverseRate = 1.
func (s *RateService) Refresh(snapshot []byte) error {
	var raw map[string]models.Currency
	if err := json.Unmarshal(snapshot, &raw); err != nil {
		return fmt.Errorf("parsing currency snapshot: %w", err)
	}

	currencies := make(map[string]models.Currency, len(raw)+1)
	for _, c := range raw {
		code := strings.ToUpper(c.Code)
		if code == "" {
			continue
		}
		c.Code = code
		currencies[code] = c
	}
	currencies[models.USD] = models.Currency{
		Code: models.USD, Name: "U.S. Dollar",
		Rate: decimal.NewFromInt(1), InverseRate: decimal.NewFromInt(1),
	}

	s.table.Store(&rateTable{currencies: currencies})
	return nil
}

func (s *RateService) fetchFeed(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.feedURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("currency feed returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
