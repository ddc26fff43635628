package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
)

const auditTrailKey = "ledger_audit_trail"

type AuditEvent struct {
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"`
	EntryID   string    `json:"entry_id,omitempty"`
	Account   string    `json:"account,omitempty"`
	Card      string    `json:"card,omitempty"`
	Amount    string    `json:"amount,omitempty"`
	Status    string    `json:"status"`
	Details   any       `json:"details,omitempty"`
}

// AuditLogger emits one JSON line per money movement. When a Redis client is
// available the event is also pushed onto a trail list for downstream
// consumers; Redis being down never blocks a posting.
type AuditLogger struct {
	redis *redis.Client
}

func NewAuditLogger(rdb *redis.Client) *AuditLogger {
	return &AuditLogger{redis: rdb}
}

func (a *AuditLogger) LogTransfer(entryID, fromAccount, toAccount string, amount decimal.Decimal, status string) {
	a.log(AuditEvent{
		Timestamp: time.Now(),
		EventType: "TRANSFER",
		EntryID:   entryID,
		Account:   fromAccount,
		Amount:    amount.StringFixed(2),
		Status:    status,
		Details:   map[string]string{"to_account": toAccount},
	})
}

func (a *AuditLogger) LogCardEvent(eventType, entryID, cardNumber string, amount decimal.Decimal, status string) {
	a.log(AuditEvent{
		Timestamp: time.Now(),
		EventType: eventType,
		EntryID:   entryID,
		Card:      cardNumber,
		Amount:    amount.StringFixed(2),
		Status:    status,
	})
}

func (a *AuditLogger) LogBillingRun(period string, cardsProcessed, cardsSkipped int) {
	a.log(AuditEvent{
		Timestamp: time.Now(),
		EventType: "BILLING_CYCLE",
		Status:    "SUCCESS",
		Details: map[string]any{
			"period":    period,
			"processed": cardsProcessed,
			"skipped":   cardsSkipped,
		},
	})
}

func (a *AuditLogger) LogError(entryID, instrument string, err error) {
	a.log(AuditEvent{
		Timestamp: time.Now(),
		EventType: "ERROR",
		EntryID:   entryID,
		Account:   instrument,
		Status:    "FAILED",
		Details:   map[string]string{"error": err.Error()},
	})
}

func (a *AuditLogger) log(event AuditEvent) {
	data, _ := json.Marshal(event)
	log.Printf("AUDIT: %s", string(data))

	if a.redis != nil {
		if err := a.redis.RPush(context.Background(), auditTrailKey, data).Err(); err != nil {
			log.Printf("[AUDIT] failed to push event to trail: %v", err)
		}
	}
}
