package engine

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/sawpanic/tradegate/internal/persistence"
)

// AuditLogger appends activity entries for lifecycle transitions. Writes are
// best-effort: a failed append is warn-logged and never surfaces to the
// caller, and a circuit breaker keeps a dead audit store from being hammered
// after the authoritative state change has already committed.
type AuditLogger struct {
	repo    persistence.ActivityRepo
	breaker *gobreaker.CircuitBreaker
	now     func() time.Time
}

// NewAuditLogger wraps the activity repository with the audit write policy.
func NewAuditLogger(repo persistence.ActivityRepo) *AuditLogger {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "activity-log",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Audit breaker state change")
		},
	})
	return &AuditLogger{
		repo:    repo,
		breaker: breaker,
		now:     time.Now,
	}
}

// WithClock overrides the entry timestamp source.
func (a *AuditLogger) WithClock(now func() time.Time) *AuditLogger {
	a.now = now
	return a
}

// Record appends one immutable audit entry. The detail tree is normalized so
// nested timestamps serialize canonically. Never returns an error.
func (a *AuditLogger) Record(ctx context.Context, tradeID *string, eventType, reason string, detail map[string]interface{}) {
	details, err := json.Marshal(NormalizeDetail(detail))
	if err != nil {
		log.Warn().Err(err).
			Str("event_type", eventType).
			Msg("Failed to serialize activity detail")
		details = nil
	}

	entry := &persistence.ActivityLog{
		ID:        uuid.New().String(),
		TradeID:   tradeID,
		EventType: eventType,
		Reason:    reason,
		Details:   details,
		CreatedAt: a.now(),
	}

	_, err = a.breaker.Execute(func() (interface{}, error) {
		return nil, a.repo.Insert(ctx, entry)
	})
	if err != nil {
		log.Warn().Err(err).
			Str("event_type", eventType).
			Str("reason", reason).
			Msg("Failed to record activity entry")
	}
}
