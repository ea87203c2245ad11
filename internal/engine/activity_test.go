package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/tradegate/internal/persistence"
)

type flakyActivityRepo struct {
	failWith error
	calls    int
	entries  []*persistence.ActivityLog
}

func (r *flakyActivityRepo) Insert(ctx context.Context, entry *persistence.ActivityLog) error {
	r.calls++
	if r.failWith != nil {
		return r.failWith
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *flakyActivityRepo) ListByTrade(ctx context.Context, tradeID string, limit int) ([]persistence.ActivityLog, error) {
	return nil, nil
}

func TestRecord_WritesNormalizedEntry(t *testing.T) {
	repo := &flakyActivityRepo{}
	logger := NewAuditLogger(repo).WithClock(func() time.Time { return testNow })

	tradeID := "trade-1"
	logger.Record(context.Background(), &tradeID, persistence.EventExecuted, "Trade", map[string]interface{}{
		"opened_at": testNow,
	})

	require.Len(t, repo.entries, 1)
	entry := repo.entries[0]
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, &tradeID, entry.TradeID)
	assert.Equal(t, persistence.EventExecuted, entry.EventType)
	assert.Equal(t, testNow, entry.CreatedAt)
	assert.JSONEq(t, `{"opened_at":"2025-06-02T15:30:00Z"}`, string(entry.Details))
}

func TestRecord_SwallowsRepoFailure(t *testing.T) {
	repo := &flakyActivityRepo{failWith: errors.New("audit store unreachable")}
	logger := NewAuditLogger(repo).WithClock(func() time.Time { return testNow })

	// Must not panic or surface the error.
	logger.Record(context.Background(), nil, persistence.EventRejected, "gates failed", nil)
	assert.Equal(t, 1, repo.calls)
}

func TestRecord_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	repo := &flakyActivityRepo{failWith: errors.New("audit store unreachable")}
	logger := NewAuditLogger(repo).WithClock(func() time.Time { return testNow })

	for i := 0; i < 10; i++ {
		logger.Record(context.Background(), nil, persistence.EventRejected, "gates failed", nil)
	}

	// After five consecutive failures the breaker opens and stops calling
	// through, shielding the repository from the remaining attempts.
	assert.Equal(t, 5, repo.calls)
}
