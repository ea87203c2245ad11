package diag

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/tradegate/internal/domain"
	"github.com/sawpanic/tradegate/internal/signal"
)

// DefaultTTL keeps diagnostics around long enough to debug a rejection
// without serving stale verdicts after market conditions move on.
const DefaultTTL = 15 * time.Minute

// Snapshot is the cached verdict of the most recent evaluation for a symbol.
type Snapshot struct {
	Symbol         string                       `json:"symbol"`
	Admitted       bool                         `json:"admitted"`
	RRRatio        float64                      `json:"rr_ratio"`
	Gates          map[string]domain.GateResult `json:"gates"`
	FailureReasons []string                     `json:"failure_reasons,omitempty"`
	EvaluatedAt    time.Time                    `json:"evaluated_at"`
}

// Recorder stores the latest evaluation per symbol.
type Recorder struct {
	cache Cache
	ttl   time.Duration
}

// NewRecorder builds a Recorder on the given cache. A non-positive ttl uses
// DefaultTTL.
func NewRecorder(cache Cache, ttl time.Duration) *Recorder {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Recorder{cache: cache, ttl: ttl}
}

func cacheKey(symbol string) string { return "eval:last:" + symbol }

// Record caches the verdict. Failures are logged and dropped: diagnostics
// never block the evaluation path.
func (r *Recorder) Record(symbol string, eval signal.Evaluation) {
	snap := Snapshot{
		Symbol:         symbol,
		Admitted:       eval.Admitted,
		RRRatio:        eval.RRRatio,
		Gates:          eval.Report.Map(),
		FailureReasons: eval.Report.FailureReasons(),
		EvaluatedAt:    eval.Report.EvaluatedAt,
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to serialize evaluation snapshot")
		return
	}
	r.cache.Set(cacheKey(symbol), raw, r.ttl)
}

// Last returns the cached verdict for symbol, or false when none is cached
// or the entry expired.
func (r *Recorder) Last(symbol string) (*Snapshot, bool) {
	raw, ok := r.cache.Get(cacheKey(symbol))
	if !ok {
		return nil, false
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("Discarding corrupt evaluation snapshot")
		return nil, false
	}
	return &snap, true
}
