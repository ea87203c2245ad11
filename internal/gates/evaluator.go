package gates

import (
	"fmt"
	"time"

	"github.com/sawpanic/tradegate/internal/domain"
)

// NumGates is the size of the admission battery.
const NumGates = 9

// Observer receives per-gate outcomes, typically a metrics registry.
type Observer interface {
	ObserveGate(gate int, passed bool)
}

// Report is the full diagnostic from one evaluation. All nine gates are always
// evaluated regardless of earlier failures so callers can explain a rejection
// completely, not just by its first failing reason.
type Report struct {
	Passed      bool                     `json:"passed"`
	Results     [NumGates]domain.GateResult `json:"results"`
	EvaluatedAt time.Time                `json:"evaluated_at"`
}

// Map returns the results keyed "gate_1".."gate_9", the shape stored on
// trades and surfaced to API clients.
func (r Report) Map() map[string]domain.GateResult {
	out := make(map[string]domain.GateResult, NumGates)
	for i, res := range r.Results {
		out[fmt.Sprintf("gate_%d", i+1)] = res
	}
	return out
}

// FailureReasons lists the reasons of every failed gate, in gate order.
func (r Report) FailureReasons() []string {
	var reasons []string
	for _, res := range r.Results {
		if !res.Passed {
			reasons = append(reasons, fmt.Sprintf("Gate %d: %s", res.Gate, res.Reason))
		}
	}
	return reasons
}

// Evaluator runs the nine-gate admission battery. Evaluation is a pure
// function of the snapshot and the configured thresholds; the evaluator holds
// no per-call state and is safe for concurrent use.
type Evaluator struct {
	config   *Config
	observer Observer
	now      func() time.Time
}

// NewEvaluator creates an evaluator. A nil config selects the defaults.
func NewEvaluator(config *Config) *Evaluator {
	if config == nil {
		config = DefaultConfig()
	}
	return &Evaluator{
		config: config,
		now:    time.Now,
	}
}

// WithObserver attaches a per-gate outcome observer.
func (e *Evaluator) WithObserver(obs Observer) *Evaluator {
	e.observer = obs
	return e
}

// WithClock overrides the wall clock used by the freshness gate.
func (e *Evaluator) WithClock(now func() time.Time) *Evaluator {
	e.now = now
	return e
}

// Evaluate runs all nine gates against the snapshot. Missing required fields
// fail their gate with an explanatory reason; nothing here returns an error.
func (e *Evaluator) Evaluate(snap domain.MarketSnapshot) Report {
	report := Report{EvaluatedAt: e.now()}

	report.Results[0] = e.gateQuoteFreshness(snap)
	report.Results[1] = e.gatePriceDeviation(snap)
	report.Results[2] = e.gateLiquidity(snap)
	report.Results[3] = e.gateVolatilityRegime(snap)
	report.Results[4] = e.gateMarketHours(snap)
	report.Results[5] = e.gateRiskReward(snap)
	report.Results[6] = e.gatePortfolioExposure(snap)
	report.Results[7] = e.gateOrderFlowPressure(snap)
	report.Results[8] = e.gateConfidence(snap)

	report.Passed = true
	for _, res := range report.Results {
		if e.observer != nil {
			e.observer.ObserveGate(res.Gate, res.Passed)
		}
		if !res.Passed {
			report.Passed = false
		}
	}
	return report
}
