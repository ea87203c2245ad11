package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/tradegate/internal/domain"
)

func TestObserveGate_CountsByOutcome(t *testing.T) {
	reg := NewRegistry()

	reg.ObserveGate(3, false)
	reg.ObserveGate(3, false)
	reg.ObserveGate(3, true)

	assert.Equal(t, 2.0, testutil.ToFloat64(reg.GateEvaluations.WithLabelValues("3", "fail")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.GateEvaluations.WithLabelValues("3", "pass")))
}

func TestTradeLifecycleCounters(t *testing.T) {
	reg := NewRegistry()

	reg.ObserveTradeOpened(domain.ModeReal)
	reg.ObserveTradeOpened(domain.ModePaper)
	reg.ObserveTradeClosed(domain.ModeReal, 100.0)

	assert.Equal(t, 1.0, testutil.ToFloat64(reg.TradesOpened.WithLabelValues("real")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.TradesOpened.WithLabelValues("paper")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.TradesClosed.WithLabelValues("real")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.OpenTrades))
}

func TestObserveDecision(t *testing.T) {
	reg := NewRegistry()

	reg.ObserveDecision(true)
	reg.ObserveRejection()
	reg.ObserveRejection()

	assert.Equal(t, 1.0, testutil.ToFloat64(reg.SignalDecisions.WithLabelValues("admitted")))
	assert.Equal(t, 2.0, testutil.ToFloat64(reg.SignalDecisions.WithLabelValues("rejected")))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	reg := NewRegistry()
	reg.ObserveHTTP("/v1/trades", "POST", 201, 5*time.Millisecond)

	srv := httptest.NewServer(reg.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	buf := make([]byte, 1<<20)
	n, _ := resp.Body.Read(buf)
	body := string(buf[:n])
	assert.Contains(t, body, "tradegate_http_request_duration_seconds")
}
