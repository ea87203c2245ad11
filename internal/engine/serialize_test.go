package engine

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDetail_Timestamps(t *testing.T) {
	ts := time.Date(2025, 6, 2, 15, 30, 0, 123456789, time.FixedZone("EST", -5*3600))

	got := NormalizeDetail(ts)
	assert.Equal(t, "2025-06-02T20:30:00.123456789Z", got)

	got = NormalizeDetail(&ts)
	assert.Equal(t, "2025-06-02T20:30:00.123456789Z", got)

	var nilTS *time.Time
	assert.Nil(t, NormalizeDetail(nilTS))
}

func TestNormalizeDetail_NestedStructures(t *testing.T) {
	ts := time.Date(2025, 6, 2, 15, 30, 0, 0, time.UTC)

	detail := map[string]interface{}{
		"symbol":    "AAPL",
		"opened_at": ts,
		"levels": map[string]interface{}{
			"entry":      100.0,
			"checked_at": &ts,
		},
		"fills": []interface{}{
			map[string]interface{}{"at": ts, "qty": 10},
			"manual",
		},
	}

	got, ok := NormalizeDetail(detail).(map[string]interface{})
	require.True(t, ok)

	assert.Equal(t, "AAPL", got["symbol"])
	assert.Equal(t, "2025-06-02T15:30:00Z", got["opened_at"])

	levels := got["levels"].(map[string]interface{})
	assert.Equal(t, 100.0, levels["entry"])
	assert.Equal(t, "2025-06-02T15:30:00Z", levels["checked_at"])

	fills := got["fills"].([]interface{})
	first := fills[0].(map[string]interface{})
	assert.Equal(t, "2025-06-02T15:30:00Z", first["at"])
	assert.Equal(t, "manual", fills[1])
}

func TestNormalizeDetail_MarshalsCleanly(t *testing.T) {
	detail := map[string]interface{}{
		"closed_at": time.Date(2025, 6, 2, 15, 30, 0, 0, time.UTC),
		"pnl":       100.0,
		"tags":      []interface{}{"swing", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
	}

	raw, err := json.Marshal(NormalizeDetail(detail))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"closed_at": "2025-06-02T15:30:00Z",
		"pnl": 100,
		"tags": ["swing", "2025-06-01T00:00:00Z"]
	}`, string(raw))
}
