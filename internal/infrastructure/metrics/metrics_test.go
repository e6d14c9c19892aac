package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCollector(t *testing.T) {
	c := NewCollector("")
	require.NotNil(t, c)
	assert.NotNil(t, c.Registry())
}

func TestCollector_Records(t *testing.T) {
	c := NewCollector("test")

	c.RecordValidation("target", "READY", 20*time.Millisecond)
	c.RecordValidation("target", "READY", 0)
	c.RecordStale("target")
	c.RecordExecution("SEND", "confirmed")
	c.RecordTransition("SEND", "SUBMITTING")
	c.RecordFlowOpened()
	c.RecordFlowOpened()
	c.RecordFlowClosed()
	c.RecordHistory("sent")
	c.RecordLedgerCall("token_allowance", time.Millisecond, nil)
	c.RecordLedgerCall("token_allowance", time.Millisecond, errors.New("boom"))

	body := scrape(t, c)
	assert.Contains(t, body, `test_validator_checks_total{field="target",phase="READY"} 2`)
	assert.Contains(t, body, `test_validator_stale_total{field="target"} 1`)
	assert.Contains(t, body, "test_executor_flows_open 1")
	assert.Contains(t, body, `test_ledger_calls_total{method="token_allowance",result="error"} 1`)
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordValidation("target", "READY", time.Millisecond)
		c.RecordStale("target")
		c.RecordExecution("SEND", "confirmed")
		c.RecordTransition("SEND", "IDLE")
		c.RecordFlowOpened()
		c.RecordFlowClosed()
		c.RecordHistory("sent")
		c.RecordLedgerCall("x", 0, nil)
	})
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("test")
	c.RecordHistory("claimed")

	assert.True(t, strings.Contains(scrape(t, c), `test_history_entries_total{direction="claimed"} 1`))
}

func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}
