package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRecords(t *testing.T) {
	t.Parallel()

	r := New()
	r.ObserveTick(20 * time.Millisecond)
	r.ObserveTick(30 * time.Millisecond)
	r.TradeExecuted("BUY", "auto")
	r.TradeExecuted("BUY", "auto")
	r.TradeExecuted("SELL", "manual")
	r.TradeRejected("BUY", "insufficient_funds")
	r.RuleFired("strong oversold")
	r.ProviderError("price")
	r.SymbolError("AAPL")
	r.SetAccount(8500, 10000)
	r.SetRunning(true)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.Ticks))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.Trades.WithLabelValues("BUY", "auto")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Trades.WithLabelValues("SELL", "manual")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.TradeRejections.WithLabelValues("BUY", "insufficient_funds")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.RulesFired.WithLabelValues("strong oversold")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ProviderErrors.WithLabelValues("price")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.SymbolErrors.WithLabelValues("AAPL")))
	assert.Equal(t, 8500.0, testutil.ToFloat64(r.Balance))
	assert.Equal(t, 10000.0, testutil.ToFloat64(r.TotalValue))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Running))

	r.SetRunning(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(r.Running))
}

func TestNilRegistryIsNoop(t *testing.T) {
	t.Parallel()

	var r *Registry
	assert.NotPanics(t, func() {
		r.ObserveTick(time.Second)
		r.TradeExecuted("BUY", "auto")
		r.TradeRejected("BUY", "x")
		r.RuleFired("x")
		r.ProviderError("price")
		r.SymbolError("AAPL")
		r.SetAccount(1, 2)
		r.SetRunning(true)
	})

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 404, rec.Code)
}

func TestHandlerExposesMetrics(t *testing.T) {
	t.Parallel()

	r := New()
	r.TradeExecuted("BUY", "manual")

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `papertrader_trades_total{action="BUY",origin="manual"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
