package strategies

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecisionJSONCarriesAction(t *testing.T) {
	t.Parallel()

	d := Decision{Symbol: "AAPL", Action: Sell, Rule: "strong overbought", Confidence: 0.9, Quantity: 5, Fraction: 0.5}
	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"action":"SELL"`)

	var got Decision
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, d, got)

	data, err = json.Marshal(Decision{Symbol: "MSFT"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"action":"HOLD"`)
}

func TestSignalUnmarshalText(t *testing.T) {
	t.Parallel()

	var s Signal
	require.NoError(t, s.UnmarshalText([]byte("BUY")))
	assert.Equal(t, Buy, s)

	assert.Error(t, s.UnmarshalText([]byte("SHORT")))
}
