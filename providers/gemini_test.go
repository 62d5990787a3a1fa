package providers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEstimateTokens(t *testing.T) {
	require.Equal(t, 0, estimateTokens(""))
	require.Equal(t, 3, estimateTokens("one two three"))
}

func TestTryParseJSON(t *testing.T) {
	parsed, ok := tryParseJSON(`{"a": 1}`)
	require.True(t, ok)
	require.Equal(t, float64(1), parsed["a"])

	_, ok = tryParseJSON("not json")
	require.False(t, ok)
}
