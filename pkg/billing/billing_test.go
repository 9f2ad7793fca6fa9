package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelarena/modelarena/pkg/models"
)

func TestMultiplierLongestFragmentWins(t *testing.T) {
	// "claude-3-5-sonnet-latest" contains both "claude" and
	// "claude-3-5-sonnet"; the longer fragment must win.
	assert.Equal(t, 3.0, Multiplier("claude-3-5-sonnet-latest", models.TokenTypePrompt))
	assert.Equal(t, 15.0, Multiplier("claude-3-5-sonnet-latest", models.TokenTypeCompletion))

	// A bare "claude-2" only matches the generic fragment.
	assert.Equal(t, 8.0, Multiplier("claude-2", models.TokenTypePrompt))
}

func TestMultiplierUnknownModel(t *testing.T) {
	assert.Equal(t, float64(defaultMultiplier), Multiplier("totally-new-model", models.TokenTypePrompt))
	assert.Equal(t, float64(defaultMultiplier), Multiplier("totally-new-model", models.TokenTypeCompletion))
}

func TestMultiplierCaseInsensitive(t *testing.T) {
	assert.Equal(t, 2.5, Multiplier("GPT-4o-2024-08-06", models.TokenTypePrompt))
}

func TestCacheMultipliers(t *testing.T) {
	cr := CacheMultipliers("claude-3-5-sonnet-20241022")
	assert.Equal(t, 3.75, cr.Write)
	assert.Equal(t, 0.3, cr.Read)

	// No cache pricing: both sides fall back to the prompt rate.
	cr = CacheMultipliers("gpt-4o")
	assert.Equal(t, 2.5, cr.Write)
	assert.Equal(t, 2.5, cr.Read)

	cr = CacheMultipliers("unknown-model")
	assert.Equal(t, float64(defaultMultiplier), cr.Write)
	assert.Equal(t, float64(defaultMultiplier), cr.Read)
}

func TestValueTokensPlainSpend(t *testing.T) {
	v := ValueTokens("gpt-4o", models.TokenTypePrompt, models.ContextMessage, -1000)
	assert.Equal(t, -2500.0, v.TokenValue)
	assert.Equal(t, 2.5, v.Rate)
	assert.Equal(t, int64(-1000), v.RawAmount)
}

func TestValueTokensNoTokenType(t *testing.T) {
	// Untyped amounts pass through at rate 1 (manual credits, refunds).
	v := ValueTokens("gpt-4o", "", models.ContextAdmin, 5000)
	assert.Equal(t, 5000.0, v.TokenValue)
	assert.Equal(t, 1.0, v.Rate)
	assert.Equal(t, int64(5000), v.RawAmount)
}

func TestValueTokensIncompleteSurcharge(t *testing.T) {
	// -100 completion tokens at rate 10: -1000 * 1.15 = -1150, ceil keeps it.
	v := ValueTokens("gpt-4o", models.TokenTypeCompletion, models.ContextIncomplete, -100)
	assert.Equal(t, -1150.0, v.TokenValue)
	assert.InDelta(t, 11.5, v.Rate, 1e-9)

	// Ceil on a negative value rounds toward zero: -33 * 1.5 * 1.15 =
	// -56.925, billed as -56.
	v = ValueTokens("gpt-3.5-turbo", models.TokenTypeCompletion, models.ContextIncomplete, -33)
	assert.Equal(t, -56.0, v.TokenValue)
}

func TestValueTokensIncompleteOnlyAffectsCompletion(t *testing.T) {
	v := ValueTokens("gpt-4o", models.TokenTypePrompt, models.ContextIncomplete, -100)
	assert.Equal(t, -250.0, v.TokenValue)
	assert.Equal(t, 2.5, v.Rate)
}

func TestValueStructuredTokensPrompt(t *testing.T) {
	// claude-3-5-sonnet: input 3, cache write 3.75, cache read 0.3.
	v := ValueStructuredTokens("claude-3-5-sonnet", models.TokenTypePrompt, models.ContextMessage, 0, 100, 200, 300)

	expected := -(100*3.0 + 200*3.75 + 300*0.3)
	assert.Equal(t, expected, v.TokenValue)
	assert.Equal(t, int64(-600), v.RawAmount)

	// Effective rate is the token-weighted average.
	assert.InDelta(t, -expected/600.0, v.Rate, 1e-9)
}

func TestValueStructuredTokensPromptSignNormalized(t *testing.T) {
	// Counts arrive negative from some call sites; pricing uses magnitudes
	// and the value is a spend either way.
	pos := ValueStructuredTokens("claude-3-5-sonnet", models.TokenTypePrompt, models.ContextMessage, 0, 100, 200, 300)
	neg := ValueStructuredTokens("claude-3-5-sonnet", models.TokenTypePrompt, models.ContextMessage, 0, -100, -200, -300)
	require.Equal(t, pos, neg)
	assert.Less(t, pos.TokenValue, 0.0)
}

func TestValueStructuredTokensZeroTotal(t *testing.T) {
	v := ValueStructuredTokens("gpt-4o", models.TokenTypePrompt, models.ContextMessage, 0, 0, 0, 0)
	assert.Equal(t, 0.0, v.TokenValue)
	assert.Equal(t, int64(0), v.RawAmount)
	assert.Equal(t, 2.5, v.Rate)
}

func TestValueStructuredTokensCompletion(t *testing.T) {
	v := ValueStructuredTokens("gpt-4o", models.TokenTypeCompletion, models.ContextMessage, 150, 0, 0, 0)
	assert.Equal(t, -1500.0, v.TokenValue)
	assert.Equal(t, int64(-150), v.RawAmount)
	assert.Equal(t, 10.0, v.Rate)
}

func TestValueStructuredTokensIncompleteCompletion(t *testing.T) {
	v := ValueStructuredTokens("gpt-4o", models.TokenTypeCompletion, models.ContextIncomplete, 100, 0, 0, 0)
	assert.Equal(t, -1150.0, v.TokenValue)
	assert.InDelta(t, 11.5, v.Rate, 1e-9)
}
