// Package billing computes the signed credit value of token usage.
//
// A transaction's raw token count is converted to credits through a
// per-model rate table. Prompt and completion tokens carry different
// multipliers, and models with prompt caching additionally price cache
// writes and cache reads. Completions abandoned mid-stream are billed at a
// 1.15 surcharge, rounded up.
//
// The same valuation runs in both storage backends so a migrated ledger
// stays consistent with the legacy one.
package billing

import (
	"math"
	"strings"

	"github.com/modelarena/modelarena/pkg/models"
)

// CancelRate is the surcharge multiplier applied to the completion tokens of
// a cancelled (incomplete) generation.
const CancelRate = 1.15

// defaultMultiplier prices tokens of models missing from the rate table.
const defaultMultiplier = 6

// Rate holds the credit multipliers of one model, per token.
type Rate struct {
	Prompt     float64
	Completion float64
}

// CacheRate holds the cache-aware prompt multipliers of one model.
type CacheRate struct {
	Write float64
	Read  float64
}

// tokenRates maps model-name fragments to multipliers. Lookup picks the
// longest fragment contained in the model name, so "claude-3-5-sonnet-latest"
// resolves through "claude-3-5-sonnet" rather than "claude".
var tokenRates = map[string]Rate{
	"gpt-4o":            {Prompt: 2.5, Completion: 10},
	"gpt-4o-mini":       {Prompt: 0.15, Completion: 0.6},
	"gpt-4-turbo":       {Prompt: 10, Completion: 30},
	"gpt-3.5-turbo":     {Prompt: 0.5, Completion: 1.5},
	"o1":                {Prompt: 15, Completion: 60},
	"o1-mini":           {Prompt: 1.1, Completion: 4.4},
	"claude-3-5-sonnet": {Prompt: 3, Completion: 15},
	"claude-3-5-haiku":  {Prompt: 0.8, Completion: 4},
	"claude-3-opus":     {Prompt: 15, Completion: 75},
	"claude-3-haiku":    {Prompt: 0.25, Completion: 1.25},
	"claude":            {Prompt: 8, Completion: 24},
	"gemini-1.5-pro":    {Prompt: 1.25, Completion: 5},
	"gemini-1.5-flash":  {Prompt: 0.075, Completion: 0.3},
	"gemini":            {Prompt: 0.5, Completion: 1.5},
	"mistral":           {Prompt: 2, Completion: 6},
	"deepseek":          {Prompt: 0.27, Completion: 1.1},
}

// cacheRates maps model-name fragments to cache-aware prompt multipliers.
// Models absent here bill cache traffic at the plain prompt rate.
var cacheRates = map[string]CacheRate{
	"claude-3-5-sonnet": {Write: 3.75, Read: 0.3},
	"claude-3-5-haiku":  {Write: 1, Read: 0.08},
	"claude-3-opus":     {Write: 18.75, Read: 1.5},
	"claude-3-haiku":    {Write: 0.3, Read: 0.03},
	"deepseek":          {Write: 0.27, Read: 0.07},
}

// rateKey returns the longest rate-table fragment contained in model.
func rateKey(model string) (string, bool) {
	model = strings.ToLower(model)
	best := ""
	for key := range tokenRates {
		if strings.Contains(model, key) && len(key) > len(best) {
			best = key
		}
	}
	return best, best != ""
}

// Multiplier returns the credit multiplier for a token of the given type.
func Multiplier(model string, tokenType models.TokenType) float64 {
	key, ok := rateKey(model)
	if !ok {
		return defaultMultiplier
	}
	rate := tokenRates[key]
	if tokenType == models.TokenTypeCompletion {
		return rate.Completion
	}
	return rate.Prompt
}

// CacheMultipliers returns the cache write and read multipliers for model,
// falling back to the plain prompt multiplier when the model has no cache
// pricing.
func CacheMultipliers(model string) CacheRate {
	prompt := Multiplier(model, models.TokenTypePrompt)
	key, ok := rateKey(model)
	if !ok {
		return CacheRate{Write: prompt, Read: prompt}
	}
	cr, ok := cacheRates[key]
	if !ok {
		return CacheRate{Write: prompt, Read: prompt}
	}
	return cr
}

// Valuation is the priced form of a transaction: the signed credit value to
// apply to the balance, the effective rate, and the normalized raw amount.
type Valuation struct {
	TokenValue float64
	Rate       float64
	RawAmount  int64
}

// ValueTokens prices a plain transaction. RawAmount keeps its sign (negative
// for spend); the value is rawAmount times the model's multiplier. A
// completion cancelled mid-stream ("incomplete" context) is surcharged by
// CancelRate and rounded up.
func ValueTokens(model string, tokenType models.TokenType, txnContext string, rawAmount int64) Valuation {
	if tokenType == "" {
		return Valuation{TokenValue: float64(rawAmount), Rate: 1, RawAmount: rawAmount}
	}

	multiplier := math.Abs(Multiplier(model, tokenType))
	v := Valuation{
		TokenValue: float64(rawAmount) * multiplier,
		Rate:       multiplier,
		RawAmount:  rawAmount,
	}

	if tokenType == models.TokenTypeCompletion && txnContext == models.ContextIncomplete {
		v.TokenValue = math.Ceil(v.TokenValue * CancelRate)
		v.Rate *= CancelRate
	}
	return v
}

// ValueStructuredTokens prices a cache-aware transaction. Prompt entries
// split the raw count into fresh input, cache writes, and cache reads, each
// billed at its own multiplier; the effective rate is the token-weighted
// average. Completion entries degrade to plain pricing. The resulting value
// is always a spend (negative).
func ValueStructuredTokens(model string, tokenType models.TokenType, txnContext string, rawAmount, input, write, read int64) Valuation {
	if tokenType == "" {
		return Valuation{TokenValue: float64(rawAmount), Rate: 1, RawAmount: rawAmount}
	}

	var v Valuation
	switch tokenType {
	case models.TokenTypePrompt:
		inputMult := Multiplier(model, models.TokenTypePrompt)
		cache := CacheMultipliers(model)

		absInput := math.Abs(float64(input))
		absWrite := math.Abs(float64(write))
		absRead := math.Abs(float64(read))
		total := absInput + absWrite + absRead

		if total > 0 {
			v.Rate = (math.Abs(inputMult*absInput) + math.Abs(cache.Write*absWrite) + math.Abs(cache.Read*absRead)) / total
		} else {
			v.Rate = math.Abs(inputMult)
		}
		v.TokenValue = -(absInput*inputMult + absWrite*cache.Write + absRead*cache.Read)
		v.RawAmount = -int64(total)

	case models.TokenTypeCompletion:
		multiplier := Multiplier(model, models.TokenTypeCompletion)
		v.Rate = math.Abs(multiplier)
		v.TokenValue = -math.Abs(float64(rawAmount)) * multiplier
		v.RawAmount = -absInt64(rawAmount)
	}

	if tokenType == models.TokenTypeCompletion && txnContext == models.ContextIncomplete {
		v.TokenValue = math.Ceil(v.TokenValue * CancelRate)
		v.Rate *= CancelRate
	}
	return v
}

func absInt64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
