package valueexpr_test

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"github.com/okane-project/ledgerkit/internal/valueexpr"
)

func TestEvaluateBareNumber(t *testing.T) {
	v, err := valueexpr.Evaluate("-3.5")
	assert.NoError(t, err)
	assert.True(t, v.IsNumber())
	assert.Equal(t, "-3.5", v.Number().String())
}

func TestEvaluateParenthesizedArithmetic(t *testing.T) {
	v, err := valueexpr.Evaluate("(100 + 50)")
	assert.NoError(t, err)
	assert.True(t, v.IsNumber())
	assert.Equal(t, "150", v.Number().String())
}

func TestEvaluateTaggedAmount(t *testing.T) {
	v, err := valueexpr.Evaluate("(100 + 50) USD")
	assert.NoError(t, err)
	c, amount, ok := v.Single()
	assert.True(t, ok)
	assert.Equal(t, "USD", c)
	assert.Equal(t, "150", amount.String())
}

func TestEvaluateSameCommoditySum(t *testing.T) {
	v, err := valueexpr.Evaluate("10 HOOL + 2 HOOL")
	assert.NoError(t, err)
	c, amount, ok := v.Single()
	assert.True(t, ok)
	assert.Equal(t, "HOOL", c)
	assert.Equal(t, "12", amount.String())
}

func TestEvaluateDifferentCommoditiesProducesLegs(t *testing.T) {
	v, err := valueexpr.Evaluate("10 USD + 5 EUR")
	assert.NoError(t, err)
	assert.False(t, v.IsNumber())
	assert.Equal(t, 2, len(v.Legs()))
}

func TestEvaluateScalesTaggedAmount(t *testing.T) {
	v, err := valueexpr.Evaluate("10 HOOL * 2")
	assert.NoError(t, err)
	c, amount, ok := v.Single()
	assert.True(t, ok)
	assert.Equal(t, "HOOL", c)
	assert.Equal(t, "20", amount.String())
}

func TestEvaluateDivisionByZero(t *testing.T) {
	_, err := valueexpr.Evaluate("10 / 0")
	assert.Error(t, err)
}

func TestEvaluateRejectsMultiplyingTwoAmounts(t *testing.T) {
	_, err := valueexpr.Evaluate("10 USD * 5 EUR")
	assert.Error(t, err)
}

func TestEvaluateRejectsMixingNumberAndAmount(t *testing.T) {
	_, err := valueexpr.Evaluate("10 + 5 USD")
	assert.Error(t, err)
}

func TestEvaluateZeroNumberCoercesToEmptyAmount(t *testing.T) {
	v, err := valueexpr.Evaluate("10 USD + 0")
	assert.NoError(t, err)
	commodity, amount, ok := v.Single()
	assert.True(t, ok)
	assert.Equal(t, "USD", commodity)
	assert.True(t, amount.Equal(decimal.RequireFromString("10")))
}

func TestEvaluateZeroNumberCoercesOnLeftSide(t *testing.T) {
	v, err := valueexpr.Evaluate("0 + 10 USD")
	assert.NoError(t, err)
	_, amount, ok := v.Single()
	assert.True(t, ok)
	assert.True(t, amount.Equal(decimal.RequireFromString("10")))
}
