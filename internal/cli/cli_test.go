package cli

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/okane-project/ledgerkit/internal/syntax"
)

func mustDate(t *testing.T, s string) syntax.Date {
	t.Helper()
	d, err := syntax.ParseDate(s)
	assert.NoError(t, err)
	return d
}

func TestEvalOptionsValidateRejectsCurrentWithEnd(t *testing.T) {
	o := EvalOptions{Current: true, End: "2024-01-01"}
	assert.Error(t, o.Validate())
}

func TestEvalOptionsValidateAllowsCurrentAlone(t *testing.T) {
	o := EvalOptions{Current: true}
	assert.NoError(t, o.Validate())
}

func TestEvalOptionsDateRangeWithoutFlagsLeavesBothNil(t *testing.T) {
	o := EvalOptions{Today: "2024/06/15"}
	start, end, err := o.dateRange()
	assert.NoError(t, err)
	assert.True(t, start == nil)
	assert.True(t, end == nil)
}

func TestEvalOptionsDateRangeCurrentSetsEndToTomorrow(t *testing.T) {
	o := EvalOptions{Today: "2024/06/15", Current: true}
	_, end, err := o.dateRange()
	assert.NoError(t, err)
	assert.Equal(t, "2024/06/16", end.String())
}

func TestEvalOptionsDateRangeParsesStartAndEnd(t *testing.T) {
	o := EvalOptions{Start: "2024/01/01", End: "2024/02/01"}
	start, end, err := o.dateRange()
	assert.NoError(t, err)
	assert.Equal(t, "2024/01/01", start.String())
	assert.Equal(t, "2024/02/01", end.String())
}

func TestEvalOptionsPolicyForHistoricalAcceptsAnyDate(t *testing.T) {
	o := EvalOptions{Historical: true}
	policyFor, err := o.policyFor()
	assert.NoError(t, err)

	_ = policyFor(mustDate(t, "2024/01/01"))
	_ = policyFor(mustDate(t, "2024/06/01"))
}

func TestEvalOptionsPolicyForFixedCutoffWithoutHistorical(t *testing.T) {
	o := EvalOptions{Today: "2024/06/15"}
	policyFor, err := o.policyFor()
	assert.NoError(t, err)

	// Ignores its argument: both calls resolve to the same --today cutoff.
	p1 := policyFor(mustDate(t, "2024/01/01"))
	p2 := policyFor(mustDate(t, "2024/12/01"))
	assert.Equal(t, p1, p2)
}

func TestInvalidFlagErrorMessage(t *testing.T) {
	err := &InvalidFlagError{Reason: "bad combo"}
	assert.Equal(t, "invalid flag: bad combo", err.Error())
}
