package prices_test

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"github.com/okane-project/ledgerkit/internal/book"
	"github.com/okane-project/ledgerkit/internal/prices"
	"github.com/okane-project/ledgerkit/internal/syntax"
)

func date(t *testing.T, s string) syntax.Date {
	t.Helper()
	d, err := syntax.ParseDate(s)
	assert.NoError(t, err)
	return d
}

func rate(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	assert.NoError(t, err)
	return d
}

func TestConvertSameCommodityIsIdentity(t *testing.T) {
	r := prices.NewBuilder().Freeze()
	out, err := r.Convert(prices.Amount{Value: rate(t, "10.00"), Commodity: "USD"}, "USD", prices.Historical(date(t, "2024/01/01")))
	assert.NoError(t, err)
	assert.True(t, out.Value.Equal(rate(t, "10.00")))
}

func TestConvertDirectEdge(t *testing.T) {
	b := prices.NewBuilder()
	b.AddEvents(
		book.PriceEvent{Date: date(t, "2024/01/01"), From: "USD", To: "EUR", Rate: rate(t, "0.90")},
		book.PriceEvent{Date: date(t, "2024/01/01"), From: "EUR", To: "USD", Rate: rate(t, "1.1111111111")},
	)
	r := b.Freeze()
	out, err := r.Convert(prices.Amount{Value: rate(t, "100.00"), Commodity: "USD"}, "EUR", prices.Historical(date(t, "2024/06/01")))
	assert.NoError(t, err)
	assert.True(t, out.Value.Equal(rate(t, "90.00")))
	assert.Equal(t, "EUR", out.Commodity)
}

func TestConvertForwardFillsToMostRecentEventOnOrBeforeDate(t *testing.T) {
	b := prices.NewBuilder()
	b.AddEvents(
		book.PriceEvent{Date: date(t, "2024/01/01"), From: "USD", To: "EUR", Rate: rate(t, "0.90")},
		book.PriceEvent{Date: date(t, "2024/03/01"), From: "USD", To: "EUR", Rate: rate(t, "0.95")},
	)
	r := b.Freeze()

	out, err := r.Convert(prices.Amount{Value: rate(t, "10.00"), Commodity: "USD"}, "EUR", prices.Historical(date(t, "2024/02/01")))
	assert.NoError(t, err)
	assert.True(t, out.Value.Equal(rate(t, "9.00")))

	out, err = r.Convert(prices.Amount{Value: rate(t, "10.00"), Commodity: "USD"}, "EUR", prices.Historical(date(t, "2024/12/31")))
	assert.NoError(t, err)
	assert.True(t, out.Value.Equal(rate(t, "9.50")))
}

func TestConvertMultiHopThroughIntermediateCommodity(t *testing.T) {
	b := prices.NewBuilder()
	b.AddEvents(
		book.PriceEvent{Date: date(t, "2024/01/01"), From: "HOOL", To: "USD", Rate: rate(t, "500.00")},
		book.PriceEvent{Date: date(t, "2024/01/01"), From: "USD", To: "EUR", Rate: rate(t, "0.90")},
	)
	r := b.Freeze()
	out, err := r.Convert(prices.Amount{Value: rate(t, "2"), Commodity: "HOOL"}, "EUR", prices.Historical(date(t, "2024/06/01")))
	assert.NoError(t, err)
	assert.True(t, out.Value.Equal(rate(t, "900.00")))
}

func TestConvertNoPathErrors(t *testing.T) {
	b := prices.NewBuilder()
	b.AddEvents(book.PriceEvent{Date: date(t, "2024/01/01"), From: "USD", To: "EUR", Rate: rate(t, "0.90")})
	r := b.Freeze()
	_, err := r.Convert(prices.Amount{Value: rate(t, "1"), Commodity: "USD"}, "GBP", prices.Historical(date(t, "2024/06/01")))
	assert.Error(t, err)
}

func TestConvertIgnoresEventsAfterCutoffDate(t *testing.T) {
	b := prices.NewBuilder()
	b.AddEvents(book.PriceEvent{Date: date(t, "2024/06/01"), From: "USD", To: "EUR", Rate: rate(t, "0.90")})
	r := b.Freeze()
	_, err := r.Convert(prices.Amount{Value: rate(t, "1"), Commodity: "USD"}, "EUR", prices.Historical(date(t, "2024/01/01")))
	assert.Error(t, err)
}

func TestParseFileAddsBidirectionalEvent(t *testing.T) {
	b := prices.NewBuilder()
	err := b.ParseFile([]byte("P 2024/05/01 HOOL 579.18 USD\n"))
	assert.NoError(t, err)
	r := b.Freeze()

	out, err := r.Convert(prices.Amount{Value: rate(t, "1"), Commodity: "HOOL"}, "USD", prices.Historical(date(t, "2024/06/01")))
	assert.NoError(t, err)
	assert.True(t, out.Value.Equal(rate(t, "579.18")))

	out, err = r.Convert(prices.Amount{Value: rate(t, "579.18"), Commodity: "USD"}, "HOOL", prices.Historical(date(t, "2024/06/01")))
	assert.NoError(t, err)
	diff := out.Value.Sub(rate(t, "1")).Abs()
	assert.True(t, diff.LessThan(rate(t, "0.0000001"))) // inverse rate is computed via division, not exact
}

func TestParseFileRejectsZeroRate(t *testing.T) {
	b := prices.NewBuilder()
	err := b.ParseFile([]byte("P 2024/05/01 HOOL 0 USD\n"))
	assert.Error(t, err)
}
