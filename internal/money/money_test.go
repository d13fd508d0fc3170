package money

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromDecimal(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Amount
		wantErr error
	}{
		{name: "whole", in: "300", want: 30000},
		{name: "two places", in: "12.34", want: 1234},
		{name: "one place", in: "0.5", want: 50},
		{name: "negative", in: "-7.01", want: -701},
		{name: "trailing zeros are fine", in: "1.2500", want: 125},
		{name: "sub-paisa rejected", in: "10.005", wantErr: ErrPrecision},
		{name: "too large", in: "1e30", wantErr: ErrOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromDecimal(decimal.RequireFromString(tt.in), INR)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromDecimal_UnknownCurrency(t *testing.T) {
	_, err := FromDecimal(decimal.NewFromInt(1), Currency("XYZ"))
	require.ErrorIs(t, err, ErrUnknownCurrency)
}

func TestAmountDecimalRoundTrip(t *testing.T) {
	for _, a := range []Amount{0, 1, 99, 100, 12345, -501} {
		back, err := FromDecimal(a.Decimal(USD), USD)
		require.NoError(t, err)
		assert.Equal(t, a, back)
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "INR 12.50", Amount(1250).Format(INR))
	assert.Equal(t, "USD 0.01", Amount(1).Format(USD))
	assert.Equal(t, "EUR -3.00", Amount(-300).Format(EUR))
}

func TestParseCurrency(t *testing.T) {
	c, err := ParseCurrency(" gbp ")
	require.NoError(t, err)
	assert.Equal(t, GBP, c)

	_, err = ParseCurrency("JPY")
	require.ErrorIs(t, err, ErrUnknownCurrency)
}

func TestAdd(t *testing.T) {
	sum, err := Add(40, 2)
	require.NoError(t, err)
	assert.Equal(t, Amount(42), sum)

	_, err = Add(math.MaxInt64, 1)
	require.ErrorIs(t, err, ErrOverflow)

	_, err = Add(math.MinInt64, -1)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestSum(t *testing.T) {
	total, err := Sum(34, 33, 33)
	require.NoError(t, err)
	assert.Equal(t, Amount(100), total)

	_, err = Sum(math.MaxInt64-1, 1, 1)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestPercentFromDecimal(t *testing.T) {
	bp, err := PercentFromDecimal(decimal.RequireFromString("33.33"))
	require.NoError(t, err)
	assert.Equal(t, BasisPoints(3333), bp)

	bp, err = PercentFromDecimal(decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.Equal(t, FullPercent, bp)

	_, err = PercentFromDecimal(decimal.RequireFromString("33.333"))
	require.ErrorIs(t, err, ErrPrecision)

	assert.True(t, BasisPoints(2550).Decimal().Equal(decimal.RequireFromString("25.5")))
}
