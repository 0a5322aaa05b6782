package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		currency Currency
		want     string
		wantErr  bool
	}{
		{name: "whole dollars", input: "100", currency: CurrencyUSD, want: "100"},
		{name: "cents", input: "100.25", currency: CurrencyUSD, want: "100.25"},
		{name: "surrounding spaces", input: " 40.00 ", currency: CurrencyUSD, want: "40"},
		{name: "satoshi precision", input: "0.00000001", currency: CurrencyBTC, want: "0.00000001"},
		{name: "too precise for fiat", input: "1.001", currency: CurrencyNGN, wantErr: true},
		{name: "too precise for crypto", input: "0.000000001", currency: CurrencyETH, wantErr: true},
		{name: "zero", input: "0", currency: CurrencyUSD, wantErr: true},
		{name: "negative", input: "-5", currency: CurrencyUSD, wantErr: true},
		{name: "empty", input: "", currency: CurrencyUSD, wantErr: true},
		{name: "not a number", input: "ten", currency: CurrencyUSD, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseAmount(tc.input, tc.currency)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tc.want).Equal(got), "got %s", got)
		})
	}
}

func TestCurrency(t *testing.T) {
	for _, c := range Currencies {
		assert.True(t, c.IsValid(), c)
	}
	assert.False(t, Currency("EUR").IsValid())
	assert.False(t, Currency("usd").IsValid())

	assert.Equal(t, int32(2), CurrencyZAR.Scale())
	assert.Equal(t, int32(8), CurrencyUSDT.Scale())
	assert.True(t, CurrencyBTC.IsCrypto())
	assert.False(t, CurrencyNGN.IsCrypto())
}

func TestProfileContactFor(t *testing.T) {
	phone := "+2348000000000"

	ch, to, ok := (&Profile{Email: "a@b.c", Phone: &phone}).ContactFor()
	require.True(t, ok)
	assert.Equal(t, NotificationChannelEmail, ch)
	assert.Equal(t, "a@b.c", to)

	ch, to, ok = (&Profile{Phone: &phone}).ContactFor()
	require.True(t, ok)
	assert.Equal(t, NotificationChannelSMS, ch)
	assert.Equal(t, phone, to)

	_, _, ok = (&Profile{}).ContactFor()
	assert.False(t, ok)
}
