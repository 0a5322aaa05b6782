package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Currency string

const (
	CurrencyUSD  Currency = "USD"
	CurrencyNGN  Currency = "NGN"
	CurrencyZAR  Currency = "ZAR"
	CurrencyBTC  Currency = "BTC"
	CurrencyETH  Currency = "ETH"
	CurrencyUSDT Currency = "USDT"
)

var Currencies = []Currency{
	CurrencyUSD, CurrencyNGN, CurrencyZAR,
	CurrencyBTC, CurrencyETH, CurrencyUSDT,
}

func (c Currency) IsValid() bool {
	switch c {
	case CurrencyUSD, CurrencyNGN, CurrencyZAR, CurrencyBTC, CurrencyETH, CurrencyUSDT:
		return true
	}
	return false
}

func (c Currency) IsCrypto() bool {
	return c == CurrencyBTC || c == CurrencyETH || c == CurrencyUSDT
}

// Scale is the number of fractional digits an amount in c may carry.
func (c Currency) Scale() int32 {
	if c.IsCrypto() {
		return 8
	}
	return 2
}

func CurrencyList() string {
	names := make([]string, len(Currencies))
	for i, c := range Currencies {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

type CryptoType string

const (
	CryptoBTC  CryptoType = "BTC"
	CryptoETH  CryptoType = "ETH"
	CryptoUSDT CryptoType = "USDT"
	CryptoBNB  CryptoType = "BNB"
	CryptoADA  CryptoType = "ADA"
	CryptoDOT  CryptoType = "DOT"
)

func (c CryptoType) IsValid() bool {
	switch c {
	case CryptoBTC, CryptoETH, CryptoUSDT, CryptoBNB, CryptoADA, CryptoDOT:
		return true
	}
	return false
}

// ParseAmount parses a caller supplied decimal string and checks it is a
// positive amount representable in the given currency.
func ParseAmount(s string, c Currency) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("ParseAmount: %w", ErrInvalidAmount)
	}
	amt, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ParseAmount: %q: %w", s, ErrInvalidAmount)
	}
	if err := ValidateAmount(amt, c); err != nil {
		return decimal.Zero, fmt.Errorf("ParseAmount: %w", err)
	}
	return amt, nil
}

func ValidateAmount(amt decimal.Decimal, c Currency) error {
	if !amt.IsPositive() {
		return ErrInvalidAmount
	}
	if !amt.Equal(amt.Truncate(c.Scale())) {
		return fmt.Errorf("more than %d decimal places for %s: %w", c.Scale(), c, ErrInvalidAmount)
	}
	return nil
}
