package pumpfun

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCalculatePrice(t *testing.T) {
	tests := []struct {
		name     string
		sol      uint64
		tokens   uint64
		decimals uint8
		want     string
	}{
		{"six decimals applies display factor", 2_000_000_000, 1_000_000_000_000, 6, "0.00002"},
		{"nine decimals", 2_000_000_000, 1_000_000_000_000, 9, "0.002"},
		{"zero decimals", 1_000_000_000, 4, 0, "0.25"},
		{"zero token reserves", 30_000_000_000, 0, 6, "0"},
		{"zero token reserves other decimals", 5, 0, 9, "0"},
		{"zero sol reserves", 0, 1_000_000, 6, "0"},
		{"fresh curve", 30_000_000_000, 1_073_000_000_000_000, 6, "0.00000027958993476234856"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculatePrice(tt.sol, tt.tokens, tt.decimals)
			want := decimal.RequireFromString(tt.want)
			assert.True(t, want.Equal(got), "want %s, got %s", want, got)
		})
	}
}

func TestCalculatePriceDisplayFactorOnlyForSixDecimals(t *testing.T) {
	for decimals := uint8(0); decimals <= 12; decimals++ {
		if decimals == 6 {
			continue
		}
		raw := SolAmount(5_000_000_000).DivRound(TokenAmount(2_000_000_000, decimals), priceScale)
		got := CalculatePrice(5_000_000_000, 2_000_000_000, decimals)
		assert.True(t, raw.Equal(got), "decimals %d: want %s, got %s", decimals, raw, got)
	}
}

func TestCalculatePriceIsStable(t *testing.T) {
	first := CalculatePrice(31_234_567_891, 1_021_987_654_321_000, 6)
	for i := 0; i < 100; i++ {
		assert.True(t, first.Equal(CalculatePrice(31_234_567_891, 1_021_987_654_321_000, 6)))
	}
}

func TestCalculatePriceFullRange(t *testing.T) {
	got := CalculatePrice(math.MaxUint64, math.MaxUint64, 9)
	assert.True(t, decimal.NewFromInt(1).Equal(got), "got %s", got)
}

func TestCurvePrice(t *testing.T) {
	account := &BondingCurveAccount{
		VirtualSolReserves:   2_000_000_000,
		VirtualTokenReserves: 1_000_000_000_000,
		TokenTotalSupply:     1_000_000_000_000_000,
	}
	assert.True(t, decimal.RequireFromString("0.00002").Equal(CurvePrice(account, 6)))
	assert.True(t, decimal.NewFromInt(20_000).Equal(MarketCap(account, 6)))
	assert.True(t, CurvePrice(nil, 6).IsZero())
}

func TestAmounts(t *testing.T) {
	assert.Equal(t, "1.5", SolAmount(1_500_000_000).String())
	assert.Equal(t, "0.000001", TokenAmount(1, 6).String())
}
