// =============================
// File: internal/dex/pumpfun/price.go
// =============================
package pumpfun

import (
	"math/big"

	"github.com/shopspring/decimal"
)

const (
	// SolDecimals is the lamport scale of SOL.
	SolDecimals = 9

	// uiDecimals is the token precision the pump.fun UI applies its x10 display factor to.
	// TODO: confirm where the x10 factor comes from before relying on it outside display.
	uiDecimals = 6

	// priceScale bounds the fractional digits of divisions.
	priceScale = 24
)

var uiDisplayFactor = decimal.NewFromInt(10)

// uint64ToDecimal keeps the full u64 range, which decimal.NewFromInt would overflow.
func uint64ToDecimal(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}

// SolAmount converts lamports into SOL.
func SolAmount(lamports uint64) decimal.Decimal {
	return uint64ToDecimal(lamports).Shift(-SolDecimals)
}

// TokenAmount converts a raw token amount into whole tokens.
func TokenAmount(raw uint64, decimals uint8) decimal.Decimal {
	return uint64ToDecimal(raw).Shift(-int32(decimals))
}

// CalculatePrice returns the display price of one token in SOL derived from the virtual reserves.
// A zero token reserve yields zero.
func CalculatePrice(virtualSolReserves, virtualTokenReserves uint64, decimals uint8) decimal.Decimal {
	tokenAmount := TokenAmount(virtualTokenReserves, decimals)
	if tokenAmount.IsZero() {
		return decimal.Zero
	}

	price := SolAmount(virtualSolReserves).DivRound(tokenAmount, priceScale)
	if decimals == uiDecimals {
		price = price.Mul(uiDisplayFactor)
	}
	return price
}

// CurvePrice prices a decoded bonding curve.
func CurvePrice(account *BondingCurveAccount, decimals uint8) decimal.Decimal {
	if account == nil {
		return decimal.Zero
	}
	return CalculatePrice(account.VirtualSolReserves, account.VirtualTokenReserves, decimals)
}

// MarketCap returns the fully diluted market cap in SOL at the current display price.
func MarketCap(account *BondingCurveAccount, decimals uint8) decimal.Decimal {
	if account == nil {
		return decimal.Zero
	}
	return CurvePrice(account, decimals).Mul(TokenAmount(account.TokenTotalSupply, decimals))
}
