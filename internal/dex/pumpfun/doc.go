// Package pumpfun decodes Pump.fun bonding curve accounts and prices them.
//
// This package provides:
// - DecodeBondingCurve(): reads the 81-byte on-chain account layout.
// - CalculatePrice(), CurvePrice(): display price of one token in SOL from the virtual reserves.
// - MarketCap(): fully diluted market cap in SOL at the display price.
//
// Prices are exact decimals (shopspring/decimal). For 6-decimal tokens the
// display price is scaled by 10, matching the Pump.fun web UI.
//
// Usage example:
//
//	account, err := pumpfun.DecodeBondingCurve(data)
//	if err != nil {
//	    return err
//	}
//	price := pumpfun.CurvePrice(account, decimals)
//	fmt.Printf("UI Display Price: %s SOL\n", price.StringFixed(12))
package pumpfun
