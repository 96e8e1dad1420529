// Package providers implements the per-protocol position sources consumed by
// the portfolio aggregator. Each provider normalizes vendor-specific data
// into portfolio.Position records; upstream failures are returned as errors
// and degraded to empty contributions by the caller.
package providers

import "github.com/shopspring/decimal"

const networkEthereum = "ethereum"

// decFromString parses a subgraph numeric string, treating absent or
// malformed values as zero.
func decFromString(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// parseRay converts an Aave ray-scaled (1e27) rate string to a decimal
// fraction.
func parseRay(s string) decimal.Decimal {
	return decFromString(s).Shift(-27)
}

// parseWad converts a wad-scaled (1e18) value string to a decimal.
func parseWad(s string) decimal.Decimal {
	return decFromString(s).Shift(-18)
}
