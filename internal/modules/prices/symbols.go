package prices

// Registry maps supported asset symbols to CoinGecko coin IDs. Symbols
// outside the registry are silently dropped by the lookup service.
type Registry struct {
	ids   map[string]string
	order []string
}

// NewRegistry builds a registry from symbol→coin-ID pairs, preserving the
// given order for Symbols().
func NewRegistry(pairs map[string]string, order []string) Registry {
	return Registry{ids: pairs, order: order}
}

// DefaultRegistry returns the supported symbol set: ETH, DAI, USDC.
func DefaultRegistry() Registry {
	return NewRegistry(map[string]string{
		"ETH":  "ethereum",
		"DAI":  "dai",
		"USDC": "usd-coin",
	}, []string{"ETH", "DAI", "USDC"})
}

// Supported reports whether the (already uppercased) symbol is known.
func (r Registry) Supported(symbol string) bool {
	_, ok := r.ids[symbol]
	return ok
}

// ID returns the CoinGecko coin ID for a supported symbol.
func (r Registry) ID(symbol string) (string, bool) {
	id, ok := r.ids[symbol]
	return id, ok
}

// Symbols lists all supported symbols in registration order.
func (r Registry) Symbols() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
