package entity

import (
	"fmt"
	"math/big"
	"strings"
)

// TokenDescriptor maps a token symbol to its mint and decimal precision.
type TokenDescriptor struct {
	Symbol   string `json:"symbol" yaml:"symbol"`
	Mint     string `json:"mint" yaml:"mint"`
	Decimals uint8  `json:"decimals" yaml:"decimals"`
}

// BaseUnits converts a decimal amount such as "0.01" into the token's integer
// base units (amount × 10^Decimals). The conversion is exact: amounts that do
// not land on a whole base unit are rejected instead of rounded.
func (t TokenDescriptor) BaseUnits(amount string) (uint64, error) {
	amount = strings.TrimSpace(amount)
	r, ok := new(big.Rat).SetString(amount)
	if !ok {
		return 0, fmt.Errorf("invalid token amount %q", amount)
	}
	if r.Sign() <= 0 {
		return 0, fmt.Errorf("token amount must be positive, got %q", amount)
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(t.Decimals)), nil)
	r.Mul(r, new(big.Rat).SetInt(scale))
	if !r.IsInt() {
		return 0, fmt.Errorf("amount %s %s is finer than %d decimals", amount, t.Symbol, t.Decimals)
	}

	units := r.Num()
	if !units.IsUint64() {
		return 0, fmt.Errorf("amount %s %s overflows base units", amount, t.Symbol)
	}
	return units.Uint64(), nil
}
