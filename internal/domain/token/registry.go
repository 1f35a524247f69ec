// Package token holds the read-only token reference table used by the
// send-token flow.
package token

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"solana-miniapp/internal/domain"
	"solana-miniapp/internal/domain/entity"
)

//go:embed tokens.yaml
var defaultTable []byte

type tableFile struct {
	Tokens []entity.TokenDescriptor `yaml:"tokens"`
}

// Registry is an immutable symbol → descriptor mapping.
type Registry struct {
	bySymbol map[string]entity.TokenDescriptor
	symbols  []string
}

// Default returns the registry built from the embedded table.
func Default() (*Registry, error) {
	return Parse(defaultTable)
}

// Parse builds a registry from a YAML document with a top-level `tokens` list.
func Parse(data []byte) (*Registry, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse token table: %w", err)
	}

	r := &Registry{bySymbol: make(map[string]entity.TokenDescriptor, len(f.Tokens))}
	for _, t := range f.Tokens {
		t.Symbol = strings.ToUpper(strings.TrimSpace(t.Symbol))
		if t.Symbol == "" || t.Mint == "" {
			return nil, fmt.Errorf("token table entry missing symbol or mint: %+v", t)
		}
		if _, dup := r.bySymbol[t.Symbol]; dup {
			return nil, fmt.Errorf("duplicate token symbol %s", t.Symbol)
		}
		r.bySymbol[t.Symbol] = t
		r.symbols = append(r.symbols, t.Symbol)
	}
	sort.Strings(r.symbols)
	return r, nil
}

// Lookup returns the descriptor for symbol.
func (r *Registry) Lookup(symbol string) (entity.TokenDescriptor, error) {
	t, ok := r.bySymbol[strings.ToUpper(strings.TrimSpace(symbol))]
	if !ok {
		return entity.TokenDescriptor{}, fmt.Errorf("%w: %q", domain.ErrUnknownToken, symbol)
	}
	return t, nil
}

// Symbols returns the known symbols in sorted order.
func (r *Registry) Symbols() []string {
	out := make([]string, len(r.symbols))
	copy(out, r.symbols)
	return out
}

// All returns every descriptor ordered by symbol.
func (r *Registry) All() []entity.TokenDescriptor {
	out := make([]entity.TokenDescriptor, 0, len(r.symbols))
	for _, s := range r.symbols {
		out = append(out, r.bySymbol[s])
	}
	return out
}
