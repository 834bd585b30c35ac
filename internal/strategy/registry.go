package strategy

import (
	"fmt"
	"sort"

	"LumenTrade/internal/domain/models"
	"LumenTrade/internal/domain/repository"
)

// Func is the uniform strategy signature: pure function of parameters and a
// bar window. Every strategy must return a hold verdict, never an error, when
// the window is shorter than what it needs.
type Func func(params models.StrategyParams, bars []models.OHLCVBar) models.StrategyResult

// Registry is a named collection of strategy functions. Registration happens
// once at startup; afterwards the map is read-only, so lookups during the
// loop need no locking.
type Registry struct {
	m map[string]Func
}

// NewRegistry returns a registry preloaded with the built-in strategies.
func NewRegistry() *Registry {
	r := &Registry{m: make(map[string]Func)}
	r.Register("sma_cross", SMACross)
	r.Register("ema_cross", EMACross)
	r.Register("rsi", RSIStrategy)
	r.Register("macd", MACDStrategy)
	r.Register("bollinger", Bollinger)
	return r
}

// Register adds a strategy under name. Panics on duplicates: that is a
// programming error, and registration only ever runs at startup.
func (r *Registry) Register(name string, fn Func) {
	if _, exists := r.m[name]; exists {
		panic(fmt.Sprintf("strategy %q registered twice", name))
	}
	r.m[name] = fn
}

// Get returns the strategy for name or ErrUnknownStrategy.
func (r *Registry) Get(name string) (Func, error) {
	fn, ok := r.m[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", repository.ErrUnknownStrategy, name)
	}
	return fn, nil
}

// Names returns all registered names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.m))
	for n := range r.m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
