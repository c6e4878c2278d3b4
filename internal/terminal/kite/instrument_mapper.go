package kite

import (
	"sync"
)

// instrumentMapper manages the symbol/token/tick-size mapping built from the
// Kite instrument dump
type instrumentMapper struct {
	symbolToToken map[string]uint32
	tokenToSymbol map[uint32]string
	tickSizes     map[string]float64
	mu            sync.RWMutex
}

// newInstrumentMapper creates a new instrument mapper
func newInstrumentMapper() *instrumentMapper {
	return &instrumentMapper{
		symbolToToken: make(map[string]uint32),
		tokenToSymbol: make(map[uint32]string),
		tickSizes:     make(map[string]float64),
	}
}

// add registers a symbol with its token and tick size
func (im *instrumentMapper) add(symbol string, token uint32, tickSize float64) {
	im.mu.Lock()
	defer im.mu.Unlock()

	im.symbolToToken[symbol] = token
	im.tokenToSymbol[token] = symbol
	im.tickSizes[symbol] = tickSize
}

// token retrieves the instrument token for a symbol
func (im *instrumentMapper) token(symbol string) (uint32, bool) {
	im.mu.RLock()
	defer im.mu.RUnlock()

	token, exists := im.symbolToToken[symbol]
	return token, exists
}

// tickSize retrieves the tick size for a symbol
func (im *instrumentMapper) tickSize(symbol string) (float64, bool) {
	im.mu.RLock()
	defer im.mu.RUnlock()

	ts, exists := im.tickSizes[symbol]
	return ts, exists
}

// symbols returns all registered symbol names
func (im *instrumentMapper) symbols() []string {
	im.mu.RLock()
	defer im.mu.RUnlock()

	names := make([]string, 0, len(im.symbolToToken))
	for name := range im.symbolToToken {
		names = append(names, name)
	}

	return names
}

// size returns the number of registered symbols
func (im *instrumentMapper) size() int {
	im.mu.RLock()
	defer im.mu.RUnlock()

	return len(im.symbolToToken)
}

// clear removes all mappings
func (im *instrumentMapper) clear() {
	im.mu.Lock()
	defer im.mu.Unlock()

	im.symbolToToken = make(map[string]uint32)
	im.tokenToSymbol = make(map[uint32]string)
	im.tickSizes = make(map[string]float64)
}
