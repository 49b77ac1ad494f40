package backend

import (
	"strings"
	"sync"

	"piodex/internal/model"
)

// CatalogIndex holds the fetched token and pool lists and answers
// lookups by address or symbol. Reloads replace the whole snapshot.
type CatalogIndex struct {
	mu        sync.RWMutex
	byAddress map[string]model.Token
	bySymbol  map[string]model.Token
	pools     []model.Pool
}

func NewCatalogIndex() *CatalogIndex {
	return &CatalogIndex{
		byAddress: make(map[string]model.Token),
		bySymbol:  make(map[string]model.Token),
	}
}

// Load replaces the index contents with a fresh snapshot.
func (c *CatalogIndex) Load(tokens []model.Token, pools []model.Pool) {
	byAddress := make(map[string]model.Token, len(tokens))
	bySymbol := make(map[string]model.Token, len(tokens))
	for _, token := range tokens {
		byAddress[strings.ToLower(token.Address)] = token
		bySymbol[strings.ToUpper(token.Symbol)] = token
	}

	c.mu.Lock()
	c.byAddress = byAddress
	c.bySymbol = bySymbol
	c.pools = append(c.pools[:0], pools...)
	c.mu.Unlock()
}

// Token resolves ref as a hex address first, then as a symbol.
func (c *CatalogIndex) Token(ref string) (model.Token, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if token, ok := c.byAddress[strings.ToLower(ref)]; ok {
		return token, true
	}
	token, ok := c.bySymbol[strings.ToUpper(ref)]
	return token, ok
}

// Pools returns the current pool snapshot.
func (c *CatalogIndex) Pools() []model.Pool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.Pool(nil), c.pools...)
}

// PoolFor finds the initialized pool pairing the two token addresses.
func (c *CatalogIndex) PoolFor(tokenA, tokenB string) (model.Pool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, pool := range c.pools {
		if !pool.Initialized() {
			continue
		}
		if _, _, ok := pool.ReservesFor(tokenA); !ok {
			continue
		}
		if other, ok := pool.Other(tokenA); ok && strings.EqualFold(other.Address, tokenB) {
			return pool, true
		}
	}
	return model.Pool{}, false
}

// Route finds a pool path from tokenIn to tokenOut: the direct pair
// when one exists, otherwise a two-hop path through one intermediate
// token. Only initialized pools participate.
func (c *CatalogIndex) Route(tokenIn, tokenOut string) ([]model.Pool, bool) {
	if direct, ok := c.PoolFor(tokenIn, tokenOut); ok {
		return []model.Pool{direct}, true
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, first := range c.pools {
		if !first.Initialized() {
			continue
		}
		mid, ok := first.Other(tokenIn)
		if !ok {
			continue
		}
		for _, second := range c.pools {
			if !second.Initialized() || second.ID == first.ID {
				continue
			}
			end, ok := second.Other(mid.Address)
			if !ok {
				continue
			}
			if strings.EqualFold(end.Address, tokenOut) {
				return []model.Pool{first, second}, true
			}
		}
	}
	return nil, false
}
