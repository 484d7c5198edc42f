package cache

import (
	"context"
	"fmt"
)

// Generation versions a family of cached entries. Bumping it makes every
// key built from the old value unreachable, so a write never has to find
// and delete the entries it stales.
type Generation struct {
	cache Cache
	key   string
}

func NewGeneration(c Cache, name string) *Generation {
	return &Generation{cache: c, key: c.GenerateKey("generation", name)}
}

func (g *Generation) Invalidate(ctx context.Context) error {
	if _, err := g.cache.Incr(ctx, g.key); err != nil {
		return fmt.Errorf("cache: bump %s: %w", g.key, err)
	}
	return nil
}

// Key builds a cache key tied to the current generation.
func (g *Generation) Key(ctx context.Context, operation, key string) (string, error) {
	gen, err := g.cache.Get(ctx, g.key)
	if err != nil {
		return "", fmt.Errorf("cache: read %s: %w", g.key, err)
	}
	if gen == "" {
		gen = "0"
	}
	return g.cache.GenerateKey(operation, gen+":"+key), nil
}

func (g *Generation) Cache() Cache { return g.cache }
