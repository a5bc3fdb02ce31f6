// Package cache provides a small generic in-memory TTL cache with LRU
// eviction and deduplicated loading.
//
//	providers := cache.NewMemory[*oidc.Provider](cache.WithTTL(time.Hour))
//	p, err := providers.GetOrLoad(ctx, issuer, func(ctx context.Context) (*oidc.Provider, error) {
//		return oidc.NewProvider(ctx, issuer)
//	})
package cache
