package activecampaign

import (
	"context"
	"fmt"
	"time"

	"ecomsync/internal/cache"
	"ecomsync/internal/logger"
)

// Plan features checked before syncing.
const (
	FeatureCatalog        = "cofe"
	FeatureAbandonedCarts = "abandoned_carts"
)

// FeatureSource lists the account's plan features.
type FeatureSource interface {
	Features(ctx context.Context) (map[string]bool, error)
}

// FeatureGate answers whether a plan feature is enabled, caching the
// account's feature list for ttl.
type FeatureGate struct {
	source FeatureSource
	cache  cache.FeatureCache
	ttl    time.Duration
	logger *logger.Logger
}

func NewFeatureGate(source FeatureSource, cache cache.FeatureCache, ttl time.Duration, logger *logger.Logger) *FeatureGate {
	return &FeatureGate{source: source, cache: cache, ttl: ttl, logger: logger}
}

// Enabled reports whether name is part of the plan. Cache failures are
// logged and the platform is asked directly.
func (g *FeatureGate) Enabled(ctx context.Context, name string) (bool, error) {
	enabled, found, err := g.cache.Get(ctx, name)
	if err != nil {
		g.logger.Warnw("Feature cache read failed", "feature", name, "error", err)
	} else if found {
		return enabled, nil
	}

	features, err := g.source.Features(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load plan features: %w", err)
	}
	if features == nil {
		features = make(map[string]bool)
	}
	if _, ok := features[name]; !ok {
		features[name] = false
	}
	for feature, on := range features {
		if err := g.cache.Set(ctx, feature, on, g.ttl); err != nil {
			g.logger.Warnw("Feature cache write failed", "feature", feature, "error", err)
		}
	}
	return features[name], nil
}

// Invalidate drops the cached value of name.
func (g *FeatureGate) Invalidate(ctx context.Context, name string) error {
	return g.cache.Delete(ctx, name)
}
