// Package collector defines the Collector interface and the per-domain
// implementations (CPU, GPU, disk, memory, network, load). Each collector
// picks one platform strategy at construction and degrades to typed
// defaults instead of failing: the worst outcome for any single domain is
// a fully-defaulted result.
package collector

import (
	"context"

	"go.uber.org/zap"
)

// Collector is the interface that all metric domain collectors implement.
type Collector interface {
	// Name returns the unique identifier for this domain.
	Name() string

	// Collect gathers the domain result. Implementations substitute typed
	// defaults for unavailable sources; a returned error means the whole
	// domain degraded and the caller should use Default.
	Collect(ctx context.Context) (interface{}, error)

	// Default returns the domain's fully-defaulted result, with every
	// declared field present.
	Default() interface{}
}

// Registry holds the registered collectors and runs them sequentially.
type Registry struct {
	collectors []Collector
	logger     *zap.Logger
}

// NewRegistry creates a collector registry with the given logger.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds a collector to the registry.
func (r *Registry) Register(c Collector) {
	r.collectors = append(r.collectors, c)
	r.logger.Debug("Registered collector", zap.String("name", c.Name()))
}

// CollectAll runs every registered collector in order and returns a map of
// domain name to result. Collectors run with failure isolation: an error or
// panic inside one domain substitutes that domain's defaulted result and
// never aborts the cycle.
func (r *Registry) CollectAll(ctx context.Context) map[string]interface{} {
	results := make(map[string]interface{}, len(r.collectors))
	for _, c := range r.collectors {
		results[c.Name()] = r.collectOne(ctx, c)
	}
	return results
}

func (r *Registry) collectOne(ctx context.Context, c Collector) (result interface{}) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Collector panicked, using defaults",
				zap.String("collector", c.Name()),
				zap.Any("panic", rec))
			result = c.Default()
		}
	}()

	data, err := c.Collect(ctx)
	if err != nil {
		r.logger.Warn("Collection degraded to defaults",
			zap.String("collector", c.Name()),
			zap.Error(err))
		return c.Default()
	}
	return data
}

// Names returns the registered domain names in collection order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.collectors))
	for _, c := range r.collectors {
		names = append(names, c.Name())
	}
	return names
}
