package pixelart

import (
	"log/slog"

	"github.com/mhpenta/pixelart/ratelimiter"
)

// ManagerOption configures the Manager.
type ManagerOption func(*Manager)

// WithLogger sets a structured logger for the manager.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithDefaultModel sets the default model used when config.Model is empty.
func WithDefaultModel(model Model) ManagerOption {
	return func(m *Manager) {
		if model != "" {
			m.defaultModel = model
		}
	}
}

// WithTokenEstimator replaces the estimator used for rate limiting.
func WithTokenEstimator(estimator TokenEstimator) ManagerOption {
	return func(m *Manager) {
		if estimator != nil {
			m.tokenEstimator = estimator
		}
	}
}

// WithRateLimiterRegistry replaces the per-model limiter registry, for
// example with one shared by several managers. Limiters for registered models
// are created in the new registry as usual.
func WithRateLimiterRegistry(registry ratelimiter.Registry) ManagerOption {
	return func(m *Manager) {
		if registry != nil {
			m.rateLimiters = registry
		}
	}
}

// NewManager creates a Manager serving every model of defaultProvider.
// Without WithDefaultModel, the provider's first model is the default.
//
// Example:
//
//	gen, err := gemini.NewWithAPIKey(ctx, apiKey)
//	if err != nil {
//	    return err
//	}
//	manager := pixelart.NewManager(gen,
//	    pixelart.WithLogger(slog.Default()),
//	    pixelart.WithDefaultModel(pixelart.ModelNanoBanana1),
//	)
func NewManager(defaultProvider ImageGenerator, opts ...ManagerOption) *Manager {
	m := New()
	m.defaultModel = ""

	for _, opt := range opts {
		opt(m)
	}

	m.RegisterProvider(defaultProvider)

	if m.defaultModel == "" {
		if models := m.ListModels(); len(models) > 0 {
			m.defaultModel = models[0]
		} else {
			m.defaultModel = ModelDefault
		}
	}

	return m
}
