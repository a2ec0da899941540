package pixelart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mhpenta/pixelart/ratelimiter"
)

const (
	ModelImagen4     Model = "imagen-4"
	ModelImagen4Fast Model = "imagen-4-fast"
	ModelNanoBanana1 Model = "nano-banana-1" // Gemini 2.5 Flash Image

	ModelDefault Model = ModelImagen4
)

var (
	// ErrModelNotRegistered is returned when a model has no registered provider.
	ErrModelNotRegistered = errors.New("model not registered")

	// ErrProviderNotConfigured is returned when a provider lacks required config.
	ErrProviderNotConfigured = errors.New("provider not configured")
)

// Provider represents a model provider/backend.
type Provider string

const (
	ProviderGeminiAPI Provider = "gemini"
)

// ProviderConfig configures a specific provider.
type ProviderConfig struct {
	Provider Provider
	APIKey   string

	// BaseURL for custom endpoints (optional)
	BaseURL string
}

// ModelMapping maps a model identifier to its provider and actual model name.
type ModelMapping struct {
	Provider        Provider
	ActualModelName string
}

// Manager implements ImageGenerator by routing each request to the provider
// registered for the requested model, applying that model's rate limits.
type Manager struct {
	modelMappings map[Model]ModelMapping
	providers     map[Provider]ImageGenerator
	modelInfo     map[Model]*ModelInfo

	// models in registration order; the first one is the fallback default
	order []Model

	defaultModel Model

	rateLimiters   ratelimiter.Registry
	tokenEstimator TokenEstimator

	logger *slog.Logger

	mu sync.RWMutex
}

var _ ImageGenerator = (*Manager)(nil)

// New creates an empty Manager.
func New() *Manager {
	return &Manager{
		logger:         slog.Default(),
		modelMappings:  make(map[Model]ModelMapping),
		providers:      make(map[Provider]ImageGenerator),
		modelInfo:      make(map[Model]*ModelInfo),
		rateLimiters:   ratelimiter.NewRegistry(),
		tokenEstimator: NewRuneTokenEstimator(),
		defaultModel:   ModelDefault,
	}
}

// RegisterProvider adds a provider and all of its models. The first model
// becomes the default when no default has been registered yet.
func (m *Manager) RegisterProvider(gen ImageGenerator) *Manager {
	models := gen.Models()
	for i := range models {
		info := models[i]

		m.mu.Lock()
		m.providers[info.Provider] = gen
		m.mu.Unlock()

		m.RegisterModel(Model(info.Name),
			ModelMapping{
				Provider:        info.Provider,
				ActualModelName: info.APIModelName,
			},
			&info)
	}
	return m
}

// RegisterModel registers a model with its metadata. A default in-memory rate
// limiter is created from info.RateLimits; use SetRateLimiter to override it.
func (m *Manager) RegisterModel(model Model, mapping ModelMapping, info *ModelInfo) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.modelMappings[model]; !exists {
		m.order = append(m.order, model)
	}
	m.modelMappings[model] = mapping
	m.modelInfo[model] = info

	if info != nil && (info.RateLimits.TokensPerMinute > 0 || info.RateLimits.RequestsPerMinute > 0) {
		m.rateLimiters.Set(string(model), ratelimiter.New(
			info.RateLimits.TokensPerMinute,
			info.RateLimits.RequestsPerMinute,
		))
	}

	return m
}

// SetRateLimiter sets a custom rate limiter for a model. A nil limiter
// disables rate limiting for that model.
func (m *Manager) SetRateLimiter(model Model, limiter ratelimiter.Limiter) *Manager {
	m.rateLimiters.Set(string(model), limiter)
	return m
}

// SetDefaultModel sets the default model used when config.Model is empty.
func (m *Manager) SetDefaultModel(model Model) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.defaultModel = model
	return m
}

// DefaultModel returns the model used when a config names none.
func (m *Manager) DefaultModel() Model {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultModel
}

// SetLogger sets a structured logger for the manager.
func (m *Manager) SetLogger(logger *slog.Logger) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger = logger
	return m
}

func (m *Manager) log() *slog.Logger {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.logger
}

// Generate creates images from a text prompt.
func (m *Manager) Generate(ctx context.Context, prompt string, config *GenerateConfig) (*GenerateResult, error) {
	if config == nil {
		config = DefaultConfig()
	}

	logger := m.log()
	model := m.resolveModel(config)
	start := time.Now()

	logger.DebugContext(ctx, "starting image generation",
		"model", string(model),
		"prompt_length", len(prompt),
	)

	gen, actualConfig, err := m.getGeneratorForConfig(model, config)
	if err != nil {
		logger.ErrorContext(ctx, "failed to get generator",
			"model", string(model),
			"error", err.Error(),
		)
		return nil, err
	}

	if err := m.checkRateLimit(ctx, model, config, prompt); err != nil {
		logger.WarnContext(ctx, "rate limit hit",
			"model", string(model),
			"error", err.Error(),
		)
		return nil, err
	}

	result, err := gen.Generate(ctx, prompt, actualConfig)
	duration := time.Since(start)

	if err != nil {
		logger.ErrorContext(ctx, "generation failed",
			"model", string(model),
			"duration_ms", duration.Milliseconds(),
			"error", err.Error(),
		)
		return nil, err
	}

	logAttrs := []any{
		"model", string(model),
		"duration_ms", duration.Milliseconds(),
		"image_count", len(result.Images),
	}
	if len(result.FilteredReasons) > 0 {
		logAttrs = append(logAttrs, "filtered", len(result.FilteredReasons))
	}
	if result.UsageMetadata != nil {
		logAttrs = append(logAttrs,
			"prompt_tokens", result.UsageMetadata.PromptTokens,
			"response_tokens", result.UsageMetadata.CandidatesTokens,
			"total_tokens", result.UsageMetadata.TotalTokens,
		)
	}
	logger.InfoContext(ctx, "generation completed", logAttrs...)

	return result, nil
}

// Models returns all registered model definitions in registration order.
func (m *Manager) Models() []ModelInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	models := make([]ModelInfo, 0, len(m.order))
	for _, model := range m.order {
		if info := m.modelInfo[model]; info != nil {
			models = append(models, *info)
		}
	}
	return models
}

// ListModels returns all registered model aliases in registration order.
func (m *Manager) ListModels() []Model {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]Model(nil), m.order...)
}

// GetModelProvider returns the provider for a model.
func (m *Manager) GetModelProvider(model Model) (Provider, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mapping, ok := m.modelMappings[model]
	if !ok {
		return "", false
	}
	return mapping.Provider, true
}

// GetModelInfo returns model information for a specific model.
func (m *Manager) GetModelInfo(model Model) (*ModelInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.modelInfo[model]
	return info, ok
}

// Close releases all provider resources.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for provider, gen := range m.providers {
		if err := gen.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", provider, err))
		}
	}
	m.providers = make(map[Provider]ImageGenerator)

	return errors.Join(errs...)
}

// checkRateLimit admits the request against the model's limiter, optionally
// waiting for capacity.
func (m *Manager) checkRateLimit(ctx context.Context, model Model, config *GenerateConfig, prompt string) error {
	limiter, ok := m.rateLimiters.Get(string(model))
	if !ok {
		return nil
	}

	estimatedTokens := m.tokenEstimator.EstimateTokens(prompt)

	if config.WaitOnRateLimit {
		if err := limiter.WaitAndConsume(ctx, estimatedTokens, config.MaxWaitDuration); err != nil {
			return &RateLimitError{
				RetryAfter: limiter.TimeUntilAvailable(estimatedTokens),
				LimitType:  limitType(limiter, estimatedTokens),
				Model:      string(model),
				Err:        err,
			}
		}
		return nil
	}

	if !limiter.TryConsume(estimatedTokens) {
		return &RateLimitError{
			RetryAfter: limiter.TimeUntilAvailable(estimatedTokens),
			LimitType:  limitType(limiter, estimatedTokens),
			Model:      string(model),
		}
	}

	return nil
}

// limitType names the quota that refused a request. Capacity freed between
// the refusal and this check means a concurrent request took the slot.
func limitType(limiter ratelimiter.Limiter, tokens int) string {
	if t := limiter.LimitedBy(tokens); t != "" {
		return t
	}
	return ratelimiter.LimitTypeRequests
}

// resolveModel determines the model alias to use.
func (m *Manager) resolveModel(config *GenerateConfig) Model {
	m.mu.RLock()
	defer m.mu.RUnlock()

	model := ModelDefault
	if config != nil && config.Model != "" {
		model = config.Model
	}
	if model == ModelDefault && m.defaultModel != "" {
		model = m.defaultModel
	}
	if _, ok := m.modelMappings[model]; !ok && model == m.defaultModel && len(m.order) > 0 {
		// the configured default was never registered; use the first model
		model = m.order[0]
	}

	return model
}

// getGeneratorForConfig returns the provider for model and a config copy
// carrying the provider's actual model name.
func (m *Manager) getGeneratorForConfig(model Model, config *GenerateConfig) (ImageGenerator, *GenerateConfig, error) {
	m.mu.RLock()
	mapping, ok := m.modelMappings[model]
	m.mu.RUnlock()

	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrModelNotRegistered, model)
	}

	gen, err := m.getProvider(mapping.Provider)
	if err != nil {
		return nil, nil, err
	}

	configCopy := config.Clone()
	configCopy.Model = Model(mapping.ActualModelName)

	return gen, configCopy, nil
}

func (m *Manager) getProvider(provider Provider) (ImageGenerator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	gen, ok := m.providers[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotConfigured, provider)
	}
	return gen, nil
}
