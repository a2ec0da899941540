package pixelart

import (
	"context"
	"sync"
)

// MockImageGenerator is a mock implementation of ImageGenerator.
type MockImageGenerator struct {
	GenerateFunc func(ctx context.Context, prompt string, config *GenerateConfig) (*GenerateResult, error)
	ModelsFunc   func() []ModelInfo
	CloseFunc    func() error

	mu      sync.Mutex
	prompts []string
	configs []*GenerateConfig
}

func (m *MockImageGenerator) Generate(ctx context.Context, prompt string, config *GenerateConfig) (*GenerateResult, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.configs = append(m.configs, config)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt, config)
	}
	return &GenerateResult{}, nil
}

func (m *MockImageGenerator) Models() []ModelInfo {
	if m.ModelsFunc != nil {
		return m.ModelsFunc()
	}
	return []ModelInfo{}
}

func (m *MockImageGenerator) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

func (m *MockImageGenerator) calls() ([]string, []*GenerateConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...), append([]*GenerateConfig(nil), m.configs...)
}

func testModels(limits RateLimits) func() []ModelInfo {
	return func() []ModelInfo {
		return []ModelInfo{
			{
				Name:         "test-model",
				Provider:     "test-provider",
				APIModelName: "test-model-api",
				RateLimits:   limits,
			},
			{
				Name:         "second-model",
				Provider:     "test-provider",
				APIModelName: "second-model-api",
			},
		}
	}
}
