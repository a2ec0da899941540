package pixelart

import "context"

// ImageGenerator is implemented by image generation backends.
//
// The first model returned by Models() is considered the default model.
type ImageGenerator interface {
	// Generate creates images from a text prompt.
	Generate(ctx context.Context, prompt string, genConfig *GenerateConfig) (*GenerateResult, error)

	// Models returns the model definitions supported by this provider.
	Models() []ModelInfo

	// Close releases any resources held by the generator.
	Close() error
}
