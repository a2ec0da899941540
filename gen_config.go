package pixelart

import (
	"time"
)

// Model is a public model alias such as "imagen-4".
type Model string

// ImageSize represents the output resolution for generated images.
type ImageSize string

const (
	ImageSize1K ImageSize = "1K"
	ImageSize2K ImageSize = "2K"
)

// AspectRatio represents the aspect ratio for generated images.
type AspectRatio string

const (
	AspectRatio1x1  AspectRatio = "1:1"
	AspectRatio16x9 AspectRatio = "16:9"
	AspectRatio9x16 AspectRatio = "9:16"
	AspectRatio4x3  AspectRatio = "4:3"
	AspectRatio3x4  AspectRatio = "3:4"
	AspectRatioAuto AspectRatio = ""
)

// GenerateConfig holds configuration options for image generation.
type GenerateConfig struct {
	// Model to use for generation (if empty, uses manager's default)
	Model Model

	// Size of the output image. Ignored by models without size control.
	Size ImageSize

	AspectRatio AspectRatio

	// NumberOfImages to generate. Pixel art requests always ask for one.
	NumberOfImages int

	// OutputMIMEType requested from models that support choosing it.
	OutputMIMEType string

	// NegativePrompt lists things the image should avoid (Imagen only).
	NegativePrompt string

	// Temperature controls randomness (Gemini image models only).
	Temperature *float32

	SafetySettings []SafetySetting

	// WaitOnRateLimit makes the Manager wait for quota instead of returning
	// a RateLimitError immediately. The remote call itself is never repeated.
	WaitOnRateLimit bool

	// MaxWaitDuration bounds the wait when WaitOnRateLimit is true.
	// Zero means no limit.
	MaxWaitDuration time.Duration
}

// WithModel returns a copy of the config with the specified model.
func (c *GenerateConfig) WithModel(model Model) *GenerateConfig {
	if c == nil {
		cfg := DefaultConfig()
		cfg.Model = model
		return cfg
	}
	cX := *c
	cX.Model = model
	return &cX
}

// Clone returns a copy of the config. Slices are copied, not shared.
func (c *GenerateConfig) Clone() *GenerateConfig {
	if c == nil {
		return DefaultConfig()
	}
	cX := *c
	if c.SafetySettings != nil {
		cX.SafetySettings = append([]SafetySetting(nil), c.SafetySettings...)
	}
	return &cX
}

// DefaultConfig returns the config used for pixel art: one square PNG.
func DefaultConfig() *GenerateConfig {
	return &GenerateConfig{
		Model:          ModelDefault,
		Size:           ImageSize1K,
		AspectRatio:    AspectRatio1x1,
		NumberOfImages: 1,
		OutputMIMEType: "image/png",
	}
}

func (s ImageSize) String() string {
	return string(s)
}

func (a AspectRatio) String() string {
	return string(a)
}

func (m Model) String() string {
	return string(m)
}
