package pixelart

// APIKind selects which remote endpoint serves a model.
type APIKind string

const (
	// APIKindImagen models are called through the dedicated image endpoint.
	APIKindImagen APIKind = "imagen"

	// APIKindGenerateContent models return images as inline parts of a
	// multimodal content response.
	APIKindGenerateContent APIKind = "generate_content"
)

// ModelCapabilities describes what features a model supports.
type ModelCapabilities struct {
	SupportsNegativePrompt bool
	SupportsOutputMIMEType bool
	SupportsTemperature    bool

	MaxOutputImages int
}

// RateLimits defines rate limiting parameters for a model.
type RateLimits struct {
	TokensPerMinute   int
	RequestsPerMinute int
}

// ImageConstraints defines supported image configurations for a model.
type ImageConstraints struct {
	SupportedAspectRatios []AspectRatio
	SupportedSizes        []ImageSize
}

// SupportsAspectRatio reports whether ratio is accepted. An empty list
// accepts everything.
func (c ImageConstraints) SupportsAspectRatio(ratio AspectRatio) bool {
	if ratio == AspectRatioAuto || len(c.SupportedAspectRatios) == 0 {
		return true
	}
	for _, r := range c.SupportedAspectRatios {
		if r == ratio {
			return true
		}
	}
	return false
}

// ModelInfo contains complete metadata for a model.
type ModelInfo struct {
	Name         string   // Public model name (e.g., "imagen-4")
	Provider     Provider // Which provider serves this model
	APIModelName string   // Actual API name (e.g., "imagen-4.0-generate-001")
	APIKind      APIKind

	Capabilities     ModelCapabilities
	ImageConstraints ImageConstraints
	RateLimits       RateLimits
}
