package gemini

import "github.com/mhpenta/pixelart"

var imagenAspectRatios = []pixelart.AspectRatio{
	pixelart.AspectRatio1x1,
	pixelart.AspectRatio3x4,
	pixelart.AspectRatio4x3,
	pixelart.AspectRatio9x16,
	pixelart.AspectRatio16x9,
}

// Imagen4Info is the model info for Imagen 4, the default pixel art model.
// Imagen returns the requested output MIME type, so PNG needs no conversion.
var Imagen4Info = pixelart.ModelInfo{
	Name:         string(pixelart.ModelImagen4),
	Provider:     pixelart.ProviderGeminiAPI,
	APIModelName: APIModelImagen4,
	APIKind:      pixelart.APIKindImagen,

	Capabilities: pixelart.ModelCapabilities{
		SupportsNegativePrompt: false,
		SupportsOutputMIMEType: true,
		MaxOutputImages:        4,
	},

	ImageConstraints: pixelart.ImageConstraints{
		SupportedAspectRatios: imagenAspectRatios,
		SupportedSizes: []pixelart.ImageSize{
			pixelart.ImageSize1K,
			pixelart.ImageSize2K,
		},
	},

	// Imagen is billed and limited per request; the token dimension is left open.
	RateLimits: pixelart.RateLimits{
		RequestsPerMinute: 10,
	},
}

var Imagen4FastInfo = pixelart.ModelInfo{
	Name:         string(pixelart.ModelImagen4Fast),
	Provider:     pixelart.ProviderGeminiAPI,
	APIModelName: APIModelImagen4Fast,
	APIKind:      pixelart.APIKindImagen,

	Capabilities: pixelart.ModelCapabilities{
		SupportsOutputMIMEType: true,
		MaxOutputImages:        4,
	},

	ImageConstraints: pixelart.ImageConstraints{
		SupportedAspectRatios: imagenAspectRatios,
		SupportedSizes:        []pixelart.ImageSize{pixelart.ImageSize1K},
	},

	RateLimits: pixelart.RateLimits{
		RequestsPerMinute: 10,
	},
}

// NanoBanana1Info is Gemini 2.5 Flash Image. It answers through
// GenerateContent and may mix text with the image.
var NanoBanana1Info = pixelart.ModelInfo{
	Name:         string(pixelart.ModelNanoBanana1),
	Provider:     pixelart.ProviderGeminiAPI,
	APIModelName: APIModelNanoBanana1,
	APIKind:      pixelart.APIKindGenerateContent,

	Capabilities: pixelart.ModelCapabilities{
		SupportsTemperature: true,
		MaxOutputImages:     1,
	},

	ImageConstraints: pixelart.ImageConstraints{
		SupportedAspectRatios: append([]pixelart.AspectRatio{}, imagenAspectRatios...),
		SupportedSizes:        []pixelart.ImageSize{pixelart.ImageSize1K},
	},

	RateLimits: pixelart.RateLimits{
		TokensPerMinute:   4000000,
		RequestsPerMinute: 500, // ~500 RPM for Tier 1
	},
}
