// Package gemini provides a pixelart.ImageGenerator backed by Google's Gemini API.
//
// Two request styles are supported through the official Go SDK
// (https://github.com/googleapis/go-genai): Imagen models are called with
// GenerateImages, Gemini image models with GenerateContent and an IMAGE
// response modality.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mhpenta/pixelart"
	"github.com/mhpenta/pixelart/imgutil"
	"github.com/mhpenta/pixelart/ratelimiter"
	"google.golang.org/genai"
)

// Model name constants - the actual API model names.
const (
	APIModelImagen4     = "imagen-4.0-generate-001"
	APIModelImagen4Fast = "imagen-4.0-fast-generate-001"
	APIModelNanoBanana1 = "gemini-2.5-flash-image"
)

// modelsAPI is the subset of genai.Models used by the generator.
type modelsAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateImages(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

// GeminiGenerator implements pixelart.ImageGenerator using Google's Gemini API.
type GeminiGenerator struct {
	models         modelsAPI
	safetySettings []*genai.SafetySetting
	mu             sync.RWMutex
}

var _ pixelart.ImageGenerator = (*GeminiGenerator)(nil)

// New creates a new GeminiGenerator from a ProviderConfig.
func New(ctx context.Context, config *pixelart.ProviderConfig) (*GeminiGenerator, error) {
	if config == nil {
		config = &pixelart.ProviderConfig{}
	}

	clientCfg := &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
	}

	// If APIKey is empty, the SDK will try GOOGLE_API_KEY or GEMINI_API_KEY env vars
	if config.APIKey != "" {
		clientCfg.APIKey = config.APIKey
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiGenerator{
		models: client.Models,
	}, nil
}

// NewWithAPIKey creates a generator with an API key for Gemini API.
func NewWithAPIKey(ctx context.Context, apiKey string) (*GeminiGenerator, error) {
	return New(ctx, &pixelart.ProviderConfig{
		Provider: pixelart.ProviderGeminiAPI,
		APIKey:   apiKey,
	})
}

// SetSafetySettings configures default safety settings for Gemini image
// models. Per-request GenerateConfig.SafetySettings take precedence.
func (g *GeminiGenerator) SetSafetySettings(settings []pixelart.SafetySetting) *GeminiGenerator {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.safetySettings = convertSafetySettings(settings)
	return g
}

// Generate creates images from a text prompt.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string, config *pixelart.GenerateConfig) (*pixelart.GenerateResult, error) {
	if prompt == "" {
		return nil, pixelart.ErrEmptyPrompt
	}

	if config == nil {
		config = pixelart.DefaultConfig()
	}

	info := g.resolveModel(config)

	if !info.ImageConstraints.SupportsAspectRatio(config.AspectRatio) {
		return nil, fmt.Errorf("model %s does not support aspect ratio %s", info.Name, config.AspectRatio)
	}

	if info.APIKind == pixelart.APIKindImagen {
		return g.generateImages(ctx, info, prompt, config)
	}
	return g.generateContent(ctx, info, prompt, config)
}

func (g *GeminiGenerator) generateImages(ctx context.Context, info pixelart.ModelInfo, prompt string, config *pixelart.GenerateConfig) (*pixelart.GenerateResult, error) {
	resp, err := g.models.GenerateImages(ctx, info.APIModelName, prompt, buildGenerateImagesConfig(info, config))
	if err != nil {
		if rlErr := checkRateLimitError(err, info.APIModelName); rlErr != nil {
			return nil, rlErr
		}
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	return parseImagesResult(resp)
}

func (g *GeminiGenerator) generateContent(ctx context.Context, info pixelart.ModelInfo, prompt string, config *pixelart.GenerateConfig) (*pixelart.GenerateResult, error) {
	contents := []*genai.Content{
		{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	g.mu.RLock()
	defaults := g.safetySettings
	g.mu.RUnlock()

	resp, err := g.models.GenerateContent(ctx, info.APIModelName, contents, buildGenerateContentConfig(config, defaults))
	if err != nil {
		if rlErr := checkRateLimitError(err, info.APIModelName); rlErr != nil {
			return nil, rlErr
		}
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	return parseContentResult(resp)
}

// Models returns the model definitions supported by this provider.
// The first model (Imagen 4) is the default.
func (g *GeminiGenerator) Models() []pixelart.ModelInfo {
	return []pixelart.ModelInfo{
		Imagen4Info,
		Imagen4FastInfo,
		NanoBanana1Info,
	}
}

// Close releases any resources held by the generator.
func (g *GeminiGenerator) Close() error {
	// The genai.Client doesn't require explicit closing in the current SDK
	return nil
}

// resolveModel finds the model info for config.Model, which may be either an
// API model name or a public alias. Unknown names are sent to the
// GenerateContent endpoint as-is.
func (g *GeminiGenerator) resolveModel(config *pixelart.GenerateConfig) pixelart.ModelInfo {
	models := g.Models()
	if config == nil || config.Model == "" {
		return models[0]
	}

	name := string(config.Model)
	for _, info := range models {
		if info.APIModelName == name || info.Name == name {
			return info
		}
	}

	kind := pixelart.APIKindGenerateContent
	if strings.HasPrefix(name, "imagen-") {
		kind = pixelart.APIKindImagen
	}
	return pixelart.ModelInfo{
		Name:         name,
		Provider:     pixelart.ProviderGeminiAPI,
		APIModelName: name,
		APIKind:      kind,
	}
}

// buildGenerateImagesConfig converts our config to an Imagen request config.
func buildGenerateImagesConfig(info pixelart.ModelInfo, config *pixelart.GenerateConfig) *genai.GenerateImagesConfig {
	n := config.NumberOfImages
	if n <= 0 {
		n = 1
	}
	if limit := info.Capabilities.MaxOutputImages; limit > 0 && n > limit {
		n = limit
	}

	imagesConfig := &genai.GenerateImagesConfig{
		NumberOfImages:   int32(n),
		AspectRatio:      config.AspectRatio.String(),
		IncludeRAIReason: true,
	}
	if info.Capabilities.SupportsOutputMIMEType && config.OutputMIMEType != "" {
		imagesConfig.OutputMIMEType = config.OutputMIMEType
	}
	if info.Capabilities.SupportsNegativePrompt && config.NegativePrompt != "" {
		imagesConfig.NegativePrompt = config.NegativePrompt
	}
	if config.Size != "" && sizeSupported(info, config.Size) {
		imagesConfig.ImageSize = config.Size.String()
	}

	return imagesConfig
}

// buildGenerateContentConfig converts our config to Gemini's GenerateContentConfig format.
func buildGenerateContentConfig(config *pixelart.GenerateConfig, defaults []*genai.SafetySetting) *genai.GenerateContentConfig {
	genConfig := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}

	if config.AspectRatio != "" {
		genConfig.ImageConfig = &genai.ImageConfig{
			AspectRatio: config.AspectRatio.String(),
		}
	}

	if config.Temperature != nil {
		genConfig.Temperature = genai.Ptr(*config.Temperature)
	}

	if len(config.SafetySettings) > 0 {
		genConfig.SafetySettings = convertSafetySettings(config.SafetySettings)
	} else if len(defaults) > 0 {
		genConfig.SafetySettings = defaults
	}

	return genConfig
}

func sizeSupported(info pixelart.ModelInfo, size pixelart.ImageSize) bool {
	for _, s := range info.ImageConstraints.SupportedSizes {
		if s == size {
			return true
		}
	}
	return false
}

// convertSafetySettings converts our SafetySettings to Gemini's format.
func convertSafetySettings(settings []pixelart.SafetySetting) []*genai.SafetySetting {
	result := make([]*genai.SafetySetting, 0, len(settings))
	for _, s := range settings {
		result = append(result, &genai.SafetySetting{
			Category:  genai.HarmCategory(s.Category),
			Threshold: genai.HarmBlockThreshold(s.Threshold),
		})
	}
	return result
}

// parseImagesResult converts an Imagen response to our result type.
func parseImagesResult(resp *genai.GenerateImagesResponse) (*pixelart.GenerateResult, error) {
	if resp == nil {
		return nil, errors.New("empty response from model")
	}

	result := &pixelart.GenerateResult{
		Images: make([]pixelart.GeneratedImage, 0, len(resp.GeneratedImages)),
	}

	for _, generated := range resp.GeneratedImages {
		if generated == nil {
			continue
		}
		if generated.RAIFilteredReason != "" {
			result.FilteredReasons = append(result.FilteredReasons, generated.RAIFilteredReason)
		}
		if generated.Image == nil || len(generated.Image.ImageBytes) == 0 {
			continue
		}

		mimeType := generated.Image.MIMEType
		if mimeType == "" {
			mimeType = imgutil.DetectMIMEType(generated.Image.ImageBytes)
		}
		result.Images = append(result.Images, pixelart.GeneratedImage{
			Data:          generated.Image.ImageBytes,
			MIMEType:      mimeType,
			Index:         len(result.Images),
			RevisedPrompt: generated.EnhancedPrompt,
		})
	}

	result.UsageMetadata = &pixelart.UsageMetadata{ImageCount: len(result.Images)}

	return result, nil
}

// parseContentResult converts a GenerateContent response to our result type.
func parseContentResult(resp *genai.GenerateContentResponse) (*pixelart.GenerateResult, error) {
	if resp == nil {
		return nil, errors.New("empty response from model")
	}

	result := &pixelart.GenerateResult{
		Images: make([]pixelart.GeneratedImage, 0),
	}

	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		reason := string(fb.BlockReason)
		if fb.BlockReasonMessage != "" {
			reason += ": " + fb.BlockReasonMessage
		}
		result.FilteredReasons = append(result.FilteredReasons, "prompt blocked ("+reason+")")
	}

	if len(resp.Candidates) == 0 && len(result.FilteredReasons) == 0 {
		return nil, errors.New("empty response from model")
	}

	var text strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil {
			continue
		}
		if candidate.Content == nil {
			if candidate.FinishReason != "" && candidate.FinishReason != genai.FinishReasonStop {
				result.FilteredReasons = append(result.FilteredReasons, "finished with "+string(candidate.FinishReason))
			}
			continue
		}

		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			if part.Text != "" {
				text.WriteString(part.Text)
			}
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				mimeType := part.InlineData.MIMEType
				if mimeType == "" {
					mimeType = imgutil.DetectMIMEType(part.InlineData.Data)
				}
				result.Images = append(result.Images, pixelart.GeneratedImage{
					Data:     part.InlineData.Data,
					MIMEType: mimeType,
					Index:    len(result.Images),
				})
			}
		}
	}
	result.Text = text.String()

	if resp.UsageMetadata != nil {
		result.UsageMetadata = &pixelart.UsageMetadata{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CandidatesTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
			ImageCount:       len(result.Images),
		}
	}

	return result, nil
}

// checkRateLimitError wraps Gemini quota errors in a RateLimitError.
// It returns nil for any other error.
func checkRateLimitError(err error, model string) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return nil
	}

	if apiErr.Code != 429 && apiErr.Status != "RESOURCE_EXHAUSTED" {
		return nil
	}

	return &pixelart.RateLimitError{
		RetryAfter: 60 * time.Second, // API doesn't reliably provide Retry-After
		LimitType:  ratelimiter.LimitTypeRequests,
		Model:      model,
		Err:        err,
	}
}
