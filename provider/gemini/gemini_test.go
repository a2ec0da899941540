package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/mhpenta/pixelart"
	"github.com/mhpenta/pixelart/ratelimiter"
)

type mockModels struct {
	generateContentFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	generateImagesFunc  func(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

func (m *mockModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if m.generateContentFunc == nil {
		return nil, errors.New("unexpected GenerateContent call")
	}
	return m.generateContentFunc(ctx, model, contents, config)
}

func (m *mockModels) GenerateImages(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error) {
	if m.generateImagesFunc == nil {
		return nil, errors.New("unexpected GenerateImages call")
	}
	return m.generateImagesFunc(ctx, model, prompt, config)
}

func TestGeminiGenerator_Generate_Imagen(t *testing.T) {
	ctx := context.Background()

	var gotModel, gotPrompt string
	var gotConfig *genai.GenerateImagesConfig
	models := &mockModels{
		generateImagesFunc: func(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error) {
			gotModel, gotPrompt, gotConfig = model, prompt, config
			return &genai.GenerateImagesResponse{
				GeneratedImages: []*genai.GeneratedImage{
					{Image: &genai.Image{ImageBytes: []byte("png-data"), MIMEType: "image/png"}, EnhancedPrompt: "a cat, pixelated"},
				},
			}, nil
		},
	}
	g := &GeminiGenerator{models: models}

	cfg := pixelart.DefaultConfig()
	cfg.Model = APIModelImagen4
	cfg.NumberOfImages = 9

	result, err := g.Generate(ctx, "a pixel cat", cfg)
	require.NoError(t, err)

	assert.Equal(t, APIModelImagen4, gotModel)
	assert.Equal(t, "a pixel cat", gotPrompt)
	assert.Equal(t, int32(4), gotConfig.NumberOfImages, "clamped to model maximum")
	assert.Equal(t, "1:1", gotConfig.AspectRatio)
	assert.Equal(t, "image/png", gotConfig.OutputMIMEType)
	assert.Equal(t, "1K", gotConfig.ImageSize)
	assert.True(t, gotConfig.IncludeRAIReason)

	require.Len(t, result.Images, 1)
	assert.Equal(t, []byte("png-data"), result.Images[0].Data)
	assert.Equal(t, "a cat, pixelated", result.Images[0].RevisedPrompt)
}

func TestGeminiGenerator_Generate_Content(t *testing.T) {
	ctx := context.Background()

	var gotConfig *genai.GenerateContentConfig
	var gotContents []*genai.Content
	models := &mockModels{
		generateContentFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			assert.Equal(t, APIModelNanoBanana1, model)
			gotConfig, gotContents = config, contents
			return &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{
					Content: &genai.Content{Parts: []*genai.Part{
						{Text: "thinking...", Thought: true},
						{Text: "Here is your cat."},
						{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte("png")}},
					}},
				}},
				UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
					PromptTokenCount:     10,
					CandidatesTokenCount: 1290,
					TotalTokenCount:      1300,
				},
			}, nil
		},
	}
	g := &GeminiGenerator{models: models}
	g.SetSafetySettings([]pixelart.SafetySetting{{
		Category:  pixelart.SafetyCategoryHarassment,
		Threshold: pixelart.SafetyThresholdBlockMedAndUp,
	}})

	temp := float32(0.5)
	cfg := pixelart.DefaultConfig().WithModel(pixelart.ModelNanoBanana1)
	cfg.Temperature = &temp

	result, err := g.Generate(ctx, "a pixel cat", cfg)
	require.NoError(t, err)

	require.Len(t, gotContents, 1)
	assert.Equal(t, "a pixel cat", gotContents[0].Parts[0].Text)
	assert.Equal(t, []string{"TEXT", "IMAGE"}, gotConfig.ResponseModalities)
	require.NotNil(t, gotConfig.ImageConfig)
	assert.Equal(t, "1:1", gotConfig.ImageConfig.AspectRatio)
	require.NotNil(t, gotConfig.Temperature)
	assert.Equal(t, temp, *gotConfig.Temperature)
	require.Len(t, gotConfig.SafetySettings, 1)
	assert.Equal(t, genai.HarmCategory("HARM_CATEGORY_HARASSMENT"), gotConfig.SafetySettings[0].Category)

	assert.Equal(t, "Here is your cat.", result.Text)
	require.Len(t, result.Images, 1)
	assert.Equal(t, []byte("png"), result.Images[0].Data)
	require.NotNil(t, result.UsageMetadata)
	assert.Equal(t, 1300, result.UsageMetadata.TotalTokens)
	assert.Equal(t, 1, result.UsageMetadata.ImageCount)
}

func TestGeminiGenerator_Generate_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("empty prompt", func(t *testing.T) {
		g := &GeminiGenerator{models: &mockModels{}}
		_, err := g.Generate(ctx, "", nil)
		assert.ErrorIs(t, err, pixelart.ErrEmptyPrompt)
	})

	t.Run("unsupported aspect ratio", func(t *testing.T) {
		g := &GeminiGenerator{models: &mockModels{}}
		cfg := pixelart.DefaultConfig()
		cfg.AspectRatio = "21:9"
		_, err := g.Generate(ctx, "a pixel cat", cfg)
		assert.ErrorContains(t, err, "does not support aspect ratio")
	})

	t.Run("quota error becomes RateLimitError", func(t *testing.T) {
		apiErr := genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Message: "quota exceeded"}
		g := &GeminiGenerator{models: &mockModels{
			generateImagesFunc: func(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error) {
				return nil, apiErr
			},
		}}
		_, err := g.Generate(ctx, "a pixel cat", nil)
		require.Error(t, err)
		assert.True(t, pixelart.IsRateLimitError(err))

		var rlErr *pixelart.RateLimitError
		require.ErrorAs(t, err, &rlErr)
		assert.Equal(t, ratelimiter.LimitTypeRequests, rlErr.LimitType)
	})

	t.Run("other errors are wrapped", func(t *testing.T) {
		cause := errors.New("connection reset")
		g := &GeminiGenerator{models: &mockModels{
			generateImagesFunc: func(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error) {
				return nil, cause
			},
		}}
		_, err := g.Generate(ctx, "a pixel cat", nil)
		assert.ErrorIs(t, err, cause)
		assert.False(t, pixelart.IsRateLimitError(err))
	})
}

func TestParseImagesResult(t *testing.T) {
	t.Run("filtered images are reported", func(t *testing.T) {
		result, err := parseImagesResult(&genai.GenerateImagesResponse{
			GeneratedImages: []*genai.GeneratedImage{
				{RAIFilteredReason: "blocked by safety filter"},
				nil,
			},
		})
		require.NoError(t, err)
		assert.Empty(t, result.Images)
		assert.Equal(t, []string{"blocked by safety filter"}, result.FilteredReasons)
	})

	t.Run("missing mime type is detected from the bytes", func(t *testing.T) {
		jpegBytes := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
		pngBytes := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

		result, err := parseImagesResult(&genai.GenerateImagesResponse{
			GeneratedImages: []*genai.GeneratedImage{
				{Image: &genai.Image{ImageBytes: jpegBytes}},
				{Image: &genai.Image{ImageBytes: pngBytes}},
			},
		})
		require.NoError(t, err)
		require.Len(t, result.Images, 2)
		assert.Equal(t, "image/jpeg", result.Images[0].MIMEType)
		assert.Equal(t, "image/png", result.Images[1].MIMEType)
	})

	t.Run("nil response", func(t *testing.T) {
		_, err := parseImagesResult(nil)
		assert.Error(t, err)
	})
}

func TestParseContentResult(t *testing.T) {
	t.Run("blocked prompt", func(t *testing.T) {
		result, err := parseContentResult(&genai.GenerateContentResponse{
			PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: "SAFETY"},
		})
		require.NoError(t, err)
		assert.Empty(t, result.Images)
		assert.Equal(t, []string{"prompt blocked (SAFETY)"}, result.FilteredReasons)
	})

	t.Run("candidate without content", func(t *testing.T) {
		result, err := parseContentResult(&genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{FinishReason: "IMAGE_SAFETY"}},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"finished with IMAGE_SAFETY"}, result.FilteredReasons)
	})

	t.Run("empty response", func(t *testing.T) {
		_, err := parseContentResult(&genai.GenerateContentResponse{})
		assert.Error(t, err)
	})

	t.Run("inline data without mime type is detected", func(t *testing.T) {
		result, err := parseContentResult(&genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{
					{InlineData: &genai.Blob{Data: []byte{0xFF, 0xD8, 0xFF, 0xDB, 0x00}}},
				}},
			}},
		})
		require.NoError(t, err)
		require.Len(t, result.Images, 1)
		assert.Equal(t, "image/jpeg", result.Images[0].MIMEType)
	})
}

func TestResolveModel(t *testing.T) {
	g := &GeminiGenerator{}

	assert.Equal(t, APIModelImagen4, g.resolveModel(nil).APIModelName)
	assert.Equal(t, APIModelImagen4Fast, g.resolveModel(&pixelart.GenerateConfig{Model: pixelart.ModelImagen4Fast}).APIModelName)

	custom := g.resolveModel(&pixelart.GenerateConfig{Model: "imagen-3.0-generate-002"})
	assert.Equal(t, pixelart.APIKindImagen, custom.APIKind)

	other := g.resolveModel(&pixelart.GenerateConfig{Model: "gemini-3-pro-image-preview"})
	assert.Equal(t, pixelart.APIKindGenerateContent, other.APIKind)
}

func TestModelsRegisterWithManager(t *testing.T) {
	manager := pixelart.NewManager(&GeminiGenerator{models: &mockModels{}})

	assert.Equal(t, pixelart.ModelImagen4, manager.DefaultModel())
	assert.Equal(t, []pixelart.Model{
		pixelart.ModelImagen4,
		pixelart.ModelImagen4Fast,
		pixelart.ModelNanoBanana1,
	}, manager.ListModels())
}
