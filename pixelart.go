// Package pixelart turns text prompts into pixel art images using remote
// image generation models.
//
// A Manager routes requests to a provider (see provider/gemini) and applies
// per-model rate limits. A Client sits on top of any ImageGenerator and
// returns a single base64-encoded PNG per prompt:
//
//	gen, err := gemini.NewWithAPIKey(ctx, apiKey)
//	if err != nil {
//	    return err
//	}
//	client := pixelart.NewClient(pixelart.NewManager(gen))
//	b64, err := client.GeneratePixelArt(ctx, "a pixel cat")
package pixelart

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mhpenta/pixelart/imgutil"
)

// DefaultStylePrompt wraps the user's prompt. %s is replaced by the prompt.
const DefaultStylePrompt = "A vibrant, detailed pixel art image of %s. " +
	"16-bit retro video game style, crisp hard-edged pixels, limited color palette, " +
	"no anti-aliasing, no text or watermark."

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithStylePrompt replaces the style template. It must contain exactly one %s.
func WithStylePrompt(template string) ClientOption {
	return func(c *Client) {
		if strings.Count(template, "%s") == 1 {
			c.stylePrompt = template
		}
	}
}

// WithGenerateConfig sets the base config for every request. The number of
// images is always forced to one.
func WithGenerateConfig(config *GenerateConfig) ClientOption {
	return func(c *Client) {
		if config != nil {
			c.config = config.Clone()
		}
	}
}

// WithClientLogger sets a structured logger for the client.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client generates one pixel art PNG per prompt.
type Client struct {
	gen         ImageGenerator
	config      *GenerateConfig
	stylePrompt string
	logger      *slog.Logger
}

// NewClient returns a Client backed by gen.
func NewClient(gen ImageGenerator, opts ...ClientOption) *Client {
	c := &Client{
		gen:         gen,
		config:      DefaultConfig(),
		stylePrompt: DefaultStylePrompt,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StylizePrompt returns the prompt sent to the model for a user prompt.
func (c *Client) StylizePrompt(prompt string) string {
	return fmt.Sprintf(c.stylePrompt, prompt)
}

// GeneratePixelArt generates a pixel art image for prompt and returns it as
// standard base64-encoded PNG data.
func (c *Client) GeneratePixelArt(ctx context.Context, prompt string) (string, error) {
	img, err := c.GenerateImage(ctx, prompt)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(img.Data), nil
}

// GenerateImage is GeneratePixelArt without the base64 step. The returned
// image is always PNG.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (GeneratedImage, error) {
	if err := ValidatePrompt(prompt); err != nil {
		return GeneratedImage{}, err
	}

	config := c.config.Clone()
	config.NumberOfImages = 1

	result, err := c.gen.Generate(ctx, c.StylizePrompt(prompt), config)
	if err != nil {
		return GeneratedImage{}, err
	}

	img, ok := result.FirstImage()
	if !ok || len(img.Data) == 0 {
		return GeneratedImage{}, noImageError(result)
	}

	// The declared MIME type is not trusted; the bytes decide.
	if detected := imgutil.DetectMIMEType(img.Data); detected != imgutil.MIMETypePNG {
		c.logger.DebugContext(ctx, "converting model output to png",
			"mime_type", img.MIMEType,
			"detected", detected,
		)

		png, err := imgutil.ToPNG(img.Data)
		if err != nil {
			return GeneratedImage{}, fmt.Errorf("converting %s image to png: %w", detected, err)
		}
		img.Data = png
	}
	img.MIMEType = imgutil.MIMETypePNG

	return img, nil
}

// noImageError explains an image-less result with whatever the model said.
func noImageError(result *GenerateResult) error {
	if result == nil {
		return ErrNoImage
	}
	if len(result.FilteredReasons) > 0 {
		return fmt.Errorf("%w: %s", ErrNoImage, strings.Join(result.FilteredReasons, "; "))
	}
	if text := strings.TrimSpace(result.Text); text != "" {
		return fmt.Errorf("%w: %s", ErrNoImage, text)
	}
	return ErrNoImage
}
