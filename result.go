package pixelart

// SafetyCategory represents a content safety category.
type SafetyCategory string

const (
	SafetyCategoryHarassment       SafetyCategory = "HARM_CATEGORY_HARASSMENT"
	SafetyCategoryHateSpeech       SafetyCategory = "HARM_CATEGORY_HATE_SPEECH"
	SafetyCategorySexuallyExplicit SafetyCategory = "HARM_CATEGORY_SEXUALLY_EXPLICIT"
	SafetyCategoryDangerousContent SafetyCategory = "HARM_CATEGORY_DANGEROUS_CONTENT"
)

// SafetyThreshold represents the blocking threshold for safety filters.
type SafetyThreshold string

const (
	SafetyThresholdBlockNone      SafetyThreshold = "BLOCK_NONE"
	SafetyThresholdBlockLowAndUp  SafetyThreshold = "BLOCK_LOW_AND_ABOVE"
	SafetyThresholdBlockMedAndUp  SafetyThreshold = "BLOCK_MEDIUM_AND_ABOVE"
	SafetyThresholdBlockHighAndUp SafetyThreshold = "BLOCK_ONLY_HIGH"
)

// SafetySetting configures content filtering for a specific category.
type SafetySetting struct {
	Category  SafetyCategory
	Threshold SafetyThreshold
}

// GeneratedImage is a single image returned by a model.
type GeneratedImage struct {
	Data     []byte
	MIMEType string

	// Index is the position in a multi-image result (0-indexed)
	Index int

	// RevisedPrompt is the prompt after any model rewriting, when reported.
	RevisedPrompt string
}

// GenerateResult holds the complete result of an image generation request.
type GenerateResult struct {
	Images []GeneratedImage

	// Text contains any text response from the model
	Text string

	// FilteredReasons lists why images were withheld by safety filters.
	FilteredReasons []string

	UsageMetadata *UsageMetadata
}

// FirstImage returns the first image of the result.
func (r *GenerateResult) FirstImage() (GeneratedImage, bool) {
	if r == nil || len(r.Images) == 0 {
		return GeneratedImage{}, false
	}
	return r.Images[0], true
}

// UsageMetadata contains usage information for billing and monitoring.
type UsageMetadata struct {
	PromptTokens     int
	CandidatesTokens int
	TotalTokens      int
	ImageCount       int
}
