package pixelart

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Validation errors
var (
	ErrEmptyPrompt   = errors.New("prompt cannot be empty")
	ErrPromptTooLong = errors.New("prompt exceeds maximum length")
)

// MaxPromptLength bounds the user prompt in runes. The style template is
// added on top of this.
const MaxPromptLength = 2000

// ValidatePrompt validates a user prompt. Only the empty string is rejected as
// empty; whitespace is passed through to the model unchanged.
func ValidatePrompt(prompt string) error {
	if prompt == "" {
		return ErrEmptyPrompt
	}
	if n := utf8.RuneCountInString(prompt); n > MaxPromptLength {
		return fmt.Errorf("%w: %d characters (max %d)", ErrPromptTooLong, n, MaxPromptLength)
	}
	return nil
}
