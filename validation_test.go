package pixelart

import (
	"errors"
	"strings"
	"testing"
)

func TestValidatePrompt(t *testing.T) {
	tests := []struct {
		name    string
		prompt  string
		wantErr error
	}{
		{
			name:    "valid prompt",
			prompt:  "a pixel cat",
			wantErr: nil,
		},
		{
			name:    "whitespace is not empty",
			prompt:  "   ",
			wantErr: nil,
		},
		{
			name:    "empty prompt",
			prompt:  "",
			wantErr: ErrEmptyPrompt,
		},
		{
			name:    "at limit",
			prompt:  strings.Repeat("é", MaxPromptLength),
			wantErr: nil,
		},
		{
			name:    "too long",
			prompt:  strings.Repeat("a", MaxPromptLength+1),
			wantErr: ErrPromptTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePrompt(tt.prompt)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidatePrompt() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
