// Package app holds the page state of the pixel art generator and the
// controller that drives it through a generation request.
package app

const (
	// DataURLPrefix is prepended to the base64 payload to form a displayable image source.
	DataURLPrefix = "data:image/png;base64,"

	// ValidationMessage is shown when the user submits an empty prompt.
	ValidationMessage = "Please enter a prompt."

	// UnknownErrorMessage is shown when a failure carries no message of its own.
	UnknownErrorMessage = "An unknown error occurred."
)

// State is everything the page renders.
type State struct {
	Prompt   string `json:"prompt,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
	Loading  bool   `json:"isLoading"`
	Error    string `json:"error,omitempty"`
}

// HasImage reports whether an image is available for display.
func (s State) HasImage() bool { return s.ImageURL != "" }

// HasError reports whether an error message is set.
func (s State) HasError() bool { return s.Error != "" }

// Event is a state transition input. See Reduce.
type Event interface {
	isEvent()
}

// Rejected records a prompt that failed validation. The image and loading
// flag are left as they were.
type Rejected struct {
	Prompt  string
	Message string
}

// Started marks the beginning of a generation request.
type Started struct {
	Prompt string
}

// Succeeded carries the data URL of a finished image.
type Succeeded struct {
	ImageURL string
}

// Failed carries the message of a failed request.
type Failed struct {
	Message string
}

func (Rejected) isEvent()  {}
func (Started) isEvent()   {}
func (Succeeded) isEvent() {}
func (Failed) isEvent()    {}

// Reduce returns the state that follows s after e.
func Reduce(s State, e Event) State {
	switch e := e.(type) {
	case Rejected:
		s.Prompt = e.Prompt
		s.Error = e.Message
	case Started:
		s.Prompt = e.Prompt
		s.Loading = true
		s.Error = ""
		s.ImageURL = ""
	case Succeeded:
		s.ImageURL = e.ImageURL
		s.Loading = false
	case Failed:
		s.Error = e.Message
		s.Loading = false
	}
	return s
}

// DataURL turns a base64 PNG payload into a data URL. The payload is used as is.
func DataURL(payload string) string {
	return DataURLPrefix + payload
}

// FailureMessage is the message recorded for a failed request.
func FailureMessage(err error) string {
	if err == nil {
		return UnknownErrorMessage
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return UnknownErrorMessage
}
