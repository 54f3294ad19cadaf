package repositories

import "context"

// CompletionRequest is a single-turn request to the language model. Context
// gathered from the user's calendar or inbox goes into ContextBlock; the
// adapter decides how to splice it into the provider's message format.
type CompletionRequest struct {
	SystemPrompt string
	UserText     string
	// ContextBlock is extra grounding text, nil when no context was gathered.
	ContextBlock *string
	// ScreenshotPNG is a base64-encoded PNG of the user's screen, empty when
	// the request carries no image.
	ScreenshotPNG string
}

// LanguageModel abstracts the hosted LLM inference provider.
type LanguageModel interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
