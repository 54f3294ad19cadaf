package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/noa-assistant/server/domain/repositories"
)

// GeminiLLM implements the LanguageModel interface using Google's Gemini API
type GeminiLLM struct {
	client *genai.Client
	logger *zap.Logger
	model  string
}

// NewGeminiLLM creates a new Gemini LLM instance
func NewGeminiLLM(logger *zap.Logger) (*GeminiLLM, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiLLM{
		client: client,
		logger: logger,
		model:  "gemini-2.0-flash",
	}, nil
}

// Complete generates a response for a single utterance.
func (g *GeminiLLM) Complete(ctx context.Context, req repositories.CompletionRequest) (string, error) {
	userText := req.UserText
	if req.ContextBlock != nil {
		userText = fmt.Sprintf("Context:\n%s\n\nUser request: %s", *req.ContextBlock, req.UserText)
	}

	parts := []*genai.Part{genai.NewPartFromText(userText)}
	if req.ScreenshotPNG != "" {
		imageData, err := base64.StdEncoding.DecodeString(req.ScreenshotPNG)
		if err != nil {
			return "", fmt.Errorf("invalid screenshot encoding: %w", err)
		}
		parts = append(parts, genai.NewPartFromBytes(imageData, "image/png"))
	}

	// Gemini has no separate system role; the instruction leads the contents.
	contents := []*genai.Content{
		genai.NewContentFromText(req.SystemPrompt, genai.RoleUser),
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{})
	if err != nil {
		g.logger.Error("Gemini completion failed", zap.Error(err))
		return "", repositories.NewProviderError("gemini", repositories.ErrorKindTransient, err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", repositories.NewProviderError("gemini", repositories.ErrorKindTransient,
			fmt.Errorf("completion returned no candidates"))
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		text += part.Text
	}
	return text, nil
}
