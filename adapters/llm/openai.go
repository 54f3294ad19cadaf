package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"

	"github.com/noa-assistant/server/domain/repositories"
)

// OpenAILLM implements the LanguageModel interface using OpenAI's chat API
type OpenAILLM struct {
	client openai.Client
	logger *zap.Logger
	model  openai.ChatModel
}

// NewOpenAILLM creates a new OpenAI LLM instance
func NewOpenAILLM(logger *zap.Logger) (*OpenAILLM, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required")
	}

	return &OpenAILLM{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		logger: logger,
		model:  openai.ChatModelGPT4o,
	}, nil
}

// Complete generates a response for a single utterance.
func (o *OpenAILLM) Complete(ctx context.Context, req repositories.CompletionRequest) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(req.SystemPrompt),
	}

	userText := req.UserText
	if req.ContextBlock != nil {
		userText = fmt.Sprintf("Context:\n%s\n\nUser request: %s", *req.ContextBlock, req.UserText)
	}

	if req.ScreenshotPNG != "" {
		parts := []openai.ChatCompletionContentPartUnionParam{
			openai.TextContentPart(userText),
			openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
				URL: "data:image/png;base64," + req.ScreenshotPNG,
			}),
		}
		messages = append(messages, openai.UserMessage(parts))
	} else {
		messages = append(messages, openai.UserMessage(userText))
	}

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    o.model,
	})
	if err != nil {
		o.logger.Error("OpenAI completion failed", zap.Error(err))
		return "", repositories.NewProviderError("openai", repositories.ErrorKindTransient, err)
	}
	if len(resp.Choices) == 0 {
		return "", repositories.NewProviderError("openai", repositories.ErrorKindTransient,
			fmt.Errorf("completion returned no choices"))
	}

	return resp.Choices[0].Message.Content, nil
}
