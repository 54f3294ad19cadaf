package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noa-assistant/server/domain/repositories"
)

// MockLLM implements the LanguageModel interface for local development
// without API credentials.
type MockLLM struct {
	logger *zap.Logger
}

// NewMockLLM creates a new mock LLM instance
func NewMockLLM(logger *zap.Logger) *MockLLM {
	return &MockLLM{logger: logger}
}

// Complete echoes the request so the rest of the pipeline can be exercised.
func (m *MockLLM) Complete(ctx context.Context, req repositories.CompletionRequest) (string, error) {
	m.logger.Debug("Mock completion",
		zap.String("text", req.UserText),
		zap.Bool("hasContext", req.ContextBlock != nil))

	if req.ContextBlock != nil {
		return fmt.Sprintf("Based on your data: %s", *req.ContextBlock), nil
	}
	return fmt.Sprintf("You said: %s", req.UserText), nil
}
