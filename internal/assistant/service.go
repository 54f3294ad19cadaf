package assistant

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noa-assistant/server/domain/entities"
	"github.com/noa-assistant/server/domain/repositories"
)

const systemPrompt = `You are noa, a helpful personal AI assistant.
You help users with questions about their digital life - calendar, emails, files, and more.
Be concise, friendly, and helpful. Keep responses brief unless more detail is requested.
When context about the user's calendar or inbox is provided, ground your answer in it.`

const emailNotConnectedMsg = "[Gmail not connected. Tell the user to connect their Google account in the dashboard settings to use email features.]"

const emailLookupLimit = 10

// ProcessRequest is one utterance to run through the assistant pipeline.
type ProcessRequest struct {
	Text          string
	UserID        string
	DeviceID      string
	ScreenshotPNG string
}

// ProcessResult is the assistant's answer plus what it did to produce it.
type ProcessResult struct {
	Response  string
	PromptID  string
	ToolsUsed []string
}

// Service runs the prompt-processing pipeline: classify the utterance,
// gather calendar and email context, call the model, persist the exchange.
type Service struct {
	llm        repositories.LanguageModel
	email      repositories.EmailProvider
	dispatcher *Dispatcher
	prompts    repositories.PromptRepository
	logger     *zap.Logger
}

// NewService wires the pipeline's collaborators together.
func NewService(
	llm repositories.LanguageModel,
	email repositories.EmailProvider,
	dispatcher *Dispatcher,
	prompts repositories.PromptRepository,
	logger *zap.Logger,
) *Service {
	return &Service{
		llm:        llm,
		email:      email,
		dispatcher: dispatcher,
		prompts:    prompts,
		logger:     logger,
	}
}

// Process handles a single utterance end to end. Context gathering failures
// degrade to instructional strings inside the context block; only a model
// failure propagates as an error. The calendar lookup always runs before the
// email lookup so the combined block keeps a stable order.
func (s *Service) Process(ctx context.Context, req ProcessRequest) (ProcessResult, error) {
	var tools []string
	var calendarBlock, emailBlock *string

	// Calendar and email context require a signed-in user with stored tokens.
	if req.UserID != "" {
		intent := ClassifyIntent(req.Text)
		switch intent {
		case IntentCreate:
			result := s.dispatcher.HandleCreate(ctx, req.UserID, req.Text)
			calendarBlock = &result
			tools = append(tools, "calendar_create")
		case IntentDelete:
			result := s.dispatcher.HandleDelete(ctx, req.UserID, req.Text)
			calendarBlock = &result
			tools = append(tools, "calendar_delete")
		case IntentQuery:
			result := s.dispatcher.HandleQuery(ctx, req.UserID, req.Text)
			calendarBlock = &result
			tools = append(tools, "calendar_query")
		}

		if IsEmailQuery(req.Text) {
			result := s.gatherEmailContext(ctx, req.UserID, req.Text)
			emailBlock = &result
			tools = append(tools, "gmail_query")
		}
	}

	response, err := s.llm.Complete(ctx, repositories.CompletionRequest{
		SystemPrompt:  systemPrompt,
		UserText:      req.Text,
		ContextBlock:  CombineContext(calendarBlock, emailBlock),
		ScreenshotPNG: req.ScreenshotPNG,
	})
	if err != nil {
		return ProcessResult{}, fmt.Errorf("model completion: %w", err)
	}

	prompt := &entities.Prompt{
		UserID:             req.UserID,
		DeviceID:           req.DeviceID,
		Text:               req.Text,
		Response:           response,
		ToolsUsed:          tools,
		ScreenshotIncluded: req.ScreenshotPNG != "",
		CreatedAt:          time.Now(),
	}
	// A failed save must not fail the response.
	if err := s.prompts.Create(ctx, prompt); err != nil {
		s.logger.Error("Failed to save prompt",
			zap.String("user_id", req.UserID),
			zap.String("device_id", req.DeviceID),
			zap.Error(err))
	}

	return ProcessResult{
		Response:  response,
		PromptID:  prompt.ID,
		ToolsUsed: tools,
	}, nil
}

// gatherEmailContext answers mail-related utterances: a search when the user
// named a sender, the unread list otherwise.
func (s *Service) gatherEmailContext(ctx context.Context, userID, text string) string {
	if sender, ok := ExtractSender(text); ok {
		emails, err := s.email.Search(ctx, userID, "from:"+sender, emailLookupLimit)
		if err != nil {
			return s.emailFailureContext(userID, err)
		}
		return FormatEmailsForContext(emails)
	}

	emails, err := s.email.ListUnread(ctx, userID, emailLookupLimit)
	if err != nil {
		return s.emailFailureContext(userID, err)
	}

	block := FormatEmailsForContext(emails)
	// The list is capped, so the total unread count is reported separately.
	if count, err := s.email.CountUnread(ctx, userID); err == nil && count > 0 {
		block = fmt.Sprintf("You have %d unread emails.\n%s", count, block)
	}
	return block
}

func (s *Service) emailFailureContext(userID string, err error) string {
	if repositories.IsNotConnected(err) {
		return emailNotConnectedMsg
	}
	s.logger.Warn("Email lookup failed",
		zap.String("user_id", userID),
		zap.Error(err))
	return "Email lookup failed. Ask the user to try again."
}
