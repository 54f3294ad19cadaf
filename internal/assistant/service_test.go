package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/noa-assistant/server/domain/entities"
	"github.com/noa-assistant/server/domain/repositories"
)

type fakeLLM struct {
	lastReq repositories.CompletionRequest
	reply   string
	err     error
}

func (f *fakeLLM) Complete(ctx context.Context, req repositories.CompletionRequest) (string, error) {
	f.lastReq = req
	if f.err != nil {
		return "", f.err
	}
	if f.reply == "" {
		return "ok", nil
	}
	return f.reply, nil
}

type fakeEmail struct {
	emails []entities.Email
	err    error

	searchQueries []string
	unreadCalls   int
}

func (f *fakeEmail) ListUnread(ctx context.Context, userID string, limit int) ([]entities.Email, error) {
	f.unreadCalls++
	return f.emails, f.err
}

func (f *fakeEmail) Search(ctx context.Context, userID string, query string, limit int) ([]entities.Email, error) {
	f.searchQueries = append(f.searchQueries, query)
	return f.emails, f.err
}

func (f *fakeEmail) CountUnread(ctx context.Context, userID string) (int, error) {
	return len(f.emails), f.err
}

type fakePrompts struct {
	created []*entities.Prompt
	err     error
}

func (f *fakePrompts) Create(ctx context.Context, prompt *entities.Prompt) error {
	if f.err != nil {
		return f.err
	}
	prompt.ID = "prompt-1"
	f.created = append(f.created, prompt)
	return nil
}

func (f *fakePrompts) ListByUser(ctx context.Context, userID string, limit int) ([]*entities.Prompt, error) {
	return f.created, nil
}

func (f *fakePrompts) ListByDevice(ctx context.Context, deviceID string, limit int) ([]*entities.Prompt, error) {
	return f.created, nil
}

func newTestService(t *testing.T, llm *fakeLLM, email *fakeEmail, cal *fakeCalendar, prompts *fakePrompts) *Service {
	t.Helper()
	logger := zaptest.NewLogger(t)
	return NewService(llm, email, NewDispatcher(cal, logger), prompts, logger)
}

func TestProcessCalendarQuery(t *testing.T) {
	llm := &fakeLLM{reply: "You have a design review at 3."}
	cal := &fakeCalendar{events: []entities.CalendarEvent{{Summary: "Design review"}}}
	prompts := &fakePrompts{}
	s := newTestService(t, llm, &fakeEmail{}, cal, prompts)

	result, err := s.Process(context.Background(), ProcessRequest{
		Text:   "what's on my calendar today",
		UserID: "user-1",
	})
	if err != nil {
		t.Fatal(err)
	}

	if result.Response != "You have a design review at 3." {
		t.Errorf("response = %q", result.Response)
	}
	if len(result.ToolsUsed) != 1 || result.ToolsUsed[0] != "calendar_query" {
		t.Errorf("tools = %v, want [calendar_query]", result.ToolsUsed)
	}
	if llm.lastReq.ContextBlock == nil {
		t.Fatal("expected a context block for a calendar query")
	}
	if !strings.Contains(*llm.lastReq.ContextBlock, "Design review") {
		t.Errorf("context block = %q", *llm.lastReq.ContextBlock)
	}
	if result.PromptID != "prompt-1" {
		t.Errorf("prompt id = %q", result.PromptID)
	}
}

func TestProcessNonCalendarUtteranceHasNoContext(t *testing.T) {
	llm := &fakeLLM{}
	cal := &fakeCalendar{}
	s := newTestService(t, llm, &fakeEmail{}, cal, &fakePrompts{})

	_, err := s.Process(context.Background(), ProcessRequest{
		Text:   "tell me a joke",
		UserID: "user-1",
	})
	if err != nil {
		t.Fatal(err)
	}

	if llm.lastReq.ContextBlock != nil {
		t.Errorf("context block should be absent, got %q", *llm.lastReq.ContextBlock)
	}
	if len(cal.listWindows) != 0 {
		t.Error("calendar should not be queried for a non-calendar utterance")
	}
}

func TestProcessAnonymousSkipsIntegrations(t *testing.T) {
	llm := &fakeLLM{}
	cal := &fakeCalendar{}
	email := &fakeEmail{}
	s := newTestService(t, llm, email, cal, &fakePrompts{})

	result, err := s.Process(context.Background(), ProcessRequest{
		Text:     "what's on my calendar today",
		DeviceID: "device-7",
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(cal.listWindows) != 0 || email.unreadCalls != 0 {
		t.Error("integrations must not be consulted without a user id")
	}
	if len(result.ToolsUsed) != 0 {
		t.Errorf("tools = %v, want none", result.ToolsUsed)
	}
}

func TestProcessCreateUsesDispatcher(t *testing.T) {
	llm := &fakeLLM{}
	cal := &fakeCalendar{}
	s := newTestService(t, llm, &fakeEmail{}, cal, &fakePrompts{})

	result, err := s.Process(context.Background(), ProcessRequest{
		Text:   "schedule a meeting with Alex tomorrow at 3pm",
		UserID: "user-1",
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(cal.quickAdded) != 1 {
		t.Fatalf("quick-add calls = %d, want 1", len(cal.quickAdded))
	}
	if len(result.ToolsUsed) != 1 || result.ToolsUsed[0] != "calendar_create" {
		t.Errorf("tools = %v, want [calendar_create]", result.ToolsUsed)
	}
}

func TestProcessEmailSenderSearch(t *testing.T) {
	llm := &fakeLLM{}
	email := &fakeEmail{emails: []entities.Email{{From: "sarah@example.com", Subject: "Q3"}}}
	s := newTestService(t, llm, email, &fakeCalendar{}, &fakePrompts{})

	result, err := s.Process(context.Background(), ProcessRequest{
		Text:   "any emails from Sarah",
		UserID: "user-1",
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(email.searchQueries) != 1 || email.searchQueries[0] != "from:Sarah" {
		t.Errorf("search queries = %v", email.searchQueries)
	}
	if llm.lastReq.ContextBlock == nil || !strings.Contains(*llm.lastReq.ContextBlock, "sarah@example.com") {
		t.Errorf("context block = %v", llm.lastReq.ContextBlock)
	}
	if len(result.ToolsUsed) != 1 || result.ToolsUsed[0] != "gmail_query" {
		t.Errorf("tools = %v, want [gmail_query]", result.ToolsUsed)
	}
}

func TestProcessUnreadListingReportsCount(t *testing.T) {
	llm := &fakeLLM{}
	email := &fakeEmail{emails: []entities.Email{
		{From: "sarah@example.com", Subject: "Q3"},
		{From: "ben@example.com", Subject: "Invoice"},
	}}
	s := newTestService(t, llm, email, &fakeCalendar{}, &fakePrompts{})

	_, err := s.Process(context.Background(), ProcessRequest{
		Text:   "any new emails",
		UserID: "user-1",
	})
	if err != nil {
		t.Fatal(err)
	}

	if email.unreadCalls != 1 {
		t.Errorf("unread calls = %d, want 1", email.unreadCalls)
	}
	if llm.lastReq.ContextBlock == nil || !strings.HasPrefix(*llm.lastReq.ContextBlock, "You have 2 unread emails.\n") {
		t.Errorf("context block = %v, want unread count header", llm.lastReq.ContextBlock)
	}
}

func TestProcessEmailEmptyResultStillInContext(t *testing.T) {
	llm := &fakeLLM{}
	email := &fakeEmail{}
	s := newTestService(t, llm, email, &fakeCalendar{}, &fakePrompts{})

	_, err := s.Process(context.Background(), ProcessRequest{
		Text:   "any new emails",
		UserID: "user-1",
	})
	if err != nil {
		t.Fatal(err)
	}

	if llm.lastReq.ContextBlock == nil || *llm.lastReq.ContextBlock != "No matching emails found." {
		t.Errorf("context block = %v, want the empty-result sentence verbatim", llm.lastReq.ContextBlock)
	}
}

func TestProcessEmailNotConnected(t *testing.T) {
	llm := &fakeLLM{}
	email := &fakeEmail{err: repositories.NewProviderError("gmail", repositories.ErrorKindUnauthenticated, errors.New("no tokens"))}
	s := newTestService(t, llm, email, &fakeCalendar{}, &fakePrompts{})

	_, err := s.Process(context.Background(), ProcessRequest{
		Text:   "check my inbox",
		UserID: "user-1",
	})
	if err != nil {
		t.Fatal(err)
	}

	if llm.lastReq.ContextBlock == nil || !strings.HasPrefix(*llm.lastReq.ContextBlock, "[") {
		t.Errorf("context block = %v, want bracketed connect instruction", llm.lastReq.ContextBlock)
	}
}

func TestProcessSaveFailureDoesNotFailResponse(t *testing.T) {
	llm := &fakeLLM{reply: "hello"}
	s := newTestService(t, llm, &fakeEmail{}, &fakeCalendar{}, &fakePrompts{err: errors.New("db down")})

	result, err := s.Process(context.Background(), ProcessRequest{
		Text:     "tell me a joke",
		DeviceID: "device-7",
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Response != "hello" {
		t.Errorf("response = %q", result.Response)
	}
	if result.PromptID != "" {
		t.Errorf("prompt id = %q, want empty after failed save", result.PromptID)
	}
}

func TestProcessModelFailurePropagates(t *testing.T) {
	llm := &fakeLLM{err: errors.New("inference down")}
	s := newTestService(t, llm, &fakeEmail{}, &fakeCalendar{}, &fakePrompts{})

	_, err := s.Process(context.Background(), ProcessRequest{Text: "hi", DeviceID: "device-7"})
	if err == nil {
		t.Fatal("expected an error")
	}
}
