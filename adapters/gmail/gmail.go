package gmail

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"go.uber.org/zap"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/noa-assistant/server/adapters/google"
	"github.com/noa-assistant/server/domain/entities"
	"github.com/noa-assistant/server/domain/repositories"
)

const (
	gmailUser   = "me"
	unreadQuery = "is:unread in:inbox"
)

// GmailProvider implements EmailProvider using the Gmail API. Only message
// metadata is fetched, never bodies.
type GmailProvider struct {
	tokens *google.TokenManager
	logger *zap.Logger
}

// NewGmailProvider creates a new Gmail adapter
func NewGmailProvider(tokens *google.TokenManager, logger *zap.Logger) *GmailProvider {
	return &GmailProvider{tokens: tokens, logger: logger}
}

func (g *GmailProvider) service(ctx context.Context, userID string) (*gmailapi.Service, error) {
	client, err := g.tokens.HTTPClient(ctx, userID)
	if err != nil {
		return nil, err
	}

	svc, err := gmailapi.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, repositories.NewProviderError("gmail", repositories.ErrorKindTransient,
			fmt.Errorf("failed to create gmail service: %w", err))
	}
	return svc, nil
}

// ListUnread returns the newest unread inbox messages.
func (g *GmailProvider) ListUnread(ctx context.Context, userID string, limit int) ([]entities.Email, error) {
	return g.list(ctx, userID, unreadQuery, limit)
}

// Search returns messages matching a Gmail search expression.
func (g *GmailProvider) Search(ctx context.Context, userID string, query string, limit int) ([]entities.Email, error) {
	return g.list(ctx, userID, query, limit)
}

// CountUnread reports the unread count for the inbox.
func (g *GmailProvider) CountUnread(ctx context.Context, userID string) (int, error) {
	svc, err := g.service(ctx, userID)
	if err != nil {
		return 0, err
	}

	label, err := svc.Users.Labels.Get(gmailUser, "INBOX").Context(ctx).Do()
	if err != nil {
		g.logger.Error("Failed to get inbox label",
			zap.String("user_id", userID),
			zap.Error(err))
		return 0, google.ClassifyAPIError("gmail", err)
	}

	return int(label.MessagesUnread), nil
}

func (g *GmailProvider) list(ctx context.Context, userID, query string, limit int) ([]entities.Email, error) {
	svc, err := g.service(ctx, userID)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 10
	}

	resp, err := svc.Users.Messages.List(gmailUser).
		Context(ctx).
		Q(query).
		MaxResults(int64(limit)).
		Do()
	if err != nil {
		g.logger.Error("Failed to list messages",
			zap.String("user_id", userID),
			zap.String("query", query),
			zap.Error(err))
		return nil, google.ClassifyAPIError("gmail", err)
	}

	emails := make([]entities.Email, 0, len(resp.Messages))
	for _, ref := range resp.Messages {
		msg, err := svc.Users.Messages.Get(gmailUser, ref.Id).
			Context(ctx).
			Format("metadata").
			MetadataHeaders("From", "To", "Subject", "Date").
			Do()
		if err != nil {
			// One unreadable message should not sink the whole lookup.
			g.logger.Warn("Failed to get message metadata",
				zap.String("message_id", ref.Id),
				zap.Error(err))
			continue
		}
		emails = append(emails, toEntity(msg))
	}

	return emails, nil
}

// toEntity converts message metadata to the domain representation.
func toEntity(msg *gmailapi.Message) entities.Email {
	email := entities.Email{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Snippet:  msg.Snippet,
		Labels:   msg.LabelIds,
	}

	for _, label := range msg.LabelIds {
		if label == "UNREAD" {
			email.IsUnread = true
			break
		}
	}

	if msg.Payload != nil {
		for _, header := range msg.Payload.Headers {
			switch header.Name {
			case "From":
				email.From = header.Value
			case "To":
				email.To = header.Value
			case "Subject":
				email.Subject = header.Value
			case "Date":
				if date, err := mail.ParseDate(header.Value); err == nil {
					email.Date = date
				}
			}
		}
	}

	if email.Date.IsZero() && msg.InternalDate > 0 {
		email.Date = time.UnixMilli(msg.InternalDate)
	}

	return email
}
