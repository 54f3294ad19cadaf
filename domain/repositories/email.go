package repositories

import (
	"context"

	"github.com/noa-assistant/server/domain/entities"
)

// EmailProvider abstracts the external mail service.
type EmailProvider interface {
	ListUnread(ctx context.Context, userID string, limit int) ([]entities.Email, error)
	Search(ctx context.Context, userID string, query string, limit int) ([]entities.Email, error)
	CountUnread(ctx context.Context, userID string) (int, error)
}
