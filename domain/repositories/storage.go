package repositories

import (
	"context"
	"time"

	"github.com/noa-assistant/server/domain/entities"
)

// PromptRepository defines data access methods for processed prompts
type PromptRepository interface {
	Create(ctx context.Context, prompt *entities.Prompt) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*entities.Prompt, error)
	ListByDevice(ctx context.Context, deviceID string, limit int) ([]*entities.Prompt, error)
}

// IntegrationRepository defines data access methods for stored OAuth tokens
type IntegrationRepository interface {
	GetByUserAndProvider(ctx context.Context, userID, provider string) (*entities.UserIntegration, error)
	Upsert(ctx context.Context, integration *entities.UserIntegration) error
	// UpdateTokens persists refreshed credentials for an existing integration.
	UpdateTokens(ctx context.Context, userID, provider, accessToken string, expiresAt, updatedAt time.Time) error
}

// DeviceRepository defines data access methods for devices
type DeviceRepository interface {
	Create(ctx context.Context, device *entities.Device) error
	GetByID(ctx context.Context, id string) (*entities.Device, error)
	GetBySerialNumber(ctx context.Context, serialNumber string) (*entities.Device, error)
	// ValidateDevice validates device credentials for authentication
	ValidateDevice(serialNumber, secret string) (*entities.Device, error)
}
