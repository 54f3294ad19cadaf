package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noa-assistant/server/domain/entities"
	"github.com/noa-assistant/server/domain/repositories"
)

type IntegrationRepository struct {
	collection *mongo.Collection
}

// NewIntegrationRepository creates a new MongoDB integration repository
func NewIntegrationRepository(db *mongo.Database) repositories.IntegrationRepository {
	return &IntegrationRepository{
		collection: db.Collection("user_integrations"),
	}
}

// GetByUserAndProvider implements repositories.IntegrationRepository
func (r *IntegrationRepository) GetByUserAndProvider(ctx context.Context, userID, provider string) (*entities.UserIntegration, error) {
	if userID == "" {
		return nil, errors.New("user ID cannot be empty")
	}

	filter := bson.M{"user_id": userID, "provider": provider}

	var integration entities.UserIntegration
	err := r.collection.FindOne(ctx, filter).Decode(&integration)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil // Not connected, no error
		}
		return nil, fmt.Errorf("failed to get integration for user %s: %w", userID, err)
	}

	return &integration, nil
}

// Upsert implements repositories.IntegrationRepository
func (r *IntegrationRepository) Upsert(ctx context.Context, integration *entities.UserIntegration) error {
	if integration == nil {
		return errors.New("integration cannot be nil")
	}
	if err := integration.Validate(); err != nil {
		return err
	}

	now := time.Now()
	if integration.CreatedAt.IsZero() {
		integration.CreatedAt = now
	}
	integration.UpdatedAt = now
	if integration.ID == "" {
		integration.ID = primitive.NewObjectID().Hex()
	}

	filter := bson.M{"user_id": integration.UserID, "provider": integration.Provider}
	update := bson.M{
		"$set": bson.M{
			"access_token":     integration.AccessToken,
			"refresh_token":    integration.RefreshToken,
			"token_expires_at": integration.TokenExpiresAt,
			"updated_at":       integration.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"_id":        integration.ID,
			"user_id":    integration.UserID,
			"provider":   integration.Provider,
			"created_at": integration.CreatedAt,
		},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert integration: %w", err)
	}

	return nil
}

// UpdateTokens implements repositories.IntegrationRepository
func (r *IntegrationRepository) UpdateTokens(ctx context.Context, userID, provider, accessToken string, expiresAt, updatedAt time.Time) error {
	if userID == "" || provider == "" {
		return errors.New("user ID and provider cannot be empty")
	}

	filter := bson.M{"user_id": userID, "provider": provider}
	update := bson.M{
		"$set": bson.M{
			"access_token":     accessToken,
			"token_expires_at": expiresAt,
			"updated_at":       updatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update tokens: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("integration for user %s provider %s not found", userID, provider)
	}

	return nil
}
