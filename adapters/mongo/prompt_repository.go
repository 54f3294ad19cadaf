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

type PromptRepository struct {
	collection *mongo.Collection
}

// NewPromptRepository creates a new MongoDB prompt repository
func NewPromptRepository(db *mongo.Database) repositories.PromptRepository {
	return &PromptRepository{
		collection: db.Collection("prompts"),
	}
}

// Create implements repositories.PromptRepository
func (r *PromptRepository) Create(ctx context.Context, prompt *entities.Prompt) error {
	if prompt == nil {
		return errors.New("prompt cannot be nil")
	}
	if err := prompt.Validate(); err != nil {
		return err
	}

	if prompt.CreatedAt.IsZero() {
		prompt.CreatedAt = time.Now()
	}
	if prompt.ID == "" {
		// String IDs keep the entity decodable without a custom registry.
		prompt.ID = primitive.NewObjectID().Hex()
	}

	doc := bson.M{
		"_id":                 prompt.ID,
		"user_id":             prompt.UserID,
		"device_id":           prompt.DeviceID,
		"text":                prompt.Text,
		"response":            prompt.Response,
		"tools_used":          prompt.ToolsUsed,
		"screenshot_included": prompt.ScreenshotIncluded,
		"created_at":          prompt.CreatedAt,
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create prompt: %w", err)
	}

	return nil
}

// ListByUser implements repositories.PromptRepository
func (r *PromptRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*entities.Prompt, error) {
	if userID == "" {
		return nil, errors.New("user ID cannot be empty")
	}
	return r.list(ctx, bson.M{"user_id": userID}, limit)
}

// ListByDevice implements repositories.PromptRepository
func (r *PromptRepository) ListByDevice(ctx context.Context, deviceID string, limit int) ([]*entities.Prompt, error) {
	if deviceID == "" {
		return nil, errors.New("device ID cannot be empty")
	}
	return r.list(ctx, bson.M{"device_id": deviceID}, limit)
}

func (r *PromptRepository) list(ctx context.Context, filter bson.M, limit int) ([]*entities.Prompt, error) {
	if limit <= 0 {
		limit = 20
	}

	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list prompts: %w", err)
	}
	defer cursor.Close(ctx)

	var prompts []*entities.Prompt
	if err := cursor.All(ctx, &prompts); err != nil {
		return nil, fmt.Errorf("failed to decode prompts: %w", err)
	}

	return prompts, nil
}
