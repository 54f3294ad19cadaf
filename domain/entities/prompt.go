package entities

import (
	"errors"
	"time"
)

// Prompt represents a single processed exchange: what the user said and what
// the assistant answered.
type Prompt struct {
	ID                 string    `json:"id" bson:"_id,omitempty"`
	UserID             string    `json:"user_id,omitempty" bson:"user_id,omitempty"`
	DeviceID           string    `json:"device_id,omitempty" bson:"device_id,omitempty"`
	Text               string    `json:"text" bson:"text"`
	Response           string    `json:"response" bson:"response"`
	ToolsUsed          []string  `json:"tools_used,omitempty" bson:"tools_used,omitempty"`
	ScreenshotIncluded bool      `json:"screenshot_included" bson:"screenshot_included"`
	CreatedAt          time.Time `json:"created_at" bson:"created_at"`
}

// Validate validates the prompt data before persistence
func (p *Prompt) Validate() error {
	if p.Text == "" {
		return errors.New("text is required")
	}
	if p.UserID == "" && p.DeviceID == "" {
		return errors.New("either user_id or device_id is required")
	}
	return nil
}
