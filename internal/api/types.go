package api

import "time"

// ProcessRequest represents the request payload for prompt processing
type ProcessRequest struct {
	Text       string `json:"text" validate:"required"`
	UserID     string `json:"user_id,omitempty"`
	DeviceID   string `json:"device_id,omitempty"`
	Screenshot string `json:"screenshot,omitempty"` // base64-encoded PNG
}

// ProcessResponse represents the response payload for prompt processing
type ProcessResponse struct {
	Response  string   `json:"response"`
	PromptID  string   `json:"prompt_id,omitempty"`
	ToolsUsed []string `json:"tools_used,omitempty"`
}

// TranscribeResponse represents the response payload for audio transcription
type TranscribeResponse struct {
	Text string `json:"text"`
}

// DeviceAuthRequest represents the request payload for device authentication
type DeviceAuthRequest struct {
	SerialNumber string `json:"serial_number" validate:"required"`
	SecretKey    string `json:"secret_key" validate:"required"`
}

// DeviceAuthResponse represents the response payload for device authentication
type DeviceAuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	DeviceID  string    `json:"device_id"`
}

// IntegrationStatusResponse reports whether a user's Google integration is
// connected and usable.
type IntegrationStatusResponse struct {
	Provider  string `json:"provider"`
	Connected bool   `json:"connected"`
	Expired   bool   `json:"expired,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
