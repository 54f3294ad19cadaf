package websocket

import (
	"encoding/json"
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Supported message types
const (
	MessageTypeListeningStart MessageType = "listening_start"
	MessageTypeListeningEnd   MessageType = "listening_end"
	MessageTypeTranscription  MessageType = "transcription"
	MessageTypeResponse       MessageType = "response"
	MessageTypeError          MessageType = "error"
)

// BaseMessage defines the common structure for all WebSocket messages
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp int64       `json:"timestamp,omitempty"`
}

// ListeningStartMessage opens an audio capture session. The audio fields are
// optional and fall back to the device defaults.
type ListeningStartMessage struct {
	BaseMessage
	SampleRate int    `json:"sample_rate,omitempty"`
	Encoding   string `json:"encoding,omitempty"`
	Language   string `json:"language,omitempty"`
}

// TranscriptionMessage carries the recognized text back to the device
// as soon as the audio stream is finalized.
type TranscriptionMessage struct {
	BaseMessage
	Text string `json:"text"`
}

// ResponseMessage carries the assistant's answer for an utterance.
type ResponseMessage struct {
	BaseMessage
	Text      string   `json:"text"`
	PromptID  string   `json:"prompt_id,omitempty"`
	ToolsUsed []string `json:"tools_used,omitempty"`
}

// ErrorMessage represents an error response
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

func newTranscriptionMessage(text string) *TranscriptionMessage {
	return &TranscriptionMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeTranscription,
			Timestamp: time.Now().Unix(),
		},
		Text: text,
	}
}

func newResponseMessage(text, promptID string, toolsUsed []string) *ResponseMessage {
	return &ResponseMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeResponse,
			Timestamp: time.Now().Unix(),
		},
		Text:      text,
		PromptID:  promptID,
		ToolsUsed: toolsUsed,
	}
}

func newErrorMessage(code, message string) *ErrorMessage {
	return &ErrorMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeError,
			Timestamp: time.Now().Unix(),
		},
		Code:    code,
		Message: message,
	}
}

func marshalMessage(msg interface{}) []byte {
	payload, _ := json.Marshal(msg)
	return payload
}
