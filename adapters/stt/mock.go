package stt

import (
	"bytes"
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noa-assistant/server/domain/repositories"
)

// MockSpeechToText implements SpeechToText for local development
// without API credentials.
type MockSpeechToText struct {
	logger *zap.Logger
}

// NewMockSpeechToText creates a new mock STT adapter
func NewMockSpeechToText(logger *zap.Logger) *MockSpeechToText {
	return &MockSpeechToText{logger: logger}
}

func (m *MockSpeechToText) TranscribeAudio(ctx context.Context, audioData []byte, config repositories.AudioConfig) (string, error) {
	if len(audioData) == 0 {
		return "", fmt.Errorf("no audio data received")
	}
	m.logger.Debug("Mock transcription", zap.Int("bytes", len(audioData)))
	return "what's on my calendar today", nil
}

func (m *MockSpeechToText) InitTranscribeStreaming(ctx context.Context, config repositories.AudioConfig) (repositories.SpeechToTextStreaming, error) {
	return &mockStream{parent: m, ctx: ctx, config: config}, nil
}

type mockStream struct {
	parent *MockSpeechToText
	ctx    context.Context
	config repositories.AudioConfig
	buffer bytes.Buffer
}

func (s *mockStream) Stream(data []byte) error {
	_, err := s.buffer.Write(data)
	return err
}

func (s *mockStream) End() (string, error) {
	return s.parent.TranscribeAudio(s.ctx, s.buffer.Bytes(), s.config)
}
