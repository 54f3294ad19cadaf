package stt

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"

	"github.com/noa-assistant/server/domain/repositories"
)

// WhisperSpeechToText implements SpeechToText using OpenAI's Whisper API.
// Whisper has no streaming endpoint, so streaming sessions buffer chunks
// and transcribe the whole utterance on End.
type WhisperSpeechToText struct {
	client openai.Client
	logger *zap.Logger
}

// NewWhisperSpeechToText creates a new Whisper STT adapter
func NewWhisperSpeechToText(logger *zap.Logger) (*WhisperSpeechToText, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required")
	}

	return &WhisperSpeechToText{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		logger: logger,
	}, nil
}

// TranscribeAudio converts a complete recording to text.
func (w *WhisperSpeechToText) TranscribeAudio(ctx context.Context, audioData []byte, config repositories.AudioConfig) (string, error) {
	if len(audioData) == 0 {
		return "", fmt.Errorf("no audio data received")
	}

	filename, contentType := audioFileMeta(config.Encoding)

	resp, err := w.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(audioData), filename, contentType),
		Model: openai.AudioModelWhisper1,
	})
	if err != nil {
		w.logger.Error("Whisper transcription failed", zap.Error(err))
		return "", repositories.NewProviderError("whisper", repositories.ErrorKindTransient, err)
	}

	return strings.TrimSpace(resp.Text), nil
}

// InitTranscribeStreaming starts a buffering session.
func (w *WhisperSpeechToText) InitTranscribeStreaming(ctx context.Context, config repositories.AudioConfig) (repositories.SpeechToTextStreaming, error) {
	return &whisperStream{
		parent: w,
		ctx:    ctx,
		config: config,
	}, nil
}

type whisperStream struct {
	parent *WhisperSpeechToText
	ctx    context.Context
	config repositories.AudioConfig

	mu     sync.Mutex
	buffer bytes.Buffer
}

func (s *whisperStream) Stream(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.buffer.Write(data)
	return err
}

func (s *whisperStream) End() (string, error) {
	s.mu.Lock()
	audioData := s.buffer.Bytes()
	s.mu.Unlock()

	return s.parent.TranscribeAudio(s.ctx, audioData, s.config)
}

// audioFileMeta picks the upload filename and MIME type Whisper expects
// for a given encoding.
func audioFileMeta(encoding string) (string, string) {
	switch encoding {
	case "WEBM_OPUS":
		return "audio.webm", "audio/webm"
	case "OGG_OPUS":
		return "audio.ogg", "audio/ogg"
	case "WAV", "LINEAR16":
		return "audio.wav", "audio/wav"
	case "MP3":
		return "audio.mp3", "audio/mpeg"
	default:
		return "audio.webm", "audio/webm"
	}
}
