package stt

import (
	"context"
	"fmt"
	"io"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/noa-assistant/server/domain/repositories"
)

// GoogleSpeechToText implements SpeechToText using Google Cloud
// Speech-to-Text. Credentials come from the standard
// GOOGLE_APPLICATION_CREDENTIALS mechanism.
type GoogleSpeechToText struct {
	logger *zap.Logger
}

// NewGoogleSpeechToText creates a new Google STT adapter
func NewGoogleSpeechToText(logger *zap.Logger) *GoogleSpeechToText {
	return &GoogleSpeechToText{logger: logger}
}

// InitTranscribeStreaming opens a streaming recognition session.
func (g *GoogleSpeechToText) InitTranscribeStreaming(ctx context.Context, config repositories.AudioConfig) (repositories.SpeechToTextStreaming, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, repositories.NewProviderError("google-stt", repositories.ErrorKindTransient,
			fmt.Errorf("failed to create speech client: %w", err))
	}

	stream, err := client.StreamingRecognize(ctx)
	if err != nil {
		client.Close()
		return nil, repositories.NewProviderError("google-stt", repositories.ErrorKindTransient,
			fmt.Errorf("failed to open recognize stream: %w", err))
	}

	encoding, err := audioEncoding(config.Encoding)
	if err != nil {
		stream.CloseSend()
		client.Close()
		return nil, err
	}

	if err := stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Encoding:        encoding,
					SampleRateHertz: int32(config.SampleRate),
					LanguageCode:    config.Language,
				},
				InterimResults:  false,
				SingleUtterance: true,
			},
		},
	}); err != nil {
		stream.CloseSend()
		client.Close()
		return nil, repositories.NewProviderError("google-stt", repositories.ErrorKindTransient,
			fmt.Errorf("failed to send streaming config: %w", err))
	}

	s := &googleStream{
		client:     client,
		stream:     stream,
		ctx:        ctx,
		logger:     g.logger,
		resultChan: make(chan string, 1),
		errorChan:  make(chan error, 1),
	}
	go s.receiveResults()

	return s, nil
}

// TranscribeAudio converts a complete recording to text.
func (g *GoogleSpeechToText) TranscribeAudio(ctx context.Context, audioData []byte, config repositories.AudioConfig) (string, error) {
	stream, err := g.InitTranscribeStreaming(ctx, config)
	if err != nil {
		return "", err
	}

	if err := stream.Stream(audioData); err != nil {
		return "", err
	}

	return stream.End()
}

type googleStream struct {
	client *speech.Client
	stream speechpb.Speech_StreamingRecognizeClient
	ctx    context.Context
	logger *zap.Logger

	audioReceived bool
	resultChan    chan string
	errorChan     chan error
}

func (s *googleStream) Stream(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	s.audioReceived = true

	if err := s.stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
			AudioContent: data,
		},
	}); err != nil {
		return repositories.NewProviderError("google-stt", repositories.ErrorKindTransient,
			fmt.Errorf("failed to send audio data: %w", err))
	}

	return nil
}

func (s *googleStream) End() (string, error) {
	defer s.client.Close()

	if !s.audioReceived {
		return "", fmt.Errorf("no audio data received")
	}

	if err := s.stream.CloseSend(); err != nil {
		return "", fmt.Errorf("failed to close send stream: %w", err)
	}

	select {
	case <-s.ctx.Done():
		return "", fmt.Errorf("cancelled while waiting for result: %w", s.ctx.Err())
	case err := <-s.errorChan:
		return "", err
	case result := <-s.resultChan:
		return result, nil
	}
}

func (s *googleStream) receiveResults() {
	var transcription string

	for {
		resp, err := s.stream.Recv()
		if err == io.EOF {
			s.resultChan <- transcription
			return
		}
		if err != nil {
			s.errorChan <- repositories.NewProviderError("google-stt", repositories.ErrorKindTransient,
				fmt.Errorf("failed to receive response: %w", err))
			return
		}

		for _, result := range resp.Results {
			if result.IsFinal && len(result.Alternatives) > 0 {
				transcription = result.Alternatives[0].Transcript
			}
		}
	}
}

// audioEncoding maps a config encoding name to the Speech API enum.
func audioEncoding(encoding string) (speechpb.RecognitionConfig_AudioEncoding, error) {
	switch encoding {
	case "WAV", "LINEAR16":
		return speechpb.RecognitionConfig_LINEAR16, nil
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC, nil
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW, nil
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS, nil
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS, nil
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, fmt.Errorf("unsupported encoding: %s", encoding)
	}
}
