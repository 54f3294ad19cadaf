package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/noa-assistant/server/adapters"
	"github.com/noa-assistant/server/adapters/gcal"
	"github.com/noa-assistant/server/adapters/gmail"
	googleauth "github.com/noa-assistant/server/adapters/google"
	"github.com/noa-assistant/server/adapters/llm"
	mongodb "github.com/noa-assistant/server/adapters/mongo"
	"github.com/noa-assistant/server/adapters/stt"
	"github.com/noa-assistant/server/domain/entities"
	"github.com/noa-assistant/server/domain/repositories"
	"github.com/noa-assistant/server/internal/api"
	"github.com/noa-assistant/server/internal/assistant"
	"github.com/noa-assistant/server/internal/websocket"
)

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Storage
	db, err := mongodb.NewClient(logger)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	promptRepo := mongodb.NewPromptRepository(db.Database)
	integrationRepo := mongodb.NewIntegrationRepository(db.Database)
	deviceRepo := adapters.NewMemoryDeviceRepository()
	seedDevices(deviceRepo, logger)

	// Google integrations
	tokens := googleauth.NewTokenManager(integrationRepo, logger)
	calendarProvider := gcal.NewGoogleCalendar(tokens, logger)
	emailProvider := gmail.NewGmailProvider(tokens, logger)

	// Providers
	languageModel := newLanguageModel(logger)
	speechToText := newSpeechToText(logger)

	// Assistant pipeline
	dispatcher := assistant.NewDispatcher(calendarProvider, logger)
	service := assistant.NewService(languageModel, emailProvider, dispatcher, promptRepo, logger)

	// WebSocket hub
	hub := websocket.NewHub(speechToText, service, logger)
	go hub.Run()

	// HTTP server
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	server := api.NewServer(service, speechToText, promptRepo, integrationRepo, deviceRepo, hub, logger)
	server.InitRoutes(e)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	go func() {
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("port", port))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := db.Close(ctx); err != nil {
		logger.Error("Failed to close MongoDB connection", zap.Error(err))
	}

	logger.Info("Server exited")
}

// seedDevices registers the device credentials from the environment so
// desktop clients can authenticate against the in-memory repository.
func seedDevices(repo *adapters.MemoryDeviceRepository, logger *zap.Logger) {
	serial := os.Getenv("NOA_DEVICE_SERIAL")
	secret := os.Getenv("NOA_DEVICE_SECRET")
	if serial == "" || secret == "" {
		logger.Warn("No device credentials configured, device auth is disabled")
		return
	}

	err := repo.Create(context.Background(), &entities.Device{
		SerialNumber: serial,
		SecretKey:    secret,
		Platform:     os.Getenv("NOA_DEVICE_PLATFORM"),
	})
	if err != nil {
		logger.Fatal("Failed to register device", zap.Error(err))
	}
	logger.Info("Registered device", zap.String("serial_number", serial))
}

// newLanguageModel selects the LLM backend from NOA_LLM_PROVIDER.
func newLanguageModel(logger *zap.Logger) repositories.LanguageModel {
	switch os.Getenv("NOA_LLM_PROVIDER") {
	case "gemini":
		model, err := llm.NewGeminiLLM(logger)
		if err != nil {
			logger.Fatal("Failed to initialize Gemini", zap.Error(err))
		}
		return model
	case "mock":
		logger.Warn("Using mock language model")
		return llm.NewMockLLM(logger)
	default:
		model, err := llm.NewOpenAILLM(logger)
		if err != nil {
			logger.Fatal("Failed to initialize OpenAI", zap.Error(err))
		}
		return model
	}
}

// newSpeechToText selects the STT backend from NOA_STT_PROVIDER.
func newSpeechToText(logger *zap.Logger) repositories.SpeechToText {
	switch os.Getenv("NOA_STT_PROVIDER") {
	case "google":
		return stt.NewGoogleSpeechToText(logger)
	case "mock":
		logger.Warn("Using mock speech-to-text")
		return stt.NewMockSpeechToText(logger)
	default:
		provider, err := stt.NewWhisperSpeechToText(logger)
		if err != nil {
			logger.Fatal("Failed to initialize Whisper", zap.Error(err))
		}
		return provider
	}
}
