package api

import (
	"encoding/base64"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/noa-assistant/server/domain/entities"
	"github.com/noa-assistant/server/domain/repositories"
	"github.com/noa-assistant/server/internal/assistant"
	"github.com/noa-assistant/server/internal/auth"
	"github.com/noa-assistant/server/internal/websocket"
)

const maxTranscribeBytes = 25 * 1024 * 1024 // Whisper's upload cap

// Server bundles the dependencies the HTTP handlers need.
type Server struct {
	service      *assistant.Service
	stt          repositories.SpeechToText
	prompts      repositories.PromptRepository
	integrations repositories.IntegrationRepository
	devices      repositories.DeviceRepository
	hub          *websocket.Hub
	logger       *zap.Logger
}

// NewServer creates the API server handlers.
func NewServer(
	service *assistant.Service,
	stt repositories.SpeechToText,
	prompts repositories.PromptRepository,
	integrations repositories.IntegrationRepository,
	devices repositories.DeviceRepository,
	hub *websocket.Hub,
	logger *zap.Logger,
) *Server {
	return &Server{
		service:      service,
		stt:          stt,
		prompts:      prompts,
		integrations: integrations,
		devices:      devices,
		hub:          hub,
		logger:       logger,
	}
}

// InitRoutes initializes all API routes
func (s *Server) InitRoutes(e *echo.Echo) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "noa-server",
		})
	})

	api := e.Group("/api")

	api.POST("/process", s.process)
	api.POST("/transcribe", s.transcribe)
	api.GET("/prompts", s.listPrompts)
	api.GET("/integrations/google/status", s.googleStatus)
	api.POST("/device/auth", s.deviceAuth)

	// WebSocket endpoint with JWT validation
	e.GET("/ws", s.websocketWithAuth)
}

// process runs one utterance through the assistant pipeline.
func (s *Server) process(c echo.Context) error {
	var req ProcessRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Error("Failed to bind process request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	if req.Text == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "text is required",
		})
	}

	deviceID := req.DeviceID
	if req.UserID == "" && deviceID == "" {
		deviceID = anonymousDeviceID(c)
	}

	result, err := s.service.Process(c.Request().Context(), assistant.ProcessRequest{
		Text:          req.Text,
		UserID:        req.UserID,
		DeviceID:      deviceID,
		ScreenshotPNG: req.Screenshot,
	})
	if err != nil {
		s.logger.Error("Failed to process prompt",
			zap.String("user_id", req.UserID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "processing_failed",
			Message: "Failed to process request",
		})
	}

	return c.JSON(http.StatusOK, ProcessResponse{
		Response:  result.Response,
		PromptID:  result.PromptID,
		ToolsUsed: result.ToolsUsed,
	})
}

// transcribe converts an uploaded recording to text.
func (s *Server) transcribe(c echo.Context) error {
	file, err := c.FormFile("audio")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "audio file is required",
		})
	}
	if file.Size > maxTranscribeBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Error:   "file_too_large",
			Message: "audio file exceeds the 25MB limit",
		})
	}

	src, err := file.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "could not read audio file",
		})
	}
	defer src.Close()

	audioData, err := io.ReadAll(src)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "could not read audio file",
		})
	}

	config := repositories.AudioConfig{
		SampleRate: 16000,
		Encoding:   "WEBM_OPUS",
		Language:   "en-US",
	}
	if v := c.FormValue("sample_rate"); v != "" {
		if rate, err := strconv.Atoi(v); err == nil && rate > 0 {
			config.SampleRate = rate
		}
	}
	if v := c.FormValue("encoding"); v != "" {
		config.Encoding = v
	}
	if v := c.FormValue("language"); v != "" {
		config.Language = v
	}

	text, err := s.stt.TranscribeAudio(c.Request().Context(), audioData, config)
	if err != nil {
		s.logger.Error("Transcription failed", zap.Error(err))
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "transcription_failed",
			Message: "Failed to transcribe audio",
		})
	}

	return c.JSON(http.StatusOK, TranscribeResponse{Text: text})
}

// listPrompts returns recent exchanges for a user or device.
func (s *Server) listPrompts(c echo.Context) error {
	userID := c.QueryParam("user_id")
	deviceID := c.QueryParam("device_id")
	if userID == "" && deviceID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "user_id or device_id is required",
		})
	}

	limit := 20
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	ctx := c.Request().Context()
	var (
		prompts []*entities.Prompt
		err     error
	)
	if userID != "" {
		prompts, err = s.prompts.ListByUser(ctx, userID, limit)
	} else {
		prompts, err = s.prompts.ListByDevice(ctx, deviceID, limit)
	}
	if err != nil {
		s.logger.Error("Failed to list prompts",
			zap.String("user_id", userID),
			zap.String("device_id", deviceID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to load prompt history",
		})
	}

	if prompts == nil {
		prompts = []*entities.Prompt{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"prompts": prompts})
}

// googleStatus reports whether the user's Google integration is connected.
func (s *Server) googleStatus(c echo.Context) error {
	userID := c.QueryParam("user_id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "user_id is required",
		})
	}

	ctx := c.Request().Context()
	integration, err := s.integrations.GetByUserAndProvider(ctx, userID, "google")
	if err != nil || integration == nil {
		// Older accounts stored tokens under the gmail provider key.
		integration, err = s.integrations.GetByUserAndProvider(ctx, userID, "gmail")
	}
	if err != nil || integration == nil {
		return c.JSON(http.StatusOK, IntegrationStatusResponse{
			Provider:  "google",
			Connected: false,
		})
	}

	return c.JSON(http.StatusOK, IntegrationStatusResponse{
		Provider:  "google",
		Connected: true,
		Expired:   integration.TokenExpired() && integration.RefreshToken == "",
	})
}

// deviceAuth validates device credentials and issues a JWT.
func (s *Server) deviceAuth(c echo.Context) error {
	var req DeviceAuthRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Error("Failed to bind device auth request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	if req.SerialNumber == "" || req.SecretKey == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "Serial number and secret key are required",
		})
	}

	device, err := s.devices.ValidateDevice(req.SerialNumber, req.SecretKey)
	if err != nil {
		s.logger.Warn("Device authentication failed",
			zap.String("serial_number", req.SerialNumber),
			zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "authentication_failed",
			Message: "Invalid device credentials",
		})
	}

	token, err := auth.GenerateDeviceToken(device.ID)
	if err != nil {
		s.logger.Error("Failed to generate device token",
			zap.String("device_id", device.ID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate authentication token",
		})
	}

	// Expiration matches the JWT claims.
	expiresAt := time.Now().Add(24 * time.Hour)

	s.logger.Info("Device authenticated successfully",
		zap.String("device_id", device.ID),
		zap.String("serial_number", device.SerialNumber))

	return c.JSON(http.StatusOK, DeviceAuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		DeviceID:  device.ID,
	})
}

// websocketWithAuth handles WebSocket connections with JWT authentication
func (s *Server) websocketWithAuth(c echo.Context) error {
	var token string
	authHeader := c.Request().Header.Get("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		token = authHeader[7:]
	}

	if token == "" {
		s.logger.Warn("WebSocket connection rejected: missing token")
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "missing_token",
			Message: "JWT token is required in Authorization header",
		})
	}

	claims, err := auth.ValidateToken(token)
	if err != nil {
		s.logger.Warn("WebSocket connection rejected: invalid token", zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired JWT token",
		})
	}

	if claims.DeviceID == "" {
		s.logger.Error("WebSocket connection rejected: missing device ID in token")
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_token_claims",
			Message: "Device ID not found in token",
		})
	}

	s.logger.Info("WebSocket connection authenticated",
		zap.String("device_id", claims.DeviceID),
		zap.String("role", claims.Role))

	return websocket.HandleWebSocket(s.hub, c, claims.DeviceID, claims.UserID)
}

// anonymousDeviceID derives a stable identifier for unauthenticated requests
// from the caller's address and user agent.
func anonymousDeviceID(c echo.Context) string {
	ip := c.Request().Header.Get("X-Forwarded-For")
	if ip == "" {
		ip = c.Request().RemoteAddr
	}
	userAgent := c.Request().Header.Get("User-Agent")
	encoded := base64.StdEncoding.EncodeToString([]byte(ip + userAgent))
	if len(encoded) > 20 {
		encoded = encoded[:20]
	}
	return "anon_" + encoded
}
