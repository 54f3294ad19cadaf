package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/noa-assistant/server/domain/repositories"
	"github.com/noa-assistant/server/internal/assistant"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024 // 512KB for audio chunks

	// Upper bound for one assistant round trip.
	processTimeout = 60 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: Implement proper origin checking
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub maintains the set of active clients.
type Hub struct {
	// Registered clients.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex

	sttRepo repositories.SpeechToText
	service *assistant.Service

	logger *zap.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(
	sttRepo repositories.SpeechToText,
	service *assistant.Service,
	logger *zap.Logger,
) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		sttRepo:    sttRepo,
		service:    service,
		logger:     logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.deviceID] = client
			h.mu.Unlock()
			h.logger.Info("Client registered", zap.String("deviceID", client.deviceID))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.deviceID]; ok {
				delete(h.clients, client.deviceID)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Info("Client unregistered", zap.String("deviceID", client.deviceID))
		}
	}
}

type WriteData struct {
	// MessageType is the type of the websocket message.
	// Expect websocket.TextMessage or websocket.BinaryMessage
	Type    int
	Payload []byte
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan WriteData

	// Identity from the validated JWT. userID is empty for device-only
	// tokens, which keeps calendar and email lookups disabled.
	deviceID string
	userID   string

	// Logger
	logger *zap.Logger

	// Audio streaming state. sessionCancel releases the context the
	// transcription stream holds for its whole lifetime, so it must
	// outlive handleListeningStart and only fire once the session ends.
	sttStreaming   repositories.SpeechToTextStreaming
	sessionCancel  context.CancelFunc
	chunkCount     int
	listeningStart time.Time

	mutex sync.Mutex
}

// HandleWebSocket handles websocket requests with a pre-authenticated identity.
func HandleWebSocket(hub *Hub, c echo.Context, deviceID, userID string) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		hub.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	client := &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan WriteData, 256),
		deviceID: deviceID,
		userID:   userID,
		logger:   hub.logger.With(zap.String("deviceID", deviceID)),
	}

	client.hub.register <- client

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.readPump()

	return nil
}

// readPump pumps messages from the websocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		c.closeSession()
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		switch messageType {
		case websocket.TextMessage:
			// Control messages and metadata
			c.processMessage(message)
		case websocket.BinaryMessage:
			// Raw audio data
			c.processBinaryAudioChunk(message)
		default:
			c.logger.Warn("Received unknown message type", zap.Int("type", messageType))
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(message.Type, message.Payload); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// processMessage processes incoming control messages from the device
func (c *Client) processMessage(message []byte) {
	var base BaseMessage
	if err := json.Unmarshal(message, &base); err != nil {
		c.logger.Error("Failed to parse message", zap.Error(err))
		c.sendMessage(newErrorMessage("invalid_message", "message is not valid JSON"))
		return
	}

	switch base.Type {
	case MessageTypeListeningStart:
		var msg ListeningStartMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.sendMessage(newErrorMessage("invalid_message", "invalid listening_start message"))
			return
		}
		c.handleListeningStart(msg)
	case MessageTypeListeningEnd:
		c.handleListeningEnd()
	default:
		c.logger.Warn("Unknown message type", zap.String("type", string(base.Type)))
	}
}

// processBinaryAudioChunk handles binary audio data
func (c *Client) processBinaryAudioChunk(data []byte) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.sttStreaming == nil {
		c.logger.Warn("Received audio chunk without an active listening session")
		return
	}

	c.chunkCount++

	if err := c.sttStreaming.Stream(data); err != nil {
		c.logger.Error("Failed to stream audio data", zap.Error(err))
		c.sendMessage(newErrorMessage("stream_failed", "failed to process audio chunk"))
		return
	}

	c.logger.Debug("Streamed audio chunk",
		zap.Int("size", len(data)),
		zap.Int("totalChunks", c.chunkCount))
}

// handleListeningStart opens a streaming transcription session
func (c *Client) handleListeningStart(msg ListeningStartMessage) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	// Replace any session the device left open.
	if c.sessionCancel != nil {
		c.sessionCancel()
		c.sessionCancel = nil
		c.sttStreaming = nil
	}

	c.chunkCount = 0
	c.listeningStart = time.Now()

	audioConfig := repositories.AudioConfig{
		SampleRate: 16000,
		Encoding:   "WEBM_OPUS",
		Language:   "en-US",
	}
	if msg.SampleRate > 0 {
		audioConfig.SampleRate = msg.SampleRate
	}
	if msg.Encoding != "" {
		audioConfig.Encoding = msg.Encoding
	}
	if msg.Language != "" {
		audioConfig.Language = msg.Language
	}

	ctx, cancel := context.WithCancel(context.Background())
	streaming, err := c.hub.sttRepo.InitTranscribeStreaming(ctx, audioConfig)
	if err != nil {
		cancel()
		c.logger.Error("Failed to initialize streaming transcription", zap.Error(err))
		c.sendMessage(newErrorMessage("transcription_unavailable", "failed to initialize transcription"))
		return
	}
	c.sttStreaming = streaming
	c.sessionCancel = cancel

	c.logger.Info("Listening session started",
		zap.Int("sampleRate", audioConfig.SampleRate),
		zap.String("encoding", audioConfig.Encoding))

	c.sendMessage(&BaseMessage{
		Type:      MessageTypeListeningStart,
		Timestamp: c.listeningStart.Unix(),
	})
}

// handleListeningEnd finalizes the audio stream and kicks off processing
func (c *Client) handleListeningEnd() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.sttStreaming == nil {
		c.sendMessage(newErrorMessage("no_session", "no active listening session"))
		return
	}

	transcription, err := c.sttStreaming.End()
	c.sttStreaming = nil
	if c.sessionCancel != nil {
		c.sessionCancel()
		c.sessionCancel = nil
	}
	if err != nil {
		c.logger.Error("Failed to end transcription stream", zap.Error(err))
		c.sendMessage(newErrorMessage("transcription_failed", "failed to finalize transcription"))
		return
	}

	c.logger.Info("Transcription completed",
		zap.String("transcription", transcription),
		zap.Int("totalChunks", c.chunkCount),
		zap.Duration("listeningDuration", time.Since(c.listeningStart)))

	c.sendMessage(newTranscriptionMessage(transcription))

	if transcription == "" {
		return
	}

	go c.respond(transcription)
}

// closeSession drops any in-flight transcription session when the
// connection goes away.
func (c *Client) closeSession() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.sttStreaming = nil
	if c.sessionCancel != nil {
		c.sessionCancel()
		c.sessionCancel = nil
	}
}

// respond runs the transcribed utterance through the assistant pipeline and
// streams the answer back.
func (c *Client) respond(transcription string) {
	ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
	defer cancel()

	result, err := c.hub.service.Process(ctx, assistant.ProcessRequest{
		Text:     transcription,
		UserID:   c.userID,
		DeviceID: c.deviceID,
	})
	if err != nil {
		c.logger.Error("Failed to process utterance", zap.Error(err))
		c.sendMessage(newErrorMessage("processing_failed", "failed to process request"))
		return
	}

	c.sendMessage(newResponseMessage(result.Response, result.PromptID, result.ToolsUsed))
}

// sendMessage queues a JSON message without blocking the caller.
func (c *Client) sendMessage(msg interface{}) {
	select {
	case c.send <- WriteData{
		Type:    websocket.TextMessage,
		Payload: marshalMessage(msg),
	}:
	default:
		c.logger.Warn("Dropping message, send buffer full")
	}
}
