// Command wsclient is a development client for the voice WebSocket
// endpoint. It authenticates a device, streams a local audio file as
// binary chunks, and prints the transcription and assistant response.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

type deviceAuthRequest struct {
	SerialNumber string `json:"serial_number"`
	SecretKey    string `json:"secret_key"`
}

type deviceAuthResponse struct {
	Token    string `json:"token"`
	DeviceID string `json:"device_id"`
}

var (
	host      = flag.String("host", "localhost:8080", "server host:port")
	serial    = flag.String("serial", "NOA-DEV-001", "device serial number")
	secret    = flag.String("secret", "dev-secret", "device secret key")
	audioPath = flag.String("audio", "sample_audio.webm", "audio file to stream")
	encoding  = flag.String("encoding", "WEBM_OPUS", "audio encoding")
)

func main() {
	flag.Parse()

	token, deviceID, err := authenticate()
	if err != nil {
		log.Fatal("authenticate: ", err)
	}
	log.Printf("authenticated device %s", deviceID)

	u := url.URL{Scheme: "ws", Host: *host, Path: "/ws"}
	headers := http.Header{}
	headers.Add("Authorization", "Bearer "+token)

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), headers)
	if err != nil {
		log.Fatal("dial: ", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	go readLoop(conn, done)

	if err := streamAudio(conn); err != nil {
		log.Fatal("stream: ", err)
	}

	select {
	case <-done:
	case <-time.After(90 * time.Second):
		log.Println("timed out waiting for response")
	}
}

func authenticate() (string, string, error) {
	payload, err := json.Marshal(deviceAuthRequest{
		SerialNumber: *serial,
		SecretKey:    *secret,
	})
	if err != nil {
		return "", "", err
	}

	resp, err := http.Post(
		fmt.Sprintf("http://%s/api/device/auth", *host),
		"application/json",
		bytes.NewReader(payload),
	)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("auth failed: %s", body)
	}

	var authResp deviceAuthResponse
	if err := json.Unmarshal(body, &authResp); err != nil {
		return "", "", err
	}
	return authResp.Token, authResp.DeviceID, nil
}

func streamAudio(conn *websocket.Conn) error {
	audioData, err := os.ReadFile(*audioPath)
	if err != nil {
		return err
	}
	log.Printf("read %s (%d bytes)", *audioPath, len(audioData))

	start := map[string]interface{}{
		"type":     "listening_start",
		"encoding": *encoding,
	}
	if err := writeJSON(conn, start); err != nil {
		return err
	}

	const chunkSize = 4096
	for offset := 0; offset < len(audioData); offset += chunkSize {
		end := offset + chunkSize
		if end > len(audioData) {
			end = len(audioData)
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, audioData[offset:end]); err != nil {
			return err
		}
		time.Sleep(20 * time.Millisecond)
	}
	log.Printf("sent %d chunks", (len(audioData)+chunkSize-1)/chunkSize)

	return writeJSON(conn, map[string]interface{}{"type": "listening_end"})
}

func readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Println("read: ", err)
			return
		}

		var msg map[string]interface{}
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("unparseable message: %s", message)
			continue
		}

		switch msg["type"] {
		case "listening_start":
			log.Println("server listening")
		case "transcription":
			log.Printf("transcription: %v", msg["text"])
		case "response":
			log.Printf("response: %v", msg["text"])
			if tools, ok := msg["tools_used"]; ok {
				log.Printf("tools used: %v", tools)
			}
			return
		case "error":
			log.Printf("server error: %v (%v)", msg["message"], msg["error_code"])
			return
		default:
			log.Printf("message: %s", message)
		}
	}
}

func writeJSON(conn *websocket.Conn, msg map[string]interface{}) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, payload)
}
