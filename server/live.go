// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// This file bridges a browser websocket onto a realtime voice session.
// The browser sends start/audio/stop frames; the server forwards
// microphone PCM upstream and ships scheduled model audio back down with
// its playback start time, so the client can queue chunks gap-free.
//
// Client frames:
//   - {"type": "start", "credential": "..."}
//   - {"type": "audio", "data": "<base64 pcm16 @ 16kHz>"}
//   - {"type": "stop"}
//
// Server frames:
//   - {"type": "state", "state": "idle|connecting|active"}
//   - {"type": "audio", "data": "<base64 pcm16 @ 24kHz>",
//     "start_ms": <unix millis>, "duration_ms": <millis>}
//   - {"type": "error", "message": "..."}
package main

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/vidstudio/gcp-go-media-studio/internal/audio"
	"github.com/vidstudio/gcp-go-media-studio/internal/core/live"
)

var liveUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The API is served cross-origin from the front-end dev server.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// liveFrame is both the inbound and outbound websocket message shape;
// unused fields are omitted per direction.
type liveFrame struct {
	Type       string `json:"type"`
	Credential string `json:"credential,omitempty"`
	Data       string `json:"data,omitempty"`
	State      string `json:"state,omitempty"`
	StartMs    int64  `json:"start_ms,omitempty"`
	DurationMs int64  `json:"duration_ms,omitempty"`
	Message    string `json:"message,omitempty"`
}

// LiveRouter sets up the realtime voice endpoint.
//   - GET /live: Upgrades to a websocket carrying the session frames.
func LiveRouter(r *gin.RouterGroup) {
	r.GET("/live", func(c *gin.Context) {
		conn, err := liveUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.ErrorContext(c.Request.Context(), "websocket upgrade failed", "error", err)
			return
		}
		serveLiveSession(c, conn)
	})
}

func serveLiveSession(c *gin.Context, conn *websocket.Conn) {
	defer func() { _ = conn.Close() }()

	// Gorilla permits one concurrent writer; the sink goroutines and the
	// read loop both send frames.
	var writeMu sync.Mutex
	writeFrame := func(frame *liveFrame) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(frame); err != nil {
			slog.Warn("failed to write live frame", "error", err)
		}
	}

	config := GetConfig()
	session := live.NewSession(live.Options{
		Connector: &live.WebSocketConnector{},
		Model:     config.Models.Live,
		Voice:     config.Live.Voice,
		Sink: func(chunk live.PlaybackChunk) {
			writeFrame(&liveFrame{
				Type:       "audio",
				Data:       audio.EncodeBase64(chunk.PCM),
				StartMs:    chunk.Start.UnixMilli(),
				DurationMs: chunk.Duration.Milliseconds(),
			})
		},
		PlaybackHorizon: time.Duration(config.Live.MaxPlaybackHorizonSeconds) * time.Second,
	})
	defer session.Stop()

	for {
		var frame liveFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Warn("live websocket read failed", "error", err)
			}
			return
		}

		switch frame.Type {
		case "start":
			if err := session.Start(c.Request.Context(), frame.Credential); err != nil {
				writeFrame(&liveFrame{Type: "error", Message: err.Error()})
				continue
			}
			writeFrame(&liveFrame{Type: "state", State: session.State().String()})
		case "audio":
			pcm, err := audio.DecodeBase64(frame.Data)
			if err != nil {
				writeFrame(&liveFrame{Type: "error", Message: "audio frame is not valid base64"})
				continue
			}
			if err := session.SendPCM(c.Request.Context(), pcm); err != nil {
				writeFrame(&liveFrame{Type: "error", Message: err.Error()})
			}
		case "stop":
			session.Stop()
			writeFrame(&liveFrame{Type: "state", State: session.State().String()})
		default:
			writeFrame(&liveFrame{Type: "error", Message: "unknown frame type"})
		}
	}
}
