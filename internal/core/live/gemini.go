// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// This file implements the production Connector against the
// BidiGenerateContent websocket endpoint.
package live

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vidstudio/gcp-go-media-studio/internal/audio"
)

const (
	liveEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

	// captureMIMEType declares the outbound frame format to the provider.
	captureMIMEType = "audio/pcm;rate=16000"

	defaultConnectTimeout = 15 * time.Second
)

// Wire shapes for the bidi protocol. Only the fields this session uses
// are modeled.

type setupMessage struct {
	Setup struct {
		Model            string            `json:"model"`
		GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
	} `json:"setup"`
}

type generationConfig struct {
	ResponseModalities []string      `json:"responseModalities"`
	SpeechConfig       *speechConfig `json:"speechConfig,omitempty"`
}

type speechConfig struct {
	VoiceConfig struct {
		PrebuiltVoiceConfig struct {
			VoiceName string `json:"voiceName"`
		} `json:"prebuiltVoiceConfig"`
	} `json:"voiceConfig"`
}

type realtimeInputMessage struct {
	RealtimeInput struct {
		MediaChunks []mediaChunk `json:"mediaChunks"`
	} `json:"realtimeInput"`
}

type mediaChunk struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"` // base64 PCM
}

type serverMessage struct {
	SetupComplete *struct{} `json:"setupComplete"`
	ServerContent *struct {
		ModelTurn *struct {
			Parts []struct {
				InlineData *struct {
					MIMEType string `json:"mimeType"`
					Data     string `json:"data"`
				} `json:"inlineData"`
			} `json:"parts"`
		} `json:"modelTurn"`
		TurnComplete bool `json:"turnComplete"`
	} `json:"serverContent"`
	GoAway *struct{} `json:"goAway"`
}

// WebSocketConnector dials the provider's live websocket endpoint with
// the credential carried as a query parameter.
type WebSocketConnector struct {
	// Endpoint overrides the production endpoint; tests point it at a
	// local server. Empty selects the default.
	Endpoint string
}

func (c *WebSocketConnector) Connect(ctx context.Context, credential string, modelName string, voiceName string) (Stream, error) {
	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = liveEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse live endpoint: %w", err)
	}
	q := u.Query()
	q.Set("key", credential)
	u.RawQuery = q.Encode()

	dialCtx := ctx
	var cancel context.CancelFunc
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		dialCtx, cancel = context.WithTimeout(ctx, defaultConnectTimeout)
		defer cancel()
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(dialCtx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("%w: dial failed (status %d): %s", ErrTransport, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("%w: dial failed: %s", ErrTransport, err)
	}

	setup := setupMessage{}
	setup.Setup.Model = "models/" + modelName
	setup.Setup.GenerationConfig = &generationConfig{
		ResponseModalities: []string{"AUDIO"},
	}
	if voiceName != "" {
		sc := &speechConfig{}
		sc.VoiceConfig.PrebuiltVoiceConfig.VoiceName = voiceName
		setup.Setup.GenerationConfig.SpeechConfig = sc
	}
	if err := conn.WriteJSON(setup); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: send setup: %s", ErrTransport, err)
	}

	// The first server frame acknowledges setup before any audio flows.
	_ = conn.SetReadDeadline(time.Now().Add(defaultConnectTimeout))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: read setup ack: %s", ErrTransport, err)
	}
	_ = conn.SetReadDeadline(time.Time{})
	var ack serverMessage
	if err := json.Unmarshal(payload, &ack); err != nil || ack.SetupComplete == nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: unexpected first frame %q", ErrTransport, payload)
	}

	stream := &webSocketStream{
		conn:     conn,
		messages: make(chan StreamMessage, 64),
	}
	go stream.readLoop()
	return stream, nil
}

// webSocketStream adapts one websocket connection to the Stream
// interface. Writes are serialized; gorilla permits one concurrent
// writer only.
type webSocketStream struct {
	conn     *websocket.Conn
	messages chan StreamMessage

	writeMu   sync.Mutex
	closeOnce sync.Once
}

func (s *webSocketStream) Send(_ context.Context, pcm []byte) error {
	msg := realtimeInputMessage{}
	msg.RealtimeInput.MediaChunks = []mediaChunk{{
		MIMEType: captureMIMEType,
		Data:     audio.EncodeBase64(pcm),
	}}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("%w: send audio: %s", ErrTransport, err)
	}
	return nil
}

func (s *webSocketStream) Receive() <-chan StreamMessage { return s.messages }

func (s *webSocketStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.writeMu.Lock()
		_ = s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.writeMu.Unlock()
		err = s.conn.Close()
	})
	return err
}

// readLoop decodes inbound frames into StreamMessages until the
// connection ends. Audio payloads arrive base64-encoded inside model
// turn parts; everything else is control traffic this session ignores.
func (s *webSocketStream) readLoop() {
	defer close(s.messages)
	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.messages <- StreamMessage{Closed: true}
			} else {
				s.messages <- StreamMessage{Err: fmt.Errorf("%w: %s", ErrTransport, err)}
			}
			return
		}
		var msg serverMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.messages <- StreamMessage{Err: fmt.Errorf("%w: decode server frame: %s", ErrTransport, err)}
			return
		}
		if msg.GoAway != nil {
			s.messages <- StreamMessage{Closed: true}
			return
		}
		if msg.ServerContent == nil || msg.ServerContent.ModelTurn == nil {
			continue
		}
		for _, part := range msg.ServerContent.ModelTurn.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			pcm, err := audio.DecodeBase64(part.InlineData.Data)
			if err != nil {
				s.messages <- StreamMessage{Err: fmt.Errorf("%w: decode audio payload: %s", ErrTransport, err)}
				return
			}
			s.messages <- StreamMessage{Audio: pcm}
		}
	}
}
