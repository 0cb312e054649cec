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

// Package live implements the bidirectional voice session: an explicit
// state machine bridging captured microphone audio (16kHz) to the
// provider's live endpoint and scheduling returned audio (24kHz) for
// gap-free playback.
//
// Structs:
//   - Session: The per-connection state machine. One Session serves one
//     browser connection; it is not reusable across connections, but it
//     is restartable after cleanup returns it to idle.
//   - PlaybackScheduler: The gap-free playback timeline bookkeeping.
//
// Logic Flow (happy path):
//  1. Start: idle -> connecting; the connector dials the provider.
//  2. On connect: connecting -> active; a receive loop drains inbound
//     messages, schedules each audio payload, and hands the scheduled
//     chunk to the playback sink.
//  3. SendAudio forwards captured PCM frames while active.
//  4. Stop, transport error, or inbound close all funnel into one
//     cleanup routine, guarded per start so it runs exactly once, and
//     the session returns to idle.
package live

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/vidstudio/gcp-go-media-studio/internal/audio"
	"github.com/vidstudio/gcp-go-media-studio/internal/genmedia"
)

// ErrTransport wraps stream-level failures surfaced by the provider
// connection.
var ErrTransport = errors.New("live: transport failure")

// ErrNotActive is returned by SendAudio outside the active state.
var ErrNotActive = errors.New("live: session is not active")

// State is the session's finite-state value.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateActive
)

// String returns the lowercase state name reported over the wire.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	default:
		return "unknown"
	}
}

// StreamMessage is one inbound event from the provider stream. Exactly
// one of Audio, Err, or Closed is meaningful.
type StreamMessage struct {
	// Audio carries raw 24kHz 16-bit PCM bytes when the server turn
	// included an inline audio payload.
	Audio []byte
	// Err reports a transport failure; the stream is dead after it.
	Err error
	// Closed reports an orderly server-side close.
	Closed bool
}

// Stream is an open bidirectional connection to the provider's live
// endpoint.
type Stream interface {
	// Send forwards one frame of 16kHz 16-bit PCM capture audio.
	Send(ctx context.Context, pcm []byte) error
	// Receive yields inbound messages. The channel closes after an Err
	// or Closed message.
	Receive() <-chan StreamMessage
	// Close tears the connection down. Safe to call more than once.
	Close() error
}

// Connector dials the provider live endpoint. Production code uses the
// websocket-backed implementation; tests use a scripted fake.
type Connector interface {
	Connect(ctx context.Context, credential string, modelName string, voiceName string) (Stream, error)
}

// PlaybackChunk is a scheduled piece of playback audio handed to the
// sink: the PCM bytes plus the slot they occupy on the playback
// timeline.
type PlaybackChunk struct {
	PCM      []byte
	Start    time.Time
	Duration time.Duration
}

// Session is the live voice session state machine. All entry points are
// safe for concurrent use; the receive loop is the only writer of
// inbound playback state.
type Session struct {
	connector Connector
	model     string
	voice     string
	scheduler *PlaybackScheduler
	sink      func(PlaybackChunk)

	mu      sync.Mutex
	state   State
	stream  Stream
	cancel  context.CancelFunc
	cleanup *sync.Once
}

// Options configures a Session.
type Options struct {
	Connector Connector
	Model     string
	Voice     string
	// Sink receives scheduled playback chunks. Required.
	Sink func(PlaybackChunk)
	// PlaybackHorizon bounds scheduled-ahead audio; zero selects the
	// default.
	PlaybackHorizon time.Duration
}

// NewSession creates an idle session. Stop before Start is a no-op.
func NewSession(opts Options) *Session {
	return &Session{
		connector: opts.Connector,
		model:     opts.Model,
		voice:     opts.Voice,
		scheduler: NewPlaybackScheduler(audio.PlaybackConfig(), opts.PlaybackHorizon),
		sink:      opts.Sink,
		cleanup:   &sync.Once{},
	}
}

// State returns the current finite-state value.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dropped returns how many inbound chunks were discarded for exceeding
// the playback horizon.
func (s *Session) Dropped() int { return s.scheduler.Dropped() }

// Start dials the provider and begins streaming. A session that is
// already connecting or active ignores the call. Connection failure
// runs cleanup and returns the error with the session back at idle.
func (s *Session) Start(ctx context.Context, credential string) error {
	if credential == "" {
		return genmedia.ErrMissingCredential
	}

	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		slog.InfoContext(ctx, "live session already started, ignoring", "state", s.state.String())
		return nil
	}
	s.state = StateConnecting
	// Arm a fresh guard for this start; the previous one is spent.
	s.cleanup = &sync.Once{}
	once := s.cleanup
	streamCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	stream, err := s.connector.Connect(streamCtx, credential, s.model, s.voice)
	if err != nil {
		s.runCleanup(once)
		return err
	}

	s.mu.Lock()
	if s.cleanup != once || s.state != StateConnecting {
		// Stop ran while the dial was in flight; this start is already
		// torn down. Close the connection we just opened and stay put.
		s.mu.Unlock()
		if err := stream.Close(); err != nil {
			slog.Warn("live stream close failed", "error", err)
		}
		return nil
	}
	s.stream = stream
	s.state = StateActive
	s.mu.Unlock()

	go s.receiveLoop(streamCtx, stream, once)
	return nil
}

// SendAudio converts one captured frame of float32 samples to 16-bit
// PCM and forwards it. Frames sent outside the active state are
// rejected.
func (s *Session) SendAudio(ctx context.Context, samples []float32) error {
	return s.SendPCM(ctx, audio.Float32ToPCM16(samples))
}

// SendPCM forwards one captured frame already encoded as 16kHz 16-bit
// PCM bytes.
func (s *Session) SendPCM(ctx context.Context, pcm []byte) error {
	s.mu.Lock()
	stream := s.stream
	active := s.state == StateActive
	s.mu.Unlock()
	if !active || stream == nil {
		return ErrNotActive
	}
	return stream.Send(ctx, pcm)
}

// Stop tears the session down. Safe to call repeatedly and from any
// state, including before Start; the session always lands at idle.
func (s *Session) Stop() {
	s.mu.Lock()
	once := s.cleanup
	s.mu.Unlock()
	s.runCleanup(once)
}

// receiveLoop drains inbound messages until the stream ends, scheduling
// each audio payload on the playback timeline.
func (s *Session) receiveLoop(ctx context.Context, stream Stream, once *sync.Once) {
	for msg := range stream.Receive() {
		switch {
		case msg.Err != nil:
			slog.WarnContext(ctx, "live stream failed", "error", msg.Err)
			s.runCleanup(once)
			return
		case msg.Closed:
			s.runCleanup(once)
			return
		case len(msg.Audio) > 0:
			start, ok := s.scheduler.Schedule(len(msg.Audio))
			if !ok {
				slog.WarnContext(ctx, "playback horizon exceeded, dropping audio chunk",
					"bytes", len(msg.Audio), "dropped_total", s.scheduler.Dropped())
				continue
			}
			if s.sink != nil {
				s.sink(PlaybackChunk{
					PCM:      msg.Audio,
					Start:    start,
					Duration: audio.PlaybackConfig().Duration(len(msg.Audio)),
				})
			}
		}
	}
	// Channel closed without a terminal message; treat as orderly close.
	s.runCleanup(once)
}

// runCleanup releases everything the session holds and resets to idle.
// The per-start once guard makes it safe from any handler, any number
// of times, in any order.
func (s *Session) runCleanup(once *sync.Once) {
	once.Do(func() {
		s.mu.Lock()
		stream := s.stream
		cancel := s.cancel
		s.stream = nil
		s.cancel = nil
		s.state = StateIdle
		s.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		if stream != nil {
			if err := stream.Close(); err != nil {
				slog.Warn("live stream close failed", "error", err)
			}
		}
		s.scheduler.Reset()
	})
}
