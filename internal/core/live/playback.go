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

package live

import (
	"sync"
	"time"

	"github.com/vidstudio/gcp-go-media-studio/internal/audio"
)

// DefaultPlaybackHorizon bounds how far ahead of the playback clock a
// chunk may be scheduled. Inbound audio past the horizon is dropped
// rather than queued without bound.
const DefaultPlaybackHorizon = 30 * time.Second

// PlaybackScheduler assigns start times to inbound audio chunks so they
// play back-to-back with no gaps and no overlap: each chunk starts at
// the later of the current clock and the previous chunk's end. The
// clock is injectable for tests.
type PlaybackScheduler struct {
	config  audio.Config
	horizon time.Duration
	now     func() time.Time

	mu      sync.Mutex
	prevEnd time.Time
	dropped int
}

// NewPlaybackScheduler creates a scheduler for the playback audio
// format. A zero horizon selects DefaultPlaybackHorizon.
func NewPlaybackScheduler(config audio.Config, horizon time.Duration) *PlaybackScheduler {
	if horizon <= 0 {
		horizon = DefaultPlaybackHorizon
	}
	return &PlaybackScheduler{
		config:  config,
		horizon: horizon,
		now:     time.Now,
	}
}

// Schedule assigns a start time to a chunk of numBytes PCM bytes. The
// second return is false when the queue is already a full horizon ahead
// of the clock and the chunk was dropped.
func (s *PlaybackScheduler) Schedule(numBytes int) (time.Time, bool) {
	d := s.config.Duration(numBytes)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	start := now
	if s.prevEnd.After(start) {
		start = s.prevEnd
	}
	if start.Sub(now) > s.horizon {
		s.dropped++
		return time.Time{}, false
	}
	s.prevEnd = start.Add(d)
	return start, true
}

// Dropped returns how many chunks were discarded for exceeding the
// scheduling horizon.
func (s *PlaybackScheduler) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Reset clears the playback timeline. Called by session cleanup so a
// later session starts from a fresh clock.
func (s *PlaybackScheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prevEnd = time.Time{}
	s.dropped = 0
}
