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

// Package workflow assembles the chain-of-responsibility commands into
// the application's orchestrations: the scene generation run, the
// library save pipeline, and the library ingest listener chain.
//
// This file implements the progress rotator that keeps a run's status
// line lively while long video jobs grind.
package workflow

import (
	"sync"
	"time"
)

// DefaultMessageInterval is the rotation period for the cosmetic
// progress messages.
const DefaultMessageInterval = 4 * time.Second

// ProgressRotator publishes a rotating sequence of flavor messages
// through a sink function on a fixed interval. Real progress events
// (scene counters, poll attempts) are pushed through Publish and simply
// overwrite the current line; the rotation then resumes on its own
// clock. Stop is idempotent and safe to defer unconditionally.
type ProgressRotator struct {
	messages []string
	interval time.Duration
	sink     func(string)

	mu       sync.Mutex
	index    int
	stopOnce sync.Once
	done     chan struct{}
}

// NewProgressRotator creates a rotator feeding sink. It does not start
// rotating until Start is called.
func NewProgressRotator(messages []string, interval time.Duration, sink func(string)) *ProgressRotator {
	if interval <= 0 {
		interval = DefaultMessageInterval
	}
	return &ProgressRotator{
		messages: messages,
		interval: interval,
		sink:     sink,
		done:     make(chan struct{}),
	}
}

// Start publishes the first message immediately and then rotates on the
// configured interval until Stop.
func (p *ProgressRotator) Start() {
	p.publishNext()
	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-p.done:
				return
			case <-ticker.C:
				p.publishNext()
			}
		}
	}()
}

// Publish pushes a concrete progress event, overwriting the current
// flavor line.
func (p *ProgressRotator) Publish(message string) {
	p.sink(message)
}

// Stop halts rotation. Calling it again, or before Start, is a no-op.
func (p *ProgressRotator) Stop() {
	p.stopOnce.Do(func() { close(p.done) })
}

func (p *ProgressRotator) publishNext() {
	if len(p.messages) == 0 {
		return
	}
	p.mu.Lock()
	msg := p.messages[p.index%len(p.messages)]
	p.index++
	p.mu.Unlock()
	p.sink(msg)
}
