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

// Package model defines the core data structures for the application.
// This file models a single generation run: the finite-state value that
// guards reentry, the workflow inputs, and the published results. Each
// workflow surface (scene generation, animation, image studio, grounded
// search) owns its own independent GenerationRun instance; a run is the
// single writer of its own state, and the view layer is a reader.
package model

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// RunStatus is the finite-state value of a generation workflow instance.
type RunStatus int

const (
	// RunIdle means no generation has been requested yet, or the previous
	// run's results have been published and acknowledged.
	RunIdle RunStatus = iota
	// RunGenerating means a run is in flight. Exactly one run may be in
	// flight per workflow instance; a second start request is a no-op.
	RunGenerating
	// RunSuccess means the last run completed and its results are available.
	RunSuccess
	// RunError means the last run failed; Message carries the explanation.
	RunError
)

// String returns a short lowercase name for the status, matching the
// values the HTTP surface reports.
func (s RunStatus) String() string {
	switch s {
	case RunIdle:
		return "idle"
	case RunGenerating:
		return "generating"
	case RunSuccess:
		return "success"
	case RunError:
		return "error"
	default:
		return "unknown"
	}
}

// GenerationRequest carries the inputs of one scene-generation run.
type GenerationRequest struct {
	Scenes      []*Scene       `json:"scenes"`
	AspectRatio string         `json:"aspect_ratio"` // "9:16", "16:9" or "1:1".
	Template    *StyleTemplate `json:"template"`
	Pacing      *PacingOption  `json:"pacing"`
	Voice       *Voice         `json:"voice"`
	Overlays    []*TextOverlay `json:"overlays,omitempty"`
}

// GenerationRun is the single-writer, multi-reader state of one workflow
// instance. The workflow that starts the run is the only mutator; readers
// use the snapshot accessors. All fields are guarded by the internal mutex
// so that a gin handler can poll while the workflow goroutine advances.
type GenerationRun struct {
	mu sync.Mutex

	id        string
	status    RunStatus
	progress  string
	message   string
	clips     []*Clip
	voiceover *MediaArtifact
	overlays  []*TextOverlay
	started   time.Time
}

// NewGenerationRun creates an idle run with a fresh identifier.
func NewGenerationRun() *GenerationRun {
	return &GenerationRun{id: uuid.NewString(), status: RunIdle}
}

// ID returns the run's opaque identifier.
func (r *GenerationRun) ID() string { return r.id }

// Begin attempts the idle/success/error -> generating transition. It
// returns false without side effects when a run is already in flight,
// which makes a duplicate start request a no-op. On success it discards
// the previous run's clips and voiceover.
func (r *GenerationRun) Begin() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status == RunGenerating {
		return false
	}
	r.status = RunGenerating
	r.progress = ""
	r.message = ""
	r.clips = nil
	r.voiceover = nil
	r.started = time.Now()
	return true
}

// SetProgress records the current human-readable progress line.
func (r *GenerationRun) SetProgress(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = msg
}

// Succeed publishes the run's results and transitions to success.
func (r *GenerationRun) Succeed(clips []*Clip, voiceover *MediaArtifact) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clips = clips
	r.voiceover = voiceover
	r.status = RunSuccess
}

// Fail transitions to error with a user-displayable message.
func (r *GenerationRun) Fail(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.message = message
	r.status = RunError
}

// Status returns the current finite-state value.
func (r *GenerationRun) Status() RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Progress returns the current progress line.
func (r *GenerationRun) Progress() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.progress
}

// Message returns the error message from the last failed run, if any.
func (r *GenerationRun) Message() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.message
}

// Clips returns the published clip list in scene order. The returned
// slice is a copy; callers may not mutate run state through it.
func (r *GenerationRun) Clips() []*Clip {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Clip, len(r.clips))
	copy(out, r.clips)
	return out
}

// Voiceover returns the published voiceover artifact, or nil.
func (r *GenerationRun) Voiceover() *MediaArtifact {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.voiceover
}

// SetOverlays attaches the run's text overlays. Overlays are annotation
// only; they are never rendered into the clips, but they ride along with
// the run so the client can redraw them over the preview.
func (r *GenerationRun) SetOverlays(overlays []*TextOverlay) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overlays = overlays
}

// Overlays returns the run's text overlays in insertion order.
func (r *GenerationRun) Overlays() []*TextOverlay {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*TextOverlay, len(r.overlays))
	copy(out, r.overlays)
	return out
}
