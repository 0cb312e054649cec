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
// This file contains the entities that describe a multi-scene generation
// request and its products. All of these objects are transient: they live
// for the duration of a single generation run and are owned by the run
// that created them. Nothing in this file is persisted directly; the
// LibraryEntry in persistent.go is the only durable representation.
//
// Structs:
//   - Scene: A single user-authored prompt in the storyboard.
//   - Clip: One generated video segment, tied to exactly one Scene.
//   - Voice: A static catalog entry describing a synthesis voice.
//   - StyleTemplate: A static catalog entry contributing a prompt prefix.
//   - PacingOption: A static catalog entry contributing a prompt modifier.
//   - TextOverlay: A literal-text annotation rendered over the preview.
//   - Citation / GroundingResult: Output of a web-grounded text search.
//   - MediaArtifact: An in-process handle to downloaded/generated bytes.
package model

import (
	"github.com/google/uuid"
)

// Scene is a single storyboard entry: an opaque unique identifier plus the
// user's free-text prompt. Scenes are created and edited by the caller; the
// generation workflow only ever reads them.
type Scene struct {
	ID     string `json:"id"`     // Opaque unique token, assigned at creation.
	Prompt string `json:"prompt"` // Free-text description of the desired shot.
}

// NewScene creates a Scene with a fresh random identifier.
//
// Inputs:
//   - prompt: The free-text prompt for the scene. May be empty; empty
//     scenes are filtered out when a generation run starts.
//
// Outputs:
//   - *Scene: A pointer to the new Scene.
func NewScene(prompt string) *Scene {
	return &Scene{ID: uuid.NewString(), Prompt: prompt}
}

// Clip is one generated video segment. Exactly one Clip is produced per
// Scene, in scene order. A Clip is never mutated after creation except by
// future trim-tool writes to the Start/End markers; a new generation run
// discards all Clips from the previous run.
type Clip struct {
	ID       string          `json:"id"`       // Opaque unique token.
	SceneID  string          `json:"scene_id"` // Identifier of the originating Scene.
	Artifact *MediaArtifact  `json:"-"`        // Playable handle to the generated video bytes.
	Start    float64         `json:"start"`    // Trim start marker in seconds.
	End      *float64        `json:"end"`      // Trim end marker in seconds; nil means "to natural end".
}

// NewClip creates a Clip for the given scene with default trim markers
// (start at zero, end unset).
func NewClip(sceneID string, artifact *MediaArtifact) *Clip {
	return &Clip{
		ID:       uuid.NewString(),
		SceneID:  sceneID,
		Artifact: artifact,
		Start:    0,
		End:      nil,
	}
}

// Voice is an immutable catalog entry describing a synthesis voice. The
// APIName is the provider-specific identifier the remote client needs; the
// remaining fields exist for display and filtering.
type Voice struct {
	ID      string `toml:"id" json:"id"`
	Name    string `toml:"name" json:"name"`
	Gender  string `toml:"gender" json:"gender"` // "Male" or "Female".
	Accent  string `toml:"accent" json:"accent"` // e.g. "US", "UK", "Arabic".
	APIName string `toml:"api_name" json:"api_name"`
}

// StyleTemplate is an immutable catalog entry. Its PromptPrefix is
// concatenated ahead of the pacing modifier and the scene text when the
// final per-scene prompt is assembled.
type StyleTemplate struct {
	ID           string `toml:"id" json:"id"`
	Name         string `toml:"name" json:"name"`
	PromptPrefix string `toml:"prompt_prefix" json:"prompt_prefix"`
	Description  string `toml:"description" json:"description"`
}

// PacingOption is an immutable catalog entry. Its PromptModifier is
// concatenated between the template prefix and the scene text.
type PacingOption struct {
	ID             string `toml:"id" json:"id"`
	Name           string `toml:"name" json:"name"`
	PromptModifier string `toml:"prompt_modifier" json:"prompt_modifier"`
}

// TextOverlay is a literal-text annotation overlaid on the preview. There
// is no timing or position modeling in the current scope; the struct shape
// leaves room for both without committing to either.
type TextOverlay struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// NewTextOverlay creates a TextOverlay with a fresh identifier.
func NewTextOverlay(text string) *TextOverlay {
	return &TextOverlay{ID: uuid.NewString(), Text: text}
}

// Citation is a single source reference attached to a grounded search
// response. Either field may be empty; the provider does not guarantee
// both a URI and a title for every source.
type Citation struct {
	URI   string `json:"uri,omitempty"`
	Title string `json:"title,omitempty"`
}

// GroundingResult is the output of one web-grounded text search: the
// generated answer plus an ordered list of source citations. A new search
// replaces the previous result wholesale.
type GroundingResult struct {
	Text      string     `json:"text"`
	Citations []Citation `json:"citations"`
}

// MediaArtifact is an in-process reference to produced media bytes: the
// content itself plus the MIME type describing it. Artifacts stay in
// memory for the lifetime of their run; the library bucket is the
// durable home for anything the user keeps.
type MediaArtifact struct {
	Data     []byte
	MIMEType string
}
