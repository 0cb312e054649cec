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

// Package model_test contains unit tests for the data models defined in
// the model package: the generation run state machine, the library entry
// constructor, and the catalog lookups.
package model_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/vidstudio/gcp-go-media-studio/internal/core/model"
)

// TestGenerationRunBegin verifies the reentry guard: a run that is already
// generating refuses a second Begin, and any terminal state accepts one.
func TestGenerationRunBegin(t *testing.T) {
	run := model.NewGenerationRun()
	assert.Equal(t, model.RunIdle, run.Status())

	assert.True(t, run.Begin())
	assert.Equal(t, model.RunGenerating, run.Status())

	// A second start while in flight is a no-op.
	assert.False(t, run.Begin())
	assert.Equal(t, model.RunGenerating, run.Status())

	run.Succeed(nil, nil)
	assert.Equal(t, model.RunSuccess, run.Status())
	assert.True(t, run.Begin())

	run.Fail("boom")
	assert.Equal(t, model.RunError, run.Status())
	assert.Equal(t, "boom", run.Message())
	assert.True(t, run.Begin())
}

// TestGenerationRunOverlays verifies that overlays ride along with the
// run and survive state transitions, since they annotate the preview
// rather than belong to any single generation attempt.
func TestGenerationRunOverlays(t *testing.T) {
	run := model.NewGenerationRun()
	run.SetOverlays([]*model.TextOverlay{model.NewTextOverlay("Grand Opening!")})

	assert.True(t, run.Begin())
	run.Succeed(nil, nil)

	overlays := run.Overlays()
	assert.Len(t, overlays, 1)
	assert.Equal(t, "Grand Opening!", overlays[0].Text)
	assert.NotEmpty(t, overlays[0].ID)
}

// TestGenerationRunBeginDiscardsResults verifies that starting a new run
// discards the previous run's clips and voiceover.
func TestGenerationRunBeginDiscardsResults(t *testing.T) {
	run := model.NewGenerationRun()
	assert.True(t, run.Begin())
	clip := model.NewClip("scene-1", &model.MediaArtifact{Data: []byte{1}, MIMEType: "video/mp4"})
	run.Succeed([]*model.Clip{clip}, &model.MediaArtifact{Data: []byte{2}, MIMEType: "audio/wav"})
	assert.Len(t, run.Clips(), 1)
	assert.NotNil(t, run.Voiceover())

	assert.True(t, run.Begin())
	assert.Len(t, run.Clips(), 0)
	assert.Nil(t, run.Voiceover())
	assert.Equal(t, "", run.Message())
}

// TestNewLibraryEntry verifies that the entry ID is a stable UUIDv5 hash
// of the GCS URI, so redelivered publish messages do not create duplicates.
func TestNewLibraryEntry(t *testing.T) {
	uri := "gs://studio-artifacts/runs/abc/clip-0.mp4"
	entry := model.NewLibraryEntry("run-abc", "clip", uri)

	expected := uuid.NewSHA1(uuid.NameSpaceURL, []byte(uri))
	assert.Equal(t, expected.String(), entry.ID)
	assert.Equal(t, "run-abc", entry.RunID)
	assert.Equal(t, "clip", entry.Kind)
	assert.WithinDuration(t, time.Now(), entry.CreateDate, time.Second)

	// Same URI, same key.
	again := model.NewLibraryEntry("run-abc", "clip", uri)
	assert.Equal(t, entry.ID, again.ID)
}

// TestCatalogLookups exercises the catalog find helpers against the
// built-in defaults.
func TestCatalogLookups(t *testing.T) {
	voice := model.FindVoice(model.DefaultVoices, "uk-female-1")
	assert.NotNil(t, voice)
	assert.Equal(t, "Charon", voice.APIName)
	assert.Nil(t, model.FindVoice(model.DefaultVoices, "nope"))

	tmpl := model.FindTemplate(model.DefaultTemplates, "cinematic")
	assert.NotNil(t, tmpl)
	assert.Contains(t, tmpl.PromptPrefix, "cinematic")

	pacing := model.FindPacing(model.DefaultPacingOptions, "Medium")
	assert.NotNil(t, pacing)
	assert.Equal(t, "", pacing.PromptModifier)
}
