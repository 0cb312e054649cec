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

package commands_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidstudio/gcp-go-media-studio/internal/cloud"
	"github.com/vidstudio/gcp-go-media-studio/internal/core/commands"
	"github.com/vidstudio/gcp-go-media-studio/internal/core/cor"
	"github.com/vidstudio/gcp-go-media-studio/internal/core/model"
)

func newChainContext() cor.Context {
	ctx := cor.NewBaseContext()
	ctx.SetContext(context.Background())
	return ctx
}

func TestGenerationPlanBuilder(t *testing.T) {
	request := &model.GenerationRequest{
		Scenes: []*model.Scene{
			model.NewScene("A lighthouse at dawn"),
			model.NewScene("Waves crash on the rocks"),
		},
		AspectRatio: "16:9",
		Template:    &model.StyleTemplate{ID: "cinematic", PromptPrefix: "A cinematic, dramatic shot of "},
		Pacing:      &model.PacingOption{ID: "fast", PromptModifier: "fast-paced, quick cuts, "},
	}

	ctx := newChainContext()
	ctx.Add(commands.GetGenerationRequestParameterName(), request)

	builder := commands.NewGenerationPlanBuilder("test_plan_builder")
	require.True(t, builder.IsExecutable(ctx))
	builder.Execute(ctx)
	require.False(t, ctx.HasErrors())

	plan := ctx.Get(commands.GetGenerationPlanParameterName()).(*commands.GenerationPlan)
	require.Len(t, plan.ScenePrompts, 2)
	assert.Equal(t, "A cinematic, dramatic shot of fast-paced, quick cuts, A lighthouse at dawn", plan.ScenePrompts[0])
	assert.Equal(t, "A cinematic, dramatic shot of fast-paced, quick cuts, Waves crash on the rocks", plan.ScenePrompts[1])
	assert.Equal(t, "A lighthouse at dawn. Waves crash on the rocks", plan.VoiceoverScript)
}

func TestGenerationPlanBuilderNoStyle(t *testing.T) {
	request := &model.GenerationRequest{
		Scenes: []*model.Scene{model.NewScene("A quiet forest")},
	}
	ctx := newChainContext()
	ctx.Add(commands.GetGenerationRequestParameterName(), request)

	builder := commands.NewGenerationPlanBuilder("test_plan_builder_plain")
	builder.Execute(ctx)
	require.False(t, ctx.HasErrors())

	plan := ctx.Get(commands.GetGenerationPlanParameterName()).(*commands.GenerationPlan)
	assert.Equal(t, []string{"A quiet forest"}, plan.ScenePrompts)
}

func TestGenerationPlanBuilderEmptyRequest(t *testing.T) {
	ctx := newChainContext()
	ctx.Add(commands.GetGenerationRequestParameterName(), &model.GenerationRequest{})

	builder := commands.NewGenerationPlanBuilder("test_plan_builder_empty")
	builder.Execute(ctx)
	assert.True(t, ctx.HasErrors())
}

func TestArtifactTriggerReader(t *testing.T) {
	notification := cloud.GCSPubSubNotification{
		Bucket:      "studio-artifacts",
		Name:        "run-1/clip.mp4",
		ContentType: "video/mp4",
		Size:        "1048576",
		MetaData: map[string]interface{}{
			"run_id":       "run-1",
			"kind":         "clip",
			"title":        "Beach sunset",
			"aspect_ratio": "16:9",
		},
	}
	payload, err := json.Marshal(notification)
	require.NoError(t, err)

	ctx := newChainContext()
	ctx.Add(cor.CtxIn, string(payload))

	reader := commands.NewArtifactTriggerReader("test_trigger_reader")
	require.True(t, reader.IsExecutable(ctx))
	reader.Execute(ctx)
	require.False(t, ctx.HasErrors())

	obj := ctx.Get(cloud.GetArtifactObjectName()).(*cloud.ArtifactObject)
	assert.Equal(t, "studio-artifacts", obj.Bucket)
	assert.Equal(t, "run-1/clip.mp4", obj.Name)
	assert.Equal(t, int64(1048576), obj.SizeBytes)
	assert.Equal(t, "clip", obj.Metadata["kind"])
}

func TestArtifactTriggerReaderBadPayload(t *testing.T) {
	ctx := newChainContext()
	ctx.Add(cor.CtxIn, "not json")

	reader := commands.NewArtifactTriggerReader("test_trigger_reader_bad")
	reader.Execute(ctx)
	assert.True(t, ctx.HasErrors())
}

func TestLibraryEntryBuilder(t *testing.T) {
	obj := &cloud.ArtifactObject{
		Bucket:    "studio-artifacts",
		Name:      "run-1/voiceover.wav",
		MIMEType:  "audio/wav",
		SizeBytes: 2048,
		Metadata: map[string]string{
			"run_id":       "run-1",
			"kind":         "voiceover",
			"title":        "Beach sunset",
			"aspect_ratio": "16:9",
		},
	}
	ctx := newChainContext()
	ctx.Add(cloud.GetArtifactObjectName(), obj)

	builder := commands.NewLibraryEntryBuilder("test_entry_builder")
	require.True(t, builder.IsExecutable(ctx))
	builder.Execute(ctx)
	require.False(t, ctx.HasErrors())

	entry := ctx.Get(commands.GetLibraryEntryParameterName()).(*model.LibraryEntry)
	assert.Equal(t, "run-1", entry.RunID)
	assert.Equal(t, "voiceover", entry.Kind)
	assert.Equal(t, "gs://studio-artifacts/run-1/voiceover.wav", entry.GCSURI)
	assert.Equal(t, "audio/wav", entry.MIMEType)
	assert.Equal(t, int64(2048), entry.SizeBytes)
	assert.NotEmpty(t, entry.ID)

	// Rebuilding from the same notification yields the same row key.
	ctx2 := newChainContext()
	ctx2.Add(cloud.GetArtifactObjectName(), obj)
	builder.Execute(ctx2)
	entry2 := ctx2.Get(commands.GetLibraryEntryParameterName()).(*model.LibraryEntry)
	assert.Equal(t, entry.ID, entry2.ID)
}
