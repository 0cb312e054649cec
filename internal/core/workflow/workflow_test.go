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

package workflow_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidstudio/gcp-go-media-studio/internal/core/commands"
	"github.com/vidstudio/gcp-go-media-studio/internal/core/cor"
	"github.com/vidstudio/gcp-go-media-studio/internal/core/model"
	"github.com/vidstudio/gcp-go-media-studio/internal/core/workflow"
	"github.com/vidstudio/gcp-go-media-studio/internal/genmedia"
	test "github.com/vidstudio/gcp-go-media-studio/internal/testutil"
)

func newTestRequest() *model.GenerationRequest {
	return &model.GenerationRequest{
		Scenes: []*model.Scene{
			{ID: "scene-1", Prompt: "A lighthouse at dawn"},
			{ID: "scene-2", Prompt: "Waves crash on the rocks"},
			{ID: "scene-3", Prompt: "A gull wheels overhead"},
		},
		AspectRatio: "16:9",
		Template:    &model.StyleTemplate{ID: "cinematic", PromptPrefix: "A cinematic, dramatic shot of "},
		Pacing:      &model.PacingOption{ID: "fast", PromptModifier: "fast-paced, quick cuts, "},
		Voice:       &model.Voice{ID: "zephyr", APIName: "Zephyr"},
	}
}

func newWorkflowContext(request *model.GenerationRequest, run *model.GenerationRun) cor.Context {
	ctx := cor.NewBaseContext()
	ctx.SetContext(context.Background())
	ctx.Add(commands.GetGenerationRequestParameterName(), request)
	ctx.Add(workflow.GetGenerationRunParameterName(), run)
	return ctx
}

func TestSceneGenerationWorkflowSuccess(t *testing.T) {
	client, fakes := test.NewFakeMediaClient("test-key")
	request := newTestRequest()
	run := model.NewGenerationRun()

	wf := workflow.NewSceneGenerationWorkflow("scene-generation", client, 50*time.Millisecond)
	wf.Execute(newWorkflowContext(request, run))

	require.Equal(t, model.RunSuccess, run.Status())

	clips := run.Clips()
	require.Len(t, clips, 3)
	for i, clip := range clips {
		assert.Equal(t, request.Scenes[i].ID, clip.SceneID)
		assert.Equal(t, "video/mp4", clip.Artifact.MIMEType)
	}

	// Scene prompts carry style prefix, pacing modifier, then scene text,
	// and arrive at the backend in scene order.
	require.Len(t, fakes.Video.Prompts, 3)
	assert.Equal(t, "A cinematic, dramatic shot of fast-paced, quick cuts, A lighthouse at dawn", fakes.Video.Prompts[0])
	assert.Equal(t, "A cinematic, dramatic shot of fast-paced, quick cuts, Waves crash on the rocks", fakes.Video.Prompts[1])
	assert.Equal(t, []string{"16:9", "16:9", "16:9"}, fakes.Video.AspectRatios)

	// The voiceover script joins the raw scene prompts, not the styled ones.
	assert.Contains(t, fakes.Speech.LastPrompt, "A lighthouse at dawn. Waves crash on the rocks. A gull wheels overhead")
	assert.Equal(t, "Zephyr", fakes.Speech.LastVoice)

	vo := run.Voiceover()
	require.NotNil(t, vo)
	assert.Equal(t, "audio/wav", vo.MIMEType)
	assert.Equal(t, "RIFF", string(vo.Data[:4]))
}

func TestSceneGenerationWorkflowIgnoresDuplicateStart(t *testing.T) {
	client, fakes := test.NewFakeMediaClient("test-key")
	request := newTestRequest()
	run := model.NewGenerationRun()
	require.True(t, run.Begin())

	wf := workflow.NewSceneGenerationWorkflow("scene-generation", client, 50*time.Millisecond)
	wf.Execute(newWorkflowContext(request, run))

	assert.Equal(t, model.RunGenerating, run.Status())
	assert.Equal(t, 0, fakes.Video.StartCalls)
	assert.Equal(t, 0, fakes.Speech.Calls)
}

func TestSceneGenerationWorkflowFailsRunOnSceneError(t *testing.T) {
	client, fakes := test.NewFakeMediaClient("test-key")
	fakes.Video.StartErr = errors.New("model overloaded")
	run := model.NewGenerationRun()

	wf := workflow.NewSceneGenerationWorkflow("scene-generation", client, 50*time.Millisecond)
	wf.Execute(newWorkflowContext(newTestRequest(), run))

	assert.Equal(t, model.RunError, run.Status())
	assert.Contains(t, run.Message(), "model overloaded")
	assert.Empty(t, run.Clips())
}

func TestSceneGenerationWorkflowRewritesCredentialRejection(t *testing.T) {
	client, fakes := test.NewFakeMediaClient("test-key")
	fakes.Video.StartErr = errors.New("400 INVALID_ARGUMENT: API key not valid. Please pass a valid API key.")
	run := model.NewGenerationRun()

	wf := workflow.NewSceneGenerationWorkflow("scene-generation", client, 50*time.Millisecond)
	wf.Execute(newWorkflowContext(newTestRequest(), run))

	assert.Equal(t, model.RunError, run.Status())
	assert.Equal(t, genmedia.CredentialMessage, run.Message())
}

func TestSceneGenerationWorkflowMissingCredential(t *testing.T) {
	client, fakes := test.NewFakeMediaClient("")
	run := model.NewGenerationRun()

	wf := workflow.NewSceneGenerationWorkflow("scene-generation", client, 50*time.Millisecond)
	wf.Execute(newWorkflowContext(newTestRequest(), run))

	assert.Equal(t, model.RunError, run.Status())
	// The guard fires before any backend call.
	assert.Equal(t, 0, fakes.Video.StartCalls)
	assert.Empty(t, fakes.Downloads)
}

func TestSceneGenerationWorkflowFailsRunOnVoiceoverError(t *testing.T) {
	client, fakes := test.NewFakeMediaClient("test-key")
	fakes.Speech.Err = errors.New("voice quota exceeded")
	run := model.NewGenerationRun()

	wf := workflow.NewSceneGenerationWorkflow("scene-generation", client, 50*time.Millisecond)
	wf.Execute(newWorkflowContext(newTestRequest(), run))

	assert.Equal(t, model.RunError, run.Status())
	assert.Contains(t, run.Message(), "voice quota exceeded")
}

func TestSceneGenerationWorkflowRejectsEmptyRequest(t *testing.T) {
	client, _ := test.NewFakeMediaClient("test-key")
	run := model.NewGenerationRun()

	wf := workflow.NewSceneGenerationWorkflow("scene-generation", client, 50*time.Millisecond)
	wf.Execute(newWorkflowContext(&model.GenerationRequest{AspectRatio: "16:9"}, run))

	assert.Equal(t, model.RunError, run.Status())
	assert.Contains(t, run.Message(), "no scenes")
}

func TestProgressRotatorRotatesAndStops(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	sink := func(msg string) {
		mu.Lock()
		seen = append(seen, msg)
		mu.Unlock()
	}

	rotator := workflow.NewProgressRotator([]string{"one", "two", "three"}, 10*time.Millisecond, sink)
	rotator.Start()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) >= 4
	}, 2*time.Second, 5*time.Millisecond)

	rotator.Stop()
	rotator.Stop() // second stop is a no-op

	mu.Lock()
	require.GreaterOrEqual(t, len(seen), 4)
	assert.Equal(t, "one", seen[0])
	assert.Equal(t, "two", seen[1])
	assert.Equal(t, "three", seen[2])
	assert.Equal(t, "one", seen[3]) // wraps around
	count := len(seen)
	mu.Unlock()

	// No further publishes after Stop.
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, count, len(seen))
	mu.Unlock()
}

func TestProgressRotatorPublishOverridesRotation(t *testing.T) {
	var mu sync.Mutex
	var last string
	rotator := workflow.NewProgressRotator([]string{"flavor"}, time.Hour, func(msg string) {
		mu.Lock()
		last = msg
		mu.Unlock()
	})
	rotator.Start()
	defer rotator.Stop()

	rotator.Publish("Generating scene 2 of 3...")

	mu.Lock()
	assert.Equal(t, "Generating scene 2 of 3...", last)
	mu.Unlock()
}
