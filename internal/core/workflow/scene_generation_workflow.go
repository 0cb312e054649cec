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

// This file implements the scene generation orchestration.
//
// Logic Flow:
//  1. Claim the run. A run already generating makes the request a no-op,
//     so double-clicks and duplicate API calls cannot fork a run.
//  2. Start the progress rotator; its Stop is deferred so the status
//     line can never keep rotating after the run settles, whatever path
//     the run takes out of this function.
//  3. Expand the request into a plan, then fan out: the voiceover
//     synthesizes on its own goroutine while scene clips generate
//     sequentially in scene order.
//  4. Join both sides. Any failure rewrites to a credential message when
//     the provider rejected the key, then fails the run; otherwise the
//     clips and voiceover publish atomically with the success state.

package workflow

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/vidstudio/gcp-go-media-studio/internal/core/commands"
	"github.com/vidstudio/gcp-go-media-studio/internal/core/cor"
	"github.com/vidstudio/gcp-go-media-studio/internal/core/model"
	"github.com/vidstudio/gcp-go-media-studio/internal/genmedia"
)

// GetGenerationRunParameterName returns the context key holding the
// *model.GenerationRun the workflow reports into.
func GetGenerationRunParameterName() string {
	return "__GENERATION_RUN__"
}

// SceneGenerationWorkflow drives one generation run: sequential scene
// videos, concurrent voiceover, rotating progress, and terminal state
// publication on the run.
type SceneGenerationWorkflow struct {
	cor.BaseCommand
	client          *genmedia.Client
	messageInterval time.Duration
}

// NewSceneGenerationWorkflow creates the workflow. messageInterval
// controls progress message rotation; zero selects the default.
func NewSceneGenerationWorkflow(name string, client *genmedia.Client, messageInterval time.Duration) *SceneGenerationWorkflow {
	return &SceneGenerationWorkflow{
		BaseCommand:     *cor.NewBaseCommand(name),
		client:          client,
		messageInterval: messageInterval,
	}
}

func (w *SceneGenerationWorkflow) IsExecutable(context cor.Context) bool {
	return context != nil &&
		context.GetContext() != nil &&
		context.Get(commands.GetGenerationRequestParameterName()) != nil &&
		context.Get(GetGenerationRunParameterName()) != nil
}

// voiceoverResult carries the concurrent synthesis outcome back to the
// scene loop.
type voiceoverResult struct {
	artifact *model.MediaArtifact
	err      error
}

func (w *SceneGenerationWorkflow) Execute(context cor.Context) {
	request := context.Get(commands.GetGenerationRequestParameterName()).(*model.GenerationRequest)
	run := context.Get(GetGenerationRunParameterName()).(*model.GenerationRun)

	if !run.Begin() {
		slog.InfoContext(context.GetContext(), "generation already in flight, ignoring request", "run", run.ID())
		return
	}

	rotator := NewProgressRotator(model.GenerationMessages, w.messageInterval, run.SetProgress)
	rotator.Start()
	// The rotator must die with the run, on every exit path.
	defer rotator.Stop()

	// Expand the request into scene prompts and the narration script.
	planBuilder := commands.NewGenerationPlanBuilder("generation-plan-builder")
	planBuilder.Execute(context)
	if err := firstError(context); err != nil {
		w.fail(context, run, err)
		return
	}
	plan := context.Get(commands.GetGenerationPlanParameterName()).(*commands.GenerationPlan)

	// Voiceover runs beside the scene loop on its own chain context;
	// only the Go context (cancellation, tracing) is shared.
	voiceoverCh := make(chan voiceoverResult, 1)
	go func() {
		voCtx := cor.NewBaseContext()
		voCtx.SetContext(context.GetContext())
		voCtx.Add(commands.GetGenerationRequestParameterName(), request)
		voCtx.Add(commands.GetGenerationPlanParameterName(), plan)

		synth := commands.NewVoiceoverSynthesizer("voiceover-synthesizer", w.client)
		synth.Execute(voCtx)
		if err := firstError(voCtx); err != nil {
			voiceoverCh <- voiceoverResult{err: err}
			return
		}
		artifact, _ := voCtx.Get(commands.GetVoiceoverParameterName()).(*model.MediaArtifact)
		voiceoverCh <- voiceoverResult{artifact: artifact}
	}()

	// Scene clips generate strictly in order: scene N+1 starts only
	// after scene N finished.
	generator := commands.NewSceneVideoGenerator("scene-video-generator", w.client, rotator.Publish)
	clips := make([]*model.Clip, 0, len(request.Scenes))
	for i, scene := range request.Scenes {
		rotator.Publish(fmt.Sprintf("Generating scene %d of %d...", i+1, len(request.Scenes)))

		sceneCtx := cor.NewBaseContext()
		sceneCtx.SetContext(context.GetContext())
		sceneCtx.Add(commands.GetGenerationRequestParameterName(), request)
		sceneCtx.Add(commands.GetSceneParameterName(), scene)
		sceneCtx.Add(commands.GetScenePromptParameterName(), plan.ScenePrompts[i])

		generator.Execute(sceneCtx)
		if err := firstError(sceneCtx); err != nil {
			w.fail(context, run, err)
			return
		}
		clips = append(clips, sceneCtx.Get(cor.CtxOut).(*model.Clip))
	}

	rotator.Publish("Finalizing voiceover...")
	vo := <-voiceoverCh
	if vo.err != nil {
		w.fail(context, run, vo.err)
		return
	}

	w.GetSuccessCounter().Add(context.GetContext(), 1)
	run.Succeed(clips, vo.artifact)
}

// fail settles the run in the error state with a user-facing message.
// Provider credential rejections are rewritten to a stable message so
// raw API errors never reach the user.
func (w *SceneGenerationWorkflow) fail(context cor.Context, run *model.GenerationRun, err error) {
	w.GetErrorCounter().Add(context.GetContext(), 1)
	slog.ErrorContext(context.GetContext(), "generation run failed", "run", run.ID(), "error", err)

	message := err.Error()
	if genmedia.CredentialRejected(err) {
		message = genmedia.CredentialMessage
	}
	run.Fail(message)
}

// firstError pulls one recorded error out of a chain context. The
// workflow settles a run on the first failure, so which one comes out
// of the map does not matter.
func firstError(ctx cor.Context) error {
	for _, err := range ctx.GetErrors() {
		return err
	}
	return nil
}
