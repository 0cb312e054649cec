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

// Package commands holds the concrete chain-of-responsibility commands
// that the generation and library workflows are assembled from. Each
// command does one unit of work against the shared workflow context:
// plan a run, generate a clip, synthesize narration, move an artifact
// into the library.
//
// This file defines the planning command that turns a raw generation
// request into the per-scene video prompts and the narration script.
//
// Logic Flow:
//  1. The request's style template prefix and pacing modifier are
//     prepended to each scene's text, producing one full video prompt
//     per scene, in scene order.
//  2. The narration script is the plain scene texts joined with ". " so
//     the voiceover reads the story, not the style directives.
package commands

import (
	"errors"
	"strings"

	"github.com/vidstudio/gcp-go-media-studio/internal/core/cor"
	"github.com/vidstudio/gcp-go-media-studio/internal/core/model"
)

// GetGenerationRequestParameterName returns the context key holding the
// *model.GenerationRequest for the run.
func GetGenerationRequestParameterName() string {
	return "__GENERATION_REQUEST__"
}

// GetGenerationPlanParameterName returns the context key holding the
// *GenerationPlan produced by this command.
func GetGenerationPlanParameterName() string {
	return "__GENERATION_PLAN__"
}

// GenerationPlan is the expanded form of a generation request: the full
// prompt for each scene's video job and the narration script for the
// voiceover. ScenePrompts preserves the request's scene order.
type GenerationPlan struct {
	ScenePrompts    []string
	VoiceoverScript string
}

// GenerationPlanBuilder expands a GenerationRequest into a
// GenerationPlan.
type GenerationPlanBuilder struct {
	cor.BaseCommand
}

func NewGenerationPlanBuilder(name string) *GenerationPlanBuilder {
	return &GenerationPlanBuilder{BaseCommand: *cor.NewBaseCommand(name)}
}

func (c *GenerationPlanBuilder) IsExecutable(context cor.Context) bool {
	return context != nil && context.Get(GetGenerationRequestParameterName()) != nil
}

func (c *GenerationPlanBuilder) Execute(context cor.Context) {
	request := context.Get(GetGenerationRequestParameterName()).(*model.GenerationRequest)

	if len(request.Scenes) == 0 {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), errors.New("generation request has no scenes"))
		return
	}

	plan := &GenerationPlan{
		ScenePrompts: make([]string, 0, len(request.Scenes)),
	}
	sceneTexts := make([]string, 0, len(request.Scenes))
	for _, scene := range request.Scenes {
		plan.ScenePrompts = append(plan.ScenePrompts, buildScenePrompt(request, scene))
		sceneTexts = append(sceneTexts, scene.Prompt)
	}
	plan.VoiceoverScript = strings.Join(sceneTexts, ". ")

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetGenerationPlanParameterName(), plan)
	context.Add(c.GetOutputParam(), plan)
}

// buildScenePrompt composes the provider prompt for one scene: style
// prefix, then pacing modifier, then the scene's own text.
func buildScenePrompt(request *model.GenerationRequest, scene *model.Scene) string {
	var b strings.Builder
	if request.Template != nil {
		b.WriteString(request.Template.PromptPrefix)
	}
	if request.Pacing != nil {
		b.WriteString(request.Pacing.PromptModifier)
	}
	b.WriteString(scene.Prompt)
	return b.String()
}
