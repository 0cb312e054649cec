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

// This file defines the command that produces one video clip for one
// scene. The generation workflow invokes it once per scene, in order:
// clip N+1 is never started before clip N has finished, which keeps the
// story's continuity and the provider's long-running job load
// predictable.

package commands

import (
	"fmt"

	"github.com/vidstudio/gcp-go-media-studio/internal/core/cor"
	"github.com/vidstudio/gcp-go-media-studio/internal/core/model"
	"github.com/vidstudio/gcp-go-media-studio/internal/genmedia"
)

// GetScenePromptParameterName returns the context key holding the full
// prompt for the scene currently being generated.
func GetScenePromptParameterName() string {
	return "__SCENE_PROMPT__"
}

// GetSceneParameterName returns the context key holding the
// model.Scene currently being generated.
func GetSceneParameterName() string {
	return "__SCENE__"
}

// SceneVideoGenerator generates the video clip for a single scene using
// the generative media client and emits a model.Clip.
type SceneVideoGenerator struct {
	cor.BaseCommand
	client   *genmedia.Client
	progress genmedia.ProgressFunc
}

// NewSceneVideoGenerator creates the command. progress may be nil; when
// set it receives the client's poll status lines so the workflow can
// surface them to the user.
func NewSceneVideoGenerator(name string, client *genmedia.Client, progress genmedia.ProgressFunc) *SceneVideoGenerator {
	return &SceneVideoGenerator{
		BaseCommand: *cor.NewBaseCommand(name),
		client:      client,
		progress:    progress,
	}
}

func (c *SceneVideoGenerator) IsExecutable(context cor.Context) bool {
	return context != nil &&
		context.GetContext() != nil &&
		context.Get(GetScenePromptParameterName()) != nil &&
		context.Get(GetSceneParameterName()) != nil &&
		context.Get(GetGenerationRequestParameterName()) != nil
}

func (c *SceneVideoGenerator) Execute(context cor.Context) {
	prompt := context.Get(GetScenePromptParameterName()).(string)
	scene := context.Get(GetSceneParameterName()).(*model.Scene)
	request := context.Get(GetGenerationRequestParameterName()).(*model.GenerationRequest)

	artifact, err := c.client.GenerateVideo(context.GetContext(), prompt, request.AspectRatio, c.progress)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("scene %s: %w", scene.ID, err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), model.NewClip(scene.ID, artifact))
}
