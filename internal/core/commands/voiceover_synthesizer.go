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

// This file defines the command that synthesizes the run's narration.
// The workflow executes it concurrently with the scene video loop, on
// its own chain context, since narration and video generation share no
// intermediate state.

package commands

import (
	"fmt"

	"github.com/vidstudio/gcp-go-media-studio/internal/core/cor"
	"github.com/vidstudio/gcp-go-media-studio/internal/core/model"
	"github.com/vidstudio/gcp-go-media-studio/internal/genmedia"
)

// GetVoiceoverParameterName returns the context key holding the
// synthesized narration artifact.
func GetVoiceoverParameterName() string {
	return "__VOICEOVER__"
}

// VoiceoverSynthesizer turns the run's narration script into a WAV
// artifact using the configured voice.
type VoiceoverSynthesizer struct {
	cor.BaseCommand
	client *genmedia.Client
}

func NewVoiceoverSynthesizer(name string, client *genmedia.Client) *VoiceoverSynthesizer {
	return &VoiceoverSynthesizer{BaseCommand: *cor.NewBaseCommand(name), client: client}
}

func (c *VoiceoverSynthesizer) IsExecutable(context cor.Context) bool {
	return context != nil &&
		context.GetContext() != nil &&
		context.Get(GetGenerationPlanParameterName()) != nil &&
		context.Get(GetGenerationRequestParameterName()) != nil
}

func (c *VoiceoverSynthesizer) Execute(context cor.Context) {
	plan := context.Get(GetGenerationPlanParameterName()).(*GenerationPlan)
	request := context.Get(GetGenerationRequestParameterName()).(*model.GenerationRequest)

	voiceName := ""
	if request.Voice != nil {
		voiceName = request.Voice.APIName
	}

	artifact, err := c.client.GenerateVoiceover(context.GetContext(), plan.VoiceoverScript, voiceName)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("voiceover synthesis: %w", err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetVoiceoverParameterName(), artifact)
	context.Add(c.GetOutputParam(), artifact)
}
