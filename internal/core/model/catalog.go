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
// This file holds the built-in catalogs: the fixed voice list, the style
// templates, the pacing options, and the rotating flavor-text progress
// messages. The catalogs are immutable at runtime; configuration may
// append entries on top of these defaults but never removes them.
package model

// AspectRatios lists the supported output shapes, in display order.
var AspectRatios = []string{"9:16", "16:9", "1:1"}

// DefaultVoices is the built-in voice catalog. APIName is the provider's
// prebuilt voice identifier.
var DefaultVoices = []*Voice{
	{ID: "us-male-1", Name: "American Male", Gender: "Male", Accent: "US", APIName: "Zephyr"},
	{ID: "us-female-1", Name: "American Female", Gender: "Female", Accent: "US", APIName: "Kore"},
	{ID: "uk-male-1", Name: "British Male", Gender: "Male", Accent: "UK", APIName: "Puck"},
	{ID: "uk-female-1", Name: "British Female", Gender: "Female", Accent: "UK", APIName: "Charon"},
	{ID: "arabic-male-1", Name: "Arabic Male", Gender: "Male", Accent: "Arabic", APIName: "Fenrir"},
}

// DefaultTemplates is the built-in style template catalog. The prefix of
// the selected template is prepended to every per-scene prompt.
var DefaultTemplates = []*StyleTemplate{
	{
		ID:           "default",
		Name:         "Default Style",
		PromptPrefix: "",
		Description:  "A clean, standard style with no specific visual effects applied.",
	},
	{
		ID:           "cinematic",
		Name:         "Cinematic",
		PromptPrefix: "cinematic, epic lighting, high definition, dramatic color grading, ",
		Description:  "Creates a dramatic, movie-like feel with epic lighting and rich colors.",
	},
	{
		ID:           "vintage",
		Name:         "Vintage Film",
		PromptPrefix: "vintage film look, 8mm film grain, sepia tones, light leaks, ",
		Description:  "Mimics the look of old 8mm film, with grain, sepia tones, and light leaks.",
	},
	{
		ID:           "anime",
		Name:         "Anime",
		PromptPrefix: "anime style, vibrant colors, cel shading, Japanese animation aesthetic, ",
		Description:  "Generates visuals in a vibrant, cel-shaded Japanese anime style.",
	},
	{
		ID:           "neon",
		Name:         "Neon Noir",
		PromptPrefix: "neon noir style, cyberpunk, glowing lights, rainy city streets, futuristic, ",
		Description:  "A futuristic, cyberpunk look with glowing neon lights and dark, rainy cityscapes.",
	},
}

// DefaultPacingOptions is the built-in pacing catalog. "Medium" is the
// neutral option and contributes no modifier text.
var DefaultPacingOptions = []*PacingOption{
	{ID: "Medium", Name: "Medium", PromptModifier: ""},
	{ID: "Fast", Name: "Fast", PromptModifier: "fast-paced, quick cuts, high energy, "},
	{ID: "Slow", Name: "Slow", PromptModifier: "slow-paced, cinematic, lingering shots, "},
}

// GenerationMessages is the rotating flavor-text catalog shown while a run
// is in flight. The rotation is purely for perceived liveness; the
// messages carry no information about actual pipeline progress.
var GenerationMessages = []string{
	"Warming up the AI... this can take a moment.",
	"Analyzing your prompt for creative direction...",
	"Generating script from your topic...",
	"Casting AI actors for your video...",
	"Rendering scene 1: The opening shot...",
	"Generating realistic voiceover...",
	"Searching for perfect B-roll footage...",
	"Syncing audio and video tracks...",
	"Applying trendy template styles...",
	"Adding automatic subtitles...",
	"Composing a fitting background score...",
	"Finalizing render... almost there!",
	"Polishing the final cut...",
	"Running quality checks...",
}

// FindVoice returns the catalog voice with the given ID, or nil.
func FindVoice(voices []*Voice, id string) *Voice {
	for _, v := range voices {
		if v.ID == id {
			return v
		}
	}
	return nil
}

// FindTemplate returns the catalog template with the given ID, or nil.
func FindTemplate(templates []*StyleTemplate, id string) *StyleTemplate {
	for _, t := range templates {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// FindPacing returns the catalog pacing option with the given ID, or nil.
func FindPacing(options []*PacingOption, id string) *PacingOption {
	for _, p := range options {
		if p.ID == id {
			return p
		}
	}
	return nil
}
