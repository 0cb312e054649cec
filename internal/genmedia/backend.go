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

// Package genmedia is the client layer for Google's generative media
// models. It exposes one capability per media type (video, speech, image,
// grounded search) behind small backend interfaces so workflows and tests
// never hold a raw provider client.
//
// Structs:
//   - Client: The capability facade used by workflows. Enforces the
//     credential precondition and owns polling and artifact download.
//   - VideoOperation: A provider-neutral handle for a long-running video
//     generation job.
//   - Models: The model identifiers used for each capability.
//
// Interfaces:
//   - VideoBackend, SpeechBackend, ImageBackend, SearchBackend: The
//     provider seams. Production code uses the genai-backed
//     implementation from NewGenAIBackend; tests substitute fakes.
package genmedia

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/vidstudio/gcp-go-media-studio/internal/core/model"
)

// Models names the provider model for each capability. Values come from
// configuration; the zero value is not usable.
type Models struct {
	Video     string `toml:"video" json:"video"`
	Speech    string `toml:"speech" json:"speech"`
	Image     string `toml:"image" json:"image"`
	ImageEdit string `toml:"image_edit" json:"image_edit"`
	Search    string `toml:"search" json:"search"`
	Live      string `toml:"live" json:"live"`
}

// VideoOperation is a provider-neutral view of a long-running video job.
// Name identifies the job for polling; URIs is populated once Done.
type VideoOperation struct {
	Name string
	Done bool
	URIs []string

	// raw carries the provider operation handle between polls.
	raw *genai.GenerateVideosOperation
}

// VideoBackend starts and polls long-running video generation jobs.
type VideoBackend interface {
	// StartGeneration kicks off a video job from a text prompt and an
	// optional conditioning image (for animation).
	StartGeneration(ctx context.Context, modelName string, prompt string, image *model.MediaArtifact, aspectRatio string) (*VideoOperation, error)
	// Poll refreshes the operation state. The returned operation replaces
	// the input for the next poll cycle.
	Poll(ctx context.Context, op *VideoOperation) (*VideoOperation, error)
}

// SpeechBackend synthesizes speech and returns raw PCM sample bytes in
// the provider's native output format (24kHz mono 16-bit).
type SpeechBackend interface {
	Synthesize(ctx context.Context, modelName string, prompt string, voiceName string) ([]byte, error)
}

// ImageBackend creates and edits still images.
type ImageBackend interface {
	Generate(ctx context.Context, modelName string, prompt string, aspectRatio string) (*model.MediaArtifact, error)
	Edit(ctx context.Context, modelName string, prompt string, image *model.MediaArtifact) (*model.MediaArtifact, error)
}

// SearchBackend answers a query with web grounding and returns the answer
// text alongside its source citations.
type SearchBackend interface {
	GroundedSearch(ctx context.Context, modelName string, query string) (*model.GroundingResult, error)
}

// GenAIBackend implements all four backend interfaces against a single
// genai client.
type GenAIBackend struct {
	client *genai.Client
}

// NewGenAIBackend wraps an initialized genai client. The same value is
// passed to NewClient for each backend seam.
func NewGenAIBackend(client *genai.Client) *GenAIBackend {
	return &GenAIBackend{client: client}
}

func (b *GenAIBackend) StartGeneration(ctx context.Context, modelName string, prompt string, image *model.MediaArtifact, aspectRatio string) (*VideoOperation, error) {
	var condImage *genai.Image
	if image != nil {
		condImage = &genai.Image{ImageBytes: image.Data, MIMEType: image.MIMEType}
	}
	config := &genai.GenerateVideosConfig{
		NumberOfVideos: 1,
		AspectRatio:    aspectRatio,
	}
	op, err := b.client.Models.GenerateVideos(ctx, modelName, prompt, condImage, config)
	if err != nil {
		return nil, fmt.Errorf("start video generation: %w", err)
	}
	return videoOperationFrom(op), nil
}

func (b *GenAIBackend) Poll(ctx context.Context, op *VideoOperation) (*VideoOperation, error) {
	refreshed, err := b.client.Operations.GetVideosOperation(ctx, op.raw, nil)
	if err != nil {
		return nil, fmt.Errorf("poll video operation: %w", err)
	}
	return videoOperationFrom(refreshed), nil
}

func videoOperationFrom(op *genai.GenerateVideosOperation) *VideoOperation {
	out := &VideoOperation{Name: op.Name, Done: op.Done, raw: op}
	if op.Response != nil {
		for _, v := range op.Response.GeneratedVideos {
			if v.Video != nil && v.Video.URI != "" {
				out.URIs = append(out.URIs, v.Video.URI)
			}
		}
	}
	return out
}

func (b *GenAIBackend) Synthesize(ctx context.Context, modelName string, prompt string, voiceName string) ([]byte, error) {
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voiceName},
			},
		},
	}
	resp, err := b.client.Models.GenerateContent(ctx, modelName, genai.Text(prompt), config)
	if err != nil {
		return nil, fmt.Errorf("synthesize speech: %w", err)
	}
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data, nil
			}
		}
	}
	return nil, nil
}

func (b *GenAIBackend) Generate(ctx context.Context, modelName string, prompt string, aspectRatio string) (*model.MediaArtifact, error) {
	config := &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		AspectRatio:    aspectRatio,
		OutputMIMEType: "image/png",
	}
	resp, err := b.client.Models.GenerateImages(ctx, modelName, prompt, config)
	if err != nil {
		return nil, fmt.Errorf("generate image: %w", err)
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return nil, nil
	}
	img := resp.GeneratedImages[0].Image
	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = "image/png"
	}
	return &model.MediaArtifact{Data: img.ImageBytes, MIMEType: mimeType}, nil
}

func (b *GenAIBackend) Edit(ctx context.Context, modelName string, prompt string, image *model.MediaArtifact) (*model.MediaArtifact, error) {
	contents := []*genai.Content{
		{Role: genai.RoleUser, Parts: []*genai.Part{
			{InlineData: &genai.Blob{Data: image.Data, MIMEType: image.MIMEType}},
			{Text: prompt},
		}},
	}
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	}
	resp, err := b.client.Models.GenerateContent(ctx, modelName, contents, config)
	if err != nil {
		return nil, fmt.Errorf("edit image: %w", err)
	}
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return &model.MediaArtifact{Data: part.InlineData.Data, MIMEType: part.InlineData.MIMEType}, nil
			}
		}
	}
	return nil, nil
}

func (b *GenAIBackend) GroundedSearch(ctx context.Context, modelName string, query string) (*model.GroundingResult, error) {
	config := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}
	resp, err := b.client.Models.GenerateContent(ctx, modelName, genai.Text(query), config)
	if err != nil {
		return nil, fmt.Errorf("grounded search: %w", err)
	}
	result := &model.GroundingResult{Text: resp.Text()}
	if len(resp.Candidates) > 0 && resp.Candidates[0].GroundingMetadata != nil {
		result.Citations = groundingCitations(resp.Candidates[0].GroundingMetadata)
	}
	return result, nil
}

// groundingCitations maps the provider's grounding chunks onto the
// citation shape. URI-less chunks still carry a title, so they pass
// through; the client decides how to render them.
func groundingCitations(md *genai.GroundingMetadata) []model.Citation {
	var citations []model.Citation
	for _, chunk := range md.GroundingChunks {
		if chunk.Web == nil {
			continue
		}
		citations = append(citations, model.Citation{
			URI:   chunk.Web.URI,
			Title: chunk.Web.Title,
		})
	}
	return citations
}
