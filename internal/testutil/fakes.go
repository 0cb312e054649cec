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

package test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vidstudio/gcp-go-media-studio/internal/core/model"
	"github.com/vidstudio/gcp-go-media-studio/internal/genmedia"
)

// FakeVideoBackend is an in-memory video backend. Every start yields an
// operation that reports done after PollsUntilDone polls.
type FakeVideoBackend struct {
	mu sync.Mutex

	StartCalls     int
	PollCalls      int
	PollsUntilDone int
	StartErr       error
	PollErr        error
	ResultURIs     []string
	Prompts        []string
	AspectRatios   []string
	LastImage      *model.MediaArtifact
}

func (f *FakeVideoBackend) StartGeneration(_ context.Context, _ string, prompt string, image *model.MediaArtifact, aspectRatio string) (*genmedia.VideoOperation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.StartCalls++
	f.Prompts = append(f.Prompts, prompt)
	f.AspectRatios = append(f.AspectRatios, aspectRatio)
	f.LastImage = image
	if f.StartErr != nil {
		return nil, f.StartErr
	}
	return &genmedia.VideoOperation{Name: fmt.Sprintf("operations/fake-%d", f.StartCalls)}, nil
}

func (f *FakeVideoBackend) Poll(_ context.Context, op *genmedia.VideoOperation) (*genmedia.VideoOperation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PollCalls++
	if f.PollErr != nil {
		return nil, f.PollErr
	}
	if f.PollCalls >= f.PollsUntilDone {
		return &genmedia.VideoOperation{Name: op.Name, Done: true, URIs: f.ResultURIs}, nil
	}
	return &genmedia.VideoOperation{Name: op.Name}, nil
}

// FakeSpeechBackend returns canned PCM bytes and records the prompt it
// was given.
type FakeSpeechBackend struct {
	mu sync.Mutex

	Calls      int
	PCM        []byte
	Err        error
	LastPrompt string
	LastVoice  string
}

func (f *FakeSpeechBackend) Synthesize(_ context.Context, _ string, prompt string, voiceName string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	f.LastPrompt = prompt
	f.LastVoice = voiceName
	if f.Err != nil {
		return nil, f.Err
	}
	return f.PCM, nil
}

// FakeImageBackend serves one canned artifact for generate and edit.
type FakeImageBackend struct {
	mu sync.Mutex

	GenerateCalls int
	EditCalls     int
	Out           *model.MediaArtifact
	Err           error
	LastPrompt    string
}

func (f *FakeImageBackend) Generate(_ context.Context, _ string, prompt string, _ string) (*model.MediaArtifact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GenerateCalls++
	f.LastPrompt = prompt
	return f.Out, f.Err
}

func (f *FakeImageBackend) Edit(_ context.Context, _ string, prompt string, _ *model.MediaArtifact) (*model.MediaArtifact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.EditCalls++
	f.LastPrompt = prompt
	return f.Out, f.Err
}

// FakeSearchBackend serves one canned grounding result.
type FakeSearchBackend struct {
	mu sync.Mutex

	Calls     int
	Out       *model.GroundingResult
	Err       error
	LastQuery string
}

func (f *FakeSearchBackend) GroundedSearch(_ context.Context, _ string, query string) (*model.GroundingResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	f.LastQuery = query
	return f.Out, f.Err
}

// ImmediateSleeper records requested sleep durations and returns without
// waiting, so poll loops run instantly under test.
type ImmediateSleeper struct {
	mu    sync.Mutex
	Slept []time.Duration
}

func (s *ImmediateSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.Slept = append(s.Slept, d)
	s.mu.Unlock()
	return ctx.Err()
}

// FakeBackends bundles the fake seams behind a ready-to-use media client.
type FakeBackends struct {
	Video  *FakeVideoBackend
	Speech *FakeSpeechBackend
	Image  *FakeImageBackend
	Search *FakeSearchBackend
	Sleep  *ImmediateSleeper

	Downloads []string
}

// NewFakeMediaClient builds a genmedia client wired entirely to fakes.
// Downloads resolve to the body "video-bytes:<uri>" so tests can assert
// which URI a clip came from.
func NewFakeMediaClient(credential string) (*genmedia.Client, *FakeBackends) {
	fakes := &FakeBackends{
		Video:  &FakeVideoBackend{PollsUntilDone: 1, ResultURIs: []string{"https://fake.example/video.mp4"}},
		Speech: &FakeSpeechBackend{PCM: []byte{0x01, 0x00, 0x02, 0x00}},
		Image:  &FakeImageBackend{Out: &model.MediaArtifact{Data: []byte("png-bytes"), MIMEType: "image/png"}},
		Search: &FakeSearchBackend{Out: &model.GroundingResult{Text: "answer"}},
		Sleep:  &ImmediateSleeper{},
	}
	var mu sync.Mutex
	client := genmedia.NewClient(genmedia.Options{
		Credential: credential,
		Models: genmedia.Models{
			Video:     "fake-video",
			Speech:    "fake-speech",
			Image:     "fake-image",
			ImageEdit: "fake-image-edit",
			Search:    "fake-search",
		},
		Video:  fakes.Video,
		Speech: fakes.Speech,
		Image:  fakes.Image,
		Search: fakes.Search,
		Download: func(_ context.Context, uri string, _ string) ([]byte, error) {
			mu.Lock()
			fakes.Downloads = append(fakes.Downloads, uri)
			mu.Unlock()
			return []byte("video-bytes:" + uri), nil
		},
		Sleeper: fakes.Sleep,
	})
	return client, fakes
}
