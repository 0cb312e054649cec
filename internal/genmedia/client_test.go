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

package genmedia

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/vidstudio/gcp-go-media-studio/internal/audio"
	"github.com/vidstudio/gcp-go-media-studio/internal/core/model"
)

var testModels = Models{
	Video:     "test-video-model",
	Speech:    "test-speech-model",
	Image:     "test-image-model",
	ImageEdit: "test-image-edit-model",
	Search:    "test-search-model",
}

// fakeBackend implements all backend seams and counts every call so
// tests can assert the no-network guarantee.
type fakeBackend struct {
	calls int

	pollsUntilDone int
	pollErr        error
	resultURIs     []string

	pcm []byte

	imageOut  *model.MediaArtifact
	searchOut *model.GroundingResult

	lastPrompt string
	lastImage  *model.MediaArtifact
}

func (f *fakeBackend) StartGeneration(_ context.Context, _ string, prompt string, image *model.MediaArtifact, _ string) (*VideoOperation, error) {
	f.calls++
	f.lastPrompt = prompt
	f.lastImage = image
	return &VideoOperation{Name: "operations/fake"}, nil
}

func (f *fakeBackend) Poll(_ context.Context, op *VideoOperation) (*VideoOperation, error) {
	f.calls++
	if f.pollErr != nil {
		return nil, f.pollErr
	}
	f.pollsUntilDone--
	if f.pollsUntilDone <= 0 {
		return &VideoOperation{Name: op.Name, Done: true, URIs: f.resultURIs}, nil
	}
	return &VideoOperation{Name: op.Name}, nil
}

func (f *fakeBackend) Synthesize(_ context.Context, _ string, prompt string, _ string) ([]byte, error) {
	f.calls++
	f.lastPrompt = prompt
	return f.pcm, nil
}

func (f *fakeBackend) Generate(_ context.Context, _ string, prompt string, _ string) (*model.MediaArtifact, error) {
	f.calls++
	f.lastPrompt = prompt
	return f.imageOut, nil
}

func (f *fakeBackend) Edit(_ context.Context, _ string, prompt string, image *model.MediaArtifact) (*model.MediaArtifact, error) {
	f.calls++
	f.lastPrompt = prompt
	f.lastImage = image
	return f.imageOut, nil
}

func (f *fakeBackend) GroundedSearch(_ context.Context, _ string, query string) (*model.GroundingResult, error) {
	f.calls++
	f.lastPrompt = query
	return f.searchOut, nil
}

// recordingSleeper records requested delays instead of sleeping.
type recordingSleeper struct {
	delays []time.Duration
}

func (s *recordingSleeper) Sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return nil
}

func newTestClient(backend *fakeBackend, credential string, download DownloadFunc) (*Client, *recordingSleeper) {
	sleeper := &recordingSleeper{}
	return NewClient(Options{
		Credential: credential,
		Models:     testModels,
		Video:      backend,
		Speech:     backend,
		Image:      backend,
		Search:     backend,
		Download:   download,
		Sleeper:    sleeper,
	}), sleeper
}

func TestMissingCredentialShortCircuits(t *testing.T) {
	backend := &fakeBackend{}
	downloads := 0
	client, _ := newTestClient(backend, "", func(context.Context, string, string) ([]byte, error) {
		downloads++
		return nil, nil
	})
	ctx := context.Background()

	_, err := client.GenerateVideo(ctx, "a beach", "16:9", nil)
	assert.ErrorIs(t, err, ErrMissingCredential)
	_, err = client.AnimateImage(ctx, "", &model.MediaArtifact{}, "16:9", nil)
	assert.ErrorIs(t, err, ErrMissingCredential)
	_, err = client.GenerateVoiceover(ctx, "hello", "Zephyr")
	assert.ErrorIs(t, err, ErrMissingCredential)
	_, err = client.GenerateImage(ctx, "a cat", "1:1")
	assert.ErrorIs(t, err, ErrMissingCredential)
	_, err = client.EditImage(ctx, "add a hat", &model.MediaArtifact{})
	assert.ErrorIs(t, err, ErrMissingCredential)
	_, err = client.GroundedSearch(ctx, "latest news")
	assert.ErrorIs(t, err, ErrMissingCredential)

	assert.Zero(t, backend.calls, "no backend traffic without a credential")
	assert.Zero(t, downloads)
}

func TestGenerateVideoPollsUntilDone(t *testing.T) {
	backend := &fakeBackend{
		pollsUntilDone: 3,
		resultURIs:     []string{"https://example.com/video?alt=media"},
	}
	var downloadedURI, downloadedKey string
	client, sleeper := newTestClient(backend, "test-key", func(_ context.Context, uri, credential string) ([]byte, error) {
		downloadedURI = uri
		downloadedKey = credential
		return []byte("mp4-bytes"), nil
	})

	var progress []string
	clip, err := client.GenerateVideo(context.Background(), "a beach at sunset", "16:9", func(m string) {
		progress = append(progress, m)
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("mp4-bytes"), clip.Data)
	assert.Equal(t, "video/mp4", clip.MIMEType)
	assert.Equal(t, "https://example.com/video?alt=media", downloadedURI)
	assert.Equal(t, "test-key", downloadedKey)

	// Linear backoff: 10s, 20s, 30s.
	assert.Equal(t, []time.Duration{10 * time.Second, 20 * time.Second, 30 * time.Second}, sleeper.delays)
	assert.Equal(t, []string{
		"Checking progress... (Attempt 1)",
		"Checking progress... (Attempt 2)",
		"Checking progress... (Attempt 3)",
	}, progress)
}

func TestGenerateVideoPollIntervalSaturates(t *testing.T) {
	backend := &fakeBackend{pollsUntilDone: 6, resultURIs: []string{"https://example.com/v"}}
	client, sleeper := newTestClient(backend, "k", func(context.Context, string, string) ([]byte, error) {
		return []byte("x"), nil
	})
	_, err := client.GenerateVideo(context.Background(), "p", "9:16", nil)
	require.NoError(t, err)
	require.Len(t, sleeper.delays, 6)
	assert.Equal(t, 30*time.Second, sleeper.delays[3])
	assert.Equal(t, 30*time.Second, sleeper.delays[5])
}

func TestGenerateVideoTimesOut(t *testing.T) {
	backend := &fakeBackend{pollsUntilDone: 1 << 30}
	client, _ := newTestClient(backend, "k", nil)
	_, err := client.GenerateVideo(context.Background(), "p", "16:9", nil)
	assert.ErrorIs(t, err, ErrPollTimeout)
}

func TestGenerateVideoSwallowsPollErrors(t *testing.T) {
	backend := &fakeBackend{pollErr: errors.New("transient 503")}
	client, _ := newTestClient(backend, "k", nil)
	_, err := client.GenerateVideo(context.Background(), "p", "16:9", nil)
	// Transient poll failures never surface; only the attempt bound does.
	assert.ErrorIs(t, err, ErrPollTimeout)
}

func TestGenerateVideoNoOutput(t *testing.T) {
	backend := &fakeBackend{pollsUntilDone: 1}
	client, _ := newTestClient(backend, "k", nil)
	_, err := client.GenerateVideo(context.Background(), "p", "16:9", nil)
	assert.ErrorIs(t, err, ErrNoOutputProduced)
}

func TestAnimateImageDefaultsPrompt(t *testing.T) {
	backend := &fakeBackend{pollsUntilDone: 1, resultURIs: []string{"https://example.com/v"}}
	client, _ := newTestClient(backend, "k", func(context.Context, string, string) ([]byte, error) {
		return []byte("x"), nil
	})
	still := &model.MediaArtifact{Data: []byte("png"), MIMEType: "image/png"}
	_, err := client.AnimateImage(context.Background(), "", still, "16:9", nil)
	require.NoError(t, err)
	assert.Equal(t, "Animate this image.", backend.lastPrompt)
	assert.Same(t, still, backend.lastImage)
}

func TestGenerateVoiceoverWrapsWAV(t *testing.T) {
	pcm := make([]byte, 4800)
	backend := &fakeBackend{pcm: pcm}
	client, _ := newTestClient(backend, "k", nil)

	vo, err := client.GenerateVoiceover(context.Background(), "Welcome to the show", "Zephyr")
	require.NoError(t, err)
	assert.Equal(t, "audio/wav", vo.MIMEType)
	assert.Len(t, vo.Data, len(pcm)+audio.WAVHeaderSize)
	assert.Equal(t, "RIFF", string(vo.Data[0:4]))
	assert.Equal(t, "Please say the following with a clear and engaging tone: Welcome to the show", backend.lastPrompt)
}

func TestGenerateVoiceoverNoAudio(t *testing.T) {
	backend := &fakeBackend{}
	client, _ := newTestClient(backend, "k", nil)
	_, err := client.GenerateVoiceover(context.Background(), "s", "Kore")
	assert.ErrorIs(t, err, ErrNoAudioProduced)
}

func TestGenerateImage(t *testing.T) {
	backend := &fakeBackend{imageOut: &model.MediaArtifact{Data: []byte("png"), MIMEType: "image/png"}}
	client, _ := newTestClient(backend, "k", nil)
	img, err := client.GenerateImage(context.Background(), "a red barn", "1:1")
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType)

	backend.imageOut = nil
	_, err = client.GenerateImage(context.Background(), "a red barn", "1:1")
	assert.ErrorIs(t, err, ErrNoImageProduced)
}

func TestEditImageNoImagePart(t *testing.T) {
	backend := &fakeBackend{}
	client, _ := newTestClient(backend, "k", nil)
	original := &model.MediaArtifact{Data: []byte("jpg"), MIMEType: "image/jpeg"}
	_, err := client.EditImage(context.Background(), "make it night", original)
	assert.ErrorIs(t, err, ErrNoImageProduced)
}

func TestGroundedSearch(t *testing.T) {
	backend := &fakeBackend{searchOut: &model.GroundingResult{
		Text:      "answer",
		Citations: []model.Citation{{URI: "https://example.com", Title: "Example"}},
	}}
	client, _ := newTestClient(backend, "k", nil)
	res, err := client.GroundedSearch(context.Background(), "what happened today")
	require.NoError(t, err)
	assert.Equal(t, "answer", res.Text)
	require.Len(t, res.Citations, 1)
}

func TestGroundingCitationsKeepsURILessChunks(t *testing.T) {
	citations := groundingCitations(&genai.GroundingMetadata{
		GroundingChunks: []*genai.GroundingChunk{
			{Web: &genai.GroundingChunkWeb{URI: "https://example.com", Title: "Example"}},
			{Web: &genai.GroundingChunkWeb{Title: "Untitled source"}},
			{Web: nil},
		},
	})
	require.Len(t, citations, 2)
	assert.Equal(t, "https://example.com", citations[0].URI)
	assert.Equal(t, "Untitled source", citations[1].Title)
	assert.Empty(t, citations[1].URI)
}

func TestCredentialRejected(t *testing.T) {
	assert.False(t, CredentialRejected(nil))
	assert.False(t, CredentialRejected(errors.New("quota exceeded")))
	assert.True(t, CredentialRejected(errors.New("API key not valid. Please pass a valid API key.")))
	assert.True(t, CredentialRejected(errors.New("the caller got: permission denied")))
	assert.True(t, CredentialRejected(fmt.Errorf("request failed: %w", errors.New("invalid API Key supplied"))))
	assert.True(t, CredentialRejected(genai.APIError{Code: 403, Message: "caller does not have access"}))
	assert.True(t, CredentialRejected(genai.APIError{Code: 401, Message: "unauthenticated"}))
	assert.False(t, CredentialRejected(genai.APIError{Code: 429, Message: "rate limited"}))
}
