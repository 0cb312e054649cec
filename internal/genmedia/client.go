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
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"google.golang.org/genai"

	"github.com/vidstudio/gcp-go-media-studio/internal/audio"
	"github.com/vidstudio/gcp-go-media-studio/internal/core/model"
)

// voiceoverPromptPrefix is prepended to the narration script so the
// speech model reads it rather than responding to it.
const voiceoverPromptPrefix = "Please say the following with a clear and engaging tone: "

// defaultAnimatePrompt is used when an animation request carries no
// motion description.
const defaultAnimatePrompt = "Animate this image."

// DownloadFunc fetches a generated artifact from its result URI. The
// credential is appended as a query parameter; provider result URIs
// require it.
type DownloadFunc func(ctx context.Context, uri string, credential string) ([]byte, error)

// ProgressFunc receives human-readable status lines during long-running
// operations. It may be nil.
type ProgressFunc func(message string)

// Options configures a Client. Credential and Models are required for
// real use; the backend seams and Sleeper default to production values
// when left nil.
type Options struct {
	Credential string
	Models     Models

	Video  VideoBackend
	Speech SpeechBackend
	Image  ImageBackend
	Search SearchBackend

	Download        DownloadFunc
	Sleeper         Sleeper
	MaxPollAttempts int
}

// Client is the capability facade over the generative media backends.
// Every operation checks the credential before touching any backend, so
// a misconfigured deployment fails fast with ErrMissingCredential and
// zero network traffic.
type Client struct {
	credential      string
	models          Models
	video           VideoBackend
	speech          SpeechBackend
	image           ImageBackend
	search          SearchBackend
	download        DownloadFunc
	sleeper         Sleeper
	maxPollAttempts int
}

// NewClient builds a Client from explicit options. Tests use this
// directly with fake backends; production code goes through
// NewClientFromAPIKey.
func NewClient(opts Options) *Client {
	c := &Client{
		credential:      opts.Credential,
		models:          opts.Models,
		video:           opts.Video,
		speech:          opts.Speech,
		image:           opts.Image,
		search:          opts.Search,
		download:        opts.Download,
		sleeper:         opts.Sleeper,
		maxPollAttempts: opts.MaxPollAttempts,
	}
	if c.download == nil {
		c.download = httpDownload
	}
	if c.sleeper == nil {
		c.sleeper = realSleeper{}
	}
	if c.maxPollAttempts <= 0 {
		c.maxPollAttempts = DefaultMaxPollAttempts
	}
	return c
}

// NewClientFromAPIKey wires all backend seams to the public generative
// AI API using the given key. An empty key still yields a usable Client
// whose operations all return ErrMissingCredential.
func NewClientFromAPIKey(ctx context.Context, apiKey string, models Models) (*Client, error) {
	opts := Options{Credential: apiKey, Models: models}
	if apiKey != "" {
		gc, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("create genai client: %w", err)
		}
		backend := NewGenAIBackend(gc)
		opts.Video = backend
		opts.Speech = backend
		opts.Image = backend
		opts.Search = backend
	}
	return NewClient(opts), nil
}

// Models returns the configured model identifiers.
func (c *Client) Models() Models { return c.models }

// HasCredential reports whether the client was configured with an API
// credential.
func (c *Client) HasCredential() bool { return c.credential != "" }

// GenerateVideo produces a video clip from a text prompt. It starts the
// long-running job, polls it on a bounded linear-backoff schedule, and
// downloads the first result. Progress lines are reported per poll.
func (c *Client) GenerateVideo(ctx context.Context, prompt string, aspectRatio string, progress ProgressFunc) (*model.MediaArtifact, error) {
	if c.credential == "" {
		return nil, ErrMissingCredential
	}
	op, err := c.video.StartGeneration(ctx, c.models.Video, prompt, nil, aspectRatio)
	if err != nil {
		return nil, err
	}
	return c.awaitAndDownload(ctx, op, progress)
}

// AnimateImage produces a video clip conditioned on a still image. An
// empty prompt falls back to a generic motion instruction.
func (c *Client) AnimateImage(ctx context.Context, prompt string, image *model.MediaArtifact, aspectRatio string, progress ProgressFunc) (*model.MediaArtifact, error) {
	if c.credential == "" {
		return nil, ErrMissingCredential
	}
	if prompt == "" {
		prompt = defaultAnimatePrompt
	}
	op, err := c.video.StartGeneration(ctx, c.models.Video, prompt, image, aspectRatio)
	if err != nil {
		return nil, err
	}
	return c.awaitAndDownload(ctx, op, progress)
}

// awaitAndDownload drives a started video operation to completion. Poll
// errors are transient by assumption and only logged; the attempt bound
// is what terminates a job that never finishes.
func (c *Client) awaitAndDownload(ctx context.Context, op *VideoOperation, progress ProgressFunc) (*model.MediaArtifact, error) {
	for attempt := 1; !op.Done; attempt++ {
		if attempt > c.maxPollAttempts {
			return nil, ErrPollTimeout
		}
		if err := c.sleeper.Sleep(ctx, pollInterval(attempt)); err != nil {
			return nil, err
		}
		if progress != nil {
			progress(fmt.Sprintf("Checking progress... (Attempt %d)", attempt))
		}
		refreshed, err := c.video.Poll(ctx, op)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.WarnContext(ctx, "video operation poll failed, will retry",
				"operation", op.Name, "attempt", attempt, "error", err)
			continue
		}
		op = refreshed
	}
	if len(op.URIs) == 0 {
		return nil, ErrNoOutputProduced
	}
	data, err := c.download(ctx, op.URIs[0], c.credential)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDownloadFailed, err)
	}
	return &model.MediaArtifact{Data: data, MIMEType: "video/mp4"}, nil
}

// GenerateVoiceover synthesizes the narration script with the named
// voice and returns it as a playable WAV artifact.
func (c *Client) GenerateVoiceover(ctx context.Context, script string, voiceName string) (*model.MediaArtifact, error) {
	if c.credential == "" {
		return nil, ErrMissingCredential
	}
	pcm, err := c.speech.Synthesize(ctx, c.models.Speech, voiceoverPromptPrefix+script, voiceName)
	if err != nil {
		return nil, err
	}
	if len(pcm) == 0 {
		return nil, ErrNoAudioProduced
	}
	return &model.MediaArtifact{
		Data:     audio.WrapPCMDefault(pcm),
		MIMEType: "audio/wav",
	}, nil
}

// GenerateImage creates a still image for the prompt at the requested
// aspect ratio.
func (c *Client) GenerateImage(ctx context.Context, prompt string, aspectRatio string) (*model.MediaArtifact, error) {
	if c.credential == "" {
		return nil, ErrMissingCredential
	}
	img, err := c.image.Generate(ctx, c.models.Image, prompt, aspectRatio)
	if err != nil {
		return nil, err
	}
	if img == nil || len(img.Data) == 0 {
		return nil, ErrNoImageProduced
	}
	return img, nil
}

// EditImage applies an instruction prompt to an existing image and
// returns the edited result.
func (c *Client) EditImage(ctx context.Context, prompt string, image *model.MediaArtifact) (*model.MediaArtifact, error) {
	if c.credential == "" {
		return nil, ErrMissingCredential
	}
	edited, err := c.image.Edit(ctx, c.models.ImageEdit, prompt, image)
	if err != nil {
		return nil, err
	}
	if edited == nil || len(edited.Data) == 0 {
		return nil, ErrNoImageProduced
	}
	return edited, nil
}

// GroundedSearch answers a query with web grounding and source citations.
func (c *Client) GroundedSearch(ctx context.Context, query string) (*model.GroundingResult, error) {
	if c.credential == "" {
		return nil, ErrMissingCredential
	}
	return c.search.GroundedSearch(ctx, c.models.Search, query)
}

// downloadHTTPClient is shared by all artifact downloads. Result URIs
// point at large video files, so the timeout is generous.
var downloadHTTPClient = &http.Client{Timeout: 5 * time.Minute}

// httpDownload fetches a result URI with the credential appended as the
// key query parameter, which is how the provider authorizes downloads of
// generated files.
func httpDownload(ctx context.Context, rawURI string, credential string) ([]byte, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return nil, fmt.Errorf("parse result uri: %w", err)
	}
	q := u.Query()
	q.Set("key", credential)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := downloadHTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}
