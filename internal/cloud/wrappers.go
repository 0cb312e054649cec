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

// This file decorates the generative media backends with request rate
// limiting. The speech and grounded search capabilities serve
// interactive endpoints that a user can hammer; the video pipeline is
// already throttled by its own polling cadence, so only the former two
// are wrapped.
//
// Structs:
//   - QuotaAwareSpeechBackend: Rate-limited SpeechBackend decorator.
//   - QuotaAwareSearchBackend: Rate-limited SearchBackend decorator.

package cloud

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/vidstudio/gcp-go-media-studio/internal/core/model"
	"github.com/vidstudio/gcp-go-media-studio/internal/genmedia"
)

// QuotaAwareSpeechBackend throttles voiceover synthesis requests to the
// configured rate, blocking (not rejecting) callers until a slot opens
// or their context ends.
type QuotaAwareSpeechBackend struct {
	wrapped genmedia.SpeechBackend
	limiter *rate.Limiter
}

// NewQuotaAwareSpeechBackend wraps the given backend with a token-bucket
// limiter allowing requestsPerSecond sustained requests with an equal
// burst.
func NewQuotaAwareSpeechBackend(wrapped genmedia.SpeechBackend, requestsPerSecond int) *QuotaAwareSpeechBackend {
	return &QuotaAwareSpeechBackend{
		wrapped: wrapped,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
	}
}

func (q *QuotaAwareSpeechBackend) Synthesize(ctx context.Context, modelName string, prompt string, voiceName string) ([]byte, error) {
	if err := q.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return q.wrapped.Synthesize(ctx, modelName, prompt, voiceName)
}

// QuotaAwareSearchBackend throttles grounded search requests the same
// way.
type QuotaAwareSearchBackend struct {
	wrapped genmedia.SearchBackend
	limiter *rate.Limiter
}

func NewQuotaAwareSearchBackend(wrapped genmedia.SearchBackend, requestsPerSecond int) *QuotaAwareSearchBackend {
	return &QuotaAwareSearchBackend{
		wrapped: wrapped,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
	}
}

func (q *QuotaAwareSearchBackend) GroundedSearch(ctx context.Context, modelName string, query string) (*model.GroundingResult, error) {
	if err := q.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return q.wrapped.GroundedSearch(ctx, modelName, query)
}
