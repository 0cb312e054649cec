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
	"time"
)

// DefaultMaxPollAttempts bounds the polling loop for a single video job.
// At the capped 30s interval this allows roughly 19 minutes of waiting
// before the operation is declared timed out.
const DefaultMaxPollAttempts = 40

// maxPollInterval caps the backoff between polls.
const maxPollInterval = 30 * time.Second

// Sleeper abstracts time.Sleep so the polling schedule can be tested
// without waiting. The production sleeper honors context cancellation.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// realSleeper sleeps on the wall clock, returning early if ctx ends.
type realSleeper struct{}

func (realSleeper) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// pollInterval returns the wait before poll number attempt (1-based).
// The interval grows linearly with the attempt count and saturates at
// maxPollInterval, keeping early polls responsive without hammering the
// operations endpoint on long-running jobs.
func pollInterval(attempt int) time.Duration {
	d := time.Duration(attempt) * 10 * time.Second
	if d > maxPollInterval {
		return maxPollInterval
	}
	return d
}
