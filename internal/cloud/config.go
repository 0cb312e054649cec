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

// Package cloud defines the application configuration structures, loaded
// from TOML files, and the shared Google Cloud service clients built
// from them. Configuration covers the generative model identifiers, the
// artifact library (storage bucket, BigQuery table, Pub/Sub ingest
// topic), live session settings, and per-capability rate limits.
//
// Structs:
//   - Config: The top-level configuration aggregate.
//   - Storage, BigQueryDataSource, TopicSubscription: Library plumbing.
//   - GenerationSettings, LiveSettings, RateLimits: Domain settings.
//
// Functions:
//   - NewConfig: Creates a Config with its map fields initialized.
package cloud

import "github.com/vidstudio/gcp-go-media-studio/internal/genmedia"

// Storage names the GCS buckets used by the artifact library.
type Storage struct {
	// ArtifactBucket receives every generated clip, voiceover, and image
	// that the user saves to their library.
	ArtifactBucket string `toml:"artifact_bucket"`
	// UploadBucket receives user-provided stills for editing and
	// animation.
	UploadBucket string `toml:"upload_bucket"`
}

// BigQueryDataSource names the dataset and table backing the library
// index.
type BigQueryDataSource struct {
	DatasetName  string `toml:"dataset"`
	LibraryTable string `toml:"library_table"`
}

// TopicSubscription configures one Pub/Sub subscription.
type TopicSubscription struct {
	Name             string `toml:"name"`
	DeadLetterTopic  string `toml:"dead_letter_topic"`
	TimeoutInSeconds int    `toml:"timeout_in_seconds"`
}

// GenerationSettings tunes the scene generation workflow.
type GenerationSettings struct {
	// MessageIntervalMillis is the rotation period for the cosmetic
	// progress messages shown while a run is in flight.
	MessageIntervalMillis int `toml:"message_interval_millis"`
	// MaxPollAttempts bounds the long-running video poll loop.
	MaxPollAttempts int `toml:"max_poll_attempts"`
}

// LiveSettings tunes the realtime voice session.
type LiveSettings struct {
	Voice string `toml:"voice"`
	// MaxPlaybackHorizonSeconds bounds how far ahead of the clock the
	// playback scheduler may queue audio before chunks are dropped.
	MaxPlaybackHorizonSeconds int `toml:"max_playback_horizon_seconds"`
}

// RateLimits caps request rates per capability, in requests per second.
// Zero disables the limit for that capability.
type RateLimits struct {
	Search int `toml:"search"`
	Speech int `toml:"speech"`
}

// Config is the root configuration aggregate, populated by LoadConfig
// from the base and runtime-specific TOML files.
type Config struct {
	Application struct {
		Name            string `toml:"name"`
		GoogleProjectId string `toml:"google_project_id"`
		GoogleLocation  string `toml:"location"`
		// APIKey authorizes the generative media API. Left empty, every
		// generation operation fails fast without network traffic.
		APIKey string `toml:"api_key"`
		// SignerServiceAccountEmail signs the GCS URLs handed to the
		// browser for library playback.
		SignerServiceAccountEmail string `toml:"signer_service_account_email"`
	} `toml:"application"`
	Storage            Storage                      `toml:"storage"`
	BigQueryDataSource BigQueryDataSource           `toml:"big_query_data_source"`
	Models             genmedia.Models              `toml:"models"`
	Generation         GenerationSettings           `toml:"generation"`
	Live               LiveSettings                 `toml:"live"`
	RateLimits         RateLimits                   `toml:"rate_limits"`
	TopicSubscriptions map[string]TopicSubscription `toml:"topic_subscriptions"`
}

// NewConfig creates a Config with map fields initialized so the TOML
// decoder can populate them directly.
func NewConfig() *Config {
	return &Config{
		TopicSubscriptions: make(map[string]TopicSubscription),
	}
}
