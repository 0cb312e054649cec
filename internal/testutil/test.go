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

// Package test provides shared fixtures for the test suite: the test
// configuration singleton, canned GCS notification payloads, and fake
// generative media backends with call counters.
package test

import (
	"log"
	"os"
	"testing"

	"github.com/vidstudio/gcp-go-media-studio/internal/cloud"
)

// StateManager caches the loaded test configuration so the TOML files
// are read once per test run.
type StateManager struct {
	config *cloud.Config
}

var state = &StateManager{}

// HandleErr fails the test when err is non-nil. Convenience for setup
// code where require is unavailable.
func HandleErr(err error, t *testing.T) {
	if err != nil {
		t.Errorf("Error reading config file: %v", err)
	}
}

// GetTestArtifactMessageText returns a canned GCS notification payload
// for a clip landing in the library bucket, matching what the artifact
// uploader produces.
func GetTestArtifactMessageText() string {
	return `{
  "kind": "storage#object",
  "id": "studio-artifacts/run-7e41/clip.mp4/1728615848664286",
  "selfLink": "https://www.googleapis.com/storage/v1/b/studio-artifacts/o/run-7e41%2Fclip.mp4",
  "name": "run-7e41/clip.mp4",
  "bucket": "studio-artifacts",
  "generation": "1728615848664286",
  "metageneration": "1",
  "contentType": "video/mp4",
  "timeCreated": "2024-10-11T03:04:08.672Z",
  "updated": "2024-10-11T03:04:08.672Z",
  "storageClass": "STANDARD",
  "timeStorageClassUpdated": "2024-10-11T03:04:08.672Z",
  "size": "8388608",
  "md5Hash": "67c1rAU+1RYZzK5zp8iBkA==",
  "mediaLink": "https://storage.googleapis.com/download/storage/v1/b/studio-artifacts/o/run-7e41%2Fclip.mp4?generation=1728615848664286&alt=media",
  "metadata": { "run_id": "run-7e41", "kind": "clip", "title": "Beach sunset", "aspect_ratio": "16:9" },
  "crc32c": "IYeSTw==",
  "etag": "CN658+yrhYkDEAE="
}
`
}

// SetupOS points the configuration loader at the test config overlay
// (configs/.env.test.toml).
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "test")
	return err
}

// GetConfig is the singleton accessor for the test configuration.
func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(config)
		state.config = config
	}
	return state.config
}
