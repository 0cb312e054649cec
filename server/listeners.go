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

// Package main contains the logic for setting up the Pub/Sub listeners.
// The library bucket publishes an object notification for every saved
// artifact; the listener indexes each one in BigQuery.
//
// Functions:
//   - SetupListeners: Attaches the library ingest workflow to the
//     library topic listener and starts it.
package main

import (
	"context"

	"github.com/vidstudio/gcp-go-media-studio/internal/cloud"
	"github.com/vidstudio/gcp-go-media-studio/internal/core/workflow"
)

// libraryTopicKey names the topic_subscriptions config entry carrying
// the library bucket's notification subscription.
const libraryTopicKey = "LibraryTopic"

// SetupListeners configures and starts the background Pub/Sub listeners.
// A deployment without the library subscription configured runs without
// ingest; saves still land in the bucket and index once a listener
// exists.
func SetupListeners(config *cloud.Config, cloudClients *cloud.ServiceClients, ctx context.Context) {
	listener, ok := cloudClients.PubSubListeners[libraryTopicKey]
	if !ok {
		return
	}
	ingest := workflow.NewLibraryIngestWorkflow("library-ingest", cloudClients.BigQueryClient, config)
	listener.SetCommand(ingest)
	listener.Listen(ctx)
}
