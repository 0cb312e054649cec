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

// This file initializes and holds all external service clients. It is a
// dependency injection container: NewCloudServiceClients builds one
// ServiceClients value at startup, and the handlers, workflows, and
// services all borrow from it.
//
// Structs:
//   - ServiceClients: The container of initialized clients.
//
// Functions:
//   - NewCloudServiceClients: Builds every client from the Config.
//   - Close: Releases all client connections.

package cloud

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"google.golang.org/genai"

	"github.com/vidstudio/gcp-go-media-studio/internal/genmedia"
)

// ServiceClients holds every external connection the application uses:
// GCS and BigQuery for the artifact library, Pub/Sub for library ingest,
// IAM credentials for URL signing, the raw genai client for live voice
// sessions, and the capability-level generative media client.
type ServiceClients struct {
	StorageClient   *storage.Client
	PubsubClient    *pubsub.Client
	BigQueryClient  *bigquery.Client
	IAMClient       *credentials.IamCredentialsClient
	GenAIClient     *genai.Client
	GenMedia        *genmedia.Client
	PubSubListeners map[string]*PubSubListener
}

// Close releases all client connections. The genai client holds no
// closable resources.
func (c *ServiceClients) Close() {
	_ = c.StorageClient.Close()
	_ = c.PubsubClient.Close()
	_ = c.BigQueryClient.Close()
	if c.IAMClient != nil {
		_ = c.IAMClient.Close()
	}
}

// NewCloudServiceClients builds all external clients from the loaded
// configuration. Pub/Sub listeners are created without commands; the
// workflow wiring attaches them before Listen is called.
//
// An empty API key is not an error here: the library side of the
// application still works, and every generation operation reports the
// missing credential on use.
func NewCloudServiceClients(ctx context.Context, config *Config) (*ServiceClients, error) {
	sc, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	pc, err := pubsub.NewClient(ctx, config.Application.GoogleProjectId)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	bc, err := bigquery.NewClient(ctx, config.Application.GoogleProjectId)
	if err != nil {
		return nil, fmt.Errorf("create bigquery client: %w", err)
	}

	ic, err := credentials.NewIamCredentialsClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create iam credentials client: %w", err)
	}

	clients := &ServiceClients{
		StorageClient:   sc,
		PubsubClient:    pc,
		BigQueryClient:  bc,
		IAMClient:       ic,
		PubSubListeners: make(map[string]*PubSubListener),
	}

	for subKey, values := range config.TopicSubscriptions {
		listener, err := NewPubSubListener(pc, values.Name, nil)
		if err != nil {
			return nil, err
		}
		clients.PubSubListeners[subKey] = listener
	}

	apiKey := config.Application.APIKey
	opts := genmedia.Options{
		Credential:      apiKey,
		Models:          config.Models,
		MaxPollAttempts: config.Generation.MaxPollAttempts,
	}
	if apiKey != "" {
		gc, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("create genai client: %w", err)
		}
		clients.GenAIClient = gc

		backend := genmedia.NewGenAIBackend(gc)
		opts.Video = backend
		opts.Image = backend
		opts.Speech = backend
		opts.Search = backend
		if rps := config.RateLimits.Speech; rps > 0 {
			opts.Speech = NewQuotaAwareSpeechBackend(backend, rps)
		}
		if rps := config.RateLimits.Search; rps > 0 {
			opts.Search = NewQuotaAwareSearchBackend(backend, rps)
		}
	}
	clients.GenMedia = genmedia.NewClient(opts)

	return clients, nil
}
