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

// Package main contains the setup and initialization logic for the
// application's state. This file creates the centralized state manager
// holding the configuration, the Google Cloud service clients, the
// library and export services, the generation workflow, and the registry
// of generation runs the HTTP surface polls.
//
// Functions:
//   - SetupOS: Points the configuration loader at the config directory
//     and runtime overlay.
//   - GetConfig: Singleton accessor for the loaded configuration.
//   - InitState: Builds all clients and services and starts the
//     background listeners.
package main

import (
	"context"
	"log"
	"os"
	"sync"
	"time"

	"github.com/vidstudio/gcp-go-media-studio/internal/cloud"
	"github.com/vidstudio/gcp-go-media-studio/internal/core/model"
	"github.com/vidstudio/gcp-go-media-studio/internal/core/services"
	"github.com/vidstudio/gcp-go-media-studio/internal/core/workflow"
)

// StateManager holds all the shared dependencies for the application:
// configuration, cloud clients, services, the generation workflow, and
// the in-memory registry of generation runs. Runs live only in memory;
// the library is the durable record of what they produced.
type StateManager struct {
	config         *cloud.Config
	cloud          *cloud.ServiceClients
	libraryService *services.LibraryService
	exportService  *services.ExportService
	sceneWorkflow  *workflow.SceneGenerationWorkflow
	saveWorkflow   *workflow.LibrarySaveWorkflow

	runMu sync.Mutex
	runs  map[string]*model.GenerationRun
}

var state = &StateManager{runs: make(map[string]*model.GenerationRun)}

// getRun returns a registered run by ID, or nil.
func (s *StateManager) getRun(id string) *model.GenerationRun {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.runs[id]
}

// newRun registers a fresh idle run and returns it.
func (s *StateManager) newRun() *model.GenerationRun {
	run := model.NewGenerationRun()
	s.runMu.Lock()
	s.runs[run.ID()] = run
	s.runMu.Unlock()
	return run
}

// SetupOS sets the environment variables the configuration loader uses
// to find the TOML files: the config directory and the runtime overlay
// name ("local" selects .env.local.toml).
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "local")
	return err
}

// GetConfig provides a singleton instance of the application
// configuration, loaded from the TOML files on first use.
func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup os environment: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(config)
		state.config = config
	}
	return state.config
}

// messageInterval converts the configured rotation period, falling back
// to the workflow default when unset.
func messageInterval(config *cloud.Config) time.Duration {
	if config.Generation.MessageIntervalMillis > 0 {
		return time.Duration(config.Generation.MessageIntervalMillis) * time.Millisecond
	}
	return workflow.DefaultMessageInterval
}

// InitState initializes the entire application state: cloud clients,
// the library and export services, the generation workflows, and the
// Pub/Sub listeners.
func InitState(ctx context.Context) {
	config := GetConfig()

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		panic(err)
	}

	state.cloud = cloudClients

	state.libraryService = &services.LibraryService{
		BigqueryClient: cloudClients.BigQueryClient,
		StorageClient:  cloudClients.StorageClient,
		IAMClient:      cloudClients.IAMClient,
		SignerEmail:    config.Application.SignerServiceAccountEmail,
		DatasetName:    config.BigQueryDataSource.DatasetName,
		LibraryTable:   config.BigQueryDataSource.LibraryTable,
	}
	state.exportService = &services.ExportService{}

	state.sceneWorkflow = workflow.NewSceneGenerationWorkflow(
		"scene-generation", cloudClients.GenMedia, messageInterval(config))
	state.saveWorkflow = workflow.NewLibrarySaveWorkflow(
		"library-save", cloudClients.StorageClient, config.Storage.ArtifactBucket)

	SetupListeners(config, cloudClients, ctx)
}
