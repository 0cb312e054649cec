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

// This file defines the two library pipelines. The save workflow runs
// in-request: it uploads an artifact the user chose to keep into the
// library bucket. The ingest workflow runs on the Pub/Sub listener: it
// consumes the bucket's object notifications and indexes each artifact
// in BigQuery. Splitting the two means a BigQuery outage cannot lose a
// save; the notification redelivers until the index write succeeds.

package workflow

import (
	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/storage"

	"github.com/vidstudio/gcp-go-media-studio/internal/cloud"
	"github.com/vidstudio/gcp-go-media-studio/internal/core/commands"
	"github.com/vidstudio/gcp-go-media-studio/internal/core/cor"
)

// LibrarySaveWorkflow uploads one artifact into the library bucket.
type LibrarySaveWorkflow struct {
	cor.BaseCommand
	chain cor.Chain
}

func NewLibrarySaveWorkflow(name string, storageClient *storage.Client, bucket string) *LibrarySaveWorkflow {
	w := &LibrarySaveWorkflow{BaseCommand: *cor.NewBaseCommand(name)}
	chain := cor.NewBaseChain(name)
	chain.AddCommand(commands.NewArtifactUploader("artifact-uploader", storageClient, bucket))
	w.chain = chain
	return w
}

func (w *LibrarySaveWorkflow) IsExecutable(context cor.Context) bool {
	return context != nil &&
		context.GetContext() != nil &&
		context.Get(commands.GetSaveRequestParameterName()) != nil
}

func (w *LibrarySaveWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// LibraryIngestWorkflow turns a GCS object notification into a BigQuery
// library entry. It is attached to the library topic's Pub/Sub listener.
type LibraryIngestWorkflow struct {
	cor.BaseCommand
	chain cor.Chain
}

func NewLibraryIngestWorkflow(name string, bigqueryClient *bigquery.Client, config *cloud.Config) *LibraryIngestWorkflow {
	w := &LibraryIngestWorkflow{BaseCommand: *cor.NewBaseCommand(name)}
	chain := cor.NewBaseChain(name)
	chain.AddCommand(commands.NewArtifactTriggerReader("artifact-trigger-reader"))
	chain.AddCommand(commands.NewLibraryEntryBuilder("library-entry-builder"))
	chain.AddCommand(commands.NewLibraryPersistToBigQuery(
		"library-persist-to-big-query",
		bigqueryClient,
		config.BigQueryDataSource.DatasetName,
		config.BigQueryDataSource.LibraryTable,
	))
	w.chain = chain
	return w
}

func (w *LibraryIngestWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}
