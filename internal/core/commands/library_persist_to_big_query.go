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

// This file defines the terminal command of the library ingest chain:
// streaming the library entry row into BigQuery. A failed insert leaves
// the chain in error so the Pub/Sub message redelivers and the insert
// retries; the URI-derived row ID keeps the retry from duplicating.

package commands

import (
	"fmt"
	"log/slog"

	"cloud.google.com/go/bigquery"

	"github.com/vidstudio/gcp-go-media-studio/internal/core/cor"
	"github.com/vidstudio/gcp-go-media-studio/internal/core/model"
)

// LibraryPersistToBigQuery streams a model.LibraryEntry into the
// library index table.
type LibraryPersistToBigQuery struct {
	cor.BaseCommand
	client  *bigquery.Client
	dataset string
	table   string
}

func NewLibraryPersistToBigQuery(name string, client *bigquery.Client, dataset string, table string) *LibraryPersistToBigQuery {
	return &LibraryPersistToBigQuery{BaseCommand: *cor.NewBaseCommand(name), client: client, dataset: dataset, table: table}
}

func (s *LibraryPersistToBigQuery) IsExecutable(context cor.Context) bool {
	return context != nil && context.Get(GetLibraryEntryParameterName()) != nil
}

func (s *LibraryPersistToBigQuery) Execute(context cor.Context) {
	entry := context.Get(GetLibraryEntryParameterName()).(*model.LibraryEntry)

	inserter := s.client.Dataset(s.dataset).Table(s.table).Inserter()
	if err := inserter.Put(context.GetContext(), entry); err != nil {
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), fmt.Errorf("bigquery insert failed for entry '%s': %w", entry.ID, err))
		return
	}

	s.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(cor.CtxOut, entry)
	slog.InfoContext(context.GetContext(), "persisted library entry", "id", entry.ID, "uri", entry.GCSURI)
}
