// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package workflow_test

import (
	"fmt"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vidstudio/gcp-go-media-studio/internal/core/commands"
	"github.com/vidstudio/gcp-go-media-studio/internal/core/cor"
	"github.com/vidstudio/gcp-go-media-studio/internal/core/workflow"
	test "github.com/vidstudio/gcp-go-media-studio/internal/testutil"
	"go.opentelemetry.io/otel/codes"
)

// TestLibraryIngestChain runs the full ingest pipeline against a live
// BigQuery backend. It feeds in a canned GCS object notification, as the
// Pub/Sub listener would, and asserts the chain indexes the artifact
// without recording errors.
func TestLibraryIngestChain(t *testing.T) {
	traceCtx, span := tracer.Start(ctx, "library-ingest-test")
	defer span.End()

	ingest := workflow.NewLibraryIngestWorkflow("library-ingest", cloudClients.BigQueryClient, config)

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(traceCtx)
	chainCtx.Add(cor.CtxIn, test.GetTestArtifactMessageText())

	ingest.Execute(chainCtx)

	for k, err := range chainCtx.GetErrors() {
		fmt.Printf("Error: (%s): %v\n", k, err)
	}

	if chainCtx.HasErrors() {
		span.SetStatus(codes.Error, "failed to execute library ingest test")
	}
	assert.False(t, chainCtx.HasErrors())
	span.SetStatus(codes.Ok, "passed - library ingest test")

	log.Println(chainCtx.Get(commands.GetLibraryEntryParameterName()))
}
