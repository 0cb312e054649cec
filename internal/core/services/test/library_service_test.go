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

package services_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/vidstudio/gcp-go-media-studio/internal/cloud"
	"github.com/vidstudio/gcp-go-media-studio/internal/core/services"
	test "github.com/vidstudio/gcp-go-media-studio/internal/testutil"
	"github.com/zeebo/assert"
)

// TestLibraryServiceList is an integration test for the library listing
// query. It initializes real cloud clients from the test configuration,
// lists the newest entries from the live BigQuery table, and asserts the
// query round-trips without errors.
func TestLibraryServiceList(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config := test.GetConfig()

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	test.HandleErr(err, t)
	defer cloudClients.Close()

	libraryService := &services.LibraryService{
		BigqueryClient: cloudClients.BigQueryClient,
		StorageClient:  cloudClients.StorageClient,
		IAMClient:      cloudClients.IAMClient,
		SignerEmail:    config.Application.SignerServiceAccountEmail,
		DatasetName:    config.BigQueryDataSource.DatasetName,
		LibraryTable:   config.BigQueryDataSource.LibraryTable,
	}

	entries, err := libraryService.List(ctx, 10)
	test.HandleErr(err, t)
	assert.NotNil(t, entries)

	for _, entry := range entries {
		fmt.Printf("%s: %s (%s)\n", entry.ID, entry.Title, entry.GCSURI)
	}
}
