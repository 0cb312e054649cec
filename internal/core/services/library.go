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

// This file defines the LibraryService, the data access layer for the
// generated-artifact library: it lists entry metadata from BigQuery and
// mints time-limited signed URLs so a browser can stream artifacts from
// Cloud Storage without holding any GCP credential.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/vidstudio/gcp-go-media-studio/internal/core/model"
)

// DefaultSignedURLExpiry is how long a minted streaming URL stays valid.
const DefaultSignedURLExpiry = 15 * time.Minute

// DefaultListLimit caps a library listing when the caller does not.
const DefaultListLimit = 100

// LibraryService reads library entries from BigQuery and signs GCS
// streaming URLs through the IAM Credentials API, so no service account
// key file is needed on the host.
type LibraryService struct {
	BigqueryClient *bigquery.Client
	StorageClient  *storage.Client
	IAMClient      *credentials.IamCredentialsClient
	SignerEmail    string
	DatasetName    string
	LibraryTable   string
}

// GetFQN returns the queryable fully qualified library table name with
// the project separator rewritten for standard SQL.
func (s *LibraryService) GetFQN() string {
	fqn := s.BigqueryClient.Dataset(s.DatasetName).Table(s.LibraryTable).FullyQualifiedName()
	return strings.Replace(fqn, ":", ".", -1)
}

// List returns the newest library entries, most recent first. A
// non-positive limit selects DefaultListLimit.
func (s *LibraryService) List(ctx context.Context, limit int) ([]*model.LibraryEntry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	queryText := fmt.Sprintf(QryListLibraryEntries, s.GetFQN(), limit)
	return s.queryEntries(ctx, queryText)
}

// Get looks a single library entry up by its row key.
func (s *LibraryService) Get(ctx context.Context, id string) (*model.LibraryEntry, error) {
	queryText := fmt.Sprintf(QryFindLibraryEntryById, s.GetFQN(), strings.ReplaceAll(id, "'", ""))
	itr, err := s.BigqueryClient.Query(queryText).Read(ctx)
	if err != nil {
		return nil, err
	}
	entry := &model.LibraryEntry{}
	if err := itr.Next(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// FindByRun returns every artifact a generation run produced.
func (s *LibraryService) FindByRun(ctx context.Context, runID string) ([]*model.LibraryEntry, error) {
	queryText := fmt.Sprintf(QryFindLibraryEntriesByRun, s.GetFQN(), strings.ReplaceAll(runID, "'", ""))
	return s.queryEntries(ctx, queryText)
}

func (s *LibraryService) queryEntries(ctx context.Context, queryText string) ([]*model.LibraryEntry, error) {
	itr, err := s.BigqueryClient.Query(queryText).Read(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]*model.LibraryEntry, 0)
	for {
		entry := &model.LibraryEntry{}
		err := itr.Next(entry)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// GenerateSignedURL mints a time-limited GET URL for a gs:// URI. The
// signature comes from the IAM Credentials SignBlob API under the
// configured signer service account, which works on GCP infrastructure
// without a local key file.
func (s *LibraryService) GenerateSignedURL(ctx context.Context, gcsURI string, expires time.Duration) (string, error) {
	const prefix = "gs://"
	if !strings.HasPrefix(gcsURI, prefix) {
		return "", fmt.Errorf("invalid GCS URI format: %s", gcsURI)
	}
	parts := strings.SplitN(strings.TrimPrefix(gcsURI, prefix), "/", 2)
	if len(parts) < 2 {
		return "", fmt.Errorf("invalid GCS URI: unable to determine bucket and object from %s", gcsURI)
	}
	bucketName := parts[0]
	objectName := parts[1]

	if expires <= 0 {
		expires = DefaultSignedURLExpiry
	}
	opts := &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         "GET",
		Expires:        time.Now().Add(expires),
		GoogleAccessID: s.SignerEmail,
		SignBytes: func(b []byte) ([]byte, error) {
			req := &credentialspb.SignBlobRequest{
				Name:    fmt.Sprintf("projects/-/serviceAccounts/%s", s.SignerEmail),
				Payload: b,
			}
			resp, err := s.IAMClient.SignBlob(ctx, req)
			if err != nil {
				return nil, fmt.Errorf("IAMClient.SignBlob: %w", err)
			}
			return resp.SignedBlob, nil
		},
	}
	u, err := s.StorageClient.Bucket(bucketName).SignedURL(objectName, opts)
	if err != nil {
		return "", fmt.Errorf("Bucket(%q).Object(%q).SignedURL: %w", bucketName, objectName, err)
	}
	return u, nil
}
