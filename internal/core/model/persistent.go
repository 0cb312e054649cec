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

// Package model defines the core data structures for the application.
// This file contains the only durable entity in the system: the library
// entry describing a completed generation artifact. Entries are written to
// BigQuery by the library persistence workflow after an artifact has been
// uploaded to Cloud Storage, and read back by the library service to
// populate the "My Videos" view. In-flight generation runs are never
// persisted; only their finished products are.
package model

import (
	"time"

	"github.com/google/uuid"
)

// LibraryEntry is the durable record of one completed generation artifact.
type LibraryEntry struct {
	ID          string    `json:"id" bigquery:"id"`
	RunID       string    `json:"run_id" bigquery:"run_id"`
	Kind        string    `json:"kind" bigquery:"kind"` // "clip", "voiceover" or "animation".
	Title       string    `json:"title" bigquery:"title"`
	AspectRatio string    `json:"aspect_ratio" bigquery:"aspect_ratio"`
	GCSURI      string    `json:"gcs_uri" bigquery:"gcs_uri"`
	MIMEType    string    `json:"mime_type" bigquery:"mime_type"`
	SizeBytes   int64     `json:"size_bytes" bigquery:"size_bytes"`
	CreateDate  time.Time `json:"create_date" bigquery:"create_date"`
}

// NewLibraryEntry creates a LibraryEntry for a completed artifact. The ID
// is a UUIDv5 hash of the GCS URI so that a redelivered publish message
// produces the same row key rather than a duplicate entry.
//
// Inputs:
//   - runID: The generation run that produced the artifact.
//   - kind: The artifact flavor ("clip", "voiceover", "animation").
//   - gcsURI: The Cloud Storage location of the uploaded bytes.
//
// Outputs:
//   - *LibraryEntry: A pointer to the new entry with CreateDate set to now.
func NewLibraryEntry(runID, kind, gcsURI string) *LibraryEntry {
	return &LibraryEntry{
		ID:         uuid.NewSHA1(uuid.NameSpaceURL, []byte(gcsURI)).String(),
		RunID:      runID,
		Kind:       kind,
		GCSURI:     gcsURI,
		CreateDate: time.Now(),
	}
}
