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

// This file defines the ingest command that turns a parsed artifact
// notification into the BigQuery row model. The entry ID is derived from
// the GCS URI, so a redelivered notification builds the same row.

package commands

import (
	"fmt"

	"github.com/vidstudio/gcp-go-media-studio/internal/cloud"
	"github.com/vidstudio/gcp-go-media-studio/internal/core/cor"
	"github.com/vidstudio/gcp-go-media-studio/internal/core/model"
)

// GetLibraryEntryParameterName returns the context key holding the
// *model.LibraryEntry being persisted.
func GetLibraryEntryParameterName() string {
	return "__LIBRARY_ENTRY__"
}

// LibraryEntryBuilder converts a cloud.ArtifactObject into a
// model.LibraryEntry, pulling the run attributes from the object
// metadata stamped at upload time.
type LibraryEntryBuilder struct {
	cor.BaseCommand
}

func NewLibraryEntryBuilder(name string) *LibraryEntryBuilder {
	return &LibraryEntryBuilder{BaseCommand: *cor.NewBaseCommand(name)}
}

func (c *LibraryEntryBuilder) IsExecutable(context cor.Context) bool {
	return context != nil && context.Get(cloud.GetArtifactObjectName()) != nil
}

func (c *LibraryEntryBuilder) Execute(context cor.Context) {
	obj := context.Get(cloud.GetArtifactObjectName()).(*cloud.ArtifactObject)

	gcsURI := fmt.Sprintf("gs://%s/%s", obj.Bucket, obj.Name)
	entry := model.NewLibraryEntry(obj.Metadata["run_id"], obj.Metadata["kind"], gcsURI)
	entry.Title = obj.Metadata["title"]
	entry.AspectRatio = obj.Metadata["aspect_ratio"]
	entry.MIMEType = obj.MIMEType
	entry.SizeBytes = obj.SizeBytes

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetLibraryEntryParameterName(), entry)
	context.Add(c.GetOutputParam(), entry)
}
