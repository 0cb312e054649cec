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

// This file defines the command that writes a generated artifact into
// the library's GCS bucket. The bucket publishes an object-created
// notification to Pub/Sub, which the ingest chain consumes to index the
// artifact in BigQuery, so the run attributes are stamped onto the
// object as metadata here and travel with the notification.

package commands

import (
	"fmt"
	"log/slog"

	"cloud.google.com/go/storage"

	"github.com/vidstudio/gcp-go-media-studio/internal/core/cor"
	"github.com/vidstudio/gcp-go-media-studio/internal/core/model"
)

// SaveRequest describes one artifact headed for the library.
type SaveRequest struct {
	RunID       string
	Kind        string // "clip", "voiceover", or "image"
	Title       string
	AspectRatio string
	// Sequence distinguishes artifacts of the same kind within one run
	// (clip 1, clip 2, ...). Zero means the kind is unique per run.
	Sequence int
	Artifact *model.MediaArtifact
}

// GetSaveRequestParameterName returns the context key holding the
// *SaveRequest being uploaded.
func GetSaveRequestParameterName() string {
	return "__SAVE_REQUEST__"
}

// ArtifactUploader streams a generated artifact into the library bucket
// with its run attributes attached as object metadata.
type ArtifactUploader struct {
	cor.BaseCommand
	client *storage.Client
	bucket string
}

func NewArtifactUploader(name string, client *storage.Client, bucket string) *ArtifactUploader {
	return &ArtifactUploader{BaseCommand: *cor.NewBaseCommand(name), client: client, bucket: bucket}
}

func (c *ArtifactUploader) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil && context.Get(GetSaveRequestParameterName()) != nil
}

func (c *ArtifactUploader) Execute(context cor.Context) {
	req := context.Get(GetSaveRequestParameterName()).(*SaveRequest)

	objectName := fmt.Sprintf("%s/%s%s", req.RunID, req.Kind, extensionFor(req.Artifact.MIMEType))
	if req.Sequence > 0 {
		objectName = fmt.Sprintf("%s/%s_%03d%s", req.RunID, req.Kind, req.Sequence, extensionFor(req.Artifact.MIMEType))
	}
	obj := c.client.Bucket(c.bucket).Object(objectName)

	writer := obj.NewWriter(context.GetContext())
	writer.ContentType = req.Artifact.MIMEType
	writer.Metadata = map[string]string{
		"run_id":       req.RunID,
		"kind":         req.Kind,
		"title":        req.Title,
		"aspect_ratio": req.AspectRatio,
	}

	if _, err := writer.Write(req.Artifact.Data); err != nil {
		_ = writer.Close()
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to write artifact to gs://%s/%s: %w", c.bucket, objectName, err))
		return
	}
	// Close finalizes the upload; an unfinished writer leaves no object.
	if err := writer.Close(); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to finalize artifact upload gs://%s/%s: %w", c.bucket, objectName, err))
		return
	}

	gcsURI := fmt.Sprintf("gs://%s/%s", c.bucket, objectName)
	c.GetSuccessCounter().Add(context.GetContext(), 1)
	slog.InfoContext(context.GetContext(), "uploaded artifact", "uri", gcsURI, "kind", req.Kind)
	context.Add(c.GetOutputParam(), gcsURI)
}

// extensionFor maps the artifact MIME types this application produces
// to file extensions. Unknown types get no extension rather than a
// wrong one.
func extensionFor(mimeType string) string {
	switch mimeType {
	case "video/mp4":
		return ".mp4"
	case "video/quicktime":
		return ".mov"
	case "audio/wav":
		return ".wav"
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	default:
		return ""
	}
}
