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

// This file defines the first command of the library ingest chain. GCS
// publishes a JSON notification when an artifact lands in the library
// bucket; this command parses it into the compact ArtifactObject that
// the rest of the chain works with.

package commands

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/vidstudio/gcp-go-media-studio/internal/cloud"
	"github.com/vidstudio/gcp-go-media-studio/internal/core/cor"
)

// ArtifactTriggerReader parses a GCS object notification into a
// cloud.ArtifactObject.
type ArtifactTriggerReader struct {
	cor.BaseCommand
}

func NewArtifactTriggerReader(name string) *ArtifactTriggerReader {
	return &ArtifactTriggerReader{BaseCommand: *cor.NewBaseCommand(name)}
}

func (c *ArtifactTriggerReader) Execute(context cor.Context) {
	in := context.Get(c.GetInputParam()).(string)

	var notification cloud.GCSPubSubNotification
	if err := json.Unmarshal([]byte(in), &notification); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to unmarshal GCS notification: %w", err))
		return
	}

	// GCS reports size as a decimal string.
	size, _ := strconv.ParseInt(notification.Size, 10, 64)

	metadata := make(map[string]string, len(notification.MetaData))
	for k, v := range notification.MetaData {
		if s, ok := v.(string); ok {
			metadata[k] = s
		}
	}

	obj := &cloud.ArtifactObject{
		Bucket:    notification.Bucket,
		Name:      notification.Name,
		MIMEType:  notification.ContentType,
		SizeBytes: size,
		Metadata:  metadata,
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(cloud.GetArtifactObjectName(), obj)
	context.Add(c.GetOutputParam(), obj)
}
