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

package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidstudio/gcp-go-media-studio/internal/core/model"
	"github.com/vidstudio/gcp-go-media-studio/internal/core/services"
)

func TestExportFilename(t *testing.T) {
	svc := &services.ExportService{}

	assert.Equal(t, "VidGen_AI_16x9.mp4", svc.Filename("16:9", services.ExportMP4))
	assert.Equal(t, "VidGen_AI_9x16.mov", svc.Filename("9:16", services.ExportMOV))
	assert.Equal(t, "VidGen_AI_1x1.mp4", svc.Filename("1:1", services.ExportMP4))
}

func TestExportContentType(t *testing.T) {
	svc := &services.ExportService{}

	assert.Equal(t, "video/mp4", svc.ContentType(services.ExportMP4))
	assert.Equal(t, "video/quicktime", svc.ContentType(services.ExportMOV))
}

func TestExportNormalizeFormat(t *testing.T) {
	svc := &services.ExportService{}

	assert.Equal(t, services.ExportMOV, svc.NormalizeFormat("MOV"))
	assert.Equal(t, services.ExportMOV, svc.NormalizeFormat(" mov "))
	assert.Equal(t, services.ExportMP4, svc.NormalizeFormat("mp4"))
	assert.Equal(t, services.ExportMP4, svc.NormalizeFormat("webm"))
	assert.Equal(t, services.ExportMP4, svc.NormalizeFormat(""))
}

func TestBuildExport(t *testing.T) {
	svc := &services.ExportService{}
	artifact := &model.MediaArtifact{Data: []byte("mp4-bytes"), MIMEType: "video/mp4"}

	export := svc.BuildExport(artifact, "16:9", "mov")
	require.NotNil(t, export)
	assert.Equal(t, "VidGen_AI_16x9.mov", export.Filename)
	assert.Equal(t, "video/quicktime", export.ContentType)
	// The bytes themselves are untouched; the container choice is cosmetic.
	assert.Same(t, artifact, export.Artifact)
}
