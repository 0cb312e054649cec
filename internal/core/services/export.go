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

// This file defines the ExportService, which shapes a finished run's
// clips into a downloadable package. The container choice is cosmetic:
// the provider always returns MP4-encoded bytes, and the "mov" option
// only changes the filename and declared content type. No local
// re-encoding happens here.
package services

import (
	"fmt"
	"strings"

	"github.com/vidstudio/gcp-go-media-studio/internal/core/model"
)

// ExportFormat names a supported download container.
type ExportFormat string

const (
	ExportMP4 ExportFormat = "mp4"
	ExportMOV ExportFormat = "mov"
)

// Export describes one downloadable artifact: the clip bytes plus the
// filename and content type the browser should save it under.
type Export struct {
	Filename    string
	ContentType string
	Artifact    *model.MediaArtifact
}

// ExportService shapes export downloads.
type ExportService struct{}

// Filename builds the download name for an export: the application
// prefix, the aspect ratio with its separator made filesystem-safe, and
// the chosen container extension. "16:9" + mp4 -> "VidGen_AI_16x9.mp4".
func (s *ExportService) Filename(aspectRatio string, format ExportFormat) string {
	ratio := strings.ReplaceAll(aspectRatio, ":", "x")
	return fmt.Sprintf("VidGen_AI_%s.%s", ratio, format)
}

// ContentType returns the MIME type declared for the chosen container.
func (s *ExportService) ContentType(format ExportFormat) string {
	if format == ExportMOV {
		return "video/quicktime"
	}
	return "video/mp4"
}

// NormalizeFormat maps a raw request value onto a supported container,
// defaulting to MP4 for anything unrecognized.
func (s *ExportService) NormalizeFormat(raw string) ExportFormat {
	if strings.EqualFold(strings.TrimSpace(raw), string(ExportMOV)) {
		return ExportMOV
	}
	return ExportMP4
}

// BuildExport packages one clip artifact for download.
func (s *ExportService) BuildExport(artifact *model.MediaArtifact, aspectRatio string, rawFormat string) *Export {
	format := s.NormalizeFormat(rawFormat)
	return &Export{
		Filename:    s.Filename(aspectRatio, format),
		ContentType: s.ContentType(format),
		Artifact:    artifact,
	}
}
