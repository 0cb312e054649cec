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

// This file defines the Google Cloud Storage shapes used by the artifact
// library: the Pub/Sub notification GCS emits when an object lands in
// the artifact bucket, and the lightweight object reference passed
// through the library ingest workflow.

package cloud

// GetArtifactObjectName returns the context key under which the library
// ingest workflow stores the ArtifactObject being processed.
func GetArtifactObjectName() string {
	return "__ARTIFACT__OBJ__"
}

// GCSPubSubNotification maps the JSON payload GCS publishes when an
// object is created or updated in a bucket with notifications enabled.
type GCSPubSubNotification struct {
	Kind                    string                 `json:"kind"`
	ID                      string                 `json:"id"`
	SelfLink                string                 `json:"selfLink"`
	Name                    string                 `json:"name"`
	Bucket                  string                 `json:"bucket"`
	Generation              string                 `json:"generation"`
	MetaGeneration          string                 `json:"metageneration"`
	ContentType             string                 `json:"contentType"`
	TimeCreated             string                 `json:"timeCreated"`
	Updated                 string                 `json:"updated"`
	StorageClass            string                 `json:"storageClass"`
	TimeStorageClassUpdated string                 `json:"timeStorageClassUpdated"`
	Size                    string                 `json:"size"`
	MD5Hash                 string                 `json:"md5Hash"`
	MediaLink               string                 `json:"mediaLink"`
	MetaData                map[string]interface{} `json:"metadata"`
	Crc32c                  string                 `json:"crc32c"`
	ETag                    string                 `json:"etag"`
}

// ArtifactObject is the distilled reference to a stored artifact that
// the library ingest commands pass between one another. Metadata carries
// the run attributes (run id, kind, title, aspect ratio) that the upload
// command stamped onto the GCS object.
type ArtifactObject struct {
	Bucket    string
	Name      string
	MIMEType  string
	SizeBytes int64
	Metadata  map[string]string
}
