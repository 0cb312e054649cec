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

package main

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartRunRequestFiltersBlankScenes(t *testing.T) {
	body := startRunRequest{
		Scenes: []struct {
			ID     string `json:"id"`
			Prompt string `json:"prompt"`
		}{
			{ID: "s1", Prompt: "a cat"},
			{ID: "s2", Prompt: ""},
			{ID: "s3", Prompt: "   \t"},
			{ID: "s4", Prompt: "a dog"},
		},
		AspectRatio: "16:9",
	}

	request := body.toModel()
	require.Len(t, request.Scenes, 2)
	assert.Equal(t, "a cat", request.Scenes[0].Prompt)
	assert.Equal(t, "a dog", request.Scenes[1].Prompt)
}

func TestStartRunRequestAllBlankScenes(t *testing.T) {
	body := startRunRequest{
		Scenes: []struct {
			ID     string `json:"id"`
			Prompt string `json:"prompt"`
		}{
			{Prompt: "   "},
			{Prompt: "\n"},
		},
	}

	request := body.toModel()
	assert.Empty(t, request.Scenes)
}

// multipartImageContext builds a gin context carrying one "image" form
// file with the given bytes.
func multipartImageContext(t *testing.T, filename string, data []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/studio/images/edit", body)
	c.Request.Header.Set("Content-Type", writer.FormDataContentType())
	return c, recorder
}

func TestReadImageUpload(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// A PNG magic header followed by filler; the sniffer only needs the
	// leading bytes.
	payload := append([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, bytes.Repeat([]byte{0xAB}, 512)...)
	c, _ := multipartImageContext(t, "still.png", payload)

	artifact := readImageUpload(c)
	require.NotNil(t, artifact)
	assert.Equal(t, "image/png", artifact.MIMEType)
	// The whole part must come through, not just the first read.
	assert.Equal(t, payload, artifact.Data)
}

func TestReadImageUploadRejectsNonImage(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, recorder := multipartImageContext(t, "notes.txt", []byte("not an image"))

	artifact := readImageUpload(c)
	assert.Nil(t, artifact)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}
