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

package genmedia

import (
	"errors"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// Sentinel errors for the generative media client. Callers branch on these
// with errors.Is; the messages are safe to surface to end users.
var (
	// ErrMissingCredential is returned before any network traffic when a
	// client operation is invoked without an API credential configured.
	ErrMissingCredential = errors.New("genmedia: API credential is not configured")

	// ErrNoOutputProduced indicates a video operation completed without a
	// downloadable result, typically a safety-filter rejection.
	ErrNoOutputProduced = errors.New("genmedia: video generation finished without any output")

	// ErrNoAudioProduced indicates a speech response carried no audio part.
	ErrNoAudioProduced = errors.New("genmedia: no audio data was returned for the voiceover")

	// ErrNoImageProduced indicates an image request returned no image data.
	ErrNoImageProduced = errors.New("genmedia: no image data was returned")

	// ErrDownloadFailed indicates the generated artifact could not be
	// fetched from its result URI.
	ErrDownloadFailed = errors.New("genmedia: failed to download generated media")

	// ErrPollTimeout indicates a long-running operation did not complete
	// within the bounded polling schedule.
	ErrPollTimeout = errors.New("genmedia: timed out waiting for the operation to complete")
)

// credentialPhrases are substrings seen in provider error messages when a
// request is rejected for credential reasons but the error carries no
// usable status code. Matching is case-sensitive on purpose: these are the
// literal spellings the provider uses.
var credentialPhrases = []string{
	"API Key",
	"API key not valid",
	"permission denied",
}

// CredentialRejected reports whether err represents a request the provider
// refused because of a bad or unauthorized credential. The structured
// status code is consulted first; message text is only a fallback for
// transports that lose the code.
func CredentialRejected(err error) bool {
	if err == nil {
		return false
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden
	}
	msg := err.Error()
	for _, phrase := range credentialPhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

// CredentialMessage is the user-facing text shown in place of raw provider
// errors when CredentialRejected matches.
const CredentialMessage = "There is an issue with your API credential. Please validate it and try again."
