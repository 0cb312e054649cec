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

// Package audio provides pure, stateless transforms for raw PCM audio:
// a base64 codec for shipping samples over text-safe channels, float/int16
// sample conversion for the live session, and a WAV container writer that
// turns provider-returned PCM into a directly playable file.
//
// The synthesis provider returns 24kHz mono 16-bit little-endian PCM; the
// constants below capture that format. Input lengths are trusted (the PCM
// byte count is assumed even and consistent), since every producer is an
// internal provider client.
package audio

import "encoding/binary"

// Default synthesis output format: 24kHz, mono, 16-bit PCM.
const (
	DefaultSampleRate    = 24000
	DefaultNumChannels   = 1
	DefaultBitsPerSample = 16

	// WAVHeaderSize is the fixed size of the RIFF/fmt/data header this
	// package emits ahead of the PCM payload.
	WAVHeaderSize = 44
)

// WrapPCM prepends a standard 44-byte WAV header to raw PCM samples,
// producing a self-describing, playable audio container.
//
// Inputs:
//   - pcm: The raw little-endian PCM sample bytes.
//   - sampleRate: Samples per second (e.g. 24000).
//   - numChannels: Channel count (1 for mono).
//   - bitsPerSample: Sample bit depth (16 for provider output).
//
// Outputs:
//   - []byte: A buffer of length len(pcm)+44 holding the WAV file.
func WrapPCM(pcm []byte, sampleRate, numChannels, bitsPerSample int) []byte {
	dataSize := len(pcm)
	byteRate := sampleRate * numChannels * bitsPerSample / 8
	blockAlign := numChannels * bitsPerSample / 8

	out := make([]byte, WAVHeaderSize+dataSize)

	// RIFF chunk descriptor.
	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+dataSize))
	copy(out[8:12], "WAVE")

	// fmt sub-chunk: PCM format tag plus the sample geometry.
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], 1)
	binary.LittleEndian.PutUint16(out[22:24], uint16(numChannels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:36], uint16(bitsPerSample))

	// data sub-chunk.
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(dataSize))

	copy(out[WAVHeaderSize:], pcm)
	return out
}

// WrapPCMDefault wraps PCM in the default synthesis format
// (24kHz, mono, 16-bit).
func WrapPCMDefault(pcm []byte) []byte {
	return WrapPCM(pcm, DefaultSampleRate, DefaultNumChannels, DefaultBitsPerSample)
}
