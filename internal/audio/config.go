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

package audio

import "time"

// Config describes a PCM stream's geometry and converts between byte
// counts and wall-clock durations. The live session uses two of these:
// 16kHz for microphone capture sent upstream and 24kHz for model audio
// played back.
type Config struct {
	SampleRate    int
	NumChannels   int
	BitsPerSample int
}

// CaptureConfig is the upstream (microphone) format for live sessions.
func CaptureConfig() Config {
	return Config{SampleRate: 16000, NumChannels: 1, BitsPerSample: 16}
}

// PlaybackConfig is the downstream (model audio) format for live sessions.
func PlaybackConfig() Config {
	return Config{SampleRate: 24000, NumChannels: 1, BitsPerSample: 16}
}

// BytesPerSecond returns the stream's data rate.
func (c Config) BytesPerSecond() int {
	return c.SampleRate * c.NumChannels * c.BitsPerSample / 8
}

// Duration reports how long numBytes of this stream lasts when played.
func (c Config) Duration(numBytes int) time.Duration {
	bps := c.BytesPerSecond()
	if bps == 0 {
		return 0
	}
	return time.Duration(float64(numBytes) / float64(bps) * float64(time.Second))
}

// BytesFor reports how many bytes cover the given playback duration,
// rounded down to a whole frame.
func (c Config) BytesFor(d time.Duration) int {
	raw := int(d.Seconds() * float64(c.BytesPerSecond()))
	frame := c.NumChannels * c.BitsPerSample / 8
	if frame == 0 {
		return raw
	}
	return raw - raw%frame
}
