// Package media implements the outbound wire codecs and audio format math
// for the live session: float PCM to s16le encoding, video frame
// compression, and duration/byte conversions for the fixed capture and
// playback formats.
package media

import (
	"encoding/binary"
	"math"

	"github.com/sparks-live/sparks/pkg/core"
)

// Fixed wire formats. The agent expects exactly these; they are not
// runtime-configurable.
const (
	// CaptureSampleRate is the microphone capture rate in Hz.
	CaptureSampleRate = 16000
	// PlaybackSampleRate is the synthesized-speech rate in Hz.
	PlaybackSampleRate = 24000
	// CaptureBlockSamples is the number of float samples per capture block.
	CaptureBlockSamples = 4096
)

// AudioConfig specifies PCM format parameters.
type AudioConfig struct {
	// SampleRate in Hz.
	SampleRate int
	// Channels: 1 for mono, 2 for stereo.
	Channels int
	// BitsPerSample: typically 16 for PCM.
	BitsPerSample int
}

// CaptureConfig returns the microphone-side format (16 kHz mono s16).
func CaptureConfig() AudioConfig {
	return AudioConfig{SampleRate: CaptureSampleRate, Channels: 1, BitsPerSample: 16}
}

// PlaybackConfig returns the agent-audio format (24 kHz mono s16).
func PlaybackConfig() AudioConfig {
	return AudioConfig{SampleRate: PlaybackSampleRate, Channels: 1, BitsPerSample: 16}
}

// BytesPerSecond returns the audio byte rate.
func (c AudioConfig) BytesPerSecond() int {
	return c.SampleRate * c.Channels * (c.BitsPerSample / 8)
}

// Duration returns the playback time of the given byte count in
// milliseconds.
func (c AudioConfig) DurationMs(bytes int) int {
	if c.BytesPerSecond() == 0 {
		return 0
	}
	return (bytes * 1000) / c.BytesPerSecond()
}

// BytesForDurationMs returns the byte count covering ms of audio.
func (c AudioConfig) BytesForDurationMs(ms int) int {
	return (c.BytesPerSecond() * ms) / 1000
}

// EncodeAudio converts float samples in [-1, 1] to little-endian signed
// 16-bit PCM. Out-of-range samples are clamped, never wrapped. Positive
// and negative values scale by 32767 and 32768 respectively so that both
// extremes map onto the full signed range without overflow.
func EncodeAudio(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		var v int16
		if s >= 0 {
			v = int16(s * 32767)
		} else {
			v = int16(s * 32768)
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

// DecodeAudio converts little-endian signed 16-bit PCM back to float
// samples in [-1, 1]. It mirrors EncodeAudio's asymmetric scaling, so a
// round trip stays within one quantization step on either half of the
// range. Odd trailing bytes are rejected rather than silently truncated.
func DecodeAudio(pcm []byte) ([]float32, error) {
	if len(pcm)%2 != 0 {
		return nil, core.NewDecodeError("pcm payload has odd length", nil)
	}
	out := make([]float32, len(pcm)/2)
	for i := range out {
		v := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		if v >= 0 {
			out[i] = float32(v) / 32767.0
		} else {
			out[i] = float32(v) / 32768.0
		}
	}
	return out, nil
}

// RMSEnergy computes the root-mean-square energy of s16le PCM,
// normalized to [0, 1]. Used for the speaking indicator.
func RMSEnergy(pcm []byte) float64 {
	samples := len(pcm) / 2
	if samples == 0 {
		return 0
	}
	var sum float64
	for i := 0; i+1 < len(pcm); i += 2 {
		sample := int16(binary.LittleEndian.Uint16(pcm[i:]))
		normalized := float64(sample) / 32768.0
		sum += normalized * normalized
	}
	return math.Sqrt(sum / float64(samples))
}

// PeakAmplitude returns the maximum absolute amplitude in s16le PCM,
// normalized to [0, 1].
func PeakAmplitude(pcm []byte) float64 {
	var maxAbs float64
	for i := 0; i+1 < len(pcm); i += 2 {
		sample := int16(binary.LittleEndian.Uint16(pcm[i:]))
		// float64 before Abs; negating -32768 overflows int16.
		abs := math.Abs(float64(sample))
		if abs > maxAbs {
			maxAbs = abs
		}
	}
	return maxAbs / 32768.0
}
