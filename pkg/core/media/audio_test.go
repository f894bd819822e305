package media

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestEncodeAudioClampAndScale(t *testing.T) {
	tests := []struct {
		name   string
		sample float32
		want   int16
	}{
		{"zero", 0, 0},
		{"full positive", 1.0, 32767},
		{"full negative", -1.0, -32768},
		{"half positive", 0.5, 16383},
		{"half negative", -0.5, -16384},
		{"clamped high", 2.5, 32767},
		{"clamped low", -3.0, -32768},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := EncodeAudio([]float32{tt.sample})
			if len(out) != 2 {
				t.Fatalf("encoded length = %d, want 2", len(out))
			}
			got := int16(binary.LittleEndian.Uint16(out))
			if got != tt.want {
				t.Errorf("EncodeAudio(%v) = %d, want %d", tt.sample, got, tt.want)
			}
		})
	}
}

func TestAudioRoundTripWithinQuantizationStep(t *testing.T) {
	samples := make([]float32, 512)
	for i := range samples {
		samples[i] = float32(math.Sin(2 * math.Pi * float64(i) / 128))
	}

	decoded, err := DecodeAudio(EncodeAudio(samples))
	if err != nil {
		t.Fatalf("DecodeAudio: %v", err)
	}
	if len(decoded) != len(samples) {
		t.Fatalf("decoded %d samples, want %d", len(decoded), len(samples))
	}

	// The positive half spans 32767 levels, so it sets the step size.
	const step = 1.0 / 32767.0
	for i := range samples {
		if diff := math.Abs(float64(decoded[i] - samples[i])); diff > step {
			t.Fatalf("sample %d: round-trip error %v exceeds one quantization step", i, diff)
		}
	}
}

func TestDecodeAudioRejectsOddLength(t *testing.T) {
	if _, err := DecodeAudio([]byte{0x01, 0x02, 0x03}); err == nil {
		t.Fatal("DecodeAudio should reject odd-length payloads")
	}
}

func TestRMSEnergy(t *testing.T) {
	tests := []struct {
		name    string
		samples []int16
		want    float64
	}{
		{"silence", []int16{0, 0, 0, 0}, 0.0},
		{"full scale", []int16{32767, 32767, 32767, 32767}, 1.0},
		{"half scale", []int16{16384, -16384, 16384, -16384}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pcm := make([]byte, len(tt.samples)*2)
			for i, s := range tt.samples {
				binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
			}
			got := RMSEnergy(pcm)
			if math.Abs(got-tt.want) > 0.01 {
				t.Errorf("RMSEnergy = %.3f, want %.3f", got, tt.want)
			}
		})
	}
}

func TestPeakAmplitude(t *testing.T) {
	pcm := make([]byte, 8)
	min := int16(math.MinInt16)
	binary.LittleEndian.PutUint16(pcm[2:], uint16(min))
	if got := PeakAmplitude(pcm); math.Abs(got-1.0) > 0.001 {
		t.Errorf("PeakAmplitude = %.3f, want 1.0", got)
	}
	if got := PeakAmplitude(nil); got != 0 {
		t.Errorf("PeakAmplitude(nil) = %v, want 0", got)
	}
}

func TestAudioConfigMath(t *testing.T) {
	cfg := PlaybackConfig()

	// 24 kHz mono 16-bit is 48000 bytes per second.
	if got := cfg.BytesPerSecond(); got != 48000 {
		t.Errorf("BytesPerSecond = %d, want 48000", got)
	}
	if got := cfg.DurationMs(48000); got != 1000 {
		t.Errorf("DurationMs(48000) = %d, want 1000", got)
	}
	if got := cfg.BytesForDurationMs(20); got != 960 {
		t.Errorf("BytesForDurationMs(20) = %d, want 960", got)
	}

	in := CaptureConfig()
	if in.SampleRate != 16000 || in.Channels != 1 {
		t.Errorf("CaptureConfig = %+v, want 16 kHz mono", in)
	}
}
