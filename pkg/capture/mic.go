package capture

import (
	"encoding/binary"
	"log/slog"
	"math"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/sparks-live/sparks/pkg/core/media"
)

// micDevice streams the default capture device as float blocks of
// media.CaptureBlockSamples samples at media.CaptureSampleRate.
type micDevice struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device
	logger *slog.Logger

	mu      sync.Mutex
	fn      func(samples []float32)
	pending []float32

	releaseOnce sync.Once
	releaseErr  error
}

func newMicDevice(logger *slog.Logger) (*micDevice, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		logger.Debug("miniaudio", "message", message)
	})
	if err != nil {
		return nil, classifyAcquireError("microphone", err)
	}

	m := &micDevice{
		ctx:     ctx,
		logger:  logger,
		pending: make([]float32, 0, media.CaptureBlockSamples),
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatF32
	cfg.Capture.Channels = 1
	cfg.SampleRate = media.CaptureSampleRate
	cfg.PeriodSizeInFrames = media.CaptureBlockSamples
	cfg.Alsa.NoMMap = 1

	device, err := malgo.InitDevice(ctx.Context, cfg, malgo.DeviceCallbacks{
		Data: m.onData,
	})
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return nil, classifyAcquireError("microphone", err)
	}
	m.device = device

	if err := device.Start(); err != nil {
		device.Uninit()
		_ = ctx.Uninit()
		ctx.Free()
		return nil, classifyAcquireError("microphone", err)
	}

	logger.Debug("microphone started",
		"sample_rate", media.CaptureSampleRate,
		"block_samples", media.CaptureBlockSamples)
	return m, nil
}

func (m *micDevice) OnAudioBlock(fn func(samples []float32)) {
	m.mu.Lock()
	m.fn = fn
	m.mu.Unlock()
}

// onData runs on the miniaudio capture thread. The backend does not
// guarantee period-sized delivery, so samples accumulate until a full
// block is available.
func (m *micDevice) onData(_, input []byte, frameCount uint32) {
	if frameCount == 0 || len(input) < 4 {
		return
	}

	m.mu.Lock()
	for i := 0; i+4 <= len(input); i += 4 {
		bits := binary.LittleEndian.Uint32(input[i:])
		m.pending = append(m.pending, math.Float32frombits(bits))
	}
	var blocks [][]float32
	for len(m.pending) >= media.CaptureBlockSamples {
		block := make([]float32, media.CaptureBlockSamples)
		copy(block, m.pending[:media.CaptureBlockSamples])
		m.pending = m.pending[:copy(m.pending, m.pending[media.CaptureBlockSamples:])]
		blocks = append(blocks, block)
	}
	fn := m.fn
	m.mu.Unlock()

	if fn == nil {
		return
	}
	for _, block := range blocks {
		fn(block)
	}
}

func (m *micDevice) Release() error {
	m.releaseOnce.Do(func() {
		if m.device != nil {
			if err := m.device.Stop(); err != nil {
				m.logger.Debug("microphone stop", "error", err)
			}
			m.device.Uninit()
		}
		if m.ctx != nil {
			m.releaseErr = m.ctx.Uninit()
			m.ctx.Free()
		}
		m.logger.Debug("microphone released")
	})
	return m.releaseErr
}
