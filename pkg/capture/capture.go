// Package capture owns camera and microphone access for a live session.
//
// The session core consumes capture through the Device interface only:
// a push stream of raw float audio blocks and a pollable current video
// frame. Acquisition is exclusive; Release stops the underlying hardware
// and is safe to call any number of times.
package capture

import (
	"errors"
	"image"
	"log/slog"
	"strings"

	"github.com/sparks-live/sparks/pkg/core"
)

// ErrNotReady is returned by PollVideoFrame while the camera has not yet
// produced a frame with valid dimensions.
var ErrNotReady = errors.New("capture: no video frame available yet")

// Device is an exclusive handle to a live camera+microphone stream.
type Device interface {
	// OnAudioBlock registers the audio callback, invoked from the
	// capture goroutine with successive blocks of float samples in
	// [-1, 1]. At most one callback is active; registering replaces
	// the previous one, and nil detaches it.
	OnAudioBlock(fn func(samples []float32))

	// PollVideoFrame returns the most recent camera frame, or
	// ErrNotReady while the camera is warming up.
	PollVideoFrame() (image.Image, error)

	// Release stops all underlying hardware tracks. Idempotent.
	Release() error
}

// Options configures acquisition.
type Options struct {
	// DisableVideo acquires the microphone only.
	DisableVideo bool

	// CameraInput overrides the platform default camera device
	// (for example "/dev/video0").
	CameraInput string

	// FFmpegPath overrides the ffmpeg binary used for the camera grab.
	FFmpegPath string

	Logger *slog.Logger
}

// device composes the microphone and camera tracks behind one handle.
type device struct {
	mic    *micDevice
	camera *cameraSource
}

// Acquire opens the microphone (and camera unless disabled) and returns
// an exclusive Device. Acquisition failures surface as
// core.ErrPermissionDenied or core.ErrDeviceUnavailable; on any failure
// every partially acquired track is released before returning.
func Acquire(opts Options) (Device, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mic, err := newMicDevice(logger)
	if err != nil {
		return nil, err
	}

	d := &device{mic: mic}
	if !opts.DisableVideo {
		cam, err := newCameraSource(opts.FFmpegPath, opts.CameraInput, logger)
		if err != nil {
			_ = mic.Release()
			return nil, err
		}
		d.camera = cam
	}
	return d, nil
}

func (d *device) OnAudioBlock(fn func(samples []float32)) {
	d.mic.OnAudioBlock(fn)
}

func (d *device) PollVideoFrame() (image.Image, error) {
	if d.camera == nil {
		return nil, ErrNotReady
	}
	return d.camera.PollFrame()
}

func (d *device) Release() error {
	// Both releases are individually idempotent; run them all even if
	// one fails so no track outlives the handle.
	var errs []error
	if err := d.mic.Release(); err != nil {
		errs = append(errs, err)
	}
	if d.camera != nil {
		if err := d.camera.Release(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// classifyAcquireError maps a backend failure onto the capture taxonomy.
func classifyAcquireError(deviceName string, err error) *core.Error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if containsAny(msg, "access denied", "permission", "not permitted", "operation not permitted") {
		e := core.NewPermissionDeniedError(msg)
		e.Device = deviceName
		return e
	}
	return core.NewDeviceUnavailableError(deviceName, err)
}

func containsAny(s string, subs ...string) bool {
	s = strings.ToLower(s)
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
