package capture

import (
	"bytes"
	"image"
	"image/jpeg"
	"io"
	"log/slog"
	"os/exec"
	"runtime"
	"sync"

	"github.com/sparks-live/sparks/pkg/core"
)

// cameraGrabRate is the rate ffmpeg delivers frames at. The session
// samples frames on its own timer; the grab only has to keep the
// latest frame fresh.
const cameraGrabRate = "2"

// cameraSource keeps the most recent camera frame available for
// polling. Frames arrive as an MJPEG stream from an ffmpeg child
// process reading the platform camera device.
type cameraSource struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	logger *slog.Logger

	mu     sync.Mutex
	latest []byte

	releaseOnce sync.Once
	done        chan struct{}
}

func newCameraSource(ffmpegPath, input string, logger *slog.Logger) (*cameraSource, error) {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if _, err := exec.LookPath(ffmpegPath); err != nil {
		return nil, core.NewDeviceUnavailableError("camera", err)
	}

	format, device := defaultCameraInput()
	if input != "" {
		device = input
	}

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-f", format,
		"-i", device,
		"-vf", "fps=" + cameraGrabRate,
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-",
	}
	cmd := exec.Command(ffmpegPath, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, core.NewDeviceUnavailableError("camera", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, classifyAcquireError("camera", err)
	}

	c := &cameraSource{
		cmd:    cmd,
		stdout: stdout,
		logger: logger,
		done:   make(chan struct{}),
	}
	go c.readLoop()

	logger.Debug("camera started", "format", format, "device", device)
	return c, nil
}

func defaultCameraInput() (format, device string) {
	switch runtime.GOOS {
	case "darwin":
		return "avfoundation", "0"
	case "windows":
		return "dshow", "video=Integrated Camera"
	default:
		return "v4l2", "/dev/video0"
	}
}

// readLoop consumes the MJPEG stream and retains the newest complete
// frame. It exits when the child's stdout closes.
func (c *cameraSource) readLoop() {
	defer close(c.done)

	var pending []byte
	buf := make([]byte, 64*1024)
	for {
		n, err := c.stdout.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			var frames [][]byte
			frames, pending = splitJPEGFrames(pending)
			if len(frames) > 0 {
				c.mu.Lock()
				c.latest = frames[len(frames)-1]
				c.mu.Unlock()
			}
		}
		if err != nil {
			if err != io.EOF {
				c.logger.Debug("camera stream ended", "error", err)
			}
			return
		}
	}
}

// PollFrame decodes and returns the most recent camera frame.
func (c *cameraSource) PollFrame() (image.Image, error) {
	c.mu.Lock()
	latest := c.latest
	c.mu.Unlock()

	if latest == nil {
		return nil, ErrNotReady
	}
	img, err := jpeg.Decode(bytes.NewReader(latest))
	if err != nil {
		return nil, ErrNotReady
	}
	return img, nil
}

func (c *cameraSource) Release() error {
	c.releaseOnce.Do(func() {
		if c.cmd.Process != nil {
			_ = c.cmd.Process.Kill()
		}
		_ = c.stdout.Close()
		<-c.done
		_ = c.cmd.Wait()
		c.logger.Debug("camera released")
	})
	return nil
}

// splitJPEGFrames extracts complete JPEG images from an MJPEG byte
// stream. It returns the completed frames and the unconsumed tail,
// which begins at the last unterminated start marker if one exists.
func splitJPEGFrames(buf []byte) (frames [][]byte, rest []byte) {
	soi := []byte{0xFF, 0xD8}
	eoi := []byte{0xFF, 0xD9}

	for {
		start := bytes.Index(buf, soi)
		if start < 0 {
			// Keep one byte in case it is the first half of a marker.
			if len(buf) > 0 && buf[len(buf)-1] == 0xFF {
				return frames, buf[len(buf)-1:]
			}
			return frames, nil
		}
		end := bytes.Index(buf[start+2:], eoi)
		if end < 0 {
			return frames, buf[start:]
		}
		end += start + 2 + 2
		frame := make([]byte, end-start)
		copy(frame, buf[start:end])
		frames = append(frames, frame)
		buf = buf[end:]
	}
}
