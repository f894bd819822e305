package media

import (
	"bytes"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"

	"github.com/sparks-live/sparks/pkg/core"
)

// Video frame wire parameters. Frames are heavily reduced before send:
// the agent needs scene context at 1 Hz, not video quality.
const (
	// VideoMIMEType tags encoded frames for the transport.
	VideoMIMEType = "image/jpeg"
	// videoScaleDivisor shrinks both frame dimensions by this factor.
	videoScaleDivisor = 4
	// videoJPEGQuality maps the original 0.5 encoder quality onto
	// image/jpeg's 1-100 scale.
	videoJPEGQuality = 50
)

// VideoFrame is an encoded outbound frame ready for the transport.
type VideoFrame struct {
	MIMEType string
	Data     []byte
}

// EncodeVideoFrame downscales a captured frame to a quarter of its
// dimensions and compresses it as a low-quality JPEG. A frame whose
// source reports no valid dimensions yet (camera warming up) is dropped
// with an encode error; callers treat that as non-fatal and skip the
// frame.
func EncodeVideoFrame(frame image.Image) (VideoFrame, error) {
	if frame == nil {
		return VideoFrame{}, core.NewEncodeError("nil frame", nil)
	}
	bounds := frame.Bounds()
	w, h := bounds.Dx()/videoScaleDivisor, bounds.Dy()/videoScaleDivisor
	if w <= 0 || h <= 0 {
		return VideoFrame{}, core.NewEncodeError("frame has no valid dimensions", nil)
	}

	scaled := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), frame, bounds, draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: videoJPEGQuality}); err != nil {
		return VideoFrame{}, core.NewEncodeError("jpeg encode failed", err)
	}
	return VideoFrame{MIMEType: VideoMIMEType, Data: buf.Bytes()}, nil
}
