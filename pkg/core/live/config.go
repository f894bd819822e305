package live

import (
	"log/slog"
	"time"

	"github.com/sparks-live/sparks/pkg/core/vibe"
)

// Wire constants shared with the remote agent. These are fixed by the
// agent contract, not tunable.
const (
	// DefaultModel is the live conversational model.
	DefaultModel = "gemini-2.5-flash-native-audio-preview-09-2025"

	// DefaultVoice is the prebuilt voice used for synthesized speech.
	DefaultVoice = "Kore"

	// AudioInputMIMEType tags outbound microphone chunks.
	AudioInputMIMEType = "audio/pcm;rate=16000"

	// VideoFrameInterval is the outbound camera frame cadence.
	VideoFrameInterval = time.Second
)

// SessionState is the lifecycle state of a Session.
type SessionState int

const (
	// StateIdle is the created-but-not-connected state.
	StateIdle SessionState = iota
	// StateConnecting covers capture acquisition and the transport handshake.
	StateConnecting
	// StateOpen means media is streaming in both directions.
	StateOpen
	// StateClosing means teardown is in progress.
	StateClosing
	// StateClosed is the terminal state after a clean disconnect.
	StateClosed
	// StateErrored is the terminal state after a fatal failure.
	StateErrored
)

// String returns the state name used in logs and FSM transitions.
func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Config configures a Session.
type Config struct {
	// Vibe selects the conversational persona composed into the
	// system instruction at connect time.
	Vibe vibe.Config

	// Model overrides DefaultModel when set.
	Model string

	// Voice overrides DefaultVoice when set.
	Voice string

	// DisableVideo skips the camera track and the outbound frame timer.
	DisableVideo bool

	// VideoInterval overrides VideoFrameInterval when positive.
	VideoInterval time.Duration

	// RecordOutput retains all inbound agent audio for OutputWAV.
	RecordOutput bool

	Logger  *slog.Logger
	Metrics *Metrics
}

// DefaultConfig returns a Config with the standard model, voice and the
// Random vibe.
func DefaultConfig() Config {
	return Config{
		Vibe:  vibe.MustLookup(vibe.Random),
		Model: DefaultModel,
		Voice: DefaultVoice,
	}
}

func (c Config) model() string {
	if c.Model != "" {
		return c.Model
	}
	return DefaultModel
}

func (c Config) voice() string {
	if c.Voice != "" {
		return c.Voice
	}
	return DefaultVoice
}

func (c Config) videoInterval() time.Duration {
	if c.VideoInterval > 0 {
		return c.VideoInterval
	}
	return VideoFrameInterval
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
