package live

import (
	"context"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"

	"github.com/sparks-live/sparks/pkg/core"
	"github.com/sparks-live/sparks/pkg/core/media"
)

// CaptureDevice is the capture capability the session consumes.
// pkg/capture provides the hardware implementation.
type CaptureDevice interface {
	OnAudioBlock(fn func(samples []float32))
	PollVideoFrame() (image.Image, error)
	Release() error
}

// AcquireFunc opens the capture hardware for one session.
type AcquireFunc func() (CaptureDevice, error)

// Session is one live conversation with the agent. It owns the
// outbound capture-encode-send pipeline, the inbound receive loop and
// the playback scheduler, and reconciles transcript and control events
// into callbacks.
//
// A Session connects at most once; create a new Session for a new
// conversation. All methods are safe for concurrent use.
type Session struct {
	id        string
	transport Transport
	acquire   AcquireFunc
	sched     *Scheduler
	cb        Callbacks
	cfg       Config
	logger    *slog.Logger
	metrics   *Metrics

	lifecycle *fsm.FSM

	mu        sync.Mutex
	conn      Conn
	device    CaptureDevice
	muted     bool
	modelText string
	outPCM    []byte

	videoCancel context.CancelFunc
	recvStarted bool
	recvDone    chan struct{}
	closed      atomic.Bool
}

// NewSession creates an idle Session. acquire opens the capture
// hardware during Connect; sched drives the playback device.
func NewSession(transport Transport, acquire AcquireFunc, sched *Scheduler, cb Callbacks, cfg Config) *Session {
	s := &Session{
		id:        uuid.NewString(),
		transport: transport,
		acquire:   acquire,
		sched:     sched,
		cb:        cb,
		cfg:       cfg,
		metrics:   cfg.Metrics,
		recvDone:  make(chan struct{}),
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(nil)
	}
	s.logger = cfg.logger().With("session_id", s.id)

	s.lifecycle = fsm.NewFSM(
		StateIdle.String(),
		fsm.Events{
			{Name: "connect", Src: []string{StateIdle.String()}, Dst: StateConnecting.String()},
			{Name: "opened", Src: []string{StateConnecting.String()}, Dst: StateOpen.String()},
			{Name: "close", Src: []string{StateIdle.String(), StateConnecting.String(), StateOpen.String()}, Dst: StateClosing.String()},
			{Name: "closed", Src: []string{StateClosing.String()}, Dst: StateClosed.String()},
			{Name: "fail", Src: []string{StateConnecting.String(), StateOpen.String(), StateClosing.String()}, Dst: StateErrored.String()},
		},
		fsm.Callbacks{
			"after_event": func(_ context.Context, e *fsm.Event) {
				s.logger.Debug("session state", "event", e.Event, "from", e.Src, "to", e.Dst)
			},
		},
	)
	return s
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	switch s.lifecycle.Current() {
	case StateIdle.String():
		return StateIdle
	case StateConnecting.String():
		return StateConnecting
	case StateOpen.String():
		return StateOpen
	case StateClosing.String():
		return StateClosing
	case StateClosed.String():
		return StateClosed
	default:
		return StateErrored
	}
}

// Connect acquires capture, opens the transport with the composed
// system instruction and starts streaming in both directions. A failed
// step transitions the session to Errored, runs the error callback and
// releases everything acquired so far.
func (s *Session) Connect(ctx context.Context) error {
	if err := s.lifecycle.Event(ctx, "connect"); err != nil {
		return core.NewStateError("connect: session is " + s.lifecycle.Current())
	}

	device, err := s.acquire()
	if err != nil {
		s.fail(err)
		return err
	}
	s.mu.Lock()
	s.device = device
	s.mu.Unlock()

	params := ConnectParams{
		Model:             s.cfg.model(),
		Voice:             s.cfg.voice(),
		SystemInstruction: s.cfg.Vibe.ComposeInstruction(),
	}
	conn, err := s.transport.Connect(ctx, params)
	if err != nil {
		connErr := core.NewConnectionError("transport connect failed", err)
		s.fail(connErr)
		return connErr
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	if err := s.lifecycle.Event(ctx, "opened"); err != nil {
		// Close raced the handshake; teardown already ran.
		return core.NewStateError("connect: session is " + s.lifecycle.Current())
	}

	device.OnAudioBlock(s.handleAudioBlock)
	if !s.cfg.DisableVideo {
		videoCtx, cancel := context.WithCancel(context.Background())
		s.mu.Lock()
		s.videoCancel = cancel
		s.mu.Unlock()
		go s.videoLoop(videoCtx)
	}
	s.mu.Lock()
	s.recvStarted = true
	s.mu.Unlock()
	go s.receiveLoop(conn)

	if s.closed.Load() {
		// Close raced Connect before the loops were wired up; finish
		// the teardown it could not see.
		s.teardown(false)
		return core.NewStateError("connect: session is " + s.lifecycle.Current())
	}

	s.logger.Info("session open",
		"vibe", s.cfg.Vibe.ID,
		"model", params.Model,
		"voice", params.Voice,
		"video", !s.cfg.DisableVideo)
	return nil
}

// SetMicEnabled toggles outbound audio. While disabled, captured
// blocks are discarded before encoding; capture hardware stays live.
func (s *Session) SetMicEnabled(enabled bool) {
	s.mu.Lock()
	s.muted = !enabled
	s.mu.Unlock()
	s.logger.Debug("mic toggled", "enabled", enabled)
}

// MicEnabled reports whether outbound audio is being sent.
func (s *Session) MicEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.muted
}

// handleAudioBlock runs on the capture goroutine for every microphone
// block.
func (s *Session) handleAudioBlock(samples []float32) {
	if s.closed.Load() {
		return
	}
	s.mu.Lock()
	muted := s.muted
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return
	}
	if muted {
		s.metrics.AudioBlocksMuted.Inc()
		return
	}

	chunk := MediaChunk{
		MIMEType: AudioInputMIMEType,
		Data:     media.EncodeAudio(samples),
	}
	if err := conn.SendMedia(chunk); err != nil {
		if !s.closed.Load() {
			s.logger.Error("audio send failed", "error", err)
		}
		return
	}
	s.metrics.AudioBlocksSent.Inc()
}

// videoLoop sends one camera frame per VideoFrameInterval. Frames that
// are not ready or fail to encode are dropped; the loop never blocks
// the audio path.
func (s *Session) videoLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.videoInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		device := s.device
		conn := s.conn
		s.mu.Unlock()
		if device == nil || conn == nil {
			return
		}

		img, err := device.PollVideoFrame()
		if err != nil {
			s.metrics.VideoFramesDropped.Inc()
			continue
		}
		frame, err := media.EncodeVideoFrame(img)
		if err != nil {
			s.metrics.VideoFramesDropped.Inc()
			s.logger.Debug("video frame dropped", "error", err)
			continue
		}
		if err := conn.SendMedia(MediaChunk{MIMEType: frame.MIMEType, Data: frame.Data}); err != nil {
			if !s.closed.Load() {
				s.logger.Error("video send failed", "error", err)
			}
			continue
		}
		s.metrics.VideoFramesSent.Inc()
	}
}

// receiveLoop pumps inbound events until the connection ends.
func (s *Session) receiveLoop(conn Conn) {
	defer close(s.recvDone)
	for {
		ev, err := conn.Receive()
		if err != nil {
			if s.closed.Load() {
				return
			}
			s.fail(core.NewConnectionError("receive failed", err))
			return
		}
		s.handleServerEvent(ev)
	}
}

// handleServerEvent applies one inbound event in arrival order.
func (s *Session) handleServerEvent(ev *ServerEvent) {
	if ev == nil {
		return
	}

	if ev.Interrupted {
		// Queued speech is stale; the partial transcript is not. It
		// still finalizes on the next turn boundary.
		s.sched.Interrupt()
		s.metrics.Interruptions.Inc()
		s.logger.Debug("agent interrupted")
	}

	if len(ev.Audio) > 0 {
		samples, err := media.DecodeAudio(ev.Audio)
		if err != nil {
			s.logger.Debug("audio chunk dropped", "error", err)
		} else {
			s.sched.Enqueue(ev.Audio)
			s.metrics.AudioChunksScheduled.Inc()
			s.logger.Debug("agent audio",
				"bytes", len(ev.Audio),
				"rms", media.RMSEnergy(ev.Audio))
			if s.cfg.RecordOutput {
				s.mu.Lock()
				s.outPCM = append(s.outPCM, ev.Audio...)
				s.mu.Unlock()
			}
			s.cb.audioData(samples)
		}
	}

	if ev.OutputTranscription != "" {
		s.mu.Lock()
		s.modelText += ev.OutputTranscription
		s.mu.Unlock()
		s.cb.transcription(ev.OutputTranscription, true, false)
	}

	if ev.InputTranscription != "" {
		s.cb.transcription(ev.InputTranscription, false, false)
	}

	if ev.TurnComplete {
		s.mu.Lock()
		final := s.modelText
		s.modelText = ""
		s.mu.Unlock()
		s.metrics.TurnsCompleted.Inc()
		s.cb.transcription(final, true, true)
	}
}

// OutputWAV returns every inbound agent audio chunk received so far as
// a WAV file. It returns nil unless Config.RecordOutput is set.
func (s *Session) OutputWAV() []byte {
	if !s.cfg.RecordOutput {
		return nil
	}
	s.mu.Lock()
	pcm := make([]byte, len(s.outPCM))
	copy(pcm, s.outPCM)
	s.mu.Unlock()
	if len(pcm) == 0 {
		return nil
	}
	return media.PCMToWAV(pcm, media.PlaybackConfig())
}

// Close tears the session down: video timer, capture hardware,
// playback, then the transport. Safe to call any number of times and
// from any state; a second call is a no-op.
func (s *Session) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	ctx := context.Background()
	_ = s.lifecycle.Event(ctx, "close")
	s.teardown(true)
	_ = s.lifecycle.Event(ctx, "closed")
	s.logger.Info("session closed")
	s.cb.closed()
	return nil
}

// fail is the fatal-error path. Same cleanup as Close, after the error
// callback.
func (s *Session) fail(err error) {
	if s.closed.Swap(true) {
		return
	}
	_ = s.lifecycle.Event(context.Background(), "fail")
	s.logger.Error("session failed", "error", err)
	s.cb.errorf(err)
	// fail may run on the receive goroutine, which closes recvDone on
	// return; never wait for it here.
	s.teardown(false)
	s.cb.closed()
}

// teardown releases resources in order. Each step is guarded so one
// failure never skips the rest.
func (s *Session) teardown(waitRecv bool) {
	s.mu.Lock()
	cancel := s.videoCancel
	device := s.device
	conn := s.conn
	recvStarted := s.recvStarted
	s.videoCancel = nil
	s.device = nil
	s.conn = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if device != nil {
		device.OnAudioBlock(nil)
		if err := device.Release(); err != nil {
			s.logger.Warn("capture release failed", "error", err)
		}
	}
	s.sched.Interrupt()
	if conn != nil {
		if err := conn.Close(); err != nil {
			s.logger.Warn("transport close failed", "error", err)
		}
		if waitRecv && recvStarted {
			<-s.recvDone
		}
	}
}
