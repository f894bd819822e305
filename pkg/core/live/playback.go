package live

import (
	"log/slog"
	"sync"
	"time"

	"github.com/sparks-live/sparks/pkg/core/media"
)

// AudioSink is the playback device behind the scheduler. Write appends
// PCM to the playout buffer; Flush drops everything buffered but not
// yet played.
type AudioSink interface {
	Write(pcm []byte) error
	Flush()
	Close() error
}

// Scheduler plays inbound audio chunks gaplessly and in arrival order.
//
// Each chunk is assigned a start time on a playback clock: the first
// chunk (or the first after a drained queue) starts now, every later
// chunk starts exactly when its predecessor ends. Interrupt cancels all
// scheduled chunks, flushes the sink and resets the clock so the next
// chunk starts immediately.
type Scheduler struct {
	sink   AudioSink
	cfg    media.AudioConfig
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	nextStart time.Time
	sources   map[*time.Timer]struct{}
	closed    bool
}

// NewScheduler creates a Scheduler driving sink with audio in cfg's
// format.
func NewScheduler(sink AudioSink, cfg media.AudioConfig, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		sink:    sink,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
		sources: map[*time.Timer]struct{}{},
	}
}

// Enqueue schedules pcm for playback after everything already queued.
// It returns the chunk's start time, zero when the chunk was dropped.
func (s *Scheduler) Enqueue(pcm []byte) time.Time {
	if len(pcm) == 0 {
		return time.Time{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return time.Time{}
	}

	now := s.now()
	start := s.nextStart
	if start.Before(now) {
		// The queue drained; snap the clock forward so the chunk
		// plays immediately instead of in the past.
		start = now
	}
	s.nextStart = start.Add(s.chunkDuration(len(pcm)))

	var t *time.Timer
	t = time.AfterFunc(start.Sub(now), func() {
		// The membership check and the sink write stay under one
		// critical section: an Interrupt must either cancel this chunk
		// or flush it, never return between the two.
		s.mu.Lock()
		if _, live := s.sources[t]; !live {
			s.mu.Unlock()
			return
		}
		delete(s.sources, t)
		err := s.sink.Write(pcm)
		s.mu.Unlock()

		if err != nil {
			s.logger.Error("playback write failed", "error", err)
		}
	})
	s.sources[t] = struct{}{}
	return start
}

// Interrupt cancels every scheduled chunk, drops buffered sink audio
// and resets the playback clock.
func (s *Scheduler) Interrupt() {
	s.mu.Lock()
	for t := range s.sources {
		t.Stop()
		delete(s.sources, t)
	}
	s.nextStart = time.Time{}
	s.mu.Unlock()

	s.sink.Flush()
}

// Pending reports how many chunks are scheduled but not yet handed to
// the sink.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sources)
}

// PlayingUntil returns the time the queue drains. Zero means nothing
// was ever scheduled or the scheduler was interrupted.
func (s *Scheduler) PlayingUntil() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextStart
}

// IsPlaying reports whether queued audio extends past now.
func (s *Scheduler) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now().Before(s.nextStart)
}

// Close interrupts playback and closes the sink. Idempotent.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for t := range s.sources {
		t.Stop()
		delete(s.sources, t)
	}
	s.nextStart = time.Time{}
	s.mu.Unlock()

	s.sink.Flush()
	return s.sink.Close()
}

func (s *Scheduler) chunkDuration(bytes int) time.Duration {
	return time.Duration(bytes) * time.Second / time.Duration(s.cfg.BytesPerSecond())
}
