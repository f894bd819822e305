// Package playback provides the speaker device behind the session's
// playback scheduler.
package playback

import (
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/sparks-live/sparks/pkg/core"
	"github.com/sparks-live/sparks/pkg/core/media"
)

// Speaker plays s16le PCM through the default output device. It pull-
// feeds an oto player from an internal buffer; Write appends, Flush
// drops everything not yet played.
type Speaker struct {
	otoCtx *oto.Context

	mu      sync.Mutex
	cond    *sync.Cond
	buf     []byte
	player  *oto.Player
	playing bool
	closed  bool
}

// NewSpeaker opens the output device for audio in cfg's format.
func NewSpeaker(cfg media.AudioConfig) (*Speaker, error) {
	otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: cfg.Channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   50 * time.Millisecond,
	})
	if err != nil {
		return nil, core.NewDeviceUnavailableError("speaker", err)
	}
	<-ready

	s := &Speaker{
		otoCtx: otoCtx,
		buf:    make([]byte, 0, cfg.BytesPerSecond()),
	}
	s.cond = sync.NewCond(&s.mu)
	return s, nil
}

// Write appends pcm to the playout buffer, starting the player on the
// first write after creation or a flush.
func (s *Speaker) Write(pcm []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return core.NewStateError("speaker is closed")
	}
	s.buf = append(s.buf, pcm...)

	if !s.playing {
		s.playing = true
		s.player = s.otoCtx.NewPlayer(s)
		s.player.Play()
	}
	s.cond.Signal()
	return nil
}

// Read feeds the oto player. It blocks until data arrives or the
// speaker closes, then drains with silence so oto shuts down cleanly.
func (s *Speaker) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.buf) == 0 && !s.closed && s.playing {
		s.cond.Wait()
	}

	if len(s.buf) == 0 {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	n := copy(p, s.buf)
	s.buf = s.buf[n:]
	return n, nil
}

// Flush drops all buffered audio and stops the current player so the
// next Write starts fresh with nothing stale ahead of it.
func (s *Speaker) Flush() {
	s.mu.Lock()
	s.buf = s.buf[:0]
	if s.player == nil || !s.playing {
		s.mu.Unlock()
		return
	}
	s.playing = false
	player := s.player
	s.player = nil
	s.cond.Broadcast()
	s.mu.Unlock()

	// Pause stops audio immediately; Reset clears oto's own buffer so
	// old audio never overlaps what follows.
	player.Pause()
	player.Reset()
	player.Close()
}

// Close stops playback and releases the device. Idempotent.
func (s *Speaker) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.buf = s.buf[:0]
	player := s.player
	s.player = nil
	s.playing = false
	s.cond.Broadcast()
	s.mu.Unlock()

	if player != nil {
		player.Close()
	}
	return nil
}
