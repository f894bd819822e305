package live

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/sparks-live/sparks/pkg/core/media"
)

type fakeSink struct {
	mu      sync.Mutex
	writes  [][]byte
	flushes int
	closes  int
}

func (f *fakeSink) Write(pcm []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	buf := make([]byte, len(pcm))
	copy(buf, pcm)
	f.writes = append(f.writes, buf)
	return nil
}

func (f *fakeSink) Flush() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushes++
}

func (f *fakeSink) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

func (f *fakeSink) snapshot() (writes [][]byte, flushes, closes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte{}, f.writes...), f.flushes, f.closes
}

// chunk returns pcm covering ms of playback, filled with marker.
func chunk(t *testing.T, ms int, marker byte) []byte {
	t.Helper()
	pcm := make([]byte, media.PlaybackConfig().BytesForDurationMs(ms))
	for i := range pcm {
		pcm[i] = marker
	}
	return pcm
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}

func TestSchedulerPlaysInOrder(t *testing.T) {
	sink := &fakeSink{}
	s := NewScheduler(sink, media.PlaybackConfig(), nil)
	defer s.Close()

	first := chunk(t, 10, 1)
	second := chunk(t, 10, 2)
	third := chunk(t, 10, 3)

	t1 := s.Enqueue(first)
	t2 := s.Enqueue(second)
	t3 := s.Enqueue(third)

	if !t2.After(t1) || !t3.After(t2) {
		t.Fatalf("expected strictly increasing start times: %v %v %v", t1, t2, t3)
	}
	if got, want := t2.Sub(t1), 10*time.Millisecond; got != want {
		t.Fatalf("expected back-to-back scheduling, gap %v", got)
	}

	waitFor(t, time.Second, func() bool {
		writes, _, _ := sink.snapshot()
		return len(writes) == 3
	})
	writes, _, _ := sink.snapshot()
	if !bytes.Equal(writes[0], first) || !bytes.Equal(writes[1], second) || !bytes.Equal(writes[2], third) {
		t.Fatalf("chunks delivered out of order")
	}
	if s.Pending() != 0 {
		t.Fatalf("expected drained queue, %d pending", s.Pending())
	}
}

func TestSchedulerSnapsClockForwardAfterDrain(t *testing.T) {
	sink := &fakeSink{}
	s := NewScheduler(sink, media.PlaybackConfig(), nil)
	defer s.Close()

	s.Enqueue(chunk(t, 5, 1))
	waitFor(t, time.Second, func() bool { return s.Pending() == 0 })

	// Let the clock fall behind real time.
	time.Sleep(30 * time.Millisecond)

	before := time.Now()
	start := s.Enqueue(chunk(t, 5, 2))
	if start.Before(before) {
		t.Fatalf("start %v precedes enqueue at %v; clock did not snap forward", start, before)
	}
	if delay := start.Sub(before); delay > 10*time.Millisecond {
		t.Fatalf("expected immediate playback after drain, delayed %v", delay)
	}
}

func TestSchedulerInterrupt(t *testing.T) {
	sink := &fakeSink{}
	s := NewScheduler(sink, media.PlaybackConfig(), nil)
	defer s.Close()

	// A long head chunk keeps the rest pending.
	s.Enqueue(chunk(t, 500, 1))
	s.Enqueue(chunk(t, 20, 2))
	s.Enqueue(chunk(t, 20, 3))
	if s.Pending() < 2 {
		t.Fatalf("expected pending chunks before interrupt, got %d", s.Pending())
	}

	s.Interrupt()

	if s.Pending() != 0 {
		t.Fatalf("expected empty queue after interrupt, %d pending", s.Pending())
	}
	if !s.PlayingUntil().IsZero() {
		t.Fatalf("expected reset clock, playing until %v", s.PlayingUntil())
	}
	_, flushes, _ := sink.snapshot()
	if flushes != 1 {
		t.Fatalf("expected one sink flush, got %d", flushes)
	}

	// The next chunk plays immediately.
	before := time.Now()
	start := s.Enqueue(chunk(t, 10, 4))
	if delay := start.Sub(before); delay > 10*time.Millisecond {
		t.Fatalf("expected immediate start after interrupt, delayed %v", delay)
	}
}

// stallingSink blocks inside Write until release is closed, so tests can
// hold a chunk delivery in flight.
type stallingSink struct {
	fakeSink
	entered chan struct{}
	release chan struct{}
}

func (s *stallingSink) Write(pcm []byte) error {
	s.entered <- struct{}{}
	<-s.release
	return s.fakeSink.Write(pcm)
}

func TestSchedulerInterruptWaitsForInFlightWrite(t *testing.T) {
	sink := &stallingSink{entered: make(chan struct{}), release: make(chan struct{})}
	s := NewScheduler(sink, media.PlaybackConfig(), nil)
	defer s.Close()

	s.Enqueue(chunk(t, 1, 7))
	<-sink.entered

	interrupted := make(chan struct{})
	go func() {
		s.Interrupt()
		close(interrupted)
	}()

	// Interrupt must not return while the sink still holds a chunk.
	select {
	case <-interrupted:
		t.Fatalf("interrupt returned with a write in flight")
	case <-time.After(20 * time.Millisecond):
	}

	close(sink.release)
	<-interrupted

	writes, flushes, _ := sink.snapshot()
	if len(writes) != 1 {
		t.Fatalf("expected the in-flight chunk delivered, got %d writes", len(writes))
	}
	if flushes != 1 {
		t.Fatalf("expected one flush after the write, got %d", flushes)
	}
	if s.Pending() != 0 {
		t.Fatalf("expected empty queue after interrupt, %d pending", s.Pending())
	}
}

func TestSchedulerIsPlaying(t *testing.T) {
	sink := &fakeSink{}
	s := NewScheduler(sink, media.PlaybackConfig(), nil)
	defer s.Close()

	if s.IsPlaying() {
		t.Fatalf("expected idle scheduler")
	}
	s.Enqueue(chunk(t, 200, 1))
	if !s.IsPlaying() {
		t.Fatalf("expected playing after enqueue")
	}
	s.Interrupt()
	if s.IsPlaying() {
		t.Fatalf("expected not playing after interrupt")
	}
}

func TestSchedulerCloseIsIdempotent(t *testing.T) {
	sink := &fakeSink{}
	s := NewScheduler(sink, media.PlaybackConfig(), nil)

	s.Enqueue(chunk(t, 500, 1))
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	_, _, closes := sink.snapshot()
	if closes != 1 {
		t.Fatalf("expected sink closed once, got %d", closes)
	}
	if start := s.Enqueue(chunk(t, 10, 2)); !start.IsZero() {
		t.Fatalf("expected enqueue after close to be dropped")
	}
}

func TestSchedulerConcurrentEnqueue(t *testing.T) {
	sink := &fakeSink{}
	s := NewScheduler(sink, media.PlaybackConfig(), nil)
	defer s.Close()

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(marker byte) {
			defer wg.Done()
			s.Enqueue(chunk(t, 5, marker))
		}(byte(i))
	}
	wg.Wait()

	waitFor(t, time.Second, func() bool {
		writes, _, _ := sink.snapshot()
		return len(writes) == n
	})
}
