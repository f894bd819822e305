package live

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments a Session. Pass a nil Registerer to create
// unregistered metrics, which keeps the counters safe to use in tests
// and when no scrape endpoint exists.
type Metrics struct {
	AudioBlocksSent      prometheus.Counter
	AudioBlocksMuted     prometheus.Counter
	VideoFramesSent      prometheus.Counter
	VideoFramesDropped   prometheus.Counter
	AudioChunksScheduled prometheus.Counter
	Interruptions        prometheus.Counter
	TurnsCompleted       prometheus.Counter
}

// NewMetrics creates session counters registered on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AudioBlocksSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "sparks",
			Subsystem: "session",
			Name:      "audio_blocks_sent_total",
			Help:      "Microphone blocks encoded and sent upstream.",
		}),
		AudioBlocksMuted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "sparks",
			Subsystem: "session",
			Name:      "audio_blocks_muted_total",
			Help:      "Microphone blocks discarded while muted.",
		}),
		VideoFramesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "sparks",
			Subsystem: "session",
			Name:      "video_frames_sent_total",
			Help:      "Camera frames encoded and sent upstream.",
		}),
		VideoFramesDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "sparks",
			Subsystem: "session",
			Name:      "video_frames_dropped_total",
			Help:      "Camera frames skipped because none was ready or encoding failed.",
		}),
		AudioChunksScheduled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "sparks",
			Subsystem: "session",
			Name:      "audio_chunks_scheduled_total",
			Help:      "Inbound agent audio chunks handed to the playback scheduler.",
		}),
		Interruptions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "sparks",
			Subsystem: "session",
			Name:      "interruptions_total",
			Help:      "Agent turns cut off by the user.",
		}),
		TurnsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "sparks",
			Subsystem: "session",
			Name:      "turns_completed_total",
			Help:      "Agent conversational turns finalized.",
		}),
	}
}
