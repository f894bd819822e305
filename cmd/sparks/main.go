// Command sparks is an interactive video-journal client: it streams
// camera and microphone to the Gemini Live agent and plays the agent's
// speech back, printing both transcripts as live subtitles.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sparks-live/sparks/internal/dotenv"
	"github.com/sparks-live/sparks/pkg/capture"
	"github.com/sparks-live/sparks/pkg/core/live"
	"github.com/sparks-live/sparks/pkg/core/media"
	"github.com/sparks-live/sparks/pkg/core/vibe"
	"github.com/sparks-live/sparks/pkg/playback"
	"github.com/sparks-live/sparks/pkg/transport/gemini"
)

type options struct {
	vibe        string
	listVibes   bool
	apiKey      string
	model       string
	voice       string
	noVideo     bool
	cameraInput string
	ffmpegPath  string
	dumpWAV     string
	metricsAddr string
	debug       bool
}

func main() {
	os.Exit(runMain())
}

func runMain() int {
	if err := dotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "load .env:", err)
	}

	var opt options
	flag.StringVar(&opt.vibe, "vibe", string(vibe.Random), "Conversation vibe (see --list-vibes)")
	flag.BoolVar(&opt.listVibes, "list-vibes", false, "List available vibes and exit")
	flag.StringVar(&opt.apiKey, "api-key", strings.TrimSpace(os.Getenv("GEMINI_API_KEY")), "Gemini API key (also reads GEMINI_API_KEY)")
	flag.StringVar(&opt.model, "model", "", "Override the live model")
	flag.StringVar(&opt.voice, "voice", "", "Override the agent voice")
	flag.BoolVar(&opt.noVideo, "no-video", false, "Disable the camera track")
	flag.StringVar(&opt.cameraInput, "camera-input", "", "Camera device (default: platform default)")
	flag.StringVar(&opt.ffmpegPath, "ffmpeg-path", "", "Path to ffmpeg for the camera grab (default: ffmpeg)")
	flag.StringVar(&opt.dumpWAV, "dump", "", "If set, write the agent's audio to this WAV file on exit")
	flag.StringVar(&opt.metricsAddr, "metrics-addr", "", "If set, serve Prometheus metrics on this address (e.g. :9090)")
	flag.BoolVar(&opt.debug, "debug", false, "Enable debug logging")
	flag.Parse()

	if opt.listVibes {
		for _, v := range vibe.All() {
			fmt.Printf("%-15s %s\n", v.ID, v.Label)
		}
		return 0
	}

	level := slog.LevelInfo
	if opt.debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if strings.TrimSpace(opt.apiKey) == "" {
		fmt.Fprintln(os.Stderr, "--api-key is required (or set GEMINI_API_KEY)")
		return 2
	}
	vibeCfg, ok := vibe.Lookup(opt.vibe)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown vibe %q (see --list-vibes)\n", opt.vibe)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	if opt.metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(opt.metricsAddr, mux); err != nil {
				logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	transport, err := gemini.New(ctx, gemini.Options{APIKey: opt.apiKey, Logger: logger})
	if err != nil {
		fmt.Fprintln(os.Stderr, "transport:", err)
		return 1
	}

	speaker, err := playback.NewSpeaker(media.PlaybackConfig())
	if err != nil {
		fmt.Fprintln(os.Stderr, "speaker:", err)
		return 1
	}
	sched := live.NewScheduler(speaker, media.PlaybackConfig(), logger)
	defer sched.Close()

	acquire := func() (live.CaptureDevice, error) {
		device, err := capture.Acquire(capture.Options{
			DisableVideo: opt.noVideo,
			CameraInput:  opt.cameraInput,
			FFmpegPath:   opt.ffmpegPath,
			Logger:       logger,
		})
		if err != nil {
			return nil, err
		}
		return device, nil
	}

	done := make(chan struct{})
	subtitles := &subtitlePrinter{}
	cb := live.Callbacks{
		OnTranscription: subtitles.print,
		OnError: func(err error) {
			fmt.Fprintln(os.Stderr, "\nsession error:", err)
		},
		OnClose: func() {
			close(done)
		},
	}

	cfg := live.Config{
		Vibe:         vibeCfg,
		Model:        opt.model,
		Voice:        opt.voice,
		DisableVideo: opt.noVideo,
		RecordOutput: opt.dumpWAV != "",
		Logger:       logger,
		Metrics:      live.NewMetrics(registry),
	}
	session := live.NewSession(transport, acquire, sched, cb, cfg)

	if err := session.Connect(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "connect:", err)
		return 1
	}
	defer session.Close()

	fmt.Printf("connected (%s vibe). speak freely; [m]ute toggle, [q]uit\n", vibeCfg.ID)

	go readCommands(session)

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "\nshutting down")
	case <-done:
	}
	session.Close()

	if opt.dumpWAV != "" {
		if wav := session.OutputWAV(); wav != nil {
			if err := os.WriteFile(opt.dumpWAV, wav, 0o644); err != nil {
				fmt.Fprintln(os.Stderr, "dump:", err)
				return 1
			}
			fmt.Println("wrote", opt.dumpWAV)
		}
	}
	return 0
}

// readCommands handles single-letter commands from stdin.
func readCommands(session *live.Session) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		switch strings.TrimSpace(strings.ToLower(scanner.Text())) {
		case "m":
			enabled := !session.MicEnabled()
			session.SetMicEnabled(enabled)
			if enabled {
				fmt.Println("[mic on]")
			} else {
				fmt.Println("[mic muted]")
			}
		case "q":
			session.Close()
			return
		}
	}
}

// subtitlePrinter renders subtitles: user speech inline, agent partials
// accumulated inline, the finalized agent turn on its own line.
type subtitlePrinter struct {
	modelLine string
}

func (p *subtitlePrinter) print(text string, isModel, isFinal bool) {
	switch {
	case !isModel:
		fmt.Printf("\ryou: %s\x1b[K", text)
	case isFinal:
		p.modelLine = ""
		if text != "" {
			fmt.Printf("\rsparks: %s\x1b[K\n", text)
		}
	default:
		p.modelLine += text
		fmt.Printf("\rsparks: %s\x1b[K", p.modelLine)
	}
}
