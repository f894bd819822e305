// Package gemini binds the live session transport to the Gemini Live
// API via google.golang.org/genai.
package gemini

import (
	"context"
	"log/slog"
	"sync"

	"google.golang.org/genai"

	"github.com/sparks-live/sparks/pkg/core"
	"github.com/sparks-live/sparks/pkg/core/live"
)

// Transport opens live sessions against the Gemini API.
type Transport struct {
	client *genai.Client
	logger *slog.Logger
}

// Options configures the transport.
type Options struct {
	// APIKey authenticates against the Gemini API.
	APIKey string

	Logger *slog.Logger
}

// New creates a Transport authenticated with opts.APIKey.
func New(ctx context.Context, opts Options) (*Transport, error) {
	if opts.APIKey == "" {
		return nil, core.NewConnectionError("missing API key", nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, core.NewConnectionError("genai client init failed", err)
	}
	return &Transport{client: client, logger: logger}, nil
}

// Connect opens one live session with audio responses, the composed
// system instruction and transcription of both directions enabled.
func (t *Transport) Connect(ctx context.Context, params live.ConnectParams) (live.Conn, error) {
	config := &genai.LiveConnectConfig{
		ResponseModalities: []genai.Modality{genai.ModalityAudio},
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: params.SystemInstruction}},
		},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{
					VoiceName: params.Voice,
				},
			},
		},
		InputAudioTranscription:  &genai.AudioTranscriptionConfig{},
		OutputAudioTranscription: &genai.AudioTranscriptionConfig{},
	}

	session, err := t.client.Live.Connect(ctx, params.Model, config)
	if err != nil {
		return nil, core.NewConnectionError("live connect failed", err)
	}
	t.logger.Debug("live session connected", "model", params.Model)
	return &conn{session: session, logger: t.logger}, nil
}

// conn adapts one *genai.Session to the live.Conn capability.
type conn struct {
	session *genai.Session
	logger  *slog.Logger

	// The genai session serializes receives itself; sends need a lock
	// because audio blocks and video frames come from different
	// goroutines.
	sendMu    sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func (c *conn) SendMedia(chunk live.MediaChunk) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	err := c.session.SendRealtimeInput(genai.LiveRealtimeInput{
		Media: &genai.Blob{
			MIMEType: chunk.MIMEType,
			Data:     chunk.Data,
		},
	})
	if err != nil {
		return core.NewConnectionError("send failed", err)
	}
	return nil
}

func (c *conn) Receive() (*live.ServerEvent, error) {
	message, err := c.session.Receive()
	if err != nil {
		return nil, err
	}
	return translate(message), nil
}

// translate flattens one server message into the session event shape.
func translate(message *genai.LiveServerMessage) *live.ServerEvent {
	ev := &live.ServerEvent{}
	content := message.ServerContent
	if content == nil {
		return ev
	}

	ev.TurnComplete = content.TurnComplete
	ev.Interrupted = content.Interrupted
	if content.OutputTranscription != nil {
		ev.OutputTranscription = content.OutputTranscription.Text
	}
	if content.InputTranscription != nil {
		ev.InputTranscription = content.InputTranscription.Text
	}
	if content.ModelTurn != nil {
		for _, part := range content.ModelTurn.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				ev.Audio = append(ev.Audio, part.InlineData.Data...)
			}
		}
	}
	return ev
}

func (c *conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.session.Close()
	})
	return c.closeErr
}
