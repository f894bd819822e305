package live

import "context"

// ConnectParams carries everything a transport needs to open one live
// session with the agent.
type ConnectParams struct {
	Model             string
	SystemInstruction string
	Voice             string
}

// MediaChunk is one outbound media unit, already encoded for the wire.
type MediaChunk struct {
	MIMEType string
	Data     []byte
}

// ServerEvent is one inbound event from the agent. Fields are
// independent; a single event may carry several of them.
type ServerEvent struct {
	// Audio is synthesized speech as s16le PCM at the playback rate.
	Audio []byte

	// OutputTranscription is a delta of the agent's spoken text.
	OutputTranscription string

	// InputTranscription is a delta of the user's speech-to-text.
	InputTranscription string

	// TurnComplete marks the end of the agent's conversational turn.
	TurnComplete bool

	// Interrupted means the agent was cut off; queued playback is stale.
	Interrupted bool
}

// Conn is one open live session on a transport. Receive blocks until
// the next event; it returns an error once the connection is closed,
// locally or remotely.
type Conn interface {
	SendMedia(chunk MediaChunk) error
	Receive() (*ServerEvent, error)
	Close() error
}

// Transport opens live sessions against the remote agent.
type Transport interface {
	Connect(ctx context.Context, params ConnectParams) (Conn, error)
}
