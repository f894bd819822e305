package live

// Callbacks is the event surface the session caller consumes. Every
// field is optional. Callbacks are invoked synchronously from the
// session's receive goroutine in event order; they must return quickly.
type Callbacks struct {
	// OnAudioData receives each decoded inbound audio buffer, for
	// visualization. Playback is handled by the session itself.
	OnAudioData func(samples []float32)

	// OnTranscription receives transcript updates. isModel
	// distinguishes agent speech from user speech-to-text. For model
	// text, partial calls carry the delta and the final call carries
	// the full accumulated turn. User text is never final.
	OnTranscription func(text string, isModel, isFinal bool)

	// OnError receives fatal session errors.
	OnError func(err error)

	// OnClose fires exactly once when the session reaches a terminal
	// state, whether by Close or by failure.
	OnClose func()
}

func (c Callbacks) audioData(samples []float32) {
	if c.OnAudioData != nil {
		c.OnAudioData(samples)
	}
}

func (c Callbacks) transcription(text string, isModel, isFinal bool) {
	if c.OnTranscription != nil {
		c.OnTranscription(text, isModel, isFinal)
	}
}

func (c Callbacks) errorf(err error) {
	if c.OnError != nil {
		c.OnError(err)
	}
}

func (c Callbacks) closed() {
	if c.OnClose != nil {
		c.OnClose()
	}
}
