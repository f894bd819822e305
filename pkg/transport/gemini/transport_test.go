package gemini

import (
	"testing"

	"google.golang.org/genai"
)

func TestTranslate(t *testing.T) {
	t.Run("empty message", func(t *testing.T) {
		ev := translate(&genai.LiveServerMessage{})
		if ev.TurnComplete || ev.Interrupted || len(ev.Audio) != 0 {
			t.Fatalf("expected zero event, got %+v", ev)
		}
	})

	t.Run("audio parts are concatenated", func(t *testing.T) {
		ev := translate(&genai.LiveServerMessage{
			ServerContent: &genai.LiveServerContent{
				ModelTurn: &genai.Content{
					Parts: []*genai.Part{
						{InlineData: &genai.Blob{MIMEType: "audio/pcm", Data: []byte{1, 2}}},
						{Text: "ignored"},
						{InlineData: &genai.Blob{MIMEType: "audio/pcm", Data: []byte{3, 4}}},
					},
				},
			},
		})
		if got, want := string(ev.Audio), string([]byte{1, 2, 3, 4}); got != want {
			t.Fatalf("audio = %v, want %v", ev.Audio, []byte{1, 2, 3, 4})
		}
	})

	t.Run("transcriptions and turn flags", func(t *testing.T) {
		ev := translate(&genai.LiveServerMessage{
			ServerContent: &genai.LiveServerContent{
				TurnComplete:        true,
				Interrupted:         true,
				OutputTranscription: &genai.Transcription{Text: "model says"},
				InputTranscription:  &genai.Transcription{Text: "user says"},
			},
		})
		if !ev.TurnComplete || !ev.Interrupted {
			t.Fatalf("expected both flags set, got %+v", ev)
		}
		if ev.OutputTranscription != "model says" || ev.InputTranscription != "user says" {
			t.Fatalf("unexpected transcriptions: %+v", ev)
		}
	})
}
