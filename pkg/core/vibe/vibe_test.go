package vibe

import (
	"strings"
	"testing"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		key   string
		want  Vibe
		found bool
	}{
		{"daily_journal", DailyJournal, true},
		{"Daily_Journal", DailyJournal, true},
		{"  deep  ", Deep, true},
		{"storytime", Storytime, true},
		{"", "", false},
		{"brooding", "", false},
	}

	for _, tt := range tests {
		cfg, ok := Lookup(tt.key)
		if ok != tt.found {
			t.Errorf("Lookup(%q) found = %v, want %v", tt.key, ok, tt.found)
			continue
		}
		if ok && cfg.ID != tt.want {
			t.Errorf("Lookup(%q) = %s, want %s", tt.key, cfg.ID, tt.want)
		}
	}
}

func TestAllHasSevenPersonas(t *testing.T) {
	all := All()
	if len(all) != 7 {
		t.Fatalf("All() returned %d personas, want 7", len(all))
	}
	for _, cfg := range all {
		if cfg.Label == "" || cfg.SystemInstruction == "" {
			t.Errorf("persona %s is missing label or instruction", cfg.ID)
		}
	}
}

func TestComposeInstruction(t *testing.T) {
	cfg := MustLookup(Funny)
	got := cfg.ComposeInstruction()

	if !strings.Contains(got, `You are "Sparks"`) {
		t.Error("composed instruction missing base framing")
	}
	if !strings.Contains(got, cfg.SystemInstruction) {
		t.Error("composed instruction missing persona fragment")
	}
	if !strings.HasSuffix(got, "wants to reply.") {
		t.Error("composed instruction missing closing directive")
	}

	// Base must come before the persona fragment.
	if strings.Index(got, "Sparks") > strings.Index(got, "comedian") {
		t.Error("base framing should precede persona fragment")
	}
}

func TestMustLookupPanicsOnUnknown(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustLookup should panic on unknown vibe")
		}
	}()
	MustLookup(Vibe("nope"))
}
