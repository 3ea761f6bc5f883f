package tray

import (
	"errors"
	"testing"

	"github.com/petems/keyclack/internal/engine"
	"github.com/petems/keyclack/internal/soundpack"
)

func TestEmojiForStatus(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{"idle", "🟢"},
		{"muted", "🔇"},
		{"error", "⚪️"},
		{"unknown", "🟢"},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			if got := emojiForStatus(tt.status); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestPacksForClass(t *testing.T) {
	metas := []soundpack.Meta{
		{ID: "cherry", Name: "Cherry"},
		{ID: "logi", Name: "Logitech", Mouse: true},
		{ID: "broken", Name: "broken", Err: errors.New("bad json")},
		{ID: "topre", Name: "Topre"},
	}

	keyboard := packsForClass(metas, engine.Keyboard)
	if len(keyboard) != 2 || keyboard[0].ID != "cherry" || keyboard[1].ID != "topre" {
		t.Errorf("unexpected keyboard packs: %+v", keyboard)
	}

	mouse := packsForClass(metas, engine.Mouse)
	if len(mouse) != 3 || mouse[0].ID != "logi" || mouse[1].ID != "cherry" {
		t.Errorf("unexpected mouse packs: %+v", mouse)
	}
}

func TestVolumeLabels(t *testing.T) {
	tests := []struct {
		in      float32
		label   string
		nearest float32
	}{
		{0, "0%", 0},
		{0.5, "50%", 0.5},
		{0.3, "30%", 0.25},
		{0.9, "90%", 1},
		{1, "100%", 1},
	}

	for _, tt := range tests {
		if got := volumeLabel(tt.in); got != tt.label {
			t.Errorf("volumeLabel(%v): expected %s, got %s", tt.in, tt.label, got)
		}
		if got := nearestStep(tt.in); got != tt.nearest {
			t.Errorf("nearestStep(%v): expected %v, got %v", tt.in, tt.nearest, got)
		}
	}
}

func TestSoundpackLabel(t *testing.T) {
	if got := soundpackLabel(soundpack.Meta{Name: "Cherry MX Blue", Version: "2.1"}); got != "Cherry MX Blue (2.1)" {
		t.Errorf("unexpected label %q", got)
	}
	if got := soundpackLabel(soundpack.Meta{Name: "Topre"}); got != "Topre" {
		t.Errorf("unexpected label %q", got)
	}
}
