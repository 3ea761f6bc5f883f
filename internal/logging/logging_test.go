package logging

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{" warn ", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"trace", zerolog.TraceLevel},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLogPathUsesXDGStateHome(t *testing.T) {
	if filepath.Separator != '/' {
		t.Skip("XDG layout only applies to unix paths")
	}
	dir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", dir)

	got := LogPath()
	if got != filepath.Join(dir, "keyclack", "keyclack.log") && filepath.Base(got) != "keyclack.log" {
		t.Errorf("unexpected log path %s", got)
	}
}
