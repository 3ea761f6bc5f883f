// Package soundpack reads soundpack directories: a config.json with a
// per-key timing table and a single audio source decoded into memory.
package soundpack

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	ErrNoConfig          = errors.New("soundpack config not found")
	ErrMalformedConfig   = errors.New("malformed soundpack config")
	ErrNoSource          = errors.New("soundpack declares no audio source")
	ErrSourceMissing     = errors.New("soundpack audio source not found")
	ErrSourceTooLarge    = errors.New("soundpack audio source too large")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrDecode            = errors.New("audio decode failed")
)

// ToleranceMs is how far an interval may run past the end of the decoded
// audio before it counts as an overrun.
const ToleranceMs = 1.0

// Interval is a [start, end] window into the source audio, in milliseconds.
type Interval struct {
	StartMs float32
	EndMs   float32
}

// DurationMs returns EndMs - StartMs
func (iv Interval) DurationMs() float32 {
	return iv.EndMs - iv.StartMs
}

func (iv *Interval) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("interval needs [start, end], got %d values", len(pair))
	}
	iv.StartMs = float32(pair[0])
	iv.EndMs = float32(pair[1])
	return nil
}

func (iv Interval) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float32{iv.StartMs, iv.EndMs})
}

// Pack is a parsed config.json
type Pack struct {
	ID            string                `json:"id"`
	Name          string                `json:"name"`
	Author        string                `json:"author,omitempty"`
	Description   string                `json:"description,omitempty"`
	Version       string                `json:"version,omitempty"`
	Tags          []string              `json:"tags,omitempty"`
	Icon          string                `json:"icon,omitempty"`
	Mouse         bool                  `json:"mouse"`
	ConfigVersion int                   `json:"config_version"`
	Source        string                `json:"source,omitempty"`
	AudioFile     string                `json:"audio_file,omitempty"`
	Defs          map[string][]Interval `json:"defs"`

	dir string
}

// Parse decodes a config.json document. Missing config_version defaults to 2.
func Parse(data []byte) (*Pack, error) {
	p := &Pack{ConfigVersion: 2}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedConfig, err)
	}
	if p.Defs == nil {
		return nil, fmt.Errorf("%w: missing defs", ErrMalformedConfig)
	}
	return p, nil
}

// Dir is the directory the pack was loaded from
func (p *Pack) Dir() string {
	return p.dir
}

// SourceName returns the declared audio file, preferring source over audio_file
func (p *Pack) SourceName() string {
	if p.Source != "" {
		return p.Source
	}
	return p.AudioFile
}

// SourcePath resolves the audio file relative to the pack directory
func (p *Pack) SourcePath() (string, error) {
	src := strings.TrimSpace(p.SourceName())
	if src == "" {
		return "", ErrNoSource
	}
	rel := filepath.Clean(filepath.FromSlash(strings.TrimPrefix(filepath.ToSlash(src), "./")))
	if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: source %q escapes soundpack directory", ErrMalformedConfig, src)
	}
	return filepath.Join(p.dir, rel), nil
}
