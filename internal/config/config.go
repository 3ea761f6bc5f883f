package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Output backends understood by the audio package
const (
	BackendSpeaker   = "speaker"
	BackendPortAudio = "portaudio"
	BackendNone      = "none"
)

// DefaultMaxVoices is the per-class polyphony limit
const DefaultMaxVoices = 5

type Config struct {
	KeyboardSoundpack   string      `json:"keyboard_soundpack"`
	MouseSoundpack      string      `json:"mouse_soundpack"`
	KeyboardVolume      float32     `json:"keyboard_volume"`
	MouseVolume         float32     `json:"mouse_volume"`
	EnableSound         bool        `json:"enable_sound"`
	EnableKeyboardSound bool        `json:"enable_keyboard_sound"`
	EnableMouseSound    bool        `json:"enable_mouse_sound"`
	RandomPerKeystroke  bool        `json:"random_per_keystroke"`
	MaxVoices           int         `json:"max_voices"`
	Audio               AudioConfig `json:"audio"`
	SoundpacksDir       string      `json:"soundpacks_dir"`
	LogLevel            string      `json:"log_level"`

	path string
}

type AudioConfig struct {
	Backend    string `json:"backend"`     // "speaker", "portaudio" or "none"
	DeviceID   string `json:"device_id"`   // portaudio device name, empty for default
	SampleRate int    `json:"sample_rate"` // device rate, soundpacks are resampled
	BufferMs   int    `json:"buffer_ms"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	return &Config{
		KeyboardSoundpack:   "",
		MouseSoundpack:      "",
		KeyboardVolume:      1.0,
		MouseVolume:         1.0,
		EnableSound:         true,
		EnableKeyboardSound: true,
		EnableMouseSound:    true,
		RandomPerKeystroke:  false,
		MaxVoices:           DefaultMaxVoices,
		Audio: AudioConfig{
			Backend:    BackendSpeaker,
			DeviceID:   "",
			SampleRate: 48000,
			BufferMs:   30,
		},
		SoundpacksDir: filepath.Join(DataPath(), "soundpacks"),
		LogLevel:      "info",
	}
}

// Load reads the config from disk or returns defaults
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads the config at path, overlaying it on the defaults
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	cfg.path = path

	// Load existing config if it exists
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate clamps numeric settings into range and rejects unknown backends
func (c *Config) Validate() error {
	c.KeyboardVolume = clampVolume(c.KeyboardVolume)
	c.MouseVolume = clampVolume(c.MouseVolume)
	if c.MaxVoices < 1 {
		c.MaxVoices = 1
	}
	if c.Audio.SampleRate <= 0 {
		c.Audio.SampleRate = 48000
	}
	if c.Audio.BufferMs <= 0 {
		c.Audio.BufferMs = 30
	}

	switch c.Audio.Backend {
	case BackendSpeaker, BackendPortAudio, BackendNone:
	case "":
		c.Audio.Backend = BackendSpeaker
	default:
		return fmt.Errorf("unknown audio backend %q", c.Audio.Backend)
	}
	return nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path := c.path
	if path == "" {
		path = Path()
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func clampVolume(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Path returns the config file path. KEYCLACK_CONFIG overrides the
// platform-specific location.
func Path() string {
	if p := os.Getenv("KEYCLACK_CONFIG"); p != "" {
		return p
	}

	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("APPDATA")
	default: // linux
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.config"
		}
	}

	return filepath.Join(base, "keyclack", "config.json")
}

// DataPath returns the platform-specific data directory path
func DataPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("LOCALAPPDATA")
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.local/share"
		}
	}

	return filepath.Join(base, "keyclack")
}
