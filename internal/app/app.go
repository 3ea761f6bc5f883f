package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/petems/keyclack/internal/config"
	"github.com/petems/keyclack/internal/engine"
	"github.com/petems/keyclack/internal/soundpack"
)

// StatusUpdater is an interface for updating status (e.g., tray icon)
type StatusUpdater interface {
	SetIdle()
	SetMuted()
	SetError()
}

// Player is the part of the playback engine the app drives
type Player interface {
	Dispatch(class engine.DeviceClass, key string, isDown bool)
	SetVolume(class engine.DeviceClass, v float32)
	LoadSoundpack(class engine.DeviceClass, id string) error
	SetEnabled(class engine.DeviceClass, on bool)
	SetMuted(muted bool)
	SetRandomize(on bool)
	Close()
}

type Config struct {
	Player        Player
	Packs         *soundpack.Library
	Config        *config.Config
	Logger        zerolog.Logger
	StatusUpdater StatusUpdater // Optional - can be nil
}

type App struct {
	player Player
	packs  *soundpack.Library
	cfg    *config.Config
	log    zerolog.Logger
	status StatusUpdater

	mu         sync.Mutex
	loadFailed bool
	closed     bool
}

func New(cfg Config) *App {
	return &App{
		player: cfg.Player,
		packs:  cfg.Packs,
		cfg:    cfg.Config,
		log:    cfg.Logger,
		status: cfg.StatusUpdater,
	}
}

// Start pushes the saved settings into the player and loads the configured
// soundpacks. A soundpack that fails to load leaves its class silent; the
// errors are returned joined but the app stays usable.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.player.SetVolume(engine.Keyboard, a.cfg.KeyboardVolume)
	a.player.SetVolume(engine.Mouse, a.cfg.MouseVolume)
	a.player.SetEnabled(engine.Keyboard, a.cfg.EnableKeyboardSound)
	a.player.SetEnabled(engine.Mouse, a.cfg.EnableMouseSound)
	a.player.SetMuted(!a.cfg.EnableSound)
	a.player.SetRandomize(a.cfg.RandomPerKeystroke)

	var errs []error
	for _, sel := range []struct {
		class engine.DeviceClass
		id    string
	}{
		{engine.Keyboard, a.cfg.KeyboardSoundpack},
		{engine.Mouse, a.cfg.MouseSoundpack},
	} {
		if sel.id == "" {
			continue
		}
		if err := a.player.LoadSoundpack(sel.class, sel.id); err != nil {
			a.log.Error().Err(err).Stringer("class", sel.class).Str("soundpack", sel.id).Msg("Failed to load soundpack")
			errs = append(errs, err)
		}
	}

	a.loadFailed = len(errs) > 0
	a.updateStatusLocked()
	return errors.Join(errs...)
}

// OnInput receives a key or button edge from any producer
func (a *App) OnInput(name string, isDown bool) {
	a.player.Dispatch(engine.ClassOf(name), name, isDown)
}

func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	a.closed = true
	a.player.Close()
	return nil
}

// Tray actions

// SetVolume applies and persists a class volume
func (a *App) SetVolume(class engine.DeviceClass, v float32) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.player.SetVolume(class, v)
	switch class {
	case engine.Mouse:
		a.cfg.MouseVolume = v
	default:
		a.cfg.KeyboardVolume = v
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	return a.cfg.Save()
}

// SelectSoundpack loads id for class and persists the choice only if the
// load succeeded
func (a *App) SelectSoundpack(class engine.DeviceClass, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.player.LoadSoundpack(class, id); err != nil {
		a.log.Error().Err(err).Stringer("class", class).Str("soundpack", id).Msg("Failed to switch soundpack")
		return err
	}

	switch class {
	case engine.Mouse:
		a.cfg.MouseSoundpack = id
	default:
		a.cfg.KeyboardSoundpack = id
	}
	a.loadFailed = false
	a.updateStatusLocked()

	a.log.Info().Stringer("class", class).Str("soundpack", id).Msg("Changed soundpack")
	return a.cfg.Save()
}

// SetSoundEnabled is the master mute switch
func (a *App) SetSoundEnabled(on bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.player.SetMuted(!on)
	a.cfg.EnableSound = on
	a.updateStatusLocked()
	return a.cfg.Save()
}

// SetClassEnabled turns keyboard or mouse sounds on or off
func (a *App) SetClassEnabled(class engine.DeviceClass, on bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.player.SetEnabled(class, on)
	switch class {
	case engine.Mouse:
		a.cfg.EnableMouseSound = on
	default:
		a.cfg.EnableKeyboardSound = on
	}
	return a.cfg.Save()
}

func (a *App) SetRandomize(on bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.player.SetRandomize(on)
	a.cfg.RandomPerKeystroke = on
	return a.cfg.Save()
}

// Settings returns a copy of the current configuration
func (a *App) Settings() config.Config {
	a.mu.Lock()
	defer a.mu.Unlock()
	return *a.cfg
}

// ListSoundpacks scans the soundpack directory
func (a *App) ListSoundpacks() ([]soundpack.Meta, error) {
	if a.packs == nil {
		return nil, fmt.Errorf("no soundpack directory configured")
	}
	return a.packs.Scan()
}

func (a *App) updateStatusLocked() {
	if a.status == nil {
		return
	}
	switch {
	case a.loadFailed:
		a.status.SetError()
	case !a.cfg.EnableSound:
		a.status.SetMuted()
	default:
		a.status.SetIdle()
	}
}
