package tray

import (
	"context"
	"fmt"
	"sort"

	"github.com/getlantern/systray"
	"github.com/rs/zerolog"

	"github.com/petems/keyclack/internal/app"
	"github.com/petems/keyclack/internal/engine"
	"github.com/petems/keyclack/internal/logging"
	"github.com/petems/keyclack/internal/soundpack"
)

// volumeSteps are the levels offered in the volume submenus
var volumeSteps = []float32{0, 0.25, 0.5, 0.75, 1}

type UI struct {
	app     *app.App
	version string
	commit  string
	log     zerolog.Logger

	// Menu items
	mSound    *systray.MenuItem
	mKeyboard *systray.MenuItem
	mMouse    *systray.MenuItem
	mRandom   *systray.MenuItem
}

// Status update methods for the app to call
func (u *UI) SetIdle() {
	u.updateStatus("idle")
}

func (u *UI) SetMuted() {
	u.updateStatus("muted")
}

func (u *UI) SetError() {
	u.updateStatus("error")
}

func New(application *app.App, version, commit string, log zerolog.Logger) *UI {
	return &UI{
		app:     application,
		version: version,
		commit:  commit,
		log:     log,
	}
}

// SetApp sets the app reference (for circular dependency resolution)
func (u *UI) SetApp(application *app.App) {
	u.app = application
}

// Run blocks in the systray event loop until Quit. onReady runs once the
// tray is up, onExit after it is torn down.
func (u *UI) Run(ctx context.Context, onReady, onExit func()) error {
	systray.Run(func() {
		u.onReady()
		if onReady != nil {
			onReady()
		}
	}, func() {
		if onExit != nil {
			onExit()
		}
	})
	return nil
}

func (u *UI) onReady() {
	settings := u.app.Settings()

	u.updateStatus("idle")
	systray.SetTooltip("Mechanical keyboard sounds")

	u.mSound = systray.AddMenuItemCheckbox("Sound Enabled", "Play sounds for keys and buttons", settings.EnableSound)
	systray.AddSeparator()

	u.mKeyboard = systray.AddMenuItemCheckbox("Keyboard Sounds", "Play sounds for key presses", settings.EnableKeyboardSound)
	mKeyboardPack := systray.AddMenuItem("Keyboard Soundpack", "Select keyboard soundpack")
	mKeyboardVolume := systray.AddMenuItem("Keyboard Volume", "Set keyboard volume")
	systray.AddSeparator()

	u.mMouse = systray.AddMenuItemCheckbox("Mouse Sounds", "Play sounds for mouse buttons", settings.EnableMouseSound)
	mMousePack := systray.AddMenuItem("Mouse Soundpack", "Select mouse soundpack")
	mMouseVolume := systray.AddMenuItem("Mouse Volume", "Set mouse volume")
	systray.AddSeparator()

	u.mRandom = systray.AddMenuItemCheckbox("Random Per Keystroke", "Play a random key sound for every press", settings.RandomPerKeystroke)

	metas, err := u.app.ListSoundpacks()
	if err != nil {
		u.log.Error().Err(err).Msg("Failed to list soundpacks")
	}
	u.buildSoundpackMenu(mKeyboardPack, engine.Keyboard, metas, settings.KeyboardSoundpack)
	u.buildSoundpackMenu(mMousePack, engine.Mouse, metas, settings.MouseSoundpack)
	u.buildVolumeMenu(mKeyboardVolume, engine.Keyboard, settings.KeyboardVolume)
	u.buildVolumeMenu(mMouseVolume, engine.Mouse, settings.MouseVolume)

	systray.AddSeparator()
	mLogs := systray.AddMenuItem("Open Logs", "View application logs")
	mAbout := systray.AddMenuItem("About", "About keyclack")
	mQuit := systray.AddMenuItem("Quit", "Exit application")

	// Event loop
	go u.handleEvents(mLogs, mAbout, mQuit)
}

func (u *UI) handleEvents(mLogs, mAbout, mQuit *systray.MenuItem) {
	for {
		select {
		case <-u.mSound.ClickedCh:
			u.toggle(u.mSound, "sound", u.app.SetSoundEnabled)
		case <-u.mKeyboard.ClickedCh:
			u.toggle(u.mKeyboard, "keyboard sounds", func(on bool) error {
				return u.app.SetClassEnabled(engine.Keyboard, on)
			})
		case <-u.mMouse.ClickedCh:
			u.toggle(u.mMouse, "mouse sounds", func(on bool) error {
				return u.app.SetClassEnabled(engine.Mouse, on)
			})
		case <-u.mRandom.ClickedCh:
			u.toggle(u.mRandom, "random per keystroke", u.app.SetRandomize)
		case <-mLogs.ClickedCh:
			u.openLogs()
		case <-mAbout.ClickedCh:
			u.showAbout()
		case <-mQuit.ClickedCh:
			systray.Quit()
			return
		}
	}
}

// toggle flips a checkbox item and applies the new state
func (u *UI) toggle(item *systray.MenuItem, what string, apply func(bool) error) {
	on := !item.Checked()
	if err := apply(on); err != nil {
		u.log.Error().Err(err).Str("setting", what).Msg("Failed to save setting")
	}
	if on {
		item.Check()
		u.log.Info().Msgf("Enabled %s", what)
	} else {
		item.Uncheck()
		u.log.Info().Msgf("Disabled %s", what)
	}
}

func (u *UI) buildSoundpackMenu(parent *systray.MenuItem, class engine.DeviceClass, metas []soundpack.Meta, selected string) {
	packItems := make(map[string]*systray.MenuItem)

	for _, meta := range packsForClass(metas, class) {
		item := parent.AddSubMenuItem(soundpackLabel(meta), meta.Author)
		if meta.ID == selected {
			item.Check()
		}
		packItems[meta.ID] = item

		go func(id string, menuItem *systray.MenuItem) {
			for {
				<-menuItem.ClickedCh
				if err := u.app.SelectSoundpack(class, id); err != nil {
					continue
				}
				// Uncheck all other items
				for other, itm := range packItems {
					if other != id {
						itm.Uncheck()
					}
				}
				menuItem.Check()
			}
		}(meta.ID, item)
	}
}

func (u *UI) buildVolumeMenu(parent *systray.MenuItem, class engine.DeviceClass, current float32) {
	volumeItems := make(map[float32]*systray.MenuItem)

	for _, step := range volumeSteps {
		item := parent.AddSubMenuItem(volumeLabel(step), "")
		if nearestStep(current) == step {
			item.Check()
		}
		volumeItems[step] = item

		go func(v float32, menuItem *systray.MenuItem) {
			for {
				<-menuItem.ClickedCh
				// Uncheck all other items
				for other, itm := range volumeItems {
					if other != v {
						itm.Uncheck()
					}
				}
				menuItem.Check()
				if err := u.app.SetVolume(class, v); err != nil {
					u.log.Error().Err(err).Msg("Failed to save volume")
				}
				u.log.Info().Stringer("class", class).Float32("volume", v).Msg("Changed volume")
			}
		}(step, item)
	}
}

func (u *UI) openLogs() {
	u.log.Info().Str("path", logging.LogPath()).Msg("Log file")
}

func (u *UI) showAbout() {
	fmt.Printf("keyclack %s (%s)\nMechanical keyboard sounds\n", u.version, u.commit)
}

// updateStatus sets the tray title with keyboard emoji and status indicator
func (u *UI) updateStatus(status string) {
	emoji := emojiForStatus(status)
	systray.SetTitle(fmt.Sprintf("⌨️ %s", emoji))
}

// emojiForStatus returns the appropriate status emoji
func emojiForStatus(status string) string {
	switch status {
	case "muted":
		return "🔇" // Muted - master sound switch off
	case "idle":
		return "🟢" // Green - playing
	case "error":
		return "⚪️" // White - a soundpack failed to load
	default:
		return "🟢" // Green - default to ready
	}
}

// packsForClass lists the soundpacks selectable for a class. Keyboard packs
// can drive the mouse, mouse packs cannot drive the keyboard. Broken packs
// are left out.
func packsForClass(metas []soundpack.Meta, class engine.DeviceClass) []soundpack.Meta {
	var out []soundpack.Meta
	for _, m := range metas {
		if m.Err != nil {
			continue
		}
		if m.Mouse && class == engine.Keyboard {
			continue
		}
		out = append(out, m)
	}
	if class == engine.Mouse {
		// dedicated mouse packs first
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Mouse && !out[j].Mouse
		})
	}
	return out
}

func soundpackLabel(m soundpack.Meta) string {
	if m.Version != "" {
		return fmt.Sprintf("%s (%s)", m.Name, m.Version)
	}
	return m.Name
}

func volumeLabel(v float32) string {
	return fmt.Sprintf("%d%%", int(v*100+0.5))
}

// nearestStep snaps a saved volume onto the closest menu step
func nearestStep(v float32) float32 {
	best := volumeSteps[0]
	for _, s := range volumeSteps[1:] {
		if abs(v-s) < abs(v-best) {
			best = s
		}
	}
	return best
}

func abs(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
