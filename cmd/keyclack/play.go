package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/petems/keyclack/internal/config"
	"github.com/petems/keyclack/internal/engine"
)

var (
	flagHold time.Duration
	flagGap  time.Duration
)

var playCmd = &cobra.Command{
	Use:   "play <id> <key>...",
	Short: "Play keys from a soundpack",
	Long: `Load a soundpack and press each named key (for example KeyA, Space,
MouseLeft) once, playing its down and up sounds.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().DurationVar(&flagHold, "hold", 80*time.Millisecond, "time between a key's down and up")
	playCmd.Flags().DurationVar(&flagGap, "gap", 120*time.Millisecond, "time between keys")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadSettings()
	if err != nil {
		return err
	}

	id, keys := args[0], args[1:]
	pack, err := soundpackLibrary(cfg).Load(id)
	if err != nil {
		return fmt.Errorf("loading soundpack: %w", err)
	}
	class := engine.Keyboard
	if pack.Mouse {
		class = engine.Mouse
	}

	p, err := newPlayer(cfg, log)
	if err != nil {
		return err
	}
	defer p.Close()

	if err := p.engine.LoadSoundpack(class, id); err != nil {
		return err
	}
	p.engine.SetVolume(class, classVolume(cfg, class))

	for _, key := range keys {
		p.engine.Dispatch(class, key, true)
		time.Sleep(flagHold)
		p.engine.Dispatch(class, key, false)
		time.Sleep(flagGap)
	}

	if cfg.Audio.Backend == config.BackendNone {
		return nil
	}

	// Let the last voices ring out
	deadline := time.Now().Add(2 * time.Second)
	for p.engine.ActiveVoices(class) > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	return nil
}

func classVolume(cfg *config.Config, class engine.DeviceClass) float32 {
	if class == engine.Mouse {
		return cfg.MouseVolume
	}
	return cfg.KeyboardVolume
}
