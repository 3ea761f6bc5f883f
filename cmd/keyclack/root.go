package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/petems/keyclack/internal/app"
	"github.com/petems/keyclack/internal/audio"
	"github.com/petems/keyclack/internal/config"
	"github.com/petems/keyclack/internal/engine"
	"github.com/petems/keyclack/internal/hook"
	"github.com/petems/keyclack/internal/logging"
	"github.com/petems/keyclack/internal/permissions"
	"github.com/petems/keyclack/internal/soundpack"
	"github.com/petems/keyclack/internal/tray"
)

var (
	flagConfig   string
	flagLogLevel string
	flagBackend  string
)

var rootCmd = &cobra.Command{
	Use:   "keyclack",
	Short: "Mechanical keyboard sounds for every key you press",
	Long: `keyclack plays a click sliced out of a soundpack for every key and mouse
button you press. Without a subcommand it runs in the system tray.`,
	Version:      Version,
	SilenceUsage: true,
	RunE:         runTray,
	Args:         cobra.NoArgs,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default is the platform config dir)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "audio backend: speaker, portaudio, none")
}

// loadSettings reads the config and applies command-line overrides
func loadSettings() (*config.Config, zerolog.Logger, error) {
	var (
		cfg *config.Config
		err error
	)
	if flagConfig != "" {
		cfg, err = config.LoadFrom(flagConfig)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, logging.New(), fmt.Errorf("failed to load config: %w", err)
	}

	if flagBackend != "" {
		cfg.Audio.Backend = flagBackend
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, logging.New(), err
	}

	return cfg, logging.NewWithLevel(cfg.LogLevel), nil
}

func soundpackLibrary(cfg *config.Config) *soundpack.Library {
	return soundpack.NewLibrary(cfg.SoundpacksDir)
}

// player bundles an output and an engine built from config
type player struct {
	out    audio.Output
	engine *engine.Engine
	packs  *soundpack.Library
}

func newPlayer(cfg *config.Config, log zerolog.Logger) (*player, error) {
	out, err := audio.New(cfg.Audio, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio: %w", err)
	}
	packs := soundpackLibrary(cfg)
	eng := engine.New(engine.Config{
		Output:    out,
		Packs:     packs,
		MaxVoices: cfg.MaxVoices,
		Logger:    log,
	})
	return &player{out: out, engine: eng, packs: packs}, nil
}

func (p *player) Close() {
	p.engine.Close()
	p.out.Close()
}

// openGlobalHook opens the background input source and only then asks for
// the OS permission it needs, so platforms without a hook never prompt.
// It returns nil when no source is available.
func openGlobalHook(log zerolog.Logger, open func() (hook.Source, error), ensure func() error) hook.Source {
	src, err := open()
	if err != nil {
		log.Warn().Err(err).Msg("Global input hook unavailable, tray controls only")
		return nil
	}
	// macOS requires accessibility approval before key events from other apps are visible
	if err := ensure(); err != nil {
		log.Warn().Err(err).Msg("Global key sounds unavailable until permission is granted")
	}
	return src
}

func runTray(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadSettings()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load config")
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p, err := newPlayer(cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize audio")
		return err
	}

	// Create tray UI first (we'll pass it to app)
	trayUI := tray.New(nil, Version, Commit, log) // App reference set below

	// Create app with tray as status updater
	application := app.New(app.Config{
		Player:        p.engine,
		Packs:         p.packs,
		Config:        cfg,
		Logger:        log,
		StatusUpdater: trayUI,
	})

	// Set app reference in tray
	trayUI.SetApp(application)

	shutdown := func() {
		log.Info().Msg("Shutting down...")
		if err := application.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Shutdown error")
		}
		p.out.Close()
	}

	onReady := func() {
		if err := application.Start(); err != nil {
			log.Warn().Err(err).Msg("Started with soundpack errors")
		}

		src := openGlobalHook(log, hook.NewGlobal, permissions.EnsurePermissions)
		if src == nil {
			return
		}
		go func() {
			<-ctx.Done()
			src.Close()
		}()
		go hook.Pump(ctx, src, nil, application.OnInput)
	}

	log.Info().Str("version", Version).Msg("keyclack starting...")

	// Setup shutdown signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		cancel()
		shutdown()
		os.Exit(0)
	}()

	// Start tray UI - MUST run on main thread
	return trayUI.Run(ctx, onReady, func() {
		cancel()
		shutdown()
	})
}
