package main

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/petems/keyclack/internal/engine"
	"github.com/petems/keyclack/internal/hook"
)

var tryCmd = &cobra.Command{
	Use:   "try",
	Short: "Type in the terminal to hear the configured soundpacks",
	Long: `Open a full-screen terminal view that plays the configured soundpacks for
every key and mouse click. While the terminal has focus it is the only
producer; when focus moves elsewhere the global hook takes over where the
platform supports one. Press Ctrl+C to quit.`,
	Args: cobra.NoArgs,
	RunE: runTry,
}

func init() {
	rootCmd.AddCommand(tryCmd)
}

func runTry(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadSettings()
	if err != nil {
		return err
	}

	p, err := newPlayer(cfg, log)
	if err != nil {
		return err
	}
	defer p.Close()

	eng := p.engine
	eng.SetVolume(engine.Keyboard, cfg.KeyboardVolume)
	eng.SetVolume(engine.Mouse, cfg.MouseVolume)
	eng.SetRandomize(cfg.RandomPerKeystroke)

	var status []string
	for _, sel := range []struct {
		class engine.DeviceClass
		id    string
	}{
		{engine.Keyboard, cfg.KeyboardSoundpack},
		{engine.Mouse, cfg.MouseSoundpack},
	} {
		switch {
		case sel.id == "":
			status = append(status, fmt.Sprintf("%s: no soundpack configured", sel.class))
		default:
			if err := eng.LoadSoundpack(sel.class, sel.id); err != nil {
				status = append(status, err.Error())
			} else {
				status = append(status, fmt.Sprintf("%s: %s", sel.class, sel.id))
			}
		}
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing screen: %w", err)
	}
	defer screen.Fini()
	screen.EnableMouse()
	screen.EnableFocus()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var last string
	dispatch := func(name string, isDown bool) {
		eng.Dispatch(engine.ClassOf(name), name, isDown)
	}

	gate := &hook.Gate{}
	gate.SetFocused(true)
	term := hook.NewTerminal(gate, hook.DefaultReleaseAfter, dispatch)
	defer term.Stop()

	if src, err := hook.NewGlobal(); err == nil {
		defer src.Close()
		go hook.Pump(ctx, src, gate, dispatch)
	} else {
		status = append(status, "global hook: "+err.Error())
	}

	for {
		drawTry(screen, status, last, gate.Focused(), eng)

		ev := screen.PollEvent()
		if ev == nil {
			return nil
		}
		switch ev := ev.(type) {
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyCtrlC {
				return nil
			}
			if name := hook.KeyName(ev); name != "" {
				last = name
			}
		case *tcell.EventResize:
			screen.Sync()
		}
		term.Handle(ev)
	}
}

func drawTry(screen tcell.Screen, status []string, last string, focused bool, eng *engine.Engine) {
	screen.Clear()
	bold := tcell.StyleDefault.Bold(true)
	dim := tcell.StyleDefault.Foreground(tcell.ColorGray)

	drawText(screen, 1, 1, bold, "keyclack: type or click here, Ctrl+C to quit")
	y := 3
	for _, line := range status {
		drawText(screen, 1, y, dim, line)
		y++
	}

	focus := "focused (terminal events)"
	if !focused {
		focus = "unfocused (global hook events)"
	}
	y++
	drawText(screen, 1, y, tcell.StyleDefault, "input:  "+focus)
	drawText(screen, 1, y+1, tcell.StyleDefault, "last:   "+last)
	drawText(screen, 1, y+2, tcell.StyleDefault, fmt.Sprintf("voices: keyboard %d, mouse %d",
		eng.ActiveVoices(engine.Keyboard), eng.ActiveVoices(engine.Mouse)))
	screen.Show()
}

func drawText(screen tcell.Screen, x, y int, style tcell.Style, text string) {
	for i, r := range []rune(text) {
		screen.SetContent(x+i, y, r, nil, style)
	}
}
