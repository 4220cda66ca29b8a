// Command stackdemo exercises the plane pile, blitters and both output drivers
// in an interactive terminal scene.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/lixenwraith/stackterm/config"
	"github.com/lixenwraith/stackterm/event"
	"github.com/lixenwraith/stackterm/screen"
	"github.com/lixenwraith/stackterm/terminal"
)

// frameInterval paces redraws when no input arrives
const frameInterval = 50 * time.Millisecond

func main() {
	// Panic Recovery: Ensure terminal is reset even if the demo crashes
	defer func() {
		if r := recover(); r != nil {
			terminal.EmergencyReset(os.Stdout)
			fmt.Fprintf(os.Stderr, "\n\x1b[31mSTACKDEMO CRASHED: %v\x1b[0m\n", r)
			fmt.Fprintf(os.Stderr, "Stack Trace:\n%s\n", debug.Stack())
			os.Exit(1)
		}
	}()

	cfg, mouse, err := parseArgs(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "stackdemo: %v\n", err)
		os.Exit(2)
	}

	logFile := setupLogging(cfg.Debug)
	err = run(cfg, mouse)
	if logFile != nil {
		logFile.Close()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "stackdemo: %v\n", err)
		os.Exit(1)
	}
}

// parseArgs loads the optional config file and lets explicit flags override it
func parseArgs(args []string) (*config.Config, bool, error) {
	fs := flag.NewFlagSet("stackdemo", flag.ContinueOnError)
	colorFlag := fs.String("color", config.ColorAuto, "Color mode: auto, truecolor, 256")
	configFlag := fs.String("config", "", "Path to a TOML config file")
	debugFlag := fs.Bool("debug", false, "Write logs to logs/stackdemo.log")
	blitterFlag := fs.String("blitter", "default", "Backdrop blitter: default, space, half, quadrant, sextant, braille, four, eight")
	driverFlag := fs.String("driver", config.DriverTerminal, "Output driver: terminal, tcell")
	mouseFlag := fs.Bool("mouse", false, "Enable mouse reporting at start")
	if err := fs.Parse(args); err != nil {
		return nil, false, err
	}

	cfg := config.Default()
	if *configFlag != "" {
		loaded, err := config.Load(*configFlag)
		if err != nil {
			return nil, false, err
		}
		cfg = loaded
	}

	// Only flags given on the command line override the file
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "color":
			cfg.Color = *colorFlag
		case "debug":
			cfg.Debug = *debugFlag
		case "blitter":
			cfg.Mode = *blitterFlag
		case "driver":
			cfg.Driver = *driverFlag
		}
	})
	cfg.Color = strings.ToLower(cfg.Color)
	cfg.Driver = strings.ToLower(cfg.Driver)

	if err := cfg.Validate(); err != nil {
		return nil, false, err
	}
	return cfg, *mouseFlag, nil
}

// run owns the driver session and the frame loop
func run(cfg *config.Config, mouse bool) error {
	drv, err := newDriver(cfg)
	if err != nil {
		return err
	}
	if err := drv.Init(); err != nil {
		return err
	}
	defer drv.Fini()

	req, err := cfg.Blitter()
	if err != nil {
		return err
	}
	caps := drv.Capabilities()
	log.Printf("Driver %s capabilities %+v", cfg.Driver, caps)

	rows, cols := drv.Size()
	sc, err := newScene(rows, cols, caps, req, cfg.BlitterOptions())
	if err != nil {
		return err
	}
	if mouse {
		sc.mouse = true
		if err := drv.SetMouse(true); err != nil {
			return err
		}
	}

	queue := event.NewQueue()
	errCh := make(chan error, 1)
	wake := make(chan struct{}, 1)
	done := make(chan struct{})
	defer close(done)

	// Dedicated input goroutine
	go func() {
		defer func() {
			if r := recover(); r != nil {
				terminal.EmergencyReset(os.Stdout)
				fmt.Fprintf(os.Stderr, "\r\n\x1b[31mINPUT CRASHED: %v\x1b[0m\r\n", r)
				fmt.Fprintf(os.Stderr, "Stack Trace:\r\n%s\r\n", debug.Stack())
				os.Exit(1)
			}
		}()
		for {
			raw, err := drv.Poll()
			if err != nil {
				errCh <- err
				return
			}
			queue.PushRaw(raw)
			select {
			case wake <- struct{}{}:
			default:
			}
		}
	}()

	// Clock updates touch the pile concurrently with the loop
	go func() {
		t := time.NewTicker(time.Second)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case now := <-t.C:
				sc.tick(now)
			}
		}
	}()

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case err := <-errCh:
			if errors.Is(err, io.EOF) || errors.Is(err, terminal.ErrClosed) || errors.Is(err, screen.ErrClosed) {
				return nil
			}
			return err
		case <-wake:
		case <-ticker.C:
		}

		for _, ev := range queue.Consume() {
			if ev.IsKey(event.KeyResize) {
				drv.Resized()
				rows, cols := drv.Size()
				if err := sc.resize(rows, cols); err != nil {
					return err
				}
				log.Printf("Resized to %dx%d", rows, cols)
				continue
			}
			act, err := sc.handle(ev)
			if err != nil {
				log.Printf("Event %s: %v", ev, err)
			}
			switch act {
			case actQuit:
				return nil
			case actMouse:
				if err := drv.SetMouse(sc.mouse); err != nil {
					return err
				}
			}
		}

		frame, err := sc.render()
		if err != nil {
			return err
		}
		stats, err := drv.Present(frame)
		if err != nil {
			return err
		}
		sc.presented(stats)
	}
}
