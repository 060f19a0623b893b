package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/valerio/go-cecore/cecore"
	"github.com/valerio/go-cecore/cecore/autotester"
	"github.com/valerio/go-cecore/cecore/backend"
	"github.com/valerio/go-cecore/cecore/backend/headless"
	"github.com/valerio/go-cecore/cecore/backend/terminal"
	"github.com/valerio/go-cecore/cecore/debug"
	"github.com/valerio/go-cecore/cecore/input"
	"github.com/valerio/go-cecore/cecore/input/action"
	"github.com/valerio/go-cecore/cecore/timing"
)

var loadFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "rom",
		Usage: "Path to the ROM file",
	},
	cli.StringFlag{
		Name:  "image",
		Usage: "Path to a saved image, used instead of the ROM when it loads",
	},
	cli.StringFlag{
		Name:  "log-level",
		Usage: "Log level: debug, info, warn or error",
		Value: "info",
	},
}

var runFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "save-image",
		Usage: "Write an image of the device state here on exit",
	},
	cli.StringFlag{
		Name:  "save-rom",
		Usage: "Write the flash contents here on exit",
	},
	cli.BoolFlag{
		Name:  "headless",
		Usage: "Run without the terminal debugger, also selected when stdout is not a terminal",
	},
	cli.IntFlag{
		Name:  "frames",
		Usage: "Number of frames to run in headless mode (0 = until stopped)",
	},
	cli.IntFlag{
		Name:  "trace",
		Usage: "Log the core state every N frames in headless mode (0 = disabled)",
	},
	cli.BoolFlag{
		Name:  "unthrottled",
		Usage: "Run as fast as possible instead of at real time",
	},
	cli.StringFlag{
		Name:  "driver",
		Usage: "Loop form: self (the core drives the loop) or host (one frame per call)",
		Value: "self",
	},
	cli.StringSliceFlag{
		Name:  "break",
		Usage: "Set an execution breakpoint at a hex address, may be repeated",
	},
}

func main() {
	app := cli.NewApp()
	app.Name = "cecore"
	app.Description = "TI-84 Plus CE execution core with a stepping debugger"
	app.Usage = "cecore [options] <ROM file>"
	app.Version = "1.0.0"
	app.Flags = append(append([]cli.Flag{}, loadFlags...), runFlags...)
	app.Action = runEmulator
	app.Commands = []cli.Command{
		{
			Name:      "test",
			Usage:     "Run a Lua test script against the ROM",
			ArgsUsage: "<script.lua>",
			Flags:     loadFlags,
			Action:    runTest,
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		slog.Error("Error running emulator", "error", err)
		os.Exit(1)
	}
}

func setupLogging(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
	return nil
}

func parseAddress(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")
	v, err := strconv.ParseUint(s, 16, 24)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return uint32(v), nil
}

func romPath(c *cli.Context) string {
	if path := c.String("rom"); path != "" {
		return path
	}
	return c.Args().First()
}

func load(c *cli.Context, emu *cecore.Emu) error {
	rom, image := romPath(c), c.String("image")
	if rom == "" && image == "" {
		cli.ShowAppHelp(c)
		return errors.New("no ROM or image path provided")
	}
	return emu.Load(rom, image)
}

func newHost(c *cli.Context) backend.Host {
	if c.Bool("headless") || !term.IsTerminal(int(os.Stdout.Fd())) {
		return headless.New(c.Int("frames"), headless.TraceConfig{
			Interval:   c.Int("trace"),
			QuitOnStop: true,
		})
	}
	return terminal.New()
}

func newLimiter(c *cli.Context) timing.Limiter {
	if c.Bool("unthrottled") {
		return timing.NewNoOpLimiter()
	}
	return timing.NewAdaptiveLimiter()
}

// saveOnExit writes the requested files while device state is still alive.
func saveOnExit(imagePath, romPath string) func(*cecore.Emu) {
	return func(e *cecore.Emu) {
		if imagePath != "" {
			if err := e.SaveImageFile(imagePath); err != nil {
				slog.Error("Failed to save image", "path", imagePath, "error", err)
			} else {
				slog.Info("Saved image", "path", imagePath)
			}
		}
		if romPath != "" {
			if err := e.SaveROMFile(romPath); err != nil {
				slog.Error("Failed to save ROM", "path", romPath, "error", err)
			} else {
				slog.Info("Saved ROM", "path", romPath)
			}
		}
	}
}

func runEmulator(c *cli.Context) error {
	if err := setupLogging(c.String("log-level")); err != nil {
		return err
	}

	driver := c.String("driver")
	if driver != "self" && driver != "host" {
		return fmt.Errorf("unknown driver %q, expected self or host", driver)
	}

	host := newHost(c)
	emu := cecore.New(cecore.Config{
		Limiter: newLimiter(c),
		Host:    host,
		OnExit:  saveOnExit(c.String("save-image"), c.String("save-rom")),
	})
	if err := load(c, emu); err != nil {
		return err
	}

	for _, s := range c.StringSlice("break") {
		addr, err := parseAddress(s)
		if err != nil {
			return err
		}
		emu.Debugger().Breakpoints.Set(addr, debug.Exec)
		slog.Info("Breakpoint set", "address", debug.Hex24(addr))
	}

	manager := input.NewManager()
	for _, act := range []action.Action{
		action.DebugStepIn,
		action.DebugStepOver,
		action.DebugStepNext,
		action.DebugStepOut,
		action.EmulatorPauseToggle,
		action.EmulatorReset,
		action.EmulatorQuit,
	} {
		manager.On(act, func() { emu.HandleAction(act) })
	}

	title := filepath.Base(romPath(c))
	if image := c.String("image"); image != "" {
		title = filepath.Base(image)
	}
	err := host.Init(backend.HostConfig{
		Title:         title,
		Callbacks:     backend.HostCallbacks{OnQuit: emu.Exit},
		InputManager:  manager,
		StateProvider: emu,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := host.Cleanup(); err != nil {
			slog.Error("Failed to clean up host", "error", err)
		}
	}()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return drive(gctx, emu, driver)
	})
	g.Go(func() error {
		<-gctx.Done()
		emu.Exit()
		return nil
	})
	return g.Wait()
}

// drive runs the loop in the selected form until it exits.
func drive(ctx context.Context, emu *cecore.Emu, driver string) error {
	slog.Info("Starting loop", "driver", driver, "device", emu.Device())
	if driver == "self" {
		return emu.Run(ctx, false)
	}

	if err := emu.Start(false); err != nil {
		return err
	}
	for emu.RunFrame(ctx) {
	}
	return emu.Err()
}

func runTest(c *cli.Context) error {
	if err := setupLogging(c.String("log-level")); err != nil {
		return err
	}

	script := c.Args().First()
	if script == "" {
		cli.ShowCommandHelp(c, "test")
		return errors.New("no test script provided")
	}
	// The script is the only positional argument here.
	if c.String("rom") == "" && c.String("image") == "" {
		return errors.New("test requires --rom or --image")
	}

	emu := cecore.New(cecore.Config{})
	if err := emu.Load(c.String("rom"), c.String("image")); err != nil {
		return err
	}

	runner, err := autotester.New(emu)
	if err != nil {
		return err
	}
	defer runner.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runner.RunFile(ctx, script); err != nil {
		return fmt.Errorf("test script failed: %w", err)
	}

	res := runner.Results()
	fmt.Printf("%d tested, %d passed, %d failed\n", res.Tested, res.Passed, res.Failed)
	if res.Failed > 0 {
		return cli.NewExitError(fmt.Sprintf("%d hash checks failed", res.Failed), 1)
	}
	return nil
}
