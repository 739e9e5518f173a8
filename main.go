package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"

	"github.com/soar/retrocouch/internal/config"
	"github.com/soar/retrocouch/internal/controller"
	"github.com/soar/retrocouch/internal/device"
	"github.com/soar/retrocouch/internal/game"
	"github.com/soar/retrocouch/internal/game/inputtester"
	"github.com/soar/retrocouch/internal/gamepad/native"
	"github.com/soar/retrocouch/internal/hub"
	"github.com/soar/retrocouch/internal/loop"
	"github.com/soar/retrocouch/internal/remap"
	"github.com/soar/retrocouch/internal/remote"
	"github.com/soar/retrocouch/internal/server"
	"github.com/soar/retrocouch/internal/store"
	"github.com/soar/retrocouch/internal/tray"
)

// Cross-platform signal handling: use os.Interrupt on all platforms
// On Windows: os.Interrupt is sent when Ctrl+C is pressed
// On Unix: os.Interrupt is equivalent to syscall.SIGINT
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	var logger golog.Logger
	if cfg.Debug {
		logger = golog.NewDevelopmentLogger("retrocouch")
	} else {
		logger = golog.NewLogger("retrocouch")
	}

	if err := run(cfg, logger); err != nil {
		logger.Errorw("RetroCouch stopped with errors", "error", err)
		os.Exit(1)
	}
}

func catalog() *game.Registry {
	return game.NewRegistry(
		inputtester.Entry(),
		game.Entry{
			ID:          "neon-runner",
			Title:       "Neon Runner",
			Description: "Blazing fast synthwave arcade action.",
			Tags:        []string{"Action", "Retro"},
			Status:      "Coming Soon",
			Color:       "#1a1c23",
			Icon:        "🔒",
		},
	)
}

func run(cfg *config.Config, logger golog.Logger) error {
	// Create cancellable context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, shutdownSignals...)

	st, err := store.OpenFile(cfg.Store, logger.Named("store"))
	if err != nil {
		return err
	}
	logger.Infof("Settings stored in %s", st.Path())

	var (
		frames *loop.Loop
		host   *game.Host
	)

	// Browser input: keyboard always, gamepads when configured
	input := remote.NewSource(logger.Named("input"), func(width, height int) {
		err := frames.Do(ctx, func() error {
			return host.Resize(width, height)
		})
		if err != nil {
			logger.Debugf("Viewport %dx%d ignored: %v", width, height, err)
		}
	})

	// stays nil unless the SDL reader runs
	var readerDone chan error
	var gamepads device.GamepadSource
	switch cfg.Input.Gamepads {
	case config.GamepadsSDL:
		reader := native.NewReader(logger.Named("gamepad"))
		gamepads = reader
		readerDone = make(chan error, 1)
		// reader.Run locks its OS thread; the context ends it
		go func() {
			readerDone <- reader.Run(ctx)
		}()
	case config.GamepadsWeb:
		gamepads = input
	default:
		gamepads = device.NoGamepads{}
	}

	system := controller.New(logger.Named("controller"), st, input, gamepads)
	system.Initialize()

	host = game.NewHost(logger.Named("game"), catalog(), system, cfg.Canvas.Width, cfg.Canvas.Height)
	frames = loop.New(logger.Named("loop"), clock.New(), cfg.TickRate, system, remap.NewCapturer(), host)

	loopDone := make(chan struct{})
	go func() {
		frames.Run(ctx)
		close(loopDone)
	}()

	// Create and start hub
	h := hub.NewHub(logger.Named("hub"))
	go h.Run(ctx)

	broadcaster := hub.NewBroadcaster(h, nil, frames.States())
	go broadcaster.Run(ctx)

	srv := server.New(server.Options{
		Logger:      logger.Named("http"),
		Addr:        cfg.Listen,
		Loop:        frames,
		System:      system,
		Host:        host,
		Hub:         h,
		Broadcaster: broadcaster,
		Input:       input,
		Frontend:    getFrontendFS(),
	})
	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	logger.Infof("RetroCouch started: %s", cfg.URL())

	// Channel for tray-triggered shutdown
	shutdownRequested := make(chan struct{})

	var t *tray.Tray
	if cfg.Tray {
		icon, err := tray.Icon(runtime.GOOS == "windows")
		if err != nil {
			logger.Warnf("Tray icon unavailable: %v", err)
		}
		t = tray.New(logger.Named("tray"), cfg.URL(), func() {
			close(shutdownRequested)
		})
		go t.Run(icon)
	} else {
		logger.Info("Press Ctrl+C to exit")
	}

	var runErr error
	select {
	case <-sigCh:
		logger.Info("Shutting down...")
	case <-shutdownRequested:
		logger.Info("Shutdown requested from tray")
	case err := <-serverErrCh:
		runErr = errors.Wrap(err, "HTTP server")
	case err := <-readerDone:
		readerDone = nil
		if err != nil {
			runErr = errors.Wrap(err, "gamepad reader")
		}
	}
	cancel()

	// Shutdown the HTTP server gracefully
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	runErr = multierr.Combine(runErr, srv.Shutdown(shutdownCtx))

	<-loopDone
	if readerDone != nil {
		if err := <-readerDone; err != nil {
			runErr = multierr.Append(runErr, errors.Wrap(err, "gamepad reader"))
		}
	}
	if t != nil {
		t.Quit()
	}

	// last word on the settings, in case a write failed earlier
	runErr = multierr.Append(runErr, system.Persist())

	logger.Info("RetroCouch stopped")
	return runErr
}
