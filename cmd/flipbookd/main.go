package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"flipbook/internal/book"
	"flipbook/internal/ipc"
)

const version = "0.4.0"

func printVersion() {
	fmt.Printf("flipbookd v%s\n", version)
	fmt.Println("Page-turn physics and gesture engine for flipbook renderers")
}

func printUsage() {
	printVersion()
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  flipbookd [OPTIONS]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Owns the authoritative book state. Render clients connect over a")
	fmt.Println("  websocket, receive state and animation steps, and report page landings")
	fmt.Println("  and step completions back. Control tools talk to the unix socket.")
	fmt.Println()
	fmt.Println("OPTIONS:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Start with a config file")
	fmt.Println("  flipbookd -config ~/.config/flipbook/flipbookd.yaml")
	fmt.Println()
	fmt.Println("  # Open on the drawings section, driving steps from the daemon clock")
	fmt.Println("  flipbookd -fragment '#drawings' -step-clock timer")
	fmt.Println()
	fmt.Println("  # Read arrow keys and wheel from an evdev device")
	fmt.Println("  flipbookd -input-device /dev/input/event3")
	fmt.Println()
}

func main() {
	var (
		configPath    = flag.String("config", "", "Path to a YAML or TOML config file")
		totalPages    = flag.Int("pages", defaultTotalPages, "Total number of pages in the book")
		viewMode      = flag.String("view-mode", string(book.ViewGrid), "Initial view mode: grid|carousel")
		reducedMotion = flag.Bool("reduced-motion", false, "Start with reduced motion enabled")
		stepClock     = flag.String("step-clock", string(book.StepClockRender), "What advances animation steps: render|timer")
		tickHz        = flag.Int("tick-hz", defaultTickHz, "Animation clock frequency in Hz")
		listen        = flag.String("listen", defaultListenAddr, "HTTP/websocket listen address")
		ipcSocketPath = flag.String("ipc-socket", defaultIPCSocket, "Unix domain socket path for IPC")
		inputDevice   = flag.String("input-device", "", "Linux input event device (keyboard, wheel or touch panel)")
		fragment      = flag.String("fragment", "", "Initial URL fragment: #page-N, #N or #section-name")
		logLevelStr   = flag.String("log-level", "info", "Log level: error, warn, info, debug")
		showVersion   = flag.Bool("version", false, "Print version and exit")
		showHelp      = flag.Bool("help", false, "Print help message")
	)
	flag.Usage = printUsage
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}
	if *showVersion {
		printVersion()
		return
	}

	cfg := DefaultConfig()
	if *configPath != "" {
		loaded, err := LoadConfigFile(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	// Only flags given on the command line override the file.
	var ov FlagOverrides
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "pages":
			ov.TotalPages = totalPages
		case "view-mode":
			ov.ViewMode = viewMode
		case "reduced-motion":
			ov.ReducedMotion = reducedMotion
		case "step-clock":
			ov.StepClock = stepClock
		case "tick-hz":
			ov.TickHz = tickHz
		case "listen":
			ov.Listen = listen
		case "ipc-socket":
			ov.IPCSocketPath = ipcSocketPath
		case "input-device":
			ov.InputDevice = inputDevice
		case "fragment":
			ov.Fragment = fragment
		case "log-level":
			ov.LogLevel = logLevelStr
		}
	})
	ov.Apply(&cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	logLevel, err := parseLogLevel(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	logger := setupLogger(os.Stdout, logLevel)

	if err := run(cfg, logger); err != nil {
		logger.Error("flipbookd exited with error", "error", err)
		os.Exit(1)
	}
}

// run starts every component and blocks until a signal arrives or one of
// them fails.
func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engineCfg := cfg.ToEngineConfig()
	state := book.NewEngineState(engineCfg)

	events := make(chan book.Event, 64)
	broadcasts := make(chan book.Broadcast, cfg.Sequencer.BroadcastQueueSize)

	// Startup events are queued before the loop starts so they are reduced
	// before any client input.
	events <- book.SetViewMode{Mode: book.ViewMode(cfg.Book.ViewMode)}
	events <- book.SetReducedMotion{Enabled: cfg.Book.ReducedMotion}
	if page, ok, err := resolveFragment(cfg.DeepLink.Fragment, engineCfg.Sections); err != nil {
		logger.Warn("ignoring deep link", "error", err)
	} else if ok {
		logger.Info("deep link resolved", "fragment", cfg.DeepLink.Fragment, "page", page)
		events <- book.DeepLink{TargetPage: page}
	}

	logger.Debug("configuration",
		"total_pages", engineCfg.TotalPages,
		"sections", len(engineCfg.Sections),
		"view_mode", cfg.Book.ViewMode,
		"reduced_motion", cfg.Book.ReducedMotion,
		"step_clock", engineCfg.Sequencer.StepClock,
		"tick_hz", cfg.Sequencer.TickHz,
		"listen", cfg.Server.Listen,
		"ipc_socket", cfg.IPC.SocketPath,
		"input_devices", cfg.Input.Devices,
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		runDaemon(gctx, events, state, engineCfg, broadcasts, cfg.Sequencer.TickHz, logger.With("component", "daemon"))
		return nil
	})

	wsLogger := logger.With("component", "ws")
	ws := NewStateServer(gctx, wsLogger, events, HubConfig{})
	g.Go(func() error {
		ws.Hub().Run(gctx)
		return nil
	})
	g.Go(func() error {
		window := time.Duration(cfg.Sequencer.StateCoalesceMS) * time.Millisecond
		RunBroadcaster(gctx, ws.Hub(), broadcasts, window, wsLogger)
		return nil
	})

	g.Go(func() error {
		return runHTTPServer(gctx, cfg.Server.Listen, newMux(ws, cfg.Server.WSPath, events), logger.With("component", "http"))
	})

	g.Go(func() error {
		return ipc.Serve(gctx, ExpandPath(cfg.IPC.SocketPath), newIPCHandler(events), logger.With("component", "ipc"))
	})

	if len(cfg.Input.Devices) > 0 {
		g.Go(func() error {
			return runInputReader(gctx, cfg.Input.Devices, cfg.Input.TouchScale, events, logger.With("component", "input"))
		})
	}

	logger.Info("flipbookd started", "version", version)
	return g.Wait()
}
