package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/joho/godotenv"

	"github.com/lixenwraith/parallax/config"
	"github.com/lixenwraith/parallax/engine"
	"github.com/lixenwraith/parallax/monitor"
	"github.com/lixenwraith/parallax/render"
)

const logFileName = "parallax.log"

var (
	configPath   = flag.String("config", "", "YAML config file, defaults apply when empty")
	frames       = flag.Int64("frames", 0, "Stop after this many frames, zero runs until interrupted")
	terminalFlag = flag.Bool("terminal", false, "Present frames in the terminal")
	debugAddr    = flag.String("debug-addr", "", "Serve /metrics, /stats and /frame.png on this address")
	snapshotPath = flag.String("snapshot", "", "Write the last frame as PNG on exit")
)

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Ignoring .env: %v\n", err)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config: %v\n", err)
		os.Exit(1)
	}
	if *debugAddr != "" {
		cfg.Monitor.Addr = *debugAddr
	}

	// The terminal owns stdout, so logs go to a file while it is active
	logOut, closeLog := setupLogging(*terminalFlag)
	defer closeLog()
	logger := log.New(logOut, cfg.Log.Prefix, log.LstdFlags|log.Lmicroseconds)

	if err := run(cfg, logger); err != nil {
		logger.Printf("exit: %v", err)
		fmt.Fprintf(os.Stderr, "parallax: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	cfg.ApplyEnv()
	return cfg, cfg.Validate()
}

func setupLogging(toFile bool) (io.Writer, func()) {
	if !toFile {
		return os.Stderr, func() {}
	}
	f, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return io.Discard, func() {}
	}
	return f, func() { f.Close() }
}

func run(cfg config.Config, logger *log.Logger) error {
	e, err := engine.New(cfg, engine.SystemTime{}, logger)
	if err != nil {
		return err
	}
	defer e.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *terminalFlag {
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("terminal: %w", err)
		}
		if err := screen.Init(); err != nil {
			return fmt.Errorf("terminal: %w", err)
		}
		defer func() {
			if r := recover(); r != nil {
				screen.Fini()
				fmt.Fprintf(os.Stderr, "\r\nPARALLAX CRASHED: %v\r\nStack Trace:\r\n%s\r\n", r, debug.Stack())
				os.Exit(1)
			}
			screen.Fini()
		}()

		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		defer cancel()

		var mode atomic.Int32
		mode.Store(int32(render.ViewAnaglyph))
		go pollInput(screen, &mode, cancel)

		view := render.NewTerminalView(screen, render.ViewAnaglyph)
		e.AddPresenter(func(fb *render.FrameBuffer) {
			view.SetMode(render.ViewMode(mode.Load()))
			view.Draw(fb)
		})
	}

	if cfg.Monitor.Addr != "" {
		router := monitor.NewRouter(e, monitor.DefaultOptions())
		go func() {
			if err := monitor.Serve(ctx, cfg.Monitor.Addr, router); err != nil {
				logger.Printf("monitor: %v", err)
			}
		}()
		logger.Printf("monitor listening on %s", cfg.Monitor.Addr)
	}

	e.States().PushState(newDemoState())

	start := time.Now()
	if err := e.Run(ctx, *frames); err != nil {
		return err
	}
	logger.Printf("stopped after %d frames in %s", e.Frame(), time.Since(start).Round(time.Millisecond))

	if *snapshotPath != "" {
		var err error
		e.WithFrameBuffer(func(fb *render.FrameBuffer) {
			err = render.SavePNG(*snapshotPath, fb)
		})
		if err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
	}
	return nil
}

// pollInput maps keys to view modes; q, Esc and Ctrl-C quit
func pollInput(screen tcell.Screen, mode *atomic.Int32, quit context.CancelFunc) {
	for {
		ev := screen.PollEvent()
		if ev == nil {
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventKey:
			switch {
			case ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q':
				quit()
				return
			case ev.Rune() == '1':
				mode.Store(int32(render.ViewLeft))
			case ev.Rune() == '2':
				mode.Store(int32(render.ViewRight))
			case ev.Rune() == '3':
				mode.Store(int32(render.ViewAnaglyph))
			}
		case *tcell.EventResize:
			screen.Sync()
		}
	}
}
