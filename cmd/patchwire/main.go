package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/patchwire/patchwire/pkg/config"
	"github.com/patchwire/patchwire/pkg/document"
	"github.com/patchwire/patchwire/pkg/graph"
	"github.com/patchwire/patchwire/pkg/logging"
	"github.com/patchwire/patchwire/pkg/render"
	"github.com/patchwire/patchwire/pkg/scene"
	"github.com/patchwire/patchwire/pkg/watcher"
	"github.com/patchwire/patchwire/pkg/web"
)

func main() {
	flags := pflag.NewFlagSet("patchwire", pflag.ExitOnError)
	flags.String("document", "", "Patch document to load (.json, .yaml, .yml)")
	flags.Bool("web", false, "Start web server instead of rendering to stdout")
	flags.Int("port", 8080, "Port for web server (only used with --web)")
	flags.Bool("watch", false, "Reload the document when it changes on disk (only used with --web)")
	flags.String("orientation", "horizontal", "Initial canvas orientation (horizontal or vertical)")
	flags.String("verbosity", "info", "Log level (debug, info, warn, error)")
	if err := flags.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logging.SetLevel(parseLevel(cfg.Verbosity))

	store := graph.NewMemStore()
	if cfg.Document != "" {
		snap, err := document.Load(cfg.Document)
		if err != nil {
			logging.Fatal("failed to load document", "path", cfg.Document, "error", err)
		}
		if err := store.Replace(snap); err != nil {
			logging.Fatal("invalid document", "path", cfg.Document, "error", err)
		}
		logging.Info("document loaded", "path", cfg.Document,
			"nodes", len(snap.Nodes), "connections", len(snap.Connections))
	}

	sc := scene.New(store)
	if o, ok := scene.ParseOrientation(cfg.Orientation); ok {
		sc.SetOrientation(o)
	} else {
		logging.Warn("unknown orientation, using horizontal", "orientation", cfg.Orientation)
	}

	if !cfg.WebMode {
		fmt.Print(render.RenderSVG(sc))
		return
	}

	server := web.NewServer(store, sc)

	if cfg.Watch {
		if cfg.Document == "" {
			logging.Fatal("--watch requires --document")
		}
		if err := startWatcher(cfg.Document, server); err != nil {
			logging.Fatal("failed to watch document", "error", err)
		}
	}

	if err := server.Start(cfg.Port); err != nil {
		logging.Fatal("web server failed", "error", err)
	}
}

// startWatcher reloads the document into the server when it changes.
func startWatcher(path string, server *web.Server) error {
	w, err := watcher.NewDocumentWatcher(path)
	if err != nil {
		return err
	}
	ctx := context.Background()
	if err := w.Start(ctx); err != nil {
		return err
	}

	debouncer := watcher.NewDebouncer(w.Events(), 200*time.Millisecond, 2*time.Second)
	debouncer.Start(ctx)

	go func() {
		for ev := range debouncer.Output() {
			snap, err := document.Load(ev.Path)
			if err != nil {
				logging.Warn("document reload failed", "path", ev.Path, "error", err)
				continue
			}
			if err := server.Reload(snap); err != nil {
				logging.Warn("document rejected", "path", ev.Path, "error", err)
				continue
			}
			logging.Info("document reloaded", "path", ev.Path,
				"nodes", len(snap.Nodes), "connections", len(snap.Connections))
		}
	}()
	return nil
}

func parseLevel(verbosity string) slog.Level {
	switch verbosity {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
