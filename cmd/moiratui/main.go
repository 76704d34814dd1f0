// moiratui is a terminal console for browsing Moira triggers.
//
// The trigger list is addressed by a location such as
//
//	/?tags[0]=cpu&onlyProblems=true&page=2
//
// which can be passed with --location to open a specific view. With --once
// the location is reconciled, the resulting page is printed and the
// program exits.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/pflag"

	"moiratui/internal/config"
	"moiratui/internal/history"
	"moiratui/internal/listsync"
	"moiratui/internal/moira"
	"moiratui/internal/prefs"
	"moiratui/internal/storage"
	"moiratui/internal/triggerview"
	"moiratui/internal/ui"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	var (
		configPath string
		location   string
		apiURL     string
		logFile    string
		once       bool
		reset      bool
		dump       bool
	)
	flagSet := pflag.NewFlagSet("moiratui", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", config.ResolveConfigPath(), "path to config file")
	flagSet.StringVar(&location, "location", "/", "initial trigger list location, e.g. /?tags[0]=cpu")
	flagSet.StringVar(&apiURL, "api-url", "", "Moira API base URL (overrides config)")
	flagSet.StringVar(&logFile, "log-file", "", "write log records to this file")
	flagSet.BoolVar(&once, "once", false, "print the reconciled trigger page and exit")
	flagSet.BoolVar(&reset, "reset-filters", false, "forget the stored tag and problems-only filters before starting")
	flagSet.BoolVar(&dump, "dump-storage", false, "print the local key/value store and exit")
	showVersion := flagSet.Bool("version", false, "print version and exit")

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if *showVersion {
		fmt.Fprintf(stdout, "moiratui %s\n", version)
		return nil
	}

	cfg, err := config.LoadOrCreate(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	logger, closeLog, err := newLogger(logFile, cfg.Level())
	if err != nil {
		return err
	}
	defer closeLog()

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer store.Close()

	if dump {
		return dumpStorage(stdout, store)
	}
	if reset {
		if err := store.Delete(prefs.Key); err != nil {
			return err
		}
		logger.Info("stored filters reset")
	}

	client, err := moira.NewClient(moira.ClientConfig{
		BaseURL:  cfg.APIURL,
		PageSize: cfg.PageSize,
		Timeout:  cfg.Timeout(),
		User:     cfg.Auth.User,
		Password: cfg.Auth.Password,
		Headers:  cfg.Headers,
	})
	if err != nil {
		return err
	}

	hist := history.New(history.Parse(location))
	ctrl := listsync.New(client, prefs.NewStore(store, logger), hist, logger)
	logger.Info("starting", "location", hist.Location().String(), "api", cfg.APIURL)

	if once {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
		defer cancel()
		ctrl.Drive(ctx, ctrl.Navigated(hist.Location()))
		return printPage(stdout, hist.Location(), ctrl.View())
	}
	return ui.Run(ctrl, triggerview.New(client, logger), hist, cfg)
}

func dumpStorage(w io.Writer, store *storage.Store) error {
	entries, err := store.Entries()
	if err != nil {
		return fmt.Errorf("reading storage: %w", err)
	}
	for _, e := range entries {
		updated := "-"
		if !e.UpdatedAt.IsZero() {
			updated = e.UpdatedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.Key, updated, e.Value)
	}
	return nil
}

// newLogger writes text records to path, or discards them when path is empty.
func newLogger(path string, level slog.Level) (*slog.Logger, func(), error) {
	if path == "" {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	return logger, func() { f.Close() }, nil
}

func printPage(w io.Writer, loc history.Location, view listsync.ViewState) error {
	fmt.Fprintf(w, "location: %s\n", loc)
	fmt.Fprintf(w, "page %d of %d, %d triggers\n", view.Filters.Page, view.PageCount, view.Total)
	for _, t := range view.Triggers {
		state := t.State()
		if state == "" {
			state = "-"
		}
		fmt.Fprintf(w, "%-9s %s\t%s\n", state, t.ID, t.Name)
	}
	if view.Err != nil {
		return view.Err
	}
	return nil
}
