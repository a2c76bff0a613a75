package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/nixlim/heal-top/internal/config"
	"github.com/nixlim/heal-top/internal/logging"
	"github.com/nixlim/heal-top/internal/skills"
	"github.com/nixlim/heal-top/internal/snapshot"
	"github.com/nixlim/heal-top/internal/stats"
	"github.com/nixlim/heal-top/internal/storage"
	"github.com/nixlim/heal-top/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "heal-top: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configFlag := flag.String("config", "", "Path to the config file (default ~/.config/heal-top/config.toml)")
	logFlag := flag.String("log", "", "Write JSON diagnostics to the specified file path")
	saveFlag := flag.Bool("save", false, "Archive the snapshot file before viewing it")
	listFlag := flag.Bool("list", false, "Print archived encounters and exit")
	openFlag := flag.String("open", "", "Open an archived encounter by id")
	historyFlag := flag.Bool("history", false, "Start in the archive history view")
	printFlag := flag.Bool("print", false, "Print every view to stdout and exit")
	debugFlag := flag.Bool("debug", false, "Show raw ids in names and list indirect healing skills separately")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: heal-top [flags] [snapshot.toml]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	var (
		loadResult *config.LoadResult
		err        error
	)
	if *configFlag != "" {
		loadResult, err = config.LoadFrom(*configFlag)
	} else {
		loadResult, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	cfg := loadResult.Config

	for _, w := range loadResult.Warnings {
		fmt.Fprintf(os.Stderr, "heal-top: config warning: %s\n", w)
	}

	if *logFlag != "" {
		cfg.Log.Path = *logFlag
	}
	if *debugFlag {
		cfg.Display.DebugMode = true
	}

	logger, logFile, err := logging.Open(cfg.Log.Path, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("failed to open log %q: %w", cfg.Log.Path, err)
	}

	log.SetOutput(io.Discard)

	// The shutdown manager owns every resource from here on. It closes each
	// once, in order, however run returns.
	shutdownMgr := tui.NewShutdownManager()
	defer func() {
		if err := shutdownMgr.Shutdown(); err != nil {
			fmt.Fprintf(os.Stderr, "heal-top: shutdown: %v\n", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	archive, archived := storage.OpenFromConfig(ctx, cfg.Storage, logger)
	if archived {
		shutdownMgr.Closers = append(shutdownMgr.Closers, archive)
	}
	shutdownMgr.Closers = append(shutdownMgr.Closers, logFile)

	if (*listFlag || *openFlag != "" || *historyFlag) && !archived {
		return errors.New("the encounter archive is disabled or unavailable")
	}

	if *listFlag {
		if err := printEncounters(ctx, os.Stdout, archive); err != nil {
			return fmt.Errorf("list encounters: %w", err)
		}
		return nil
	}

	snap, source, err := loadSnapshot(ctx, archive, *openFlag, flag.Arg(0))
	if err != nil {
		return err
	}

	if *saveFlag {
		if !archived || *openFlag != "" || flag.Arg(0) == "" {
			return errors.New("-save needs a snapshot file and an enabled archive")
		}
		info, err := archive.Save(ctx, snap)
		if err != nil {
			return fmt.Errorf("save encounter: %w", err)
		}
		fmt.Fprintf(os.Stderr, "heal-top: archived encounter %s\n", info.ID)
	}

	viewCfg, err := cfg.ViewConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	statsOpts := []stats.Option{
		stats.WithClassifier(skills.Default().WithExtra(cfg.Skills.IndirectIDs, cfg.Skills.IndirectNames)),
		stats.WithDebugMode(cfg.Display.DebugMode),
		stats.WithLogger(logger),
	}
	agg, err := stats.New(snap, viewCfg, statsOpts...)
	if err != nil {
		return err
	}

	if *printFlag {
		if err := tui.RenderReport(os.Stdout, agg, cfg); err != nil {
			return fmt.Errorf("print report: %w", err)
		}
		return nil
	}

	modelOpts := []tui.ModelOption{
		tui.WithStatsOptions(statsOpts...),
		tui.WithSource(source),
		tui.WithLogger(logger),
		tui.WithOnShutdown(func() {
			_ = shutdownMgr.Shutdown()
		}),
	}
	if archived {
		shutdownMgr.Prune = func(ctx context.Context) error {
			_, err := archive.Prune(ctx, cfg.Storage.RetentionDays, cfg.Storage.MaxEncounters)
			return err
		}
		modelOpts = append(modelOpts, tui.WithArchive(archive))
	}
	if *historyFlag {
		modelOpts = append(modelOpts, tui.WithStartView(tui.ViewHistory))
	}

	model := tui.NewModel(cfg, agg, modelOpts...)

	p := tea.NewProgram(model,
		tea.WithAltScreen(),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
			_ = shutdownMgr.Shutdown()
			p.Quit()
		case <-ctx.Done():
			return
		}
	}()

	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

// loadSnapshot picks the encounter to view: an archived one by id, a snapshot
// file, or an empty snapshot when neither is given.
func loadSnapshot(ctx context.Context, archive *storage.Archive, id, path string) (*snapshot.HealingSnapshot, string, error) {
	switch {
	case id != "":
		snap, err := archive.Load(ctx, id)
		if err != nil {
			return nil, "", fmt.Errorf("open encounter: %w", err)
		}
		return snap, id, nil
	case path != "":
		snap, err := snapshot.LoadFile(path)
		if err != nil {
			return nil, "", fmt.Errorf("load snapshot: %w", err)
		}
		return snap, path, nil
	default:
		return snapshot.New(), "", nil
	}
}

func printEncounters(ctx context.Context, w io.Writer, archive *storage.Archive) error {
	encounters, err := archive.List(ctx)
	if err != nil {
		return err
	}
	if len(encounters) == 0 {
		fmt.Fprintln(w, "No archived encounters")
		return nil
	}
	for _, e := range encounters {
		fmt.Fprintf(w, "%s  %s  %12s  %8s  %s\n",
			e.ID,
			e.SavedAt.Local().Format(time.DateTime),
			tui.FormatCount(e.TotalHealing),
			(time.Duration(e.DurationMS) * time.Millisecond).Round(100*time.Millisecond),
			humanize.Time(e.SavedAt),
		)
	}
	return nil
}
