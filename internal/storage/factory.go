package storage

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/nixlim/heal-top/internal/config"
)

// OpenFromConfig opens the configured archive and applies retention. An
// empty db_path disables the archive. An archive that cannot be opened is
// logged and treated as disabled so the viewer still works on files.
func OpenFromConfig(ctx context.Context, cfg config.StorageConfig, log *slog.Logger) (*Archive, bool) {
	if cfg.DBPath == "" {
		return nil, false
	}

	dbPath := expandTilde(cfg.DBPath)

	archive, err := Open(dbPath, WithLogger(log))
	if err != nil {
		log.Warn("encounter archive unavailable", "path", dbPath, "error", err)
		return nil, false
	}

	removed, err := archive.Prune(ctx, cfg.RetentionDays, cfg.MaxEncounters)
	if err != nil {
		log.Error("pruning archive", "error", err)
	} else {
		archive.Compact(ctx, removed)
	}

	return archive, true
}

func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
