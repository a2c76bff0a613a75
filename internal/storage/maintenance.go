package storage

import (
	"context"
	"fmt"
	"time"
)

// Prune deletes encounters saved more than retentionDays ago, then keeps only
// the newest maxEncounters. A non-positive limit disables that rule. It
// returns the number of encounters removed.
func (a *Archive) Prune(ctx context.Context, retentionDays, maxEncounters int) (int, error) {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var removed int64

	if retentionDays > 0 {
		cutoff := a.now().AddDate(0, 0, -retentionDays).UnixMilli()
		res, err := tx.ExecContext(ctx, "DELETE FROM encounters WHERE saved_at < ?", cutoff)
		if err != nil {
			return 0, fmt.Errorf("pruning old encounters: %w", err)
		}
		n, _ := res.RowsAffected()
		removed += n
	}

	if maxEncounters > 0 {
		res, err := tx.ExecContext(ctx, `
			DELETE FROM encounters WHERE encounter_id NOT IN (
				SELECT encounter_id FROM encounters ORDER BY saved_at DESC, rowid DESC LIMIT ?
			)
		`, maxEncounters)
		if err != nil {
			return 0, fmt.Errorf("pruning excess encounters: %w", err)
		}
		n, _ := res.RowsAffected()
		removed += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing prune: %w", err)
	}

	if removed > 0 {
		a.log.Info("archive pruned",
			"removed", removed,
			"retention_days", retentionDays,
			"max_encounters", maxEncounters)
	}
	return int(removed), nil
}

const vacuumThreshold = 50

// Compact reclaims space after large prunes.
func (a *Archive) Compact(ctx context.Context, removed int) {
	if removed < vacuumThreshold {
		return
	}
	start := time.Now()
	if _, err := a.db.ExecContext(ctx, "VACUUM"); err != nil {
		a.log.Error("VACUUM failed", "error", err)
		return
	}
	a.log.Debug("archive vacuumed", "elapsed", time.Since(start))
}
