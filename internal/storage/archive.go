// Package storage archives healing snapshots in SQLite so past encounters
// can be reopened in the viewer.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nixlim/heal-top/internal/snapshot"
)

// ErrNotFound is returned by Load when no encounter has the requested id.
var ErrNotFound = errors.New("encounter not found")

// EncounterInfo summarises one archived encounter.
type EncounterInfo struct {
	ID           string
	SavedAt      time.Time
	TotalHealing uint64
	DurationMS   uint64
}

type Archive struct {
	db  *sql.DB
	log *slog.Logger
	now func() time.Time
}

type Option func(*Archive)

func WithLogger(l *slog.Logger) Option {
	return func(a *Archive) { a.log = l }
}

// WithClock replaces time.Now for saved_at stamps and retention cutoffs.
func WithClock(now func() time.Time) Option {
	return func(a *Archive) { a.now = now }
}

// Open opens or creates the archive database at path.
func Open(path string, opts ...Option) (*Archive, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	a := &Archive{
		db:  db,
		log: slog.New(slog.DiscardHandler),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func (a *Archive) Close() error {
	return a.db.Close()
}

// Save stores the snapshot as a new encounter in a single transaction.
func (a *Archive) Save(ctx context.Context, snap *snapshot.HealingSnapshot) (EncounterInfo, error) {
	info := EncounterInfo{
		ID:           uuid.NewString(),
		SavedAt:      a.now().UTC(),
		TotalHealing: snap.TotalHealing(),
		DurationMS:   snap.DurationMS(),
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return EncounterInfo{}, fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO encounters (encounter_id, saved_at, local_subgroup, entered_combat, exited_combat,
			last_heal_event, last_damage_event, total_healing, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, info.ID, info.SavedAt.UnixMilli(), int64(snap.LocalSubgroup),
		int64(snap.EnteredCombat), int64(snap.ExitedCombat),
		int64(snap.LastHealEvent), int64(snap.LastDamageEvent),
		int64(info.TotalHealing), int64(info.DurationMS))
	if err != nil {
		return EncounterInfo{}, fmt.Errorf("inserting encounter: %w", err)
	}

	agentStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO agents (encounter_id, agent_id, name, subgroup, minion) VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return EncounterInfo{}, fmt.Errorf("preparing agent insert: %w", err)
	}
	defer func() { _ = agentStmt.Close() }()

	for id, agent := range snap.Agents {
		if _, err := agentStmt.ExecContext(ctx, info.ID, int64(id), agent.Name, int64(agent.Subgroup), boolToInt(agent.IsMinion)); err != nil {
			return EncounterInfo{}, fmt.Errorf("inserting agent %d: %w", id, err)
		}
	}

	skillStmt, err := tx.PrepareContext(ctx, "INSERT INTO skills (encounter_id, skill_id, name) VALUES (?, ?, ?)")
	if err != nil {
		return EncounterInfo{}, fmt.Errorf("preparing skill insert: %w", err)
	}
	defer func() { _ = skillStmt.Close() }()

	healingStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO skill_healing (encounter_id, skill_id, agent_id, total_healing, ticks) VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return EncounterInfo{}, fmt.Errorf("preparing healing insert: %w", err)
	}
	defer func() { _ = healingStmt.Close() }()

	for skillID, skill := range snap.SkillsHealing {
		if _, err := skillStmt.ExecContext(ctx, info.ID, int64(skillID), skill.Name); err != nil {
			return EncounterInfo{}, fmt.Errorf("inserting skill %d: %w", skillID, err)
		}
		for agentID, h := range skill.AgentsHealing {
			_, err := healingStmt.ExecContext(ctx, info.ID, int64(skillID), int64(agentID),
				int64(h.TotalHealing), int64(h.Ticks))
			if err != nil {
				return EncounterInfo{}, fmt.Errorf("inserting healing for skill %d agent %d: %w", skillID, agentID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return EncounterInfo{}, fmt.Errorf("committing encounter: %w", err)
	}

	a.log.Info("encounter archived",
		"encounter_id", info.ID,
		"agents", len(snap.Agents),
		"skills", len(snap.SkillsHealing),
		"total_healing", info.TotalHealing)
	return info, nil
}

// List returns every archived encounter, newest first.
func (a *Archive) List(ctx context.Context) ([]EncounterInfo, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT encounter_id, saved_at, total_healing, duration_ms
		FROM encounters
		ORDER BY saved_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying encounters: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []EncounterInfo
	for rows.Next() {
		var (
			info              EncounterInfo
			savedAt           int64
			healing, duration int64
		)
		if err := rows.Scan(&info.ID, &savedAt, &healing, &duration); err != nil {
			return nil, fmt.Errorf("scanning encounter row: %w", err)
		}
		info.SavedAt = time.UnixMilli(savedAt).UTC()
		info.TotalHealing = uint64(healing)
		info.DurationMS = uint64(duration)
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating encounter rows: %w", err)
	}
	return out, nil
}

// Load rebuilds the snapshot of an archived encounter.
func (a *Archive) Load(ctx context.Context, id string) (*snapshot.HealingSnapshot, error) {
	snap := snapshot.New()

	var local, entered, exited, lastHeal, lastDamage int64
	err := a.db.QueryRowContext(ctx, `
		SELECT local_subgroup, entered_combat, exited_combat, last_heal_event, last_damage_event
		FROM encounters WHERE encounter_id = ?
	`, id).Scan(&local, &entered, &exited, &lastHeal, &lastDamage)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("reading encounter %s: %w", id, err)
	}
	snap.LocalSubgroup = uint32(local)
	snap.EnteredCombat = uint64(entered)
	snap.ExitedCombat = uint64(exited)
	snap.LastHealEvent = uint64(lastHeal)
	snap.LastDamageEvent = uint64(lastDamage)

	if err := a.loadAgents(ctx, id, snap); err != nil {
		return nil, err
	}
	if err := a.loadSkills(ctx, id, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (a *Archive) loadAgents(ctx context.Context, id string, snap *snapshot.HealingSnapshot) error {
	rows, err := a.db.QueryContext(ctx,
		"SELECT agent_id, name, subgroup, minion FROM agents WHERE encounter_id = ?", id)
	if err != nil {
		return fmt.Errorf("querying agents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			agentID, subgroup, minion int64
			name                      string
		)
		if err := rows.Scan(&agentID, &name, &subgroup, &minion); err != nil {
			return fmt.Errorf("scanning agent row: %w", err)
		}
		snap.Agents[uint64(agentID)] = snapshot.AgentInfo{
			Name:     name,
			Subgroup: uint32(subgroup),
			IsMinion: minion != 0,
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating agent rows: %w", err)
	}
	return nil
}

func (a *Archive) loadSkills(ctx context.Context, id string, snap *snapshot.HealingSnapshot) error {
	rows, err := a.db.QueryContext(ctx, "SELECT skill_id, name FROM skills WHERE encounter_id = ?", id)
	if err != nil {
		return fmt.Errorf("querying skills: %w", err)
	}
	for rows.Next() {
		var (
			skillID int64
			name    string
		)
		if err := rows.Scan(&skillID, &name); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scanning skill row: %w", err)
		}
		snap.SkillsHealing[uint32(skillID)] = snapshot.SkillRecord{
			Name:          name,
			AgentsHealing: make(map[uint64]snapshot.AgentHealing),
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("iterating skill rows: %w", err)
	}
	_ = rows.Close()

	rows, err = a.db.QueryContext(ctx,
		"SELECT skill_id, agent_id, total_healing, ticks FROM skill_healing WHERE encounter_id = ?", id)
	if err != nil {
		return fmt.Errorf("querying skill healing: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var skillID, agentID, total, ticks int64
		if err := rows.Scan(&skillID, &agentID, &total, &ticks); err != nil {
			return fmt.Errorf("scanning skill healing row: %w", err)
		}
		rec := snap.SkillsHealing[uint32(skillID)]
		rec.AgentsHealing[uint64(agentID)] = snapshot.AgentHealing{
			TotalHealing: uint64(total),
			Ticks:        uint64(ticks),
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating skill healing rows: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
