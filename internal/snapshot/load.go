// Package snapshot defines the immutable healing snapshot of a combat
// encounter and decodes it from TOML snapshot files.
package snapshot

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

type tomlFile struct {
	LocalSubgroup   uint32      `toml:"local_subgroup"`
	EnteredCombat   uint64      `toml:"entered_combat"`
	ExitedCombat    uint64      `toml:"exited_combat"`
	LastHealEvent   uint64      `toml:"last_heal_event"`
	LastDamageEvent uint64      `toml:"last_damage_event"`
	Agents          []tomlAgent `toml:"agents"`
	Skills          []tomlSkill `toml:"skills"`
}

type tomlAgent struct {
	ID       uint64 `toml:"id"`
	Name     string `toml:"name"`
	Subgroup uint32 `toml:"subgroup"`
	Minion   bool   `toml:"minion"`
}

type tomlSkill struct {
	ID      uint32        `toml:"id"`
	Name    string        `toml:"name"`
	Healing []tomlHealing `toml:"healing"`
}

type tomlHealing struct {
	Agent uint64 `toml:"agent"`
	Total uint64 `toml:"total"`
	Ticks uint64 `toml:"ticks"`
}

// LoadFile reads and decodes a snapshot file.
func LoadFile(path string) (*HealingSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot file: %w", err)
	}
	snap, err := Decode(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}

// Decode parses a TOML snapshot document and validates the result.
func Decode(data string) (*HealingSnapshot, error) {
	var tf tomlFile
	if _, err := toml.Decode(data, &tf); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}

	var errs []string
	snap := New()
	snap.LocalSubgroup = tf.LocalSubgroup
	snap.EnteredCombat = tf.EnteredCombat
	snap.ExitedCombat = tf.ExitedCombat
	snap.LastHealEvent = tf.LastHealEvent
	snap.LastDamageEvent = tf.LastDamageEvent

	for _, a := range tf.Agents {
		if _, dup := snap.Agents[a.ID]; dup {
			errs = append(errs, fmt.Sprintf("duplicate agent id %d", a.ID))
			continue
		}
		snap.Agents[a.ID] = AgentInfo{Name: a.Name, Subgroup: a.Subgroup, IsMinion: a.Minion}
	}

	for _, s := range tf.Skills {
		if _, dup := snap.SkillsHealing[s.ID]; dup {
			errs = append(errs, fmt.Sprintf("duplicate skill id %d", s.ID))
			continue
		}
		rec := SkillRecord{Name: s.Name, AgentsHealing: make(map[uint64]AgentHealing, len(s.Healing))}
		for _, h := range s.Healing {
			if _, dup := rec.AgentsHealing[h.Agent]; dup {
				errs = append(errs, fmt.Sprintf("skill %d: duplicate healing record for agent %d", s.ID, h.Agent))
				continue
			}
			rec.AgentsHealing[h.Agent] = AgentHealing{TotalHealing: h.Total, Ticks: h.Ticks}
		}
		snap.SkillsHealing[s.ID] = rec
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("snapshot validation error: %s", strings.Join(errs, "; "))
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return snap, nil
}

// ErrInvalidSnapshot is wrapped by every error returned from Validate.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// Validate checks the timestamp ordering.
func (s *HealingSnapshot) Validate() error {
	var errs []string

	if s.EnteredCombat == 0 && (s.ExitedCombat != 0 || s.LastHealEvent != 0 || s.LastDamageEvent != 0) {
		errs = append(errs, "entered_combat must be set before other timestamps")
	}
	for _, ts := range []struct {
		name  string
		value uint64
	}{
		{"exited_combat", s.ExitedCombat},
		{"last_heal_event", s.LastHealEvent},
		{"last_damage_event", s.LastDamageEvent},
	} {
		if ts.value != 0 && ts.value < s.EnteredCombat {
			errs = append(errs, fmt.Sprintf("%s (%d) is before entered_combat (%d)", ts.name, ts.value, s.EnteredCombat))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidSnapshot, strings.Join(errs, "; "))
	}
	return nil
}
