package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/nixlim/heal-top/internal/stats"
)

type Config struct {
	Filter  FilterConfig
	Display DisplayConfig
	Skills  SkillsConfig
	Storage StorageConfig
	Log     LogConfig
}

type FilterConfig struct {
	ExcludeGroup    bool `toml:"exclude_group"`
	ExcludeOffGroup bool `toml:"exclude_off_group"`
	ExcludeOffSquad bool `toml:"exclude_off_squad"`
	ExcludeMinions  bool `toml:"exclude_minions"`
	ExcludeUnmapped bool `toml:"exclude_unmapped"`
}

type DisplayConfig struct {
	SortOrder          string `toml:"sort_order"`
	DataSource         string `toml:"data_source"`
	CombatEndCondition string `toml:"combat_end_condition"`
	DebugMode          bool   `toml:"debug_mode"`
	BarWidth           int    `toml:"bar_width"`
}

type SkillsConfig struct {
	IndirectIDs   []uint32 `toml:"indirect_ids"`
	IndirectNames []string `toml:"indirect_names"`
}

type StorageConfig struct {
	DBPath        string `toml:"db_path"`
	RetentionDays int    `toml:"retention_days"`
	MaxEncounters int    `toml:"max_encounters"`
}

type LogConfig struct {
	Path  string `toml:"path"`
	Level string `toml:"level"`
}

type LoadResult struct {
	Config   Config
	Warnings []string
}

// DefaultConfig is the configuration used when no config file exists.
// Filters default to the player's squad without summons.
func DefaultConfig() Config {
	return Config{
		Filter: FilterConfig{
			ExcludeOffSquad: true,
			ExcludeMinions:  true,
			ExcludeUnmapped: true,
		},
		Display: DisplayConfig{
			SortOrder:          stats.DescendingSize.String(),
			DataSource:         stats.Agents.String(),
			CombatEndCondition: stats.CombatExit.String(),
			BarWidth:           20,
		},
		Storage: StorageConfig{
			DBPath:        "~/.local/share/heal-top/encounters.db",
			RetentionDays: 30,
			MaxEncounters: 200,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ViewConfig converts the filter and display sections for the stats engine.
func (c Config) ViewConfig() (stats.ViewConfig, error) {
	sortOrder, err := stats.ParseSortOrder(c.Display.SortOrder)
	if err != nil {
		return stats.ViewConfig{}, err
	}
	dataSource, err := stats.ParseDataSource(c.Display.DataSource)
	if err != nil {
		return stats.ViewConfig{}, err
	}
	endCondition, err := stats.ParseCombatEndCondition(c.Display.CombatEndCondition)
	if err != nil {
		return stats.ViewConfig{}, err
	}

	return stats.ViewConfig{
		Filter: stats.FilterConfig{
			ExcludeGroup:    c.Filter.ExcludeGroup,
			ExcludeOffGroup: c.Filter.ExcludeOffGroup,
			ExcludeOffSquad: c.Filter.ExcludeOffSquad,
			ExcludeMinions:  c.Filter.ExcludeMinions,
			ExcludeUnmapped: c.Filter.ExcludeUnmapped,
		},
		SortOrder:          sortOrder,
		DataSource:         dataSource,
		CombatEndCondition: endCondition,
	}, nil
}

func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "heal-top", "config.toml")
}

func Load() (*LoadResult, error) {
	return LoadFrom(DefaultConfigPath())
}

func LoadFrom(path string) (*LoadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &LoadResult{Config: DefaultConfig()}, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	result, err := LoadFromString(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return result, nil
}

var knownTopLevel = map[string]bool{
	"filter":  true,
	"display": true,
	"skills":  true,
	"storage": true,
	"log":     true,
}

func LoadFromString(data string) (*LoadResult, error) {
	result := &LoadResult{Config: DefaultConfig()}

	if data == "" {
		return result, nil
	}

	var raw map[string]any
	if _, err := toml.Decode(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	for key := range raw {
		if !knownTopLevel[key] {
			result.Warnings = append(result.Warnings, fmt.Sprintf("unknown config key: %q", key))
		}
	}

	var tf tomlFile
	if _, err := toml.Decode(data, &tf); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	mergeFromRaw(&result.Config, &tf, raw)

	if err := validate(&result.Config); err != nil {
		return nil, err
	}

	return result, nil
}

type tomlFile struct {
	Filter  *FilterConfig  `toml:"filter"`
	Display *DisplayConfig `toml:"display"`
	Skills  *SkillsConfig  `toml:"skills"`
	Storage *StorageConfig `toml:"storage"`
	Log     *LogConfig     `toml:"log"`
}

// mergeFromRaw copies only the keys present in the file so absent keys keep
// their defaults.
func mergeFromRaw(cfg *Config, tf *tomlFile, raw map[string]any) {
	if tf.Filter != nil {
		if section, ok := rawSection(raw, "filter"); ok {
			if _, exists := section["exclude_group"]; exists {
				cfg.Filter.ExcludeGroup = tf.Filter.ExcludeGroup
			}
			if _, exists := section["exclude_off_group"]; exists {
				cfg.Filter.ExcludeOffGroup = tf.Filter.ExcludeOffGroup
			}
			if _, exists := section["exclude_off_squad"]; exists {
				cfg.Filter.ExcludeOffSquad = tf.Filter.ExcludeOffSquad
			}
			if _, exists := section["exclude_minions"]; exists {
				cfg.Filter.ExcludeMinions = tf.Filter.ExcludeMinions
			}
			if _, exists := section["exclude_unmapped"]; exists {
				cfg.Filter.ExcludeUnmapped = tf.Filter.ExcludeUnmapped
			}
		}
	}
	if tf.Display != nil {
		if section, ok := rawSection(raw, "display"); ok {
			if _, exists := section["sort_order"]; exists {
				cfg.Display.SortOrder = tf.Display.SortOrder
			}
			if _, exists := section["data_source"]; exists {
				cfg.Display.DataSource = tf.Display.DataSource
			}
			if _, exists := section["combat_end_condition"]; exists {
				cfg.Display.CombatEndCondition = tf.Display.CombatEndCondition
			}
			if _, exists := section["debug_mode"]; exists {
				cfg.Display.DebugMode = tf.Display.DebugMode
			}
			if _, exists := section["bar_width"]; exists {
				cfg.Display.BarWidth = tf.Display.BarWidth
			}
		}
	}
	if tf.Skills != nil {
		if section, ok := rawSection(raw, "skills"); ok {
			if _, exists := section["indirect_ids"]; exists {
				cfg.Skills.IndirectIDs = tf.Skills.IndirectIDs
			}
			if _, exists := section["indirect_names"]; exists {
				cfg.Skills.IndirectNames = tf.Skills.IndirectNames
			}
		}
	}
	if tf.Storage != nil {
		if section, ok := rawSection(raw, "storage"); ok {
			if _, exists := section["db_path"]; exists {
				cfg.Storage.DBPath = tf.Storage.DBPath
			}
			if _, exists := section["retention_days"]; exists {
				cfg.Storage.RetentionDays = tf.Storage.RetentionDays
			}
			if _, exists := section["max_encounters"]; exists {
				cfg.Storage.MaxEncounters = tf.Storage.MaxEncounters
			}
		}
	}
	if tf.Log != nil {
		if section, ok := rawSection(raw, "log"); ok {
			if _, exists := section["path"]; exists {
				cfg.Log.Path = tf.Log.Path
			}
			if _, exists := section["level"]; exists {
				cfg.Log.Level = tf.Log.Level
			}
		}
	}
}

func rawSection(raw map[string]any, key string) (map[string]any, bool) {
	v, ok := raw[key]
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

var validLogLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

func validate(cfg *Config) error {
	var errs []string

	if _, err := stats.ParseSortOrder(cfg.Display.SortOrder); err != nil {
		errs = append(errs, fmt.Sprintf("display sort_order: %v", err))
	}
	if _, err := stats.ParseDataSource(cfg.Display.DataSource); err != nil {
		errs = append(errs, fmt.Sprintf("display data_source: %v", err))
	}
	if _, err := stats.ParseCombatEndCondition(cfg.Display.CombatEndCondition); err != nil {
		errs = append(errs, fmt.Sprintf("display combat_end_condition: %v", err))
	}
	if cfg.Display.BarWidth < 1 || cfg.Display.BarWidth > 200 {
		errs = append(errs, fmt.Sprintf("display bar_width must be 1-200, got %d", cfg.Display.BarWidth))
	}

	for _, name := range cfg.Skills.IndirectNames {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, "skills indirect_names must not contain empty names")
			break
		}
	}

	// 0 disables the rule.
	if cfg.Storage.RetentionDays < 0 {
		errs = append(errs, fmt.Sprintf("storage retention_days must not be negative, got %d", cfg.Storage.RetentionDays))
	}
	if cfg.Storage.MaxEncounters < 0 {
		errs = append(errs, fmt.Sprintf("storage max_encounters must not be negative, got %d", cfg.Storage.MaxEncounters))
	}

	if !validLogLevels[strings.ToLower(cfg.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log level must be debug, info, warn or error, got %q", cfg.Log.Level))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation error: %s", strings.Join(errs, "; "))
	}
	return nil
}
