package tui

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nixlim/heal-top/internal/config"
	"github.com/nixlim/heal-top/internal/snapshot"
	"github.com/nixlim/heal-top/internal/stats"
	"github.com/nixlim/heal-top/internal/storage"
)

type ViewState int

const (
	ViewStats ViewState = iota
	ViewHistory
)

const archiveTimeout = 5 * time.Second

// ArchiveProvider is the part of the encounter archive the viewer reads.
type ArchiveProvider interface {
	List(ctx context.Context) ([]storage.EncounterInfo, error)
	Load(ctx context.Context, id string) (*snapshot.HealingSnapshot, error)
}

type historyLoadedMsg struct {
	encounters []storage.EncounterInfo
	err        error
}

type encounterLoadedMsg struct {
	id   string
	snap *snapshot.HealingSnapshot
	err  error
}

type Model struct {
	view     ViewState
	width    int
	height   int
	keys     KeyMap
	quitting bool

	cfg       config.Config
	agg       *stats.AggregatedStats
	statsOpts []stats.Option
	source    string

	archive ArchiveProvider
	log     *slog.Logger

	cursor    int
	scrollPos int

	filterMenu FilterMenuState

	detailOverlay   bool
	detailTitle     string
	detailTable     *stats.Table
	detailScrollPos int

	encounters    []storage.EncounterInfo
	historyCursor int

	status string

	onShutdown func()
}

// NewModel builds a viewer over agg. Configuration changes made in the
// viewer rebuild the stats with the same options used for agg.
func NewModel(cfg config.Config, agg *stats.AggregatedStats, opts ...ModelOption) Model {
	m := Model{
		view: ViewStats,
		keys: DefaultKeyMap(),
		cfg:  cfg,
		agg:  agg,
		log:  slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(&m)
	}

	return m
}

type ModelOption func(*Model)

// WithStatsOptions sets the options used when rebuilding the stats.
func WithStatsOptions(opts ...stats.Option) ModelOption {
	return func(m *Model) { m.statsOpts = opts }
}

func WithArchive(a ArchiveProvider) ModelOption {
	return func(m *Model) { m.archive = a }
}

// WithSource labels the header with where the snapshot came from.
func WithSource(label string) ModelOption {
	return func(m *Model) { m.source = label }
}

func WithLogger(l *slog.Logger) ModelOption {
	return func(m *Model) { m.log = l }
}

// WithStartView selects the first view. Starting in ViewHistory loads the
// archive list on Init.
func WithStartView(v ViewState) ModelOption {
	return func(m *Model) { m.view = v }
}

func WithOnShutdown(fn func()) ModelOption {
	return func(m *Model) { m.onShutdown = fn }
}

// Stats returns the stats currently shown.
func (m Model) Stats() *stats.AggregatedStats {
	return m.agg
}

func (m Model) Init() tea.Cmd {
	if m.view == ViewHistory {
		return m.loadHistoryCmd()
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.scrollPos = scrollWindow(m.scrollPos, m.cursor, m.visibleRows())
		return m, nil

	case historyLoadedMsg:
		if msg.err != nil {
			m.log.Error("listing archive", "error", msg.err)
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		m.encounters = msg.encounters
		if m.historyCursor >= len(m.encounters) {
			m.historyCursor = 0
		}
		return m, nil

	case encounterLoadedMsg:
		if msg.err != nil {
			m.log.Error("loading encounter", "encounter_id", msg.id, "error", msg.err)
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		agg, err := stats.New(msg.snap, m.agg.Config(), m.statsOpts...)
		if err != nil {
			m.status = "Error: " + err.Error()
			return m, nil
		}
		m.agg = agg
		m.source = msg.id
		m.view = ViewStats
		m.cursor, m.scrollPos = 0, 0
		m.status = ""
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.detailOverlay {
		return m.handleDetailOverlayKey(msg)
	}

	if m.filterMenu.Active {
		return m.handleFilterMenuKey(msg)
	}

	if key.Matches(msg, m.keys.Quit) {
		m.quitting = true
		if m.onShutdown != nil {
			m.onShutdown()
		}
		return m, tea.Quit
	}

	switch m.view {
	case ViewStats:
		return m.handleStatsKey(msg)
	case ViewHistory:
		return m.handleHistoryKey(msg)
	}

	return m, nil
}

func (m Model) handleStatsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cfg := m.agg.Config()

	switch {
	case key.Matches(msg, m.keys.DataSource):
		cfg.DataSource = cfg.DataSource.Next()
		m.rebuild(cfg)
		m.cursor, m.scrollPos = 0, 0
		return m, nil

	case key.Matches(msg, m.keys.Sort):
		cfg.SortOrder = cfg.SortOrder.Next()
		m.rebuild(cfg)
		return m, nil

	case key.Matches(msg, m.keys.EndCond):
		cfg.CombatEndCondition = cfg.CombatEndCondition.Next()
		m.rebuild(cfg)
		return m, nil

	case key.Matches(msg, m.keys.Filter):
		m.filterMenu.Active = true
		m.filterMenu.Cursor = 0
		return m, nil

	case key.Matches(msg, m.keys.History):
		m.view = ViewHistory
		m.status = ""
		return m, m.loadHistoryCmd()

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		m.scrollPos = scrollWindow(m.scrollPos, m.cursor, m.visibleRows())
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor < m.agg.GetStats(cfg.DataSource).Len()-1 {
			m.cursor++
		}
		m.scrollPos = scrollWindow(m.scrollPos, m.cursor, m.visibleRows())
		return m, nil

	case key.Matches(msg, m.keys.Enter):
		m.openDetail()
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		m.status = ""
		return m, nil
	}

	return m, nil
}

// openDetail shows the drill-down table for the entry under the cursor.
// The totals view has no drill-down.
func (m *Model) openDetail() {
	ds := m.agg.Config().DataSource
	table := m.agg.GetStats(ds)
	if m.cursor < 0 || m.cursor >= table.Len() {
		return
	}
	entry := table.Entries[m.cursor]

	switch ds {
	case stats.Agents:
		m.detailTable = m.agg.GetAgentDetails(entry.ID)
	case stats.Skills:
		m.detailTable = m.agg.GetSkillDetails(entry.ID)
	default:
		return
	}
	m.detailTitle = entry.Name
	m.detailOverlay = true
	m.detailScrollPos = 0
}

func (m Model) handleDetailOverlayKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Enter):
		m.detailOverlay = false
		m.detailTable = nil
		m.detailTitle = ""
		m.detailScrollPos = 0
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.detailScrollPos > 0 {
			m.detailScrollPos--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.detailScrollPos < m.detailTable.Len()-1 {
			m.detailScrollPos++
		}
		return m, nil

	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		if m.onShutdown != nil {
			m.onShutdown()
		}
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) handleFilterMenuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Filter):
		m.filterMenu.Active = false
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.filterMenu.Cursor > 0 {
			m.filterMenu.Cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.filterMenu.Cursor < len(filterOptions)-1 {
			m.filterMenu.Cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Toggle):
		cfg := m.agg.Config()
		cfg.Filter = filterOptions[m.filterMenu.Cursor].Toggle(cfg.Filter)
		m.rebuild(cfg)
		return m, nil

	case key.Matches(msg, m.keys.Presets):
		if g, ok := presetForKey(msg.String()); ok {
			cfg := m.agg.Config()
			cfg.Filter = g.Preset()
			m.rebuild(cfg)
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.History):
		m.view = ViewStats
		m.status = ""
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.historyCursor > 0 {
			m.historyCursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.historyCursor < len(m.encounters)-1 {
			m.historyCursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Enter):
		if m.historyCursor >= 0 && m.historyCursor < len(m.encounters) {
			return m, m.openEncounterCmd(m.encounters[m.historyCursor].ID)
		}
		return m, nil
	}

	return m, nil
}

// rebuild replaces the stats with a new instance for cfg. A configuration
// is fixed for the lifetime of an AggregatedStats.
func (m *Model) rebuild(cfg stats.ViewConfig) {
	agg, err := stats.New(m.agg.Snapshot(), cfg, m.statsOpts...)
	if err != nil {
		m.log.Error("rebuilding stats", "error", err)
		m.status = "Error: " + err.Error()
		return
	}
	m.agg = agg
	if n := agg.GetStats(cfg.DataSource).Len(); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
	m.scrollPos = scrollWindow(m.scrollPos, m.cursor, m.visibleRows())
}

func (m Model) loadHistoryCmd() tea.Cmd {
	archive := m.archive
	if archive == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()
		encounters, err := archive.List(ctx)
		return historyLoadedMsg{encounters: encounters, err: err}
	}
}

func (m Model) openEncounterCmd(id string) tea.Cmd {
	archive := m.archive
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()
		snap, err := archive.Load(ctx, id)
		return encounterLoadedMsg{id: id, snap: snap, err: err}
	}
}

func (m Model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var output string
	switch m.view {
	case ViewStats:
		output = m.renderStats()
	case ViewHistory:
		output = m.renderHistory()
	}

	if m.height > 0 {
		lines := strings.Split(output, "\n")
		if len(lines) > m.height {
			lines = lines[:m.height]
			output = strings.Join(lines, "\n")
		}
	}

	return output
}
