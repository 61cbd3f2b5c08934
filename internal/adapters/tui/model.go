// Package tui provides the terminal user interface implementation
// using the Bubbletea framework.
package tui

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"
	"github.com/xvierd/countdown-cli/internal/config"
	"github.com/xvierd/countdown-cli/internal/domain"
	"github.com/xvierd/countdown-cli/internal/ports"
)

// Controller is the countdown the model drives. All calls happen inside
// Update.
type Controller interface {
	Editor() *domain.DurationEditor
	State() domain.CountdownState
	TickSource() domain.TickSource
	Status() domain.CountdownStatus
	PermissionPending() bool
	ActiveAlert() ports.Alert
	SoundAppearance() domain.ToggleAppearance
	NotificationAppearance() domain.ToggleAppearance

	Tick(ctx context.Context, id uint64) (bool, error)
	Stop(ctx context.Context) error
	Toggle(ctx context.Context) error
	Reset(ctx context.Context) error
	ToggleSound(ctx context.Context) error
	ToggleNotifications(ctx context.Context) (domain.ToggleOutcome, error)
	ResolvePermission(ctx context.Context, p domain.Permission) (domain.ToggleOutcome, error)
	CancelPermissionRequest()
	RestorePreferences(ctx context.Context) (domain.ToggleOutcome, error)
	DismissAlert() error
	AlertClosed(alert ports.Alert)
}

// resolveTheme fills any empty string fields in the given ThemeConfig with defaults.
// If theme is nil, returns the full default theme.
func resolveTheme(theme *config.ThemeConfig) config.ThemeConfig {
	defaults := config.DefaultThemeConfig()
	if theme == nil {
		return defaults
	}
	resolved := *theme
	rv := reflect.ValueOf(&resolved).Elem()
	dv := reflect.ValueOf(defaults)
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if f.Kind() == reflect.String && f.String() == "" {
			f.SetString(dv.Field(i).String())
		}
	}
	return resolved
}

// tickMsg is one countdown tick, tagged with the tick source that
// scheduled it.
type tickMsg struct {
	id uint64
}

// permissionMsg carries the answer to the notification permission prompt.
type permissionMsg struct {
	perm domain.Permission
}

// alertClosedMsg is sent when a tracked alert goes away.
type alertClosedMsg struct {
	alert ports.Alert
}

// Model represents the TUI state.
type Model struct {
	ctx      context.Context
	ctrl     Controller
	log      logrus.FieldLogger
	theme    config.ThemeConfig
	interval time.Duration
	presets  []config.Preset

	keys     keyMap
	help     help.Model
	inputs   [3]textinput.Model
	progress progress.Model
	width    int
	height   int

	// scheduled is the tick source id a tick is already queued for.
	scheduled uint64
	watched   ports.Alert
	warning   string

	searching bool
	search    textinput.Model
	matches   []config.Preset
	cursor    int
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithTheme sets the colours; empty fields keep their defaults.
func WithTheme(theme *config.ThemeConfig) ModelOption {
	return func(m *Model) { m.theme = resolveTheme(theme) }
}

// WithPresets sets the presets offered by the preset search.
func WithPresets(presets []config.Preset) ModelOption {
	return func(m *Model) { m.presets = presets }
}

// WithTickInterval sets the delay between ticks.
func WithTickInterval(d time.Duration) ModelOption {
	return func(m *Model) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithLogger sets the logger for warnings.
func WithLogger(log logrus.FieldLogger) ModelOption {
	return func(m *Model) {
		if log != nil {
			m.log = log
		}
	}
}

// NewModel creates a new TUI model with the seconds field focused.
func NewModel(ctx context.Context, ctrl Controller, opts ...ModelOption) Model {
	m := Model{
		ctx:      ctx,
		ctrl:     ctrl,
		log:      logrus.StandardLogger(),
		theme:    resolveTheme(nil),
		interval: time.Second,
		keys:     defaultKeyMap(),
		help:     help.New(),
	}
	for _, opt := range opts {
		opt(&m)
	}

	for _, k := range domain.FieldOrder {
		m.inputs[k] = m.newFieldInput()
	}
	m.search = textinput.New()
	m.search.Prompt = "/ "
	m.search.Placeholder = "preset"
	m.search.CharLimit = 40
	m.search.Width = 24
	m.progress = progress.New(
		progress.WithGradient(m.theme.GradientStart, m.theme.GradientEnd),
		progress.WithoutPercentage(),
	)

	ctrl.Editor().Focus(domain.FieldSeconds)
	m.syncInputs()
	return m
}

func (m Model) newFieldInput() textinput.Model {
	in := textinput.New()
	in.Prompt = ""
	in.CharLimit = domain.FieldWidth
	in.Cursor.SetMode(cursor.CursorStatic)
	in.TextStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.ColorLabel))
	in.PlaceholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorMuted))
	return in
}

// Init initializes the TUI.
func (m Model) Init() tea.Cmd {
	return nil
}

// restorePreferences applies the stored effect switches before the
// program starts.
func (m *Model) restorePreferences() {
	outcome, err := m.ctrl.RestorePreferences(m.ctx)
	m.report(err)
	m.log.WithField("notifications", outcome).Debug("preferences restored")
	m.syncInputs()
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = max(10, min(60, msg.Width-8))
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		return m.handleTick(msg)

	case permissionMsg:
		outcome, err := m.ctrl.ResolvePermission(m.ctx, msg.perm)
		m.report(err)
		m.log.WithField("outcome", outcome).Debug("notification permission answered")
		cmd := m.afterChange()
		return m, cmd

	case alertClosedMsg:
		m.ctrl.AlertClosed(msg.alert)
		if m.watched == msg.alert {
			m.watched = nil
		}
		cmd := m.afterChange()
		return m, cmd

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleTick(msg tickMsg) (tea.Model, tea.Cmd) {
	ok, err := m.ctrl.Tick(m.ctx, msg.id)
	if !ok {
		return m, nil
	}
	m.report(err)

	var next tea.Cmd
	if src := m.ctrl.TickSource(); src.Active && src.ID == msg.id {
		next = m.tickCmd(msg.id)
	}
	cmd := m.afterChange()
	return m, tea.Batch(next, cmd)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m.quit()
	}
	m.warning = ""

	if m.ctrl.PermissionPending() {
		switch {
		case key.Matches(msg, m.keys.Allow):
			return m, answerPermission(domain.PermissionGranted)
		case key.Matches(msg, m.keys.Deny):
			return m, answerPermission(domain.PermissionDenied)
		case key.Matches(msg, m.keys.Cancel):
			m.ctrl.CancelPermissionRequest()
			cmd := m.afterChange()
			return m, cmd
		}
	}

	ed := m.ctrl.Editor()
	var err error
	switch {
	case key.Matches(msg, m.keys.Digit):
		if !ed.HasFocus() {
			ed.Focus(domain.FieldSeconds)
		}
		ed.Type(msg.Runes[0])
	case key.Matches(msg, m.keys.Backspace):
		ed.Backspace()
	case key.Matches(msg, m.keys.Left):
		ed.MoveCaret(-1)
	case key.Matches(msg, m.keys.Right):
		ed.MoveCaret(1)
	case key.Matches(msg, m.keys.Next):
		ed.Focus(cycleField(ed.Focused(), 1))
	case key.Matches(msg, m.keys.Prev):
		ed.Focus(cycleField(ed.Focused(), -1))
	case key.Matches(msg, m.keys.Toggle):
		err = m.ctrl.Toggle(m.ctx)
	case key.Matches(msg, m.keys.Reset):
		err = m.ctrl.Reset(m.ctx)
	case key.Matches(msg, m.keys.Sound):
		err = m.ctrl.ToggleSound(m.ctx)
	case key.Matches(msg, m.keys.Notify):
		var outcome domain.ToggleOutcome
		outcome, err = m.ctrl.ToggleNotifications(m.ctx)
		m.log.WithField("outcome", outcome).Debug("notification toggle")
	case key.Matches(msg, m.keys.Dismiss):
		err = m.ctrl.DismissAlert()
	case key.Matches(msg, m.keys.Presets):
		if m.ctrl.State() == domain.StateRunning {
			m.warning = "stop the countdown to pick a preset"
			return m, nil
		}
		return m.openSearch()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	m.report(err)
	cmd := m.afterChange()
	return m, cmd
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.ctrl.State() == domain.StateRunning {
		m.report(m.ctrl.Stop(m.ctx))
	}
	return m, tea.Quit
}

func (m Model) openSearch() (tea.Model, tea.Cmd) {
	m.searching = true
	m.search.SetValue("")
	m.matches = config.MatchPresets(m.presets, "")
	m.cursor = 0
	cmd := m.search.Focus()
	return m, cmd
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m.quit()
	case key.Matches(msg, m.keys.Cancel):
		m.closeSearch()
		return m, nil
	case key.Matches(msg, m.keys.Select):
		if m.cursor < len(m.matches) {
			m.applyPreset(m.matches[m.cursor])
		}
		m.closeSearch()
		cmd := m.afterChange()
		return m, cmd
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.matches)-1 {
			m.cursor++
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.matches = config.MatchPresets(m.presets, m.search.Value())
	if m.cursor >= len(m.matches) {
		m.cursor = max(0, len(m.matches)-1)
	}
	return m, cmd
}

func (m *Model) closeSearch() {
	m.searching = false
	m.search.Blur()
}

func (m *Model) applyPreset(p config.Preset) {
	ed := m.ctrl.Editor()
	if err := ed.SetDuration(p.Duration); err != nil {
		m.report(fmt.Errorf("preset %q: %w", p.Name, err))
		return
	}
	ed.Focus(domain.FieldSeconds)
	m.log.WithField("preset", p.Name).Debug("preset applied")
}

// afterChange mirrors the editor into the inputs and queues the commands
// a state change needs: a tick for a new tick source and a watch on a new
// alert.
func (m *Model) afterChange() tea.Cmd {
	m.syncInputs()

	var cmds []tea.Cmd
	if src := m.ctrl.TickSource(); src.Active && src.ID != m.scheduled {
		m.scheduled = src.ID
		cmds = append(cmds, m.tickCmd(src.ID))
	}
	if a := m.ctrl.ActiveAlert(); a != nil && a != m.watched {
		m.watched = a
		cmds = append(cmds, waitAlert(a))
	}
	return tea.Batch(cmds...)
}

func (m *Model) syncInputs() {
	ed := m.ctrl.Editor()
	for _, k := range domain.FieldOrder {
		in := &m.inputs[k]
		in.SetValue(ed.Value(k))
		in.Placeholder = ed.Placeholder(k)
		if ed.HasFocus() && ed.Focused() == k {
			in.Focus()
			in.SetCursor(ed.Caret())
		} else {
			in.Blur()
		}
	}
}

func (m *Model) report(err error) {
	if err == nil {
		return
	}
	m.warning = err.Error()
	m.log.WithError(err).Warn("countdown")
}

func (m Model) tickCmd(id uint64) tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg {
		return tickMsg{id: id}
	})
}

func answerPermission(p domain.Permission) tea.Cmd {
	return func() tea.Msg {
		return permissionMsg{perm: p}
	}
}

func waitAlert(a ports.Alert) tea.Cmd {
	return func() tea.Msg {
		<-a.Done()
		return alertClosedMsg{alert: a}
	}
}

// cycleField moves focus step fields to the right in the on-screen order
// hours, minutes, seconds, wrapping around.
func cycleField(k domain.FieldKind, step int) domain.FieldKind {
	n := len(domain.FieldOrder)
	pos := (n - 1 - int(k) + step%n + n) % n
	return domain.FieldKind(n - 1 - pos)
}

// View renders the TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	st := m.ctrl.Status()
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorHelp))
	warnStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.ColorWarning))

	var sections []string
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.ColorTitle)).MarginBottom(1)
	sections = append(sections, titleStyle.Render(fmt.Sprintf("%s Countdown", m.theme.IconApp)))
	sections = append(sections, m.viewFields())

	if st.State == domain.StateRunning {
		sections = append(sections, "")
		sections = append(sections, renderBigClock(formatClock(st.Remaining), m.phaseColor(st.Phase), m.width))
		sections = append(sections, "")
		sections = append(sections, m.progress.ViewAs(st.Progress()))
	}

	if st.Phase == domain.PhaseExpired {
		expired := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.ColorExpired))
		sections = append(sections, "")
		sections = append(sections, expired.Render("Time's up!"))
		if m.ctrl.ActiveAlert() != nil {
			sections = append(sections, helpStyle.Render("[x] dismiss alert"))
		}
	}

	sections = append(sections, "")
	sections = append(sections, m.viewControls(st))

	if st.PermissionPending {
		sections = append(sections, "")
		sections = append(sections, warnStyle.Render("Allow desktop notifications? [y]es / [n]o"))
	}

	if m.searching {
		sections = append(sections, "")
		sections = append(sections, m.viewSearch())
	}

	if m.warning != "" {
		sections = append(sections, "")
		sections = append(sections, warnStyle.Render("⚠ "+m.warning))
	}

	sections = append(sections, "")
	sections = append(sections, m.help.View(m.keys))

	content := lipgloss.JoinVertical(lipgloss.Center, sections...)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m Model) viewFields() string {
	ed := m.ctrl.Editor()
	label := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorLabel))
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorMuted))

	parts := make([]string, 0, len(domain.FieldOrder))
	for i := len(domain.FieldOrder) - 1; i >= 0; i-- {
		k := domain.FieldOrder[i]
		unit := label
		if ed.LabelMuted(k) {
			unit = muted
		}
		parts = append(parts, m.inputs[k].View()+" "+unit.Render(k.Unit()))
	}

	border := lipgloss.Color(m.theme.ColorMuted)
	if ed.HasFocus() {
		border = lipgloss.Color(m.theme.ColorRunning)
	}
	box := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(border).Padding(0, 1)
	return box.Render(strings.Join(parts, "  "))
}

func (m Model) viewControls(st domain.CountdownStatus) string {
	button := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(m.phaseColor(st.Phase)).
		Padding(0, 2).
		Render(st.Action)

	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorHelp))
	sound := m.ctrl.SoundAppearance()
	notify := m.ctrl.NotificationAppearance()

	return lipgloss.JoinHorizontal(lipgloss.Center,
		button,
		"   ",
		helpStyle.Render(sound.Icon+" "+sound.Title),
		"   ",
		helpStyle.Render(notify.Icon+" "+notify.Title),
	)
}

func (m Model) viewSearch() string {
	active := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.ColorRunning))
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorHelp))

	lines := []string{m.search.View()}
	if len(m.matches) == 0 {
		lines = append(lines, dim.Render("no matching preset"))
	}
	for i, p := range m.matches {
		line := fmt.Sprintf("%-12s %s", p.Name, formatClock(p.Duration))
		if i == m.cursor {
			lines = append(lines, active.Render("▸ "+line))
		} else {
			lines = append(lines, dim.Render("  "+line))
		}
	}
	lines = append(lines, dim.Render("↑/↓ navigate · enter apply · esc cancel"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) phaseColor(p domain.Phase) lipgloss.Color {
	switch p {
	case domain.PhaseTicking:
		return lipgloss.Color(m.theme.ColorRunning)
	case domain.PhaseExpired:
		return lipgloss.Color(m.theme.ColorExpired)
	default:
		return lipgloss.Color(m.theme.ColorIdle)
	}
}

// formatClock formats a duration as HH:MM:SS.
func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total/60)%60, total%60)
}
