package play

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/janvanwassenhove/mITyGuitar/audio"
	"github.com/janvanwassenhove/mITyGuitar/controller"
	"github.com/janvanwassenhove/mITyGuitar/mapping"
	"github.com/janvanwassenhove/mITyGuitar/midiout"
)

// pollInterval is the UI poll cadence. The capture goroutine runs much
// faster; this only paces how often queued snapshots become sound.
const pollInterval = 33 * time.Millisecond

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("250"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	activeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	// One style per fret lane, green to orange like the controller buttons.
	laneStyles = [5]lipgloss.Style{
		lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46")),
		lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("226")),
		lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208")),
	}
)

var laneNames = [5]string{"green", "red", "yellow", "blue", "orange"}

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

type sessionDeps struct {
	source     controller.Source
	sim        *controller.Simulator // nil when a real controller drives the session
	mapper     *mapping.Mapper
	resolver   *mapping.Resolver
	output     *audio.Output
	bridge     *midiout.Bridge // nil unless --midi-out was given
	device     string
	instrument string
}

// healthEvery is how many poll ticks pass between audio health checks,
// roughly two seconds.
const healthEvery = 60

type model struct {
	sessionDeps

	snap    controller.Snapshot
	stats   audio.Stats
	soloRow bool
	bendOn  bool
	ticks   int
	lastErr string
	width   int
}

func initialModel(deps sessionDeps) model {
	return model{sessionDeps: deps}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), tea.EnterAltScreen)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg.String())

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tickMsg:
		m = m.poll()
		return m, tickCmd()
	}
	return m, nil
}

func (m model) handleKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c":
		return m.quit()
	case "g":
		m.mapper.SetGenre(nextGenre(m.mapper.Genre()))
		return m, nil
	case "[":
		m.mapper.PrevPattern()
		return m, nil
	case "]":
		m.mapper.NextPattern()
		return m, nil
	case "p":
		m = m.send(m.mapper.Panic())
		return m, nil
	}

	if m.sim != nil {
		// The simulator owns most of the keyboard, including q and esc
		// (solo fret and select button), so only ctrl+c quits here.
		if key == "b" {
			m.bendOn = !m.bendOn
			if m.bendOn {
				m.sim.SetWhammy(1)
			} else {
				m.sim.SetWhammy(0)
			}
			return m, nil
		}
		m.sim.KeyDown(key)
		return m, nil
	}

	switch key {
	case "q", "esc":
		return m.quit()
	}
	return m, nil
}

func (m model) quit() (tea.Model, tea.Cmd) {
	m = m.send(m.mapper.Panic())
	return m, tea.Quit
}

// poll is one audio frame of the UI: read the controller, map to events,
// feed the synth (and the MIDI mirror), refresh the on-screen stats.
func (m model) poll() model {
	snap := m.source.State()
	m = m.send(m.mapper.Process(snap))
	m.snap = snap
	m.stats = m.output.Stats()
	if m.sim != nil {
		m.soloRow = m.sim.SoloRow()
	}

	m.ticks++
	if m.ticks%healthEvery == 0 {
		m = m.checkHealth()
	}
	return m
}

// checkHealth probes the output stream and tries one reconnect per check
// when it has stalled.
func (m model) checkHealth() model {
	err := m.output.CheckHealth()
	if err == nil {
		return m
	}
	if !errors.Is(err, audio.ErrStreamStalled) {
		m.lastErr = err.Error()
		return m
	}
	if rerr := m.output.Reconnect(); rerr != nil {
		m.lastErr = fmt.Sprintf("audio stalled, reconnect failed: %v", rerr)
		return m
	}
	m.lastErr = ""
	return m
}

func (m model) send(events []mapping.Event) model {
	if len(events) == 0 {
		return m
	}
	if err := m.output.SendEvents(events); err != nil {
		m.lastErr = err.Error()
	}
	if m.bridge != nil {
		for _, ev := range events {
			if err := m.bridge.Send(ev); err != nil {
				m.lastErr = err.Error()
				break
			}
		}
	}
	return m
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString("\n  ")
	b.WriteString(titleStyle.Render("mITyGuitar"))
	b.WriteString(labelStyle.Render(fmt.Sprintf("  %s on %s", m.instrument, m.device)))
	if m.snap.Connected || m.sim != nil {
		b.WriteString("\n")
	} else {
		b.WriteString(errorStyle.Render("  (disconnected)"))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString("  ")
	b.WriteString(labelStyle.Render(statusLine(m.mapper)))
	if m.soloRow {
		b.WriteString(activeStyle.Render("  [solo row]"))
	}
	b.WriteString("\n\n")

	labels := m.chordLabels()
	frets := m.snap.Frets()
	for i := 0; i < 5; i++ {
		b.WriteString("  ")
		b.WriteString(laneStyles[i].Render(fretCell(frets[i])))
		b.WriteString(" ")
		b.WriteString(laneStyles[i].Render(fmt.Sprintf("%-7s", laneNames[i])))
		if frets[i] {
			b.WriteString(activeStyle.Render(labels[i]))
		} else {
			b.WriteString(dimStyle.Render(labels[i]))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString("  ")
	b.WriteString(labelStyle.Render("strum: "))
	b.WriteString(strumCell(m.snap.StrumUp, m.snap.StrumDown))
	b.WriteString(labelStyle.Render("   whammy: "))
	b.WriteString(whammyGauge(m.snap.Whammy, 10))
	b.WriteString("\n\n")

	width := m.width
	if width < 10 {
		width = 80
	}
	b.WriteString("  ")
	b.WriteString(dimStyle.Render(strings.Repeat("─", min(width-4, 76))))
	b.WriteString("\n")

	b.WriteString("  ")
	b.WriteString(helpStyle.Render(statsLine(m.stats)))
	b.WriteString("\n")
	if m.lastErr != "" {
		b.WriteString("  ")
		b.WriteString(errorStyle.Render(m.lastErr))
		b.WriteString("\n")
	}

	b.WriteString("\n  ")
	if m.sim != nil {
		b.WriteString(helpStyle.Render("1-5 frets • q-t solo • space strum • b bend • g genre • [/] pattern • p panic • ctrl+c quit"))
	} else {
		b.WriteString(helpStyle.Render("g genre • [/] pattern • p panic • q quit"))
	}
	b.WriteString("\n")

	return b.String()
}

// chordLabels resolves the five lane chords for display. The mapper decides
// what actually sounds; this is the harmonic cheat sheet next to each lane.
func (m model) chordLabels() [5]string {
	row := mapping.RowMain
	if m.soloRow {
		row = mapping.RowSolo
	}
	keyRoot := mapping.Note(m.mapper.KeyRoot())
	mode := mapping.ModeMinor
	if m.mapper.IsMajor() {
		mode = mapping.ModeMajor
	}
	chords, err := m.resolver.Resolve(mapping.ResolveRequest{
		Genre:   m.mapper.Genre(),
		KeyRoot: &keyRoot,
		Mode:    &mode,
		Row:     row,
	})
	var labels [5]string
	if err != nil {
		return labels
	}
	for i := 0; i < 5; i++ {
		if spec, ok := chords.At(i); ok {
			labels[i] = spec.DisplayName()
		} else {
			labels[i] = "-"
		}
	}
	return labels
}

func statusLine(m *mapping.Mapper) string {
	mode := "minor"
	if m.IsMajor() {
		mode = "major"
	}
	return fmt.Sprintf("genre: %s   key: %s %s   pattern: %s (%d)",
		m.Genre(), mapping.Note(m.KeyRoot()), mode, m.PatternName(), m.PatternIndex()+1)
}

func statsLine(stats audio.Stats) string {
	return fmt.Sprintf("voices %d • latency %.1f ms • underruns %d • dropped %d",
		stats.ActiveVoices, stats.EstimatedLatencyMs, stats.Underruns, stats.DroppedEvents)
}

func fretCell(held bool) string {
	if held {
		return "[●]"
	}
	return "[ ]"
}

func strumCell(up, down bool) string {
	switch {
	case up && down:
		return activeStyle.Render("▲▼")
	case up:
		return activeStyle.Render("▲ ")
	case down:
		return activeStyle.Render("▼ ")
	default:
		return dimStyle.Render("· ")
	}
}

// whammyGauge draws the bar deflection as a fixed-width meter.
func whammyGauge(value float32, width int) string {
	if value < 0 {
		value = -value
	}
	if value > 1 {
		value = 1
	}
	filled := int(value * float32(width))
	return activeStyle.Render(strings.Repeat("█", filled)) +
		dimStyle.Render(strings.Repeat("░", width-filled))
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func nextGenre(g mapping.Genre) mapping.Genre {
	genres := mapping.Genres()
	for i, cur := range genres {
		if cur == g {
			return genres[(i+1)%len(genres)]
		}
	}
	return genres[0]
}

// runTUI drives the live session until the user quits.
func runTUI(deps sessionDeps) error {
	p := tea.NewProgram(initialModel(deps), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
