package songcmd

import (
	"cmp"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/janvanwassenhove/mITyGuitar/audio"
	"github.com/janvanwassenhove/mITyGuitar/cmd/common"
	"github.com/janvanwassenhove/mITyGuitar/controller"
	"github.com/janvanwassenhove/mITyGuitar/mapping"
	"github.com/janvanwassenhove/mITyGuitar/song"
)

const pollInterval = 33 * time.Millisecond

// hitFlashTicks is how long a judgement stays on screen, in poll ticks.
const hitFlashTicks = 15

// sustainBonusStep awards one bonus point per this many sustained beats.
const sustainBonusStep = 0.1

// highwayBeats is how far ahead of the strike line the UI shows events.
const highwayBeats = 8.0

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("250"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	hitStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46"))
	missStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	countInStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("226"))
	scoreStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	lyricStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("153"))

	laneStyles = [5]lipgloss.Style{
		lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46")),
		lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("226")),
		lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208")),
	}
)

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

type gameDeps struct {
	player     *song.Player
	chart      *song.Chart
	source     controller.Source
	sim        *controller.Simulator // nil when a real controller drives the run
	mapper     *mapping.Mapper
	output     *audio.Output
	instrument string
}

type model struct {
	gameDeps

	snap      controller.Snapshot
	transport song.TransportState
	score     song.ScoreData

	prevStrum     bool
	sustaining    bool
	sustainAnchor float64

	lastHit  song.HitResult
	hitTicks int

	finished   bool
	resultPath string
	lastErr    string
	width      int
}

func initialModel(deps gameDeps) model {
	return model{gameDeps: deps}
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
		m = m.tick()
		return m, tickCmd()
	}
	return m, nil
}

func (m model) handleKey(key string) (tea.Model, tea.Cmd) {
	if key == "ctrl+c" {
		return m.quit()
	}

	if m.finished {
		// The run is over, so the simulator no longer owns the keyboard.
		switch key {
		case "q", "esc", "enter":
			return m.quit()
		case "s":
			return m.restart(), nil
		}
		return m, nil
	}

	switch key {
	case "p":
		if m.transport.Playing {
			m.player.Pause()
		} else {
			m.player.Play()
		}
		return m, nil
	case "s":
		return m.restart(), nil
	}

	if m.sim != nil {
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

// restart rewinds to the count-in and starts a fresh run.
func (m model) restart() model {
	m = m.send(m.mapper.Panic())
	m.player.Stop()
	m.player.Play()
	m.finished = false
	m.resultPath = ""
	m.prevStrum = false
	m.sustaining = false
	m.hitTicks = 0
	return m
}

// tick is one frame: poll the controller, sound the strings, judge strums
// against the chart, and settle the run when the last beat has passed.
func (m model) tick() model {
	snap := m.source.State()
	m = m.send(m.mapper.Process(snap))
	m.snap = snap

	m.transport = m.player.TransportState()
	frets := song.FretNames(snap.Frets())

	strum := snap.IsStrumming()
	if strum && !m.prevStrum && m.transport.Playing && !m.transport.InCountIn && !m.finished {
		if result, ok := m.player.CheckStrum(frets); ok {
			m.lastHit = result
			m.hitTicks = hitFlashTicks
		}
	}
	m.prevStrum = strum

	if m.player.UpdateSustain(frets) {
		if !m.sustaining {
			m.sustaining = true
			m.sustainAnchor = m.transport.CurrentBeat
		}
		for m.transport.CurrentBeat-m.sustainAnchor >= sustainBonusStep {
			m.player.AddSustainBonus(1)
			m.sustainAnchor += sustainBonusStep
		}
	} else {
		m.sustaining = false
	}

	if m.hitTicks > 0 {
		m.hitTicks--
	}
	m.score = m.player.Score()

	if !m.finished && !m.transport.InCountIn && m.transport.CurrentBeat >= m.chart.TotalBeats() {
		m = m.finish()
	}
	return m
}

// finish pauses the transport, silences the strings and writes the session
// result next to earlier runs.
func (m model) finish() model {
	m.finished = true
	m.player.Pause()
	m = m.send(m.mapper.Panic())

	result := m.player.SessionResult()
	path, err := writeSessionResult(common.SessionsDir(), result)
	if err != nil {
		m.lastErr = err.Error()
		return m
	}
	m.resultPath = path
	return m
}

func (m model) send(events []mapping.Event) model {
	if len(events) == 0 {
		return m
	}
	if err := m.output.SendEvents(events); err != nil {
		m.lastErr = err.Error()
	}
	return m
}

func writeSessionResult(dir string, result song.SessionResult) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create sessions dir: %w", err)
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, result.ID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write session result: %w", err)
	}
	return path, nil
}

func (m model) View() string {
	if m.finished {
		return m.finishedView()
	}

	var b strings.Builder

	b.WriteString("\n  ")
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s — %s", m.chart.Meta.Title, m.chart.Meta.Artist)))
	b.WriteString(labelStyle.Render(fmt.Sprintf("   %s", m.instrument)))
	b.WriteString("\n\n")

	b.WriteString("  ")
	if m.transport.InCountIn {
		b.WriteString(countInStyle.Render(countInLabel(m.transport.CurrentBeat)))
	} else {
		b.WriteString(labelStyle.Render(transportLine(m.transport)))
		if section, ok := m.chart.SectionAt(m.transport.CurrentBeat); ok {
			b.WriteString(labelStyle.Render("   " + section.Name))
		}
	}
	b.WriteString("\n\n")

	for _, line := range m.highwayLines() {
		b.WriteString("  ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString("  ")
	b.WriteString(fretLine(m.snap.Frets()))
	b.WriteString("\n\n")

	b.WriteString("  ")
	if m.hitTicks > 0 {
		b.WriteString(judgementLabel(m.lastHit))
	} else if lyric := currentLyric(m.chart, m.transport.CurrentBeat); lyric != "" {
		b.WriteString(lyricStyle.Render("♪ " + lyric))
	}
	b.WriteString("\n\n")

	b.WriteString("  ")
	b.WriteString(scoreStyle.Render(scoreLine(m.score)))
	b.WriteString("\n")

	b.WriteString("  ")
	b.WriteString(progressGauge(m.transport.CurrentBeat, m.chart.TotalBeats(), 40))
	b.WriteString("\n")

	if m.lastErr != "" {
		b.WriteString("  ")
		b.WriteString(missStyle.Render(m.lastErr))
		b.WriteString("\n")
	}

	b.WriteString("\n  ")
	if m.sim != nil {
		b.WriteString(helpStyle.Render("1-5 frets • space strum • p pause • s restart • ctrl+c quit"))
	} else {
		b.WriteString(helpStyle.Render("p pause • s restart • q quit"))
	}
	b.WriteString("\n")

	return b.String()
}

func (m model) finishedView() string {
	var b strings.Builder

	b.WriteString("\n  ")
	b.WriteString(titleStyle.Render("Run complete"))
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render(fmt.Sprintf("  %s — %s\n\n", m.chart.Meta.Title, m.chart.Meta.Artist)))

	b.WriteString(scoreStyle.Render(fmt.Sprintf("  score      %d\n", m.score.Score)))
	b.WriteString(fmt.Sprintf("  grade      %s\n", m.score.Grade))
	b.WriteString(fmt.Sprintf("  accuracy   %.1f%%\n", m.score.Accuracy))
	b.WriteString(fmt.Sprintf("  max combo  x%d\n", m.score.MaxCombo))
	b.WriteString(fmt.Sprintf("  hits       %d\n", m.score.Hits))
	b.WriteString(fmt.Sprintf("  misses     %d\n", m.score.Misses))

	if m.resultPath != "" {
		b.WriteString("\n  ")
		b.WriteString(dimStyle.Render("saved " + m.resultPath))
		b.WriteString("\n")
	}
	if m.lastErr != "" {
		b.WriteString("\n  ")
		b.WriteString(missStyle.Render(m.lastErr))
		b.WriteString("\n")
	}

	b.WriteString("\n  ")
	b.WriteString(helpStyle.Render("s play again • q quit"))
	b.WriteString("\n")
	return b.String()
}

// highwayLines lists the next few authored chords above the strike line,
// nearest last, with per-lane colored fret names.
func (m model) highwayLines() []string {
	beat := m.transport.CurrentBeat
	events := m.chart.EventsInRange(beat, beat+highwayBeats)
	// Lanes are flattened in lane order; the highway wants beat order.
	slices.SortStableFunc(events, func(a, b song.ChordEvent) int {
		return cmp.Compare(a.Beat, b.Beat)
	})
	if len(events) > 6 {
		events = events[:6]
	}

	lines := make([]string, 0, len(events)+1)
	for i := len(events) - 1; i >= 0; i-- {
		ev := events[i]
		label := fmt.Sprintf("%5.1f  %-6s ", ev.Beat-beat, ev.Chord)
		lines = append(lines, dimStyle.Render(label)+fretNameCells(m.chart, ev.Chord))
	}
	lines = append(lines, titleStyle.Render("━━━━━ strike line ━━━━━"))
	return lines
}

// fretNameCells renders a chord's required frets in their lane colors.
func fretNameCells(chart *song.Chart, chord string) string {
	chordMapping, ok := chart.Mapping.Chords[chord]
	if !ok {
		return ""
	}
	parts := make([]string, 0, len(chordMapping.Frets))
	for _, name := range chordMapping.Frets {
		if lane, ok := song.FretLane(name); ok {
			parts = append(parts, laneStyles[lane].Render(name))
		} else {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, " ")
}

func fretLine(frets [5]bool) string {
	var b strings.Builder
	for i, held := range frets {
		cell := "[ ]"
		if held {
			cell = "[●]"
		}
		b.WriteString(laneStyles[i].Render(cell))
		b.WriteString(" ")
	}
	return b.String()
}

func countInLabel(beat float64) string {
	return fmt.Sprintf("count-in %d", int(math.Ceil(-beat)))
}

func transportLine(ts song.TransportState) string {
	return fmt.Sprintf("bar %d beat %.0f   %.0f bpm   %.2fx",
		ts.Bar+1, ts.BeatInBar+1, ts.BPM, ts.Speed)
}

func judgementLabel(result song.HitResult) string {
	if result.Hit {
		label := fmt.Sprintf("HIT %s  %.0f%%", result.Chord, result.Accuracy*100)
		if result.Sustain {
			label += "  hold!"
		}
		return hitStyle.Render(label)
	}
	return missStyle.Render(fmt.Sprintf("MISS (%s)", result.Miss))
}

func scoreLine(score song.ScoreData) string {
	return fmt.Sprintf("score %d   combo x%d   mult x%d   acc %.0f%%   %s",
		score.Score, score.Combo, score.Multiplier, score.Accuracy, score.Grade)
}

// currentLyric picks the most recent lyric line at or before the beat.
func currentLyric(chart *song.Chart, beat float64) string {
	lyrics := chart.LyricsInRange(beat-4, beat)
	if len(lyrics) == 0 {
		return ""
	}
	return lyrics[len(lyrics)-1].Text
}

func progressGauge(beat, total float64, width int) string {
	if total <= 0 {
		return ""
	}
	frac := beat / total
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	filled := int(frac * float64(width))
	return dimStyle.Render("[") +
		titleStyle.Render(strings.Repeat("=", filled)) +
		dimStyle.Render(strings.Repeat("-", width-filled)+"]")
}

func runTUI(deps gameDeps) error {
	p := tea.NewProgram(initialModel(deps), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
