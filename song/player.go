package song

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
)

// ErrNoChart is returned by operations that need a loaded chart.
var ErrNoChart = errors.New("no chart loaded")

// Player drives one rhythm-game run. It composes the chart, the transport
// clock, hit judgement and scoring behind a single facade so the command
// layer only talks to one object.
type Player struct {
	chart     *Chart
	transport *Transport
	detector  *HitDetector
	scorer    *Scorer
	resolver  *InstrumentResolver
	override  *InstrumentRef
}

// NewPlayer takes the instruments present on this machine and the global
// default instrument used when a chart's preferences cannot be satisfied.
func NewPlayer(available []InstrumentRef, globalDefault InstrumentRef) *Player {
	return &Player{
		transport: NewTransport(120, [2]int{4, 4}, 2),
		detector:  NewHitDetector(nil),
		scorer:    NewScorer(),
		resolver:  NewInstrumentResolver(available, globalDefault),
	}
}

// LoadChart parses and validates a chart document, then re-initializes the
// transport and hit detector from it and resets the score. A chart that
// fails validation leaves the previous state untouched.
func (p *Player) LoadChart(data []byte) error {
	chart, err := ParseChart(data)
	if err != nil {
		return err
	}
	p.transport = NewTransport(chart.Clock.BPM, chart.Clock.TimeSig, chart.Clock.CountInBars)
	p.detector = NewHitDetector(chart.Mapping.Chords)
	p.scorer.Reset()
	p.chart = chart
	slog.Info("chart loaded",
		"title", chart.Meta.Title,
		"artist", chart.Meta.Artist,
		"bpm", chart.Clock.BPM,
		"events", len(chart.AllChordEvents()))
	return nil
}

// LoadChartFile reads a chart from disk and loads it.
func (p *Player) LoadChartFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read chart: %w", err)
	}
	return p.LoadChart(data)
}

// Chart returns the loaded chart, or nil.
func (p *Player) Chart() *Chart { return p.chart }

func (p *Player) Play()  { p.transport.Play() }
func (p *Player) Pause() { p.transport.Pause() }

// Stop rewinds the transport to the count-in and clears judgement and score
// state.
func (p *Player) Stop() {
	p.transport.Stop()
	p.detector.Reset()
	p.scorer.Reset()
}

// Seek jumps to the given beat, preserving the playing state.
func (p *Player) Seek(beat float64) { p.transport.Seek(beat) }

// SetSpeed changes the playback speed multiplier.
func (p *Player) SetSpeed(multiplier float64) { p.transport.SetSpeed(multiplier) }

// CurrentBeat returns the transport's beat position.
func (p *Player) CurrentBeat() float64 { return p.transport.CurrentBeat() }

// TransportState snapshots the transport for the UI.
func (p *Player) TransportState() TransportState { return p.transport.State() }

// CheckStrum judges a strum with the given chart fret names held, folds the
// result into the score, and returns it. ok is false when no chart is
// loaded.
func (p *Player) CheckStrum(pressedFrets []string) (result HitResult, ok bool) {
	if p.chart == nil {
		return HitResult{}, false
	}
	beat := p.transport.CurrentBeat()
	events := p.chart.EventsInRange(beat-HitWindow, beat+HitWindow)
	result = p.detector.CheckStrum(beat, pressedFrets, events)
	p.scorer.RegisterHit(result)
	return result, true
}

// UpdateSustain reports whether an open sustain window is still held at the
// current beat.
func (p *Player) UpdateSustain(pressedFrets []string) bool {
	return p.detector.UpdateSustain(p.transport.CurrentBeat(), pressedFrets)
}

// AddSustainBonus awards sustain bonus points through the scorer.
func (p *Player) AddSustainBonus(points int) { p.scorer.AddSustainBonus(points) }

// Score snapshots the current score.
func (p *Player) Score() ScoreData { return p.scorer.Data() }

// SetUserInstrument sets or clears (nil) the user's instrument override.
func (p *Player) SetUserInstrument(ref *InstrumentRef) { p.override = ref }

// ResolveInstrument resolves the loaded chart's instrument preferences
// against the available instruments.
func (p *Player) ResolveInstrument() (ResolvedInstrument, error) {
	if p.chart == nil {
		return ResolvedInstrument{}, ErrNoChart
	}
	var override *InstrumentRef
	if p.chart.Playback.AllowUserOverride {
		override = p.override
	}
	return p.resolver.Resolve(
		p.chart.Playback.DefaultInstrument,
		p.chart.Playback.FallbackInstrument,
		override,
	), nil
}

// AvailableInstruments lists the instruments the player can resolve to.
func (p *Player) AvailableInstruments() []InstrumentRef {
	return p.resolver.Available()
}

// SessionResult is the persisted outcome of one run.
type SessionResult struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Artist   string    `json:"artist"`
	PlayedAt time.Time `json:"playedAt"`
	Score    ScoreData `json:"score"`
}

// SessionResult snapshots the current run under a fresh session id.
func (p *Player) SessionResult() SessionResult {
	var title, artist string
	if p.chart != nil {
		title = p.chart.Meta.Title
		artist = p.chart.Meta.Artist
	}
	return SessionResult{
		ID:       uuid.New().String(),
		Title:    title,
		Artist:   artist,
		PlayedAt: time.Now(),
		Score:    p.scorer.Data(),
	}
}
