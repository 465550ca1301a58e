// Package songcmd plays a chart as a rhythm game: the transport scrolls chord
// events past the strike line, strums are judged against them, and the run
// ends in a scored session written to disk.
package songcmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/janvanwassenhove/mITyGuitar/audio"
	"github.com/janvanwassenhove/mITyGuitar/cmd/common"
	"github.com/janvanwassenhove/mITyGuitar/config"
	"github.com/janvanwassenhove/mITyGuitar/controller"
	"github.com/janvanwassenhove/mITyGuitar/mapping"
	"github.com/janvanwassenhove/mITyGuitar/song"
	"github.com/janvanwassenhove/mITyGuitar/soundfont"
	"github.com/janvanwassenhove/mITyGuitar/synth"
)

type Params struct {
	Chart      string  `pos:"true" required:"true" help:"Chart file to play"`
	Sim        bool    `help:"Use the keyboard simulator instead of a real controller"`
	Speed      float64 `default:"1.0" help:"Playback speed multiplier (0.75 to practice, 1.25 to show off)"`
	Instrument string  `optional:"true" default:"" help:"Instrument override (a name from the soundfonts list)"`
	Debug      bool    `help:"Verbose logging"`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:         "song",
		Short:       "Play a chart as a rhythm game",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			if err := Run(params); err != nil {
				fmt.Fprintf(os.Stderr, "song: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func Run(params *Params) error {
	common.InitLogger(params.Debug)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fontDir, err := cfg.SoundFontDir()
	if err != nil {
		return err
	}
	mgr, err := soundfont.NewManager(fontDir)
	if err != nil {
		return err
	}

	player := song.NewPlayer(availableRefs(mgr), song.InstrumentRef{
		Type:  song.InstrumentVirtual,
		Label: synth.CleanElectricGuitar.String(),
	})
	if err := player.LoadChartFile(params.Chart); err != nil {
		return err
	}

	if params.Instrument != "" {
		info, ok := mgr.GetInstrumentByName(params.Instrument)
		if !ok {
			return fmt.Errorf("instrument %q not found (see `mityguitar soundfonts`)", params.Instrument)
		}
		player.SetUserInstrument(&song.InstrumentRef{Type: string(info.Type), Label: info.Name})
	}

	resolved, err := player.ResolveInstrument()
	if err != nil {
		return err
	}
	if resolved.FallbackUsed {
		slog.Warn("chart's preferred instrument unavailable",
			"using", resolved.Label)
	}

	out := audio.NewOutput(uint32(cfg.Audio.SampleRate), cfg.Audio.BufferSize)
	if err := out.Start(); err != nil {
		return fmt.Errorf("start audio: %w", err)
	}
	defer out.Close()
	out.SetReleaseMultiplier(float32(cfg.Audio.ReleaseTimeMultiplier))
	out.SetSustainEnabled(cfg.Audio.SustainEnabled)
	out.SetSustainReleaseTime(float32(cfg.Audio.SustainReleaseTimeMs) / 1000)

	if err := applyResolved(out, mgr, resolved); err != nil {
		return err
	}

	player.SetSpeed(params.Speed)

	var source controller.Source
	var sim *controller.Simulator
	if params.Sim || cfg.Controller.Simulator {
		sim = controller.NewSimulator()
		source = sim
	} else {
		capture := controller.NewCapture(cfg.Controller.Bindings, controller.Callbacks{})
		if err := capture.Start(context.Background()); err != nil {
			return fmt.Errorf("start controller capture: %w (try --sim)", err)
		}
		defer capture.Stop()
		source = capture
	}

	// Rewind to the count-in, then roll.
	player.Stop()
	player.Play()

	return runTUI(gameDeps{
		player:     player,
		chart:      player.Chart(),
		source:     source,
		sim:        sim,
		mapper:     mapping.NewMapper(chartGenre(cfg, player.Chart())),
		output:     out,
		instrument: resolved.Label,
	})
}

// availableRefs flattens the manager's instrument list into the chart
// resolver's vocabulary.
func availableRefs(mgr *soundfont.Manager) []song.InstrumentRef {
	return lo.Map(mgr.Instruments(), func(info soundfont.InstrumentInfo, _ int) song.InstrumentRef {
		return song.InstrumentRef{Type: string(info.Type), Label: info.Name}
	})
}

func applyResolved(out *audio.Output, mgr *soundfont.Manager, resolved song.ResolvedInstrument) error {
	if resolved.Type == song.InstrumentVirtual {
		inst, err := synth.ParseInstrument(resolved.Label)
		if err != nil {
			return err
		}
		return out.SetVirtualInstrument(inst)
	}
	info, ok := mgr.GetByName(resolved.Label)
	if !ok {
		return fmt.Errorf("soundfont %q not found", resolved.Label)
	}
	return out.LoadSoundFont(info.Path)
}

// chartGenre picks the mapper genre for audio feedback: the chart's own
// preset when it names one, the configured genre otherwise.
func chartGenre(cfg config.Config, chart *song.Chart) mapping.Genre {
	if chart.Mapping.Preset != "" {
		if genre, err := mapping.ParseGenre(chart.Mapping.Preset); err == nil {
			return genre
		}
		slog.Warn("chart names an unknown preset, using configured genre",
			"preset", chart.Mapping.Preset)
	}
	genre, err := cfg.Genre()
	if err != nil {
		return mapping.GenreRock
	}
	return genre
}
