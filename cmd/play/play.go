// Package play runs the live instrument: controller in, synthesized guitar
// out, with an interactive terminal UI showing frets, chords and the audio
// engine health.
package play

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/spf13/cobra"

	"github.com/janvanwassenhove/mITyGuitar/audio"
	"github.com/janvanwassenhove/mITyGuitar/cmd/common"
	"github.com/janvanwassenhove/mITyGuitar/config"
	"github.com/janvanwassenhove/mITyGuitar/controller"
	"github.com/janvanwassenhove/mITyGuitar/mapping"
	"github.com/janvanwassenhove/mITyGuitar/midiout"
	"github.com/janvanwassenhove/mITyGuitar/soundfont"
	"github.com/janvanwassenhove/mITyGuitar/synth"
)

type Params struct {
	Sim       bool   `help:"Use the keyboard simulator instead of a real controller"`
	Genre     string `optional:"true" default:"" help:"Genre preset (punk, rock, pop, folk, edm, metal)"`
	Key       string `optional:"true" default:"" help:"Key root, e.g. E, f#, Bb"`
	Mode      string `optional:"true" default:"" help:"major or minor"`
	SoundFont string `optional:"true" default:"" help:"Soundfont to play: a name from the soundfonts list or a .sf2 path"`
	Virtual   string `optional:"true" default:"" help:"Virtual instrument preset to play instead of a soundfont"`
	MidiOut   string `optional:"true" default:"" help:"Mirror events to a MIDI output port (name substring, or 'auto' for the first port)"`
	Debug     bool   `help:"Verbose logging"`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:         "play",
		Short:       "Play the guitar controller as a live instrument",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			if err := Run(params); err != nil {
				fmt.Fprintf(os.Stderr, "play: %v\n", err)
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

	out := audio.NewOutput(uint32(cfg.Audio.SampleRate), cfg.Audio.BufferSize)
	if err := out.Start(); err != nil {
		return fmt.Errorf("start audio: %w", err)
	}
	defer out.Close()
	out.SetReleaseMultiplier(float32(cfg.Audio.ReleaseTimeMultiplier))
	out.SetSustainEnabled(cfg.Audio.SustainEnabled)
	out.SetSustainReleaseTime(float32(cfg.Audio.SustainReleaseTimeMs) / 1000)

	instrument, err := pickInstrument(mgr, cfg, params.SoundFont, params.Virtual)
	if err != nil {
		return err
	}
	if err := applyInstrument(out, instrument); err != nil {
		return fmt.Errorf("load instrument %s: %w", instrument.Name, err)
	}
	if params.SoundFont != "" && instrument.Type == soundfont.TypeSoundFont {
		rememberSoundFont(&cfg, instrument)
	}

	mapper, err := buildMapper(cfg, params.Genre, params.Key, params.Mode)
	if err != nil {
		return err
	}

	var source controller.Source
	var sim *controller.Simulator
	var device string
	if params.Sim || cfg.Controller.Simulator {
		sim = controller.NewSimulator()
		source = sim
		device = "simulator"
	} else {
		capture := controller.NewCapture(cfg.Controller.Bindings, controller.Callbacks{})
		if err := capture.Start(context.Background()); err != nil {
			return fmt.Errorf("start controller capture: %w (try --sim)", err)
		}
		defer capture.Stop()
		source = capture
		if info, ok := capture.Device(); ok {
			device = info.Name
		}
	}

	var bridge *midiout.Bridge
	if params.MidiOut != "" {
		name := params.MidiOut
		if name == "auto" {
			name = ""
		}
		bridge, err = midiout.Open(name)
		if err != nil {
			return err
		}
		defer midiout.Shutdown()
		defer bridge.Close()
	}

	slog.Info("live session starting",
		"instrument", instrument.Name, "genre", mapper.Genre(), "device", device)

	return runTUI(sessionDeps{
		source:     source,
		sim:        sim,
		mapper:     mapper,
		resolver:   mapping.NewResolver(),
		output:     out,
		bridge:     bridge,
		device:     device,
		instrument: instrument.Name,
	})
}

// pickInstrument decides what to load, in priority order: the --soundfont
// flag, the --virtual flag, the font remembered in the config, and finally
// the best guitar the manager can find.
func pickInstrument(mgr *soundfont.Manager, cfg config.Config, soundFontFlag, virtualFlag string) (soundfont.InstrumentInfo, error) {
	if soundFontFlag != "" && virtualFlag != "" {
		return soundfont.InstrumentInfo{}, fmt.Errorf("use either --sound-font or --virtual, not both")
	}

	if soundFontFlag != "" {
		if info, ok := mgr.GetByName(soundFontFlag); ok {
			return soundfont.InstrumentInfo{
				Name: info.Name, Path: info.Path, SizeBytes: info.SizeBytes, Type: soundfont.TypeSoundFont,
			}, nil
		}
		if strings.EqualFold(filepath.Ext(soundFontFlag), ".sf2") {
			if _, err := os.Stat(soundFontFlag); err != nil {
				return soundfont.InstrumentInfo{}, fmt.Errorf("soundfont %s: %w", soundFontFlag, err)
			}
			name := strings.TrimSuffix(filepath.Base(soundFontFlag), filepath.Ext(soundFontFlag))
			return soundfont.InstrumentInfo{Name: name, Path: soundFontFlag, Type: soundfont.TypeSoundFont}, nil
		}
		return soundfont.InstrumentInfo{}, fmt.Errorf("soundfont %q not found (see `mityguitar soundfonts`)", soundFontFlag)
	}

	if virtualFlag != "" {
		inst, err := synth.ParseInstrument(virtualFlag)
		if err != nil {
			return soundfont.InstrumentInfo{}, err
		}
		return soundfont.InstrumentInfo{Name: inst.String(), Type: soundfont.TypeVirtual}, nil
	}

	if cfg.SoundFonts.Current != "" {
		if info, ok := mgr.GetInstrumentByName(cfg.SoundFonts.Current); ok {
			return info, nil
		}
		slog.Warn("configured soundfont not found, falling back",
			"name", cfg.SoundFonts.Current)
	}

	if info, ok := mgr.DefaultGuitarInstrument(); ok {
		return info, nil
	}
	return soundfont.InstrumentInfo{}, fmt.Errorf("no instruments available")
}

func applyInstrument(out *audio.Output, info soundfont.InstrumentInfo) error {
	if info.Type == soundfont.TypeVirtual {
		inst, ok := info.SynthInstrument()
		if !ok {
			return fmt.Errorf("unknown virtual instrument %q", info.Name)
		}
		return out.SetVirtualInstrument(inst)
	}
	return out.LoadSoundFont(info.Path)
}

// rememberSoundFont persists an explicitly requested font as the new
// default. Failure to save is logged, not fatal: the session still plays.
func rememberSoundFont(cfg *config.Config, info soundfont.InstrumentInfo) {
	cfg.SoundFonts.Current = info.Name
	cfg.AddRecentSoundFont(info.Path)
	if err := cfg.Save(); err != nil {
		slog.Warn("could not persist soundfont choice", "error", err)
	}
}

// buildMapper assembles the mapper from config plus flag overrides. Flags
// win over config; config falls back to the genre's own key and mode.
func buildMapper(cfg config.Config, genreFlag, keyFlag, modeFlag string) (*mapping.Mapper, error) {
	genre, err := cfg.Genre()
	if err != nil {
		return nil, err
	}
	if genreFlag != "" {
		if genre, err = mapping.ParseGenre(genreFlag); err != nil {
			return nil, err
		}
	}

	keyRoot := genre.DefaultKeyRoot()
	if root, ok, err := cfg.KeyRoot(); err != nil {
		return nil, err
	} else if ok {
		keyRoot = root
	}
	if keyFlag != "" {
		if keyRoot, err = mapping.ParseNote(keyFlag); err != nil {
			return nil, err
		}
	}

	mode := genre.DefaultMode()
	if m, ok, err := cfg.Mode(); err != nil {
		return nil, err
	} else if ok {
		mode = m
	}
	if modeFlag != "" {
		if mode, err = mapping.ParseMode(modeFlag); err != nil {
			return nil, err
		}
	}

	mapper := mapping.NewMapperKeyMode(genre, uint8(keyRoot), mode == mapping.ModeMajor)
	for i := 0; i < cfg.Mapping.PatternIndex; i++ {
		mapper.NextPattern()
	}
	return mapper, nil
}
