// Package doctor runs a quick health check over every subsystem the
// instrument needs: config, soundfonts, controllers, MIDI, the audio
// device, and system headroom.
package doctor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/spf13/cobra"

	"github.com/janvanwassenhove/mITyGuitar/audio"
	"github.com/janvanwassenhove/mITyGuitar/cmd/common"
	"github.com/janvanwassenhove/mITyGuitar/config"
	"github.com/janvanwassenhove/mITyGuitar/controller"
	"github.com/janvanwassenhove/mITyGuitar/midiout"
	"github.com/janvanwassenhove/mITyGuitar/soundfont"
)

type Params struct {
	SkipAudio bool `help:"Skip opening the audio device (useful on headless machines)"`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:         "doctor",
		Short:       "Check that audio, controllers and soundfonts are usable",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			if err := Run(params, os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "doctor: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

type checkResult struct {
	name   string
	ok     bool
	detail string
}

func Run(params *Params, stdout io.Writer) error {
	results := runChecks(params.SkipAudio)
	renderResults(results, stdout)

	if n := countFailures(results); n > 0 {
		return fmt.Errorf("%d of %d checks failed", n, len(results))
	}
	fmt.Fprintln(stdout, "all good, ready to play")
	return nil
}

func runChecks(skipAudio bool) []checkResult {
	var results []checkResult

	cfg, err := config.Load()
	if err != nil {
		results = append(results, checkResult{"config", false, err.Error()})
		cfg = config.Default()
	} else {
		path, _ := config.Path()
		results = append(results, checkResult{"config", true, path})
	}

	results = append(results, checkSoundFonts(cfg))

	// No controller is fine (the simulator covers that); a broken joystick
	// subsystem is not.
	if devices, err := controller.ListDevices(cfg.Controller.Bindings); err != nil {
		results = append(results, checkResult{"controller", false, err.Error()})
	} else if len(devices) == 0 {
		results = append(results, checkResult{"controller", true, "none detected (use --sim)"})
	} else {
		results = append(results, checkResult{"controller",
			true, fmt.Sprintf("%d detected, first: %s", len(devices), devices[0].Name)})
	}

	results = append(results, checkResult{"midi",
		true, fmt.Sprintf("%d output ports", len(midiout.Ports()))})

	if skipAudio {
		results = append(results, checkResult{"audio", true, "skipped"})
	} else {
		results = append(results, checkAudio(cfg))
	}

	results = append(results, checkSystem())
	return results
}

func checkSoundFonts(cfg config.Config) checkResult {
	dir, err := cfg.SoundFontDir()
	if err != nil {
		return checkResult{"soundfonts", false, err.Error()}
	}
	mgr, err := soundfont.NewManager(dir)
	if err != nil {
		return checkResult{"soundfonts", false, err.Error()}
	}
	fonts := len(mgr.SoundFonts())
	virtuals := len(mgr.Instruments()) - fonts
	return checkResult{"soundfonts", true,
		fmt.Sprintf("%d on disk, %d virtual presets", fonts, virtuals)}
}

func checkAudio(cfg config.Config) checkResult {
	out := audio.NewOutput(uint32(cfg.Audio.SampleRate), cfg.Audio.BufferSize)
	if err := out.Start(); err != nil {
		return checkResult{"audio", false, err.Error()}
	}
	defer out.Close()

	// Give the stream a moment to prove it is actually pulling samples.
	time.Sleep(150 * time.Millisecond)
	if err := out.CheckHealth(); err != nil {
		if !errors.Is(err, audio.ErrStreamStalled) {
			return checkResult{"audio", false, err.Error()}
		}
		if err := out.Reconnect(); err != nil {
			return checkResult{"audio", false, fmt.Sprintf("stalled, reconnect failed: %v", err)}
		}
	}

	stats := out.Stats()
	return checkResult{"audio", true,
		fmt.Sprintf("%.1f ms latency (%d frames @ %d Hz)",
			stats.EstimatedLatencyMs, stats.BufferSize, stats.SampleRate)}
}

func checkSystem() checkResult {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return checkResult{"system", false, err.Error()}
	}
	usage, err := cpu.Percent(200*time.Millisecond, false)
	if err != nil || len(usage) == 0 {
		return checkResult{"system", true,
			fmt.Sprintf("%.1f GiB memory available", float64(vm.Available)/(1024*1024*1024))}
	}
	// Real-time synthesis wants headroom; flag a pegged machine.
	ok := usage[0] < 90
	return checkResult{"system", ok,
		fmt.Sprintf("%.0f%% cpu, %.1f GiB memory available",
			usage[0], float64(vm.Available)/(1024*1024*1024))}
}

func renderResults(results []checkResult, stdout io.Writer) {
	for _, r := range results {
		fmt.Fprintln(stdout, formatResult(r))
	}
}

func formatResult(r checkResult) string {
	mark := text.FgGreen.Sprint("✓")
	if !r.ok {
		mark = text.FgRed.Sprint("✗")
	}
	return fmt.Sprintf("%s %-12s %s", mark, r.name, r.detail)
}

func countFailures(results []checkResult) int {
	n := 0
	for _, r := range results {
		if !r.ok {
			n++
		}
	}
	return n
}
