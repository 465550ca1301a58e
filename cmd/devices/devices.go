// Package devices lists the hardware the instrument can use: joysticks,
// MIDI outputs, and the configured audio format.
package devices

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/janvanwassenhove/mITyGuitar/cmd/common"
	"github.com/janvanwassenhove/mITyGuitar/config"
	"github.com/janvanwassenhove/mITyGuitar/controller"
	"github.com/janvanwassenhove/mITyGuitar/midiout"
)

type Params struct {
	JSON bool `help:"Output as JSON"`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:         "devices",
		Short:       "List controllers, MIDI outputs and the audio configuration",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			if err := Run(params, os.Stdout, os.Stderr); err != nil {
				fmt.Fprintf(os.Stderr, "devices: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

type listing struct {
	Controllers []controller.DeviceInfo `json:"controllers"`
	MidiOutputs []string                `json:"midiOutputs"`
	Audio       config.AudioConfig      `json:"audio"`
}

func Run(params *Params, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Sections degrade independently: a missing joystick subsystem must not
	// hide the MIDI ports.
	controllers, err := controller.ListDevices(cfg.Controller.Bindings)
	if err != nil {
		fmt.Fprintf(stderr, "devices: controller listing unavailable: %v\n", err)
	}
	ports := midiout.Ports()

	if params.JSON {
		data, err := json.MarshalIndent(listing{
			Controllers: controllers,
			MidiOutputs: ports,
			Audio:       cfg.Audio,
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, string(data))
		return nil
	}

	fmt.Fprintln(stdout, "Controllers")
	if len(controllers) == 0 {
		fmt.Fprintln(stdout, "  none detected (try `mityguitar play --sim`)")
	} else {
		t := newTable(stdout)
		t.AppendHeader(table.Row{"#", "Name", "Buttons", "Axes", "Hats", "Strum bar"})
		for _, d := range controllers {
			t.AppendRow(table.Row{d.Index, d.Name, d.Buttons, d.Axes, d.Hats, strumLabel(d.HasStrumBar)})
		}
		t.Render()
	}

	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "MIDI outputs")
	if len(ports) == 0 {
		fmt.Fprintln(stdout, "  none available")
	} else {
		t := newTable(stdout)
		t.AppendHeader(table.Row{"#", "Port"})
		for i, port := range ports {
			t.AppendRow(table.Row{i, port})
		}
		t.Render()
	}

	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Audio")
	t := newTable(stdout)
	for _, row := range audioRows(cfg.Audio) {
		t.AppendRow(row)
	}
	t.Render()

	return nil
}

func newTable(stdout io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(stdout)
	t.SetStyle(table.StyleLight)
	t.SetAllowedRowLength(common.TermWidth())
	return t
}

func audioRows(audio config.AudioConfig) []table.Row {
	bufferMs := float64(audio.BufferSize) / float64(audio.SampleRate) * 1000
	return []table.Row{
		{"sample rate", fmt.Sprintf("%d Hz", audio.SampleRate)},
		{"buffer size", fmt.Sprintf("%d frames (%.1f ms)", audio.BufferSize, bufferMs)},
		{"release multiplier", fmt.Sprintf("%.1fx", audio.ReleaseTimeMultiplier)},
		{"sustain", sustainLabel(audio)},
	}
}

func strumLabel(hasStrumBar bool) string {
	if hasStrumBar {
		return "dedicated"
	}
	return "d-pad overload"
}

func sustainLabel(audio config.AudioConfig) string {
	if !audio.SustainEnabled {
		return "off"
	}
	return fmt.Sprintf("on (%.0f ms release)", audio.SustainReleaseTimeMs)
}
