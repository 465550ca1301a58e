// Package soundfonts prints the instrument list: every .sf2 found in the
// soundfont directories plus the built-in virtual presets. With --watch it
// keeps running and re-renders whenever a file appears or disappears.
package soundfonts

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/janvanwassenhove/mITyGuitar/cmd/common"
	"github.com/janvanwassenhove/mITyGuitar/config"
	"github.com/janvanwassenhove/mITyGuitar/soundfont"
)

type Params struct {
	Dir   string `optional:"true" default:"" help:"Soundfont directory to scan (default: the configured one)"`
	Watch bool   `short:"w" help:"Keep running and re-render when soundfonts change on disk"`
	JSON  bool   `help:"Output as JSON"`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:         "soundfonts",
		Short:       "List available soundfonts and virtual instruments",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			if err := Run(params, os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "soundfonts: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func Run(params *Params, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	dir := params.Dir
	if dir == "" {
		dir, err = cfg.SoundFontDir()
		if err != nil {
			return err
		}
	}

	mgr, err := soundfont.NewManager(dir)
	if err != nil {
		return err
	}

	if params.JSON {
		data, err := json.MarshalIndent(mgr.Instruments(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, string(data))
		return nil
	}

	render(mgr, cfg.SoundFonts.Current, stdout)

	if !params.Watch {
		return nil
	}

	if err := mgr.Watch(func() { render(mgr, cfg.SoundFonts.Current, stdout) }); err != nil {
		return err
	}
	defer mgr.Stop()

	fmt.Fprintf(stdout, "watching %s (ctrl+c to stop)\n", dir)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	return nil
}

func render(mgr *soundfont.Manager, current string, stdout io.Writer) {
	instruments := mgr.Instruments()

	t := table.NewWriter()
	t.SetOutputMirror(stdout)
	t.SetStyle(table.StyleLight)
	t.SetAllowedRowLength(common.TermWidth())
	t.AppendHeader(table.Row{"Instrument", "Type", "Size", "Path"})
	for _, row := range instrumentRows(instruments, current) {
		t.AppendRow(row)
	}
	t.Render()

	if def, ok := mgr.DefaultGuitarInstrument(); ok {
		fmt.Fprintf(stdout, "default: %s\n", def.Name)
	}
}

// instrumentRows builds the table body. The currently configured soundfont
// gets a green name so it stands out in long lists.
func instrumentRows(instruments []soundfont.InstrumentInfo, current string) []table.Row {
	rows := make([]table.Row, 0, len(instruments))
	for _, info := range instruments {
		name := info.Name
		if info.Type == soundfont.TypeSoundFont && info.Name == current {
			name = text.FgGreen.Sprint(info.Name)
		}
		rows = append(rows, table.Row{name, string(info.Type), formatSize(info.SizeBytes), info.Path})
	}
	return rows
}

func formatSize(bytes int64) string {
	switch {
	case bytes <= 0:
		return "-"
	case bytes < 1024:
		return fmt.Sprintf("%d B", bytes)
	case bytes < 1024*1024:
		return fmt.Sprintf("%.1f KiB", float64(bytes)/1024)
	case bytes < 1024*1024*1024:
		return fmt.Sprintf("%.1f MiB", float64(bytes)/(1024*1024))
	default:
		return fmt.Sprintf("%.1f GiB", float64(bytes)/(1024*1024*1024))
	}
}
