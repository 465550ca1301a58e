// Package configcmd prints and initializes the application configuration.
package configcmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/spf13/cobra"

	"github.com/janvanwassenhove/mITyGuitar/cmd/common"
	"github.com/janvanwassenhove/mITyGuitar/config"
)

type Params struct {
	Init bool   `help:"Write the default config file if none exists yet."`
	Path string `optional:"true" help:"Config file path (default: the user config directory)." default:""`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:         "config",
		Short:       "Show or initialize the configuration",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			if err := Run(params, os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "config: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func Run(params *Params, stdout io.Writer) error {
	path := params.Path
	if path == "" {
		p, err := config.Path()
		if err != nil {
			return err
		}
		path = p
	}

	if params.Init {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists at %s", path)
		}
		if err := config.Default().SaveTo(path); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "wrote default config to %s\n", path)
		return nil
	}

	cfg, err := config.LoadFrom(path)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	fmt.Fprintf(stdout, "# %s\n%s\n", path, data)
	return nil
}
