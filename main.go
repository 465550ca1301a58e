package main

import (
	"runtime/debug"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/spf13/cobra"

	"github.com/janvanwassenhove/mITyGuitar/cmd/configcmd"
	"github.com/janvanwassenhove/mITyGuitar/cmd/devices"
	"github.com/janvanwassenhove/mITyGuitar/cmd/doctor"
	"github.com/janvanwassenhove/mITyGuitar/cmd/play"
	"github.com/janvanwassenhove/mITyGuitar/cmd/songcmd"
	"github.com/janvanwassenhove/mITyGuitar/cmd/soundfonts"
)

func main() {
	boa.CmdT[boa.NoParams]{
		Use:     "mityguitar",
		Short:   "Play a guitar controller as a real instrument",
		Version: appVersion(),
		SubCmds: []*cobra.Command{
			play.Cmd(),
			songcmd.Cmd(),
			soundfonts.Cmd(),
			devices.Cmd(),
			doctor.Cmd(),
			configcmd.Cmd(),
		},
	}.Run()
}

func appVersion() string {
	bi, hasBuilInfo := debug.ReadBuildInfo()
	if !hasBuilInfo {
		return "unknown-(no build info)"
	}

	versionString := bi.Main.Version
	if versionString == "" {
		versionString = "unknown-(no version)"
	}

	return versionString
}
