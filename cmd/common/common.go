// Package common holds the glue shared by every subcommand: the boa param
// enricher, logging setup, and the application directories.
package common

import "github.com/GiGurra/boa/pkg/boa"

func DefaultParamEnricher() boa.ParamEnricher {
	return boa.ParamEnricherCombine(
		boa.ParamEnricherBool,
		boa.ParamEnricherName,
		boa.ParamEnricherShort,
	)
}
