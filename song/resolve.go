package song

import (
	"slices"

	"github.com/samber/lo"
)

// ResolvedInstrument is the outcome of instrument resolution for a chart.
type ResolvedInstrument struct {
	Type         string
	Label        string
	Available    bool
	FallbackUsed bool
}

// InstrumentResolver picks a playable instrument from a chart's
// preferences and the set of instruments actually present on this machine.
type InstrumentResolver struct {
	available     []InstrumentRef
	globalDefault InstrumentRef
}

// NewInstrumentResolver takes the instruments present on this machine and a
// global default used when neither the chart's choice nor its fallback is
// available. The global default should always be loadable (a built-in
// virtual preset).
func NewInstrumentResolver(available []InstrumentRef, globalDefault InstrumentRef) *InstrumentResolver {
	return &InstrumentResolver{
		available:     slices.Clone(available),
		globalDefault: globalDefault,
	}
}

// Resolve tries the user override first, then the chart default, then the
// chart fallback, and finally the global default.
func (r *InstrumentResolver) Resolve(def, fallback InstrumentRef, userOverride *InstrumentRef) ResolvedInstrument {
	if userOverride != nil && r.isAvailable(*userOverride) {
		return ResolvedInstrument{Type: userOverride.Type, Label: userOverride.Label, Available: true}
	}
	if r.isAvailable(def) {
		return ResolvedInstrument{Type: def.Type, Label: def.Label, Available: true}
	}
	if r.isAvailable(fallback) {
		return ResolvedInstrument{Type: fallback.Type, Label: fallback.Label, Available: true, FallbackUsed: true}
	}
	return ResolvedInstrument{
		Type:         r.globalDefault.Type,
		Label:        r.globalDefault.Label,
		Available:    true,
		FallbackUsed: true,
	}
}

// Available lists the instruments the resolver knows about.
func (r *InstrumentResolver) Available() []InstrumentRef {
	return r.available
}

func (r *InstrumentResolver) isAvailable(ref InstrumentRef) bool {
	return lo.ContainsBy(r.available, func(have InstrumentRef) bool {
		return have.Type == ref.Type && have.Label == ref.Label
	})
}
