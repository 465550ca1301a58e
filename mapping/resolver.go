package mapping

import (
	"fmt"
	"sync"
)

// Role is a harmonic function within a key. Fret lanes bind to roles, and
// genre presets decide each role's chord quality.
type Role uint8

const (
	RoleI Role = iota
	RoleIV
	RoleV
	RoleBVII
	RoleII
	RoleVI
)

func (r Role) String() string {
	switch r {
	case RoleI:
		return "I"
	case RoleIV:
		return "IV"
	case RoleV:
		return "V"
	case RoleBVII:
		return "bVII"
	case RoleII:
		return "II"
	case RoleVI:
		return "VI"
	default:
		return "?"
	}
}

// interval returns the semitone distance from the key root for a role. VI
// is the only role that differs between modes.
func (r Role) interval(mode Mode) int {
	switch r {
	case RoleI:
		return 0
	case RoleIV:
		return 5
	case RoleV:
		return 7
	case RoleBVII:
		return 10
	case RoleII:
		return 2
	case RoleVI:
		if mode == ModeMinor {
			return 8
		}
		return 9
	default:
		return 0
	}
}

// Row distinguishes the main fret row from the solo row, which sounds an
// octave higher.
type Row uint8

const (
	RowMain Row = iota
	RowSolo
)

func (r Row) String() string {
	if r == RowSolo {
		return "solo"
	}
	return "main"
}

// fretRoles is the fixed lane-to-role binding, constant across genres.
// Orange carries II, or VI in presets that define VI instead.
var fretRoles = [5]Role{RoleI, RoleIV, RoleV, RoleBVII, RoleII}

// Override replaces the resolved chord for one fret lane in one row.
type Override struct {
	Fret int
	Row  Row
	Spec ChordSpec
}

// ChordMap holds resolved chords for the five fret lanes. Lanes whose role
// has no quality in the genre preset stay unset. Plain value type: copies
// are independent, so handing one out never exposes the resolver cache.
type ChordMap struct {
	specs [5]ChordSpec
	set   [5]bool
}

// At returns the chord for a fret lane, if the lane is mapped.
func (m ChordMap) At(fret int) (ChordSpec, bool) {
	if fret < 0 || fret > 4 || !m.set[fret] {
		return ChordSpec{}, false
	}
	return m.specs[fret], true
}

func (m *ChordMap) put(fret int, spec ChordSpec) {
	if fret < 0 || fret > 4 {
		return
	}
	m.specs[fret] = spec
	m.set[fret] = true
}

// ResolveRequest names what to resolve. Nil KeyRoot or Mode fall back to
// the genre preset's defaults.
type ResolveRequest struct {
	Genre     Genre
	KeyRoot   *Note
	Mode      *Mode
	Row       Row
	Overrides []Override
}

type resolveKey struct {
	genre   Genre
	keyRoot Note
	mode    Mode
	row     Row
}

// Resolver computes per-fret chord maps from genre presets, caching by
// (genre, key, mode, row). The mutex guards control-plane callers only;
// nothing on the audio path touches the resolver.
type Resolver struct {
	mu      sync.Mutex
	presets map[Genre]Preset
	cache   map[resolveKey]ChordMap
}

// NewResolver loads the built-in preset for every genre.
func NewResolver() *Resolver {
	presets := make(map[Genre]Preset, len(Genres()))
	for _, g := range Genres() {
		presets[g] = g.Preset()
	}
	return &Resolver{
		presets: presets,
		cache:   make(map[resolveKey]ChordMap),
	}
}

// LoadPreset replaces the preset for a genre. Cached resolutions for the
// old preset survive until ClearCache.
func (r *Resolver) LoadPreset(genre Genre, preset Preset) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.presets[genre] = preset
}

// Preset returns the loaded preset for a genre.
func (r *Resolver) Preset(genre Genre) (Preset, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.presets[genre]
	return p, ok
}

// Resolve produces the chord map for a request. Overrides are applied to a
// copy; the cache only ever holds unmodified resolutions.
func (r *Resolver) Resolve(req ResolveRequest) (ChordMap, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	preset, ok := r.presets[req.Genre]
	if !ok {
		return ChordMap{}, fmt.Errorf("resolve chord map: %w: %s", ErrUnknownGenre, req.Genre)
	}

	keyRoot := preset.DefaultKey
	if req.KeyRoot != nil {
		keyRoot = *req.KeyRoot
	}
	mode := preset.DefaultMode
	if req.Mode != nil {
		mode = *req.Mode
	}

	key := resolveKey{genre: req.Genre, keyRoot: keyRoot, mode: mode, row: req.Row}
	m, cached := r.cache[key]
	if !cached {
		m = resolveChordMap(preset, keyRoot, mode, req.Row)
		r.cache[key] = m
	}

	// m is a value copy here; mutating it cannot reach the cache.
	for _, o := range req.Overrides {
		if o.Row == req.Row {
			m.put(o.Fret, o.Spec)
		}
	}
	return m, nil
}

// ClearCache drops all cached resolutions. The only invalidation path;
// nothing expires implicitly.
func (r *Resolver) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[resolveKey]ChordMap)
}

func resolveChordMap(preset Preset, keyRoot Note, mode Mode, row Row) ChordMap {
	var m ChordMap
	for fret, role := range fretRoles {
		quality, ok := preset.Qualities[role]
		if !ok && role == RoleII {
			// Presets without a ii color hand the orange lane to VI.
			role = RoleVI
			quality, ok = preset.Qualities[role]
		}
		if !ok {
			continue
		}
		root := Note((int(keyRoot) + role.interval(mode)) % 12)
		spec := NewChordSpec(root, quality)
		if row == RowSolo {
			spec.OctaveOffset = 1
		}
		m.put(fret, spec)
	}
	return m
}
