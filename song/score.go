package song

import "encoding/json"

// Grade is the letter rating for a run, derived from hit accuracy.
type Grade int

const (
	GradeS Grade = iota
	GradeA
	GradeB
	GradeC
	GradeD
	GradeF
)

func (g Grade) String() string {
	switch g {
	case GradeS:
		return "S"
	case GradeA:
		return "A"
	case GradeB:
		return "B"
	case GradeC:
		return "C"
	case GradeD:
		return "D"
	default:
		return "F"
	}
}

// MarshalJSON writes the grade as its letter, for session result files.
func (g Grade) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.String())
}

func gradeFor(accuracy float64) Grade {
	switch {
	case accuracy >= 95:
		return GradeS
	case accuracy >= 90:
		return GradeA
	case accuracy >= 80:
		return GradeB
	case accuracy >= 70:
		return GradeC
	case accuracy >= 60:
		return GradeD
	default:
		return GradeF
	}
}

// Scorer accumulates score, combo and hit statistics for one run. Points per
// hit are floor(100 * accuracy * multiplier); the multiplier steps 1x/2x/3x/4x
// at combo 10/20/30. A miss resets the combo, never the score.
type Scorer struct {
	score      int
	combo      int
	maxCombo   int
	hits       int
	misses     int
	multiplier int
}

// ScoreData is a point-in-time snapshot for UI consumption and session
// result files.
type ScoreData struct {
	Score      int     `json:"score"`
	Combo      int     `json:"combo"`
	MaxCombo   int     `json:"maxCombo"`
	Hits       int     `json:"hits"`
	Misses     int     `json:"misses"`
	Multiplier int     `json:"multiplier"`
	Accuracy   float64 `json:"accuracy"`
	Grade      Grade   `json:"grade"`
}

func NewScorer() *Scorer {
	return &Scorer{multiplier: 1}
}

// Reset clears the run back to a fresh scorer.
func (s *Scorer) Reset() {
	*s = Scorer{multiplier: 1}
}

// RegisterHit folds one judgement into the running score.
func (s *Scorer) RegisterHit(result HitResult) {
	if !result.Hit {
		s.combo = 0
		s.multiplier = 1
		s.misses++
		return
	}

	s.combo++
	s.hits++
	s.maxCombo = max(s.maxCombo, s.combo)

	switch {
	case s.combo >= 30:
		s.multiplier = 4
	case s.combo >= 20:
		s.multiplier = 3
	case s.combo >= 10:
		s.multiplier = 2
	default:
		s.multiplier = 1
	}

	s.score += int(100.0 * result.Accuracy * float64(s.multiplier))
}

// AddSustainBonus awards bonus points scaled by the current combo
// multiplier.
func (s *Scorer) AddSustainBonus(points int) {
	s.score += points * s.multiplier
}

// Accuracy is the hit percentage over all judged strums, 0 when nothing has
// been judged yet.
func (s *Scorer) Accuracy() float64 {
	total := s.hits + s.misses
	if total == 0 {
		return 0
	}
	return float64(s.hits) / float64(total) * 100.0
}

// Grade rates the run by its current accuracy.
func (s *Scorer) Grade() Grade { return gradeFor(s.Accuracy()) }

func (s *Scorer) Score() int      { return s.score }
func (s *Scorer) Combo() int      { return s.combo }
func (s *Scorer) MaxCombo() int   { return s.maxCombo }
func (s *Scorer) Hits() int       { return s.hits }
func (s *Scorer) Misses() int     { return s.misses }
func (s *Scorer) Multiplier() int { return s.multiplier }

// Data snapshots the scorer.
func (s *Scorer) Data() ScoreData {
	return ScoreData{
		Score:      s.score,
		Combo:      s.combo,
		MaxCombo:   s.maxCombo,
		Hits:       s.hits,
		Misses:     s.misses,
		Multiplier: s.multiplier,
		Accuracy:   s.Accuracy(),
		Grade:      s.Grade(),
	}
}
