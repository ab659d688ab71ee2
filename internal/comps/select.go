package comps

import (
	"sort"

	"go.uber.org/zap"

	"github.com/crestview-group/underwriting-cli/internal/model"
)

// Progressive relaxation thresholds, strict to loose.
var selectionThresholds = []float64{0.25, 0.10, 0.03}

// Selector ranks and selects comps for a subject property.
type Selector struct {
	MinComps int
	MaxComps int
}

// NewSelector returns a Selector; zero values fall back to 3 and 15.
func NewSelector(minComps, maxComps int) *Selector {
	if minComps <= 0 {
		minComps = 3
	}
	if maxComps <= 0 {
		maxComps = 15
	}
	return &Selector{MinComps: minComps, MaxComps: maxComps}
}

// Rank scores every candidate against the subject and returns them in
// descending relevance order. Ties keep input order so results are stable
// across runs.
func (s *Selector) Rank(subject *model.SubjectProperty, candidates []model.NormalizedComp) []model.ScoredComp {
	scored := make([]model.ScoredComp, 0, len(candidates))
	for i := range candidates {
		scored = append(scored, model.ScoredComp{
			Comp:      candidates[i],
			Relevance: Relevance(subject, &candidates[i]),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Relevance > scored[j].Relevance
	})
	return scored
}

// Select applies progressive threshold relaxation over ranked comps: the
// first threshold tier yielding at least MinComps wins, capped at MaxComps.
// When even the loosest tier falls short, the top MinComps are taken
// regardless of absolute relevance, so a usable set exists whenever enough
// raw comps do.
func (s *Selector) Select(ranked []model.ScoredComp) []model.ScoredComp {
	for _, threshold := range selectionThresholds {
		tier := aboveThreshold(ranked, threshold)
		if len(tier) >= s.MinComps {
			return s.cap(tier)
		}
	}

	zap.L().Debug("comps: threshold relaxation exhausted, taking top-n",
		zap.Int("candidates", len(ranked)),
		zap.Int("min_comps", s.MinComps),
	)
	if len(ranked) > s.MinComps {
		return ranked[:s.MinComps]
	}
	return ranked
}

func (s *Selector) cap(tier []model.ScoredComp) []model.ScoredComp {
	if len(tier) > s.MaxComps {
		return tier[:s.MaxComps]
	}
	return tier
}

// aboveThreshold returns the leading run of comps strictly above the
// threshold. Ranked input means a single cut point.
func aboveThreshold(ranked []model.ScoredComp, threshold float64) []model.ScoredComp {
	cut := len(ranked)
	for i, sc := range ranked {
		if sc.Relevance <= threshold {
			cut = i
			break
		}
	}
	return ranked[:cut]
}
