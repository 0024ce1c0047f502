// Package scoring computes deterministic, explainable compatibility scores
// between two user snapshots.
package scoring

import (
	"math"

	"github.com/okian/skillswap/internal/domain/model"
)

// Factor weights. They sum to 1.0 so the total stays within [0,100].
const (
	WeightSkillMatch          = 0.40
	WeightLevelCompatibility  = 0.20
	WeightLocationProximity   = 0.10
	WeightAvailabilityOverlap = 0.15
	WeightMutualSkills        = 0.10
	WeightRatingBonus         = 0.03
	WeightActivityBonus       = 0.02
)

const (
	minScore = 0
	maxScore = 100
)

// Scorer computes the compatibility of candidate for subject. The result is
// directional: subject's desired skills are matched against candidate's
// offered skills. An empty targetSkill means no target.
type Scorer interface {
	Score(subject, candidate model.UserSnapshot, targetSkill string) model.ScoreResult
}

// Engine is the stateless Scorer implementation. The zero value is ready to
// use and safe for concurrent use.
type Engine struct{}

// NewEngine returns a scoring engine.
func NewEngine() Engine { return Engine{} }

// Score implements Scorer.
func (Engine) Score(subject, candidate model.UserSnapshot, targetSkill string) model.ScoreResult {
	return Score(subject, candidate, targetSkill)
}

// Score computes the seven weighted factors and combines them.
func Score(subject, candidate model.UserSnapshot, targetSkill string) model.ScoreResult {
	target := model.NormalizeSkill(targetSkill)
	var (
		b       model.Breakdown
		reasons reasonSet
		total   float64
	)

	b.SkillMatch = skillMatch(subject, candidate, target)
	total += b.SkillMatch * WeightSkillMatch
	if b.SkillMatch > 0 {
		reasons.add(model.ReasonSkillMatch)
		if target != "" {
			reasons.add(model.ReasonExactSkillMatch)
		}
	}

	b.LevelCompatibility = levelCompatibility(subject, candidate, target)
	total += b.LevelCompatibility * WeightLevelCompatibility
	if b.LevelCompatibility > 0 {
		reasons.add(model.ReasonLevelCompatibility)
	}

	b.LocationProximity = locationProximity(subject.Location, candidate.Location)
	total += b.LocationProximity * WeightLocationProximity
	if b.LocationProximity > 0 {
		reasons.add(model.ReasonLocationProximity)
	}

	b.AvailabilityOverlap = availabilityOverlap(subject.Availability, candidate.Availability)
	total += b.AvailabilityOverlap * WeightAvailabilityOverlap
	if b.AvailabilityOverlap > 0 {
		reasons.add(model.ReasonAvailabilityOverlap)
	}

	b.MutualSkills = mutualSkills(subject, candidate)
	total += b.MutualSkills * WeightMutualSkills
	if b.MutualSkills > 0 {
		reasons.add(model.ReasonMutualSkills)
	}

	b.RatingBonus = ratingBonus(candidate.Stats)
	total += b.RatingBonus * WeightRatingBonus
	if b.RatingBonus > 0 {
		reasons.add(model.ReasonHighRating)
	}

	b.ActivityBonus = activityBonus(candidate.Stats)
	total += b.ActivityBonus * WeightActivityBonus
	if b.ActivityBonus > 0 {
		reasons.add(model.ReasonActiveUser)
	}

	return model.ScoreResult{
		Total:     int(clamp(math.Round(total))),
		Reasons:   reasons.list(),
		Breakdown: b,
	}
}

// reasonSet keeps tags unique in discovery order.
type reasonSet struct {
	items []model.Reason
}

func (r *reasonSet) add(reason model.Reason) {
	for _, x := range r.items {
		if x == reason {
			return
		}
	}
	r.items = append(r.items, reason)
}

func (r *reasonSet) list() []model.Reason {
	if r.items == nil {
		return []model.Reason{}
	}
	return r.items
}

func clamp(v float64) float64 {
	return math.Max(minScore, math.Min(maxScore, v))
}
