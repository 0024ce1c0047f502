package model

// Reason is a fixed-vocabulary explanation for a non-zero scoring factor.
type Reason string

// Reason vocabulary.
const (
	ReasonSkillMatch          Reason = "skill_match"
	ReasonExactSkillMatch     Reason = "exact_skill_match"
	ReasonLevelCompatibility  Reason = "level_compatibility"
	ReasonLocationProximity   Reason = "location_proximity"
	ReasonAvailabilityOverlap Reason = "availability_overlap"
	ReasonMutualSkills        Reason = "mutual_skills"
	ReasonHighRating          Reason = "high_rating"
	ReasonActiveUser          Reason = "active_user"
)

// Breakdown holds the seven raw sub-scores (each 0..100) before weighting.
type Breakdown struct {
	SkillMatch          float64 `json:"skill_match"`
	LevelCompatibility  float64 `json:"level_compatibility"`
	LocationProximity   float64 `json:"location_proximity"`
	AvailabilityOverlap float64 `json:"availability_overlap"`
	MutualSkills        float64 `json:"mutual_skills"`
	RatingBonus         float64 `json:"rating_bonus"`
	ActivityBonus       float64 `json:"activity_bonus"`
}

// ScoreResult is the explainable outcome of scoring one ordered user pair.
type ScoreResult struct {
	Total     int       `json:"score"`
	Reasons   []Reason  `json:"reasons"`
	Breakdown Breakdown `json:"breakdown"`
}

// HasReason reports whether r was triggered.
func (s ScoreResult) HasReason(r Reason) bool {
	for _, x := range s.Reasons {
		if x == r {
			return true
		}
	}
	return false
}

// Suggestion is one ranked candidate produced by the ranker.
type Suggestion struct {
	Candidate UserSnapshot
	Result    ScoreResult
}
