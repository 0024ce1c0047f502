// Package model contains domain models passed between layers.
package model

import "strings"

// SkillLevel is an ordered proficiency level.
type SkillLevel string

// Skill levels, lowest first.
const (
	LevelBeginner     SkillLevel = "beginner"
	LevelIntermediate SkillLevel = "intermediate"
	LevelAdvanced     SkillLevel = "advanced"
	LevelExpert       SkillLevel = "expert"
)

// Rank maps a level to 1..4. Unknown or empty levels rank as beginner.
func (l SkillLevel) Rank() int {
	switch SkillLevel(strings.ToLower(strings.TrimSpace(string(l)))) {
	case LevelIntermediate:
		return 2
	case LevelAdvanced:
		return 3
	case LevelExpert:
		return 4
	default:
		return 1
	}
}

// Valid reports whether l is one of the four known levels.
func (l SkillLevel) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced, LevelExpert:
		return true
	}
	return false
}

// Priority expresses how much a user wants to learn a skill.
type Priority string

// Desired skill priorities.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// OfferedSkill is a skill a user can teach.
type OfferedSkill struct {
	Name        string     `json:"name"`
	Level       SkillLevel `json:"level"`
	Description string     `json:"description,omitempty"`
}

// DesiredSkill is a skill a user wants to learn. Priority defaults to medium.
type DesiredSkill struct {
	Name     string     `json:"name"`
	Level    SkillLevel `json:"level"`
	Priority Priority   `json:"priority,omitempty"`
}

// EffectivePriority returns the priority with the medium default applied.
func (d DesiredSkill) EffectivePriority() Priority {
	if d.Priority == "" {
		return PriorityMedium
	}
	return d.Priority
}

// Stats holds a user's activity and reputation counters.
type Stats struct {
	SessionsTaught   int     `json:"sessions_taught"`
	SessionsAttended int     `json:"sessions_attended"`
	AverageRating    float64 `json:"average_rating"` // 0..5
	TotalRatings     int     `json:"total_ratings"`
}

// UserSnapshot is a read-only view of a user profile as consumed by the
// scorer. It never carries credentials.
type UserSnapshot struct {
	ID            string         `json:"id"`
	Location      string         `json:"location,omitempty"`
	OfferedSkills []OfferedSkill `json:"offered_skills"`
	DesiredSkills []DesiredSkill `json:"desired_skills"`
	Availability  Availability   `json:"availability"`
	Stats         Stats          `json:"stats"`

	// Version identifies the profile revision. Zero means unversioned and
	// disables memoization for this snapshot.
	Version int64 `json:"version,omitempty"`

	Active   bool `json:"active"`
	Verified bool `json:"verified"`
}

// NormalizeSkill folds a skill name for case-insensitive comparison.
func NormalizeSkill(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
