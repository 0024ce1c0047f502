package scoring

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/okian/skillswap/internal/domain/model"
)

const (
	fullScore            = 100
	partialLocationScore = 70
	neutralAvailability  = 50

	minLocationSegment = 3

	mutualSkillPoints   = 20
	ratingBaseline      = 3
	ratingPointsPerStar = 20
	ratingCountPoints   = 2
	ratingCountCap      = 20
	sessionPoints       = 5
)

// levelScores indexes compatibility by absolute rank difference.
var levelScores = [...]float64{100, 80, 60, 40}

func findDesired(skills []model.DesiredSkill, name string) (model.DesiredSkill, bool) {
	for _, s := range skills {
		if model.NormalizeSkill(s.Name) == name {
			return s, true
		}
	}
	return model.DesiredSkill{}, false
}

func findOffered(skills []model.OfferedSkill, name string) (model.OfferedSkill, bool) {
	for _, s := range skills {
		if model.NormalizeSkill(s.Name) == name {
			return s, true
		}
	}
	return model.OfferedSkill{}, false
}

func skillMatch(subject, candidate model.UserSnapshot, target string) float64 {
	if target != "" {
		_, desired := findDesired(subject.DesiredSkills, target)
		_, offered := findOffered(candidate.OfferedSkills, target)
		if desired && offered {
			return fullScore
		}
		return 0
	}
	for _, d := range subject.DesiredSkills {
		if _, ok := findOffered(candidate.OfferedSkills, model.NormalizeSkill(d.Name)); ok {
			return fullScore
		}
	}
	return 0
}

// LevelScore maps two skill levels to a compatibility sub-score.
func LevelScore(desired, offered model.SkillLevel) float64 {
	diff := desired.Rank() - offered.Rank()
	if diff < 0 {
		diff = -diff
	}
	if diff >= len(levelScores) {
		return 0
	}
	return levelScores[diff]
}

func levelCompatibility(subject, candidate model.UserSnapshot, target string) float64 {
	if target != "" {
		d, desired := findDesired(subject.DesiredSkills, target)
		o, offered := findOffered(candidate.OfferedSkills, target)
		if desired && offered {
			return LevelScore(d.Level, o.Level)
		}
		return 0
	}
	var best float64
	for _, d := range subject.DesiredSkills {
		if o, ok := findOffered(candidate.OfferedSkills, model.NormalizeSkill(d.Name)); ok {
			best = math.Max(best, LevelScore(d.Level, o.Level))
		}
	}
	return best
}

func locationProximity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return fullScore
	}
	for _, p1 := range strings.Split(a, ",") {
		p1 = strings.TrimSpace(p1)
		if utf8.RuneCountInString(p1) < minLocationSegment {
			continue
		}
		for _, p2 := range strings.Split(b, ",") {
			if p1 == strings.TrimSpace(p2) {
				return partialLocationScore
			}
		}
	}
	return 0
}

func availabilityOverlap(subject, candidate model.Availability) float64 {
	if subject.IsEmpty() || candidate.IsEmpty() {
		return neutralAvailability
	}
	var overlapping, total int
	for _, day := range subject.Schedule {
		other, ok := candidate.DayEntry(day.Day)
		if !ok {
			continue
		}
		total += len(day.Slots)
		for _, slot := range day.Slots {
			for _, o := range other.Slots {
				if slot.Overlaps(o) {
					overlapping++
					break
				}
			}
		}
	}
	if total == 0 {
		return neutralAvailability
	}
	return math.Round(fullScore * float64(overlapping) / float64(total))
}

func skillNames(u model.UserSnapshot) map[string]struct{} {
	names := make(map[string]struct{}, len(u.OfferedSkills)+len(u.DesiredSkills))
	for _, s := range u.OfferedSkills {
		names[model.NormalizeSkill(s.Name)] = struct{}{}
	}
	for _, s := range u.DesiredSkills {
		names[model.NormalizeSkill(s.Name)] = struct{}{}
	}
	delete(names, "")
	return names
}

func mutualSkills(subject, candidate model.UserSnapshot) float64 {
	mine := skillNames(subject)
	theirs := skillNames(candidate)
	shared := 0
	for name := range mine {
		if _, ok := theirs[name]; ok {
			shared++
		}
	}
	return math.Min(float64(shared*mutualSkillPoints), fullScore)
}

func ratingBonus(s model.Stats) float64 {
	if s.TotalRatings <= 0 {
		return 0
	}
	score := (s.AverageRating - ratingBaseline) * ratingPointsPerStar
	score += math.Min(float64(s.TotalRatings*ratingCountPoints), ratingCountCap)
	return clamp(score)
}

func activityBonus(s model.Stats) float64 {
	sessions := s.SessionsTaught + s.SessionsAttended
	if sessions <= 0 {
		return 0
	}
	return math.Min(float64(sessions*sessionPoints), fullScore)
}
