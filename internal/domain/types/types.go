// Package types contains common types used across the application
package types

import "github.com/okian/skillswap/internal/domain/model"

// Entry represents one ranked suggestion as returned to API clients.
type Entry struct {
	Rank      int             `json:"rank"`
	UserID    string          `json:"user_id"`
	Location  string          `json:"location,omitempty"`
	Score     int             `json:"score"`
	Reasons   []model.Reason  `json:"reasons"`
	Breakdown model.Breakdown `json:"breakdown"`
}

// EntriesFrom converts ranker output to API entries, numbering ranks from 1.
func EntriesFrom(suggestions []model.Suggestion) []Entry {
	entries := make([]Entry, len(suggestions))
	for i, s := range suggestions {
		entries[i] = Entry{
			Rank:      i + 1,
			UserID:    s.Candidate.ID,
			Location:  s.Candidate.Location,
			Score:     s.Result.Total,
			Reasons:   s.Result.Reasons,
			Breakdown: s.Result.Breakdown,
		}
	}
	return entries
}
