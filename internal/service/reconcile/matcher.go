package reconcile

import (
	"sort"
	"strings"

	"attendance/sync/internal/repository/postgres/user"
)

// Score weights: name similarity dominates, an exact email match is a
// strong binary signal. The sum stays in [0, 1].
const (
	nameWeight  = 0.6
	emailWeight = 0.4
)

// Candidate is one internal user scored against a vendor employee.
type Candidate struct {
	UserID   int     `json:"user_id"`
	FullName string  `json:"full_name"`
	Email    string  `json:"email"`
	Score    float64 `json:"score"`
}

// Score computes the match score of one directory user for a vendor
// employee. Name similarity is weighted 0.6; an exact (case-insensitive)
// email match adds a flat 0.4. Without a vendor email the score is capped
// at 0.6 by construction.
func Score(vendorName, vendorEmail string, candidate user.DirectoryUser) float64 {
	score := nameWeight * Similarity(vendorName, candidate.FullName)

	if vendorEmail != "" && candidate.Email != "" &&
		strings.EqualFold(strings.TrimSpace(vendorEmail), strings.TrimSpace(candidate.Email)) {
		score += emailWeight
	}

	return score
}

// RankCandidates scores the whole directory for one vendor employee and
// returns candidates ordered by score descending, ties broken
// alphabetically by name.
func RankCandidates(vendorName, vendorEmail string, directory []user.DirectoryUser) []Candidate {
	candidates := make([]Candidate, 0, len(directory))
	for _, u := range directory {
		candidates = append(candidates, Candidate{
			UserID:   u.ID,
			FullName: u.FullName,
			Email:    u.Email,
			Score:    Score(vendorName, vendorEmail, u),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].FullName < candidates[j].FullName
	})

	return candidates
}
