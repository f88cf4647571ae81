// internal/merit/rank.go
package merit

import (
	"sort"
	"time"
)

// Entry is one application in a ranking batch.
type Entry struct {
	ID          string
	Score       float64
	SubmittedAt time.Time
}

// Ranked is an Entry with its assigned competition rank.
type Ranked struct {
	Entry
	Rank int
}

// AssignRanks orders entries by score descending and assigns standard
// competition ranks: tied scores share a rank, and the rank after a tie
// block of size k jumps by k (scores 90,90,85 rank 1,1,3). Ties in the
// sort order itself break by earliest submission, then id, so the output
// order is deterministic.
func AssignRanks(entries []Entry) []Ranked {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		if !sorted[i].SubmittedAt.Equal(sorted[j].SubmittedAt) {
			return sorted[i].SubmittedAt.Before(sorted[j].SubmittedAt)
		}
		return sorted[i].ID < sorted[j].ID
	})

	ranked := make([]Ranked, 0, len(sorted))
	for i, e := range sorted {
		rank := i + 1
		if i > 0 && e.Score == sorted[i-1].Score {
			rank = ranked[i-1].Rank
		}
		ranked = append(ranked, Ranked{Entry: e, Rank: rank})
	}
	return ranked
}
