package models

import "sort"

// SimilarityMap maps point id to a search similarity score in [0,1].
// A nil or empty map means no search is active.
type SimilarityMap map[string]float64

// Active reports whether a search is in effect.
func (m SimilarityMap) Active() bool {
	return len(m) > 0
}

// Score returns the score for id and whether the id is present.
func (m SimilarityMap) Score(id string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	s, ok := m[id]
	return s, ok
}

// Clone returns an independent copy. Scores are clamped to [0,1]; NaN scores are dropped.
func (m SimilarityMap) Clone() SimilarityMap {
	if m == nil {
		return nil
	}
	out := make(SimilarityMap, len(m))
	for id, s := range m {
		if s != s {
			continue
		}
		if s < 0 {
			s = 0
		}
		if s > 1 {
			s = 1
		}
		out[id] = s
	}
	return out
}

// ScoredID is an id with its score.
type ScoredID struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Top returns up to n entries with score strictly above min, highest first.
// Equal scores are ordered by id so the result is deterministic.
func (m SimilarityMap) Top(n int, min float64) []ScoredID {
	out := make([]ScoredID, 0, len(m))
	for id, s := range m {
		if s > min {
			out = append(out, ScoredID{ID: id, Score: s})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
