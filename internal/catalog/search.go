package catalog

import (
	"context"
	"sort"
	"strings"

	"cbztag/internal/textutil"
)

// minSearchScore drops matches that share only incidental tokens with the query.
const minSearchScore = 0.1

// Match is a ranked search result.
type Match struct {
	Entry Entry   `json:"entry"`
	Score float64 `json:"score"`
}

// Search ranks every entry against query. A folded series name equal to the
// query ranks first; the rest are ordered by TF-IDF cosine similarity.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Match, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	entries, err := s.List(ctx, ListOptions{})
	if err != nil {
		return nil, err
	}
	return Rank(entries, query, limit), nil
}

// Rank scores entries against query without touching the database.
func Rank(entries []Entry, query string, limit int) []Match {
	corpus := textutil.NewCorpus()
	prints := make([]*textutil.Fingerprint, len(entries))
	for i, entry := range entries {
		prints[i] = textutil.NewFingerprint(entry.searchText())
		corpus.Add(prints[i])
	}
	idf := corpus.IDF()
	q := textutil.NewFingerprint(query).WithIDF(idf)
	folded := textutil.Fold(query)

	var matches []Match
	for i, entry := range entries {
		score := textutil.CosineSimilarity(q, prints[i].WithIDF(idf))
		if folded != "" && textutil.Fold(entry.Series) == folded {
			score += 1
		}
		if score < minSearchScore {
			continue
		}
		matches = append(matches, Match{Entry: entry, Score: score})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
