package domain

import (
	"net/url"
	"sort"
	"strings"
)

const (
	// Scoring weights
	ScoreExactMatch     = 100.0
	ScorePrefixMatch    = 75.0
	ScoreSubstringMatch = 50.0
	ScoreFuzzyMatch     = 25.0

	// Position bonus (earlier is better)
	ScorePositionBonus = 10.0

	// Secondary fields (host, tags) count for a fraction of a title match
	ScoreHostWeight = 0.6
	ScoreTagWeight  = 0.4

	// Pinned bookmarks win ties
	ScorePinnedBonus = 1.0
)

// BookmarkCandidate represents a bookmark candidate with its match score
type BookmarkCandidate struct {
	Bookmark *Bookmark
	Score    float64 // Score from fuzzy matching
}

// ScoreBookmark calculates the match score for a bookmark against a query string.
// The title is the primary field; the URL host and tags contribute a weighted score.
func ScoreBookmark(queryStr string, bookmark *Bookmark) float64 {
	if bookmark == nil {
		return 0.0
	}
	queryStr = strings.ToLower(strings.TrimSpace(queryStr))
	if queryStr == "" {
		return 0.0
	}

	best := scoreText(queryStr, strings.ToLower(bookmark.Title))

	if host := hostOf(bookmark.URL); host != "" {
		if s := scoreText(queryStr, host) * ScoreHostWeight; s > best {
			best = s
		}
	}

	for _, tag := range bookmark.Tags {
		if s := scoreText(queryStr, strings.ToLower(tag)) * ScoreTagWeight; s > best {
			best = s
		}
	}

	if best > 0 && bookmark.IsPinned {
		best += ScorePinnedBonus
	}
	return best
}

// scoreText scores a lowercased query against a lowercased field.
func scoreText(queryStr, text string) float64 {
	if text == "" {
		return 0.0
	}

	// Exact match (highest score)
	if queryStr == text {
		return ScoreExactMatch
	}

	// Prefix match
	if strings.HasPrefix(text, queryStr) {
		return ScorePrefixMatch
	}

	// Substring match, earlier is better
	if index := strings.Index(text, queryStr); index >= 0 {
		substringBonus := ScorePositionBonus * (1.0 - float64(index)/float64(len(text)))
		return ScoreSubstringMatch + substringBonus
	}

	// Word-based match: every query word appears in the text
	queryWords := strings.Fields(queryStr)
	if len(queryWords) > 1 {
		allMatch := true
		for _, word := range queryWords {
			if !strings.Contains(text, word) {
				allMatch = false
				break
			}
		}
		if allMatch {
			return ScoreFuzzyMatch
		}
	}

	// Character similarity
	similarity := calculateSimilarity(queryStr, text)
	if similarity > 0.5 && len(queryStr) >= 3 {
		return ScoreFuzzyMatch * similarity
	}

	return 0.0
}

// calculateSimilarity returns the ratio of query characters that appear in s2.
func calculateSimilarity(s1, s2 string) float64 {
	if s1 == "" || s2 == "" {
		return 0.0
	}

	matches := 0
	total := 0
	for _, c := range s1 {
		if c == ' ' {
			continue
		}
		total++
		if strings.ContainsRune(s2, c) {
			matches++
		}
	}
	if total == 0 {
		return 0.0
	}

	return float64(matches) / float64(total)
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// RankBookmarkCandidates ranks bookmark candidates by score (descending).
// Ties keep the input order, so callers should pass bookmarks in display order.
func RankBookmarkCandidates(queryStr string, bookmarks []Bookmark) []*BookmarkCandidate {
	candidates := make([]*BookmarkCandidate, 0, len(bookmarks))

	for i := range bookmarks {
		score := ScoreBookmark(queryStr, &bookmarks[i])

		// Skip bookmarks with zero score (no match)
		if score == 0.0 {
			continue
		}

		candidates = append(candidates, &BookmarkCandidate{
			Bookmark: &bookmarks[i],
			Score:    score,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	return candidates
}

// SearchBookmarks returns the matching bookmarks, best first.
func SearchBookmarks(queryStr string, bookmarks []Bookmark) []Bookmark {
	candidates := RankBookmarkCandidates(queryStr, bookmarks)
	out := make([]Bookmark, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, *c.Bookmark)
	}
	return out
}
