package search

import (
	"strings"
	"unicode"
)

// Tier base scores. Each tier owns a band below the next one, so any
// match in a higher tier outranks every match in a lower one.
const (
	ScoreNameExact       = 1000
	ScoreNamePrefix      = 800
	ScoreNameWordPrefix  = 600
	ScoreNameSubstring   = 400
	ScoreNameSubsequence = 200
	ScoreKeyword         = 150
	ScoreKeywordFuzzy    = 100
	ScoreSection         = 50
	ScoreSectionFuzzy    = 25

	bandWidth = 199
)

// scoreNode returns the best score of query against node fields, or false when
// nothing matches. query must already be lower-cased and trimmed.
func scoreNode(name, keywords, section, query string) (int, bool) {
	if s, ok := scoreName(strings.ToLower(strings.TrimSpace(name)), query); ok {
		return s, true
	}
	if s, ok := scoreKeywords(strings.ToLower(keywords), query); ok {
		return s, true
	}
	sec := strings.ToLower(section)
	if sec != "" {
		if strings.Contains(sec, query) {
			return ScoreSection, true
		}
		if ok, _ := subsequence(sec, query); ok {
			return ScoreSectionFuzzy, true
		}
	}
	return 0, false
}

func scoreName(name, query string) (int, bool) {
	switch {
	case name == "":
		return 0, false
	case name == query:
		return ScoreNameExact, true
	case strings.HasPrefix(name, query):
		return ScoreNamePrefix, true
	case hasWordPrefix(name, query):
		return ScoreNameWordPrefix, true
	}
	if idx := strings.Index(name, query); idx >= 0 {
		// Earlier occurrences rank slightly higher.
		return ScoreNameSubstring + clampBand(bandWidth-idx), true
	}
	if ok, bonus := subsequence(name, query); ok {
		return ScoreNameSubsequence + clampBand(bonus), true
	}
	return 0, false
}

func scoreKeywords(keywords, query string) (int, bool) {
	if strings.TrimSpace(keywords) == "" {
		return 0, false
	}
	if strings.Contains(keywords, query) {
		return ScoreKeyword, true
	}
	for _, tok := range tokenize(keywords) {
		if ok, _ := subsequence(tok, query); ok {
			return ScoreKeywordFuzzy, true
		}
	}
	if ok, _ := subsequence(keywords, query); ok {
		return ScoreKeywordFuzzy, true
	}
	return 0, false
}

// hasWordPrefix reports whether query starts any word of s after the first.
func hasWordPrefix(s, query string) bool {
	words := tokenize(s)
	for i, w := range words {
		if i > 0 && strings.HasPrefix(w, query) {
			return true
		}
	}
	// Multi-word queries may start at any later word boundary.
	if strings.ContainsRune(query, ' ') {
		for i := 1; i < len(s); i++ {
			if isSeparator(rune(s[i-1])) && strings.HasPrefix(s[i:], query) {
				return true
			}
		}
	}
	return false
}

// subsequence reports whether query's runes appear in order in s.
// The bonus favours matches that start at the beginning and stay contiguous.
func subsequence(s, query string) (bool, int) {
	target := []rune(s)
	pos := 0
	prev := -2
	bonus := 0
	first := true
	for _, qc := range query {
		found := false
		for pos < len(target) {
			c := target[pos]
			pos++
			if c == qc {
				if first && pos-1 == 0 {
					bonus += 10
				}
				if pos-1 == prev+1 {
					bonus += 3
				}
				prev = pos - 1
				first = false
				found = true
				break
			}
		}
		if !found {
			return false, 0
		}
	}
	return true, bonus
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, isSeparator)
}

func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || r == ',' || r == ';' || r == '-' || r == '_' || r == '/'
}

func clampBand(v int) int {
	if v < 0 {
		return 0
	}
	if v > bandWidth {
		return bandWidth
	}
	return v
}
