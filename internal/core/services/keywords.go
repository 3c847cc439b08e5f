package services

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/homeradar/internal/core/domain"
)

// clauseDelimiters end the clause a negation can reach across.
const clauseDelimiters = ".,!?;:\n"

type keyword struct {
	term string
	key  string
}

func newKeywords(terms []string) []keyword {
	out := make([]keyword, 0, len(terms))
	for _, term := range terms {
		key := keywordKey(term)
		if key == "" {
			continue
		}
		out = append(out, keyword{term: strings.TrimSpace(term), key: key})
	}
	return out
}

// keywordKey folds a term or a whole text for keyword comparison.
// Line breaks are kept because they delimit clauses.
func keywordKey(s string) string {
	return strings.ToLower(FoldFinals(strings.TrimSpace(s)))
}

// KeywordFilter matches the blacklist and broker-signal lists.
// It is immutable and safe for concurrent use.
type KeywordFilter struct {
	blacklist []keyword
	whitelist []keyword
	broker    []keyword
	negations []string
}

// NewKeywordFilter builds a filter from the configured lists.
func NewKeywordFilter(cfg domain.KeywordSettings) *KeywordFilter {
	f := &KeywordFilter{
		blacklist: newKeywords(cfg.Blacklist),
		whitelist: newKeywords(cfg.Whitelist),
		broker:    newKeywords(cfg.Broker),
	}
	for _, neg := range cfg.Negations {
		if key := Flatten(keywordKey(neg)); key != "" {
			f.negations = append(f.negations, key)
		}
	}
	return f
}

// MatchBlacklist returns the first blacklist term found in text, or "" when
// none is present or any whitelist phrase is present.
func (f *KeywordFilter) MatchBlacklist(text string) string {
	folded := keywordKey(text)
	for _, w := range f.whitelist {
		if strings.Contains(folded, w.key) {
			return ""
		}
	}
	for _, b := range f.blacklist {
		if strings.Contains(folded, b.key) {
			return b.term
		}
	}
	return ""
}

// MatchBrokerKeyword returns the first broker term that occurs in text
// without a negation immediately before it in the same clause, or "".
func (f *KeywordFilter) MatchBrokerKeyword(text string) string {
	folded := keywordKey(text)
	for _, b := range f.broker {
		for offset := 0; offset < len(folded); {
			idx := strings.Index(folded[offset:], b.key)
			if idx < 0 {
				break
			}
			at := offset + idx
			if !f.negated(folded, at) {
				return b.term
			}
			offset = at + len(b.key)
		}
	}
	return ""
}

// negated reports whether the clause text before the word containing
// position at ends with a negation phrase.
func (f *KeywordFilter) negated(folded string, at int) bool {
	// Attached prefix letters belong to the keyword's word.
	for at > 0 {
		r, size := utf8.DecodeLastRuneInString(folded[:at])
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) {
			break
		}
		at -= size
	}
	start := strings.LastIndexAny(folded[:at], clauseDelimiters) + 1
	before := strings.Trim(Flatten(folded[start:at]), " -–")
	if before == "" {
		return false
	}
	for _, neg := range f.negations {
		if before == neg || strings.HasSuffix(before, " "+neg) {
			return true
		}
	}
	return false
}
