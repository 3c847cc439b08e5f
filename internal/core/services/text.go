package services

import (
	"strings"
	"unicode"
)

// finalForms maps Hebrew final letters to their standard forms.
// Each pair is two bytes in UTF-8 on both sides, so folding never shifts
// byte offsets.
var finalForms = strings.NewReplacer(
	"ך", "כ",
	"ם", "מ",
	"ן", "נ",
	"ף", "פ",
	"ץ", "צ",
)

// noiseMarkers start the UI chrome and replies that follow a captured post body.
var noiseMarkers = []string{
	"\nלייק",
	"\nתגובה",
	"\nשיתוף",
	"\nכתיבת תגובה",
	"\nLike",
	"\nComment",
	"\nShare",
	"\nWrite a comment",
}

// Normalize folds final letters and flattens whitespace.
// The result has the same byte length as Flatten(text), so offsets found
// in one can be used to slice the other.
func Normalize(text string) string {
	return FoldFinals(Flatten(text))
}

// FoldFinals replaces Hebrew final-letter forms with their standard forms.
func FoldFinals(text string) string {
	return finalForms.Replace(text)
}

// Flatten collapses every run of whitespace, line breaks included, into a
// single space and trims the ends.
func Flatten(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	space := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

// StripNoise truncates text at the earliest reaction marker and returns the
// trimmed body. Text without any marker is returned trimmed.
func StripNoise(text string) string {
	cut := len(text)
	for _, marker := range noiseMarkers {
		if idx := strings.Index(text, marker); idx >= 0 && idx < cut {
			cut = idx
		}
	}
	return strings.TrimSpace(text[:cut])
}

// foldKey is the lookup key used for every gazetteer and keyword comparison.
func foldKey(s string) string {
	return strings.ToLower(Normalize(s))
}
