package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFoldFinals(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"kaf", "דרך", "דרכ"},
		{"mem", "ירושלים", "ירושלימ"},
		{"nun", "קטמון", "קטמונ"},
		{"pe", "נוף", "נופ"},
		{"tsadi", "שיפוץ", "שיפוצ"},
		{"latin untouched", "Herzl Street", "Herzl Street"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FoldFinals(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, len(tt.in))
		})
	}
}

func TestFlatten(t *testing.T) {
	assert.Equal(t, "דירה למכירה בירושלים", Flatten("  דירה\nלמכירה \r\n\t בירושלים \n"))
	assert.Equal(t, "", Flatten(" \n "))
}

func TestNormalize_PreservesFlatOffsets(t *testing.T) {
	in := "דירה\n\nבשכונת  קטמון, רחוב דרך חברון"
	flat := Flatten(in)
	norm := Normalize(in)

	assert.Len(t, norm, len(flat))
	assert.Equal(t, "דירה בשכונת קטמונ, רחוב דרכ חברונ", norm)
}

func TestStripNoise(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "hebrew like marker",
			in:   "דירה 3 חדרים\nלייק\nתגובה\nמישהו: מעוניין",
			want: "דירה 3 חדרים",
		},
		{
			name: "earliest marker wins",
			in:   "Apartment for rent\nShare\nLike\nComment",
			want: "Apartment for rent",
		},
		{
			name: "write a comment",
			in:   "דירה בחיפה \nכתיבת תגובה...",
			want: "דירה בחיפה",
		},
		{
			name: "no marker",
			in:   "  apartment for sale 2,500,000 NIS  ",
			want: "apartment for sale 2,500,000 NIS",
		},
		{
			name: "marker word inside a line is kept",
			in:   "Like new apartment",
			want: "Like new apartment",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripNoise(tt.in))
		})
	}
}
