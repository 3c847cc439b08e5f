package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/homeradar/internal/core/domain"
)

// mockGazetteerSource implements driven.GazetteerSource for testing.
type mockGazetteerSource struct {
	data domain.GazetteerData
	err  error
}

func (m *mockGazetteerSource) Load() (domain.GazetteerData, error) {
	return m.data, m.err
}

func testGazetteerData() domain.GazetteerData {
	return domain.GazetteerData{
		Cities: []string{"ירושלים", "תל אביב", "תל אביב יפו", "חיפה", "רחובות", "Jerusalem", "Tel Aviv"},
		Neighborhoods: map[string][]string{
			"ירושלים":   {"קטמון", "רחביה", "קריית יובל", "מרכז העיר"},
			"תל אביב":   {"פלורנטין", "נווה צדק"},
			"חיפה":      {"מרכז העיר", "הדר"},
			"Jerusalem": {"Katamon", "Rehavia"},
		},
		Landmarks: map[string]string{
			"עזריאלי": "תל אביב",
			"הכותל":   "ירושלים",
			"Azrieli": "Tel Aviv",
		},
		Streets: map[string][]string{
			"ירושלים":   {"הרצל", "עזה", "בן יהודה", "דרך חברון"},
			"תל-אביב":   {"דיזנגוף"},
			"Jerusalem": {"Herzl"},
		},
	}
}

func testGazetteer() *Gazetteer {
	return CompileGazetteer(testGazetteerData())
}

func TestLoadGazetteer_NilSourceFallsBack(t *testing.T) {
	data := LoadGazetteer(nil)

	assert.Equal(t, domain.FallbackCities(), data.Cities)
	assert.False(t, data.HasStreets())
}

func TestLoadGazetteer_ErrorFallsBack(t *testing.T) {
	data := LoadGazetteer(&mockGazetteerSource{err: errors.New("open locations.json: no such file")})

	assert.Equal(t, domain.FallbackCities(), data.Cities)
	assert.Empty(t, data.Neighborhoods)
	assert.Empty(t, data.Landmarks)
}

func TestLoadGazetteer_ErrorKeepsLoadedStreets(t *testing.T) {
	data := LoadGazetteer(&mockGazetteerSource{
		data: domain.GazetteerData{Streets: map[string][]string{"חיפה": {"הרצל"}}},
		err:  errors.New("no locations file configured"),
	})

	assert.Equal(t, domain.FallbackCities(), data.Cities)
	assert.True(t, data.HasStreets())
	assert.Equal(t, []string{"הרצל"}, data.Streets["חיפה"])

	g := CompileGazetteer(data)
	assert.True(t, g.IsValidStreet("הרצל", "חיפה"))
	assert.False(t, g.IsValidStreet("דיזנגוף", "חיפה"))
}

func TestLoadGazetteer_EmptyCitiesKeepsOtherCollections(t *testing.T) {
	data := LoadGazetteer(&mockGazetteerSource{data: domain.GazetteerData{
		Streets: map[string][]string{"חיפה": {"הרצל"}},
	}})

	assert.Equal(t, domain.FallbackCities(), data.Cities)
	assert.True(t, data.HasStreets())
	assert.NotNil(t, data.Neighborhoods)
	assert.NotNil(t, data.Landmarks)
}

func TestLoadGazetteer_ReturnsSourceData(t *testing.T) {
	want := testGazetteerData()
	data := LoadGazetteer(&mockGazetteerSource{data: want})

	assert.Equal(t, want, data)
}

func TestGazetteer_IsValidStreet(t *testing.T) {
	g := testGazetteer()

	tests := []struct {
		name   string
		street string
		city   string
		want   bool
	}{
		{"known street", "הרצל", "ירושלים", true},
		{"multi word", "בן  יהודה", "ירושלים", true},
		{"final letters folded", "דרכ חברונ", "ירושלים", true},
		{"case folded", "HERZL", "Jerusalem", true},
		{"separator variant", "דיזנגוף", "תל אביב", true},
		{"unknown street", "הדמיוני", "ירושלים", false},
		{"street of another city", "דיזנגוף", "ירושלים", false},
		{"unknown city", "הרצל", "אילת", false},
		{"empty city", "הרצל", "", false},
		{"empty street", "", "ירושלים", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.IsValidStreet(tt.street, tt.city))
		})
	}
}

func TestGazetteer_IsValidStreet_PermissiveWithoutData(t *testing.T) {
	g := CompileGazetteer(domain.FallbackGazetteer())

	assert.False(t, g.HasStreets())
	assert.True(t, g.IsValidStreet("הרצל", ""))
	assert.True(t, g.IsValidStreet("", ""))
}

func TestGazetteer_CityInText(t *testing.T) {
	g := testGazetteer()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"attached locative", "דירה בירושלים", "ירושלים"},
		{"hyphenated locative", "דירה ב-חיפה", "חיפה"},
		{"english locative", "apartment in Jerusalem", "Jerusalem"},
		{"longest name wins", "דירה בתל אביב יפו", "תל אביב יפו"},
		{"followed by deal term", "חיפה - להשכרה", "חיפה"},
		{"bare name is not enough", "ירושלים יפה בלילה", ""},
		{"city prefix of another word", "דירה ברחובותיה", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := g.CityInText(Normalize(tt.text))
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want != "", ok)
		})
	}
}

func TestGazetteer_CityInGroup(t *testing.T) {
	g := testGazetteer()

	city, ok := g.CityInGroup("דירות להשכרה בחיפה והקריות")
	require.True(t, ok)
	assert.Equal(t, "חיפה", city)

	_, ok = g.CityInGroup("דירות להשכרה")
	assert.False(t, ok)
}

func TestGazetteer_CityBroad(t *testing.T) {
	g := testGazetteer()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"after separator", "4 חדרים - חיפה", "חיפה"},
		{"before real estate noun", "חיפה דירה 4 חדרים", "חיפה"},
		{"after city of", "בלב העיר ירושלים", "ירושלים"},
		{"no context", "חיפה", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := g.CityBroad(Normalize(tt.text))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGazetteer_NeighborhoodIn(t *testing.T) {
	g := testGazetteer()

	got, ok := g.NeighborhoodIn(Normalize("דירה בשכונת קטמון"), "ירושלים")
	require.True(t, ok)
	assert.Equal(t, "קטמון", got)

	got, ok = g.NeighborhoodIn(Normalize("apartment in the neighborhood of Katamon"), "Jerusalem")
	require.True(t, ok)
	assert.Equal(t, "Katamon", got)

	// Bare containment is not a match.
	_, ok = g.NeighborhoodIn(Normalize("דירה קטמון"), "ירושלים")
	assert.False(t, ok)

	// Only the given city's neighborhoods are searched.
	_, ok = g.NeighborhoodIn(Normalize("בשכונת פלורנטין"), "ירושלים")
	assert.False(t, ok)
}

func TestGazetteer_NeighborhoodAny(t *testing.T) {
	g := testGazetteer()

	hood, city, ok := g.NeighborhoodAny(Normalize("דירה בשכונת פלורנטין"))
	require.True(t, ok)
	assert.Equal(t, "פלורנטין", hood)
	assert.Equal(t, "תל אביב", city)

	// A name shared by two cities is ambiguous.
	_, _, ok = g.NeighborhoodAny(Normalize("דירה במרכז העיר"))
	assert.False(t, ok)
}

func TestGazetteer_LandmarkNear(t *testing.T) {
	g := testGazetteer()

	landmark, city, ok := g.LandmarkNear(Normalize("דירה קרוב לעזריאלי"))
	require.True(t, ok)
	assert.Equal(t, "עזריאלי", landmark)
	assert.Equal(t, "תל אביב", city)

	_, _, ok = g.LandmarkNear(Normalize("עזריאלי"))
	assert.False(t, ok)
}

func TestCompileGazetteer_EmptyData(t *testing.T) {
	g := CompileGazetteer(domain.GazetteerData{})

	_, ok := g.CityInText("דירה בירושלים")
	assert.False(t, ok)
	_, _, ok = g.NeighborhoodAny("בשכונת קטמון")
	assert.False(t, ok)
	_, _, ok = g.LandmarkNear("ליד הכותל")
	assert.False(t, ok)
}
