package domain

// GazetteerData is the static reference geography. It is loaded once
// and treated as read-only afterwards.
type GazetteerData struct {
	// Cities are canonical city names.
	Cities []string

	// Neighborhoods maps a city to its neighborhood names.
	Neighborhoods map[string][]string

	// Landmarks maps a landmark name to the city it lies in.
	Landmarks map[string]string

	// Streets maps a city (as spelled in the street table) to its street names.
	Streets map[string][]string
}

// FallbackCities is the minimal city list used when no reference data loads.
func FallbackCities() []string {
	return []string{
		"ירושלים", "תל אביב", "חיפה", "באר שבע", "רחובות", "נתניה",
		"פתח תקווה", "ראשון לציון", "אשדוד", "מעלה אדומים", "בית שמש", "מודיעין",
	}
}

// FallbackGazetteer returns the built-in minimal dataset.
func FallbackGazetteer() GazetteerData {
	return GazetteerData{
		Cities:        FallbackCities(),
		Neighborhoods: map[string][]string{},
		Landmarks:     map[string]string{},
		Streets:       map[string][]string{},
	}
}

// HasStreets reports whether a street table was loaded.
func (g GazetteerData) HasStreets() bool {
	return len(g.Streets) > 0
}
