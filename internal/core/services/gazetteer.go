package services

import (
	"regexp"
	"sort"
	"strings"

	"github.com/custodia-labs/homeradar/internal/core/domain"
	"github.com/custodia-labs/homeradar/internal/core/ports/driven"
	"github.com/custodia-labs/homeradar/internal/logger"
)

// Word boundaries that work for Hebrew. RE2's \b is ASCII-only.
const (
	leftBound  = `(?:^|[^\p{L}\p{N}])`
	rightBound = `(?:[^\p{L}\p{N}]|$)`
)

// Contextual prefixes. Patterns are written with natural spelling and folded
// before compilation because they run against normalised text.
const (
	locativePrefix     = `(?:בעיר\s+|ב-?|in\s+|at\s+)`
	dealSuffix         = `\s*[-–:,]?\s*(?:למכירה|להשכרה|להשכיר|למכור|for\s+sale|for\s+rent)`
	estateNounSuffix   = `\s+(?:דירה|דירת|דירות|בית|פנטהאוז|דופלקס|apartment|flat|house|penthouse)`
	cityOfPrefix       = `(?:העיר|the\s+city\s+of|city\s+of)\s+`
	separatorPrefix    = `(?:[,;:|/–]|\s-)\s*`
	neighborhoodPrefix = `(?:בשכונת\s+|שכונת\s+|בשכ'\s*|שכ'\s*|באזור\s+|באיזור\s+|אזור\s+|איזור\s+|` +
		`in\s+the\s+neighbou?rhood\s+of\s+|in\s+the\s+|in\s+|ב-?)`
	landmarkPrefix = `(?:(?:ליד|מול|near|next\s+to|close\s+to)\s+|(?:בסמוך|קרוב)\s+ל-?)`
)

// compileFolded compiles a case-insensitive pattern after folding final letters.
func compileFolded(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + FoldFinals(pattern))
}

// nameSet is a compiled alternation over a list of names.
type nameSet struct {
	alt   string
	names map[string]string
}

func newNameSet(names []string) nameSet {
	set := nameSet{names: make(map[string]string, len(names))}
	var parts []string
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := foldKey(name)
		if _, dup := set.names[key]; dup {
			continue
		}
		set.names[key] = name
		parts = append(parts, regexp.QuoteMeta(Normalize(name)))
	}
	// Longest first so "תל אביב יפו" wins over "תל אביב" at the same position.
	sort.SliceStable(parts, func(i, j int) bool {
		if len(parts[i]) != len(parts[j]) {
			return len(parts[i]) > len(parts[j])
		}
		return parts[i] < parts[j]
	})
	set.alt = strings.Join(parts, "|")
	return set
}

func (s nameSet) empty() bool {
	return s.alt == ""
}

// canonical maps a surface match back to the configured spelling.
func (s nameSet) canonical(surface string) string {
	return s.names[foldKey(surface)]
}

// Gazetteer is the compiled reference geography.
// It is immutable after Compile and safe for concurrent use.
type Gazetteer struct {
	data domain.GazetteerData

	cities        nameSet
	landmarks     nameSet
	neighborhoods map[string]nameSet

	// neighborhoodCities maps a folded neighborhood name to the cities that have it.
	neighborhoodCities map[string][]string
	allNeighborhoods   nameSet

	// streets maps a folded city name to the set of folded street names.
	streets map[string]map[string]struct{}

	cityLocative *regexp.Regexp
	cityDeal     *regexp.Regexp
	cityGroup    *regexp.Regexp
	cityBroad    []*regexp.Regexp

	neighborhoodIn  map[string]*regexp.Regexp
	neighborhoodAny *regexp.Regexp
	landmarkNear    *regexp.Regexp
}

// LoadGazetteer reads reference data from source. It never fails: on a
// missing source or a load error it logs a warning and returns the built-in
// fallback dataset, keeping any street table the source did read.
func LoadGazetteer(source driven.GazetteerSource) domain.GazetteerData {
	if source == nil {
		logger.Warn("gazetteer: no reference source configured, using fallback city list")
		return domain.FallbackGazetteer()
	}
	data, err := source.Load()
	if err != nil {
		logger.Warn("gazetteer: load failed, using fallback city list: %v", err)
		fallback := domain.FallbackGazetteer()
		if data.HasStreets() {
			fallback.Streets = data.Streets
		}
		return fallback
	}
	if len(data.Cities) == 0 {
		logger.Warn("gazetteer: reference data has no cities, using fallback city list")
		data.Cities = domain.FallbackCities()
	}
	if data.Neighborhoods == nil {
		data.Neighborhoods = map[string][]string{}
	}
	if data.Landmarks == nil {
		data.Landmarks = map[string]string{}
	}
	if data.Streets == nil {
		data.Streets = map[string][]string{}
	}
	logger.Debug("gazetteer: %d cities, %d cities with neighborhoods, %d landmarks, %d cities with streets",
		len(data.Cities), len(data.Neighborhoods), len(data.Landmarks), len(data.Streets))
	return data
}

// CompileGazetteer builds the matchers for data once.
func CompileGazetteer(data domain.GazetteerData) *Gazetteer {
	g := &Gazetteer{
		data:               data,
		cities:             newNameSet(data.Cities),
		neighborhoods:      make(map[string]nameSet, len(data.Neighborhoods)),
		neighborhoodIn:     make(map[string]*regexp.Regexp, len(data.Neighborhoods)),
		neighborhoodCities: make(map[string][]string),
		streets:            make(map[string]map[string]struct{}, len(data.Streets)),
	}

	if !g.cities.empty() {
		alt := `(` + g.cities.alt + `)`
		g.cityLocative = compileFolded(leftBound + locativePrefix + alt + rightBound)
		g.cityDeal = compileFolded(leftBound + alt + dealSuffix + rightBound)
		g.cityGroup = compileFolded(leftBound + `(?:ב-?)?` + alt + rightBound)
		g.cityBroad = []*regexp.Regexp{
			compileFolded(separatorPrefix + alt + rightBound),
			compileFolded(leftBound + alt + estateNounSuffix + rightBound),
			compileFolded(leftBound + cityOfPrefix + alt + rightBound),
		}
	}

	var every []string
	cities := make([]string, 0, len(data.Neighborhoods))
	for city := range data.Neighborhoods {
		cities = append(cities, city)
	}
	sort.Strings(cities)
	for _, city := range cities {
		set := newNameSet(data.Neighborhoods[city])
		if set.empty() {
			continue
		}
		g.neighborhoods[city] = set
		g.neighborhoodIn[city] = compileFolded(leftBound + neighborhoodPrefix + `(` + set.alt + `)` + rightBound)
		for key, name := range set.names {
			g.neighborhoodCities[key] = append(g.neighborhoodCities[key], city)
			every = append(every, name)
		}
	}
	g.allNeighborhoods = newNameSet(every)
	if !g.allNeighborhoods.empty() {
		g.neighborhoodAny = compileFolded(leftBound + neighborhoodPrefix + `(` + g.allNeighborhoods.alt + `)` + rightBound)
	}

	landmarks := make([]string, 0, len(data.Landmarks))
	for name := range data.Landmarks {
		landmarks = append(landmarks, name)
	}
	g.landmarks = newNameSet(landmarks)
	if !g.landmarks.empty() {
		g.landmarkNear = compileFolded(leftBound + landmarkPrefix + `(` + g.landmarks.alt + `)` + rightBound)
	}

	for city, names := range data.Streets {
		key := foldKey(city)
		set := g.streets[key]
		if set == nil {
			set = make(map[string]struct{}, len(names))
			g.streets[key] = set
		}
		for _, name := range names {
			if name = strings.TrimSpace(name); name != "" {
				set[foldKey(name)] = struct{}{}
			}
		}
	}

	return g
}

// Data returns the reference data the gazetteer was compiled from.
func (g *Gazetteer) Data() domain.GazetteerData {
	return g.data
}

// HasStreets reports whether street validation is active.
func (g *Gazetteer) HasStreets() bool {
	return len(g.streets) > 0
}

// IsValidStreet reports whether street is a known street of city.
// Without street data every candidate is accepted.
func (g *Gazetteer) IsValidStreet(street, city string) bool {
	if !g.HasStreets() {
		return true
	}
	street = strings.TrimSpace(street)
	city = strings.TrimSpace(city)
	if street == "" || city == "" {
		return false
	}
	key := foldKey(street)
	for _, variant := range cityVariants(city) {
		if set, ok := g.streets[foldKey(variant)]; ok {
			if _, found := set[key]; found {
				return true
			}
		}
	}
	return false
}

// cityVariants returns the raw city name and its separator-swapped form.
func cityVariants(city string) []string {
	switch {
	case strings.Contains(city, "-"):
		return []string{city, strings.ReplaceAll(city, "-", " ")}
	case strings.Contains(city, " "):
		return []string{city, strings.ReplaceAll(city, " ", "-")}
	default:
		return []string{city}
	}
}

// match is a gazetteer hit in normalised text.
type match struct {
	name  string
	start int
}

// firstMatch returns the canonical name captured by group 1 of the leftmost match.
func firstMatch(re *regexp.Regexp, set nameSet, norm string) (match, bool) {
	if re == nil {
		return match{}, false
	}
	loc := re.FindStringSubmatchIndex(norm)
	if loc == nil || loc[2] < 0 {
		return match{}, false
	}
	name := set.canonical(norm[loc[2]:loc[3]])
	if name == "" {
		return match{}, false
	}
	return match{name: name, start: loc[2]}, true
}

// earliest returns the leftmost hit across several patterns.
func earliest(res []*regexp.Regexp, set nameSet, norm string) (match, bool) {
	var best match
	found := false
	for _, re := range res {
		if m, ok := firstMatch(re, set, norm); ok && (!found || m.start < best.start) {
			best, found = m, true
		}
	}
	return best, found
}

// CityInText finds a city named in a locative or listing context.
func (g *Gazetteer) CityInText(norm string) (string, bool) {
	m, ok := earliest([]*regexp.Regexp{g.cityLocative, g.cityDeal}, g.cities, norm)
	return m.name, ok
}

// CityInGroup finds a city mentioned anywhere in a feed-group name.
func (g *Gazetteer) CityInGroup(groupName string) (string, bool) {
	m, ok := firstMatch(g.cityGroup, g.cities, Normalize(groupName))
	return m.name, ok
}

// CityBroad retries city matching with looser context: after a separator,
// before a real-estate noun, or after "city of".
func (g *Gazetteer) CityBroad(norm string) (string, bool) {
	m, ok := earliest(g.cityBroad, g.cities, norm)
	return m.name, ok
}

// NeighborhoodIn finds a neighborhood of city introduced by a contextual prefix.
func (g *Gazetteer) NeighborhoodIn(norm, city string) (string, bool) {
	re, ok := g.neighborhoodIn[city]
	if !ok {
		return "", false
	}
	m, ok := firstMatch(re, g.neighborhoods[city], norm)
	return m.name, ok
}

// NeighborhoodAny searches every city's neighborhoods and returns the
// neighborhood with its city. Names shared by several cities are ambiguous
// and skipped.
func (g *Gazetteer) NeighborhoodAny(norm string) (neighborhood, city string, ok bool) {
	if g.neighborhoodAny == nil {
		return "", "", false
	}
	for _, loc := range g.neighborhoodAny.FindAllStringSubmatchIndex(norm, -1) {
		if loc[2] < 0 {
			continue
		}
		key := foldKey(norm[loc[2]:loc[3]])
		owners := g.neighborhoodCities[key]
		if len(owners) != 1 {
			continue
		}
		return g.neighborhoods[owners[0]].names[key], owners[0], true
	}
	return "", "", false
}

// LandmarkNear finds a landmark introduced by a "near" prefix and returns it
// with its city.
func (g *Gazetteer) LandmarkNear(norm string) (landmark, city string, ok bool) {
	m, found := firstMatch(g.landmarkNear, g.landmarks, norm)
	if !found {
		return "", "", false
	}
	return m.name, g.data.Landmarks[m.name], true
}
