package services

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/homeradar/internal/core/domain"
	"github.com/custodia-labs/homeradar/internal/core/ports/driving"
)

// Ensure DetailExtractor implements the interface.
var _ driving.DetailExtractor = (*DetailExtractor)(nil)

const (
	currency    = `(?:₪|ש"ח|ש״ח|שח|שקלים|שקל|nis|ils)`
	groupedNum  = `(\d{1,3}(?:[,.]\d{3})+)`
	plainNum    = `(\d{4,8})`
	numStart    = `(?:^|[^\d,.])`
	numEnd      = `(?:[^\d]|$)`
	pricePrefix = `(?:במחיר|מחיר|price)\s*[:\-]?\s*`

	// lastResortFloor is the lower bound for an unlabelled grouped number.
	lastResortFloor int64 = 500_000

	maxStreetWords = 4

	// upgradeWindow is how many words before a number may name an upgrade.
	upgradeWindow = 2
)

// priceStages are tried in order; the first stage yielding an acceptable
// value wins.
var priceStages = []*regexp.Regexp{
	compileFolded(numStart + groupedNum + `\s*` + currency + rightBound),
	compileFolded(numStart + plainNum + `\s*` + currency + rightBound),
	compileFolded(pricePrefix + groupedNum + numEnd),
	compileFolded(pricePrefix + plainNum + numEnd),
}

var anyGroupedNumber = compileFolded(numStart + groupedNum + numEnd)

// upgradeWords directly before a number mark it as an upgrade cost rather
// than the property price.
var upgradeWords = toKeySet(
	"מטבח", "שיפוץ", "שיפוצים", "ריהוט", "רהיטים", "ארונות", "השקעה", "השקענו",
	"kitchen", "renovation", "renovations", "furniture", "cabinets", "investment",
)

// upgradePrefixes are attached letters that keep an upgrade word's meaning.
// A leading ל marks purpose ("להשקעה") and is not stripped.
var upgradePrefixes = []string{"ב", "ו", "ה"}

var phonePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:^|[^\d+])(\+?972[-\s]?0?5\d[-\s]?\d{3}[-\s]?\d{4})(?:[^\d]|$)`),
	regexp.MustCompile(`(?:^|[^\d])(05\d[-\s]?\d{3}[-\s]?\d{4})(?:[^\d]|$)`),
	regexp.MustCompile(`(?:^|[^\d])(0[2-489][-\s]?\d{3}[-\s]?\d{4})(?:[^\d]|$)`),
	regexp.MustCompile(`(?:^|[^\d])(07\d[-\s]?\d{3}[-\s]?\d{4})(?:[^\d]|$)`),
}

var roomsPattern = compileFolded(`(?:^|[^\d.])(\d{1,2}(?:\.5)?)(\s*(?:וחצי|½|and\s+a\s+half))?\s*(?:חדרים|חדר|חד'|חד׳|rooms?)`)

var (
	hebrewStreet = compileFolded(leftBound +
		`(?:(ב?(?:רחוב|שדרות|סמטת|דרך))\s+|(ב?(?:רח|שד)['׳])\s*)` +
		`([\p{Hebrew}"'׳״\-]+(?:\s[\p{Hebrew}"'׳״\-]+){0,3})`)
	englishStreet = regexp.MustCompile(`(?:^|[^\p{L}])((?:[A-Z][\p{L}'\-]*\s){0,2}?[A-Z][\p{L}'\-]*)\s(Street|St\.?|Road|Rd\.?|Avenue|Ave\.?|Boulevard|Blvd\.?)(?:[^\p{L}]|$)`)
)

// streetStopWords end a street candidate.
var streetStopWords = toKeySet(
	"ללא", "ליד", "קרוב", "בין", "קומה", "דירה", "דירת", "מתאריך", "בקרבת", "פינת", "מול",
	"בשכונת", "שכונת", "באזור", "באיזור", "עם", "של", "למכירה", "להשכרה", "כניסה", "מיידית",
	"חדרים", "חדר", "בלבד",
)

// descriptiveWords describe a street rather than name it.
var descriptiveWords = []string{
	"שקט", "קטן", "מבוקש", "פסטורלי", "ללא מוצא", "ראשי", "הולנדי", "חד סטרי", "פנימי", "משופץ", "מרווח",
}

func toKeySet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[foldKey(w)] = struct{}{}
	}
	return set
}

// DetailExtractor derives structured fields from post text with regular
// expressions and the gazetteer. It makes no external calls.
type DetailExtractor struct {
	gazetteer *Gazetteer
}

// NewDetailExtractor creates an extractor over a compiled gazetteer.
func NewDetailExtractor(gazetteer *Gazetteer) *DetailExtractor {
	if gazetteer == nil {
		gazetteer = CompileGazetteer(domain.FallbackGazetteer())
	}
	return &DetailExtractor{gazetteer: gazetteer}
}

// Extract runs every sub-extraction over content. groupName is a hint for
// the city when the text names none.
func (e *DetailExtractor) Extract(content, groupName string) domain.ExtractedDetails {
	flat := Flatten(StripNoise(content))
	norm := FoldFinals(flat)
	if norm == "" {
		return domain.ExtractedDetails{}
	}

	d := domain.ExtractedDetails{
		Price: ExtractPrice(norm),
		Phone: ExtractPhone(flat),
		Rooms: ExtractRooms(norm),
	}
	e.extractLocation(flat, norm, groupName, &d)
	return d
}

// extractLocation resolves city, neighborhood, street and the composite
// location. Stages run in priority order and only while the city is unknown:
// explicit city, group name, neighborhood of the known city, street,
// neighborhood of any city, landmark, broad city patterns. A neighborhood
// outranks a landmark because it names a narrower area.
func (e *DetailExtractor) extractLocation(flat, norm, groupName string, d *domain.ExtractedDetails) {
	g := e.gazetteer

	city, _ := g.CityInText(norm)
	if city == "" {
		city, _ = g.CityInGroup(groupName)
	}

	var neighborhood string
	if city != "" {
		neighborhood, _ = g.NeighborhoodIn(norm, city)
	}

	streetCity := city
	street := e.findStreet(flat, norm, city)

	if city == "" {
		if n, c, ok := g.NeighborhoodAny(norm); ok {
			neighborhood, city = n, c
		}
	}

	var near string
	if city == "" {
		if landmark, c, ok := g.LandmarkNear(norm); ok {
			city = c
			near = nearPhrase(landmark)
		}
	}

	if city == "" {
		city, _ = g.CityBroad(norm)
	}

	// A street rejected for lack of a city gets one more chance.
	if street == "" && city != streetCity && g.HasStreets() {
		street = e.findStreet(flat, norm, city)
	}

	d.City = city
	d.Neighborhood = neighborhood
	d.Street = street
	d.Location = domain.ComposeLocation(neighborhood, street)
	if d.Location == "" {
		d.Location = near
	}
}

func nearPhrase(landmark string) string {
	for _, r := range landmark {
		if unicode.Is(unicode.Hebrew, r) {
			return "ליד " + landmark
		}
	}
	return "near " + landmark
}

// findStreet returns the first street candidate that passes validation,
// including its marker word, or "".
func (e *DetailExtractor) findStreet(flat, norm, city string) string {
	for _, loc := range hebrewStreet.FindAllStringSubmatchIndex(norm, -1) {
		marker := streetMarker(flat, loc)
		words := e.trimCandidate(strings.Fields(flat[loc[6]:loc[7]]))
		if name := e.validPrefix(words, city, marker); name != "" {
			return marker + " " + name
		}
	}
	for _, loc := range englishStreet.FindAllStringSubmatchIndex(flat, -1) {
		words := strings.Fields(flat[loc[2]:loc[3]])
		suffix := flat[loc[4]:loc[5]]
		if name := e.validSuffix(words, city, suffix); name != "" {
			return name + " " + suffix
		}
	}
	return ""
}

// streetMarker returns the display form of the matched Hebrew marker.
func streetMarker(flat string, loc []int) string {
	var m string
	if loc[2] >= 0 {
		m = flat[loc[2]:loc[3]]
	} else {
		m = flat[loc[4]:loc[5]]
	}
	m = strings.TrimPrefix(m, "ב")
	switch {
	case strings.HasPrefix(m, "רח") && m != "רחוב":
		return "רחוב"
	case strings.HasPrefix(m, "שד") && m != "שדרות":
		return "שדרות"
	default:
		return m
	}
}

// trimCandidate cuts a Hebrew candidate at the first stop word or city name.
func (e *DetailExtractor) trimCandidate(words []string) []string {
	for i, w := range words {
		key := foldKey(strings.Trim(w, `"'׳״-`))
		if _, stop := streetStopWords[key]; stop {
			return words[:i]
		}
		if i > 0 && e.gazetteer.cities.names[strings.TrimPrefix(key, "ב")] != "" {
			return words[:i]
		}
	}
	if len(words) > maxStreetWords {
		words = words[:maxStreetWords]
	}
	return words
}

// validPrefix tries the longest prefix of words first and returns the first
// that is a plausible, validated street name.
func (e *DetailExtractor) validPrefix(words []string, city, marker string) string {
	for n := len(words); n > 0; n-- {
		if name := strings.Trim(strings.Join(words[:n], " "), `-"'`); e.acceptStreet(name, city, marker) {
			return name
		}
	}
	return ""
}

// validSuffix is validPrefix for English names, where the name sits right
// before the marker.
func (e *DetailExtractor) validSuffix(words []string, city, marker string) string {
	for i := 0; i < len(words); i++ {
		if name := strings.Join(words[i:], " "); e.acceptStreet(name, city, marker) {
			return name
		}
	}
	return ""
}

func (e *DetailExtractor) acceptStreet(name, city, marker string) bool {
	n := utf8.RuneCountInString(name)
	if n < 2 || n > 30 {
		return false
	}
	key := foldKey(name)
	for _, bad := range descriptiveWords {
		if strings.Contains(key, foldKey(bad)) {
			return false
		}
	}
	return e.gazetteer.IsValidStreet(name, city) || e.gazetteer.HasStreets() && e.gazetteer.IsValidStreet(marker+" "+name, city)
}

// ExtractPrice returns the listing price found in normalised text, or 0.
func ExtractPrice(norm string) int64 {
	for _, re := range priceStages {
		if p := scanPrices(re, norm, domain.MinPrice); p != 0 {
			return p
		}
	}
	if p := scanPrices(anyGroupedNumber, norm, lastResortFloor); p != 0 {
		return p
	}
	return soleUpgradePrice(norm)
}

func scanPrices(re *regexp.Regexp, norm string, floor int64) int64 {
	for _, loc := range re.FindAllStringSubmatchIndex(norm, -1) {
		if upgradeAdjacent(norm[:loc[2]]) {
			continue
		}
		if p := parsePrice(norm[loc[2]:loc[3]]); p >= floor && domain.PriceInRange(p) {
			return p
		}
	}
	return 0
}

// soleUpgradePrice accepts an upgrade-adjacent figure when it is the only
// currency-suffixed number in the text and large enough to be a property
// price, as in "עם מטבח חדש 1,800,000 ₪".
func soleUpgradePrice(norm string) int64 {
	var found []string
	for _, re := range priceStages[:2] {
		for _, m := range re.FindAllStringSubmatch(norm, -1) {
			found = append(found, m[1])
		}
	}
	if len(found) != 1 {
		return 0
	}
	if p := parsePrice(found[0]); p >= lastResortFloor && domain.PriceInRange(p) {
		return p
	}
	return 0
}

func parsePrice(s string) int64 {
	digits := strings.NewReplacer(",", "", ".", "").Replace(s)
	p, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0
	}
	return p
}

// upgradeAdjacent reports whether one of the last few words of the clause
// ending at a number names an upgrade cost.
func upgradeAdjacent(before string) bool {
	start := strings.LastIndexAny(before, ",.;!?") + 1
	words := strings.Fields(strings.ToLower(before[start:]))
	for i := max(len(words)-upgradeWindow, 0); i < len(words); i++ {
		if !isUpgradeWord(words[i]) {
			continue
		}
		// "for investment" is a purpose, not a cost.
		if i > 0 && words[i-1] == "for" {
			continue
		}
		return true
	}
	return false
}

func isUpgradeWord(word string) bool {
	key := foldKey(strings.Trim(word, `"'׳״():-`))
	if _, ok := upgradeWords[key]; ok {
		return true
	}
	for _, prefix := range upgradePrefixes {
		if rest, cut := strings.CutPrefix(key, prefix); cut {
			if _, ok := upgradeWords[rest]; ok {
				return true
			}
		}
	}
	return false
}

// ExtractPhone returns the first phone number with a local leading zero
// and digits only, or "".
func ExtractPhone(flat string) string {
	for _, re := range phonePatterns {
		m := re.FindStringSubmatch(flat)
		if m == nil {
			continue
		}
		digits := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, m[1])
		if strings.HasPrefix(digits, "972") {
			digits = strings.TrimPrefix(digits[3:], "0")
			digits = "0" + digits
		}
		return digits
	}
	return ""
}

// ExtractRooms returns the room count as a decimal string, or "".
func ExtractRooms(norm string) string {
	m := roomsPattern.FindStringSubmatch(norm)
	if m == nil {
		return ""
	}
	rooms, err := strconv.ParseFloat(m[1], 64)
	if err != nil || rooms <= 0 {
		return ""
	}
	if m[2] != "" && !strings.HasSuffix(m[1], ".5") {
		rooms += 0.5
	}
	return strconv.FormatFloat(rooms, 'f', -1, 64)
}
