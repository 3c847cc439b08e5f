// Package gazetteer loads the reference geography from local files.
//
// Two files are read:
//
//   - a JSON document with "cities", "neighborhoods" (city to names) and
//     "landmarks" (name to city)
//   - the government street table, a comma-delimited file with one row per
//     street and at least a city-name and a street-name column
package gazetteer

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/custodia-labs/homeradar/internal/core/domain"
	"github.com/custodia-labs/homeradar/internal/core/ports/driven"
	"github.com/custodia-labs/homeradar/internal/logger"
)

// Ensure FileSource implements the interface.
var _ driven.GazetteerSource = (*FileSource)(nil)

// Header names recognised in the street table.
var (
	cityHeaders   = []string{"שם_ישוב", "שם ישוב", "city", "city_name"}
	streetHeaders = []string{"שם_רחוב", "שם רחוב", "street", "street_name"}
)

// Column positions in the government export (_id, סמל_ישוב, שם_ישוב,
// סמל_רחוב, שם_רחוב) used when no header is recognised.
const (
	govCityColumn   = 2
	govStreetColumn = 4
)

// locationsFile is the JSON shape of the locations document.
type locationsFile struct {
	Cities        []string            `json:"cities"`
	Neighborhoods map[string][]string `json:"neighborhoods"`
	Landmarks     map[string]string   `json:"landmarks"`
}

// FileSource reads reference data from a locations JSON file and an
// optional street table.
type FileSource struct {
	locationsPath string
	streetsPath   string
}

// NewFileSource creates a source. streetsPath may be empty.
func NewFileSource(locationsPath, streetsPath string) *FileSource {
	return &FileSource{locationsPath: locationsPath, streetsPath: streetsPath}
}

// Load reads both files. A locations failure is returned as an error
// together with whatever street table did load; a street table failure
// only disables street validation.
func (s *FileSource) Load() (domain.GazetteerData, error) {
	var streets map[string][]string
	if s.streetsPath != "" {
		var err error
		if streets, err = readStreets(s.streetsPath); err != nil {
			logger.Warn("gazetteer: street table unavailable, street validation disabled: %v", err)
		}
	}

	if s.locationsPath == "" {
		return domain.GazetteerData{Streets: streets}, errors.New("no locations file configured")
	}
	data, err := readLocations(s.locationsPath)
	if err != nil {
		return domain.GazetteerData{Streets: streets}, err
	}
	data.Streets = streets
	return data, nil
}

func readLocations(path string) (domain.GazetteerData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.GazetteerData{}, fmt.Errorf("read locations: %w", err)
	}
	var f locationsFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return domain.GazetteerData{}, fmt.Errorf("parse locations %s: %w", path, err)
	}

	data := domain.GazetteerData{
		Cities:        dedupe(f.Cities),
		Neighborhoods: make(map[string][]string, len(f.Neighborhoods)),
		Landmarks:     make(map[string]string, len(f.Landmarks)),
	}
	for city, names := range f.Neighborhoods {
		if city = strings.TrimSpace(city); city != "" {
			data.Neighborhoods[city] = dedupe(names)
		}
	}
	for name, city := range f.Landmarks {
		name, city = strings.TrimSpace(name), strings.TrimSpace(city)
		if name != "" && city != "" {
			data.Landmarks[name] = city
		}
	}
	return data, nil
}

func readStreets(path string) (map[string][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open street table: %w", err)
	}
	defer f.Close()
	return parseStreets(f)
}

// parseStreets groups street names by city. Values are trimmed because
// the government export pads names with spaces.
func parseStreets(r io.Reader) (map[string][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read street table header: %w", err)
	}

	cityCol, streetCol, hasHeader := columns(header)
	streets := make(map[string][]string)
	seen := make(map[string]bool)

	add := func(record []string) {
		if cityCol >= len(record) || streetCol >= len(record) {
			return
		}
		city := strings.TrimSpace(record[cityCol])
		street := strings.TrimSpace(record[streetCol])
		if city == "" || street == "" {
			return
		}
		key := city + "\x00" + street
		if seen[key] {
			return
		}
		seen[key] = true
		streets[city] = append(streets[city], street)
	}

	if !hasHeader {
		add(header)
	}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read street table: %w", err)
		}
		add(record)
	}

	if len(streets) == 0 {
		return nil, errors.New("street table has no rows")
	}
	return streets, nil
}

// columns locates the city and street columns from the header row.
// When the header is not recognised the row is treated as data.
func columns(header []string) (city, street int, hasHeader bool) {
	city, street = -1, -1
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		switch {
		case city < 0 && slices.Contains(cityHeaders, h):
			city = i
		case street < 0 && slices.Contains(streetHeaders, h):
			street = i
		}
	}
	if city >= 0 && street >= 0 {
		return city, street, true
	}
	if len(header) > govStreetColumn {
		return govCityColumn, govStreetColumn, false
	}
	return 0, 1, false
}

func dedupe(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
