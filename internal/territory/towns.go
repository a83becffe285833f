package territory

import (
	"bytes"
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed towns.yaml
var townsYAML []byte

// TownTable maps lowercase town names (and spoken aliases) to counties.
// It is immutable after load.
type TownTable struct {
	towns map[string]string
}

type townDocument struct {
	Towns map[string]string `yaml:"towns"`
}

// LoadTownTable parses the embedded service-area table.
func LoadTownTable() (*TownTable, error) {
	return ParseTownTable(townsYAML)
}

// ParseTownTable parses a YAML document with a top-level "towns" mapping.
func ParseTownTable(data []byte) (*TownTable, error) {
	var doc townDocument
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode town table: %w", err)
	}
	if len(doc.Towns) == 0 {
		return nil, fmt.Errorf("decode town table: no towns")
	}
	towns := make(map[string]string, len(doc.Towns))
	for town, county := range doc.Towns {
		key := normalizeTown(town)
		county = strings.TrimSpace(county)
		if key == "" || county == "" {
			return nil, fmt.Errorf("decode town table: empty entry %q: %q", town, county)
		}
		towns[key] = county
	}
	return &TownTable{towns: towns}, nil
}

// Lookup returns the county for a town name, ignoring case, surrounding
// whitespace and periods ("St. Ignatius").
func (t *TownTable) Lookup(town string) (string, bool) {
	county, ok := t.towns[normalizeTown(town)]
	return county, ok
}

// ResolveCounty turns a spoken place into a county name: a known town maps
// through the table, text already naming a county is kept, and anything else
// is assumed to be a county missing its suffix.
func (t *TownTable) ResolveCounty(raw string) string {
	raw = strings.Join(strings.Fields(raw), " ")
	if county, ok := t.Lookup(raw); ok {
		return county
	}
	if strings.Contains(strings.ToLower(raw), "county") {
		return raw
	}
	return raw + " County"
}

// Towns lists the table keys in sorted order.
func (t *TownTable) Towns() []string {
	out := make([]string, 0, len(t.towns))
	for town := range t.towns {
		out = append(out, town)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of entries.
func (t *TownTable) Len() int { return len(t.towns) }

func normalizeTown(s string) string {
	s = strings.ReplaceAll(strings.ToLower(s), ".", "")
	return strings.Join(strings.Fields(s), " ")
}
