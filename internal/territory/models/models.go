package models

import (
	"strings"

	"github.com/google/uuid"
)

// Territory is a sales territory covering a list of counties.
type Territory struct {
	ID       uuid.UUID
	Name     string // canonical, without a trailing "Territory"
	Counties []string
}

// DisplayName is the name as spoken to callers ("Bitterroot Territory").
func (t Territory) DisplayName() string {
	if t.Name == "" {
		return ""
	}
	return t.Name + " Territory"
}

// Covers reports whether county is in the territory's list, ignoring case
// and an optional "County" suffix.
func (t Territory) Covers(county string) bool {
	want := NormalizeCounty(county)
	if want == "" {
		return false
	}
	for _, c := range t.Counties {
		if NormalizeCounty(c) == want {
			return true
		}
	}
	return false
}

// Specialist is the field contact assigned to a territory.
type Specialist struct {
	ID            uuid.UUID
	FirstName     string
	LastName      string
	Email         string
	Phone         string
	TerritoryID   uuid.UUID
	TerritoryName string
	Active        bool
}

// FullName joins first and last name.
func (s Specialist) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// CanonicalTerritoryName trims whitespace and a trailing "Territory" word so
// "Bitterroot Territory" and "Bitterroot" compare equal.
func CanonicalTerritoryName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	const suffix = " territory"
	if len(name) > len(suffix) && strings.EqualFold(name[len(name)-len(suffix):], suffix) {
		name = name[:len(name)-len(suffix)]
	}
	return name
}

// NormalizeCounty lowercases, collapses whitespace and drops a trailing
// "county" so "Ravalli County" and "ravalli" compare equal.
func NormalizeCounty(county string) string {
	c := strings.ToLower(strings.Join(strings.Fields(county), " "))
	c = strings.TrimSuffix(c, " county")
	return strings.TrimSpace(c)
}
