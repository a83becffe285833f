// Package facts pulls caller facts (name, location) out of call transcripts.
//
// Extraction is heuristic and conservative: when in doubt it returns nothing.
// Downstream stores keep the first validated name they see.
package facts

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/GuyfromMontana/MFC-single-agent/pkg/domain"
	strs "github.com/GuyfromMontana/MFC-single-agent/pkg/platform/strings"
)

// Extractor finds a caller's name and location in a transcript.
type Extractor interface {
	ExtractName(turns []domain.Turn) (string, bool)
	ExtractLocation(turns []domain.Turn) (string, bool)
}

const (
	defaultNameTurnLimit     = 8
	defaultLocationTurnLimit = 15
	maxNameLength            = 40
	minLocationLength        = 3
)

// word is any two-plus letter token; capWord must be capitalized. Introducers
// that commonly precede non-names ("I'm", "it's", "in") only accept capWord.
const (
	word    = `[A-Za-z]{2,}`
	capWord = `[A-Z][a-z]+`
	apos    = `['’]?`
)

var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i:\bmy name is)\s+(` + word + `(?:\s+` + word + `)?)`),
	regexp.MustCompile(`(?i:\bthis is)\s+(` + word + `(?:\s+` + word + `)?)\s+(?i:calling)\b`),
	regexp.MustCompile(`(?:^|[.!?]\s+|,\s*)(?i:i` + apos + `m|i am)\s+(` + capWord + `(?:\s+` + capWord + `)?)(?:\s*[,.!?]|\s+(?i:and|from|over|out|here)\b|$)`),
	regexp.MustCompile(`(?i:\bcall me)\s+(` + word + `)\b`),
	regexp.MustCompile(`(?i:\bthe name is|\bname` + apos + `s)\s+(` + word + `(?:\s+` + word + `)?)`),
	regexp.MustCompile(`(?:^|[.!?,]\s*|\s)(?i:it` + apos + `s|it is)\s+(` + capWord + `(?:\s+` + capWord + `)?)(?:\s*[,.!?]|\s+(?i:here|calling|from|over|out)\b|$)`),
}

// locatives introduce a place. Town-table names are only trusted after one
// of these, since many of them double as words or given names.
const locatives = `from|in|near|around|outside of|outside|out of|out by|based in|located in|live in|live near`

var locationPattern = regexp.MustCompile(
	`(?i:\b(?:` + locatives + `))\s+(` + capWord + `(?:\s+` + capWord + `)?)`,
)

// Option configures a Heuristic extractor.
type Option func(*Heuristic)

// WithKnownPlaces replaces the curated list of unambiguous place names that
// are matched anywhere in a caller turn.
func WithKnownPlaces(places []string) Option {
	return func(h *Heuristic) {
		h.knownPlaceNames = places
	}
}

// WithTownNames adds lookup-table town names. They are matched only right
// after a locative preposition, and are rejected as the leading word of a
// caller name unless they are also common given names.
func WithTownNames(towns []string) Option {
	return func(h *Heuristic) {
		h.townNames = towns
	}
}

// WithTurnLimits bounds how many leading transcript turns are scanned.
func WithTurnLimits(nameTurns, locationTurns int) Option {
	return func(h *Heuristic) {
		if nameTurns > 0 {
			h.nameTurnLimit = nameTurns
		}
		if locationTurns > 0 {
			h.locationTurnLimit = locationTurns
		}
	}
}

// Heuristic is the pattern-based Extractor. It is stateless after
// construction and safe for concurrent use.
type Heuristic struct {
	knownPlaceNames   []string
	townNames         []string
	nameTurnLimit     int
	locationTurnLimit int

	knownPlaces []knownPlace
	townPattern *regexp.Regexp
	placeNames  []string
}

type knownPlace struct {
	name    string
	pattern *regexp.Regexp
}

// NewHeuristic builds the default extractor.
func NewHeuristic(opts ...Option) *Heuristic {
	h := &Heuristic{
		knownPlaceNames:   defaultKnownPlaces,
		nameTurnLimit:     defaultNameTurnLimit,
		locationTurnLimit: defaultLocationTurnLimit,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.knownPlaces = compilePlaces(h.knownPlaceNames)
	h.townPattern = compileTowns(h.townNames)
	h.placeNames = namePlaces(h.knownPlaceNames, h.townNames)
	return h
}

func compilePlaces(places []string) []knownPlace {
	places = strs.UniqueFold(places)
	out := make([]knownPlace, 0, len(places))
	for _, p := range places {
		out = append(out, knownPlace{
			name:    titleCase(p),
			pattern: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(p) + `\b`),
		})
	}
	return out
}

// compileTowns builds one locative-anchored alternation, longest names first
// so "east helena" is preferred over "helena".
func compileTowns(towns []string) *regexp.Regexp {
	towns = strs.UniqueFold(towns)
	alts := make([]string, 0, len(towns))
	for _, t := range towns {
		t = strings.Join(strings.Fields(strings.ToLower(t)), " ")
		if len(t) < minLocationLength {
			continue
		}
		alts = append(alts, strings.ReplaceAll(regexp.QuoteMeta(t), " ", `\s+`))
	}
	if len(alts) == 0 {
		return nil
	}
	sort.SliceStable(alts, func(i, j int) bool { return len(alts[i]) > len(alts[j]) })
	return regexp.MustCompile(`(?i)\b(?:` + locatives + `)\s+(` + strings.Join(alts, "|") + `)\b`)
}

// namePlaces lists the lowercase place names that may not lead a caller name.
func namePlaces(lists ...[]string) []string {
	var out []string
	for _, list := range lists {
		for _, p := range strs.UniqueFold(list) {
			if _, given := givenNamePlaces[p]; !given {
				out = append(out, p)
			}
		}
	}
	return strs.Unique(out)
}

var defaultPlaceNames = namePlaces(defaultKnownPlaces)

// ExtractName returns the first plausible self-introduction among the
// caller's early turns.
func (h *Heuristic) ExtractName(turns []domain.Turn) (string, bool) {
	for _, t := range domain.CallerTurns(turns, h.nameTurnLimit) {
		text := strings.TrimSpace(t.Content)
		if text == "" {
			continue
		}
		for _, re := range namePatterns {
			for _, m := range re.FindAllStringSubmatch(text, -1) {
				name, ok := cleanName(m[1])
				if ok && !startsWithPlace(name, h.placeNames) {
					return name, true
				}
			}
		}
	}
	return "", false
}

// ExtractLocation returns the earliest known place mentioned by the caller,
// or failing that the earliest place after a locative preposition.
func (h *Heuristic) ExtractLocation(turns []domain.Turn) (string, bool) {
	callerTurns := domain.CallerTurns(turns, h.locationTurnLimit)
	for _, t := range callerTurns {
		if place, ok := h.knownPlaceIn(t.Content); ok {
			return place, true
		}
	}
	for _, t := range callerTurns {
		if place, ok := h.locativePlaceIn(t.Content); ok {
			return place, true
		}
	}
	return "", false
}

func (h *Heuristic) knownPlaceIn(text string) (string, bool) {
	best, at := "", -1
	for _, p := range h.knownPlaces {
		loc := p.pattern.FindStringIndex(text)
		if loc == nil {
			continue
		}
		if at < 0 || loc[0] < at {
			best, at = p.name, loc[0]
		}
	}
	return best, at >= 0
}

// locativePlaceIn weighs a town-table hit against the capitalized pattern and
// keeps whichever starts first. On a tie the table spelling wins.
func (h *Heuristic) locativePlaceIn(text string) (string, bool) {
	best, at := "", -1
	if h.townPattern != nil {
		if m := h.townPattern.FindStringSubmatchIndex(text); m != nil {
			best, at = titleCase(text[m[2]:m[3]]), m[2]
		}
	}
	for _, m := range locationPattern.FindAllStringSubmatchIndex(text, -1) {
		if at >= 0 && m[2] >= at {
			break
		}
		if place, ok := cleanPlace(text[m[2]:m[3]]); ok {
			best, at = place, m[2]
			break
		}
	}
	return best, at >= 0
}

func cleanName(raw string) (string, bool) {
	tokens := strings.Fields(raw)
	if len(tokens) == 0 {
		return "", false
	}
	if _, stop := nameStopWords[strings.ToLower(tokens[0])]; stop {
		return "", false
	}
	for len(tokens) > 1 {
		if _, stop := nameStopWords[strings.ToLower(tokens[len(tokens)-1])]; !stop {
			break
		}
		tokens = tokens[:len(tokens)-1]
	}
	for i, tok := range tokens {
		tokens[i] = titleWord(tok)
	}
	name := strings.Join(tokens, " ")
	if !IsValidName(name) {
		return "", false
	}
	return name, true
}

func cleanPlace(raw string) (string, bool) {
	tokens := strings.Fields(raw)
	if len(tokens) == 0 {
		return "", false
	}
	if _, stop := locationStopWords[strings.ToLower(tokens[0])]; stop {
		return "", false
	}
	if len(tokens) > 1 {
		last := strings.ToLower(tokens[len(tokens)-1])
		_, trailing := locationTrailingWords[last]
		_, stop := locationStopWords[last]
		if trailing || stop {
			tokens = tokens[:len(tokens)-1]
		}
	}
	place := strings.Join(tokens, " ")
	if len(place) < minLocationLength {
		return "", false
	}
	return place, true
}

// IsPlaceholderName reports whether name is one of the stand-ins written when
// the caller's name is unknown.
func IsPlaceholderName(name string) bool {
	_, ok := placeholderNames[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// IsValidName reports whether name is safe to store as a caller's name: not a
// placeholder, 2-40 characters, letters (plus space, apostrophe, hyphen,
// period) only, and not led by a filler word or a known place name.
func IsValidName(name string) bool {
	name = strings.TrimSpace(name)
	if IsPlaceholderName(name) {
		return false
	}
	if len(name) < 2 || len(name) > maxNameLength {
		return false
	}
	hasLetter := false
	for _, r := range name {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case r == ' ' || r == '\'' || r == '-' || r == '.' || r == '’':
		default:
			return false
		}
	}
	if !hasLetter {
		return false
	}
	lower := strings.ToLower(name)
	for _, frag := range nameForbiddenFragments {
		if strings.Contains(lower, frag) {
			return false
		}
	}
	first := strings.Fields(lower)[0]
	if _, stop := nameStopWords[first]; stop {
		return false
	}
	return !startsWithPlace(name, defaultPlaceNames)
}

// startsWithPlace reports whether name is, or begins with, one of places.
func startsWithPlace(name string, places []string) bool {
	lower := strings.Join(strings.Fields(strings.ToLower(name)), " ")
	for _, p := range places {
		if lower == p || strings.HasPrefix(lower, p+" ") {
			return true
		}
	}
	return false
}

// titleWord capitalizes an all-lower or all-upper token and leaves mixed case
// ("McKenzie") alone.
func titleWord(tok string) string {
	if tok != strings.ToLower(tok) && tok != strings.ToUpper(tok) {
		return tok
	}
	lower := []rune(strings.ToLower(tok))
	lower[0] = unicode.ToUpper(lower[0])
	return string(lower)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = titleWord(w)
	}
	return strings.Join(words, " ")
}
