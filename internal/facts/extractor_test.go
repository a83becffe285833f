package facts

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GuyfromMontana/MFC-single-agent/pkg/domain"
)

func caller(lines ...string) []domain.Turn {
	turns := make([]domain.Turn, 0, len(lines)*2)
	for _, l := range lines {
		turns = append(turns,
			domain.Turn{Role: domain.RoleAgent, Content: "Go ahead."},
			domain.Turn{Role: domain.RoleUser, Content: l},
		)
	}
	return turns
}

func TestExtractName(t *testing.T) {
	ex := NewHeuristic()

	tests := []struct {
		name   string
		turns  []domain.Turn
		want   string
		wantOK bool
	}{
		{"full name introduction", caller("Hi, my name is John Smith, I need feed for my cattle."), "John Smith", true},
		{"filler after I'm", caller("I'm just looking around"), "", false},
		{"it's introduction", caller("Hey, it's Dave"), "Dave", true},
		{"this is calling", caller("Yeah this is Mary Jones calling about mineral"), "Mary Jones", true},
		{"call me", caller("You can call me Bo"), "Bo", true},
		{"the name is", caller("the name is hank williams"), "Hank Williams", true},
		{"I'm with trailing from", caller("I'm Sarah from Polson"), "Sarah", true},
		{"lowercase I'm is not trusted", caller("i'm near darby"), "", false},
		{"I'm followed by a preposition", caller("I'm near Darby"), "", false},
		{"trailing connector trimmed", caller("my name is John and I run cows"), "John", true},
		{"greeting is not a name", caller("my name is hello"), "", false},
		{"no introduction", caller("What do you have for calf starter?"), "", false},
		{"later pattern in same turn", caller("Sorry about that. Call me Wade"), "Wade", true},
		{"business named for a town", caller("Hi, this is Bozeman Feed calling"), "", false},
		{"town with it's", caller("Hey, it's Billings here"), "", false},
		{"town with I'm", caller("I'm Missoula, the co-op office."), "", false},
		{"two word town", caller("the name is Miles City Feed"), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ex.ExtractName(tt.turns)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractName_OnlyCallerTurns(t *testing.T) {
	turns := []domain.Turn{
		{Role: domain.RoleAgent, Content: "Hi, my name is Riley, how can I help?"},
		{Role: domain.RoleUser, Content: "Looking for a price on hay."},
	}
	_, ok := NewHeuristic().ExtractName(turns)
	assert.False(t, ok)
}

func TestExtractName_TurnLimit(t *testing.T) {
	turns := caller("hello", "prices?", "ok", "and delivery", "my name is Pat Doyle")
	// the introduction is the tenth turn; the default window is eight
	_, ok := NewHeuristic().ExtractName(turns)
	assert.False(t, ok)

	name, ok := NewHeuristic(WithTurnLimits(10, 0)).ExtractName(turns)
	assert.True(t, ok)
	assert.Equal(t, "Pat Doyle", name)
}

func TestExtractLocation(t *testing.T) {
	ex := NewHeuristic()

	tests := []struct {
		name   string
		turns  []domain.Turn
		want   string
		wantOK bool
	}{
		{"prepositional place", caller("My name is Guy Hanson, I'm near Darby"), "Darby", true},
		{"known place anywhere", caller("we run about two hundred head up by great falls"), "Great Falls", true},
		{"known place wins over pattern", caller("I'm out of Victor", "we sell in Missoula mostly"), "Missoula", true},
		{"lowercase after preposition ignored", caller("I need feed for my cattle in the spring"), "", false},
		{"month is not a place", caller("We calve in March"), "", false},
		{"state suffix trimmed", caller("I'm from Darby Montana"), "Darby", true},
		{"two word place", caller("we live near Deer Lodge"), "Deer Lodge", true},
		{"known place needs word boundary", caller("my neighbor's ranch is butterfield"), "", false},
		{"earliest known place in a turn", caller("we winter in Ronan and summer near Kalispell"), "Ronan", true},
		{"earliest locative in a turn", caller("out of Dillon, we sell in Twin Bridges"), "Dillon", true},
		{"nothing mentioned", caller("Just need a callback"), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ex.ExtractLocation(tt.turns)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWithKnownPlaces(t *testing.T) {
	ex := NewHeuristic(WithKnownPlaces([]string{"darby", "twin bridges"}))

	got, ok := ex.ExtractLocation(caller("ranch is outside twin bridges"))
	assert.True(t, ok)
	assert.Equal(t, "Twin Bridges", got)
}

func TestWithTownNames(t *testing.T) {
	ex := NewHeuristic(WithTownNames([]string{"plains", "pray", "troy", "gf", "twin bridges", "darby"}))

	tests := []struct {
		name   string
		turns  []domain.Turn
		want   string
		wantOK bool
	}{
		{"only after a locative", caller("my cows out on the plains"), "", false},
		{"common verb", caller("We pray for rain every spring"), "", false},
		{"short alias never matches", caller("we're out of gf"), "", false},
		{"after a locative in any case", caller("ranch is outside twin bridges"), "Twin Bridges", true},
		{"table spelling beats pattern at the same spot", caller("we live near Darby Montana"), "Darby", true},
		{"capitalized pattern earlier than table town", caller("from Lolo, used to be near darby"), "Lolo", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ex.ExtractLocation(tt.turns)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	name, ok := ex.ExtractName(caller("This is Troy Baker calling"))
	assert.True(t, ok)
	assert.Equal(t, "Troy Baker", name)

	_, ok = ex.ExtractName(caller("I'm Plains, the co-op office."))
	assert.False(t, ok)
}

func TestIsValidName(t *testing.T) {
	valid := []string{"Guy Hanson", "Al", "Mary-Kate", "O'Neil", "McKenzie", "Miles Davis", "Helena Smith"}
	invalid := []string{"", "Caller", "unknown", "New Caller", "A", "Wondering", "Just Looking", "R2D2", "Hello There",
		"Abcdefghijklmnopqrstuvwxyz Abcdefghijklmnopq", "Billings", "Bozeman Feed", "Miles City Co-op"}

	for _, n := range valid {
		assert.True(t, IsValidName(n), n)
	}
	for _, n := range invalid {
		assert.False(t, IsValidName(n), n)
	}
}

func TestIsPlaceholderName(t *testing.T) {
	assert.True(t, IsPlaceholderName(" Caller "))
	assert.True(t, IsPlaceholderName(""))
	assert.False(t, IsPlaceholderName("Dave"))
}
