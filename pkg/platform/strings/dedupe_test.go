package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnique(t *testing.T) {
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"},
		Unique([]string{" kafka-1:9092", "kafka-2:9092 ", "", "kafka-1:9092"}))
	assert.Equal(t, []string{"Ravalli County", "ravalli county"},
		Unique([]string{"Ravalli County", "ravalli county"}), "case is preserved")
	assert.Nil(t, Unique(nil))
}

func TestUniqueFold(t *testing.T) {
	assert.Equal(t, []string{"great falls", "darby"},
		UniqueFold([]string{"Great Falls", " darby", "GREAT FALLS", "  "}))
}
