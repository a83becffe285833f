package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runTown(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs(append([]string{"town"}, args...))
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestTownCommand(t *testing.T) {
	assert.Equal(t, "Darby: Ravalli County\n", runTown(t, "Darby"))
	assert.Contains(t, runTown(t, "Nowhere"), `would query "Nowhere County"`)
	assert.Contains(t, runTown(t), "darby")
}
