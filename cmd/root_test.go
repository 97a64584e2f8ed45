package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandRegistration(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["run"])
}

func TestServeFlags(t *testing.T) {
	f := serveCmd.Flags()
	require.NotNil(t, f.Lookup("port"))
	require.NotNil(t, f.Lookup("population"))
}

func TestRunFlags(t *testing.T) {
	f := runCmd.Flags()
	require.NotNil(t, f.Lookup("rounds"))
	require.NotNil(t, f.Lookup("population"))

	rounds, err := f.GetInt("rounds")
	require.NoError(t, err)
	assert.Equal(t, 1, rounds)
}
