package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCovergateCommand(t *testing.T) {
	cmd := NewCovergateCommand("1.2.3", "abcdef", "2026-08-23")
	assert.Equal(t, "covergate", cmd.Use)

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, expected := range []string{"ci", "check", "report", "trends", "suggest", "version"} {
		assert.Contains(t, names, expected)
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := NewCovergateCommand("1.2.3", "abcdef", "2026-08-23")

	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Covergate Version: 1.2.3")
	assert.Contains(t, out.String(), "Runtime SHA: abcdef")
}

func TestCICommandRequiresCoverProfile(t *testing.T) {
	cmd := NewCovergateCommand("dev", "none", "unknown")

	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"ci"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cover-profile")
}

func TestTrendsCommandEmptyHistory(t *testing.T) {
	cmd := NewCovergateCommand("dev", "none", "unknown")

	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"trends", "-o", t.TempDir()})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "No trend data recorded")
}
