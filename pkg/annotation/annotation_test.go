package annotation

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIgnoreRegexp(t *testing.T) {
	var testSuites = []struct {
		input  string
		expect []string
	}{
		{input: "//+covergate:ignore:file", expect: []string{"//+covergate:ignore:file", "file"}},
		{input: "    //+covergate:ignore:file", expect: []string{"//+covergate:ignore:file", "file"}},
		{input: "//+covergate:ignore:block", expect: []string{"//+covergate:ignore:block", "block"}},
		{input: "  {  //+covergate:ignore:block", expect: []string{"//+covergate:ignore:block", "block"}},
		{input: "if err != nil { //+covergate:ignore:block", expect: []string{"//+covergate:ignore:block", "block"}},
		{input: "// +covergate:ignore:block", expect: nil},
		{input: "//+covergate:ignore:abc", expect: nil},
		{input: "//+covergate:ignore:", expect: nil},
		{input: "//+gocover:ignore:block", expect: nil},
	}

	for _, testSuite := range testSuites {
		match := IgnoreRegexp.FindStringSubmatch(testSuite.input)
		assert.Equal(t, testSuite.expect, match, "input: %s", testSuite.input)
	}
}

func TestParseIgnoreProfile(t *testing.T) {
	t.Run("read file error", func(t *testing.T) {
		_, err := ParseIgnoreProfile("/nonexist")
		assert.Error(t, err)
	})

	t.Run("ignore file", func(t *testing.T) {
		f := filepath.Join(t.TempDir(), "foo.go")
		contents := `package foo

//+covergate:ignore:file

func a() {}
`
		require.NoError(t, os.WriteFile(f, []byte(contents), 0o644))

		profile, err := ParseIgnoreProfile(f)
		require.NoError(t, err)
		assert.Equal(t, f, profile.Filename)
		assert.Equal(t, IgnoreFile, profile.Kind)
		assert.Empty(t, profile.Lines)
	})

	t.Run("ignore blocks", func(t *testing.T) {
		f := filepath.Join(t.TempDir(), "foo.go")
		contents := `package foo

func a() error {
	if err := run(); err != nil { //+covergate:ignore:block
		return err
	}

	//+covergate:ignore:block
	cleanup()
	return nil
}
`
		require.NoError(t, os.WriteFile(f, []byte(contents), 0o644))

		profile, err := ParseIgnoreProfile(f)
		require.NoError(t, err)
		assert.Equal(t, IgnoreBlock, profile.Kind)
		require.Len(t, profile.Blocks, 2)

		// first block runs from the directive line to the blank line
		assert.Equal(t, []int{4, 5, 6}, profile.Blocks[0].Lines)
		// second block runs to the end of the file
		assert.Equal(t, []int{8, 9, 10, 11}, profile.Blocks[1].Lines)

		for _, line := range []int{4, 5, 6, 8, 9, 10, 11} {
			assert.True(t, profile.Lines[line], "line %d should be ignored", line)
		}
		assert.False(t, profile.Lines[3])
	})
}

func TestParseIgnoreProfileFromReader(t *testing.T) {
	t.Run("no directives", func(t *testing.T) {
		contents := `package foo

func a() {}
`
		profile, err := parseIgnoreProfile(bytes.NewReader([]byte(contents)))
		require.NoError(t, err)
		assert.Equal(t, IgnoreBlock, profile.Kind)
		assert.Empty(t, profile.Blocks)
		assert.Empty(t, profile.Lines)
	})

	t.Run("block ends at blank line", func(t *testing.T) {
		contents := `//+covergate:ignore:block
one
two

three
`
		profile, err := parseIgnoreProfile(bytes.NewReader([]byte(contents)))
		require.NoError(t, err)
		require.Len(t, profile.Blocks, 1)
		assert.Equal(t, []int{1, 2, 3}, profile.Blocks[0].Lines)
		assert.False(t, profile.Lines[5])
	})

	t.Run("file directive wins over blocks", func(t *testing.T) {
		contents := `//+covergate:ignore:block
one

//+covergate:ignore:file
`
		profile, err := parseIgnoreProfile(bytes.NewReader([]byte(contents)))
		require.NoError(t, err)
		assert.Equal(t, IgnoreFile, profile.Kind)
		assert.Empty(t, profile.Blocks)
	})
}
