package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetFindFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() { findFile, findSpec = "", "" })
}

func TestReadSpecificationSources(t *testing.T) {
	resetFindFlags(t)

	path := filepath.Join(t.TempDir(), "spec.txt")
	require.NoError(t, os.WriteFile(path, []byte("Topic: from file"), 0o644))

	findFile = path
	findSpec = "Topic: from flag"
	text, err := readSpecification(strings.NewReader("Topic: from stdin"))
	require.NoError(t, err)
	assert.Equal(t, "Topic: from file", text)

	findFile = ""
	text, err = readSpecification(strings.NewReader("Topic: from stdin"))
	require.NoError(t, err)
	assert.Equal(t, "Topic: from flag", text)

	findSpec = ""
	text, err = readSpecification(strings.NewReader("Topic: from stdin"))
	require.NoError(t, err)
	assert.Equal(t, "Topic: from stdin", text)
}

func TestReadSpecificationMissingFile(t *testing.T) {
	resetFindFlags(t)
	findFile = filepath.Join(t.TempDir(), "missing.txt")
	_, err := readSpecification(strings.NewReader(""))
	assert.Error(t, err)
}
