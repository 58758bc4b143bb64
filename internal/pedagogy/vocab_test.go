package pedagogy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBloomLevel(t *testing.T) {
	cases := map[string]BloomLevel{
		"Apply (L3)": Apply,
		"apply":      Apply,
		"  Create ":  Create,
		"EVALUATE":   Evaluate,
	}
	for in, want := range cases {
		got, err := ParseBloomLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseBloomLevel("(L3)")
	var uv *UnknownValueError
	require.True(t, errors.As(err, &uv))
	assert.Equal(t, "bloom level", uv.Kind)
}

func TestParseCategoricals(t *testing.T) {
	p, err := ParsePattern("Guided-Discovery")
	require.NoError(t, err)
	assert.Equal(t, GuidedDiscovery, p)
	assert.Equal(t, "guided-discovery", p.String())

	_, err = ParsePattern("lecture")
	assert.Error(t, err)

	_, err = ParsePacing("")
	assert.Error(t, err)

	s, err := ParseInteractionStyle("explore")
	require.NoError(t, err)
	assert.Equal(t, Explore, s)

	assert.Equal(t, "unknown", PatternUnknown.String())
}

func TestVerbs(t *testing.T) {
	v, err := ParseVerb(" Predict ")
	require.NoError(t, err)
	assert.Equal(t, Evaluate, v.Level())

	v, err = ParseVerb("simulate")
	assert.Error(t, err)
	assert.Equal(t, Verb("simulate"), v)
	assert.Equal(t, LevelUnknown, v.Level())

	for i, d := range defaultVerbs {
		assert.Equal(t, Levels[i], d.Level(), string(d))
	}
}
