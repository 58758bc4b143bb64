package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"microsim-matcher/internal/engine"
	"microsim-matcher/internal/pedagogy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleResults() []engine.Result {
	return []engine.Result{
		{
			ID:                "https://a.github.io/course/sims/pendulum/",
			Title:             "Pendulum",
			CombinedScore:     0.9,
			SemanticScore:     0.95,
			PedagogicalScore:  0.825,
			Pedagogy:          &pedagogy.Breakdown{Total: 0.825},
			Framework:         "p5.js",
			Subjects:          []string{"Physics"},
			VisualizationType: []string{"animation", "chart"},
			Pattern:           "exploration",
			GitHubURL:         "https://github.com/a/course/tree/main/docs/sims/pendulum",
		},
		{ID: "graph-sort", CombinedScore: 0.3},
	}
}

func TestBand(t *testing.T) {
	cases := map[float64]string{
		0.85: "Highly Similar",
		0.84: "Similar",
		0.70: "Similar",
		0.5:  "Related",
		0.49: "Somewhat Related",
		-0.2: "Somewhat Related",
	}
	for score, want := range cases {
		assert.Equal(t, want, Band(score), "score %v", score)
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	f, err = ParseFormat(" JSON ")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestResultsText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Results(&buf, FormatText, "Similar MicroSim Templates", sampleResults()))
	out := buf.String()

	lines := strings.Split(out, "\n")
	assert.Equal(t, strings.Repeat("=", 70), lines[0])
	assert.Equal(t, "Similar MicroSim Templates", lines[1])
	assert.Contains(t, out, "1. Pendulum\n   Score: 0.9000 (Highly Similar)\n")
	assert.Contains(t, out, "   Visualization: animation, chart\n")
	assert.Contains(t, out, "   GitHub: https://github.com/a/course/tree/main/docs/sims/pendulum\n")
	assert.Contains(t, out, "2. Unknown\n   Score: 0.3000 (Somewhat Related)\n   Framework: unknown\n   Subject: unknown\n")
	assert.Contains(t, out, "   Live: graph-sort\n")
}

func TestResultsTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Results(&buf, FormatTable, "", sampleResults()))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "RANK"))
	assert.Contains(t, lines[1], "0.8250")
	assert.Contains(t, lines[2], "graph-sort")
}

func TestResultsJSONAndYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Results(&buf, FormatJSON, "", sampleResults()))
	var decoded []engine.Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "Pendulum", decoded[0].Title)

	buf.Reset()
	require.NoError(t, Results(&buf, FormatYAML, "", sampleResults()))
	var generic []map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &generic))
	require.Len(t, generic, 2)
	assert.Equal(t, "graph-sort", generic[1]["id"])
}

func TestStatsText(t *testing.T) {
	var buf bytes.Buffer
	st := engine.Stats{Records: 4, Embedded: 3, OrphanEmbeddings: 1, Patterns: map[string]int{"exploration": 2, "reference": 2, "practice": 1}}
	require.NoError(t, Stats(&buf, FormatText, st))
	out := buf.String()
	assert.Contains(t, out, "Embeddings without record:")
	assert.Less(t, strings.Index(out, "exploration"), strings.Index(out, "reference"))
	assert.Less(t, strings.Index(out, "reference"), strings.Index(out, "practice"))
}
