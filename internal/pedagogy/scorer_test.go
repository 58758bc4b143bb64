package pedagogy

import (
	"encoding/json"
	"testing"

	"microsim-matcher/internal/spec"
	"microsim-matcher/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fields(kv ...string) *spec.Fields {
	f := spec.NewFields()
	for i := 0; i+1 < len(kv); i += 2 {
		f.Set(kv[i], kv[i+1])
	}
	return f
}

func TestTablesAreValid(t *testing.T) {
	require.NoError(t, ValidateTables())
}

func TestQueryFromFields(t *testing.T) {
	q := QueryFromFields(fields(spec.KeyBloomLevel, "Apply (L3)", spec.KeyBloomVerb, "Calculate, solve"))
	assert.Equal(t, Apply, q.Level)
	assert.Equal(t, Verb("calculate"), q.Verb)

	q = QueryFromFields(fields(spec.KeyBloomVerb, "predict"))
	assert.Equal(t, Evaluate, q.Level, "level inferred from verb")

	q = QueryFromFields(fields(spec.KeyBloomLevel, "Level 3"))
	assert.Equal(t, LevelUnknown, q.Level)
}

func TestScoreWithoutProfileIsNeutral(t *testing.T) {
	b := ScoreFields(fields(spec.KeyBloomVerb, "predict", spec.KeyBloomLevel, "Evaluate"), nil)
	assert.Equal(t, 0.5, b.Total)
	assert.Equal(t, NeutralBreakdown, b)
}

func TestScoreEmptyQueryIsNeutral(t *testing.T) {
	p := &Profile{Pattern: Exploration, Pacing: SelfPaced, BloomAlignment: []BloomLevel{Apply}, BloomVerbs: []Verb{"use"}}
	b := ScoreFields(spec.NewFields(), p)
	assert.InDelta(t, 0.5, b.Total, 1e-12)
}

func TestScoreBounded(t *testing.T) {
	profiles := []*Profile{
		{},
		{Pattern: Reference, Pacing: Timed, BloomAlignment: []BloomLevel{Remember}},
		{Pattern: GuidedDiscovery, Pacing: SelfPaced, BloomAlignment: []BloomLevel{Evaluate}, BloomVerbs: []Verb{"predict"}},
	}
	queries := []*spec.Fields{
		fields(),
		fields(spec.KeyBloomVerb, "create", spec.KeyBloomLevel, "Create"),
		fields(spec.KeyBloomVerb, "simulate"),
		fields(spec.KeyBloomLevel, "Remember (L1)"),
	}
	for _, p := range profiles {
		for _, q := range queries {
			b := ScoreFields(q, p)
			assert.GreaterOrEqual(t, b.Total, 0.0)
			assert.LessOrEqual(t, b.Total, 1.0)
		}
	}
}

func TestGuidedDiscoveryBeatsReferenceForPrediction(t *testing.T) {
	q := fields(spec.KeyBloomVerb, "predict", spec.KeyBloomLevel, "Evaluate")
	base := Profile{Pacing: SelfPaced, BloomAlignment: []BloomLevel{Evaluate}, BloomVerbs: []Verb{"predict"}}

	a, b := base, base
	a.Pattern = GuidedDiscovery
	b.Pattern = Reference

	sa, sb := ScoreFields(q, &a), ScoreFields(q, &b)
	assert.Greater(t, sa.Total, sb.Total)
	assert.Equal(t, 0.0, sb.Pattern, "penalty floors at zero")
	assert.Equal(t, 1.0, sa.Pattern)
}

func TestCreatePenalizesReference(t *testing.T) {
	q := Query{Level: Create, Verb: "create"}
	assert.Equal(t, 0.0, patternScore(q, &Profile{Pattern: Reference}))
	assert.Greater(t, patternScore(q, &Profile{Pattern: Exploration}), 0.5)
}

func TestPatternFallsBackToLevelTable(t *testing.T) {
	q := Query{Level: Apply, Verb: "simulate"}
	assert.Equal(t, 1.0, patternScore(q, &Profile{Pattern: Practice}))
	assert.Equal(t, Neutral, patternScore(Query{}, &Profile{Pattern: Practice}))
	assert.Equal(t, Neutral, patternScore(q, &Profile{}))
}

func TestVerbScore(t *testing.T) {
	q := Query{Verb: "predict"}
	assert.Equal(t, 1.0, verbScore(q, &Profile{BloomVerbs: []Verb{"compare", "predict"}}))
	assert.Equal(t, 0.6, verbScore(q, &Profile{BloomVerbs: []Verb{"compare"}}))
	assert.Equal(t, 0.5, verbScore(q, &Profile{}))
	assert.Equal(t, 0.5, verbScore(Query{}, &Profile{BloomVerbs: []Verb{"compare"}}))
}

func TestPacingTimedTolerance(t *testing.T) {
	timed := &Profile{Pacing: Timed}
	assert.Greater(t, pacingScore(Query{Level: Evaluate}, timed), pacingScore(Query{Level: Create}, timed))
	assert.Equal(t, Neutral, pacingScore(Query{}, timed))
}

func TestBloomScoreUsesBestLevel(t *testing.T) {
	q := Query{Level: Apply}
	assert.Equal(t, 1.0, bloomScore(q, &Profile{BloomAlignment: []BloomLevel{Remember, Apply}}))
	assert.Equal(t, 0.7, bloomScore(q, &Profile{BloomAlignment: []BloomLevel{Remember, Analyze}}))
	assert.Equal(t, 0.7, bloomScore(q, &Profile{BloomAlignment: []BloomLevel{Analyze, Remember}}))
	assert.Equal(t, 0.5, bloomScore(q, &Profile{BloomAlignment: []BloomLevel{Evaluate}}))
	assert.Equal(t, 0.5, bloomScore(q, &Profile{BloomAlignment: []BloomLevel{Create}}))
	assert.Equal(t, 0.5, bloomScore(q, &Profile{}))
}

func TestWeightedTotal(t *testing.T) {
	p := &Profile{Pattern: GuidedDiscovery, Pacing: Timed, BloomAlignment: []BloomLevel{Analyze}, BloomVerbs: []Verb{"compare"}}
	b := Score(Query{Level: Evaluate, Verb: "predict"}, p)
	want := 0.40*1.0 + 0.25*0.6 + 0.20*0.7 + 0.15*0.7
	assert.InDelta(t, want, b.Total, 1e-9)
}

func TestProfileFromSectionCoercion(t *testing.T) {
	var sec types.PedagogicalSection
	raw := `{
		"pattern": ["exploration"],
		"pacing": "self-paced",
		"bloomAlignment": "Apply",
		"bloomVerbs": ["experiment", "wiggle", "experiment"],
		"supportsPrediction": "yes",
		"dataVisibility": "medium",
		"feedbackType": "immediate",
		"interactionStyle": "manipulate"
	}`
	require.NoError(t, json.Unmarshal([]byte(raw), &sec))

	p, issues := ProfileFromSection(&sec)
	require.NotNil(t, p)
	assert.Equal(t, PatternUnknown, p.Pattern)
	assert.Equal(t, SelfPaced, p.Pacing)
	assert.Equal(t, []BloomLevel{Apply}, p.BloomAlignment)
	assert.Equal(t, []Verb{"experiment"}, p.BloomVerbs)
	assert.False(t, p.SupportsPrediction)
	assert.Equal(t, []FeedbackType{FeedbackImmediate}, p.FeedbackTypes)
	assert.Equal(t, Manipulate, p.InteractionStyle)

	var names []string
	for _, i := range issues {
		names = append(names, i.Field)
	}
	assert.ElementsMatch(t, []string{"pattern", "bloomVerbs", "supportsPrediction"}, names)

	assert.Equal(t, []string{`verb "experiment" maps to analyze which is not in bloomAlignment`}, p.Inconsistencies())
}

func TestProfileSectionRoundTrip(t *testing.T) {
	p := &Profile{
		Pattern:          GuidedDiscovery,
		Pacing:           StepThrough,
		BloomAlignment:   []BloomLevel{Understand, Evaluate},
		BloomVerbs:       []Verb{"explain", "predict"},
		DataVisibility:   VisibilityHigh,
		FeedbackTypes:    []FeedbackType{FeedbackCorrective},
		InteractionStyle: Respond,
	}
	sec, err := p.Section()
	require.NoError(t, err)
	back, issues := ProfileFromSection(sec)
	assert.Empty(t, issues)
	assert.Equal(t, p, back)
}

func TestMalformedSectionScoresNeutral(t *testing.T) {
	var sec types.PedagogicalSection
	require.NoError(t, json.Unmarshal([]byte(`"exploration"`), &sec))
	require.True(t, sec.Malformed)

	p, issues := ProfileFromSection(&sec)
	assert.Nil(t, p)
	assert.Empty(t, issues)
	assert.Equal(t, 0.5, Score(Query{Level: Apply, Verb: "experiment"}, p).Total)
}
