package spec

import (
	"encoding/json"
	"strings"
	"testing"

	"microsim-matcher/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSpec = `Type: microsim
Learning Objective: Students predict where a projectile lands
and compare the prediction with the simulation.

Bloom Level: Evaluate (L5)
Bloom Verb: predict
Visual Elements: parabola, launcher, target
Interactive Controls: angle slider, speed slider
Implementation: p5.js
Topic: Projectile motion
Subject: Physics`

func TestParseLabelsAndContinuations(t *testing.T) {
	f := Parse(sampleSpec)

	assert.Equal(t, []string{
		KeyType, KeyLearningObjective, KeyBloomLevel, KeyBloomVerb, KeyVisualElements,
		KeyInteractiveControls, KeyImplementation, KeyTopic, KeySubject,
	}, f.Keys())
	assert.Equal(t, "Students predict where a projectile lands\nand compare the prediction with the simulation.",
		f.Value(KeyLearningObjective))
	assert.Equal(t, "Evaluate (L5)", f.Value(KeyBloomLevel))
}

func TestParseDuplicateLabelLastWins(t *testing.T) {
	f := Parse("Topic: first\nmore first\nTopic: second")
	assert.Equal(t, 1, f.Len())
	assert.Equal(t, "second", f.Value(KeyTopic))
}

func TestParseEmptyValueIsPresent(t *testing.T) {
	f := Parse("Animation:\nTopic: waves")
	v, ok := f.Get(KeyAnimation)
	assert.True(t, ok)
	assert.Equal(t, "", v)
	assert.False(t, f.Has(KeyBehavior))
}

func TestParseNoLabels(t *testing.T) {
	f := Parse("just a sentence about pendulums\n\nand another")
	assert.Equal(t, 0, f.Len())
	assert.Equal(t, "", Compose(f))
	assert.Equal(t, "just a sentence about pendulums\n\nand another",
		QueryText("just a sentence about pendulums\n\nand another", f))
}

func TestComposeOrderAndLabels(t *testing.T) {
	f := Parse(sampleSpec)
	assert.Equal(t,
		"Type: microsim | Learning Objective: Students predict where a projectile lands\nand compare the prediction with the simulation. | "+
			"Cognitive Level: Evaluate (L5) | Action: predict | Visual Elements: parabola, launcher, target | "+
			"Controls: angle slider, speed slider | Framework: p5.js | Topic: Projectile motion | Subject: Physics",
		Compose(f))
}

func TestComposeTopicOnly(t *testing.T) {
	f := NewFields()
	f.Set(KeyTopic, "Ohm's law")
	assert.Equal(t, "Topic: Ohm's law", Compose(f))
}

func TestComposeImplementationNotesFallback(t *testing.T) {
	f := NewFields()
	f.Set(KeyImplementationNotes, "vis-network")
	assert.Equal(t, "Framework: vis-network", Compose(f))

	f.Set(KeyImplementation, "p5.js")
	assert.Equal(t, "Framework: p5.js", Compose(f))
}

func TestParseRoundTripsKeys(t *testing.T) {
	f := NewFields()
	f.Set(KeyType, "microsim")
	f.Set(KeyBloomVerb, "predict")
	f.Set(KeyCanvasLayout, "two panels")
	f.Set("extra_notes", "kept even though unrecognized")

	var lines []string
	for _, k := range f.Keys() {
		lines = append(lines, strings.ReplaceAll(k, "_", " ")+": "+f.Value(k))
	}
	again := Parse(strings.Join(lines, "\n"))
	assert.Equal(t, f.Keys(), again.Keys())
	assert.Equal(t, f.Map(), again.Map())
}

func TestRecordFields(t *testing.T) {
	var rec types.MicroSimRecord
	raw := `{
		"url": "https://example.org/sims/pendulum/",
		"title": "Pendulum Period",
		"description": "Adjust the length and watch the period change.",
		"subjects": ["Physics"],
		"framework": "p5.js",
		"visualizationType": "animation",
		"learningObjectives": ["Relate length to period"],
		"pedagogical": {"bloomAlignment": ["apply", "analyze"], "bloomVerbs": ["experiment"]}
	}`
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))

	assert.Equal(t,
		"Learning Objective: Relate length to period | Cognitive Level: apply, analyze | Action: experiment | "+
			"Visual Elements: animation | Framework: p5.js | Behavior: Adjust the length and watch the period change. | "+
			"Topic: Pendulum Period | Subject: Physics",
		CorpusText(&rec))
}
