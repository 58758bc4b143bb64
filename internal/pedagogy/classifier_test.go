package pedagogy

import (
	"testing"

	"microsim-matcher/internal/types"

	"github.com/stretchr/testify/assert"
)

func TestClassifySliderExploration(t *testing.T) {
	content := `
		<input type="range" id="angle">
		Explore what happens when you change the launch angle with the slider.
		Experiment with different speeds and observe the trajectory.`
	p := Classify(content, nil)

	assert.Equal(t, Exploration, p.Pattern)
	assert.Equal(t, SelfPaced, p.Pacing)
	assert.Equal(t, Manipulate, p.InteractionStyle)
	assert.Contains(t, p.BloomAlignment, Apply)
	assert.Contains(t, p.BloomVerbs, Verb("experiment"))
}

func TestClassifyQuiz(t *testing.T) {
	content := `Quiz: choose the correct answer and submit. Your score is shown. Wrong answers show an explanation.`
	p := Classify(content, nil)

	assert.Equal(t, Assessment, p.Pattern)
	assert.Contains(t, p.BloomAlignment, Evaluate)
	assert.Contains(t, p.BloomVerbs, Verb("assess"))
	assert.Contains(t, p.FeedbackTypes, FeedbackCorrective)
	assert.Contains(t, p.FeedbackTypes, FeedbackExplanatory)
}

func TestClassifyDefaults(t *testing.T) {
	p := Classify("", nil)

	assert.Equal(t, Exploration, p.Pattern)
	assert.Equal(t, SelfPaced, p.Pacing)
	assert.Equal(t, []BloomLevel{Understand}, p.BloomAlignment)
	assert.Equal(t, []Verb{"explain"}, p.BloomVerbs)
	assert.Equal(t, Observe, p.InteractionStyle)
	assert.Equal(t, VisibilityMedium, p.DataVisibility)
	assert.Equal(t, []FeedbackType{FeedbackNone}, p.FeedbackTypes)
	assert.False(t, p.SupportsPrediction)
}

func TestClassifyCapsAlignmentAndVerbs(t *testing.T) {
	content := `Adjust the slider, compare results, quiz yourself, explain why, identify parts,
		create your own design. Calculate the formula, predict the outcome, build a model.`
	p := Classify(content, nil)

	assert.Len(t, p.BloomAlignment, maxAlignmentLevels)
	assert.Equal(t, []BloomLevel{Understand, Apply, Analyze}, p.BloomAlignment)
	assert.LessOrEqual(t, len(p.BloomVerbs), maxBloomVerbs)
	for i := 1; i < len(p.BloomVerbs); i++ {
		prev, cur := p.BloomVerbs[i-1], p.BloomVerbs[i]
		assert.True(t, prev.Level() < cur.Level() || (prev.Level() == cur.Level() && prev < cur), "verbs sorted by level then name")
	}
}

func TestClassifyUsesExistingTaxonomy(t *testing.T) {
	rec := &types.MicroSimRecord{
		BloomsTaxonomy:    types.StringList{Values: []string{"Remember"}},
		VisualizationType: types.StringList{Values: []string{"diagram"}},
	}
	p := Classify("a labelled reference table of element symbols", rec)

	assert.Contains(t, p.BloomAlignment, Remember)
	assert.Equal(t, Reference, p.Pattern)
}

func TestClassifyIsDeterministic(t *testing.T) {
	content := "Predict where the ball lands, then press play to watch the animation. Next step shows the formula."
	first := Classify(content, nil)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Classify(content, nil))
	}
	assert.True(t, first.SupportsPrediction)
}
