// Package pedagogy holds the closed vocabularies that describe how a
// MicroSim teaches, the compatibility tables between them, the alignment
// scorer and the heuristic classifier that derives a profile from content.
package pedagogy

import (
	"fmt"
	"strings"
	"unicode"
)

// UnknownValueError reports a categorical value outside its vocabulary.
type UnknownValueError struct {
	Kind  string
	Value string
}

func (e *UnknownValueError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind, e.Value)
}

func parseEnum(kind string, names []string, s string) (int, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if i > 0 && n == v {
			return i, nil
		}
	}
	return 0, &UnknownValueError{Kind: kind, Value: s}
}

// BloomLevel is a level of Bloom's revised taxonomy. The zero value means
// the level is not known.
type BloomLevel int

const (
	LevelUnknown BloomLevel = iota
	Remember
	Understand
	Apply
	Analyze
	Evaluate
	Create
)

const numLevels = 6

var levelNames = []string{"", "remember", "understand", "apply", "analyze", "evaluate", "create"}

// Levels lists every Bloom level in taxonomy order.
var Levels = []BloomLevel{Remember, Understand, Apply, Analyze, Evaluate, Create}

func (l BloomLevel) Valid() bool    { return l > LevelUnknown && l <= Create }
func (l BloomLevel) index() int     { return int(l) - 1 }
func (l BloomLevel) String() string { return nameOf(levelNames, int(l)) }

// ParseBloomLevel reads the leading word of s, so "Apply (L3)" and "apply"
// both yield Apply.
func ParseBloomLevel(s string) (BloomLevel, error) {
	word := strings.FieldsFunc(s, func(r rune) bool { return !unicode.IsLetter(r) })
	if len(word) == 0 {
		return LevelUnknown, &UnknownValueError{Kind: "bloom level", Value: s}
	}
	i, err := parseEnum("bloom level", levelNames, word[0])
	if err != nil {
		return LevelUnknown, &UnknownValueError{Kind: "bloom level", Value: s}
	}
	return BloomLevel(i), nil
}

// Pattern is the instructional pattern a MicroSim follows.
type Pattern int

const (
	PatternUnknown Pattern = iota
	WorkedExample
	Exploration
	Practice
	Assessment
	Reference
	Demonstration
	GuidedDiscovery
)

const numPatterns = 7

var patternNames = []string{"", "worked-example", "exploration", "practice", "assessment", "reference", "demonstration", "guided-discovery"}

// Patterns lists every pattern in declaration order.
var Patterns = []Pattern{WorkedExample, Exploration, Practice, Assessment, Reference, Demonstration, GuidedDiscovery}

func (p Pattern) Valid() bool    { return p > PatternUnknown && p <= GuidedDiscovery }
func (p Pattern) index() int     { return int(p) - 1 }
func (p Pattern) String() string { return nameOf(patternNames, int(p)) }

func ParsePattern(s string) (Pattern, error) {
	i, err := parseEnum("pattern", patternNames, s)
	return Pattern(i), err
}

// Pacing describes who controls the tempo of the interaction.
type Pacing int

const (
	PacingUnknown Pacing = iota
	SelfPaced
	Continuous
	Timed
	StepThrough
)

const numPacings = 4

var pacingNames = []string{"", "self-paced", "continuous", "timed", "step-through"}

var Pacings = []Pacing{SelfPaced, Continuous, Timed, StepThrough}

func (p Pacing) Valid() bool    { return p > PacingUnknown && p <= StepThrough }
func (p Pacing) index() int     { return int(p) - 1 }
func (p Pacing) String() string { return nameOf(pacingNames, int(p)) }

func ParsePacing(s string) (Pacing, error) {
	i, err := parseEnum("pacing", pacingNames, s)
	return Pacing(i), err
}

type InteractionStyle int

const (
	StyleUnknown InteractionStyle = iota
	Observe
	Manipulate
	Construct
	Respond
	Explore
)

var styleNames = []string{"", "observe", "manipulate", "construct", "respond", "explore"}

var InteractionStyles = []InteractionStyle{Observe, Manipulate, Construct, Respond, Explore}

func (s InteractionStyle) Valid() bool    { return s > StyleUnknown && s <= Explore }
func (s InteractionStyle) String() string { return nameOf(styleNames, int(s)) }

func ParseInteractionStyle(s string) (InteractionStyle, error) {
	i, err := parseEnum("interaction style", styleNames, s)
	return InteractionStyle(i), err
}

type DataVisibility int

const (
	VisibilityUnknown DataVisibility = iota
	VisibilityHigh
	VisibilityMedium
	VisibilityLow
)

var visibilityNames = []string{"", "high", "medium", "low"}

func (d DataVisibility) Valid() bool    { return d > VisibilityUnknown && d <= VisibilityLow }
func (d DataVisibility) String() string { return nameOf(visibilityNames, int(d)) }

func ParseDataVisibility(s string) (DataVisibility, error) {
	i, err := parseEnum("data visibility", visibilityNames, s)
	return DataVisibility(i), err
}

type FeedbackType int

const (
	FeedbackUnknown FeedbackType = iota
	FeedbackImmediate
	FeedbackDelayed
	FeedbackCorrective
	FeedbackExplanatory
	FeedbackNone
)

var feedbackNames = []string{"", "immediate", "delayed", "corrective", "explanatory", "none"}

func (f FeedbackType) Valid() bool    { return f > FeedbackUnknown && f <= FeedbackNone }
func (f FeedbackType) String() string { return nameOf(feedbackNames, int(f)) }

func ParseFeedbackType(s string) (FeedbackType, error) {
	i, err := parseEnum("feedback type", feedbackNames, s)
	return FeedbackType(i), err
}

func nameOf(names []string, i int) string {
	if i <= 0 || i >= len(names) {
		return "unknown"
	}
	return names[i]
}

// Verb is a Bloom action verb such as "predict" or "calculate".
type Verb string

// verbLevels is the closed verb vocabulary and the level each verb belongs to.
var verbLevels = map[Verb]BloomLevel{
	"define": Remember, "identify": Remember, "list": Remember,
	"recall": Remember, "recognize": Remember, "state": Remember,

	"classify": Understand, "compare": Understand, "describe": Understand,
	"explain": Understand, "interpret": Understand, "summarize": Understand,

	"apply": Apply, "calculate": Apply, "demonstrate": Apply, "illustrate": Apply,
	"implement": Apply, "solve": Apply, "use": Apply,

	"analyze": Analyze, "differentiate": Analyze, "examine": Analyze,
	"experiment": Analyze, "investigate": Analyze, "test": Analyze,

	"assess": Evaluate, "critique": Evaluate, "evaluate": Evaluate,
	"judge": Evaluate, "justify": Evaluate, "predict": Evaluate,

	"construct": Create, "create": Create, "design": Create,
	"develop": Create, "formulate": Create, "generate": Create,
}

// NormalizeVerb lower-cases s and keeps its first comma-separated entry.
func NormalizeVerb(s string) Verb {
	if i := strings.IndexAny(s, ",;/"); i >= 0 {
		s = s[:i]
	}
	return Verb(strings.ToLower(strings.TrimSpace(s)))
}

// ParseVerb normalizes s and checks it against the verb vocabulary.
func ParseVerb(s string) (Verb, error) {
	v := NormalizeVerb(s)
	if _, ok := verbLevels[v]; !ok {
		return v, &UnknownValueError{Kind: "bloom verb", Value: s}
	}
	return v, nil
}

func (v Verb) Known() bool {
	_, ok := verbLevels[v]
	return ok
}

// Level returns the Bloom level of a known verb, LevelUnknown otherwise.
func (v Verb) Level() BloomLevel {
	return verbLevels[v]
}

// defaultVerbs is the fallback verb per level used by the classifier.
var defaultVerbs = [numLevels]Verb{"identify", "explain", "use", "examine", "evaluate", "create"}
