package spec

import (
	"encoding/json"
	"strings"

	"microsim-matcher/internal/types"
)

const segmentSep = " | "

type segment struct {
	label string
	keys  []string // first present key wins
}

var segments = []segment{
	{"Type", []string{KeyType}},
	{"Learning Objective", []string{KeyLearningObjective}},
	{"Cognitive Level", []string{KeyBloomLevel}},
	{"Action", []string{KeyBloomVerb}},
	{"Visual Elements", []string{KeyVisualElements}},
	{"Layout", []string{KeyCanvasLayout}},
	{"Controls", []string{KeyInteractiveControls}},
	{"Framework", []string{KeyImplementation, KeyImplementationNotes}},
	{"Behavior", []string{KeyBehavior}},
	{"Animation", []string{KeyAnimation}},
	{"Topic", []string{KeyTopic}},
	{"Subject", []string{KeySubject}},
}

// Compose renders fields into the canonical "Label: value | ..." text.
// Segments follow a fixed order and absent fields are skipped, so an empty
// field set yields "".
func Compose(f *Fields) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		for _, k := range s.keys {
			if v, ok := f.Get(k); ok {
				parts = append(parts, s.label+": "+v)
				break
			}
		}
	}
	return strings.Join(parts, segmentSep)
}

// QueryText composes the parsed specification, falling back to the raw
// text when no recognized field was found.
func QueryText(raw string, f *Fields) string {
	if text := Compose(f); text != "" {
		return text
	}
	return strings.TrimSpace(raw)
}

const maxObjectives = 5

// RecordFields maps a catalog record onto specification fields so corpus
// text and query text are composed by the same rule.
func RecordFields(rec *types.MicroSimRecord) *Fields {
	f := NewFields()
	setIf := func(key, value string) {
		if value = strings.TrimSpace(value); value != "" {
			f.Set(key, value)
		}
	}

	objectives := rec.LearningObjectives.Values
	if len(objectives) > maxObjectives {
		objectives = objectives[:maxObjectives]
	}
	if len(objectives) > 0 {
		setIf(KeyLearningObjective, strings.Join(objectives, "; "))
	} else {
		setIf(KeyLearningObjective, rec.Description)
	}

	levels := rec.BloomsTaxonomy.Values
	var verbs []string
	if rec.Pedagogical != nil {
		if len(levels) == 0 {
			levels = rawList(rec.Pedagogical.BloomAlignment)
		}
		verbs = rawList(rec.Pedagogical.BloomVerbs)
	}
	setIf(KeyBloomLevel, strings.Join(levels, ", "))
	setIf(KeyBloomVerb, strings.Join(verbs, ", "))
	setIf(KeyVisualElements, strings.Join(rec.VisualizationType.Values, ", "))
	setIf(KeyImplementation, string(rec.Framework))
	if len(objectives) > 0 {
		setIf(KeyBehavior, rec.Description)
	}
	if rec.Topic != "" {
		setIf(KeyTopic, rec.Topic)
	} else {
		setIf(KeyTopic, rec.Title)
	}
	setIf(KeySubject, strings.Join(rec.AllSubjects(), ", "))
	return f
}

// CorpusText is the embedding input for a catalog record.
func CorpusText(rec *types.MicroSimRecord) string {
	return Compose(RecordFields(rec))
}

func rawList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var l types.StringList
	_ = json.Unmarshal(raw, &l)
	return l.Values
}
