// Package spec turns free-form MicroSim specifications into labelled fields
// and composes fields into the canonical text used for embedding.
package spec

// Recognized field keys.
const (
	KeyType                = "type"
	KeyLearningObjective   = "learning_objective"
	KeyBloomLevel          = "bloom_level"
	KeyBloomVerb           = "bloom_verb"
	KeyVisualElements      = "visual_elements"
	KeyCanvasLayout        = "canvas_layout"
	KeyInteractiveControls = "interactive_controls"
	KeyImplementation      = "implementation"
	KeyImplementationNotes = "implementation_notes"
	KeyBehavior            = "behavior"
	KeyAnimation           = "animation"
	KeyTopic               = "topic"
	KeySubject             = "subject"
)

// Fields is an insertion-ordered string map that distinguishes an absent
// key from a key present with an empty value.
type Fields struct {
	keys   []string
	values map[string]string
}

// NewFields returns an empty field set.
func NewFields() *Fields {
	return &Fields{values: make(map[string]string)}
}

// Set stores value under key. Re-setting a key replaces its value but keeps
// its original position.
func (f *Fields) Set(key, value string) {
	if f.values == nil {
		f.values = make(map[string]string)
	}
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = value
}

func (f *Fields) Get(key string) (string, bool) {
	if f == nil {
		return "", false
	}
	v, ok := f.values[key]
	return v, ok
}

// Value returns the value for key or "" when absent.
func (f *Fields) Value(key string) string {
	v, _ := f.Get(key)
	return v
}

func (f *Fields) Has(key string) bool {
	_, ok := f.Get(key)
	return ok
}

func (f *Fields) Len() int {
	if f == nil {
		return 0
	}
	return len(f.keys)
}

// Keys returns the keys in first-seen order.
func (f *Fields) Keys() []string {
	if f == nil {
		return nil
	}
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

// Map returns a copy of the fields as a plain map.
func (f *Fields) Map() map[string]string {
	out := make(map[string]string, f.Len())
	if f == nil {
		return out
	}
	for k, v := range f.values {
		out[k] = v
	}
	return out
}
