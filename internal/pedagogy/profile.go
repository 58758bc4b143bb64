package pedagogy

import (
	"bytes"
	"encoding/json"
	"fmt"

	"microsim-matcher/internal/types"
)

// Profile is the validated pedagogical description of one MicroSim.
// Unknown categorical fields keep their zero (Unknown) value.
type Profile struct {
	Pattern            Pattern
	Pacing             Pacing
	BloomAlignment     []BloomLevel
	BloomVerbs         []Verb
	SupportsPrediction bool
	DataVisibility     DataVisibility
	FeedbackTypes      []FeedbackType
	InteractionStyle   InteractionStyle
}

// FieldIssue describes a malformed pedagogical field that was coerced or
// dropped while building a Profile.
type FieldIssue struct {
	Field  string
	Reason string
}

func (i FieldIssue) String() string {
	return i.Field + ": " + i.Reason
}

// ProfileFromSection validates a raw pedagogical section. A nil or
// malformed section yields a nil profile. Malformed values inside a section
// never fail the conversion; they are reported as issues and treated as
// absent.
func ProfileFromSection(sec *types.PedagogicalSection) (*Profile, []FieldIssue) {
	if sec == nil || sec.Malformed {
		return nil, nil
	}
	p := &Profile{}
	var issues []FieldIssue
	note := func(field, format string, args ...interface{}) {
		issues = append(issues, FieldIssue{Field: field, Reason: fmt.Sprintf(format, args...)})
	}

	if s, ok := scalar(sec.Pattern, "pattern", note); ok {
		if v, err := ParsePattern(s); err != nil {
			note("pattern", "%v", err)
		} else {
			p.Pattern = v
		}
	}
	if s, ok := scalar(sec.Pacing, "pacing", note); ok {
		if v, err := ParsePacing(s); err != nil {
			note("pacing", "%v", err)
		} else {
			p.Pacing = v
		}
	}
	if s, ok := scalar(sec.DataVisibility, "dataVisibility", note); ok {
		if v, err := ParseDataVisibility(s); err != nil {
			note("dataVisibility", "%v", err)
		} else {
			p.DataVisibility = v
		}
	}
	if s, ok := scalar(sec.InteractionStyle, "interactionStyle", note); ok {
		if v, err := ParseInteractionStyle(s); err != nil {
			note("interactionStyle", "%v", err)
		} else {
			p.InteractionStyle = v
		}
	}

	seenLevel := map[BloomLevel]bool{}
	for _, s := range list(sec.BloomAlignment, "bloomAlignment", note) {
		l, err := ParseBloomLevel(s)
		if err != nil {
			note("bloomAlignment", "%v", err)
			continue
		}
		if !seenLevel[l] {
			seenLevel[l] = true
			p.BloomAlignment = append(p.BloomAlignment, l)
		}
	}

	seenVerb := map[Verb]bool{}
	for _, s := range list(sec.BloomVerbs, "bloomVerbs", note) {
		v, err := ParseVerb(s)
		if err != nil {
			note("bloomVerbs", "%v", err)
			continue
		}
		if !seenVerb[v] {
			seenVerb[v] = true
			p.BloomVerbs = append(p.BloomVerbs, v)
		}
	}

	for _, s := range list(sec.FeedbackType, "feedbackType", note) {
		f, err := ParseFeedbackType(s)
		if err != nil {
			note("feedbackType", "%v", err)
			continue
		}
		p.FeedbackTypes = append(p.FeedbackTypes, f)
	}

	if raw := bytes.TrimSpace(sec.SupportsPrediction); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		if err := json.Unmarshal(raw, &p.SupportsPrediction); err != nil {
			note("supportsPrediction", "expected boolean, got %s", raw)
		}
	}
	return p, issues
}

// Inconsistencies reports verbs whose level is missing from the alignment.
func (p *Profile) Inconsistencies() []string {
	if p == nil {
		return nil
	}
	var out []string
	for _, v := range p.BloomVerbs {
		if !p.Aligned(v.Level()) {
			out = append(out, fmt.Sprintf("verb %q maps to %s which is not in bloomAlignment", v, v.Level()))
		}
	}
	return out
}

// Aligned reports whether level is in the profile's Bloom alignment.
func (p *Profile) Aligned(level BloomLevel) bool {
	for _, l := range p.BloomAlignment {
		if l == level {
			return true
		}
	}
	return false
}

// HasVerb compares against the raw verb, so unknown query verbs still match.
func (p *Profile) HasVerb(v Verb) bool {
	for _, pv := range p.BloomVerbs {
		if pv == v {
			return true
		}
	}
	return false
}

// VerbNames returns the verbs as plain strings.
func (p *Profile) VerbNames() []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.BloomVerbs))
	for i, v := range p.BloomVerbs {
		out[i] = string(v)
	}
	return out
}

type profileJSON struct {
	Pattern            string   `json:"pattern,omitempty"`
	BloomAlignment     []string `json:"bloomAlignment"`
	BloomVerbs         []string `json:"bloomVerbs"`
	Pacing             string   `json:"pacing,omitempty"`
	SupportsPrediction bool     `json:"supportsPrediction"`
	DataVisibility     string   `json:"dataVisibility,omitempty"`
	FeedbackType       []string `json:"feedbackType"`
	InteractionStyle   string   `json:"interactionStyle,omitempty"`
}

// MarshalJSON writes the profile in the catalog's on-disk shape.
func (p *Profile) MarshalJSON() ([]byte, error) {
	out := profileJSON{
		BloomAlignment:     []string{},
		BloomVerbs:         p.VerbNames(),
		SupportsPrediction: p.SupportsPrediction,
		FeedbackType:       []string{},
	}
	if p.Pattern.Valid() {
		out.Pattern = p.Pattern.String()
	}
	if p.Pacing.Valid() {
		out.Pacing = p.Pacing.String()
	}
	if p.DataVisibility.Valid() {
		out.DataVisibility = p.DataVisibility.String()
	}
	if p.InteractionStyle.Valid() {
		out.InteractionStyle = p.InteractionStyle.String()
	}
	for _, l := range p.BloomAlignment {
		out.BloomAlignment = append(out.BloomAlignment, l.String())
	}
	for _, f := range p.FeedbackTypes {
		out.FeedbackType = append(out.FeedbackType, f.String())
	}
	return json.Marshal(out)
}

// Section converts the profile back into its raw on-disk form.
func (p *Profile) Section() (*types.PedagogicalSection, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	var sec types.PedagogicalSection
	if err := json.Unmarshal(data, &sec); err != nil {
		return nil, err
	}
	return &sec, nil
}

type noteFunc func(field, format string, args ...interface{})

// scalar reads a JSON string. Any other shape is reported and treated as absent.
func scalar(raw json.RawMessage, field string, note noteFunc) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		note(field, "expected string, got %s", raw)
		return "", false
	}
	return s, s != ""
}

// list reads a JSON array of strings, coercing a bare string to a
// single-element list.
func list(raw json.RawMessage, field string, note noteFunc) []string {
	if len(raw) == 0 {
		return nil
	}
	var l types.StringList
	_ = json.Unmarshal(raw, &l)
	if l.Malformed {
		note(field, "expected list of strings, got %s", bytes.TrimSpace(raw))
	}
	return l.Values
}
