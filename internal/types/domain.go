package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Vector represents a high-dimensional float32 embedding.
type Vector []float32

// StringList decodes either a JSON string or a JSON array of scalars.
// A bare string becomes a single-element list; any other shape leaves the
// list empty and marks it Malformed.
type StringList struct {
	Values    []string
	Malformed bool
}

func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			l.Malformed = true
			return nil
		}
		if s = strings.TrimSpace(s); s != "" {
			l.Values = []string{s}
		}
	case '[':
		var raw []interface{}
		if err := json.Unmarshal(data, &raw); err != nil {
			l.Malformed = true
			return nil
		}
		for _, item := range raw {
			switch v := item.(type) {
			case string:
				if v = strings.TrimSpace(v); v != "" {
					l.Values = append(l.Values, v)
				}
			case float64, bool:
				l.Values = append(l.Values, fmt.Sprint(v))
			default:
				l.Malformed = true
			}
		}
	default:
		l.Malformed = true
	}
	return nil
}

func (l StringList) MarshalJSON() ([]byte, error) {
	if l.Values == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.Values)
}

// FlexString decodes a JSON string or number into a string.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return nil
		}
		*s = FlexString(v)
		return nil
	}
	if data[0] == '[' || data[0] == '{' {
		return nil
	}
	*s = FlexString(string(data))
	return nil
}

// Source carries where a record was harvested from.
type Source struct {
	GitHubURL string `json:"github_url,omitempty"`
	Repo      string `json:"repo,omitempty"`
}

// PedagogicalSection is the record's pedagogical profile as stored on disk.
// Fields are kept raw; the pedagogy package validates them. A value that is
// not a JSON object decodes to an empty section marked Malformed.
type PedagogicalSection struct {
	Pattern            json.RawMessage `json:"pattern,omitempty"`
	Pacing             json.RawMessage `json:"pacing,omitempty"`
	BloomAlignment     json.RawMessage `json:"bloomAlignment,omitempty"`
	BloomVerbs         json.RawMessage `json:"bloomVerbs,omitempty"`
	SupportsPrediction json.RawMessage `json:"supportsPrediction,omitempty"`
	DataVisibility     json.RawMessage `json:"dataVisibility,omitempty"`
	FeedbackType       json.RawMessage `json:"feedbackType,omitempty"`
	InteractionStyle   json.RawMessage `json:"interactionStyle,omitempty"`

	Malformed bool            `json:"-"`
	raw       json.RawMessage // original bytes of a malformed value
}

func (p *PedagogicalSection) UnmarshalJSON(data []byte) error {
	type plain PedagogicalSection
	var v plain
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' || json.Unmarshal(data, &v) != nil {
		*p = PedagogicalSection{Malformed: true, raw: append(json.RawMessage(nil), data...)}
		return nil
	}
	*p = PedagogicalSection(v)
	return nil
}

// MarshalJSON writes a malformed section back unchanged.
func (p *PedagogicalSection) MarshalJSON() ([]byte, error) {
	if p.Malformed && len(p.raw) > 0 {
		return p.raw, nil
	}
	type plain PedagogicalSection
	return json.Marshal((*plain)(p))
}

// MicroSimRecord is one catalog entry describing an interactive widget.
type MicroSimRecord struct {
	ID                 string              `json:"url,omitempty"`
	Identifier         string              `json:"identifier,omitempty"`
	Title              string              `json:"title,omitempty"`
	Description        string              `json:"description,omitempty"`
	Topic              string              `json:"topic,omitempty"`
	Subjects           StringList          `json:"subjects"`
	Subject            StringList          `json:"subject"`
	GradeLevel         FlexString          `json:"gradeLevel,omitempty"`
	Framework          FlexString          `json:"framework,omitempty"`
	VisualizationType  StringList          `json:"visualizationType"`
	LearningObjectives StringList          `json:"learningObjectives"`
	Keywords           StringList          `json:"keywords"`
	BloomsTaxonomy     StringList          `json:"bloomsTaxonomy"`
	Pedagogical        *PedagogicalSection `json:"pedagogical,omitempty"`
	Source             Source              `json:"_source"`
}

// Key returns the record id, falling back to the identifier field.
func (r *MicroSimRecord) Key() string {
	if r.ID != "" {
		return r.ID
	}
	return r.Identifier
}

// AllSubjects merges the list and single-valued subject fields.
func (r *MicroSimRecord) AllSubjects() []string {
	if len(r.Subjects.Values) > 0 {
		return r.Subjects.Values
	}
	return r.Subject.Values
}

// MalformedFields names every list field, and the pedagogical section,
// that had an unusable shape.
func (r *MicroSimRecord) MalformedFields() []string {
	var out []string
	check := func(name string, l StringList) {
		if l.Malformed {
			out = append(out, name)
		}
	}
	check("subjects", r.Subjects)
	check("subject", r.Subject)
	check("visualizationType", r.VisualizationType)
	check("learningObjectives", r.LearningObjectives)
	check("keywords", r.Keywords)
	check("bloomsTaxonomy", r.BloomsTaxonomy)
	if r.Pedagogical != nil && r.Pedagogical.Malformed {
		out = append(out, "pedagogical")
	}
	return out
}

var pagesURL = regexp.MustCompile(`^https://([^./]+)\.github\.io/([^/]+)/sims/([^/]+)/?`)

// GitHubURL returns the source link, deriving it from a GitHub Pages id
// when the record does not carry one.
func (r *MicroSimRecord) GitHubURL() string {
	if r.Source.GitHubURL != "" {
		return r.Source.GitHubURL
	}
	m := pagesURL.FindStringSubmatch(r.Key())
	if m == nil {
		return ""
	}
	return fmt.Sprintf("https://github.com/%s/%s/tree/main/docs/sims/%s", m[1], m[2], m[3])
}

// EmbeddingTable maps record ids to their precomputed vectors. Order keeps
// the ids in file order so iteration is deterministic. Rejected lists ids
// whose vectors were unusable and were left out.
type EmbeddingTable struct {
	Model     string
	Dimension int
	Order     []string
	Vectors   map[string]Vector
	Rejected  []string
}

// Len returns the number of stored vectors.
func (t *EmbeddingTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Vectors)
}
