package spec

import (
	"regexp"
	"strings"
)

var labelLine = regexp.MustCompile(`^([A-Za-z][A-Za-z\s]*):\s*(.*)$`)

// Parse extracts labelled fields from specification text.
//
// A line of the form "Label: value" opens a field whose key is the label
// lower-cased with spaces replaced by underscores. Following non-blank lines
// that are not labels are appended to the open field. A repeated label
// replaces the earlier value. Text before the first label is ignored.
func Parse(text string) *Fields {
	fields := NewFields()
	current := ""
	var buf []string

	flush := func() {
		if current == "" {
			return
		}
		fields.Set(current, strings.TrimSpace(strings.Join(buf, "\n")))
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := labelLine.FindStringSubmatch(line); m != nil {
			flush()
			current = normalizeLabel(m[1])
			buf = buf[:0]
			if v := strings.TrimSpace(m[2]); v != "" {
				buf = append(buf, v)
			}
			continue
		}
		if current != "" {
			buf = append(buf, line)
		}
	}
	flush()
	return fields
}

func normalizeLabel(label string) string {
	return strings.Join(strings.Fields(strings.ToLower(label)), "_")
}
