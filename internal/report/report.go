// Package report renders ranked results and corpus statistics for people
// and for tools.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"microsim-matcher/internal/engine"

	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatText  Format = "text"
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat accepts text, table, json or yaml. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatTable, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, table, json or yaml)", s)
	}
}

// Band names the similarity range a score falls in.
func Band(score float64) string {
	switch {
	case score >= 0.85:
		return "Highly Similar"
	case score >= 0.70:
		return "Similar"
	case score >= 0.50:
		return "Related"
	default:
		return "Somewhat Related"
	}
}

const rule = "======================================================================"

// Results writes results under heading in the chosen format.
func Results(w io.Writer, format Format, heading string, results []engine.Result) error {
	switch format {
	case FormatJSON, FormatYAML:
		return Encode(w, format, results)
	case FormatTable:
		return resultsTable(w, results)
	default:
		return resultsText(w, heading, results)
	}
}

func resultsText(w io.Writer, heading string, results []engine.Result) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n%s\n\n", rule, heading, rule)
	if len(results) == 0 {
		b.WriteString("No matching templates.\n")
	}
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n", i+1, orDefault(r.Title, "Unknown"))
		fmt.Fprintf(&b, "   Score: %.4f (%s)\n", r.CombinedScore, Band(r.CombinedScore))
		if r.Pedagogy != nil {
			fmt.Fprintf(&b, "   Semantic: %.4f  Pedagogical: %.4f\n", r.SemanticScore, r.PedagogicalScore)
		}
		fmt.Fprintf(&b, "   Framework: %s\n", orDefault(r.Framework, "unknown"))
		fmt.Fprintf(&b, "   Subject: %s\n", orDefault(strings.Join(r.Subjects, ", "), "unknown"))
		if len(r.VisualizationType) > 0 {
			fmt.Fprintf(&b, "   Visualization: %s\n", strings.Join(r.VisualizationType, ", "))
		}
		if r.Pattern != "" {
			fmt.Fprintf(&b, "   Pattern: %s\n", r.Pattern)
		}
		fmt.Fprintf(&b, "   GitHub: %s\n", orDefault(r.GitHubURL, "-"))
		fmt.Fprintf(&b, "   Live: %s\n\n", r.ID)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func resultsTable(w io.Writer, results []engine.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "RANK\tSCORE\tSEMANTIC\tPEDAGOGICAL\tPATTERN\tTITLE\tID\n")
	for i, r := range results {
		ped := "-"
		if r.Pedagogy != nil {
			ped = fmt.Sprintf("%.4f", r.PedagogicalScore)
		}
		fmt.Fprintf(tw, "%d\t%.4f\t%.4f\t%s\t%s\t%s\t%s\n",
			i+1, r.CombinedScore, r.SemanticScore, ped, orDefault(r.Pattern, "-"), r.Title, r.ID)
	}
	return tw.Flush()
}

// Stats writes a corpus summary.
func Stats(w io.Writer, format Format, st engine.Stats) error {
	if format == FormatJSON || format == FormatYAML {
		return Encode(w, format, st)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"Records", fmt.Sprint(st.Records)},
		{"Embedded", fmt.Sprint(st.Embedded)},
		{"With pedagogical profile", fmt.Sprint(st.WithProfile)},
		{"Records without embedding", fmt.Sprint(st.OrphanRecords)},
		{"Embeddings without record", fmt.Sprint(st.OrphanEmbeddings)},
		{"Unusable embeddings", fmt.Sprint(st.BadEmbeddings)},
		{"Duplicate or empty ids", fmt.Sprint(st.DuplicateIDs)},
		{"Malformed fields", fmt.Sprint(st.FieldIssues)},
		{"Model", orDefault(st.Model, "-")},
		{"Dimension", fmt.Sprint(st.Dimension)},
	}
	for _, row := range rows {
		fmt.Fprintf(tw, "%s:\t%s\n", row[0], row[1])
	}
	if len(st.Patterns) > 0 {
		fmt.Fprintf(tw, "\nPATTERN\tCOUNT\n")
		for _, p := range sortedCounts(st.Patterns) {
			fmt.Fprintf(tw, "%s\t%d\n", p.name, p.count)
		}
	}
	return tw.Flush()
}

// Encode writes v as indented JSON or YAML.
func Encode(w io.Writer, format Format, v interface{}) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("format %q is not a data format", format)
	}
}

type count struct {
	name  string
	count int
}

func sortedCounts(m map[string]int) []count {
	out := make([]count, 0, len(m))
	for k, v := range m {
		out = append(out, count{k, v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].name < out[j].name
	})
	return out
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
