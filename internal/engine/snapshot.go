package engine

import (
	"sort"

	"microsim-matcher/internal/index"
	"microsim-matcher/internal/logger"
	"microsim-matcher/internal/pedagogy"
	"microsim-matcher/internal/types"
)

type entry struct {
	rec     *types.MicroSimRecord
	profile *pedagogy.Profile
}

// Stats summarizes a snapshot for reports and metrics.
type Stats struct {
	Records          int            `json:"records" yaml:"records"`
	Embedded         int            `json:"embedded" yaml:"embedded"`
	WithProfile      int            `json:"withProfile" yaml:"withProfile"`
	OrphanRecords    int            `json:"orphanRecords" yaml:"orphanRecords"`
	OrphanEmbeddings int            `json:"orphanEmbeddings" yaml:"orphanEmbeddings"`
	BadEmbeddings    int            `json:"badEmbeddings" yaml:"badEmbeddings"`
	DuplicateIDs     int            `json:"duplicateIds" yaml:"duplicateIds"`
	FieldIssues      int            `json:"fieldIssues" yaml:"fieldIssues"`
	Model            string         `json:"model,omitempty" yaml:"model,omitempty"`
	Dimension        int            `json:"dimension" yaml:"dimension"`
	Patterns         map[string]int `json:"patterns" yaml:"patterns"`
}

// Snapshot is an immutable, query-ready view of the catalog: records that
// have an embedding, their validated profiles and the similarity index.
// Queries share a snapshot without locking.
type Snapshot struct {
	entries []entry
	byID    map[string]int
	index   *index.Flat
	stats   Stats
}

// NewSnapshot joins records with the embedding table by id. Records without
// an embedding and embeddings without a record are logged and excluded.
// Malformed pedagogical fields are logged and treated as absent.
func NewSnapshot(records []*types.MicroSimRecord, table *types.EmbeddingTable, log *logger.Logger) (*Snapshot, error) {
	if log == nil {
		log = logger.NewNop()
	}
	log = log.With("component", "snapshot")
	s := &Snapshot{
		byID:  make(map[string]int),
		stats: Stats{Records: len(records), Patterns: map[string]int{}},
	}
	var vectors map[string]types.Vector
	if table != nil {
		vectors = table.Vectors
		s.stats.Model = table.Model
		for _, id := range table.Rejected {
			log.Warn("skipping unusable embedding", "id", id, "dimension", table.Dimension)
		}
		s.stats.BadEmbeddings = len(table.Rejected)
	}

	seen := make(map[string]bool, len(records))
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		id := rec.Key()
		if id == "" || seen[id] {
			s.stats.DuplicateIDs++
			log.Warn("skipping record with empty or duplicate id", "id", id, "title", rec.Title)
			continue
		}
		seen[id] = true
		if _, ok := vectors[id]; !ok {
			s.stats.OrphanRecords++
			log.Warn("record has no embedding", "id", id)
			continue
		}

		profile, issues := pedagogy.ProfileFromSection(rec.Pedagogical)
		for _, issue := range issues {
			log.Warn("malformed pedagogical field", "id", id, "field", issue.Field, "reason", issue.Reason)
		}
		for _, f := range rec.MalformedFields() {
			log.Warn("malformed record field", "id", id, "field", f)
		}
		s.stats.FieldIssues += len(issues) + len(rec.MalformedFields())
		if profile != nil {
			for _, msg := range profile.Inconsistencies() {
				log.Debug("inconsistent pedagogical profile", "id", id, "detail", msg)
			}
			s.stats.WithProfile++
			s.stats.Patterns[profile.Pattern.String()]++
		}

		s.byID[id] = len(s.entries)
		s.entries = append(s.entries, entry{rec: rec, profile: profile})
		ids = append(ids, id)
	}

	orphans := make([]string, 0)
	for id := range vectors {
		if !seen[id] {
			orphans = append(orphans, id)
		}
	}
	sort.Strings(orphans)
	for _, id := range orphans {
		log.Warn("embedding has no record", "id", id)
	}
	s.stats.OrphanEmbeddings = len(orphans)

	idx, err := index.Build(ids, vectors)
	if err != nil {
		return nil, NewError(KindDimensionMismatch, "build index", "", err)
	}
	s.index = idx
	s.stats.Embedded = len(s.entries)
	s.stats.Dimension = idx.Dim()
	return s, nil
}

func (s *Snapshot) Len() int { return len(s.entries) }

func (s *Snapshot) Stats() Stats {
	out := s.stats
	out.Patterns = make(map[string]int, len(s.stats.Patterns))
	for k, v := range s.stats.Patterns {
		out.Patterns[k] = v
	}
	return out
}

// Record returns the record and its profile by id.
func (s *Snapshot) Record(id string) (*types.MicroSimRecord, *pedagogy.Profile, bool) {
	i, ok := s.byID[id]
	if !ok {
		return nil, nil, false
	}
	return s.entries[i].rec, s.entries[i].profile, true
}

// IDs returns the embedded record ids in corpus order.
func (s *Snapshot) IDs() []string {
	return s.index.IDs()
}
