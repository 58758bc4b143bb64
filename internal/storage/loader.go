package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"microsim-matcher/internal/engine"
	"microsim-matcher/internal/logger"
	"microsim-matcher/internal/types"
)

// EmbeddingsMeta is the metadata block of an embeddings file.
type EmbeddingsMeta struct {
	Model       string `json:"model"`
	Dimension   int    `json:"dimension"`
	Count       int    `json:"count"`
	GeneratedAt string `json:"generated_at,omitempty"`
	SourceFile  string `json:"source_file,omitempty"`
}

// ReadCorpusRaw reads a corpus file as a list of undecoded records.
func ReadCorpusRaw(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, engine.NewError(engine.KindMissingCorpusData, "read corpus", path, err)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, engine.NewError(engine.KindMissingCorpusData, "decode corpus", path, err)
	}
	return items, nil
}

// LoadCorpus reads the record list. Records that cannot be decoded at all
// are logged and skipped; malformed list fields are coerced by the record
// type itself.
func LoadCorpus(path string, log *logger.Logger) ([]*types.MicroSimRecord, error) {
	if log == nil {
		log = logger.NewNop()
	}
	items, err := ReadCorpusRaw(path)
	if err != nil {
		return nil, err
	}
	records := make([]*types.MicroSimRecord, 0, len(items))
	for i, raw := range items {
		var rec types.MicroSimRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			log.Warn("skipping undecodable record", "path", path, "index", i, "error", err)
			continue
		}
		records = append(records, &rec)
	}
	log.Debug("corpus loaded", "path", path, "records", len(records), "skipped", len(items)-len(records))
	return records, nil
}

// WriteCorpusRaw writes records back as an indented JSON array.
func WriteCorpusRaw(path string, items []json.RawMessage) error {
	var buf bytes.Buffer
	buf.WriteString("[\n")
	for i, raw := range items {
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, raw, "  ", "  "); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		buf.WriteString("  ")
		buf.Write(pretty.Bytes())
		if i < len(items)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("]\n")
	return writeFileAtomic(path, buf.Bytes())
}

// SetField replaces or adds one top-level key of a raw record, keeping the
// remaining keys. Keys come back sorted.
func SetField(raw json.RawMessage, key string, value interface{}) (json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		obj = make(map[string]json.RawMessage)
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	obj[key] = data
	return json.Marshal(obj)
}

// LoadEmbeddings reads an embeddings file. Ids keep their file order.
// Single vectors that are empty, not numeric arrays, or of a different
// length than the table are left out and listed in Rejected. The load
// fails only when the metadata dimension disagrees with the vectors.
func LoadEmbeddings(path string) (*types.EmbeddingTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, engine.NewError(engine.KindMissingCorpusData, "read embeddings", path, err)
	}
	defer f.Close()

	table, err := decodeEmbeddings(bufio.NewReader(f))
	if err != nil {
		var ee *engine.Error
		if errors.As(err, &ee) {
			ee.Path = path
			return nil, ee
		}
		return nil, engine.NewError(engine.KindMissingCorpusData, "decode embeddings", path, err)
	}
	return table, nil
}

type rawVector struct {
	id  string
	vec types.Vector
	ok  bool
}

func decodeEmbeddings(r io.Reader) (*types.EmbeddingTable, error) {
	var meta EmbeddingsMeta
	var vectors []rawVector
	dec := json.NewDecoder(r)

	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	sawEmbeddings := false
	for dec.More() {
		key, err := stringToken(dec)
		if err != nil {
			return nil, err
		}
		switch key {
		case "metadata":
			if err := dec.Decode(&meta); err != nil {
				return nil, fmt.Errorf("metadata: %w", err)
			}
		case "embeddings":
			sawEmbeddings = true
			if vectors, err = decodeVectors(dec); err != nil {
				return nil, err
			}
		default:
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, err
			}
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	if !sawEmbeddings {
		return nil, errors.New(`no "embeddings" object`)
	}

	dim := commonDimension(vectors)
	if meta.Dimension != 0 && dim != 0 && meta.Dimension != dim {
		return nil, engine.NewError(engine.KindDimensionMismatch, "decode embeddings", "",
			fmt.Errorf("metadata says %d, vectors have %d", meta.Dimension, dim))
	}
	if dim == 0 {
		dim = meta.Dimension
	}

	table := &types.EmbeddingTable{
		Model:     meta.Model,
		Dimension: dim,
		Vectors:   make(map[string]types.Vector, len(vectors)),
	}
	for _, rv := range vectors {
		if !rv.ok || len(rv.vec) != dim {
			table.Rejected = append(table.Rejected, rv.id)
			continue
		}
		if _, dup := table.Vectors[rv.id]; !dup {
			table.Order = append(table.Order, rv.id)
		}
		table.Vectors[rv.id] = rv.vec
	}
	return table, nil
}

// decodeVectors reads the id -> vector object. A value that is not a
// numeric array is kept with ok=false instead of failing the read.
func decodeVectors(dec *json.Decoder) ([]rawVector, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	var out []rawVector
	for dec.More() {
		id, err := stringToken(dec)
		if err != nil {
			return nil, err
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("vector %q: %w", id, err)
		}
		rv := rawVector{id: id}
		if json.Unmarshal(raw, &rv.vec) == nil && len(rv.vec) > 0 {
			rv.ok = true
		}
		out = append(out, rv)
	}
	return out, expectDelim(dec, '}')
}

// commonDimension returns the most frequent vector length. On a tie the
// length that reached the count first wins.
func commonDimension(vectors []rawVector) int {
	counts := map[int]int{}
	best, bestCount := 0, 0
	for _, rv := range vectors {
		if !rv.ok {
			continue
		}
		n := len(rv.vec)
		counts[n]++
		if counts[n] > bestCount {
			best, bestCount = n, counts[n]
		}
	}
	return best
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func stringToken(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	s, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return s, nil
}

// WriteEmbeddings writes table in the embeddings file format, ids in
// table order.
func WriteEmbeddings(path string, table *types.EmbeddingTable, sourceFile string) error {
	meta := EmbeddingsMeta{
		Model:       table.Model,
		Dimension:   table.Dimension,
		Count:       len(table.Order),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		SourceFile:  sourceFile,
	}
	metaJSON, err := json.MarshalIndent(meta, "  ", "  ")
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.WriteString("{\n  \"metadata\": ")
	buf.Write(metaJSON)
	buf.WriteString(",\n  \"embeddings\": {")
	for i, id := range table.Order {
		vec, ok := table.Vectors[id]
		if !ok {
			return fmt.Errorf("order lists %q without a vector", id)
		}
		key, _ := json.Marshal(id)
		val, err := json.Marshal(vec)
		if err != nil {
			return err
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString("\n    ")
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(val)
	}
	buf.WriteString("\n  }\n}\n")
	return writeFileAtomic(path, buf.Bytes())
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
