package engine

import (
	"errors"
	"fmt"
)

// Kind classifies engine failures.
type Kind string

const (
	KindMissingCorpusData        Kind = "missing_corpus_data"
	KindUnparseableSpecification Kind = "unparseable_specification"
	KindEmbeddingProvider        Kind = "embedding_provider_failure"
	KindDimensionMismatch        Kind = "dimension_mismatch"
	KindNotFound                 Kind = "not_found"
)

var (
	ErrMissingCorpusData        = errors.New("corpus data missing or unreadable")
	ErrUnparseableSpecification = errors.New("specification is empty")
	ErrEmbeddingProvider        = errors.New("embedding provider failed")
	ErrDimensionMismatch        = errors.New("vector dimension mismatch")
	ErrNotFound                 = errors.New("record not found")
)

var sentinels = map[Kind]error{
	KindMissingCorpusData:        ErrMissingCorpusData,
	KindUnparseableSpecification: ErrUnparseableSpecification,
	KindEmbeddingProvider:        ErrEmbeddingProvider,
	KindDimensionMismatch:        ErrDimensionMismatch,
	KindNotFound:                 ErrNotFound,
}

// Error carries the failing operation, the offending path or id, and the
// underlying cause. errors.Is matches both the cause and the Kind sentinel.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", msg, sentinels[e.Kind], e.Err)
	}
	return fmt.Sprintf("%s: %s", msg, sentinels[e.Kind])
}

func (e *Error) Unwrap() []error {
	out := []error{}
	if s, ok := sentinels[e.Kind]; ok {
		out = append(out, s)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewError builds an *Error.
func NewError(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
