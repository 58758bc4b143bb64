package pedagogy

import (
	"errors"
	"fmt"
)

// Column order for pattern rows:
// worked-example, exploration, practice, assessment, reference, demonstration, guided-discovery.
type patternRow = [numPatterns]float64

// Column order for pacing rows: self-paced, continuous, timed, step-through.
type pacingRow = [numPacings]float64

// verbPatternAffinity rates how well each pattern serves a specific verb.
// Verbs without a row fall back to levelPatternAffinity.
var verbPatternAffinity = map[Verb]patternRow{
	"define":      {0.6, 0.3, 0.7, 0.7, 1.0, 0.6, 0.4},
	"identify":    {0.6, 0.5, 0.8, 0.9, 0.9, 0.6, 0.5},
	"explain":     {0.9, 0.6, 0.4, 0.4, 0.6, 0.9, 0.8},
	"compare":     {0.6, 0.9, 0.5, 0.5, 0.7, 0.8, 0.7},
	"calculate":   {0.9, 0.6, 1.0, 0.7, 0.5, 0.5, 0.6},
	"demonstrate": {1.0, 0.5, 0.5, 0.3, 0.5, 1.0, 0.6},
	"illustrate":  {0.8, 0.6, 0.4, 0.3, 0.7, 1.0, 0.6},
	"solve":       {0.8, 0.5, 1.0, 0.8, 0.3, 0.4, 0.7},
	"analyze":     {0.5, 1.0, 0.6, 0.5, 0.3, 0.4, 0.9},
	"experiment":  {0.3, 1.0, 0.6, 0.3, 0.1, 0.4, 0.8},
	"investigate": {0.3, 1.0, 0.5, 0.3, 0.2, 0.4, 0.9},
	"assess":      {0.3, 0.4, 0.7, 1.0, 0.3, 0.2, 0.5},
	"evaluate":    {0.4, 0.7, 0.5, 0.9, 0.2, 0.3, 0.8},
	"predict":     {0.4, 0.9, 0.5, 0.6, 0.2, 0.4, 1.0},
	"construct":   {0.5, 0.9, 0.6, 0.3, 0.1, 0.3, 0.7},
	"create":      {0.4, 0.9, 0.5, 0.3, 0.1, 0.2, 0.7},
	"design":      {0.4, 0.9, 0.5, 0.3, 0.2, 0.3, 0.8},
}

// levelPatternAffinity is indexed by BloomLevel.index().
var levelPatternAffinity = [numLevels]patternRow{
	{0.7, 0.4, 0.8, 0.8, 0.9, 0.6, 0.4}, // remember
	{0.9, 0.7, 0.6, 0.5, 0.6, 0.9, 0.7}, // understand
	{0.8, 0.8, 1.0, 0.6, 0.3, 0.6, 0.7}, // apply
	{0.6, 1.0, 0.6, 0.5, 0.3, 0.5, 0.9}, // analyze
	{0.4, 0.8, 0.5, 0.9, 0.2, 0.3, 0.9}, // evaluate
	{0.4, 0.9, 0.5, 0.4, 0.1, 0.3, 0.7}, // create
}

type verbPattern struct {
	verb    Verb
	pattern Pattern
}

// patternPenalties are added to the affinity for pairings that actively
// work against the verb. The adjusted value is floored at zero.
var patternPenalties = map[verbPattern]float64{
	{"create", Reference}:         -0.3,
	{"design", Reference}:         -0.3,
	{"construct", Reference}:      -0.3,
	{"create", Demonstration}:     -0.2,
	{"predict", Reference}:        -0.2,
	{"experiment", Reference}:     -0.2,
	{"experiment", Demonstration}: -0.2,
	{"investigate", Reference}:    -0.2,
	{"assess", Demonstration}:     -0.2,
}

// levelPacingAffinity is indexed by BloomLevel.index().
var levelPacingAffinity = [numLevels]pacingRow{
	{0.8, 0.5, 0.8, 0.7}, // remember
	{0.9, 0.7, 0.4, 0.9}, // understand
	{1.0, 0.6, 0.5, 0.8}, // apply
	{1.0, 0.5, 0.3, 0.7}, // analyze
	{0.9, 0.4, 0.7, 0.6}, // evaluate
	{1.0, 0.4, 0.2, 0.5}, // create
}

// ValidateTables checks that every table key belongs to its vocabulary and
// every entry lies in [0,1] (penalties in [-1,0]).
func ValidateTables() error {
	var errs []error
	checkRow := func(name string, row []float64) {
		for i, v := range row {
			if v < 0 || v > 1 {
				errs = append(errs, fmt.Errorf("%s[%d] = %v out of range", name, i, v))
			}
		}
	}
	for verb, row := range verbPatternAffinity {
		if !verb.Known() {
			errs = append(errs, fmt.Errorf("pattern table: %w", &UnknownValueError{Kind: "bloom verb", Value: string(verb)}))
		}
		checkRow("verb pattern "+string(verb), row[:])
	}
	for i, row := range levelPatternAffinity {
		checkRow("level pattern "+Levels[i].String(), row[:])
	}
	for i, row := range levelPacingAffinity {
		checkRow("level pacing "+Levels[i].String(), row[:])
	}
	for key, v := range patternPenalties {
		if !key.verb.Known() {
			errs = append(errs, fmt.Errorf("penalty table: %w", &UnknownValueError{Kind: "bloom verb", Value: string(key.verb)}))
		}
		if !key.pattern.Valid() {
			errs = append(errs, fmt.Errorf("penalty table: invalid pattern for %s", key.verb))
		}
		if v > 0 || v < -1 {
			errs = append(errs, fmt.Errorf("penalty %s/%s = %v out of range", key.verb, key.pattern, v))
		}
	}
	return errors.Join(errs...)
}
