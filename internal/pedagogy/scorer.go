package pedagogy

import (
	"microsim-matcher/internal/spec"
)

// Sub-score weights. They sum to 1 and are never renormalized: a
// sub-score that cannot be computed contributes Neutral at its weight.
const (
	WeightPattern = 0.40
	WeightVerb    = 0.25
	WeightPacing  = 0.20
	WeightBloom   = 0.15

	Neutral = 0.5
)

// Verb-match and Bloom-distance credits.
const (
	verbPresent     = 1.0
	verbOtherVerbs  = 0.6
	bloomExact      = 1.0
	bloomAdjacent   = 0.7
	bloomTwoApart   = 0.5
	maxCreditedDist = 2
)

// Query holds the pedagogical intent extracted from a specification.
type Query struct {
	Level BloomLevel
	Verb  Verb
}

// QueryFromFields reads bloom_level and bloom_verb. When the level is
// missing or unrecognized but the verb is known, the verb's level is used.
func QueryFromFields(f *spec.Fields) Query {
	var q Query
	if s, ok := f.Get(spec.KeyBloomLevel); ok {
		if l, err := ParseBloomLevel(s); err == nil {
			q.Level = l
		}
	}
	if s, ok := f.Get(spec.KeyBloomVerb); ok {
		q.Verb = NormalizeVerb(s)
	}
	if !q.Level.Valid() && q.Verb.Known() {
		q.Level = q.Verb.Level()
	}
	return q
}

// Breakdown carries each sub-score next to the weighted total.
type Breakdown struct {
	Pattern float64 `json:"pattern"`
	Verb    float64 `json:"verb"`
	Pacing  float64 `json:"pacing"`
	Bloom   float64 `json:"bloom"`
	Total   float64 `json:"total"`
}

// NeutralBreakdown is the result for a record without a pedagogical profile.
var NeutralBreakdown = Breakdown{Pattern: Neutral, Verb: Neutral, Pacing: Neutral, Bloom: Neutral, Total: Neutral}

// Score rates how well a record's profile suits the query. The result is
// always within [0,1] and is exactly Neutral when p is nil.
func Score(q Query, p *Profile) Breakdown {
	if p == nil {
		return NeutralBreakdown
	}
	b := Breakdown{
		Pattern: patternScore(q, p),
		Verb:    verbScore(q, p),
		Pacing:  pacingScore(q, p),
		Bloom:   bloomScore(q, p),
	}
	b.Total = clamp01(WeightPattern*b.Pattern + WeightVerb*b.Verb + WeightPacing*b.Pacing + WeightBloom*b.Bloom)
	return b
}

// ScoreFields is Score over a parsed specification.
func ScoreFields(f *spec.Fields, p *Profile) Breakdown {
	return Score(QueryFromFields(f), p)
}

func patternScore(q Query, p *Profile) float64 {
	if !p.Pattern.Valid() {
		return Neutral
	}
	var s float64
	if row, ok := verbPatternAffinity[q.Verb]; ok {
		s = row[p.Pattern.index()]
	} else if q.Level.Valid() {
		s = levelPatternAffinity[q.Level.index()][p.Pattern.index()]
	} else {
		return Neutral
	}
	s += patternPenalties[verbPattern{q.Verb, p.Pattern}]
	return clamp01(s)
}

func verbScore(q Query, p *Profile) float64 {
	switch {
	case q.Verb == "":
		return Neutral
	case p.HasVerb(q.Verb):
		return verbPresent
	case len(p.BloomVerbs) > 0:
		return verbOtherVerbs
	default:
		return Neutral
	}
}

func pacingScore(q Query, p *Profile) float64 {
	if !q.Level.Valid() || !p.Pacing.Valid() {
		return Neutral
	}
	return levelPacingAffinity[q.Level.index()][p.Pacing.index()]
}

func bloomScore(q Query, p *Profile) float64 {
	if !q.Level.Valid() || len(p.BloomAlignment) == 0 {
		return Neutral
	}
	best := Neutral
	for _, l := range p.BloomAlignment {
		if !l.Valid() {
			continue
		}
		d := int(l) - int(q.Level)
		if d < 0 {
			d = -d
		}
		var credit float64
		switch d {
		case 0:
			return bloomExact
		case 1:
			credit = bloomAdjacent
		case maxCreditedDist:
			credit = bloomTwoApart
		}
		if credit > best {
			best = credit
		}
	}
	return best
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
