package pedagogy

import (
	"regexp"
	"sort"
	"strings"

	"microsim-matcher/internal/types"
)

const (
	maxAlignmentLevels = 3
	maxBloomVerbs      = 5
	negativePenalty    = 2
)

type indicator struct {
	positive []*regexp.Regexp
	negative []*regexp.Regexp
	weight   float64
}

// mustPatterns compiles lower-cased patterns; classified content is
// lower-cased before matching.
func mustPatterns(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(strings.ToLower(e))
	}
	return out
}

func ind(weight float64, positive, negative []string) indicator {
	return indicator{positive: mustPatterns(positive...), negative: mustPatterns(negative...), weight: weight}
}

// score counts positive matches and subtracts a fixed penalty per negative
// indicator present.
func (in indicator) score(content string) float64 {
	var s float64
	for _, re := range in.positive {
		s += float64(len(re.FindAllStringIndex(content, -1)))
	}
	for _, re := range in.negative {
		if re.MatchString(content) {
			s -= negativePenalty
		}
	}
	return s * in.weight
}

var patternIndicators = [numPatterns]indicator{
	ind(1.0, // worked-example
		[]string{`step[\s-]*(by[\s-]*step|through)`, `example`, `walkthrough`, `next.*step`, `previous.*step`,
			`step\s*\d+`, `explanation`, `show.*how`, `demonstrate`, `let'?s\s+see`, `notice\s+how`, `worked`,
			`solution\s*steps`, `step\s*button`},
		[]string{`quiz`, `test`, `score`, `random`}),
	ind(1.0, // exploration
		[]string{`explore`, `discover`, `experiment`, `try\s+different`, `what\s+happens`, `observe`,
			`investigate`, `sandbox`, `playground`, `free[\s-]*form`, `open[\s-]*ended`},
		[]string{`quiz`, `score`, `correct`, `wrong`}),
	ind(1.0, // practice
		[]string{`practice`, `exercise`, `drill`, `repeat`, `try\s+again`, `attempt`, `solve`, `problem\s+set`, `homework`},
		[]string{`demonstration`, `watch`}),
	ind(1.2, // assessment
		[]string{`quiz`, `test`, `assess`, `score`, `grade`, `correct`, `wrong`, `answer`, `submit`,
			`check\s+answer`, `evaluate`, `multiple[\s-]*choice`, `true[\s/]false`},
		nil),
	ind(0.8, // reference
		[]string{`reference`, `lookup`, `table`, `chart`, `formula\s*sheet`, `cheat\s*sheet`, `documentation`,
			`info(rmation)?[\s-]*graphic`},
		[]string{`slider`, `animate`, `interactive`}),
	ind(0.9, // demonstration
		[]string{`demonstrat`, `show`, `display`, `present`, `illustrat`, `watch`, `observe`, `see\s+how`,
			`animation`, `visualiz`},
		[]string{`slider`, `input`, `control`, `adjust`}),
	ind(1.0, // guided-discovery
		[]string{`guided`, `hint`, `scaffold`, `prompt`, `suggestion`, `try\s+this`, `consider`, `what\s+if`,
			`notice`, `prediction`, `predict`},
		nil),
}

var pacingIndicators = [numPacings]indicator{
	ind(1, // self-paced
		[]string{`slider`, `input`, `click`, `drag`, `button`, `control`, `adjust`, `change`, `set\s+value`},
		[]string{`auto[\s-]*play`, `continuous`, `timer`}),
	ind(1, // continuous
		[]string{`animate`, `animation`, `auto[\s-]*play`, `running`, `continuous`, `loop`, `frameRate`,
			`requestAnimationFrame`, `setInterval`},
		[]string{`pause`, `step`, `next`}),
	ind(1, // timed
		[]string{`timer`, `countdown`, `time\s*limit`, `seconds?\s*remaining`, `clock`, `deadline`, `hurry`},
		nil),
	ind(1, // step-through
		[]string{`step[\s-]*through`, `next\s*(step|button)?`, `previous`, `forward`, `backward`, `step\s*\d+`, `advance`},
		[]string{`auto`, `continuous`}),
}

var styleIndicators = map[InteractionStyle]indicator{
	Observe: ind(1,
		[]string{`watch`, `observe`, `see`, `view`, `display`, `show`, `animation`, `visualiz`},
		[]string{`slider`, `input`, `click`, `drag`, `control`}),
	Manipulate: ind(1,
		[]string{`slider`, `adjust`, `change`, `modify`, `control`, `parameter`, `value`, `range`, `createSlider`},
		nil),
	Construct: ind(1,
		[]string{`create`, `build`, `construct`, `design`, `draw`, `make`, `compose`, `assemble`, `arrange`},
		nil),
	Respond: ind(1,
		[]string{`answer`, `respond`, `select`, `choose`, `click.*option`, `submit`, `enter`, `type`, `input.*answer`},
		nil),
	Explore: ind(1,
		[]string{`explore`, `discover`, `investigate`, `experiment`, `try`, `test`, `sandbox`, `playground`},
		[]string{`quiz`, `test`, `score`}),
}

var feedbackIndicators = map[FeedbackType][]*regexp.Regexp{
	FeedbackImmediate:   mustPatterns(`instant`, `immediate`, `real[\s-]*time`, `live`, `as\s+you`, `responsive`),
	FeedbackDelayed:     mustPatterns(`submit.*then`, `check\s+answer`, `see\s+result`, `reveal`),
	FeedbackCorrective:  mustPatterns(`correct`, `incorrect`, `wrong`, `right`, `error`, `mistake`, `try\s+again`),
	FeedbackExplanatory: mustPatterns(`explanation`, `because`, `reason`, `why`, `hint`, `help`, `feedback.*text`),
}

var visibilityIndicators = map[DataVisibility][]*regexp.Regexp{
	VisibilityHigh:   mustPatterns(`formula`, `equation`, `calculation`, `show.*value`, `display.*data`, `number`, `value.*=`, `result.*:`),
	VisibilityMedium: mustPatterns(`label`, `axis`, `legend`, `tooltip`),
	VisibilityLow:    mustPatterns(`abstract`, `conceptual`, `visual.*only`, `no.*numbers?`),
}

var verbIndicators = map[Verb][]*regexp.Regexp{
	"define":    mustPatterns(`defin(e|ition)`, `meaning\s+of`, `what\s+is`),
	"identify":  mustPatterns(`identify`, `find\s+the`, `locate`, `point\s+to`),
	"list":      mustPatterns(`\blist\b`, `enumerate`, `name\s+the`),
	"recall":    mustPatterns(`recall`, `remember`, `retriev`),
	"recognize": mustPatterns(`recogni[zs]e`, `match`, `select.*correct`),
	"state":     mustPatterns(`\bstate\b`, `tell`, `say\s+what`),

	"classify":  mustPatterns(`classif`, `categoriz`, `sort\s+into`, `group`),
	"compare":   mustPatterns(`compar`, `side[\s-]*by[\s-]*side`, `difference`, `similar`),
	"describe":  mustPatterns(`describ`, `explain\s+what`, `tell\s+about`),
	"explain":   mustPatterns(`explain`, `why\s+does`, `how\s+does`, `because`),
	"interpret": mustPatterns(`interpret`, `meaning`, `what.*means`),
	"summarize": mustPatterns(`summari[zs]`, `overview`, `main\s+points`),

	"apply":       mustPatterns(`\bapply\b`, `use\s+the`, `put.*into\s+practice`),
	"calculate":   mustPatterns(`calculat`, `compute`, `formula`, `equation`, `\.toFixed`),
	"demonstrate": mustPatterns(`demonstrat`, `show\s+how`, `step[\s-]*by[\s-]*step`, `walkthrough`),
	"illustrate":  mustPatterns(`illustrat`, `visuali[zs]`, `diagram`, `picture`),
	"implement":   mustPatterns(`implement`, `code`, `program`, `algorithm`),
	"solve":       mustPatterns(`\bsolve\b`, `solution`, `answer`, `problem`),
	"use":         mustPatterns(`\buse\b`, `using`, `utilize`, `employ`),

	"analyze":       mustPatterns(`analy[zs]`, `break\s+down`, `components`),
	"differentiate": mustPatterns(`differentiat`, `distinguish`, `tell\s+apart`),
	"examine":       mustPatterns(`examin`, `look\s+at`, `inspect`, `study`),
	"experiment":    mustPatterns(`experiment`, `try\s+different`, `what\s+happens`, `slider`, `parameter`),
	"investigate":   mustPatterns(`investigat`, `explore`, `discover`, `find\s+out`),
	"test":          mustPatterns(`\btest\b`, `check`, `verify`, `validate`),

	"assess":   mustPatterns(`assess`, `measure`, `score`, `grade`),
	"critique": mustPatterns(`critiqu`, `review`, `feedback`),
	"evaluate": mustPatterns(`evaluat`, `judge`, `rate`, `rank`),
	"judge":    mustPatterns(`\bjudge\b`, `decide`, `determin`),
	"justify":  mustPatterns(`justif`, `reason`, `support.*argument`),
	"predict":  mustPatterns(`predict`, `forecast`, `estimate`, `expect`, `hypothesis`),

	"construct": mustPatterns(`construct`, `build`, `assemble`),
	"create":    mustPatterns(`creat`, `make`, `produce`, `generate`),
	"design":    mustPatterns(`design`, `plan`, `layout`, `architect`),
	"develop":   mustPatterns(`develop`, `extend`, `improve`),
	"formulate": mustPatterns(`formulat`, `devise`, `invent`),
	"generate":  mustPatterns(`generat`, `produce`, `output`),
}

// Content cues shared by several detectors.
var (
	reSlider      = regexp.MustCompile(`createslider|<input.*range|slider`)
	reRangeInput  = regexp.MustCompile(`createslider|<input.*range`)
	reStepByStep  = regexp.MustCompile(`step[\s-]*(by[\s-]*step|through)|next.*step`)
	reQuizCue     = regexp.MustCompile(`quiz|score|correct|wrong`)
	reCompareCue  = regexp.MustCompile(`compar|side[\s-]*by[\s-]*side|versus`)
	reCalcCue     = regexp.MustCompile(`formula|equation|calculat|\.tofixed`)
	rePredictCue  = regexp.MustCompile(`predict|hypothesis|before.*see|guess`)
	reBuildCue    = regexp.MustCompile(`creat|build|construct|design|draw`)
	reAnimLoop    = regexp.MustCompile(`framerate|requestanimationframe|setinterval.*draw`)
	reInteractive = regexp.MustCompile(`slider|input|button|click`)
	reControl     = regexp.MustCompile(`slider|input|control`)
	reLiveInput   = regexp.MustCompile(`oninput|onchange|addeventlistener.*input`)
	reNumericShow = regexp.MustCompile(`text\([^)]*\d|\.tofixed|display.*value|show.*number`)
	reListWord    = regexp.MustCompile(`\blist\b\s*(.)?`)
	rePrediction  = mustPatterns(`predict`, `guess`, `estimate`, `what.*will.*happen`, `hypothesis`, `before.*you.*see`, `think.*first`)

	levelCues = []struct {
		level BloomLevel
		re    *regexp.Regexp
	}{
		{Apply, regexp.MustCompile(`slider|adjust|parameter|\bexperiment\b`)},
		{Analyze, regexp.MustCompile(`\bcompare\b|\bcontrast\b|\bdifferentiate\b|\brelationship\b`)},
		{Create, regexp.MustCompile(`\bcreate\s+your|\bdesign\s+your|\bbuild\s+your|\bconstruct\s+a\b`)},
		{Evaluate, regexp.MustCompile(`\bquiz\b|\bassess\b|\bevaluate\b|\bjudge\b|score|correct|wrong`)},
		{Understand, regexp.MustCompile(`\bexplain\b|\bdescribe\b|\binterpret\b|\bunderstand\b`)},
		{Remember, regexp.MustCompile(`\bidentify\b|\brecall\b|\brecognize\b|\bname\s+the\b`)},
	}

	// levelPriority decides which levels survive when more than
	// maxAlignmentLevels are detected.
	levelPriority = []BloomLevel{Apply, Understand, Analyze, Evaluate, Remember, Create}
)

// Classify derives a pedagogical profile from a MicroSim's text content and
// its existing metadata. The result is deterministic for a given input.
func Classify(content string, rec *types.MicroSimRecord) *Profile {
	c := strings.ToLower(content)
	alignment := detectBloomAlignment(c, rec)
	return &Profile{
		Pattern:            detectPattern(c, rec),
		BloomAlignment:     alignment,
		BloomVerbs:         detectBloomVerbs(c, alignment),
		Pacing:             detectPacing(c),
		SupportsPrediction: detectPrediction(c),
		DataVisibility:     detectDataVisibility(c),
		FeedbackTypes:      detectFeedback(c),
		InteractionStyle:   detectInteractionStyle(c),
	}
}

// RecordContent gathers a record's own descriptive text for classification.
func RecordContent(rec *types.MicroSimRecord) string {
	parts := []string{rec.Title, rec.Description, rec.Topic}
	parts = append(parts, rec.LearningObjectives.Values...)
	parts = append(parts, rec.Keywords.Values...)
	parts = append(parts, rec.VisualizationType.Values...)
	parts = append(parts, string(rec.Framework))
	return strings.Join(parts, "\n")
}

func detectPattern(c string, rec *types.MicroSimRecord) Pattern {
	var scores [numPatterns]float64
	for i, in := range patternIndicators {
		scores[i] = in.score(c)
	}
	if rec != nil {
		for _, v := range rec.VisualizationType.Values {
			switch strings.ToLower(v) {
			case "chart", "graph":
				scores[Exploration.index()] += 2
			case "diagram":
				scores[Reference.index()]++
			}
		}
	}
	if reSlider.MatchString(c) {
		scores[Exploration.index()] += 3
		scores[Demonstration.index()] -= 2
	}
	best := argmax(scores[:])
	if scores[best] == 0 {
		return Exploration
	}
	return Patterns[best]
}

func detectPacing(c string) Pacing {
	var scores [numPacings]float64
	for i, in := range pacingIndicators {
		scores[i] = in.score(c)
	}
	if reAnimLoop.MatchString(c) {
		if reRangeInput.MatchString(c) {
			scores[SelfPaced.index()] += 3
		} else {
			scores[Continuous.index()] += 3
		}
	}
	best := argmax(scores[:])
	if scores[best] <= 0 {
		return SelfPaced
	}
	return Pacings[best]
}

func detectInteractionStyle(c string) InteractionStyle {
	best, bestScore := StyleUnknown, 0.0
	for _, s := range InteractionStyles {
		score := styleIndicators[s].score(c)
		if best == StyleUnknown || score > bestScore {
			best, bestScore = s, score
		}
	}
	if bestScore <= 0 {
		if reControl.MatchString(c) {
			return Manipulate
		}
		return Observe
	}
	return best
}

func detectBloomAlignment(c string, rec *types.MicroSimRecord) []BloomLevel {
	found := map[BloomLevel]bool{}
	if rec != nil {
		for _, s := range rec.BloomsTaxonomy.Values {
			if l, err := ParseBloomLevel(s); err == nil {
				found[l] = true
			}
		}
	}
	for _, cue := range levelCues {
		if cue.re.MatchString(c) {
			found[cue.level] = true
		}
	}
	if listsSomething(c) {
		found[Remember] = true
	}
	if len(found) == 0 {
		found[Understand] = true
		if reInteractive.MatchString(c) {
			found[Apply] = true
		}
	}

	if len(found) > maxAlignmentLevels {
		kept := map[BloomLevel]bool{}
		for _, l := range levelPriority {
			if found[l] && len(kept) < maxAlignmentLevels {
				kept[l] = true
			}
		}
		found = kept
	}

	out := make([]BloomLevel, 0, len(found))
	for _, l := range Levels {
		if found[l] {
			out = append(out, l)
		}
	}
	return out
}

// listsSomething matches the word "list" unless it is an assignment target.
func listsSomething(c string) bool {
	for _, m := range reListWord.FindAllStringSubmatch(c, -1) {
		if m[1] != "=" {
			return true
		}
	}
	return false
}

func detectBloomVerbs(c string, alignment []BloomLevel) []Verb {
	aligned := func(l BloomLevel) bool {
		for _, a := range alignment {
			if a == l {
				return true
			}
		}
		return false
	}
	found := map[Verb]bool{}
	for verb, res := range verbIndicators {
		if !aligned(verb.Level()) {
			continue
		}
		for _, re := range res {
			if re.MatchString(c) {
				found[verb] = true
				break
			}
		}
	}

	addIf := func(cue *regexp.Regexp, level BloomLevel, verbs ...Verb) {
		if aligned(level) && cue.MatchString(c) {
			for _, v := range verbs {
				found[v] = true
			}
		}
	}
	addIf(reSlider, Apply, "experiment")
	addIf(reSlider, Analyze, "analyze")
	addIf(reStepByStep, Apply, "demonstrate")
	addIf(reQuizCue, Evaluate, "assess")
	addIf(reCompareCue, Understand, "compare")
	addIf(reCalcCue, Apply, "calculate")
	addIf(rePredictCue, Evaluate, "predict")
	addIf(reBuildCue, Create, "create", "construct", "design")

	if len(found) < 3 {
		covered := map[BloomLevel]bool{}
		for v := range found {
			covered[v.Level()] = true
		}
		for _, l := range alignment {
			if !covered[l] {
				found[defaultVerbs[l.index()]] = true
			}
		}
	}

	verbs := make([]Verb, 0, len(found))
	for v := range found {
		verbs = append(verbs, v)
	}
	sort.Slice(verbs, func(i, j int) bool {
		li, lj := verbs[i].Level(), verbs[j].Level()
		if li != lj {
			return li < lj
		}
		return verbs[i] < verbs[j]
	})
	if len(verbs) > maxBloomVerbs {
		verbs = verbs[:maxBloomVerbs]
	}
	return verbs
}

func detectPrediction(c string) bool {
	for _, re := range rePrediction {
		if re.MatchString(c) {
			return true
		}
	}
	return false
}

func detectDataVisibility(c string) DataVisibility {
	count := func(res []*regexp.Regexp) int {
		n := 0
		for _, re := range res {
			if re.MatchString(c) {
				n++
			}
		}
		return n
	}
	high := count(visibilityIndicators[VisibilityHigh])
	medium := count(visibilityIndicators[VisibilityMedium])
	low := count(visibilityIndicators[VisibilityLow])
	if reNumericShow.MatchString(c) {
		high += 2
	}
	switch {
	case high > medium && high > low:
		return VisibilityHigh
	case low > medium:
		return VisibilityLow
	default:
		return VisibilityMedium
	}
}

func detectFeedback(c string) []FeedbackType {
	var out []FeedbackType
	for _, f := range []FeedbackType{FeedbackImmediate, FeedbackDelayed, FeedbackCorrective, FeedbackExplanatory} {
		for _, re := range feedbackIndicators[f] {
			if re.MatchString(c) {
				out = append(out, f)
				break
			}
		}
	}
	if reLiveInput.MatchString(c) && (len(out) == 0 || out[0] != FeedbackImmediate) {
		out = append(out, FeedbackImmediate)
	}
	if len(out) == 0 {
		out = []FeedbackType{FeedbackNone}
	}
	return out
}

// argmax returns the first index holding the largest value.
func argmax(scores []float64) int {
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	return best
}
