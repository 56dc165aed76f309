package parcours

// State is the situation tuple a jury rule is matched against.
type State struct {
	PrevCode      string // previous semester's decision code, "" if none
	Assidu        bool   // no attendance problem
	MoyOK         bool   // general average clears the curriculum threshold
	UEsOK         bool   // every UE clears its own threshold
	CanCompensate bool   // compensation with the previous semester is possible
	NonTerminal   bool   // this is not the curriculum's last semester
}

// Cond is a wildcardable boolean premise field.
type Cond int8

const (
	Any Cond = iota
	Yes
	No
)

func (c Cond) match(v bool) bool {
	switch c {
	case Yes:
		return v
	case No:
		return !v
	}
	return true
}

// Premise is the left-hand side of a rule. A nil Prev matches any previous
// code; otherwise the state's previous code must be listed (noPrev matches
// the absence of a previous decision).
type Premise struct {
	Prev          []string
	Assidu        Cond
	MoyOK         Cond
	UEsOK         Cond
	CanCompensate Cond
	NonTerminal   Cond
}

// Match reports whether every non-wildcard premise field equals the
// corresponding state field.
func (p Premise) Match(s State) bool {
	if p.Prev != nil {
		found := false
		for _, code := range p.Prev {
			if code == s.PrevCode {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return p.Assidu.match(s.Assidu) &&
		p.MoyOK.match(s.MoyOK) &&
		p.UEsOK.match(s.UEsOK) &&
		p.CanCompensate.match(s.CanCompensate) &&
		p.NonTerminal.match(s.NonTerminal)
}

// Rule maps a situation premise to the decision a jury may take.
type Rule struct {
	ID      int
	Premise Premise

	Code        string // jury code offered for the current semester
	NewCodePrev string // revision of the previous semester's code, "" = none
	Devenir     string

	// Inconsistent flags premise combinations the regulation authors
	// considered unreachable. Such matches are offered but must be logged:
	// they denote dirty data, not a runtime fault, and refusing them would
	// block legitimate jury sessions.
	Inconsistent bool

	Explanation string
}

const noPrev = ""

var (
	prevValidated = []string{ADM, ADC, ADJ}
	prevWaiting   = []string{ATB, ATJ}
	prevDead      = []string{AJ, NAR, RAT, DEF}
)

// Rules is the regulation as an ordered table. Declaration order is
// regulation-significant: when several rules match a state, they are offered
// in this order and the first one is the canonical recommendation.
var Rules = []Rule{
	// ---- no previous decision (first semester, or upstream jury not held) ----
	{ID: 1, Premise: Premise{Prev: []string{noPrev}, Assidu: Yes, MoyOK: Yes, UEsOK: Yes},
		Code: ADM, Devenir: DevNext, Explanation: "semester validated"},
	{ID: 2, Premise: Premise{Prev: []string{noPrev}, Assidu: Yes, MoyOK: No, UEsOK: Yes, NonTerminal: Yes},
		Code: ATT, Devenir: DevNext, Explanation: "average below threshold, waiting on the next semester"},
	{ID: 3, Premise: Premise{Prev: []string{noPrev}, Assidu: Yes, MoyOK: No, UEsOK: Yes},
		Code: AJ, Devenir: DevRedoYear, Explanation: "average below threshold"},
	{ID: 4, Premise: Premise{Prev: []string{noPrev}, Assidu: Yes, MoyOK: No, UEsOK: Yes},
		Code: AJ, Devenir: DevRedoSem, Explanation: "average below threshold, repeats the semester"},
	{ID: 5, Premise: Premise{Prev: []string{noPrev}, Assidu: Yes, MoyOK: No, UEsOK: Yes},
		Code: NAR, Devenir: DevReorient, Explanation: "average below threshold, reorientation"},
	{ID: 6, Premise: Premise{Prev: []string{noPrev}, Assidu: Yes, UEsOK: No, NonTerminal: Yes},
		Code: ATB, Devenir: DevNext, Explanation: "UE below threshold, waiting on the next semester"},
	{ID: 7, Premise: Premise{Prev: []string{noPrev}, Assidu: Yes, UEsOK: No},
		Code: AJ, Devenir: DevRedoYear, Explanation: "UE below threshold"},
	{ID: 8, Premise: Premise{Prev: []string{noPrev}, Assidu: Yes, UEsOK: No},
		Code: AJ, Devenir: DevRedoSem, Explanation: "UE below threshold, repeats the semester"},
	{ID: 9, Premise: Premise{Prev: []string{noPrev}, Assidu: Yes, UEsOK: No},
		Code: NAR, Devenir: DevReorient, Explanation: "UE below threshold, reorientation"},
	{ID: 10, Premise: Premise{Prev: []string{noPrev}, Assidu: No, NonTerminal: Yes},
		Code: ATJ, Devenir: DevNext, Explanation: "insufficient attendance, decision deferred"},
	{ID: 11, Premise: Premise{Prev: []string{noPrev}, Assidu: No},
		Code: AJ, Devenir: DevRedoYear, Explanation: "insufficient attendance"},
	{ID: 12, Premise: Premise{Prev: []string{noPrev}, Assidu: No},
		Code: NAR, Devenir: DevReorient, Explanation: "insufficient attendance, reorientation"},

	// ---- previous semester validated (ADM, ADC or ADJ) ----
	{ID: 13, Premise: Premise{Prev: prevValidated, Assidu: Yes, MoyOK: Yes, UEsOK: Yes},
		Code: ADM, Devenir: DevNext, Explanation: "semester validated"},
	{ID: 14, Premise: Premise{Prev: prevValidated, Assidu: Yes, MoyOK: No, UEsOK: Yes, CanCompensate: Yes},
		Code: ADC, Devenir: DevNext, Explanation: "validated by compensation with the previous semester"},
	{ID: 15, Premise: Premise{Prev: prevValidated, Assidu: Yes, MoyOK: No, UEsOK: Yes, NonTerminal: Yes},
		Code: ATT, Devenir: DevNext, Explanation: "average below threshold, waiting on the next semester"},
	{ID: 16, Premise: Premise{Prev: prevValidated, Assidu: Yes, MoyOK: No, UEsOK: Yes},
		Code: AJ, Devenir: DevRedoYear, Explanation: "average below threshold"},
	{ID: 17, Premise: Premise{Prev: prevValidated, Assidu: Yes, MoyOK: No, UEsOK: Yes},
		Code: AJ, Devenir: DevRedoSem, Explanation: "average below threshold, repeats the semester"},
	{ID: 18, Premise: Premise{Prev: prevValidated, Assidu: Yes, MoyOK: No, UEsOK: Yes},
		Code: NAR, Devenir: DevReorient, Explanation: "average below threshold, reorientation"},
	{ID: 19, Premise: Premise{Prev: prevValidated, Assidu: Yes, UEsOK: No, NonTerminal: Yes},
		Code: ATB, Devenir: DevNext, Explanation: "UE below threshold, waiting on the next semester"},
	{ID: 20, Premise: Premise{Prev: prevValidated, Assidu: Yes, UEsOK: No},
		Code: AJ, Devenir: DevRedoYear, Explanation: "UE below threshold"},
	{ID: 21, Premise: Premise{Prev: prevValidated, Assidu: Yes, UEsOK: No},
		Code: AJ, Devenir: DevRedoSem, Explanation: "UE below threshold, repeats the semester"},
	{ID: 22, Premise: Premise{Prev: prevValidated, Assidu: Yes, UEsOK: No},
		Code: NAR, Devenir: DevReorient, Explanation: "UE below threshold, reorientation"},
	{ID: 23, Premise: Premise{Prev: prevValidated, Assidu: No, NonTerminal: Yes},
		Code: ATJ, Devenir: DevNext, Explanation: "insufficient attendance, decision deferred"},
	{ID: 24, Premise: Premise{Prev: prevValidated, Assidu: No},
		Code: AJ, Devenir: DevRedoYear, Explanation: "insufficient attendance"},
	{ID: 25, Premise: Premise{Prev: prevValidated, Assidu: No},
		Code: NAR, Devenir: DevReorient, Explanation: "insufficient attendance, reorientation"},

	// ---- previous semester waiting on its average (ATT) ----
	{ID: 26, Premise: Premise{Prev: []string{ATT}, Assidu: Yes, MoyOK: Yes, UEsOK: Yes, CanCompensate: Yes},
		Code: ADM, NewCodePrev: ADC, Devenir: DevNext,
		Explanation: "semester validated; the previous semester is compensated by this one"},
	{ID: 27, Premise: Premise{Prev: []string{ATT}, Assidu: Yes, MoyOK: Yes, UEsOK: Yes, CanCompensate: No},
		Code: ADM, Devenir: DevNext, Explanation: "semester validated; the previous one remains waiting"},
	{ID: 28, Premise: Premise{Prev: []string{ATT}, Assidu: Yes, MoyOK: No, UEsOK: Yes, CanCompensate: Yes},
		Code: ADC, NewCodePrev: ADC, Devenir: DevNext, Inconsistent: true,
		Explanation: "both semesters below threshold yet compensating: data inconsistency"},
	{ID: 29, Premise: Premise{Prev: []string{ATT}, Assidu: Yes, MoyOK: No, UEsOK: Yes, NonTerminal: Yes},
		Code: ATT, Devenir: DevNext, Explanation: "average below threshold, still waiting"},
	{ID: 30, Premise: Premise{Prev: []string{ATT}, Assidu: Yes, MoyOK: No, UEsOK: Yes},
		Code: AJ, Devenir: DevRedoYear, Explanation: "average below threshold"},
	{ID: 31, Premise: Premise{Prev: []string{ATT}, Assidu: Yes, MoyOK: No, UEsOK: Yes},
		Code: NAR, Devenir: DevReorient, Explanation: "average below threshold, reorientation"},
	{ID: 32, Premise: Premise{Prev: []string{ATT}, Assidu: Yes, UEsOK: No, NonTerminal: Yes},
		Code: ATB, Devenir: DevNext, Explanation: "UE below threshold, waiting on the next semester"},
	{ID: 33, Premise: Premise{Prev: []string{ATT}, Assidu: Yes, UEsOK: No},
		Code: AJ, Devenir: DevRedoYear, Explanation: "UE below threshold"},
	{ID: 34, Premise: Premise{Prev: []string{ATT}, Assidu: Yes, UEsOK: No},
		Code: NAR, Devenir: DevReorient, Explanation: "UE below threshold, reorientation"},
	{ID: 35, Premise: Premise{Prev: []string{ATT}, Assidu: No, NonTerminal: Yes},
		Code: ATJ, Devenir: DevNext, Explanation: "insufficient attendance, decision deferred"},
	{ID: 36, Premise: Premise{Prev: []string{ATT}, Assidu: No},
		Code: AJ, Devenir: DevRedoYear, Explanation: "insufficient attendance"},
	{ID: 37, Premise: Premise{Prev: []string{ATT}, Assidu: No},
		Code: NAR, Devenir: DevReorient, Explanation: "insufficient attendance, reorientation"},

	// ---- previous semester waiting on UEs or attendance (ATB, ATJ): it can
	// never be compensated, juries resolve it manually ----
	{ID: 38, Premise: Premise{Prev: prevWaiting, Assidu: Yes, MoyOK: Yes, UEsOK: Yes},
		Code: ADM, Devenir: DevNext, Explanation: "semester validated; the previous one remains waiting"},
	{ID: 39, Premise: Premise{Prev: prevWaiting, Assidu: Yes, MoyOK: No, UEsOK: Yes, NonTerminal: Yes},
		Code: ATT, Devenir: DevNext, Explanation: "average below threshold, waiting on the next semester"},
	{ID: 40, Premise: Premise{Prev: prevWaiting, Assidu: Yes, MoyOK: No, UEsOK: Yes},
		Code: AJ, Devenir: DevRedoYear, Explanation: "average below threshold"},
	{ID: 41, Premise: Premise{Prev: prevWaiting, Assidu: Yes, MoyOK: No, UEsOK: Yes},
		Code: NAR, Devenir: DevReorient, Explanation: "average below threshold, reorientation"},
	{ID: 42, Premise: Premise{Prev: prevWaiting, Assidu: Yes, UEsOK: No, NonTerminal: Yes},
		Code: ATB, Devenir: DevNext, Explanation: "UE below threshold, waiting on the next semester"},
	{ID: 43, Premise: Premise{Prev: prevWaiting, Assidu: Yes, UEsOK: No},
		Code: AJ, Devenir: DevRedoYear, Explanation: "UE below threshold"},
	{ID: 44, Premise: Premise{Prev: prevWaiting, Assidu: Yes, UEsOK: No},
		Code: NAR, Devenir: DevReorient, Explanation: "UE below threshold, reorientation"},
	{ID: 45, Premise: Premise{Prev: prevWaiting, Assidu: No, NonTerminal: Yes},
		Code: ATJ, Devenir: DevNext, Explanation: "insufficient attendance, decision deferred"},
	{ID: 46, Premise: Premise{Prev: prevWaiting, Assidu: No},
		Code: AJ, Devenir: DevRedoYear, Explanation: "insufficient attendance"},
	{ID: 47, Premise: Premise{Prev: prevWaiting, Assidu: No},
		Code: NAR, Devenir: DevReorient, Explanation: "insufficient attendance, reorientation"},

	// ---- previous semester failed or unresolved: the student should not be
	// enrolled here at all ----
	{ID: 48, Premise: Premise{Prev: prevDead},
		Code: AJ, Devenir: DevRedoYear, Inconsistent: true,
		Explanation: "enrolled after a failed or unresolved semester: data inconsistency"},
}

// Candidates returns the rules matching state, in declaration order, skipping
// rules whose code the curriculum forbids and semester-repeat rules when the
// semester does not run staggered (semestrial) management. This is the
// candidate-decision list; the head of the list is the recommendation.
func Candidates(state State, cur *Curriculum, semestrial bool) []Rule {
	var matches []Rule
	for _, rule := range Rules {
		if !cur.CodeAllowed(rule.Code) {
			continue
		}
		if !semestrial && rule.Devenir == DevRedoSem {
			continue
		}
		if rule.Premise.Match(state) {
			matches = append(matches, rule)
		}
	}
	return matches
}
