package jury

import (
	"fmt"

	"github.com/edusco/scolar/core/parcours"
)

// ectsSituation replaces the rule-table enumeration for credit-accumulation
// curricula: the choice collapses to admit when the potential credits clear
// both the yearly and the fundamentals thresholds, fail otherwise.
// Compensation never applies.
type ectsSituation struct {
	*situation
}

func (s *ectsSituation) CouldBeCompensated() bool { return false }

func (s *ectsSituation) GetPossibleChoices(assidu bool) []Decision {
	total, fundamentals := s.table.ECTSPotential(s.studentID)
	ok := assidu &&
		total >= float64(s.cur.ECTSValidYear) &&
		fundamentals >= float64(s.cur.ECTSFundamentalsYear)

	if ok {
		return []Decision{{
			Code:    parcours.ADM,
			Devenir: parcours.DevNext,
			Assidu:  assidu,
			Explanation: fmt.Sprintf("year validated: %.0f potential ECTS (%.0f fundamental)",
				total, fundamentals),
		}}
	}
	return []Decision{{
		Code:    parcours.AJ,
		Devenir: parcours.DevRedoYear,
		Assidu:  assidu,
		Explanation: fmt.Sprintf("insufficient potential ECTS: %.0f/%d (%.0f/%d fundamental)",
			total, s.cur.ECTSValidYear, fundamentals, s.cur.ECTSFundamentalsYear),
	}}
}
