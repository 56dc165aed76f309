package jury

import (
	"github.com/volatiletech/null/v8"

	"github.com/edusco/scolar/core/parcours"
)

// CompensationSide is one semester of a candidate compensation pair, already
// grade-aggregated.
type CompensationSide struct {
	SemesterID int
	Rank       int
	Moy        null.Float64
	UEsOK      bool

	// last recorded decision, zero values if none
	DecisionCode       string
	CompenseSemesterID null.Int
}

// CheckCompensation reports whether partner may compensate current. The
// semesters must be of adjacent rank, the partner must not already compensate
// a different semester, its last decision (if any) must still be eligible,
// both sides must clear their UE thresholds, and the mean of the two general
// averages must reach the regulation threshold.
func CheckCompensation(current, partner CompensationSide) bool {
	delta := current.Rank - partner.Rank
	if delta != 1 && delta != -1 {
		return false
	}
	if partner.CompenseSemesterID.Valid && partner.CompenseSemesterID.Int != current.SemesterID {
		return false
	}
	if partner.DecisionCode != "" && !parcours.IsCompensable(partner.DecisionCode) {
		return false
	}
	if !current.UEsOK || !partner.UEsOK {
		return false
	}
	if !current.Moy.Valid || !partner.Moy.Valid {
		return false
	}
	mean := (current.Moy.Float64 + partner.Moy.Float64) / 2
	return mean >= parcours.CompensationThreshold
}
