// Package jury records and enumerates jury decisions: candidate choices from
// the regulation rule table, transactional decision writes with their
// cross-semester side effects, and compensation eligibility.
package jury

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/edusco/scolar/core"
)

// Validation is one persisted jury decision row: semester-level when UEID is
// null, UE-level otherwise. At most one active semester-level row exists per
// (student, semester).
type Validation struct {
	ID         int      `json:"id" db:"id"`
	StudentID  int      `json:"student_id" db:"student_id"`
	SemesterID int      `json:"semester_id" db:"semester_id"`
	UEID       null.Int `json:"ue_id" db:"ue_id"`

	Code   string `json:"code" db:"code"`
	Assidu bool   `json:"assidu" db:"assidu"`

	// CompenseSemesterID points at the partner semester of a compensation
	// pair. Both rows of the pair reference each other; deleting one side
	// clears the other's reference.
	CompenseSemesterID null.Int `json:"compense_semester_id" db:"compense_semester_id"`

	// UE-level fields.
	MoyUE      null.Float64 `json:"moy_ue" db:"moy_ue"`
	IsExternal bool         `json:"is_external" db:"is_external"` // UE validated outside the system

	EventDate time.Time `json:"event_date" db:"event_date"`
}

// Authorization lets a student enroll into a semester rank, derived from a
// decision's devenir.
type Authorization struct {
	ID               int    `json:"id" db:"id"`
	StudentID        int    `json:"student_id" db:"student_id"`
	OriginSemesterID int    `json:"origin_semester_id" db:"origin_semester_id"`
	FormationCode    string `json:"formation_code" db:"formation_code"`
	Rank             int    `json:"rank" db:"rank"`
}

// Decision is a jury decision, either offered as a candidate by the rule
// table or submitted for recording.
type Decision struct {
	Code        string `json:"code" validate:"required,jurycode"`
	NewCodePrev string `json:"new_code_prev" validate:"omitempty,jurycode"`
	Devenir     string `json:"devenir"`
	Assidu      bool   `json:"assidu"`

	// CompenseSemesterID names the compensation partner. Rule-derived
	// candidates always use the direct predecessor; manual entries may name
	// another semester, validated against the same eligibility predicate.
	CompenseSemesterID null.Int `json:"compense_semester_id"`

	RuleID       int    `json:"rule_id,omitempty"`
	Inconsistent bool   `json:"inconsistent,omitempty"`
	Explanation  string `json:"explanation,omitempty"`
}

func (d *Decision) Validate() error {
	d.Code = core.CleanString(d.Code)
	d.NewCodePrev = core.CleanString(d.NewCodePrev)
	return core.Validate.Struct(d)
}
