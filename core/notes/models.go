// Package notes computes and caches the aggregated grade view of a semester:
// module, UE and general averages, ranks, UE threshold status and pending
// grades, from the raw per-evaluation scores.
package notes

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// Grade sentinel values, stored in place of a numeric score.
const (
	GradeNeutralized = -1000 // excused: the evaluation does not count for this student
	GradeSuppressed  = -1001 // the evaluation was withdrawn after grading
	GradePending     = -1002 // score not entered yet; blocks jury decisions
)

// MaxScale is the scale averages are normalized to.
const MaxScale = 20.0

type Semester struct {
	ID            int       `json:"id" db:"id"`
	FormationID   int       `json:"formation_id" db:"formation_id"`
	FormationCode string    `json:"formation_code" db:"formation_code"` // stable across formation versions, chains semesters
	CurriculumTag int       `json:"curriculum_tag" db:"curriculum_tag"`
	Rank          int       `json:"rank" db:"rank"` // semester index within the curriculum, NoSemesterRank if none
	Title         string    `json:"title" db:"title"`
	DateDebut     time.Time `json:"date_debut" db:"date_debut"`
	DateFin       time.Time `json:"date_fin" db:"date_fin"`

	// GestionCompensation enables compensation with the adjacent semester.
	GestionCompensation bool `json:"gestion_compensation" db:"gestion_compensation"`
	// GestionSemestrielle marks staggered management: semester-repeat
	// outcomes become available.
	GestionSemestrielle bool `json:"gestion_semestrielle" db:"gestion_semestrielle"`

	Locked bool `json:"locked" db:"locked"`
}

type UE struct {
	ID          int     `json:"id" db:"id"`
	FormationID int     `json:"formation_id" db:"formation_id"`
	Acronyme    string  `json:"acronyme" db:"acronyme"`
	Titre       string  `json:"titre" db:"titre"`
	Type        int     `json:"type" db:"type"` // parcours UE type
	ECTS        float64 `json:"ects" db:"ects"`
	// Code identifies the UE across formation versions, for capitalization.
	Code string `json:"code" db:"code"`
}

type Module struct {
	ID          int     `json:"id" db:"id"`
	UEID        int     `json:"ue_id" db:"ue_id"`
	Code        string  `json:"code" db:"code"`
	Titre       string  `json:"titre" db:"titre"`
	Coefficient float64 `json:"coefficient" db:"coefficient"`
}

// ModuleImpl is a module taught in a given semester.
type ModuleImpl struct {
	ID         int    `json:"id" db:"id"`
	ModuleID   int    `json:"module_id" db:"module_id"`
	SemesterID int    `json:"semester_id" db:"semester_id"`
	Module     Module `json:"module" db:"module"`
}

type Evaluation struct {
	ID           int       `json:"id" db:"id"`
	ModuleImplID int       `json:"module_impl_id" db:"module_impl_id"`
	Description  string    `json:"description" db:"description"`
	Coefficient  float64   `json:"coefficient" db:"coefficient"`
	NoteMax      float64   `json:"note_max" db:"note_max"` // scores are out of NoteMax, normalized to MaxScale
	Date         time.Time `json:"date" db:"date"`
}

// Grade is one student's score on one evaluation. A null value means the
// student was absent and counts as zero; sentinel values mark neutralized,
// suppressed and pending scores.
type Grade struct {
	EvaluationID int          `json:"evaluation_id" db:"evaluation_id"`
	StudentID    int          `json:"student_id" db:"student_id"`
	Value        null.Float64 `json:"value" db:"value"`
}

func (g Grade) IsAbsent() bool      { return !g.Value.Valid }
func (g Grade) IsNeutralized() bool { return g.Value.Valid && g.Value.Float64 == GradeNeutralized }
func (g Grade) IsSuppressed() bool  { return g.Value.Valid && g.Value.Float64 == GradeSuppressed }
func (g Grade) IsPending() bool     { return g.Value.Valid && g.Value.Float64 == GradePending }

type Enrollment struct {
	ID         int  `json:"id" db:"id"`
	SemesterID int  `json:"semester_id" db:"semester_id"`
	StudentID  int  `json:"student_id" db:"student_id"`
	Demission  bool `json:"demission" db:"demission"` // withdrawn: kept out of ranks and juries
}
