package notes

import (
	"sort"

	"github.com/volatiletech/null/v8"

	"github.com/edusco/scolar/core/parcours"
)

// sportBonusRate converts sport/culture points above 10 into general-average
// bonus points (regulation default: 5%).
const sportBonusRate = 0.05

// UEStatus is one student's aggregated standing on one UE.
type UEStatus struct {
	UE      UE           `json:"ue"`
	Avg     null.Float64 `json:"avg"`      // invalid when no module of the UE is graded
	CoefSum float64      `json:"coef_sum"` // sum of module coefficients that fed Avg
}

// Table is the immutable aggregated view of one semester. Build it with
// BuildTable, or through a TableCache; never mutate it after that.
type Table struct {
	sem      Semester
	ues      []UE
	modimpls []ModuleImpl

	students []int // enrolled, withdrawals excluded, ascending id

	moyMod  map[int]map[int]null.Float64 // student -> modimpl -> average /20
	moyUE   map[int]map[int]UEStatus     // student -> ue -> status
	moyGen  map[int]null.Float64         // student -> general average /20
	rank    map[int]int                  // student -> rank, ties share the rank
	pending map[int]bool                 // modimpl ids holding pending scores

	pendingStudents map[int]bool
}

// BuildTable loads the semester's raw data through repo and aggregates it.
func BuildTable(repo Repository, semID int) (*Table, error) {
	sem, err := repo.GetSemesterByID(semID)
	if err != nil {
		return nil, err
	}
	ues, err := repo.QuerySemesterUEs(semID)
	if err != nil {
		return nil, err
	}
	modimpls, err := repo.QuerySemesterModImpls(semID)
	if err != nil {
		return nil, err
	}
	evals, err := repo.QuerySemesterEvaluations(semID)
	if err != nil {
		return nil, err
	}
	grades, err := repo.QuerySemesterGrades(semID)
	if err != nil {
		return nil, err
	}
	enrollments, err := repo.QuerySemesterEnrollments(semID)
	if err != nil {
		return nil, err
	}
	return newTable(sem, ues, modimpls, evals, grades, enrollments), nil
}

func newTable(sem Semester, ues []UE, modimpls []ModuleImpl, evals []Evaluation, grades []Grade, enrollments []Enrollment) *Table {
	t := &Table{
		sem:             sem,
		ues:             ues,
		modimpls:        modimpls,
		moyMod:          make(map[int]map[int]null.Float64),
		moyUE:           make(map[int]map[int]UEStatus),
		moyGen:          make(map[int]null.Float64),
		rank:            make(map[int]int),
		pending:         make(map[int]bool),
		pendingStudents: make(map[int]bool),
	}

	for _, enr := range enrollments {
		if enr.Demission {
			continue
		}
		t.students = append(t.students, enr.StudentID)
	}
	sort.Ints(t.students)

	evalsByMod := make(map[int][]Evaluation)
	for _, ev := range evals {
		evalsByMod[ev.ModuleImplID] = append(evalsByMod[ev.ModuleImplID], ev)
	}
	gradeByEval := make(map[int]map[int]Grade) // eval -> student -> grade
	for _, g := range grades {
		byStudent, ok := gradeByEval[g.EvaluationID]
		if !ok {
			byStudent = make(map[int]Grade)
			gradeByEval[g.EvaluationID] = byStudent
		}
		byStudent[g.StudentID] = g
	}

	for _, studentID := range t.students {
		t.aggregateStudent(studentID, evalsByMod, gradeByEval)
	}
	t.computeRanks()
	return t
}

func (t *Table) aggregateStudent(studentID int, evalsByMod map[int][]Evaluation, gradeByEval map[int]map[int]Grade) {
	modAvgs := make(map[int]null.Float64, len(t.modimpls))
	for _, mi := range t.modimpls {
		modAvgs[mi.ID] = t.moduleAverage(studentID, mi, evalsByMod[mi.ID], gradeByEval)
	}
	t.moyMod[studentID] = modAvgs

	ueStatuses := make(map[int]UEStatus, len(t.ues))
	var genSum, genCoef, bonus float64
	for _, ue := range t.ues {
		var sum, coef float64
		for _, mi := range t.modimpls {
			if mi.Module.UEID != ue.ID {
				continue
			}
			avg := modAvgs[mi.ID]
			if !avg.Valid {
				continue
			}
			if ue.Type == parcours.UESport {
				// sport modules only add bonus points above 10
				if avg.Float64 > 10 {
					bonus += (avg.Float64 - 10) * mi.Module.Coefficient * sportBonusRate
				}
				continue
			}
			sum += avg.Float64 * mi.Module.Coefficient
			coef += mi.Module.Coefficient
		}
		status := UEStatus{UE: ue, CoefSum: coef}
		if coef > 0 {
			status.Avg = null.Float64From(sum / coef)
			genSum += status.Avg.Float64 * coef
			genCoef += coef
		}
		ueStatuses[ue.ID] = status
	}
	t.moyUE[studentID] = ueStatuses

	if genCoef > 0 {
		t.moyGen[studentID] = null.Float64From(genSum/genCoef + bonus)
	} else {
		t.moyGen[studentID] = null.Float64{}
	}
}

// moduleAverage computes one student's average on one module, on MaxScale.
// Suppressed and neutralized scores are excluded; an absent (null) or missing
// score counts as zero; a pending score excludes the evaluation and flags the
// module and student as pending.
func (t *Table) moduleAverage(studentID int, mi ModuleImpl, evals []Evaluation, gradeByEval map[int]map[int]Grade) null.Float64 {
	var sum, coef float64
	for _, ev := range evals {
		g, ok := gradeByEval[ev.ID][studentID]
		switch {
		case ok && g.IsSuppressed(), ok && g.IsNeutralized():
			continue
		case ok && g.IsPending():
			t.pending[mi.ID] = true
			t.pendingStudents[studentID] = true
			continue
		}
		var norm float64 // absent or missing score: zero
		if ok && g.Value.Valid && ev.NoteMax > 0 {
			norm = g.Value.Float64 / ev.NoteMax * MaxScale
		}
		sum += norm * ev.Coefficient
		coef += ev.Coefficient
	}
	if coef == 0 {
		return null.Float64{}
	}
	return null.Float64From(sum / coef)
}

// computeRanks orders students by descending general average; equal averages
// share the same rank.
func (t *Table) computeRanks() {
	ordered := make([]int, len(t.students))
	copy(ordered, t.students)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := t.moyGen[ordered[i]], t.moyGen[ordered[j]]
		if a.Valid != b.Valid {
			return a.Valid
		}
		return a.Float64 > b.Float64
	})
	for i, studentID := range ordered {
		if i > 0 && t.moyGen[studentID] == t.moyGen[ordered[i-1]] {
			t.rank[studentID] = t.rank[ordered[i-1]]
			continue
		}
		t.rank[studentID] = i + 1
	}
}

// Semester returns the semester this table aggregates.
func (t *Table) Semester() Semester { return t.sem }

// Curriculum returns the curriculum variant of the semester's formation.
func (t *Table) Curriculum() *parcours.Curriculum { return parcours.FromTag(t.sem.CurriculumTag) }

// Students lists the enrolled student ids, withdrawals excluded.
func (t *Table) Students() []int { return t.students }

// UEs lists the semester's UEs.
func (t *Table) UEs() []UE { return t.ues }

// ModImpls lists the semester's module implementations.
func (t *Table) ModImpls() []ModuleImpl { return t.modimpls }

// GeneralAvg returns the student's general average; invalid when nothing is
// graded yet.
func (t *Table) GeneralAvg(studentID int) null.Float64 { return t.moyGen[studentID] }

// ModuleAvg returns the student's average on one module implementation.
func (t *Table) ModuleAvg(studentID, modImplID int) null.Float64 {
	return t.moyMod[studentID][modImplID]
}

// UEStatuses returns the student's standing on every UE, in the semester's
// UE order.
func (t *Table) UEStatuses(studentID int) []UEStatus {
	statuses := make([]UEStatus, 0, len(t.ues))
	for _, ue := range t.ues {
		statuses = append(statuses, t.moyUE[studentID][ue.ID])
	}
	return statuses
}

// UEStatusFor returns the student's standing on one UE.
func (t *Table) UEStatusFor(studentID, ueID int) UEStatus { return t.moyUE[studentID][ueID] }

// Rank returns the student's rank (1-based; ties share the rank) and the
// number of ranked students.
func (t *Table) Rank(studentID int) (int, int) { return t.rank[studentID], len(t.students) }

// PendingModImpls lists module implementations holding pending scores.
func (t *Table) PendingModImpls() []int {
	ids := make([]int, 0, len(t.pending))
	for id := range t.pending {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// HasPending reports whether any enrolled student has a pending score. A
// semester with pending scores cannot be submitted to a jury.
func (t *Table) HasPending() bool { return len(t.pending) > 0 }

// StudentHasPending reports whether this student has a pending score.
func (t *Table) StudentHasPending(studentID int) bool { return t.pendingStudents[studentID] }

// MoyOK reports whether the student's general average clears the curriculum's
// pass threshold, rounding tolerance included. An ungraded student never
// clears it.
func (t *Table) MoyOK(studentID int) bool {
	moy := t.moyGen[studentID]
	return moy.Valid && moy.Float64 >= t.Curriculum().BarreMoyWithTolerance()
}

// CheckUEThresholds reports whether every graded UE clears its elimination
// threshold, rounding tolerance included. Sport UEs only carry bonus points
// and are skipped.
func (t *Table) CheckUEThresholds(studentID int) bool {
	cur := t.Curriculum()
	for _, ue := range t.ues {
		if ue.Type == parcours.UESport {
			continue
		}
		status := t.moyUE[studentID][ue.ID]
		if !status.Avg.Valid {
			continue
		}
		if status.Avg.Float64 < cur.BarreUEFor(ue.Type, true) {
			return false
		}
	}
	return true
}

// ECTSPotential returns the ECTS credits the student can claim: the summed
// credits of UEs whose average clears the acquisition threshold, plus the
// fundamental subset of that sum.
func (t *Table) ECTSPotential(studentID int) (total, fundamentals float64) {
	barre := t.Curriculum().BarreValidUE - parcours.NotesTolerance
	for _, ue := range t.ues {
		if ue.Type == parcours.UESport {
			continue
		}
		status := t.moyUE[studentID][ue.ID]
		if !status.Avg.Valid || status.Avg.Float64 < barre {
			continue
		}
		total += ue.ECTS
		if parcours.UEIsFundamental(ue.Type) {
			fundamentals += ue.ECTS
		}
	}
	return total, fundamentals
}
