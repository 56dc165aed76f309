package notes

import (
	"math"
	"testing"

	"github.com/volatiletech/null/v8"
)

const (
	semID = 1

	ueMain  = 11
	ueSecnd = 12
	ueSport = 13

	modAlgo    = 21
	modMath    = 22
	modComm    = 23
	modSportID = 24

	evAlgo1  = 31
	evAlgo2  = 32
	evMath1  = 33
	evComm1  = 34
	evSport1 = 35

	alice    = 101 // full set of grades
	bob      = 102 // absences, a neutralized score and a pending one
	carol    = 103 // withdrawn
	studentX = 999 // never enrolled
)

func fixtureSemester() Semester {
	return Semester{ID: semID, FormationID: 1, FormationCode: "INFO", CurriculumTag: 100, Rank: 1, Title: "S1"}
}

func fixtureTable() *Table {
	sem := fixtureSemester()
	ues := []UE{
		{ID: ueMain, Acronyme: "UE1", Type: 0, ECTS: 16, Code: "U1"},
		{ID: ueSecnd, Acronyme: "UE2", Type: 0, ECTS: 14, Code: "U2"},
		{ID: ueSport, Acronyme: "UES", Type: 1, Code: "US"},
	}
	modimpls := []ModuleImpl{
		{ID: modAlgo, SemesterID: semID, Module: Module{UEID: ueMain, Code: "M1101", Coefficient: 2}},
		{ID: modMath, SemesterID: semID, Module: Module{UEID: ueMain, Code: "M1102", Coefficient: 1}},
		{ID: modComm, SemesterID: semID, Module: Module{UEID: ueSecnd, Code: "M1201", Coefficient: 3}},
		{ID: modSportID, SemesterID: semID, Module: Module{UEID: ueSport, Code: "SPORT", Coefficient: 1}},
	}
	evals := []Evaluation{
		{ID: evAlgo1, ModuleImplID: modAlgo, Coefficient: 1, NoteMax: 20},
		{ID: evAlgo2, ModuleImplID: modAlgo, Coefficient: 1, NoteMax: 40},
		{ID: evMath1, ModuleImplID: modMath, Coefficient: 2, NoteMax: 20},
		{ID: evComm1, ModuleImplID: modComm, Coefficient: 1, NoteMax: 20},
		{ID: evSport1, ModuleImplID: modSportID, Coefficient: 1, NoteMax: 20},
	}
	grades := []Grade{
		{EvaluationID: evAlgo1, StudentID: alice, Value: null.Float64From(12)},
		{EvaluationID: evAlgo2, StudentID: alice, Value: null.Float64From(30)}, // 15/20
		{EvaluationID: evMath1, StudentID: alice, Value: null.Float64From(14)},
		{EvaluationID: evComm1, StudentID: alice, Value: null.Float64From(9)},
		{EvaluationID: evSport1, StudentID: alice, Value: null.Float64From(14)},

		{EvaluationID: evAlgo1, StudentID: bob}, // absent
		// evAlgo2: no row, counts as absent too
		{EvaluationID: evMath1, StudentID: bob, Value: null.Float64From(GradeNeutralized)},
		{EvaluationID: evComm1, StudentID: bob, Value: null.Float64From(GradePending)},
	}
	enrollments := []Enrollment{
		{ID: 1, SemesterID: semID, StudentID: alice},
		{ID: 2, SemesterID: semID, StudentID: bob},
		{ID: 3, SemesterID: semID, StudentID: carol, Demission: true},
	}
	return newTable(sem, ues, modimpls, evals, grades, enrollments)
}

func almostEq(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestTableAverages(t *testing.T) {
	tbl := fixtureTable()

	if got := tbl.Students(); len(got) != 2 || got[0] != alice || got[1] != bob {
		t.Fatalf("Students() = %v, want [%d %d] (withdrawn excluded)", got, alice, bob)
	}

	// alice: algo (12+15)/2=13.5, math 14, comm 9
	if avg := tbl.ModuleAvg(alice, modAlgo); !avg.Valid || !almostEq(avg.Float64, 13.5) {
		t.Errorf("ModuleAvg(alice, algo) = %v, want 13.5", avg)
	}
	// UE1 = (13.5*2 + 14*1)/3
	wantUE1 := (13.5*2 + 14) / 3
	if st := tbl.UEStatusFor(alice, ueMain); !st.Avg.Valid || !almostEq(st.Avg.Float64, wantUE1) || st.CoefSum != 3 {
		t.Errorf("UEStatusFor(alice, UE1) = %+v, want avg %v coef 3", st, wantUE1)
	}
	// general = (UE1*3 + 9*3)/6 plus 5% sport bonus on points above 10
	wantGen := (wantUE1*3+9*3)/6 + (14-10)*0.05
	if moy := tbl.GeneralAvg(alice); !moy.Valid || !almostEq(moy.Float64, wantGen) {
		t.Errorf("GeneralAvg(alice) = %v, want %v", moy, wantGen)
	}

	// bob: both algo evaluations absent -> 0; math neutralized -> ungraded
	if avg := tbl.ModuleAvg(bob, modAlgo); !avg.Valid || avg.Float64 != 0 {
		t.Errorf("ModuleAvg(bob, algo) = %v, want 0 (absences count as zero)", avg)
	}
	if avg := tbl.ModuleAvg(bob, modMath); avg.Valid {
		t.Errorf("ModuleAvg(bob, math) = %v, want ungraded (neutralized)", avg)
	}
	if st := tbl.UEStatusFor(bob, ueSecnd); st.Avg.Valid {
		t.Errorf("UEStatusFor(bob, UE2) = %+v, want ungraded (pending score excluded)", st)
	}

	if moy := tbl.GeneralAvg(studentX); moy.Valid {
		t.Errorf("GeneralAvg(unknown) = %v, want invalid", moy)
	}
}

func TestTablePending(t *testing.T) {
	tbl := fixtureTable()

	if !tbl.HasPending() {
		t.Error("HasPending() = false, want true")
	}
	if got := tbl.PendingModImpls(); len(got) != 1 || got[0] != modComm {
		t.Errorf("PendingModImpls() = %v, want [%d]", got, modComm)
	}
	if tbl.StudentHasPending(alice) {
		t.Error("StudentHasPending(alice) = true, want false")
	}
	if !tbl.StudentHasPending(bob) {
		t.Error("StudentHasPending(bob) = false, want true")
	}
}

func TestTableRanks(t *testing.T) {
	tbl := fixtureTable()

	if rank, total := tbl.Rank(alice); rank != 1 || total != 2 {
		t.Errorf("Rank(alice) = %d/%d, want 1/2", rank, total)
	}
	if rank, _ := tbl.Rank(bob); rank != 2 {
		t.Errorf("Rank(bob) = %d, want 2", rank)
	}
}

func TestTableThresholds(t *testing.T) {
	tbl := fixtureTable()

	if !tbl.MoyOK(alice) {
		t.Error("MoyOK(alice) = false, want true")
	}
	if !tbl.CheckUEThresholds(alice) {
		t.Error("CheckUEThresholds(alice) = false, want true")
	}
	if tbl.MoyOK(bob) {
		t.Error("MoyOK(bob) = true, want false")
	}
	if tbl.CheckUEThresholds(bob) {
		t.Error("CheckUEThresholds(bob) = true, want false (UE1 at zero)")
	}
	// an ungraded student never clears the average threshold
	if tbl.MoyOK(studentX) {
		t.Error("MoyOK(unknown) = true, want false")
	}
}
