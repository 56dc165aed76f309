package jury_test

import (
	"testing"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/edusco/scolar/core"
	"github.com/edusco/scolar/core/jury"
	"github.com/edusco/scolar/core/notes"
	"github.com/edusco/scolar/core/parcours"
	dummydb "github.com/edusco/scolar/storage/database/dummy"
)

const etudid = 101

type testLogger struct{}

func (testLogger) Debug(msg string, args ...interface{}) {}
func (testLogger) Info(msg string, args ...interface{})  {}
func (testLogger) Warn(msg string, args ...interface{})  {}
func (testLogger) Error(msg string, args ...interface{}) {}
func (testLogger) Fatal(msg string, args ...interface{}) {}

type env struct {
	db    *dummydb.DB
	cache *notes.TableCache
	repo  jury.Repository
	svc   *jury.Service
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatal(err)
	}
	notesRepo := dummydb.NewNotesRepository(db)
	juryRepo := dummydb.NewJuryRepository(db)
	cache := notes.NewTableCache(notesRepo, testLogger{})
	return &env{
		db:    db,
		cache: cache,
		repo:  juryRepo,
		svc:   jury.NewService(db, juryRepo, notesRepo, cache, testLogger{}),
	}
}

// seedSemester creates a one-UE semester whose single evaluation sets the
// student's general and UE average directly. Ids derive from the semester id.
func seedSemester(e *env, semID, rank, curriculumTag int, comp bool) {
	start := time.Date(2019, time.September, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 5*(rank-1), 0)
	e.db.AddSemester(notes.Semester{
		ID:                  semID,
		FormationID:         1,
		FormationCode:       "INFO",
		CurriculumTag:       curriculumTag,
		Rank:                rank,
		Title:               "S" + string(rune('0'+rank)),
		DateDebut:           start,
		DateFin:             start.AddDate(0, 5, 0),
		GestionCompensation: comp,
	})
	e.db.AddUE(semID, notes.UE{ID: ueID(semID), FormationID: 1, Acronyme: "UE1", Type: parcours.UEStandard, ECTS: 30, Code: "U1"})
	e.db.AddModImpl(notes.ModuleImpl{
		ID: modID(semID), SemesterID: semID,
		Module: notes.Module{ID: modID(semID), UEID: ueID(semID), Code: "M1", Coefficient: 1},
	})
	e.db.AddEvaluation(semID, notes.Evaluation{ID: evalID(semID), ModuleImplID: modID(semID), Coefficient: 1, NoteMax: 20})
}

func ueID(semID int) int   { return semID*100 + 1 }
func modID(semID int) int  { return semID*100 + 2 }
func evalID(semID int) int { return semID*100 + 3 }

func enrollWithMoy(e *env, semID int, moy float64) {
	e.db.Enroll(semID, etudid)
	e.db.SetGrade(semID, notes.Grade{EvaluationID: evalID(semID), StudentID: etudid, Value: null.Float64From(moy)})
}

func mustSituation(t *testing.T, e *env, semID int) jury.Situation {
	t.Helper()
	sit, err := e.svc.Situation(etudid, semID)
	if err != nil {
		t.Fatalf("Situation() error = %v", err)
	}
	return sit
}

func TestCleanFirstSemesterSingleAdmit(t *testing.T) {
	e := newEnv(t)
	seedSemester(e, 1, 1, 100, false)
	enrollWithMoy(e, 1, 11.2)

	choices := mustSituation(t, e, 1).GetPossibleChoices(true)
	if len(choices) != 1 {
		t.Fatalf("GetPossibleChoices() = %d choices, want 1", len(choices))
	}
	d := choices[0]
	if d.Code != parcours.ADM || d.Devenir != parcours.DevNext {
		t.Errorf("choice = %s/%s, want ADM/NEXT", d.Code, d.Devenir)
	}
}

func TestFailedUENeverAdmits(t *testing.T) {
	e := newEnv(t)
	seedSemester(e, 1, 1, 100, false)
	seedSemester(e, 2, 2, 100, false)
	enrollWithMoy(e, 1, 12)
	enrollWithMoy(e, 2, 5) // below the UE elimination threshold

	if _, err := mustSituation(t, e, 1).ValideDecision(jury.Decision{Code: parcours.ADM, Devenir: parcours.DevNext, Assidu: true}); err != nil {
		t.Fatalf("ValideDecision(S1) error = %v", err)
	}

	choices := mustSituation(t, e, 2).GetPossibleChoices(true)
	if len(choices) == 0 {
		t.Fatal("GetPossibleChoices() returned nothing")
	}
	for _, d := range choices {
		if parcours.IsSemValidating(d.Code) {
			t.Errorf("failed-UE state offered validating code %s", d.Code)
		}
	}
}

func TestChoicesRespectCurriculumCodes(t *testing.T) {
	e := newEnv(t)
	// single-session program, waiting codes forbidden
	seedSemester(e, 1, 1, 120, false)
	enrollWithMoy(e, 1, 9)

	cur := parcours.FromTag(120)
	choices := mustSituation(t, e, 1).GetPossibleChoices(true)
	if len(choices) == 0 {
		t.Fatal("GetPossibleChoices() returned nothing")
	}
	for _, d := range choices {
		if !cur.CodeAllowed(d.Code) {
			t.Errorf("choice %s is forbidden by the curriculum", d.Code)
		}
	}
}

func TestDecisionRoundTrip(t *testing.T) {
	e := newEnv(t)
	seedSemester(e, 1, 1, 100, false)
	enrollWithMoy(e, 1, 11.2)

	affected, err := mustSituation(t, e, 1).ValideDecision(jury.Decision{Code: parcours.ADM, Devenir: parcours.DevNext, Assidu: true})
	if err != nil {
		t.Fatalf("ValideDecision() error = %v", err)
	}
	if len(affected) != 1 || affected[0] != 1 {
		t.Errorf("affected = %v, want [1]", affected)
	}

	dec, err := e.svc.GetDecision(etudid, 1)
	if err != nil {
		t.Fatalf("GetDecision() error = %v", err)
	}
	if dec.Code != parcours.ADM || !dec.Assidu || dec.CompenseSemesterID.Valid {
		t.Errorf("GetDecision() = %+v, want ADM, assidu, no partner", dec)
	}

	ues, err := e.svc.ListUEDecisions(etudid, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(ues) != 1 || ues[0].Code != parcours.ADM || !ues[0].MoyUE.Valid {
		t.Errorf("ListUEDecisions() = %+v, want one ADM row with its average", ues)
	}

	auths, err := e.svc.ListAuthorizations(etudid, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(auths) != 1 || auths[0].Rank != 2 {
		t.Errorf("ListAuthorizations() = %+v, want [rank 2]", auths)
	}
}

func TestValideDecisionIdempotent(t *testing.T) {
	e := newEnv(t)
	seedSemester(e, 1, 1, 100, false)
	enrollWithMoy(e, 1, 11.2)

	d := jury.Decision{Code: parcours.ADM, Devenir: parcours.DevNext, Assidu: true}
	if _, err := mustSituation(t, e, 1).ValideDecision(d); err != nil {
		t.Fatal(err)
	}
	first, err := e.svc.GetDecision(etudid, 1)
	if err != nil {
		t.Fatal(err)
	}

	if _, err = mustSituation(t, e, 1).ValideDecision(d); err != nil {
		t.Fatalf("second ValideDecision() error = %v", err)
	}
	second, err := e.svc.GetDecision(etudid, 1)
	if err != nil {
		t.Fatal(err)
	}
	if second.Code != first.Code || second.Assidu != first.Assidu ||
		second.CompenseSemesterID != first.CompenseSemesterID {
		t.Errorf("second decision %+v differs from first %+v", second, first)
	}

	ues, _ := e.svc.ListUEDecisions(etudid, 1)
	if len(ues) != 1 {
		t.Errorf("ListUEDecisions() = %d rows after double validate, want 1", len(ues))
	}
	auths, _ := e.svc.ListAuthorizations(etudid, 1)
	if len(auths) != 1 {
		t.Errorf("ListAuthorizations() = %d rows after double validate, want 1", len(auths))
	}
}

func TestNonAssiduityForcesFailingUECodes(t *testing.T) {
	e := newEnv(t)
	seedSemester(e, 1, 1, 100, false)
	enrollWithMoy(e, 1, 14) // passing averages everywhere

	sit := mustSituation(t, e, 1)
	for _, d := range sit.GetPossibleChoices(false) {
		if parcours.IsSemValidating(d.Code) {
			t.Errorf("non-assiduous state offered validating code %s", d.Code)
		}
	}

	if _, err := sit.ValideDecision(jury.Decision{Code: parcours.AJ, Devenir: parcours.DevRedoYear, Assidu: false}); err != nil {
		t.Fatalf("ValideDecision() error = %v", err)
	}
	ues, err := e.svc.ListUEDecisions(etudid, 1)
	if err != nil {
		t.Fatal(err)
	}
	for _, ue := range ues {
		if ue.Code != parcours.AJ {
			t.Errorf("UE code = %s, want AJ (assiduity short-circuit)", ue.Code)
		}
	}
}

func TestUEDecisionCodes(t *testing.T) {
	// two UEs: one clears the acquisition threshold, one is below it but above
	// the elimination threshold, so the semester still validates
	e := newEnv(t)
	const semID = 1
	start := time.Date(2019, time.September, 1, 0, 0, 0, 0, time.UTC)
	e.db.AddSemester(notes.Semester{
		ID: semID, FormationID: 1, FormationCode: "INFO", CurriculumTag: 100,
		Rank: 1, Title: "S1", DateDebut: start, DateFin: start.AddDate(0, 5, 0),
	})
	e.db.AddUE(semID, notes.UE{ID: 11, FormationID: 1, Acronyme: "UE1", Type: parcours.UEStandard, ECTS: 16, Code: "U1"})
	e.db.AddUE(semID, notes.UE{ID: 12, FormationID: 1, Acronyme: "UE2", Type: parcours.UEStandard, ECTS: 14, Code: "U2"})
	e.db.AddModImpl(notes.ModuleImpl{ID: 21, SemesterID: semID, Module: notes.Module{ID: 21, UEID: 11, Code: "M1", Coefficient: 1}})
	e.db.AddModImpl(notes.ModuleImpl{ID: 22, SemesterID: semID, Module: notes.Module{ID: 22, UEID: 12, Code: "M2", Coefficient: 1}})
	e.db.AddEvaluation(semID, notes.Evaluation{ID: 31, ModuleImplID: 21, Coefficient: 1, NoteMax: 20})
	e.db.AddEvaluation(semID, notes.Evaluation{ID: 32, ModuleImplID: 22, Coefficient: 1, NoteMax: 20})
	e.db.Enroll(semID, etudid)
	e.db.SetGrade(semID, notes.Grade{EvaluationID: 31, StudentID: etudid, Value: null.Float64From(12)})
	e.db.SetGrade(semID, notes.Grade{EvaluationID: 32, StudentID: etudid, Value: null.Float64From(9)})

	// general average 10.5: the semester validates
	if _, err := mustSituation(t, e, semID).ValideDecision(jury.Decision{Code: parcours.ADM, Devenir: parcours.DevNext, Assidu: true}); err != nil {
		t.Fatalf("ValideDecision() error = %v", err)
	}

	ues, err := e.svc.ListUEDecisions(etudid, semID)
	if err != nil {
		t.Fatal(err)
	}
	if len(ues) != 2 {
		t.Fatalf("ListUEDecisions() = %d rows, want 2", len(ues))
	}
	byUE := map[int]string{}
	for _, ue := range ues {
		byUE[ue.UEID.Int] = ue.Code
	}
	if byUE[11] != parcours.ADM {
		t.Errorf("UE1 code = %s, want ADM (own average)", byUE[11])
	}
	if byUE[12] != parcours.CMP {
		t.Errorf("UE2 code = %s, want CMP (validated by the semester)", byUE[12])
	}
}

func TestCompensationRevisesPredecessor(t *testing.T) {
	e := newEnv(t)
	seedSemester(e, 1, 1, 100, true)
	seedSemester(e, 2, 2, 100, true)
	enrollWithMoy(e, 1, 9.2)
	enrollWithMoy(e, 2, 11)

	// S1: average below threshold, waiting on S2
	s1Choices := mustSituation(t, e, 1).GetPossibleChoices(true)
	if len(s1Choices) == 0 || s1Choices[0].Code != parcours.ATT {
		t.Fatalf("S1 choices = %+v, want ATT first", s1Choices)
	}
	if _, err := mustSituation(t, e, 1).ValideDecision(s1Choices[0]); err != nil {
		t.Fatal(err)
	}

	// S2 validates and compensates S1: mean (11+9.2)/2 clears the threshold
	sit2 := mustSituation(t, e, 2)
	if !sit2.CouldBeCompensated() {
		t.Fatal("CouldBeCompensated() = false, want true")
	}
	choices := sit2.GetPossibleChoices(true)
	if len(choices) != 1 {
		t.Fatalf("S2 choices = %+v, want exactly one", choices)
	}
	d := choices[0]
	if d.Code != parcours.ADM || d.NewCodePrev != parcours.ADC {
		t.Fatalf("S2 choice = %s revising prev to %s, want ADM revising to ADC", d.Code, d.NewCodePrev)
	}
	if !d.CompenseSemesterID.Valid || d.CompenseSemesterID.Int != 1 {
		t.Fatalf("choice partner = %v, want semester 1", d.CompenseSemesterID)
	}

	affected, err := sit2.ValideDecision(d)
	if err != nil {
		t.Fatalf("ValideDecision() error = %v", err)
	}
	if len(affected) != 2 {
		t.Errorf("affected = %v, want S2 and S1", affected)
	}

	// both rows point at each other
	s2Dec, err := e.svc.GetDecision(etudid, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !s2Dec.CompenseSemesterID.Valid || s2Dec.CompenseSemesterID.Int != 1 {
		t.Errorf("S2 partner = %v, want 1", s2Dec.CompenseSemesterID)
	}
	s1Dec, err := e.svc.GetDecision(etudid, 1)
	if err != nil {
		t.Fatal(err)
	}
	if s1Dec.Code != parcours.ADC {
		t.Errorf("S1 code = %s, want ADC (revised)", s1Dec.Code)
	}
	if !s1Dec.CompenseSemesterID.Valid || s1Dec.CompenseSemesterID.Int != 2 {
		t.Errorf("S1 partner = %v, want 2", s1Dec.CompenseSemesterID)
	}
}

func TestUndoDecisionClearsPartnerBackref(t *testing.T) {
	e := newEnv(t)
	seedSemester(e, 1, 1, 100, true)
	seedSemester(e, 2, 2, 100, true)
	enrollWithMoy(e, 1, 9.2)
	enrollWithMoy(e, 2, 11)

	s1Choices := mustSituation(t, e, 1).GetPossibleChoices(true)
	if _, err := mustSituation(t, e, 1).ValideDecision(s1Choices[0]); err != nil {
		t.Fatal(err)
	}
	sit2 := mustSituation(t, e, 2)
	if _, err := sit2.ValideDecision(sit2.GetPossibleChoices(true)[0]); err != nil {
		t.Fatal(err)
	}

	affected, err := e.svc.UndoDecision(etudid, 2)
	if err != nil {
		t.Fatalf("UndoDecision() error = %v", err)
	}
	if len(affected) != 2 {
		t.Errorf("affected = %v, want S2 and S1", affected)
	}

	if _, err = e.svc.GetDecision(etudid, 2); err != jury.ErrDecisionNotFound {
		t.Errorf("GetDecision(S2) error = %v, want ErrDecisionNotFound", err)
	}
	s1Dec, err := e.svc.GetDecision(etudid, 1)
	if err != nil {
		t.Fatal(err)
	}
	if s1Dec.CompenseSemesterID.Valid {
		t.Errorf("S1 partner = %v, want cleared", s1Dec.CompenseSemesterID)
	}
	auths, _ := e.svc.ListAuthorizations(etudid, 2)
	if len(auths) != 0 {
		t.Errorf("ListAuthorizations() = %+v, want none after undo", auths)
	}
}

func TestValideDecisionRejections(t *testing.T) {
	t.Run("forbidden code", func(t *testing.T) {
		e := newEnv(t)
		seedSemester(e, 1, 1, 120, false) // single-session: no ATT
		enrollWithMoy(e, 1, 9)

		_, err := mustSituation(t, e, 1).ValideDecision(jury.Decision{Code: parcours.ATT, Devenir: parcours.DevNext, Assidu: true})
		if !core.IsValidationError(err) {
			t.Errorf("ValideDecision() error = %v, want validation error", err)
		}
		if _, err = e.svc.GetDecision(etudid, 1); err != jury.ErrDecisionNotFound {
			t.Error("rejected decision must not be persisted")
		}
	})

	t.Run("unknown code", func(t *testing.T) {
		e := newEnv(t)
		seedSemester(e, 1, 1, 100, false)
		enrollWithMoy(e, 1, 11)

		_, err := mustSituation(t, e, 1).ValideDecision(jury.Decision{Code: "NOPE", Devenir: parcours.DevNext, Assidu: true})
		if err == nil {
			t.Error("ValideDecision() accepted an unknown code")
		}
	})

	t.Run("pending grades", func(t *testing.T) {
		e := newEnv(t)
		seedSemester(e, 1, 1, 100, false)
		enrollWithMoy(e, 1, 11.2)
		e.db.AddEvaluation(1, notes.Evaluation{ID: 999, ModuleImplID: modID(1), Coefficient: 1, NoteMax: 20})
		e.db.SetGrade(1, notes.Grade{EvaluationID: 999, StudentID: etudid, Value: null.Float64From(notes.GradePending)})

		_, err := mustSituation(t, e, 1).ValideDecision(jury.Decision{Code: parcours.ADM, Devenir: parcours.DevNext, Assidu: true})
		if !core.IsValidationError(err) {
			t.Errorf("ValideDecision() error = %v, want validation error on pending grades", err)
		}
	})

	t.Run("predecessor undecided", func(t *testing.T) {
		e := newEnv(t)
		seedSemester(e, 1, 1, 100, false)
		seedSemester(e, 2, 2, 100, false)
		enrollWithMoy(e, 1, 12)
		enrollWithMoy(e, 2, 12)

		_, err := mustSituation(t, e, 2).ValideDecision(jury.Decision{Code: parcours.ADM, Devenir: parcours.DevNext, Assidu: true})
		if !core.IsValidationError(err) {
			t.Errorf("ValideDecision() error = %v, want validation error on undecided predecessor", err)
		}
	})

	t.Run("ineligible manual partner", func(t *testing.T) {
		e := newEnv(t)
		seedSemester(e, 1, 1, 100, true)
		seedSemester(e, 2, 2, 100, true)
		enrollWithMoy(e, 1, 12)
		enrollWithMoy(e, 2, 12)

		// S1 failed: it may never take part in a pair
		if _, err := e.repo.UpsertDecisionSem(e.db, jury.Validation{
			StudentID: etudid, SemesterID: 1, Code: parcours.AJ, EventDate: time.Now().UTC(),
		}); err != nil {
			t.Fatal(err)
		}

		_, err := mustSituation(t, e, 2).ValideDecision(jury.Decision{
			Code: parcours.ADM, Devenir: parcours.DevNext, Assidu: true,
			CompenseSemesterID: null.IntFrom(1),
		})
		if !core.IsValidationError(err) {
			t.Errorf("ValideDecision() error = %v, want validation error on ineligible partner", err)
		}
	})
}

func TestECTSChoices(t *testing.T) {
	seedECTS := func(e *env, fundECTS, fundMoy, electiveECTS, electiveMoy float64) {
		const semID = 1
		start := time.Date(2020, time.September, 1, 0, 0, 0, 0, time.UTC)
		e.db.AddSemester(notes.Semester{
			ID: semID, FormationID: 1, FormationCode: "LIC", CurriculumTag: 1002,
			Rank: 1, Title: "Y1", DateDebut: start, DateFin: start.AddDate(1, 0, 0),
		})
		e.db.AddUE(semID, notes.UE{ID: 11, Acronyme: "UEF", Type: parcours.UEStandard, ECTS: fundECTS, Code: "F1"})
		e.db.AddUE(semID, notes.UE{ID: 12, Acronyme: "UEL", Type: parcours.UEElective, ECTS: electiveECTS, Code: "L1"})
		e.db.AddModImpl(notes.ModuleImpl{ID: 21, SemesterID: semID, Module: notes.Module{ID: 21, UEID: 11, Code: "F", Coefficient: 1}})
		e.db.AddModImpl(notes.ModuleImpl{ID: 22, SemesterID: semID, Module: notes.Module{ID: 22, UEID: 12, Code: "L", Coefficient: 1}})
		e.db.AddEvaluation(semID, notes.Evaluation{ID: 31, ModuleImplID: 21, Coefficient: 1, NoteMax: 20})
		e.db.AddEvaluation(semID, notes.Evaluation{ID: 32, ModuleImplID: 22, Coefficient: 1, NoteMax: 20})
		e.db.Enroll(semID, etudid)
		e.db.SetGrade(semID, notes.Grade{EvaluationID: 31, StudentID: etudid, Value: null.Float64From(fundMoy)})
		e.db.SetGrade(semID, notes.Grade{EvaluationID: 32, StudentID: etudid, Value: null.Float64From(electiveMoy)})
	}

	t.Run("thresholds met", func(t *testing.T) {
		e := newEnv(t)
		// 55 fundamental + 3 elective credits acquired: 58 potential ECTS
		seedECTS(e, 55, 12, 3, 14)

		sit := mustSituation(t, e, 1)
		if sit.CouldBeCompensated() {
			t.Error("CouldBeCompensated() = true, want false in ECTS mode")
		}
		choices := sit.GetPossibleChoices(true)
		if len(choices) != 1 {
			t.Fatalf("GetPossibleChoices() = %+v, want exactly one", choices)
		}
		if choices[0].Code != parcours.ADM || choices[0].Devenir != parcours.DevNext {
			t.Errorf("choice = %s/%s, want ADM/NEXT", choices[0].Code, choices[0].Devenir)
		}
	})

	t.Run("thresholds unmet", func(t *testing.T) {
		e := newEnv(t)
		// elective UE failed: only 40 potential ECTS
		seedECTS(e, 40, 11, 18, 5)

		choices := mustSituation(t, e, 1).GetPossibleChoices(true)
		if len(choices) != 1 {
			t.Fatalf("GetPossibleChoices() = %+v, want exactly one", choices)
		}
		d := choices[0]
		if d.Code != parcours.AJ || d.Devenir != parcours.DevRedoYear {
			t.Errorf("choice = %s/%s, want AJ/REDOANNEE", d.Code, d.Devenir)
		}
		if d.CompenseSemesterID.Valid {
			t.Error("ECTS mode offered a compensation partner")
		}
	})
}
