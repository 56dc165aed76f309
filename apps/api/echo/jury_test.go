package echoapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/edusco/scolar/core"
	"github.com/edusco/scolar/core/jury"
	"github.com/edusco/scolar/core/notes"
	"github.com/edusco/scolar/core/parcours"
	"github.com/edusco/scolar/core/student"
	dummydb "github.com/edusco/scolar/storage/database/dummy"
)

const etudid = 101

type testLogger struct{}

func (testLogger) Debug(msg string, args ...interface{}) {}
func (testLogger) Info(msg string, args ...interface{})  {}
func (testLogger) Warn(msg string, args ...interface{})  {}
func (testLogger) Error(msg string, args ...interface{}) {}
func (testLogger) Fatal(msg string, args ...interface{}) {}

type testEnv struct {
	db     *dummydb.DB
	server Server
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	db, err := dummydb.Open()
	require.NoError(t, err)

	conf := &core.Config{
		TestMode:           true,
		Env:                "TEST",
		AppName:            "Scolar",
		SecretKey:          "secret",
		JwtExpirationDelta: 10 * time.Minute,
	}
	notesRepo := dummydb.NewNotesRepository(db)
	cache := notes.NewTableCache(notesRepo, testLogger{})
	jurySvc := jury.NewService(db, dummydb.NewJuryRepository(db), notesRepo, cache, testLogger{})
	stdSvc := student.NewService(dummydb.NewStudentRepository(db))

	srv := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         testLogger{},
		JurySvc:        jurySvc,
		StudentSvc:     stdSvc,
		Cache:          cache,
		DisableReqLogs: true,
	})
	return &testEnv{db: db, server: srv}
}

func (e *testEnv) seedSemester(t *testing.T, semID, rank int, moy float64) {
	t.Helper()
	start := time.Date(2020, time.September, 1, 0, 0, 0, 0, time.UTC)
	e.db.AddSemester(notes.Semester{
		ID: semID, FormationID: 1, FormationCode: "INFO", CurriculumTag: 100,
		Rank: rank, Title: fmt.Sprintf("S%d", rank),
		DateDebut: start, DateFin: start.AddDate(0, 5, 0),
	})
	ueID, modID, evalID := semID*100+1, semID*100+2, semID*100+3
	e.db.AddUE(semID, notes.UE{ID: ueID, FormationID: 1, Acronyme: "UE1", ECTS: 30, Code: "U1"})
	e.db.AddModImpl(notes.ModuleImpl{
		ID: modID, SemesterID: semID,
		Module: notes.Module{ID: modID, UEID: ueID, Code: "M1", Coefficient: 1},
	})
	e.db.AddEvaluation(semID, notes.Evaluation{ID: evalID, ModuleImplID: modID, Coefficient: 1, NoteMax: 20})
	e.db.Enroll(semID, etudid)
	e.db.SetGrade(semID, notes.Grade{EvaluationID: evalID, StudentID: etudid, Value: null.Float64From(moy)})
}

func (e *testEnv) do(t *testing.T, method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func getToken(t *testing.T, name string, admin bool) string {
	t.Helper()
	token, err := GenerateToken(GetStaffClaims(name, admin))
	require.NoError(t, err)
	return token
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	require.NoError(t, err)
	return data
}

func TestJuryAPIAuthRequired(t *testing.T) {
	env := setup(t)
	env.seedSemester(t, 1, 1, 12)

	rec := env.do(t, http.MethodGet, "/v1/semesters/1/students/101/situation", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJuryAPISituation(t *testing.T) {
	env := setup(t)
	env.seedSemester(t, 1, 1, 12)
	token := getToken(t, "president", false)

	rec := env.do(t, http.MethodGet, "/v1/semesters/1/students/101/situation", token)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SituationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 101, resp.StudentID)
	assert.False(t, resp.CouldBeCompensated)
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, parcours.ADM, resp.Choices[0].Code)
	assert.Equal(t, parcours.DevNext, resp.Choices[0].Devenir)
}

func TestJuryAPISituationUnknownSemester(t *testing.T) {
	env := setup(t)
	token := getToken(t, "president", false)

	rec := env.do(t, http.MethodGet, "/v1/semesters/42/students/101/situation", token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJuryAPIDecisionLifecycle(t *testing.T) {
	env := setup(t)
	env.seedSemester(t, 1, 1, 12)
	staff := getToken(t, "president", false)
	admin := getToken(t, "chief", true)

	// record
	body := marshalObj(t, jury.Decision{Code: parcours.ADM, Devenir: parcours.DevNext, Assidu: true})
	rec := env.do(t, http.MethodPost, "/v1/semesters/1/students/101/decision", staff, body)
	require.Equal(t, http.StatusCreated, rec.Code)
	var affected AffectedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &affected))
	assert.Equal(t, []int{1}, affected.AffectedSemesters)

	// read back
	rec = env.do(t, http.MethodGet, "/v1/semesters/1/students/101/decision", staff)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp DecisionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, parcours.ADM, resp.Decision.Code)
	assert.True(t, resp.Decision.Assidu)
	assert.Len(t, resp.UEs, 1)
	require.Len(t, resp.Authorizations, 1)
	assert.Equal(t, 2, resp.Authorizations[0].Rank)

	// undo needs admin rights
	rec = env.do(t, http.MethodDelete, "/v1/semesters/1/students/101/decision", staff)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodDelete, "/v1/semesters/1/students/101/decision", admin)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/v1/semesters/1/students/101/decision", staff)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJuryAPIRejectsForbiddenDecision(t *testing.T) {
	env := setup(t)
	env.seedSemester(t, 1, 1, 5) // failing state
	token := getToken(t, "president", false)

	body := marshalObj(t, jury.Decision{Code: "BOGUS", Devenir: parcours.DevNext, Assidu: true})
	rec := env.do(t, http.MethodPost, "/v1/semesters/1/students/101/decision", token, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/v1/semesters/1/students/101/decision", token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJuryAPITable(t *testing.T) {
	env := setup(t)
	env.seedSemester(t, 1, 1, 13.5)
	token := getToken(t, "president", false)

	rec := env.do(t, http.MethodGet, "/v1/semesters/1/table", token)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TableResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.NbStudents)
	require.Len(t, resp.Rows, 1)
	row := resp.Rows[0]
	assert.Equal(t, etudid, row.StudentID)
	assert.Equal(t, 1, row.Rank)
	assert.InDelta(t, 13.5, row.Moy.Float64, 1e-9)
	assert.False(t, row.Pending)
}

func TestStudentAPI(t *testing.T) {
	env := setup(t)
	staff := getToken(t, "president", false)
	admin := getToken(t, "chief", true)

	// create needs admin rights
	body := marshalObj(t, student.NewStudent{CodeNIP: "2026A1", Nom: "Curie", Prenom: "Marie"})
	rec := env.do(t, http.MethodPost, "/v1/students", staff, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/v1/students", admin, body)
	require.Equal(t, http.StatusCreated, rec.Code)
	var etud student.Student
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &etud))
	assert.NotZero(t, etud.ID)

	// duplicate institutional number is rejected
	rec = env.do(t, http.MethodPost, "/v1/students", admin, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// query & search
	rec = env.do(t, http.MethodGet, "/v1/students", staff)
	require.Equal(t, http.StatusOK, rec.Code)
	var students []student.Student
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &students))
	assert.Len(t, students, 1)

	rec = env.do(t, http.MethodGet, "/v1/students?search=curie", staff)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &students))
	assert.Len(t, students, 1)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/v1/students/%d", etud.ID), staff)
	assert.Equal(t, http.StatusOK, rec.Code)

	// missing field fails validation
	rec = env.do(t, http.MethodPost, "/v1/students", admin, marshalObj(t, student.NewStudent{Nom: "Sans"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// delete
	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/v1/students/%d", etud.ID), admin)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodGet, fmt.Sprintf("/v1/students/%d", etud.ID), staff)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
