// Package dummydb is an in-memory implementation of the storage contracts,
// for tests and local smoke runs. Writes are not transactional: the Begin
// transactor is a no-op.
package dummydb

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/edusco/scolar/core"
	"github.com/edusco/scolar/core/jury"
	"github.com/edusco/scolar/core/notes"
	"github.com/edusco/scolar/core/student"
)

var errNoSQL = errors.New("dummy database does not execute SQL")

// noSQL satisfies core.DBExecutor for stores that never run queries.
type noSQL struct{}

func (noSQL) Exec(string, ...interface{}) (sql.Result, error) { return nil, errNoSQL }
func (noSQL) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, errNoSQL
}
func (noSQL) Query(string, ...interface{}) (*sql.Rows, error) { return nil, errNoSQL }
func (noSQL) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, errNoSQL
}
func (noSQL) QueryRow(string, ...interface{}) *sql.Row                          { return nil }
func (noSQL) QueryRowContext(context.Context, string, ...interface{}) *sql.Row { return nil }

type noopTx struct{ noSQL }

func (noopTx) Commit() error   { return nil }
func (noopTx) Rollback() error { return nil }

type logEntry struct {
	Validation jury.Validation
	Action     string
	At         time.Time
}

// DB holds every table of the dummy store.
type DB struct {
	noSQL
	sync.RWMutex

	pk int

	semesters   map[int]*notes.Semester
	ues         map[int][]notes.UE         // by semester
	modimpls    map[int][]notes.ModuleImpl // by semester
	evaluations map[int][]notes.Evaluation // by semester
	grades      map[int][]notes.Grade      // by semester
	enrollments map[int][]notes.Enrollment // by semester

	validations    map[int]*jury.Validation
	authorizations []jury.Authorization
	logs           []logEntry

	students map[int]*student.Student
}

var _ core.DB = (*DB)(nil)

func Open() (*DB, error) {
	return &DB{
		semesters:   make(map[int]*notes.Semester),
		ues:         make(map[int][]notes.UE),
		modimpls:    make(map[int][]notes.ModuleImpl),
		evaluations: make(map[int][]notes.Evaluation),
		grades:      make(map[int][]notes.Grade),
		enrollments: make(map[int][]notes.Enrollment),
		validations: make(map[int]*jury.Validation),
		students:    make(map[int]*student.Student),
	}, nil
}

func (db *DB) Begin() (core.DBTransactor, error) { return noopTx{}, nil }

func (db *DB) nextPK() int {
	db.pk++
	return db.pk
}

// seeding helpers, callers pick the ids

func (db *DB) AddSemester(sem notes.Semester) {
	db.Lock()
	defer db.Unlock()
	db.semesters[sem.ID] = &sem
}

func (db *DB) AddUE(semID int, ue notes.UE) {
	db.Lock()
	defer db.Unlock()
	db.ues[semID] = append(db.ues[semID], ue)
}

func (db *DB) AddModImpl(mi notes.ModuleImpl) {
	db.Lock()
	defer db.Unlock()
	db.modimpls[mi.SemesterID] = append(db.modimpls[mi.SemesterID], mi)
}

func (db *DB) AddEvaluation(semID int, ev notes.Evaluation) {
	db.Lock()
	defer db.Unlock()
	db.evaluations[semID] = append(db.evaluations[semID], ev)
}

// SetGrade records or overwrites one (evaluation, student) score.
func (db *DB) SetGrade(semID int, g notes.Grade) {
	db.Lock()
	defer db.Unlock()
	grades := db.grades[semID]
	for i := range grades {
		if grades[i].EvaluationID == g.EvaluationID && grades[i].StudentID == g.StudentID {
			grades[i] = g
			return
		}
	}
	db.grades[semID] = append(grades, g)
}

func (db *DB) Enroll(semID, studentID int) {
	db.Lock()
	defer db.Unlock()
	db.enrollments[semID] = append(db.enrollments[semID], notes.Enrollment{
		ID:         db.nextPK(),
		SemesterID: semID,
		StudentID:  studentID,
	})
}
