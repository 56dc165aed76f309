// Package sqlxrepos implements the storage contracts on Postgres with sqlx.
package sqlxrepos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/edusco/scolar/core/notes"
)

type notesRepository struct {
	db *sqlx.DB
}

var _ notes.Repository = (*notesRepository)(nil) // interface compliance check

func NewNotesRepository(db *sql.DB) notes.Repository {
	return &notesRepository{db: sqlx.NewDb(db, "postgres")}
}

const semesterColumns = `
	s.id, s.formation_id, f.code AS formation_code, f.curriculum_tag,
	s.rank, s.title, s.date_debut, s.date_fin,
	s.gestion_compensation, s.gestion_semestrielle, s.locked`

func (repo *notesRepository) GetSemesterByID(id int) (notes.Semester, error) {
	var sem notes.Semester
	err := repo.db.Get(&sem, `
		SELECT`+semesterColumns+`
		FROM semesters s
		JOIN formations f ON f.id = s.formation_id
		WHERE s.id = $1`, id)
	if err == sql.ErrNoRows {
		return notes.Semester{}, notes.ErrSemesterNotFound
	}
	if err != nil {
		return notes.Semester{}, errors.Wrap(err, "getting semester")
	}
	return sem, nil
}

func (repo *notesRepository) QuerySemesterUEs(semID int) ([]notes.UE, error) {
	var ues []notes.UE
	err := repo.db.Select(&ues, `
		SELECT DISTINCT u.id, u.formation_id, u.acronyme, u.titre, u.type, u.ects, u.code
		FROM ues u
		JOIN modules m ON m.ue_id = u.id
		JOIN module_impls mi ON mi.module_id = m.id
		WHERE mi.semester_id = $1
		ORDER BY u.acronyme`, semID)
	return ues, errors.Wrap(err, "querying semester UEs")
}

func (repo *notesRepository) QuerySemesterModImpls(semID int) ([]notes.ModuleImpl, error) {
	var mis []notes.ModuleImpl
	err := repo.db.Select(&mis, `
		SELECT mi.id, mi.module_id, mi.semester_id,
		       m.id AS "module.id", m.ue_id AS "module.ue_id", m.code AS "module.code",
		       m.titre AS "module.titre", m.coefficient AS "module.coefficient"
		FROM module_impls mi
		JOIN modules m ON m.id = mi.module_id
		WHERE mi.semester_id = $1
		ORDER BY m.code`, semID)
	return mis, errors.Wrap(err, "querying module implementations")
}

func (repo *notesRepository) QuerySemesterEvaluations(semID int) ([]notes.Evaluation, error) {
	var evals []notes.Evaluation
	err := repo.db.Select(&evals, `
		SELECT e.id, e.module_impl_id, e.description, e.coefficient, e.note_max, e.date
		FROM evaluations e
		JOIN module_impls mi ON mi.id = e.module_impl_id
		WHERE mi.semester_id = $1
		ORDER BY e.date, e.id`, semID)
	return evals, errors.Wrap(err, "querying evaluations")
}

func (repo *notesRepository) QuerySemesterGrades(semID int) ([]notes.Grade, error) {
	var grades []notes.Grade
	err := repo.db.Select(&grades, `
		SELECT g.evaluation_id, g.student_id, g.value
		FROM grades g
		JOIN evaluations e ON e.id = g.evaluation_id
		JOIN module_impls mi ON mi.id = e.module_impl_id
		WHERE mi.semester_id = $1`, semID)
	return grades, errors.Wrap(err, "querying grades")
}

func (repo *notesRepository) QuerySemesterEnrollments(semID int) ([]notes.Enrollment, error) {
	var enrollments []notes.Enrollment
	err := repo.db.Select(&enrollments, `
		SELECT id, semester_id, student_id, demission
		FROM enrollments
		WHERE semester_id = $1
		ORDER BY student_id`, semID)
	return enrollments, errors.Wrap(err, "querying enrollments")
}

func (repo *notesRepository) QueryStudentSemesters(studentID int, formationCode string) ([]notes.Semester, error) {
	var sems []notes.Semester
	err := repo.db.Select(&sems, `
		SELECT`+semesterColumns+`
		FROM semesters s
		JOIN formations f ON f.id = s.formation_id
		JOIN enrollments e ON e.semester_id = s.id
		WHERE e.student_id = $1 AND f.code = $2
		ORDER BY s.date_debut DESC`, studentID, formationCode)
	return sems, errors.Wrap(err, "querying student semesters")
}

func (repo *notesRepository) QueryCapitalizingSemesters(semID int) ([]int, error) {
	// semesters of the same formation code where a student enrolled there
	// holds a validating UE decision recorded in semID
	var ids []int
	err := repo.db.Select(&ids, `
		SELECT DISTINCT s2.id
		FROM semester_validations v
		JOIN semesters s1 ON s1.id = v.semester_id
		JOIN formations f1 ON f1.id = s1.formation_id
		JOIN formations f2 ON f2.code = f1.code
		JOIN semesters s2 ON s2.formation_id = f2.id AND s2.id <> v.semester_id
		JOIN enrollments e ON e.semester_id = s2.id AND e.student_id = v.student_id
		WHERE v.semester_id = $1
		  AND v.ue_id IS NOT NULL
		  AND v.code IN ('ADM', 'CMP')
		ORDER BY s2.id`, semID)
	return ids, errors.Wrap(err, "querying capitalizing semesters")
}
