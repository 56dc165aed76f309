package sqlxrepos

import (
	"database/sql"

	"github.com/pkg/errors"

	"github.com/edusco/scolar/core"
	"github.com/edusco/scolar/core/jury"
)

// juryRepository runs on the executor it is handed, so decision writes share
// the caller's transaction.
type juryRepository struct{}

var _ jury.Repository = (*juryRepository)(nil) // interface compliance check

func NewJuryRepository() jury.Repository {
	return &juryRepository{}
}

const validationColumns = `
	id, student_id, semester_id, ue_id, code, assidu,
	compense_semester_id, moy_ue, is_external, event_date`

func scanValidation(row *sql.Row) (jury.Validation, error) {
	var v jury.Validation
	err := row.Scan(
		&v.ID, &v.StudentID, &v.SemesterID, &v.UEID, &v.Code, &v.Assidu,
		&v.CompenseSemesterID, &v.MoyUE, &v.IsExternal, &v.EventDate,
	)
	return v, err
}

func (repo *juryRepository) GetDecision(ex core.DBExecutor, studentID, semesterID int) (jury.Validation, error) {
	row := ex.QueryRow(`
		SELECT`+validationColumns+`
		FROM semester_validations
		WHERE student_id = $1 AND semester_id = $2 AND ue_id IS NULL`,
		studentID, semesterID)
	v, err := scanValidation(row)
	if err == sql.ErrNoRows {
		return jury.Validation{}, jury.ErrDecisionNotFound
	}
	if err != nil {
		return jury.Validation{}, errors.Wrap(err, "getting decision")
	}
	return v, nil
}

// clearPartnerBackrefs drops the back-reference on rows that point at
// semesterID for this student, returning the semesters touched.
func (repo *juryRepository) clearPartnerBackrefs(ex core.DBExecutor, studentID, semesterID int) ([]int, error) {
	rows, err := ex.Query(`
		UPDATE semester_validations
		SET compense_semester_id = NULL
		WHERE student_id = $1 AND compense_semester_id = $2 AND ue_id IS NULL
		RETURNING semester_id`, studentID, semesterID)
	if err != nil {
		return nil, errors.Wrap(err, "clearing compensation back-references")
	}
	defer func() { _ = rows.Close() }()

	var touched []int
	for rows.Next() {
		var id int
		if err = rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "clearing compensation back-references")
		}
		touched = append(touched, id)
	}
	return touched, errors.Wrap(rows.Err(), "clearing compensation back-references")
}

func (repo *juryRepository) UpsertDecisionSem(ex core.DBExecutor, v jury.Validation) ([]int, error) {
	touched, err := repo.clearPartnerBackrefs(ex, v.StudentID, v.SemesterID)
	if err != nil {
		return nil, err
	}

	// delete-then-insert, never merge
	if _, err = ex.Exec(`
		DELETE FROM semester_validations
		WHERE student_id = $1 AND semester_id = $2 AND ue_id IS NULL`,
		v.StudentID, v.SemesterID); err != nil {
		return nil, errors.Wrap(err, "deleting previous decision")
	}
	if _, err = ex.Exec(`
		INSERT INTO semester_validations
			(student_id, semester_id, ue_id, code, assidu, compense_semester_id, moy_ue, is_external, event_date)
		VALUES ($1, $2, NULL, $3, $4, $5, NULL, FALSE, $6)`,
		v.StudentID, v.SemesterID, v.Code, v.Assidu, v.CompenseSemesterID, v.EventDate); err != nil {
		return nil, errors.Wrap(err, "inserting decision")
	}

	if v.CompenseSemesterID.Valid {
		if _, err = ex.Exec(`
			UPDATE semester_validations
			SET compense_semester_id = $1
			WHERE student_id = $2 AND semester_id = $3 AND ue_id IS NULL`,
			v.SemesterID, v.StudentID, v.CompenseSemesterID.Int); err != nil {
			return nil, errors.Wrap(err, "setting compensation back-reference")
		}
		touched = append(touched, v.CompenseSemesterID.Int)
	}
	return touched, nil
}

func (repo *juryRepository) UpsertDecisionUE(ex core.DBExecutor, v jury.Validation) error {
	if _, err := ex.Exec(`
		DELETE FROM semester_validations
		WHERE student_id = $1 AND ue_id = $2`,
		v.StudentID, v.UEID); err != nil {
		return errors.Wrap(err, "deleting previous UE decision")
	}
	_, err := ex.Exec(`
		INSERT INTO semester_validations
			(student_id, semester_id, ue_id, code, assidu, compense_semester_id, moy_ue, is_external, event_date)
		VALUES ($1, $2, $3, $4, $5, NULL, $6, $7, $8)`,
		v.StudentID, v.SemesterID, v.UEID, v.Code, v.Assidu, v.MoyUE, v.IsExternal, v.EventDate)
	return errors.Wrap(err, "inserting UE decision")
}

func (repo *juryRepository) DeleteDecision(ex core.DBExecutor, studentID, semesterID int) ([]int, error) {
	touched, err := repo.clearPartnerBackrefs(ex, studentID, semesterID)
	if err != nil {
		return nil, err
	}
	if _, err = ex.Exec(`
		DELETE FROM semester_validations
		WHERE student_id = $1 AND semester_id = $2`,
		studentID, semesterID); err != nil {
		return nil, errors.Wrap(err, "deleting decision")
	}
	return touched, nil
}

func (repo *juryRepository) DeleteUEDecision(ex core.DBExecutor, studentID, ueID int) error {
	_, err := ex.Exec(`
		DELETE FROM semester_validations
		WHERE student_id = $1 AND ue_id = $2`, studentID, ueID)
	return errors.Wrap(err, "deleting UE decision")
}

func (repo *juryRepository) ListUEDecisions(ex core.DBExecutor, studentID, semesterID int) ([]jury.Validation, error) {
	rows, err := ex.Query(`
		SELECT`+validationColumns+`
		FROM semester_validations
		WHERE student_id = $1 AND semester_id = $2 AND ue_id IS NOT NULL
		ORDER BY ue_id`, studentID, semesterID)
	if err != nil {
		return nil, errors.Wrap(err, "listing UE decisions")
	}
	defer func() { _ = rows.Close() }()

	var vs []jury.Validation
	for rows.Next() {
		var v jury.Validation
		if err = rows.Scan(
			&v.ID, &v.StudentID, &v.SemesterID, &v.UEID, &v.Code, &v.Assidu,
			&v.CompenseSemesterID, &v.MoyUE, &v.IsExternal, &v.EventDate,
		); err != nil {
			return nil, errors.Wrap(err, "listing UE decisions")
		}
		vs = append(vs, v)
	}
	return vs, errors.Wrap(rows.Err(), "listing UE decisions")
}

func (repo *juryRepository) ListAuthorizations(ex core.DBExecutor, studentID, originSemesterID int) ([]jury.Authorization, error) {
	rows, err := ex.Query(`
		SELECT id, student_id, origin_semester_id, formation_code, rank
		FROM enrollment_authorizations
		WHERE student_id = $1 AND origin_semester_id = $2
		ORDER BY rank`, studentID, originSemesterID)
	if err != nil {
		return nil, errors.Wrap(err, "listing authorizations")
	}
	defer func() { _ = rows.Close() }()

	var auths []jury.Authorization
	for rows.Next() {
		var a jury.Authorization
		if err = rows.Scan(&a.ID, &a.StudentID, &a.OriginSemesterID, &a.FormationCode, &a.Rank); err != nil {
			return nil, errors.Wrap(err, "listing authorizations")
		}
		auths = append(auths, a)
	}
	return auths, errors.Wrap(rows.Err(), "listing authorizations")
}

func (repo *juryRepository) ReplaceAuthorizations(ex core.DBExecutor, studentID, originSemesterID int, auths []jury.Authorization) error {
	if _, err := ex.Exec(`
		DELETE FROM enrollment_authorizations
		WHERE student_id = $1 AND origin_semester_id = $2`,
		studentID, originSemesterID); err != nil {
		return errors.Wrap(err, "deleting authorizations")
	}
	for _, a := range auths {
		if _, err := ex.Exec(`
			INSERT INTO enrollment_authorizations (student_id, origin_semester_id, formation_code, rank)
			VALUES ($1, $2, $3, $4)`,
			studentID, originSemesterID, a.FormationCode, a.Rank); err != nil {
			return errors.Wrap(err, "inserting authorization")
		}
	}
	return nil
}

func (repo *juryRepository) LogDecision(ex core.DBExecutor, v jury.Validation, action string) error {
	_, err := ex.Exec(`
		INSERT INTO validations_log (student_id, semester_id, ue_id, code, action, logged_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		v.StudentID, v.SemesterID, v.UEID, v.Code, action, v.EventDate)
	return errors.Wrap(err, "logging decision")
}
