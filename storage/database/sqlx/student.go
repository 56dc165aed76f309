package sqlxrepos

import (
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/edusco/scolar/core"
	"github.com/edusco/scolar/core/student"
)

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sql.DB) student.Repository {
	return &studentRepository{db: sqlx.NewDb(db, "postgres")}
}

const studentColumns = `id, code_nip, nom, prenom, email, admission_year, bac, created_at, updated_at`

func (repo *studentRepository) CheckCodeUniqueness(codeNIP string, excluded ...student.Student) error {
	query := `SELECT COUNT(*) FROM students WHERE code_nip = $1`
	args := []interface{}{codeNIP}
	if len(excluded) > 0 {
		ids := make([]int, 0, len(excluded))
		for _, s := range excluded {
			ids = append(ids, s.ID)
		}
		inQuery, inArgs, err := sqlx.In(`SELECT COUNT(*) FROM students WHERE code_nip = ? AND id NOT IN (?)`, codeNIP, ids)
		if err != nil {
			return errors.Wrap(err, "checking code uniqueness")
		}
		query = repo.db.Rebind(inQuery)
		args = inArgs
	}

	var count int
	if err := repo.db.Get(&count, query, args...); err != nil {
		return errors.Wrap(err, "checking code uniqueness")
	}
	if count > 0 {
		return student.ErrCodeExists
	}
	return nil
}

func (repo *studentRepository) CreateStudent(s student.Student) (student.Student, error) {
	err := repo.db.QueryRow(`
		INSERT INTO students (code_nip, nom, prenom, email, admission_year, bac, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		s.CodeNIP, s.Nom, s.Prenom, s.Email, s.AdmissionYear, s.Bac, s.CreatedAt, s.UpdatedAt,
	).Scan(&s.ID)
	return s, errors.Wrap(err, "creating student")
}

func (repo *studentRepository) GetStudentByID(id int) (student.Student, error) {
	var s student.Student
	err := repo.db.Get(&s, `SELECT `+studentColumns+` FROM students WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return student.Student{}, student.ErrNotFound
	}
	return s, errors.Wrap(err, "getting student")
}

func (repo *studentRepository) GetStudentByCode(codeNIP string) (student.Student, error) {
	var s student.Student
	err := repo.db.Get(&s, `SELECT `+studentColumns+` FROM students WHERE code_nip = $1`, codeNIP)
	if err == sql.ErrNoRows {
		return student.Student{}, student.ErrNotFound
	}
	return s, errors.Wrap(err, "getting student by code")
}

func (repo *studentRepository) QueryAllStudents(orderings ...core.DBOrdering) ([]student.Student, error) {
	var students []student.Student
	err := repo.db.Select(&students, `SELECT `+studentColumns+` FROM students ORDER BY `+studentOrderBy(orderings))
	return students, errors.Wrap(err, "querying students")
}

// studentOrderBy builds a safe ORDER BY clause; unknown fields are dropped.
func studentOrderBy(orderings []core.DBOrdering) string {
	allowed := map[string]bool{"nom": true, "prenom": true, "code_nip": true, "admission_year": true}
	clauses := make([]string, 0, len(orderings)+1)
	for _, ord := range orderings {
		if !allowed[ord.Field] {
			continue
		}
		clause := ord.Field
		if !ord.Ascending {
			clause += " DESC"
		}
		clauses = append(clauses, clause)
	}
	clauses = append(clauses, "id")
	return strings.Join(clauses, ", ")
}

func (repo *studentRepository) SearchStudents(search string) ([]student.Student, error) {
	var students []student.Student
	err := repo.db.Select(&students, `
		SELECT `+studentColumns+`
		FROM students
		WHERE nom ILIKE '%' || $1 || '%'
		   OR prenom ILIKE '%' || $1 || '%'
		   OR code_nip ILIKE '%' || $1 || '%'
		ORDER BY id`, search)
	return students, errors.Wrap(err, "searching students")
}

func (repo *studentRepository) UpdateStudent(s student.Student) (student.Student, error) {
	res, err := repo.db.Exec(`
		UPDATE students
		SET code_nip = $1, nom = $2, prenom = $3, email = $4, admission_year = $5, bac = $6, updated_at = $7
		WHERE id = $8`,
		s.CodeNIP, s.Nom, s.Prenom, s.Email, s.AdmissionYear, s.Bac, s.UpdatedAt, s.ID)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return s, nil
}

func (repo *studentRepository) DeleteStudentsByID(ids ...int) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM students WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "deleting students")
	}
	_, err = repo.db.Exec(repo.db.Rebind(query), args...)
	return errors.Wrap(err, "deleting students")
}
