package notes

import "errors"

var (
	// errors
	ErrSemesterNotFound = errors.New("semester not found")
)

// Repository loads the raw grade data an aggregated table is built from.
// Implementations live in storage/database.
type Repository interface {
	GetSemesterByID(id int) (Semester, error)
	QuerySemesterUEs(semID int) ([]UE, error)
	QuerySemesterModImpls(semID int) ([]ModuleImpl, error)
	QuerySemesterEvaluations(semID int) ([]Evaluation, error)
	QuerySemesterGrades(semID int) ([]Grade, error)
	QuerySemesterEnrollments(semID int) ([]Enrollment, error)
	// QueryStudentSemesters returns every semester of the given formation
	// code the student enrolled in, most recent first.
	QueryStudentSemesters(studentID int, formationCode string) ([]Semester, error)
	// QueryCapitalizingSemesters returns the ids of semesters where some
	// enrolled student capitalizes a UE acquired in semID. Their cached
	// views depend on semID's data.
	QueryCapitalizingSemesters(semID int) ([]int, error)
}
