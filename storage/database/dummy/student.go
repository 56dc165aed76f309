package dummydb

import (
	"sort"
	"strings"

	"github.com/edusco/scolar/core"
	"github.com/edusco/scolar/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) CheckCodeUniqueness(codeNIP string, excluded ...student.Student) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, s := range repo.db.students {
		if s.CodeNIP != codeNIP {
			continue
		}
		isExcluded := false
		for _, ex := range excluded {
			if ex.ID == s.ID {
				isExcluded = true
				break
			}
		}
		if !isExcluded {
			return student.ErrCodeExists
		}
	}
	return nil
}

func (repo *studentRepository) CreateStudent(s student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if s.ID == 0 {
		s.ID = repo.db.nextPK()
	}
	repo.db.students[s.ID] = &s
	return s, nil
}

func (repo *studentRepository) GetStudentByID(id int) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.students[id]; ok {
		return *s, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) GetStudentByCode(codeNIP string) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, s := range repo.db.students {
		if s.CodeNIP == codeNIP {
			return *s, nil
		}
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) QueryAllStudents(orderings ...core.DBOrdering) ([]student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	students := make([]student.Student, 0, len(repo.db.students))
	for _, s := range repo.db.students {
		students = append(students, *s)
	}
	sortStudents(students, orderings)
	return students, nil
}

// sortStudents applies the first recognized ordering; id ascending otherwise.
func sortStudents(students []student.Student, orderings []core.DBOrdering) {
	for _, ord := range orderings {
		var less func(a, b student.Student) bool
		switch ord.Field {
		case "nom":
			less = func(a, b student.Student) bool { return strings.ToLower(a.Nom) < strings.ToLower(b.Nom) }
		case "prenom":
			less = func(a, b student.Student) bool { return strings.ToLower(a.Prenom) < strings.ToLower(b.Prenom) }
		case "admission_year":
			less = func(a, b student.Student) bool { return a.AdmissionYear < b.AdmissionYear }
		default:
			continue
		}
		if !ord.Ascending {
			inner := less
			less = func(a, b student.Student) bool { return inner(b, a) }
		}
		sort.SliceStable(students, func(i, j int) bool { return less(students[i], students[j]) })
		return
	}
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
}

func (repo *studentRepository) SearchStudents(search string) ([]student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	search = strings.ToLower(search)
	var students []student.Student
	for _, s := range repo.db.students {
		if strings.Contains(strings.ToLower(s.Nom), search) ||
			strings.Contains(strings.ToLower(s.Prenom), search) ||
			strings.Contains(strings.ToLower(s.CodeNIP), search) {
			students = append(students, *s)
		}
	}
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
	return students, nil
}

func (repo *studentRepository) UpdateStudent(s student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.students[s.ID]; !ok {
		return student.Student{}, student.ErrNotFound
	}
	repo.db.students[s.ID] = &s
	return s, nil
}

func (repo *studentRepository) DeleteStudentsByID(ids ...int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.students, id)
	}
	return nil
}
