package dummydb

import (
	"sort"

	"github.com/edusco/scolar/core/notes"
	"github.com/edusco/scolar/core/parcours"
)

type notesRepository struct {
	db *DB
}

var _ notes.Repository = (*notesRepository)(nil) // interface compliance check

func NewNotesRepository(db *DB) notes.Repository {
	return &notesRepository{db: db}
}

func (repo *notesRepository) GetSemesterByID(id int) (notes.Semester, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	sem, ok := repo.db.semesters[id]
	if !ok {
		return notes.Semester{}, notes.ErrSemesterNotFound
	}
	return *sem, nil
}

func (repo *notesRepository) QuerySemesterUEs(semID int) ([]notes.UE, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return append([]notes.UE(nil), repo.db.ues[semID]...), nil
}

func (repo *notesRepository) QuerySemesterModImpls(semID int) ([]notes.ModuleImpl, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return append([]notes.ModuleImpl(nil), repo.db.modimpls[semID]...), nil
}

func (repo *notesRepository) QuerySemesterEvaluations(semID int) ([]notes.Evaluation, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return append([]notes.Evaluation(nil), repo.db.evaluations[semID]...), nil
}

func (repo *notesRepository) QuerySemesterGrades(semID int) ([]notes.Grade, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return append([]notes.Grade(nil), repo.db.grades[semID]...), nil
}

func (repo *notesRepository) QuerySemesterEnrollments(semID int) ([]notes.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return append([]notes.Enrollment(nil), repo.db.enrollments[semID]...), nil
}

func (repo *notesRepository) QueryStudentSemesters(studentID int, formationCode string) ([]notes.Semester, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var sems []notes.Semester
	for _, sem := range repo.db.semesters {
		if sem.FormationCode != formationCode {
			continue
		}
		for _, enr := range repo.db.enrollments[sem.ID] {
			if enr.StudentID == studentID {
				sems = append(sems, *sem)
				break
			}
		}
	}
	// most recent first
	sort.Slice(sems, func(i, j int) bool { return sems[i].DateDebut.After(sems[j].DateDebut) })
	return sems, nil
}

func (repo *notesRepository) QueryCapitalizingSemesters(semID int) ([]int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	origin, ok := repo.db.semesters[semID]
	if !ok {
		return nil, nil
	}

	depSet := make(map[int]bool)
	for _, v := range repo.db.validations {
		if v.SemesterID != semID || !v.UEID.Valid || !parcours.IsUEValidating(v.Code) {
			continue
		}
		for _, sem := range repo.db.semesters {
			if sem.ID == semID || sem.FormationCode != origin.FormationCode {
				continue
			}
			for _, enr := range repo.db.enrollments[sem.ID] {
				if enr.StudentID == v.StudentID {
					depSet[sem.ID] = true
					break
				}
			}
		}
	}

	deps := make([]int, 0, len(depSet))
	for id := range depSet {
		deps = append(deps, id)
	}
	sort.Ints(deps)
	return deps, nil
}
