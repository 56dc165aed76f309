package dummydb

import (
	"sort"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/edusco/scolar/core"
	"github.com/edusco/scolar/core/jury"
)

type juryRepository struct {
	db *DB
}

var _ jury.Repository = (*juryRepository)(nil) // interface compliance check

func NewJuryRepository(db *DB) jury.Repository {
	return &juryRepository{db: db}
}

// semRow finds the semester-level row for (student, semester), or nil.
func (repo *juryRepository) semRow(studentID, semesterID int) *jury.Validation {
	for _, v := range repo.db.validations {
		if v.StudentID == studentID && v.SemesterID == semesterID && !v.UEID.Valid {
			return v
		}
	}
	return nil
}

func (repo *juryRepository) GetDecision(_ core.DBExecutor, studentID, semesterID int) (jury.Validation, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if v := repo.semRow(studentID, semesterID); v != nil {
		return *v, nil
	}
	return jury.Validation{}, jury.ErrDecisionNotFound
}

func (repo *juryRepository) UpsertDecisionSem(_ core.DBExecutor, v jury.Validation) ([]int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var touched []int

	// delete-then-insert; a dropped compensation pairing clears the
	// partner's back-reference
	if old := repo.semRow(v.StudentID, v.SemesterID); old != nil {
		if old.CompenseSemesterID.Valid {
			if partner := repo.semRow(v.StudentID, old.CompenseSemesterID.Int); partner != nil &&
				partner.CompenseSemesterID.Valid && partner.CompenseSemesterID.Int == v.SemesterID {
				partner.CompenseSemesterID = null.Int{}
				touched = append(touched, partner.SemesterID)
			}
		}
		delete(repo.db.validations, old.ID)
	}

	v.ID = repo.db.nextPK()
	repo.db.validations[v.ID] = &v

	if v.CompenseSemesterID.Valid {
		if partner := repo.semRow(v.StudentID, v.CompenseSemesterID.Int); partner != nil {
			partner.CompenseSemesterID = null.IntFrom(v.SemesterID)
			touched = append(touched, partner.SemesterID)
		}
	}
	return touched, nil
}

func (repo *juryRepository) UpsertDecisionUE(_ core.DBExecutor, v jury.Validation) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, old := range repo.db.validations {
		if old.StudentID == v.StudentID && old.UEID.Valid && v.UEID.Valid && old.UEID.Int == v.UEID.Int {
			delete(repo.db.validations, old.ID)
			break
		}
	}
	v.ID = repo.db.nextPK()
	repo.db.validations[v.ID] = &v
	return nil
}

func (repo *juryRepository) DeleteDecision(_ core.DBExecutor, studentID, semesterID int) ([]int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var touched []int
	if old := repo.semRow(studentID, semesterID); old != nil {
		if old.CompenseSemesterID.Valid {
			if partner := repo.semRow(studentID, old.CompenseSemesterID.Int); partner != nil &&
				partner.CompenseSemesterID.Valid && partner.CompenseSemesterID.Int == semesterID {
				partner.CompenseSemesterID = null.Int{}
				touched = append(touched, partner.SemesterID)
			}
		}
		delete(repo.db.validations, old.ID)
	}
	for _, v := range repo.db.validations {
		if v.StudentID == studentID && v.SemesterID == semesterID && v.UEID.Valid {
			delete(repo.db.validations, v.ID)
		}
	}
	return touched, nil
}

func (repo *juryRepository) DeleteUEDecision(_ core.DBExecutor, studentID, ueID int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, v := range repo.db.validations {
		if v.StudentID == studentID && v.UEID.Valid && v.UEID.Int == ueID {
			delete(repo.db.validations, v.ID)
		}
	}
	return nil
}

func (repo *juryRepository) ListUEDecisions(_ core.DBExecutor, studentID, semesterID int) ([]jury.Validation, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var rows []jury.Validation
	for _, v := range repo.db.validations {
		if v.StudentID == studentID && v.SemesterID == semesterID && v.UEID.Valid {
			rows = append(rows, *v)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].UEID.Int < rows[j].UEID.Int })
	return rows, nil
}

func (repo *juryRepository) ListAuthorizations(_ core.DBExecutor, studentID, originSemesterID int) ([]jury.Authorization, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var auths []jury.Authorization
	for _, a := range repo.db.authorizations {
		if a.StudentID == studentID && a.OriginSemesterID == originSemesterID {
			auths = append(auths, a)
		}
	}
	sort.Slice(auths, func(i, j int) bool { return auths[i].Rank < auths[j].Rank })
	return auths, nil
}

func (repo *juryRepository) ReplaceAuthorizations(_ core.DBExecutor, studentID, originSemesterID int, auths []jury.Authorization) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	kept := repo.db.authorizations[:0]
	for _, a := range repo.db.authorizations {
		if a.StudentID != studentID || a.OriginSemesterID != originSemesterID {
			kept = append(kept, a)
		}
	}
	for _, a := range auths {
		a.ID = repo.db.nextPK()
		a.StudentID = studentID
		a.OriginSemesterID = originSemesterID
		kept = append(kept, a)
	}
	repo.db.authorizations = kept
	return nil
}

func (repo *juryRepository) LogDecision(_ core.DBExecutor, v jury.Validation, action string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.logs = append(repo.db.logs, logEntry{Validation: v, Action: action, At: time.Now().UTC()})
	return nil
}
