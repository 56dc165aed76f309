package student

import (
	"errors"
	"time"

	"github.com/edusco/scolar/core"
)

var (
	// errors
	ErrNotFound   = errors.New("student not found")
	ErrCodeExists = errors.New("a student with this institutional number already exists")
)

type (
	Repository interface {
		CheckCodeUniqueness(codeNIP string, excluded ...Student) error
		CreateStudent(s Student) (Student, error)
		GetStudentByID(id int) (Student, error)
		GetStudentByCode(codeNIP string) (Student, error)
		QueryAllStudents(orderings ...core.DBOrdering) ([]Student, error)
		// SearchStudents does a case-insensitive match on Nom, Prenom or CodeNIP.
		SearchStudents(search string) ([]Student, error)
		UpdateStudent(s Student) (Student, error)
		DeleteStudentsByID(ids ...int) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ns NewStudent) (Student, error) {
	if ns.CodeNIP != "" {
		if err := svc.repo.CheckCodeUniqueness(ns.CodeNIP); err != nil {
			if err == ErrCodeExists {
				return Student{}, core.NewValidationError(err, core.FieldError{Field: "code_nip", Error: err.Error()})
			}
			return Student{}, err
		}
	}
	now := time.Now().UTC()
	s := Student{
		CodeNIP:       ns.CodeNIP,
		Nom:           ns.Nom,
		Prenom:        ns.Prenom,
		Email:         ns.Email,
		AdmissionYear: ns.AdmissionYear,
		Bac:           ns.Bac,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return svc.repo.CreateStudent(s)
}

func (svc *Service) GetByID(id int) (Student, error) {
	return svc.repo.GetStudentByID(id)
}

func (svc *Service) GetByCode(codeNIP string) (Student, error) {
	return svc.repo.GetStudentByCode(core.CleanString(codeNIP))
}

func (svc *Service) QueryAll(orderings ...core.DBOrdering) ([]Student, error) {
	return svc.repo.QueryAllStudents(orderings...)
}

func (svc *Service) Search(search string) ([]Student, error) {
	return svc.repo.SearchStudents(core.CleanString(search))
}

func (svc *Service) Update(id int, ns NewStudent) (Student, error) {
	s, err := svc.repo.GetStudentByID(id)
	if err != nil {
		return Student{}, err
	}
	if ns.CodeNIP != "" && ns.CodeNIP != s.CodeNIP {
		if err := svc.repo.CheckCodeUniqueness(ns.CodeNIP, s); err != nil {
			if err == ErrCodeExists {
				return Student{}, core.NewValidationError(err, core.FieldError{Field: "code_nip", Error: err.Error()})
			}
			return Student{}, err
		}
	}
	s.CodeNIP = ns.CodeNIP
	s.Nom = ns.Nom
	s.Prenom = ns.Prenom
	s.Email = ns.Email
	s.AdmissionYear = ns.AdmissionYear
	s.Bac = ns.Bac
	s.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateStudent(s)
}

func (svc *Service) Delete(ids ...int) error {
	return svc.repo.DeleteStudentsByID(ids...)
}
