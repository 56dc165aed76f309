package student

import (
	"strings"
	"time"

	"github.com/edusco/scolar/core"
)

type Student struct {
	ID      int    `json:"id" db:"id"`
	CodeNIP string `json:"code_nip" db:"code_nip"` // institutional student number
	Nom     string `json:"nom" db:"nom"`
	Prenom  string `json:"prenom" db:"prenom"`
	Email   string `json:"email" db:"email"`

	// admission info
	AdmissionYear int    `json:"admission_year" db:"admission_year"`
	Bac           string `json:"bac" db:"bac"`

	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC
}

func (s Student) FullName() string {
	return strings.TrimSpace(s.Prenom + " " + strings.ToUpper(s.Nom))
}

// NewStudent contains information needed to register a Student.
type NewStudent struct {
	CodeNIP       string `json:"code_nip"`
	Nom           string `json:"nom" validate:"required"`
	Prenom        string `json:"prenom" validate:"required"`
	Email         string `json:"email" validate:"omitempty,email"`
	AdmissionYear int    `json:"admission_year"`
	Bac           string `json:"bac"`
}

func (ns *NewStudent) Validate() error {
	ns.CodeNIP = core.CleanString(ns.CodeNIP)
	ns.Nom = core.CleanString(ns.Nom)
	ns.Prenom = core.CleanString(ns.Prenom)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	return core.Validate.Struct(ns)
}
