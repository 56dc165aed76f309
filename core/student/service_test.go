package student_test

import (
	"testing"

	"github.com/edusco/scolar/core"
	"github.com/edusco/scolar/core/student"
	dummydb "github.com/edusco/scolar/storage/database/dummy"
)

func setup(t *testing.T) *student.Service {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatal(err)
	}
	return student.NewService(dummydb.NewStudentRepository(db))
}

func TestServiceCreate(t *testing.T) {
	svc := setup(t)

	etud, err := svc.Create(student.NewStudent{CodeNIP: "2026A1", Nom: "Curie", Prenom: "Marie", Email: "mc@example.org"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if etud.ID == 0 {
		t.Error("Create() did not assign an id")
	}
	if etud.CreatedAt.IsZero() || etud.UpdatedAt.IsZero() {
		t.Error("Create() did not set timestamps")
	}
	if got := etud.FullName(); got != "Marie CURIE" {
		t.Errorf("FullName() = %q, want %q", got, "Marie CURIE")
	}

	// duplicate institutional number
	_, err = svc.Create(student.NewStudent{CodeNIP: "2026A1", Nom: "Doe", Prenom: "Jane"})
	if !core.IsValidationError(err) {
		t.Errorf("Create() error = %v, want validation error", err)
	}

	// empty numbers never collide
	if _, err = svc.Create(student.NewStudent{Nom: "Doe", Prenom: "Jane"}); err != nil {
		t.Errorf("Create() error = %v, want nil for empty code", err)
	}
}

func TestServiceGetByCode(t *testing.T) {
	svc := setup(t)
	if _, err := svc.Create(student.NewStudent{CodeNIP: "2026A1", Nom: "Curie", Prenom: "Marie"}); err != nil {
		t.Fatal(err)
	}

	etud, err := svc.GetByCode("  2026A1  ") // input is cleaned
	if err != nil {
		t.Fatalf("GetByCode() error = %v", err)
	}
	if etud.Nom != "Curie" {
		t.Errorf("Nom = %q, want Curie", etud.Nom)
	}

	if _, err = svc.GetByCode("nope"); err != student.ErrNotFound {
		t.Errorf("GetByCode() error = %v, want ErrNotFound", err)
	}
}

func TestServiceQueryAllOrdering(t *testing.T) {
	svc := setup(t)
	for _, ns := range []student.NewStudent{
		{Nom: "Zola", Prenom: "Emile", AdmissionYear: 2024},
		{Nom: "Arendt", Prenom: "Hannah", AdmissionYear: 2026},
		{Nom: "Curie", Prenom: "Marie", AdmissionYear: 2025},
	} {
		if _, err := svc.Create(ns); err != nil {
			t.Fatal(err)
		}
	}

	students, err := svc.QueryAll(core.DBOrdering{Field: "nom", Ascending: true})
	if err != nil {
		t.Fatalf("QueryAll() error = %v", err)
	}
	want := []string{"Arendt", "Curie", "Zola"}
	for i, nom := range want {
		if students[i].Nom != nom {
			t.Fatalf("QueryAll(nom) order = %v, want %v", noms(students), want)
		}
	}

	students, err = svc.QueryAll(core.DBOrdering{Field: "admission_year", Ascending: false})
	if err != nil {
		t.Fatalf("QueryAll() error = %v", err)
	}
	if students[0].AdmissionYear != 2026 || students[2].AdmissionYear != 2024 {
		t.Errorf("QueryAll(-admission_year) order = %v", noms(students))
	}
}

func TestServiceSearch(t *testing.T) {
	svc := setup(t)
	for _, ns := range []student.NewStudent{
		{CodeNIP: "2026A1", Nom: "Curie", Prenom: "Marie"},
		{CodeNIP: "2026A2", Nom: "Pasteur", Prenom: "Louis"},
	} {
		if _, err := svc.Create(ns); err != nil {
			t.Fatal(err)
		}
	}

	students, err := svc.Search("cur")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(students) != 1 || students[0].Nom != "Curie" {
		t.Errorf("Search(cur) = %v, want [Curie]", noms(students))
	}

	students, err = svc.Search("2026A")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(students) != 2 {
		t.Errorf("Search(2026A) = %d students, want 2", len(students))
	}
}

func TestServiceUpdate(t *testing.T) {
	svc := setup(t)
	etud, err := svc.Create(student.NewStudent{CodeNIP: "2026A1", Nom: "Curie", Prenom: "Marie"})
	if err != nil {
		t.Fatal(err)
	}
	other, err := svc.Create(student.NewStudent{CodeNIP: "2026A2", Nom: "Pasteur", Prenom: "Louis"})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := svc.Update(etud.ID, student.NewStudent{CodeNIP: "2026A1", Nom: "Curie-Sklodowska", Prenom: "Marie"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Nom != "Curie-Sklodowska" {
		t.Errorf("Nom = %q after update", updated.Nom)
	}
	if updated.UpdatedAt.Before(etud.UpdatedAt) {
		t.Error("Update() did not bump UpdatedAt")
	}

	// stealing another student's number is rejected
	_, err = svc.Update(other.ID, student.NewStudent{CodeNIP: "2026A1", Nom: "Pasteur", Prenom: "Louis"})
	if !core.IsValidationError(err) {
		t.Errorf("Update() error = %v, want validation error", err)
	}

	if _, err = svc.Update(999, student.NewStudent{Nom: "X", Prenom: "Y"}); err != student.ErrNotFound {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestServiceDelete(t *testing.T) {
	svc := setup(t)
	etud, err := svc.Create(student.NewStudent{Nom: "Curie", Prenom: "Marie"})
	if err != nil {
		t.Fatal(err)
	}

	if err = svc.Delete(etud.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err = svc.GetByID(etud.ID); err != student.ErrNotFound {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func noms(students []student.Student) []string {
	out := make([]string, len(students))
	for i, s := range students {
		out[i] = s.Nom
	}
	return out
}
