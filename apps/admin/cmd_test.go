package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/edusco/scolar/core"
	"github.com/edusco/scolar/core/student"
	dummydb "github.com/edusco/scolar/storage/database/dummy"
)

func newTestCLI(t *testing.T) (*commandLine, *bytes.Buffer) {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatal(err)
	}
	out := new(bytes.Buffer)
	cli := &commandLine{
		conf: &core.Config{
			AppName:            "Scolar",
			SecretKey:          "secret",
			JwtExpirationDelta: time.Hour,
		},
		stdSvc: student.NewService(dummydb.NewStudentRepository(db)),
		out:    out,
	}
	return cli, out
}

func TestCLIAddStudent(t *testing.T) {
	cli, out := newTestCLI(t)

	err := cli.run([]string{"admin", "addstudent", "-nip", "2026A1", "-nom", "Curie", "-prenom", "Marie"})
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if !strings.Contains(out.String(), "Marie CURIE") {
		t.Errorf("output = %q, want the student's full name", out.String())
	}

	etud, err := cli.stdSvc.GetByCode("2026A1")
	if err != nil {
		t.Fatalf("GetByCode() error = %v", err)
	}
	if etud.Nom != "Curie" {
		t.Errorf("Nom = %q, want Curie", etud.Nom)
	}

	// same institutional number again is rejected
	err = cli.run([]string{"admin", "addstudent", "-nip", "2026A1", "-nom", "Doe", "-prenom", "Jane"})
	if !core.IsValidationError(err) {
		t.Errorf("run() error = %v, want validation error", err)
	}
}

func TestCLIGenToken(t *testing.T) {
	cli, out := newTestCLI(t)

	if err := cli.run([]string{"admin", "gentoken", "-name", "chief", "-admin"}); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	token := strings.TrimSpace(out.String())
	if strings.Count(token, ".") != 2 {
		t.Errorf("token = %q, want a JWT", token)
	}
}

func TestCLIUsage(t *testing.T) {
	cli, _ := newTestCLI(t)

	if err := cli.run([]string{"admin"}); err != errHelp {
		t.Errorf("run() error = %v, want errHelp", err)
	}
	if err := cli.run([]string{"admin", "bogus"}); err != errHelp {
		t.Errorf("run() error = %v, want errHelp", err)
	}
}
