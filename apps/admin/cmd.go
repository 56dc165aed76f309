package main

import (
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	echoapi "github.com/edusco/scolar/apps/api/echo"
	"github.com/edusco/scolar/core"
	"github.com/edusco/scolar/core/student"
	"github.com/edusco/scolar/storage/database"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf   *core.Config
	db     *sql.DB
	stdSvc *student.Service
	out    io.Writer // defaults to os.Stdout
}

func (cli *commandLine) output() io.Writer {
	if cli.out != nil {
		return cli.out
	}
	return os.Stdout
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  createdb                                           - create the app database and user")
	fmt.Println("  migrate                                            - apply pending migrations")
	fmt.Println("  addstudent -nom NOM -prenom PRENOM [-nip NIP] ...  - register a student")
	fmt.Println("  gentoken -name NAME [-admin]                       - mint a staff API token")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addStudentCmd := flag.NewFlagSet("addstudent", flag.ExitOnError)
	addNIP := addStudentCmd.String("nip", "", "The student's institutional number.")
	addNom := addStudentCmd.String("nom", "", "The student's last name.")
	addPrenom := addStudentCmd.String("prenom", "", "The student's first name.")
	addEmail := addStudentCmd.String("email", "", "The student's email address.")
	addYear := addStudentCmd.Int("year", 0, "The admission year.")
	addBac := addStudentCmd.String("bac", "", "The baccalaureat series.")

	genTokenCmd := flag.NewFlagSet("gentoken", flag.ExitOnError)
	genName := genTokenCmd.String("name", "", "The staff member's name.")
	genAdmin := genTokenCmd.Bool("admin", false, "Grant admin rights (student management, decision undo).")

	switch args[1] {
	case "migrate":
		return cli.migrate()
	case "addstudent":
		if err := addStudentCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addNom == "" || *addPrenom == "" {
			addStudentCmd.Usage()
			return errHelp
		}
		return cli.addStudent(student.NewStudent{
			CodeNIP:       *addNIP,
			Nom:           *addNom,
			Prenom:        *addPrenom,
			Email:         *addEmail,
			AdmissionYear: *addYear,
			Bac:           *addBac,
		})
	case "gentoken":
		if err := genTokenCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *genName == "" {
			genTokenCmd.Usage()
			return errHelp
		}
		return cli.genToken(*genName, *genAdmin)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) migrate() error {
	return database.Migrate(cli.db, cli.conf)
}

func (cli *commandLine) addStudent(ns student.NewStudent) error {
	if err := ns.Validate(); err != nil {
		return err
	}
	etud, err := cli.stdSvc.Create(ns)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cli.output(), "created student %d: %s\n", etud.ID, etud.FullName())
	return err
}

func (cli *commandLine) genToken(name string, admin bool) error {
	echoapi.ConfigureAuth(cli.conf.AppName, []byte(cli.conf.SecretKey), cli.conf.JwtExpirationDelta)
	token, err := echoapi.GenerateToken(echoapi.GetStaffClaims(name, admin))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cli.output(), token)
	return err
}
