package jury

import (
	"fmt"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/edusco/scolar/core"
	"github.com/edusco/scolar/core/notes"
	"github.com/edusco/scolar/core/parcours"
	"github.com/edusco/scolar/core/student"
)

var (
	// errors
	ErrDecisionNotFound = errors.New("decision not found")

	errCodeForbidden      = errors.New("decision code not allowed by this curriculum")
	errPendingGrades      = errors.New("semester has pending grades")
	errPartnerIneligible  = errors.New("requested compensation partner is not eligible")
	errPredecessorPending = errors.New("the previous semester has no decision yet; decide it first")
	errNoPredecessor      = errors.New("no previous semester to revise")
)

// Repository is the storage contract of the decision engine. Every method
// takes the executor it must run on so a multi-row decision write happens in
// one caller-owned transaction.
type Repository interface {
	// GetDecision returns the semester-level decision row, or
	// ErrDecisionNotFound.
	GetDecision(ex core.DBExecutor, studentID, semesterID int) (Validation, error)
	// UpsertDecisionSem overwrites the semester-level row (delete-then-insert)
	// and maintains compensation back-references on partner rows. It returns
	// the ids of other semesters whose rows were touched.
	UpsertDecisionSem(ex core.DBExecutor, v Validation) ([]int, error)
	// UpsertDecisionUE overwrites the UE-level row for (student, UE).
	UpsertDecisionUE(ex core.DBExecutor, v Validation) error
	// DeleteDecision removes the semester-level row and its UE rows,
	// clearing any partner back-reference. It returns the ids of other
	// semesters whose rows were touched.
	DeleteDecision(ex core.DBExecutor, studentID, semesterID int) ([]int, error)
	// DeleteUEDecision removes one UE-level row.
	DeleteUEDecision(ex core.DBExecutor, studentID, ueID int) error
	ListUEDecisions(ex core.DBExecutor, studentID, semesterID int) ([]Validation, error)
	ListAuthorizations(ex core.DBExecutor, studentID, originSemesterID int) ([]Authorization, error)
	ReplaceAuthorizations(ex core.DBExecutor, studentID, originSemesterID int, auths []Authorization) error
	// LogDecision appends to the decision history log.
	LogDecision(ex core.DBExecutor, v Validation, action string) error
}

// Service builds Situations and records decisions.
type Service struct {
	db        core.DB
	repo      Repository
	notesRepo notes.Repository
	cache     *notes.TableCache
	logger    core.Logger

	// optional: when set, students get a notice mail on recorded decisions
	mailSvc  core.EmailService
	students student.Repository
}

func NewService(db core.DB, repo Repository, notesRepo notes.Repository, cache *notes.TableCache, logger core.Logger) *Service {
	return &Service{
		db:        db,
		repo:      repo,
		notesRepo: notesRepo,
		cache:     cache,
		logger:    logger,
	}
}

// EnableMailNotices turns on decision notice mails.
func (svc *Service) EnableMailNotices(mailSvc core.EmailService, students student.Repository) {
	svc.mailSvc = mailSvc
	svc.students = students
}

// Situation builds the (student, semester) aggregator, selecting the ECTS
// variant when the curriculum uses credit accumulation.
func (svc *Service) Situation(studentID, semesterID int) (Situation, error) {
	table, err := svc.cache.Get(semesterID)
	if err != nil {
		return nil, err
	}
	sem := table.Semester()
	cur := table.Curriculum()

	history, err := svc.notesRepo.QueryStudentSemesters(studentID, sem.FormationCode)
	if err != nil {
		return nil, errors.Wrap(err, "loading student history")
	}

	sit := &situation{
		svc:       svc,
		studentID: studentID,
		sem:       sem,
		cur:       cur,
		table:     table,
		history:   history,
	}
	if err := sit.locatePredecessor(); err != nil {
		return nil, err
	}
	if cur.ECTSOnly {
		return &ectsSituation{situation: sit}, nil
	}
	return sit, nil
}

// GetDecision reads the recorded semester-level decision.
func (svc *Service) GetDecision(studentID, semesterID int) (Validation, error) {
	return svc.repo.GetDecision(svc.db, studentID, semesterID)
}

// ListUEDecisions reads the recorded UE-level decisions for a semester.
func (svc *Service) ListUEDecisions(studentID, semesterID int) ([]Validation, error) {
	return svc.repo.ListUEDecisions(svc.db, studentID, semesterID)
}

// ListAuthorizations reads the enrollment authorizations derived from a
// semester's decision.
func (svc *Service) ListAuthorizations(studentID, originSemesterID int) ([]Authorization, error) {
	return svc.repo.ListAuthorizations(svc.db, studentID, originSemesterID)
}

// UndoDecision deletes the semester's decision, its UE rows and its
// enrollment authorizations, then invalidates every affected semester's
// cached table. It returns the affected semester ids.
func (svc *Service) UndoDecision(studentID, semesterID int) ([]int, error) {
	tx, err := svc.db.Begin()
	if err != nil {
		return nil, errors.Wrap(err, "beginning transaction")
	}

	stale, err := svc.repo.DeleteDecision(tx, studentID, semesterID)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err = svc.repo.ReplaceAuthorizations(tx, studentID, semesterID, nil); err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "committing decision undo")
	}

	affected := dedupAffected(semesterID, stale)
	for _, id := range affected {
		svc.cache.Invalidate(id)
	}
	return affected, nil
}

func (svc *Service) sendDecisionNotice(studentID int, sem notes.Semester, d Decision) {
	if svc.mailSvc == nil || svc.students == nil {
		return
	}
	etud, err := svc.students.GetStudentByID(studentID)
	if err != nil || etud.Email == "" {
		return
	}
	msg := &core.EmailMessage{
		To:      []mail.Address{{Name: etud.FullName(), Address: etud.Email}},
		Subject: fmt.Sprintf("Jury decision for %s", sem.Title),
		BodyStr: fmt.Sprintf(
			"The jury recorded the decision %q (%s) for %s.",
			d.Code, parcours.CodeDescriptions[d.Code], sem.Title,
		),
	}
	svc.mailSvc.SendMessages(msg)
}

func dedupAffected(first int, more []int) []int {
	seen := map[int]bool{first: true}
	affected := []int{first}
	for _, id := range more {
		if !seen[id] {
			seen[id] = true
			affected = append(affected, id)
		}
	}
	return affected
}
