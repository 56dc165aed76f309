package jury

import (
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/edusco/scolar/core"
	"github.com/edusco/scolar/core/notes"
	"github.com/edusco/scolar/core/parcours"
)

// Situation aggregates one (student, semester) pair: history, predecessor,
// thresholds and compensation, and applies the regulation to it.
type Situation interface {
	StudentID() int
	Semester() notes.Semester
	// GetPossibleChoices enumerates the decisions the regulation allows,
	// given the assiduity the jury asserts.
	GetPossibleChoices(assidu bool) []Decision
	// CouldBeCompensated reports whether the direct predecessor may
	// compensate this semester.
	CouldBeCompensated() bool
	// ValideDecision records the decision with all its side effects and
	// returns the ids of every semester whose cached table went stale.
	ValideDecision(d Decision) ([]int, error)
}

type situation struct {
	svc       *Service
	studentID int
	sem       notes.Semester
	cur       *parcours.Curriculum
	table     *notes.Table
	history   []notes.Semester // most recent first

	prev         *notes.Semester
	prevDecision *Validation
}

func (s *situation) StudentID() int           { return s.studentID }
func (s *situation) Semester() notes.Semester { return s.sem }

// locatePredecessor finds the most recent semester of the same formation
// code with rank = current − 1, and its recorded decision if any.
func (s *situation) locatePredecessor() error {
	if s.sem.Rank <= 1 {
		return nil
	}
	for i := range s.history {
		sem := s.history[i]
		if sem.ID != s.sem.ID && sem.Rank == s.sem.Rank-1 {
			s.prev = &sem
			break
		}
	}
	if s.prev == nil {
		return nil
	}

	dec, err := s.svc.repo.GetDecision(s.svc.db, s.studentID, s.prev.ID)
	switch errors.Cause(err) {
	case nil:
		s.prevDecision = &dec
	case ErrDecisionNotFound:
	default:
		return errors.Wrap(err, "loading predecessor decision")
	}
	return nil
}

func (s *situation) state(assidu bool) parcours.State {
	var prevCode string
	if s.prevDecision != nil {
		prevCode = s.prevDecision.Code
	}
	return parcours.State{
		PrevCode:      prevCode,
		Assidu:        assidu,
		MoyOK:         s.table.MoyOK(s.studentID),
		UEsOK:         s.table.CheckUEThresholds(s.studentID),
		CanCompensate: s.CouldBeCompensated(),
		NonTerminal:   !s.cur.IsTerminalRank(s.sem.Rank),
	}
}

func (s *situation) CouldBeCompensated() bool {
	if s.cur.ECTSOnly || !s.sem.GestionCompensation || s.prev == nil {
		return false
	}
	return s.couldCompensateWith(s.prev.ID)
}

// couldCompensateWith evaluates the compensation predicate against the given
// partner semester, which must belong to the student's history.
func (s *situation) couldCompensateWith(partnerID int) bool {
	if s.cur.ECTSOnly {
		return false
	}
	var partnerSem *notes.Semester
	for i := range s.history {
		if s.history[i].ID == partnerID {
			partnerSem = &s.history[i]
			break
		}
	}
	if partnerSem == nil {
		return false
	}

	partnerTable, err := s.svc.cache.Get(partnerID)
	if err != nil {
		s.svc.logger.Warn("loading compensation partner table failed", err, map[string]interface{}{"semester": partnerID})
		return false
	}
	partner := CompensationSide{
		SemesterID: partnerSem.ID,
		Rank:       partnerSem.Rank,
		Moy:        partnerTable.GeneralAvg(s.studentID),
		UEsOK:      partnerTable.CheckUEThresholds(s.studentID),
	}
	dec, err := s.svc.repo.GetDecision(s.svc.db, s.studentID, partnerID)
	if err == nil {
		partner.DecisionCode = dec.Code
		partner.CompenseSemesterID = dec.CompenseSemesterID
	} else if errors.Cause(err) != ErrDecisionNotFound {
		s.svc.logger.Warn("loading compensation partner decision failed", err, map[string]interface{}{"semester": partnerID})
		return false
	}

	current := CompensationSide{
		SemesterID: s.sem.ID,
		Rank:       s.sem.Rank,
		Moy:        s.table.GeneralAvg(s.studentID),
		UEsOK:      s.table.CheckUEThresholds(s.studentID),
	}
	return CheckCompensation(current, partner)
}

func (s *situation) GetPossibleChoices(assidu bool) []Decision {
	state := s.state(assidu)
	rules := parcours.Candidates(state, s.cur, s.sem.GestionSemestrielle)

	choices := make([]Decision, 0, len(rules))
	for _, rule := range rules {
		d := Decision{
			Code:         rule.Code,
			NewCodePrev:  rule.NewCodePrev,
			Devenir:      rule.Devenir,
			Assidu:       assidu,
			RuleID:       rule.ID,
			Inconsistent: rule.Inconsistent,
			Explanation:  rule.Explanation,
		}
		if s.prev != nil && (rule.Code == parcours.ADC || rule.NewCodePrev == parcours.ADC) {
			d.CompenseSemesterID = null.IntFrom(s.prev.ID)
		}
		if rule.Inconsistent {
			s.svc.logger.Warn("rule table matched an inconsistent state", map[string]interface{}{
				"rule": rule.ID, "student": s.studentID, "semester": s.sem.ID, "state": state,
			})
		}
		choices = append(choices, d)
	}
	return choices
}

func (s *situation) ValideDecision(d Decision) ([]int, error) {
	if err := s.checkDecision(&d); err != nil {
		return nil, err
	}

	tx, err := s.svc.db.Begin()
	if err != nil {
		return nil, errors.Wrap(err, "beginning transaction")
	}
	stale, err := s.writeDecision(tx, d)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "committing decision")
	}

	affected := dedupAffected(s.sem.ID, stale)
	for _, id := range affected {
		s.svc.cache.Invalidate(id)
	}
	s.svc.sendDecisionNotice(s.studentID, s.sem, d)
	return affected, nil
}

// checkDecision rejects the decision before any write.
func (s *situation) checkDecision(d *Decision) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if !s.cur.CodeAllowed(d.Code) {
		return core.NewValidationError(errCodeForbidden, core.FieldError{Field: "code", Error: errCodeForbidden.Error()})
	}
	if d.NewCodePrev != "" {
		if s.prev == nil {
			return core.NewValidationError(errNoPredecessor, core.FieldError{Field: "new_code_prev", Error: errNoPredecessor.Error()})
		}
		if !s.cur.CodeAllowed(d.NewCodePrev) {
			return core.NewValidationError(errCodeForbidden, core.FieldError{Field: "new_code_prev", Error: errCodeForbidden.Error()})
		}
	}
	if s.table.HasPending() {
		return core.NewValidationError(errPendingGrades)
	}
	if s.prev != nil && s.prevDecision == nil && d.NewCodePrev == "" {
		return core.NewValidationError(errPredecessorPending)
	}
	if d.CompenseSemesterID.Valid && !s.couldCompensateWith(d.CompenseSemesterID.Int) {
		return core.NewValidationError(errPartnerIneligible, core.FieldError{Field: "compense_semester_id", Error: errPartnerIneligible.Error()})
	}
	return nil
}

// writeDecision persists the semester row, the UE rows, the predecessor
// revision and the enrollment authorizations on one executor. It returns the
// ids of the other semesters it touched.
func (s *situation) writeDecision(ex core.DBExecutor, d Decision) ([]int, error) {
	now := time.Now().UTC()

	v := Validation{
		StudentID:          s.studentID,
		SemesterID:         s.sem.ID,
		Code:               d.Code,
		Assidu:             d.Assidu,
		CompenseSemesterID: d.CompenseSemesterID,
		EventDate:          now,
	}
	stale, err := s.svc.repo.UpsertDecisionSem(ex, v)
	if err != nil {
		return nil, errors.Wrap(err, "recording semester decision")
	}
	if err = s.svc.repo.LogDecision(ex, v, "validated"); err != nil {
		return nil, errors.Wrap(err, "logging semester decision")
	}
	if err = s.writeUEDecisions(ex, s.table, d.Code, d.Assidu, now); err != nil {
		return nil, err
	}

	if d.NewCodePrev != "" && s.prev != nil {
		pv := Validation{
			StudentID:  s.studentID,
			SemesterID: s.prev.ID,
			Code:       d.NewCodePrev,
			Assidu:     true,
			EventDate:  now,
		}
		if s.prevDecision != nil {
			pv.Assidu = s.prevDecision.Assidu
		}
		if d.NewCodePrev == parcours.ADC {
			pv.CompenseSemesterID = null.IntFrom(s.sem.ID)
		}
		touched, err := s.svc.repo.UpsertDecisionSem(ex, pv)
		if err != nil {
			return nil, errors.Wrap(err, "revising predecessor decision")
		}
		if err = s.svc.repo.LogDecision(ex, pv, "revised"); err != nil {
			return nil, errors.Wrap(err, "logging predecessor revision")
		}
		prevTable, err := s.svc.cache.Get(s.prev.ID)
		if err != nil {
			return nil, errors.Wrap(err, "loading predecessor table")
		}
		if err = s.writeUEDecisions(ex, prevTable, d.NewCodePrev, pv.Assidu, now); err != nil {
			return nil, err
		}
		stale = append(stale, touched...)
		stale = append(stale, s.prev.ID)
	}

	auths := s.authorizations(d.Devenir)
	if err = s.svc.repo.ReplaceAuthorizations(ex, s.studentID, s.sem.ID, auths); err != nil {
		return nil, errors.Wrap(err, "replacing enrollment authorizations")
	}
	return stale, nil
}

// writeUEDecisions derives and overwrites the UE-level rows of one semester.
// A UE validates on its own average, or by compensation when the semester
// validates; non-assiduity forces the failing code on every UE.
func (s *situation) writeUEDecisions(ex core.DBExecutor, table *notes.Table, semCode string, assidu bool, now time.Time) error {
	cur := table.Curriculum()
	barre := cur.BarreValidUE - parcours.NotesTolerance
	semValidates := parcours.IsSemValidating(semCode)

	for _, status := range table.UEStatuses(s.studentID) {
		if status.UE.Type == parcours.UESport || !status.Avg.Valid {
			continue
		}
		var code string
		switch {
		case !assidu:
			code = parcours.AJ
		case status.Avg.Float64 >= barre:
			code = parcours.ADM
		case semValidates:
			code = parcours.CMP
		default:
			code = parcours.AJ
		}
		v := Validation{
			StudentID:  s.studentID,
			SemesterID: table.Semester().ID,
			UEID:       null.IntFrom(status.UE.ID),
			Code:       code,
			Assidu:     assidu,
			MoyUE:      status.Avg,
			EventDate:  now,
		}
		if err := s.svc.repo.UpsertDecisionUE(ex, v); err != nil {
			return errors.Wrap(err, "recording UE decision")
		}
	}
	return nil
}

// authorizations derives the enrollment authorizations from the devenir.
func (s *situation) authorizations(devenir string) []Authorization {
	ranks := parcours.NextRanks(devenir, s.sem.Rank, s.cur.NbSem)
	auths := make([]Authorization, 0, len(ranks))
	for _, rank := range ranks {
		auths = append(auths, Authorization{
			StudentID:        s.studentID,
			OriginSemesterID: s.sem.ID,
			FormationCode:    s.sem.FormationCode,
			Rank:             rank,
		})
	}
	return auths
}
