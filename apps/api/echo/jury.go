package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/edusco/scolar/core/jury"
	"github.com/edusco/scolar/core/notes"
)

type (
	juryApi struct {
		svc   *jury.Service
		cache *notes.TableCache
	}

	// TableRow is one student's line of the semester table.
	TableRow struct {
		StudentID int              `json:"student_id"`
		Moy       null.Float64     `json:"moy"`
		Rank      int              `json:"rank"`
		UEs       []notes.UEStatus `json:"ues"`
		Pending   bool             `json:"pending"`
	}

	TableResponse struct {
		Semester        notes.Semester `json:"semester"`
		NbStudents      int            `json:"nb_students"`
		PendingModImpls []int          `json:"pending_modimpls,omitempty"`
		Rows            []TableRow     `json:"rows"`
	}

	SituationResponse struct {
		StudentID          int             `json:"student_id"`
		SemesterID         int             `json:"semester_id"`
		Assidu             bool            `json:"assidu"`
		CouldBeCompensated bool            `json:"could_be_compensated"`
		Choices            []jury.Decision `json:"choices"`
	}

	DecisionResponse struct {
		Decision       jury.Validation      `json:"decision"`
		UEs            []jury.Validation    `json:"ues"`
		Authorizations []jury.Authorization `json:"authorizations"`
	}

	AffectedResponse struct {
		AffectedSemesters []int `json:"affected_semesters"`
	}
)

func registerJuryAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *jury.Service, cache *notes.TableCache) {
	api := juryApi{svc: svc, cache: cache}

	sg := g.Group("/semesters/:id", jwt)
	sg.GET("/table", api.retrieveTable)

	dg := sg.Group("/students/:etudid")
	dg.GET("/situation", api.retrieveSituation)
	dg.GET("/decision", api.retrieveDecision)
	dg.POST("/decision", api.recordDecision)
	dg.DELETE("/decision", api.undoDecision, adminMiddleware())
}

// Handlers

func (api *juryApi) retrieveTable(ctx echo.Context) error {
	semID, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	table, err := api.cache.Get(semID)
	if err != nil {
		return errors.Wrap(err, "loading semester table")
	}

	students := table.Students()
	resp := TableResponse{
		Semester:        table.Semester(),
		NbStudents:      len(students),
		PendingModImpls: table.PendingModImpls(),
		Rows:            make([]TableRow, 0, len(students)),
	}
	for _, studentID := range students {
		rank, _ := table.Rank(studentID)
		resp.Rows = append(resp.Rows, TableRow{
			StudentID: studentID,
			Moy:       table.GeneralAvg(studentID),
			Rank:      rank,
			UEs:       table.UEStatuses(studentID),
			Pending:   table.StudentHasPending(studentID),
		})
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *juryApi) retrieveSituation(ctx echo.Context) error {
	semID, studentID, err := juryParams(ctx)
	if err != nil {
		return err
	}
	assidu := true
	if val := ctx.QueryParam("assidu"); val != "" {
		if assidu, err = strconv.ParseBool(val); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid assidu: "+val)
		}
	}

	sit, err := api.svc.Situation(studentID, semID)
	if err != nil {
		return errors.Wrap(err, "building situation")
	}
	return ctx.JSON(http.StatusOK, SituationResponse{
		StudentID:          studentID,
		SemesterID:         semID,
		Assidu:             assidu,
		CouldBeCompensated: sit.CouldBeCompensated(),
		Choices:            sit.GetPossibleChoices(assidu),
	})
}

func (api *juryApi) retrieveDecision(ctx echo.Context) error {
	semID, studentID, err := juryParams(ctx)
	if err != nil {
		return err
	}
	dec, err := api.svc.GetDecision(studentID, semID)
	if err != nil {
		return errors.Wrap(err, "getting decision")
	}
	ues, err := api.svc.ListUEDecisions(studentID, semID)
	if err != nil {
		return errors.Wrap(err, "listing UE decisions")
	}
	auths, err := api.svc.ListAuthorizations(studentID, semID)
	if err != nil {
		return errors.Wrap(err, "listing authorizations")
	}
	return ctx.JSON(http.StatusOK, DecisionResponse{Decision: dec, UEs: ues, Authorizations: auths})
}

func (api *juryApi) recordDecision(ctx echo.Context) error {
	semID, studentID, err := juryParams(ctx)
	if err != nil {
		return err
	}
	var data jury.Decision
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Decision")
	}

	sit, err := api.svc.Situation(studentID, semID)
	if err != nil {
		return errors.Wrap(err, "building situation")
	}
	affected, err := sit.ValideDecision(data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, AffectedResponse{AffectedSemesters: affected})
}

func (api *juryApi) undoDecision(ctx echo.Context) error {
	semID, studentID, err := juryParams(ctx)
	if err != nil {
		return err
	}
	// 404 when there is nothing to undo
	if _, err = api.svc.GetDecision(studentID, semID); err != nil {
		return errors.Wrap(err, "getting decision")
	}
	affected, err := api.svc.UndoDecision(studentID, semID)
	if err != nil {
		return errors.Wrap(err, "undoing decision")
	}
	return ctx.JSON(http.StatusOK, AffectedResponse{AffectedSemesters: affected})
}

func juryParams(ctx echo.Context) (semID, studentID int, err error) {
	if semID, err = intParam(ctx, "id"); err != nil {
		return 0, 0, err
	}
	if studentID, err = intParam(ctx, "etudid"); err != nil {
		return 0, 0, err
	}
	return semID, studentID, nil
}
