package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/Simplici0/edmtrack/internal/pause"
	"github.com/Simplici0/edmtrack/internal/qa"
	"github.com/Simplici0/edmtrack/internal/store"
)

func (s *server) registerCaptures(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-captures",
		Method:      http.MethodGet,
		Path:        "/settings/{id}/captures",
		Summary:     "List quantity captures of a setting",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *settingPath) (*struct {
		Body []store.Capture `json:"body"`
	}, error) {
		if _, err := requireRole(ctx); err != nil {
			return nil, err
		}
		captures, err := s.store.ListCaptures(ctx, input.ID)
		if err != nil {
			return nil, s.handleError(err)
		}
		return &struct {
			Body []store.Capture `json:"body"`
		}{Body: captures}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-capture",
		Method:        http.MethodPost,
		Path:          "/settings/{id}/captures",
		Summary:       "Record an operator work interval over a quantity range",
		Description:   "A range overlapping existing captures is rejected with 409 unless overwrite is set, which replaces them.",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		ID   string         `path:"id"`
		Body CaptureRequest `json:"body"`
	}) (*struct {
		Body CaptureResponse `json:"body"`
	}, error) {
		p, err := requireRole(ctx, store.RoleOperator)
		if err != nil {
			return nil, err
		}
		b := input.Body
		c, replaced, err := s.store.CreateCapture(ctx, p.Email, input.ID, store.CaptureInput{
			From:          b.From,
			To:            b.To,
			StartTime:     b.StartTime,
			EndTime:       b.EndTime,
			IdleTime:      b.IdleTime,
			MachineNumber: b.MachineNumber,
			Operators:     b.Operators,
			Overwrite:     b.Overwrite,
		})
		if err != nil {
			return nil, s.handleError(err)
		}
		if replaced == nil {
			replaced = []store.Capture{}
		}
		return &struct {
			Body CaptureResponse `json:"body"`
		}{Body: CaptureResponse{Capture: c, Replaced: replaced}}, nil
	})
}

func (s *server) registerQA(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-qa",
		Method:      http.MethodGet,
		Path:        "/settings/{id}/qa",
		Summary:     "Per-unit QA progress of a setting",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *settingPath) (*struct {
		Body qa.Progress `json:"body"`
	}, error) {
		if _, err := requireRole(ctx); err != nil {
			return nil, err
		}
		p, err := s.store.Progress(ctx, input.ID)
		if err != nil {
			return nil, s.handleError(err)
		}
		return &struct {
			Body qa.Progress `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-qa",
		Method:      http.MethodPost,
		Path:        "/settings/{id}/qa",
		Summary:     "Set the QA state of selected units",
		Description: "Units already dispatched to QA cannot be selected again.",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		ID   string    `path:"id"`
		Body QARequest `json:"body"`
	}) (*struct {
		Body qa.Progress `json:"body"`
	}, error) {
		p, err := requireRole(ctx, store.RoleOperator)
		if err != nil {
			return nil, err
		}
		units := input.Body.Units
		if strings.TrimSpace(input.Body.Selection) != "" {
			setting, err := s.store.GetSetting(ctx, input.ID)
			if err != nil {
				return nil, s.handleError(err)
			}
			parsed, err := qa.ParseUnits(input.Body.Selection, setting.Quantity)
			if err != nil {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil)
			}
			units = append(units, parsed...)
		}
		progress, err := s.store.SetQA(ctx, p.Email, input.ID, units, qa.State(input.Body.State))
		if err != nil {
			return nil, s.handleError(err)
		}
		return &struct {
			Body qa.Progress `json:"body"`
		}{Body: progress}, nil
	})
}

type unitPath struct {
	ID   string `path:"id"`
	Unit int    `path:"unit" minimum:"1"`
}

func (s *server) registerTimers(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-timer",
		Method:      http.MethodGet,
		Path:        "/settings/{id}/units/{unit}/timer",
		Summary:     "Live timer of one unit",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *unitPath) (*struct {
		Body TimerResponse `json:"body"`
	}, error) {
		if _, err := requireRole(ctx); err != nil {
			return nil, err
		}
		t, err := s.store.GetTimer(ctx, input.ID, input.Unit)
		if err != nil {
			return nil, s.handleError(err)
		}
		return &struct {
			Body TimerResponse `json:"body"`
		}{Body: s.timerResponse(t)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "timer-action",
		Method:      http.MethodPost,
		Path:        "/settings/{id}/units/{unit}/timer/{action}",
		Summary:     "Start, pause, resume or end a unit timer",
		Description: "Pausing requires a reason. Ended timers accept no further actions.",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		ID     string             `path:"id"`
		Unit   int                `path:"unit" minimum:"1"`
		Action string             `path:"action" enum:"start,pause,resume,end"`
		Body   TimerActionRequest `json:"body" required:"false"`
	}) (*struct {
		Body TimerResponse `json:"body"`
	}, error) {
		p, err := requireRole(ctx, store.RoleOperator)
		if err != nil {
			return nil, err
		}
		var t store.UnitTimer
		if input.Action == "start" {
			t, err = s.store.StartTimer(ctx, p.Email, input.ID, input.Unit)
		} else {
			action, perr := pause.ParseAction(input.Action, input.Body.Reason)
			if perr != nil {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", perr.Error(), nil)
			}
			t, err = s.store.ApplyTimer(ctx, p.Email, input.ID, input.Unit, action)
		}
		if err != nil {
			return nil, s.handleError(err)
		}
		return &struct {
			Body TimerResponse `json:"body"`
		}{Body: s.timerResponse(t)}, nil
	})
}

func (s *server) timerResponse(t store.UnitTimer) TimerResponse {
	return TimerResponse{UnitTimer: t, Snapshot: t.Timer.Snapshot(s.now().UnixMilli())}
}
