package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/Simplici0/edmtrack/internal/machinehours"
	"github.com/Simplici0/edmtrack/internal/pricing"
	"github.com/Simplici0/edmtrack/internal/timecalc"
)

func (s *server) registerCalc(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "calc-cost",
		Method:      http.MethodPost,
		Path:        "/calc/cost",
		Summary:     "Estimate hours and amounts for a setting document",
		Description: "Missing or non-numeric fields count as zero; the non-numeric ones are listed in coercions.",
	}, func(ctx context.Context, input *struct {
		Body map[string]any `json:"body"`
	}) (*struct {
		Body CostResponse `json:"body"`
	}, error) {
		p, err := requireRole(ctx)
		if err != nil {
			return nil, err
		}
		setting, coerced := pricing.FromDocument(input.Body)
		s.logCoercions(p.Email, "calc", coerced)
		if coerced == nil {
			coerced = []pricing.Coercion{}
		}
		return &struct {
			Body CostResponse `json:"body"`
		}{Body: CostResponse{Setting: setting, Result: pricing.Calculate(setting), Coercions: coerced}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "calc-machine-hours",
		Method:      http.MethodPost,
		Path:        "/calc/machine-hours",
		Summary:     "Machine hours from start, end and idle time",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body MachineHoursRequest `json:"body"`
	}) (*struct {
		Body MachineHoursResponse `json:"body"`
	}, error) {
		if _, err := requireRole(ctx); err != nil {
			return nil, err
		}
		mode, err := machinehours.ParseMode(input.Body.Mode)
		if err != nil {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil)
		}
		b := input.Body
		var (
			hours    machinehours.Hours
			base     float64
			complete bool
		)
		if b.Legacy {
			hours = machinehours.ComputeLegacy(b.StartTime, b.EndTime, b.IdleTime, mode, b.PausedSeconds)
			_, _, startOK := timecalc.ParseClock(b.StartTime)
			_, _, endOK := timecalc.ParseClock(b.EndTime)
			complete = startOK && endOK
			base = machinehours.ComputeLegacy(b.StartTime, b.EndTime, "", machinehours.Add, 0).Value()
		} else {
			hours = machinehours.Compute(b.StartTime, b.EndTime, b.IdleTime, mode, b.PausedSeconds)
			complete = timecalc.SpanFromText(b.StartTime, b.EndTime).Complete()
			base = machinehours.BaseHours(b.StartTime, b.EndTime)
		}
		return &struct {
			Body MachineHoursResponse `json:"body"`
		}{Body: MachineHoursResponse{
			MachineHours: hours.String(),
			Hours:        hours.Value(),
			BaseHours:    base,
			Display:      timecalc.FormatDecimalHours(hours.Value()),
			Complete:     complete,
		}}, nil
	})
}

func (s *server) logCoercions(actor, source string, coerced []pricing.Coercion) {
	for _, c := range coerced {
		s.logger.Printf("warning: %s coerced non-numeric %s to 0 (actor=%s)", source, c, actor)
	}
}
