package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/Simplici0/edmtrack/internal/pricing"
	"github.com/Simplici0/edmtrack/internal/store"
)

type settingPath struct {
	ID string `path:"id"`
}

func (s *server) registerSettings(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-settings",
		Method:      http.MethodGet,
		Path:        "/settings",
		Summary:     "List job settings with their estimates",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []SettingResponse `json:"body"`
	}, error) {
		if _, err := requireRole(ctx); err != nil {
			return nil, err
		}
		settings, err := s.store.ListSettings(ctx)
		if err != nil {
			return nil, s.handleError(err)
		}
		out := make([]SettingResponse, 0, len(settings))
		for _, j := range settings {
			out = append(out, settingResponse(j))
		}
		return &struct {
			Body []SettingResponse `json:"body"`
		}{Body: out}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-setting",
		Method:        http.MethodPost,
		Path:          "/settings",
		Summary:       "Create a job setting",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		Body SettingRequest `json:"body"`
	}) (*struct {
		Body SettingResponse `json:"body"`
	}, error) {
		p, err := requireRole(ctx, store.RoleProgrammer)
		if err != nil {
			return nil, err
		}
		_, coerced := pricing.FromDocument(input.Body.Document)
		s.logCoercions(p.Email, "setting", coerced)
		j, err := s.store.CreateSetting(ctx, p.Email, input.Body.JobName, input.Body.Document)
		if err != nil {
			return nil, s.handleError(err)
		}
		return &struct {
			Body SettingResponse `json:"body"`
		}{Body: settingResponse(j)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-setting",
		Method:      http.MethodGet,
		Path:        "/settings/{id}",
		Summary:     "Get a job setting",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *settingPath) (*struct {
		Body SettingResponse `json:"body"`
	}, error) {
		if _, err := requireRole(ctx); err != nil {
			return nil, err
		}
		j, err := s.store.GetSetting(ctx, input.ID)
		if err != nil {
			return nil, s.handleError(err)
		}
		return &struct {
			Body SettingResponse `json:"body"`
		}{Body: settingResponse(j)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-setting",
		Method:      http.MethodPut,
		Path:        "/settings/{id}",
		Summary:     "Replace a job setting document",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID   string         `path:"id"`
		Body SettingRequest `json:"body"`
	}) (*struct {
		Body SettingResponse `json:"body"`
	}, error) {
		p, err := requireRole(ctx, store.RoleProgrammer)
		if err != nil {
			return nil, err
		}
		_, coerced := pricing.FromDocument(input.Body.Document)
		s.logCoercions(p.Email, "setting "+input.ID, coerced)
		j, err := s.store.UpdateSetting(ctx, p.Email, input.ID, input.Body.JobName, input.Body.Document)
		if err != nil {
			return nil, s.handleError(err)
		}
		return &struct {
			Body SettingResponse `json:"body"`
		}{Body: settingResponse(j)}, nil
	})
}
