package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/Simplici0/edmtrack/internal/store"
)

func (s *server) registerReports(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-activity",
		Method:      http.MethodGet,
		Path:        "/activity",
		Summary:     "Recent activity, newest first",
		Description: "Administrators see every user's activity; everyone else sees their own.",
	}, func(ctx context.Context, input *struct {
		Actor     string `query:"actor"`
		SettingID string `query:"setting_id"`
		Limit     int    `query:"limit" default:"100" minimum:"1" maximum:"500"`
	}) (*struct {
		Body []store.ActivityEntry `json:"body"`
	}, error) {
		p, err := requireRole(ctx)
		if err != nil {
			return nil, err
		}
		actor := input.Actor
		if p.Role != store.RoleAdmin {
			actor = p.Email
		}
		entries, err := s.store.ListActivity(ctx, store.ActivityFilter{Actor: actor, SettingID: input.SettingID, Limit: input.Limit})
		if err != nil {
			return nil, s.handleError(err)
		}
		return &struct {
			Body []store.ActivityEntry `json:"body"`
		}{Body: entries}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-idle-reasons",
		Method:      http.MethodGet,
		Path:        "/idle-reasons",
		Summary:     "Pause reasons offered to operators",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []string `json:"body"`
	}, error) {
		if _, err := requireRole(ctx); err != nil {
			return nil, err
		}
		reasons, err := s.store.IdleReasons(ctx)
		if err != nil {
			return nil, s.handleError(err)
		}
		return &struct {
			Body []string `json:"body"`
		}{Body: reasons}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "summary",
		Method:      http.MethodGet,
		Path:        "/summary",
		Summary:     "Aggregated estimates, logged machine hours and QA counts",
		Errors:      []int{http.StatusForbidden},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body store.Overview `json:"body"`
	}, error) {
		if _, err := requireRole(ctx, store.RoleAdmin); err != nil {
			return nil, err
		}
		sum, err := s.store.Summarize(ctx)
		if err != nil {
			return nil, s.handleError(err)
		}
		return &struct {
			Body store.Overview `json:"body"`
		}{Body: sum}, nil
	})
}
