package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/placeshare/places-server/internal/service"
)

func (s *Server) registerAdminRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "checkConsistency",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/consistency",
		Summary:     "Check relationship consistency",
		Description: "Audits every place against its creator's place set and reports broken links",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCheckConsistency)
}

// ConsistencyResponse reports the outcome of a consistency audit.
type ConsistencyResponse struct {
	Consistent    bool                `json:"consistent" doc:"True when no violations were found"`
	PlacesChecked int                 `json:"places_checked" doc:"Places examined"`
	UsersChecked  int                 `json:"users_checked" doc:"Users examined"`
	Violations    []service.Violation `json:"violations" doc:"Broken relationships"`
}

// ConsistencyOutput wraps the consistency response for Huma.
type ConsistencyOutput struct {
	Body ConsistencyResponse
}

func (s *Server) handleCheckConsistency(ctx context.Context, _ *struct{}) (*ConsistencyOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, err
	}

	report, err := s.services.Places.CheckConsistency(ctx)
	if err != nil {
		return nil, err
	}

	violations := report.Violations
	if violations == nil {
		violations = []service.Violation{}
	}

	s.logger.InfoContext(ctx, "consistency check",
		"places", report.PlacesChecked,
		"users", report.UsersChecked,
		"violations", len(violations),
	)

	return &ConsistencyOutput{
		Body: ConsistencyResponse{
			Consistent:    report.Consistent(),
			PlacesChecked: report.PlacesChecked,
			UsersChecked:  report.UsersChecked,
			Violations:    violations,
		},
	}, nil
}
