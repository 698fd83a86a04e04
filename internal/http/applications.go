package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/saintdannyyy/shelta/internal/model"
	"github.com/saintdannyyy/shelta/internal/realtime"
)

type applicationSummary struct {
	ID         string  `json:"id"`
	PropertyID string  `json:"propertyId"`
	TenantID   string  `json:"tenantId"`
	Status     string  `json:"status"`
	MoveInDate *string `json:"moveInDate,omitempty"`
	CreatedAt  string  `json:"createdAt"`
}

func mapApplicationSummary(app model.Application) applicationSummary {
	summary := applicationSummary{
		ID:         app.ID,
		PropertyID: app.PropertyID,
		TenantID:   app.TenantID,
		Status:     string(app.Status),
		CreatedAt:  app.CreatedAt.UTC().Format(time.RFC3339),
	}
	if app.MoveInDate != nil {
		date := app.MoveInDate.UTC().Format("2006-01-02")
		summary.MoveInDate = &date
	}
	return summary
}

type createApplicationRequest struct {
	PropertyID string  `json:"propertyId"`
	MoveInDate *string `json:"moveInDate,omitempty"`
}

func (s *Server) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	var req createApplicationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if strings.TrimSpace(req.PropertyID) == "" {
		writeError(w, http.StatusBadRequest, "missing_property_id")
		return
	}

	property, err := s.store.GetProperty(r.Context(), req.PropertyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "property_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if property.Status != model.PropertyAvailable {
		writeError(w, http.StatusConflict, "property_unavailable")
		return
	}

	var moveIn *time.Time
	if req.MoveInDate != nil && strings.TrimSpace(*req.MoveInDate) != "" {
		parsed, err := time.Parse("2006-01-02", *req.MoveInDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_move_in_date")
			return
		}
		moveIn = &parsed
	}

	now := time.Now().UTC()
	app := model.Application{
		ID:         uuid.NewString(),
		PropertyID: property.ID,
		TenantID:   identity.ID,
		Status:     model.ApplicationPending,
		MoveInDate: moveIn,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.store.CreateApplication(r.Context(), app); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	s.feed.Publish(r.Context(), realtime.Event{Table: "applications", ID: app.ID, Action: "insert"})
	writeJSON(w, http.StatusCreated, mapApplicationSummary(app))
}

// handleListApplications scopes the listing to the caller: tenants see their
// own applications, landlords see applications against their properties.
func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	limit := parseLimit(r, 100)

	var (
		apps []model.Application
		err  error
	)
	switch identity.Role {
	case model.RoleTenant:
		apps, err = s.store.ListApplicationsByTenant(r.Context(), identity.ID, limit)
	case model.RoleLandlord:
		apps, err = s.store.ListApplicationsByOwner(r.Context(), identity.ID, limit)
	default:
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	resp := make([]applicationSummary, 0, len(apps))
	for _, app := range apps {
		resp = append(resp, mapApplicationSummary(app))
	}
	writeJSON(w, http.StatusOK, resp)
}

type updateApplicationStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleUpdateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	applicationID := chi.URLParam(r, "applicationId")
	if applicationID == "" {
		writeError(w, http.StatusBadRequest, "missing_application_id")
		return
	}

	var req updateApplicationStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	status := model.ApplicationStatus(strings.TrimSpace(strings.ToLower(req.Status)))
	switch status {
	case model.ApplicationApproved, model.ApplicationRejected:
	default:
		writeError(w, http.StatusBadRequest, "invalid_status")
		return
	}

	app, err := s.store.GetApplication(r.Context(), applicationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "application_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	property, err := s.store.GetProperty(r.Context(), app.PropertyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if property.OwnerID != identity.ID {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	if app.Status != model.ApplicationPending {
		writeError(w, http.StatusConflict, "application_already_decided")
		return
	}

	// Approval also takes the property off the browse surface; the two rows
	// move in one transaction so a failure leaves both untouched.
	if status == model.ApplicationApproved {
		if err := s.store.ApproveApplication(r.Context(), applicationID, property.ID); err != nil {
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
		s.feed.Publish(r.Context(), realtime.Event{Table: "properties", ID: property.ID, Action: "update"})
	} else {
		if err := s.store.UpdateApplicationStatus(r.Context(), applicationID, status); err != nil {
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
	}

	app.Status = status
	s.feed.Publish(r.Context(), realtime.Event{Table: "applications", ID: app.ID, Action: "update"})
	writeJSON(w, http.StatusOK, mapApplicationSummary(app))
}
