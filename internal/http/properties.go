package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/saintdannyyy/shelta/internal/afford"
	"github.com/saintdannyyy/shelta/internal/filter"
	"github.com/saintdannyyy/shelta/internal/model"
	"github.com/saintdannyyy/shelta/internal/realtime"
)

type propertySummary struct {
	ID            string  `json:"id"`
	OwnerID       string  `json:"ownerId"`
	Address       string  `json:"address"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	Bedrooms      int     `json:"bedrooms"`
	Bathrooms     int     `json:"bathrooms"`
	RentAmount    int64   `json:"rentAmount"`
	QolScore      int     `json:"qolScore"`
	IsVerified    bool    `json:"isVerified"`
	Status        string  `json:"status"`
	AffordPercent *int    `json:"affordPercent,omitempty"`
	AffordVerdict string  `json:"affordVerdict,omitempty"`
}

func mapPropertySummary(p model.Property) propertySummary {
	return propertySummary{
		ID:         p.ID,
		OwnerID:    p.OwnerID,
		Address:    p.Address,
		Latitude:   p.Latitude,
		Longitude:  p.Longitude,
		Bedrooms:   p.Bedrooms,
		Bathrooms:  p.Bathrooms,
		RentAmount: p.RentAmount,
		QolScore:   p.QolScore,
		IsVerified: p.IsVerified,
		Status:     string(p.Status),
	}
}

// annotateAffordability fills the afford fields when the viewer is a tenant
// with a declared income range. The monthly budget is the top of the range.
func (s *Server) annotateAffordability(summary *propertySummary, identity *model.User) {
	if identity == nil || identity.Role != model.RoleTenant || identity.IncomeMax == nil {
		return
	}
	rating := afford.RateWith(float64(summary.RentAmount), float64(*identity.IncomeMax), s.thresholds)
	if rating.Verdict == afford.VerdictUnknown {
		return
	}
	percent := rating.Percent
	summary.AffordPercent = &percent
	summary.AffordVerdict = string(rating.Verdict)
}

// handleListProperties is the browse surface. The store returns the latest
// available snapshot; filtering and sorting run server-side with the same
// pipeline semantics on every request, so a repeated query is idempotent.
func (s *Server) handleListProperties(w http.ResponseWriter, r *http.Request) {
	state, errCode := parseFilterState(r.URL.Query())
	if errCode != "" {
		writeError(w, http.StatusBadRequest, errCode)
		return
	}

	properties, err := s.store.ListAvailableProperties(r.Context(), parseLimit(r, 200))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	byID := make(map[string]model.Property, len(properties))
	listings := make([]filter.Listing, 0, len(properties))
	for _, p := range properties {
		byID[p.ID] = p
		listings = append(listings, filter.Listing{
			ID:       p.ID,
			Label:    p.Address,
			Price:    p.RentAmount,
			Score:    float64(p.QolScore),
			Category: "all",
			Verified: p.IsVerified,
		})
	}

	identity := identityFromContext(r.Context())
	filtered := filter.Apply(listings, state)
	resp := make([]propertySummary, 0, len(filtered))
	for _, item := range filtered {
		summary := mapPropertySummary(byID[item.ID])
		s.annotateAffordability(&summary, identity)
		resp = append(resp, summary)
	}

	writeJSON(w, http.StatusOK, resp)
}

type createPropertyRequest struct {
	Address    string  `json:"address"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Bedrooms   int     `json:"bedrooms"`
	Bathrooms  int     `json:"bathrooms"`
	RentAmount int64   `json:"rentAmount"`
	QolScore   int     `json:"qolScore"`
}

func (s *Server) handleCreateProperty(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	var req createPropertyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	req.Address = strings.TrimSpace(req.Address)
	if req.Address == "" || req.RentAmount <= 0 {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}
	if req.QolScore < 0 || req.QolScore > 100 {
		writeError(w, http.StatusBadRequest, "invalid_qol_score")
		return
	}

	now := time.Now().UTC()
	property := model.Property{
		ID:         uuid.NewString(),
		OwnerID:    identity.ID,
		Address:    req.Address,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		Bedrooms:   req.Bedrooms,
		Bathrooms:  req.Bathrooms,
		RentAmount: req.RentAmount,
		QolScore:   req.QolScore,
		Status:     model.PropertyAvailable,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.store.CreateProperty(r.Context(), property); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	s.feed.Publish(r.Context(), realtime.Event{Table: "properties", ID: property.ID, Action: "insert"})
	writeJSON(w, http.StatusCreated, mapPropertySummary(property))
}

func (s *Server) handleListOwnProperties(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	properties, err := s.store.ListPropertiesByOwner(r.Context(), identity.ID, parseLimit(r, 200))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	resp := make([]propertySummary, 0, len(properties))
	for _, p := range properties {
		resp = append(resp, mapPropertySummary(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetProperty(w http.ResponseWriter, r *http.Request) {
	propertyID := chi.URLParam(r, "propertyId")
	if propertyID == "" {
		writeError(w, http.StatusBadRequest, "missing_property_id")
		return
	}

	property, err := s.store.GetProperty(r.Context(), propertyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "property_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	summary := mapPropertySummary(property)
	s.annotateAffordability(&summary, identityFromContext(r.Context()))
	writeJSON(w, http.StatusOK, summary)
}

type updatePropertyStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleUpdatePropertyStatus(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	propertyID := chi.URLParam(r, "propertyId")
	if propertyID == "" {
		writeError(w, http.StatusBadRequest, "missing_property_id")
		return
	}

	var req updatePropertyStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	status := model.PropertyStatus(strings.TrimSpace(strings.ToLower(req.Status)))
	switch status {
	case model.PropertyAvailable, model.PropertyRented, model.PropertyMaintenance, model.PropertyUnlisted:
	default:
		writeError(w, http.StatusBadRequest, "invalid_status")
		return
	}

	property, err := s.store.GetProperty(r.Context(), propertyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "property_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if property.OwnerID != identity.ID {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	if err := s.store.UpdatePropertyStatus(r.Context(), propertyID, status); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	property.Status = status
	s.feed.Publish(r.Context(), realtime.Event{Table: "properties", ID: propertyID, Action: "update"})
	writeJSON(w, http.StatusOK, mapPropertySummary(property))
}
