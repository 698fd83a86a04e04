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
	"github.com/saintdannyyy/shelta/internal/repository"
)

type ticketSummary struct {
	ID            string  `json:"id"`
	PropertyID    string  `json:"propertyId"`
	TenantID      string  `json:"tenantId"`
	ProviderID    *string `json:"providerId,omitempty"`
	Category      string  `json:"category"`
	Priority      string  `json:"priority"`
	Description   string  `json:"description"`
	Status        string  `json:"status"`
	EstimatedCost *int64  `json:"estimatedCost,omitempty"`
	ActualCost    *int64  `json:"actualCost,omitempty"`
	CreatedAt     string  `json:"createdAt"`
}

func mapTicketSummary(t model.MaintenanceTicket) ticketSummary {
	return ticketSummary{
		ID:            t.ID,
		PropertyID:    t.PropertyID,
		TenantID:      t.TenantID,
		ProviderID:    t.ProviderID,
		Category:      t.Category,
		Priority:      string(t.Priority),
		Description:   t.Description,
		Status:        string(t.Status),
		EstimatedCost: t.EstimatedCost,
		ActualCost:    t.ActualCost,
		CreatedAt:     t.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func validTicketPriority(p model.TicketPriority) bool {
	switch p {
	case model.PriorityLow, model.PriorityNormal, model.PriorityHigh, model.PriorityEmergency:
		return true
	default:
		return false
	}
}

type createTicketRequest struct {
	PropertyID  string `json:"propertyId"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
	Description string `json:"description"`
}

func (s *Server) handleCreateTicket(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	var req createTicketRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	req.Category = strings.TrimSpace(strings.ToLower(req.Category))
	req.Description = strings.TrimSpace(req.Description)
	if req.PropertyID == "" || req.Category == "" || req.Description == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	priority := model.TicketPriority(strings.TrimSpace(strings.ToLower(req.Priority)))
	if priority == "" {
		priority = model.PriorityNormal
	}
	if !validTicketPriority(priority) {
		writeError(w, http.StatusBadRequest, "invalid_priority")
		return
	}

	if _, err := s.store.GetProperty(r.Context(), req.PropertyID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "property_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	now := time.Now().UTC()
	ticket := model.MaintenanceTicket{
		ID:          uuid.NewString(),
		PropertyID:  req.PropertyID,
		TenantID:    identity.ID,
		Category:    req.Category,
		Priority:    priority,
		Description: req.Description,
		Status:      model.TicketOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.CreateTicket(r.Context(), ticket); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	s.feed.Publish(r.Context(), realtime.Event{Table: "maintenance_tickets", ID: ticket.ID, Action: "insert"})
	writeJSON(w, http.StatusCreated, mapTicketSummary(ticket))
}

func (s *Server) handleListTickets(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	limit := parseLimit(r, 100)

	var (
		tickets []model.MaintenanceTicket
		err     error
	)
	switch identity.Role {
	case model.RoleTenant:
		tickets, err = s.store.ListTicketsByTenant(r.Context(), identity.ID, limit)
	case model.RoleLandlord:
		tickets, err = s.store.ListTicketsByOwner(r.Context(), identity.ID, limit)
	case model.RoleProvider:
		tickets, err = s.store.ListTicketsByProvider(r.Context(), identity.ID, limit)
	default:
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	resp := make([]ticketSummary, 0, len(tickets))
	for _, ticket := range tickets {
		resp = append(resp, mapTicketSummary(ticket))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetTicket(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	ticketID := chi.URLParam(r, "ticketId")
	if ticketID == "" {
		writeError(w, http.StatusBadRequest, "missing_ticket_id")
		return
	}

	ticket, err := s.store.GetTicket(r.Context(), ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "ticket_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	if !s.canSeeTicket(r, identity, ticket) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	writeJSON(w, http.StatusOK, mapTicketSummary(ticket))
}

func (s *Server) canSeeTicket(r *http.Request, identity *model.User, ticket model.MaintenanceTicket) bool {
	switch identity.Role {
	case model.RoleTenant:
		return ticket.TenantID == identity.ID
	case model.RoleProvider:
		return ticket.ProviderID != nil && *ticket.ProviderID == identity.ID
	case model.RoleLandlord:
		property, err := s.store.GetProperty(r.Context(), ticket.PropertyID)
		return err == nil && property.OwnerID == identity.ID
	default:
		return false
	}
}

type updateTicketRequest struct {
	Status        *string `json:"status,omitempty"`
	ProviderID    *string `json:"providerId,omitempty"`
	EstimatedCost *int64  `json:"estimatedCost,omitempty"`
	ActualCost    *int64  `json:"actualCost,omitempty"`
}

// handleUpdateTicket covers both halves of the workflow: landlords assign a
// provider and set cost estimates, assigned providers move the status along.
func (s *Server) handleUpdateTicket(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	ticketID := chi.URLParam(r, "ticketId")
	if ticketID == "" {
		writeError(w, http.StatusBadRequest, "missing_ticket_id")
		return
	}

	var req updateTicketRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	ticket, err := s.store.GetTicket(r.Context(), ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "ticket_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	update := repository.TicketUpdate{}
	switch identity.Role {
	case model.RoleLandlord:
		property, err := s.store.GetProperty(r.Context(), ticket.PropertyID)
		if err != nil || property.OwnerID != identity.ID {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		if req.ProviderID != nil && strings.TrimSpace(*req.ProviderID) != "" {
			update.ProviderID = req.ProviderID
			status := model.TicketAssigned
			update.Status = &status
		}
		update.EstimatedCost = req.EstimatedCost
		update.ActualCost = req.ActualCost
		if req.Status != nil {
			status := model.TicketStatus(strings.TrimSpace(strings.ToLower(*req.Status)))
			if status != model.TicketClosed {
				writeError(w, http.StatusBadRequest, "invalid_status")
				return
			}
			update.Status = &status
		}
	case model.RoleProvider:
		if ticket.ProviderID == nil || *ticket.ProviderID != identity.ID {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		if req.Status == nil {
			writeError(w, http.StatusBadRequest, "missing_status")
			return
		}
		status := model.TicketStatus(strings.TrimSpace(strings.ToLower(*req.Status)))
		switch status {
		case model.TicketInProgress, model.TicketCompleted:
		default:
			writeError(w, http.StatusBadRequest, "invalid_status")
			return
		}
		update.Status = &status
		update.ActualCost = req.ActualCost
	default:
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	if err := s.store.UpdateTicket(r.Context(), ticketID, update); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	updated, err := s.store.GetTicket(r.Context(), ticketID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	s.feed.Publish(r.Context(), realtime.Event{Table: "maintenance_tickets", ID: ticketID, Action: "update"})
	writeJSON(w, http.StatusOK, mapTicketSummary(updated))
}
