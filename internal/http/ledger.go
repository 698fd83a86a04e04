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
	"github.com/saintdannyyy/shelta/internal/report"
)

type ledgerSummary struct {
	ID         string  `json:"id"`
	PropertyID string  `json:"propertyId"`
	TenantID   string  `json:"tenantId"`
	LandlordID string  `json:"landlordId"`
	RentAmount int64   `json:"rentAmount"`
	DueDate    string  `json:"dueDate"`
	PaidDate   *string `json:"paidDate,omitempty"`
	Status     string  `json:"status"`
}

func mapLedgerSummary(entry model.RentLedgerEntry) ledgerSummary {
	summary := ledgerSummary{
		ID:         entry.ID,
		PropertyID: entry.PropertyID,
		TenantID:   entry.TenantID,
		LandlordID: entry.LandlordID,
		RentAmount: entry.RentAmount,
		DueDate:    entry.DueDate.UTC().Format("2006-01-02"),
		Status:     string(entry.Status),
	}
	if entry.PaidDate != nil {
		date := entry.PaidDate.UTC().Format("2006-01-02")
		summary.PaidDate = &date
	}
	return summary
}

type createLedgerEntryRequest struct {
	PropertyID string `json:"propertyId"`
	TenantID   string `json:"tenantId"`
	RentAmount int64  `json:"rentAmount"`
	DueDate    string `json:"dueDate"`
}

func (s *Server) handleCreateLedgerEntry(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	var req createLedgerEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.PropertyID == "" || req.TenantID == "" || req.RentAmount <= 0 || req.DueDate == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	dueDate, err := time.Parse("2006-01-02", req.DueDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_due_date")
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
	if property.OwnerID != identity.ID {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	now := time.Now().UTC()
	entry := model.RentLedgerEntry{
		ID:         uuid.NewString(),
		PropertyID: property.ID,
		TenantID:   req.TenantID,
		LandlordID: identity.ID,
		RentAmount: req.RentAmount,
		DueDate:    dueDate,
		Status:     model.LedgerPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.store.CreateLedgerEntry(r.Context(), entry); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	s.feed.Publish(r.Context(), realtime.Event{Table: "rent_ledger_entries", ID: entry.ID, Action: "insert"})
	writeJSON(w, http.StatusCreated, mapLedgerSummary(entry))
}

func (s *Server) handleListLedger(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	limit := parseLimit(r, 200)

	var (
		entries []model.RentLedgerEntry
		err     error
	)
	switch identity.Role {
	case model.RoleTenant:
		entries, err = s.store.ListLedgerByTenant(r.Context(), identity.ID, limit)
	case model.RoleLandlord:
		entries, err = s.store.ListLedgerByLandlord(r.Context(), identity.ID, limit)
	default:
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	resp := make([]ledgerSummary, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, mapLedgerSummary(entry))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMarkLedgerPaid(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	entryID := chi.URLParam(r, "entryId")
	if entryID == "" {
		writeError(w, http.StatusBadRequest, "missing_entry_id")
		return
	}

	entries, err := s.store.ListLedgerByLandlord(r.Context(), identity.ID, 1000)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	owned := false
	for _, entry := range entries {
		if entry.ID == entryID {
			owned = true
			break
		}
	}
	if !owned {
		writeError(w, http.StatusNotFound, "entry_not_found")
		return
	}

	marked, err := s.store.MarkLedgerPaid(r.Context(), entryID, time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if !marked {
		writeError(w, http.StatusConflict, "entry_not_payable")
		return
	}

	s.feed.Publish(r.Context(), realtime.Event{Table: "rent_ledger_entries", ID: entryID, Action: "update"})
	writeJSON(w, http.StatusOK, map[string]string{"status": "paid"})
}

// handleExportLedger renders the landlord's ledger as the fixed-width RCD
// text report, writes it to the export directory and also returns the body
// so the client can offer a download without a second round trip.
func (s *Server) handleExportLedger(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	entries, err := s.store.ListLedgerByLandlord(r.Context(), identity.ID, 10000)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	tenantNames := make(map[string]string)
	propertyNames := make(map[string]string)
	records := make([]report.Record, 0, len(entries))
	for _, entry := range entries {
		tenant, ok := tenantNames[entry.TenantID]
		if !ok {
			tenant = entry.TenantID
			if user, err := s.store.GetUserByID(r.Context(), entry.TenantID); err == nil {
				tenant = strings.TrimSpace(user.FirstName + " " + user.LastName)
			}
			tenantNames[entry.TenantID] = tenant
		}
		property, ok := propertyNames[entry.PropertyID]
		if !ok {
			property = entry.PropertyID
			if p, err := s.store.GetProperty(r.Context(), entry.PropertyID); err == nil {
				property = p.Address
			}
			propertyNames[entry.PropertyID] = property
		}

		record := report.Record{
			Tenant:   tenant,
			Property: property,
			Amount:   entry.RentAmount,
			Status:   string(entry.Status),
			DueDate:  entry.DueDate.UTC().Format("2006-01-02"),
		}
		if entry.PaidDate != nil {
			record.PaidDate = entry.PaidDate.UTC().Format("2006-01-02")
		}
		records = append(records, record)
	}

	generatedAt := time.Now().UTC()
	filename, err := report.ExportTo(s.saver, records, generatedAt)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export_failed")
		return
	}

	content := report.Export(records, report.BuildSummary(records), generatedAt)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(content))
}
