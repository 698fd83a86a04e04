package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/saintdannyyy/shelta/internal/afford"
	"github.com/saintdannyyy/shelta/internal/model"
	"github.com/saintdannyyy/shelta/internal/realtime"
)

type loanEstimateRequest struct {
	LoanAmount      float64 `json:"loanAmount"`
	InterestPercent float64 `json:"interestPercent"`
	TermMonths      int     `json:"termMonths"`
}

type loanEstimateResponse struct {
	Interest       float64 `json:"interest"`
	TotalRepayable float64 `json:"totalRepayable"`
	MonthlyPayment float64 `json:"monthlyPayment"`
}

// handleEstimateLoan is the preview step of the rent-advance flow. Nothing
// is persisted; the client calls it on every slider change.
func (s *Server) handleEstimateLoan(w http.ResponseWriter, r *http.Request) {
	var req loanEstimateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	estimate, err := afford.EstimateLoan(req.LoanAmount, req.InterestPercent, req.TermMonths)
	if err != nil {
		if errors.Is(err, afford.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "invalid_loan_terms")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusOK, loanEstimateResponse{
		Interest:       estimate.Interest,
		TotalRepayable: estimate.TotalRepayable,
		MonthlyPayment: estimate.MonthlyPayment,
	})
}

type loanSummary struct {
	ID             string  `json:"id"`
	TenantID       string  `json:"tenantId"`
	PropertyID     string  `json:"propertyId"`
	LoanProvider   string  `json:"loanProvider"`
	LoanAmount     int64   `json:"loanAmount"`
	LoanTermMonths int     `json:"loanTermMonths"`
	MonthlyRent    int64   `json:"monthlyRent"`
	Status         string  `json:"status"`
	SubmittedAt    string  `json:"submittedAt"`
	MonthlyPayment float64 `json:"monthlyPayment"`
}

func (s *Server) mapLoanSummary(loan model.LoanApplication) loanSummary {
	summary := loanSummary{
		ID:             loan.ID,
		TenantID:       loan.TenantID,
		PropertyID:     loan.PropertyID,
		LoanProvider:   loan.LoanProvider,
		LoanAmount:     loan.LoanAmount,
		LoanTermMonths: loan.LoanTermMonths,
		MonthlyRent:    loan.MonthlyRent,
		Status:         string(loan.Status),
		SubmittedAt:    loan.SubmittedAt.UTC().Format(time.RFC3339),
	}
	if estimate, err := afford.EstimateLoan(float64(loan.LoanAmount), s.cfg.LoanRatePercent, loan.LoanTermMonths); err == nil {
		summary.MonthlyPayment = estimate.MonthlyPayment
	}
	return summary
}

type createLoanRequest struct {
	PropertyID   string `json:"propertyId"`
	LoanProvider string `json:"loanProvider"`
	LoanAmount   int64  `json:"loanAmount"`
	TermMonths   int    `json:"termMonths"`
}

func (s *Server) handleCreateLoanApplication(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	var req createLoanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	req.LoanProvider = strings.TrimSpace(req.LoanProvider)
	if req.PropertyID == "" || req.LoanProvider == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}
	if req.LoanAmount <= 0 || req.TermMonths <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_loan_terms")
		return
	}

	property, err := s.store.GetProperty(r.Context(), req.PropertyID)
	if err != nil {
		writeError(w, http.StatusNotFound, "property_not_found")
		return
	}

	now := time.Now().UTC()
	loan := model.LoanApplication{
		ID:             uuid.NewString(),
		TenantID:       identity.ID,
		PropertyID:     property.ID,
		LoanProvider:   req.LoanProvider,
		LoanAmount:     req.LoanAmount,
		LoanTermMonths: req.TermMonths,
		MonthlyRent:    property.RentAmount,
		Status:         model.LoanPending,
		SubmittedAt:    now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.store.CreateLoanApplication(r.Context(), loan); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	s.feed.Publish(r.Context(), realtime.Event{Table: "loan_applications", ID: loan.ID, Action: "insert"})
	writeJSON(w, http.StatusCreated, s.mapLoanSummary(loan))
}

func (s *Server) handleListLoanApplications(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	if identity.Role != model.RoleTenant {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	loans, err := s.store.ListLoanApplicationsByTenant(r.Context(), identity.ID, parseLimit(r, 100))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	resp := make([]loanSummary, 0, len(loans))
	for _, loan := range loans {
		resp = append(resp, s.mapLoanSummary(loan))
	}
	writeJSON(w, http.StatusOK, resp)
}

type updateLoanStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleUpdateLoanStatus(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "loanId")
	if loanID == "" {
		writeError(w, http.StatusBadRequest, "missing_loan_id")
		return
	}

	var req updateLoanStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	status := model.LoanStatus(strings.TrimSpace(strings.ToLower(req.Status)))
	switch status {
	case model.LoanApproved, model.LoanRejected, model.LoanFunded, model.LoanCancelled:
	default:
		writeError(w, http.StatusBadRequest, "invalid_status")
		return
	}

	updated, err := s.store.UpdateLoanStatus(r.Context(), loanID, status)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if !updated {
		writeError(w, http.StatusNotFound, "loan_not_found")
		return
	}

	s.feed.Publish(r.Context(), realtime.Event{Table: "loan_applications", ID: loanID, Action: "update"})
	writeJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}
