package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/saintdannyyy/shelta/internal/filter"
	"github.com/saintdannyyy/shelta/internal/model"
	"github.com/saintdannyyy/shelta/internal/realtime"
)

type jobSummary struct {
	ID         string  `json:"id"`
	TicketID   string  `json:"ticketId"`
	Category   string  `json:"category"`
	Priority   string  `json:"priority"`
	Location   string  `json:"location"`
	DistanceKm float64 `json:"distanceKm"`
	Budget     int64   `json:"budget"`
	Status     string  `json:"status"`
	CreatedAt  string  `json:"createdAt"`
}

func mapJobSummary(job model.JobPosting) jobSummary {
	return jobSummary{
		ID:         job.ID,
		TicketID:   job.TicketID,
		Category:   job.Category,
		Priority:   string(job.Priority),
		Location:   job.Location,
		DistanceKm: job.DistanceKm,
		Budget:     job.Budget,
		Status:     string(job.Status),
		CreatedAt:  job.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type createJobRequest struct {
	TicketID   string  `json:"ticketId"`
	Location   string  `json:"location"`
	DistanceKm float64 `json:"distanceKm"`
	Budget     int64   `json:"budget"`
}

// handleCreateJobPosting publishes a maintenance ticket to the provider
// marketplace. Category and priority come from the ticket itself.
func (s *Server) handleCreateJobPosting(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	var req createJobRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.TicketID == "" || req.Budget <= 0 {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	ticket, err := s.store.GetTicket(r.Context(), req.TicketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "ticket_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	property, err := s.store.GetProperty(r.Context(), ticket.PropertyID)
	if err != nil || property.OwnerID != identity.ID {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	location := strings.TrimSpace(req.Location)
	if location == "" {
		location = property.Address
	}

	now := time.Now().UTC()
	job := model.JobPosting{
		ID:         uuid.NewString(),
		TicketID:   ticket.ID,
		Category:   ticket.Category,
		Priority:   ticket.Priority,
		Location:   location,
		DistanceKm: req.DistanceKm,
		Budget:     req.Budget,
		Status:     model.JobOpen,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.store.CreateJobPosting(r.Context(), job); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	s.feed.Publish(r.Context(), realtime.Event{Table: "job_postings", ID: job.ID, Action: "insert"})
	writeJSON(w, http.StatusCreated, mapJobSummary(job))
}

// handleListOpenJobs is the provider's job board. It runs the same filter
// pipeline as the property browse surface; category here is the trade, so
// "category=plumbing" narrows to plumbing jobs.
func (s *Server) handleListOpenJobs(w http.ResponseWriter, r *http.Request) {
	state, errCode := parseFilterState(r.URL.Query())
	if errCode != "" {
		writeError(w, http.StatusBadRequest, errCode)
		return
	}

	jobs, err := s.store.ListOpenJobPostings(r.Context(), parseLimit(r, 200))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	byID := make(map[string]model.JobPosting, len(jobs))
	listings := make([]filter.Listing, 0, len(jobs))
	for _, job := range jobs {
		byID[job.ID] = job
		listings = append(listings, filter.Listing{
			ID:         job.ID,
			Label:      job.Location,
			Price:      job.Budget,
			DistanceKm: job.DistanceKm,
			Category:   job.Category,
		})
	}

	filtered := filter.Apply(listings, state)
	resp := make([]jobSummary, 0, len(filtered))
	for _, item := range filtered {
		resp = append(resp, mapJobSummary(byID[item.ID]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleClaimJob assigns an open posting to the calling provider. The claim
// is a single conditional update, so two providers racing for the same job
// cannot both win; the loser gets a conflict.
func (s *Server) handleClaimJob(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	jobID := chi.URLParam(r, "jobId")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "missing_job_id")
		return
	}

	claimed, err := s.store.ClaimJobPosting(r.Context(), jobID, identity.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if !claimed {
		writeError(w, http.StatusConflict, "job_already_claimed")
		return
	}

	s.feed.Publish(r.Context(), realtime.Event{Table: "job_postings", ID: jobID, Action: "update"})
	writeJSON(w, http.StatusOK, map[string]string{"status": "claimed"})
}

type providerSummary struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Skills        []string `json:"skills"`
	AverageRating float64  `json:"averageRating"`
	JobsCompleted int      `json:"jobsCompleted"`
	PriceMin      int64    `json:"priceMin"`
	PriceMax      int64    `json:"priceMax"`
	DistanceKm    float64  `json:"distanceKm"`
}

// handleListProviders lists available service providers, filtered and sorted
// with the shared pipeline. Rating maps to score, so "sort=score_desc" gives
// the best-rated providers first.
func (s *Server) handleListProviders(w http.ResponseWriter, r *http.Request) {
	state, errCode := parseFilterState(r.URL.Query())
	if errCode != "" {
		writeError(w, http.StatusBadRequest, errCode)
		return
	}

	providers, err := s.store.ListAvailableProviders(r.Context(), parseLimit(r, 200))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	byID := make(map[string]model.ServiceProvider, len(providers))
	listings := make([]filter.Listing, 0, len(providers))
	for _, provider := range providers {
		byID[provider.ID] = provider
		category := "all"
		if len(provider.Skills) > 0 {
			category = provider.Skills[0]
		}
		listings = append(listings, filter.Listing{
			ID:         provider.ID,
			Label:      provider.Name,
			Price:      provider.PriceMin,
			Score:      provider.AverageRating,
			DistanceKm: provider.DistanceKm,
			Category:   category,
		})
	}

	filtered := filter.Apply(listings, state)
	resp := make([]providerSummary, 0, len(filtered))
	for _, item := range filtered {
		provider := byID[item.ID]
		skills := provider.Skills
		if skills == nil {
			skills = []string{}
		}
		resp = append(resp, providerSummary{
			ID:            provider.ID,
			Name:          provider.Name,
			Skills:        skills,
			AverageRating: provider.AverageRating,
			JobsCompleted: provider.JobsCompleted,
			PriceMin:      provider.PriceMin,
			PriceMax:      provider.PriceMax,
			DistanceKm:    provider.DistanceKm,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
