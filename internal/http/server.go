package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/saintdannyyy/shelta/internal/afford"
	"github.com/saintdannyyy/shelta/internal/auth"
	"github.com/saintdannyyy/shelta/internal/config"
	"github.com/saintdannyyy/shelta/internal/filter"
	"github.com/saintdannyyy/shelta/internal/model"
	"github.com/saintdannyyy/shelta/internal/realtime"
	"github.com/saintdannyyy/shelta/internal/report"
	"github.com/saintdannyyy/shelta/internal/repository"
	"github.com/saintdannyyy/shelta/internal/routeguard"
)

type Server struct {
	cfg        config.Config
	store      *repository.Store
	feed       *realtime.Feed
	saver      report.Saver
	thresholds afford.Thresholds
}

func NewServer(cfg config.Config, store *repository.Store, feed *realtime.Feed) *Server {
	thresholds := afford.Thresholds{
		AffordableMax: cfg.AffordableMax,
		StretchingMax: cfg.StretchingMax,
	}
	return &Server{
		cfg:        cfg,
		store:      store,
		feed:       feed,
		saver:      report.FileSaver{Dir: cfg.ExportDir},
		thresholds: thresholds,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/auth/signup", s.handleSignup)
	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/refresh", s.handleRefresh)
	r.With(s.authMiddleware).Post("/auth/logout", s.handleLogout)
	r.With(s.authMiddleware).Get("/auth/me", s.handleGetMe)
	r.With(s.authMiddleware).Patch("/auth/me", s.handleUpdateMe)

	r.Route("/properties", func(r chi.Router) {
		r.With(s.authMiddleware).Get("/", s.handleListProperties)
		r.With(s.authMiddleware, s.requireRole(model.RoleLandlord)).Post("/", s.handleCreateProperty)
		r.With(s.authMiddleware, s.requireRole(model.RoleLandlord)).Get("/mine", s.handleListOwnProperties)
		r.With(s.authMiddleware).Get("/{propertyId}", s.handleGetProperty)
		r.With(s.authMiddleware, s.requireRole(model.RoleLandlord)).Patch("/{propertyId}/status", s.handleUpdatePropertyStatus)
	})

	r.Route("/applications", func(r chi.Router) {
		r.With(s.authMiddleware, s.requireRole(model.RoleTenant)).Post("/", s.handleCreateApplication)
		r.With(s.authMiddleware).Get("/", s.handleListApplications)
		r.With(s.authMiddleware, s.requireRole(model.RoleLandlord)).Patch("/{applicationId}/status", s.handleUpdateApplicationStatus)
	})

	r.Route("/tickets", func(r chi.Router) {
		r.With(s.authMiddleware, s.requireRole(model.RoleTenant)).Post("/", s.handleCreateTicket)
		r.With(s.authMiddleware).Get("/", s.handleListTickets)
		r.With(s.authMiddleware).Get("/{ticketId}", s.handleGetTicket)
		r.With(s.authMiddleware).Patch("/{ticketId}", s.handleUpdateTicket)
	})

	r.Route("/ledger", func(r chi.Router) {
		r.With(s.authMiddleware, s.requireRole(model.RoleLandlord)).Post("/", s.handleCreateLedgerEntry)
		r.With(s.authMiddleware).Get("/", s.handleListLedger)
		r.With(s.authMiddleware, s.requireRole(model.RoleLandlord)).Post("/{entryId}/paid", s.handleMarkLedgerPaid)
		r.With(s.authMiddleware, s.requireRole(model.RoleLandlord)).Post("/export", s.handleExportLedger)
	})

	r.Route("/loans", func(r chi.Router) {
		r.With(s.authMiddleware, s.requireRole(model.RoleTenant)).Post("/estimate", s.handleEstimateLoan)
		r.With(s.authMiddleware, s.requireRole(model.RoleTenant)).Post("/", s.handleCreateLoanApplication)
		r.With(s.authMiddleware).Get("/", s.handleListLoanApplications)
		r.With(s.authMiddleware, s.requireRole(model.RoleAgent)).Patch("/{loanId}/status", s.handleUpdateLoanStatus)
	})

	r.Route("/jobs", func(r chi.Router) {
		r.With(s.authMiddleware, s.requireRole(model.RoleLandlord)).Post("/", s.handleCreateJobPosting)
		r.With(s.authMiddleware, s.requireRole(model.RoleProvider)).Get("/", s.handleListOpenJobs)
		r.With(s.authMiddleware, s.requireRole(model.RoleProvider)).Post("/{jobId}/claim", s.handleClaimJob)
	})

	r.With(s.authMiddleware).Get("/providers", s.handleListProviders)
	r.With(s.authMiddleware).Get("/events/{table}", s.handleStreamChanges)

	return r
}

// authMiddleware verifies the bearer token and loads the identity row behind
// it. A valid token whose profile row is gone is treated as signed out: the
// client gets a login redirect, not a server error.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing_token")
			return
		}

		claims, err := auth.ParseToken(s.cfg.JWTSecret, token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}

		user, err := s.store.GetUserByID(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				writeRedirect(w, http.StatusUnauthorized, "profile_missing", routeguard.LoginPath)
				return
			}
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}

		ctx := context.WithValue(r.Context(), identityKey{}, &user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole gates a route on the identity's role. A mismatch does not leak
// whether the route exists for other roles; the response carries the caller's
// own dashboard path so clients can bounce there.
func (s *Server) requireRole(required model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := identityFromContext(r.Context())
			decision := routeguard.Decide(identity, required)
			if decision.Render {
				next.ServeHTTP(w, r)
				return
			}
			if decision.Redirect == routeguard.LoginPath {
				writeRedirect(w, http.StatusUnauthorized, "missing_token", decision.Redirect)
				return
			}
			writeRedirect(w, http.StatusForbidden, "forbidden", decision.Redirect)
		})
	}
}

type identityKey struct{}

func identityFromContext(ctx context.Context) *model.User {
	value := ctx.Value(identityKey{})
	user, _ := value.(*model.User)
	return user
}

// parseFilterState reads the listing pipeline constraints from query
// parameters. Absent parameters leave the zero value, which the pipeline
// treats as "no constraint".
func parseFilterState(query map[string][]string) (filter.State, string) {
	get := func(key string) string {
		values := query[key]
		if len(values) == 0 {
			return ""
		}
		return strings.TrimSpace(values[0])
	}

	state := filter.State{
		SearchText: get("search"),
		Category:   get("category"),
	}
	if raw := get("price_min"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			return filter.State{}, "invalid_price_min"
		}
		state.PriceMin = parsed
	}
	if raw := get("price_max"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			return filter.State{}, "invalid_price_max"
		}
		state.PriceMax = parsed
	}
	if state.PriceMin > 0 && state.PriceMax > 0 && state.PriceMin > state.PriceMax {
		return filter.State{}, "invalid_price_range"
	}
	if raw := get("min_score"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 {
			return filter.State{}, "invalid_min_score"
		}
		state.MinScore = parsed
	}
	if raw := get("max_distance_km"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 {
			return filter.State{}, "invalid_max_distance"
		}
		state.MaxDistanceKm = parsed
	}
	if raw := get("sort"); raw != "" {
		key := filter.SortKey(raw)
		if !filter.ValidSortKey(key) {
			return filter.State{}, "invalid_sort"
		}
		state.Sort = key
	}
	return state, ""
}

func parseLimit(r *http.Request, fallback int) int {
	limit := fallback
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	return limit
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func decodeStrict(raw []byte, out interface{}) error {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func writeRedirect(w http.ResponseWriter, status int, code, redirect string) {
	writeJSON(w, status, map[string]string{"error": code, "redirect": redirect})
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return ""
}
