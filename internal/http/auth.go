package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/saintdannyyy/shelta/internal/auth"
	"github.com/saintdannyyy/shelta/internal/crypto"
	"github.com/saintdannyyy/shelta/internal/model"
	"github.com/saintdannyyy/shelta/internal/realtime"
	"github.com/saintdannyyy/shelta/internal/repository"
	"github.com/saintdannyyy/shelta/internal/routeguard"
)

// The signup wizard submits once, with the role tag picking the request
// shape. Fields belonging to another role's step are rejected, not ignored.
type signupBase struct {
	Role            string `json:"role"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
}

type tenantSignupRequest struct {
	signupBase
	IncomeMin *int64 `json:"incomeMin,omitempty"`
	IncomeMax *int64 `json:"incomeMax,omitempty"`
}

type providerSignupRequest struct {
	signupBase
	BusinessName string   `json:"businessName,omitempty"`
	Skills       []string `json:"skills,omitempty"`
}

type authResponse struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	User         userSummary `json:"user"`
	Home         string      `json:"home"`
}

type userSummary struct {
	ID         string `json:"id"`
	Role       string `json:"role"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	IncomeMin  *int64 `json:"incomeMin,omitempty"`
	IncomeMax  *int64 `json:"incomeMax,omitempty"`
	IsVerified bool   `json:"isVerified"`
}

func mapUserSummary(user model.User) userSummary {
	return userSummary{
		ID:         user.ID,
		Role:       string(user.Role),
		Email:      user.Email,
		Phone:      user.Phone,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		IncomeMin:  user.IncomeMin,
		IncomeMax:  user.IncomeMax,
		IsVerified: user.IsVerified,
	}
}

// handleSignup is the final step of the signup wizard: the client collects
// the role choice and the role's extra fields, then submits once. Provider
// accounts also get a service provider profile so they show up in matching.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	var tag struct {
		Role string `json:"role"`
	}
	if err := json.Unmarshal(raw, &tag); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	role := model.Role(strings.TrimSpace(strings.ToLower(tag.Role)))
	if !model.ValidRole(role) {
		writeError(w, http.StatusBadRequest, "invalid_role")
		return
	}

	var (
		base      signupBase
		incomeMin *int64
		incomeMax *int64
		business  string
		skills    []string
	)
	switch role {
	case model.RoleTenant:
		var req tenantSignupRequest
		if err := decodeStrict(raw, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		base, incomeMin, incomeMax = req.signupBase, req.IncomeMin, req.IncomeMax
	case model.RoleProvider:
		var req providerSignupRequest
		if err := decodeStrict(raw, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		base, business, skills = req.signupBase, req.BusinessName, req.Skills
	default:
		var req signupBase
		if err := decodeStrict(raw, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		base = req
	}

	base.Email = strings.TrimSpace(strings.ToLower(base.Email))
	if base.Email == "" || base.Password == "" || base.FirstName == "" || base.LastName == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}
	if base.Password != base.ConfirmPassword {
		writeError(w, http.StatusBadRequest, "password_mismatch")
		return
	}
	if incomeMin != nil && incomeMax != nil && *incomeMin > *incomeMax {
		writeError(w, http.StatusBadRequest, "invalid_income_range")
		return
	}

	hash, err := crypto.HashPassword(base.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "password_hash_failed")
		return
	}

	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Role:         role,
		Email:        base.Email,
		Phone:        strings.TrimSpace(base.Phone),
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(base.FirstName),
		LastName:     strings.TrimSpace(base.LastName),
		IncomeMin:    incomeMin,
		IncomeMax:    incomeMax,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var provider *model.ServiceProvider
	if role == model.RoleProvider {
		name := strings.TrimSpace(business)
		if name == "" {
			name = user.FirstName + " " + user.LastName
		}
		provider = &model.ServiceProvider{
			ID:          uuid.NewString(),
			UserID:      user.ID,
			Name:        name,
			Skills:      skills,
			IsAvailable: true,
			CreatedAt:   now,
		}
	}

	if err := s.store.CreateUserWithProfile(r.Context(), user, provider); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			writeError(w, http.StatusConflict, "email_taken")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	accessToken, refreshToken, err := s.issueTokens(r.Context(), user, r.UserAgent(), clientIP(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token_error")
		return
	}

	s.feed.Publish(r.Context(), realtime.Event{Table: "users", ID: user.ID, Action: "insert"})
	writeJSON(w, http.StatusCreated, authResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         mapUserSummary(user),
		Home:         routeguard.RoleHomePath(user.Role),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing_credentials")
		return
	}

	user, err := s.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	if err := crypto.CheckPassword(user.PasswordHash, req.Password); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_credentials")
		return
	}

	accessToken, refreshToken, err := s.issueTokens(r.Context(), user, r.UserAgent(), clientIP(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token_error")
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         mapUserSummary(user),
		Home:         routeguard.RoleHomePath(user.Role),
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "missing_refresh_token")
		return
	}

	tokenHash := crypto.HashToken(req.RefreshToken)
	session, err := s.store.GetRefreshSession(r.Context(), tokenHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusUnauthorized, "invalid_refresh_token")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	if session.RevokedAt != nil || session.ExpiresAt.Before(time.Now().UTC()) {
		writeError(w, http.StatusUnauthorized, "refresh_token_expired")
		return
	}

	user, err := s.store.GetUserByID(r.Context(), session.UserID)
	if err != nil {
		writeRedirect(w, http.StatusUnauthorized, "profile_missing", routeguard.LoginPath)
		return
	}

	if err := s.store.RevokeRefreshSession(r.Context(), session.ID, time.Now().UTC()); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	accessToken, refreshToken, err := s.issueTokens(r.Context(), user, r.UserAgent(), clientIP(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token_error")
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         mapUserSummary(user),
		Home:         routeguard.RoleHomePath(user.Role),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	_ = s.store.RevokeRefreshSessionsByUser(r.Context(), identity.ID, time.Now().UTC())
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "redirect": routeguard.LoginPath})
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	writeJSON(w, http.StatusOK, mapUserSummary(*identity))
}

type updateMeRequest struct {
	Phone     *string `json:"phone,omitempty"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Password  *string `json:"password,omitempty"`
	IncomeMin *int64  `json:"incomeMin,omitempty"`
	IncomeMax *int64  `json:"incomeMax,omitempty"`
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	var req updateMeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	// Income range is tenant-only, same as signup, and min <= max must hold
	// against the effective values after a partial update.
	if req.IncomeMin != nil || req.IncomeMax != nil {
		if identity.Role != model.RoleTenant {
			writeError(w, http.StatusBadRequest, "income_not_allowed")
			return
		}
		incomeMin := identity.IncomeMin
		if req.IncomeMin != nil {
			incomeMin = req.IncomeMin
		}
		incomeMax := identity.IncomeMax
		if req.IncomeMax != nil {
			incomeMax = req.IncomeMax
		}
		if incomeMin != nil && incomeMax != nil && *incomeMin > *incomeMax {
			writeError(w, http.StatusBadRequest, "invalid_income_range")
			return
		}
	}

	update := repository.UserUpdate{
		IncomeMin: req.IncomeMin,
		IncomeMax: req.IncomeMax,
	}
	if req.Phone != nil {
		phone := strings.TrimSpace(*req.Phone)
		update.Phone = &phone
	}
	if req.FirstName != nil {
		first := strings.TrimSpace(*req.FirstName)
		if first != "" {
			update.FirstName = &first
		}
	}
	if req.LastName != nil {
		last := strings.TrimSpace(*req.LastName)
		if last != "" {
			update.LastName = &last
		}
	}
	if req.Password != nil && strings.TrimSpace(*req.Password) != "" {
		hash, err := crypto.HashPassword(*req.Password)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "password_hash_failed")
			return
		}
		update.PasswordHash = &hash
	}

	user, err := s.store.UpdateUser(r.Context(), identity.ID, update)
	if err != nil {
		writeError(w, http.StatusBadRequest, "update_failed")
		return
	}

	s.feed.Publish(r.Context(), realtime.Event{Table: "users", ID: user.ID, Action: "update"})
	writeJSON(w, http.StatusOK, mapUserSummary(user))
}

func (s *Server) issueTokens(ctx context.Context, user model.User, userAgent, ip string) (string, string, error) {
	accessToken, err := auth.NewAccessToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, s.cfg.AccessTokenTTL, auth.Claims{
		UserID: user.ID,
		Role:   string(user.Role),
	})
	if err != nil {
		return "", "", err
	}

	refreshToken, err := crypto.NewRefreshToken()
	if err != nil {
		return "", "", err
	}

	now := time.Now().UTC()
	session := model.RefreshSession{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: crypto.HashToken(refreshToken),
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.RefreshTokenTTL),
	}
	if userAgent != "" {
		session.UserAgent = &userAgent
	}
	if ip != "" {
		session.IPAddress = &ip
	}

	if err := s.store.CreateRefreshSession(ctx, session); err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}
