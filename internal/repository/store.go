package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saintdannyyy/shelta/internal/model"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) WithTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// Users

// CreateUserWithProfile inserts the account and, when set, its service
// provider row in one transaction, so a provider account can never exist
// without its marketplace profile.
func (s *Store) CreateUserWithProfile(ctx context.Context, user model.User, provider *model.ServiceProvider) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO users (id, role, email, phone, password_hash, first_name, last_name, income_min, income_max, is_verified, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`, user.ID, user.Role, user.Email, user.Phone, user.PasswordHash, user.FirstName, user.LastName, user.IncomeMin, user.IncomeMax, user.IsVerified, user.CreatedAt, user.UpdatedAt); err != nil {
			return err
		}
		if provider == nil {
			return nil
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO service_providers (id, user_id, name, skills, average_rating, jobs_completed, price_min, price_max, distance_km, is_available, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, provider.ID, provider.UserID, provider.Name, provider.Skills, provider.AverageRating, provider.JobsCompleted, provider.PriceMin, provider.PriceMax, provider.DistanceKm, provider.IsAvailable, provider.CreatedAt)
		return err
	})
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return s.scanUser(s.pool.QueryRow(ctx, `
		SELECT id, role, email, phone, password_hash, first_name, last_name, income_min, income_max, is_verified, created_at, updated_at
		FROM users
		WHERE email = $1
	`, email))
}

func (s *Store) GetUserByID(ctx context.Context, userID string) (model.User, error) {
	return s.scanUser(s.pool.QueryRow(ctx, `
		SELECT id, role, email, phone, password_hash, first_name, last_name, income_min, income_max, is_verified, created_at, updated_at
		FROM users
		WHERE id = $1
	`, userID))
}

func (s *Store) scanUser(row pgx.Row) (model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Role,
		&user.Email,
		&user.Phone,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.IncomeMin,
		&user.IncomeMax,
		&user.IsVerified,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}

type UserUpdate struct {
	Phone        *string
	FirstName    *string
	LastName     *string
	PasswordHash *string
	IncomeMin    *int64
	IncomeMax    *int64
}

func (s *Store) UpdateUser(ctx context.Context, userID string, update UserUpdate) (model.User, error) {
	_, err := s.pool.Exec(ctx, `
		UPDATE users SET
			phone = COALESCE($2, phone),
			first_name = COALESCE($3, first_name),
			last_name = COALESCE($4, last_name),
			password_hash = COALESCE($5, password_hash),
			income_min = COALESCE($6, income_min),
			income_max = COALESCE($7, income_max),
			updated_at = $8
		WHERE id = $1
	`, userID, update.Phone, update.FirstName, update.LastName, update.PasswordHash, update.IncomeMin, update.IncomeMax, time.Now().UTC())
	if err != nil {
		return model.User{}, err
	}
	return s.GetUserByID(ctx, userID)
}

// Refresh sessions

func (s *Store) CreateRefreshSession(ctx context.Context, session model.RefreshSession) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO refresh_token_sessions (id, user_id, token_hash, created_at, expires_at, revoked_at, user_agent, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, session.ID, session.UserID, session.TokenHash, session.CreatedAt, session.ExpiresAt, session.RevokedAt, session.UserAgent, session.IPAddress)
	return err
}

func (s *Store) GetRefreshSession(ctx context.Context, tokenHash string) (model.RefreshSession, error) {
	var session model.RefreshSession
	row := s.pool.QueryRow(ctx, `
		SELECT id, user_id, token_hash, created_at, expires_at, revoked_at, user_agent, ip_address
		FROM refresh_token_sessions
		WHERE token_hash = $1
	`, tokenHash)
	err := row.Scan(&session.ID, &session.UserID, &session.TokenHash, &session.CreatedAt, &session.ExpiresAt, &session.RevokedAt, &session.UserAgent, &session.IPAddress)
	return session, err
}

func (s *Store) RevokeRefreshSession(ctx context.Context, sessionID string, revokedAt time.Time) error {
	_, err := s.pool.Exec(ctx, `UPDATE refresh_token_sessions SET revoked_at = $1 WHERE id = $2`, revokedAt, sessionID)
	return err
}

func (s *Store) RevokeRefreshSessionsByUser(ctx context.Context, userID string, revokedAt time.Time) error {
	_, err := s.pool.Exec(ctx, `UPDATE refresh_token_sessions SET revoked_at = $1 WHERE user_id = $2 AND revoked_at IS NULL`, revokedAt, userID)
	return err
}
