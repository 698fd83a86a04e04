package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/saintdannyyy/shelta/internal/model"
)

// Properties

func (s *Store) CreateProperty(ctx context.Context, property model.Property) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO properties (id, owner_id, address, latitude, longitude, bedrooms, bathrooms, rent_amount, qol_score, is_verified, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, property.ID, property.OwnerID, property.Address, property.Latitude, property.Longitude, property.Bedrooms, property.Bathrooms, property.RentAmount, property.QolScore, property.IsVerified, property.Status, property.CreatedAt, property.UpdatedAt)
	return err
}

func (s *Store) GetProperty(ctx context.Context, propertyID string) (model.Property, error) {
	return scanProperty(s.pool.QueryRow(ctx, `
		SELECT id, owner_id, address, latitude, longitude, bedrooms, bathrooms, rent_amount, qol_score, is_verified, status, created_at, updated_at
		FROM properties
		WHERE id = $1
	`, propertyID))
}

func (s *Store) ListAvailableProperties(ctx context.Context, limit int) ([]model.Property, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, owner_id, address, latitude, longitude, bedrooms, bathrooms, rent_amount, qol_score, is_verified, status, created_at, updated_at
		FROM properties
		WHERE status = 'available'
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProperties(rows)
}

func (s *Store) ListPropertiesByOwner(ctx context.Context, ownerID string, limit int) ([]model.Property, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, owner_id, address, latitude, longitude, bedrooms, bathrooms, rent_amount, qol_score, is_verified, status, created_at, updated_at
		FROM properties
		WHERE owner_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, ownerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProperties(rows)
}

func (s *Store) UpdatePropertyStatus(ctx context.Context, propertyID string, status model.PropertyStatus) error {
	_, err := s.pool.Exec(ctx, `UPDATE properties SET status = $2, updated_at = $3 WHERE id = $1`, propertyID, status, time.Now().UTC())
	return err
}

func scanProperty(row pgx.Row) (model.Property, error) {
	var p model.Property
	err := row.Scan(
		&p.ID,
		&p.OwnerID,
		&p.Address,
		&p.Latitude,
		&p.Longitude,
		&p.Bedrooms,
		&p.Bathrooms,
		&p.RentAmount,
		&p.QolScore,
		&p.IsVerified,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

func collectProperties(rows pgx.Rows) ([]model.Property, error) {
	properties := make([]model.Property, 0)
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		properties = append(properties, p)
	}
	return properties, rows.Err()
}

// Job postings

func (s *Store) CreateJobPosting(ctx context.Context, job model.JobPosting) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO job_postings (id, ticket_id, provider_id, category, priority, location, distance_km, budget, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, job.ID, job.TicketID, job.ProviderID, job.Category, job.Priority, job.Location, job.DistanceKm, job.Budget, job.Status, job.CreatedAt, job.UpdatedAt)
	return err
}

func (s *Store) ListOpenJobPostings(ctx context.Context, limit int) ([]model.JobPosting, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, ticket_id, provider_id, category, priority, location, distance_km, budget, status, created_at, updated_at
		FROM job_postings
		WHERE status = 'open'
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := make([]model.JobPosting, 0)
	for rows.Next() {
		var j model.JobPosting
		if err := rows.Scan(&j.ID, &j.TicketID, &j.ProviderID, &j.Category, &j.Priority, &j.Location, &j.DistanceKm, &j.Budget, &j.Status, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (s *Store) ClaimJobPosting(ctx context.Context, jobID, providerID string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE job_postings SET status = 'claimed', provider_id = $2, updated_at = $3
		WHERE id = $1 AND status = 'open'
	`, jobID, providerID, time.Now().UTC())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Service providers

func (s *Store) ListAvailableProviders(ctx context.Context, limit int) ([]model.ServiceProvider, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, name, skills, average_rating, jobs_completed, price_min, price_max, distance_km, is_available, created_at
		FROM service_providers
		WHERE is_available = true
		ORDER BY average_rating DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	providers := make([]model.ServiceProvider, 0)
	for rows.Next() {
		var p model.ServiceProvider
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Skills, &p.AverageRating, &p.JobsCompleted, &p.PriceMin, &p.PriceMax, &p.DistanceKm, &p.IsAvailable, &p.CreatedAt); err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return providers, rows.Err()
}
