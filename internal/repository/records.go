package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/saintdannyyy/shelta/internal/model"
)

// Applications

func (s *Store) CreateApplication(ctx context.Context, app model.Application) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO applications (id, property_id, tenant_id, status, move_in_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, app.ID, app.PropertyID, app.TenantID, app.Status, app.MoveInDate, app.CreatedAt, app.UpdatedAt)
	return err
}

func (s *Store) ListApplicationsByTenant(ctx context.Context, tenantID string, limit int) ([]model.Application, error) {
	return s.listApplications(ctx, `
		SELECT id, property_id, tenant_id, status, move_in_date, created_at, updated_at
		FROM applications
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, tenantID, limit)
}

func (s *Store) ListApplicationsByOwner(ctx context.Context, ownerID string, limit int) ([]model.Application, error) {
	return s.listApplications(ctx, `
		SELECT a.id, a.property_id, a.tenant_id, a.status, a.move_in_date, a.created_at, a.updated_at
		FROM applications a
		JOIN properties p ON p.id = a.property_id
		WHERE p.owner_id = $1
		ORDER BY a.created_at DESC
		LIMIT $2
	`, ownerID, limit)
}

func (s *Store) listApplications(ctx context.Context, query string, args ...any) ([]model.Application, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	apps := make([]model.Application, 0)
	for rows.Next() {
		var a model.Application
		if err := rows.Scan(&a.ID, &a.PropertyID, &a.TenantID, &a.Status, &a.MoveInDate, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

func (s *Store) GetApplication(ctx context.Context, applicationID string) (model.Application, error) {
	var a model.Application
	row := s.pool.QueryRow(ctx, `
		SELECT id, property_id, tenant_id, status, move_in_date, created_at, updated_at
		FROM applications
		WHERE id = $1
	`, applicationID)
	err := row.Scan(&a.ID, &a.PropertyID, &a.TenantID, &a.Status, &a.MoveInDate, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (s *Store) UpdateApplicationStatus(ctx context.Context, applicationID string, status model.ApplicationStatus) error {
	_, err := s.pool.Exec(ctx, `UPDATE applications SET status = $2, updated_at = $3 WHERE id = $1`, applicationID, status, time.Now().UTC())
	return err
}

// ApproveApplication flips the application to approved and takes the
// property off the market in one transaction: either both records move or
// neither does.
func (s *Store) ApproveApplication(ctx context.Context, applicationID, propertyID string) error {
	now := time.Now().UTC()
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE applications SET status = $2, updated_at = $3 WHERE id = $1`,
			applicationID, model.ApplicationApproved, now); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `UPDATE properties SET status = $2, updated_at = $3 WHERE id = $1`,
			propertyID, model.PropertyRented, now)
		return err
	})
}

// Maintenance tickets

func (s *Store) CreateTicket(ctx context.Context, ticket model.MaintenanceTicket) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO maintenance_tickets (id, property_id, tenant_id, provider_id, category, priority, description, status, estimated_cost, actual_cost, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, ticket.ID, ticket.PropertyID, ticket.TenantID, ticket.ProviderID, ticket.Category, ticket.Priority, ticket.Description, ticket.Status, ticket.EstimatedCost, ticket.ActualCost, ticket.CreatedAt, ticket.UpdatedAt)
	return err
}

func (s *Store) GetTicket(ctx context.Context, ticketID string) (model.MaintenanceTicket, error) {
	return scanTicket(s.pool.QueryRow(ctx, `
		SELECT id, property_id, tenant_id, provider_id, category, priority, description, status, estimated_cost, actual_cost, created_at, updated_at
		FROM maintenance_tickets
		WHERE id = $1
	`, ticketID))
}

func (s *Store) ListTicketsByTenant(ctx context.Context, tenantID string, limit int) ([]model.MaintenanceTicket, error) {
	return s.listTickets(ctx, `
		SELECT id, property_id, tenant_id, provider_id, category, priority, description, status, estimated_cost, actual_cost, created_at, updated_at
		FROM maintenance_tickets
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, tenantID, limit)
}

func (s *Store) ListTicketsByOwner(ctx context.Context, ownerID string, limit int) ([]model.MaintenanceTicket, error) {
	return s.listTickets(ctx, `
		SELECT t.id, t.property_id, t.tenant_id, t.provider_id, t.category, t.priority, t.description, t.status, t.estimated_cost, t.actual_cost, t.created_at, t.updated_at
		FROM maintenance_tickets t
		JOIN properties p ON p.id = t.property_id
		WHERE p.owner_id = $1
		ORDER BY t.created_at DESC
		LIMIT $2
	`, ownerID, limit)
}

func (s *Store) ListTicketsByProvider(ctx context.Context, providerID string, limit int) ([]model.MaintenanceTicket, error) {
	return s.listTickets(ctx, `
		SELECT id, property_id, tenant_id, provider_id, category, priority, description, status, estimated_cost, actual_cost, created_at, updated_at
		FROM maintenance_tickets
		WHERE provider_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, providerID, limit)
}

func (s *Store) listTickets(ctx context.Context, query string, args ...any) ([]model.MaintenanceTicket, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]model.MaintenanceTicket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

func scanTicket(row pgx.Row) (model.MaintenanceTicket, error) {
	var t model.MaintenanceTicket
	err := row.Scan(
		&t.ID,
		&t.PropertyID,
		&t.TenantID,
		&t.ProviderID,
		&t.Category,
		&t.Priority,
		&t.Description,
		&t.Status,
		&t.EstimatedCost,
		&t.ActualCost,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	return t, err
}

type TicketUpdate struct {
	Status        *model.TicketStatus
	ProviderID    *string
	EstimatedCost *int64
	ActualCost    *int64
}

func (s *Store) UpdateTicket(ctx context.Context, ticketID string, update TicketUpdate) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE maintenance_tickets SET
			status = COALESCE($2, status),
			provider_id = COALESCE($3, provider_id),
			estimated_cost = COALESCE($4, estimated_cost),
			actual_cost = COALESCE($5, actual_cost),
			updated_at = $6
		WHERE id = $1
	`, ticketID, update.Status, update.ProviderID, update.EstimatedCost, update.ActualCost, time.Now().UTC())
	return err
}

// Rent ledger

func (s *Store) CreateLedgerEntry(ctx context.Context, entry model.RentLedgerEntry) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO rent_ledger_entries (id, property_id, tenant_id, landlord_id, rent_amount, due_date, paid_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, entry.ID, entry.PropertyID, entry.TenantID, entry.LandlordID, entry.RentAmount, entry.DueDate, entry.PaidDate, entry.Status, entry.CreatedAt, entry.UpdatedAt)
	return err
}

func (s *Store) ListLedgerByLandlord(ctx context.Context, landlordID string, limit int) ([]model.RentLedgerEntry, error) {
	return s.listLedger(ctx, `
		SELECT id, property_id, tenant_id, landlord_id, rent_amount, due_date, paid_date, status, created_at, updated_at
		FROM rent_ledger_entries
		WHERE landlord_id = $1
		ORDER BY due_date DESC
		LIMIT $2
	`, landlordID, limit)
}

func (s *Store) ListLedgerByTenant(ctx context.Context, tenantID string, limit int) ([]model.RentLedgerEntry, error) {
	return s.listLedger(ctx, `
		SELECT id, property_id, tenant_id, landlord_id, rent_amount, due_date, paid_date, status, created_at, updated_at
		FROM rent_ledger_entries
		WHERE tenant_id = $1
		ORDER BY due_date DESC
		LIMIT $2
	`, tenantID, limit)
}

func (s *Store) listLedger(ctx context.Context, query string, args ...any) ([]model.RentLedgerEntry, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]model.RentLedgerEntry, 0)
	for rows.Next() {
		var e model.RentLedgerEntry
		if err := rows.Scan(&e.ID, &e.PropertyID, &e.TenantID, &e.LandlordID, &e.RentAmount, &e.DueDate, &e.PaidDate, &e.Status, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) MarkLedgerPaid(ctx context.Context, entryID string, paidDate time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE rent_ledger_entries SET status = 'paid', paid_date = $2, updated_at = $3
		WHERE id = $1 AND status IN ('pending', 'overdue')
	`, entryID, paidDate, time.Now().UTC())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) MarkOverdueLedgerEntries(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE rent_ledger_entries SET status = 'overdue', updated_at = $1
		WHERE status = 'pending' AND due_date < $1
	`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Loan applications

func (s *Store) CreateLoanApplication(ctx context.Context, loan model.LoanApplication) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO loan_applications (id, tenant_id, property_id, loan_provider, loan_amount, loan_term_months, monthly_rent, status, submitted_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, loan.ID, loan.TenantID, loan.PropertyID, loan.LoanProvider, loan.LoanAmount, loan.LoanTermMonths, loan.MonthlyRent, loan.Status, loan.SubmittedAt, loan.CreatedAt, loan.UpdatedAt)
	return err
}

func (s *Store) ListLoanApplicationsByTenant(ctx context.Context, tenantID string, limit int) ([]model.LoanApplication, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, tenant_id, property_id, loan_provider, loan_amount, loan_term_months, monthly_rent, status, submitted_at, created_at, updated_at
		FROM loan_applications
		WHERE tenant_id = $1
		ORDER BY submitted_at DESC
		LIMIT $2
	`, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	loans := make([]model.LoanApplication, 0)
	for rows.Next() {
		var l model.LoanApplication
		if err := rows.Scan(&l.ID, &l.TenantID, &l.PropertyID, &l.LoanProvider, &l.LoanAmount, &l.LoanTermMonths, &l.MonthlyRent, &l.Status, &l.SubmittedAt, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		loans = append(loans, l)
	}
	return loans, rows.Err()
}

func (s *Store) UpdateLoanStatus(ctx context.Context, loanID string, status model.LoanStatus) (bool, error) {
	tag, err := s.pool.Exec(ctx, `UPDATE loan_applications SET status = $2, updated_at = $3 WHERE id = $1`, loanID, status, time.Now().UTC())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
