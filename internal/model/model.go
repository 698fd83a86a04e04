package model

import "time"

type Role string

const (
	RoleTenant   Role = "tenant"
	RoleLandlord Role = "landlord"
	RoleProvider Role = "provider"
	RoleAgent    Role = "agent"
)

func ValidRole(role Role) bool {
	switch role {
	case RoleTenant, RoleLandlord, RoleProvider, RoleAgent:
		return true
	default:
		return false
	}
}

type User struct {
	ID           string
	Role         Role
	Email        string
	Phone        string
	PasswordHash string
	FirstName    string
	LastName     string
	IncomeMin    *int64
	IncomeMax    *int64
	IsVerified   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type PropertyStatus string

const (
	PropertyAvailable   PropertyStatus = "available"
	PropertyRented      PropertyStatus = "rented"
	PropertyMaintenance PropertyStatus = "maintenance"
	PropertyUnlisted    PropertyStatus = "unlisted"
)

type Property struct {
	ID         string
	OwnerID    string
	Address    string
	Latitude   float64
	Longitude  float64
	Bedrooms   int
	Bathrooms  int
	RentAmount int64
	QolScore   int
	IsVerified bool
	Status     PropertyStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type ApplicationStatus string

const (
	ApplicationPending   ApplicationStatus = "pending"
	ApplicationApproved  ApplicationStatus = "approved"
	ApplicationRejected  ApplicationStatus = "rejected"
	ApplicationWithdrawn ApplicationStatus = "withdrawn"
)

type Application struct {
	ID         string
	PropertyID string
	TenantID   string
	Status     ApplicationStatus
	MoveInDate *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketAssigned   TicketStatus = "assigned"
	TicketInProgress TicketStatus = "in_progress"
	TicketCompleted  TicketStatus = "completed"
	TicketClosed     TicketStatus = "closed"
)

type TicketPriority string

const (
	PriorityLow       TicketPriority = "low"
	PriorityNormal    TicketPriority = "normal"
	PriorityHigh      TicketPriority = "high"
	PriorityEmergency TicketPriority = "emergency"
)

type MaintenanceTicket struct {
	ID            string
	PropertyID    string
	TenantID      string
	ProviderID    *string
	Category      string
	Priority      TicketPriority
	Description   string
	Status        TicketStatus
	EstimatedCost *int64
	ActualCost    *int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type LedgerStatus string

const (
	LedgerPending LedgerStatus = "pending"
	LedgerPaid    LedgerStatus = "paid"
	LedgerOverdue LedgerStatus = "overdue"
	LedgerWaived  LedgerStatus = "waived"
)

type RentLedgerEntry struct {
	ID         string
	PropertyID string
	TenantID   string
	LandlordID string
	RentAmount int64
	DueDate    time.Time
	PaidDate   *time.Time
	Status     LedgerStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type LoanStatus string

const (
	LoanPending   LoanStatus = "pending"
	LoanApproved  LoanStatus = "approved"
	LoanRejected  LoanStatus = "rejected"
	LoanFunded    LoanStatus = "funded"
	LoanCancelled LoanStatus = "cancelled"
)

type LoanApplication struct {
	ID             string
	TenantID       string
	PropertyID     string
	LoanProvider   string
	LoanAmount     int64
	LoanTermMonths int
	MonthlyRent    int64
	Status         LoanStatus
	SubmittedAt    time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type JobStatus string

const (
	JobOpen      JobStatus = "open"
	JobClaimed   JobStatus = "claimed"
	JobDone      JobStatus = "done"
	JobCancelled JobStatus = "cancelled"
)

type JobPosting struct {
	ID         string
	TicketID   string
	ProviderID *string
	Category   string
	Priority   TicketPriority
	Location   string
	DistanceKm float64
	Budget     int64
	Status     JobStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type ServiceProvider struct {
	ID            string
	UserID        string
	Name          string
	Skills        []string
	AverageRating float64
	JobsCompleted int
	PriceMin      int64
	PriceMax      int64
	DistanceKm    float64
	IsAvailable   bool
	CreatedAt     time.Time
}

type RefreshSession struct {
	ID        string
	UserID    string
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
	UserAgent *string
	IPAddress *string
}
