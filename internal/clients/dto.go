package clients

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/carni-kridi/attar-backend/internal/kridi"
	"github.com/carni-kridi/attar-backend/pkg/db/models"
)

// DefaultCreditLimit applies when a client is created without one.
var DefaultCreditLimit = decimal.NewFromInt(500)

// ClientDTO is the API shape of a store customer.
type ClientDTO struct {
	ID              uuid.UUID       `json:"id"`
	StoreID         uuid.UUID       `json:"storeId"`
	Name            string          `json:"name"`
	Phone           string          `json:"phone"`
	Email           *string         `json:"email,omitempty"`
	Address         *string         `json:"address,omitempty"`
	Notes           *string         `json:"notes,omitempty"`
	CreditLimit     decimal.Decimal `json:"creditLimit"`
	LastTransaction *time.Time      `json:"lastTransaction,omitempty"`
	Active          bool            `json:"active"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
	Balance         *kridi.Balance  `json:"balance,omitempty"`
}

// DetailDTO is a client with its live balance and latest entries.
type DetailDTO struct {
	Client             ClientDTO        `json:"client"`
	Balance            kridi.Balance    `json:"balance"`
	RecentTransactions []kridi.EntryDTO `json:"recentTransactions"`
}

func FromModel(m *models.Client) *ClientDTO {
	if m == nil {
		return nil
	}
	return &ClientDTO{
		ID:              m.ID,
		StoreID:         m.StoreID,
		Name:            m.Name,
		Phone:           m.Phone,
		Email:           m.Email,
		Address:         m.Address,
		Notes:           m.Notes,
		CreditLimit:     m.CreditLimit,
		LastTransaction: m.LastTransaction,
		Active:          m.Active,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// CreateInput is the validated body for a new client.
type CreateInput struct {
	Name        string           `json:"name" validate:"required,min=2,max=120"`
	Phone       string           `json:"phone" validate:"required,min=8,max=20"`
	Email       *string          `json:"email,omitempty" validate:"omitempty,email"`
	Address     *string          `json:"address,omitempty" validate:"omitempty,max=255"`
	Notes       *string          `json:"notes,omitempty" validate:"omitempty,max=1000"`
	CreditLimit *decimal.Decimal `json:"creditLimit,omitempty"`
}

// UpdateInput carries optional client fields.
type UpdateInput struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,min=2,max=120"`
	Phone       *string          `json:"phone,omitempty" validate:"omitempty,min=8,max=20"`
	Email       *string          `json:"email,omitempty" validate:"omitempty,email"`
	Address     *string          `json:"address,omitempty" validate:"omitempty,max=255"`
	Notes       *string          `json:"notes,omitempty" validate:"omitempty,max=1000"`
	CreditLimit *decimal.Decimal `json:"creditLimit,omitempty"`
	Active      *bool            `json:"active,omitempty"`
}

// ListQuery filters the client listing.
type ListQuery struct {
	Search string
	Page   int
	Limit  int
}

// ImportReport summarises a CSV import.
type ImportReport struct {
	Created int           `json:"created"`
	Skipped []ImportIssue `json:"skipped"`
	Failed  []ImportIssue `json:"failed"`
}

// ImportIssue points at a CSV row (1-based, header excluded).
type ImportIssue struct {
	Row    int    `json:"row"`
	Phone  string `json:"phone,omitempty"`
	Reason string `json:"reason"`
}

// Statement is a rendered client statement.
type Statement struct {
	Filename string
	Content  []byte
}
