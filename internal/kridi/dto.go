package kridi

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/carni-kridi/attar-backend/pkg/db/models"
	"github.com/carni-kridi/attar-backend/pkg/enums"
	"github.com/carni-kridi/attar-backend/pkg/pagination"
)

// EntryDTO is the API shape of a ledger line.
type EntryDTO struct {
	ID              uuid.UUID         `json:"id"`
	ClientID        uuid.UUID         `json:"clientId"`
	StoreID         uuid.UUID         `json:"storeId"`
	Amount          decimal.Decimal   `json:"amount"`
	Reason          string            `json:"reason"`
	Type            enums.EntryType   `json:"type"`
	Status          enums.EntryStatus `json:"status"`
	PaidAmount      decimal.Decimal   `json:"paidAmount"`
	RemainingAmount decimal.Decimal   `json:"remainingAmount"`
	PaymentDate     *time.Time        `json:"paymentDate,omitempty"`
	CreatedBy       uuid.UUID         `json:"createdBy"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
	Client          *EntryClient      `json:"client,omitempty"`
}

// EntryClient is the client summary attached to store-wide entry feeds.
type EntryClient struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Phone string    `json:"phone"`
}

// FromModel maps a persisted entry into its DTO.
func FromModel(m *models.KridiEntry) *EntryDTO {
	if m == nil {
		return nil
	}
	return &EntryDTO{
		ID:              m.ID,
		ClientID:        m.ClientID,
		StoreID:         m.StoreID,
		Amount:          m.Amount,
		Reason:          m.Reason,
		Type:            m.Type,
		Status:          m.Status,
		PaidAmount:      m.PaidAmount,
		RemainingAmount: m.RemainingAmount,
		PaymentDate:     m.PaymentDate,
		CreatedBy:       m.CreatedBy,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// FromModels maps a slice, never returning nil.
func FromModels(entries []models.KridiEntry) []EntryDTO {
	out := make([]EntryDTO, 0, len(entries))
	for i := range entries {
		out = append(out, *FromModel(&entries[i]))
	}
	return out
}

// withClients attaches the owning client to each entry. Entries whose client
// is missing from the map are left without one.
func withClients(entries []EntryDTO, clients map[uuid.UUID]models.Client) []EntryDTO {
	for i := range entries {
		if c, ok := clients[entries[i].ClientID]; ok {
			entries[i].Client = &EntryClient{ID: c.ID, Name: c.Name, Phone: c.Phone}
		}
	}
	return entries
}

// AppendInput is the validated body for recording a debt or payment.
type AppendInput struct {
	ClientID uuid.UUID       `json:"clientId" validate:"required"`
	Amount   decimal.Decimal `json:"amount"`
	Reason   string          `json:"reason" validate:"required,min=3,max=500"`
	Type     enums.EntryType `json:"type" validate:"required,oneof=debt payment"`
}

// PaymentInput is the validated body for marking a payment on a debt entry.
type PaymentInput struct {
	PaidAmount decimal.Decimal `json:"paidAmount"`
}

// UpdateInput carries the only editable fields of an unpaid entry.
type UpdateInput struct {
	Reason *string          `json:"reason,omitempty" validate:"omitempty,min=3,max=500"`
	Amount *decimal.Decimal `json:"amount,omitempty"`
}

// StoreFilter narrows the store wide entry listing.
type StoreFilter struct {
	Type      *enums.EntryType
	Status    *enums.EntryStatus
	StartDate *time.Time
	EndDate   *time.Time
	Page      pagination.Params
}

// TypeTotals aggregates one entry type.
type TypeTotals struct {
	Total     decimal.Decimal `json:"total"`
	Remaining decimal.Decimal `json:"remaining"`
	Count     int64           `json:"count"`
}

// Summary is the store wide aggregate.
type Summary struct {
	Debt          TypeTotals `json:"debt"`
	Payment       TypeTotals `json:"payment"`
	ClientCount   int64      `json:"clientCount"`
	ActiveClients int64      `json:"activeClients"`
}

func zeroTotals() TypeTotals {
	return TypeTotals{Total: decimal.Zero, Remaining: decimal.Zero}
}
