package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/carni-kridi/attar-backend/pkg/enums"
)

// KridiEntry is one ledger line. Status, RemainingAmount and PaymentDate are
// derived from Amount and PaidAmount on every save.
type KridiEntry struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	ClientID        uuid.UUID         `gorm:"column:client_id;type:uuid;not null;index:idx_kridi_entries_client_created,priority:1"`
	StoreID         uuid.UUID         `gorm:"column:store_id;type:uuid;not null;index:idx_kridi_entries_store_created,priority:1"`
	Amount          decimal.Decimal   `gorm:"column:amount;type:numeric(12,3);not null"`
	Reason          string            `gorm:"column:reason;not null"`
	Type            enums.EntryType   `gorm:"column:type;not null"`
	Status          enums.EntryStatus `gorm:"column:status;not null"`
	PaidAmount      decimal.Decimal   `gorm:"column:paid_amount;type:numeric(12,3);not null;default:0"`
	RemainingAmount decimal.Decimal   `gorm:"column:remaining_amount;type:numeric(12,3);not null"`
	PaymentDate     *time.Time        `gorm:"column:payment_date"`
	CreatedBy       uuid.UUID         `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime;index:idx_kridi_entries_client_created,priority:2,sort:desc;index:idx_kridi_entries_store_created,priority:2,sort:desc"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// Derive recomputes RemainingAmount, Status and PaymentDate from Amount and
// PaidAmount. An existing PaymentDate is kept once the entry is paid.
func (e *KridiEntry) Derive(now time.Time) {
	e.RemainingAmount = e.Amount.Sub(e.PaidAmount)
	switch {
	case e.PaidAmount.GreaterThanOrEqual(e.Amount):
		e.Status = enums.EntryStatusPaid
		if e.PaymentDate == nil {
			paidAt := now.UTC()
			e.PaymentDate = &paidAt
		}
	case e.PaidAmount.IsPositive():
		e.Status = enums.EntryStatusPartial
		e.PaymentDate = nil
	default:
		e.Status = enums.EntryStatusUnpaid
		e.PaymentDate = nil
	}
}

func (e *KridiEntry) BeforeCreate(tx *gorm.DB) error {
	ensureID(&e.ID)
	return nil
}

func (e *KridiEntry) BeforeSave(tx *gorm.DB) error {
	e.Derive(time.Now())
	return nil
}
