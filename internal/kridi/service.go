package kridi

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/carni-kridi/attar-backend/internal/access"
	"github.com/carni-kridi/attar-backend/pkg/db/models"
	"github.com/carni-kridi/attar-backend/pkg/enums"
	pkgerrors "github.com/carni-kridi/attar-backend/pkg/errors"
	"github.com/carni-kridi/attar-backend/pkg/pagination"
)

const (
	minReasonLength = 3
	// ActiveWindow bounds how recent a client's last transaction must be to count as active.
	ActiveWindow       = 30 * 24 * time.Hour
	DefaultRecentLimit = 10
	MaxRecentLimit     = 50
)

var maxAmount = decimal.RequireFromString("999999999.999")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Recorder receives ledger mutation events.
type Recorder interface {
	EntryAppended(entryType string)
	PaymentMarked()
	EntryDeleted()
}

// Service exposes ledger operations. Every call is scoped to the caller's store.
type Service interface {
	Append(ctx context.Context, caller access.Caller, input AppendInput) (*EntryDTO, error)
	MarkPayment(ctx context.Context, caller access.Caller, entryID uuid.UUID, input PaymentInput) (*EntryDTO, error)
	Update(ctx context.Context, caller access.Caller, entryID uuid.UUID, input UpdateInput) (*EntryDTO, error)
	Delete(ctx context.Context, caller access.Caller, entryID uuid.UUID) error
	Get(ctx context.Context, caller access.Caller, entryID uuid.UUID) (*EntryDTO, error)
	ListByClient(ctx context.Context, caller access.Caller, clientID uuid.UUID, params pagination.Params) (pagination.Page[EntryDTO], error)
	ListByStore(ctx context.Context, caller access.Caller, filter StoreFilter) (pagination.Page[EntryDTO], error)
	Recent(ctx context.Context, caller access.Caller, limit int) ([]EntryDTO, error)
	Summary(ctx context.Context, caller access.Caller) (*Summary, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	metrics Recorder
	now     func() time.Time
}

// NewService wires a ledger service. metrics may be nil.
func NewService(repo Repository, tx txRunner, metrics Recorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("kridi repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if metrics == nil {
		metrics = noopRecorder{}
	}
	return &service{
		repo:    repo,
		tx:      tx,
		metrics: metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func validateAmount(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return pkgerrors.Validation(field+" must be greater than zero").
			WithDetails(map[string]string{field: "must be greater than zero"})
	}
	if amount.GreaterThan(maxAmount) {
		return pkgerrors.Validation(field+" is too large").
			WithDetails(map[string]string{field: "must be at most " + maxAmount.String()})
	}
	return nil
}

func validateReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if len([]rune(reason)) < minReasonLength {
		return "", pkgerrors.Validation("reason too short").
			WithDetails(map[string]string{"reason": fmt.Sprintf("must be at least %d characters", minReasonLength)})
	}
	return reason, nil
}

func mapEntryErr(err error, action string) error {
	if err == nil {
		return nil
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.NotFound("entry not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}

func (s *service) Append(ctx context.Context, caller access.Caller, input AppendInput) (*EntryDTO, error) {
	storeID, err := access.Scope(caller, access.OpEntryCreate)
	if err != nil {
		return nil, err
	}
	if input.ClientID == uuid.Nil {
		return nil, pkgerrors.Validation("clientId is required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.Validation("type must be debt or payment")
	}
	if err := validateAmount("amount", input.Amount); err != nil {
		return nil, err
	}
	reason, err := validateReason(input.Reason)
	if err != nil {
		return nil, err
	}

	now := s.now()
	entry := &models.KridiEntry{
		ClientID:   input.ClientID,
		StoreID:    storeID,
		Amount:     input.Amount,
		Reason:     reason,
		Type:       input.Type,
		PaidAmount: decimal.Zero,
		CreatedBy:  caller.UserID,
	}
	entry.Derive(now)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		client, err := repo.FindClient(ctx, storeID, input.ClientID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.NotFound("client not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load client")
		}
		if !client.Active {
			return pkgerrors.InvalidState("client is inactive")
		}
		if err := repo.Create(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create entry")
		}
		if err := repo.TouchClient(ctx, client.ID, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "touch client")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.EntryAppended(entry.Type.String())
	return FromModel(entry), nil
}

func (s *service) MarkPayment(ctx context.Context, caller access.Caller, entryID uuid.UUID, input PaymentInput) (*EntryDTO, error) {
	storeID, err := access.Scope(caller, access.OpEntryPayment)
	if err != nil {
		return nil, err
	}
	if err := validateAmount("paidAmount", input.PaidAmount); err != nil {
		return nil, err
	}

	var updated *models.KridiEntry
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		entry, err := repo.FindForUpdate(ctx, storeID, entryID)
		if err != nil {
			return mapEntryErr(err, "load entry")
		}
		if entry.Type != enums.EntryTypeDebt {
			return pkgerrors.InvalidState("only debt entries accept payments")
		}
		if input.PaidAmount.GreaterThan(entry.RemainingAmount) {
			return pkgerrors.Validation("payment amount cannot exceed remaining amount").
				WithDetails(map[string]string{"remainingAmount": entry.RemainingAmount.String()})
		}

		now := s.now()
		entry.PaidAmount = entry.PaidAmount.Add(input.PaidAmount)
		entry.Derive(now)
		if err := repo.Save(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save payment")
		}
		if err := repo.TouchClient(ctx, entry.ClientID, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "touch client")
		}
		updated = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.PaymentMarked()
	return FromModel(updated), nil
}

func (s *service) Update(ctx context.Context, caller access.Caller, entryID uuid.UUID, input UpdateInput) (*EntryDTO, error) {
	storeID, err := access.Scope(caller, access.OpEntryUpdate)
	if err != nil {
		return nil, err
	}
	if input.Reason == nil && input.Amount == nil {
		return nil, pkgerrors.Validation("nothing to update")
	}
	var reason string
	if input.Reason != nil {
		if reason, err = validateReason(*input.Reason); err != nil {
			return nil, err
		}
	}
	if input.Amount != nil {
		if err := validateAmount("amount", *input.Amount); err != nil {
			return nil, err
		}
	}

	var updated *models.KridiEntry
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		entry, err := repo.FindForUpdate(ctx, storeID, entryID)
		if err != nil {
			return mapEntryErr(err, "load entry")
		}
		if entry.Status != enums.EntryStatusUnpaid {
			return pkgerrors.InvalidState("only unpaid entries can be edited").
				WithDetails(map[string]string{"status": entry.Status.String()})
		}
		if input.Reason != nil {
			entry.Reason = reason
		}
		if input.Amount != nil {
			entry.Amount = *input.Amount
		}
		entry.Derive(s.now())
		if err := repo.Save(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save entry")
		}
		updated = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(updated), nil
}

func (s *service) Delete(ctx context.Context, caller access.Caller, entryID uuid.UUID) error {
	storeID, err := access.Scope(caller, access.OpEntryDelete)
	if err != nil {
		return err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		entry, err := repo.FindForUpdate(ctx, storeID, entryID)
		if err != nil {
			return mapEntryErr(err, "load entry")
		}
		if entry.Status != enums.EntryStatusUnpaid {
			return pkgerrors.InvalidState("only unpaid entries can be deleted").
				WithDetails(map[string]string{"status": entry.Status.String()})
		}
		return mapEntryErr(repo.Delete(ctx, storeID, entry.ID), "delete entry")
	})
	if err != nil {
		return err
	}

	s.metrics.EntryDeleted()
	return nil
}

func (s *service) Get(ctx context.Context, caller access.Caller, entryID uuid.UUID) (*EntryDTO, error) {
	storeID, err := access.Scope(caller, access.OpEntryRead)
	if err != nil {
		return nil, err
	}
	entry, err := s.repo.FindInStore(ctx, storeID, entryID)
	if err != nil {
		return nil, mapEntryErr(err, "load entry")
	}
	return FromModel(entry), nil
}

func (s *service) ListByClient(ctx context.Context, caller access.Caller, clientID uuid.UUID, params pagination.Params) (pagination.Page[EntryDTO], error) {
	storeID, err := access.Scope(caller, access.OpEntryRead)
	if err != nil {
		return pagination.Page[EntryDTO]{}, err
	}
	if _, err := s.repo.FindClient(ctx, storeID, clientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pagination.Page[EntryDTO]{}, pkgerrors.NotFound("client not found")
		}
		return pagination.Page[EntryDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load client")
	}

	entries, total, err := s.repo.ListByClient(ctx, storeID, clientID, params)
	if err != nil {
		return pagination.Page[EntryDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list client entries")
	}
	return pagination.NewPage(FromModels(entries), total, params), nil
}

func (s *service) ListByStore(ctx context.Context, caller access.Caller, filter StoreFilter) (pagination.Page[EntryDTO], error) {
	storeID, err := access.Scope(caller, access.OpEntryRead)
	if err != nil {
		return pagination.Page[EntryDTO]{}, err
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return pagination.Page[EntryDTO]{}, pkgerrors.Validation("endDate must not be before startDate")
	}

	entries, total, err := s.repo.ListByStore(ctx, storeID, filter)
	if err != nil {
		return pagination.Page[EntryDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list store entries")
	}
	dtos, err := s.attachClients(ctx, storeID, entries)
	if err != nil {
		return pagination.Page[EntryDTO]{}, err
	}
	return pagination.NewPage(dtos, total, filter.Page), nil
}

func (s *service) Recent(ctx context.Context, caller access.Caller, limit int) ([]EntryDTO, error) {
	storeID, err := access.Scope(caller, access.OpEntryRead)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}
	entries, err := s.repo.Recent(ctx, storeID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list recent entries")
	}
	return s.attachClients(ctx, storeID, entries)
}

func (s *service) attachClients(ctx context.Context, storeID uuid.UUID, entries []models.KridiEntry) ([]EntryDTO, error) {
	seen := make(map[uuid.UUID]struct{}, len(entries))
	ids := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.ClientID]; ok {
			continue
		}
		seen[e.ClientID] = struct{}{}
		ids = append(ids, e.ClientID)
	}
	clients, err := s.repo.ClientsByID(ctx, storeID, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load entry clients")
	}
	return withClients(FromModels(entries), clients), nil
}

func (s *service) Summary(ctx context.Context, caller access.Caller) (*Summary, error) {
	storeID, err := access.Scope(caller, access.OpEntryRead)
	if err != nil {
		return nil, err
	}

	totals, err := s.repo.TypeTotals(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate entries")
	}
	clientCount, err := s.repo.CountClients(ctx, storeID, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count clients")
	}
	since := s.now().Add(-ActiveWindow)
	active, err := s.repo.CountClients(ctx, storeID, &since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count active clients")
	}

	summary := &Summary{
		Debt:          zeroTotals(),
		Payment:       zeroTotals(),
		ClientCount:   clientCount,
		ActiveClients: active,
	}
	if t, ok := totals[enums.EntryTypeDebt]; ok {
		summary.Debt = t
	}
	if t, ok := totals[enums.EntryTypePayment]; ok {
		summary.Payment = t
	}
	return summary, nil
}

type noopRecorder struct{}

func (noopRecorder) EntryAppended(string) {}
func (noopRecorder) PaymentMarked()       {}
func (noopRecorder) EntryDeleted()        {}
