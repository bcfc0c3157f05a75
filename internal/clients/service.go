package clients

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/carni-kridi/attar-backend/internal/access"
	"github.com/carni-kridi/attar-backend/internal/kridi"
	"github.com/carni-kridi/attar-backend/pkg/db"
	"github.com/carni-kridi/attar-backend/pkg/db/models"
	pkgerrors "github.com/carni-kridi/attar-backend/pkg/errors"
	"github.com/carni-kridi/attar-backend/pkg/pagination"
)

// RecentTransactionsLimit bounds the entries returned with a client.
const RecentTransactionsLimit = 10

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes client operations scoped to the caller's store.
type Service interface {
	Create(ctx context.Context, caller access.Caller, input CreateInput) (*ClientDTO, error)
	Get(ctx context.Context, caller access.Caller, id uuid.UUID) (*DetailDTO, error)
	List(ctx context.Context, caller access.Caller, query ListQuery) (pagination.Page[ClientDTO], error)
	Update(ctx context.Context, caller access.Caller, id uuid.UUID, input UpdateInput) (*ClientDTO, error)
	Delete(ctx context.Context, caller access.Caller, id uuid.UUID) error
	Statement(ctx context.Context, caller access.Caller, id uuid.UUID) (*Statement, error)
	Export(ctx context.Context, caller access.Caller, w io.Writer) error
	Import(ctx context.Context, caller access.Caller, r io.Reader) (*ImportReport, error)
}

type service struct {
	repo   *Repository
	ledger kridi.Repository
	calc   *kridi.Calculator
	tx     txRunner
}

// NewService wires the client service over the client and ledger repositories.
func NewService(repo *Repository, ledger kridi.Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("client repository required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("kridi repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	calc, err := kridi.NewCalculator(ledger)
	if err != nil {
		return nil, err
	}
	return &service{repo: repo, ledger: ledger, calc: calc, tx: tx}, nil
}

func mapClientErr(err error, action string) error {
	if err == nil {
		return nil
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.NotFound("client not found")
	}
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Conflict("client already exists in this store")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}

func (s *service) checkCreditLimit(ctx context.Context, storeID uuid.UUID, limit decimal.Decimal) error {
	if limit.IsNegative() {
		return pkgerrors.Validation("creditLimit must not be negative").
			WithDetails(map[string]string{"creditLimit": "must not be negative"})
	}
	store, err := s.repo.FindStore(ctx, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.NotFound("store not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	if max := store.Settings.MaxCreditLimit; max.IsPositive() && limit.GreaterThan(max) {
		return pkgerrors.Validation("creditLimit exceeds store maximum").
			WithDetails(map[string]string{"creditLimit": "must be at most " + max.String()})
	}
	return nil
}

func (s *service) ensurePhoneFree(ctx context.Context, storeID uuid.UUID, phone string, exclude *uuid.UUID) error {
	taken, err := s.repo.PhoneTaken(ctx, storeID, phone, exclude)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check phone")
	}
	if taken {
		return pkgerrors.Conflict("client already exists in this store").
			WithDetails(map[string]string{"phone": phone})
	}
	return nil
}

func (s *service) Create(ctx context.Context, caller access.Caller, input CreateInput) (*ClientDTO, error) {
	storeID, err := access.Scope(caller, access.OpClientCreate)
	if err != nil {
		return nil, err
	}
	client, err := s.create(ctx, caller, storeID, input)
	if err != nil {
		return nil, err
	}
	dto := FromModel(client)
	zero := kridi.NewBalance(decimal.Zero, decimal.Zero)
	dto.Balance = &zero
	return dto, nil
}

func (s *service) create(ctx context.Context, caller access.Caller, storeID uuid.UUID, input CreateInput) (*models.Client, error) {
	name := strings.TrimSpace(input.Name)
	phone := strings.TrimSpace(input.Phone)
	if len([]rune(name)) < 2 {
		return nil, pkgerrors.Validation("name must be at least 2 characters")
	}
	if len(phone) < 8 {
		return nil, pkgerrors.Validation("phone must be at least 8 characters")
	}
	limit := DefaultCreditLimit
	if input.CreditLimit != nil {
		limit = *input.CreditLimit
	}
	if err := s.checkCreditLimit(ctx, storeID, limit); err != nil {
		return nil, err
	}
	if err := s.ensurePhoneFree(ctx, storeID, phone, nil); err != nil {
		return nil, err
	}

	createdBy := caller.UserID
	client := &models.Client{
		StoreID:     storeID,
		Name:        name,
		Phone:       phone,
		Email:       trimmed(input.Email),
		Address:     trimmed(input.Address),
		Notes:       trimmed(input.Notes),
		CreditLimit: limit,
		Active:      true,
		CreatedBy:   &createdBy,
	}
	if err := s.repo.Create(ctx, client); err != nil {
		return nil, mapClientErr(err, "create client")
	}
	return client, nil
}

func (s *service) Get(ctx context.Context, caller access.Caller, id uuid.UUID) (*DetailDTO, error) {
	storeID, err := access.Scope(caller, access.OpClientRead)
	if err != nil {
		return nil, err
	}
	client, err := s.repo.FindInStore(ctx, storeID, id)
	if err != nil {
		return nil, mapClientErr(err, "load client")
	}
	balance, err := s.calc.ClientBalance(ctx, storeID, client.ID)
	if err != nil {
		return nil, err
	}
	recent, _, err := s.ledger.ListByClient(ctx, storeID, client.ID, pagination.Params{Page: 1, Limit: RecentTransactionsLimit})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recent entries")
	}
	return &DetailDTO{
		Client:             *FromModel(client),
		Balance:            balance,
		RecentTransactions: kridi.FromModels(recent),
	}, nil
}

func (s *service) List(ctx context.Context, caller access.Caller, query ListQuery) (pagination.Page[ClientDTO], error) {
	storeID, err := access.Scope(caller, access.OpClientRead)
	if err != nil {
		return pagination.Page[ClientDTO]{}, err
	}
	params := pagination.Params{Page: query.Page, Limit: query.Limit}
	rows, total, err := s.repo.List(ctx, storeID, query.Search, params)
	if err != nil {
		return pagination.Page[ClientDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list clients")
	}
	items, err := s.withBalances(ctx, storeID, rows)
	if err != nil {
		return pagination.Page[ClientDTO]{}, err
	}
	return pagination.NewPage(items, total, params), nil
}

func (s *service) withBalances(ctx context.Context, storeID uuid.UUID, rows []models.Client) ([]ClientDTO, error) {
	ids := make([]uuid.UUID, 0, len(rows))
	for _, c := range rows {
		ids = append(ids, c.ID)
	}
	balances, err := s.calc.ClientBalances(ctx, storeID, ids)
	if err != nil {
		return nil, err
	}
	items := make([]ClientDTO, 0, len(rows))
	for i := range rows {
		dto := FromModel(&rows[i])
		b := balances[rows[i].ID]
		dto.Balance = &b
		items = append(items, *dto)
	}
	return items, nil
}

func (s *service) Update(ctx context.Context, caller access.Caller, id uuid.UUID, input UpdateInput) (*ClientDTO, error) {
	storeID, err := access.Scope(caller, access.OpClientUpdate)
	if err != nil {
		return nil, err
	}
	client, err := s.repo.FindInStore(ctx, storeID, id)
	if err != nil {
		return nil, mapClientErr(err, "load client")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if len([]rune(name)) < 2 {
			return nil, pkgerrors.Validation("name must be at least 2 characters")
		}
		client.Name = name
	}
	if input.Phone != nil {
		phone := strings.TrimSpace(*input.Phone)
		if len(phone) < 8 {
			return nil, pkgerrors.Validation("phone must be at least 8 characters")
		}
		if phone != client.Phone {
			if err := s.ensurePhoneFree(ctx, storeID, phone, &client.ID); err != nil {
				return nil, err
			}
		}
		client.Phone = phone
	}
	if input.Email != nil {
		client.Email = trimmed(input.Email)
	}
	if input.Address != nil {
		client.Address = trimmed(input.Address)
	}
	if input.Notes != nil {
		client.Notes = trimmed(input.Notes)
	}
	if input.CreditLimit != nil {
		if err := s.checkCreditLimit(ctx, storeID, *input.CreditLimit); err != nil {
			return nil, err
		}
		client.CreditLimit = *input.CreditLimit
	}
	if input.Active != nil {
		client.Active = *input.Active
	}

	if err := s.repo.Save(ctx, client); err != nil {
		return nil, mapClientErr(err, "update client")
	}
	return FromModel(client), nil
}

func (s *service) Delete(ctx context.Context, caller access.Caller, id uuid.UUID) error {
	storeID, err := access.Scope(caller, access.OpClientDelete)
	if err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindInStore(ctx, storeID, id); err != nil {
			return mapClientErr(err, "load client")
		}
		calc, err := kridi.NewCalculator(s.ledger.WithTx(tx))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build balance calculator")
		}
		outstanding, err := calc.Outstanding(ctx, storeID, id)
		if err != nil {
			return err
		}
		if outstanding.IsPositive() {
			return pkgerrors.Validation("cannot delete client with outstanding debt").
				WithDetails(map[string]string{"outstanding": outstanding.String()})
		}
		return mapClientErr(repo.Delete(ctx, storeID, id), "delete client")
	})
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
