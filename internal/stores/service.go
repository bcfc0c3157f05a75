package stores

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/carni-kridi/attar-backend/internal/access"
	"github.com/carni-kridi/attar-backend/pkg/db/models"
	"github.com/carni-kridi/attar-backend/pkg/enums"
	pkgerrors "github.com/carni-kridi/attar-backend/pkg/errors"
	"github.com/carni-kridi/attar-backend/pkg/pagination"
)

type storeRepository interface {
	CreateWithTx(tx *gorm.DB, store *models.Store) error
	BindActiveStoreWithTx(tx *gorm.DB, userID, storeID uuid.UUID) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Store, int64, error)
	Update(ctx context.Context, store *models.Store) error
	CountClients(ctx context.Context, storeID uuid.UUID) (int64, error)
	DeleteWithTx(tx *gorm.DB, id uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes store operations.
type Service interface {
	Create(ctx context.Context, caller access.Caller, input CreateInput) (*StoreDTO, error)
	List(ctx context.Context, caller access.Caller, query ListQuery) (pagination.Page[StoreDTO], error)
	Get(ctx context.Context, caller access.Caller, id uuid.UUID) (*StoreDTO, error)
	Update(ctx context.Context, caller access.Caller, id uuid.UUID, input UpdateInput) (*StoreDTO, error)
	Settings(ctx context.Context, caller access.Caller, id uuid.UUID) (*SettingsDTO, error)
	UpdateSettings(ctx context.Context, caller access.Caller, id uuid.UUID, input SettingsInput) (*SettingsDTO, error)
	Toggle(ctx context.Context, caller access.Caller, id uuid.UUID) (*StoreDTO, error)
	Delete(ctx context.Context, caller access.Caller, id uuid.UUID) error
}

type service struct {
	repo storeRepository
	tx   txRunner
}

// NewService builds a store service with the provided repository.
func NewService(repo storeRepository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("store repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Create(ctx context.Context, caller access.Caller, input CreateInput) (*StoreDTO, error) {
	if err := access.Authorize(caller, access.OpStoreCreate); err != nil {
		return nil, err
	}

	store := &models.Store{
		Name:     strings.TrimSpace(input.Name),
		Address:  strings.TrimSpace(input.Address),
		Phone:    strings.TrimSpace(input.Phone),
		OwnerID:  caller.UserID,
		Settings: defaultSettings(),
		Active:   true,
	}
	if err := validateStoreFields(store); err != nil {
		return nil, err
	}
	if input.Settings != nil {
		if err := mergeSettings(&store.Settings, *input.Settings); err != nil {
			return nil, err
		}
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.CreateWithTx(tx, store); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create store")
		}
		if caller.Role != enums.RoleAttara {
			return nil
		}
		if _, err := s.repo.BindActiveStoreWithTx(tx, caller.UserID, store.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "bind active store")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(store), nil
}

func (s *service) List(ctx context.Context, caller access.Caller, query ListQuery) (pagination.Page[StoreDTO], error) {
	if err := access.Authorize(caller, access.OpStoreRead); err != nil {
		return pagination.Page[StoreDTO]{}, err
	}
	params := pagination.Params{Page: query.Page, Limit: query.Limit}

	var filter ListFilter
	switch caller.Role {
	case enums.RoleAdmin:
		filter.Search = query.Search
	case enums.RoleAttara:
		owner := caller.UserID
		filter.OwnerID = &owner
	default:
		if caller.StoreID == nil {
			return pagination.NewPage([]StoreDTO{}, 0, params), nil
		}
		storeID := *caller.StoreID
		filter.StoreID = &storeID
	}

	rows, total, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return pagination.Page[StoreDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stores")
	}
	items := make([]StoreDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i]))
	}
	return pagination.NewPage(items, total, params), nil
}

func (s *service) Get(ctx context.Context, caller access.Caller, id uuid.UUID) (*StoreDTO, error) {
	if err := access.Authorize(caller, access.OpStoreRead); err != nil {
		return nil, err
	}
	store, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := canView(caller, store); err != nil {
		return nil, err
	}
	return FromModel(store), nil
}

func (s *service) Update(ctx context.Context, caller access.Caller, id uuid.UUID, input UpdateInput) (*StoreDTO, error) {
	store, err := s.owned(ctx, caller, access.OpStoreUpdate, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		store.Name = strings.TrimSpace(*input.Name)
	}
	if input.Address != nil {
		store.Address = strings.TrimSpace(*input.Address)
	}
	if input.Phone != nil {
		store.Phone = strings.TrimSpace(*input.Phone)
	}
	if err := validateStoreFields(store); err != nil {
		return nil, err
	}
	if input.Settings != nil {
		if err := mergeSettings(&store.Settings, *input.Settings); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, store); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update store")
	}
	return FromModel(store), nil
}

func (s *service) Settings(ctx context.Context, caller access.Caller, id uuid.UUID) (*SettingsDTO, error) {
	store, err := s.owned(ctx, caller, access.OpStoreSettings, id)
	if err != nil {
		return nil, err
	}
	settings := settingsFromModel(store.Settings)
	return &settings, nil
}

func (s *service) UpdateSettings(ctx context.Context, caller access.Caller, id uuid.UUID, input SettingsInput) (*SettingsDTO, error) {
	store, err := s.owned(ctx, caller, access.OpStoreSettings, id)
	if err != nil {
		return nil, err
	}
	if err := mergeSettings(&store.Settings, input); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, store); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update store settings")
	}
	settings := settingsFromModel(store.Settings)
	return &settings, nil
}

func (s *service) Toggle(ctx context.Context, caller access.Caller, id uuid.UUID) (*StoreDTO, error) {
	store, err := s.owned(ctx, caller, access.OpStoreToggle, id)
	if err != nil {
		return nil, err
	}
	store.Active = !store.Active
	if err := s.repo.Update(ctx, store); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "toggle store")
	}
	return FromModel(store), nil
}

// Delete refuses stores that still hold clients; their ledgers would be lost.
func (s *service) Delete(ctx context.Context, caller access.Caller, id uuid.UUID) error {
	store, err := s.owned(ctx, caller, access.OpStoreDelete, id)
	if err != nil {
		return err
	}
	count, err := s.repo.CountClients(ctx, store.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count clients")
	}
	if count > 0 {
		return pkgerrors.InvalidState("store still has clients").
			WithDetails(map[string]int64{"clients": count})
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.DeleteWithTx(tx, store.ID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.NotFound("store not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete store")
		}
		return nil
	})
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	store, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound("store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	return store, nil
}

// owned authorizes op and loads a store the caller owns. Admins pass the
// ownership check wherever op admits them.
func (s *service) owned(ctx context.Context, caller access.Caller, op access.Operation, id uuid.UUID) (*models.Store, error) {
	if err := access.Authorize(caller, op); err != nil {
		return nil, err
	}
	store, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.EnsureOwner(caller, store.OwnerID); err != nil {
		return nil, err
	}
	return store, nil
}

func canView(caller access.Caller, store *models.Store) error {
	switch caller.Role {
	case enums.RoleAdmin:
		return nil
	case enums.RoleAttara:
		return access.EnsureOwner(caller, store.OwnerID)
	default:
		return access.EnsureSameStore(caller, store.ID, "store")
	}
}

func validateStoreFields(store *models.Store) error {
	details := map[string]string{}
	if len([]rune(store.Name)) < 2 {
		details["name"] = "must be at least 2 characters"
	}
	if len([]rune(store.Address)) < 5 {
		details["address"] = "must be at least 5 characters"
	}
	if len(store.Phone) < 8 {
		details["phone"] = "must be at least 8 characters"
	}
	if len(details) > 0 {
		return pkgerrors.Validation("invalid store").WithDetails(details)
	}
	return nil
}

// mergeSettings applies the non-nil fields of input onto current.
func mergeSettings(current *models.StoreSettings, input SettingsInput) error {
	if input.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*input.Currency))
		if len(currency) != 3 {
			return pkgerrors.Validation("currency must be a 3-letter code")
		}
		current.Currency = currency
	}
	if input.Language != nil {
		lang, err := enums.ParseLanguage(string(*input.Language))
		if err != nil {
			return pkgerrors.Validation("language must be one of ar, fr, en")
		}
		current.Language = lang
	}
	if input.MaxCreditLimit != nil {
		if input.MaxCreditLimit.IsNegative() {
			return pkgerrors.Validation("maxCreditLimit must not be negative")
		}
		current.MaxCreditLimit = *input.MaxCreditLimit
	}
	return nil
}
