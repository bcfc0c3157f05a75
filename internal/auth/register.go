package auth

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/carni-kridi/attar-backend/internal/users"
	"github.com/carni-kridi/attar-backend/pkg/db"
	"github.com/carni-kridi/attar-backend/pkg/enums"
	pkgerrors "github.com/carni-kridi/attar-backend/pkg/errors"
	"github.com/carni-kridi/attar-backend/pkg/security"
)

// Register creates a user and signs them in. Admin accounts are provisioned
// by the seed command only.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error) {
	name := strings.TrimSpace(req.Name)
	phone := strings.TrimSpace(req.Phone)
	email := users.NormalizeEmail(req.Email)

	if utf8.RuneCountInString(name) < 2 {
		return nil, pkgerrors.Validation("name must be at least 2 characters")
	}
	if len(phone) < 8 {
		return nil, pkgerrors.Validation("phone must be at least 8 characters")
	}
	if len(req.Password) < 6 {
		return nil, pkgerrors.Validation("password must be at least 6 characters")
	}
	if !isRole(req.Role, enums.RoleAttara, enums.RoleWorker, enums.RoleClient) {
		return nil, pkgerrors.Validation("role must be attara, worker or client")
	}

	dto := users.CreateUserDTO{
		Name:  name,
		Email: email,
		Phone: phone,
		Role:  req.Role,
	}
	if req.Role.RequiresStore() {
		if req.StoreID == nil {
			return nil, pkgerrors.Validation("storeId is required for this role")
		}
		store, err := s.stores.FindByID(ctx, *req.StoreID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.NotFound("store not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
		}
		if !store.Active {
			return nil, pkgerrors.InvalidState("store is inactive")
		}
		dto.StoreID = &store.ID
	}

	if email != nil {
		if err := s.ensureFree(s.users.FindByEmail(ctx, *email)); err != nil {
			return nil, err
		}
	}
	if err := s.ensureFree(s.users.FindByPhone(ctx, phone)); err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	dto.PasswordHash = hash

	user, err := s.users.Create(ctx, dto)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Conflict("user already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}

	return s.issue(ctx, user, user.StoreID)
}

func (s *service) ensureFree(_ any, err error) error {
	switch {
	case err == nil:
		return pkgerrors.Conflict("user already exists")
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing user")
	}
}
