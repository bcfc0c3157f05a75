package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/carni-kridi/attar-backend/internal/access"
	"github.com/carni-kridi/attar-backend/pkg/enums"
	pkgerrors "github.com/carni-kridi/attar-backend/pkg/errors"
)

// SwitchStore moves the caller's active store and replaces the current
// session. Admins may pick any store, attaras only stores they own.
func (s *service) SwitchStore(ctx context.Context, caller access.Caller, accessID string, storeID uuid.UUID) (*TokenResponse, error) {
	if err := access.Authorize(caller, access.OpStoreSwitch); err != nil {
		return nil, err
	}
	if storeID == uuid.Nil {
		return nil, pkgerrors.Validation("storeId is required")
	}

	store, err := s.stores.FindByID(ctx, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound("store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	if err := access.EnsureOwner(caller, store.OwnerID); err != nil {
		return nil, err
	}
	if !store.Active {
		return nil, pkgerrors.InvalidState("store is inactive")
	}

	user, err := s.users.FindByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	if user.Role == enums.RoleAttara {
		if err := s.users.UpdateStoreID(ctx, user.ID, store.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update active store")
		}
		user.StoreID = &store.ID
	}

	resp, err := s.issue(ctx, user, &store.ID)
	if err != nil {
		return nil, err
	}
	if accessID != "" {
		if err := s.session.Revoke(ctx, accessID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke previous session")
		}
	}
	return resp, nil
}
