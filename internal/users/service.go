package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/carni-kridi/attar-backend/internal/access"
	"github.com/carni-kridi/attar-backend/pkg/db/models"
	"github.com/carni-kridi/attar-backend/pkg/enums"
	pkgerrors "github.com/carni-kridi/attar-backend/pkg/errors"
)

type usersRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role enums.Role) error
}

// Service manages the users of the caller's store.
type Service interface {
	List(ctx context.Context, caller access.Caller) ([]UserDTO, error)
	UpdateRole(ctx context.Context, caller access.Caller, userID uuid.UUID, input UpdateRoleInput) (*UserDTO, error)
}

type service struct {
	repo usersRepository
}

func NewService(repo usersRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, caller access.Caller) ([]UserDTO, error) {
	storeID, err := access.Scope(caller, access.OpUserList)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByStore(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list store users")
	}
	out := make([]UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

// UpdateRole moves a store member between worker and client.
func (s *service) UpdateRole(ctx context.Context, caller access.Caller, userID uuid.UUID, input UpdateRoleInput) (*UserDTO, error) {
	storeID, err := access.Scope(caller, access.OpUserRoleUpdate)
	if err != nil {
		return nil, err
	}
	if input.Role != enums.RoleWorker && input.Role != enums.RoleClient {
		return nil, pkgerrors.Validation("role must be worker or client")
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound("user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if user.StoreID == nil || *user.StoreID != storeID {
		return nil, pkgerrors.NotFound("user not found")
	}
	if !user.Role.RequiresStore() {
		return nil, pkgerrors.Forbidden("only workers and clients can change role")
	}

	if user.Role != input.Role {
		if err := s.repo.UpdateRole(ctx, user.ID, input.Role); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update role")
		}
		user.Role = input.Role
	}
	return FromModel(user), nil
}
