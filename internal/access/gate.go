// Package access decides whether a caller may run an operation and scopes
// every store owned resource to the caller's active store.
package access

import (
	"github.com/google/uuid"

	"github.com/carni-kridi/attar-backend/pkg/enums"
	pkgerrors "github.com/carni-kridi/attar-backend/pkg/errors"
)

// Caller is the request scoped identity passed into every service call.
type Caller struct {
	UserID  uuid.UUID
	Role    enums.Role
	StoreID *uuid.UUID
}

// Operation names a guarded action independent of any route.
type Operation string

const (
	OpStoreCreate   Operation = "store.create"
	OpStoreRead     Operation = "store.read"
	OpStoreUpdate   Operation = "store.update"
	OpStoreDelete   Operation = "store.delete"
	OpStoreToggle   Operation = "store.toggle"
	OpStoreSettings Operation = "store.settings"
	OpStoreSwitch   Operation = "store.switch"

	OpUserList       Operation = "user.list"
	OpUserRoleUpdate Operation = "user.role_update"

	OpClientRead      Operation = "client.read"
	OpClientCreate    Operation = "client.create"
	OpClientUpdate    Operation = "client.update"
	OpClientDelete    Operation = "client.delete"
	OpClientImport    Operation = "client.import"
	OpClientExport    Operation = "client.export"
	OpClientStatement Operation = "client.statement"

	OpEntryRead    Operation = "entry.read"
	OpEntryCreate  Operation = "entry.create"
	OpEntryUpdate  Operation = "entry.update"
	OpEntryPayment Operation = "entry.payment"
	OpEntryDelete  Operation = "entry.delete"
)

var (
	adminAttara       = roles(enums.RoleAdmin, enums.RoleAttara)
	attaraOnly        = roles(enums.RoleAttara)
	attaraWorker      = roles(enums.RoleAttara, enums.RoleWorker)
	adminAttaraWorker = roles(enums.RoleAdmin, enums.RoleAttara, enums.RoleWorker)
	everyone          = roles(enums.RoleAdmin, enums.RoleAttara, enums.RoleWorker, enums.RoleClient)
)

var policy = map[Operation]map[enums.Role]struct{}{
	OpStoreCreate:   adminAttara,
	OpStoreRead:     everyone,
	OpStoreUpdate:   attaraOnly,
	OpStoreDelete:   attaraOnly,
	OpStoreToggle:   adminAttara,
	OpStoreSettings: attaraOnly,
	OpStoreSwitch:   adminAttara,

	OpUserList:       attaraOnly,
	OpUserRoleUpdate: attaraOnly,

	OpClientRead:      attaraWorker,
	OpClientCreate:    attaraWorker,
	OpClientUpdate:    attaraWorker,
	OpClientDelete:    attaraOnly,
	OpClientImport:    adminAttara,
	OpClientExport:    adminAttara,
	OpClientStatement: adminAttaraWorker,

	OpEntryRead:    attaraWorker,
	OpEntryCreate:  attaraWorker,
	OpEntryUpdate:  attaraOnly,
	OpEntryPayment: attaraWorker,
	OpEntryDelete:  attaraOnly,
}

func roles(rs ...enums.Role) map[enums.Role]struct{} {
	set := make(map[enums.Role]struct{}, len(rs))
	for _, r := range rs {
		set[r] = struct{}{}
	}
	return set
}

// Allowed reports whether role may run op. Unknown operations are denied.
func Allowed(role enums.Role, op Operation) bool {
	set, ok := policy[op]
	if !ok {
		return false
	}
	_, ok = set[role]
	return ok
}

// Authorize fails with UNAUTHORIZED for an anonymous caller and FORBIDDEN
// when the caller's role is outside the operation's role set.
func Authorize(c Caller, op Operation) error {
	if c.UserID == uuid.Nil || !c.Role.IsValid() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if !Allowed(c.Role, op) {
		return pkgerrors.Forbidden("insufficient role").WithDetails(map[string]any{
			"operation": string(op),
			"role":      string(c.Role),
		})
	}
	return nil
}

// ActiveStore returns the caller's store or FORBIDDEN when none is active.
func (c Caller) ActiveStore() (uuid.UUID, error) {
	if c.StoreID == nil || *c.StoreID == uuid.Nil {
		return uuid.Nil, pkgerrors.Forbidden("active store required")
	}
	return *c.StoreID, nil
}

// Scope authorizes op and returns the store every read or write must be
// filtered by.
func Scope(c Caller, op Operation) (uuid.UUID, error) {
	if err := Authorize(c, op); err != nil {
		return uuid.Nil, err
	}
	return c.ActiveStore()
}

// SameStore is the tenant isolation predicate.
func SameStore(c Caller, resourceStoreID uuid.UUID) bool {
	return c.StoreID != nil && *c.StoreID != uuid.Nil && *c.StoreID == resourceStoreID
}

// EnsureSameStore reports a resource from another store as NOT_FOUND so
// callers cannot probe for ids across tenants.
func EnsureSameStore(c Caller, resourceStoreID uuid.UUID, resource string) error {
	if !SameStore(c, resourceStoreID) {
		return pkgerrors.NotFound(resource + " not found")
	}
	return nil
}

// EnsureOwner allows admins through and requires attaras to own the store.
func EnsureOwner(c Caller, ownerID uuid.UUID) error {
	if c.Role == enums.RoleAdmin {
		return nil
	}
	if c.UserID != ownerID {
		return pkgerrors.NotFound("store not found")
	}
	return nil
}
