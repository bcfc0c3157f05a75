package models

import (
	"github.com/google/uuid"
)

// ensureID assigns a v4 identifier when the caller did not pick one.
// Postgres also defaults ids, sqlite does not.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All lists every persisted model in dependency order.
func All() []any {
	return []any{&User{}, &Store{}, &Client{}, &KridiEntry{}}
}
