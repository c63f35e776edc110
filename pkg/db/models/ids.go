package models

import "github.com/google/uuid"

// ensureID assigns a v4 id when the caller did not supply one. Rows are keyed
// in Go so the same models work against postgres and sqlite.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
