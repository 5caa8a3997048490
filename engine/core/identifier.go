package core

import "github.com/google/uuid"

// AcquireID hands out a unique identifier for a newly created entity.
// Identifiers are random UUIDs; the owning registry keeps the entities
// alive, so ids never need to be released.
func AcquireID() uuid.UUID {
	return uuid.New()
}
