package journal

import (
	"time"

	"github.com/google/uuid"
)

// Prepare fills the ID and CreatedAt of e when unset.
func Prepare(e *Entry, now time.Time) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now.UTC()
	}
}
