package oplog

import (
	"time"

	"github.com/subkit/subkit/internal/types"
)

// Entry is one line of the durable operation log. Entries written during a
// single logical operation share a log group token, so the full narrative of
// e.g. one renewal attempt can be replayed later.
type Entry struct {
	// ID is the unique identifier for the entry
	ID string `db:"id" json:"id"`

	// LogGroup ties the entry to the operation that wrote it
	LogGroup string `db:"log_group" json:"log_group"`

	// InstanceID is the subscription instance the operation concerned,
	// if any
	InstanceID string `db:"instance_id" json:"instance_id"`

	// Message is the log line
	Message string `db:"message" json:"message"`

	// CreatedAt is when the entry was written
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// NewEntry builds an entry for the given log group and message
func NewEntry(logGroup, instanceID, message string) *Entry {
	return &Entry{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LOG),
		LogGroup:   logGroup,
		InstanceID: instanceID,
		Message:    message,
		CreatedAt:  time.Now().UTC(),
	}
}
