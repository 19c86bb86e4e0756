package source

import (
	"time"

	"github.com/subkit/subkit/internal/types"
)

// Source is a stored payment instrument belonging to a customer. Instances
// hold a reference to the source they bill against; an expired source is the
// most common reason a renewal cannot proceed.
type Source struct {
	// ID is the unique identifier for the payment source
	ID string `db:"id" json:"id"`

	// CustomerID is the customer the source belongs to
	CustomerID string `db:"customer_id" json:"customer_id"`

	// Label is the display name of the source, e.g. "Visa ending 4242"
	Label string `db:"label" json:"label"`

	// ExpiresAt is when the instrument expires, if it expires at all
	ExpiresAt *time.Time `db:"expires_at" json:"expires_at"`

	types.BaseModel
}

// IsExpiredAt determines whether the source has expired as of the given
// instant. A source with no expiry never expires.
func (s *Source) IsExpiredAt(when time.Time) bool {
	return s.ExpiresAt != nil && s.ExpiresAt.Before(when)
}
