package customer

import "github.com/subkit/subkit/internal/types"

// Customer represents the billable party a subscription belongs to
type Customer struct {
	// ID is the unique identifier for the customer
	ID string `db:"id" json:"id"`

	// ExternalID is the identifier of the customer in the host application
	ExternalID string `db:"external_id" json:"external_id"`

	// Name is the customer's name
	Name string `db:"name" json:"name"`

	// Email is the customer's billing email address
	Email string `db:"email" json:"email"`

	types.BaseModel
}
