package oplog

import "context"

// Repository provides access to the operation log
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	ListByGroup(ctx context.Context, logGroup string) ([]*Entry, error)
	ListByInstance(ctx context.Context, instanceID string) ([]*Entry, error)
}
