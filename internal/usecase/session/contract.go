package session

import "context"

// Repository defines the storage contract for session indices.
type Repository interface {
	Create(ctx context.Context, name string) error
	Drop(ctx context.Context, name string) (bool, error)
	Exists(ctx context.Context, name string) (bool, error)
	List(ctx context.Context) ([]string, error)
}
