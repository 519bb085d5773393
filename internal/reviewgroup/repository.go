package reviewgroup

import (
	"context"
)

// Repository defines the interface for review group storage
type Repository interface {
	Create(ctx context.Context, group *ReviewGroup) error
	GetByID(ctx context.Context, id string) (*ReviewGroup, error)
	List(ctx context.Context) ([]*ReviewGroup, error)
	Delete(ctx context.Context, id string) error
}
