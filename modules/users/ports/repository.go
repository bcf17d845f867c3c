package ports

import (
	"context"

	"github.com/andreypavlenko/jobscout/modules/users/model"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, userID string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, userID string) error

	// ListAll returns every user, for pipeline stages that distribute
	// cleaned postings across every tracker rather than a single caller.
	ListAll(ctx context.Context) ([]*model.User, error)
}
