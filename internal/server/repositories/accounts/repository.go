// Package accounts persists Account records keyed by id and email.
package accounts

import (
	"context"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// Repository is the credential store consumed by the auth service.
//
// Create is an atomic conditional insert: when the email is already taken it
// writes nothing and returns common.ErrDuplicateAccount. Lookups return
// common.ErrNotFound for missing rows; I/O failures wrap
// common.ErrStoreUnavailable.
type Repository interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}
