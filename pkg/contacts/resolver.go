// Package contacts resolves contact details for notification display fields.
package contacts

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/imobmatch/imobmatch/pkg/models"
	"github.com/imobmatch/imobmatch/pkg/tracing"
)

// UserReader is the read-only user/company access the resolver needs
type UserReader interface {
	Get(ctx context.Context, id string) (*models.User, error)
	GetCompany(ctx context.Context, id string) (*models.Company, error)
}

// Resolver supplies contact phone numbers, falling back from the user record
// to the user's company record
type Resolver struct {
	users  UserReader
	logger ectologger.Logger
}

// NewResolver creates a contact resolver
func NewResolver(users UserReader, logger ectologger.Logger) *Resolver {
	return &Resolver{
		users:  users,
		logger: logger,
	}
}

// GetUser returns the user record for denormalized display fields
func (r *Resolver) GetUser(ctx context.Context, id string) (*models.User, error) {
	return r.users.Get(ctx, id)
}

// ResolvePhone returns the user's phone if set, otherwise the phone of the
// user's company if they belong to one, otherwise nil. A user with no phone
// and no company resolves to nil, never an error.
func (r *Resolver) ResolvePhone(ctx context.Context, userID string) (*string, error) {
	ctx, span := tracing.StartSpan(ctx, "contacts.Resolver.ResolvePhone")
	defer span.End()

	user, err := r.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.Phone != nil && *user.Phone != "" {
		return user.Phone, nil
	}

	if user.CompanyID == nil {
		return nil, nil
	}

	company, err := r.users.GetCompany(ctx, *user.CompanyID)
	if err != nil {
		return nil, err
	}

	if company.Phone != nil && *company.Phone != "" {
		return company.Phone, nil
	}

	return nil, nil
}
