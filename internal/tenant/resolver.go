// Package tenant maps an authenticated principal to the commerce customer
// account it acts for.
package tenant

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Session is the identity the inbound boundary authenticated for this request.
type Session struct {
	UserID     string
	CustomerID string
}

type sessionKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}

// Mapper is the direct user-to-customer lookup. An unknown user yields an
// empty id and a nil error.
type Mapper interface {
	GetCustomerID(ctx context.Context, userID string) (string, error)
}

type Resolver struct {
	mapper Mapper
}

func NewResolver(mapper Mapper) (*Resolver, error) {
	if mapper == nil {
		return nil, errors.New("tenant: mapper must not be nil")
	}
	return &Resolver{mapper: mapper}, nil
}

// ResolveCustomerID prefers the customer id carried by the request session and
// falls back to the mapping table.
func (r *Resolver) ResolveCustomerID(ctx context.Context, userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if s, ok := SessionFrom(ctx); ok && s.CustomerID != "" {
		if s.UserID == "" || s.UserID == userID {
			return s.CustomerID, nil
		}
	}
	if userID == "" {
		return "", nil
	}
	id, err := r.mapper.GetCustomerID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("tenant: resolve customer for %q: %w", userID, err)
	}
	return strings.TrimSpace(id), nil
}
