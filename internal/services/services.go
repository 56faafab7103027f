// Package services holds the CRM use cases. Every operation receives the
// owner id explicitly and checks ownership through the gate before returning
// or mutating a resource.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/diewo77/go-crm/gate"
	"github.com/diewo77/go-crm/internal/repository"
)

var (
	// ErrNotFound covers missing resources and resources owned by someone else.
	ErrNotFound           = repository.ErrNotFound
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Clock returns the current time; tests replace it.
type Clock func() time.Time

// authorize hides foreign resources behind ErrNotFound.
func authorize(ctx context.Context, g *gate.Gate[uint], ownerID uint, action gate.Action, resourceType string, resource any) error {
	err := g.Authorize(ctx, ownerID, action, resourceType, resource)
	if errors.Is(err, gate.ErrUnauthorized) {
		return ErrNotFound
	}
	return err
}

// today is the UTC calendar day of t.
func today(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
