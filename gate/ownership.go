package gate

import "context"

// Ownable is implemented by every model that belongs to a user.
type Ownable interface {
	GetUserID() uint
}

// OwnershipPolicy grants access to a resource only to its owner.
// Resources that do not implement Ownable are denied.
type OwnershipPolicy struct{}

func (OwnershipPolicy) Can(_ context.Context, userID uint, _ Action, resource any) bool {
	if resource == nil {
		return true
	}
	o, ok := resource.(Ownable)
	if !ok {
		return false
	}
	return o.GetUserID() == userID
}

// NewOwnerGate returns the gate used by the services: quotes, clients and
// cards are all owner-scoped.
func NewOwnerGate() *Gate[uint] {
	g := New[uint]()
	for _, rt := range []string{ResourceQuote, ResourceClient, ResourceCard} {
		g.Register(rt, OwnershipPolicy{})
	}
	return g
}
