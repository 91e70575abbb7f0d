package cart

import (
	cartrepo "storefront-checkout/internal/repository/cart"
)

// AuthState is the authentication signal observed by the selector.
type AuthState interface {
	DeviceID() string
	CustomerID() (string, bool)
}

// BackendFor binds a backend to an owner id.
type BackendFor func(ownerID string) cartrepo.Backend

// Selector picks the storage backend from the current authentication state on every call.
type Selector struct {
	auth   AuthState
	local  BackendFor
	remote BackendFor
}

func NewSelector(auth AuthState, local, remote BackendFor) *Selector {
	return &Selector{auth: auth, local: local, remote: remote}
}

// Resolve returns the remote backend for an authenticated session and the local one otherwise.
func (s *Selector) Resolve() cartrepo.Backend {
	if customerID, ok := s.auth.CustomerID(); ok {
		return s.remote(customerID)
	}
	return s.Local()
}

// Local returns the device backend regardless of authentication.
func (s *Selector) Local() cartrepo.Backend {
	return s.local(s.auth.DeviceID())
}
