// Package middleware wraps a ports.StateStore with cross-cutting persistence behavior,
// such as encrypting session state at rest or masking answers to sensitive questions.
package middleware

import "github.com/aretw0/funnel/pkg/ports"

// Middleware allows wrapping a StateStore to add behavior.
type Middleware func(ports.StateStore) ports.StateStore

// Chain wraps store with mws. The first middleware is the outermost one, so it sees
// every Save before the others.
func Chain(store ports.StateStore, mws ...Middleware) ports.StateStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
