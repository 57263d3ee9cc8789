package verify

import "github.com/abhisek/codehunt/internal/challenge"

// Verifier watches the editor for one challenge at a time. Starting a new
// verification cancels the previous one.
type Verifier interface {
	Start(c *challenge.Challenge, callback func(Result))
	Cancel()
	Active() bool
}

var (
	_ Verifier = (*NavigationVerifier)(nil)
	_ Verifier = (*ModificationVerifier)(nil)
)
