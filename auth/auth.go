// Package auth exposes the identity-provider collaborator: session
// retrieval, sign-in/up/out, and an auth-state-change notification stream.
// The provider itself is external; the chat core only consumes this surface.
package auth

import (
	"context"
	"strings"
)

// Event is an auth-state-change notification kind.
type Event string

const (
	EventSignedIn  Event = "SIGNED_IN"
	EventSignedOut Event = "SIGNED_OUT"
)

// Session describes the signed-in user.
type Session struct {
	UserID string
	Email  string
	Name   string
}

// Provider is the identity-provider surface the application consumes.
//
// OnAuthStateChange registers the single subscriber for state-change
// events; registering again replaces the previous subscriber. The returned
// function unsubscribes and must be called on teardown; it is safe to call
// more than once.
type Provider interface {
	GetSession(ctx context.Context) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, name, email, password string) (*Session, error)
	SignOut(ctx context.Context) error
	OnAuthStateChange(fn func(Event, *Session)) (unsubscribe func())
}

// displayName derives a fallback display name from the email local part.
func displayName(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return "User"
}
