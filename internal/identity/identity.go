// Package identity provides the identity-provider contract the app
// authenticates against: email/password and anonymous sign-in, sign-out,
// and an auth-state change notification.
package identity

import "context"

// User is an authenticated identity.
type User struct {
	UID         string
	Email       string
	IsAnonymous bool
}

// Provider is the identity-provider contract. OnAuthStateChange registers a
// callback that is invoked with the current user (nil when signed out) once
// on subscription and again on every subsequent change; the returned
// function unsubscribes it.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (User, error)
	SignIn(ctx context.Context, email, password string) (User, error)
	SignInAnonymously(ctx context.Context) (User, error)
	SignOut(ctx context.Context) error
	OnAuthStateChange(callback func(*User)) (unsubscribe func())
}
