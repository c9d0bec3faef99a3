package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"huebook/api/internal/docstore"
	"huebook/api/internal/session"
)

const usersCollection = "users"

// SessionStore persists the device's signed-in identity across restarts.
// May be nil, in which case sessions live only for the process lifetime.
type SessionStore interface {
	Save(ctx context.Context, deviceID string, record session.Record) error
	Lookup(ctx context.Context, deviceID string) (session.Record, error)
	Revoke(ctx context.Context, deviceID string) error
}

// Local is an identity provider backed by the document store, with bcrypt
// password hashing and optional session persistence.
type Local struct {
	store    docstore.Store
	sessions SessionStore
	deviceID string
	logger   *zap.Logger

	mu        sync.Mutex
	current   *User
	listeners map[int]func(*User)
	nextID    int
}

// NewLocal creates a local identity provider. sessions may be nil.
func NewLocal(store docstore.Store, sessions SessionStore, deviceID string, logger *zap.Logger) *Local {
	return &Local{
		store:     store,
		sessions:  sessions,
		deviceID:  deviceID,
		logger:    logger,
		listeners: make(map[int]func(*User)),
	}
}

// Restore loads a persisted device session, if any, so the first auth-state
// notification reports the restored user. Call once before subscribing.
func (p *Local) Restore(ctx context.Context) {
	if p.sessions == nil {
		return
	}
	record, err := p.sessions.Lookup(ctx, p.deviceID)
	if errors.Is(err, session.ErrNotFound) {
		return
	}
	if err != nil {
		p.logger.Warn("session restore failed", zap.Error(err))
		return
	}

	p.mu.Lock()
	p.current = &User{UID: record.UserID, Email: record.Email, IsAnonymous: record.IsAnonymous}
	p.mu.Unlock()
}

// CurrentUser returns the signed-in user, or nil.
func (p *Local) CurrentUser() *User {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil
	}
	u := *p.current
	return &u
}

func (p *Local) SignUp(ctx context.Context, email, password string) (User, error) {
	if email == "" || password == "" {
		return User{}, errors.New("email and password are required")
	}

	// Check if email already exists
	existing, err := p.store.Query(ctx, usersCollection, docstore.Filter{
		Field: "email", Op: docstore.OpEqual, Value: email,
	})
	if err != nil {
		return User{}, fmt.Errorf("lookup email: %w", err)
	}
	if len(existing) > 0 {
		return User{}, errors.New("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	user := User{UID: uuid.NewString(), Email: email}
	fields := map[string]any{
		"email":        email,
		"passwordHash": string(hash),
		"isAnonymous":  false,
		"createdAt":    docstore.ServerTimestamp,
	}
	if err := p.store.Upsert(ctx, usersCollection, user.UID, fields, true); err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}

	p.becomeUser(ctx, user)
	return user, nil
}

func (p *Local) SignIn(ctx context.Context, email, password string) (User, error) {
	if email == "" || password == "" {
		return User{}, errors.New("email and password are required")
	}

	docs, err := p.store.Query(ctx, usersCollection, docstore.Filter{
		Field: "email", Op: docstore.OpEqual, Value: email,
	})
	if err != nil {
		return User{}, fmt.Errorf("lookup email: %w", err)
	}
	if len(docs) == 0 {
		return User{}, errors.New("invalid email or password")
	}

	doc := docs[0]
	hash, _ := doc.Fields["passwordHash"].(string)
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return User{}, errors.New("invalid email or password")
	}

	user := User{UID: doc.ID, Email: email}
	p.becomeUser(ctx, user)
	return user, nil
}

func (p *Local) SignInAnonymously(ctx context.Context) (User, error) {
	user := User{UID: uuid.NewString(), IsAnonymous: true}
	fields := map[string]any{
		"isAnonymous": true,
		"createdAt":   docstore.ServerTimestamp,
	}
	if err := p.store.Upsert(ctx, usersCollection, user.UID, fields, true); err != nil {
		return User{}, fmt.Errorf("create anonymous user: %w", err)
	}

	p.becomeUser(ctx, user)
	return user, nil
}

// SignOut clears the in-process identity unconditionally; revoking the
// persisted session is best effort and its error is returned for logging.
func (p *Local) SignOut(ctx context.Context) error {
	p.mu.Lock()
	p.current = nil
	p.mu.Unlock()
	p.notify(nil)

	if p.sessions == nil {
		return nil
	}
	if err := p.sessions.Revoke(ctx, p.deviceID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// OnAuthStateChange registers a callback. The current state is delivered
// asynchronously on subscription, then again on every change.
func (p *Local) OnAuthStateChange(callback func(*User)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = callback
	current := p.current
	if current != nil {
		u := *current
		current = &u
	}
	p.mu.Unlock()

	go callback(current)

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

func (p *Local) becomeUser(ctx context.Context, user User) {
	p.mu.Lock()
	u := user
	p.current = &u
	p.mu.Unlock()

	if p.sessions != nil {
		record := session.Record{UserID: user.UID, Email: user.Email, IsAnonymous: user.IsAnonymous}
		if err := p.sessions.Save(ctx, p.deviceID, record); err != nil {
			p.logger.Warn("session persist failed", zap.String("uid", user.UID), zap.Error(err))
		}
	}

	p.notify(&user)
}

// notify invokes listeners outside the lock; a listener may unsubscribe
// itself from inside the callback.
func (p *Local) notify(user *User) {
	p.mu.Lock()
	callbacks := make([]func(*User), 0, len(p.listeners))
	for _, cb := range p.listeners {
		callbacks = append(callbacks, cb)
	}
	p.mu.Unlock()

	for _, cb := range callbacks {
		var u *User
		if user != nil {
			copied := *user
			u = &copied
		}
		cb(u)
	}
}
