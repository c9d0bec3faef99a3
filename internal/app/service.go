// Package app is the sync/state core: it owns all application state and
// mediates every read/write against the document store and the identity
// provider. Screens read snapshots and dispatch intents; nothing else
// mutates state.
package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"huebook/api/internal/catalog"
	"huebook/api/internal/docstore"
	"huebook/api/internal/export"
	"huebook/api/internal/identity"
	"huebook/api/internal/search"
)

// documentStore is the slice of the document-store contract the service
// uses.
type documentStore interface {
	Upsert(ctx context.Context, collection, id string, fields map[string]any, merge bool) error
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, collection string, filter docstore.Filter) ([]docstore.Document, error)
	Ping(ctx context.Context) error
}

// Service is the state container. State mutations are serialized by mu;
// remote calls run outside the lock so snapshots stay readable while an
// intent is suspended on the network.
type Service struct {
	store    documentStore
	provider identity.Provider
	search   *search.Service
	share    export.ShareTarget // may be nil
	logger   *zap.Logger

	mu    sync.Mutex
	state State
}

func New(store documentStore, provider identity.Provider, searchSvc *search.Service, share export.ShareTarget, logger *zap.Logger) *Service {
	return &Service{
		store:    store,
		provider: provider,
		search:   searchSvc,
		share:    share,
		logger:   logger,
		state: State{
			SelectedColor: "#FFD700",
			SelectedDate:  time.Now(),
			History:       []MoodEntry{},
		},
	}
}

// Snapshot returns a copy of the current state for rendering.
func (s *Service) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Ping reports document-store reachability for readiness checks.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ColorName resolves a color to its catalog label.
func (s *Service) ColorName(color string) string {
	return catalog.Name(color)
}

// InitializeSession subscribes once to the identity provider's auth-state
// notification, resolves on the first delivery, and unsubscribes. It is
// one-shot: external sign-outs after this resolves are not observed.
// Subsequent calls return the already-resolved session state.
func (s *Service) InitializeSession(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.state.AuthInitialized {
		authenticated := s.state.Authenticated
		s.mu.Unlock()
		return authenticated, nil
	}
	s.state.AuthLoading = true
	s.mu.Unlock()

	resolved := make(chan *identity.User, 1)
	var once sync.Once
	unsubscribe := s.provider.OnAuthStateChange(func(user *identity.User) {
		once.Do(func() { resolved <- user })
	})
	defer unsubscribe()

	var user *identity.User
	select {
	case user = <-resolved:
	case <-ctx.Done():
		s.mu.Lock()
		s.state.AuthLoading = false
		s.mu.Unlock()
		return false, ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.AuthLoading = false
	s.state.AuthInitialized = true
	s.state.User = user
	s.state.Authenticated = user != nil
	return s.state.Authenticated, nil
}

// SignUp validates the credentials locally, then creates the account. The
// session becomes authenticated on success; on provider failure the session
// stays unauthenticated and the provider's message is surfaced.
func (s *Service) SignUp(ctx context.Context, email, password, confirmPassword string) (identity.User, error) {
	if err := validateCredentials(email, password); err != nil {
		return identity.User{}, err
	}
	if password != confirmPassword {
		return identity.User{}, validationError("passwords do not match")
	}

	s.beginAuth()
	user, err := s.provider.SignUp(ctx, email, password)
	return s.finishAuth(user, err)
}

// SignIn validates the credentials locally, then authenticates.
func (s *Service) SignIn(ctx context.Context, email, password string) (identity.User, error) {
	if err := validateCredentials(email, password); err != nil {
		return identity.User{}, err
	}

	s.beginAuth()
	user, err := s.provider.SignIn(ctx, email, password)
	return s.finishAuth(user, err)
}

// SignInAnonymously authenticates without credentials.
func (s *Service) SignInAnonymously(ctx context.Context) (identity.User, error) {
	s.beginAuth()
	user, err := s.provider.SignInAnonymously(ctx)
	return s.finishAuth(user, err)
}

func (s *Service) beginAuth() {
	s.mu.Lock()
	s.state.AuthLoading = true
	s.state.AuthErr = ""
	s.mu.Unlock()
}

func (s *Service) finishAuth(user identity.User, err error) (identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.AuthLoading = false
	if err != nil {
		s.state.AuthErr = err.Error()
		return identity.User{}, authError(err.Error())
	}
	u := user
	s.state.User = &u
	s.state.Authenticated = true
	s.state.AuthInitialized = true
	return user, nil
}

// SignOut always succeeds locally: session, cached history, and the edit
// session are cleared even when the provider call fails.
func (s *Service) SignOut(ctx context.Context) {
	if err := s.provider.SignOut(ctx); err != nil {
		s.logger.Warn("sign-out revoke failed", zap.Error(err))
	}

	s.mu.Lock()
	s.state.User = nil
	s.state.Authenticated = false
	s.state.History = []MoodEntry{}
	s.state.Edit = EditState{}
	s.state.AuthErr = ""
	s.state.Err = ""
	s.mu.Unlock()

	s.search.Clear()
}

func validateCredentials(email, password string) error {
	if email == "" || password == "" {
		return validationError("please fill in all fields")
	}
	if !strings.Contains(email, "@") {
		return validationError("please enter a valid email address")
	}
	if len(password) < 6 {
		return validationError("password must be at least 6 characters long")
	}
	return nil
}

// currentUser is the precondition gate: every mood intent fails here, before
// any remote call, when the session is not authenticated.
func (s *Service) currentUser() (identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Authenticated || s.state.User == nil {
		return identity.User{}, errUnauthenticated()
	}
	return *s.state.User, nil
}

// SaveMood persists one entry for the given calendar day, merging over any
// prior entry for the same day. A remote failure is logged and swallowed:
// the local entry stands either way.
func (s *Service) SaveMood(ctx context.Context, color, notes string, date time.Time) (MoodEntry, error) {
	user, err := s.currentUser()
	if err != nil {
		return MoodEntry{}, err
	}

	s.mu.Lock()
	s.state.IsLoading = true
	s.state.Err = ""
	s.mu.Unlock()

	key := dayKey(date)
	entry := MoodEntry{
		ID:        moodDocID(user, key),
		Color:     color,
		ColorName: catalog.Name(color),
		Notes:     notes,
		Date:      date.Format(time.RFC3339),
		DateKey:   key,
		UserID:    user.UID,
		UserEmail: user.Email,
	}

	fields := map[string]any{
		"color":     entry.Color,
		"colorName": entry.ColorName,
		"notes":     entry.Notes,
		"date":      entry.Date,
		"dateKey":   entry.DateKey,
		"userId":    entry.UserID,
		"userEmail": entry.UserEmail,
		"timestamp": docstore.ServerTimestamp,
	}
	if err := s.store.Upsert(ctx, moodsCollection, entry.ID, fields, true); err != nil {
		s.logger.Warn("mood save failed, keeping local entry",
			zap.String("id", entry.ID), zap.Error(err))
	}
	entry.Timestamp = time.Now().UTC().Format(time.RFC3339)

	s.mu.Lock()
	s.state.IsLoading = false
	s.state.Notes = ""
	if s.state.User != nil && s.state.User.UID == user.UID {
		s.upsertCachedLocked(entry)
	}
	s.mu.Unlock()

	s.search.Index(searchRecord(entry))
	return entry, nil
}

// upsertCachedLocked applies the optimistic update: replace by id when the
// day already has a cached entry, otherwise prepend.
func (s *Service) upsertCachedLocked(entry MoodEntry) {
	for i := range s.state.History {
		if s.state.History[i].ID == entry.ID {
			s.state.History[i] = entry
			return
		}
	}
	s.state.History = append([]MoodEntry{entry}, s.state.History...)
}

// FetchHistory loads every entry owned by the current user, newest first.
// A remote failure degrades to an empty collection rather than failing the
// caller; the message is kept on the snapshot for a retry affordance.
func (s *Service) FetchHistory(ctx context.Context) ([]MoodEntry, error) {
	user, err := s.currentUser()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.state.IsLoadingHistory = true
	s.state.Err = ""
	s.mu.Unlock()

	docs, err := s.store.Query(ctx, moodsCollection, docstore.Filter{
		Field: "userId", Op: docstore.OpEqual, Value: user.UID,
	})
	if err != nil {
		s.logger.Warn("history fetch failed, degrading to empty", zap.Error(err))
		s.mu.Lock()
		s.state.IsLoadingHistory = false
		s.state.Err = err.Error()
		s.state.History = []MoodEntry{}
		s.mu.Unlock()
		return []MoodEntry{}, nil
	}

	entries := make([]MoodEntry, 0, len(docs))
	for _, doc := range docs {
		entry := entryFromDocument(doc)
		// Defense against an overly broad query
		if entry.UserID != user.UID {
			continue
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return effectiveDate(entries[i]).After(effectiveDate(entries[j]))
	})

	s.mu.Lock()
	s.state.IsLoadingHistory = false
	if s.state.User != nil && s.state.User.UID == user.UID {
		s.state.History = entries
	}
	s.mu.Unlock()

	records := make([]search.Record, len(entries))
	for i, entry := range entries {
		records[i] = searchRecord(entry)
	}
	s.search.IndexAll(records)

	out := make([]MoodEntry, len(entries))
	copy(out, entries)
	return out, nil
}

// DeleteMood removes an entry. The cached entry is removed regardless of
// remote success; deleting an id that is not cached is a no-op.
func (s *Service) DeleteMood(ctx context.Context, id string) error {
	_, err := s.currentUser()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.state.IsLoading = true
	s.state.Err = ""
	s.mu.Unlock()

	if err := s.store.Delete(ctx, moodsCollection, id); err != nil {
		s.logger.Warn("mood delete failed, removing local entry anyway",
			zap.String("id", id), zap.Error(err))
	}

	s.mu.Lock()
	s.state.IsLoading = false
	kept := s.state.History[:0]
	for _, entry := range s.state.History {
		if entry.ID != id {
			kept = append(kept, entry)
		}
	}
	s.state.History = kept
	s.mu.Unlock()

	s.search.Remove(id)
	return nil
}

// OpenEdit starts an edit session on a cached entry, seeding the working
// copy from it. Opening while another session is active replaces it.
func (s *Service) OpenEdit(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.state.History {
		if entry.ID == id {
			s.state.Edit = EditState{Open: true, Target: id, Color: entry.Color, Notes: entry.Notes}
			s.state.EditErr = ""
			return nil
		}
	}
	return domainError(404, CodeEditSession, "entry not found in history")
}

// SetEditColor updates the edit session's working color.
func (s *Service) SetEditColor(color string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Edit.Open {
		s.state.Edit.Color = color
	}
}

// SetEditNotes updates the edit session's working notes.
func (s *Service) SetEditNotes(notes string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Edit.Open {
		s.state.Edit.Notes = notes
	}
}

// CloseEdit discards the edit session without writing.
func (s *Service) CloseEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Edit = EditState{}
	s.state.EditErr = ""
}

// EditMood commits new color/notes for the entry the edit session targets,
// merging so unrelated stored fields survive. Same best-effort policy as
// save: remote failure is logged, the local entry is updated, and the edit
// session closes either way.
func (s *Service) EditMood(ctx context.Context, id, color, notes string) (MoodEntry, error) {
	user, err := s.currentUser()
	if err != nil {
		return MoodEntry{}, err
	}

	s.mu.Lock()
	if !s.state.Edit.Open || s.state.Edit.Target != id {
		s.mu.Unlock()
		return MoodEntry{}, domainError(409, CodeEditSession, "no edit session open for this entry")
	}
	s.state.IsEditing = true
	s.state.EditErr = ""
	s.mu.Unlock()

	colorName := catalog.Name(color)
	fields := map[string]any{
		"color":     color,
		"colorName": colorName,
		"notes":     notes,
		"timestamp": docstore.ServerTimestamp,
	}
	if err := s.store.Upsert(ctx, moodsCollection, id, fields, true); err != nil {
		s.logger.Warn("mood edit failed, updating local entry anyway",
			zap.String("id", id), zap.Error(err))
	}

	updated := MoodEntry{ID: id, Color: color, ColorName: colorName, Notes: notes, UserID: user.UID}

	s.mu.Lock()
	s.state.IsEditing = false
	for i := range s.state.History {
		if s.state.History[i].ID == id {
			s.state.History[i].Color = color
			s.state.History[i].ColorName = colorName
			s.state.History[i].Notes = notes
			updated = s.state.History[i]
			break
		}
	}
	s.state.Edit = EditState{}
	s.mu.Unlock()

	s.search.Index(searchRecord(updated))
	return updated, nil
}

// SearchNotes queries the current user's entries by notes or mood label.
func (s *Service) SearchNotes(query string) ([]search.Record, error) {
	user, err := s.currentUser()
	if err != nil {
		return nil, err
	}
	return s.search.Search(user.UID, query), nil
}

// ExportResult is a rendered export and, when a share target is configured,
// a link to the uploaded copy.
type ExportResult struct {
	Text     string `json:"text"`
	ShareURL string `json:"shareUrl,omitempty"`
}

// ExportHistory renders the emoji grid for the window. With no entries in
// the window it reports NO_DATA and the share target is not invoked;
// sharing itself is best effort.
func (s *Service) ExportHistory(ctx context.Context, window export.Window) (ExportResult, error) {
	user, err := s.currentUser()
	if err != nil {
		return ExportResult{}, err
	}

	s.mu.Lock()
	entries := make([]export.Entry, 0, len(s.state.History))
	for _, entry := range s.state.History {
		entries = append(entries, export.Entry{Color: entry.Color, Date: effectiveDate(entry)})
	}
	s.mu.Unlock()

	text, err := export.Build(entries, window, time.Now())
	if err != nil {
		return ExportResult{}, domainError(404, CodeNoData, err.Error())
	}

	result := ExportResult{Text: text}
	if s.share != nil {
		name := fmt.Sprintf("exports/%s/%s-%d.txt", user.UID, window, time.Now().Unix())
		url, err := s.share.Share(ctx, name, text)
		if err != nil {
			s.logger.Warn("export share failed", zap.String("name", name), zap.Error(err))
		} else {
			result.ShareURL = url
		}
	}
	return result, nil
}

// Synchronous selection reducers, dispatched by the home screen.

// SetSelectedColor picks the day's color and reveals the notes field.
func (s *Service) SetSelectedColor(color string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SelectedColor = color
	s.state.ShowNotes = true
}

func (s *Service) SetNotes(notes string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Notes = notes
}

func (s *Service) SetSelectedDate(date time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SelectedDate = date
}

func (s *Service) ResetNotes() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Notes = ""
}

func (s *Service) ClearAuthError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.AuthErr = ""
}

func searchRecord(entry MoodEntry) search.Record {
	return search.Record{
		ID:        entry.ID,
		UserID:    entry.UserID,
		Color:     entry.Color,
		ColorName: entry.ColorName,
		Notes:     entry.Notes,
		Date:      entry.Date,
	}
}
