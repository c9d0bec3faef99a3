package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"huebook/api/internal/export"
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
	logger     *zap.Logger
}

func NewHTTPServer(service *Service, corsOrigin string, logger *zap.Logger) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin, logger: logger}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := s.service.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/state" {
		writeJSON(w, http.StatusOK, s.service.Snapshot())
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/session/init" {
		authenticated, err := s.service.InitializeSession(r.Context())
		if err != nil {
			writeMappedError(w, err)
			return
		}
		snapshot := s.service.Snapshot()
		writeJSON(w, http.StatusOK, map[string]any{
			"authenticated": authenticated,
			"user":          snapshot.User,
		})
		return
	}

	if r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/api/auth/") {
		s.handleAuth(w, r)
		return
	}

	if strings.HasPrefix(r.URL.Path, "/api/moods") {
		s.handleMoods(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/selection" {
		s.handleSelection(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/export" {
		s.handleExport(w, r)
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found")
}

func (s *HTTPServer) handleAuth(w http.ResponseWriter, r *http.Request) {
	switch strings.TrimPrefix(r.URL.Path, "/api/auth/") {
	case "signup":
		var body struct {
			Email           string `json:"email"`
			Password        string `json:"password"`
			ConfirmPassword string `json:"confirmPassword"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
			return
		}
		user, err := s.service.SignUp(r.Context(), body.Email, body.Password, body.ConfirmPassword)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"uid": user.UID, "email": user.Email})

	case "signin":
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
			return
		}
		user, err := s.service.SignIn(r.Context(), body.Email, body.Password)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"uid": user.UID, "email": user.Email})

	case "anonymous":
		user, err := s.service.SignInAnonymously(r.Context())
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"uid": user.UID, "isAnonymous": true})

	case "signout":
		s.service.SignOut(r.Context())
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})

	case "clear-error":
		s.service.ClearAuthError()
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found")
	}
}

func (s *HTTPServer) handleMoods(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path) // ["api", "moods", ...]

	switch {
	case len(parts) == 2 && r.Method == http.MethodGet:
		entries, err := s.service.FetchHistory(r.Context())
		if err != nil {
			writeMappedError(w, err)
			return
		}
		if r.URL.Query().Get("group") == "month" {
			writeJSON(w, http.StatusOK, map[string]any{"groups": GroupByMonth(entries), "total": len(entries)})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"entries": entries, "total": len(entries)})

	case len(parts) == 2 && r.Method == http.MethodPost:
		var body struct {
			Color string `json:"color"`
			Notes string `json:"notes"`
			Date  string `json:"date"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
			return
		}
		date := time.Now()
		if body.Date != "" {
			parsed, err := parseDate(body.Date)
			if err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
				return
			}
			date = parsed
		}
		entry, err := s.service.SaveMood(r.Context(), body.Color, body.Notes, date)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entry)

	case len(parts) == 3 && parts[2] == "search" && r.Method == http.MethodGet:
		results, err := s.service.SearchNotes(r.URL.Query().Get("q"))
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"results": results, "total": len(results)})

	case len(parts) == 3 && r.Method == http.MethodDelete:
		if err := s.service.DeleteMood(r.Context(), parts[2]); err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deleted": parts[2]})

	case len(parts) == 3 && r.Method == http.MethodPut:
		var body struct {
			Color string `json:"color"`
			Notes string `json:"notes"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
			return
		}
		entry, err := s.service.EditMood(r.Context(), parts[2], body.Color, body.Notes)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entry)

	case len(parts) == 4 && parts[3] == "edit" && r.Method == http.MethodPost:
		if err := s.service.OpenEdit(parts[2]); err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.service.Snapshot().Edit)

	case len(parts) == 4 && parts[3] == "edit" && r.Method == http.MethodPatch:
		var body struct {
			Color *string `json:"color"`
			Notes *string `json:"notes"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
			return
		}
		if body.Color != nil {
			s.service.SetEditColor(*body.Color)
		}
		if body.Notes != nil {
			s.service.SetEditNotes(*body.Notes)
		}
		writeJSON(w, http.StatusOK, s.service.Snapshot().Edit)

	case len(parts) == 4 && parts[3] == "edit" && r.Method == http.MethodDelete:
		s.service.CloseEdit()
		writeJSON(w, http.StatusOK, map[string]any{"open": false})

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found")
	}
}

func (s *HTTPServer) handleSelection(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Color      *string `json:"color"`
		Notes      *string `json:"notes"`
		Date       *string `json:"date"`
		ResetNotes bool    `json:"resetNotes"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if body.Color != nil {
		s.service.SetSelectedColor(*body.Color)
	}
	if body.Notes != nil {
		s.service.SetNotes(*body.Notes)
	}
	if body.Date != nil {
		date, err := parseDate(*body.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
			return
		}
		s.service.SetSelectedDate(date)
	}
	if body.ResetNotes {
		s.service.ResetNotes()
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	window, err := export.ParseWindow(r.URL.Query().Get("window"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_WINDOW", err.Error())
		return
	}
	result, err := s.service.ExportHistory(r.Context(), window)
	if err != nil {
		writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		s.logger.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", writer.status),
			zap.Int64("duration_ms", time.Since(started).Milliseconds()),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"code":  code,
		"error": message,
	})
}

func writeMappedError(w http.ResponseWriter, err error) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		writeError(w, domainErr.Status, domainErr.Code, domainErr.Message)
		return
	}
	writeError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date: %q", raw)
}
