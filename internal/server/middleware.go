package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"blog/internal/models"
)

type ctxKey int

const userKey ctxKey = iota

func userFrom(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}

// withUser resolves the session cookie once per request.
func (s *Server) withUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u := s.currentUser(r); u != nil {
			r = r.WithContext(context.WithValue(r.Context(), userKey, u))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) currentUser(r *http.Request) *models.User {
	cookie, err := r.Cookie(s.CookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	sess, err := s.Store.GetSession(r.Context(), cookie.Value)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			log.Printf("session lookup: %v", err)
		}
		return nil
	}
	if !sess.Valid(time.Now()) || !sess.User.IsActive {
		return nil
	}
	return &sess.User
}

func (s *Server) requireAuth(next func(http.ResponseWriter, *http.Request, *models.User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := userFrom(r.Context())
		if user == nil {
			redirect(w, r, loginURL(r.URL.Path))
			return
		}
		next(w, r, user)
	}
}

func (s *Server) requireStaff(next func(http.ResponseWriter, *http.Request, *models.User)) http.HandlerFunc {
	return s.requireAuth(func(w http.ResponseWriter, r *http.Request, user *models.User) {
		if !user.IsStaff {
			s.renderError(w, r, http.StatusForbidden, "You do not have permission to view the admin site.")
			return
		}
		next(w, r, user)
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)
		log.Printf("%s %s %d %s", r.Method, r.URL.Path, sw.code, time.Since(start).Round(time.Microsecond))
	})
}
