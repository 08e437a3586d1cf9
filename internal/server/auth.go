package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"blog/internal/forms"
	"blog/internal/models"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, r, http.StatusOK, "register", map[string]any{"Form": &forms.RegisterForm{}})

	case http.MethodPost:
		form := forms.RegisterFromRequest(r)
		if !form.Validate() {
			s.render(w, r, http.StatusBadRequest, "register", map[string]any{"Form": form})
			return
		}
		hash, err := models.HashPassword(form.Password)
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		user := &models.User{Username: form.Username, Email: form.Email, PasswordHash: hash, IsActive: true}
		err = s.Store.CreateUser(r.Context(), user)
		switch {
		case errors.Is(err, models.ErrDuplicateUsername):
			form.Errors["username"] = "A user with that username already exists."
		case errors.Is(err, models.ErrDuplicateEmail):
			form.Errors["email"] = "A user with that email already exists."
		case err != nil:
			s.serverError(w, r, err)
			return
		default:
			redirect(w, r, "/login")
			return
		}
		s.render(w, r, http.StatusBadRequest, "register", map[string]any{"Form": form})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		form := &forms.LoginForm{Next: forms.SafeNext(r.URL.Query().Get("next"))}
		s.render(w, r, http.StatusOK, "login", map[string]any{"Form": form})

	case http.MethodPost:
		form := forms.LoginFromRequest(r)
		if !form.Validate() {
			s.render(w, r, http.StatusBadRequest, "login", map[string]any{"Form": form})
			return
		}
		user, err := s.Store.Authenticate(r.Context(), form.Username, form.Password)
		if errors.Is(err, models.ErrInvalidCredentials) {
			form.Errors["__all__"] = "Please enter a correct username and password."
			s.render(w, r, http.StatusBadRequest, "login", map[string]any{"Form": form})
			return
		}
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		sid := uuid.NewString()
		expires := time.Now().UTC().Add(s.SessionTTL)
		if err := s.Store.CreateSession(r.Context(), user.ID, sid, expires); err != nil {
			s.serverError(w, r, err)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     s.CookieName,
			Value:    sid,
			Path:     "/",
			Expires:  expires,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		redirect(w, r, form.Next)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(s.CookieName); err == nil {
		if err := s.Store.RevokeSession(r.Context(), cookie.Value); err != nil {
			s.serverError(w, r, err)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: s.CookieName, Path: "/", MaxAge: -1})
	}
	redirect(w, r, "/")
}
