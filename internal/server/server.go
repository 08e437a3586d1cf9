package server

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"blog/internal/events"
	"blog/internal/models"
	"blog/internal/ratelimit"
	"blog/internal/telemetry"
)

type Options struct {
	TemplateDir string
	StaticDir   string
	SessionTTL  time.Duration
	Limiter     *ratelimit.Limiter
	Events      events.Publisher
	Metrics     *telemetry.Metrics
}

type Server struct {
	Store      *models.Store
	Limiter    *ratelimit.Limiter
	Events     events.Publisher
	Metrics    *telemetry.Metrics
	SessionTTL time.Duration
	CookieName string

	tmpl    map[string]*template.Template
	handler http.Handler
}

func New(store *models.Store, opts Options) (*Server, error) {
	templates, err := loadTemplates(opts.TemplateDir)
	if err != nil {
		return nil, err
	}
	s := &Server{
		Store:      store,
		Limiter:    opts.Limiter,
		Events:     opts.Events,
		Metrics:    opts.Metrics,
		SessionTTL: opts.SessionTTL,
		CookieName: "session_id",
		tmpl:       templates,
	}
	if s.Events == nil {
		s.Events = events.Nop{}
	}
	if s.Metrics == nil {
		s.Metrics = telemetry.NewMetrics()
	}
	if s.SessionTTL <= 0 {
		s.SessionTTL = 24 * time.Hour
	}
	s.handler = s.logRequests(s.withUser(s.Metrics.Middleware(s.routes(opts.StaticDir))))
	return s, nil
}

func (s *Server) routes(staticDir string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /post/{pk}/{$}", s.handleDetail)
	mux.HandleFunc("POST /post/{pk}/{$}", s.handleComment)
	mux.HandleFunc("GET /category/{category}/{$}", s.handleCategory)

	mux.HandleFunc("/register", s.handleRegister)
	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)

	mux.HandleFunc("GET /admin/{$}", s.requireStaff(s.handleAdminIndex))
	mux.HandleFunc("GET /admin/posts/{$}", s.requireStaff(s.handleAdminPosts))
	mux.HandleFunc("/admin/posts/new", s.requireStaff(s.handleAdminPostNew))
	mux.HandleFunc("/admin/posts/{pk}/edit", s.requireStaff(s.handleAdminPostEdit))
	mux.HandleFunc("POST /admin/posts/{pk}/delete", s.requireStaff(s.handleAdminPostDelete))
	mux.HandleFunc("/admin/categories/{$}", s.requireStaff(s.handleAdminCategories))
	mux.HandleFunc("POST /admin/categories/{pk}/delete", s.requireStaff(s.handleAdminCategoryDelete))
	mux.HandleFunc("GET /admin/comments/{$}", s.requireStaff(s.handleAdminComments))
	mux.HandleFunc("POST /admin/comments/{pk}/delete", s.requireStaff(s.handleAdminCommentDelete))
	mux.HandleFunc("GET /admin/users/{$}", s.requireStaff(s.handleAdminUsers))
	mux.HandleFunc("POST /admin/users/{pk}/staff", s.requireStaff(s.handleAdminUserStaff))
	mux.HandleFunc("POST /admin/users/{pk}/active", s.requireStaff(s.handleAdminUserActive))

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", s.Metrics.Handler())
	return mux
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// render executes page inside the layout. Output is buffered so a template
// failure still yields a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	t, ok := s.tmpl[name]
	if !ok {
		log.Printf("render: template %q not found", name)
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}
	if data == nil {
		data = map[string]any{}
	}
	data["User"] = userFrom(r.Context())
	data["Path"] = r.URL.Path

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		log.Printf("render %s: %v", name, err)
		http.Error(w, "render error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.render(w, r, status, "error", map[string]any{
		"Status":  status,
		"Title":   http.StatusText(status),
		"Message": msg,
	})
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.renderError(w, r, http.StatusNotFound, "The page you requested does not exist.")
}

// serverError logs err and answers 500, or 404 when err is ErrNotFound.
func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, models.ErrNotFound) {
		s.notFound(w, r)
		return
	}
	log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	s.renderError(w, r, http.StatusInternalServerError, "Something went wrong on our side.")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.Store.Ping(ctx); err != nil {
		http.Error(w, "db unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Write([]byte("ok"))
}

func redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func loginURL(next string) string {
	return "/login?next=" + url.QueryEscape(next)
}

func postURL(id uint) string {
	return "/post/" + strconv.FormatUint(uint64(id), 10) + "/"
}

// pathID parses the {pk} wildcard; zero means the value was not a valid id.
func pathID(r *http.Request) uint {
	n, err := strconv.ParseUint(r.PathValue("pk"), 10, 64)
	if err != nil {
		return 0
	}
	return uint(n)
}
