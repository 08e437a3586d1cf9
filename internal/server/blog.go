package server

import (
	"log"
	"net/http"
	"strconv"

	"blog/internal/events"
	"blog/internal/forms"
	"blog/internal/models"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	posts, err := s.Store.ListPosts(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "index", map[string]any{
		"Posts": posts,
	})
}

func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request) {
	category := r.PathValue("category")
	posts, err := s.Store.ListPostsByCategory(r.Context(), category)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "category", map[string]any{
		"Category": category,
		"Posts":    posts,
	})
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	s.renderDetail(w, r, http.StatusOK, &forms.CommentForm{})
}

// renderDetail shows the post named by {pk} with its comments and form.
func (s *Server) renderDetail(w http.ResponseWriter, r *http.Request, status int, form *forms.CommentForm) {
	id := pathID(r)
	if id == 0 {
		s.notFound(w, r)
		return
	}
	post, err := s.Store.GetPost(r.Context(), id)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	comments, err := s.Store.ListComments(r.Context(), id)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, status, "detail", map[string]any{
		"Post":     post,
		"Comments": comments,
		"Form":     form,
	})
}

func (s *Server) handleComment(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	if user == nil {
		redirect(w, r, loginURL(r.URL.Path))
		return
	}
	id := pathID(r)
	if id == 0 {
		s.notFound(w, r)
		return
	}

	form := forms.CommentFromRequest(r)
	if !form.Validate() {
		s.renderDetail(w, r, http.StatusBadRequest, form)
		return
	}

	ok, _, err := s.Limiter.Allow(r.Context(), "comment:user:"+strconv.FormatUint(uint64(user.ID), 10))
	if err != nil {
		log.Printf("comment rate limiter: %v", err)
	} else if !ok {
		s.Metrics.CommentsLimited.Inc()
		form.Errors["body"] = "You are commenting too quickly. Please wait a moment and try again."
		s.renderDetail(w, r, http.StatusTooManyRequests, form)
		return
	}

	comment := &models.Comment{Body: form.Body, PostID: id, AuthorID: user.ID}
	if err := s.Store.CreateComment(r.Context(), comment); err != nil {
		s.serverError(w, r, err)
		return
	}
	s.Metrics.CommentsCreated.Inc()
	if err := s.Events.Publish(r.Context(), events.Event{
		Type:      events.TypeCommentCreated,
		PostID:    id,
		CommentID: comment.ID,
		AuthorID:  user.ID,
	}); err != nil {
		log.Printf("publish %s: %v", events.TypeCommentCreated, err)
	}
	redirect(w, r, postURL(id))
}
