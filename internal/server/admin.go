package server

import (
	"errors"
	"log"
	"net/http"

	"blog/internal/events"
	"blog/internal/forms"
	"blog/internal/models"
)

const recentComments = 50

func (s *Server) handleAdminIndex(w http.ResponseWriter, r *http.Request, _ *models.User) {
	ctx := r.Context()
	posts, err := s.Store.ListPosts(ctx)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	cats, err := s.Store.ListCategories(ctx)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	comments, err := s.Store.ListRecentComments(ctx, 5)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if len(posts) > 5 {
		posts = posts[:5]
	}
	s.render(w, r, http.StatusOK, "admin/index", map[string]any{
		"Posts":         posts,
		"Categories":    cats,
		"CategoryLabel": models.Category{}.VerboseNamePlural(),
		"Comments":      comments,
	})
}

func (s *Server) handleAdminPosts(w http.ResponseWriter, r *http.Request, _ *models.User) {
	posts, err := s.Store.ListPosts(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "admin/posts", map[string]any{"Posts": posts})
}

func (s *Server) renderPostForm(w http.ResponseWriter, r *http.Request, status int, form *forms.PostForm, post *models.Post) {
	cats, err := s.Store.ListCategories(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, status, "admin/post_form", map[string]any{
		"Form":       form,
		"Post":       post,
		"Categories": cats,
	})
}

func (s *Server) handleAdminPostNew(w http.ResponseWriter, r *http.Request, user *models.User) {
	switch r.Method {
	case http.MethodGet:
		s.renderPostForm(w, r, http.StatusOK, &forms.PostForm{}, nil)

	case http.MethodPost:
		form := forms.PostFromRequest(r)
		if !form.Validate() {
			s.renderPostForm(w, r, http.StatusBadRequest, form, nil)
			return
		}
		post := &models.Post{Title: form.Title, Body: form.Body, AuthorID: user.ID}
		err := s.Store.CreatePost(r.Context(), post, form.CategoryIDs)
		if errors.Is(err, models.ErrUnknownCategory) {
			form.Errors["categories"] = "Select a valid choice."
			s.renderPostForm(w, r, http.StatusBadRequest, form, nil)
			return
		}
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		if err := s.Events.Publish(r.Context(), events.Event{
			Type:     events.TypePostPublished,
			PostID:   post.ID,
			AuthorID: user.ID,
			Title:    post.Title,
		}); err != nil {
			log.Printf("publish %s: %v", events.TypePostPublished, err)
		}
		redirect(w, r, "/admin/posts/")
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleAdminPostEdit(w http.ResponseWriter, r *http.Request, _ *models.User) {
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

	switch r.Method {
	case http.MethodGet:
		form := &forms.PostForm{Title: post.Title, Body: post.Body}
		for _, c := range post.Categories {
			form.CategoryIDs = append(form.CategoryIDs, c.ID)
		}
		s.renderPostForm(w, r, http.StatusOK, form, post)

	case http.MethodPost:
		form := forms.PostFromRequest(r)
		if !form.Validate() {
			s.renderPostForm(w, r, http.StatusBadRequest, form, post)
			return
		}
		err := s.Store.UpdatePost(r.Context(), id, form.Title, form.Body, form.CategoryIDs)
		if errors.Is(err, models.ErrUnknownCategory) {
			form.Errors["categories"] = "Select a valid choice."
			s.renderPostForm(w, r, http.StatusBadRequest, form, post)
			return
		}
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		redirect(w, r, "/admin/posts/")
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleAdminPostDelete(w http.ResponseWriter, r *http.Request, _ *models.User) {
	if err := s.Store.DeletePost(r.Context(), pathID(r)); err != nil {
		s.serverError(w, r, err)
		return
	}
	redirect(w, r, "/admin/posts/")
}

func (s *Server) handleAdminCategories(w http.ResponseWriter, r *http.Request, _ *models.User) {
	form := &forms.CategoryForm{}
	status := http.StatusOK

	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		form = forms.CategoryFromRequest(r)
		if form.Validate() {
			if err := s.Store.CreateCategory(r.Context(), &models.Category{Name: form.Name}); err != nil {
				s.serverError(w, r, err)
				return
			}
			redirect(w, r, "/admin/categories/")
			return
		}
		status = http.StatusBadRequest
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	cats, err := s.Store.ListCategories(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, status, "admin/categories", map[string]any{
		"Categories": cats,
		"Label":      models.Category{}.VerboseNamePlural(),
		"Form":       form,
	})
}

func (s *Server) handleAdminCategoryDelete(w http.ResponseWriter, r *http.Request, _ *models.User) {
	if err := s.Store.DeleteCategory(r.Context(), pathID(r)); err != nil {
		s.serverError(w, r, err)
		return
	}
	redirect(w, r, "/admin/categories/")
}

func (s *Server) handleAdminComments(w http.ResponseWriter, r *http.Request, _ *models.User) {
	comments, err := s.Store.ListRecentComments(r.Context(), recentComments)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "admin/comments", map[string]any{"Comments": comments})
}

func (s *Server) handleAdminCommentDelete(w http.ResponseWriter, r *http.Request, _ *models.User) {
	if err := s.Store.DeleteComment(r.Context(), pathID(r)); err != nil {
		s.serverError(w, r, err)
		return
	}
	redirect(w, r, "/admin/comments/")
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request, _ *models.User) {
	users, err := s.Store.ListUsers(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "admin/users", map[string]any{"Users": users})
}

// handleAdminUserStaff grants or revokes staff status. Staff cannot demote
// themselves.
func (s *Server) handleAdminUserStaff(w http.ResponseWriter, r *http.Request, user *models.User) {
	id := pathID(r)
	staff := r.PostFormValue("is_staff") == "on"
	if id == user.ID && !staff {
		s.renderError(w, r, http.StatusBadRequest, "You cannot remove your own staff status.")
		return
	}
	if err := s.Store.SetStaff(r.Context(), id, staff); err != nil {
		s.serverError(w, r, err)
		return
	}
	redirect(w, r, "/admin/users/")
}

func (s *Server) handleAdminUserActive(w http.ResponseWriter, r *http.Request, user *models.User) {
	id := pathID(r)
	active := r.PostFormValue("is_active") == "on"
	if id == user.ID && !active {
		s.renderError(w, r, http.StatusBadRequest, "You cannot deactivate your own account.")
		return
	}
	if err := s.Store.SetActive(r.Context(), id, active); err != nil {
		s.serverError(w, r, err)
		return
	}
	redirect(w, r, "/admin/users/")
}
