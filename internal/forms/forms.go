// Package forms parses and validates the HTML forms posted to the blog.
// A form keeps the submitted values so a failed submission can be re-rendered.
package forms

import (
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	MaxCommentLength  = 5000
	MaxTitleLength    = 255
	MaxCategoryLength = 50
	MaxUsernameLength = 150
	MinPasswordLength = 8
)

// Errors maps a field name to its message.
type Errors map[string]string

func (e Errors) add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

func required(errs Errors, field, value string) bool {
	if strings.TrimSpace(value) == "" {
		errs.add(field, "This field is required.")
		return false
	}
	return true
}

func maxLength(errs Errors, field, value string, n int) {
	if utf8.RuneCountInString(value) > n {
		errs.add(field, "Ensure this value has at most "+strconv.Itoa(n)+" characters.")
	}
}

type CommentForm struct {
	Body   string
	Errors Errors
}

func CommentFromRequest(r *http.Request) *CommentForm {
	return &CommentForm{Body: r.PostFormValue("body")}
}

func (f *CommentForm) Validate() bool {
	f.Errors = Errors{}
	if required(f.Errors, "body", f.Body) {
		maxLength(f.Errors, "body", f.Body, MaxCommentLength)
	}
	return len(f.Errors) == 0
}

type PostForm struct {
	Title       string
	Body        string
	CategoryIDs []uint
	Errors      Errors
}

func PostFromRequest(r *http.Request) *PostForm {
	f := &PostForm{
		Title:  strings.TrimSpace(r.PostFormValue("title")),
		Body:   r.PostFormValue("body"),
		Errors: Errors{},
	}
	for _, v := range r.PostForm["categories"] {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil || id == 0 {
			f.Errors.add("categories", "Select a valid choice.")
			continue
		}
		f.CategoryIDs = append(f.CategoryIDs, uint(id))
	}
	return f
}

// HasCategory is used by the admin template to keep choices selected.
func (f *PostForm) HasCategory(id uint) bool {
	for _, c := range f.CategoryIDs {
		if c == id {
			return true
		}
	}
	return false
}

func (f *PostForm) Validate() bool {
	if f.Errors == nil {
		f.Errors = Errors{}
	}
	if required(f.Errors, "title", f.Title) {
		maxLength(f.Errors, "title", f.Title, MaxTitleLength)
	}
	required(f.Errors, "body", f.Body)
	return len(f.Errors) == 0
}

type CategoryForm struct {
	Name   string
	Errors Errors
}

func CategoryFromRequest(r *http.Request) *CategoryForm {
	return &CategoryForm{Name: strings.TrimSpace(r.PostFormValue("name"))}
}

func (f *CategoryForm) Validate() bool {
	f.Errors = Errors{}
	if required(f.Errors, "name", f.Name) {
		maxLength(f.Errors, "name", f.Name, MaxCategoryLength)
	}
	return len(f.Errors) == 0
}

type RegisterForm struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	Errors          Errors
}

func RegisterFromRequest(r *http.Request) *RegisterForm {
	return &RegisterForm{
		Username:        strings.TrimSpace(r.PostFormValue("username")),
		Email:           strings.TrimSpace(r.PostFormValue("email")),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	}
}

func (f *RegisterForm) Validate() bool {
	f.Errors = Errors{}
	if required(f.Errors, "username", f.Username) {
		maxLength(f.Errors, "username", f.Username, MaxUsernameLength)
		if strings.ContainsAny(f.Username, " /\t\n") {
			f.Errors.add("username", "Enter a valid username.")
		}
	}
	if required(f.Errors, "email", f.Email) {
		if _, err := mail.ParseAddress(f.Email); err != nil {
			f.Errors.add("email", "Enter a valid email address.")
		}
	}
	if required(f.Errors, "password", f.Password) && utf8.RuneCountInString(f.Password) < MinPasswordLength {
		f.Errors.add("password", "This password is too short. It must contain at least "+strconv.Itoa(MinPasswordLength)+" characters.")
	}
	if f.Password != f.ConfirmPassword {
		f.Errors.add("confirm_password", "The two password fields didn't match.")
	}
	return len(f.Errors) == 0
}

type LoginForm struct {
	Username string
	Password string
	Next     string
	Errors   Errors
}

func LoginFromRequest(r *http.Request) *LoginForm {
	return &LoginForm{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Password: r.PostFormValue("password"),
		Next:     SafeNext(r.PostFormValue("next")),
	}
}

func (f *LoginForm) Validate() bool {
	f.Errors = Errors{}
	required(f.Errors, "username", f.Username)
	required(f.Errors, "password", f.Password)
	return len(f.Errors) == 0
}

// SafeNext keeps redirect targets on this site.
func SafeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return "/"
	}
	return next
}
