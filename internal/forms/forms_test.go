package forms

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func postRequest(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestCommentForm(t *testing.T) {
	testCases := []struct {
		name  string
		body  string
		valid bool
	}{
		{name: "valid", body: "nice post", valid: true},
		{name: "empty", body: "", valid: false},
		{name: "whitespace only", body: " \n\t ", valid: false},
		{name: "at limit", body: strings.Repeat("é", MaxCommentLength), valid: true},
		{name: "too long", body: strings.Repeat("a", MaxCommentLength+1), valid: false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := CommentFromRequest(postRequest(url.Values{"body": {tc.body}}))
			assert.Equal(t, tc.valid, f.Validate())
			if !tc.valid {
				assert.Contains(t, f.Errors, "body")
			}
		})
	}
}

func TestPostForm(t *testing.T) {
	f := PostFromRequest(postRequest(url.Values{
		"title":      {"  Hello  "},
		"body":       {"world"},
		"categories": {"1", "3"},
	}))
	assert.True(t, f.Validate())
	assert.Equal(t, "Hello", f.Title)
	assert.Equal(t, []uint{1, 3}, f.CategoryIDs)
	assert.True(t, f.HasCategory(3))
	assert.False(t, f.HasCategory(2))

	f = PostFromRequest(postRequest(url.Values{"title": {""}, "body": {""}, "categories": {"x"}}))
	assert.False(t, f.Validate())
	assert.Contains(t, f.Errors, "title")
	assert.Contains(t, f.Errors, "body")
	assert.Contains(t, f.Errors, "categories")

	f = PostFromRequest(postRequest(url.Values{"title": {strings.Repeat("t", MaxTitleLength+1)}, "body": {"b"}}))
	assert.False(t, f.Validate())
	assert.Contains(t, f.Errors, "title")
}

func TestCategoryForm(t *testing.T) {
	assert.True(t, CategoryFromRequest(postRequest(url.Values{"name": {"Go"}})).Validate())
	assert.False(t, CategoryFromRequest(postRequest(url.Values{"name": {" "}})).Validate())
	assert.False(t, CategoryFromRequest(postRequest(url.Values{"name": {strings.Repeat("n", MaxCategoryLength+1)}})).Validate())
}

func TestRegisterForm(t *testing.T) {
	valid := url.Values{
		"username":         {"alice"},
		"email":            {"alice@example.com"},
		"password":         {"correct horse"},
		"confirm_password": {"correct horse"},
	}
	assert.True(t, RegisterFromRequest(postRequest(valid)).Validate())

	testCases := []struct {
		name  string
		field string
		value string
	}{
		{name: "bad email", field: "email", value: "not-an-email"},
		{name: "username with space", field: "username", value: "al ice"},
		{name: "short password", field: "password", value: "short"},
		{name: "mismatched confirmation", field: "confirm_password", value: "other"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			values := url.Values{}
			for k, v := range valid {
				values[k] = v
			}
			values.Set(tc.field, tc.value)
			f := RegisterFromRequest(postRequest(values))
			assert.False(t, f.Validate())
			assert.Contains(t, f.Errors, tc.field)
		})
	}
}

func TestLoginForm(t *testing.T) {
	f := LoginFromRequest(postRequest(url.Values{"username": {"alice"}, "password": {"pw"}, "next": {"/post/1/"}}))
	assert.True(t, f.Validate())
	assert.Equal(t, "/post/1/", f.Next)

	f = LoginFromRequest(postRequest(url.Values{}))
	assert.False(t, f.Validate())
	assert.Len(t, f.Errors, 2)
}

func TestSafeNext(t *testing.T) {
	assert.Equal(t, "/", SafeNext(""))
	assert.Equal(t, "/", SafeNext("https://evil.example"))
	assert.Equal(t, "/", SafeNext("//evil.example"))
	assert.Equal(t, "/", SafeNext(`/\evil.example`))
	assert.Equal(t, "/admin/", SafeNext("/admin/"))
}
