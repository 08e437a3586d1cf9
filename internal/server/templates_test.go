package server

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdown(t *testing.T) {
	out := string(markdown("# Title\n\nSome **bold** text.\n\n<script>alert(1)</script>\n"))
	assert.Contains(t, out, "<h1>Title</h1>")
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.NotContains(t, out, "<script>")

	out = string(markdown("[x](javascript:alert(1))"))
	assert.NotContains(t, out, `href="javascript:`)
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", excerpt("short", 10))
	assert.Equal(t, "héllo…", excerpt("héllo world", 6))
	assert.Equal(t, strings.Repeat("a", 400)+"…", excerpt(strings.Repeat("a", 500), 400))
}

func TestCategoryURL(t *testing.T) {
	assert.Equal(t, "/category/Go/", categoryURL("Go"))
	assert.Equal(t, "/category/web%20dev/", categoryURL("web dev"))
	assert.Equal(t, "/category/a%2Fb/", categoryURL("a/b"))
}

func TestLoadTemplates(t *testing.T) {
	templates, err := loadTemplates("../../web/templates")
	require.NoError(t, err)
	for _, name := range []string{"index", "detail", "category", "login", "register", "error", "admin/index", "admin/post_form"} {
		assert.Contains(t, templates, name)
	}
	assert.NotContains(t, templates, "layout")

	_, err = loadTemplates(t.TempDir())
	assert.Error(t, err)
}
