package server

import (
	"fmt"
	"html/template"
	"net/url"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/russross/blackfriday"
)

const (
	markdownHTMLFlags = blackfriday.HTML_USE_XHTML |
		blackfriday.HTML_USE_SMARTYPANTS |
		blackfriday.HTML_SMARTYPANTS_FRACTIONS |
		blackfriday.HTML_SMARTYPANTS_DASHES |
		blackfriday.HTML_SKIP_HTML |
		blackfriday.HTML_SAFELINK

	markdownExtensions = blackfriday.EXTENSION_NO_INTRA_EMPHASIS |
		blackfriday.EXTENSION_TABLES |
		blackfriday.EXTENSION_FENCED_CODE |
		blackfriday.EXTENSION_AUTOLINK |
		blackfriday.EXTENSION_STRIKETHROUGH |
		blackfriday.EXTENSION_SPACE_HEADERS
)

// markdown renders a post body. Raw HTML in the source is dropped.
func markdown(s string) template.HTML {
	renderer := blackfriday.HtmlRenderer(markdownHTMLFlags, "", "")
	return template.HTML(blackfriday.Markdown([]byte(s), renderer, markdownExtensions))
}

func excerpt(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimRightFunc(string(r[:n]), func(c rune) bool { return c == ' ' || c == '\n' }) + "…"
}

func formatDate(t time.Time) string {
	return t.Local().Format("Jan 2, 2006 15:04")
}

func categoryURL(name string) string {
	return "/category/" + url.PathEscape(name) + "/"
}

var funcs = template.FuncMap{
	"markdown":    markdown,
	"excerpt":     excerpt,
	"date":        formatDate,
	"categoryURL": categoryURL,
	"postURL":     postURL,
}

// loadTemplates pairs layout.html and the shared partials with every page
// under dir and dir/admin. Pages fill the "title" and "content" blocks the
// layout declares.
func loadTemplates(dir string) (map[string]*template.Template, error) {
	layout := filepath.Join(dir, "layout.html")
	partials, err := filepath.Glob(filepath.Join(dir, "partials", "*.html"))
	if err != nil {
		return nil, err
	}
	shared := append([]string{layout}, partials...)

	templates := map[string]*template.Template{}
	for _, sub := range []string{"", "admin"} {
		pages, err := filepath.Glob(filepath.Join(dir, sub, "*.html"))
		if err != nil {
			return nil, err
		}
		for _, page := range pages {
			if page == layout {
				continue
			}
			files := append(append([]string{}, shared...), page)
			t, err := template.New("layout.html").Funcs(funcs).ParseFiles(files...)
			if err != nil {
				return nil, fmt.Errorf("parse %s: %w", page, err)
			}
			name := strings.TrimSuffix(filepath.Base(page), ".html")
			if sub != "" {
				name = sub + "/" + name
			}
			templates[name] = t
		}
	}
	if len(templates) == 0 {
		return nil, fmt.Errorf("no templates found in %s", dir)
	}
	return templates, nil
}
