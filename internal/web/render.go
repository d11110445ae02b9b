package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/koustreak/sharebox/internal/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

// pageData is the single view model shared by all pages.
type pageData struct {
	Message     string
	Name        string
	Files       []string
	Deleted     bool
	Filename    string
	DownloadURL string
}

func parseTemplates() (*template.Template, error) {
	return template.New("").
		Funcs(template.FuncMap{"pathescape": url.PathEscape}).
		ParseFS(templateFS, "templates/*.html")
}

// render executes into a buffer first so a template error can still
// produce a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		logger.FromContext(r.Context()).ErrorWith("template render failed", err, map[string]any{"template": name})
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func redirectWithMessage(w http.ResponseWriter, r *http.Request, path, msg string) {
	http.Redirect(w, r, path+"?message="+url.QueryEscape(msg), http.StatusSeeOther)
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	first, size := utf8.DecodeRuneInString(s)
	if first == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(first)) + strings.ToLower(s[size:])
}
