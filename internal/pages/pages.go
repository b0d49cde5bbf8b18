// Package pages renders the HTML pages around the login flow.
package pages

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"webauth/internal/auth"
	"webauth/internal/auth/flow"
	"webauth/internal/auth/provider/google"
	"webauth/internal/logger"
)

//go:embed templates/*.html
var files embed.FS

const (
	Index   = "index.html"
	About   = "about.html"
	Profile = "profile.html"
	Cookies = "cookies.html"
	Error   = "error.html"
)

// View is the data every page receives.
type View struct {
	User       *auth.ResolvedIdentity
	LoginQuery string

	// cookies page
	ReturnURL string

	// error page
	Status     int
	StatusText string
	Message    string
}

type Renderer struct {
	templates map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	r := &Renderer{templates: map[string]*template.Template{}}

	for _, name := range []string{Index, About, Profile, Cookies, Error} {
		t, err := template.ParseFS(files, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("pages: parse %s: %w", name, err)
		}
		r.templates[name] = t
	}

	return r, nil
}

// Render writes the named page. Output is buffered so a template error
// never leaves a half-written page behind.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, v View) error {
	t, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("pages: unknown page %q", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", v); err != nil {
		return fmt.Errorf("pages: render %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// HTML renders a page for a gin request, filling in the identity from
// the resolve stage.
func (r *Renderer) HTML(c *gin.Context, status int, name string, v View) {
	if v.User == nil {
		if res, err := auth.ResolutionFromContext(c.Request.Context()); err == nil {
			if id, ok := res.Identity(); ok {
				v.User = &id
			}
		}
	}
	if v.LoginQuery == "" {
		v.LoginQuery = loginQuery(c.Request.URL)
	}

	if err := r.Render(c.Writer, status, name, v); err != nil {
		logger.Error("page render failed", map[string]any{
			"error": err,
			"page":  name,
		})
		c.String(http.StatusInternalServerError, "internal server error")
	}
}

// loginQuery is the return_url query for the layout's login link. Login
// and OAuth return URLs are one-shot and never come back as targets.
func loginQuery(u *url.URL) string {
	target := flow.DefaultLanding
	switch u.Path {
	case "/login", google.ReturnPath:
	default:
		target = flow.SanitizeReturnURL(u.RequestURI())
	}
	return returnQuery(target)
}

func returnQuery(target string) string {
	return "?return_url=" + url.QueryEscape(target)
}

// RenderError shows the generic error page. Its login link always
// returns to the start page.
func (r *Renderer) RenderError(c *gin.Context, status int, message string) {
	r.HTML(c, status, Error, View{
		LoginQuery: returnQuery(flow.DefaultLanding),
		Status:     status,
		StatusText: http.StatusText(status),
		Message:    message,
	})
	c.Abort()
}

func (r *Renderer) IndexPage(c *gin.Context) {
	r.HTML(c, http.StatusOK, Index, View{})
}

func (r *Renderer) AboutPage(c *gin.Context) {
	r.HTML(c, http.StatusOK, About, View{})
}

// ProfilePage must sit behind the require stage.
func (r *Renderer) ProfilePage(c *gin.Context) {
	r.HTML(c, http.StatusOK, Profile, View{})
}

// CookiesPage is the same-site hop after login: the browser lands here
// from the provider redirect chain and then follows a same-site link,
// so the SameSite=Strict session cookie is sent on the next request.
func (r *Renderer) CookiesPage(c *gin.Context) {
	target := flow.SanitizeReturnURL(c.Query("return_url"))
	r.HTML(c, http.StatusOK, Cookies, View{
		LoginQuery: returnQuery(target),
		ReturnURL:  target,
	})
}
