package http

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"

	"consultas/internal/auth"
	applog "consultas/internal/log"
	appweb "consultas/web"
)

// Screens selectable from the sidebar.
const (
	screenAdd     = "add"
	screenList    = "list"
	screenSummary = "summary"
)

func parseTemplates() (*template.Template, error) {
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return t, nil
}

// pageView is shared by every authenticated screen.
type pageView struct {
	Title    string
	Screen   string
	Clinic   string
	Username string
}

func (s *Server) page(r *http.Request, title, screen string) pageView {
	sess, _ := auth.FromContext(r.Context())
	return pageView{
		Title:    title,
		Screen:   screen,
		Clinic:   s.clinicName,
		Username: sess.Username,
	}
}

// render executes name into a buffer first so a template error still yields
// a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data interface{}, b *HTMXResponseBuilder) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.events.LogError(r.Context(), "Template execution error", err, applog.ComponentTemplate, applog.OpRender,
			applog.NewFields().WithHTTPRequest(r.Method, r.URL.Path, "", "", ""))
		InternalServerError("Erro ao exibir a página").Write(w)
		return
	}
	if b == nil {
		b = NewHTMXResponse()
	}
	b.Status(status).BodyHTML(buf.Bytes()).Write(w)
}

// renderScreen renders the full page for normal navigation and only the
// named fragment for htmx requests.
func (s *Server) renderScreen(w http.ResponseWriter, r *http.Request, status int, page, fragment string, data interface{}, b *HTMXResponseBuilder) {
	name := page
	if isHTMX(r) {
		name = fragment
	}
	s.render(w, r, status, name, data, b)
}
