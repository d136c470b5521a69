package http

import (
	"net/http"

	applog "consultas/internal/log"
)

const (
	msgInvalidCredentials = "Usuário ou senha inválidos"
	msgTooManyAttempts    = "Muitas tentativas de login. Tente novamente em instantes."
)

type loginView struct {
	Title    string
	Clinic   string
	Username string
	Error    string
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, err := s.sessions.FromRequest(r); err == nil {
		http.Redirect(w, r, homePath, http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "login.html", loginView{Title: "Login", Clinic: s.clinicName}, nil)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Requisição inválida").Write(w)
		return
	}

	username := p.Get("username")
	pw := p.Raw("password")

	logger := applog.FromContext(r.Context()).WithComponent(applog.ComponentAuth)
	if !s.gate.Authenticate(username, pw) {
		s.metrics.LoginAttempts.WithLabelValues("failure").Inc()
		logger.WarnContext(r.Context(), "Login rejected",
			applog.FieldClientIP, s.detector.ClientIP(r))
		view := loginView{Title: "Login", Clinic: s.clinicName, Username: username, Error: msgInvalidCredentials}
		s.render(w, r, http.StatusUnauthorized, "login.html", view, nil)
		return
	}

	sess, err := s.sessions.Issue(w, username)
	if err != nil {
		s.metrics.LoginAttempts.WithLabelValues("error").Inc()
		s.events.LogError(r.Context(), "Failed to issue session", err, applog.ComponentAuth, applog.OpLogin, nil)
		InternalServerError("Erro ao iniciar a sessão").Write(w)
		return
	}
	s.metrics.LoginAttempts.WithLabelValues("success").Inc()
	logger.InfoContext(r.Context(), "Login succeeded",
		applog.FieldUsername, sess.Username,
		"session_id", sess.ID)

	if isHTMX(r) {
		NewHTMXResponse().Redirect(homePath).Write(w)
		return
	}
	http.Redirect(w, r, homePath, http.StatusSeeOther)
}

// handleLoginLimited answers a throttled POST /login. Retry-After is set by
// the limiter.
func (s *Server) handleLoginLimited(w http.ResponseWriter, r *http.Request) {
	s.metrics.RateLimited.WithLabelValues("/login").Inc()
	s.metrics.LoginAttempts.WithLabelValues("throttled").Inc()
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(),
		"Login rate limit exceeded", applog.FieldClientIP, s.detector.ClientIP(r))
	view := loginView{Title: "Login", Clinic: s.clinicName, Error: msgTooManyAttempts}
	s.render(w, r, http.StatusTooManyRequests, "login.html", view, nil)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Logout(w, r)
	if isHTMX(r) {
		NewHTMXResponse().Redirect(loginPath).Write(w)
		return
	}
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}
