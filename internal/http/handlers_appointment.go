package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"consultas/internal/core"
	applog "consultas/internal/log"
	"consultas/internal/report"
)

const (
	msgSaved        = "Consulta salva com sucesso!"
	msgRequired     = "Nome e CPF são obrigatórios"
	msgNoSelection  = "Nenhuma consulta selecionada."
	msgDeleted      = "Consulta(s) apagada(s)"
	msgSaveFailed   = "Erro ao salvar a consulta"
	msgLoadFailed   = "Erro ao carregar as consultas"
	msgDeleteFailed = "Erro ao apagar as consultas"
	msgNotFound     = "Consulta não encontrada"
)

// validationMessage is the inline text shown for a rejected Add form.
func validationMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrEmptyPatientName), errors.Is(err, core.ErrEmptyNationalID):
		return msgRequired
	case errors.Is(err, core.ErrPatientNameTooLong):
		return "Nome muito longo (máximo 200 caracteres)"
	case errors.Is(err, core.ErrDescriptionTooLong):
		return "Descrição muito longa (máximo 2000 caracteres)"
	case errors.Is(err, core.ErrInvalidAmount):
		return "Valor pago inválido"
	case errors.Is(err, core.ErrNoSelection):
		return msgNoSelection
	}
	return "Dados inválidos"
}

type addForm struct {
	PatientName string
	NationalID  string
	AmountPaid  string
	Description string
}

type addView struct {
	pageView
	Timestamp string
	Form      addForm
	Error     string
	Success   string
}

func (s *Server) newAddView(r *http.Request) addView {
	return addView{
		pageView:  s.page(r, "Nova consulta", screenAdd),
		Timestamp: core.Timestamp(s.appointments.Now()),
	}
}

func (s *Server) handleAddPage(w http.ResponseWriter, r *http.Request) {
	s.renderScreen(w, r, http.StatusOK, "add.html", "add_panel", s.newAddView(r), nil)
}

func (s *Server) handleCreateAppointment(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Parse form error", applog.FieldError, err)
		BadRequestError("Requisição inválida").Write(w)
		return
	}
	req := recordRequest(p)

	view := s.newAddView(r)
	view.Form = addForm{
		PatientName: req.PatientName,
		NationalID:  core.FormatNationalID(req.NationalID),
		AmountPaid:  req.AmountPaid,
		Description: req.Description,
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	saved, err := s.appointments.Record(ctx, req)
	if err != nil {
		if core.IsValidation(err) {
			view.Error = validationMessage(err)
			s.renderScreen(w, r, http.StatusUnprocessableEntity, "add.html", "add_panel", view, nil)
			return
		}
		s.events.LogError(r.Context(), "Failed to save appointment", err, applog.ComponentAppointment, applog.OpCreate, nil)
		view.Error = msgSaveFailed
		s.renderScreen(w, r, http.StatusInternalServerError, "add.html", "add_panel", view, nil)
		return
	}
	s.events.LogAppointmentRecorded(r.Context(), saved.ID, saved.AmountPaid.Cents)

	view.Success = msgSaved
	view.Timestamp = saved.RecordedAt
	view.Form.NationalID = ""
	s.renderScreen(w, r, http.StatusOK, "add.html", "add_panel", view,
		NewHTMXResponse().TriggerAppointmentRecorded(saved.ID))
}

// handleNationalID re-renders the CPF input with the formatted value.
func (s *Server) handleNationalID(w http.ResponseWriter, r *http.Request) {
	value := core.FormatNationalID(r.URL.Query().Get("national_id"))
	s.render(w, r, http.StatusOK, "national_id_input", addForm{NationalID: value}, nil)
}

type appointmentRow struct {
	ID          int64
	PatientName string
	NationalID  string
	Description string
	Amount      string
	RecordedAt  string
}

type listView struct {
	pageView
	Rows    []appointmentRow
	Error   string
	Warning string
	Success string
}

func rowsFor(list []core.Appointment) []appointmentRow {
	rows := make([]appointmentRow, 0, len(list))
	for _, a := range list {
		rows = append(rows, appointmentRow{
			ID:          a.ID,
			PatientName: a.PatientName,
			NationalID:  a.NationalID,
			Description: a.Description,
			Amount:      a.AmountPaid.BRL(),
			RecordedAt:  a.RecordedAt,
		})
	}
	return rows
}

// loadList fills view.Rows, returning false after rendering an error.
func (s *Server) loadList(w http.ResponseWriter, r *http.Request, view *listView) bool {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	list, err := s.appointments.List(ctx)
	if err != nil {
		s.events.LogError(r.Context(), "Failed to list appointments", err, applog.ComponentAppointment, applog.OpList, nil)
		view.Error = msgLoadFailed
		view.Success = ""
		s.renderScreen(w, r, http.StatusInternalServerError, "list.html", "appointments_panel", view, nil)
		return false
	}
	view.Rows = rowsFor(list)
	return true
}

func (s *Server) handleListAppointments(w http.ResponseWriter, r *http.Request) {
	view := listView{pageView: s.page(r, "Consultas realizadas", screenList)}
	if !s.loadList(w, r, &view) {
		return
	}
	s.renderScreen(w, r, http.StatusOK, "list.html", "appointments_panel", view, nil)
}

func (s *Server) handleDeleteAppointments(w http.ResponseWriter, r *http.Request) {
	view := listView{pageView: s.page(r, "Consultas realizadas", screenList)}

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Requisição inválida").Write(w)
		return
	}
	ids, err := parseIDs(p.Values("ids"))
	if err != nil {
		BadRequestError("Seleção inválida").Write(w)
		return
	}

	ctx, cancel := s.requestContext(r)
	removed, err := s.appointments.Delete(ctx, ids)
	cancel()

	status := http.StatusOK
	var b *HTMXResponseBuilder
	switch {
	case errors.Is(err, core.ErrNoSelection):
		status = http.StatusUnprocessableEntity
		view.Warning = msgNoSelection
		b = NewHTMXResponse().Notify(NotificationWarning, msgNoSelection, 3000)
	case err != nil:
		s.events.LogError(r.Context(), "Failed to delete appointments", err, applog.ComponentAppointment, applog.OpDelete, nil)
		status = http.StatusInternalServerError
		view.Error = msgDeleteFailed
	default:
		applog.FromContext(r.Context()).WithComponent(applog.ComponentAppointment).InfoContext(r.Context(),
			"Appointments deleted",
			applog.FieldAppointmentIDs, ids,
			applog.FieldCount, removed)
		view.Success = msgDeleted
		b = NewHTMXResponse().
			TriggerAppointmentsDeleted(removed).
			Notify(NotificationSuccess, fmt.Sprintf("%d consulta(s) apagada(s)", removed), 3000)
	}

	if !s.loadList(w, r, &view) {
		return
	}
	s.renderScreen(w, r, status, "list.html", "appointments_panel", view, b)
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	list, err := s.appointments.List(ctx)
	if err != nil {
		s.events.LogError(r.Context(), "Failed to list appointments for export", err, applog.ComponentReport, applog.OpExport, nil)
		InternalServerError(msgLoadFailed).Write(w)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, list); err != nil {
		s.events.LogError(r.Context(), "Failed to build spreadsheet", err, applog.ComponentReport, applog.OpExport, nil)
		InternalServerError("Erro ao gerar a planilha").Write(w)
		return
	}
	s.metrics.Exports.WithLabelValues("xlsx").Inc()

	sendAttachment(w, report.XLSXContentType, report.ExportFilename, buf.Bytes())
}

func (s *Server) handleReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		NotFoundError(msgNotFound).Write(w)
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	a, err := s.appointments.Get(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		NotFoundError(msgNotFound).Write(w)
		return
	}
	if err != nil {
		s.events.LogError(r.Context(), "Failed to load appointment", err, applog.ComponentReport, applog.OpRead,
			applog.NewFields().WithAppointment(id, 0))
		InternalServerError(msgLoadFailed).Write(w)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteReceipt(&buf, s.clinicName, a); err != nil {
		s.events.LogError(r.Context(), "Failed to build receipt", err, applog.ComponentReport, applog.OpExport,
			applog.NewFields().WithAppointment(a.ID, a.AmountPaid.Cents))
		InternalServerError("Erro ao gerar o recibo").Write(w)
		return
	}
	s.metrics.Exports.WithLabelValues("pdf").Inc()

	sendAttachment(w, "application/pdf", report.ReceiptFilename(a.ID), buf.Bytes())
}

func sendAttachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
