package http

import (
	"net/http"

	"consultas/internal/core"
	applog "consultas/internal/log"
)

// Chart geometry, in SVG user units.
const (
	chartWidth    = 720
	chartHeight   = 320
	chartMargin   = 12
	chartSlot     = (chartWidth - 2*chartMargin) / 12
	chartBarWidth = 40
	chartBaseline = 280
	chartPlot     = 220
)

type chartBar struct {
	Label   string
	Amount  string // whole reais, empty for a month without revenue
	Percent int
	X       int
	Y       int
	Width   int
	Height  int
	CenterX int
	ValueY  int
}

type summaryView struct {
	pageView
	Year     int
	Total    string
	Empty    bool
	Bars     []chartBar
	Width    int
	Height   int
	Baseline int
	AxisEnd  int
	TitleX   int
	LabelY   int
	Error    string
}

// barPercent scales cents against the best month, rounding to the nearest
// percent. Non-zero months get at least 2% so they stay visible.
func barPercent(cents, maxCents int64) int {
	if maxCents <= 0 || cents <= 0 {
		return 0
	}
	width := int((cents*100 + maxCents/2) / maxCents)
	if width < 2 {
		width = 2
	}
	if width > 100 {
		width = 100
	}
	return width
}

func chartBars(s core.YearSummary) []chartBar {
	maxCents := s.Max().Cents
	bars := make([]chartBar, 0, len(s.Months))
	for i, m := range s.Months {
		pct := barPercent(m.Cents, maxCents)
		h := pct * chartPlot / 100
		x := chartMargin + i*chartSlot + (chartSlot-chartBarWidth)/2
		b := chartBar{
			Label:   core.MonthLabels[i],
			Percent: pct,
			X:       x,
			Y:       chartBaseline - h,
			Width:   chartBarWidth,
			Height:  h,
			CenterX: x + chartBarWidth/2,
			ValueY:  chartBaseline - h - 6,
		}
		if m.Cents > 0 {
			b.Amount = m.BRLWhole()
		}
		bars = append(bars, b)
	}
	return bars
}

func (s *Server) newSummaryView(r *http.Request, sum core.YearSummary) summaryView {
	return summaryView{
		pageView: s.page(r, "Resumo financeiro anual", screenSummary),
		Year:     sum.Year,
		Total:    sum.Total().BRL(),
		Empty:    sum.Total().Cents == 0,
		Bars:     chartBars(sum),
		Width:    chartWidth,
		Height:   chartHeight,
		Baseline: chartBaseline,
		AxisEnd:  chartWidth - chartMargin,
		TitleX:   chartWidth / 2,
		LabelY:   chartBaseline + 20,
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	sum, err := s.appointments.CurrentYearSummary(ctx)
	if err != nil {
		s.events.LogError(r.Context(), "Failed to build yearly summary", err, applog.ComponentAppointment, applog.OpSummary, nil)
		view := s.newSummaryView(r, core.YearSummary{Year: s.appointments.Now().Year()})
		view.Error = "Erro ao calcular o resumo"
		s.renderScreen(w, r, http.StatusInternalServerError, "summary.html", "summary_panel", view, nil)
		return
	}
	s.renderScreen(w, r, http.StatusOK, "summary.html", "summary_panel", s.newSummaryView(r, sum), nil)
}
