package web

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/DataSweeper/internal/chart"
	"github.com/JonMunkholm/DataSweeper/internal/core"
	"github.com/JonMunkholm/DataSweeper/internal/web/templates"
)

// chartView prepares the chart fragment of a file. Too few numeric columns is
// not an error here; the fragment shows it as a notice.
func (s *Server) chartView(r *http.Request, sess *core.Session, id string, columns []string) (templates.ChartView, error) {
	cv := templates.ChartView{FileID: id, Columns: columns}
	data, err := s.service.Chart(requestContext(r), sess, id, columns)
	switch {
	case core.IsInformational(err):
		cv.Err = err
	case err != nil:
		return cv, err
	default:
		cv.Data = data
		cv.Shown = chart.VisibleRows(data, s.chartOpts)
	}
	return cv, nil
}

// handleChart serves the chart fragment for the "columns" query values.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	cv, err := s.chartView(r, session(r), chi.URLParam(r, "fileID"), r.URL.Query()["columns"])
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	render(w, r, http.StatusOK, templates.ChartFragment(cv))
}

// handleChartSVG serves the chart image. Its fragment already recorded the
// chart, so this does not record again.
func (s *Server) handleChartSVG(w http.ResponseWriter, r *http.Request) {
	data, err := s.service.PeekChart(session(r), chi.URLParam(r, "fileID"), r.URL.Query()["columns"])
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	svg, err := chart.RenderSVG(data, s.chartOpts)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(svg)
}

// handleExport converts the selected columns and sends them as a download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	choice := r.PostForm.Get("format")
	if choice == "" {
		choice = "csv"
	}
	format, err := core.ParseExportFormat(choice)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	art, err := s.service.Export(requestContext(r), session(r), chi.URLParam(r, "fileID"), r.PostForm["columns"], format)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	w.Header().Set("Content-Type", art.MIMEType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": art.FileName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(art.Data)))
	w.Header().Set("Cache-Control", "no-store")
	w.Write(art.Data)
}
