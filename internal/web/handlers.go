package web

import (
	"fmt"
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/DataSweeper/internal/core"
	"github.com/JonMunkholm/DataSweeper/internal/logging"
	"github.com/JonMunkholm/DataSweeper/internal/web/middleware"
	"github.com/JonMunkholm/DataSweeper/internal/web/templates"
)

// selectionRows caps the rows shown under the column chooser.
const selectionRows = 50

// render writes c as an HTML page with status.
func render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render failed", "path", r.URL.Path, "error", err)
	}
}

// session returns the caller's session. The Session middleware guarantees one.
func session(r *http.Request) *core.Session {
	return middleware.SessionFromContext(r.Context())
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s.renderDashboard(w, r, nil)
}

func (s *Server) renderDashboard(w http.ResponseWriter, r *http.Request, notices []templates.Notice) {
	render(w, r, http.StatusOK, templates.Dashboard(templates.DashboardData{
		Notices:     notices,
		Files:       s.service.Views(session(r)),
		MaxFiles:    s.cfg.Upload.MaxFiles,
		MaxFileSize: s.cfg.Upload.MaxFileSize.String(),
	}))
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.renderFile(w, r, q["columns"], q.Get("chart") == "1", nil)
}

// renderFile renders the page of the file named by the route for a column
// selection.
func (s *Server) renderFile(w http.ResponseWriter, r *http.Request, columns []string, showChart bool, notices []templates.Notice) {
	sess := session(r)
	id := chi.URLParam(r, "fileID")

	view, err := s.service.View(sess, id)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	sel, err := s.service.Select(sess, id, columns, selectionRows)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	data := templates.FilePageData{
		Section:   templates.FileSectionData{View: view, Selected: columns},
		Notices:   notices,
		Selection: sel,
	}
	if showChart {
		cv, err := s.chartView(r, sess, id, columns)
		if err != nil {
			respondError(w, r, err, statusFor(err))
			return
		}
		data.Chart = &cv
	}
	render(w, r, http.StatusOK, templates.FilePage(data))
}

func (s *Server) handleDedupe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	removed, err := s.service.Deduplicate(requestContext(r), session(r), chi.URLParam(r, "fileID"))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	notice := templates.Success(fmt.Sprintf("Duplicates removed: %d row(s).", removed))
	if removed == 0 {
		notice = templates.Info("No duplicate rows found.")
	}
	s.renderFile(w, r, r.PostForm["columns"], false, []templates.Notice{notice})
}

func (s *Server) handleFill(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	filled, err := s.service.FillMissing(requestContext(r), session(r), chi.URLParam(r, "fileID"))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	notice := templates.Success(fmt.Sprintf("Missing values filled: %d cell(s).", filled))
	if filled == 0 {
		notice = templates.Info("No missing numeric values to fill.")
	}
	s.renderFile(w, r, r.PostForm["columns"], false, []templates.Notice{notice})
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status   string           `json:"status"`
	Sessions int              `json:"sessions"`
	Uploads  core.ParseStatus `json:"uploads"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Sessions: s.service.Store().Len(),
		Uploads:  s.service.UploadStatus(),
	})
}
