package api

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/export"
	"github.com/sells-group/prospect-cli/internal/model"
)

// projectSummary is a project without its leads.
type projectSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Date      string `json:"date"`
	LeadCount int    `json:"leadCount"`
	Active    bool   `json:"active"`
}

func (s *Server) handleListProjects(w http.ResponseWriter, _ *http.Request) {
	ws := s.svc.Workspace()
	active := ws.Session().CurrentProjectID
	projects := ws.Projects()

	out := make([]projectSummary, len(projects))
	for i, p := range projects {
		out[i] = projectSummary{
			ID:        p.ID,
			Name:      p.Name,
			Date:      p.Date.UTC().Format(time.RFC3339),
			LeadCount: len(p.Leads),
			Active:    p.ID == active,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type createProjectRequest struct {
	Name string `json:"name"`
	// FromSession saves the current working leads into the new project.
	FromSession bool `json:"fromSession"`
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	ws := s.svc.Workspace()
	var leads []model.Lead
	if req.FromSession {
		leads = ws.Leads()
	}
	p, err := ws.CreateProject(r.Context(), req.Name, leads)
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Workspace().Project(chi.URLParam(r, "projectID"))
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleLoadProject(w http.ResponseWriter, r *http.Request) {
	ws := s.svc.Workspace()
	if _, err := ws.LoadProject(r.Context(), chi.URLParam(r, "projectID")); err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ws.Session())
}

func (s *Server) handleDiscardProject(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Workspace().DiscardProject(r.Context(), chi.URLParam(r, "projectID")); err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCloseProject(w http.ResponseWriter, r *http.Request) {
	ws := s.svc.Workspace()
	if err := ws.CloseProject(r.Context()); err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ws.Session())
}

func (s *Server) handleExportProject(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, invalid(err.Error()), http.StatusInternalServerError)
		return
	}
	p, err := s.svc.Workspace().Project(chi.URLParam(r, "projectID"))
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, p, format); err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(p, format)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		zap.L().Debug("api: write export", zap.Error(err))
	}
}
