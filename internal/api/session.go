package api

import (
	"net/http"
	"strings"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/prospect"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Workspace().Session())
}

type contextRequest struct {
	BusinessDescription string `json:"businessDescription"`
}

func (s *Server) handleSetContext(w http.ResponseWriter, r *http.Request) {
	var req contextRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	ws := s.svc.Workspace()
	if err := ws.SetBusinessContext(r.Context(), req.BusinessDescription); err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ws.Session())
}

type contextFileRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

func (s *Server) handleAppendContextFile(w http.ResponseWriter, r *http.Request) {
	var req contextFileRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, invalid("content is required"), http.StatusInternalServerError)
		return
	}
	ws := s.svc.Workspace()
	if err := ws.AppendContextFile(r.Context(), req.Name, req.Content); err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ws.Session())
}

type stepRequest struct {
	Step string `json:"step"`
}

func (s *Server) handleSetStep(w http.ResponseWriter, r *http.Request) {
	var req stepRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	step, err := model.ParseStep(req.Step)
	if err != nil {
		writeError(w, invalid(err.Error()), http.StatusInternalServerError)
		return
	}
	ws := s.svc.Workspace()
	if err := ws.SetStep(r.Context(), step); err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ws.Session())
}

type assistRequest struct {
	History       []model.Message `json:"history"`
	Message       string          `json:"message"`
	Files         []string        `json:"files"`
	Language      string          `json:"language"`
	UpdateContext bool            `json:"updateContext"`
}

type assistResponse struct {
	Reply      string          `json:"reply"`
	Error      string          `json:"error,omitempty"`
	Transcript []model.Message `json:"transcript"`
}

// handleAssist always answers 200 with a reply: a failed backend call
// yields the fallback text and the failure in error.
func (s *Server) handleAssist(w http.ResponseWriter, r *http.Request) {
	var req assistRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	if strings.TrimSpace(req.Message) == "" && len(req.Files) == 0 {
		writeError(w, invalid("message is required"), http.StatusInternalServerError)
		return
	}

	res, err := s.svc.Assist(r.Context(), prospect.AssistInput{
		History:       req.History,
		Message:       req.Message,
		Files:         req.Files,
		Language:      s.lang(req.Language),
		UpdateContext: req.UpdateContext,
	})
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, assistResponse{
		Reply:      res.Reply.Value,
		Error:      errString(res.Reply.Err),
		Transcript: res.Transcript,
	})
}
