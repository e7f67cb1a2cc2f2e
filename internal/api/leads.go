package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/outreach"
	"github.com/sells-group/prospect-cli/internal/pipeline"
	"github.com/sells-group/prospect-cli/internal/prospect"
)

type searchResponse struct {
	Leads   []model.Lead   `json:"leads"`
	Project *model.Project `json:"project"`
}

func newSearchResponse(res prospect.SearchResult) searchResponse {
	leads := res.Leads
	if leads == nil {
		leads = []model.Lead{}
	}
	return searchResponse{Leads: leads, Project: res.Project}
}

type discoverRequest struct {
	Sector     string `json:"sector"`
	Location   string `json:"location"`
	Strategy   string `json:"strategy"`
	HiringOnly bool   `json:"hiringOnly"`
	Language   string `json:"language"`
}

func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	var req discoverRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	res, err := s.svc.Discover(r.Context(), prospect.DiscoverInput{
		Sector:     strings.TrimSpace(req.Sector),
		Location:   strings.TrimSpace(req.Location),
		Strategy:   req.Strategy,
		HiringOnly: req.HiringOnly,
		Language:   s.lang(req.Language),
	})
	if err != nil {
		writeError(w, err, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, newSearchResponse(res))
}

type auditRequest struct {
	URL      string `json:"url"`
	Language string `json:"language"`
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	var req auditRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	if _, err := pipeline.NormalizeURL(req.URL); err != nil {
		writeError(w, invalid(err.Error()), http.StatusInternalServerError)
		return
	}
	res, err := s.svc.Audit(r.Context(), req.URL, s.lang(req.Language))
	if err != nil {
		writeError(w, err, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, newSearchResponse(res))
}

func (s *Server) handleListLeads(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Workspace().Leads())
}

func (s *Server) handleGetLead(w http.ResponseWriter, r *http.Request) {
	lead, err := s.svc.Workspace().Lead(chi.URLParam(r, "leadID"))
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

type statusRequest struct {
	Status model.LeadStatus `json:"status"`
}

func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	switch req.Status {
	case model.LeadStatusNew, model.LeadStatusAnalyzed, model.LeadStatusContacted, model.LeadStatusConverted:
	default:
		writeError(w, invalid("unknown status "+string(req.Status)), http.StatusInternalServerError)
		return
	}
	lead, err := s.svc.Workspace().SetStatus(r.Context(), chi.URLParam(r, "leadID"), req.Status)
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

type analyzeRequest struct {
	Language string `json:"language"`
	ReAudit  bool   `json:"reAudit"`
	OnlyNew  bool   `json:"onlyNew"`
}

// stageErrors names the stages that fell back to defaults.
type stageErrors struct {
	Audit    string `json:"audit,omitempty"`
	Analysis string `json:"analysis,omitempty"`
	Draft    string `json:"draft,omitempty"`
}

func newStageErrors(e pipeline.Enrichment) *stageErrors {
	if e.Err() == nil {
		return nil
	}
	out := &stageErrors{Analysis: errString(e.Deep.Err)}
	if e.Audit != nil {
		out.Audit = errString(e.Audit.Err)
	}
	if e.Draft != nil {
		out.Draft = errString(e.Draft.Err)
	}
	return out
}

type analyzeResponse struct {
	LeadID string       `json:"leadId"`
	Lead   *model.Lead  `json:"lead,omitempty"`
	Stages *stageErrors `json:"stageErrors,omitempty"`
	Error  string       `json:"error,omitempty"`
}

// handleAnalyze answers 200 whenever the lead was saved, even when stages
// fell back to defaults; stageErrors lists those.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	id := chi.URLParam(r, "leadID")
	lead, res, err := s.svc.Analyze(r.Context(), id, prospect.AnalyzeOptions{
		Language: s.lang(req.Language),
		ReAudit:  req.ReAudit,
	})
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, analyzeResponse{LeadID: id, Lead: &lead, Stages: newStageErrors(res)})
}

func (s *Server) handleAnalyzeAll(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	results, err := s.svc.AnalyzeAll(r.Context(), req.OnlyNew, prospect.AnalyzeOptions{
		Language: s.lang(req.Language),
		ReAudit:  req.ReAudit,
	})
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}

	out := make([]analyzeResponse, len(results))
	for i, res := range results {
		out[i] = analyzeResponse{LeadID: res.LeadID, Error: errString(res.Err)}
		if res.Err == nil {
			lead := res.Lead
			out[i].Lead = &lead
			out[i].Stages = newStageErrors(res.Enrichment)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleReAudit(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	lead, err := s.svc.ReAudit(r.Context(), chi.URLParam(r, "leadID"), s.lang(req.Language))
	if err != nil {
		writeError(w, err, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

type draftResponse struct {
	Email   string          `json:"email"`
	History []model.Message `json:"history"`
}

func (s *Server) handleGetEmail(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.EmailDraft(chi.URLParam(r, "leadID"))
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, draftResponse{Email: d.Email, History: d.History})
}

type emailRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleEditEmail(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	lead, err := s.svc.EditEmail(r.Context(), chi.URLParam(r, "leadID"), req.Email)
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

type refineRequest struct {
	Instruction string `json:"instruction"`
}

func (s *Server) handleRefine(w http.ResponseWriter, r *http.Request) {
	var req refineRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	lead, err := s.svc.Refine(r.Context(), chi.URLParam(r, "leadID"), req.Instruction)
	if err != nil {
		writeError(w, err, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

type sendRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// handleSend mails a lead. The credential travels in MailTokenHeader so it
// never lands in request logs or bodies.
func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	lead, err := s.svc.Send(r.Context(), chi.URLParam(r, "leadID"), outreach.Request{
		Credential: r.Header.Get(MailTokenHeader),
		To:         strings.TrimSpace(req.To),
		Subject:    req.Subject,
		Body:       req.Body,
	})
	if err != nil {
		writeError(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}
