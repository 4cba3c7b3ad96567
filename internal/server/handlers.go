package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/abhisek/medsim/internal/cases"
	"github.com/abhisek/medsim/internal/dialogue"
	"github.com/abhisek/medsim/internal/objective"
	"github.com/abhisek/medsim/internal/progress"
	"github.com/abhisek/medsim/internal/session"
)

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	cat := s.engine.Catalog()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "operational",
		"system":          "MEDSIM COMMAND",
		"cases":           cat.Len(),
		"catalog_version": cat.Version(),
	})
}

func (s *Server) specialties(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Catalog().Specialties())
}

func (s *Server) levels(w http.ResponseWriter, r *http.Request) {
	sp := r.URL.Query().Get("specialty")
	if sp == "" {
		s.writeError(w, r, badRequest("specialty is required"))
		return
	}
	levels := s.engine.Catalog().Levels(sp)
	if levels == nil {
		levels = []int{}
	}
	writeJSON(w, http.StatusOK, levels)
}

type caseItem struct {
	ID             string           `json:"id"`
	Specialty      string           `json:"specialty"`
	Level          int              `json:"level"`
	Difficulty     cases.Difficulty `json:"difficulty"`
	PatientName    string           `json:"patient_name"`
	ChiefComplaint string           `json:"chief_complaint"`
	BestStars      int              `json:"best_stars"`
}

func (s *Server) listCases(w http.ResponseWriter, _ *http.Request) {
	all := s.engine.Catalog().All()
	out := make([]caseItem, 0, len(all))
	for _, c := range all {
		out = append(out, caseItem{
			ID:             c.ID,
			Specialty:      c.Specialty,
			Level:          c.Level,
			Difficulty:     c.Difficulty,
			PatientName:    c.Patient.Name,
			ChiefComplaint: c.ChiefComplaint,
			BestStars:      s.ledger.Best(progress.Key{Specialty: c.Specialty, Level: c.Level}),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type progressResponse struct {
	Progress map[string]int `json:"progress"`
	progress.Standing
	RankName string `json:"rank_name"`
}

func (s *Server) progressBody() progressResponse {
	st := s.ledger.Standing()
	return progressResponse{
		Progress: s.ledger.Snapshot(),
		Standing: st,
		RankName: st.Rank.DisplayName(),
	}
}

func (s *Server) getProgress(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.progressBody())
}

func (s *Server) resetProgress(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.Reset(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	body := s.progressBody()
	writeJSON(w, http.StatusOK, map[string]any{"status": "cleared", "progress": body.Progress})
}

type startRequest struct {
	CaseID     string `json:"case_id"`
	Specialty  string `json:"specialty"`
	Level      int    `json:"level"`
	Difficulty string `json:"difficulty"`
}

type startResponse struct {
	SessionID      string             `json:"session_id"`
	CaseID         string             `json:"case_id"`
	Specialty      string             `json:"specialty"`
	Level          int                `json:"level"`
	Difficulty     cases.Difficulty   `json:"difficulty"`
	PatientName    string             `json:"patient_name"`
	PatientAge     int                `json:"patient_age"`
	PatientGender  string             `json:"patient_gender"`
	ChiefComplaint string             `json:"chief_complaint"`
	MaxStage       int                `json:"max_stage"`
	TotalHints     int                `json:"total_hints"`
	Objectives     []objective.Public `json:"objectives"`
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	diff := cases.Difficulty(strings.ToLower(req.Difficulty))
	if diff != "" && !diff.Valid() {
		s.writeError(w, r, badRequest("unknown difficulty "+req.Difficulty))
		return
	}

	caseID := req.CaseID
	if caseID == "" {
		c, err := s.pick(cases.Filter{Specialty: req.Specialty, Level: req.Level, Difficulty: diff})
		if errors.Is(err, cases.ErrNoMatch) {
			s.writeError(w, r, &session.Error{Code: session.CodeNotFound, Msg: "no case available"})
			return
		}
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		caseID = c.ID
	}

	res, err := s.engine.Start(r.Context(), caseID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	c := res.Case
	writeJSON(w, http.StatusOK, startResponse{
		SessionID:      res.SessionID,
		CaseID:         c.ID,
		Specialty:      c.Specialty,
		Level:          c.Level,
		Difficulty:     c.Difficulty,
		PatientName:    c.Patient.Name,
		PatientAge:     c.Patient.Age,
		PatientGender:  c.Patient.Gender,
		ChiefComplaint: c.ChiefComplaint,
		MaxStage:       res.MaxStage,
		TotalHints:     res.TotalHints,
		Objectives:     res.Objectives,
	})
}

// sessionRequest accepts both session_id and sessionId.
type sessionRequest struct {
	SessionID   string `json:"session_id"`
	SessionIDJS string `json:"sessionId"`
	Message     string `json:"message"`
	ObjectiveID string `json:"objective_id"`
}

func (q sessionRequest) id() string {
	if q.SessionID != "" {
		return q.SessionID
	}
	return q.SessionIDJS
}

func (s *Server) decodeSession(w http.ResponseWriter, r *http.Request) (sessionRequest, bool) {
	var req sessionRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return req, false
	}
	if req.id() == "" {
		s.writeError(w, r, badRequest("session_id is required"))
		return req, false
	}
	return req, true
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	*session.ChatResult
	Messages []chatMessage `json:"messages"`
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeSession(w, r)
	if !ok {
		return
	}
	res, err := s.engine.Chat(r.Context(), req.id(), req.Message)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	msgs := make([]chatMessage, 0, len(res.Messages))
	for _, m := range res.Messages {
		role := "assistant"
		if m.Speaker == dialogue.SpeakerCommand {
			role = "system"
		}
		msgs = append(msgs, chatMessage{Role: role, Content: m.Text})
	}
	writeJSON(w, http.StatusOK, chatResponse{ChatResult: res, Messages: msgs})
}

func (s *Server) hint(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeSession(w, r)
	if !ok {
		return
	}
	res, err := s.engine.Hint(r.Context(), req.id())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type revealResponse struct {
	Message     string             `json:"message"`
	Revealed    *objective.Public  `json:"revealed,omitempty"`
	RevealsUsed int                `json:"reveals_used"`
	Objectives  []objective.Public `json:"objectives"`
}

func (s *Server) revealObjective(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeSession(w, r)
	if !ok {
		return
	}
	res, err := s.engine.Reveal(r.Context(), req.id(), req.ObjectiveID)
	if session.CodeOf(err) == session.CodeNoHiddenObjectives {
		writeJSON(w, http.StatusOK, revealResponse{
			Message:     "NO CLASSIFIED OBJECTIVES REMAIN.",
			RevealsUsed: res.RevealsUsed,
			Objectives:  res.Objectives,
		})
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, revealResponse{
		Message:     "OBJECTIVE DECLASSIFIED: " + res.Revealed.Label,
		Revealed:    &res.Revealed,
		RevealsUsed: res.RevealsUsed,
		Objectives:  res.Objectives,
	})
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.Debrief(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
