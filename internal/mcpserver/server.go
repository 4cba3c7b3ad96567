// Package mcpserver exposes the consult engine as MCP tools, so an agent can
// play or drill cases over stdio.
package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/abhisek/medsim/internal/cases"
	"github.com/abhisek/medsim/internal/objective"
	"github.com/abhisek/medsim/internal/progress"
	"github.com/abhisek/medsim/internal/session"
)

// Server wraps the MCP SDK server.
type Server struct {
	MCPServer *sdkmcp.Server

	engine *session.Engine
	ledger *progress.Ledger
	log    *slog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewServer registers the consult tools. The engine should carry a ledger;
// otherwise progress tools operate on an empty in-memory one.
func NewServer(engine *session.Engine, version string) *Server {
	ledger := engine.Ledger()
	if ledger == nil {
		ledger, _ = progress.NewLedger(context.Background(), nil)
	}
	s := &Server{
		MCPServer: sdkmcp.NewServer(&sdkmcp.Implementation{Name: "medsim", Version: version}, nil),
		engine:    engine,
		ledger:    ledger,
		log:       slog.Default().With("component", "mcp"),
		rng:       rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
	}
	s.registerTools()
	return s
}

// Run serves over stdio until ctx ends or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info("starting MCP server over stdio")
	return s.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_cases",
		Description: "List catalog cases with specialty, level, difficulty and best stars.",
	}, s.handleListCases)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "start_session",
		Description: "Start a consult. Give case_id, or any of specialty, level, difficulty to pick one.",
	}, s.handleStartSession)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "chat",
		Description: "Send the doctor's message to the patient. Returns the reply and objective status.",
	}, s.handleChat)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "hint",
		Description: "Request the next hint. Each hint before closing costs a star.",
	}, s.handleHint)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "reveal_objective",
		Description: "Declassify a hidden objective. Each reveal costs a star.",
	}, s.handleReveal)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "summary",
		Description: "Score the consult and record the result in the progress ledger.",
	}, s.handleSummary)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_progress",
		Description: "Best stars per specialty and level, total stars and rank.",
	}, s.handleGetProgress)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "reset_progress",
		Description: "Erase all recorded progress.",
	}, s.handleResetProgress)
}

// --- Tool input/output types ---

type listCasesInput struct {
	Specialty string `json:"specialty,omitempty" jsonschema:"only cases in this specialty"`
}

type caseInfo struct {
	ID             string `json:"id"`
	Specialty      string `json:"specialty"`
	Level          int    `json:"level"`
	Difficulty     string `json:"difficulty"`
	ChiefComplaint string `json:"chief_complaint"`
	BestStars      int    `json:"best_stars"`
}

type listCasesOutput struct {
	Cases []caseInfo `json:"cases"`
}

type startSessionInput struct {
	CaseID     string `json:"case_id,omitempty" jsonschema:"exact case id from list_cases"`
	Specialty  string `json:"specialty,omitempty" jsonschema:"specialty to pick from"`
	Level      int    `json:"level,omitempty" jsonschema:"level 1-5"`
	Difficulty string `json:"difficulty,omitempty" jsonschema:"easy, medium or hard"`
}

type startSessionOutput struct {
	SessionID      string             `json:"session_id"`
	CaseID         string             `json:"case_id"`
	PatientName    string             `json:"patient_name"`
	PatientAge     int                `json:"patient_age"`
	PatientGender  string             `json:"patient_gender"`
	ChiefComplaint string             `json:"chief_complaint"`
	MaxStage       int                `json:"max_stage"`
	Objectives     []objective.Public `json:"objectives"`
}

type chatInput struct {
	SessionID string `json:"session_id" jsonschema:"session id from start_session"`
	Message   string `json:"message" jsonschema:"what the doctor says"`
}

type sessionInput struct {
	SessionID string `json:"session_id" jsonschema:"session id from start_session"`
}

type revealInput struct {
	SessionID   string `json:"session_id" jsonschema:"session id from start_session"`
	ObjectiveID string `json:"objective_id,omitempty" jsonschema:"objective to reveal; the first hidden one when empty"`
}

type revealOutput struct {
	Message     string             `json:"message"`
	RevealsUsed int                `json:"reveals_used"`
	Objectives  []objective.Public `json:"objectives"`
}

type progressOutput struct {
	Progress map[string]int `json:"progress"`
	Total    int            `json:"total_stars"`
	Rank     string         `json:"rank"`
	Next     int            `json:"next_threshold"`
	Fraction float64        `json:"progress_fraction"`
}

type emptyInput struct{}

// --- Tool handlers ---

func (s *Server) handleListCases(_ context.Context, _ *sdkmcp.CallToolRequest, in listCasesInput) (*sdkmcp.CallToolResult, listCasesOutput, error) {
	var out listCasesOutput
	for _, c := range s.engine.Catalog().All() {
		if in.Specialty != "" && c.Specialty != in.Specialty {
			continue
		}
		out.Cases = append(out.Cases, caseInfo{
			ID:             c.ID,
			Specialty:      c.Specialty,
			Level:          c.Level,
			Difficulty:     string(c.Difficulty),
			ChiefComplaint: c.ChiefComplaint,
			BestStars:      s.ledger.Best(progress.Key{Specialty: c.Specialty, Level: c.Level}),
		})
	}
	return nil, out, nil
}

func (s *Server) handleStartSession(ctx context.Context, _ *sdkmcp.CallToolRequest, in startSessionInput) (*sdkmcp.CallToolResult, startSessionOutput, error) {
	caseID := in.CaseID
	if caseID == "" {
		diff := cases.Difficulty(in.Difficulty)
		if diff != "" && !diff.Valid() {
			return nil, startSessionOutput{}, fmt.Errorf("unknown difficulty %q", in.Difficulty)
		}
		s.rngMu.Lock()
		c, err := s.engine.Catalog().Pick(cases.Filter{Specialty: in.Specialty, Level: in.Level, Difficulty: diff}, s.rng)
		s.rngMu.Unlock()
		if err != nil {
			return nil, startSessionOutput{}, err
		}
		caseID = c.ID
	}

	res, err := s.engine.Start(ctx, caseID)
	if err != nil {
		return nil, startSessionOutput{}, err
	}
	s.log.Info("session started", "session_id", res.SessionID, "case_id", caseID)
	return nil, startSessionOutput{
		SessionID:      res.SessionID,
		CaseID:         res.Case.ID,
		PatientName:    res.Case.Patient.Name,
		PatientAge:     res.Case.Patient.Age,
		PatientGender:  res.Case.Patient.Gender,
		ChiefComplaint: res.Case.ChiefComplaint,
		MaxStage:       res.MaxStage,
		Objectives:     res.Objectives,
	}, nil
}

func (s *Server) handleChat(ctx context.Context, _ *sdkmcp.CallToolRequest, in chatInput) (*sdkmcp.CallToolResult, session.ChatResult, error) {
	res, err := s.engine.Chat(ctx, in.SessionID, in.Message)
	if err != nil {
		return nil, session.ChatResult{}, err
	}
	return nil, *res, nil
}

func (s *Server) handleHint(ctx context.Context, _ *sdkmcp.CallToolRequest, in sessionInput) (*sdkmcp.CallToolResult, session.HintResult, error) {
	res, err := s.engine.Hint(ctx, in.SessionID)
	if err != nil {
		return nil, session.HintResult{}, err
	}
	return nil, *res, nil
}

func (s *Server) handleReveal(ctx context.Context, _ *sdkmcp.CallToolRequest, in revealInput) (*sdkmcp.CallToolResult, revealOutput, error) {
	res, err := s.engine.Reveal(ctx, in.SessionID, in.ObjectiveID)
	if session.CodeOf(err) == session.CodeNoHiddenObjectives {
		return nil, revealOutput{
			Message:     "no hidden objectives left",
			RevealsUsed: res.RevealsUsed,
			Objectives:  res.Objectives,
		}, nil
	}
	if err != nil {
		return nil, revealOutput{}, err
	}
	return nil, revealOutput{
		Message:     "revealed " + res.Revealed.ID + ": " + res.Revealed.Label,
		RevealsUsed: res.RevealsUsed,
		Objectives:  res.Objectives,
	}, nil
}

func (s *Server) handleSummary(ctx context.Context, _ *sdkmcp.CallToolRequest, in sessionInput) (*sdkmcp.CallToolResult, session.SummaryResult, error) {
	res, err := s.engine.Debrief(ctx, in.SessionID)
	if err != nil {
		return nil, session.SummaryResult{}, err
	}
	return nil, *res, nil
}

func (s *Server) handleGetProgress(_ context.Context, _ *sdkmcp.CallToolRequest, _ emptyInput) (*sdkmcp.CallToolResult, progressOutput, error) {
	return nil, s.progress(), nil
}

func (s *Server) handleResetProgress(ctx context.Context, _ *sdkmcp.CallToolRequest, _ emptyInput) (*sdkmcp.CallToolResult, progressOutput, error) {
	if err := s.ledger.Reset(ctx); err != nil {
		return nil, progressOutput{}, err
	}
	s.log.Info("progress reset via MCP")
	return nil, s.progress(), nil
}

func (s *Server) progress() progressOutput {
	st := s.ledger.Standing()
	return progressOutput{
		Progress: s.ledger.Snapshot(),
		Total:    st.Total,
		Rank:     st.Rank.DisplayName(),
		Next:     st.NextThreshold,
		Fraction: st.Fraction,
	}
}
