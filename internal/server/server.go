// Package server exposes the consult engine as a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/abhisek/medsim/internal/cases"
	"github.com/abhisek/medsim/internal/progress"
	"github.com/abhisek/medsim/internal/session"
)

// Server routes requests to the engine.
type Server struct {
	engine *session.Engine
	ledger *progress.Ledger
	logger *slog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New creates a server. Progress is read from the engine's ledger; an engine
// without one gets a fresh in-memory ledger that summaries do not update.
func New(engine *session.Engine, rng *rand.Rand) *Server {
	ledger := engine.Ledger()
	if ledger == nil {
		ledger, _ = progress.NewLedger(context.Background(), nil)
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	return &Server{
		engine: engine,
		ledger: ledger,
		logger: slog.Default().With("component", "server"),
		rng:    rng,
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.health)
		r.Get("/specialties", s.specialties)
		r.Get("/levels", s.levels)
		r.Get("/cases", s.listCases)
		r.Get("/progress", s.getProgress)
		r.Post("/reset", s.resetProgress)
		r.Post("/start-session", s.startSession)
		r.Post("/chat", s.chat)
		r.Post("/hint", s.hint)
		r.Post("/reveal-objective", s.revealObjective)
		r.Get("/summary/{sessionID}", s.summary)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", slog.String("addr", addr))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("elapsed", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())))
	})
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) pick(f cases.Filter) (*cases.Case, error) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.engine.Catalog().Pick(f, s.rng)
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	code := "internal"
	switch c := session.CodeOf(err); c {
	case session.CodeNotFound:
		status, code = http.StatusNotFound, string(c)
	case session.CodeInvalidInput:
		status, code = http.StatusBadRequest, string(c)
	case session.CodeAlreadyTerminal:
		status, code = http.StatusConflict, string(c)
	default:
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status, code = http.StatusServiceUnavailable, "unavailable"
		}
	}
	if status >= 500 {
		s.logger.Error("request failed",
			slog.String("path", r.URL.Path),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Any("error", err))
	}
	msg := err.Error()
	var se *session.Error
	if errors.As(err, &se) && se.Msg != "" {
		msg = se.Msg
	}
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: msg}})
}

func badRequest(msg string) error {
	return &session.Error{Code: session.CodeInvalidInput, Msg: msg}
}

func decode(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return badRequest("malformed JSON body: " + err.Error())
	}
	return nil
}
