package chi

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"sort"
	"time"

	gochi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/metro-mecard/mecard/internal/domain/failure"
	"github.com/metro-mecard/mecard/internal/domain/query"
	"github.com/metro-mecard/mecard/internal/domain/response"
	"github.com/metro-mecard/mecard/internal/loader"
	"github.com/metro-mecard/mecard/internal/repository/outcome"
	healthuc "github.com/metro-mecard/mecard/internal/usecase/health"
)

// Responder answers one decoded request.
type Responder interface {
	Handle(ctx context.Context, req query.Request) *response.Response
}

// LoaderStatus exposes the batch loader's last run and lock state.
type LoaderStatus interface {
	LastReport() (loader.Report, bool)
	LockAge() (time.Duration, bool)
	LockStale() bool
}

// RunTrigger asks the scheduler for an immediate run.
type RunTrigger interface {
	Trigger()
}

// FailureStore lists and clears failures published to the outcome store.
type FailureStore interface {
	Failures(ctx context.Context) ([]failure.Failure, error)
	Failure(ctx context.Context, customerID string) (failure.Failure, error)
	Clear(ctx context.Context, customerID string) error
}

// Deps wires the server. Loader, Trigger and Outcome are nil when the
// backend does not stage records or the component is disabled.
type Deps struct {
	Responder  Responder
	Delimiter  string
	Health     *healthuc.Service
	Loader     LoaderStatus
	Trigger    RunTrigger
	Outcome    FailureStore
	FailureDir string
	Logger     *zap.Logger
}

// Server serves the admin and transaction HTTP surface.
type Server struct {
	d Deps
}

// NewServer creates an HTTP API server.
func NewServer(d Deps) *Server {
	if d.Delimiter == "" {
		d.Delimiter = response.DefaultDelimiter
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Server{d: d}
}

// Routes mounts every handler on r.
func (s *Server) Routes(r gochi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/v1", func(r gochi.Router) {
		r.Post("/transactions", s.Transaction)
		r.Route("/loader", func(r gochi.Router) {
			r.Get("/status", s.LoaderStatus)
			r.Post("/run", s.LoaderRun)
			r.Get("/failures", s.ListFailures)
			r.Delete("/failures/{customerID}", s.ClearFailure)
		})
	})
}

// Transaction handles POST /v1/transactions.
func (s *Server) Transaction(w http.ResponseWriter, r *http.Request) {
	var req TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "query is required")
		return
	}

	resp := s.d.Responder.Handle(r.Context(), req.toDomain())
	writeJSON(w, http.StatusOK, transactionFromDomain(resp, s.d.Delimiter))
}

// LoaderStatus handles GET /v1/loader/status.
func (s *Server) LoaderStatus(w http.ResponseWriter, _ *http.Request) {
	if s.d.Loader == nil {
		writeError(w, http.StatusNotFound, codeNotFound, "batch loader is not configured")
		return
	}
	var out LoaderStatusResponse
	if age, held := s.d.Loader.LockAge(); held {
		out.LockHeld = true
		out.LockAgeSec = age.Seconds()
		out.LockStale = s.d.Loader.LockStale()
	}
	if rep, ok := s.d.Loader.LastReport(); ok {
		out.LastRun = &rep
	}
	writeJSON(w, http.StatusOK, out)
}

// LoaderRun handles POST /v1/loader/run. The run happens asynchronously.
func (s *Server) LoaderRun(w http.ResponseWriter, _ *http.Request) {
	if s.d.Trigger == nil {
		writeError(w, http.StatusServiceUnavailable, codeUnavailable, "batch loader scheduler is not running")
		return
	}
	s.d.Trigger.Trigger()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "triggered"})
}

// ListFailures handles GET /v1/loader/failures. Marker files and the outcome
// store are merged by customer id.
func (s *Server) ListFailures(w http.ResponseWriter, r *http.Request) {
	if s.d.FailureDir == "" && s.d.Outcome == nil {
		writeError(w, http.StatusNotFound, codeNotFound, "batch loader is not configured")
		return
	}

	byID := make(map[string]*FailureItem)
	if s.d.FailureDir != "" {
		markers, err := loader.ListFailures(s.d.FailureDir)
		if err != nil {
			s.d.Logger.Error("list failure markers", zap.Error(err))
			writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
			return
		}
		for _, f := range markers {
			item := failureItem(f)
			item.Marker = true
			byID[f.CustomerID] = &item
		}
	}
	if s.d.Outcome != nil {
		recorded, err := s.d.Outcome.Failures(r.Context())
		if err != nil {
			// Markers are authoritative; the store only adds run context.
			s.d.Logger.Warn("list recorded failures", zap.Error(err))
		}
		for _, f := range recorded {
			if item, ok := byID[f.CustomerID]; ok {
				item.Recorded = true
				item.RunID = f.RunID
				continue
			}
			item := failureItem(f)
			item.Recorded = true
			byID[f.CustomerID] = &item
		}
	}

	out := FailureListResponse{Items: make([]FailureItem, 0, len(byID))}
	for _, item := range byID {
		out.Items = append(out.Items, *item)
	}
	sort.Slice(out.Items, func(i, j int) bool { return out.Items[i].CustomerID < out.Items[j].CustomerID })
	writeJSON(w, http.StatusOK, out)
}

// ClearFailure handles DELETE /v1/loader/failures/{customerID}.
func (s *Server) ClearFailure(w http.ResponseWriter, r *http.Request) {
	id := gochi.URLParam(r, "customerID")
	found := false

	if s.d.FailureDir != "" {
		err := loader.RemoveFailure(s.d.FailureDir, id)
		switch {
		case err == nil:
			found = true
		case !errors.Is(err, fs.ErrNotExist):
			s.d.Logger.Error("remove failure marker", zap.String("customer_id", id), zap.Error(err))
			writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
			return
		}
	}
	if s.d.Outcome != nil {
		_, err := s.d.Outcome.Failure(r.Context(), id)
		switch {
		case err == nil:
			found = true
		case !errors.Is(err, outcome.ErrNotFound):
			s.d.Logger.Warn("look up recorded failure", zap.String("customer_id", id), zap.Error(err))
		}
		if err := s.d.Outcome.Clear(r.Context(), id); err != nil {
			s.d.Logger.Error("clear recorded failure", zap.String("customer_id", id), zap.Error(err))
			writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
			return
		}
	}

	if !found {
		writeError(w, http.StatusNotFound, codeNotFound, "no failure recorded for "+id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.d.Health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}
