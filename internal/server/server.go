package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/scalarlab/simplexd/internal/config"
	"github.com/scalarlab/simplexd/internal/errors"
	"github.com/scalarlab/simplexd/internal/logging"
	"github.com/scalarlab/simplexd/internal/metrics"
	"github.com/scalarlab/simplexd/internal/optimization"
	"github.com/scalarlab/simplexd/internal/optimization/neldermead"
	"github.com/scalarlab/simplexd/internal/optimization/objectives"
)

// Logger defines the logging interface used by the server.
// This allows us to be flexible with our logging implementation.
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
	Fatal(msg string, fields ...map[string]interface{})
	WithFields(fields map[string]interface{}) *logging.Logger
}

// OptimizationState tracks one optimization job. The optimizer itself is
// single-threaded and owned by the run goroutine; the server only reads its
// state through Result, which the goroutine publishes under the lock when
// the run finishes.
type OptimizationState struct {
	ID          string
	Objective   string
	Status      string // "pending", "running", "completed", "failed", "cancelled"
	StartTime   time.Time
	EndTime     *time.Time
	Result      *optimization.Result
	Optimizer   optimization.Optimizer
	CancelFunc  context.CancelFunc
	LastUpdated time.Time
}

// Server implements the HTTP and JSON-RPC surface of the optimization
// service. It manages jobs and provides endpoints to start, monitor, and
// cancel them.
type Server struct {
	cfg       *config.Config
	logger    Logger
	collector *metrics.Collector

	optimizations   map[string]*OptimizationState
	optimizationsMu sync.RWMutex // Protects the optimizations map
}

// NewServer creates a server with the given config, logger and metrics
// collector.
func NewServer(cfg *config.Config, logger Logger, collector *metrics.Collector) *Server {
	return &Server{
		cfg:           cfg,
		logger:        logger,
		collector:     collector,
		optimizations: make(map[string]*OptimizationState),
	}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/optimize", s.handleOptimize)
		r.Get("/status/{id}", s.handleStatus)
		r.Delete("/optimization/{id}", s.handleCancel)
		r.Get("/objectives", s.handleObjectives)
	})

	// JSON-RPC 2.0 endpoint
	r.Post("/rpc", s.handleJSONRPC)
}

// startRequest carries the parameters of a new optimization job. Pointer
// fields distinguish "not provided, use the service default" from an
// explicit zero, which for the coefficients must be rejected rather than
// silently replaced.
type startRequest struct {
	Objective      string      `json:"objective"`
	Dimensions     int         `json:"dimensions,omitempty"`
	MaxIterations  int         `json:"max_iterations,omitempty"`
	AreaEpsilon    *float64    `json:"e_area,omitempty"`
	ValueEpsilon   *float64    `json:"e_value,omitempty"`
	Alpha          *float64    `json:"alpha,omitempty"`
	Beta           *float64    `json:"beta,omitempty"`
	Gamma          *float64    `json:"gamma,omitempty"`
	InitialSimplex [][]float64 `json:"initial_simplex,omitempty"`
	SampleMin      *float64    `json:"sample_min,omitempty"`
	SampleMax      *float64    `json:"sample_max,omitempty"`
	Seed           int64       `json:"seed,omitempty"`
}

// handleJSONRPC handles JSON-RPC 2.0 requests.
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var request struct {
		JSONRPC string        `json:"jsonrpc"`
		ID      interface{}   `json:"id"`
		Method  string        `json:"method"`
		Params  []interface{} `json:"params,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.respondWithError(w, -32700, "Parse error", nil)
		return
	}

	if request.JSONRPC != "2.0" {
		s.respondWithError(w, -32600, "Invalid Request", nil)
		return
	}

	var result interface{}
	var err error

	switch request.Method {
	case "optimization.start":
		result, err = s.handleOptimizeStart(request.Params)
	case "optimization.status":
		result, err = s.handleOptimizationStatus(request.Params)
	case "optimization.cancel":
		err = s.handleOptimizationCancel(request.Params)
	default:
		s.respondWithError(w, -32601, "Method not found", request.ID)
		return
	}

	if err != nil {
		s.respondWithError(w, -32000, err.Error(), request.ID)
		return
	}

	response := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      request.ID,
		"result":  result,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleOptimizeStart handles the optimization.start JSON-RPC method. It
// builds an optimizer from the service defaults plus the request overrides
// and starts the run in a background goroutine.
// Expected parameters: {"objective": "sphere", "dimensions": 2, ...}
// Returns: {"optimization_id": "<uuid>", "status": "pending"}
func (s *Server) handleOptimizeStart(params []interface{}) (interface{}, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("missing required parameters")
	}

	req, err := decodeStartRequest(params[0])
	if err != nil {
		return nil, err
	}
	if req.Objective == "" {
		return nil, fmt.Errorf("objective name is required")
	}

	optCfg := s.optimizerConfig(req)

	fn, err := objectives.ByName(req.Objective, optCfg.Dimensions)
	if err != nil {
		return nil, err
	}
	optCfg.Objective = objectives.Objective(fn)

	optimizer, err := neldermead.New(optCfg, s.logger)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create optimizer")
	}

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())

	state := &OptimizationState{
		ID:          id,
		Objective:   req.Objective,
		Status:      "pending",
		StartTime:   time.Now(),
		Optimizer:   optimizer,
		CancelFunc:  cancel,
		LastUpdated: time.Now(),
	}

	s.optimizationsMu.Lock()
	s.optimizations[id] = state
	s.optimizationsMu.Unlock()

	go s.runOptimization(ctx, state)

	return map[string]interface{}{
		"optimization_id": id,
		"status":          "pending",
	}, nil
}

// decodeStartRequest converts a raw JSON-RPC parameter object into a typed
// request.
func decodeStartRequest(param interface{}) (*startRequest, error) {
	raw, err := json.Marshal(param)
	if err != nil {
		return nil, fmt.Errorf("invalid parameter format: %v", err)
	}
	req := &startRequest{}
	if err := json.Unmarshal(raw, req); err != nil {
		return nil, fmt.Errorf("invalid parameter format: %v", err)
	}
	return req, nil
}

// optimizerConfig merges the service-wide optimizer defaults with the
// request's overrides.
func (s *Server) optimizerConfig(req *startRequest) optimization.OptimizerConfig {
	defaults := s.cfg.Optimizer

	cfg := optimization.OptimizerConfig{
		Dimensions:    defaults.Dimensions,
		EArea:         defaults.AreaEpsilon,
		EValue:        defaults.ValueEpsilon,
		MaxIterations: defaults.MaxIterations,
		Alpha:         defaults.Alpha,
		Beta:          defaults.Beta,
		Gamma:         defaults.Gamma,
		SampleMin:     defaults.SampleMin,
		SampleMax:     defaults.SampleMax,
		RandomSeed:    req.Seed,
	}

	if req.Dimensions > 0 {
		cfg.Dimensions = req.Dimensions
	}
	if req.MaxIterations > 0 {
		cfg.MaxIterations = req.MaxIterations
	}
	if req.AreaEpsilon != nil {
		cfg.EArea = *req.AreaEpsilon
	}
	if req.ValueEpsilon != nil {
		cfg.EValue = *req.ValueEpsilon
	}
	if req.Alpha != nil {
		cfg.Alpha = *req.Alpha
	}
	if req.Beta != nil {
		cfg.Beta = *req.Beta
	}
	if req.Gamma != nil {
		cfg.Gamma = *req.Gamma
	}
	if req.SampleMin != nil {
		cfg.SampleMin = *req.SampleMin
	}
	if req.SampleMax != nil {
		cfg.SampleMax = *req.SampleMax
	}
	if req.InitialSimplex != nil {
		cfg.InitialSimplex = req.InitialSimplex
	}

	return cfg
}

// runOptimization executes one job to termination in its own goroutine and
// publishes the outcome under the state lock.
func (s *Server) runOptimization(ctx context.Context, state *OptimizationState) {
	s.optimizationsMu.Lock()
	// A cancel may land between job registration and this goroutine's first
	// lock acquisition; the cancelled state is terminal and must not be
	// overwritten.
	if state.Status == "cancelled" {
		s.optimizationsMu.Unlock()
		if s.collector != nil {
			s.collector.ObserveRun("cancelled", nil, 0)
		}
		return
	}
	state.Status = "running"
	state.LastUpdated = time.Now()
	s.optimizationsMu.Unlock()

	start := time.Now()
	result, err := state.Optimizer.Optimize(ctx)
	elapsed := time.Since(start)

	s.optimizationsMu.Lock()
	defer s.optimizationsMu.Unlock()

	outcome := "completed"
	switch {
	case err != nil && state.Status == "cancelled":
		// Cancellation already recorded; keep it.
		outcome = "cancelled"
	case err != nil:
		s.logger.Error("Optimization failed", map[string]interface{}{
			"optimization_id": state.ID,
			"error":           err.Error(),
		})
		state.Status = "failed"
		outcome = "failed"
	default:
		state.Status = "completed"
		state.Result = result
		outcome = result.Status.String()
		s.logger.Info("Optimization finished", map[string]interface{}{
			"optimization_id": state.ID,
			"objective":       state.Objective,
			"iterations":      result.Iterations,
			"termination":     result.Status.String(),
			"best_value":      result.Best.Value,
		})
	}

	if s.collector != nil {
		s.collector.ObserveRun(outcome, result, elapsed)
	}

	now := time.Now()
	state.EndTime = &now
	state.LastUpdated = now
}

// handleOptimizationStatus handles the optimization.status JSON-RPC method.
// Expected parameters: {"optimization_id": "<uuid>"}
func (s *Server) handleOptimizationStatus(params []interface{}) (interface{}, error) {
	id, err := optimizationID(params)
	if err != nil {
		return nil, err
	}

	s.optimizationsMu.RLock()
	defer s.optimizationsMu.RUnlock()

	state, exists := s.optimizations[id]
	if !exists {
		return nil, fmt.Errorf("optimization not found")
	}

	response := map[string]interface{}{
		"status":      state.Status,
		"objective":   state.Objective,
		"start_time":  state.StartTime.Format(time.RFC3339),
		"last_update": state.LastUpdated.Format(time.RFC3339),
	}
	if state.EndTime != nil {
		response["end_time"] = state.EndTime.Format(time.RFC3339)
	}

	if state.Result != nil {
		response["result"] = resultPayload(state.Result)
	}

	return response, nil
}

// resultPayload renders the optimizer's public post-run state: the final
// simplex, the iteration history, the oracle-call ledger and the stopping
// metrics.
func resultPayload(result *optimization.Result) map[string]interface{} {
	simplex := make([]map[string]interface{}, len(result.Simplex))
	for i, v := range result.Simplex {
		simplex[i] = map[string]interface{}{
			"point": v.Point,
			"value": v.Value,
		}
	}

	history := make([]map[string]interface{}, len(result.History))
	for i, rec := range result.History {
		history[i] = map[string]interface{}{
			"iteration": rec.Iteration,
			"points":    rec.Points,
			"values":    rec.Values,
		}
	}

	return map[string]interface{}{
		"best": map[string]interface{}{
			"point": result.Best.Point,
			"value": result.Best.Value,
		},
		"final_simplex": simplex,
		"iterations":    result.Iterations,
		"termination":   result.Status.String(),
		"area":          result.Area,
		"value_spread":  result.ValueSpread,
		"oracle_calls":  result.OracleCalls,
		"history":       history,
	}
}

// handleOptimizationCancel handles the optimization.cancel JSON-RPC method.
func (s *Server) handleOptimizationCancel(params []interface{}) error {
	id, err := optimizationID(params)
	if err != nil {
		return err
	}

	s.optimizationsMu.Lock()
	defer s.optimizationsMu.Unlock()

	state, exists := s.optimizations[id]
	if !exists {
		return fmt.Errorf("optimization not found")
	}

	switch state.Status {
	case "completed", "failed", "cancelled":
		return fmt.Errorf("cannot cancel optimization with status: %s", state.Status)
	}

	if state.CancelFunc != nil {
		state.CancelFunc()
	}

	state.Status = "cancelled"
	now := time.Now()
	state.EndTime = &now
	state.LastUpdated = now

	s.logger.Info("Optimization cancelled", map[string]interface{}{
		"optimization_id": id,
	})

	return nil
}

// optimizationID extracts the job ID from JSON-RPC parameters.
func optimizationID(params []interface{}) (string, error) {
	if len(params) == 0 {
		return "", fmt.Errorf("missing required parameters")
	}
	paramMap, ok := params[0].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("invalid parameter format, expected object")
	}
	id, ok := paramMap["optimization_id"].(string)
	if !ok || id == "" {
		return "", fmt.Errorf("optimization_id is required")
	}
	return id, nil
}

// respondWithError sends a JSON-RPC 2.0 error response.
func (s *Server) respondWithError(w http.ResponseWriter, code int, message string, id interface{}) {
	s.logger.Error("Request error", map[string]interface{}{
		"status":  code,
		"message": message,
	})

	response := map[string]interface{}{
		"jsonrpc": "2.0",
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
		"id": id,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// Close cancels any running optimizations.
func (s *Server) Close() error {
	s.optimizationsMu.Lock()
	defer s.optimizationsMu.Unlock()

	for _, opt := range s.optimizations {
		if opt.CancelFunc != nil {
			opt.CancelFunc()
		}
	}
	return nil
}

// handleOptimize handles POST /api/v1/optimize.
func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	raw := map[string]interface{}{}
	data, err := json.Marshal(req)
	if err == nil {
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	result, err := s.handleOptimizeStart([]interface{}{raw})

	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(result)
}

// handleStatus handles GET /api/v1/status/{id}.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Missing optimization ID", http.StatusBadRequest)
		return
	}

	result, err := s.handleOptimizationStatus([]interface{}{map[string]interface{}{
		"optimization_id": id,
	}})

	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
}

// handleCancel handles DELETE /api/v1/optimization/{id}.
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Missing optimization ID", http.StatusBadRequest)
		return
	}

	err := s.handleOptimizationCancel([]interface{}{map[string]interface{}{
		"optimization_id": id,
	}})

	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "cancellation requested",
	})
}

// handleObjectives handles GET /api/v1/objectives.
func (s *Server) handleObjectives(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"objectives": objectives.Names(),
	})
}
