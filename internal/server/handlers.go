package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	apperrors "github.com/agbru/fibbench/internal/errors"
	"github.com/agbru/fibbench/internal/fibonacci"
	"github.com/agbru/fibbench/internal/memtrack"
	"github.com/agbru/fibbench/internal/service"
	"github.com/agbru/fibbench/pkg/models"
)

// DefaultAlgorithm is used when a request has no algo parameter.
const DefaultAlgorithm = "matrix"

// DefaultBinetStep is the sampling interval of /binet.
const DefaultBinetStep = 10

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}
	s.writeJSONResponse(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"tracked":   memtrack.Global().Snapshot(),
	})
}

func (s *Server) handleAlgorithms(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}
	s.writeJSONResponse(w, http.StatusOK, map[string]any{
		"algorithms": s.service.Algorithms(),
	})
}

// handleCalculate serves GET /calculate?n=<index>&algo=<name>.
func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	s.measureHandler(w, r, false)
}

// handleMemory serves GET /memory?n=<index>&algo=<name>: /calculate plus the
// allocation report.
func (s *Server) handleMemory(w http.ResponseWriter, r *http.Request) {
	s.measureHandler(w, r, true)
}

func (s *Server) measureHandler(w http.ResponseWriter, r *http.Request, withMemory bool) {
	if !s.requireGet(w, r) {
		return
	}
	n, err := requiredUint(r, "n")
	if err != nil {
		s.writeError(w, err)
		return
	}
	algo := r.URL.Query().Get("algo")
	if algo == "" {
		algo = DefaultAlgorithm
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeouts.RequestTimeout)
	defer cancel()
	m, err := s.service.Calculate(ctx, algo, n)
	if err != nil {
		s.writeError(w, err)
		return
	}

	v, _ := fibonacci.ParseVariant(algo)
	rec := calculationRecord(m, fibonacci.IsExactAt(v, n))
	if withMemory {
		rec.Memory = &models.MemoryRecord{
			TrackedBytes:       m.Tracked.LiveBytes,
			TrackedAllocations: m.Tracked.Allocations,
			HeapBytes:          m.Runtime.HeapBytes,
			TotalBytes:         m.Runtime.TotalBytes,
			Mallocs:            m.Runtime.Mallocs,
			Frees:              m.Runtime.Frees,
		}
	}
	s.writeJSONResponse(w, http.StatusOK, rec)
}

// handleCompare serves GET /compare?n=<index>[&max_recursive=<n>]. A
// mismatch between exact algorithms is reported with status 500 and the full
// comparison body.
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}
	n, err := requiredUint(r, "n")
	if err != nil {
		s.writeError(w, err)
		return
	}
	maxRec, err := optionalUint(r, "max_recursive", 0)
	if err != nil {
		s.writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeouts.RequestTimeout)
	defer cancel()
	c, err := s.service.Compare(ctx, n, service.CompareOptions{MaxRecursive: maxRec})
	var me apperrors.MismatchError
	switch {
	case errors.As(err, &me):
		s.logger.Error("algorithms disagree", err)
	case err != nil:
		s.writeError(w, err)
		return
	}

	rec := models.ComparisonRecord{N: c.N, Consistent: c.Consistent}
	for _, res := range c.Results {
		cr := calculationRecord(res.Measurement, res.Exact)
		cr.Algorithm = res.Name
		if res.Err != nil {
			cr.Value, cr.Error = "", res.Err.Error()
		}
		rec.Results = append(rec.Results, cr)
	}
	status := http.StatusOK
	if !rec.Consistent {
		status = http.StatusInternalServerError
	}
	s.writeJSONResponse(w, status, rec)
}

// handleModular serves GET /modular?n=<index>&m=<modulus>.
func (s *Server) handleModular(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}
	n, err := requiredUint(r, "n")
	if err != nil {
		s.writeError(w, err)
		return
	}
	mStr := r.URL.Query().Get("m")
	if mStr == "" {
		s.writeError(w, apperrors.NewValidationError("m", "missing parameter", nil))
		return
	}
	m, err := fibonacci.ParseValue(mStr)
	if err != nil {
		s.writeError(w, apperrors.NewValidationError("m", err.Error(), mStr))
		return
	}

	start := time.Now()
	v, err := s.service.Modular(r.Context(), n, m)
	if err != nil {
		s.writeError(w, err)
		return
	}
	elapsed := time.Since(start)
	s.writeJSONResponse(w, http.StatusOK, models.CalculationRecord{
		Algorithm:  "modular_fast_doubling",
		N:          n,
		Value:      v.String(),
		Modulus:    m.String(),
		Exact:      true,
		DurationNS: elapsed.Nanoseconds(),
		Duration:   elapsed.String(),
	})
}

// handleBinet serves GET /binet?max_n=<n>[&step=<k>].
func (s *Server) handleBinet(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}
	maxN, err := optionalUint(r, "max_n", 100)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if maxN > fibonacci.MaxExactIndex {
		s.writeError(w, apperrors.NewValidationError("max_n",
			fmt.Sprintf("must not exceed %d", fibonacci.MaxExactIndex), maxN))
		return
	}
	step, err := optionalUint(r, "step", DefaultBinetStep)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, s.service.Accuracy(maxN, step))
}

func calculationRecord(m fibonacci.Measurement, exact bool) models.CalculationRecord {
	return models.CalculationRecord{
		Algorithm:  m.Algorithm,
		N:          m.N,
		Value:      m.Value.String(),
		Wrapped:    m.N > fibonacci.MaxExactIndex,
		Exact:      exact,
		DurationNS: m.Duration.Nanoseconds(),
		Duration:   m.Duration.String(),
	}
}

func (s *Server) requireGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return false
	}
	return true
}

func requiredUint(r *http.Request, name string) (uint64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, apperrors.NewValidationError(name, "missing parameter", nil)
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, apperrors.NewValidationError(name, "must be a non-negative integer", raw)
	}
	return v, nil
}

func optionalUint(r *http.Request, name string, def uint64) (uint64, error) {
	if r.URL.Query().Get(name) == "" {
		return def, nil
	}
	return requiredUint(r, name)
}

// statusFor maps a service error to an HTTP status.
func statusFor(err error) int {
	switch {
	case apperrors.IsInputError(err):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", err)
	}
	s.writeErrorResponse(w, status, err.Error())
}

func (s *Server) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Printf("Error encoding JSON response: %v", err)
	}
}

func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	s.writeJSONResponse(w, statusCode, models.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}
