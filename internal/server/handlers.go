package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rpgo/etf-income-planner/internal/access"
	"github.com/rpgo/etf-income-planner/internal/calculation"
	"github.com/rpgo/etf-income-planner/internal/config"
	"github.com/rpgo/etf-income-planner/internal/domain"
	"github.com/rpgo/etf-income-planner/internal/output"
)

// SubscribeMessage is returned once a session has used its free simulation.
const SubscribeMessage = "🛑 You've used your free simulation. Subscribe for unlimited access."

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportFilename  = "income_summary.xlsx"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Code      string    `json:"code"`
	Problems  []string  `json:"problems,omitempty"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthResponse is the /healthz body.
type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// ReferenceResponse lists what a client may choose from.
type ReferenceResponse struct {
	ETFs                 []domain.ETF               `json:"etfs"`
	StateRates           map[string]decimal.Decimal `json:"state_rates"`
	States               []string                   `json:"states"`
	DefaultStateRate     decimal.Decimal            `json:"default_state_rate"`
	DefaultTaxableIncome decimal.Decimal            `json:"default_taxable_income"`
}

// PerformanceBody is the /performance request body. Weights are percentages;
// with only a selection every ticker gets an equal share.
type PerformanceBody struct {
	Selection []string                   `json:"selection,omitempty"`
	Weights   map[string]decimal.Decimal `json:"weights,omitempty"`
	domain.PerformanceWindow
}

// writeJSON writes JSON response with proper error handling
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}

// writeError writes standardized error response
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, problems ...string) {
	s.writeJSON(w, status, ErrorResponse{
		Error:     http.StatusText(status),
		Message:   message,
		Code:      code,
		Problems:  problems,
		RequestID: requestIDFrom(r.Context()),
		Timestamp: time.Now().UTC(),
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, http.StatusNotFound, "endpoint_not_found", "The requested endpoint does not exist")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Timestamp: time.Now().UTC()}
	status := http.StatusOK
	if len(s.checks) > 0 {
		resp.Checks = make(map[string]string, len(s.checks))
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		for name, check := range s.checks {
			if err := check(ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) handleReference(w http.ResponseWriter, r *http.Request) {
	ref := s.planner.Reference
	resp := ReferenceResponse{
		StateRates:           make(map[string]decimal.Decimal),
		States:               ref.States(),
		DefaultStateRate:     ref.DefaultStateRate,
		DefaultTaxableIncome: domain.DefaultTaxableIncome,
	}
	for _, ticker := range ref.Tickers() {
		etf, err := ref.ETF(ticker)
		if err != nil {
			s.writeError(w, r, http.StatusInternalServerError, "reference_data", err.Error())
			return
		}
		resp.ETFs = append(resp.ETFs, etf)
	}
	for _, state := range resp.States {
		resp.StateRates[state] = ref.StateRate(state)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// decodePlan reads, normalizes and validates a plan request, including its
// tickers against the planner's reference data. It writes the
// error response itself and returns nil on failure.
func (s *Server) decodePlan(w http.ResponseWriter, r *http.Request) *domain.PlanRequest {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "bad_request", fmt.Sprintf("failed to read request body: %v", err))
		return nil
	}
	parser := config.NewInputParser()
	req, err := parser.ParsePlanRequest(body)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "bad_request", err.Error())
		return nil
	}
	if err := parser.ValidatePlanRequest(req); err != nil {
		s.writeInvalidPlan(w, r, err)
		return nil
	}
	if err := config.ValidateTickers(req, s.planner.Reference); err != nil {
		s.writeInvalidPlan(w, r, err)
		return nil
	}
	return req
}

func (s *Server) writeInvalidPlan(w http.ResponseWriter, r *http.Request, err error) {
	var verr *config.ValidationError
	if errors.As(err, &verr) {
		s.writeError(w, r, http.StatusUnprocessableEntity, "invalid_plan", verr.Error(), verr.Problems...)
		return
	}
	s.writeError(w, r, http.StatusUnprocessableEntity, "invalid_plan", err.Error())
}

// admit runs the trial gate. It writes the error response itself and
// reports whether the request may proceed.
func (s *Server) admit(w http.ResponseWriter, r *http.Request) bool {
	decision, err := s.gate.Admit(r.Context(), sessionFrom(r.Context()), r.Header.Get(DeveloperCodeHeader))
	switch {
	case err == nil:
	case errors.Is(err, access.ErrTrialUsed):
		s.metrics.TrialDecisions.WithLabelValues(outcomeDenied).Inc()
		s.writeError(w, r, http.StatusPaymentRequired, "trial_used", SubscribeMessage)
		return false
	case errors.Is(err, access.ErrLedgerUnavailable):
		s.metrics.TrialDecisions.WithLabelValues(outcomeUnavailable).Inc()
		s.logger.Error().Err(err).Str("request_id", requestIDFrom(r.Context())).Msg("usage ledger unavailable")
		s.writeError(w, r, http.StatusServiceUnavailable, "ledger_unavailable", "Usage tracking is temporarily unavailable. Please try again shortly.")
		return false
	default:
		s.writeError(w, r, http.StatusBadRequest, "bad_request", err.Error())
		return false
	}

	if decision.Developer {
		s.metrics.TrialDecisions.WithLabelValues(outcomeDeveloper).Inc()
		w.Header().Set("X-Planner-Access", "developer")
	} else {
		s.metrics.TrialDecisions.WithLabelValues(outcomeFirstUse).Inc()
		w.Header().Set("X-Planner-Access", "trial")
	}
	return true
}

// runPlan validates, gates and plans. It returns nil after writing an error.
func (s *Server) runPlan(w http.ResponseWriter, r *http.Request) *domain.PlanResult {
	req := s.decodePlan(w, r)
	if req == nil {
		return nil
	}
	if !s.admit(w, r) {
		return nil
	}
	result, err := s.planner.Plan(r.Context(), *req)
	if err != nil {
		s.logger.Error().Err(err).Str("request_id", requestIDFrom(r.Context())).Msg("plan failed")
		s.writeError(w, r, http.StatusInternalServerError, "plan_failed", err.Error())
		return nil
	}
	s.metrics.Plans.Inc()
	return result
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	result := s.runPlan(w, r)
	if result == nil {
		return
	}
	data, err := output.JSONFormatter{}.Format(result)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "format_failed", err.Error())
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	result := s.runPlan(w, r)
	if result == nil {
		return
	}
	data, err := output.XLSXFormatter{}.Format(result)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "format_failed", err.Error())
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	if s.planner.Prices == nil {
		s.writeError(w, r, http.StatusServiceUnavailable, "no_price_source", "Historical performance is not configured on this server.")
		return
	}

	var body PerformanceBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "bad_request", fmt.Sprintf("invalid JSON body: %v", err))
		return
	}

	plan := domain.PlanRequest{Selection: body.Selection, Weights: body.Weights}
	config.NormalizeTickers(&plan)
	weights := plan.WeightMap()
	if len(weights) == 0 {
		s.writeError(w, r, http.StatusUnprocessableEntity, "invalid_request", "Select at least one ETF.")
		return
	}
	if !body.Start.IsZero() && !body.End.IsZero() && body.Start.After(body.End.Time) {
		s.writeError(w, r, http.StatusUnprocessableEntity, "invalid_request",
			fmt.Sprintf("performance start %s is after end %s", body.Start, body.End))
		return
	}

	result, err := s.planner.Performance(r.Context(), domain.PerformanceRequest{Weights: weights, Window: body.PerformanceWindow})
	if err != nil {
		s.metrics.OverlayErrors.Inc()
		if errors.Is(err, calculation.ErrNoPriceData) {
			s.writeError(w, r, http.StatusNotFound, "no_price_data", err.Error())
			return
		}
		s.writeError(w, r, http.StatusBadGateway, "performance_failed", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}
