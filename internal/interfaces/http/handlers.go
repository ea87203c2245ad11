package http

import (
	"encoding/json"
	"errors"
	nethttp "net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/tradegate/internal/diag"
	"github.com/sawpanic/tradegate/internal/domain"
	"github.com/sawpanic/tradegate/internal/engine"
	"github.com/sawpanic/tradegate/internal/persistence"
	"github.com/sawpanic/tradegate/internal/signal"
)

const defaultListLimit = 50

// Handlers carries the core components the routes dispatch to.
type Handlers struct {
	gen      *signal.Generator
	eng      *engine.Engine
	store    persistence.Store
	recorder *diag.Recorder
	pinger   Pinger
}

// NewHandlers builds the handler set.
func NewHandlers(gen *signal.Generator, eng *engine.Engine, store persistence.Store, recorder *diag.Recorder, pinger Pinger) *Handlers {
	return &Handlers{gen: gen, eng: eng, store: store, recorder: recorder, pinger: pinger}
}

type evaluateRequest struct {
	Symbol     string                `json:"symbol"`
	Direction  domain.Direction      `json:"direction"`
	Confidence float64               `json:"ai_confidence"`
	Reasoning  string                `json:"reasoning"`
	Snapshot   domain.MarketSnapshot `json:"snapshot"`
}

type evaluateResponse struct {
	Admitted    bool                         `json:"admitted"`
	Signal      *domain.Signal               `json:"signal,omitempty"`
	RRRatio     float64                      `json:"rr_ratio"`
	GateResults map[string]domain.GateResult `json:"gate_results"`
	Reasons     []string                     `json:"failure_reasons,omitempty"`
}

type openTradeRequest struct {
	PortfolioID string             `json:"portfolio_id"`
	Quantity    int64              `json:"quantity"`
	Mode        domain.TradingMode `json:"trading_mode"`
	evaluateRequest
}

type closeTradeRequest struct {
	ExitPrice float64 `json:"exit_price"`
	Reason    string  `json:"reason"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w nethttp.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w nethttp.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (h *Handlers) evaluate(req evaluateRequest) (signal.Evaluation, bool) {
	if req.Symbol == "" || !req.Direction.Valid() {
		return signal.Evaluation{}, false
	}
	eval := h.gen.Generate(req.Symbol, req.Direction, req.Snapshot, req.Confidence, req.Reasoning)
	if h.recorder != nil {
		h.recorder.Record(req.Symbol, eval)
	}
	return eval, true
}

// EvaluateSignal runs the nine-gate battery and the generator without opening
// a trade. Rejections are a 200 with admitted=false, not an error.
func (h *Handlers) EvaluateSignal(w nethttp.ResponseWriter, r *nethttp.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, nethttp.StatusBadRequest, "invalid request body")
		return
	}

	eval, ok := h.evaluate(req)
	if !ok {
		writeError(w, nethttp.StatusBadRequest, "symbol and a valid direction are required")
		return
	}

	if !eval.Admitted {
		h.eng.RecordRejection(r.Context(), req.Symbol, eval)
	}

	writeJSON(w, nethttp.StatusOK, evaluateResponse{
		Admitted:    eval.Admitted,
		Signal:      eval.Signal,
		RRRatio:     eval.RRRatio,
		GateResults: eval.Report.Map(),
		Reasons:     eval.Report.FailureReasons(),
	})
}

// OpenTrade evaluates the proposal and, when admitted, executes it
// transactionally against the portfolio.
func (h *Handlers) OpenTrade(w nethttp.ResponseWriter, r *nethttp.Request) {
	var req openTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, nethttp.StatusBadRequest, "invalid request body")
		return
	}
	if req.PortfolioID == "" {
		writeError(w, nethttp.StatusBadRequest, "portfolio_id is required")
		return
	}
	if req.Mode == "" {
		req.Mode = domain.ModeReal
	}

	eval, ok := h.evaluate(req.evaluateRequest)
	if !ok {
		writeError(w, nethttp.StatusBadRequest, "symbol and a valid direction are required")
		return
	}

	if !eval.Admitted {
		h.eng.RecordRejection(r.Context(), req.Symbol, eval)
		writeJSON(w, nethttp.StatusUnprocessableEntity, evaluateResponse{
			Admitted:    false,
			RRRatio:     eval.RRRatio,
			GateResults: eval.Report.Map(),
			Reasons:     eval.Report.FailureReasons(),
		})
		return
	}

	trade, err := h.eng.Execute(r.Context(), req.PortfolioID, eval.Signal, req.Quantity, req.Mode)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrInvalidQuantity):
			writeError(w, nethttp.StatusBadRequest, err.Error())
		case errors.Is(err, engine.ErrPortfolioNotFound):
			writeError(w, nethttp.StatusNotFound, err.Error())
		case errors.Is(err, engine.ErrInsufficientFunds):
			writeError(w, nethttp.StatusPaymentRequired, err.Error())
		default:
			writeError(w, nethttp.StatusServiceUnavailable, "failed to execute trade")
		}
		return
	}

	writeJSON(w, nethttp.StatusCreated, trade)
}

// CloseTrade finalizes an open trade at the given exit price.
func (h *Handlers) CloseTrade(w nethttp.ResponseWriter, r *nethttp.Request) {
	tradeID := mux.Vars(r)["id"]

	var req closeTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, nethttp.StatusBadRequest, "invalid request body")
		return
	}
	if req.ExitPrice <= 0 {
		writeError(w, nethttp.StatusBadRequest, "exit_price must be positive")
		return
	}

	trade, err := h.eng.Close(r.Context(), tradeID, req.ExitPrice, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrTradeNotFound):
			writeError(w, nethttp.StatusNotFound, err.Error())
		case errors.Is(err, engine.ErrTradeAlreadyClosed):
			writeError(w, nethttp.StatusConflict, err.Error())
		default:
			writeError(w, nethttp.StatusServiceUnavailable, "failed to close trade")
		}
		return
	}

	writeJSON(w, nethttp.StatusOK, trade)
}

// GetTrade returns one trade by id.
func (h *Handlers) GetTrade(w nethttp.ResponseWriter, r *nethttp.Request) {
	trade, err := h.store.Trades().Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			writeError(w, nethttp.StatusNotFound, "trade not found")
			return
		}
		writeError(w, nethttp.StatusServiceUnavailable, "failed to load trade")
		return
	}
	writeJSON(w, nethttp.StatusOK, trade)
}

// ListTrades returns a portfolio's trades, newest first.
func (h *Handlers) ListTrades(w nethttp.ResponseWriter, r *nethttp.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}

	trades, err := h.store.Trades().ListByPortfolio(r.Context(), mux.Vars(r)["id"], limit)
	if err != nil {
		writeError(w, nethttp.StatusServiceUnavailable, "failed to list trades")
		return
	}
	if trades == nil {
		trades = []persistence.Trade{}
	}
	writeJSON(w, nethttp.StatusOK, trades)
}

// LastEvaluation serves the cached verdict of the most recent evaluation for
// a symbol.
func (h *Handlers) LastEvaluation(w nethttp.ResponseWriter, r *nethttp.Request) {
	if h.recorder == nil {
		writeError(w, nethttp.StatusNotFound, "evaluation diagnostics disabled")
		return
	}

	snap, ok := h.recorder.Last(mux.Vars(r)["symbol"])
	if !ok {
		writeError(w, nethttp.StatusNotFound, "no recent evaluation for symbol")
		return
	}
	writeJSON(w, nethttp.StatusOK, snap)
}

// Health reports process liveness and storage connectivity.
func (h *Handlers) Health(w nethttp.ResponseWriter, r *nethttp.Request) {
	type healthResponse struct {
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
		Storage   string    `json:"storage"`
	}

	resp := healthResponse{Status: "ok", Timestamp: time.Now().UTC(), Storage: "ok"}
	status := nethttp.StatusOK

	if h.pinger != nil {
		if err := h.pinger.Ping(r.Context()); err != nil {
			resp.Status = "degraded"
			resp.Storage = err.Error()
			status = nethttp.StatusServiceUnavailable
		}
	}

	writeJSON(w, status, resp)
}

// NotFound is the JSON 404 fallback.
func (h *Handlers) NotFound(w nethttp.ResponseWriter, r *nethttp.Request) {
	writeError(w, nethttp.StatusNotFound, "route not found")
}
