package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/rustyeddy/papertrader/bot"
	"github.com/rustyeddy/papertrader/ledger"
	"github.com/rustyeddy/papertrader/market"
)

// invalidActionMessage is the wire text clients match on for a trade that
// is neither buy nor sell.
const invalidActionMessage = "Invalid action"

type TradeRequest struct {
	Action   string `json:"action"`
	Symbol   string `json:"symbol"`
	Quantity *int   `json:"quantity,omitempty"`
}

type TradeResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Fill    *ledger.Fill `json:"fill,omitempty"`
}

type ToggleResponse struct {
	IsRunning bool `json:"is_running"`
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Running   bool              `json:"is_running"`
	Circuits  map[string]string `json:"circuits,omitempty"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, code int, err error) {
	writeJSON(w, code, ErrorResponse{Error: err.Error(), RequestID: RequestID(r.Context())})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: s.now().UTC(),
		Running:   s.bot.Running(),
	}
	if len(s.guards) > 0 {
		resp.Circuits = make(map[string]string, len(s.guards))
		for _, g := range s.guards {
			state := g.State()
			resp.Circuits[g.Name()] = state
			if state != "closed" {
				resp.Status = "degraded"
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.bot.Status())
}

// trade always answers 200 with success/message, except for a body that
// is not JSON.
func (s *Server) trade(w http.ResponseWriter, r *http.Request) {
	var req TradeRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, TradeResponse{Message: "malformed request: " + err.Error()})
			return
		}
	}

	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	fill, err := s.bot.ManualTrade(req.Action, strings.ToUpper(strings.TrimSpace(req.Symbol)), qty)
	if errors.Is(err, bot.ErrInvalidAction) {
		writeJSON(w, http.StatusOK, TradeResponse{Message: invalidActionMessage})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusOK, TradeResponse{Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, TradeResponse{Success: true, Message: fill.Message, Fill: &fill})
}

func (s *Server) toggleBot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ToggleResponse{IsRunning: s.bot.Toggle()})
}

// chart accepts an optional comma separated "buckets" query of HH:MM labels.
func (s *Server) chart(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	var buckets []string
	if q := r.URL.Query().Get("buckets"); q != "" {
		buckets = strings.Split(q, ",")
	}

	series, err := s.bot.Chart(symbol, buckets)
	switch {
	case errors.Is(err, ledger.ErrInvalidSymbol):
		s.writeError(w, r, http.StatusNotFound, err)
	case err != nil:
		s.writeError(w, r, http.StatusBadRequest, err)
	default:
		writeJSON(w, http.StatusOK, series)
	}
}

func (s *Server) sentiment(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	snap, err := s.bot.Sentiment(r.Context(), symbol)
	switch {
	case errors.Is(err, ledger.ErrInvalidSymbol):
		s.writeError(w, r, http.StatusNotFound, err)
	case errors.Is(err, market.ErrStaleData):
		s.writeError(w, r, http.StatusServiceUnavailable, err)
	case err != nil:
		s.writeError(w, r, http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusOK, snap)
	}
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, http.StatusNotFound, errors.New("not found: "+r.URL.Path))
}
