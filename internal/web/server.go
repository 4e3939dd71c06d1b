// Package web exposes the trading engine over HTTP with JSON endpoints and
// an SSE stream of journaled outcomes.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kongtrade/kongbot/internal/domain"
	"github.com/kongtrade/kongbot/internal/services/market"
	"github.com/kongtrade/kongbot/internal/storage/outcomes"
)

const outcomePollInterval = 2 * time.Second

type orderEngine interface {
	Submit(ctx context.Context, order domain.Order) (domain.Outcome, error)
	Cancel(owner string, id uint64) (domain.Outcome, error)
	ActiveOrders(owner string) map[uint64]domain.Order
	History(owner string) []domain.Outcome
}

type walletLedger interface {
	Balances(owner string) map[string]decimal.Decimal
	Deposit(owner, token string, amount decimal.Decimal) (decimal.Decimal, error)
	Withdraw(owner, token string, amount decimal.Decimal) (decimal.Decimal, error)
}

type alertRegistry interface {
	Set(alert domain.PriceAlert)
	Remove(chatID, coin string) bool
	ByChat(chatID string) []domain.PriceAlert
}

type marketStats interface {
	Snapshot(ctx context.Context, pair domain.Pair) (market.Snapshot, error)
}

type outcomeReader interface {
	RecordsAfter(index uint64) ([]outcomes.IndexedRecord, error)
}

// Server exposes HTTP endpoints over the engine, wallet, alerts and the
// outcome journal.
type Server struct {
	Addr    string
	Engine  orderEngine
	Ledger  walletLedger
	Alerts  alertRegistry
	Market  marketStats
	Journal outcomeReader
	Logger  *zap.Logger
}

// NewServer creates a new web server instance. Market and Journal may be nil;
// their endpoints answer 503 then.
func NewServer(addr string, engine orderEngine, ledger walletLedger, alerts alertRegistry, stats marketStats, journal outcomeReader, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		Addr:    addr,
		Engine:  engine,
		Ledger:  ledger,
		Alerts:  alerts,
		Market:  stats,
		Journal: journal,
		Logger:  logger,
	}
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/orders", s.handleOrders)
	mux.HandleFunc("/orders/cancel", s.handleCancel)
	mux.HandleFunc("/history", s.handleHistory)
	mux.HandleFunc("/wallet", s.handleWallet)
	mux.HandleFunc("/wallet/deposit", s.handleDeposit)
	mux.HandleFunc("/wallet/withdraw", s.handleWithdraw)
	mux.HandleFunc("/alerts", s.handleAlerts)
	mux.HandleFunc("/alerts/remove", s.handleAlertRemove)
	mux.HandleFunc("/market", s.handleMarket)
	mux.HandleFunc("/outcomes/stream", s.handleOutcomeStream)

	server := &http.Server{
		Addr:              s.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type submitRequest struct {
	Owner      string          `json:"owner"`
	ChatID     string          `json:"chat_id"`
	Pair       string          `json:"pair"`
	Type       string          `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
	LimitPrice decimal.Decimal `json:"limit_price"`
	StopLoss   decimal.Decimal `json:"stop_loss"`
	TakeProfit decimal.Decimal `json:"take_profit"`
	Expiry     time.Time       `json:"expiry"`
}

type activeOrder struct {
	ID         uint64          `json:"id"`
	Pair       string          `json:"pair"`
	Type       string          `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
	LimitPrice decimal.Decimal `json:"limit_price"`
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleSubmit(w, r)
	case http.MethodGet:
		owner := r.URL.Query().Get("owner")
		if owner == "" {
			http.Error(w, "owner query param is required", http.StatusBadRequest)
			return
		}
		active := s.Engine.ActiveOrders(owner)
		out := make([]activeOrder, 0, len(active))
		for id, order := range active {
			out = append(out, activeOrder{
				ID:         id,
				Pair:       order.Pair.String(),
				Type:       order.Type.String(),
				Amount:     order.Amount,
				LimitPrice: order.LimitPrice,
			})
		}
		writeJSON(w, http.StatusOK, out)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	pair, err := domain.ParsePair(req.Pair)
	if err != nil {
		s.writeError(w, err)
		return
	}
	orderType, ok := domain.ParseOrderType(req.Type)
	if !ok {
		s.writeError(w, domain.ErrInvalidOrderType)
		return
	}

	outcome, err := s.Engine.Submit(r.Context(), domain.Order{
		Owner:      req.Owner,
		Pair:       pair,
		Type:       orderType,
		Amount:     req.Amount,
		LimitPrice: req.LimitPrice,
		StopLoss:   req.StopLoss,
		TakeProfit: req.TakeProfit,
		Expiry:     req.Expiry,
		ChatID:     req.ChatID,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Owner string `json:"owner"`
		ID    uint64 `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	outcome, err := s.Engine.Cancel(req.Owner, req.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		http.Error(w, "owner query param is required", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.Engine.History(owner))
}

func (s *Server) handleWallet(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		http.Error(w, "owner query param is required", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.Ledger.Balances(owner))
}

type walletMutation struct {
	Owner  string          `json:"owner"`
	Token  string          `json:"token"`
	Amount decimal.Decimal `json:"amount"`
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	s.handleWalletMutation(w, r, s.Ledger.Deposit)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	s.handleWalletMutation(w, r, s.Ledger.Withdraw)
}

func (s *Server) handleWalletMutation(w http.ResponseWriter, r *http.Request, op func(owner, token string, amount decimal.Decimal) (decimal.Decimal, error)) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req walletMutation
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	balance, err := op(req.Owner, req.Token, req.Amount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]decimal.Decimal{"balance": balance})
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req struct {
			ChatID    string          `json:"chat_id"`
			Coin      string          `json:"coin"`
			Currency  string          `json:"currency"`
			Target    decimal.Decimal `json:"target"`
			Direction string          `json:"direction"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		direction, ok := domain.ParseAlertDirection(req.Direction)
		if !ok {
			http.Error(w, "direction must be above or below", http.StatusBadRequest)
			return
		}
		if req.Coin == "" || !req.Target.IsPositive() {
			http.Error(w, "coin and a positive target are required", http.StatusBadRequest)
			return
		}
		currency := req.Currency
		if currency == "" {
			currency = "usd"
		}
		s.Alerts.Set(domain.PriceAlert{
			ChatID:    req.ChatID,
			Coin:      req.Coin,
			Currency:  currency,
			Target:    req.Target,
			Direction: direction,
		})
		w.WriteHeader(http.StatusNoContent)
	case http.MethodGet:
		chatID := r.URL.Query().Get("chat_id")
		if chatID == "" {
			http.Error(w, "chat_id query param is required", http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, s.Alerts.ByChat(chatID))
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleAlertRemove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		ChatID string `json:"chat_id"`
		Coin   string `json:"coin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if !s.Alerts.Remove(req.ChatID, req.Coin) {
		s.writeError(w, domain.ErrNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	if s.Market == nil {
		http.Error(w, "market stats not available for this platform", http.StatusServiceUnavailable)
		return
	}

	pair, err := domain.ParsePair(r.URL.Query().Get("pair"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	snapshot, err := s.Market.Snapshot(r.Context(), pair)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleOutcomeStream(w http.ResponseWriter, r *http.Request) {
	if s.Journal == nil {
		http.Error(w, "outcome journal not available", http.StatusServiceUnavailable)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// comment heartbeat every 30s so proxies keep the connection
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	pollTicker := time.NewTicker(outcomePollInterval)
	defer pollTicker.Stop()

	lastIndex := parseLastIndex(r)
	sendOutcomes := func() error {
		records, err := s.Journal.RecordsAfter(lastIndex)
		if err != nil {
			return err
		}
		for _, record := range records {
			payload, err := json.Marshal(record.Record)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "event: outcome\n")
			fmt.Fprintf(w, "id: %d\n", record.Index)
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
			lastIndex = record.Index
		}
		return nil
	}

	if err := sendOutcomes(); err != nil {
		http.Error(w, "failed to load outcomes", http.StatusInternalServerError)
		s.Logger.Warn("outcome stream initial load failed", zap.Error(err))
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		case <-pollTicker.C:
			if err := sendOutcomes(); err != nil {
				s.Logger.Warn("outcome stream poll failed", zap.Error(err))
			}
		}
	}
}

func parseLastIndex(r *http.Request) uint64 {
	raw := r.Header.Get("Last-Event-ID")
	if raw == "" {
		raw = r.URL.Query().Get("after")
	}
	if raw == "" {
		return 0
	}
	index, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0
	}
	return index
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps domain errors to HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidTradePair),
		errors.Is(err, domain.ErrInvalidTradeAmount),
		errors.Is(err, domain.ErrInvalidTradePrice),
		errors.Is(err, domain.ErrInvalidOrderType):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrNotAuthorized):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrInsufficientBalance):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrPriceUnavailable):
		status = http.StatusServiceUnavailable
	}

	http.Error(w, err.Error(), status)
}
