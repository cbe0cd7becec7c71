package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"GoldMirror/internal/auth"
	"GoldMirror/internal/collector"
	"GoldMirror/internal/indicator"
	"GoldMirror/internal/model"
	"GoldMirror/internal/series"
	"GoldMirror/internal/similarity"
	"GoldMirror/internal/store"
	"GoldMirror/internal/strategy"
)

// Server exposes the analysis and strategy operations over a JSON API.
type Server struct {
	Chain     *collector.Chain
	Engine    *strategy.Engine
	Auth      *auth.Validator
	Analyses  store.AnalysisRecorder
	Weights   model.SimilarityWeights
	Benchmark string
	Stock     string
	Watchlist []string
	Months    int
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/validate_auth", s.handleValidateAuth)
	mux.HandleFunc("/api/stock_list", s.requireAuth(s.handleStockList))
	mux.HandleFunc("/api/analyze", s.requireAuth(s.handleAnalyze))
	mux.HandleFunc("/api/analysis_history", s.requireAuth(s.handleAnalysisHistory))
	mux.HandleFunc("/api/indicators", s.requireAuth(s.handleIndicators))
	mux.HandleFunc("/api/strategy/execute", s.requireAuth(s.handleExecute))
	mux.HandleFunc("/api/strategy/status", s.requireAuth(s.handleStatus))
	mux.HandleFunc("/api/strategy/summary", s.requireAuth(s.handleSummary))
	mux.HandleFunc("/api/strategy/trades", s.requireAuth(s.handleTrades))
	mux.HandleFunc("/api/backtest", s.requireAuth(s.handleBacktest))
	return mux
}

type apiResponse map[string]interface{}

func writeJSON(w http.ResponseWriter, status int, payload apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[ERROR] encode response: %v", err)
	}
}

func fail(w http.ResponseWriter, status int, format string, args ...interface{}) {
	writeJSON(w, status, apiResponse{"success": false, "error": fmt.Sprintf(format, args...)})
}

func (s *Server) authToken(r *http.Request) string {
	if v := r.URL.Query().Get("auth"); v != "" {
		return v
	}
	return r.Header.Get("X-Auth-Token")
}

func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Auth != nil {
			if ok, reason := s.Auth.Validate(s.authToken(r)); !ok {
				fail(w, http.StatusUnauthorized, "%s", reason)
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleValidateAuth(w http.ResponseWriter, r *http.Request) {
	token := s.authToken(r)
	if s.Auth == nil {
		writeJSON(w, http.StatusOK, apiResponse{"success": true, "valid": true})
		return
	}
	ok, reason := s.Auth.Validate(token)
	resp := apiResponse{"success": true, "valid": ok}
	if !ok {
		resp["reason"] = reason
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStockList(w http.ResponseWriter, r *http.Request) {
	list := s.Watchlist
	if len(list) == 0 {
		list = []string{s.Stock}
	}
	writeJSON(w, http.StatusOK, apiResponse{"success": true, "stocks": list, "benchmark": s.Benchmark})
}

// analyzeRequest mirrors the web form: weights arrive as percentages.
type analyzeRequest struct {
	StockCode         string   `json:"stock_code"`
	Months            int      `json:"months"`
	WindowSize        int      `json:"window_size"`
	MoveDay           int      `json:"move_day"`
	DataMissing       *int     `json:"data_missing"`
	CorrelationWeight *float64 `json:"correlation_weight"`
	TrendWeight       *float64 `json:"trend_weight"`
	VolatilityWeight  *float64 `json:"volatility_weight"`
	PatternWeight     *float64 `json:"pattern_weight"`
	VolumeWeight      *float64 `json:"volume_weight"`
}

func (req *analyzeRequest) weights(base model.SimilarityWeights) model.SimilarityWeights {
	pct := func(p *float64, current float64) float64 {
		if p == nil {
			return current
		}
		return *p / 100
	}
	base.Correlation = pct(req.CorrelationWeight, base.Correlation)
	base.Trend = pct(req.TrendWeight, base.Trend)
	base.Volatility = pct(req.VolatilityWeight, base.Volatility)
	base.Pattern = pct(req.PatternWeight, base.Pattern)
	base.Volume = pct(req.VolumeWeight, base.Volume)
	return base
}

func missingPolicy(v *int) series.MissingPolicy {
	if v == nil {
		return series.MissingDrop
	}
	switch *v {
	case 0:
		return series.MissingNone
	case 2:
		return series.MissingForwardFill
	default:
		return series.MissingDrop
	}
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		fail(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "decode request: %v", err)
		return
	}
	if req.StockCode == "" {
		req.StockCode = s.Stock
	}
	if req.Months <= 0 {
		req.Months = s.Months
	}

	stockBars, err := s.Chain.FetchDailyBars(req.StockCode, req.Months)
	if err != nil {
		fail(w, http.StatusBadGateway, "fetch stock history: %v", err)
		return
	}
	goldBars, err := s.Chain.FetchDailyBars(s.Benchmark, req.Months)
	if err != nil {
		fail(w, http.StatusBadGateway, "fetch benchmark history: %v", err)
		return
	}

	analyzer := similarity.NewAnalyzer(req.weights(s.Weights))
	report, err := analyzer.Analyze(stockBars, goldBars, similarity.Options{
		LagDays:       req.MoveDay,
		MissingPolicy: missingPolicy(req.DataMissing),
		WindowSize:    req.WindowSize,
	})
	if err != nil {
		var inputErr *series.InputDataError
		if errors.As(err, &inputErr) {
			fail(w, http.StatusUnprocessableEntity, "%v", err)
			return
		}
		fail(w, http.StatusInternalServerError, "analyze: %v", err)
		return
	}
	if s.Analyses != nil {
		snap := store.AnalysisSnapshot{
			Stock:     req.StockCode,
			Benchmark: s.Benchmark,
			Score:     report.Score,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.Analyses.RecordAnalysis(snap); err != nil {
			log.Printf("[WARN] record analysis snapshot: %v", err)
		}
	}
	writeJSON(w, http.StatusOK, apiResponse{
		"success":    true,
		"stock_code": req.StockCode,
		"benchmark":  s.Benchmark,
		"report":     report,
	})
}

func (s *Server) handleAnalysisHistory(w http.ResponseWriter, r *http.Request) {
	if s.Analyses == nil {
		writeJSON(w, http.StatusOK, apiResponse{"success": true, "history": []store.AnalysisSnapshot{}})
		return
	}
	stock := r.URL.Query().Get("stock_code")
	if stock == "" {
		stock = s.Stock
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		fmt.Sscanf(v, "%d", &limit)
	}
	snaps, err := s.Analyses.RecentAnalyses(stock, limit)
	if err != nil {
		fail(w, http.StatusInternalServerError, "load history: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{"success": true, "history": snaps, "stock_code": stock})
}

type indicatorsRequest struct {
	StockCode string           `json:"stock_code"`
	Months    int              `json:"months"`
	Params    indicator.Params `json:"params"`
}

func (s *Server) handleIndicators(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		fail(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req indicatorsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "decode request: %v", err)
		return
	}
	if req.StockCode == "" {
		req.StockCode = s.Stock
	}
	if req.Months <= 0 {
		req.Months = s.Months
	}

	bars, err := s.Chain.FetchDailyBars(req.StockCode, req.Months)
	if err != nil {
		fail(w, http.StatusBadGateway, "fetch history: %v", err)
		return
	}
	set, err := indicator.Calculate(bars, indicator.DefaultParams().Merge(req.Params))
	if err != nil {
		fail(w, http.StatusUnprocessableEntity, "calculate indicators: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{
		"success":    true,
		"stock_code": req.StockCode,
		"indicators": set,
		"signals":    set.Signals(),
	})
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		fail(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	goldCur, goldPrev, err := s.Chain.LatestQuote(s.Benchmark)
	if err != nil {
		fail(w, http.StatusBadGateway, "benchmark quote: %v", err)
		return
	}
	stockCur, _, err := s.Chain.LatestQuote(s.Stock)
	if err != nil {
		fail(w, http.StatusBadGateway, "stock quote: %v", err)
		return
	}

	result, err := s.Engine.Execute(strategy.Snapshot{
		Date:          time.Now().UTC(),
		GoldPrice:     goldCur,
		PrevGoldPrice: goldPrev,
		StockPrice:    stockCur,
	})
	if errors.Is(err, strategy.ErrTradedToday) {
		writeJSON(w, http.StatusOK, apiResponse{"success": false, "error": "already traded today"})
		return
	}
	if err != nil {
		fail(w, http.StatusInternalServerError, "execute: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{"success": true, "result": result})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	price, _, err := s.Chain.LatestQuote(s.Stock)
	if err != nil {
		log.Printf("[WARN] status: quote failed: %v", err)
		price = 0
	}
	writeJSON(w, http.StatusOK, apiResponse{"success": true, "status": s.Engine.Status(price)})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, apiResponse{"success": true, "summary": s.Engine.Summary()})
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	ledger := s.Engine.Ledger()
	writeJSON(w, http.StatusOK, apiResponse{
		"success":      true,
		"trades":       ledger.TradeHistory,
		"total_trades": len(ledger.TradeHistory),
	})
}

type backtestRequest struct {
	StockCode string           `json:"stock_code"`
	Months    int              `json:"months"`
	Params    *strategy.Params `json:"params"`
}

func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		fail(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req backtestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "decode request: %v", err)
		return
	}
	if req.StockCode == "" {
		req.StockCode = s.Stock
	}
	if req.Months <= 0 {
		req.Months = s.Months
	}
	params := s.Engine.Params()
	if req.Params != nil {
		params = *req.Params
	}
	if err := params.Validate(); err != nil {
		fail(w, http.StatusBadRequest, "params: %v", err)
		return
	}

	goldBars, err := s.Chain.FetchDailyBars(s.Benchmark, req.Months)
	if err != nil {
		fail(w, http.StatusBadGateway, "fetch benchmark history: %v", err)
		return
	}
	stockBars, err := s.Chain.FetchDailyBars(req.StockCode, req.Months)
	if err != nil {
		fail(w, http.StatusBadGateway, "fetch stock history: %v", err)
		return
	}

	result, err := strategy.Backtest(params, goldBars, stockBars)
	if err != nil {
		fail(w, http.StatusUnprocessableEntity, "backtest: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{"success": true, "backtest": result})
}
