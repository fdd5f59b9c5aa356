package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/wonny/equityscore/internal/api/handlers"
	"github.com/wonny/equityscore/internal/metrics"
	"github.com/wonny/equityscore/pkg/logger"
)

// RouterDeps collects everything the router wires together
type RouterDeps struct {
	Scoring        *handlers.ScoringHandler
	Stocks         *handlers.StockHandler
	Sectors        *handlers.SectorHandler
	Metrics        *metrics.Registry // nil disables /metrics
	Limiter        Limiter           // nil disables rate limiting
	AllowedOrigins []string
	Logger         *logger.Logger
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(deps RouterDeps) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler()).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()

	// Scoring over posted data
	api.HandleFunc("/technical/score", deps.Scoring.ScoreTechnical).Methods("POST")
	api.HandleFunc("/validation", deps.Scoring.Validate).Methods("POST")
	api.HandleFunc("/valuation", deps.Scoring.Value).Methods("POST")

	// Reports from stored snapshots
	api.HandleFunc("/stocks", deps.Stocks.ListStocks).Methods("GET")
	api.HandleFunc("/stocks/{symbol}/fundamentals", deps.Stocks.GetFundamentals).Methods("GET")
	api.HandleFunc("/stocks/{symbol}/technical", deps.Stocks.GetTechnical).Methods("GET")
	api.HandleFunc("/stocks/{symbol}/valuation", deps.Stocks.GetValuation).Methods("GET")
	api.HandleFunc("/stocks/{symbol}/analysis", deps.Stocks.GetAnalysis).Methods("GET")

	// Reference tables
	api.HandleFunc("/sectors", deps.Sectors.ListSectors).Methods("GET")

	// Apply middleware (outermost first)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(deps.Logger))
	r.Use(recoveryMiddleware(deps.Logger))
	if deps.Metrics != nil {
		r.Use(metricsMiddleware(deps.Metrics))
	}
	r.Use(rateLimitMiddleware(deps.Limiter, deps.Logger))

	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader, "X-Cache"},
	})

	return c.Handler(r)
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "equityscore-api",
	})
}
