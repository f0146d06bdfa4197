package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/normienation/normie/internal/models"
)

// MetricsCache is the subset of metrics.Cache the routes use.
type MetricsCache interface {
	Refresh(ctx context.Context) models.TokenMetrics
	PriceHistory() []models.PricePoint
	DataSource() string
	IsUsingRealData() bool
}

type responseMeta struct {
	DataSource string `json:"dataSource"`
	Timestamp  string `json:"timestamp"`
}

// metricsResponse flattens the metrics fields next to _meta.
type metricsResponse struct {
	models.TokenMetrics
	Meta responseMeta `json:"_meta"`
}

type healthResponse struct {
	Status     string `json:"status"`
	DataSource string `json:"dataSource"`
	Timestamp  string `json:"timestamp"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server exposes the dashboard API.
type Server struct {
	cache           MetricsCache
	token           models.TokenInfo
	hub             *Hub
	upstreamTimeout time.Duration
	logger          *zap.Logger
	now             func() time.Time
}

func NewServer(cache MetricsCache, token models.TokenInfo, hub *Hub, upstreamTimeout time.Duration, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cache:           cache,
		token:           token,
		hub:             hub,
		upstreamTimeout: upstreamTimeout,
		logger:          logger,
		now:             time.Now,
	}
}

// Handler returns the routed, logged handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/metrics", s.guard("Failed to fetch metrics", s.handleMetrics))
	mux.HandleFunc("GET /api/price-history", s.guard("Failed to fetch price history", s.handlePriceHistory))
	mux.HandleFunc("GET /api/token", s.guard("Failed to fetch token info", s.handleToken))
	mux.HandleFunc("GET /api/health", s.guard("Health check failed", s.handleHealth))
	if s.hub != nil {
		mux.Handle("GET /api/stream", s.hub)
	}
	return s.withRequestLog(mux)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	// a client hanging up must not downgrade the shared record
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), s.upstreamTimeout)
	defer cancel()

	m := s.cache.Refresh(ctx)
	s.writeJSON(w, http.StatusOK, newMetricsResponse(m, s.cache.DataSource(), s.now()))
}

func (s *Server) handlePriceHistory(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.cache.PriceHistory())
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.token)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	source := "Fallback Data"
	if s.cache.IsUsingRealData() {
		source = "DexScreener (Live)"
	}
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:     "ok",
		DataSource: source,
		Timestamp:  models.FormatTimestamp(s.now()),
	})
}

func newMetricsResponse(m models.TokenMetrics, dataSource string, now time.Time) metricsResponse {
	return metricsResponse{
		TokenMetrics: m,
		Meta: responseMeta{
			DataSource: dataSource,
			Timestamp:  models.FormatTimestamp(now),
		},
	}
}

// guard turns a panic in h into a 500 with the route's error message.
func (s *Server) guard(message string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("handler panic",
					zap.String("path", r.URL.Path),
					zap.Any("panic", rec),
				)
				s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: message})
			}
		}()
		h(w, r)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
		status = http.StatusInternalServerError
		body = []byte(`{"error":"internal error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		s.logger.Debug("failed to write response", zap.Error(err))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack is required by the websocket upgrade on /api/stream.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	conn, rw, err := http.NewResponseController(r.ResponseWriter).Hijack()
	if err == nil {
		r.status = http.StatusSwitchingProtocols
	}
	return conn, rw, err
}

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		w.Header().Set("X-Request-Id", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.logger.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
