// Package httpapi exposes the query router over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/just-ask-ai/justask/internal/core/domain"
	"github.com/just-ask-ai/justask/internal/core/ports/driving"
	"github.com/just-ask-ai/justask/internal/logger"
)

// healthMessage is returned by GET /.
const healthMessage = "justask service is started!"

// maxBodyBytes bounds POST /query request bodies.
const maxBodyBytes = 1 << 20

// ErrMissingQueryService is returned when the server is built without a query service.
var ErrMissingQueryService = errors.New("query service is required")

// Server serves the HTTP API.
type Server struct {
	query   driving.QueryService
	origins []string
	handler http.Handler
}

// NewServer builds the handler tree. origins is the CORS allow-list.
func NewServer(query driving.QueryService, origins []string) (*Server, error) {
	if query == nil {
		return nil, ErrMissingQueryService
	}

	s := &Server{
		query:   query,
		origins: origins,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleHealth)
	mux.HandleFunc("POST /query", s.handleAsk)
	mux.HandleFunc("GET /query", s.handleLastExchange)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.handler = s.cors(mux)
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP API listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// ==================== Handlers ====================

type askRequest struct {
	Question string            `json:"question"`
	Filters  map[string]string `json:"filters,omitempty"`
}

type askResponse struct {
	Question string `json:"question"`
	Response string `json:"response"`
	Query    string `json:"query,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Query string `json:"query,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": healthMessage})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request: " + err.Error()})
		return
	}

	answer, err := s.query.Ask(r.Context(), domain.QueryRequest{
		Question: req.Question,
		Filters:  domain.MetadataFilter(req.Filters),
	})
	if err != nil {
		writeJSON(w, statusFor(err), errorBody(err))
		return
	}

	writeJSON(w, http.StatusOK, askResponse{
		Question: answer.Question,
		Response: answer.Response,
		Query:    answer.Query,
	})
}

func (s *Server) handleLastExchange(w http.ResponseWriter, _ *http.Request) {
	exchange, _ := s.query.LastExchange()
	writeJSON(w, http.StatusOK, map[string]string{
		"last_query":    exchange.Query,
		"last_response": exchange.Response,
	})
}

// cors answers preflight requests and sets allow headers for listed origins.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.allowed(origin) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
			if r.Method == http.MethodOptions {
				h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
					h.Set("Access-Control-Allow-Headers", reqHeaders)
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowed(origin string) bool {
	return slices.ContainsFunc(s.origins, func(o string) bool {
		return o == "*" || strings.EqualFold(o, origin)
	})
}

// ==================== Helpers ====================

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidFilter):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(err error) errorResponse {
	body := errorResponse{Error: err.Error()}
	var qerr *domain.QueryExecutionError
	if errors.As(err, &qerr) {
		body.Query = qerr.Query
	}
	return body
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("writing response: %v", err)
	}
}
