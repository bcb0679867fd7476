// Package httpapi exposes registered resources as list endpoints. Each request
// is turned into one QueryBuilder via query.NewResourceQuery, executed once,
// and written back in a JSON envelope.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/asaidimu/go-listquery/core/query"
	"github.com/asaidimu/go-listquery/core/schema"
	"go.uber.org/zap"
)

// Error codes written in the envelope.
const (
	CodeResourceNotFound = "RESOURCE_NOT_FOUND"
	CodeInvalidParameter = "INVALID_PARAMETER"
	CodeStoreTimeout     = "STORE_TIMEOUT"
	CodeInternal         = "INTERNAL_ERROR"
)

// Envelope is the body of every response.
type Envelope struct {
	Success bool       `json:"success"`
	Data    *ListData  `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// ListData is one page of a listing.
type ListData struct {
	Items      []schema.Document `json:"items"`
	Pagination Pagination        `json:"pagination"`
}

// Pagination describes where the page sits in the full result.
type Pagination struct {
	Page        int   `json:"page"`
	PageSize    int   `json:"pageSize"`
	TotalCount  int64 `json:"totalCount"`
	TotalPages  int   `json:"totalPages"`
	HasNext     bool  `json:"hasNext"`
	HasPrevious bool  `json:"hasPrevious"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AdminCheck decides whether a request gets admin access.
type AdminCheck func(r *http.Request) bool

type resource struct {
	def   *schema.ResourceDefinition
	store query.Store
}

// Server routes GET /api/{resource} to registered resources.
type Server struct {
	mu           sync.RWMutex
	resources    map[string]resource
	logger       *zap.Logger
	isAdmin      AdminCheck
	timeout      time.Duration
	queryOptions []query.Option
	mux          *http.ServeMux
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger. It is also passed to every builder.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAdminCheck sets the function granting admin access. Without it every
// request is public.
func WithAdminCheck(check AdminCheck) Option {
	return func(s *Server) { s.isAdmin = check }
}

// WithTimeout bounds each store execution.
func WithTimeout(d time.Duration) Option {
	return func(s *Server) { s.timeout = d }
}

// WithQueryOptions adds builder options applied to every request.
func WithQueryOptions(opts ...query.Option) Option {
	return func(s *Server) { s.queryOptions = append(s.queryOptions, opts...) }
}

// NewServer creates a server with no resources.
func NewServer(opts ...Option) *Server {
	s := &Server{
		resources: make(map[string]resource),
		logger:    zap.NewNop(),
		isAdmin:   func(*http.Request) bool { return false },
		mux:       http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mux.HandleFunc("GET /api/{resource}", s.handleList)
	s.mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	return s
}

// Register exposes def, served by store. A later registration under the same
// name replaces the earlier one.
func (s *Server) Register(def *schema.ResourceDefinition, store query.Store) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources[def.Name] = resource{def: def, store: store}
	s.logger.Info("Registered list resource", zap.String("resource", def.Name))
}

// Resources returns the registered resource names in order.
func (s *Server) Resources() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.resources))
	for name := range s.resources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) lookup(name string) (resource, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.resources[name]
	return res, ok
}

// handleList serves GET /api/{resource}.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("resource")
	res, ok := s.lookup(name)
	if !ok {
		s.writeError(w, http.StatusNotFound, CodeResourceNotFound, "unknown resource '"+name+"'")
		return
	}

	access := query.AccessPublic
	if s.isAdmin(r) {
		access = query.AccessAdmin
	}

	ctx := r.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	opts := append([]query.Option{query.WithLogger(s.logger)}, s.queryOptions...)
	result, err := query.NewResourceQuery[schema.Document](res.def, res.store, query.Params(r.URL.Query()), access, opts...).
		Execute(ctx)
	if err != nil {
		status, code, message := classify(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("List request failed", zap.String("resource", name), zap.Int("status", status), zap.Error(err))
		}
		s.writeError(w, status, code, message)
		return
	}

	meta := query.ComputeMeta(result.TotalCount, query.PageRequest{Page: result.Page, PageSize: result.PageSize})
	s.writeJSON(w, http.StatusOK, Envelope{
		Success: true,
		Data: &ListData{
			Items: result.Items,
			Pagination: Pagination{
				Page:        result.Page,
				PageSize:    result.PageSize,
				TotalCount:  result.TotalCount,
				TotalPages:  meta.TotalPages,
				HasNext:     meta.HasNext,
				HasPrevious: meta.HasPrevious,
			},
		},
	})
}

// classify maps an execution error to a status, code and client message.
// Store failure details are not exposed to clients.
func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, query.ErrCoercion), errors.Is(err, query.ErrUnknownField):
		return http.StatusBadRequest, CodeInvalidParameter, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, CodeStoreTimeout, "the store did not answer in time"
	default:
		return http.StatusInternalServerError, CodeInternal, "failed to list resource"
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("Failed to write response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, Envelope{Success: false, Error: &ErrorBody{Code: code, Message: message}})
}
