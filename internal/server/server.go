package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"guestdex/internal/index"
	"guestdex/internal/pager"
)

// Config carries the server's construction parameters.
type Config struct {
	Version         string
	DefaultPageSize int
	RequestTimeout  time.Duration
}

// Server dispatches JSON-RPC requests to registered methods. It implements
// http.Handler.
type Server struct {
	registry *Registry
	timeout  time.Duration
	log      *zap.Logger
}

// New wires the standard method set over engine and cache.
func New(cfg Config, engine *pager.Engine, cache *index.Cache, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	registry := NewRegistry()
	registry.Register("fetch_page", &FetchPageMethod{Engine: engine, DefaultPageSize: cfg.DefaultPageSize})
	registry.Register("record_count", &RecordCountMethod{Cache: cache})
	registry.Register("ping", &PingMethod{})
	registry.Register("server_info", &ServerInfoMethod{Version: cfg.Version, Cache: cache, Registry: registry})

	return &Server{
		registry: registry,
		timeout:  cfg.RequestTimeout,
		log:      log.Named("server"),
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeResponse(w, Response{JSONRPC: "2.0", Error: &RPCError{Code: codeParseError, Message: "failed to read request body"}})
		return
	}
	defer r.Body.Close()

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeResponse(w, Response{JSONRPC: "2.0", Error: &RPCError{Code: codeParseError, Message: "invalid JSON: " + err.Error()}})
		return
	}

	handler, ok := s.registry.Get(req.Method)
	if !ok {
		s.log.Debug("unknown method", zap.String("method", req.Method))
		s.writeResponse(w, Response{JSONRPC: "2.0", ID: req.ID,
			Error: &RPCError{Code: codeMethodNotFound, Message: "unknown method: " + req.Method}})
		return
	}

	ctx := r.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	started := time.Now()
	result, rpcErr := handler.Handle(ctx, req.Params)
	s.log.Debug("method handled",
		zap.String("method", req.Method),
		zap.Duration("took", time.Since(started)),
		zap.Bool("error", rpcErr != nil))

	resp := Response{JSONRPC: "2.0", ID: req.ID}
	if rpcErr != nil {
		resp.Error = rpcErr
	} else {
		resp.Result = result
	}
	s.writeResponse(w, resp)
}

func (s *Server) writeResponse(w http.ResponseWriter, resp Response) {
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Warn("write response", zap.Error(err))
	}
}
