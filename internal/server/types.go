// Package server exposes the query surface over HTTP JSON-RPC: fetch_page
// plus a few operational methods, dispatched through a method registry.
package server

import (
	"context"
	"encoding/json"
	"sort"
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      any             `json:"id,omitempty"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string    `json:"jsonrpc"`
	Result  any       `json:"result,omitempty"`
	Error   *RPCError `json:"error,omitempty"`
	ID      any       `json:"id,omitempty"`
}

// RPCError is a JSON-RPC error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
)

func errInvalidParams(msg string) *RPCError {
	return &RPCError{Code: codeInvalidParams, Message: msg}
}

func errServer(msg string) *RPCError {
	return &RPCError{Code: codeServerError, Message: msg}
}

// MethodHandler is implemented by every registered method.
type MethodHandler interface {
	Handle(ctx context.Context, params json.RawMessage) (any, *RPCError)
}

// Registry maps method names to handlers.
type Registry struct {
	methods map[string]MethodHandler
}

func NewRegistry() *Registry {
	return &Registry{methods: make(map[string]MethodHandler)}
}

func (r *Registry) Register(name string, h MethodHandler) {
	r.methods[name] = h
}

func (r *Registry) Get(name string) (MethodHandler, bool) {
	h, ok := r.methods[name]
	return h, ok
}

// List returns the registered method names in sorted order.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
