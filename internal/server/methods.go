package server

import (
	"context"
	"encoding/json"
	"errors"

	"guestdex/internal/codec"
	"guestdex/internal/index"
	"guestdex/internal/ledger"
	"guestdex/internal/pager"
)

// FetchPageMethod serves the core query surface: one page of decoded
// records under an optional name-prefix filter.
type FetchPageMethod struct {
	Engine          *pager.Engine
	DefaultPageSize int
}

type fetchPageParams struct {
	Page         int    `json:"page"`
	PageSize     int    `json:"page_size"`
	SearchFilter string `json:"search_filter"`
	ForceReload  bool   `json:"force_reload"`
}

type fetchPageResult struct {
	Records  []codec.Record `json:"records"`
	Dropped  int            `json:"dropped"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
	Filter   string         `json:"search_filter"`
}

func (m *FetchPageMethod) Handle(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	// Absent page or page_size fall back to the first page at the
	// configured size; negative values pass through and yield an empty
	// page, same as a page past the end.
	req := fetchPageParams{Page: 1, PageSize: m.DefaultPageSize}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, errInvalidParams("invalid parameters: " + err.Error())
		}
	}
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = m.DefaultPageSize
	}

	res, err := m.Engine.FetchPage(ctx, req.Page, req.PageSize, req.SearchFilter, req.ForceReload)
	if err != nil {
		var fe *ledger.FetchError
		if errors.As(err, &fe) {
			return nil, errServer(fe.Error())
		}
		return nil, errServer("fetch failed: " + err.Error())
	}

	return fetchPageResult{
		Records:  res.Records,
		Dropped:  res.Dropped,
		Page:     req.Page,
		PageSize: req.PageSize,
		Filter:   req.SearchFilter,
	}, nil
}

// RecordCountMethod reports the size of the current index.
type RecordCountMethod struct {
	Cache *index.Cache
}

func (m *RecordCountMethod) Handle(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	return map[string]any{
		"count":         m.Cache.Len(),
		"search_filter": m.Cache.Filter(),
	}, nil
}

// PingMethod answers liveness probes.
type PingMethod struct{}

func (m *PingMethod) Handle(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	return map[string]string{"status": "ok"}, nil
}

// ServerInfoMethod reports build and index state for operators, plus the
// methods the registry serves.
type ServerInfoMethod struct {
	Version  string
	Cache    *index.Cache
	Registry *Registry
}

func (m *ServerInfoMethod) Handle(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	return map[string]any{
		"version":       m.Version,
		"index_size":    m.Cache.Len(),
		"search_filter": m.Cache.Filter(),
		"methods":       m.Registry.List(),
	}, nil
}
