// Package pager answers page requests by composing the account index, the
// ledger client, and the record codec.
package pager

import (
	"context"

	"go.uber.org/zap"

	"guestdex/internal/codec"
	"guestdex/internal/index"
	"guestdex/internal/ledger"
	"guestdex/internal/metrics"
)

// PageResult is one served page. Dropped counts positions on the page that
// were skipped because the account vanished between the scan and the fetch,
// or because its payload did not decode. A short Records slice with Dropped
// greater than zero is data loss on the page, not the end of the data.
type PageResult struct {
	Records []codec.Record
	Dropped int
}

// Engine serves pages of decoded records. Safe for concurrent use.
type Engine struct {
	client  ledger.Client
	cache   *index.Cache
	owner   ledger.AccountID
	log     *zap.Logger
	metrics *metrics.Metrics
}

// New creates an engine serving records owned by owner.
func New(client ledger.Client, cache *index.Cache, owner ledger.AccountID, log *zap.Logger, m *metrics.Metrics) *Engine {
	if m == nil {
		m = metrics.NewNop()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		client:  client,
		cache:   cache,
		owner:   owner,
		log:     log.Named("pager"),
		metrics: m,
	}
}

// FetchPage returns the 1-based page of the given size under filter. The
// index is rebuilt first when it has never been built, the filter changed,
// or force is set; a rebuild failure is returned as-is and leaves the prior
// index serving. An out-of-range page is an empty result with no ledger
// round trip.
//
// Missing and undecodable accounts are dropped from the page rather than
// failing it; callers detecting the last page should request the next page
// and check for zero results instead of relying on a short page.
func (e *Engine) FetchPage(ctx context.Context, page, size int, filter string, force bool) (PageResult, error) {
	if force || e.cache.Stale(filter) {
		if err := e.cache.Rebuild(ctx, e.owner, filter); err != nil {
			return PageResult{}, err
		}
	}

	ids := e.cache.Page(page, size)
	if len(ids) == 0 {
		e.metrics.PagesServedTotal.Inc()
		return PageResult{Records: []codec.Record{}}, nil
	}

	payloads, err := e.client.FetchBatch(ctx, ids)
	if err != nil {
		e.metrics.LedgerErrorsTotal.WithLabelValues("fetch_batch").Inc()
		return PageResult{}, err
	}

	result := PageResult{Records: make([]codec.Record, 0, len(ids))}
	for i, payload := range payloads {
		if payload == nil {
			result.Dropped++
			e.log.Debug("account gone since scan", zap.String("account", ids[i].String()))
			continue
		}
		rec, err := codec.Decode(payload)
		if err != nil {
			result.Dropped++
			e.log.Warn("undecodable record dropped",
				zap.String("account", ids[i].String()), zap.Error(err))
			continue
		}
		result.Records = append(result.Records, rec)
	}

	e.metrics.PagesServedTotal.Inc()
	e.metrics.RecordsServedTotal.Add(float64(len(result.Records)))
	e.metrics.RecordsDroppedTotal.Add(float64(result.Dropped))
	return result, nil
}
