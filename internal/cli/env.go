package cli

import (
	"fmt"

	"go.uber.org/zap"

	"guestdex/internal/config"
	"guestdex/internal/devledger"
	"guestdex/internal/ledger"
	"guestdex/internal/ledger/rpcclient"
	"guestdex/internal/storage/kv"
	"guestdex/internal/submit"
)

// backends bundles the wired ledger-facing pieces for one command run.
type backends struct {
	client    ledger.Client
	submitter submit.Submitter // nil unless the dev ledger is enabled
	owner     ledger.AccountID
	close     func() error
}

// buildBackends wires either the embedded dev ledger or the remote RPC
// client, per config.
func buildBackends(cfg *config.Config, log *zap.Logger) (*backends, error) {
	owner, err := ledger.ParseAccountID(cfg.Ledger.Owner)
	if err != nil {
		return nil, fmt.Errorf("ledger.owner: %w", err)
	}

	if cfg.Dev.Enabled {
		store, err := kv.Open(cfg.Dev.Backend, cfg.Dev.Path)
		if err != nil {
			return nil, fmt.Errorf("open dev ledger store: %w", err)
		}
		dev, err := devledger.Open(owner, store, log)
		if err != nil {
			store.Close()
			return nil, err
		}
		return &backends{client: dev, submitter: dev, owner: owner, close: store.Close}, nil
	}

	client := rpcclient.New(rpcclient.Config{
		Endpoint: cfg.Ledger.Endpoint,
		Timeout:  cfg.Ledger.Timeout,
	})
	return &backends{client: client, owner: owner, close: func() error { return nil }}, nil
}
