package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"guestdex/internal/index"
	"guestdex/internal/pager"
)

var (
	fetchPage   int
	fetchSize   int
	fetchFilter string
	fetchForce  bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch one page of records",
	Long:  `Fetch a page of decoded records from the ledger and print it as JSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadEnv()
		if err != nil {
			return err
		}
		defer log.Sync()

		be, err := buildBackends(cfg, log)
		if err != nil {
			return err
		}
		defer be.close()

		size := fetchSize
		if size == 0 {
			size = cfg.Index.DefaultPageSize
		}

		cache := index.New(be.client, index.Config{MaxNameLen: cfg.Index.MaxNameLen}, log, nil)
		engine := pager.New(be.client, cache, be.owner, log, nil)

		res, err := engine.FetchPage(cmd.Context(), fetchPage, size, fetchFilter, fetchForce)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(map[string]any{
			"records":   res.Records,
			"dropped":   res.Dropped,
			"page":      fetchPage,
			"page_size": size,
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	fetchCmd.Flags().IntVar(&fetchPage, "page", 1, "1-based page number")
	fetchCmd.Flags().IntVar(&fetchSize, "page-size", 0, "records per page (0 uses the configured default)")
	fetchCmd.Flags().StringVar(&fetchFilter, "filter", "", "name prefix filter")
	fetchCmd.Flags().BoolVar(&fetchForce, "reload", false, "force an index rebuild first")
	rootCmd.AddCommand(fetchCmd)
}
