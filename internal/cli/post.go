package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"guestdex/internal/codec"
	"guestdex/internal/devledger"
	"guestdex/internal/submit"
)

var postCmd = &cobra.Command{
	Use:   "post <name> <message>",
	Short: "Write a record to the dev ledger",
	Long: `Encode a guestbook record and submit it. Only the embedded dev ledger
accepts submissions; writes against a remote node go through its own wallet
tooling, not guestdex.`,
	Args: cobra.ExactArgs(2),
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

		if be.submitter == nil {
			return fmt.Errorf("post requires dev.enabled; remote submission is out of scope")
		}

		name, message := args[0], args[1]
		target := devledger.DeriveAccountID(be.owner, name)
		sig, err := submit.PostRecord(cmd.Context(), be.submitter, target, codec.Record{
			Name:    name,
			Message: message,
		})
		if err != nil {
			return err
		}

		fmt.Printf("submitted %s\n", sig)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(postCmd)
}
