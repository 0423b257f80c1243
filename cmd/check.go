package cmd

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"realtor-extractor/models"
)

var checkCmd = &cobra.Command{
	Use:   "check URL",
	Short: "Ask the store whether a profile URL was already extracted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context(), cfg, logger)
		if err != nil {
			return eris.Wrap(err, "open store")
		}
		if store == nil {
			return eris.New("no store configured (STORE_DRIVER=none)")
		}
		defer store.Close()

		res, err := store.CheckDuplicate(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if !res.IsDuplicate {
			fmt.Fprintf(out, "new: %s\n", args[0])
			return nil
		}
		name := ""
		if res.Existing != nil {
			name = models.Deref(res.Existing.Name)
		}
		fmt.Fprintf(out, "duplicate: %s %s\n", args[0], name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
