package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/q-controller/catcaption/src/pkg/history"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Lists recorded runs or shows one of them",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, cfgErr := loadConfig(cmd)
		if cfgErr != nil {
			return cfgErr
		}
		if cfg.History.Root == "" {
			return errors.New("history is disabled: set history.root in the config")
		}

		store, storeErr := openHistory(cfg)
		if storeErr != nil {
			return storeErr
		}
		defer closeHistory(store)

		out := cmd.OutOrStdout()
		if len(args) == 1 {
			entry, err := store.Get(args[0])
			if err != nil {
				return err
			}
			encoder := json.NewEncoder(out)
			encoder.SetEscapeHTML(false)
			encoder.SetIndent("", "  ")
			return encoder.Encode(entry)
		}

		entries, err := store.List()
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}
		return printEntries(cmd, entries)
	},
}

func printEntries(cmd *cobra.Command, entries []*history.Entry) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tUPLOADED\tSIZE\tREMOTE PATH")
	for _, entry := range entries {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			entry.RunID,
			entry.Record.UploadDate.Format(time.RFC3339),
			entry.Record.SizeBytes,
			entry.Record.RemotePath)
	}
	return w.Flush()
}

func init() {
	rootCmd.AddCommand(historyCmd)
}
