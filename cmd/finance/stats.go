package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"finance/internal/cli"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show totals, top category and cap status",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	app, _, err := openApp(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer app.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintln(out, cli.RenderTitle("SPENDING SUMMARY"))
	fmt.Fprintln(out)
	fmt.Fprint(out, cli.RenderStats(app.Service.Stats()))

	var last time.Time
	for _, r := range app.Store.Records() {
		if r.CreatedAt.After(last) {
			last = r.CreatedAt
		}
	}
	fmt.Fprintf(out, "  Last added: %s\n", cli.FormatAge(last))
	return nil
}
