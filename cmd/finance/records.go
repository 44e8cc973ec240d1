package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"finance/internal/cli"
	"finance/internal/core"
	"finance/internal/services"
)

var (
	flagAddCategory string
	flagAddDate     string

	flagListFilter string
	flagListSort   string
	flagListDesc   bool
)

var addCmd = &cobra.Command{
	Use:   "add <description> <amount>",
	Short: "Add a spending record",
	Args:  cobra.ExactArgs(2),
	RunE:  runAdd,
}

var rmCmd = &cobra.Command{
	Use:     "rm <id>...",
	Aliases: []string{"delete"},
	Short:   "Delete records by id",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runRemove,
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List records, optionally filtered and sorted",
	RunE:    runList,
}

var importCmd = &cobra.Command{
	Use:   "import <file.json|->",
	Short: "Append records from a JSON array",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write all records as a JSON array (default: stdout)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExport,
}

func init() {
	addCmd.Flags().StringVarP(&flagAddCategory, "category", "C", "", "Category (letters, single spaces or hyphens)")
	addCmd.Flags().StringVar(&flagAddDate, "date", "", "Date as YYYY-MM-DD (default: today)")
	_ = addCmd.MarkFlagRequired("category")

	listCmd.Flags().StringVarP(&flagListFilter, "filter", "f", "", "Case-insensitive regular expression matched against description and category")
	listCmd.Flags().StringVarP(&flagListSort, "sort", "s", "", "Sort by description, amount, category or date")
	listCmd.Flags().BoolVar(&flagListDesc, "desc", false, "Sort descending")

	rootCmd.AddCommand(addCmd, rmCmd, listCmd, importCmd, exportCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, _, err := openApp(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer app.Close()

	date := flagAddDate
	if date == "" {
		date = time.Now().Format(time.DateOnly)
	}

	rec, err := app.Service.OnAdd(ctx, core.RecordInput{
		Description: args[0],
		Amount:      args[1],
		Category:    flagAddCategory,
		Date:        date,
	})
	var fe *core.FieldError
	if errors.As(err, &fe) {
		return fmt.Errorf("invalid input format: %s %q", fe.Field, fe.Value)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Added %s  %s  %s  %s  (%s)\n",
		rec.ID, rec.Description, cli.FormatMoney(rec.Amount), rec.Category, rec.Date)
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, _, err := openApp(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer app.Close()

	var missing []string
	for _, id := range args {
		rec, found := app.Store.Get(id)
		if !found {
			missing = append(missing, id)
			continue
		}
		if _, err := app.Service.OnDelete(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s  %s  %s\n", id, rec.Description, cli.FormatMoney(rec.Amount))
	}
	if len(missing) > 0 {
		return fmt.Errorf("no record with id %v", missing)
	}
	return nil
}

func runList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	app, _, err := openApp(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer app.Close()

	sort := services.SortState{Dir: core.Ascending}
	if flagListSort != "" {
		field, err := core.ParseSortField(flagListSort)
		if err != nil {
			return err
		}
		sort.Field = field
	}
	if flagListDesc {
		sort.Dir = core.Descending
	}

	snap := app.Service.SetView(flagListFilter, sort)
	out := cmd.OutOrStdout()
	if !snap.PatternValid {
		fmt.Fprintf(cmd.ErrOrStderr(), "  Pattern %q is not a valid expression; showing all records.\n", flagListFilter)
	}
	if len(snap.Rows) == 0 {
		fmt.Fprintln(out, "\n  No records.")
		return nil
	}

	fmt.Fprintln(out)
	fmt.Fprint(out, cli.RenderTable(cli.RecordsTable(snap.Rows)))
	fmt.Fprintf(out, "  %s of %s record(s)\n", cli.FormatCount(len(snap.Rows)), cli.FormatCount(snap.Stats.Count))
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, _, err := openApp(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer app.Close()

	var src io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		src = f
	}

	report, err := app.Service.OnImport(ctx, src)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Imported %s record(s), skipped %s.\n",
		cli.FormatCount(report.Accepted), cli.FormatCount(len(report.Rejected)))
	for _, rej := range report.Rejected {
		fmt.Fprintf(out, "  entry %d: %s\n", rej.Index+1, rej.Reason)
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, _, err := openApp(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer app.Close()

	if len(args) == 0 || args[0] == "-" {
		return app.Service.Export(ctx, cmd.OutOrStdout())
	}

	path := args[0]
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := app.Service.Export(ctx, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if info, err := os.Stat(path); err == nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "  Wrote %s (%s)\n", path, cli.FormatBytes(int(info.Size())))
	}
	return nil
}
